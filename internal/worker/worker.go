package worker

import (
	"context"
	"time"

	"github.com/rzzdr/var-engine/internal/kafka"
	"github.com/rzzdr/var-engine/internal/marketdata"
	"github.com/rzzdr/var-engine/internal/portfolio"
	"github.com/rzzdr/var-engine/internal/risk"
	"github.com/rzzdr/var-engine/internal/store"
	"github.com/rzzdr/var-engine/pkg/metrics"
	"github.com/rzzdr/var-engine/pkg/models"
	"github.com/rzzdr/var-engine/pkg/utils/logger"
)

const lagReportInterval = 15 * time.Second

// Worker consumes VaR requests from Kafka, runs the requested model
// and publishes the result.
type Worker struct {
	engine   *risk.Engine
	datasets *store.DatasetStore
	consumer *kafka.Consumer
	producer *kafka.Producer
	recorder *metrics.Recorder
	log      *logger.Logger
}

// New wires a worker.
func New(engine *risk.Engine, datasets *store.DatasetStore, consumer *kafka.Consumer, producer *kafka.Producer, recorder *metrics.Recorder) *Worker {
	return &Worker{
		engine:   engine,
		datasets: datasets,
		consumer: consumer,
		producer: producer,
		recorder: recorder,
		log:      logger.GetLogger("worker"),
	}
}

// Run consumes until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	go w.reportLag(ctx)
	return w.consumer.Consume(ctx, w.handle)
}

// handle processes one request. Malformed payloads are logged and
// committed; redelivering them can never succeed.
func (w *Worker) handle(ctx context.Context, msg kafka.Message) error {
	var req models.VaRRequest
	if err := msg.UnmarshalPayload(&req); err != nil {
		w.log.Errorw("dropping malformed request", "offset", msg.Offset, "error", err)
		return nil
	}

	start := time.Now()
	result, err := w.calculate(ctx, req)
	w.recorder.RecordVaRRun(req.Model, err, time.Since(start))

	response := models.VaRResponse{
		RequestID:   req.RequestID,
		Model:       req.Model,
		CompletedAt: time.Now().UTC(),
	}
	if err != nil {
		w.log.Warnw("calculation failed", "request_id", req.RequestID, "model", req.Model, "error", err)
		response.Error = err.Error()
	} else {
		response.Result = result
		w.recorder.RecordVaR(req.Model, result.ConfidenceLevel, result.VaRDollar, result.Diagnostics.Tail.ES)
		w.recorder.RecordScenarioCount(req.Model, result.Diagnostics.Scenarios["n"])
	}

	return w.producer.Publish(ctx, req.RequestID, response)
}

func (w *Worker) calculate(ctx context.Context, req models.VaRRequest) (*risk.Result, error) {
	port, err := portfolio.FromSpecs(req.Portfolio)
	if err != nil {
		return nil, err
	}

	horizon := req.Horizon
	if horizon == 0 {
		horizon = 1.0 / marketdata.TradingDaysPerYear
	}
	md, err := w.datasets.Load(req.Dataset, horizon)
	if err != nil {
		return nil, err
	}

	return w.engine.Calculate(ctx, risk.ModelKind(req.Model), port, md, req.Params)
}

func (w *Worker) reportLag(ctx context.Context) {
	ticker := time.NewTicker(lagReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.recorder.RecordKafkaLag(w.consumer.Topic(), w.consumer.GroupID(), w.consumer.Lag())
		}
	}
}
