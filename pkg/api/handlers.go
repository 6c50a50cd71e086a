package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rzzdr/var-engine/internal/marketdata"
	"github.com/rzzdr/var-engine/internal/portfolio"
	"github.com/rzzdr/var-engine/internal/risk"
	"github.com/rzzdr/var-engine/pkg/models"
	"github.com/rzzdr/var-engine/pkg/utils/errors"
)

// defaultHorizon is one trading day in annual terms.
const defaultHorizon = 1.0 / marketdata.TradingDaysPerYear

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

func (s *Server) handleCalculateVaR(c *gin.Context) {
	kind := risk.ModelKind(c.Param("model"))
	switch kind {
	case risk.ModelParametric, risk.ModelHistSim, risk.ModelMonteCarlo:
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown model " + string(kind)})
		return
	}

	var req models.VaRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	horizon := req.Horizon
	if horizon == 0 {
		horizon = defaultHorizon
	}

	port, err := portfolio.FromSpecs(req.Portfolio)
	if err != nil {
		s.respondError(c, err)
		return
	}
	md, err := s.datasets.Load(req.Dataset, horizon)
	if err != nil {
		s.respondError(c, err)
		return
	}

	start := time.Now()
	result, err := s.engine.Calculate(c.Request.Context(), kind, port, md, req.Params)
	s.recorder.RecordVaRRun(string(kind), err, time.Since(start))
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.recorder.RecordVaR(string(kind), result.ConfidenceLevel, result.VaRDollar, result.Diagnostics.Tail.ES)
	s.recorder.RecordScenarioCount(string(kind), result.Diagnostics.Scenarios["n"])

	response := models.VaRResponse{
		RequestID:   req.RequestID,
		Model:       string(kind),
		Result:      result,
		CompletedAt: time.Now().UTC(),
	}
	s.hub.Broadcast("var_result", response)
	c.JSON(http.StatusOK, response)
}

func (s *Server) handleGreeksReport(c *gin.Context) {
	var req models.GreeksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	port, err := portfolio.FromSpecs(req.Portfolio)
	if err != nil {
		s.respondError(c, err)
		return
	}
	md, err := s.datasets.Load(req.Dataset, defaultHorizon)
	if err != nil {
		s.respondError(c, err)
		return
	}

	base, err := risk.BaseScenario(md)
	if err != nil {
		s.respondError(c, err)
		return
	}
	report, err := s.greeks.Report(port, base)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleListDatasets(c *gin.Context) {
	infos, err := s.datasets.List()
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"datasets": infos})
}

func (s *Server) handleUploadDataset(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload"})
		return
	}
	name := c.PostForm("name")
	if name == "" {
		name = file.Filename
	}

	src, err := file.Open()
	if err != nil {
		s.respondError(c, errors.Wrap(err, "failed to read upload"))
		return
	}
	defer src.Close()

	info, err := s.datasets.Save(name, src)
	s.recorder.RecordDatasetUpload(err)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, info)
}

func (s *Server) handleGetDataset(c *gin.Context) {
	info, err := s.datasets.Get(c.Param("name"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) handleDeleteDataset(c *gin.Context) {
	if err := s.datasets.Delete(c.Param("name")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// respondError maps classified errors to HTTP statuses.
func (s *Server) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch errors.TypeOf(err) {
	case errors.ErrorTypeInvalidArgument, errors.ErrorTypeConfig:
		status = http.StatusBadRequest
	case errors.ErrorTypeData, errors.ErrorTypeValuation:
		status = http.StatusUnprocessableEntity
	case errors.ErrorTypeNotFound:
		status = http.StatusNotFound
	case errors.ErrorTypeAlreadyExists:
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		s.log.Errorw("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
