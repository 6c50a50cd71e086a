package models

import (
	"time"

	"github.com/rzzdr/var-engine/internal/portfolio"
	"github.com/rzzdr/var-engine/internal/risk"
)

// VaRRequest is the wire format of a VaR calculation request, used by
// both the HTTP API and the Kafka worker.
type VaRRequest struct {
	RequestID string                  `json:"request_id,omitempty"`
	Model     string                  `json:"model"`
	Dataset   string                  `json:"dataset"`
	Horizon   float64                 `json:"horizon,omitempty"`
	Portfolio []portfolio.ProductSpec `json:"portfolio"`
	Params    risk.ModelParams        `json:"params,omitempty"`
}

// VaRResponse is the wire format of a completed calculation. Exactly
// one of Result and Error is set.
type VaRResponse struct {
	RequestID   string       `json:"request_id,omitempty"`
	Model       string       `json:"model"`
	Result      *risk.Result `json:"result,omitempty"`
	Error       string       `json:"error,omitempty"`
	CompletedAt time.Time    `json:"completed_at"`
}

// GreeksRequest asks for a Greeks report priced off a dataset's latest
// market levels.
type GreeksRequest struct {
	Dataset   string                  `json:"dataset"`
	Portfolio []portfolio.ProductSpec `json:"portfolio"`
}
