package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzzdr/var-engine/config"
	"github.com/rzzdr/var-engine/internal/risk"
	"github.com/rzzdr/var-engine/internal/store"
	"github.com/rzzdr/var-engine/internal/websocket"
	"github.com/rzzdr/var-engine/pkg/metrics"
	"github.com/rzzdr/var-engine/pkg/models"
)

const pricesCSV = `Date,AAPL,MSFT
2024-01-02,100.0,200.0
2024-01-03,101.0,201.0
2024-01-04,102.0,199.0
2024-01-05,100.5,202.0
2024-01-08,101.5,203.0
`

// Prometheus collectors register globally, so the recorder is shared
// across tests.
var (
	recorderOnce sync.Once
	testRecorder *metrics.Recorder
)

func sharedRecorder() *metrics.Recorder {
	recorderOnce.Do(func() {
		gin.SetMode(gin.TestMode)
		testRecorder = metrics.NewRecorder()
	})
	return testRecorder
}

func newTestServer(t *testing.T) (*Server, *store.DatasetStore) {
	t.Helper()

	datasets, err := store.NewDatasetStore(config.DataConfig{DatasetDir: t.TempDir(), DateColumn: "Date"})
	require.NoError(t, err)

	engine := risk.NewEngine(config.RiskConfig{
		ConfidenceLevel:  0.01,
		SimulationRuns:   200,
		WindowDays:       4,
		RandomSeed:       42,
		TailScenarios:    20,
		NearVaRScenarios: 10,
		Workers:          4,
	})

	srv := NewServer(config.APIConfig{}, engine, risk.NewGreeksService(), datasets, websocket.NewHub(), sharedRecorder())
	return srv, datasets
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func stockSpecs() []map[string]interface{} {
	return []map[string]interface{}{
		{"product_type": "stock", "product_id": "s1", "ticker": "AAPL", "quantity": 10.0},
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestCalculateVaRUnknownModel(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doJSON(t, srv, http.MethodPost, "/api/v1/var/delta-gamma/calculate", map[string]interface{}{})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCalculateVaRMissingDataset(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doJSON(t, srv, http.MethodPost, "/api/v1/var/histsim/calculate", map[string]interface{}{
		"dataset":   "absent",
		"portfolio": stockSpecs(),
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCalculateVaRBadPortfolio(t *testing.T) {
	srv, datasets := newTestServer(t)
	_, err := datasets.Save("prices", strings.NewReader(pricesCSV))
	require.NoError(t, err)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/var/histsim/calculate", map[string]interface{}{
		"dataset":   "prices",
		"portfolio": []map[string]interface{}{{"product_type": "swap"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCalculateVaREndToEnd(t *testing.T) {
	srv, datasets := newTestServer(t)
	_, err := datasets.Save("prices", strings.NewReader(pricesCSV))
	require.NoError(t, err)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/var/histsim/calculate", map[string]interface{}{
		"dataset":   "prices",
		"portfolio": stockSpecs(),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.VaRResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, "histsim", resp.Model)
	require.NotNil(t, resp.Result)
	assert.InDelta(t, 1015.0, resp.Result.PortfolioValue, 1e-9)
	assert.Equal(t, 4, resp.Result.Diagnostics.Scenarios["n"])
	assert.Empty(t, resp.Error)
}

func TestGreeksReportEndpoint(t *testing.T) {
	srv, datasets := newTestServer(t)
	_, err := datasets.Save("prices", strings.NewReader(pricesCSV))
	require.NoError(t, err)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/greeks/report", map[string]interface{}{
		"dataset":   "prices",
		"portfolio": stockSpecs(),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report risk.GreeksReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.InDelta(t, 1015.0, report.Portfolio.Delta, 1e-9)
	require.Len(t, report.Positions, 1)
}

func TestDatasetEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "prices.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(pricesCSV))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("name", "prices"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/datasets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, srv, http.MethodGet, "/api/v1/datasets", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"prices"`)

	w = doJSON(t, srv, http.MethodGet, "/api/v1/datasets/prices", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodDelete, "/api/v1/datasets/prices", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/v1/datasets/prices", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
