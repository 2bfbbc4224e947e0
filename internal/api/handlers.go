package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"insightviz/internal/analysis"
	"insightviz/internal/llm"
	"insightviz/internal/logging"
	"insightviz/internal/models"

	"github.com/go-chi/chi/v5"
)

const (
	DefaultMaxBodyBytes = 32 << 20

	zipFilename = "generated_charts.zip"
	pdfFilename = "business_report.pdf"
)

// errBadRequest marks request bodies that cannot be used.
var errBadRequest = errors.New("invalid request body")

// Pipeline produces the downloadable artifacts.
type Pipeline interface {
	GenerateGraphs(ctx context.Context, ds *analysis.Dataset) ([]byte, error)
	GenerateReport(ctx context.Context, ds *analysis.Dataset, notes string) ([]byte, error)
}

// ModelStatus reports the model backend for /health.
type ModelStatus interface {
	Provider() string
	Model() string
	BreakerState() string
}

type Handler struct {
	Pipeline     Pipeline
	Model        ModelStatus
	MaxBodyBytes int64
}

func NewHandler(pipeline Pipeline, model ModelStatus, maxBodyBytes int64) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{
		Pipeline:     pipeline,
		Model:        model,
		MaxBodyBytes: maxBodyBytes,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Root)
	r.Get("/health", h.HealthCheck)
	r.Post("/generate-graphs", h.GenerateGraphs)
	r.Post("/generate-report", h.GenerateReport)
}

// ============================================================================
// Health
// ============================================================================

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("insightviz backend is running"))
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{Status: "ok"}
	if h.Model != nil {
		resp.Provider = h.Model.Provider()
		resp.Model = h.Model.Model()
		resp.Breaker = h.Model.BreakerState()
	}
	writeJSON(w, http.StatusOK, resp)
}

// ============================================================================
// Artifacts
// ============================================================================

// GenerateGraphs returns a zip of chart images plus summary.txt
func (h *Handler) GenerateGraphs(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	ds := analysis.NewDataset(req.Data)

	out, err := h.Pipeline.GenerateGraphs(r.Context(), ds)
	if err != nil {
		h.fail(w, r, "generate-graphs", err)
		return
	}
	writeAttachment(w, "application/zip", zipFilename, out)
}

// GenerateReport returns the PDF business report
func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	ds := analysis.NewDataset(req.Data)

	out, err := h.Pipeline.GenerateReport(r.Context(), ds, req.Notes)
	if err != nil {
		h.fail(w, r, "generate-report", err)
		return
	}
	writeAttachment(w, "application/pdf", pdfFilename, out)
}

// decodeRequest reads {data, notes}. data must be an array of JSON objects.
func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request) (models.DataRequest, bool) {
	var req models.DataRequest
	body := http.MaxBytesReader(w, r.Body, h.MaxBodyBytes)
	if err := decodeBody(body, &req); err != nil {
		h.fail(w, r, "decode", err)
		return req, false
	}
	return req, true
}

func decodeBody(body io.Reader, req *models.DataRequest) error {
	var raw struct {
		Data  json.RawMessage `json:"data"`
		Notes *string         `json:"notes"`
	}
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	data := bytes.TrimSpace(raw.Data)
	if len(data) == 0 || data[0] != '[' {
		return fmt.Errorf("%w: data must be an array of objects", errBadRequest)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&req.Data); err != nil {
		return fmt.Errorf("%w: data must be an array of objects: %w", errBadRequest, err)
	}
	for i, rec := range req.Data {
		if rec == nil {
			return fmt.Errorf("%w: data[%d] is not an object", errBadRequest, i)
		}
	}
	if raw.Notes != nil {
		req.Notes = *raw.Notes
	}
	return nil
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case llm.IsTimeout(err):
		return http.StatusGatewayTimeout
	case errors.Is(err, llm.ErrModelCall):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	level := logging.Error
	if status < http.StatusInternalServerError {
		level = logging.Warn
	}
	level().Add(logging.Component("api")).
		Add(logging.FromContext(r.Context())).
		Add(logging.Str("op", op)).
		Add(logging.Count("status", status)).
		Add(logging.ErrorField(err)).
		Msg("request failed")
	writeJSON(w, status, models.ErrorResponse{Detail: err.Error()})
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
