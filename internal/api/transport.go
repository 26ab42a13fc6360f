package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pagegraph/pagegraph/internal/model"
	"github.com/pagegraph/pagegraph/internal/platform/errs"
)

var errURLRequired = errors.New("the \"url\" field is required")

// Transport handles HTTP requests for the crawl job API.
type Transport struct {
	service *Service
	logger  *slog.Logger
}

// NewTransport creates an HTTP transport backed by the given service.
func NewTransport(service *Service, logger *slog.Logger) *Transport {
	return &Transport{service: service, logger: logger}
}

// RegisterRoutes attaches the transport's handlers to the given mux.
func (t *Transport) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /jobs", t.handleCreateJob)
	mux.HandleFunc("GET /jobs", t.handleListJobs)
	mux.HandleFunc("GET /jobs/{id}", t.handleJobDetail)
	mux.HandleFunc("DELETE /jobs/{id}", t.handleDeleteJob)
	mux.HandleFunc("GET /jobs/{id}/graph", t.handleJobGraph)
}

type createJobRequest struct {
	URL string `json:"url"`
}

func (r createJobRequest) validate() error {
	if r.URL == "" {
		return errURLRequired
	}
	return nil
}

func (t *Transport) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	const maxRequestBody = 1 << 20 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.renderError(w, http.StatusBadRequest, "Invalid request body. Please send a JSON object with a \"url\" field.")
		return
	}

	if err := req.validate(); err != nil {
		t.renderError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := t.service.CreateJob(r.Context(), req.URL)
	if err != nil {
		t.handleServiceError(w, err)
		return
	}

	t.renderJSON(w, http.StatusAccepted, job)
}

func (t *Transport) handleListJobs(w http.ResponseWriter, r *http.Request) {
	listing, err := t.service.ListJobs(r.Context())
	if err != nil {
		t.handleServiceError(w, err)
		return
	}
	t.renderJSON(w, http.StatusOK, listing)
}

func (t *Transport) handleJobDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := t.service.JobDetail(r.Context(), r.PathValue("id"))
	if err != nil {
		t.handleServiceError(w, err)
		return
	}
	t.renderJSON(w, http.StatusOK, detail)
}

func (t *Transport) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	if err := t.service.DeleteJob(r.Context(), r.PathValue("id")); err != nil {
		t.handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (t *Transport) handleJobGraph(w http.ResponseWriter, r *http.Request) {
	g, err := t.service.Graph(r.Context(), r.PathValue("id"))
	if err != nil {
		t.handleServiceError(w, err)
		return
	}
	t.renderJSON(w, http.StatusOK, g)
}

func (t *Transport) handleServiceError(w http.ResponseWriter, err error) {
	var appErr *errs.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch appErr.Kind {
		case errs.InvalidInput:
			status = http.StatusBadRequest
		case errs.NotFound:
			status = http.StatusNotFound
		case errs.Unreachable:
			status = http.StatusBadGateway
		case errs.Timeout:
			status = http.StatusGatewayTimeout
		case errs.ParsingFailed, errs.StorageFailed, errs.Unknown:
			// 500 Internal Server Error
		}
		t.renderError(w, status, appErr.Message)
		return
	}

	t.renderError(w, http.StatusInternalServerError, "An unexpected error occurred.")
}

func (t *Transport) renderJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		t.logger.Error("failed to encode response", "error", err)
		http.Error(w, `{"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (t *Transport) renderError(w http.ResponseWriter, status int, message string) {
	t.renderJSON(w, status, model.ErrorResponse{
		Error:      http.StatusText(status),
		StatusCode: status,
		Message:    message,
	})
}
