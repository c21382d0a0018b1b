// Package httpapi provides the REST HTTP adapter for the server surfaces.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hylla/takt/internal/adapters/server/common"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	velocity common.VelocityService
	summary  common.SummaryReader
	profiles common.ProfileDirectory
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs one HTTP API adapter from velocity, summary, and profile services.
func NewHandler(velocity common.VelocityService, summary common.SummaryReader, profiles common.ProfileDirectory) *Handler {
	return &Handler{
		velocity: velocity,
		summary:  summary,
		profiles: profiles,
	}
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := normalizePath(r.URL.Path)
	switch {
	case path == "metrics":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleMetrics(w, r)
		return
	case path == "summary":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleSummary(w, r)
		return
	case path == "weeks/tasks":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleWeekSeries(w, r, h.tasksPerWeek)
		return
	case path == "weeks/specs":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleWeekSeries(w, r, h.specsPerWeek)
		return
	case path == "tasks/completions":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleRecordTaskCompletion(w, r)
		return
	case path == "specs/completions":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleRecordSpecCompletion(w, r)
		return
	case path == "specs/progress":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleUpdateSpecProgress(w, r)
		return
	case path == "specs":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleListSpecActivity(w, r)
		return
	case path == "profiles":
		switch r.Method {
		case http.MethodGet:
			h.handleListProfiles(w, r)
		case http.MethodPost:
			h.handleCreateProfile(w, r)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
		return
	case path == "profiles/validate":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleValidateProfile(w, r)
		return
	default:
		if specID, ok := resolveChildID(path, "specs/"); ok {
			if r.Method != http.MethodGet {
				writeMethodNotAllowed(w, http.MethodGet)
				return
			}
			h.handleGetSpecActivity(w, r, specID)
			return
		}
		if profileID, ok := resolveChildID(path, "profiles/"); ok {
			switch r.Method {
			case http.MethodGet:
				h.handleGetProfile(w, r, profileID)
			case http.MethodPut:
				h.handleUpdateProfile(w, r, profileID)
			default:
				writeMethodNotAllowed(w, http.MethodGet, http.MethodPut)
			}
			return
		}
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: "endpoint not found",
		})
	}
}

// handleMetrics serves GET `/metrics`.
func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if h.velocity == nil {
		writeVelocityUnconfigured(w)
		return
	}
	metrics, err := h.velocity.VelocityMetrics(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

// handleSummary serves GET `/summary`.
func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	if h.summary == nil {
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: "summary service is not configured",
		})
		return
	}
	weeks, err := parseWeeksParam(r)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	summary, err := h.summary.VelocitySummary(r.Context(), common.SummaryRequest{Weeks: weeks})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleWeekSeries serves the per-week series routes under `/weeks`.
func (h *Handler) handleWeekSeries(w http.ResponseWriter, r *http.Request, series func(context.Context, int) ([]int, error)) {
	if h.velocity == nil {
		writeVelocityUnconfigured(w)
		return
	}
	weeks, err := parseWeeksParam(r)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	counts, err := series(r.Context(), weeks)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"counts": counts,
	})
}

// tasksPerWeek adapts the velocity task series for handleWeekSeries.
func (h *Handler) tasksPerWeek(ctx context.Context, weeks int) ([]int, error) {
	return h.velocity.TasksPerWeek(ctx, weeks)
}

// specsPerWeek adapts the velocity completion series for handleWeekSeries.
func (h *Handler) specsPerWeek(ctx context.Context, weeks int) ([]int, error) {
	return h.velocity.SpecsPerWeek(ctx, weeks)
}

// handleRecordTaskCompletion serves POST `/tasks/completions`.
func (h *Handler) handleRecordTaskCompletion(w http.ResponseWriter, r *http.Request) {
	if h.velocity == nil {
		writeVelocityUnconfigured(w)
		return
	}
	var req common.RecordTaskRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	view, err := h.velocity.RecordTaskCompletion(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// handleRecordSpecCompletion serves POST `/specs/completions`.
func (h *Handler) handleRecordSpecCompletion(w http.ResponseWriter, r *http.Request) {
	if h.velocity == nil {
		writeVelocityUnconfigured(w)
		return
	}
	var req common.RecordSpecCompletionRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	view, err := h.velocity.RecordSpecCompletion(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleUpdateSpecProgress serves POST `/specs/progress`.
func (h *Handler) handleUpdateSpecProgress(w http.ResponseWriter, r *http.Request) {
	if h.velocity == nil {
		writeVelocityUnconfigured(w)
		return
	}
	var req common.UpdateSpecProgressRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	view, err := h.velocity.UpdateSpecProgress(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleListSpecActivity serves GET `/specs`.
func (h *Handler) handleListSpecActivity(w http.ResponseWriter, r *http.Request) {
	if h.velocity == nil {
		writeVelocityUnconfigured(w)
		return
	}
	views, err := h.velocity.ListSpecActivity(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"specs": views,
	})
}

// handleGetSpecActivity serves GET `/specs/{id}`.
func (h *Handler) handleGetSpecActivity(w http.ResponseWriter, r *http.Request, specID string) {
	if h.velocity == nil {
		writeVelocityUnconfigured(w)
		return
	}
	view, err := h.velocity.GetSpecActivity(r.Context(), specID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleListProfiles serves GET `/profiles`.
func (h *Handler) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	if h.profiles == nil {
		writeProfilesUnconfigured(w)
		return
	}
	views, err := h.profiles.ListProfiles(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"profiles": views,
	})
}

// handleCreateProfile serves POST `/profiles`.
func (h *Handler) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	if h.profiles == nil {
		writeProfilesUnconfigured(w)
		return
	}
	var req common.ProfileRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	view, err := h.profiles.CreateProfile(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// handleGetProfile serves GET `/profiles/{id}`.
func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request, profileID string) {
	if h.profiles == nil {
		writeProfilesUnconfigured(w)
		return
	}
	view, err := h.profiles.GetProfile(r.Context(), profileID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleUpdateProfile serves PUT `/profiles/{id}`. The path id wins over any
// id carried in the body.
func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request, profileID string) {
	if h.profiles == nil {
		writeProfilesUnconfigured(w)
		return
	}
	var payload common.ProfileRequest
	if err := decodeJSONBody(r.Context(), w, r, &payload); err != nil {
		writeErrorFrom(w, err)
		return
	}
	req := common.ProfileRequest{
		ID:       profileID,
		Name:     payload.Name,
		Template: payload.Template,
	}
	view, err := h.profiles.UpdateProfile(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleValidateProfile serves POST `/profiles/validate`.
func (h *Handler) handleValidateProfile(w http.ResponseWriter, r *http.Request) {
	if h.profiles == nil {
		writeProfilesUnconfigured(w)
		return
	}
	var req common.ProfileRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	result, err := h.profiles.ValidateProfile(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// resolveChildID parses `{prefix}{id}` and returns `{id}`.
func resolveChildID(path, prefix string) (string, bool) {
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	id := strings.TrimSpace(strings.TrimPrefix(path, prefix))
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// normalizePath canonicalizes one request path for route matching.
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.Trim(path, "/")
	return path
}

// parseWeeksParam parses the optional `weeks` query parameter.
func parseWeeksParam(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("weeks"))
	if raw == "" {
		return 0, nil
	}
	weeks, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("weeks %q is not an integer: %w", raw, common.ErrInvalidVelocityRequest)
	}
	return weeks, nil
}

// writeVelocityUnconfigured reports the missing velocity service as a 503.
func writeVelocityUnconfigured(w http.ResponseWriter) {
	writeJSONError(w, http.StatusServiceUnavailable, APIError{
		Code:    "service_unavailable",
		Message: "velocity service is not configured",
	})
}

// writeProfilesUnconfigured reports the missing profile directory as a 503.
func writeProfilesUnconfigured(w http.ResponseWriter) {
	writeJSONError(w, http.StatusServiceUnavailable, APIError{
		Code:    "service_unavailable",
		Message: "profile directory is not configured",
	})
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, common.ErrProfileConflict):
		writeJSONError(w, http.StatusConflict, APIError{
			Code:    "conflict",
			Message: err.Error(),
			Hint:    "Update the existing profile with PUT /profiles/{id}.",
		})
	case errors.Is(err, common.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrInvalidVelocityRequest), errors.Is(err, common.ErrInvalidProfileRequest):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrVelocityUnavailable):
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: err.Error(),
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON request body with strict shape checks.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidVelocityRequest, err))
	}
	// Reject trailing payloads so malformed JSON bodies fail closed.
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", common.ErrInvalidVelocityRequest)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}
