package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/davidleathers/normative-engine/internal/domain/errors"
	"github.com/davidleathers/normative-engine/internal/domain/normative"
	engine "github.com/davidleathers/normative-engine/internal/service/normative"
)

// Handler exposes the normative engine over HTTP.
type Handler struct {
	service engine.Service
	logger  *zap.Logger
}

func NewHandler(service engine.Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.Named("api.rest"),
	}
}

func (h *Handler) handleRegisterFramework(w http.ResponseWriter, r *http.Request) {
	var req RegisterFrameworkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "request body is not valid JSON")
		return
	}

	framework, ok := req.toDomain()
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_JURISDICTION", "jurisdiction must be one of international, regional, federal, state, organizational")
		return
	}

	id, err := h.service.RegisterFramework(r.Context(), framework)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, RegisterFrameworkResponse{ID: id})
}

func (h *Handler) handleGetFramework(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	framework, err := h.service.GetFramework(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, framework)
}

func (h *Handler) handleListFrameworks(w http.ResponseWriter, r *http.Request) {
	if query := r.URL.Query().Get("q"); query != "" {
		frameworks, err := h.service.SearchFrameworks(r.Context(), query)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, frameworks)
		return
	}

	frameworks, err := h.service.GetActiveFrameworks(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, frameworks)
}

func (h *Handler) handleGetHierarchy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	deps, err := h.service.GetFrameworkHierarchy(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, HierarchyResponse{
		FrameworkID:  id,
		Dependencies: deps,
	})
}

func (h *Handler) handleDetectConflicts(w http.ResponseWriter, r *http.Request) {
	var req DetectConflictsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "request body is not valid JSON")
		return
	}

	frameworks, err := h.loadFrameworks(r, req.FrameworkIDs)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	conflicts, err := h.service.DetectConflicts(r.Context(), frameworks)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	resp := DetectConflictsResponse{
		Conflicts: make([]ConflictResponse, 0, len(conflicts)),
		Total:     len(conflicts),
	}
	for _, c := range conflicts {
		resp.Conflicts = append(resp.Conflicts, toConflictResponse(c))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleAssessCompliance(w http.ResponseWriter, r *http.Request) {
	var req AssessComplianceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "request body is not valid JSON")
		return
	}

	assessment, err := h.service.AssessCompliance(r.Context(), engine.AssessmentRequest{
		EntityID:     req.EntityID,
		FrameworkIDs: req.FrameworkIDs,
		Evidence:     req.Evidence,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, assessment)
}

// handleComplianceReport runs an assessment and renders it as plain text.
func (h *Handler) handleComplianceReport(w http.ResponseWriter, r *http.Request) {
	var req AssessComplianceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "request body is not valid JSON")
		return
	}

	assessment, err := h.service.AssessCompliance(r.Context(), engine.AssessmentRequest{
		EntityID:     req.EntityID,
		FrameworkIDs: req.FrameworkIDs,
		Evidence:     req.Evidence,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	report := h.service.GenerateComplianceReport(assessment)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(report))
}

// loadFrameworks resolves the requested framework ids, defaulting to all
// active frameworks when none are named.
func (h *Handler) loadFrameworks(r *http.Request, ids []uuid.UUID) ([]*normative.Framework, error) {
	if len(ids) == 0 {
		return h.service.GetActiveFrameworks(r.Context())
	}

	frameworks := make([]*normative.Framework, 0, len(ids))
	for _, id := range ids {
		framework, err := h.service.GetFramework(r.Context(), id)
		if err != nil {
			return nil, err
		}
		frameworks = append(frameworks, framework)
	}
	return frameworks, nil
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var appErr *domainErrors.AppError
	if errors.As(err, &appErr) {
		h.logger.Debug("request failed", zap.String("code", appErr.Code), zap.Error(err))
		writeError(w, appErr.StatusCode, appErr.Code, appErr.Message)
		return
	}

	h.logger.Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred")
}

func pathUUID(w http.ResponseWriter, r *http.Request, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(key))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "path id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
