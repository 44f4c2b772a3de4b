package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"assessment-service/internal/answer"
	"assessment-service/internal/app"
	"assessment-service/internal/domain"
	"assessment-service/internal/schema"
)

// maxBodyBytes bounds assessment and answer documents.
const maxBodyBytes = 1 << 20

// AdminHandler serves schema validation, assessment authoring and stateless scoring.
type AdminHandler struct {
	service *app.AssessmentService
}

func NewAdminHandler(service *app.AssessmentService) *AdminHandler {
	return &AdminHandler{service: service}
}

type saveResponse struct {
	ID     string        `json:"id"`
	Report schema.Report `json:"report"`
}

type scoreRequest struct {
	Answers answer.Map `json:"answers"`
}

// Validate reports on a schema or full assessment document. The response is
// always 200; validity is in the body.
func (h *AdminHandler) Validate(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read body")
		return
	}
	_, report := app.DecodeAssessment(raw)
	writeJSON(w, http.StatusOK, report)
}

// Save validates and stores the assessment named in the path.
func (h *AdminHandler) Save(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read body")
		return
	}
	a, report := app.DecodeAssessment(raw)
	if !report.Valid {
		writeJSON(w, http.StatusUnprocessableEntity, report)
		return
	}
	a.ID = chi.URLParam(r, "id")

	report, err = h.service.SaveAssessment(r.Context(), a)
	switch {
	case errors.Is(err, domain.ErrInvalidSchema):
		writeJSON(w, http.StatusUnprocessableEntity, report)
	case err != nil:
		zap.L().Error("save assessment failed", zap.String("assessment_id", a.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not save assessment")
	default:
		writeJSON(w, http.StatusOK, saveResponse{ID: a.ID, Report: report})
	}
}

// Score computes a result for the posted answers without creating an attempt.
func (h *AdminHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid answers payload")
		return
	}

	result, err := h.service.Score(r.Context(), chi.URLParam(r, "id"), req.Answers)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAssessmentNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case app.IsClientError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		zap.L().Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorPayload{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Debug("response write failed", zap.Error(err))
	}
}
