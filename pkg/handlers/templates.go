package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/vantagebi/vantage-engine/pkg/config"
	"github.com/vantagebi/vantage-engine/pkg/models"
	"github.com/vantagebi/vantage-engine/pkg/services"
)

// TemplateRequest is the body of template create and update calls.
type TemplateRequest struct {
	Name      string               `json:"name"`
	SQLText   string               `json:"sql_text"`
	Dialect   string               `json:"dialect"`
	Variables []models.VariableDef `json:"variables"`
}

// RenderRequest is the body of POST /api/templates/{tid}/render.
type RenderRequest struct {
	Variables []models.ScriptVariable `json:"variables"`
}

// ExecuteRequest is the body of POST /api/templates/{tid}/execute.
type ExecuteRequest struct {
	Datasource string                  `json:"datasource"`
	Variables  []models.ScriptVariable `json:"variables"`
	Limit      int                     `json:"limit"`
}

// TemplateHandler serves the stored-template CRUD, render, and execute
// endpoints.
type TemplateHandler struct {
	templates *services.TemplateService
	execution *services.ExecutionService
	maxBytes  int
	logger    *zap.Logger
}

// NewTemplateHandler creates a TemplateHandler.
func NewTemplateHandler(templates *services.TemplateService, execution *services.ExecutionService, security *config.SecurityConfig, logger *zap.Logger) *TemplateHandler {
	return &TemplateHandler{
		templates: templates,
		execution: execution,
		maxBytes:  security.MaxTemplateBytes,
		logger:    logger,
	}
}

// RegisterRoutes registers the handler's routes on the given mux.
func (h *TemplateHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/templates", h.Create)
	mux.HandleFunc("GET /api/templates", h.List)
	mux.HandleFunc("GET /api/templates/{tid}", h.Get)
	mux.HandleFunc("PUT /api/templates/{tid}", h.Update)
	mux.HandleFunc("DELETE /api/templates/{tid}", h.Delete)
	mux.HandleFunc("GET /api/templates/{tid}/columns", h.Columns)
	mux.HandleFunc("POST /api/templates/{tid}/render", h.Render)
	mux.HandleFunc("POST /api/templates/{tid}/execute", h.Execute)
}

// Create handles POST /api/templates.
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	tmpl, ok := h.decodeTemplate(w, r)
	if !ok {
		return
	}

	if err := h.templates.Create(r.Context(), tmpl); err != nil {
		writeSubstitutionError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, tmpl); err != nil {
		h.logger.Error("Failed to encode template response", zap.Error(err))
	}
}

// List handles GET /api/templates.
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.templates.List(r.Context())
	if err != nil {
		writeSubstitutionError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"templates": templates}); err != nil {
		h.logger.Error("Failed to encode template list", zap.Error(err))
	}
}

// Get handles GET /api/templates/{tid}.
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseTemplateID(w, r, h.logger)
	if !ok {
		return
	}

	tmpl, err := h.templates.Get(r.Context(), id)
	if err != nil {
		writeSubstitutionError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, tmpl); err != nil {
		h.logger.Error("Failed to encode template response", zap.Error(err))
	}
}

// Update handles PUT /api/templates/{tid}.
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseTemplateID(w, r, h.logger)
	if !ok {
		return
	}

	tmpl, ok := h.decodeTemplate(w, r)
	if !ok {
		return
	}
	tmpl.ID = id

	if err := h.templates.Update(r.Context(), tmpl); err != nil {
		writeSubstitutionError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, tmpl); err != nil {
		h.logger.Error("Failed to encode template response", zap.Error(err))
	}
}

// Delete handles DELETE /api/templates/{tid}.
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseTemplateID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.templates.Delete(r.Context(), id); err != nil {
		writeSubstitutionError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Columns handles GET /api/templates/{tid}/columns.
func (h *TemplateHandler) Columns(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseTemplateID(w, r, h.logger)
	if !ok {
		return
	}

	cols, err := h.templates.Describe(r.Context(), id)
	if err != nil {
		writeSubstitutionError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"columns": cols}); err != nil {
		h.logger.Error("Failed to encode columns response", zap.Error(err))
	}
}

// Render handles POST /api/templates/{tid}/render.
func (h *TemplateHandler) Render(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseTemplateID(w, r, h.logger)
	if !ok {
		return
	}

	var req RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "Request body must be valid JSON", h.logger)
		return
	}

	finalSQL, err := h.templates.Render(r.Context(), id, req.Variables)
	if err != nil {
		writeSubstitutionError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, SubstituteResponse{SQL: finalSQL}); err != nil {
		h.logger.Error("Failed to encode render response", zap.Error(err))
	}
}

// Execute handles POST /api/templates/{tid}/execute.
func (h *TemplateHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseTemplateID(w, r, h.logger)
	if !ok {
		return
	}

	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "Request body must be valid JSON", h.logger)
		return
	}
	if req.Datasource == "" {
		writeError(w, http.StatusBadRequest, "missing_datasource", "A datasource name is required", h.logger)
		return
	}

	result, err := h.execution.ExecuteTemplate(r.Context(), id, req.Datasource, req.Variables, req.Limit)
	if err != nil {
		writeSubstitutionError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to encode execute response", zap.Error(err))
	}
}

// decodeTemplate reads a TemplateRequest and converts it to a model,
// enforcing the template size cap.
func (h *TemplateHandler) decodeTemplate(w http.ResponseWriter, r *http.Request) (*models.QueryTemplate, bool) {
	var req TemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "Request body must be valid JSON", h.logger)
		return nil, false
	}
	if h.maxBytes > 0 && len(req.SQLText) > h.maxBytes {
		writeError(w, http.StatusBadRequest, "template_too_large", "Template exceeds the configured size limit", h.logger)
		return nil, false
	}

	return &models.QueryTemplate{
		Name:      req.Name,
		SQLText:   req.SQLText,
		Dialect:   req.Dialect,
		Variables: req.Variables,
	}, true
}
