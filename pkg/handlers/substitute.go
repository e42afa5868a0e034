package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/vantagebi/vantage-engine/pkg/apperrors"
	"github.com/vantagebi/vantage-engine/pkg/config"
	"github.com/vantagebi/vantage-engine/pkg/models"
	"github.com/vantagebi/vantage-engine/pkg/services"
	"github.com/vantagebi/vantage-engine/pkg/sql"
)

// SubstituteRequest is the body of POST /api/substitute.
type SubstituteRequest struct {
	Template  string                  `json:"template"`
	Dialect   string                  `json:"dialect"`
	Variables []models.ScriptVariable `json:"variables"`
}

// SubstituteResponse carries the final SQL.
type SubstituteResponse struct {
	SQL string `json:"sql"`
}

// SubstituteHandler serves ad-hoc template substitution.
type SubstituteHandler struct {
	sub      *services.SubstitutionService
	maxBytes int
	logger   *zap.Logger
}

// NewSubstituteHandler creates a SubstituteHandler.
func NewSubstituteHandler(sub *services.SubstitutionService, security *config.SecurityConfig, logger *zap.Logger) *SubstituteHandler {
	return &SubstituteHandler{sub: sub, maxBytes: security.MaxTemplateBytes, logger: logger}
}

// RegisterRoutes registers the handler's routes on the given mux.
func (h *SubstituteHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/substitute", h.Substitute)
}

// Substitute handles POST /api/substitute.
func (h *SubstituteHandler) Substitute(w http.ResponseWriter, r *http.Request) {
	var req SubstituteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "Request body must be valid JSON", h.logger)
		return
	}
	if h.maxBytes > 0 && len(req.Template) > h.maxBytes {
		writeError(w, http.StatusBadRequest, "template_too_large", "Template exceeds the configured size limit", h.logger)
		return
	}

	finalSQL, err := h.sub.Substitute(r.Context(), req.Template, req.Variables, req.Dialect)
	if err != nil {
		writeSubstitutionError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, SubstituteResponse{SQL: finalSQL}); err != nil {
		h.logger.Error("Failed to encode substitute response", zap.Error(err))
	}
}

// writeSubstitutionError maps substitution failures to HTTP responses.
// Everything a caller can fix is 400 with a stable error code; an overlap is
// a locator invariant violation and stays 500.
func writeSubstitutionError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var (
		synErr     *sql.SyntaxError
		emptyErr   *sql.EmptyBindingError
		unboundErr *sql.UnboundVariableError
		unusedErr  *sql.VariableNotFoundError
		overlapErr *sql.OverlapError
	)

	switch {
	case errors.As(err, &synErr):
		writeError(w, http.StatusBadRequest, "syntax_error", synErr.Error(), logger)
	case errors.As(err, &emptyErr):
		writeError(w, http.StatusBadRequest, "empty_binding", emptyErr.Error(), logger)
	case errors.As(err, &unboundErr):
		writeError(w, http.StatusBadRequest, "unbound_variable", unboundErr.Error(), logger)
	case errors.As(err, &unusedErr):
		writeError(w, http.StatusBadRequest, "unused_variable", unusedErr.Error(), logger)
	case errors.As(err, &overlapErr):
		logger.Error("Replacement spans overlap", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "overlap_error", "Internal substitution error", logger)
	case errors.Is(err, sql.ErrUnknownDialect):
		writeError(w, http.StatusBadRequest, "unknown_dialect", err.Error(), logger)
	case errors.Is(err, sql.ErrEmptyTemplate),
		errors.Is(err, sql.ErrMultipleStatements),
		errors.Is(err, sql.ErrInvalidValue),
		errors.Is(err, apperrors.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), logger)
	case errors.Is(err, apperrors.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error(), logger)
	case errors.Is(err, apperrors.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error(), logger)
	case errors.Is(err, apperrors.ErrDatasourceDisabled):
		writeError(w, http.StatusBadRequest, "datasource_unavailable", err.Error(), logger)
	default:
		logger.Error("Substitution request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error", logger)
	}
}
