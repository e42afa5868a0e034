package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/vantagebi/vantage-engine/pkg/adapters/datasource"
)

// DatasourceLister lists configured datasources; satisfied by
// datasource.Manager.
type DatasourceLister interface {
	List() []datasource.DatasourceInfo
}

// DatasourcesHandler serves the configured-datasource listing.
type DatasourcesHandler struct {
	manager DatasourceLister
	logger  *zap.Logger
}

// NewDatasourcesHandler creates a DatasourcesHandler.
func NewDatasourcesHandler(manager DatasourceLister, logger *zap.Logger) *DatasourcesHandler {
	return &DatasourcesHandler{manager: manager, logger: logger}
}

// RegisterRoutes registers the handler's routes on the given mux.
func (h *DatasourcesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/datasources", h.List)
}

// List handles GET /api/datasources.
func (h *DatasourcesHandler) List(w http.ResponseWriter, r *http.Request) {
	if err := WriteJSON(w, http.StatusOK, map[string]any{"datasources": h.manager.List()}); err != nil {
		h.logger.Error("Failed to encode datasources response", zap.Error(err))
	}
}
