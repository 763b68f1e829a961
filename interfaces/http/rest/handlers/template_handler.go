package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"specmap/domain/template"
	"specmap/pkg/common"
)

// TemplateHandler serves the project template catalog.
type TemplateHandler struct {
	catalog *template.Catalog
	logger  *zap.Logger
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(catalog *template.Catalog, logger *zap.Logger) *TemplateHandler {
	return &TemplateHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// ListTemplates handles GET /templates
func (h *TemplateHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates := h.catalog.All()
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"templates": templates,
		"total":     len(templates),
	})
}

// GetTemplate handles GET /templates/{templateID}
func (h *TemplateHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "templateID")
	tmpl := h.catalog.Get(templateID)
	if tmpl == nil {
		common.RespondError(w, http.StatusNotFound, common.StandardErrorCodes.NotFound, "Template not found")
		return
	}
	common.RespondJSON(w, http.StatusOK, tmpl)
}
