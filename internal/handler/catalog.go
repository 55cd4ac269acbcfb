package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/cert-tracker/internal/service"
)

// CatalogHandler serves the certification catalog and the public view of a
// certification's shared projects. None of its routes need a session.
type CatalogHandler struct {
	catalog *service.CatalogService
	public  *service.PublicService
	logger  *slog.Logger
}

func NewCatalogHandler(catalog *service.CatalogService, public *service.PublicService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, public: public, logger: logger}
}

// HTTP: GET /api/certifications
func (h *CatalogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	certs, err := h.catalog.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, certs)
}

// HTTP: GET /api/certifications/{id}
func (h *CatalogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	cert, err := h.catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cert)
}

// HandlePublicProjects lists the public projects for a certification, each
// with its public tasks.
//
// HTTP: GET /api/certifications/{id}/projects
func (h *CatalogHandler) HandlePublicProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.public.ListProjects(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// HandlePublicTasks lists the public tasks of one public project.
//
// HTTP: GET /api/public/projects/{id}/tasks
func (h *CatalogHandler) HandlePublicTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.public.ListTasks(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}
