package platform

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/httputil"
	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/installer"
	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/observability"
	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/plugins"
)

// Server is the admin HTTP surface of the plugin platform.
type Server struct {
	service  *Service
	registry *prometheus.Registry
	router   *mux.Router
}

// NewServer creates the admin API server. registry may be nil to skip the
// /metrics endpoint.
func NewServer(service *Service, registry *prometheus.Registry, metrics *observability.Metrics) *Server {
	s := &Server{
		service:  service,
		registry: registry,
		router:   mux.NewRouter(),
	}

	if metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(metrics))
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	// Catalog routes
	s.router.HandleFunc("/plugins", s.listPlugins).Methods("GET")
	s.router.HandleFunc("/plugins/category/{category}", s.listByCategory).Methods("GET")
	s.router.HandleFunc("/plugins/{id}", s.getPlugin).Methods("GET")
	s.router.HandleFunc("/plugins/{id}/history", s.getHistory).Methods("GET")

	// Lifecycle routes
	s.router.HandleFunc("/plugins/{id}/install", s.install).Methods("POST")
	s.router.HandleFunc("/plugins/{id}/uninstall", s.uninstall).Methods("POST")
	s.router.HandleFunc("/plugins/{id}/update", s.checkUpdate).Methods("GET")
	s.router.HandleFunc("/plugins/{id}/update", s.applyUpdate).Methods("POST")
	s.router.HandleFunc("/plugins/{id}/rollback", s.rollback).Methods("POST")
	s.router.HandleFunc("/plugins/{id}/enable", s.enable).Methods("POST")
	s.router.HandleFunc("/plugins/{id}/disable", s.disable).Methods("POST")
	s.router.HandleFunc("/reload", s.reload).Methods("POST")

	// Enabled-set routes
	s.router.HandleFunc("/export", s.exportSet).Methods("POST")
	s.router.HandleFunc("/import", s.importSet).Methods("POST")

	// Metrics
	if s.registry != nil {
		s.router.Handle("/metrics", observability.MetricsHandler(s.registry)).Methods("GET")
	}
}

// Handler returns the instrumented root handler.
func (s *Server) Handler() http.Handler {
	chained := httputil.Chain(
		httputil.RecoveryMiddleware,
		httputil.RequestIDMiddleware,
	)(s.router)
	return otelhttp.NewHandler(chained, "tweaks-admin")
}

// writeResult maps a lifecycle result onto an HTTP response.
func writeResult(w http.ResponseWriter, res installer.Result) {
	status := http.StatusOK
	if !res.Success {
		status = http.StatusConflict
	}
	httputil.WriteJSON(w, status, res)
}

// pluginView is the catalog record returned for a single plugin.
type pluginView struct {
	Manifest *plugins.Manifest `json:"manifest"`
	Metadata plugins.Metadata  `json:"metadata"`
	Enabled  bool              `json:"enabled"`
}

func (s *Server) listPlugins(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, plugins.ListMetadata())
}

func (s *Server) listByCategory(w http.ResponseWriter, r *http.Request) {
	category := mux.Vars(r)["category"]

	views := make([]plugins.Metadata, 0)
	for _, p := range plugins.ListByCategory(category) {
		views = append(views, plugins.MetadataFor(p))
	}
	httputil.WriteSuccess(w, views)
}

func (s *Server) getPlugin(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	p, err := plugins.Get(id)
	if err != nil {
		httputil.WriteNotFoundError(w, err.Error())
		return
	}

	httputil.WriteSuccess(w, pluginView{
		Manifest: p.Manifest(),
		Metadata: plugins.MetadataFor(p),
		Enabled:  s.service.store.Enabled(id),
	})
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	history := s.service.Installer().History()
	if history == nil {
		httputil.WriteServiceUnavailable(w, "lifecycle history is disabled")
		return
	}

	limit, err := httputil.ParseQueryInt(r, "limit", 20)
	if err != nil {
		httputil.WriteBadRequest(w, "invalid limit")
		return
	}

	entries, err := history.List(r.Context(), mux.Vars(r)["id"], limit)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, entries)
}

func (s *Server) install(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.service.Install(r.Context(), mux.Vars(r)["id"]))
}

func (s *Server) uninstall(w http.ResponseWriter, r *http.Request) {
	backup, err := httputil.ParseQueryBool(r, "backup", true)
	if err != nil {
		httputil.WriteBadRequest(w, "invalid backup flag")
		return
	}
	writeResult(w, s.service.Uninstall(r.Context(), mux.Vars(r)["id"], backup))
}

func (s *Server) checkUpdate(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.service.CheckUpdate(r.Context(), mux.Vars(r)["id"]))
}

func (s *Server) applyUpdate(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.service.ApplyUpdate(r.Context(), mux.Vars(r)["id"]))
}

func (s *Server) rollback(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.service.Rollback(r.Context(), mux.Vars(r)["id"]))
}

func (s *Server) enable(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.service.Enable(r.Context(), mux.Vars(r)["id"]))
}

func (s *Server) disable(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.service.Disable(r.Context(), mux.Vars(r)["id"]))
}

// pathRequest names the file a set operation reads or writes.
type pathRequest struct {
	Path string `json:"path"`
}

func (s *Server) exportSet(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Path == "" {
		httputil.WriteBadRequest(w, "path is required")
		return
	}
	writeResult(w, s.service.ExportEnabled(req.Path))
}

func (s *Server) importSet(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Path == "" {
		httputil.WriteBadRequest(w, "path is required")
		return
	}
	writeResult(w, s.service.ImportEnabled(r.Context(), req.Path))
}

func (s *Server) reload(w http.ResponseWriter, r *http.Request) {
	count, err := s.service.Reload(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]any{"loaded": count})
}
