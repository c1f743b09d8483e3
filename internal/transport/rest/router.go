package rest

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heartmarshall/civic-client/internal/mockserver"
	"github.com/heartmarshall/civic-client/internal/transport/middleware"
)

// ReportsPrefix is where the report endpoints are mounted.
const ReportsPrefix = "/api/reports"

// RouterConfig configures NewRouter.
type RouterConfig struct {
	AuthPrefix  string
	CORSOrigins []string
	Version     string
	// Registry, when set, receives HTTP metrics and is served at /metrics.
	Registry *prometheus.Registry
}

// NewRouter wires the development backend.
func NewRouter(cfg RouterConfig, store *mockserver.Store, tokens tokenIssuer, logger *slog.Logger) http.Handler {
	authH := NewAuthHandler(store, tokens, logger)
	reportH := NewReportHandler(store, logger)
	healthH := NewHealthHandler(cfg.Version)

	r := mux.NewRouter()
	r.Use(mux.MiddlewareFunc(middleware.Logger(logger)))
	if cfg.Registry != nil {
		r.Use(mux.MiddlewareFunc(middleware.Metrics(cfg.Registry)))
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	r.HandleFunc("/", healthH.Root).Methods(http.MethodGet)
	r.HandleFunc("/health", healthH.Health).Methods(http.MethodGet)
	r.HandleFunc("/uploads/{name}", reportH.Image).Methods(http.MethodGet)

	requireAuth := mux.MiddlewareFunc(middleware.RequireAuth(authH, logger))

	authPrefix := "/" + strings.Trim(cfg.AuthPrefix, "/")
	ar := r.PathPrefix(authPrefix).Subrouter()
	ar.HandleFunc("/register", authH.Register).Methods(http.MethodPost)
	ar.HandleFunc("/login", authH.Login).Methods(http.MethodPost)
	ar.Handle("/me", requireAuth(http.HandlerFunc(authH.Me))).Methods(http.MethodGet)

	r.HandleFunc(ReportsPrefix+"/categories", reportH.Categories).Methods(http.MethodGet)

	rr := r.PathPrefix(ReportsPrefix).Subrouter()
	rr.Use(requireAuth)
	rr.HandleFunc("/upload", reportH.Upload).Methods(http.MethodPost)
	rr.HandleFunc("/nearby", reportH.Nearby).Methods(http.MethodPost)
	rr.HandleFunc("/stats", reportH.Stats).Methods(http.MethodGet)
	rr.HandleFunc("/my", reportH.Mine).Methods(http.MethodGet)
	rr.HandleFunc("/all", reportH.All).Methods(http.MethodGet)
	rr.HandleFunc("/{id}", reportH.Get).Methods(http.MethodGet)
	rr.HandleFunc("/{id}/status", reportH.UpdateStatus).Methods(http.MethodPut)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return middleware.Chain(
		middleware.RequestID,
		middleware.Recovery(logger),
		middleware.CORS(origins),
	)(r)
}
