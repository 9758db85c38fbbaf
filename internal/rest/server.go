// Package rest implements the REST adapter (C12): a chi.Router mounting
// the routes of spec.md §6.2 as a direct mapping onto the same tool
// handlers the ATP dispatcher calls, grounded on
// volaticloud-volaticloud/cmd/server/main.go's chi+cors server bootstrap.
package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emergent-company/orgtwin/internal/atp"
	"github.com/emergent-company/orgtwin/internal/metrics"
	"github.com/emergent-company/orgtwin/internal/model"
)

// idPattern matches spec.md §6.2's path-parameter contract: mismatches
// return a generic 400 without echoing the input back.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// Server wraps the ATP dispatcher behind an HTTP router.
type Server struct {
	Router     chi.Router
	dispatcher *atp.Dispatcher
	metrics    *metrics.Registry
	logger     *slog.Logger
}

// Config controls CORS and route mounting.
type Config struct {
	CORSOrigins []string
}

// NewServer builds the chi.Router for the REST surface. metricsReg may be
// nil, in which case /metrics is not mounted.
func NewServer(d *atp.Dispatcher, metricsReg *metrics.Registry, logger *slog.Logger, cfg Config) *Server {
	s := &Server{dispatcher: d, metrics: metricsReg, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(slogRequestLogger(logger))

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/statistics", s.handleStatistics)
	r.Get("/entities", s.handleListEntities)
	r.Get("/entities/{id}", s.handleGetEntity)
	r.Get("/entities/{id}/neighbors", s.handleGetNeighbors)
	r.Get("/path/{src}/{tgt}", s.handleShortestPath)
	r.Get("/blast-radius/{id}", s.handleBlastRadius)
	r.Get("/centrality", s.handleCentrality)
	r.Get("/search", s.handleSearch)
	r.Post("/ask", s.handleAsk)
	r.Post("/load", s.handleLoad)
	r.Get("/openai/tools", s.handleOpenAITools)
	r.Post("/openai/call", s.handleOpenAICall)
	r.Post("/relationships", s.handleAddRelationship)
	r.Post("/relationships/batch", s.handleAddRelationshipsBatch)
	r.Delete("/relationships/{id}", s.handleRemoveRelationship)

	if metricsReg != nil {
		r.Get("/metrics", promhttp.HandlerFor(metricsReg.Gatherer(), promhttp.HandlerOpts{}).ServeHTTP)
	}

	s.Router = r
	return s
}

func slogRequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method, "path", r.URL.Path,
				"status", ww.Status(), "duration", time.Since(start))
		})
	}
}

func validID(id string) bool {
	return idPattern.MatchString(id)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeGenericBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, atp.NewErrorResponse(model.NewError(model.ErrValidation, "%s", message)))
}

func writeModelError(w http.ResponseWriter, errResp atp.ErrorResponse) {
	writeJSON(w, statusForKind(errResp.Error.Kind), errResp)
}

func statusForKind(kind model.ErrorKind) int {
	switch kind {
	case model.ErrNotFound:
		return http.StatusNotFound
	case model.ErrValidation, model.ErrSchemaViolation, model.ErrBatchRejected:
		return http.StatusBadRequest
	case model.ErrNoGraphLoaded:
		return http.StatusConflict
	case model.ErrUnsupported:
		return http.StatusNotImplemented
	case model.ErrPersistence, model.ErrInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
