package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bher20/npahowtopay/internal/analysis"
	"github.com/bher20/npahowtopay/internal/api/swagger"
	"github.com/bher20/npahowtopay/internal/auth"
	"github.com/bher20/npahowtopay/internal/metrics"
	"github.com/bher20/npahowtopay/internal/notification"
	"github.com/bher20/npahowtopay/internal/storage"
	"github.com/bher20/npahowtopay/internal/ui"
)

// Deps are the services behind the HTTP API. Auth and Notif may be nil:
// without Auth every route is open, without Notif the email settings routes
// are not registered.
type Deps struct {
	Analysis *analysis.Service
	Store    storage.Storage
	Auth     *auth.Service
	Notif    *notification.Service
	// DataDir holds the named runs served under /api/v1/runs.
	DataDir string
	// TokenExpiry is the lifetime of tokens issued by /api/v1/auth/login.
	TokenExpiry string
}

type server struct {
	Deps
}

// NewMux constructs the HTTP mux, wiring in the analysis service, metrics, and health endpoints.
func NewMux(d Deps) *http.ServeMux {
	s := &server{Deps: d}
	mux := http.NewServeMux()

	// Metrics endpoint.
	mux.Handle("/metrics", promhttp.Handler())

	// Health / readiness / liveness.
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := s.Store.Ping(r.Context()); err != nil {
			log.Printf("readyz: db ping failed: %v", err)
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("live"))
	})

	s.handle(mux, "GET /api/v1/runs", auth.ObjAnalyses, auth.ActRead, s.listRuns)
	s.handle(mux, "POST /api/v1/runs/{name}", auth.ObjAnalyses, auth.ActWrite, s.analyzeRun)
	s.handle(mux, "POST /api/v1/analyses", auth.ObjAnalyses, auth.ActWrite, s.createAnalysis)
	s.handle(mux, "GET /api/v1/analyses", auth.ObjAnalyses, auth.ActRead, s.listAnalyses)
	s.handle(mux, "GET /api/v1/analyses/{id}", auth.ObjAnalyses, auth.ActRead, s.getAnalysis)
	s.handle(mux, "POST /api/v1/analyses/{id}/rerun", auth.ObjAnalyses, auth.ActWrite, s.rerunAnalysis)
	s.handle(mux, "GET /api/v1/analyses/{id}/deltas.csv", auth.ObjAnalyses, auth.ActRead, s.deltasCSV)
	s.handle(mux, "GET /api/v1/analyses/{id}/scenarios/{scenario}", auth.ObjAnalyses, auth.ActRead, s.scenarioCSV)

	s.handle(mux, "GET /api/v1/settings/schedule", auth.ObjSettings, auth.ActRead, s.getSchedule)
	s.handle(mux, "PUT /api/v1/settings/schedule", auth.ObjSettings, auth.ActWrite, s.putSchedule)
	s.handle(mux, "GET /api/v1/jobs/{name}", auth.ObjSettings, auth.ActRead, s.getJob)

	if s.Auth != nil {
		mux.Handle("POST /api/v1/auth/login", instrument("/api/v1/auth/login", http.HandlerFunc(s.login)))
	}
	if s.Notif != nil {
		registerNotificationRoutes(mux, s)
	}

	mux.Handle("/swagger/", http.StripPrefix("/swagger", swagger.Handler()))

	// Web UI
	mux.Handle("/ui/", http.StripPrefix("/ui/", ui.Handler()))
	mux.HandleFunc("/{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusFound)
	})

	return mux
}

// handle registers h under pattern behind the permission check for obj/act
// and request metrics labelled with the pattern.
func (s *server) handle(mux *http.ServeMux, pattern, obj, act string, h http.HandlerFunc) {
	var next http.Handler = h
	if s.Auth != nil {
		next = s.Auth.Middleware(s.Auth.RequirePermission(obj, act, next))
	}
	mux.Handle(pattern, instrument(pattern, next))
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.ObserveRequest(route, r.Method, rec.code, start)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response failed: %v", err)
	}
}
