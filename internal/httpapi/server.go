package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"namd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels() []types.Model
	Rescan() error
	Status() types.StatusResponse
	Model() types.ModelResponse
	SetModel(req types.SetModelRequest) (types.ModelResponse, error)
	RequestPath() error
	SetGain(req types.GainRequest)
	Subscribe(buf int) (<-chan types.Notification, func())
	SaveState(file string) (string, error)
	RestoreState(file string) (string, error)
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	// Streams are not compressed: gzip buffering would hold events back.
	r.Get("/events", eventsHandler(svc))
	r.Get("/ws", wsHandler(svc))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5))

		r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, types.ModelsResponse{Models: svc.ListModels()})
		})

		r.Post("/models/rescan", func(w http.ResponseWriter, r *http.Request) {
			if err := svc.Rescan(); err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, types.ModelsResponse{Models: svc.ListModels()})
		})

		r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, svc.Status())
		})

		r.Get("/model", func(w http.ResponseWriter, r *http.Request) {
			// ?refresh=1 makes the plugin re-announce its path on the event streams.
			if v := r.URL.Query().Get("refresh"); v == "1" || v == "true" {
				if err := svc.RequestPath(); err != nil {
					writeServiceError(w, err)
					return
				}
			}
			writeJSON(w, http.StatusOK, svc.Model())
		})

		r.Put("/model", func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lvl := requestLogLevel(r)
			var req types.SetModelRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			resp, err := svc.SetModel(req)
			if err != nil {
				status := writeServiceError(w, err)
				logOutcome(r, lvl, "set model", status, start, err)
				return
			}
			writeJSON(w, http.StatusAccepted, resp)
			logOutcome(r, lvl, "set model", http.StatusAccepted, start, nil)
		})

		r.Put("/gain", func(w http.ResponseWriter, r *http.Request) {
			var req types.GainRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			svc.SetGain(req)
			writeJSON(w, http.StatusOK, svc.Status())
		})

		r.Post("/state/save", stateHandler(svc.SaveState, "save state"))
		r.Post("/state/restore", stateHandler(svc.RestoreState, "restore state"))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("stopped"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

func stateHandler(fn func(string) (string, error), msg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lvl := requestLogLevel(r)
		var req types.StateRequest
		// The body is optional; an empty one uses the configured file.
		if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
			return
		}
		file, err := fn(req.File)
		if err != nil {
			status := writeServiceError(w, err)
			logOutcome(r, lvl, msg, status, start, err)
			return
		}
		writeJSON(w, http.StatusOK, types.StateRequest{File: file})
		logOutcome(r, lvl, msg, http.StatusOK, start, nil)
	}
}

// decodeJSON enforces content type and body size and decodes into v. It writes
// the error response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && zlog != nil {
		zlog.Warn().Err(err).Msg("encode response")
	}
}
