package httputil

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/autopeer-io/rentfleet/internal/pkg/metrics"
)

// NewRouter returns a mux router with the probe and metrics endpoints and
// the common middleware installed. ready reports readiness; nil means always ready.
func NewRouter(ready func() error) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestID, Logging)

	// Basic Liveness Probe
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if ready != nil {
			if err := ready(); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, ErrRouteNotFound)
	})
	return r
}
