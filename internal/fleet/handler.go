package fleet

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/autopeer-io/rentfleet/internal/handoff"
	"github.com/autopeer-io/rentfleet/internal/pkg/errno"
	"github.com/autopeer-io/rentfleet/internal/pkg/httputil"
	"github.com/autopeer-io/rentfleet/internal/pkg/metrics"
	v1 "github.com/autopeer-io/rentfleet/pkg/apis/fleet/v1"
)

// Handler exposes Service over HTTP.
type Handler struct {
	svc    *Service
	stream http.Handler
}

// NewHandler creates the HTTP adapter. stream may be nil.
func NewHandler(svc *Service, stream http.Handler) *Handler {
	return &Handler{svc: svc, stream: stream}
}

// Router returns the routes of the cars service, probes and metrics included.
func (h *Handler) Router() *mux.Router {
	r := httputil.NewRouter(h.svc.Ready)

	// "all" is registered first so it never matches as a vehicle name.
	r.HandleFunc("/vehicle/status/all", h.listStatus).Methods(http.MethodGet)
	r.HandleFunc("/vehicle/status/{name}", h.getStatus).Methods(http.MethodGet)
	r.HandleFunc("/vehicle/start/{name}", h.start).Methods(http.MethodPost)
	r.HandleFunc("/vehicle/stop/{name}", h.stop).Methods(http.MethodPost)
	r.HandleFunc("/vehicle/emergency/{name}", h.emergency).Methods(http.MethodPost)
	r.HandleFunc("/vehicle/occupy/{person}", h.occupy).Methods(http.MethodPost)
	r.HandleFunc("/callback/access/{person}", h.accessCallback).Methods(http.MethodPost)

	if h.stream != nil {
		r.Handle("/vehicle/telemetry/stream", h.stream).Methods(http.MethodGet)
	}
	return r
}

func (h *Handler) listStatus(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.svc.List())
}

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Status(mux.Vars(r)["name"])
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	msg, err := h.svc.Start(mux.Vars(r)["name"])
	writeMessage(w, msg, err)
}

func (h *Handler) stop(w http.ResponseWriter, r *http.Request) {
	msg, err := h.svc.Stop(r.Context(), mux.Vars(r)["name"])
	writeMessage(w, msg, err)
}

func (h *Handler) emergency(w http.ResponseWriter, r *http.Request) {
	msg, err := h.svc.Emergency(mux.Vars(r)["name"])
	writeMessage(w, msg, err)
}

func (h *Handler) occupy(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Occupy(r.Context(), mux.Vars(r)["person"])
	switch {
	case err == nil:
		httputil.WriteJSON(w, http.StatusOK, resp)
	case errors.Is(err, handoff.ErrAccessDenied) && resp != nil:
		status, code := errno.Decode(err)
		resp.Error, resp.Code = err.Error(), code
		httputil.WriteJSON(w, status, resp)
	default:
		httputil.WriteError(w, err)
	}
}

func (h *Handler) accessCallback(w http.ResponseWriter, r *http.Request) {
	var decision handoff.AccessDecision
	if err := httputil.DecodeJSON(r, &decision); err != nil {
		metrics.CallbacksTotal.WithLabelValues(handoff.KindAccess, "invalid").Inc()
		httputil.WriteError(w, err)
		return
	}
	if err := h.svc.DeliverAccess(mux.Vars(r)["person"], decision); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteOK(w)
}

func writeMessage(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v1.MessageResponse{Message: msg})
}
