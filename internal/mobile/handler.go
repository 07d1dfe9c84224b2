package mobile

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/autopeer-io/rentfleet/internal/handoff"
	"github.com/autopeer-io/rentfleet/internal/pkg/httputil"
	v1 "github.com/autopeer-io/rentfleet/pkg/apis/fleet/v1"
)

// Handler exposes Service over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Router returns the routes of the mobile service.
func (h *Handler) Router() *mux.Router {
	r := httputil.NewRouter(h.svc.Ready)

	r.HandleFunc("/cars", h.selectVehicle).Methods(http.MethodPost)
	r.HandleFunc("/start_drive", h.startDrive).Methods(http.MethodPost)
	r.HandleFunc("/stop_drive", h.stopDrive).Methods(http.MethodPost)
	r.HandleFunc("/prepayment", h.prepayment).Methods(http.MethodPost)
	r.HandleFunc("/final_pay", h.finalPay).Methods(http.MethodPost)
	r.HandleFunc("/callback/payment", h.paymentCallback).Methods(http.MethodPost)
	r.HandleFunc("/callback/final", h.finalCallback).Methods(http.MethodPost)
	return r
}

func (h *Handler) selectVehicle(w http.ResponseWriter, r *http.Request) {
	var req v1.SelectVehicleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	prepayment, err := h.svc.SelectVehicle(r.Context(), req.Name, req.Experience)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, prepayment)
}

func (h *Handler) startDrive(w http.ResponseWriter, r *http.Request) {
	var req v1.DriveRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp, err := h.svc.StartDrive(r.Context(), req.Name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) stopDrive(w http.ResponseWriter, r *http.Request) {
	var req v1.DriveRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	invoice, err := h.svc.StopDrive(r.Context(), req.Name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, invoice)
}

func (h *Handler) prepayment(w http.ResponseWriter, r *http.Request) {
	h.pay(w, r, h.svc.Prepayment)
}

func (h *Handler) finalPay(w http.ResponseWriter, r *http.Request) {
	h.pay(w, r, h.svc.FinalPay)
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id string) (handoff.PaymentDecision, error)) {
	var req v1.PaymentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	decision, err := fn(r.Context(), string(req.ID))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, decision)
}

func (h *Handler) paymentCallback(w http.ResponseWriter, r *http.Request) {
	var d handoff.PaymentDecision
	if err := httputil.DecodeJSON(r, &d); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.svc.DeliverPayment(d); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteOK(w)
}

func (h *Handler) finalCallback(w http.ResponseWriter, r *http.Request) {
	var f handoff.FinalInvoice
	if err := httputil.DecodeJSON(r, &f); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.svc.DeliverFinal(f); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteOK(w)
}
