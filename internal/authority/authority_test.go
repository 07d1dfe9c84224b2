package authority

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/rentfleet/internal/handoff"
	"github.com/autopeer-io/rentfleet/internal/pkg/errno"
	"github.com/autopeer-io/rentfleet/internal/pkg/httputil"
	"github.com/autopeer-io/rentfleet/internal/vehicle"
	v1 "github.com/autopeer-io/rentfleet/pkg/apis/fleet/v1"
	"github.com/autopeer-io/rentfleet/pkg/options"
)

func upstream(t *testing.T, h http.Handler) *options.UpstreamOptions {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts := options.NewUpstreamOptions("test", srv.URL+"/")
	opts.Timeout = 2 * time.Second
	return opts
}

func TestManagementRequestAccess(t *testing.T) {
	var got v1.AccessRequest
	var person string

	r := mux.NewRouter()
	r.HandleFunc("/access/{person}", func(w http.ResponseWriter, req *http.Request) {
		person = mux.Vars(req)["person"]
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		httputil.WriteOK(w)
	}).Methods(http.MethodPost)

	m := NewManagement(upstream(t, r))
	require.NoError(t, m.RequestAccess(t.Context(), "Ivan Ivanov", "http://cars:8000/callback/access/Ivan%20Ivanov"))
	assert.Equal(t, "Ivan Ivanov", person)
	assert.Equal(t, "http://cars:8000/callback/access/Ivan%20Ivanov", got.CallbackURL)
}

func TestManagementSettle(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"accepted", http.StatusOK, nil},
		{"refused", http.StatusBadRequest, ErrSettlementFailed},
		{"server error", http.StatusInternalServerError, ErrSettlementFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body struct {
				Status vehicle.Status `json:"status"`
			}
			m := NewManagement(upstream(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				assert.Equal(t, "/return/Ivan", req.URL.Path)
				_ = json.NewDecoder(req.Body).Decode(&body)
				w.WriteHeader(tt.status)
			})))

			err := m.Settle(t.Context(), "Ivan", vehicle.Status{Name: "Volvo", Running: true, Speed: 40})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, "Volvo", body.Status.Name)
			assert.Equal(t, 40.0, body.Status.Speed)
		})
	}
}

func TestManagementUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	m := NewManagement(options.NewUpstreamOptions("management", srv.URL))
	err := m.RequestAccess(t.Context(), "Ivan", "http://cb")
	assert.ErrorIs(t, err, ErrUnavailable)

	err = m.Settle(t.Context(), "Ivan", vehicle.Status{Name: "Volvo"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestManagementReport(t *testing.T) {
	var path string
	m := NewManagement(upstream(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		path = req.URL.Path
	})))
	require.NoError(t, m.Report(t.Context(), vehicle.Status{Name: "Volvo"}))
	assert.Equal(t, "/telemetry/Volvo", path)
}

func TestManagementSelection(t *testing.T) {
	var (
		brand string
		got   v1.SelectRequest
	)
	r := mux.NewRouter()
	r.HandleFunc("/cars", func(w http.ResponseWriter, req *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, []string{"Volvo", "Kia"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/tariff", func(w http.ResponseWriter, req *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, []string{"Standard"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/select/car/{brand}", func(w http.ResponseWriter, req *http.Request) {
		brand = mux.Vars(req)["brand"]
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		if brand == "Lada" {
			w.WriteHeader(http.StatusConflict)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"id": 12, "amount": 500})
	}).Methods(http.MethodPost)

	m := NewManagement(upstream(t, r))

	cars, err := m.Cars(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"Volvo", "Kia"}, cars)

	tariffs, err := m.Tariffs(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"Standard"}, tariffs)

	prepayment, err := m.Select(t.Context(), "Volvo", v1.SelectRequest{ClientName: "Ivan", Experience: 3, Tariff: "Standard"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":12,"amount":500}`, string(prepayment))
	assert.Equal(t, "Volvo", brand)
	assert.Equal(t, v1.SelectRequest{ClientName: "Ivan", Experience: 3, Tariff: "Standard"}, got)

	_, err = m.Select(t.Context(), "Lada", v1.SelectRequest{ClientName: "Ivan"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestPaymentConfirm(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/prepayment/{id}/confirm", func(w http.ResponseWriter, req *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"id": 1, "status": "paid"})
	})
	r.HandleFunc("/invoices/{id}/confirm", func(w http.ResponseWriter, req *http.Request) {
		switch mux.Vars(req)["id"] {
		case "404":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})

	p := NewPayment(upstream(t, r))
	assert.NoError(t, p.ConfirmPrepayment(t.Context(), "1", "http://mobile/callback/payment"))
	assert.ErrorIs(t, p.ConfirmInvoice(t.Context(), "404", ""), handoff.ErrPaymentFailed)
	assert.ErrorIs(t, p.ConfirmInvoice(t.Context(), "7", ""), ErrUnavailable)
}

func TestCarsPropagatesCodedErrors(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/vehicle/occupy/{person}", func(w http.ResponseWriter, req *http.Request) {
		if mux.Vars(req)["person"] == "Ivan" {
			httputil.WriteJSON(w, http.StatusOK, v1.OccupyResponse{Access: true, Vehicle: "Volvo", Message: "Volvo reserved by Ivan."})
			return
		}
		httputil.WriteJSON(w, http.StatusNotFound, v1.OccupyResponse{Message: "denied", Error: "denied", Code: "access_denied"})
	}).Methods(http.MethodPost)
	r.HandleFunc("/vehicle/start/{name}", func(w http.ResponseWriter, req *http.Request) {
		httputil.WriteError(w, errno.New(http.StatusConflict, "vehicle_not_reserved", "vehicle is not reserved"))
	}).Methods(http.MethodPost)
	r.HandleFunc("/vehicle/status/all", func(w http.ResponseWriter, req *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, []vehicle.Status{{Name: "Volvo"}, {Name: "Lada"}})
	}).Methods(http.MethodGet)

	c := NewCars(upstream(t, r))

	occ, err := c.Occupy(t.Context(), "Ivan")
	require.NoError(t, err)
	assert.True(t, occ.Access)
	assert.Equal(t, "Volvo", occ.Vehicle)

	_, err = c.Occupy(t.Context(), "Olga")
	status, code := errno.Decode(err)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "access_denied", code)

	_, err = c.Start(t.Context(), "Volvo")
	status, code = errno.Decode(err)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "vehicle_not_reserved", code)

	list, err := c.List(t.Context())
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
