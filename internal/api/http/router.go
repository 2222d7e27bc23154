// Package http exposes the rent-payment services as a JSON REST API with a
// websocket push channel.
package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"tenant-portal-backend/internal/notify"
	"tenant-portal-backend/internal/security"
	"tenant-portal-backend/internal/service"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Payments       service.PaymentService
	Rentals        service.RentalService
	Houses         service.HouseService
	Receipts       service.ReceiptService
	Hub            *notify.Hub
	Tokens         security.TokenManager
	DB             Pinger
	AllowedOrigins []string
}

type Handler struct {
	payments service.PaymentService
	rentals  service.RentalService
	houses   service.HouseService
	receipts service.ReceiptService
	hub      *notify.Hub
	db       Pinger
	origins  []string
}

// NewRouter wires every route. CORS, request logging and panic recovery
// wrap the whole router so they also apply to unmatched routes.
func NewRouter(d Deps) http.Handler {
	h := &Handler{
		payments: d.Payments,
		rentals:  d.Rentals,
		houses:   d.Houses,
		receipts: d.Receipts,
		hub:      d.Hub,
		db:       d.DB,
		origins:  d.AllowedOrigins,
	}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	api := router.PathPrefix("/v1").Subrouter()
	api.Use(Authenticate(d.Tokens))

	api.HandleFunc("/payments", h.SubmitPayment).Methods(http.MethodPost)
	api.HandleFunc("/payments/mine", h.ListMyPayments).Methods(http.MethodGet)
	api.HandleFunc("/payments/{id:[0-9]+}", h.GetPayment).Methods(http.MethodGet)
	api.HandleFunc("/payments/{id:[0-9]+}/receipt", h.DownloadReceipt).Methods(http.MethodGet)
	api.HandleFunc("/rentals/tenant/{tenantId:[0-9]+}", h.TenantRentals).Methods(http.MethodGet)
	api.HandleFunc("/rentals/{id:[0-9]+}", h.GetRental).Methods(http.MethodGet)
	api.HandleFunc("/houses", h.ListHouses).Methods(http.MethodGet)
	api.HandleFunc("/houses/{id:[0-9]+}", h.GetHouse).Methods(http.MethodGet)
	api.HandleFunc("/ws", h.PushChannel).Methods(http.MethodGet)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/payments", h.ListPayments).Methods(http.MethodGet)
	admin.HandleFunc("/payments/export", h.ExportPayments).Methods(http.MethodGet)
	admin.HandleFunc("/payments/{id:[0-9]+}/approve", h.ApprovePayment).Methods(http.MethodPost)
	admin.HandleFunc("/payments/{id:[0-9]+}/reject", h.RejectPayment).Methods(http.MethodPost)
	admin.HandleFunc("/rentals", h.ListRentals).Methods(http.MethodGet)
	admin.HandleFunc("/rentals", h.AssignRental).Methods(http.MethodPost)
	admin.HandleFunc("/rentals/{id:[0-9]+}/end", h.EndRental).Methods(http.MethodPost)
	admin.HandleFunc("/houses", h.CreateHouse).Methods(http.MethodPost)
	admin.HandleFunc("/houses/{id:[0-9]+}", h.UpdateHouse).Methods(http.MethodPut)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "ROUTE_NOT_FOUND", "no such endpoint")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	return CORS(d.AllowedOrigins)(RequestLogger(Recover(router)))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
