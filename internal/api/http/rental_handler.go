package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"tenant-portal-backend/internal/domain"
)

type rentalResponse struct {
	Rental domain.Rental `json:"rental"`
}

type rentalsResponse struct {
	Rentals []domain.Rental `json:"rentals"`
}

type assignRentalRequest struct {
	TenantID int32 `json:"tenantId"`
	HouseID  int32 `json:"houseId"`
}

type houseResponse struct {
	House domain.House `json:"house"`
}

type housesResponse struct {
	Houses []domain.House `json:"houses"`
}

type createHouseRequest struct {
	HouseNo string          `json:"houseNo"`
	Price   decimal.Decimal `json:"price"`
}

// TenantRentals refreshes the aged payment status of a tenant's rentals
// before returning them.
func (h *Handler) TenantRentals(w http.ResponseWriter, r *http.Request) {
	tenantID, err := pathID(r, "tenantId")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	rentals, err := h.rentals.RefreshTenantRentals(r.Context(), PrincipalFrom(r.Context()), tenantID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rentalsResponse{Rentals: rentals})
}

func (h *Handler) GetRental(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	rental, err := h.rentals.GetRental(r.Context(), PrincipalFrom(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rentalResponse{Rental: *rental})
}

func (h *Handler) ListRentals(w http.ResponseWriter, r *http.Request) {
	rentals, err := h.rentals.ListRentals(r.Context(), PrincipalFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rentalsResponse{Rentals: rentals})
}

func (h *Handler) AssignRental(w http.ResponseWriter, r *http.Request) {
	var req assignRentalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	rental, err := h.rentals.AssignRental(r.Context(), PrincipalFrom(r.Context()), req.TenantID, req.HouseID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rentalResponse{Rental: *rental})
}

func (h *Handler) EndRental(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	rental, err := h.rentals.EndRental(r.Context(), PrincipalFrom(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rentalResponse{Rental: *rental})
}

func (h *Handler) ListHouses(w http.ResponseWriter, r *http.Request) {
	availability := domain.HouseAvailability(r.URL.Query().Get("availability"))
	houses, err := h.houses.ListHouses(r.Context(), PrincipalFrom(r.Context()), availability)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, housesResponse{Houses: houses})
}

func (h *Handler) GetHouse(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	house, err := h.houses.GetHouse(r.Context(), PrincipalFrom(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, houseResponse{House: *house})
}

func (h *Handler) UpdateHouse(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req createHouseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	house, err := h.houses.UpdateHouse(r.Context(), PrincipalFrom(r.Context()), id, req.HouseNo, req.Price)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, houseResponse{House: *house})
}

func (h *Handler) CreateHouse(w http.ResponseWriter, r *http.Request) {
	var req createHouseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	house, err := h.houses.CreateHouse(r.Context(), PrincipalFrom(r.Context()), req.HouseNo, req.Price)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, houseResponse{House: *house})
}
