package apihttp

import (
	"net/http"
	"time"

	fuelapp "fuel-dashboard/internal/fuel/application"
	fuel "fuel-dashboard/internal/fuel/domain"
)

type transactionResponse struct {
	Transaction fuel.Transaction `json:"transaction"`
	Balance     float64          `json:"balance"`
	TankStatus  fuel.TankStatus  `json:"tank_status"`
}

func (h *Handler) actorOf(r *http.Request, userID, role string) fuelapp.Actor {
	return fuelapp.Actor{UserID: userID, Role: role, IP: h.trusted.clientIP(r), Agent: r.UserAgent()}
}

func (h *Handler) handleAddition(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req struct {
		Amount            float64    `json:"amount"`
		DeliveryDocNumber string     `json:"delivery_doc_number"`
		ReceivedAt        *time.Time `json:"received_at"`
		Notes             string     `json:"notes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	in := fuelapp.AdditionInput{
		Amount:            req.Amount,
		DeliveryDocNumber: req.DeliveryDocNumber,
		Notes:             req.Notes,
	}
	if req.ReceivedAt != nil {
		in.ReceivedAt = *req.ReceivedAt
	}
	res, err := h.ledger.RecordAddition(r.Context(), h.actorOf(r, id.UserID, string(id.Role)), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, transactionResponse{Transaction: res.Transaction, Balance: res.Balance, TankStatus: res.TankStatus})
}

func (h *Handler) handleWithdrawal(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req struct {
		GeneratorID   string     `json:"generator_id"`
		Amount        float64    `json:"amount"`
		OdometerHours float64    `json:"odometer_hours"`
		UsedAt        *time.Time `json:"used_at"`
		Notes         string     `json:"notes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	in := fuelapp.WithdrawalInput{
		GeneratorID:   req.GeneratorID,
		Amount:        req.Amount,
		OdometerHours: req.OdometerHours,
		Notes:         req.Notes,
	}
	if req.UsedAt != nil {
		in.UsedAt = *req.UsedAt
	}
	res, err := h.ledger.RecordWithdrawal(r.Context(), h.actorOf(r, id.UserID, string(id.Role)), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, transactionResponse{Transaction: res.Transaction, Balance: res.Balance, TankStatus: res.TankStatus})
}
