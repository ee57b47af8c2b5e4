package controllers

import (
	"encoding/json"
	"log"
	"net/http"

	"gorm.io/gorm"

	"github.com/rafiabim35-star/web-topup-robekcviip/middleware"
	"github.com/rafiabim35-star/web-topup-robekcviip/models"
	"github.com/rafiabim35-star/web-topup-robekcviip/utils"
)

type OrderController struct {
	db *gorm.DB
}

func NewOrderController(db *gorm.DB) *OrderController {
	return &OrderController{db: db}
}

type TopupRequest struct {
	User   string      `json:"user" validate:"required"`
	Game   string      `json:"game" validate:"required"`
	Amount json.Number `json:"amount"`
}

// Topup handles POST /api/topup. It validates the order, persists it as
// PENDING and returns the redirect URL a real gateway integration would
// replace. No payment authorization happens here.
func (c *OrderController) Topup(w http.ResponseWriter, r *http.Request) {
	var req TopupRequest
	if err := middleware.DecodeJSON(w, r, &req); err != nil {
		return
	}
	if req.Amount == "" {
		utils.WriteError(w, http.StatusBadRequest, utils.ReasonMissingFields)
		return
	}
	amount, err := req.Amount.Int64()
	if err != nil || amount <= 0 {
		utils.WriteError(w, http.StatusBadRequest, utils.ReasonInvalidAmount)
		return
	}

	order := models.Order{
		ID:     utils.GenerateOrderID(),
		User:   req.User,
		Game:   req.Game,
		Amount: amount,
		Status: models.OrderStatusPending,
	}
	if err := models.InsertOrder(c.db, &order); err != nil {
		log.Printf("[orders] insert failed: %v", err)
		utils.WriteError(w, http.StatusInternalServerError, utils.ReasonStorage)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"orderId":    order.ID,
		"paymentUrl": "/success?order_id=" + order.ID,
	})
}

type MockPayRequest struct {
	OrderID string `json:"orderId" validate:"required"`
}

// MockPay handles POST /api/webhook/mock-pay, standing in for a provider
// callback. A real integration must verify a provider signature before
// trusting this transition. An unmatched order id is reported as success but
// logged, so the silence stays observable.
func (c *OrderController) MockPay(w http.ResponseWriter, r *http.Request) {
	var req MockPayRequest
	if err := middleware.DecodeJSON(w, r, &req); err != nil {
		return
	}

	updated, err := models.MarkOrderPaid(c.db, req.OrderID)
	if err != nil {
		log.Printf("[webhook] mock-pay update failed: %v", err)
		utils.WriteError(w, http.StatusInternalServerError, utils.ReasonStorage)
		return
	}
	if !updated {
		log.Printf("[webhook] mock-pay: no pending order matched id=%s", req.OrderID)
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}
