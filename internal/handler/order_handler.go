package handler

import (
	"errors"
	"net/http"
	"strconv"

	"shoprent/internal/middleware"
	"shoprent/internal/repository"
	"shoprent/internal/service"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	checkout *service.CheckoutService
	payments *service.PaymentService
	orders   *repository.OrderRepository
}

func NewOrderHandler(checkout *service.CheckoutService, payments *service.PaymentService, orders *repository.OrderRepository) *OrderHandler {
	return &OrderHandler{checkout: checkout, payments: payments, orders: orders}
}

type checkoutRequest struct {
	ReceiverName  string `json:"receiver_name"`
	ReceiverPhone string `json:"receiver_phone"`
	ProvinceID    int    `json:"province_id"`
	DistrictID    int    `json:"district_id"`
	WardCode      string `json:"ward_code"`
	Address       string `json:"address"`
	WeightGram    int    `json:"weight_gram"`
	PaymentMethod string `json:"payment_method" binding:"required"`
	VoucherCode   string `json:"voucher_code"`
}

func (h *OrderHandler) Checkout(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.checkout.Checkout(c.Request.Context(), userID, service.CheckoutInput{
		ReceiverName:  req.ReceiverName,
		ReceiverPhone: req.ReceiverPhone,
		ProvinceID:    req.ProvinceID,
		DistrictID:    req.DistrictID,
		WardCode:      req.WardCode,
		Address:       req.Address,
		WeightGram:    req.WeightGram,
		PaymentMethod: req.PaymentMethod,
		VoucherCode:   req.VoucherCode,
	})
	if err != nil {
		c.JSON(service.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.orders.ListByUserID(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

func (h *OrderHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	order, err := h.orders.FindByID(c.Request.Context(), uint(id))
	if errors.Is(err, repository.ErrNotFound) || (err == nil && order.UserID != userID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// CreatePaymentLink re-issues (or reuses) the payment link for a still-open
// order, e.g. after the customer closed the checkout page.
func (h *OrderHandler) CreatePaymentLink(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	out, err := h.payments.CreateOrderLink(c.Request.Context(), userID, uint(id))
	if err != nil {
		c.JSON(service.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

// Status reports the order plus its latest payment attempt; the frontend
// polls this as a fallback when the WebSocket push is missed.
func (h *OrderHandler) Status(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	out, err := h.payments.OrderStatus(c.Request.Context(), userID, uint(id))
	if err != nil {
		c.JSON(service.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}
