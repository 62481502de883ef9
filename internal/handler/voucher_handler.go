package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"shoprent/internal/models"
	"shoprent/internal/repository"
	"shoprent/pkg/pricing"

	"github.com/gin-gonic/gin"
)

type VoucherHandler struct {
	repo *repository.VoucherRepository
}

func NewVoucherHandler(repo *repository.VoucherRepository) *VoucherHandler {
	return &VoucherHandler{repo: repo}
}

type voucherRequest struct {
	Code            string `json:"code" binding:"required"`
	Type            string `json:"type" binding:"required,oneof=FIXED PERCENT SHIPPING"`
	DiscountValue   int64  `json:"discount_value"`
	DiscountPercent int    `json:"discount_percent"`
	MaxDiscount     int64  `json:"max_discount"`
	MinOrderValue   int64  `json:"min_order_value"`
	ExpiresAt       string `json:"expires_at"` // RFC3339, empty = never
	MaxUsage        int    `json:"max_usage"`  // 0 = unlimited
}

func (h *VoucherHandler) Create(c *gin.Context) {
	var req voucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	v := &models.Voucher{
		Code:            req.Code,
		Type:            req.Type,
		DiscountValue:   req.DiscountValue,
		DiscountPercent: req.DiscountPercent,
		MaxDiscount:     req.MaxDiscount,
		MinOrderValue:   req.MinOrderValue,
		MaxUsage:        req.MaxUsage,
		IsValid:         true,
	}
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expires_at (use RFC3339)"})
			return
		}
		v.ExpiresAt = &t
	}
	if err := h.repo.Create(c.Request.Context(), v); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"voucher": v})
}

func (h *VoucherHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.repo.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"vouchers": list})
}

// Preview evaluates a voucher against a hypothetical order without burning
// usage, so carts can show the discount before checkout.
func (h *VoucherHandler) Preview(c *gin.Context) {
	code := c.Param("code")
	subtotal, _ := strconv.ParseInt(c.Query("subtotal"), 10, 64)
	shippingFee, _ := strconv.ParseInt(c.Query("shipping_fee"), 10, 64)

	v, err := h.repo.FindByCode(c.Request.Context(), code)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown voucher code"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	d, err := pricing.EvaluateVoucher(pricing.Voucher{
		Code:            v.Code,
		Type:            v.Type,
		DiscountValue:   v.DiscountValue,
		DiscountPercent: v.DiscountPercent,
		MaxDiscount:     v.MaxDiscount,
		MinOrderValue:   v.MinOrderValue,
		ExpiresAt:       v.ExpiresAt,
		MaxUsage:        v.MaxUsage,
		CurrentUsage:    v.CurrentUsage,
		IsValid:         v.IsValid,
	}, subtotal, shippingFee, time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":              v.Code,
		"product_discount":  d.Product,
		"shipping_discount": d.Shipping,
		"total_discount":    d.Total(),
	})
}
