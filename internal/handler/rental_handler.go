package handler

import (
	"net/http"
	"strconv"
	"time"

	"shoprent/internal/middleware"
	"shoprent/internal/repository"
	"shoprent/internal/service"

	"github.com/gin-gonic/gin"
)

type RentalHandler struct {
	svc     *service.RentalService
	rentals *repository.RentalRepository
}

func NewRentalHandler(svc *service.RentalService, rentals *repository.RentalRepository) *RentalHandler {
	return &RentalHandler{svc: svc, rentals: rentals}
}

type createRentalRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	StartDate string `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate   string `json:"end_date" binding:"required"`
}

func (h *RentalHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req createRentalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date (use YYYY-MM-DD)"})
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date (use YYYY-MM-DD)"})
		return
	}
	out, err := h.svc.Create(c.Request.Context(), userID, service.CreateRentalInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		c.JSON(service.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *RentalHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.rentals.ListByUserID(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rentals": list})
}

// Checkout opens the gateway link for the rental's subtotal plus deposit.
func (h *RentalHandler) Checkout(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	out, err := h.svc.CreatePaymentLink(c.Request.Context(), userID, uint(id))
	if err != nil {
		c.JSON(service.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *RentalHandler) Status(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	out, err := h.svc.Status(c.Request.Context(), userID, uint(id))
	if err != nil {
		c.JSON(service.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

// Activate is the operator fallback when a paid rental never saw its
// webhook; idempotent on already-active rentals.
func (h *RentalHandler) Activate(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if err := h.svc.Activate(c.Request.Context(), uint(id)); err != nil {
		c.JSON(service.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type settleRequest struct {
	ReturnedAt string `json:"returned_at"` // RFC3339; empty = now
}

// Settle records the return and closes the rental out, computing any late
// fee and the deposit refund.
func (h *RentalHandler) Settle(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	var req settleRequest
	_ = c.ShouldBindJSON(&req)
	returnedAt := time.Now()
	if req.ReturnedAt != "" {
		t, err := time.Parse(time.RFC3339, req.ReturnedAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid returned_at (use RFC3339)"})
			return
		}
		returnedAt = t
	}
	out, err := h.svc.Settle(c.Request.Context(), uint(id), returnedAt)
	if err != nil {
		c.JSON(service.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}
