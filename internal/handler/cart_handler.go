package handler

import (
	"errors"
	"net/http"
	"strconv"

	"shoprent/internal/middleware"
	"shoprent/internal/models"
	"shoprent/internal/repository"

	"github.com/gin-gonic/gin"
)

type CartHandler struct {
	carts    *repository.CartRepository
	products *repository.ProductRepository
}

func NewCartHandler(carts *repository.CartRepository, products *repository.ProductRepository) *CartHandler {
	return &CartHandler{carts: carts, products: products}
}

func (h *CartHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)
	cart, err := h.carts.GetOrCreateOpen(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cart unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart, "total": cartTotal(cart)})
}

type addItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,gt=0"`
}

// AddItem snapshots the current sale price onto the line; a later catalog
// price change does not reprice the cart.
func (h *CartHandler) AddItem(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	product, err := h.products.FindByID(ctx, req.ProductID)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if !product.IsActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product is not available"})
		return
	}
	if product.Stock < req.Quantity {
		c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient stock"})
		return
	}
	cart, err := h.carts.GetOrCreateOpen(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cart unavailable"})
		return
	}
	item := &models.CartItem{
		CartID:    cart.ID,
		ProductID: product.ID,
		Quantity:  req.Quantity,
		UnitPrice: product.SalePrice,
	}
	if err := h.carts.UpsertItem(ctx, cart.ID, item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "add failed"})
		return
	}
	cart, _ = h.carts.GetOrCreateOpen(ctx, userID)
	c.JSON(http.StatusOK, gin.H{"cart": cart, "total": cartTotal(cart)})
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	userID := middleware.GetUserID(c)
	itemID, _ := strconv.ParseUint(c.Param("itemId"), 10, 64)
	var req struct {
		Quantity int `json:"quantity" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	cart, err := h.carts.FindOpenByUserID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no open cart"})
		return
	}
	if err := h.carts.UpdateItemQuantity(ctx, cart.ID, uint(itemID), req.Quantity); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	cart, _ = h.carts.FindOpenByUserID(ctx, userID)
	c.JSON(http.StatusOK, gin.H{"cart": cart, "total": cartTotal(cart)})
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID := middleware.GetUserID(c)
	itemID, _ := strconv.ParseUint(c.Param("itemId"), 10, 64)
	ctx := c.Request.Context()
	cart, err := h.carts.FindOpenByUserID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no open cart"})
		return
	}
	if err := h.carts.RemoveItem(ctx, cart.ID, uint(itemID)); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	cart, _ = h.carts.FindOpenByUserID(ctx, userID)
	c.JSON(http.StatusOK, gin.H{"cart": cart, "total": cartTotal(cart)})
}

func cartTotal(cart *models.Cart) int64 {
	if cart == nil {
		return 0
	}
	var total int64
	for _, it := range cart.Items {
		total += it.UnitPrice * int64(it.Quantity)
	}
	return total
}
