package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"shoprent/internal/models"
	"shoprent/internal/repository"
	"shoprent/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProductHandler struct {
	repo     *repository.ProductRepository
	planRepo *repository.RentalPlanRepository
	media    cloudinary.Client
}

func NewProductHandler(repo *repository.ProductRepository, planRepo *repository.RentalPlanRepository, media cloudinary.Client) *ProductHandler {
	return &ProductHandler{repo: repo, planRepo: planRepo, media: media}
}

func (h *ProductHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	categoryID, _ := strconv.ParseUint(c.Query("category_id"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.repo.List(ctx, uint(categoryID), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": list})
}

func (h *ProductHandler) Get(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	p, err := h.repo.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	resp := gin.H{"product": p}
	if p.Rentable {
		if plan, err := h.planRepo.FindByProductID(c.Request.Context(), p.ID); err == nil {
			resp["rental_plan"] = plan
		}
	}
	c.JSON(http.StatusOK, resp)
}

type productRequest struct {
	CategoryID  uint   `json:"category_id"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	SalePrice   int64  `json:"sale_price" binding:"required,gt=0"`
	Stock       int    `json:"stock"`
	WeightGram  int    `json:"weight_gram"`
	ImageURL    string `json:"image_url"`
	Rentable    bool   `json:"rentable"`
	IsActive    *bool  `json:"is_active"`
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p := &models.Product{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		SalePrice:   req.SalePrice,
		Stock:       req.Stock,
		WeightGram:  req.WeightGram,
		ImageURL:    req.ImageURL,
		Rentable:    req.Rentable,
		IsActive:    true,
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if err := h.repo.Create(c.Request.Context(), p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": p})
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	p, err := h.repo.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p.CategoryID = req.CategoryID
	p.Name = req.Name
	p.Description = req.Description
	p.SalePrice = req.SalePrice
	p.Stock = req.Stock
	p.WeightGram = req.WeightGram
	if req.ImageURL != "" {
		p.ImageURL = req.ImageURL
	}
	p.Rentable = req.Rentable
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if err := h.repo.Update(c.Request.Context(), p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}

// UploadImage pushes a product photo to Cloudinary and saves the optimized
// URL on the product.
func (h *ProductHandler) UploadImage(c *gin.Context) {
	if h.media == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "media uploads not configured"})
		return
	}
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	p, err := h.repo.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}
	defer file.Close()

	publicID := fmt.Sprintf("product_%d_%s", p.ID, uuid.NewString())
	url, _, err := h.media.UploadImage(c.Request.Context(), file, "products", publicID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed"})
		return
	}
	p.ImageURL = url
	if err := h.repo.Update(c.Request.Context(), p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"image_url": url})
}

func (h *ProductHandler) ListCategories(c *gin.Context) {
	list, err := h.repo.ListCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": list})
}

func (h *ProductHandler) CreateCategory(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
		Slug string `json:"slug" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cat := &models.Category{Name: req.Name, Slug: req.Slug}
	if err := h.repo.CreateCategory(c.Request.Context(), cat); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": cat})
}

type rentalPlanRequest struct {
	BasePricePerDay int64 `json:"base_price_per_day" binding:"required,gt=0"`
	MinDays         int   `json:"min_days"`
	Deposit         int64 `json:"deposit"`
	LateFeePerDay   int64 `json:"late_fee_per_day"`
	Tiers           []struct {
		ThresholdDays int   `json:"threshold_days"`
		PricePerDay   int64 `json:"price_per_day"`
	} `json:"tiers"`
}

// SetRentalPlan lets an admin define explicit rental pricing; it replaces
// any auto-generated plan for the product.
func (h *ProductHandler) SetRentalPlan(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	ctx := c.Request.Context()
	p, err := h.repo.FindByID(ctx, uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	var req rentalPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.MinDays <= 0 {
		req.MinDays = 1
	}
	plan, err := h.planRepo.FindByProductID(ctx, p.ID)
	if err != nil {
		plan = &models.RentalPlan{ProductID: p.ID}
	}
	plan.BasePricePerDay = req.BasePricePerDay
	plan.MinDays = req.MinDays
	plan.Deposit = req.Deposit
	plan.LateFeePerDay = req.LateFeePerDay
	plan.AutoGenerated = false
	plan.Tiers = plan.Tiers[:0]
	for _, t := range req.Tiers {
		plan.Tiers = append(plan.Tiers, models.RentalPricingTier{
			PlanID:        plan.ID,
			ThresholdDays: t.ThresholdDays,
			PricePerDay:   t.PricePerDay,
		})
	}
	var saveErr error
	if plan.ID == 0 {
		saveErr = h.planRepo.Create(ctx, plan)
	} else {
		saveErr = h.planRepo.Update(ctx, plan)
	}
	if saveErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rental_plan": plan})
}
