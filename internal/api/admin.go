package api

import (
	"net/http"
	"strconv"

	"storefront/internal/models"

	"github.com/gin-gonic/gin"
)

type createProductRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug" binding:"required"`
	Description string `json:"description"`
	Price       int64  `json:"price" binding:"min=0"`
	CategoryID  int64  `json:"category_id" binding:"required"`
	Inventory   int    `json:"inventory" binding:"min=0"`
}

// createProduct handles adding a catalog product
func (h *Handler) createProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ActionResult{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}

	product := &models.Product{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		Inventory:   req.Inventory,
	}
	if err := h.catalogService.CreateProduct(c.Request.Context(), product); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

type updateProductRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Price       int64  `json:"price" binding:"min=0"`
	CategoryID  int64  `json:"category_id" binding:"required"`
	Inventory   int    `json:"inventory" binding:"min=0"`
}

// updateProduct handles editing a product's mutable fields (the slug
// is fixed at creation)
func (h *Handler) updateProduct(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ActionResult{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}

	product := &models.Product{
		ID:          productID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		Inventory:   req.Inventory,
	}
	if err := h.catalogService.UpdateProduct(c.Request.Context(), product); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

type setInventoryRequest struct {
	Inventory int `json:"inventory" binding:"min=0"`
}

// setInventory handles a restock or manual inventory correction
func (h *Handler) setInventory(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var req setInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ActionResult{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}

	if err := h.catalogService.SetInventory(c.Request.Context(), productID, req.Inventory); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ActionResult{
		Success: true,
		Message: "Inventory updated",
	})
}

// deleteProduct removes a product from the catalog
func (h *Handler) deleteProduct(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	if err := h.catalogService.DeleteProduct(c.Request.Context(), productID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ActionResult{
		Success: true,
		Message: "Product deleted",
	})
}

type createCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug" binding:"required"`
	Description string `json:"description"`
}

// createCategory handles adding a category
func (h *Handler) createCategory(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ActionResult{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}

	category := &models.Category{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
	}
	if err := h.catalogService.CreateCategory(c.Request.Context(), category); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": category})
}
