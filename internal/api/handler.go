package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront/internal/redisclient"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	authService     *service.AuthService
	catalogService  *service.CatalogService
	cartService     *service.CartService
	checkoutService *service.CheckoutService
	orderService    *service.OrderService
	redis           *redisclient.Client
	adminToken      string
}

// NewHandler creates a new HTTP handler
func NewHandler(
	authService *service.AuthService,
	catalogService *service.CatalogService,
	cartService *service.CartService,
	checkoutService *service.CheckoutService,
	orderService *service.OrderService,
	redis *redisclient.Client,
	adminToken string,
) *Handler {
	return &Handler{
		authService:     authService,
		catalogService:  catalogService,
		cartService:     cartService,
		checkoutService: checkoutService,
		orderService:    orderService,
		redis:           redis,
		adminToken:      adminToken,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.Use(RateLimiter(h.redis))
		{
			auth.POST("/register", h.register)
			auth.POST("/login", h.login)
		}

		v1.GET("/products", h.listProducts)
		v1.GET("/products/:slug", h.getProduct)
		v1.GET("/categories", h.listCategories)
		v1.GET("/categories/:slug", h.getCategory)

		authorized := v1.Group("/")
		authorized.Use(RequireAuth(h.authService))
		{
			authorized.POST("/auth/logout", h.logout)
			authorized.GET("/cart", h.getCart)
			authorized.POST("/cart/items", h.addToCart)
			authorized.DELETE("/cart/items/:id", h.removeFromCart)
			authorized.POST("/checkout", h.checkout)
			authorized.GET("/orders", h.listOrders)
			authorized.GET("/orders/:id", h.getOrder)
		}

		admin := v1.Group("/admin")
		admin.Use(RequireAdmin(h.adminToken))
		{
			admin.POST("/products", h.createProduct)
			admin.PUT("/products/:id", h.updateProduct)
			admin.PUT("/products/:id/inventory", h.setInventory)
			admin.DELETE("/products/:id", h.deleteProduct)
			admin.POST("/categories", h.createCategory)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// register handles account creation with auto-login
func (h *Handler) register(c *gin.Context) {
	var form service.RegisterForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, ActionResult{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}

	token, _, err := h.authService.Register(c.Request.Context(), &form)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ActionResult{
		Success: true,
		Message: "Account created successfully",
		Token:   token,
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// login handles credential login
func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ActionResult{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}

	token, _, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ActionResult{
		Success: true,
		Message: "Login successful",
		Token:   token,
	})
}

// logout revokes the presented token
func (h *Handler) logout(c *gin.Context) {
	tokenString := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")

	if err := h.authService.Logout(c.Request.Context(), tokenString); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ActionResult{
		Success: true,
		Message: "Signed out",
	})
}

// listProducts handles catalog listing, optionally filtered by category
func (h *Handler) listProducts(c *gin.Context) {
	var categoryID int64
	if raw := c.Query("category_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category id"})
			return
		}
		categoryID = parsed
	}

	products, err := h.catalogService.ListProducts(c.Request.Context(), categoryID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// getProduct handles a single product page lookup
func (h *Handler) getProduct(c *gin.Context) {
	product, err := h.catalogService.GetProductBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// listCategories handles category listing
func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.catalogService.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// getCategory handles a category page: the category plus its products
func (h *Handler) getCategory(c *gin.Context) {
	category, products, err := h.catalogService.GetCategoryBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"category": category,
		"products": products,
	})
}

// getCart returns the signed-in user's resolved cart
func (h *Handler) getCart(c *gin.Context) {
	user := currentUser(c)

	cart, err := h.cartService.GetCart(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

type addToCartRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1,max=99"`
}

// addToCart handles adding a product to the cart
func (h *Handler) addToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ActionResult{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}

	user := currentUser(c)
	product, err := h.cartService.AddItem(c.Request.Context(), user.ID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ActionResult{
		Success: true,
		Message: "Updated cart: " + product.Name,
	})
}

// removeFromCart handles removing one line item
func (h *Handler) removeFromCart(c *gin.Context) {
	user := currentUser(c)

	if err := h.cartService.RemoveItem(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		if service.IsNotFound(err) {
			c.JSON(http.StatusNotFound, ActionResult{
				Success: false,
				Message: "Cart item not found",
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ActionResult{
		Success: true,
		Message: "Item removed from cart",
	})
}

// checkout turns the cart into an order
func (h *Handler) checkout(c *gin.Context) {
	var form service.CheckoutForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, ActionResult{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}

	user := currentUser(c)
	order, err := h.checkoutService.Checkout(c.Request.Context(), user.ID, &form)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ActionResult{
		Success: true,
		Message: "Order placed successfully!",
		OrderID: order.ID,
	})
}

// listOrders returns the user's orders, newest first
func (h *Handler) listOrders(c *gin.Context) {
	user := currentUser(c)

	orders, err := h.orderService.ListOrders(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// getOrder returns one of the user's orders with its items
func (h *Handler) getOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	user := currentUser(c)
	order, items, err := h.orderService.GetOrder(c.Request.Context(), user.ID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
		"items": items,
	})
}
