package routes

import (
	"log/slog"
	"net/http"

	"github.com/01moynul/tshirtstore-golang/internal/access"
	"github.com/01moynul/tshirtstore-golang/internal/handlers"
	"github.com/01moynul/tshirtstore-golang/internal/middleware"
	"github.com/gin-gonic/gin"
)

// Deps are the router's collaborators beyond the handlers themselves.
type Deps struct {
	Tokens      middleware.TokenValidator
	Users       middleware.CallerResolver
	AuthLimiter *middleware.RateLimiter // guards register and login
	CORSOrigin  string
	Log         *slog.Logger
}

func SetupRouter(h *handlers.Handlers, deps Deps) *gin.Engine {
	router := gin.New()

	// CORS first so preflight requests short-circuit.
	router.Use(
		middleware.CORS(deps.CORSOrigin),
		middleware.RequestLogger(deps.Log),
		gin.Recovery(),
		middleware.Identify(deps.Tokens, deps.Users, deps.Log),
	)

	// --- Uploaded product images ---
	if h.Media != nil {
		router.Static("/uploads", h.Media.Dir())
	}

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Auth Routes (Public, rate limited) ---
		limited := v1.Group("/")
		if deps.AuthLimiter != nil {
			limited.Use(deps.AuthLimiter.Handler())
		}
		{
			limited.POST("/register", h.Register)
			limited.POST("/login", h.Login)
		}

		// --- Public Catalog Routes ---
		v1.GET("/home", h.Home)
		v1.GET("/categories", h.GetCategories)
		v1.GET("/products", h.ListProducts)
		v1.GET("/products/:id", h.GetProduct)

		// --- Protected Routes (Login Required) ---
		auth := v1.Group("/")
		auth.Use(middleware.Require(access.Authenticated()))
		{
			auth.GET("/profile/me", h.Me)

			// Cart
			auth.GET("/cart", h.GetCart)
			auth.POST("/cart/items", h.AddToCart)
			auth.PATCH("/cart/items/:id", h.UpdateCartItem)
			auth.DELETE("/cart/items/:id", h.DeleteCartItem)

			// Orders
			auth.POST("/checkout", h.Checkout)
			auth.GET("/orders", h.GetMyOrders)
			auth.GET("/orders/:id", h.GetOrder)

			// Reviews
			auth.POST("/products/:id/reviews", h.AddReview)
		}

		// --- Admin Routes ---
		admin := v1.Group("/admin")
		admin.Use(middleware.Require(access.Admin()))
		{
			admin.GET("/dashboard", h.GetDashboard)

			admin.GET("/products", h.AdminProducts)
			admin.POST("/products", h.CreateProduct)
			admin.PUT("/products/:id", h.UpdateProduct)
			admin.POST("/categories", h.CreateCategory)
			admin.POST("/uploads", h.UploadFile)

			admin.GET("/orders", h.AdminOrders)
			admin.PATCH("/orders/:id/status", h.UpdateOrderStatus)
			admin.PATCH("/orders/:id/payment", h.UpdatePaymentStatus)

			admin.GET("/users", h.AdminUsers)
		}
	}

	return router
}
