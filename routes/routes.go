package routes

import (
	"context"
	"net/http"
	"time"

	"pizza-service/auth"
	"pizza-service/handlers"
	"pizza-service/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

type Dependencies struct {
	DB          *gorm.DB
	Tokens      *auth.TokenService
	AuthLimiter *middleware.RateLimiter
	BcryptCost  int
	Origins     []string
}

func SetupRoutes(r *gin.Engine, deps Dependencies) {
	origins := deps.Origins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
	}))

	authHandler := &handlers.AuthHandler{DB: deps.DB, Tokens: deps.Tokens, BcryptCost: deps.BcryptCost}
	userHandler := &handlers.UserHandler{DB: deps.DB, Tokens: deps.Tokens, BcryptCost: deps.BcryptCost}
	franchiseHandler := &handlers.FranchiseHandler{DB: deps.DB}
	orderHandler := &handlers.OrderHandler{DB: deps.DB}

	requireAuth := middleware.AuthMiddleware(deps.Tokens)
	optionalAuth := middleware.OptionalAuthMiddleware(deps.Tokens)

	limit := func(c *gin.Context) { c.Next() }
	if deps.AuthLimiter != nil {
		limit = deps.AuthLimiter.Middleware()
	}

	r.GET("/health", healthHandler(deps.DB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		// Auth
		api.POST("/auth", limit, authHandler.Register)
		api.PUT("/auth", limit, authHandler.Login)
		api.DELETE("/auth", requireAuth, authHandler.Logout)

		// Users
		api.GET("/user/me", requireAuth, userHandler.GetMe)
		api.PUT("/user/:userId", requireAuth, userHandler.UpdateUser)
		api.GET("/user", requireAuth, userHandler.ListUsers)

		// Franchises and stores
		api.GET("/franchise", optionalAuth, franchiseHandler.ListFranchises)
		api.GET("/franchise/:userId", requireAuth, franchiseHandler.ListUserFranchises)
		api.POST("/franchise", requireAuth, franchiseHandler.CreateFranchise)
		api.DELETE("/franchise/:franchiseId", requireAuth, franchiseHandler.DeleteFranchise)
		api.POST("/franchise/:franchiseId/store", requireAuth, franchiseHandler.CreateStore)
		api.DELETE("/franchise/:franchiseId/store/:storeId", requireAuth, franchiseHandler.DeleteStore)

		// Menu and orders
		api.GET("/order/menu", orderHandler.GetMenu)
		api.PUT("/order/menu", requireAuth, orderHandler.AddMenuItem)
		api.GET("/order", requireAuth, orderHandler.GetOrders)
		api.POST("/order", requireAuth, orderHandler.CreateOrder)
	}
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
