package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"packtrack-system/config"
	"packtrack-system/internal/colorcode"
	"packtrack-system/internal/database"
	"packtrack-system/internal/gateway/handlers"
	"packtrack-system/internal/gateway/middleware"
	inventory "packtrack-system/internal/services/inventory/handler"
	packout "packtrack-system/internal/services/packout/handler"
	user "packtrack-system/internal/services/user/handler"
	"packtrack-system/internal/utils"
)

func main() {
	cfg := config.LoadConfig()
	utils.SetJWTSecret(cfg.Auth.JWTSecret)

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	if err := database.SeedRoles(db); err != nil {
		log.Fatalf("Failed to seed roles: %v", err)
	}

	redisClient := config.NewRedisClient(cfg.Redis)

	userHandler := handlers.NewUserHTTPHandler(user.NewUserHandler(db, redisClient))
	inventoryHandler := handlers.NewInventoryHTTPHandler(inventory.NewInventoryHandler(db, redisClient))
	packoutHandler := handlers.NewPackoutHTTPHandler(packout.NewPackoutHandler(db, redisClient))

	r := gin.Default()

	r.Use(middleware.CORS())
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit())

	// --- Public API Group ---
	public := r.Group("/api/v1")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/login", userHandler.Login)
			auth.POST("/register", userHandler.Register)
		}
	}

	// --- Protected API Group ---
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth())
	{
		protected.GET("/colors", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"data":    colorcode.Known(),
			})
		})

		users := protected.Group("/users")
		{
			users.GET("", userHandler.ListUsers)
			users.GET("/:id", userHandler.GetUser)
		}
		protected.GET("/roles", userHandler.ListRoles)

		inventoryGroup := protected.Group("/inventory")
		{
			inventoryGroup.GET("/items", inventoryHandler.ListWarehouseItems)
			inventoryGroup.POST("/items", inventoryHandler.CreateItem)
			inventoryGroup.GET("/items/:id", inventoryHandler.GetItem)
			inventoryGroup.POST("/items/:id/quantity", inventoryHandler.CheckInOut)
			inventoryGroup.GET("/search", inventoryHandler.FilterItems)
			inventoryGroup.GET("/scan/:qrCode", inventoryHandler.ScanItem)
			inventoryGroup.GET("/warehouses", inventoryHandler.ListWarehouses)
			inventoryGroup.GET("/low-stock", inventoryHandler.ListLowStock)
			inventoryGroup.GET("/movements", inventoryHandler.ListMovements)
		}

		packoutGroup := protected.Group("/packouts")
		{
			packoutGroup.POST("", packoutHandler.CreateSheet)
			packoutGroup.GET("", packoutHandler.ListSheets)
			packoutGroup.GET("/:id", packoutHandler.GetSheet)
			packoutGroup.POST("/:id/confirm", packoutHandler.ConfirmSheet)
			packoutGroup.POST("/:id/returns", packoutHandler.ProcessReturns)
		}
	}

	r.GET("/health", healthCheckHandler(db, redisClient))

	port := ":" + cfg.Server.Port
	log.Printf("Starting server on port %s", port)
	if err := r.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func healthCheckHandler(db *gorm.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		status := "healthy"
		httpStatus := http.StatusOK
		services := map[string]string{
			"database": "healthy",
			"redis":    "healthy",
		}

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			services["database"] = "unavailable"
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			services["redis"] = "unavailable"
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}

		c.JSON(httpStatus, gin.H{
			"status":    status,
			"services":  services,
			"timestamp": time.Now(),
		})
	}
}
