package api

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nangoso/maple-price-tracker/internal/api/handlers"
	"github.com/nangoso/maple-price-tracker/internal/metrics"
	"github.com/nangoso/maple-price-tracker/internal/services"
	"github.com/nangoso/maple-price-tracker/internal/store"
)

func SetupRouter(
	catalog *services.CatalogService,
	aggregator *services.Aggregator,
	collector *services.Collector,
	revalidator *services.Revalidator,
	admin *services.AdminService,
	items *store.ItemStore,
	prices *store.PriceStore,
	adminPassword string,
) *gin.Engine {
	router := gin.Default()

	// CORS configuration - allow origins from environment or use defaults
	config := cors.DefaultConfig()
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		config.AllowOrigins = strings.Split(corsOrigins, ",")
	} else {
		config.AllowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	config.AllowCredentials = false
	router.Use(cors.New(config))
	router.Use(metricsMiddleware())

	// Initialize handlers
	itemHandler := handlers.NewItemHandler(catalog, aggregator, items, prices)
	adminHandler := handlers.NewAdminHandler(admin, collector, revalidator, adminPassword)

	// API routes
	api := router.Group("/api")
	{
		// Item routes
		itemRoutes := api.Group("/items")
		{
			itemRoutes.GET("", itemHandler.ListItems)
			itemRoutes.POST("", itemHandler.RegisterItem)
			itemRoutes.GET("/popular", itemHandler.PopularItems)
			itemRoutes.GET("/:itemCode", itemHandler.GetItem)
			itemRoutes.GET("/:itemCode/history", itemHandler.GetItemHistory)
			itemRoutes.GET("/:itemCode/prices", itemHandler.GetItemPrices)
		}

		// Admin routes
		adminRoutes := api.Group("/admin")
		{
			adminRoutes.POST("/prices/disable", adminHandler.DisablePrice)
			adminRoutes.POST("/collect", adminHandler.TriggerCollection)
			adminRoutes.POST("/revalidate", adminHandler.TriggerRevalidation)
			adminRoutes.GET("/collect/status", adminHandler.CollectionStatus)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Prometheus scrape endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

// metricsMiddleware records request counts and latency per route.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
