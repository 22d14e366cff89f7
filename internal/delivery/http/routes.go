package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nutriscan/backend/config"
)

// RouterOptions carries optional router collaborators
type RouterOptions struct {
	// Metrics counts requests when set
	Metrics RequestRecorder
	// MetricsHandler is served at /metrics when set
	MetricsHandler http.Handler
}

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, opts RouterOptions) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = handler.maxUploadBytes

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	if opts.Metrics != nil {
		router.Use(MetricsMiddleware(opts.Metrics))
	}

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)
	if opts.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		products := v1.Group("/products")
		{
			products.GET("", handler.ListProducts)
			products.POST("/analyze", handler.AnalyzeProduct)
			products.POST("/barcode-image", handler.ExtractBarcode)
			products.GET("/lookup/:barcode", handler.LookupProduct)
			products.GET("/barcode/:barcode", handler.GetProductByBarcode)
			products.GET("/images/:kind/:name", handler.GetProductByImageName)
			products.GET("/:id", handler.GetProduct)
		}

		ingredients := v1.Group("/ingredients")
		{
			ingredients.POST("/analyze", handler.AnalyzeIngredients)
		}

		v1.POST("/chat", handler.Chat)

		admin := v1.Group("/admin")
		{
			admin.POST("/repair", handler.RepairRecords)
		}
	}

	return router
}
