package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/andresuchdata/stockcast/backend-go/internal/api/handlers"
	"github.com/andresuchdata/stockcast/backend-go/internal/api/middleware"
	"github.com/andresuchdata/stockcast/backend-go/internal/metrics"
)

type Services struct {
	Products     handlers.ProductService
	Transactions handlers.TransactionService
	Forecasts    handlers.ForecastService
	Sales        handlers.SalesImporter
	Dashboard    handlers.DashboardService
	// HealthCheck reports whether backing stores are reachable.
	HealthCheck func(ctx context.Context) error
}

type Options struct {
	AllowedOrigins []string
	ServiceName    string
	Metrics        metrics.Recorder
	MetricsHandler http.Handler
	MaxUploadBytes int64
	DefaultPeriods int
}

func NewRouter(services *Services, opts Options) *gin.Engine {
	router := gin.New()

	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}

	// Add middleware
	router.Use(middleware.Recovery())
	if opts.ServiceName != "" {
		router.Use(otelgin.Middleware(opts.ServiceName))
	}
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics(opts.Metrics))
	router.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	router.GET("/health", healthHandler(services))
	if opts.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}

	apiGroup := router.Group("/api")

	if services == nil {
		return router
	}

	if services.Products != nil {
		productHandler := handlers.NewProductHandler(services.Products)
		productGroup := apiGroup.Group("/products")
		{
			productGroup.GET("", productHandler.List)
			productGroup.POST("", productHandler.Create)
			productGroup.GET("/:id", productHandler.Get)
			productGroup.PUT("/:id", productHandler.Update)
			productGroup.DELETE("/:id", productHandler.Delete)
		}
	}

	if services.Transactions != nil {
		transactionHandler := handlers.NewTransactionHandler(services.Transactions)
		apiGroup.GET("/transactions", transactionHandler.List)
		apiGroup.POST("/transactions", transactionHandler.Record)
	}

	if services.Sales != nil {
		salesHandler := handlers.NewSalesHandler(services.Sales, opts.MaxUploadBytes)
		apiGroup.POST("/sales/upload", salesHandler.Upload)
	}

	if services.Forecasts != nil {
		forecastHandler := handlers.NewForecastHandler(services.Forecasts, opts.DefaultPeriods)
		apiGroup.GET("/forecast/:id", forecastHandler.Forecast)
	}

	if services.Dashboard != nil {
		dashboardHandler := handlers.NewDashboardHandler(services.Dashboard)
		apiGroup.GET("/dashboard", dashboardHandler.Summary)
	}

	return router
}

func healthHandler(services *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if services != nil && services.HealthCheck != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := services.HealthCheck(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func corsConfig(allowedOrigins []string) cors.Config {
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	cfg := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			cfg.AllowOrigins = nil
			cfg.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			cfg.AllowOrigins = normalizedOrigins
		}
	}
	return cfg
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
