package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/budget-engine/backend-go/internal/api/handlers"
	"github.com/andresuchdata/budget-engine/backend-go/internal/api/middleware"
	"github.com/andresuchdata/budget-engine/backend-go/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Budget  *service.BudgetService
	Shelf   *service.ShelfService
	Catalog *service.CatalogService
	Export  *service.ExportService
	Poller  handlers.Poller
	Runs    handlers.RunLister
	// Ping reports backing store health for /health.
	Ping func(ctx context.Context) error
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	if services == nil {
		services = &Services{}
	}

	router.GET("/health", func(c *gin.Context) {
		if services.Ping != nil {
			if err := services.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "details": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services.Catalog != nil {
		catalogHandler := handlers.NewCatalogHandler(services.Catalog)
		catalogGroup := apiGroup.Group("/catalog")
		{
			catalogGroup.GET("/stores", catalogHandler.GetStores)
			catalogGroup.GET("/suppliers", catalogHandler.GetSuppliers)
			catalogGroup.GET("/products", catalogHandler.GetProducts)
		}
	}

	if services.Budget != nil {
		budgetHandler := handlers.NewBudgetHandler(services.Budget, services.Export)
		budgetGroup := apiGroup.Group("/budget")
		{
			budgetGroup.POST("", budgetHandler.CreateBudget)
			budgetGroup.POST("/recompute", budgetHandler.Recompute)
			budgetGroup.POST("/compliance", budgetHandler.Compliance)
			if services.Export != nil {
				budgetGroup.POST("/export", budgetHandler.ExportBudget)
				budgetGroup.POST("/compliance/export", budgetHandler.ExportCompliance)
			}
		}
	}

	if services.Shelf != nil {
		shelfHandler := handlers.NewShelfHandler(services.Shelf, services.Export)
		shelfGroup := apiGroup.Group("/shelf")
		{
			shelfGroup.POST("", shelfHandler.Classify)
			if services.Export != nil {
				shelfGroup.POST("/export", shelfHandler.Export)
			}
		}
	}

	if services.Runs != nil {
		ingestHandler := handlers.NewIngestHandler(services.Poller, services.Runs)
		ingestGroup := apiGroup.Group("/ingest")
		{
			ingestGroup.POST("/sync", ingestHandler.Sync)
			ingestGroup.GET("/runs", ingestHandler.GetRuns)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
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
