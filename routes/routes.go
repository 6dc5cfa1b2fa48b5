package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"wheelscan_backend/controllers"
	"wheelscan_backend/services/scanner"
)

// SetupRoutes sets up all API routes
func SetupRoutes(router *gin.Engine, db *gorm.DB, orchestrator *scanner.Orchestrator, store *scanner.Store) {
	// Initialize controllers
	scanController := controllers.NewScanController(orchestrator, store)
	watchlistController := controllers.NewWatchlistController(db)

	// API v1 group
	api := router.Group("/api/v1")
	{
		// Scan routes
		scan := api.Group("/scan")
		{
			scan.POST("/run", scanController.RunScan)
			scan.GET("/results", scanController.GetResults)
			scan.GET("/prices/:ticker", scanController.GetPriceHistory)
		}

		// Watchlist routes
		watchlist := api.Group("/watchlist")
		{
			watchlist.GET("", watchlistController.GetWatchlist)
			watchlist.POST("", watchlistController.AddTicker)
			watchlist.DELETE("/:ticker", watchlistController.RemoveTicker)
		}
	}
}
