package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"wheelscan_backend/config"
	"wheelscan_backend/models"
	"wheelscan_backend/routes"
	"wheelscan_backend/scheduler"
	"wheelscan_backend/services/marketdata"
	"wheelscan_backend/services/scanner"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	log.Info("==============================================")
	log.Info("  Wheelscan Backend - Starting...")
	log.Info("==============================================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Config load failed: %v", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}

	log.Info("Running database migrations...")
	if err := runMigrations(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Info("Database migrations completed successfully")

	// One limiter for the whole process: every market data call, scheduled
	// or on-demand, draws from the same provider quota.
	limiter := marketdata.NewLimiter(cfg.MarketDataRateLimit)
	client := marketdata.NewClient(cfg.MarketDataBaseURL, cfg.MarketDataAPIKey, limiter, cfg.MarketDataTimeout)

	store := scanner.NewStore(db)
	tickerScanner := scanner.NewTickerScanner(client, store, scanner.DefaultThresholds(), cfg.RiskFreeRate)
	orchestrator := scanner.NewOrchestrator(tickerScanner, store)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	setupHealthEndpoints(router)
	routes.SetupRoutes(router, db, orchestrator, store)

	jobScheduler := scheduler.NewScheduler(orchestrator, store)
	jobScheduler.Start()

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      10 * time.Minute, // a blocking scan run can be slow behind the rate limiter
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Server listening on 0.0.0.0:%s", cfg.Port)
		log.Info("==============================================")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	gracefulShutdown(server, jobScheduler)
}

// runMigrations runs all database migrations
func runMigrations() error {
	db := config.DB

	if err := models.MigrateScanModels(db); err != nil {
		return err
	}
	if err := models.MigrateTradingModels(db); err != nil {
		return err
	}
	return nil
}

// setupHealthEndpoints sets up liveness and readiness probes
func setupHealthEndpoints(router *gin.Engine) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Wheelscan Backend API",
			"version": "1.0.0",
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/ready", func(c *gin.Context) {
		sqlDB, err := config.DB.DB()
		if err != nil || sqlDB.Ping() != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"message": "Database not reachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
}

// requestLogger returns a request logging middleware
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip logging for health checks to reduce noise
		path := c.Request.URL.Path
		if path == "/health" || path == "/ready" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		if c.Writer.Status() >= 400 || duration > 1*time.Second {
			log.Infof("%s %s %d %v", c.Request.Method, path, c.Writer.Status(), duration)
		}
	}
}

// gracefulShutdown handles graceful shutdown of the server
func gracefulShutdown(server *http.Server, jobScheduler *scheduler.Scheduler) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Infof("Received signal %v, shutting down gracefully...", sig)

	jobScheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	if config.DB != nil {
		if sqlDB, err := config.DB.DB(); err == nil {
			sqlDB.Close()
			log.Info("Database connection closed")
		}
	}

	log.Info("Server shutdown completed")
}
