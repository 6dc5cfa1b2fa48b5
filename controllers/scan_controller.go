package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"wheelscan_backend/services/scanner"
)

// ScanController exposes the on-demand scan trigger and result reads
type ScanController struct {
	orchestrator *scanner.Orchestrator
	store        *scanner.Store
}

// NewScanController creates a new scan controller
func NewScanController(orchestrator *scanner.Orchestrator, store *scanner.Store) *ScanController {
	return &ScanController{
		orchestrator: orchestrator,
		store:        store,
	}
}

// userIDParam reads the user_id query parameter. The auth layer lives in
// front of this service; until then the caller names the user explicitly.
func userIDParam(c *gin.Context) (uint, bool) {
	raw := c.Query("user_id")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id must be a positive integer"})
		return 0, false
	}
	return uint(id), true
}

// RunScan triggers a full watchlist scan and blocks until it finishes
// POST /api/v1/scan/run?user_id=1
func (sc *ScanController) RunScan(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	summary, err := sc.orchestrator.RunFullScan(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}

// GetResults returns the user's latest scan results, best score first
// GET /api/v1/scan/results?user_id=1
func (sc *ScanController) GetResults(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	results, err := sc.store.ScanResults(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  results,
		"total": len(results),
	})
}

// GetPriceHistory returns the stored charting bars for a ticker
// GET /api/v1/scan/prices/:ticker
func (sc *ScanController) GetPriceHistory(c *gin.Context) {
	ticker := c.Param("ticker")

	bars, err := sc.store.PriceHistory(ticker)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ticker": ticker,
		"data":   bars,
		"total":  len(bars),
	})
}
