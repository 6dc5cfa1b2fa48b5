package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"wheelscan_backend/models"
)

// WatchlistController manages the tickers a user's scans run over
type WatchlistController struct {
	db *gorm.DB
}

// NewWatchlistController creates a new watchlist controller
func NewWatchlistController(db *gorm.DB) *WatchlistController {
	return &WatchlistController{db: db}
}

type addTickerRequest struct {
	Ticker string `json:"ticker" binding:"required"`
}

// GetWatchlist returns the user's watchlist
// GET /api/v1/watchlist?user_id=1
func (wc *WatchlistController) GetWatchlist(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	var items []models.WatchlistItem
	if err := wc.db.Where("user_id = ?", userID).Order("ticker ASC").Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  items,
		"total": len(items),
	})
}

// AddTicker adds a ticker to the user's watchlist
// POST /api/v1/watchlist?user_id=1
func (wc *WatchlistController) AddTicker(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	var req addTickerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticker must not be empty"})
		return
	}

	item := models.WatchlistItem{UserID: userID, Ticker: ticker}
	if err := wc.db.Create(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "ticker already on watchlist"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

// RemoveTicker removes a ticker from the user's watchlist
// DELETE /api/v1/watchlist/:ticker?user_id=1
func (wc *WatchlistController) RemoveTicker(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	ticker := strings.ToUpper(strings.TrimSpace(c.Param("ticker")))

	result := wc.db.Where("user_id = ? AND ticker = ?", userID, ticker).Delete(&models.WatchlistItem{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "ticker not on watchlist"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ticker removed"})
}
