package handlers

import (
	"net/http"
	"strconv"

	"github.com/rajueekgp/sale-stock-manager/internal/database"
	"github.com/rajueekgp/sale-stock-manager/internal/ledger"
	"github.com/rajueekgp/sale-stock-manager/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- GET: List credit notes ---
func GetCreditNotes(c *gin.Context) {
	var notes []models.CreditNote
	query := database.DB.Preload("Customer").Order("created_at desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	if err := query.Find(&notes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch credit notes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": notes})
}

// --- GET: Single credit note ---
func GetCreditNote(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid credit note ID"})
		return
	}

	var note models.CreditNote
	if err := database.DB.Preload("Customer").First(&note, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Credit note not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": note})
}

type ApplyCreditNoteRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// --- POST: Draw an amount down from an open credit note ---
func ApplyCreditNote(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid credit note ID"})
		return
	}

	var req ApplyCreditNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	var note *models.CreditNote
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		note, err = ledger.ApplyCreditNote(tx, uint(id), req.Amount)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": note, "message": "Credit note applied successfully"})
}
