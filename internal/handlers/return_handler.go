package handlers

import (
	"net/http"
	"strconv"

	"github.com/rajueekgp/sale-stock-manager/internal/database"
	"github.com/rajueekgp/sale-stock-manager/internal/ledger"
	"github.com/rajueekgp/sale-stock-manager/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// --- GET: List returns, newest first ---
func GetReturns(c *gin.Context) {
	var returns []models.Return
	if err := database.DB.Preload("Items").Preload("Sale").Order("created_at desc").Find(&returns).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch returns"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": returns})
}

// --- GET: Single return ---
func GetReturn(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid return ID"})
		return
	}

	var ret models.Return
	if err := database.DB.Preload("Items.Product").Preload("Sale").First(&ret, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Return not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": ret})
}

// --- POST: Process a return, optionally issuing a credit note ---
func CreateReturn(c *gin.Context) {
	var in ledger.CreateReturnInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	var ret *models.Return
	var note *models.CreditNote
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		ret, note, err = ledger.CreateReturn(tx, in)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Return processed as cash refund successfully"
	if note != nil {
		message = "Return processed and credit note issued successfully"
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"data":        ret,
		"credit_note": note,
		"message":     message,
	})
}

type UpdateReturnRequest struct {
	Reason string `json:"reason"`
}

// --- PUT: Update a return's reason ---
func UpdateReturn(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid return ID"})
		return
	}

	var req UpdateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	var ret *models.Return
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		ret, err = ledger.UpdateReturnReason(tx, uint(id), req.Reason)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": ret, "message": "Return updated successfully"})
}

// --- DELETE: Remove a return, reversing its stock and credit effects ---
func DeleteReturn(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid return ID"})
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		return ledger.DeleteReturn(tx, uint(id))
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Return deleted successfully"})
}
