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

// --- GET: List purchase orders, newest first ---
func GetPurchases(c *gin.Context) {
	var purchases []models.Purchase
	if err := database.DB.Preload("Items").Order("created_at desc").Find(&purchases).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch purchases"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": purchases})
}

// --- GET: Single purchase order ---
func GetPurchase(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid purchase ID"})
		return
	}

	var purchase models.Purchase
	if err := database.DB.Preload("Items.Product").First(&purchase, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Purchase not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": purchase})
}

// --- POST: Create a purchase order ---
// Creating directly in received status credits stock immediately.
func CreatePurchase(c *gin.Context) {
	var in ledger.CreatePurchaseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	var purchase *models.Purchase
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		purchase, err = ledger.CreatePurchase(tx, in)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    purchase,
		"message": "Purchase order created successfully",
	})
}

// --- POST: Mark a pending purchase as received ---
func ReceivePurchase(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid purchase ID"})
		return
	}

	var purchase *models.Purchase
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		purchase, err = ledger.ReceivePurchase(tx, uint(id))
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    purchase,
		"message": "Purchase received and stock updated",
	})
}
