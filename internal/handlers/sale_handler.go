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

// --- GET: List sales (newest first) ---
func GetSales(c *gin.Context) {
	var sales []models.Sale
	query := database.DB.Preload("Items").Preload("Customer").Order("created_at desc")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	if paymentMethod := c.Query("payment_method"); paymentMethod != "" {
		query = query.Where("payment_method = ?", paymentMethod)
	}

	if err := query.Find(&sales).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch sales"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": sales})
}

// --- GET: Single sale with items ---
func GetSale(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid sale ID"})
		return
	}

	var sale models.Sale
	if err := database.DB.Preload("Items.Product").Preload("Customer").First(&sale, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Sale not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": sale})
}

// --- POST: Checkout ---
func CreateSale(c *gin.Context) {
	var in ledger.CreateSaleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}
	in.UserID = c.MustGet("userID").(uint)

	var sale *models.Sale
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		sale, err = ledger.CreateSale(tx, in)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    sale,
		"message": "Sale created successfully",
	})
}

// --- PUT: Amend a recent sale in place ---
func UpdateSale(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid sale ID"})
		return
	}

	var in ledger.AmendSaleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	var sale *models.Sale
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		sale, err = ledger.AmendSale(tx, uint(id), in)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": sale, "message": "Sale updated successfully"})
}

// --- POST: Void a sale and restore stock ---
func VoidSale(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid sale ID"})
		return
	}

	var sale *models.Sale
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		sale, err = ledger.VoidSale(tx, uint(id))
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": sale, "message": "Sale voided successfully and stock restored"})
}

type RefundRequest struct {
	RefundAmount *decimal.Decimal         `json:"refund_amount"`
	RefundItems  []ledger.RefundItemInput `json:"refund_items"`
	Reason       string                   `json:"reason"`
}

// --- POST: Full or partial refund ---
func RefundSale(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid sale ID"})
		return
	}

	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	var sale *models.Sale
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		amount := decimal.Zero
		if req.RefundAmount != nil {
			amount = *req.RefundAmount
		} else {
			// Default to a full refund of the sale total.
			var header models.Sale
			if err := tx.First(&header, id).Error; err != nil {
				return &ledger.NotFoundError{Entity: "Sale", ID: uint(id)}
			}
			amount = header.TotalAmount
		}
		var err error
		sale, err = ledger.RefundSale(tx, uint(id), amount, req.RefundItems)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"sale":         sale,
			"refund_items": req.RefundItems,
			"reason":       req.Reason,
		},
		"message": "Refund processed successfully",
	})
}

// --- GET: Receipt data for a sale ---
func GetReceipt(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid sale ID"})
		return
	}

	var sale models.Sale
	if err := database.DB.Preload("Items.Product").Preload("Customer").First(&sale, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Sale not found"})
		return
	}

	customerName := "Walk-in Customer"
	if sale.Customer != nil {
		customerName = sale.Customer.Name
	}

	items := make([]gin.H, 0, len(sale.Items))
	for _, item := range sale.Items {
		items = append(items, gin.H{
			"product_name": item.Product.Name,
			"sku":          item.Product.SKU,
			"quantity":     item.Quantity,
			"unit_price":   item.UnitPrice,
			"total_price":  item.TotalPrice,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"sale_number":     sale.SaleNumber,
			"date":            sale.CreatedAt.Format("2006-01-02 15:04:05"),
			"customer":        gin.H{"name": customerName},
			"items":           items,
			"subtotal":        sale.Subtotal,
			"tax_amount":      sale.TaxAmount,
			"discount_amount": sale.DiscountAmount,
			"total_amount":    sale.TotalAmount,
			"payment_method":  sale.PaymentMethod,
			"status":          sale.Status,
		},
	})
}
