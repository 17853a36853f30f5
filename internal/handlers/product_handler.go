package handlers

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rajueekgp/sale-stock-manager/internal/database"
	"github.com/rajueekgp/sale-stock-manager/internal/ledger"
	"github.com/rajueekgp/sale-stock-manager/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// --- GET: List all products ---
func GetProducts(c *gin.Context) {
	var products []models.Product

	query := database.DB.Preload("Batches")
	if c.Query("include_inactive") != "true" {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("name").Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch products"})
		return
	}

	// For batch-managed products the exposed quantity is the batch sum; the
	// product's own counter is not the source of truth.
	for i := range products {
		if products[i].BatchManagementEnabled {
			total := 0
			for _, b := range products[i].Batches {
				total += b.StockQuantity
			}
			products[i].StockQuantity = total
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": products})
}

// --- GET: Scan a product by barcode ---
func ScanProduct(c *gin.Context) {
	barcode := c.Param("barcode")

	var product models.Product
	err := database.DB.Preload("Batches").
		Where("barcode = ? AND is_active = ?", barcode, true).
		First(&product).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Product not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": product})
}

// --- POST: Add a new product ---
func AddProduct(c *gin.Context) {
	var newProduct models.Product
	if err := c.ShouldBindJSON(&newProduct); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid input"})
		return
	}

	if newProduct.Name == "" || newProduct.SKU == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "name and sku are required"})
		return
	}
	if newProduct.Price.IsNegative() || newProduct.CostPrice.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Price cannot be negative"})
		return
	}
	newProduct.SKU = strings.ToUpper(strings.TrimSpace(newProduct.SKU))

	var count int64
	database.DB.Model(&models.Product{}).Where("sku = ?", newProduct.SKU).Count(&count)
	if count > 0 {
		respondError(c, &ledger.DuplicateError{Field: "SKU", Value: newProduct.SKU})
		return
	}
	if newProduct.Barcode != "" {
		database.DB.Model(&models.Product{}).Where("barcode = ?", newProduct.Barcode).Count(&count)
		if count > 0 {
			respondError(c, &ledger.DuplicateError{Field: "barcode", Value: newProduct.Barcode})
			return
		}
	}

	if err := database.DB.Create(&newProduct).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to create product"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": newProduct})
}

// --- PUT: Update product fields (partial update) ---
func UpdateProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid Product ID"})
		return
	}

	var product models.Product
	if err := database.DB.First(&product, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Product not found"})
		return
	}

	// We use a map so we only update what was sent
	var updateData map[string]interface{}
	if err := c.ShouldBindJSON(&updateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid input"})
		return
	}

	// Stock moves only through the ledger paths, never a blind field write.
	delete(updateData, "stock_quantity")

	if sku, ok := updateData["sku"].(string); ok {
		sku = strings.ToUpper(strings.TrimSpace(sku))
		updateData["sku"] = sku
		if sku != product.SKU {
			var count int64
			database.DB.Model(&models.Product{}).Where("sku = ?", sku).Count(&count)
			if count > 0 {
				respondError(c, &ledger.DuplicateError{Field: "SKU", Value: sku})
				return
			}
		}
	}
	if barcode, ok := updateData["barcode"].(string); ok && barcode != "" && barcode != product.Barcode {
		var count int64
		database.DB.Model(&models.Product{}).Where("barcode = ?", barcode).Count(&count)
		if count > 0 {
			respondError(c, &ledger.DuplicateError{Field: "barcode", Value: barcode})
			return
		}
	}

	if err := database.DB.Model(&product).Updates(updateData).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to update product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": product, "message": "Product updated successfully"})
}

// --- DELETE: Deactivate (products linked to sales must survive for history) ---
func DeleteProduct(c *gin.Context) {
	id := c.Param("id")

	var product models.Product
	if err := database.DB.First(&product, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Product not found"})
		return
	}

	var soldCount int64
	database.DB.Model(&models.SaleItem{}).Where("product_id = ?", product.ID).Count(&soldCount)
	if soldCount > 0 {
		// Keep the row, just retire it from sale.
		if err := database.DB.Model(&product).Update("is_active", false).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to deactivate product"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product has sales history and was deactivated instead of deleted"})
		return
	}

	if err := database.DB.Delete(&product).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Could not delete product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product deleted successfully"})
}

// --- POST: Create a batch for a batch-managed product ---
func CreateProductBatch(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid Product ID"})
		return
	}

	var product models.Product
	if err := database.DB.First(&product, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Product not found"})
		return
	}
	if !product.BatchManagementEnabled {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Batch management is not enabled for this product"})
		return
	}

	var batch models.ProductBatch
	if err := c.ShouldBindJSON(&batch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid input"})
		return
	}
	if batch.BatchNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "batch_number is required"})
		return
	}
	if batch.StockQuantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Stock quantity cannot be negative"})
		return
	}
	batch.ProductID = product.ID

	var count int64
	database.DB.Model(&models.ProductBatch{}).
		Where("product_id = ? AND batch_number = ?", product.ID, batch.BatchNumber).
		Count(&count)
	if count > 0 {
		respondError(c, &ledger.DuplicateError{Field: "batch number", Value: batch.BatchNumber})
		return
	}

	if err := database.DB.Create(&batch).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to create batch"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": batch, "message": "Batch created successfully"})
}

// --- GET: List a product's batches ---
func GetProductBatches(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid Product ID"})
		return
	}

	var batches []models.ProductBatch
	if err := database.DB.Where("product_id = ?", id).Order("created_at").Find(&batches).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch batches"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": batches})
}

type AdjustmentRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	BatchID   *uint  `json:"batch_id"`
	Type      string `json:"type" binding:"required"` // 'increase' or 'decrease'
	Quantity  int    `json:"quantity" binding:"required"`
	Reason    string `json:"reason"`
}

// --- POST: Manual inventory adjustment through the ledger ---
func AdjustInventory(c *gin.Context) {
	var req AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid input"})
		return
	}
	if req.Quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Quantity must be greater than 0"})
		return
	}

	delta := req.Quantity
	switch req.Type {
	case "increase":
	case "decrease":
		delta = -delta
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": `Invalid adjustment type. Use "increase" or "decrease"`})
		return
	}

	var pool *ledger.StockPool
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		pool, err = ledger.AdjustInventory(tx, req.ProductID, req.BatchID, delta)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"product": pool.Product,
			"adjustment": gin.H{
				"type":         req.Type,
				"quantity":     req.Quantity,
				"new_quantity": pool.Quantity(),
				"reason":       req.Reason,
			},
		},
		"message": "Inventory adjusted successfully",
	})
}

// --- GET: Products at or below their minimum stock level ---
func GetLowStock(c *gin.Context) {
	var products []models.Product
	err := database.DB.Preload("Batches").
		Where("is_active = ?", true).
		Order("stock_quantity asc").
		Find(&products).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch products"})
		return
	}

	low := make([]models.Product, 0)
	for _, p := range products {
		stock := p.StockQuantity
		if p.BatchManagementEnabled {
			stock = 0
			for _, b := range p.Batches {
				stock += b.StockQuantity
			}
			p.StockQuantity = stock
		}
		if stock <= p.MinStockLevel {
			low = append(low, p)
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": low, "count": len(low)})
}

// --- UPLOAD: Handle product image files ---
func UploadImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No file uploaded"})
		return
	}

	// Unique filename, e.g. "167890123_item.jpg"
	filename := fmt.Sprintf("%d_%s", time.Now().Unix(), file.Filename)
	filepath := "./uploads/" + filename

	if err := c.SaveUploadedFile(file, filepath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to save file"})
		return
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"url":     baseURL + "/uploads/" + filename,
		"message": "File uploaded successfully",
	})
}
