package handlers

import (
	"net/http"
	"regexp"
	"strconv"

	"github.com/rajueekgp/sale-stock-manager/internal/database"
	"github.com/rajueekgp/sale-stock-manager/internal/ledger"
	"github.com/rajueekgp/sale-stock-manager/internal/models"

	"github.com/gin-gonic/gin"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// --- GET: List customers ---
func GetCustomers(c *gin.Context) {
	var customers []models.Customer
	if err := database.DB.Order("name").Find(&customers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch customers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": customers})
}

// --- GET: Single customer with sales history ---
func GetCustomer(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid customer ID"})
		return
	}

	var customer models.Customer
	if err := database.DB.First(&customer, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Customer not found"})
		return
	}

	var sales []models.Sale
	database.DB.Where("customer_id = ?", customer.ID).Order("created_at desc").Find(&sales)

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
		"customer": customer,
		"sales":    sales,
	}})
}

// --- POST: Add a customer ---
func AddCustomer(c *gin.Context) {
	var customer models.Customer
	if err := c.ShouldBindJSON(&customer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid input"})
		return
	}
	if customer.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Name is required"})
		return
	}
	if customer.Email != "" {
		if !emailPattern.MatchString(customer.Email) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid email format"})
			return
		}
		var count int64
		database.DB.Model(&models.Customer{}).Where("email = ?", customer.Email).Count(&count)
		if count > 0 {
			respondError(c, &ledger.DuplicateError{Field: "email", Value: customer.Email})
			return
		}
	}

	if err := database.DB.Create(&customer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to create customer"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": customer})
}

// --- PUT: Update a customer (partial) ---
func UpdateCustomer(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid customer ID"})
		return
	}

	var customer models.Customer
	if err := database.DB.First(&customer, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Customer not found"})
		return
	}

	var updateData map[string]interface{}
	if err := c.ShouldBindJSON(&updateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid input"})
		return
	}

	// Store credit changes only through the return/credit-note paths.
	delete(updateData, "store_credit")

	if email, ok := updateData["email"].(string); ok && email != "" && email != customer.Email {
		if !emailPattern.MatchString(email) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid email format"})
			return
		}
		var count int64
		database.DB.Model(&models.Customer{}).Where("email = ?", email).Count(&count)
		if count > 0 {
			respondError(c, &ledger.DuplicateError{Field: "email", Value: email})
			return
		}
	}

	if err := database.DB.Model(&customer).Updates(updateData).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to update customer"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": customer, "message": "Customer updated successfully"})
}
