package handlers

import (
	"net/http"
	"time"

	"github.com/rajueekgp/sale-stock-manager/internal/database"
	"github.com/rajueekgp/sale-stock-manager/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ReportData defines the shape of the analytics response
type ReportData struct {
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalOrders  int64           `json:"total_orders"`
	TopSelling   []struct {
		ProductName string          `json:"product_name"`
		Sold        int             `json:"sold"`
		Revenue     decimal.Decimal `json:"revenue"`
	} `json:"top_selling"`
	RecentSales []models.Sale `json:"recent_sales"`
}

// --- GET: /api/reports ---
// Voided sales are excluded everywhere: they carry no revenue.
func GetSalesReport(c *gin.Context) {
	var data ReportData

	start := time.Time{}
	end := time.Now()
	if s := c.Query("start_date"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			start = t
		}
	}
	if e := c.Query("end_date"); e != "" {
		if t, err := time.Parse("2006-01-02", e); err == nil {
			end = t.Add(23*time.Hour + 59*time.Minute)
		}
	}

	report, err := database.GetSalesReport(start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to calculate revenue"})
		return
	}
	data.TotalRevenue = report.TotalRevenue
	data.TotalOrders = report.TotalCount

	// Top 5 best sellers across non-voided sales
	err = database.DB.Table("sale_items").
		Select("products.name as product_name, SUM(sale_items.quantity) as sold, SUM(sale_items.quantity * sale_items.unit_price) as revenue").
		Joins("JOIN products ON sale_items.product_id = products.id").
		Joins("JOIN sales ON sale_items.sale_id = sales.id").
		Where("sales.status <> ?", models.SaleVoided).
		Group("products.name").
		Order("sold desc").
		Limit(5).
		Scan(&data.TopSelling).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch top selling items"})
		return
	}

	err = database.DB.Preload("Items").Order("created_at desc").Limit(10).Find(&data.RecentSales).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch recent sales"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// ValuationItem represents a single row in the valuation table
type ValuationItem struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	CostPrice decimal.Decimal `json:"cost_price"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// CategoryGroup represents one category's slice of the valuation
type CategoryGroup struct {
	CategoryName string          `json:"category_name"`
	Items        []ValuationItem `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type ValuationResponse struct {
	Categories []CategoryGroup `json:"categories"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// --- GET: /api/reports/valuation ---
// GetStockValuation calculates the total monetary value of all physical
// inventory at cost. Batch-managed products value each batch at its own
// purchase price when one was recorded.
func GetStockValuation(c *gin.Context) {
	var products []models.Product
	if err := database.DB.Preload("Batches").Where("is_active = ?", true).Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch inventory"})
		return
	}

	grandTotal := decimal.Zero
	groupedMap := make(map[string]*CategoryGroup)

	for _, p := range products {
		catName := p.Category
		if catName == "" {
			catName = "Uncategorized"
		}
		if _, exists := groupedMap[catName]; !exists {
			groupedMap[catName] = &CategoryGroup{
				CategoryName: catName,
				Items:        []ValuationItem{},
				Subtotal:     decimal.Zero,
			}
		}

		qty := p.StockQuantity
		itemTotal := decimal.Zero
		if p.BatchManagementEnabled {
			qty = 0
			for _, b := range p.Batches {
				cost := p.CostPrice
				if b.PurchasePrice != nil {
					cost = *b.PurchasePrice
				}
				qty += b.StockQuantity
				itemTotal = itemTotal.Add(cost.Mul(decimal.NewFromInt(int64(b.StockQuantity))))
			}
		} else {
			itemTotal = p.CostPrice.Mul(decimal.NewFromInt(int64(qty)))
		}

		valItem := ValuationItem{
			Name:      p.Name,
			Quantity:  qty,
			CostPrice: p.CostPrice,
			TotalCost: itemTotal,
		}

		groupedMap[catName].Items = append(groupedMap[catName].Items, valItem)
		groupedMap[catName].Subtotal = groupedMap[catName].Subtotal.Add(itemTotal)
		grandTotal = grandTotal.Add(itemTotal)
	}

	var response ValuationResponse
	response.GrandTotal = grandTotal
	for _, group := range groupedMap {
		response.Categories = append(response.Categories, *group)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": response})
}
