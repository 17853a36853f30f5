package database

import (
	"time"

	"github.com/rajueekgp/sale-stock-manager/internal/models"

	"github.com/shopspring/decimal"
)

// SalesReportResult holds the figures the report endpoints and the AI
// assistant both read.
type SalesReportResult struct {
	TotalRevenue decimal.Decimal
	TotalCount   int64
}

// GetSalesReport sums completed (non-voided) sales within a date range.
func GetSalesReport(start, end time.Time) (*SalesReportResult, error) {
	var result SalesReportResult

	// COALESCE ensures we get 0 instead of NULL if no sales exist
	err := DB.Model(&models.Sale{}).
		Where("created_at BETWEEN ? AND ?", start, end).
		Where("status <> ?", models.SaleVoided).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&result.TotalRevenue).Error
	if err != nil {
		return nil, err
	}

	err = DB.Model(&models.Sale{}).
		Where("created_at BETWEEN ? AND ?", start, end).
		Where("status <> ?", models.SaleVoided).
		Count(&result.TotalCount).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}
