package ledger

import (
	"fmt"
	"testing"

	"github.com/rajueekgp/sale-stock-manager/internal/database"
	"github.com/rajueekgp/sale-stock-manager/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

var skuSeq int

func makeProduct(t *testing.T, db *gorm.DB, name string, price int64, stock int) *models.Product {
	t.Helper()
	skuSeq++
	p := models.Product{
		Name:          name,
		Price:         decimal.NewFromInt(price),
		CostPrice:     decimal.NewFromInt(price).Div(decimal.NewFromInt(2)),
		StockQuantity: stock,
		SKU:           fmt.Sprintf("TST-%04d", skuSeq),
		IsActive:      true,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return &p
}

func makeBatchProduct(t *testing.T, db *gorm.DB, name string, price int64) *models.Product {
	t.Helper()
	p := makeProduct(t, db, name, price, 0)
	if err := db.Model(p).Update("batch_management_enabled", true).Error; err != nil {
		t.Fatalf("enable batching: %v", err)
	}
	p.BatchManagementEnabled = true
	return p
}

func makeBatch(t *testing.T, db *gorm.DB, productID uint, number string, stock int) *models.ProductBatch {
	t.Helper()
	b := models.ProductBatch{
		ProductID:     productID,
		BatchNumber:   number,
		StockQuantity: stock,
	}
	if err := db.Create(&b).Error; err != nil {
		t.Fatalf("create batch: %v", err)
	}
	return &b
}

func makeCustomer(t *testing.T, db *gorm.DB, name string) *models.Customer {
	t.Helper()
	c := models.Customer{
		Name:  name,
		Email: fmt.Sprintf("%s-%d@example.com", name, skuSeq),
	}
	skuSeq++
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return &c
}

// sellProduct creates a completed sale of qty units of one product at the
// product's own price, returning the persisted sale.
func sellProduct(t *testing.T, db *gorm.DB, p *models.Product, batchID *uint, qty int, customerID *uint) *models.Sale {
	t.Helper()
	total := p.Price.Mul(decimal.NewFromInt(int64(qty)))
	var sale *models.Sale
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		sale, err = CreateSale(tx, CreateSaleInput{
			Items:       []SaleLineInput{{ProductID: p.ID, BatchID: batchID, Quantity: qty}},
			CustomerID:  customerID,
			UserID:      1,
			Subtotal:    total,
			TotalAmount: total,
		})
		return err
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	return sale
}

func productStock(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var p models.Product
	if err := db.First(&p, id).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return p.StockQuantity
}

func batchStock(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var b models.ProductBatch
	if err := db.First(&b, id).Error; err != nil {
		t.Fatalf("reload batch: %v", err)
	}
	return b.StockQuantity
}

func storeCredit(t *testing.T, db *gorm.DB, id uint) decimal.Decimal {
	t.Helper()
	var c models.Customer
	if err := db.First(&c, id).Error; err != nil {
		t.Fatalf("reload customer: %v", err)
	}
	return c.StoreCredit
}
