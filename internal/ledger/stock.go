package ledger

import (
	"time"

	"github.com/rajueekgp/sale-stock-manager/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockPool is the specific counter a transaction line debits or credits:
// the product's own counter, or one batch's counter when the product is
// batch-managed.
type StockPool struct {
	Product *models.Product
	Batch   *models.ProductBatch // nil for product-level pools
}

// Quantity returns the pool's current counter value.
func (p *StockPool) Quantity() int {
	if p.Batch != nil {
		return p.Batch.StockQuantity
	}
	return p.Product.StockQuantity
}

// ProductName is used in error messages.
func (p *StockPool) ProductName() string { return p.Product.Name }

// lockForUpdate takes a row lock so two concurrent transactions cannot both
// read the same pre-decrement quantity. SQLite (tests) has no FOR UPDATE
// syntax; its single-writer model serialises the adjustments anyway.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// LockProduct loads a product inside tx with a row lock held until commit.
func LockProduct(tx *gorm.DB, productID uint) (*models.Product, error) {
	var product models.Product
	if err := lockForUpdate(tx).First(&product, productID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Entity: "Product", ID: productID}
		}
		return nil, err
	}
	return &product, nil
}

// LockBatch loads a batch inside tx with a row lock held until commit.
func LockBatch(tx *gorm.DB, batchID uint) (*models.ProductBatch, error) {
	var batch models.ProductBatch
	if err := lockForUpdate(tx).First(&batch, batchID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Entity: "Batch", ID: batchID}
		}
		return nil, err
	}
	return &batch, nil
}

// Adjust applies a signed delta to a pool. A decrement that would drive the
// counter below zero fails with InsufficientStockError and leaves the pool
// untouched; increments never fail a bound check. The caller must have loaded
// the pool through LockProduct/LockBatch within the same transaction.
func Adjust(tx *gorm.DB, pool *StockPool, delta int) error {
	if delta == 0 {
		return nil
	}

	current := pool.Quantity()
	if current+delta < 0 {
		return &InsufficientStockError{
			ProductName: pool.ProductName(),
			Available:   current,
			Requested:   -delta,
		}
	}

	now := time.Now().UTC()
	if pool.Batch != nil {
		pool.Batch.StockQuantity = current + delta
		pool.Batch.UpdatedAt = now
		return tx.Model(pool.Batch).
			Updates(map[string]interface{}{"stock_quantity": pool.Batch.StockQuantity, "updated_at": now}).Error
	}

	pool.Product.StockQuantity = current + delta
	pool.Product.UpdatedAt = now
	return tx.Model(pool.Product).
		Updates(map[string]interface{}{"stock_quantity": pool.Product.StockQuantity, "updated_at": now}).Error
}

// AdjustInventory is the manual stock correction path (stocktake, damage,
// found stock). Decrements go through the same bound check as sales.
func AdjustInventory(tx *gorm.DB, productID uint, batchID *uint, delta int) (*StockPool, error) {
	product, err := LockProduct(tx, productID)
	if err != nil {
		return nil, err
	}
	pool := &StockPool{Product: product}
	if batchID != nil {
		batch, err := LockBatch(tx, *batchID)
		if err != nil {
			return nil, err
		}
		if batch.ProductID != product.ID {
			return nil, &InvalidBatchError{BatchID: *batchID, ProductName: product.Name}
		}
		pool.Batch = batch
	} else if product.BatchManagementEnabled {
		return nil, &BatchRequiredError{ProductName: product.Name}
	}
	if err := Adjust(tx, pool, delta); err != nil {
		return nil, err
	}
	return pool, nil
}

// AvailableStock is the quantity all availability checks must use: the sum of
// batch counters for a batch-managed product, the product counter otherwise.
func AvailableStock(tx *gorm.DB, product *models.Product) (int, error) {
	if !product.BatchManagementEnabled {
		return product.StockQuantity, nil
	}
	var total int64
	err := tx.Model(&models.ProductBatch{}).
		Where("product_id = ?", product.ID).
		Select("COALESCE(SUM(stock_quantity), 0)").
		Scan(&total).Error
	return int(total), err
}
