package ledger

import (
	"github.com/rajueekgp/sale-stock-manager/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ResolvePool decides, for one sale line, which stock counter to debit and
// what the authoritative unit price is. Resolution happens before any stock
// mutation, so a failure here aborts the operation with zero side effects.
//
// Without batch management the pool is the product's own counter and the
// price is the caller's override if given, else the product price. With batch
// management a batch id is mandatory, the batch must belong to the product,
// the pool is that batch's counter, and the price is the batch's sale price
// override if set, else the product price.
func ResolvePool(tx *gorm.DB, product *models.Product, batchID *uint, priceOverride *decimal.Decimal) (*StockPool, decimal.Decimal, error) {
	if !product.BatchManagementEnabled {
		price := product.Price
		if priceOverride != nil {
			price = *priceOverride
		}
		return &StockPool{Product: product}, price, nil
	}

	if batchID == nil {
		return nil, decimal.Zero, &BatchRequiredError{ProductName: product.Name}
	}

	batch, err := LockBatch(tx, *batchID)
	if err != nil {
		if _, ok := err.(*NotFoundError); ok {
			return nil, decimal.Zero, &InvalidBatchError{BatchID: *batchID, ProductName: product.Name}
		}
		return nil, decimal.Zero, err
	}
	if batch.ProductID != product.ID {
		return nil, decimal.Zero, &InvalidBatchError{BatchID: *batchID, ProductName: product.Name}
	}

	price := product.Price
	if batch.SalePrice != nil {
		price = *batch.SalePrice
	}
	return &StockPool{Product: product, Batch: batch}, price, nil
}

// poolForRecordedLine rebuilds the pool a persisted sale/return line debited,
// so void, refund and return restore exactly the counter the sale consumed.
func poolForRecordedLine(tx *gorm.DB, productID uint, batchID *uint) (*StockPool, error) {
	product, err := LockProduct(tx, productID)
	if err != nil {
		return nil, err
	}
	if batchID == nil {
		return &StockPool{Product: product}, nil
	}
	batch, err := LockBatch(tx, *batchID)
	if err != nil {
		return nil, err
	}
	return &StockPool{Product: product, Batch: batch}, nil
}
