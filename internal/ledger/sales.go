package ledger

import (
	"fmt"
	"time"

	"github.com/rajueekgp/sale-stock-manager/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AmendWindow is how long after creation a sale may still be amended in
// place (an hour plus a grace period). Older sales must go through the
// void/refund paths instead.
const AmendWindow = time.Hour + 5*time.Minute

// SaleLineInput is one requested cart line. UnitPrice overrides the product
// price for non-batch products; batch products always price from the batch.
type SaleLineInput struct {
	ProductID uint             `json:"product_id"`
	BatchID   *uint            `json:"batch_id"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// CreateSaleInput carries the cart plus the pricing totals computed at the
// till. Totals are recorded as sent; the ledger's own arithmetic lives in the
// per-line snapshots.
type CreateSaleInput struct {
	Items          []SaleLineInput `json:"items"`
	CustomerID     *uint           `json:"customer_id"`
	UserID         uint            `json:"-"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaymentMethod  string          `json:"payment_method"`
}

// CreateSale debits every line's pool and persists the sale header plus its
// items as one unit. Any failure leaves every pool at its prior value and
// writes nothing.
func CreateSale(tx *gorm.DB, in CreateSaleInput) (*models.Sale, error) {
	if len(in.Items) == 0 {
		return nil, &ValidationError{Message: "at least one item is required"}
	}
	if in.TotalAmount.IsNegative() || in.Subtotal.IsNegative() {
		return nil, &ValidationError{Message: "sale totals cannot be negative"}
	}

	var saleItems []models.SaleItem
	for _, line := range in.Items {
		if line.Quantity <= 0 {
			return nil, &ValidationError{Message: "item quantity must be greater than 0"}
		}
		if line.UnitPrice != nil && line.UnitPrice.IsNegative() {
			return nil, &ValidationError{Message: "unit price cannot be negative"}
		}

		product, err := LockProduct(tx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.IsActive {
			return nil, &ValidationError{Message: fmt.Sprintf("product %s is not active", product.Name)}
		}

		pool, unitPrice, err := ResolvePool(tx, product, line.BatchID, line.UnitPrice)
		if err != nil {
			return nil, err
		}
		if pool.Quantity() < line.Quantity {
			return nil, &InsufficientStockError{
				ProductName: product.Name,
				Available:   pool.Quantity(),
				Requested:   line.Quantity,
			}
		}
		if err := Adjust(tx, pool, -line.Quantity); err != nil {
			return nil, err
		}

		var batchID *uint
		if pool.Batch != nil {
			id := pool.Batch.ID
			batchID = &id
		}
		saleItems = append(saleItems, models.SaleItem{
			ProductID:  product.ID,
			BatchID:    batchID,
			Quantity:   line.Quantity,
			UnitPrice:  unitPrice,
			TotalPrice: unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))),
		})
	}

	paymentMethod := in.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "cash"
	}

	sale := models.Sale{
		SaleNumber:     NewSaleNumber(),
		CustomerID:     in.CustomerID,
		UserID:         in.UserID,
		Subtotal:       in.Subtotal,
		TaxAmount:      in.TaxAmount,
		DiscountAmount: in.DiscountAmount,
		TotalAmount:    in.TotalAmount,
		PaymentMethod:  paymentMethod,
		Status:         models.SaleCompleted,
		Items:          saleItems,
	}
	if err := tx.Create(&sale).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

// AmendSaleInput replaces the sale's entire item list. Each line carries the
// price agreed at the till; batch-managed products must name their batch.
type AmendSaleInput struct {
	Items          []SaleLineInput `json:"items"`
	CustomerID     *uint           `json:"customer_id"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaymentMethod  string          `json:"payment_method"`
}

// poolKey identifies one stock pool across the old and new item lists.
type poolKey struct {
	productID uint
	batchID   uint // 0 for product-level pools
}

// AmendSale rewrites a recent sale in place. Per pool it computes the signed
// delta old_quantity - new_quantity across the union of old and new lines
// (positive restores stock, negative consumes more), applies every delta and
// replaces all sale items inside the same transaction.
func AmendSale(tx *gorm.DB, saleID uint, in AmendSaleInput) (*models.Sale, error) {
	sale, err := loadSale(tx, saleID)
	if err != nil {
		return nil, err
	}
	if sale.Status != models.SaleCompleted {
		return nil, &StateError{Message: fmt.Sprintf("sale %s cannot be amended in status %s", sale.SaleNumber, sale.Status)}
	}
	if time.Since(sale.CreatedAt) > AmendWindow {
		return nil, &StateError{Message: "sale is too old to be updated directly, void it and create a new sale"}
	}
	if len(in.Items) == 0 {
		return nil, &ValidationError{Message: "at least one item is required"}
	}

	oldQty := map[poolKey]int{}
	for _, item := range sale.Items {
		key := poolKey{productID: item.ProductID}
		if item.BatchID != nil {
			key.batchID = *item.BatchID
		}
		oldQty[key] += item.Quantity
	}

	newQty := map[poolKey]int{}
	var newItems []models.SaleItem
	for _, line := range in.Items {
		if line.Quantity <= 0 {
			return nil, &ValidationError{Message: "item quantity must be greater than 0"}
		}
		if line.UnitPrice == nil || line.UnitPrice.IsNegative() {
			return nil, &ValidationError{Message: "each item must carry a non-negative unit price"}
		}

		product, err := LockProduct(tx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if product.BatchManagementEnabled && line.BatchID == nil {
			return nil, &BatchRequiredError{ProductName: product.Name}
		}
		if line.BatchID != nil {
			batch, err := LockBatch(tx, *line.BatchID)
			if err != nil {
				if _, ok := err.(*NotFoundError); ok {
					return nil, &InvalidBatchError{BatchID: *line.BatchID, ProductName: product.Name}
				}
				return nil, err
			}
			if batch.ProductID != product.ID {
				return nil, &InvalidBatchError{BatchID: *line.BatchID, ProductName: product.Name}
			}
		}

		key := poolKey{productID: line.ProductID}
		if line.BatchID != nil {
			key.batchID = *line.BatchID
		}
		newQty[key] += line.Quantity

		newItems = append(newItems, models.SaleItem{
			SaleID:     sale.ID,
			ProductID:  line.ProductID,
			BatchID:    line.BatchID,
			Quantity:   line.Quantity,
			UnitPrice:  *line.UnitPrice,
			TotalPrice: line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))),
		})
	}

	// Union of pools touched by either version of the sale.
	for key := range newQty {
		if _, seen := oldQty[key]; !seen {
			oldQty[key] = 0
		}
	}
	for key, old := range oldQty {
		delta := old - newQty[key]
		if delta == 0 {
			continue
		}
		var batchID *uint
		if key.batchID != 0 {
			id := key.batchID
			batchID = &id
		}
		pool, err := poolForRecordedLine(tx, key.productID, batchID)
		if err != nil {
			return nil, err
		}
		if err := Adjust(tx, pool, delta); err != nil {
			return nil, err
		}
	}

	if err := tx.Where("sale_id = ?", sale.ID).Delete(&models.SaleItem{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Create(&newItems).Error; err != nil {
		return nil, err
	}

	sale.CustomerID = in.CustomerID
	sale.Subtotal = in.Subtotal
	sale.TaxAmount = in.TaxAmount
	sale.DiscountAmount = in.DiscountAmount
	sale.TotalAmount = in.TotalAmount
	if in.PaymentMethod != "" {
		sale.PaymentMethod = in.PaymentMethod
	}
	updates := map[string]interface{}{
		"customer_id":     sale.CustomerID,
		"subtotal":        sale.Subtotal,
		"tax_amount":      sale.TaxAmount,
		"discount_amount": sale.DiscountAmount,
		"total_amount":    sale.TotalAmount,
		"payment_method":  sale.PaymentMethod,
	}
	if err := tx.Model(&models.Sale{}).Where("id = ?", sale.ID).Updates(updates).Error; err != nil {
		return nil, err
	}
	sale.Items = newItems
	return sale, nil
}

// VoidSale cancels a completed sale and puts every line's quantity back into
// the pool it was taken from. Voided is terminal.
func VoidSale(tx *gorm.DB, saleID uint) (*models.Sale, error) {
	sale, err := loadSale(tx, saleID)
	if err != nil {
		return nil, err
	}
	if sale.Status == models.SaleVoided {
		return nil, &StateError{Message: "sale is already voided"}
	}
	if sale.Status != models.SaleCompleted {
		return nil, &StateError{Message: fmt.Sprintf("sale %s cannot be voided in status %s", sale.SaleNumber, sale.Status)}
	}

	for _, item := range sale.Items {
		pool, err := poolForRecordedLine(tx, item.ProductID, item.BatchID)
		if err != nil {
			return nil, err
		}
		if err := Adjust(tx, pool, item.Quantity); err != nil {
			return nil, err
		}
	}

	sale.Status = models.SaleVoided
	if err := tx.Model(sale).Update("status", models.SaleVoided).Error; err != nil {
		return nil, err
	}
	return sale, nil
}

// RefundItemInput names a line to restore during a partial refund.
type RefundItemInput struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// RefundSale processes a full or partial refund. With refund items listed,
// only those quantities go back to stock, capped per product by the quantity
// sold minus what earlier refunds on this sale already restored; without them
// every line's unrefunded remainder is restored. The refund amount can never
// exceed the sale total; matching it exactly closes the sale as refunded,
// anything less leaves it partially refunded.
func RefundSale(tx *gorm.DB, saleID uint, refundAmount decimal.Decimal, refundItems []RefundItemInput) (*models.Sale, error) {
	sale, err := loadSale(tx, saleID)
	if err != nil {
		return nil, err
	}
	if sale.Status != models.SaleCompleted && sale.Status != models.SalePartiallyRefunded {
		return nil, &StateError{Message: fmt.Sprintf("sale %s cannot be refunded in status %s", sale.SaleNumber, sale.Status)}
	}
	if refundAmount.LessThanOrEqual(decimal.Zero) {
		return nil, &ValidationError{Message: "refund amount must be greater than 0"}
	}
	if refundAmount.GreaterThan(sale.TotalAmount) {
		return nil, &ValidationError{Message: "refund amount cannot exceed sale total"}
	}

	if len(refundItems) > 0 {
		for _, refund := range refundItems {
			remaining := refund.Quantity
			if remaining <= 0 {
				return nil, &ValidationError{Message: "refund quantity must be greater than 0"}
			}

			sold := 0
			alreadyRefunded := 0
			for _, item := range sale.Items {
				if item.ProductID == refund.ProductID {
					sold += item.Quantity
					alreadyRefunded += item.RefundedQuantity
				}
			}
			if sold == 0 {
				return nil, &ValidationError{Message: fmt.Sprintf("product %d not found in original sale", refund.ProductID)}
			}
			if remaining > sold-alreadyRefunded {
				return nil, &StateError{Message: fmt.Sprintf("cannot refund more than originally sold for product %d", refund.ProductID)}
			}

			// Walk the sale's lines for this product, restoring each line's
			// own pool from its unrefunded remainder until the refund
			// quantity is used up.
			for i := range sale.Items {
				item := &sale.Items[i]
				if item.ProductID != refund.ProductID || remaining == 0 {
					continue
				}
				qty := item.Quantity - item.RefundedQuantity
				if qty > remaining {
					qty = remaining
				}
				if qty == 0 {
					continue
				}
				if err := restoreRefundedLine(tx, item, qty); err != nil {
					return nil, err
				}
				remaining -= qty
			}
		}
	} else {
		for i := range sale.Items {
			item := &sale.Items[i]
			qty := item.Quantity - item.RefundedQuantity
			if qty == 0 {
				continue
			}
			if err := restoreRefundedLine(tx, item, qty); err != nil {
				return nil, err
			}
		}
	}

	status := models.SalePartiallyRefunded
	if refundAmount.Equal(sale.TotalAmount) {
		status = models.SaleRefunded
	}
	sale.Status = status
	if err := tx.Model(sale).Update("status", status).Error; err != nil {
		return nil, err
	}
	return sale, nil
}

// restoreRefundedLine credits qty units back to the line's recorded pool and
// advances the line's refunded counter in the same transaction.
func restoreRefundedLine(tx *gorm.DB, item *models.SaleItem, qty int) error {
	pool, err := poolForRecordedLine(tx, item.ProductID, item.BatchID)
	if err != nil {
		return err
	}
	if err := Adjust(tx, pool, qty); err != nil {
		return err
	}
	item.RefundedQuantity += qty
	return tx.Model(&models.SaleItem{}).Where("id = ?", item.ID).
		Update("refunded_quantity", item.RefundedQuantity).Error
}

// loadSale materialises the sale aggregate once for the transaction at hand.
func loadSale(tx *gorm.DB, saleID uint) (*models.Sale, error) {
	var sale models.Sale
	if err := tx.Preload("Items").First(&sale, saleID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Entity: "Sale", ID: saleID}
		}
		return nil, err
	}
	return &sale, nil
}
