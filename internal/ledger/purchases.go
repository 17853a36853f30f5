package ledger

import (
	"fmt"

	"github.com/rajueekgp/sale-stock-manager/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseLineInput is one ordered line of a supplier order. BatchID routes
// the received quantity into a specific batch of a batch-managed product.
type PurchaseLineInput struct {
	ProductID uint            `json:"product_id"`
	BatchID   *uint           `json:"batch_id"`
	Quantity  int             `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

type CreatePurchaseInput struct {
	SupplierName string                `json:"supplier_name"`
	TotalAmount  decimal.Decimal       `json:"total_amount"`
	Status       models.PurchaseStatus `json:"status"`
	Items        []PurchaseLineInput   `json:"items"`
}

// CreatePurchase persists a purchase order. A pending order has no stock
// effect; an order created directly as received credits every line's pool in
// the same transaction.
func CreatePurchase(tx *gorm.DB, in CreatePurchaseInput) (*models.Purchase, error) {
	if in.SupplierName == "" {
		return nil, &ValidationError{Message: "supplier_name is required"}
	}
	if len(in.Items) == 0 {
		return nil, &ValidationError{Message: "at least one item is required"}
	}

	status := in.Status
	if status == "" {
		status = models.PurchasePending
	}
	if status != models.PurchasePending && status != models.PurchaseReceived {
		return nil, &ValidationError{Message: fmt.Sprintf("invalid purchase status %q", status)}
	}

	var items []models.PurchaseItem
	for _, line := range in.Items {
		if line.Quantity <= 0 {
			return nil, &ValidationError{Message: "item quantity must be greater than 0"}
		}
		if line.UnitCost.IsNegative() {
			return nil, &ValidationError{Message: "unit cost cannot be negative"}
		}
		if _, err := LockProduct(tx, line.ProductID); err != nil {
			return nil, err
		}
		items = append(items, models.PurchaseItem{
			ProductID: line.ProductID,
			BatchID:   line.BatchID,
			Quantity:  line.Quantity,
			UnitCost:  line.UnitCost,
			TotalCost: line.UnitCost.Mul(decimal.NewFromInt(int64(line.Quantity))),
		})
	}

	purchase := models.Purchase{
		PurchaseNumber: NewPurchaseNumber(),
		SupplierName:   in.SupplierName,
		TotalAmount:    in.TotalAmount,
		Status:         status,
		Items:          items,
	}
	if err := tx.Create(&purchase).Error; err != nil {
		return nil, err
	}

	if status == models.PurchaseReceived {
		if err := creditPurchaseStock(tx, &purchase); err != nil {
			return nil, err
		}
	}
	return &purchase, nil
}

// ReceivePurchase marks a pending order as received and credits stock for
// every line. The credit runs exactly once, on the pending -> received
// transition; receiving an already received order is rejected so stock can
// never be double-counted.
func ReceivePurchase(tx *gorm.DB, purchaseID uint) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := tx.Preload("Items").First(&purchase, purchaseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Entity: "Purchase", ID: purchaseID}
		}
		return nil, err
	}
	if purchase.Status == models.PurchaseReceived {
		return nil, &StateError{Message: fmt.Sprintf("purchase %s has already been received", purchase.PurchaseNumber)}
	}

	if err := creditPurchaseStock(tx, &purchase); err != nil {
		return nil, err
	}

	purchase.Status = models.PurchaseReceived
	if err := tx.Model(&purchase).Update("status", models.PurchaseReceived).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func creditPurchaseStock(tx *gorm.DB, purchase *models.Purchase) error {
	for _, item := range purchase.Items {
		pool, err := poolForRecordedLine(tx, item.ProductID, item.BatchID)
		if err != nil {
			return err
		}
		if err := Adjust(tx, pool, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}
