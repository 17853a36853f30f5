package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/rajueekgp/sale-stock-manager/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func TestCreateSaleDebitsStockAndSnapshotsPrice(t *testing.T) {
	db := newTestDB(t)
	p := makeProduct(t, db, "Cola", 5, 10)

	sale := sellProduct(t, db, p, nil, 4, nil)

	if got := productStock(t, db, p.ID); got != 6 {
		t.Fatalf("stock = %d, want 6", got)
	}
	if sale.Status != models.SaleCompleted {
		t.Fatalf("status = %s, want completed", sale.Status)
	}
	if len(sale.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(sale.Items))
	}
	item := sale.Items[0]
	if !item.UnitPrice.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("unit price = %s, want 5", item.UnitPrice)
	}
	if !item.TotalPrice.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("total price = %s, want 20", item.TotalPrice)
	}

	// A later price change must not touch the snapshot
	if err := db.Model(p).Update("price", decimal.NewFromInt(9)).Error; err != nil {
		t.Fatalf("update price: %v", err)
	}
	var stored models.SaleItem
	if err := db.First(&stored, item.ID).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if !stored.UnitPrice.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("snapshot price = %s, want 5", stored.UnitPrice)
	}
}

func TestCreateSaleRollsBackEveryLineOnFailure(t *testing.T) {
	db := newTestDB(t)
	p1 := makeProduct(t, db, "Cola", 5, 10)
	p2 := makeProduct(t, db, "Chips", 2, 1)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := CreateSale(tx, CreateSaleInput{
			Items: []SaleLineInput{
				{ProductID: p1.ID, Quantity: 3},
				{ProductID: p2.ID, Quantity: 5}, // over stock
			},
			UserID:      1,
			Subtotal:    decimal.NewFromInt(25),
			TotalAmount: decimal.NewFromInt(25),
		})
		return err
	})
	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}

	// The first line's debit must have rolled back with the transaction
	if got := productStock(t, db, p1.ID); got != 10 {
		t.Fatalf("p1 stock = %d, want 10", got)
	}
	var count int64
	db.Model(&models.Sale{}).Count(&count)
	if count != 0 {
		t.Fatalf("sales persisted = %d, want 0", count)
	}
}

func TestCreateSaleBatchManaged(t *testing.T) {
	db := newTestDB(t)
	p := makeBatchProduct(t, db, "Milk", 3)
	b1 := makeBatch(t, db, p.ID, "B1", 5)
	b2 := makeBatch(t, db, p.ID, "B2", 8)

	// No batch id on a batch-managed product is an error
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := CreateSale(tx, CreateSaleInput{
			Items:       []SaleLineInput{{ProductID: p.ID, Quantity: 2}},
			UserID:      1,
			Subtotal:    decimal.NewFromInt(6),
			TotalAmount: decimal.NewFromInt(6),
		})
		return err
	})
	var batchRequired *BatchRequiredError
	if !errors.As(err, &batchRequired) {
		t.Fatalf("err = %v, want BatchRequiredError", err)
	}

	// Selling from B2 only debits B2
	sale := sellProduct(t, db, p, &b2.ID, 3, nil)
	if got := batchStock(t, db, b1.ID); got != 5 {
		t.Fatalf("b1 stock = %d, want 5", got)
	}
	if got := batchStock(t, db, b2.ID); got != 5 {
		t.Fatalf("b2 stock = %d, want 5", got)
	}
	if sale.Items[0].BatchID == nil || *sale.Items[0].BatchID != b2.ID {
		t.Fatalf("sale item should record batch %d", b2.ID)
	}
}

func TestCreateSaleRejectsNegativePriceOverride(t *testing.T) {
	db := newTestDB(t)
	p := makeProduct(t, db, "Cola", 5, 10)

	negative := decimal.NewFromInt(-1)
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := CreateSale(tx, CreateSaleInput{
			Items:       []SaleLineInput{{ProductID: p.ID, Quantity: 1, UnitPrice: &negative}},
			UserID:      1,
			Subtotal:    decimal.NewFromInt(5),
			TotalAmount: decimal.NewFromInt(5),
		})
		return err
	})
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if got := productStock(t, db, p.ID); got != 10 {
		t.Fatalf("stock = %d, want 10 (untouched)", got)
	}
}

func TestCreateSaleRejectsInactiveProduct(t *testing.T) {
	db := newTestDB(t)
	p := makeProduct(t, db, "Cola", 5, 10)
	if err := db.Model(p).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := CreateSale(tx, CreateSaleInput{
			Items:       []SaleLineInput{{ProductID: p.ID, Quantity: 1}},
			UserID:      1,
			Subtotal:    decimal.NewFromInt(5),
			TotalAmount: decimal.NewFromInt(5),
		})
		return err
	})
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestVoidSaleRestoresStockOnce(t *testing.T) {
	db := newTestDB(t)
	p := makeProduct(t, db, "Cola", 5, 10)
	sale := sellProduct(t, db, p, nil, 4, nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := VoidSale(tx, sale.ID)
		return err
	})
	if err != nil {
		t.Fatalf("void: %v", err)
	}
	if got := productStock(t, db, p.ID); got != 10 {
		t.Fatalf("stock = %d, want 10", got)
	}

	// Voiding again must fail and must not restore again
	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := VoidSale(tx, sale.ID)
		return err
	})
	var state *StateError
	if !errors.As(err, &state) {
		t.Fatalf("err = %v, want StateError", err)
	}
	if got := productStock(t, db, p.ID); got != 10 {
		t.Fatalf("stock after re-void = %d, want 10", got)
	}
}

func TestVoidSaleRestoresRecordedBatch(t *testing.T) {
	db := newTestDB(t)
	p := makeBatchProduct(t, db, "Milk", 3)
	b1 := makeBatch(t, db, p.ID, "B1", 5)
	b2 := makeBatch(t, db, p.ID, "B2", 8)
	sale := sellProduct(t, db, p, &b1.ID, 2, nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := VoidSale(tx, sale.ID)
		return err
	})
	if err != nil {
		t.Fatalf("void: %v", err)
	}
	if got := batchStock(t, db, b1.ID); got != 5 {
		t.Fatalf("b1 stock = %d, want 5", got)
	}
	if got := batchStock(t, db, b2.ID); got != 8 {
		t.Fatalf("b2 stock = %d, want 8", got)
	}
}

func TestRefundSaleFullAndPartial(t *testing.T) {
	db := newTestDB(t)
	p := makeProduct(t, db, "Cola", 5, 10)
	sale := sellProduct(t, db, p, nil, 4, nil) // total 20

	// Partial refund of 2 units for half the money
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := RefundSale(tx, sale.ID, decimal.NewFromInt(10), []RefundItemInput{{ProductID: p.ID, Quantity: 2}})
		return err
	})
	if err != nil {
		t.Fatalf("partial refund: %v", err)
	}
	if got := productStock(t, db, p.ID); got != 8 {
		t.Fatalf("stock = %d, want 8", got)
	}
	var reloaded models.Sale
	db.First(&reloaded, sale.ID)
	if reloaded.Status != models.SalePartiallyRefunded {
		t.Fatalf("status = %s, want partially_refunded", reloaded.Status)
	}

	// Refunding the full total closes the sale
	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := RefundSale(tx, sale.ID, sale.TotalAmount, []RefundItemInput{{ProductID: p.ID, Quantity: 2}})
		return err
	})
	if err != nil {
		t.Fatalf("final refund: %v", err)
	}
	db.First(&reloaded, sale.ID)
	if reloaded.Status != models.SaleRefunded {
		t.Fatalf("status = %s, want refunded", reloaded.Status)
	}
}

func TestRefundSaleGuards(t *testing.T) {
	db := newTestDB(t)
	p := makeProduct(t, db, "Cola", 5, 10)
	sale := sellProduct(t, db, p, nil, 4, nil)

	// Amount above total
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := RefundSale(tx, sale.ID, decimal.NewFromInt(25), nil)
		return err
	})
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("err = %v, want ValidationError", err)
	}

	// More units than sold
	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := RefundSale(tx, sale.ID, decimal.NewFromInt(5), []RefundItemInput{{ProductID: p.ID, Quantity: 5}})
		return err
	})
	var state *StateError
	if !errors.As(err, &state) {
		t.Fatalf("err = %v, want StateError", err)
	}
	if got := productStock(t, db, p.ID); got != 6 {
		t.Fatalf("stock = %d, want 6 (untouched)", got)
	}

	// Voided sales cannot be refunded
	if err := db.Model(&models.Sale{}).Where("id = ?", sale.ID).Update("status", models.SaleVoided).Error; err != nil {
		t.Fatalf("force void: %v", err)
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := RefundSale(tx, sale.ID, decimal.NewFromInt(5), nil)
		return err
	})
	if !errors.As(err, &state) {
		t.Fatalf("err = %v, want StateError", err)
	}
}

func TestRefundSaleCumulativeItemCap(t *testing.T) {
	db := newTestDB(t)
	p := makeProduct(t, db, "Cola", 5, 10)
	sale := sellProduct(t, db, p, nil, 4, nil) // stock 6

	refund := func(amount int64, qty int) error {
		return db.Transaction(func(tx *gorm.DB) error {
			_, err := RefundSale(tx, sale.ID, decimal.NewFromInt(amount), []RefundItemInput{{ProductID: p.ID, Quantity: qty}})
			return err
		})
	}

	if err := refund(5, 3); err != nil {
		t.Fatalf("first refund: %v", err)
	}
	if got := productStock(t, db, p.ID); got != 9 {
		t.Fatalf("stock = %d, want 9", got)
	}

	// 3 of 4 already restored; asking for 2 more must fail without moving stock
	err := refund(5, 2)
	var state *StateError
	if !errors.As(err, &state) {
		t.Fatalf("err = %v, want StateError", err)
	}
	if got := productStock(t, db, p.ID); got != 9 {
		t.Fatalf("stock = %d, want 9 (untouched)", got)
	}

	if err := refund(5, 1); err != nil {
		t.Fatalf("final unit: %v", err)
	}
	if got := productStock(t, db, p.ID); got != 10 {
		t.Fatalf("stock = %d, want 10", got)
	}
}

func TestRefundSaleFullAfterPartialRestoresRemainder(t *testing.T) {
	db := newTestDB(t)
	p := makeProduct(t, db, "Cola", 5, 10)
	sale := sellProduct(t, db, p, nil, 4, nil) // stock 6, total 20

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := RefundSale(tx, sale.ID, decimal.NewFromInt(10), []RefundItemInput{{ProductID: p.ID, Quantity: 2}})
		return err
	})
	if err != nil {
		t.Fatalf("partial refund: %v", err)
	}

	// Closing out with a full refund restores only the 2 unrefunded units
	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := RefundSale(tx, sale.ID, sale.TotalAmount, nil)
		return err
	})
	if err != nil {
		t.Fatalf("full refund: %v", err)
	}
	if got := productStock(t, db, p.ID); got != 10 {
		t.Fatalf("stock = %d, want 10 (no double restoration)", got)
	}
	var reloaded models.Sale
	db.First(&reloaded, sale.ID)
	if reloaded.Status != models.SaleRefunded {
		t.Fatalf("status = %s, want refunded", reloaded.Status)
	}
}

func TestAmendSaleAdjustsDeltas(t *testing.T) {
	db := newTestDB(t)
	p := makeProduct(t, db, "Cola", 5, 10)
	sale := sellProduct(t, db, p, nil, 4, nil) // stock 6

	price := decimal.NewFromInt(5)
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := AmendSale(tx, sale.ID, AmendSaleInput{
			Items:       []SaleLineInput{{ProductID: p.ID, Quantity: 2, UnitPrice: &price}},
			Subtotal:    decimal.NewFromInt(10),
			TotalAmount: decimal.NewFromInt(10),
		})
		return err
	})
	if err != nil {
		t.Fatalf("amend: %v", err)
	}

	// 4 -> 2 restores 2 units
	if got := productStock(t, db, p.ID); got != 8 {
		t.Fatalf("stock = %d, want 8", got)
	}
	var reloaded models.Sale
	db.Preload("Items").First(&reloaded, sale.ID)
	if len(reloaded.Items) != 1 || reloaded.Items[0].Quantity != 2 {
		t.Fatalf("amended items = %+v, want single line of 2", reloaded.Items)
	}
	if !reloaded.TotalAmount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("total = %s, want 10", reloaded.TotalAmount)
	}
}

func TestAmendSaleMovesBetweenBatchPools(t *testing.T) {
	db := newTestDB(t)
	p := makeBatchProduct(t, db, "Milk", 3)
	b1 := makeBatch(t, db, p.ID, "B1", 5)
	b2 := makeBatch(t, db, p.ID, "B2", 8)
	sale := sellProduct(t, db, p, &b1.ID, 2, nil) // b1: 3

	price := decimal.NewFromInt(3)
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := AmendSale(tx, sale.ID, AmendSaleInput{
			Items:       []SaleLineInput{{ProductID: p.ID, BatchID: &b2.ID, Quantity: 2, UnitPrice: &price}},
			Subtotal:    decimal.NewFromInt(6),
			TotalAmount: decimal.NewFromInt(6),
		})
		return err
	})
	if err != nil {
		t.Fatalf("amend: %v", err)
	}
	if got := batchStock(t, db, b1.ID); got != 5 {
		t.Fatalf("b1 stock = %d, want 5 (restored)", got)
	}
	if got := batchStock(t, db, b2.ID); got != 6 {
		t.Fatalf("b2 stock = %d, want 6 (debited)", got)
	}
}

func TestAmendSaleRejectsForeignBatch(t *testing.T) {
	db := newTestDB(t)
	p1 := makeBatchProduct(t, db, "Milk", 3)
	b1 := makeBatch(t, db, p1.ID, "B1", 10)
	p2 := makeBatchProduct(t, db, "Yoghurt", 4)
	b2 := makeBatch(t, db, p2.ID, "B1", 7)
	sale := sellProduct(t, db, p1, &b1.ID, 3, nil) // b1: 7

	// A line claiming p1 but naming p2's batch must be rejected before any
	// pool moves.
	price := decimal.NewFromInt(3)
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := AmendSale(tx, sale.ID, AmendSaleInput{
			Items:       []SaleLineInput{{ProductID: p1.ID, BatchID: &b2.ID, Quantity: 3, UnitPrice: &price}},
			Subtotal:    decimal.NewFromInt(9),
			TotalAmount: decimal.NewFromInt(9),
		})
		return err
	})
	var invalidBatch *InvalidBatchError
	if !errors.As(err, &invalidBatch) {
		t.Fatalf("err = %v, want InvalidBatchError", err)
	}
	if got := batchStock(t, db, b1.ID); got != 7 {
		t.Fatalf("b1 stock = %d, want 7 (untouched)", got)
	}
	if got := batchStock(t, db, b2.ID); got != 7 {
		t.Fatalf("b2 stock = %d, want 7 (untouched)", got)
	}

	// A nonexistent batch id gets the same rejection
	missing := uint(999)
	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := AmendSale(tx, sale.ID, AmendSaleInput{
			Items:       []SaleLineInput{{ProductID: p1.ID, BatchID: &missing, Quantity: 1, UnitPrice: &price}},
			Subtotal:    decimal.NewFromInt(3),
			TotalAmount: decimal.NewFromInt(3),
		})
		return err
	})
	if !errors.As(err, &invalidBatch) {
		t.Fatalf("err = %v, want InvalidBatchError", err)
	}
}

func TestAmendSaleRejectedOutsideWindow(t *testing.T) {
	db := newTestDB(t)
	p := makeProduct(t, db, "Cola", 5, 10)
	sale := sellProduct(t, db, p, nil, 4, nil)

	old := time.Now().Add(-2 * time.Hour)
	if err := db.Model(&models.Sale{}).Where("id = ?", sale.ID).Update("created_at", old).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}

	price := decimal.NewFromInt(5)
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := AmendSale(tx, sale.ID, AmendSaleInput{
			Items:       []SaleLineInput{{ProductID: p.ID, Quantity: 1, UnitPrice: &price}},
			Subtotal:    decimal.NewFromInt(5),
			TotalAmount: decimal.NewFromInt(5),
		})
		return err
	})
	var state *StateError
	if !errors.As(err, &state) {
		t.Fatalf("err = %v, want StateError", err)
	}
	if got := productStock(t, db, p.ID); got != 6 {
		t.Fatalf("stock = %d, want 6 (untouched)", got)
	}
}
