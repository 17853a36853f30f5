package ledger

import (
	"errors"
	"testing"

	"github.com/rajueekgp/sale-stock-manager/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func TestCreatePurchasePendingHasNoStockEffect(t *testing.T) {
	db := newTestDB(t)
	p := makeProduct(t, db, "Cola", 5, 10)

	var purchase *models.Purchase
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		purchase, err = CreatePurchase(tx, CreatePurchaseInput{
			SupplierName: "Acme Distributors",
			TotalAmount:  decimal.NewFromInt(30),
			Items:        []PurchaseLineInput{{ProductID: p.ID, Quantity: 12, UnitCost: decimal.NewFromFloat(2.5)}},
		})
		return err
	})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}
	if purchase.Status != models.PurchasePending {
		t.Fatalf("status = %s, want pending", purchase.Status)
	}
	if got := productStock(t, db, p.ID); got != 10 {
		t.Fatalf("stock = %d, want 10 (pending order must not credit)", got)
	}
}

func TestReceivePurchaseCreditsExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	p := makeProduct(t, db, "Cola", 5, 10)

	var purchase *models.Purchase
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		purchase, err = CreatePurchase(tx, CreatePurchaseInput{
			SupplierName: "Acme Distributors",
			TotalAmount:  decimal.NewFromInt(30),
			Items:        []PurchaseLineInput{{ProductID: p.ID, Quantity: 12, UnitCost: decimal.NewFromFloat(2.5)}},
		})
		return err
	})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := ReceivePurchase(tx, purchase.ID)
		return err
	})
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if got := productStock(t, db, p.ID); got != 22 {
		t.Fatalf("stock = %d, want 22", got)
	}

	// Receiving again must fail without a second credit
	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := ReceivePurchase(tx, purchase.ID)
		return err
	})
	var state *StateError
	if !errors.As(err, &state) {
		t.Fatalf("err = %v, want StateError", err)
	}
	if got := productStock(t, db, p.ID); got != 22 {
		t.Fatalf("stock = %d, want 22 (no double credit)", got)
	}
}

func TestCreatePurchaseDirectlyReceived(t *testing.T) {
	db := newTestDB(t)
	p := makeBatchProduct(t, db, "Milk", 3)
	b := makeBatch(t, db, p.ID, "B1", 2)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := CreatePurchase(tx, CreatePurchaseInput{
			SupplierName: "Dairy Co",
			TotalAmount:  decimal.NewFromInt(20),
			Status:       models.PurchaseReceived,
			Items:        []PurchaseLineInput{{ProductID: p.ID, BatchID: &b.ID, Quantity: 10, UnitCost: decimal.NewFromInt(2)}},
		})
		return err
	})
	if err != nil {
		t.Fatalf("create received purchase: %v", err)
	}
	if got := batchStock(t, db, b.ID); got != 12 {
		t.Fatalf("batch stock = %d, want 12", got)
	}
}

func TestCreatePurchaseValidation(t *testing.T) {
	db := newTestDB(t)
	p := makeProduct(t, db, "Cola", 5, 10)

	cases := []CreatePurchaseInput{
		{TotalAmount: decimal.NewFromInt(10), Items: []PurchaseLineInput{{ProductID: p.ID, Quantity: 1, UnitCost: decimal.NewFromInt(1)}}},
		{SupplierName: "Acme"},
		{SupplierName: "Acme", Items: []PurchaseLineInput{{ProductID: p.ID, Quantity: 0, UnitCost: decimal.NewFromInt(1)}}},
		{SupplierName: "Acme", Status: "shipped", Items: []PurchaseLineInput{{ProductID: p.ID, Quantity: 1, UnitCost: decimal.NewFromInt(1)}}},
	}
	for i, in := range cases {
		err := db.Transaction(func(tx *gorm.DB) error {
			_, err := CreatePurchase(tx, in)
			return err
		})
		var validation *ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("case %d: err = %v, want ValidationError", i, err)
		}
	}
}
