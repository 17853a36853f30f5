package ledger

import (
	"errors"
	"testing"

	"github.com/rajueekgp/sale-stock-manager/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func issueNote(t *testing.T, db *gorm.DB, amount int64) (*models.Customer, *models.CreditNote) {
	t.Helper()
	p := makeProduct(t, db, "Cola", amount, 10)
	customer := makeCustomer(t, db, "carol")
	sale := sellProduct(t, db, p, nil, 1, &customer.ID)

	var note *models.CreditNote
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		_, note, err = CreateReturn(tx, CreateReturnInput{
			SaleID:       sale.ID,
			Items:        []ReturnLineInput{{ProductID: p.ID, Quantity: 1}},
			RefundMethod: RefundMethodCreditNote,
		})
		return err
	})
	if err != nil {
		t.Fatalf("issue note: %v", err)
	}
	return customer, note
}

func TestApplyCreditNoteDrawsDown(t *testing.T) {
	db := newTestDB(t)
	customer, note := issueNote(t, db, 20)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := ApplyCreditNote(tx, note.ID, decimal.NewFromInt(12))
		return err
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	var reloaded models.CreditNote
	db.First(&reloaded, note.ID)
	if !reloaded.RemainingAmount.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("remaining = %s, want 8", reloaded.RemainingAmount)
	}
	if reloaded.Status != models.CreditNoteOpen {
		t.Fatalf("status = %s, want Open", reloaded.Status)
	}
	if got := storeCredit(t, db, customer.ID); !got.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("store credit = %s, want 8", got)
	}

	// Draining the rest closes the note
	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := ApplyCreditNote(tx, note.ID, decimal.NewFromInt(8))
		return err
	})
	if err != nil {
		t.Fatalf("apply remainder: %v", err)
	}
	db.First(&reloaded, note.ID)
	if reloaded.Status != models.CreditNoteApplied {
		t.Fatalf("status = %s, want Applied", reloaded.Status)
	}
	if !reloaded.RemainingAmount.Equal(decimal.Zero) {
		t.Fatalf("remaining = %s, want 0", reloaded.RemainingAmount)
	}
}

func TestApplyCreditNoteGuards(t *testing.T) {
	db := newTestDB(t)
	_, note := issueNote(t, db, 20)

	// Over the remaining balance
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := ApplyCreditNote(tx, note.ID, decimal.NewFromInt(25))
		return err
	})
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("err = %v, want ValidationError", err)
	}

	// Zero or negative amounts
	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := ApplyCreditNote(tx, note.ID, decimal.Zero)
		return err
	})
	if !errors.As(err, &validation) {
		t.Fatalf("err = %v, want ValidationError", err)
	}

	// Closed notes cannot be drawn on
	if err := db.Model(&models.CreditNote{}).Where("id = ?", note.ID).Update("status", models.CreditNoteVoided).Error; err != nil {
		t.Fatalf("force void: %v", err)
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := ApplyCreditNote(tx, note.ID, decimal.NewFromInt(1))
		return err
	})
	var state *StateError
	if !errors.As(err, &state) {
		t.Fatalf("err = %v, want StateError", err)
	}
}
