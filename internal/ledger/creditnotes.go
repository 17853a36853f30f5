package ledger

import (
	"fmt"

	"github.com/rajueekgp/sale-stock-manager/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ApplyCreditNote draws an amount down from an open credit note, e.g. to pay
// for a later sale. The remaining amount only ever moves down; once it hits
// zero the note closes as Applied. The customer's store credit drops by the
// applied amount, floored at zero.
func ApplyCreditNote(tx *gorm.DB, noteID uint, amount decimal.Decimal) (*models.CreditNote, error) {
	var note models.CreditNote
	if err := lockForUpdate(tx).First(&note, noteID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Entity: "Credit note", ID: noteID}
		}
		return nil, err
	}

	if note.Status != models.CreditNoteOpen {
		return nil, &StateError{Message: fmt.Sprintf("credit note %s is %s and cannot be applied", note.CreditNoteNumber, note.Status)}
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, &ValidationError{Message: "applied amount must be greater than 0"}
	}
	if amount.GreaterThan(note.RemainingAmount) {
		return nil, &ValidationError{Message: fmt.Sprintf(
			"applied amount %s exceeds remaining balance %s", amount.StringFixed(2), note.RemainingAmount.StringFixed(2))}
	}

	note.RemainingAmount = note.RemainingAmount.Sub(amount)
	if note.RemainingAmount.IsZero() {
		note.Status = models.CreditNoteApplied
	}
	updates := map[string]interface{}{
		"remaining_amount": note.RemainingAmount,
		"status":           note.Status,
	}
	if err := tx.Model(&note).Updates(updates).Error; err != nil {
		return nil, err
	}

	customer, err := lockCustomer(tx, note.CustomerID)
	if err != nil {
		return nil, err
	}
	newCredit := customer.StoreCredit.Sub(amount)
	if newCredit.IsNegative() {
		newCredit = decimal.Zero
	}
	if err := tx.Model(customer).Update("store_credit", newCredit).Error; err != nil {
		return nil, err
	}

	return &note, nil
}
