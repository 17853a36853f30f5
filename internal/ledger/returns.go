package ledger

import (
	"fmt"

	"github.com/rajueekgp/sale-stock-manager/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	RefundMethodCash       = "cash"
	RefundMethodCreditNote = "credit_note"
)

type ReturnLineInput struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type CreateReturnInput struct {
	SaleID       uint              `json:"sale_id"`
	Items        []ReturnLineInput `json:"items"`
	Reason       string            `json:"reason"`
	RefundMethod string            `json:"refund_method"`
}

// CreateReturn restores the returned quantities to the pools the sale
// consumed and records the return, pricing every line at the original sale's
// unit price. With the credit_note refund method the sale must belong to a
// registered customer: a credit note is issued for the full refund amount and
// the customer's store credit grows by the same amount, all in the one
// transaction.
//
// The quantity returned for a product, summed across all of the sale's
// returns, can never exceed the quantity the sale sold.
func CreateReturn(tx *gorm.DB, in CreateReturnInput) (*models.Return, *models.CreditNote, error) {
	if len(in.Items) == 0 {
		return nil, nil, &ValidationError{Message: "sale ID and items are required"}
	}
	refundMethod := in.RefundMethod
	if refundMethod == "" {
		refundMethod = RefundMethodCash
	}
	if refundMethod != RefundMethodCash && refundMethod != RefundMethodCreditNote {
		return nil, nil, &ValidationError{Message: fmt.Sprintf("invalid refund method %q", refundMethod)}
	}

	sale, err := loadSale(tx, in.SaleID)
	if err != nil {
		return nil, nil, err
	}
	if refundMethod == RefundMethodCreditNote && sale.CustomerID == nil {
		return nil, nil, &StateError{Message: "credit notes can only be issued to registered customers"}
	}

	totalRefund := decimal.Zero
	var returnItems []models.ReturnItem
	for _, line := range in.Items {
		if line.Quantity <= 0 {
			return nil, nil, &ValidationError{Message: "return quantity must be greater than 0"}
		}

		sold := 0
		var original *models.SaleItem
		for i := range sale.Items {
			if sale.Items[i].ProductID == line.ProductID {
				if original == nil {
					original = &sale.Items[i]
				}
				sold += sale.Items[i].Quantity
			}
		}
		if original == nil {
			return nil, nil, &ValidationError{Message: fmt.Sprintf("product ID %d not found in original sale", line.ProductID)}
		}

		returned, err := quantityAlreadyReturned(tx, sale.ID, line.ProductID)
		if err != nil {
			return nil, nil, err
		}
		if returned+line.Quantity > sold {
			return nil, nil, &StateError{Message: fmt.Sprintf(
				"cannot return %d of product %d: %d sold, %d already returned",
				line.Quantity, line.ProductID, sold, returned)}
		}

		// The refund always uses the price the sale was made at.
		refundForItem := original.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		totalRefund = totalRefund.Add(refundForItem)

		pool, err := poolForRecordedLine(tx, line.ProductID, original.BatchID)
		if err != nil {
			return nil, nil, err
		}
		if err := Adjust(tx, pool, line.Quantity); err != nil {
			return nil, nil, err
		}

		returnItems = append(returnItems, models.ReturnItem{
			ProductID:  line.ProductID,
			BatchID:    original.BatchID,
			Quantity:   line.Quantity,
			UnitPrice:  original.UnitPrice,
			TotalPrice: refundForItem,
		})
	}

	ret := models.Return{
		ReturnNumber:      NewReturnNumber(),
		SaleID:            sale.ID,
		CustomerID:        sale.CustomerID,
		TotalRefundAmount: totalRefund,
		Reason:            in.Reason,
		Status:            models.ReturnCompleted,
		Items:             returnItems,
	}
	if err := tx.Create(&ret).Error; err != nil {
		return nil, nil, err
	}

	var note *models.CreditNote
	if refundMethod == RefundMethodCreditNote {
		retID := ret.ID
		note = &models.CreditNote{
			CreditNoteNumber: NewCreditNoteNumber(),
			CustomerID:       *sale.CustomerID,
			ReturnID:         &retID,
			InitialAmount:    totalRefund,
			RemainingAmount:  totalRefund,
			Status:           models.CreditNoteOpen,
		}
		if err := tx.Create(note).Error; err != nil {
			return nil, nil, err
		}

		customer, err := lockCustomer(tx, *sale.CustomerID)
		if err != nil {
			return nil, nil, err
		}
		newCredit := customer.StoreCredit.Add(totalRefund)
		if err := tx.Model(customer).Update("store_credit", newCredit).Error; err != nil {
			return nil, nil, err
		}

		ret.Status = models.ReturnCreditNoteIssued
		if err := tx.Model(&ret).Update("status", models.ReturnCreditNoteIssued).Error; err != nil {
			return nil, nil, err
		}
	}

	return &ret, note, nil
}

// UpdateReturnReason amends the free-text reason on an existing return.
func UpdateReturnReason(tx *gorm.DB, returnID uint, reason string) (*models.Return, error) {
	ret, err := loadReturn(tx, returnID)
	if err != nil {
		return nil, err
	}
	ret.Reason = reason
	if err := tx.Model(ret).Update("reason", reason).Error; err != nil {
		return nil, err
	}
	return ret, nil
}

// DeleteReturn removes a return and reverses everything it did: the returned
// quantities are taken out of stock again (which fails if they have since
// been sold), an associated open credit note is voided with its remaining
// amount forced to zero, and the customer's store credit drops by the note's
// initial amount, floored at zero.
func DeleteReturn(tx *gorm.DB, returnID uint) error {
	ret, err := loadReturn(tx, returnID)
	if err != nil {
		return err
	}

	for _, item := range ret.Items {
		pool, err := poolForRecordedLine(tx, item.ProductID, item.BatchID)
		if err != nil {
			return err
		}
		if err := Adjust(tx, pool, -item.Quantity); err != nil {
			return err
		}
	}

	if ret.Status == models.ReturnCreditNoteIssued {
		var note models.CreditNote
		err := tx.Where("return_id = ?", ret.ID).First(&note).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			return err
		}
		if err == nil {
			if note.Status == models.CreditNoteOpen && ret.CustomerID != nil {
				customer, err := lockCustomer(tx, *ret.CustomerID)
				if err != nil {
					return err
				}
				newCredit := customer.StoreCredit.Sub(note.InitialAmount)
				if newCredit.IsNegative() {
					newCredit = decimal.Zero
				}
				if err := tx.Model(customer).Update("store_credit", newCredit).Error; err != nil {
					return err
				}
			}
			updates := map[string]interface{}{
				"status":           models.CreditNoteVoided,
				"remaining_amount": decimal.Zero,
			}
			if err := tx.Model(&note).Updates(updates).Error; err != nil {
				return err
			}
		}
	}

	if err := tx.Where("return_id = ?", ret.ID).Delete(&models.ReturnItem{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Return{}, ret.ID).Error
}

func quantityAlreadyReturned(tx *gorm.DB, saleID, productID uint) (int, error) {
	var total int64
	err := tx.Model(&models.ReturnItem{}).
		Joins("JOIN returns ON returns.id = return_items.return_id").
		Where("returns.sale_id = ? AND return_items.product_id = ?", saleID, productID).
		Select("COALESCE(SUM(return_items.quantity), 0)").
		Scan(&total).Error
	return int(total), err
}

func loadReturn(tx *gorm.DB, returnID uint) (*models.Return, error) {
	var ret models.Return
	if err := tx.Preload("Items").First(&ret, returnID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Entity: "Return", ID: returnID}
		}
		return nil, err
	}
	return &ret, nil
}

func lockCustomer(tx *gorm.DB, customerID uint) (*models.Customer, error) {
	var customer models.Customer
	if err := lockForUpdate(tx).First(&customer, customerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Entity: "Customer", ID: customerID}
		}
		return nil, err
	}
	return &customer, nil
}
