package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User - The person interacting with the system
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50" json:"username"`
	PasswordHash string    `json:"-"`    // Never return this in JSON
	Role         string    `json:"role"` // 'admin', 'manager', 'cashier'
	CreatedAt    time.Time `json:"created_at"`
}

// Product - The Inventory
//
// StockQuantity is authoritative only while BatchManagementEnabled is false.
// Once batching is on, availability comes from the sum of the batches and the
// product counter is advisory.
type Product struct {
	ID                     uint            `gorm:"primaryKey" json:"id"`
	Name                   string          `gorm:"size:200;not null" json:"name"`
	Description            string          `gorm:"type:text" json:"description"`
	Price                  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	CostPrice              decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"cost_price"`
	StockQuantity          int             `gorm:"default:0" json:"stock_quantity"`
	MinStockLevel          int             `gorm:"default:5" json:"min_stock_level"`
	SKU                    string          `gorm:"uniqueIndex;size:50;not null" json:"sku"`
	Barcode                string          `gorm:"size:100" json:"barcode"`
	Category               string          `gorm:"size:100" json:"category"`
	IsActive               bool            `gorm:"default:true" json:"is_active"`
	BatchManagementEnabled bool            `gorm:"default:false;not null" json:"batch_management_enabled"`
	GSTRate                decimal.Decimal `gorm:"type:decimal(5,2);default:0" json:"gst_rate"`
	ImageURL               string          `json:"image_url"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
	Batches                []ProductBatch  `gorm:"foreignKey:ProductID" json:"batches,omitempty"`
}

// ProductBatch - one lot of a batch-managed product, with its own stock
// counter and optional price/tax/expiry overrides.
type ProductBatch struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	ProductID     uint             `gorm:"not null;uniqueIndex:idx_product_batch" json:"product_id"`
	BatchNumber   string           `gorm:"size:100;not null;uniqueIndex:idx_product_batch" json:"batch_number"`
	StockQuantity int              `gorm:"default:0" json:"stock_quantity"`
	Barcode       string           `gorm:"size:100" json:"barcode"`
	PurchasePrice *decimal.Decimal `gorm:"type:decimal(12,2)" json:"purchase_price"`
	SalePrice     *decimal.Decimal `gorm:"type:decimal(12,2)" json:"sale_price"`
	GSTRate       *decimal.Decimal `gorm:"type:decimal(5,2)" json:"gst_rate"`
	ExpiryDate    *time.Time       `json:"expiry_date"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// Customer - registered buyer; StoreCredit is the running credit-note balance
type Customer struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Name           string          `gorm:"size:200;not null" json:"name"`
	Email          string          `gorm:"size:120;uniqueIndex;default:null" json:"email"`
	Phone          string          `gorm:"size:20" json:"phone"`
	Address        string          `gorm:"type:text" json:"address"`
	GSTNumber      string          `gorm:"size:15" json:"gst_number"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"opening_balance"`
	StoreCredit    decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"store_credit"`
	CreatedAt      time.Time       `json:"created_at"`
}

// SaleStatus is the closed set of sale states. Voided and refunded are
// terminal; the only paths are completed -> voided and
// completed -> partially_refunded -> refunded.
type SaleStatus string

const (
	SaleCompleted         SaleStatus = "completed"
	SaleVoided            SaleStatus = "voided"
	SaleRefunded          SaleStatus = "refunded"
	SalePartiallyRefunded SaleStatus = "partially_refunded"
)

// Sale - The Transaction Header
type Sale struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	SaleNumber     string          `gorm:"uniqueIndex;size:50;not null" json:"sale_number"`
	CustomerID     *uint           `json:"customer_id"`
	Customer       *Customer       `json:"customer,omitempty"`
	UserID         uint            `json:"user_id"` // Who processed it
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"discount_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	PaymentMethod  string          `gorm:"size:50;default:cash" json:"payment_method"`
	Status         SaleStatus      `gorm:"size:20;default:completed" json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	Items          []SaleItem      `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"items"`
}

// SaleItem - one line of a sale. UnitPrice is a snapshot taken at sale time
// and never changes afterwards, whatever happens to the product's price.
// RefundedQuantity counts the units already restored to stock through
// refunds, so repeated partial refunds can never restore the same unit twice.
type SaleItem struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	SaleID           uint            `gorm:"not null" json:"sale_id"`
	ProductID        uint            `gorm:"not null" json:"product_id"`
	Product          Product         `json:"product"` // Preload product details
	BatchID          *uint           `json:"batch_id"`
	Quantity         int             `gorm:"not null" json:"quantity"`
	RefundedQuantity int             `gorm:"default:0;not null" json:"refunded_quantity"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TotalPrice       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
}

// PurchaseStatus - a purchase order is pending until it is received; the
// pending -> received transition is the single point where stock is credited.
type PurchaseStatus string

const (
	PurchasePending  PurchaseStatus = "pending"
	PurchaseReceived PurchaseStatus = "received"
)

// Purchase - supplier receiving order
type Purchase struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	PurchaseNumber string          `gorm:"uniqueIndex;size:50;not null" json:"purchase_number"`
	SupplierName   string          `gorm:"size:200;not null" json:"supplier_name"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Status         PurchaseStatus  `gorm:"size:20;default:pending" json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	Items          []PurchaseItem  `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE" json:"items"`
}

type PurchaseItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	PurchaseID uint            `gorm:"not null" json:"purchase_id"`
	ProductID  uint            `gorm:"not null" json:"product_id"`
	Product    Product         `json:"product"`
	BatchID    *uint           `json:"batch_id"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitCost   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_cost"`
	TotalCost  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_cost"`
}

// ReturnStatus values keep the capitalised wire strings the frontend expects.
type ReturnStatus string

const (
	ReturnCompleted        ReturnStatus = "Completed"
	ReturnCreditNoteIssued ReturnStatus = "Credit Note Issued"
)

// Return - sends part of a sale back into stock
type Return struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	ReturnNumber      string          `gorm:"uniqueIndex;size:50;not null" json:"return_number"`
	SaleID            uint            `gorm:"not null" json:"sale_id"`
	Sale              *Sale           `json:"sale,omitempty"`
	CustomerID        *uint           `json:"customer_id"`
	TotalRefundAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_refund_amount"`
	Reason            string          `gorm:"type:text" json:"reason"`
	Status            ReturnStatus    `gorm:"size:20;default:Completed" json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	Items             []ReturnItem    `gorm:"foreignKey:ReturnID;constraint:OnDelete:CASCADE" json:"items"`
}

// ReturnItem - UnitPrice is copied from the original SaleItem, never the
// product's current price.
type ReturnItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	ReturnID   uint            `gorm:"not null" json:"return_id"`
	ProductID  uint            `gorm:"not null" json:"product_id"`
	Product    Product         `json:"product"`
	BatchID    *uint           `json:"batch_id"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
}

// CreditNoteStatus - Open notes can be drawn down; a note becomes Applied once
// its remaining amount reaches zero and Voided when its return is deleted.
type CreditNoteStatus string

const (
	CreditNoteOpen    CreditNoteStatus = "Open"
	CreditNoteApplied CreditNoteStatus = "Applied"
	CreditNoteVoided  CreditNoteStatus = "Voided"
)

// CreditNote - a store-credit instrument issued in lieu of a cash refund.
// RemainingAmount never exceeds InitialAmount and only ever decreases.
type CreditNote struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	CreditNoteNumber string           `gorm:"uniqueIndex;size:50;not null" json:"credit_note_number"`
	CustomerID       uint             `gorm:"not null" json:"customer_id"`
	Customer         *Customer        `json:"customer,omitempty"`
	ReturnID         *uint            `json:"return_id"`
	InitialAmount    decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"initial_amount"`
	RemainingAmount  decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"remaining_amount"`
	Status           CreditNoteStatus `gorm:"size:20;default:Open" json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
	ExpiresAt        *time.Time       `json:"expires_at"`
}
