package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Transaction numbers are a date stamp plus a random hex suffix, e.g.
// SALE-20260830-4F2A91BC. Suffix widths match the historical documents so
// existing receipts keep sorting next to new ones.
func newNumber(prefix string, suffixLen int) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLen])
	return fmt.Sprintf("%s-%s-%s", prefix, time.Now().UTC().Format("20060102"), suffix)
}

func NewSaleNumber() string       { return newNumber("SALE", 8) }
func NewPurchaseNumber() string   { return newNumber("PUR", 6) }
func NewReturnNumber() string     { return newNumber("RTN", 4) }
func NewCreditNoteNumber() string { return newNumber("CN", 4) }

// NewSKU generates a unique SKU for bulk imports that do not supply one.
func NewSKU() string {
	return "SKU-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
