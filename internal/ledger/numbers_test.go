package ledger

import (
	"regexp"
	"testing"
)

func TestNumberFormats(t *testing.T) {
	cases := []struct {
		got     string
		pattern string
	}{
		{NewSaleNumber(), `^SALE-\d{8}-[0-9A-F]{8}$`},
		{NewPurchaseNumber(), `^PUR-\d{8}-[0-9A-F]{6}$`},
		{NewReturnNumber(), `^RTN-\d{8}-[0-9A-F]{4}$`},
		{NewCreditNoteNumber(), `^CN-\d{8}-[0-9A-F]{4}$`},
		{NewSKU(), `^SKU-[0-9A-F]{8}$`},
	}
	for _, c := range cases {
		if !regexp.MustCompile(c.pattern).MatchString(c.got) {
			t.Errorf("%q does not match %s", c.got, c.pattern)
		}
	}
}

func TestSaleNumbersAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		n := NewSaleNumber()
		if seen[n] {
			t.Fatalf("duplicate sale number %s", n)
		}
		seen[n] = true
	}
}
