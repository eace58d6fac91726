package model

import "fmt"

// Category is the counter-party classification of an imported transaction.
// The zero value means no decision has been made.
type Category int

const (
	CategoryNone Category = iota
	CategorySupplier
	CategoryCustomer
	CategoryBankTransfer
	CategoryQuickEntry
	CategoryManualSettlement
	CategoryMatched
)

// Categories lists every decided category in display order.
var Categories = []Category{
	CategorySupplier,
	CategoryCustomer,
	CategoryBankTransfer,
	CategoryQuickEntry,
	CategoryManualSettlement,
	CategoryMatched,
}

// Code returns the two-letter wire token.
func (c Category) Code() string {
	switch c {
	case CategorySupplier:
		return "SP"
	case CategoryCustomer:
		return "CU"
	case CategoryBankTransfer:
		return "BT"
	case CategoryQuickEntry:
		return "QE"
	case CategoryManualSettlement:
		return "MA"
	case CategoryMatched:
		return "ZZ"
	default:
		return ""
	}
}

func (c Category) String() string {
	switch c {
	case CategorySupplier:
		return "Supplier"
	case CategoryCustomer:
		return "Customer"
	case CategoryBankTransfer:
		return "Bank Transfer"
	case CategoryQuickEntry:
		return "Quick Entry"
	case CategoryManualSettlement:
		return "Manual settlement"
	case CategoryMatched:
		return "Matched"
	default:
		return "Undecided"
	}
}

// ParseCategory maps a two-letter token (or the display name) to a Category.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if s == c.Code() || s == c.String() {
			return c, nil
		}
	}
	return CategoryNone, fmt.Errorf("unknown category %q", s)
}
