package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerType is the ledger's numeric code for a kind of posted entry.
type LedgerType int

const (
	LedgerJournal         LedgerType = 0
	LedgerBankPayment     LedgerType = 1
	LedgerBankDeposit     LedgerType = 2
	LedgerBankTransfer    LedgerType = 4
	LedgerSalesInvoice    LedgerType = 10
	LedgerCustomerPayment LedgerType = 12
	LedgerSupplierInvoice LedgerType = 20
	LedgerSupplierPayment LedgerType = 22
)

func (t LedgerType) String() string {
	switch t {
	case LedgerJournal:
		return "Journal Entry"
	case LedgerBankPayment:
		return "Bank Payment"
	case LedgerBankDeposit:
		return "Bank Deposit"
	case LedgerBankTransfer:
		return "Funds Transfer"
	case LedgerSalesInvoice:
		return "Sales Invoice"
	case LedgerCustomerPayment:
		return "Customer Payment"
	case LedgerSupplierInvoice:
		return "Supplier Invoice"
	case LedgerSupplierPayment:
		return "Supplier Payment"
	default:
		return fmt.Sprintf("Type %d", int(t))
	}
}

// QuickEntryEligible reports whether entries of this type can be posted
// through a quick entry template.
func (t LedgerType) QuickEntryEligible() bool {
	return t == LedgerBankPayment || t == LedgerBankDeposit
}

// LedgerRef identifies a posted ledger entry.
type LedgerRef struct {
	Type   LedgerType
	Number int
}

// IsZero reports whether r references nothing.
func (r LedgerRef) IsZero() bool { return r.Number == 0 && r.Type == 0 }

func (r LedgerRef) String() string {
	return fmt.Sprintf("%s #%d", r.Type, r.Number)
}

// MatchCandidate is a ledger entry proposed as a match for an imported
// transaction, scored by the ledger query collaborator.
type MatchCandidate struct {
	LedgerType   LedgerType
	LedgerNumber int
	Date         time.Time
	Account      string
	AccountName  string
	Amount       decimal.Decimal
	Score        decimal.NullDecimal // Valid=false when the scorer produced nothing
	IsInvoice    bool
	PartyRef     string
}

// Ref returns the candidate's ledger reference.
func (c MatchCandidate) Ref() LedgerRef {
	return LedgerRef{Type: c.LedgerType, Number: c.LedgerNumber}
}
