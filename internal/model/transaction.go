package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the reconciliation state of an imported transaction.
type Status string

const (
	StatusUnprocessed Status = "unprocessed"
	StatusMatched     Status = "matched"
	StatusCreated     Status = "created"
)

// Indicator is the bank's debit/credit marker for a statement line.
// The empty value means the statement never carried one.
type Indicator string

const (
	IndicatorDebit  Indicator = "D"
	IndicatorCredit Indicator = "C"
)

// Description returns the human label stored next to the indicator.
func (i Indicator) Description() string {
	switch i {
	case IndicatorDebit:
		return "Debit"
	case IndicatorCredit:
		return "Credit"
	default:
		return ""
	}
}

// Valid reports whether i is Debit or Credit.
func (i Indicator) Valid() bool {
	return i == IndicatorDebit || i == IndicatorCredit
}

// ImportedTransaction is one bank statement line awaiting reconciliation.
type ImportedTransaction struct {
	ID            int
	StatementRef  string // statement batch the line was imported with
	ValueDate     time.Time
	EntryDate     time.Time
	Amount        decimal.Decimal // negative = money out
	Indicator     Indicator
	IndicatorDesc string
	// TransactionCode is the bank's identity for the line; together with
	// Account, AccountName and both dates it forms the natural key.
	TransactionCode string
	Title           string
	Memo            string
	Account         string // source account number as printed on the statement
	AccountName     string
	BankAccountID   int // own bank account the statement belongs to

	Status      Status
	Ledger      LedgerRef // zero unless Matched or Created
	Category    Category
	GroupOption string
	PartyRef    string

	Merchant         string
	MerchantCategory string
	MatchDetails     json.RawMessage
}

// Matched reports whether the transaction is linked to an existing ledger entry.
func (t ImportedTransaction) Matched() bool { return t.Status == StatusMatched }

// Created reports whether a ledger entry was generated for the transaction.
func (t ImportedTransaction) Created() bool { return t.Status == StatusCreated }

// Settled reports whether the transaction is Matched or Created.
func (t ImportedTransaction) Settled() bool {
	return t.Status == StatusMatched || t.Status == StatusCreated
}

// NaturalKey is the identity of a statement line that must not change once
// a ledger entry has been created for it.
type NaturalKey struct {
	TransactionCode string
	Account         string
	AccountName     string
	ValueDate       time.Time
	EntryDate       time.Time
}

// Key returns the natural key of t.
func (t ImportedTransaction) Key() NaturalKey {
	return NaturalKey{
		TransactionCode: t.TransactionCode,
		Account:         t.Account,
		AccountName:     t.AccountName,
		ValueDate:       t.ValueDate,
		EntryDate:       t.EntryDate,
	}
}

// Equal compares two natural keys, treating dates by instant.
func (k NaturalKey) Equal(o NaturalKey) bool {
	return k.TransactionCode == o.TransactionCode &&
		k.Account == o.Account &&
		k.AccountName == o.AccountName &&
		k.ValueDate.Equal(o.ValueDate) &&
		k.EntryDate.Equal(o.EntryDate)
}
