package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/reconcile/internal/id"
)

// EntryStatus represents the lifecycle state of a ledger entry.
type EntryStatus string

const (
	StatusPosted EntryStatus = "posted"
	StatusVoided EntryStatus = "voided"
)

// Leg is a single row in a ledger journal.csv (one side of a double-entry).
type Leg struct {
	EntryID      string          // "22-000041a": ledger type, number, leg suffix
	Date         time.Time
	AccountID    int
	Description  string
	Debit        decimal.Decimal // zero if credit side
	Credit       decimal.Decimal // zero if debit side
	Counterparty string
	Reference    string // imported transaction id(s) the entry settles
	Status       EntryStatus
	Memo         string
}

// EntryGroup returns the base entry ID (without leg suffix).
// "22-000041a" -> "22-000041"
func (l Leg) EntryGroup() string {
	return id.EntryGroup(l.EntryID)
}
