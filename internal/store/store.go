// Package store persists imported transactions, their match candidates and
// the counter-parties created during reconciliation.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/cleared-dev/reconcile/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// TransactionStore reads and writes imported transactions.
type TransactionStore interface {
	Transaction(ctx context.Context, id int) (model.ImportedTransaction, error)
	// SaveTransaction inserts txn when txn.ID is zero (assigning the ID) and
	// replaces the stored record otherwise.
	SaveTransaction(ctx context.Context, txn *model.ImportedTransaction) error
	TransactionsByLedger(ctx context.Context, ref model.LedgerRef) ([]model.ImportedTransaction, error)
	TransactionsOn(ctx context.Context, valueDate time.Time) ([]model.ImportedTransaction, error)
	ListTransactions(ctx context.Context, filter Filter) ([]model.ImportedTransaction, error)
}

// PartyStore reads and writes customers and suppliers.
type PartyStore interface {
	CreateParty(ctx context.Context, p *model.Party) error
	Parties(ctx context.Context, kind model.PartyKind) ([]model.Party, error)
}

// CandidateStore holds the pre-scored match candidates of each transaction.
type CandidateStore interface {
	// ReplaceCandidates stores cs, in order, as the candidates of txnID.
	ReplaceCandidates(ctx context.Context, txnID int, cs []model.MatchCandidate) error
	Candidates(ctx context.Context, txnID int) ([]model.MatchCandidate, error)
}

// Store is the full persistence surface.
type Store interface {
	TransactionStore
	PartyStore
	CandidateStore
	// Transact runs fn against a store whose writes commit together.
	Transact(ctx context.Context, fn func(Store) error) error
}

// Filter narrows ListTransactions. Zero fields match everything.
type Filter struct {
	Status        model.Status
	BankAccountID int
	StatementRef  string
	Limit         int
	Offset        int
}

func (f Filter) match(t *model.ImportedTransaction) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.BankAccountID != 0 && t.BankAccountID != f.BankAccountID {
		return false
	}
	if f.StatementRef != "" && t.StatementRef != f.StatementRef {
		return false
	}
	return true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// dayBounds returns the UTC day containing t's calendar date.
func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
