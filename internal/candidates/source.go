// Package candidates supplies the pre-scored ledger entries an imported
// transaction may match.
package candidates

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cleared-dev/reconcile/internal/model"
	"github.com/cleared-dev/reconcile/internal/store"
)

// Source finds match candidates for a transaction, best first.
type Source interface {
	FindCandidates(ctx context.Context, txn model.ImportedTransaction, window Window) ([]model.MatchCandidate, error)
}

// Window bounds candidate dates. A zero Window matches every date.
type Window struct {
	From time.Time
	To   time.Time
}

// Around returns the window of days either side of date.
func Around(date time.Time, days int) Window {
	if days <= 0 {
		return Window{}
	}
	return Window{From: date.AddDate(0, 0, -days), To: date.AddDate(0, 0, days)}
}

// Contains reports whether t falls in the window. Undated candidates always do.
func (w Window) Contains(t time.Time) bool {
	if t.IsZero() {
		return true
	}
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && t.After(w.To) {
		return false
	}
	return true
}

// StoreSource serves candidates previously loaded into a CandidateStore.
type StoreSource struct {
	store store.CandidateStore
}

// NewStoreSource creates a StoreSource.
func NewStoreSource(s store.CandidateStore) *StoreSource {
	return &StoreSource{store: s}
}

// FindCandidates returns the stored candidates inside window, sorted by
// descending score. Ties keep their stored order; unscored candidates sort last.
func (s *StoreSource) FindCandidates(ctx context.Context, txn model.ImportedTransaction, window Window) ([]model.MatchCandidate, error) {
	all, err := s.store.Candidates(ctx, txn.ID)
	if err != nil {
		return nil, fmt.Errorf("finding candidates for %d: %w", txn.ID, err)
	}
	var out []model.MatchCandidate
	for _, c := range all {
		if window.Contains(c.Date) {
			out = append(out, c)
		}
	}
	SortByScore(out)
	return out, nil
}

// SortByScore orders candidates best first, stably.
func SortByScore(cs []model.MatchCandidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i].Score, cs[j].Score
		if !a.Valid || !b.Valid {
			return a.Valid && !b.Valid
		}
		return a.Decimal.GreaterThan(b.Decimal)
	})
}
