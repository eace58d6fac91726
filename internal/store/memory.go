package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cleared-dev/reconcile/internal/model"
)

// Memory is an in-memory Store. Records are copied in and out.
type Memory struct {
	mu         sync.RWMutex
	txns       map[int]model.ImportedTransaction
	candidates map[int][]model.MatchCandidate
	parties    []model.Party
	nextTxn    int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		txns:       make(map[int]model.ImportedTransaction),
		candidates: make(map[int][]model.MatchCandidate),
	}
}

// Transact runs fn directly; writes are not rolled back on error.
func (m *Memory) Transact(ctx context.Context, fn func(Store) error) error {
	return fn(m)
}

func (m *Memory) Transaction(ctx context.Context, id int) (model.ImportedTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.txns[id]
	if !ok {
		return model.ImportedTransaction{}, fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	return copyTxn(t), nil
}

func (m *Memory) SaveTransaction(ctx context.Context, txn *model.ImportedTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if txn.ID == 0 {
		m.nextTxn++
		for m.txns[m.nextTxn].ID != 0 {
			m.nextTxn++
		}
		txn.ID = m.nextTxn
		txn.Status = statusOrDefault(txn.Status)
	} else if _, ok := m.txns[txn.ID]; !ok {
		return fmt.Errorf("saving transaction %d: %w", txn.ID, ErrNotFound)
	}
	stored := copyTxn(*txn)
	stored.Status = statusOrDefault(stored.Status)
	m.txns[txn.ID] = stored
	return nil
}

// Put stores txn under its own ID, creating it if needed. Used to seed fixtures.
func (m *Memory) Put(txn model.ImportedTransaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn.Status = statusOrDefault(txn.Status)
	m.txns[txn.ID] = copyTxn(txn)
	if txn.ID > m.nextTxn {
		m.nextTxn = txn.ID
	}
}

func (m *Memory) TransactionsByLedger(ctx context.Context, ref model.LedgerRef) ([]model.ImportedTransaction, error) {
	return m.collect(func(t *model.ImportedTransaction) bool {
		return t.Settled() && t.Ledger == ref
	}, 0, 0), nil
}

func (m *Memory) TransactionsOn(ctx context.Context, valueDate time.Time) ([]model.ImportedTransaction, error) {
	return m.collect(func(t *model.ImportedTransaction) bool {
		return sameDay(t.ValueDate, valueDate)
	}, 0, 0), nil
}

func (m *Memory) ListTransactions(ctx context.Context, f Filter) ([]model.ImportedTransaction, error) {
	return m.collect(f.match, f.Offset, f.Limit), nil
}

func (m *Memory) collect(keep func(*model.ImportedTransaction) bool, offset, limit int) []model.ImportedTransaction {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.ImportedTransaction
	for _, t := range m.txns {
		if keep(&t) {
			out = append(out, copyTxn(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	if offset > 0 {
		if offset >= len(out) {
			return nil
		}
		out = out[offset:]
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

func (m *Memory) CreateParty(ctx context.Context, p *model.Party) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = len(m.parties) + 1
	m.parties = append(m.parties, *p)
	return nil
}

func (m *Memory) Parties(ctx context.Context, kind model.PartyKind) ([]model.Party, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Party
	for _, p := range m.parties {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Memory) ReplaceCandidates(ctx context.Context, txnID int, cs []model.MatchCandidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candidates[txnID] = append([]model.MatchCandidate(nil), cs...)
	return nil
}

func (m *Memory) Candidates(ctx context.Context, txnID int) ([]model.MatchCandidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.MatchCandidate(nil), m.candidates[txnID]...), nil
}

func copyTxn(t model.ImportedTransaction) model.ImportedTransaction {
	if t.MatchDetails != nil {
		t.MatchDetails = append(json.RawMessage(nil), t.MatchDetails...)
	}
	return t
}

var _ Store = (*Memory)(nil)
