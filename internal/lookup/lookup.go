// Package lookup memoizes the reference lists a single request reads
// repeatedly: the chart of accounts, customers, suppliers and quick entries.
//
// A Lookups value belongs to one request. It is not safe for concurrent use;
// create one per request or call Reset between requests.
package lookup

import (
	"context"
	"fmt"
	"strings"

	"github.com/cleared-dev/reconcile/internal/model"
	"github.com/cleared-dev/reconcile/internal/store"
)

// Chart lists the chart of accounts.
type Chart interface {
	All() []model.Account
}

// Lookups caches reference lists until Reset.
type Lookups struct {
	chart   Chart
	parties store.PartyStore
	quick   []model.QuickEntry

	accounts  []model.Account
	customers []model.Party
	suppliers []model.Party
	loaded    map[string]bool
}

// New creates Lookups over the given sources. quick is the configured
// quick entry list and is never reloaded.
func New(chart Chart, parties store.PartyStore, quick []model.QuickEntry) *Lookups {
	return &Lookups{
		chart:   chart,
		parties: parties,
		quick:   quick,
		loaded:  make(map[string]bool),
	}
}

// Reset drops every cached list.
func (l *Lookups) Reset() {
	l.accounts = nil
	l.customers = nil
	l.suppliers = nil
	l.loaded = make(map[string]bool)
}

// Accounts returns the chart of accounts.
func (l *Lookups) Accounts() []model.Account {
	if !l.loaded["accounts"] {
		if l.chart != nil {
			l.accounts = l.chart.All()
		}
		l.loaded["accounts"] = true
	}
	return l.accounts
}

// Account returns the chart account with the given id.
func (l *Lookups) Account(id int) (model.Account, bool) {
	for _, a := range l.Accounts() {
		if a.ID == id {
			return a, true
		}
	}
	return model.Account{}, false
}

// Customers returns every known customer.
func (l *Lookups) Customers(ctx context.Context) ([]model.Party, error) {
	return l.partyList(ctx, model.PartyCustomer, &l.customers)
}

// Suppliers returns every known supplier.
func (l *Lookups) Suppliers(ctx context.Context) ([]model.Party, error) {
	return l.partyList(ctx, model.PartySupplier, &l.suppliers)
}

func (l *Lookups) partyList(ctx context.Context, kind model.PartyKind, dst *[]model.Party) ([]model.Party, error) {
	key := string(kind)
	if l.loaded[key] {
		return *dst, nil
	}
	if l.parties == nil {
		l.loaded[key] = true
		return nil, nil
	}
	ps, err := l.parties.Parties(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("loading %s list: %w", kind, err)
	}
	*dst = ps
	l.loaded[key] = true
	return ps, nil
}

// Party finds a party of kind by name, ignoring case.
func (l *Lookups) Party(ctx context.Context, kind model.PartyKind, name string) (model.Party, bool, error) {
	var (
		ps  []model.Party
		err error
	)
	switch kind {
	case model.PartyCustomer:
		ps, err = l.Customers(ctx)
	case model.PartySupplier:
		ps, err = l.Suppliers(ctx)
	default:
		return model.Party{}, false, fmt.Errorf("unknown party kind %q", kind)
	}
	if err != nil {
		return model.Party{}, false, err
	}
	for _, p := range ps {
		if strings.EqualFold(p.Name, name) {
			return p, true, nil
		}
	}
	return model.Party{}, false, nil
}

// QuickEntries returns the configured quick entries.
func (l *Lookups) QuickEntries() []model.QuickEntry {
	return l.quick
}

// QuickEntry finds a quick entry by id or, when ref is not numeric, by label.
func (l *Lookups) QuickEntry(ref string) (model.QuickEntry, bool) {
	ref = strings.TrimSpace(ref)
	for _, q := range l.quick {
		if fmt.Sprint(q.ID) == ref || strings.EqualFold(q.Label, ref) {
			return q, true
		}
	}
	return model.QuickEntry{}, false
}

type contextKey struct{}

// WithContext stores l in ctx for the duration of a request.
func WithContext(ctx context.Context, l *Lookups) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the Lookups stored in ctx, or nil.
func FromContext(ctx context.Context) *Lookups {
	l, _ := ctx.Value(contextKey{}).(*Lookups)
	return l
}
