package lookup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/reconcile/internal/model"
)

type countingChart struct {
	calls int
}

func (c *countingChart) All() []model.Account {
	c.calls++
	return []model.Account{{ID: 1010, Name: "Operating Account"}, {ID: 5020, Name: "Rent"}}
}

type countingParties struct {
	calls map[model.PartyKind]int
	fail  bool
}

func (p *countingParties) CreateParty(ctx context.Context, party *model.Party) error { return nil }

func (p *countingParties) Parties(ctx context.Context, kind model.PartyKind) ([]model.Party, error) {
	if p.fail {
		return nil, errors.New("db down")
	}
	p.calls[kind]++
	if kind == model.PartyCustomer {
		return []model.Party{{ID: 1, Kind: kind, Name: "Globex"}}, nil
	}
	return []model.Party{{ID: 2, Kind: kind, Name: "ACME GmbH"}}, nil
}

func newParties() *countingParties {
	return &countingParties{calls: make(map[model.PartyKind]int)}
}

var quick = []model.QuickEntry{{ID: 1, Label: "Rent", GLAccount: 5020}, {ID: 2, Label: "Bank charges", GLAccount: 5010}}

func TestAccounts_Memoized(t *testing.T) {
	chart := &countingChart{}
	l := New(chart, newParties(), quick)

	assert.Len(t, l.Accounts(), 2)
	a, ok := l.Account(5020)
	require.True(t, ok)
	assert.Equal(t, "Rent", a.Name)
	_, ok = l.Account(9999)
	assert.False(t, ok)
	assert.Equal(t, 1, chart.calls)

	l.Reset()
	l.Accounts()
	assert.Equal(t, 2, chart.calls)
}

func TestParties_Memoized(t *testing.T) {
	ctx := context.Background()
	ps := newParties()
	l := New(&countingChart{}, ps, nil)

	for i := 0; i < 3; i++ {
		cs, err := l.Customers(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Globex", cs[0].Name)
	}
	p, ok, err := l.Party(ctx, model.PartySupplier, "acme gmbh")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, p.ID)

	_, ok, err = l.Party(ctx, model.PartySupplier, "nobody")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 1, ps.calls[model.PartyCustomer])
	assert.Equal(t, 1, ps.calls[model.PartySupplier])

	l.Reset()
	_, err = l.Customers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, ps.calls[model.PartyCustomer])
}

func TestParties_Error(t *testing.T) {
	ps := newParties()
	ps.fail = true
	l := New(nil, ps, nil)

	_, err := l.Suppliers(context.Background())
	assert.ErrorContains(t, err, "db down")
	_, _, err = l.Party(context.Background(), model.PartyKind("other"), "x")
	assert.Error(t, err)
	assert.Empty(t, l.Accounts())
}

func TestQuickEntry(t *testing.T) {
	l := New(nil, nil, quick)

	q, ok := l.QuickEntry("2")
	require.True(t, ok)
	assert.Equal(t, 5010, q.GLAccount)

	q, ok = l.QuickEntry(" rent ")
	require.True(t, ok)
	assert.Equal(t, 1, q.ID)

	_, ok = l.QuickEntry("Payroll")
	assert.False(t, ok)
	assert.Len(t, l.QuickEntries(), 2)
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	l := New(nil, nil, quick)
	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}
