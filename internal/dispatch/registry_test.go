package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/reconcile/internal/fault"
	"github.com/cleared-dev/reconcile/internal/model"
)

var accountA = model.BankAccount{ID: 1, Name: "Operating", Currency: "EUR", GLAccount: 1010}

func fixed(c model.Category, res Result, err error) HandlerFunc {
	return HandlerFunc{Category: c, Fn: func(ctx context.Context, in Input) (Result, error) {
		return res, err
	}}
}

func TestRegistry_Unregistered(t *testing.T) {
	r := NewRegistry()
	txn := &model.ImportedTransaction{ID: 1}

	res, err := r.Process(context.Background(), model.CategorySupplier, txn, nil, 1, "", accountA)
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrUnregisteredHandler)
	assert.False(t, res.Success)
}

func TestRegistry_DelegatesUnchanged(t *testing.T) {
	want := Result{Success: true, TransNo: 7, TransType: 22, Message: "posted"}
	var got Input
	r := NewRegistry()
	r.Register(model.CategorySupplier, HandlerFunc{Category: model.CategorySupplier, Fn: func(ctx context.Context, in Input) (Result, error) {
		got = in
		return want, nil
	}})

	txn := &model.ImportedTransaction{ID: 1}
	form := map[string]string{"party": "ACME"}
	res, err := r.Process(context.Background(), model.CategorySupplier, txn, form, 1, "2,3", accountA)
	require.NoError(t, err)
	assert.Equal(t, want, res)
	assert.Same(t, txn, got.Txn)
	assert.Equal(t, "2,3", got.CollectionIDs)
	assert.Equal(t, accountA, got.SourceAccount)
	assert.Equal(t, "ACME", got.Form["party"])
}

func TestRegistry_LastRegistrationWins(t *testing.T) {
	r := NewRegistry()
	r.Register(model.CategoryCustomer, fixed(model.CategoryCustomer, Result{Message: "first"}, nil))
	r.Register(model.CategoryCustomer, fixed(model.CategoryCustomer, Result{Success: true, Message: "second"}, nil))

	res, err := r.Process(context.Background(), model.CategoryCustomer, &model.ImportedTransaction{}, nil, 1, "", accountA)
	require.NoError(t, err)
	assert.Equal(t, "second", res.Message)
	assert.True(t, r.Registered(model.CategoryCustomer))
	assert.False(t, r.Registered(model.CategoryBankTransfer))
}

func TestRegistry_HandlerRefusesCategory(t *testing.T) {
	r := NewRegistry()
	r.Register(model.CategoryQuickEntry, fixed(model.CategorySupplier, Result{Success: true}, nil))

	res, err := r.Process(context.Background(), model.CategoryQuickEntry, &model.ImportedTransaction{}, nil, 1, "", accountA)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Zero(t, res.TransNo)
	assert.Zero(t, res.TransType)
	assert.Contains(t, res.Message, "Quick Entry")
}

func TestRegistry_HandlerErrorAndPanic(t *testing.T) {
	r := NewRegistry()
	r.Register(model.CategorySupplier, fixed(model.CategorySupplier, Result{}, errors.New("ledger offline")))
	r.Register(model.CategoryCustomer, HandlerFunc{Category: model.CategoryCustomer, Fn: func(ctx context.Context, in Input) (Result, error) {
		panic("boom")
	}})

	res, err := r.Process(context.Background(), model.CategorySupplier, &model.ImportedTransaction{}, nil, 5, "", accountA)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "ledger offline")
	assert.Contains(t, res.Message, "5")

	res, err = r.Process(context.Background(), model.CategoryCustomer, &model.ImportedTransaction{}, nil, 6, "", accountA)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "boom")
}

func TestResultJSON(t *testing.T) {
	ok := Ok(model.LedgerRef{Type: model.LedgerBankTransfer, Number: 3}, "done")
	assert.Equal(t, Result{Success: true, TransNo: 3, TransType: 4, Message: "done"}, ok)
	assert.Equal(t, model.LedgerRef{Type: model.LedgerBankTransfer, Number: 3}, ok.Ref())

	failed := Failed("nope", nil)
	assert.Empty(t, failed.Error)
}
