package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/reconcile/internal/fault"
	"github.com/cleared-dev/reconcile/internal/model"
)

func ptr[T any](v T) *T { return &v }

func createdTxn(t *testing.T) *model.ImportedTransaction {
	t.Helper()
	txn := newTxn()
	require.NoError(t, CreateNew(txn, supplierPayment, ""))
	return txn
}

func TestApplyFieldUpdate_CreatedAllowsEnrichment(t *testing.T) {
	txn := createdTxn(t)
	key := txn.Key()
	cat := model.CategorySupplier

	err := ApplyFieldUpdate(txn, Changes{
		TransactionCode:  ptr(txn.TransactionCode),
		Account:          ptr(txn.Account),
		AccountName:      ptr(txn.AccountName),
		ValueDate:        ptr(txn.ValueDate),
		EntryDate:        ptr(txn.EntryDate),
		StatementRef:     ptr("stmt-2"),
		Merchant:         ptr("ACME"),
		MerchantCategory: ptr("5045"),
		Category:         &cat,
		MatchDetails:     json.RawMessage(`{"score":75}`),
	})
	require.NoError(t, err)
	assert.True(t, key.Equal(txn.Key()))
	assert.Equal(t, "stmt-2", txn.StatementRef)
	assert.Equal(t, "ACME", txn.Merchant)
	assert.Equal(t, "5045", txn.MerchantCategory)
	assert.Equal(t, model.CategorySupplier, txn.Category)
	assert.JSONEq(t, `{"score":75}`, string(txn.MatchDetails))
	assert.True(t, txn.Created())
}

func TestApplyFieldUpdate_CreatedRejectsKeyChanges(t *testing.T) {
	base := createdTxn(t)
	tests := []struct {
		name string
		c    Changes
	}{
		{"transaction code", Changes{TransactionCode: ptr("NDDT")}},
		{"account", Changes{Account: ptr("DE00")}},
		{"account name", Changes{AccountName: ptr("Other Ltd")}},
		{"value date", Changes{ValueDate: ptr(base.ValueDate.AddDate(0, 0, 1))}},
		{"entry date", Changes{EntryDate: ptr(base.EntryDate.AddDate(0, 0, -1))}},
		{"amount magnitude", Changes{Amount: ptr(decimal.RequireFromString("-120.51"))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := createdTxn(t)
			before := *txn
			tt.c.StatementRef = ptr("stmt-new")

			err := ApplyFieldUpdate(txn, tt.c)
			assert.ErrorIs(t, err, fault.ErrInvariant)
			assert.Equal(t, before, *txn, "no partial update")
		})
	}
}

func TestApplyFieldUpdate_CreatedAllowsSignFlip(t *testing.T) {
	txn := createdTxn(t)
	require.NoError(t, ApplyFieldUpdate(txn, Changes{Amount: ptr(decimal.RequireFromString("120.50"))}))
	assert.Equal(t, "120.50", txn.Amount.StringFixed(2))
}

func TestApplyFieldUpdate_UnsettledAllowsAnything(t *testing.T) {
	for _, status := range []model.Status{model.StatusUnprocessed, model.StatusMatched} {
		txn := newTxn()
		txn.Status = status
		err := ApplyFieldUpdate(txn, Changes{
			Account:     ptr("DE00"),
			AccountName: ptr("Other Ltd"),
			Amount:      ptr(decimal.NewFromInt(5)),
			Title:       ptr("new title"),
		})
		require.NoError(t, err, "status %s", status)
		assert.Equal(t, "DE00", txn.Account)
		assert.Equal(t, "Other Ltd", txn.AccountName)
		assert.True(t, txn.Amount.Equal(decimal.NewFromInt(5)))
		assert.Equal(t, "new title", txn.Title)
	}
}

func TestApplyFieldUpdate_Validation(t *testing.T) {
	txn := newTxn()
	before := *txn

	assert.ErrorIs(t, ApplyFieldUpdate(txn, Changes{Category: ptr(model.Category(99)), Title: ptr("x")}), fault.ErrValidation)
	assert.ErrorIs(t, ApplyFieldUpdate(txn, Changes{MatchDetails: json.RawMessage("{"), Title: ptr("x")}), fault.ErrValidation)
	assert.Equal(t, before, *txn)

	require.NoError(t, ApplyFieldUpdate(txn, Changes{Category: ptr(model.CategoryNone)}))
}
