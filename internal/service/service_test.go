package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/reconcile/internal/accounts"
	"github.com/cleared-dev/reconcile/internal/auditlog"
	"github.com/cleared-dev/reconcile/internal/classify"
	"github.com/cleared-dev/reconcile/internal/dispatch"
	"github.com/cleared-dev/reconcile/internal/fault"
	"github.com/cleared-dev/reconcile/internal/ledger"
	"github.com/cleared-dev/reconcile/internal/model"
	"github.com/cleared-dev/reconcile/internal/reconcile"
	"github.com/cleared-dev/reconcile/internal/store"
)

var (
	operating = model.BankAccount{ID: 1, Name: "Operating", Currency: "EUR", GLAccount: 1010}
	savings   = model.BankAccount{ID: 2, Name: "Savings", Currency: "EUR", GLAccount: 1020}
	valueDay  = time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
)

type recordingAudit struct {
	entries []auditlog.Entry
}

func (r *recordingAudit) Record(e auditlog.Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

type fixture struct {
	svc    *Service
	store  *store.Memory
	ledger *ledger.Service
	audit  *recordingAudit
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	chart := accounts.NewService(accounts.DefaultChart())
	dir, err := accounts.NewDirectory([]model.BankAccount{operating, savings}, chart)
	require.NoError(t, err)

	f := &fixture{
		store:  store.NewMemory(),
		ledger: ledger.NewService(t.TempDir(), chart),
		audit:  &recordingAudit{},
	}
	f.svc = New(Options{
		Store:        f.store,
		Ledger:       f.ledger,
		Accounts:     dir,
		Chart:        chart,
		QuickEntries: []model.QuickEntry{{ID: 1, Label: "Rent", GLAccount: 5020}},
		Audit:        f.audit,
		Log:          zerolog.Nop(),
		Receivables:  1200,
		Payables:     2100,
		Actor:        "test",
	})
	return f
}

func (f *fixture) add(id int, amount string, ind model.Indicator, bank int) {
	f.store.Put(model.ImportedTransaction{
		ID:            id,
		ValueDate:     valueDay,
		EntryDate:     valueDay,
		Amount:        decimal.RequireFromString(amount),
		Indicator:     ind,
		IndicatorDesc: ind.Description(),
		Title:         "statement line",
		Account:       "DE89370400440532013000",
		AccountName:   "ACME GmbH",
		BankAccountID: bank,
	})
}

func (f *fixture) get(t *testing.T, id int) model.ImportedTransaction {
	t.Helper()
	txn, err := f.store.Transaction(context.Background(), id)
	require.NoError(t, err)
	return txn
}

func candidate(kind model.LedgerType, number int, score int64, invoice bool) model.MatchCandidate {
	return model.MatchCandidate{
		LedgerType:   kind,
		LedgerNumber: number,
		Date:         valueDay,
		Score:        decimal.NewNullDecimal(decimal.NewFromInt(score)),
		IsInvoice:    invoice,
		PartyRef:     "ACME",
	}
}

func TestSuggest_Scenarios(t *testing.T) {
	tests := []struct {
		name    string
		cs      []model.MatchCandidate
		decided bool
		cat     model.Category
		reason  classify.Reason
	}{
		{"supplier invoice", []model.MatchCandidate{candidate(model.LedgerSupplierInvoice, 100, 75, true)}, true, model.CategorySupplier, ""},
		{"bank payment", []model.MatchCandidate{candidate(model.LedgerBankPayment, 500, 80, false)}, true, model.CategoryQuickEntry, ""},
		{"below threshold", []model.MatchCandidate{candidate(model.LedgerSupplierInvoice, 100, 49, true)}, false, model.CategoryNone, classify.ReasonBelowScore},
		{"none", nil, false, model.CategoryNone, classify.ReasonNoCandidates},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.add(1, "-120", model.IndicatorDebit, 1)
			require.NoError(t, f.store.ReplaceCandidates(context.Background(), 1, tt.cs))

			sug, err := f.svc.Suggest(context.Background(), 1)
			require.NoError(t, err)
			assert.Equal(t, tt.decided, sug.Decided)
			assert.Equal(t, tt.cat, sug.Decision.Category)
			assert.Equal(t, tt.reason, sug.Reason)
			assert.Equal(t, model.StatusUnprocessed, f.get(t, 1).Status, "suggest does not mutate")
		})
	}
}

func TestAutoMatch(t *testing.T) {
	f := newFixture(t)
	f.add(1, "-120", model.IndicatorDebit, 1)
	require.NoError(t, f.store.ReplaceCandidates(context.Background(), 1, []model.MatchCandidate{
		candidate(model.LedgerSupplierInvoice, 100, 75, true),
	}))

	res, err := f.svc.AutoMatch(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 20, res.TransType)
	assert.Equal(t, 100, res.TransNo)
	assert.Contains(t, res.Message, "MATCH")

	got := f.get(t, 1)
	assert.True(t, got.Matched())
	assert.Equal(t, model.CategorySupplier, got.Category)
	assert.Equal(t, "ACME", got.GroupOption)

	var details map[string]any
	require.NoError(t, json.Unmarshal(got.MatchDetails, &details))
	assert.Equal(t, "MATCH", details["label"])
	assert.Equal(t, "SP", details["category"])
	assert.Equal(t, "75", details["score"])

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, "match", f.audit.entries[0].Action)
	assert.Equal(t, "test", f.audit.entries[0].Actor)

	res, err = f.svc.AutoMatch(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, res.Success, "already matched")
}

func TestAutoMatch_NoDecision(t *testing.T) {
	f := newFixture(t)
	f.add(1, "-120", model.IndicatorDebit, 1)
	require.NoError(t, f.store.ReplaceCandidates(context.Background(), 1, []model.MatchCandidate{
		candidate(model.LedgerSupplierInvoice, 1, 99, true),
		candidate(model.LedgerSupplierInvoice, 2, 90, true),
		candidate(model.LedgerSupplierInvoice, 3, 80, true),
	}))

	res, err := f.svc.AutoMatch(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "needs manual sort")
	assert.Equal(t, model.StatusUnprocessed, f.get(t, 1).Status)
}

func TestAutoMatch_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AutoMatch(context.Background(), 404)
	assert.True(t, IsNotFound(err))
}

func TestProcessCategory_Supplier(t *testing.T) {
	f := newFixture(t)
	f.add(1, "-120.50", model.IndicatorDebit, 1)

	res, err := f.svc.ProcessCategory(context.Background(), 1, model.CategorySupplier, nil, "")
	require.NoError(t, err)
	require.True(t, res.Success, res.Error)

	legs, err := f.ledger.Entry(res.Ref())
	require.NoError(t, err)
	require.Len(t, legs, 2)
	assert.Equal(t, 2100, legs[0].AccountID)
	assert.Equal(t, "120.50", legs[0].Debit.StringFixed(2))
	assert.Equal(t, 1010, legs[1].AccountID)

	got := f.get(t, 1)
	assert.True(t, got.Created())
	assert.Equal(t, res.Ref(), got.Ledger)
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, "process:SP", f.audit.entries[0].Action)
}

func TestProcessCategory_QuickEntryUsesRequestLookups(t *testing.T) {
	f := newFixture(t)
	f.add(1, "-900", model.IndicatorDebit, 1)

	res, err := f.svc.ProcessCategory(context.Background(), 1, model.CategoryQuickEntry, map[string]string{"quick_entry": "Rent"}, "")
	require.NoError(t, err)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "Rent", f.get(t, 1).GroupOption)
}

func TestProcessCategory_Unregistered(t *testing.T) {
	f := newFixture(t)
	f.add(1, "-120.50", model.IndicatorDebit, 1)

	_, err := f.svc.ProcessCategory(context.Background(), 1, model.CategoryNone, nil, "")
	assert.ErrorIs(t, err, fault.ErrUnregisteredHandler)

	_, err = f.svc.ProcessCategory(context.Background(), 404, model.CategoryNone, nil, "")
	assert.ErrorIs(t, err, fault.ErrUnregisteredHandler, "checked before the transaction is loaded")
	assert.Empty(t, f.audit.entries)
}

func TestProcessCategory_UnknownBank(t *testing.T) {
	f := newFixture(t)
	f.add(1, "-120.50", model.IndicatorDebit, 7)

	res, err := f.svc.ProcessCategory(context.Background(), 1, model.CategorySupplier, nil, "")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "unknown bank account")
}

func TestExecute_BothSides(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"partner id", "2"},
		{"search", "Process"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.add(1, "-500", model.IndicatorDebit, 1)
			f.add(2, "500", model.IndicatorCredit, 2)
			f.add(3, "500", model.IndicatorCredit, 1)

			res, err := f.svc.Execute(context.Background(), dispatch.Request{
				dispatch.ActionProcessBothSides: {"1": tt.token},
			})
			require.NoError(t, err)
			require.True(t, res.Success, res.Error)
			assert.Equal(t, int(model.LedgerBankTransfer), res.TransType)

			assert.True(t, f.get(t, 1).Created())
			assert.True(t, f.get(t, 2).Created())
			assert.False(t, f.get(t, 3).Created(), "same-bank deposit is not the counterpart")

			legs, err := f.ledger.Entry(res.Ref())
			require.NoError(t, err)
			assert.Equal(t, 1020, legs[0].AccountID)
			assert.Equal(t, 1010, legs[1].AccountID)
		})
	}
}

func TestExecute_BothSidesNoCounterpart(t *testing.T) {
	f := newFixture(t)
	f.add(1, "-500", model.IndicatorDebit, 1)

	res, err := f.svc.Execute(context.Background(), dispatch.Request{dispatch.ActionProcessBothSides: {"1": ""}})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "no counterpart")
}

func TestExecute_Commands(t *testing.T) {
	f := newFixture(t)
	f.add(1, "-120.50", model.IndicatorDebit, 1)
	ctx := context.Background()

	res, err := f.svc.Execute(ctx, dispatch.Request{dispatch.ActionToggleTransaction: {"1": "Toggle"}})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, model.IndicatorCredit, f.get(t, 1).Indicator)

	res, err = f.svc.Execute(ctx, dispatch.Request{dispatch.ActionUnsetTrans: {"1": "Unset"}})
	require.NoError(t, err)
	assert.False(t, res.Success, "unprocessed cannot be unset")
	assert.Contains(t, res.Error, "unprocessed")

	_, err = f.svc.Execute(ctx, dispatch.Request{"Explode": {"1": "x"}})
	assert.ErrorIs(t, err, fault.ErrUnregisteredHandler)

	actions := make([]string, len(f.audit.entries))
	for i, e := range f.audit.entries {
		actions[i] = e.Action
	}
	assert.Equal(t, []string{dispatch.ActionToggleTransaction, dispatch.ActionUnsetTrans}, actions)
}

func TestExecute_EmptyAction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Execute(ctx, dispatch.Request{dispatch.ActionProcessBothSides: {}})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "missing or invalid transaction id", res.Message)

	res, err = f.svc.Execute(ctx, dispatch.Request{dispatch.ActionAddVendor: {}})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "missing or invalid transaction id")
}

func TestUnsetAfterProcess(t *testing.T) {
	f := newFixture(t)
	f.add(1, "-120.50", model.IndicatorDebit, 1)
	ctx := context.Background()

	_, err := f.svc.ProcessCategory(ctx, 1, model.CategorySupplier, nil, "")
	require.NoError(t, err)
	require.NoError(t, f.svc.UnsetTrans(ctx, 1))

	got := f.get(t, 1)
	assert.Equal(t, model.StatusUnprocessed, got.Status)
	assert.True(t, got.Ledger.IsZero())
}

func TestAddVendor(t *testing.T) {
	f := newFixture(t)
	f.add(1, "-120.50", model.IndicatorDebit, 1)
	f.add(2, "-80", model.IndicatorDebit, 1)
	ctx := context.Background()

	require.NoError(t, f.svc.AddVendor(ctx, 1))
	require.NoError(t, f.svc.AddVendor(ctx, 2))

	suppliers, err := f.store.Parties(ctx, model.PartySupplier)
	require.NoError(t, err)
	require.Len(t, suppliers, 1, "second call reuses the party")
	assert.Equal(t, "ACME GmbH", suppliers[0].Name)
	assert.Equal(t, "DE89370400440532013000", suppliers[0].Account)

	got := f.get(t, 2)
	assert.Equal(t, "ACME GmbH", got.PartyRef)
	assert.Equal(t, model.CategorySupplier, got.Category)

	require.NoError(t, f.svc.AddCustomer(ctx, 1))
	customers, err := f.store.Parties(ctx, model.PartyCustomer)
	require.NoError(t, err)
	assert.Len(t, customers, 1)
	assert.Equal(t, model.CategoryCustomer, f.get(t, 1).Category)
}

func TestAddVendor_NoName(t *testing.T) {
	f := newFixture(t)
	f.store.Put(model.ImportedTransaction{ID: 1, Amount: decimal.NewFromInt(-5)})
	assert.ErrorIs(t, f.svc.AddVendor(context.Background(), 1), fault.ErrValidation)
}

func TestApplyUpdate_CreatedFrozen(t *testing.T) {
	f := newFixture(t)
	f.add(1, "-120.50", model.IndicatorDebit, 1)
	ctx := context.Background()
	_, err := f.svc.ProcessCategory(ctx, 1, model.CategorySupplier, nil, "")
	require.NoError(t, err)

	other := "Someone Else"
	_, err = f.svc.ApplyUpdate(ctx, 1, reconcile.Changes{AccountName: &other})
	assert.ErrorIs(t, err, fault.ErrInvariant)
	assert.Equal(t, "ACME GmbH", f.get(t, 1).AccountName)

	merchant := "ACME Online"
	got, err := f.svc.ApplyUpdate(ctx, 1, reconcile.Changes{Merchant: &merchant})
	require.NoError(t, err)
	assert.Equal(t, "ACME Online", got.Merchant)
	assert.Equal(t, "ACME Online", f.get(t, 1).Merchant)
}

func TestVoidLedgerEntry(t *testing.T) {
	f := newFixture(t)
	f.add(1, "-120.50", model.IndicatorDebit, 1)
	f.add(2, "-120.50", model.IndicatorDebit, 1)
	ctx := context.Background()

	res, err := f.svc.ProcessCategory(ctx, 1, model.CategorySupplier, nil, "")
	require.NoError(t, err)
	ref := res.Ref()
	// A second record matched to the same entry keeps its link.
	_, err = f.svc.ProcessCategory(ctx, 2, model.CategoryMatched, map[string]string{
		"ledger_type":   "22",
		"ledger_number": "1",
	}, "")
	require.NoError(t, err)

	reopened, err := f.svc.VoidLedgerEntry(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, reopened)
	assert.Equal(t, model.StatusUnprocessed, f.get(t, 1).Status)
	assert.True(t, f.get(t, 2).Matched())

	legs, err := f.ledger.Entry(ref)
	require.NoError(t, err)
	for _, leg := range legs {
		assert.Equal(t, model.StatusVoided, leg.Status)
	}

	_, err = f.svc.VoidLedgerEntry(ctx, ref)
	assert.ErrorIs(t, err, fault.ErrInvariant)

	_, err = f.svc.VoidLedgerEntry(ctx, model.LedgerRef{Type: model.LedgerSupplierPayment, Number: 99})
	assert.True(t, IsNotFound(err))
}

func TestReopenLedgerEntry_InvalidRef(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ReopenLedgerEntry(context.Background(), model.LedgerRef{Type: model.LedgerBankPayment})
	assert.ErrorIs(t, err, fault.ErrValidation)
}

func TestImport(t *testing.T) {
	f := newFixture(t)
	ids, err := f.svc.Import(context.Background(), []model.ImportedTransaction{
		{Amount: decimal.NewFromInt(-1), ValueDate: valueDay},
		{Amount: decimal.NewFromInt(2), ValueDate: valueDay},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ids)

	list, err := f.svc.Transactions(context.Background(), store.Filter{Status: model.StatusUnprocessed})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
