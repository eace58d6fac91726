package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/reconcile/internal/id"
	"github.com/cleared-dev/reconcile/internal/model"
)

// mockAccounts implements AccountChecker for testing.
type mockAccounts struct {
	ids map[int]bool
}

func (m *mockAccounts) Exists(id int) bool {
	return m.ids[id]
}

func newMockAccounts(ids ...int) *mockAccounts {
	m := &mockAccounts{ids: make(map[int]bool)}
	for _, id := range ids {
		m.ids[id] = true
	}
	return m
}

var defaultAccounts = newMockAccounts(1010, 1020, 1200, 2100, 4010, 5020)

func balancedEntry(kind model.LedgerType, number, debitAcct, creditAcct int, amount string) []model.Leg {
	entryID := id.FormatEntryID(int(kind), number)
	return []model.Leg{
		{EntryID: entryID + "a", Date: date(2025, 1, 15), AccountID: debitAcct, Debit: dec(amount), Status: model.StatusPosted},
		{EntryID: entryID + "b", Date: date(2025, 1, 15), AccountID: creditAcct, Credit: dec(amount), Status: model.StatusPosted},
	}
}

func hasRule(errs []ValidationError, r Rule) bool {
	for _, e := range errs {
		if e.Rule == r {
			return true
		}
	}
	return false
}

func TestValidate_Balanced(t *testing.T) {
	legs := append(balancedEntry(model.LedgerBankPayment, 1, 5020, 1010, "100.00"),
		balancedEntry(model.LedgerBankPayment, 2, 5020, 1010, "0.01")...)
	assert.Empty(t, ValidateLegs(legs, defaultAccounts, model.LedgerBankPayment))
}

func TestValidate_Unbalanced(t *testing.T) {
	legs := balancedEntry(model.LedgerBankPayment, 1, 5020, 1010, "100.00")
	legs[1].Credit = dec("99.00")
	errs := ValidateLegs(legs, defaultAccounts, model.LedgerBankPayment)
	require.NotEmpty(t, errs)
	assert.Equal(t, RuleBalanced, errs[0].Rule)
	assert.Equal(t, "balanced [1-000001]: debits 100.00, credits 99.00", errs[0].Error())
}

func TestValidate_OneSidePerLeg(t *testing.T) {
	legs := balancedEntry(model.LedgerBankPayment, 1, 5020, 1010, "100.00")
	legs[0].Credit = dec("100.00")
	legs[1].Debit = dec("100.00")
	assert.True(t, hasRule(ValidateLegs(legs, defaultAccounts, model.LedgerBankPayment), RuleOneSide))

	neither := []model.Leg{{EntryID: "1-000001a", Date: date(2025, 1, 15), AccountID: 5020}}
	assert.True(t, hasRule(ValidateLegs(neither, defaultAccounts, model.LedgerBankPayment), RuleOneSide))

	negative := balancedEntry(model.LedgerBankPayment, 1, 5020, 1010, "-5.00")
	assert.True(t, hasRule(ValidateLegs(negative, defaultAccounts, model.LedgerBankPayment), RuleOneSide))
}

func TestValidate_UnknownAccount(t *testing.T) {
	legs := balancedEntry(model.LedgerBankDeposit, 1, 1010, 9999, "50.00")
	assert.True(t, hasRule(ValidateLegs(legs, defaultAccounts, model.LedgerBankDeposit), RuleAccountExists))
}

func TestValidate_WrongType(t *testing.T) {
	legs := balancedEntry(model.LedgerBankDeposit, 1, 1010, 4010, "50.00")
	assert.True(t, hasRule(ValidateLegs(legs, defaultAccounts, model.LedgerBankPayment), RuleLedgerType))
}

func TestValidate_NonContiguous(t *testing.T) {
	legs := append(balancedEntry(model.LedgerBankPayment, 1, 5020, 1010, "50.00"),
		balancedEntry(model.LedgerBankPayment, 3, 5020, 1010, "75.00")...)
	assert.True(t, hasRule(ValidateLegs(legs, defaultAccounts, model.LedgerBankPayment), RuleNumbering))
}

func TestValidate_Duplicate(t *testing.T) {
	legs := balancedEntry(model.LedgerBankPayment, 1, 5020, 1010, "50.00")
	dup := balancedEntry(model.LedgerBankPayment, 1, 5020, 1010, "50.00")
	dup[0].EntryID = "1-1a"
	dup[1].EntryID = "1-1b"
	assert.True(t, hasRule(ValidateLegs(append(legs, dup...), defaultAccounts, model.LedgerBankPayment), RuleNumbering))
}

func TestValidate_TooManyDecimals(t *testing.T) {
	legs := balancedEntry(model.LedgerBankPayment, 1, 5020, 1010, "10.123")
	assert.True(t, hasRule(ValidateLegs(legs, defaultAccounts, model.LedgerBankPayment), RulePrecision))
}

func TestRule_String(t *testing.T) {
	assert.Equal(t, "numbering", RuleNumbering.String())
	assert.Equal(t, "rule 42", Rule(42).String())
}

func TestValidate_Empty(t *testing.T) {
	assert.Empty(t, ValidateLegs(nil, defaultAccounts, model.LedgerJournal))
}
