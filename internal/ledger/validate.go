package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/reconcile/internal/id"
	"github.com/cleared-dev/reconcile/internal/model"
)

// Rule identifies a journal invariant.
type Rule int

const (
	RuleBalanced      Rule = iota + 1 // debits equal credits per entry
	RuleOneSide                       // one non-negative side per leg
	RuleAccountExists                 // leg accounts are in the chart
	RuleLedgerType                    // entry ids carry the journal's type
	RuleNumbering                     // numbers unique and contiguous from 1
	RulePrecision                     // at most two decimal places
)

var ruleNames = map[Rule]string{
	RuleBalanced:      "balanced",
	RuleOneSide:       "one side",
	RuleAccountExists: "account exists",
	RuleLedgerType:    "ledger type",
	RuleNumbering:     "numbering",
	RulePrecision:     "precision",
}

func (r Rule) String() string {
	if name, ok := ruleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("rule %d", int(r))
}

// ValidationError is one broken rule.
type ValidationError struct {
	Rule    Rule
	EntryID string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Rule, e.EntryID, e.Message)
}

// AccountChecker reports whether an account id is in the chart.
type AccountChecker interface {
	Exists(id int) bool
}

// ValidateLegs checks every rule over the full journal of one ledger type and
// returns all violations, entry-level ones first.
func ValidateLegs(legs []model.Leg, accounts AccountChecker, kind model.LedgerType) []ValidationError {
	var errs []ValidationError
	report := func(r Rule, entryID, format string, args ...any) {
		errs = append(errs, ValidationError{Rule: r, EntryID: entryID, Message: fmt.Sprintf(format, args...)})
	}

	numbers := make(map[int]bool)
	for _, e := range totalEntries(legs) {
		if !e.debit.Equal(e.credit) {
			report(RuleBalanced, e.id, "debits %s, credits %s", e.debit.StringFixed(2), e.credit.StringFixed(2))
		}
		lt, n, err := id.ParseEntryID(e.id)
		if err != nil {
			report(RuleNumbering, e.id, "invalid entry id: %v", err)
			continue
		}
		if model.LedgerType(lt) != kind {
			report(RuleLedgerType, e.id, "type %d entry in %s journal", lt, kind)
		}
		if numbers[n] {
			report(RuleNumbering, e.id, "number %d used twice", n)
		}
		numbers[n] = true
	}
	for n := 1; n <= len(numbers); n++ {
		if !numbers[n] {
			report(RuleNumbering, fmt.Sprintf("#%d", n), "number %d missing from 1..%d", n, len(numbers))
		}
	}

	for _, leg := range legs {
		if leg.Debit.IsZero() == leg.Credit.IsZero() {
			report(RuleOneSide, leg.EntryID, "want exactly one of debit or credit")
		}
		if leg.Debit.IsNegative() || leg.Credit.IsNegative() {
			report(RuleOneSide, leg.EntryID, "negative amount")
		}
		if !accounts.Exists(leg.AccountID) {
			report(RuleAccountExists, leg.EntryID, "unknown account %d", leg.AccountID)
		}
		for _, amt := range [...]decimal.Decimal{leg.Debit, leg.Credit} {
			if !amt.Equal(amt.Round(2)) {
				report(RulePrecision, leg.EntryID, "amount %s has more than 2 decimal places", amt)
			}
		}
	}
	return errs
}

type entryTotal struct {
	id            string
	debit, credit decimal.Decimal
}

// totalEntries sums legs per entry, in order of first appearance.
func totalEntries(legs []model.Leg) []entryTotal {
	index := make(map[string]int)
	var out []entryTotal
	for _, leg := range legs {
		g := leg.EntryGroup()
		i, ok := index[g]
		if !ok {
			i = len(out)
			index[g] = i
			out = append(out, entryTotal{id: g})
		}
		out[i].debit = out[i].debit.Add(leg.Debit)
		out[i].credit = out[i].credit.Add(leg.Credit)
	}
	return out
}
