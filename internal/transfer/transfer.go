// Package transfer resolves the direction of a movement of funds between two
// of the organisation's own bank accounts.
package transfer

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/reconcile/internal/fault"
	"github.com/cleared-dev/reconcile/internal/model"
)

// MemoSeparator joins the titles of the two legs.
const MemoSeparator = " :: "

// Data is a resolved transfer ready to be posted.
type Data struct {
	FromAccount model.BankAccount
	ToAccount   model.BankAccount
	FromLeg     model.ImportedTransaction
	ToLeg       model.ImportedTransaction
	Amount      decimal.Decimal
	Memo        string
	Date        time.Time
}

// Resolve decides source and destination from legA's indicator. A debit on
// legA means funds leave accountA.
func Resolve(legA, legB model.ImportedTransaction, accountA, accountB model.BankAccount) (Data, error) {
	const op = "resolve transfer"
	for _, leg := range []model.ImportedTransaction{legA, legB} {
		if leg.Indicator == "" {
			return Data{}, fault.Validation(op, "transaction %d has no direction indicator", leg.ID)
		}
		if leg.Amount.IsZero() {
			return Data{}, fault.Validation(op, "transaction %d has no amount", leg.ID)
		}
	}
	if accountA.ID == 0 || accountB.ID == 0 {
		return Data{}, fault.Validation(op, "bank account id missing")
	}

	d := Data{
		Amount: legA.Amount.Abs(),
		Memo:   legA.Title + MemoSeparator + legB.Title,
		Date:   legA.ValueDate,
	}
	switch legA.Indicator {
	case model.IndicatorDebit:
		d.FromAccount, d.ToAccount = accountA, accountB
		d.FromLeg, d.ToLeg = legA, legB
	case model.IndicatorCredit:
		d.FromAccount, d.ToAccount = accountB, accountA
		d.FromLeg, d.ToLeg = legB, legA
	default:
		return Data{}, fault.Validation(op, "transaction %d has indicator %q", legA.ID, legA.Indicator)
	}
	return d, nil
}

// CheckPair verifies the two legs move the same amount in opposite directions
// between different accounts.
func CheckPair(legA, legB model.ImportedTransaction) error {
	const op = "check transfer pair"
	if legA.ID == legB.ID {
		return fault.Validation(op, "transaction %d paired with itself", legA.ID)
	}
	if !legA.Amount.Abs().Equal(legB.Amount.Abs()) {
		return fault.Invariant(op, "amounts differ: %s vs %s", legA.Amount, legB.Amount)
	}
	if legA.Amount.Sign() == legB.Amount.Sign() {
		return fault.Invariant(op, "amounts %s and %s have the same sign", legA.Amount, legB.Amount)
	}
	if legA.BankAccountID != 0 && legA.BankAccountID == legB.BankAccountID {
		return fault.Invariant(op, "both legs belong to bank account %d", legA.BankAccountID)
	}
	return nil
}
