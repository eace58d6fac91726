package reconcile

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/reconcile/internal/fault"
	"github.com/cleared-dev/reconcile/internal/model"
)

// Changes is a field update. Nil fields are left as they are.
type Changes struct {
	// Natural key; frozen once Created.
	TransactionCode *string
	Account         *string
	AccountName     *string
	ValueDate       *time.Time
	EntryDate       *time.Time

	// Only the sign may change once Created.
	Amount *decimal.Decimal

	Title            *string
	Memo             *string
	StatementRef     *string
	Merchant         *string
	MerchantCategory *string
	Category         *model.Category
	PartyRef         *string
	MatchDetails     json.RawMessage
}

// ApplyFieldUpdate applies c to txn, or nothing at all if any change is refused.
func ApplyFieldUpdate(txn *model.ImportedTransaction, c Changes) error {
	const op = "update"
	if txn == nil {
		return fault.Validation(op, "no transaction")
	}
	if c.Category != nil && *c.Category != model.CategoryNone && c.Category.Code() == "" {
		return fault.Validation(op, "unknown category %d", int(*c.Category))
	}
	if c.MatchDetails != nil && !json.Valid(c.MatchDetails) {
		return fault.Validation(op, "match details are not valid JSON")
	}

	if txn.Created() {
		if err := checkFrozen(txn, c); err != nil {
			return err
		}
	}

	setString(&txn.TransactionCode, c.TransactionCode)
	setString(&txn.Account, c.Account)
	setString(&txn.AccountName, c.AccountName)
	if c.ValueDate != nil {
		txn.ValueDate = *c.ValueDate
	}
	if c.EntryDate != nil {
		txn.EntryDate = *c.EntryDate
	}
	if c.Amount != nil {
		txn.Amount = *c.Amount
	}
	setString(&txn.Title, c.Title)
	setString(&txn.Memo, c.Memo)
	setString(&txn.StatementRef, c.StatementRef)
	setString(&txn.Merchant, c.Merchant)
	setString(&txn.MerchantCategory, c.MerchantCategory)
	setString(&txn.PartyRef, c.PartyRef)
	if c.Category != nil {
		txn.Category = *c.Category
	}
	if c.MatchDetails != nil {
		txn.MatchDetails = append(json.RawMessage(nil), c.MatchDetails...)
	}
	return nil
}

func checkFrozen(txn *model.ImportedTransaction, c Changes) error {
	const op = "update"
	key := txn.Key()
	next := key
	if c.TransactionCode != nil {
		next.TransactionCode = *c.TransactionCode
	}
	if c.Account != nil {
		next.Account = *c.Account
	}
	if c.AccountName != nil {
		next.AccountName = *c.AccountName
	}
	if c.ValueDate != nil {
		next.ValueDate = *c.ValueDate
	}
	if c.EntryDate != nil {
		next.EntryDate = *c.EntryDate
	}
	if !key.Equal(next) {
		return fault.Invariant(op, "natural key of created transaction %d cannot change", txn.ID)
	}
	if c.Amount != nil && !c.Amount.Abs().Equal(txn.Amount.Abs()) {
		return fault.Invariant(op, "amount of created transaction %d cannot change from %s to %s",
			txn.ID, txn.Amount.StringFixed(2), c.Amount.StringFixed(2))
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
