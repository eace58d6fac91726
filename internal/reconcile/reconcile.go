// Package reconcile holds the lifecycle transitions of an imported
// transaction. Every state change goes through one of these functions; each
// either applies fully or leaves the record untouched.
package reconcile

import (
	"github.com/cleared-dev/reconcile/internal/fault"
	"github.com/cleared-dev/reconcile/internal/model"
)

// LinkExisting links an Unprocessed transaction to an existing ledger entry.
// groupTag records a configured partner or option label and may be empty.
func LinkExisting(txn *model.ImportedTransaction, ref model.LedgerRef, groupTag string) error {
	if err := settle(txn, "link existing", ref); err != nil {
		return err
	}
	txn.Status = model.StatusMatched
	txn.Ledger = ref
	txn.GroupOption = groupTag
	return nil
}

// CreateNew records the ledger entry generated for an Unprocessed transaction.
func CreateNew(txn *model.ImportedTransaction, ref model.LedgerRef, groupTag string) error {
	if err := settle(txn, "create new", ref); err != nil {
		return err
	}
	txn.Status = model.StatusCreated
	txn.Ledger = ref
	txn.GroupOption = groupTag
	return nil
}

func settle(txn *model.ImportedTransaction, op string, ref model.LedgerRef) error {
	if txn == nil {
		return fault.Validation(op, "no transaction")
	}
	if ref.Number <= 0 {
		return fault.Validation(op, "invalid ledger number %d", ref.Number)
	}
	if txn.Settled() {
		return fault.Invariant(op, "transaction %d is %s", txn.ID, txn.Status)
	}
	return nil
}

// Unset returns a Matched or Created transaction to Unprocessed.
func Unset(txn *model.ImportedTransaction) error {
	const op = "unset"
	if txn == nil {
		return fault.Validation(op, "no transaction")
	}
	if !txn.Settled() {
		return fault.Invariant(op, "transaction %d is %s", txn.ID, txn.Status)
	}
	unlink(txn)
	return nil
}

// Reopen returns a Created transaction to Unprocessed after its ledger entry
// ref was voided.
func Reopen(txn *model.ImportedTransaction, ref model.LedgerRef) error {
	const op = "reopen"
	if txn == nil {
		return fault.Validation(op, "no transaction")
	}
	if ref.Number <= 0 {
		return fault.Validation(op, "invalid ledger number %d", ref.Number)
	}
	if txn.Status != model.StatusCreated {
		return fault.Invariant(op, "transaction %d is %s", txn.ID, txn.Status)
	}
	if txn.Ledger != ref {
		return fault.Invariant(op, "transaction %d is linked to %s, not %s", txn.ID, txn.Ledger, ref)
	}
	unlink(txn)
	return nil
}

func unlink(txn *model.ImportedTransaction) {
	txn.Status = model.StatusUnprocessed
	txn.Ledger = model.LedgerRef{}
	txn.GroupOption = ""
}

// ToggleDirection flips the indicator between Debit and Credit.
func ToggleDirection(txn *model.ImportedTransaction) error {
	const op = "toggle direction"
	if txn == nil {
		return fault.Validation(op, "no transaction")
	}
	var next model.Indicator
	switch txn.Indicator {
	case "":
		return fault.Precondition(op, "transaction %d has no direction indicator", txn.ID)
	case model.IndicatorDebit:
		next = model.IndicatorCredit
	case model.IndicatorCredit:
		next = model.IndicatorDebit
	default:
		return fault.Invariant(op, "transaction %d has indicator %q", txn.ID, txn.Indicator)
	}
	txn.Indicator = next
	txn.IndicatorDesc = next.Description()
	return nil
}
