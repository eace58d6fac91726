package service

import (
	"context"
	"fmt"

	"github.com/cleared-dev/reconcile/internal/dispatch"
	"github.com/cleared-dev/reconcile/internal/fault"
	"github.com/cleared-dev/reconcile/internal/id"
	"github.com/cleared-dev/reconcile/internal/lookup"
	"github.com/cleared-dev/reconcile/internal/model"
	"github.com/cleared-dev/reconcile/internal/reconcile"
	"github.com/cleared-dev/reconcile/internal/store"
)

// ProcessCategory posts a transaction, and any collection ids, through the
// handler registered for category. The error is non-nil when the
// transaction does not exist or no handler is registered.
func (s *Service) ProcessCategory(ctx context.Context, txnID int, category model.Category, form map[string]string, collectionIDs string) (dispatch.Result, error) {
	ctx, log := s.begin(ctx, txnID)
	action := "process:" + category.Code()
	if !s.registry.Registered(category) {
		log.Warn().Int("category", int(category)).Msg("unregistered category")
		return dispatch.Result{}, fault.Unregistered("process", "no handler registered for category %s", category)
	}

	txn, err := s.store.Transaction(ctx, txnID)
	if err != nil {
		return dispatch.Result{}, err
	}
	src, err := s.accounts.ResolveAccount(txn.BankAccountID)
	if err != nil {
		res := dispatch.Failed(fmt.Sprintf("transaction %d has no known bank account", txnID), err)
		s.record(action, txnID, res)
		return res, nil
	}

	res, err := s.registry.Process(ctx, category, &txn, form, txnID, collectionIDs, src)
	if err != nil {
		return dispatch.Result{}, err
	}
	s.record(action, txnID, res)
	return res, nil
}

// Execute runs a form-shaped action request: ProcessBothSides through the
// dual-side dispatcher, anything else through the named commands.
func (s *Service) Execute(ctx context.Context, req dispatch.Request) (dispatch.Result, error) {
	if req.Has(dispatch.ActionProcessBothSides) {
		txnID, _, _ := req.Entry(dispatch.ActionProcessBothSides)
		res := s.dual.Execute(ctx, req)
		s.record(dispatch.ActionProcessBothSides, txnID, res)
		return res, nil
	}

	res, err := s.commands.Dispatch(ctx, req, s)
	if err != nil {
		return res, err
	}
	for _, c := range s.commands {
		if c.Supports(req) {
			txnID, _, _ := req.Entry(c.Name())
			s.record(c.Name(), txnID, res)
			break
		}
	}
	return res, nil
}

// ProcessBothSides posts a transaction and its transfer counterpart. token
// names the counterpart's id; when it is not numeric the counterpart is
// searched for.
func (s *Service) ProcessBothSides(ctx context.Context, txnID int, token string) (model.LedgerRef, string, error) {
	ctx, _ = s.begin(ctx, txnID)
	txn, err := s.store.Transaction(ctx, txnID)
	if err != nil {
		return model.LedgerRef{}, "", err
	}

	var partner model.ImportedTransaction
	if partnerID, perr := id.ParseTransactionID(token); perr == nil {
		if partner, err = s.store.Transaction(ctx, partnerID); err != nil {
			return model.LedgerRef{}, "", err
		}
	} else if partner, err = s.findCounterpart(ctx, txn); err != nil {
		return model.LedgerRef{}, "", err
	}

	ref, err := s.transfer.Post(ctx, &txn, &partner, model.BankAccount{})
	if err != nil {
		return model.LedgerRef{}, "", err
	}
	return ref, fmt.Sprintf("%s created for transactions %d and %d", ref, txn.ID, partner.ID), nil
}

// findCounterpart returns the unprocessed transaction on the same value date
// in another own account with the opposite amount. Lowest id wins.
func (s *Service) findCounterpart(ctx context.Context, txn model.ImportedTransaction) (model.ImportedTransaction, error) {
	sameDay, err := s.store.TransactionsOn(ctx, txn.ValueDate)
	if err != nil {
		return model.ImportedTransaction{}, fmt.Errorf("searching counterpart: %w", err)
	}
	for _, c := range sameDay {
		if c.ID == txn.ID || c.Settled() {
			continue
		}
		if c.BankAccountID == 0 || c.BankAccountID == txn.BankAccountID {
			continue
		}
		if c.Amount.Equal(txn.Amount.Neg()) {
			return c, nil
		}
	}
	return model.ImportedTransaction{}, fault.Precondition("both sides", "no counterpart found for transaction %d", txn.ID)
}

// mutate loads a transaction, applies fn and saves it in one store transaction.
func (s *Service) mutate(ctx context.Context, txnID int, fn func(st store.Store, txn *model.ImportedTransaction) error) (model.ImportedTransaction, error) {
	var txn model.ImportedTransaction
	err := s.store.Transact(ctx, func(st store.Store) error {
		var err error
		if txn, err = st.Transaction(ctx, txnID); err != nil {
			return err
		}
		if err := fn(st, &txn); err != nil {
			return err
		}
		return st.SaveTransaction(ctx, &txn)
	})
	return txn, err
}

// UnsetTrans returns a transaction to Unprocessed.
func (s *Service) UnsetTrans(ctx context.Context, txnID int) error {
	_, err := s.mutate(ctx, txnID, func(_ store.Store, txn *model.ImportedTransaction) error {
		return reconcile.Unset(txn)
	})
	return err
}

// ToggleTransaction flips a transaction's direction.
func (s *Service) ToggleTransaction(ctx context.Context, txnID int) error {
	_, err := s.mutate(ctx, txnID, func(_ store.Store, txn *model.ImportedTransaction) error {
		return reconcile.ToggleDirection(txn)
	})
	return err
}

// AddCustomer creates a customer from the transaction's counter-party.
func (s *Service) AddCustomer(ctx context.Context, txnID int) error {
	return s.addParty(ctx, txnID, model.PartyCustomer, model.CategoryCustomer)
}

// AddVendor creates a supplier from the transaction's counter-party.
func (s *Service) AddVendor(ctx context.Context, txnID int) error {
	return s.addParty(ctx, txnID, model.PartySupplier, model.CategorySupplier)
}

// addParty records the transaction's counter-party as a party of kind,
// reusing a known party of the same name.
func (s *Service) addParty(ctx context.Context, txnID int, kind model.PartyKind, c model.Category) error {
	ctx, log := s.begin(ctx, txnID)

	txn, err := s.store.Transaction(ctx, txnID)
	if err != nil {
		return err
	}
	name := txn.AccountName
	if name == "" {
		name = txn.Title
	}
	if name == "" {
		return fault.Validation("add "+string(kind), "transaction %d has no counter-party name", txnID)
	}
	existing, known, err := lookup.FromContext(ctx).Party(ctx, kind, name)
	if err != nil {
		return err
	}

	_, err = s.mutate(ctx, txnID, func(st store.Store, txn *model.ImportedTransaction) error {
		if known {
			name = existing.Name
		} else {
			p := model.Party{Kind: kind, Name: name, Account: txn.Account}
			if err := st.CreateParty(ctx, &p); err != nil {
				return fmt.Errorf("creating %s: %w", kind, err)
			}
			log.Info().Str("kind", string(kind)).Str("name", name).Int("party", p.ID).Msg("party created")
		}
		return reconcile.ApplyFieldUpdate(txn, reconcile.Changes{PartyRef: &name, Category: &c})
	})
	return err
}

// ApplyUpdate changes fields of a transaction through the state machine.
func (s *Service) ApplyUpdate(ctx context.Context, txnID int, c reconcile.Changes) (model.ImportedTransaction, error) {
	return s.mutate(ctx, txnID, func(_ store.Store, txn *model.ImportedTransaction) error {
		return reconcile.ApplyFieldUpdate(txn, c)
	})
}

// ReopenLedgerEntry returns every Created transaction linked to ref to
// Unprocessed. Matched transactions keep their link. It returns the ids of
// the reopened transactions.
func (s *Service) ReopenLedgerEntry(ctx context.Context, ref model.LedgerRef) ([]int, error) {
	if ref.Number <= 0 {
		return nil, fault.Validation("reopen", "invalid ledger number %d", ref.Number)
	}
	var reopened []int
	err := s.store.Transact(ctx, func(st store.Store) error {
		linked, err := st.TransactionsByLedger(ctx, ref)
		if err != nil {
			return err
		}
		for i := range linked {
			txn := &linked[i]
			if !txn.Created() {
				continue
			}
			if err := reconcile.Reopen(txn, ref); err != nil {
				return err
			}
			if err := st.SaveTransaction(ctx, txn); err != nil {
				return err
			}
			reopened = append(reopened, txn.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reopening transactions of %s: %w", ref, err)
	}
	for _, txnID := range reopened {
		s.record("reopen", txnID, dispatch.Result{Success: true, TransType: int(ref.Type), TransNo: ref.Number,
			Message: fmt.Sprintf("%s voided", ref)})
	}
	return reopened, nil
}

// VoidLedgerEntry voids ref in the ledger and reopens its Created transactions.
func (s *Service) VoidLedgerEntry(ctx context.Context, ref model.LedgerRef) ([]int, error) {
	if err := s.ledger.Void(ctx, ref); err != nil {
		return nil, err
	}
	s.log.Info().Stringer("ref", ref).Msg("ledger entry voided")
	return s.ReopenLedgerEntry(ctx, ref)
}

var _ dispatch.Controller = (*Service)(nil)
var _ dispatch.TransferProcessor = (*Service)(nil)
