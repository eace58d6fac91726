// Package process posts imported transactions to the ledger, one handler
// per reconciliation category.
package process

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/reconcile/internal/accounts"
	"github.com/cleared-dev/reconcile/internal/dispatch"
	"github.com/cleared-dev/reconcile/internal/fault"
	"github.com/cleared-dev/reconcile/internal/id"
	"github.com/cleared-dev/reconcile/internal/ledger"
	"github.com/cleared-dev/reconcile/internal/lookup"
	"github.com/cleared-dev/reconcile/internal/model"
	"github.com/cleared-dev/reconcile/internal/reconcile"
	"github.com/cleared-dev/reconcile/internal/store"
)

// Form fields read by the handlers.
const (
	FormParty        = "party"
	FormQuickEntry   = "quick_entry"
	FormPartner      = "partner_id"
	FormLedgerType   = "ledger_type"
	FormLedgerNumber = "ledger_number"
	FormGroup        = "group"
)

// Deps are the collaborators shared by every handler.
type Deps struct {
	Store    store.Store
	Ledger   ledger.Writer
	Accounts accounts.Resolver
	Lookups  *lookup.Lookups // used when the context carries none
	Log      zerolog.Logger

	// Control accounts for customer and supplier balances.
	Receivables int
	Payables    int
}

// RegisterAll registers a handler for every category on r and returns the
// transfer handler for dual-side processing.
func RegisterAll(r *dispatch.Registry, d Deps) *Transfer {
	t := NewTransfer(d)
	r.Register(model.CategorySupplier, NewSupplier(d))
	r.Register(model.CategoryCustomer, NewCustomer(d))
	r.Register(model.CategoryQuickEntry, NewQuickEntry(d))
	r.Register(model.CategoryBankTransfer, t)
	settlement := NewSettlement(d)
	r.Register(model.CategoryManualSettlement, settlement)
	r.Register(model.CategoryMatched, settlement)
	return t
}

// settlement is what a poster decided for one transaction.
type settlement struct {
	Ref      model.LedgerRef
	GroupTag string
	Party    string
	// Existing links to an entry that was already in the ledger.
	Existing bool
}

type poster func(ctx context.Context, txn *model.ImportedTransaction, src model.BankAccount, form map[string]string) (settlement, error)

// run settles in.Txn and then every collection id, in order. A failing
// collection item is reported in the Result and does not stop the rest.
func (d Deps) run(ctx context.Context, in dispatch.Input, post poster) (dispatch.Result, error) {
	collection, err := id.ParseIDList(in.CollectionIDs)
	if err != nil {
		return dispatch.Result{}, fault.Validation("process", "collection ids: %v", err)
	}

	s, err := d.settle(ctx, in.Category, in.Txn, in.SourceAccount, in.Form, post)
	if err != nil {
		return dispatch.Result{}, err
	}
	res := dispatch.Ok(s.Ref, describe(s, in.Txn.ID))

	var failed []string
	for _, cid := range collection {
		if cid == in.Txn.ID {
			continue
		}
		if err := d.settleStored(ctx, in.Category, cid, in.SourceAccount, in.Form, post); err != nil {
			d.Log.Warn().Err(err).Int("txn", cid).Str("category", in.Category.Code()).
				Msg("collection item failed")
			failed = append(failed, fmt.Sprintf("%d: %v", cid, err))
		}
	}
	if len(failed) > 0 {
		res.Message += fmt.Sprintf("; %d of %d collection items failed", len(failed), len(collection))
		res.Error = strings.Join(failed, "; ")
	}
	return res, nil
}

func (d Deps) settleStored(ctx context.Context, c model.Category, txnID int, src model.BankAccount, form map[string]string, post poster) error {
	txn, err := d.Store.Transaction(ctx, txnID)
	if err != nil {
		return fmt.Errorf("loading transaction: %w", err)
	}
	if txn.BankAccountID != 0 && txn.BankAccountID != src.ID {
		if src, err = d.Accounts.ResolveAccount(txn.BankAccountID); err != nil {
			return err
		}
	}
	_, err = d.settle(ctx, c, &txn, src, form, post)
	return err
}

func (d Deps) settle(ctx context.Context, c model.Category, txn *model.ImportedTransaction, src model.BankAccount, form map[string]string, post poster) (settlement, error) {
	const op = "process"
	if txn == nil {
		return settlement{}, fault.Validation(op, "no transaction")
	}
	if txn.Settled() {
		return settlement{}, fault.Invariant(op, "transaction %d is already %s", txn.ID, txn.Status)
	}

	s, err := post(ctx, txn, src, form)
	if err != nil {
		return settlement{}, err
	}

	next := *txn
	if s.Existing {
		err = reconcile.LinkExisting(&next, s.Ref, s.GroupTag)
	} else {
		err = reconcile.CreateNew(&next, s.Ref, s.GroupTag)
	}
	if err != nil {
		return settlement{}, d.unpost(ctx, s, err)
	}
	next.Category = c
	if s.Party != "" {
		next.PartyRef = s.Party
	}
	if err := d.Store.SaveTransaction(ctx, &next); err != nil {
		err = fmt.Errorf("saving transaction %d after posting %s: %w", txn.ID, s.Ref, err)
		return settlement{}, d.unpost(ctx, s, err)
	}
	*txn = next

	d.Log.Info().Int("txn", txn.ID).Str("category", c.Code()).
		Int("trans_type", int(s.Ref.Type)).Int("trans_no", s.Ref.Number).Msg("transaction settled")
	return s, nil
}

// unpost voids the entry a settlement created when the transaction could not
// be updated to point at it. The entry keeps its number as a voided entry.
func (d Deps) unpost(ctx context.Context, s settlement, cause error) error {
	if s.Existing {
		return cause
	}
	return d.voidOrphan(ctx, s.Ref, cause)
}

func (d Deps) voidOrphan(ctx context.Context, ref model.LedgerRef, cause error) error {
	if err := d.Ledger.Void(context.WithoutCancel(ctx), ref); err != nil {
		d.Log.Error().Err(err).Str("entry", ref.String()).Msg("voiding unlinked entry")
		return fmt.Errorf("%w; voiding %s: %v", cause, ref, err)
	}
	d.Log.Warn().Err(cause).Str("entry", ref.String()).Msg("voided unlinked entry")
	return cause
}

func describe(s settlement, txnID int) string {
	if s.Existing {
		return fmt.Sprintf("transaction %d matched to %s", txnID, s.Ref)
	}
	return fmt.Sprintf("%s created for transaction %d", s.Ref, txnID)
}

// direction returns the transaction's direction, falling back to the sign
// of the amount when no indicator was recorded.
func direction(txn *model.ImportedTransaction) (model.Indicator, error) {
	const op = "process"
	switch txn.Indicator {
	case model.IndicatorDebit, model.IndicatorCredit:
		return txn.Indicator, nil
	case "":
		switch {
		case txn.Amount.IsNegative():
			return model.IndicatorDebit, nil
		case txn.Amount.IsPositive():
			return model.IndicatorCredit, nil
		}
		return "", fault.Validation(op, "transaction %d has no direction and no amount", txn.ID)
	default:
		return "", fault.Invariant(op, "transaction %d has indicator %q", txn.ID, txn.Indicator)
	}
}

func bankGL(src model.BankAccount) (int, error) {
	if src.ID == 0 {
		return 0, fault.Validation("process", "no source bank account")
	}
	if src.GLAccount == 0 {
		return 0, fault.Validation("process", "bank account %d has no ledger account", src.ID)
	}
	return src.GLAccount, nil
}

func payload(txn *model.ImportedTransaction, party string) ledger.Payload {
	return ledger.Payload{
		Date:         txn.ValueDate,
		Description:  txn.Title,
		Amount:       txn.Amount.Abs(),
		Counterparty: party,
		Reference:    strconv.Itoa(txn.ID),
		Memo:         txn.Memo,
	}
}

// party picks the counter-party name from the form, the record, or the
// statement, preferring the spelling of a known party.
func (d Deps) party(ctx context.Context, kind model.PartyKind, txn *model.ImportedTransaction, form map[string]string) (string, error) {
	name := firstNonEmpty(form[FormParty], txn.PartyRef, txn.AccountName)
	l := d.lookups(ctx)
	if name == "" || l == nil {
		return name, nil
	}
	p, ok, err := l.Party(ctx, kind, name)
	if err != nil {
		return "", err
	}
	if ok {
		return p.Name, nil
	}
	return name, nil
}

// lookups prefers the request's Lookups over the shared default.
func (d Deps) lookups(ctx context.Context) *lookup.Lookups {
	if l := lookup.FromContext(ctx); l != nil {
		return l
	}
	return d.Lookups
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
