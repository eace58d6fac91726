package process

import (
	"context"
	"fmt"
	"strings"

	"github.com/cleared-dev/reconcile/internal/dispatch"
	"github.com/cleared-dev/reconcile/internal/fault"
	"github.com/cleared-dev/reconcile/internal/id"
	"github.com/cleared-dev/reconcile/internal/ledger"
	"github.com/cleared-dev/reconcile/internal/model"
	"github.com/cleared-dev/reconcile/internal/reconcile"
	"github.com/cleared-dev/reconcile/internal/store"
	"github.com/cleared-dev/reconcile/internal/transfer"
)

// Transfer posts both legs of an internal transfer as one funds transfer entry.
type Transfer struct{ deps Deps }

func NewTransfer(d Deps) *Transfer { return &Transfer{deps: d} }

func (h *Transfer) Handles(c model.Category) bool { return c == model.CategoryBankTransfer }

// Process posts in.Txn together with the transaction named by the partner_id field.
func (h *Transfer) Process(ctx context.Context, in dispatch.Input) (dispatch.Result, error) {
	if in.Txn == nil {
		return dispatch.Result{}, fault.Validation("transfer", "no transaction")
	}
	partnerID, err := id.ParseTransactionID(in.Form[FormPartner])
	if err != nil {
		return dispatch.Result{}, fault.Validation("transfer", "partner: %v", err)
	}
	partner, err := h.deps.Store.Transaction(ctx, partnerID)
	if err != nil {
		return dispatch.Result{}, fmt.Errorf("loading partner transaction: %w", err)
	}

	ref, err := h.Post(ctx, in.Txn, &partner, in.SourceAccount)
	if err != nil {
		return dispatch.Result{}, err
	}
	return dispatch.Ok(ref, fmt.Sprintf("%s created for transactions %d and %d", ref, in.Txn.ID, partner.ID)), nil
}

// Post validates the pair, posts the transfer and marks both legs Created.
// When the legs cannot be saved the entry is voided and both are left as they were.
// accountA is legA's bank account; legB's is resolved from its record.
func (h *Transfer) Post(ctx context.Context, legA, legB *model.ImportedTransaction, accountA model.BankAccount) (model.LedgerRef, error) {
	const op = "transfer"
	if legA == nil || legB == nil {
		return model.LedgerRef{}, fault.Validation(op, "transfer needs two transactions")
	}
	if accountA.ID == 0 && legA.BankAccountID != 0 {
		acct, err := h.deps.Accounts.ResolveAccount(legA.BankAccountID)
		if err != nil {
			return model.LedgerRef{}, err
		}
		accountA = acct
	}
	accountB, err := h.deps.Accounts.ResolveAccount(legB.BankAccountID)
	if err != nil {
		return model.LedgerRef{}, fault.Validation(op, "partner transaction %d: %v", legB.ID, err)
	}

	data, err := transfer.Resolve(*legA, *legB, accountA, accountB)
	if err != nil {
		return model.LedgerRef{}, err
	}
	if err := transfer.CheckPair(*legA, *legB); err != nil {
		return model.LedgerRef{}, err
	}
	for _, leg := range []*model.ImportedTransaction{legA, legB} {
		if leg.Settled() {
			return model.LedgerRef{}, fault.Invariant(op, "transaction %d is already %s", leg.ID, leg.Status)
		}
	}
	from, err := bankGL(data.FromAccount)
	if err != nil {
		return model.LedgerRef{}, err
	}
	to, err := bankGL(data.ToAccount)
	if err != nil {
		return model.LedgerRef{}, err
	}

	ref, err := h.deps.Ledger.CreateEntry(ctx, model.LedgerBankTransfer, ledger.Payload{
		Date:          data.Date,
		Description:   fmt.Sprintf("Transfer %s to %s", data.FromAccount.Name, data.ToAccount.Name),
		DebitAccount:  to,
		CreditAccount: from,
		Amount:        data.Amount,
		Reference:     fmt.Sprintf("%d,%d", data.FromLeg.ID, data.ToLeg.ID),
		Memo:          data.Memo,
	})
	if err != nil {
		return model.LedgerRef{}, err
	}

	a, b := *legA, *legB
	for _, leg := range []*model.ImportedTransaction{&a, &b} {
		if err := reconcile.CreateNew(leg, ref, ""); err != nil {
			return model.LedgerRef{}, h.deps.voidOrphan(ctx, ref, err)
		}
		leg.Category = model.CategoryBankTransfer
	}
	err = h.deps.Store.Transact(ctx, func(s store.Store) error {
		if err := s.SaveTransaction(ctx, &a); err != nil {
			return err
		}
		return s.SaveTransaction(ctx, &b)
	})
	if err != nil {
		err = fmt.Errorf("saving transfer legs after posting %s: %w", ref, err)
		return model.LedgerRef{}, h.deps.voidOrphan(ctx, ref, err)
	}
	*legA, *legB = a, b

	h.deps.Log.Info().Ints("txns", []int{a.ID, b.ID}).Int("trans_no", ref.Number).
		Str("memo", strings.TrimSpace(data.Memo)).Msg("transfer posted")
	return ref, nil
}
