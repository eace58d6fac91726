package process

import (
	"context"
	"strconv"
	"strings"

	"github.com/cleared-dev/reconcile/internal/dispatch"
	"github.com/cleared-dev/reconcile/internal/fault"
	"github.com/cleared-dev/reconcile/internal/model"
)

// Supplier posts supplier payments, and supplier refunds as bank deposits.
type Supplier struct{ deps Deps }

func NewSupplier(d Deps) *Supplier { return &Supplier{deps: d} }

func (h *Supplier) Handles(c model.Category) bool { return c == model.CategorySupplier }

func (h *Supplier) Process(ctx context.Context, in dispatch.Input) (dispatch.Result, error) {
	return h.deps.run(ctx, in, h.post)
}

func (h *Supplier) post(ctx context.Context, txn *model.ImportedTransaction, src model.BankAccount, form map[string]string) (settlement, error) {
	dir, err := direction(txn)
	if err != nil {
		return settlement{}, err
	}
	gl, err := bankGL(src)
	if err != nil {
		return settlement{}, err
	}
	party, err := h.deps.party(ctx, model.PartySupplier, txn, form)
	if err != nil {
		return settlement{}, err
	}

	p := payload(txn, party)
	kind := model.LedgerSupplierPayment
	p.DebitAccount, p.CreditAccount = h.deps.Payables, gl
	if dir == model.IndicatorCredit {
		kind = model.LedgerBankDeposit
		p.DebitAccount, p.CreditAccount = gl, h.deps.Payables
	}
	ref, err := h.deps.Ledger.CreateEntry(ctx, kind, p)
	if err != nil {
		return settlement{}, err
	}
	return settlement{Ref: ref, Party: party}, nil
}

// Customer posts customer payments, and customer refunds as bank payments.
type Customer struct{ deps Deps }

func NewCustomer(d Deps) *Customer { return &Customer{deps: d} }

func (h *Customer) Handles(c model.Category) bool { return c == model.CategoryCustomer }

func (h *Customer) Process(ctx context.Context, in dispatch.Input) (dispatch.Result, error) {
	return h.deps.run(ctx, in, h.post)
}

func (h *Customer) post(ctx context.Context, txn *model.ImportedTransaction, src model.BankAccount, form map[string]string) (settlement, error) {
	dir, err := direction(txn)
	if err != nil {
		return settlement{}, err
	}
	gl, err := bankGL(src)
	if err != nil {
		return settlement{}, err
	}
	party, err := h.deps.party(ctx, model.PartyCustomer, txn, form)
	if err != nil {
		return settlement{}, err
	}

	p := payload(txn, party)
	kind := model.LedgerCustomerPayment
	p.DebitAccount, p.CreditAccount = gl, h.deps.Receivables
	if dir == model.IndicatorDebit {
		kind = model.LedgerBankPayment
		p.DebitAccount, p.CreditAccount = h.deps.Receivables, gl
	}
	ref, err := h.deps.Ledger.CreateEntry(ctx, kind, p)
	if err != nil {
		return settlement{}, err
	}
	return settlement{Ref: ref, Party: party}, nil
}

// QuickEntry posts through a configured quick entry template. The template
// label becomes the transaction's group tag.
type QuickEntry struct{ deps Deps }

func NewQuickEntry(d Deps) *QuickEntry { return &QuickEntry{deps: d} }

func (h *QuickEntry) Handles(c model.Category) bool { return c == model.CategoryQuickEntry }

func (h *QuickEntry) Process(ctx context.Context, in dispatch.Input) (dispatch.Result, error) {
	return h.deps.run(ctx, in, h.post)
}

func (h *QuickEntry) post(ctx context.Context, txn *model.ImportedTransaction, src model.BankAccount, form map[string]string) (settlement, error) {
	const op = "quick entry"
	ref := strings.TrimSpace(form[FormQuickEntry])
	if ref == "" {
		return settlement{}, fault.Validation(op, "no quick entry selected")
	}
	l := h.deps.lookups(ctx)
	if l == nil {
		return settlement{}, fault.Validation(op, "no quick entries configured")
	}
	qe, ok := l.QuickEntry(ref)
	if !ok {
		return settlement{}, fault.Validation(op, "unknown quick entry %q", ref)
	}

	dir, err := direction(txn)
	if err != nil {
		return settlement{}, err
	}
	gl, err := bankGL(src)
	if err != nil {
		return settlement{}, err
	}

	p := payload(txn, qe.Label)
	kind := model.LedgerBankPayment
	p.DebitAccount, p.CreditAccount = qe.GLAccount, gl
	if dir == model.IndicatorCredit {
		kind = model.LedgerBankDeposit
		p.DebitAccount, p.CreditAccount = gl, qe.GLAccount
	}
	posted, err := h.deps.Ledger.CreateEntry(ctx, kind, p)
	if err != nil {
		return settlement{}, err
	}
	return settlement{Ref: posted, GroupTag: qe.Label}, nil
}

// Settlement links transactions to ledger entries that already exist. It
// serves both manual settlement and generic matches.
type Settlement struct{ deps Deps }

func NewSettlement(d Deps) *Settlement { return &Settlement{deps: d} }

func (h *Settlement) Handles(c model.Category) bool {
	return c == model.CategoryManualSettlement || c == model.CategoryMatched
}

func (h *Settlement) Process(ctx context.Context, in dispatch.Input) (dispatch.Result, error) {
	return h.deps.run(ctx, in, h.post)
}

func (h *Settlement) post(ctx context.Context, txn *model.ImportedTransaction, src model.BankAccount, form map[string]string) (settlement, error) {
	ref, err := formLedgerRef(form)
	if err != nil {
		return settlement{}, err
	}
	return settlement{Ref: ref, GroupTag: strings.TrimSpace(form[FormGroup]), Existing: true}, nil
}

func formLedgerRef(form map[string]string) (model.LedgerRef, error) {
	const op = "settle"
	lt, err := strconv.Atoi(strings.TrimSpace(form[FormLedgerType]))
	if err != nil {
		return model.LedgerRef{}, fault.Validation(op, "invalid ledger type %q", form[FormLedgerType])
	}
	n, err := strconv.Atoi(strings.TrimSpace(form[FormLedgerNumber]))
	if err != nil || n <= 0 {
		return model.LedgerRef{}, fault.Validation(op, "invalid ledger number %q", form[FormLedgerNumber])
	}
	return model.LedgerRef{Type: model.LedgerType(lt), Number: n}, nil
}
