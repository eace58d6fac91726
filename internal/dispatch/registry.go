package dispatch

import (
	"context"
	"fmt"

	"github.com/cleared-dev/reconcile/internal/fault"
	"github.com/cleared-dev/reconcile/internal/model"
)

// Input is everything a category handler receives.
type Input struct {
	Category      model.Category
	Txn           *model.ImportedTransaction
	Form          map[string]string
	TransactionID int
	CollectionIDs string
	SourceAccount model.BankAccount
}

// Handler processes transactions of one or more categories.
type Handler interface {
	// Handles reports whether the handler can process c.
	Handles(c model.Category) bool
	Process(ctx context.Context, in Input) (Result, error)
}

// HandlerFunc adapts a function to a Handler for a single category.
type HandlerFunc struct {
	Category model.Category
	Fn       func(ctx context.Context, in Input) (Result, error)
}

func (h HandlerFunc) Handles(c model.Category) bool { return c == h.Category }

func (h HandlerFunc) Process(ctx context.Context, in Input) (Result, error) {
	return h.Fn(ctx, in)
}

// Registry maps categories to handlers.
type Registry struct {
	handlers map[model.Category]Handler
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[model.Category]Handler)}
}

// Register sets the handler for c, replacing any previous one.
func (r *Registry) Register(c model.Category, h Handler) {
	r.handlers[c] = h
}

// Registered reports whether c has a handler.
func (r *Registry) Registered(c model.Category) bool {
	_, ok := r.handlers[c]
	return ok
}

// Process runs the handler registered for category. The error is non-nil
// only when no handler is registered; every handler outcome, including a
// returned error or a panic, comes back as a Result.
func (r *Registry) Process(ctx context.Context, category model.Category, txn *model.ImportedTransaction,
	form map[string]string, transactionID int, collectionIDs string, sourceAccount model.BankAccount,
) (Result, error) {
	h, ok := r.handlers[category]
	if !ok {
		return Result{}, fault.Unregistered("process", "no handler registered for category %s", category)
	}
	if !h.Handles(category) {
		return Failed(fmt.Sprintf("handler cannot process category %s", category), nil), nil
	}

	in := Input{
		Category:      category,
		Txn:           txn,
		Form:          form,
		TransactionID: transactionID,
		CollectionIDs: collectionIDs,
		SourceAccount: sourceAccount,
	}
	return runHandler(ctx, h, in), nil
}

func runHandler(ctx context.Context, h Handler, in Input) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			err := fault.HandlerFailure("process", fmt.Errorf("panic: %v", p))
			res = Failed(fmt.Sprintf("transaction %d could not be processed", in.TransactionID), err)
		}
	}()

	res, err := h.Process(ctx, in)
	if err != nil {
		return Failed(fmt.Sprintf("transaction %d could not be processed", in.TransactionID), fault.HandlerFailure("process", err))
	}
	return res
}
