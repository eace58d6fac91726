package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/cleared-dev/reconcile/internal/model"
)

// TransferProcessor posts both legs of an internal transfer. token is the
// action token of the request, usually naming the partner transaction.
type TransferProcessor interface {
	ProcessBothSides(ctx context.Context, txnID int, token string) (model.LedgerRef, string, error)
}

// TransferProcessorFunc adapts a function to a TransferProcessor.
type TransferProcessorFunc func(ctx context.Context, txnID int, token string) (model.LedgerRef, string, error)

func (f TransferProcessorFunc) ProcessBothSides(ctx context.Context, txnID int, token string) (model.LedgerRef, string, error) {
	return f(ctx, txnID, token)
}

// DualSide executes ProcessBothSides requests.
type DualSide struct {
	processor TransferProcessor
	override  TransferProcessor
}

// NewDualSide creates a DualSide using p by default.
func NewDualSide(p TransferProcessor) *DualSide {
	return &DualSide{processor: p}
}

// WithProcessor replaces the processor, typically in tests.
func (d *DualSide) WithProcessor(p TransferProcessor) *DualSide {
	d.override = p
	return d
}

func (d *DualSide) current() TransferProcessor {
	if d.override != nil {
		return d.override
	}
	return d.processor
}

// Execute runs the request. It never panics and never returns an error:
// every failure is a Result with Success false.
func (d *DualSide) Execute(ctx context.Context, req Request) (res Result) {
	txnID, token, err := req.Entry(ActionProcessBothSides)
	switch {
	case errors.Is(err, ErrActionNotPresent):
		return Failed(ErrActionNotPresent.Error(), err)
	case err != nil:
		return Failed(ErrInvalidTransactionID.Error(), err)
	}

	p := d.current()
	if p == nil {
		return Failed("no transfer processor configured", nil)
	}

	defer func() {
		if r := recover(); r != nil {
			res = Failed(fmt.Sprintf("transfer for transaction %d failed", txnID), fmt.Errorf("panic: %v", r))
		}
	}()

	ref, msg, err := p.ProcessBothSides(ctx, txnID, token)
	if err != nil {
		return Failed(fmt.Sprintf("transfer for transaction %d failed", txnID), err)
	}
	return Ok(ref, msg)
}
