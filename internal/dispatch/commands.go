package dispatch

import (
	"context"
	"fmt"

	"github.com/cleared-dev/reconcile/internal/fault"
)

// Controller performs the single-transaction operations behind the named commands.
type Controller interface {
	UnsetTrans(ctx context.Context, txnID int) error
	AddCustomer(ctx context.Context, txnID int) error
	AddVendor(ctx context.Context, txnID int) error
	ToggleTransaction(ctx context.Context, txnID int) error
}

// Command is a named action on one transaction.
type Command interface {
	Name() string
	Supports(req Request) bool
	// Execute runs the command and reports whether it ran.
	Execute(ctx context.Context, req Request, ctrl Controller) (bool, error)
}

type command struct {
	action string
	run    func(Controller, context.Context, int) error
}

func (c command) Name() string { return c.action }

func (c command) Supports(req Request) bool { return req.Has(c.action) }

func (c command) Execute(ctx context.Context, req Request, ctrl Controller) (bool, error) {
	txnID, _, err := req.Entry(c.action)
	if err != nil {
		return false, err
	}
	if err := c.run(ctrl, ctx, txnID); err != nil {
		return false, fmt.Errorf("%s %d: %w", c.action, txnID, err)
	}
	return true, nil
}

// The named commands, keyed by their action.
var (
	UnsetTrans        Command = command{ActionUnsetTrans, Controller.UnsetTrans}
	AddCustomer       Command = command{ActionAddCustomer, Controller.AddCustomer}
	AddVendor         Command = command{ActionAddVendor, Controller.AddVendor}
	ToggleTransaction Command = command{ActionToggleTransaction, Controller.ToggleTransaction}
)

// Commands is an ordered command list.
type Commands []Command

// DefaultCommands returns every named command.
func DefaultCommands() Commands {
	return Commands{UnsetTrans, AddCustomer, AddVendor, ToggleTransaction}
}

// Dispatch executes the first command supporting req. The error is non-nil
// only when no command supports it.
func (cs Commands) Dispatch(ctx context.Context, req Request, ctrl Controller) (Result, error) {
	for _, c := range cs {
		if !c.Supports(req) {
			continue
		}
		ok, err := c.Execute(ctx, req, ctrl)
		if err != nil || !ok {
			return Failed(fmt.Sprintf("%s failed", c.Name()), err), nil
		}
		txnID, _, _ := req.Entry(c.Name())
		return Result{Success: true, Message: fmt.Sprintf("%s done for transaction %d", c.Name(), txnID)}, nil
	}
	return Result{}, fault.Unregistered("dispatch", "no command for request")
}
