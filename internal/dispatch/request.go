package dispatch

import (
	"errors"
	"fmt"

	"github.com/cleared-dev/reconcile/internal/fault"
	"github.com/cleared-dev/reconcile/internal/id"
)

// Action keys carried by a Request.
const (
	ActionProcessBothSides  = "ProcessBothSides"
	ActionUnsetTrans        = "UnsetTrans"
	ActionAddCustomer       = "AddCustomer"
	ActionAddVendor         = "AddVendor"
	ActionToggleTransaction = "ToggleTransaction"
)

var (
	// ErrActionNotPresent is returned when a Request lacks the action key.
	ErrActionNotPresent = errors.New("action not present")
	// ErrInvalidTransactionID is returned when the action's id is absent or malformed.
	ErrInvalidTransactionID = errors.New("missing or invalid transaction id")
)

// Request is a form-shaped action request: one action key mapping a
// transaction id to an action token, e.g. {"UnsetTrans": {"42": "Unset"}}.
type Request map[string]map[string]string

// Has reports whether the request carries action, even with no entries.
func (r Request) Has(action string) bool {
	_, ok := r[action]
	return ok
}

// Entry returns the single (id, token) pair of action.
func (r Request) Entry(action string) (int, string, error) {
	const op = "request"
	entries, ok := r[action]
	if !ok {
		return 0, "", &fault.Error{Kind: fault.KindValidation, Op: op, Msg: action, Err: ErrActionNotPresent}
	}
	if len(entries) != 1 {
		return 0, "", &fault.Error{
			Kind: fault.KindValidation,
			Op:   op,
			Msg:  fmt.Sprintf("%s: expected one entry, got %d", action, len(entries)),
			Err:  ErrInvalidTransactionID,
		}
	}
	for key, token := range entries {
		n, err := id.ParseTransactionID(key)
		if err != nil {
			return 0, "", &fault.Error{
				Kind: fault.KindValidation,
				Op:   op,
				Msg:  fmt.Sprintf("%s: %v", action, err),
				Err:  ErrInvalidTransactionID,
			}
		}
		return n, token, nil
	}
	panic("unreachable")
}
