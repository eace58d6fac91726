// Package dispatch routes reconciliation actions to their handlers and
// normalizes every outcome to a Result.
package dispatch

import (
	"github.com/cleared-dev/reconcile/internal/model"
)

// Result is the outcome of one action. Success carries the outcome; a
// failed action never surfaces as a Go error past the dispatcher.
type Result struct {
	Success   bool   `json:"success"`
	TransNo   int    `json:"transNo"`
	TransType int    `json:"transType"`
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
}

// Ok is a successful Result for the ledger entry ref.
func Ok(ref model.LedgerRef, message string) Result {
	return Result{Success: true, TransNo: ref.Number, TransType: int(ref.Type), Message: message}
}

// Failed is a failed Result carrying err.
func Failed(message string, err error) Result {
	r := Result{Message: message}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Ref returns the ledger entry the Result names.
func (r Result) Ref() model.LedgerRef {
	return model.LedgerRef{Type: model.LedgerType(r.TransType), Number: r.TransNo}
}
