package accounts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cleared-dev/reconcile/internal/model"
)

// ErrUnknownBankAccount is returned for bank account ids not in the directory.
var ErrUnknownBankAccount = errors.New("unknown bank account")

// Resolver resolves own bank accounts by id.
type Resolver interface {
	ResolveAccount(id int) (model.BankAccount, error)
}

// Directory holds the organisation's own bank accounts.
type Directory struct {
	banks    []model.BankAccount
	byID     map[int]model.BankAccount
	byNumber map[string]model.BankAccount
}

// NewDirectory creates a Directory. Every bank account must post to a chart
// account known to chart, when chart is non-nil.
func NewDirectory(banks []model.BankAccount, chart *Service) (*Directory, error) {
	d := &Directory{
		banks:    banks,
		byID:     make(map[int]model.BankAccount, len(banks)),
		byNumber: make(map[string]model.BankAccount, len(banks)),
	}
	for _, b := range banks {
		if chart != nil && !chart.Exists(b.GLAccount) {
			return nil, fmt.Errorf("bank account %d (%s): unknown chart account %d", b.ID, b.Name, b.GLAccount)
		}
		d.byID[b.ID] = b
		if b.Number != "" {
			d.byNumber[normalizeNumber(b.Number)] = b
		}
	}
	return d, nil
}

// ResolveAccount returns the bank account with the given id.
func (d *Directory) ResolveAccount(id int) (model.BankAccount, error) {
	b, ok := d.byID[id]
	if !ok {
		return model.BankAccount{}, fmt.Errorf("bank account %d: %w", id, ErrUnknownBankAccount)
	}
	return b, nil
}

// ByNumber finds an own bank account by its printed account number.
func (d *Directory) ByNumber(number string) (model.BankAccount, bool) {
	b, ok := d.byNumber[normalizeNumber(number)]
	return b, ok
}

// All returns every bank account.
func (d *Directory) All() []model.BankAccount {
	return d.banks
}

func normalizeNumber(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, " ", ""))
}
