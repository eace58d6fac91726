package accounts

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cleared-dev/reconcile/internal/model"
)

const chartFile = "chart-of-accounts.csv"

// Service is the chart of accounts, indexed by id.
type Service struct {
	accounts []model.Account
	byID     map[int]model.Account
}

// NewService indexes accounts. Later duplicates win; Validate reports them.
func NewService(accounts []model.Account) *Service {
	byID := make(map[int]model.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	return &Service{accounts: accounts, byID: byID}
}

// Load reads and validates accounts/chart-of-accounts.csv under root.
func Load(root string) (*Service, error) {
	f, err := os.Open(filepath.Join(root, "accounts", chartFile))
	if err != nil {
		return nil, fmt.Errorf("opening chart of accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, err
	}
	s := NewService(accts)
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("chart of accounts: %w", err)
	}
	return s, nil
}

// Validate checks that ids are positive and unique and that every parent
// is itself in the chart.
func (s *Service) Validate() error {
	seen := make(map[int]bool, len(s.accounts))
	for _, a := range s.accounts {
		switch {
		case a.ID <= 0:
			return fmt.Errorf("account %q has id %d", a.Name, a.ID)
		case seen[a.ID]:
			return fmt.Errorf("account %d listed twice", a.ID)
		case a.ParentID != 0 && !s.Exists(a.ParentID):
			return fmt.Errorf("account %d: parent %d not in chart", a.ID, a.ParentID)
		}
		seen[a.ID] = true
	}
	return nil
}

// All returns the accounts in chart order.
func (s *Service) All() []model.Account {
	return s.accounts
}

func (s *Service) Get(id int) (model.Account, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// Exists reports whether id is in the chart. It satisfies the ledger's
// account check.
func (s *Service) Exists(id int) bool {
	_, ok := s.byID[id]
	return ok
}

// Save writes the chart under root, replacing any previous file atomically.
func (s *Service) Save(root string) error {
	dir := filepath.Join(root, "accounts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating accounts dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, chartFile+".*")
	if err != nil {
		return fmt.Errorf("creating chart of accounts file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteAccounts(tmp, s.accounts); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, chartFile)); err != nil {
		return fmt.Errorf("replacing chart of accounts: %w", err)
	}
	return nil
}
