package ledger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/reconcile/internal/fault"
	"github.com/cleared-dev/reconcile/internal/id"
	"github.com/cleared-dev/reconcile/internal/model"
)

// ErrEntryNotFound is returned when a ledger reference names no entry.
var ErrEntryNotFound = errors.New("ledger entry not found")

// Writer posts new ledger entries.
type Writer interface {
	CreateEntry(ctx context.Context, kind model.LedgerType, payload Payload) (model.LedgerRef, error)
	Void(ctx context.Context, ref model.LedgerRef) error
}

// Committer records changed files, e.g. in git. Paths are relative to the repo root.
type Committer interface {
	Commit(message string, paths ...string) (string, error)
}

// Payload is a two-leg entry: Amount is debited to DebitAccount and
// credited to CreditAccount.
type Payload struct {
	Date          time.Time
	Description   string
	DebitAccount  int
	CreditAccount int
	Amount        decimal.Decimal
	Counterparty  string
	Reference     string // imported transaction id(s)
	Memo          string
}

// Service stores ledger entries as one journal.csv per ledger type.
type Service struct {
	repoRoot  string
	accounts  AccountChecker
	committer Committer

	mu sync.Mutex
}

// NewService creates a ledger Service rooted at repoRoot.
func NewService(repoRoot string, accounts AccountChecker) *Service {
	return &Service{repoRoot: repoRoot, accounts: accounts}
}

// WithCommitter makes every write end with a commit.
func (s *Service) WithCommitter(c Committer) *Service {
	s.committer = c
	return s
}

// CreateEntry validates and appends a balanced two-leg entry of the given kind.
func (s *Service) CreateEntry(ctx context.Context, kind model.LedgerType, p Payload) (model.LedgerRef, error) {
	if err := ctx.Err(); err != nil {
		return model.LedgerRef{}, err
	}
	if !p.Amount.IsPositive() {
		return model.LedgerRef{}, fault.Validation("create entry", "amount must be positive, got %s", p.Amount)
	}
	if p.Date.IsZero() {
		return model.LedgerRef{}, fault.Validation("create entry", "entry has no date")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.ReadType(kind)
	if err != nil {
		return model.LedgerRef{}, err
	}
	number := nextNumber(existing)

	entryID := id.FormatEntryID(int(kind), number)
	newLegs := []model.Leg{
		{
			EntryID:      id.FormatLegID(entryID, 0),
			Date:         p.Date,
			AccountID:    p.DebitAccount,
			Description:  p.Description,
			Debit:        p.Amount,
			Counterparty: p.Counterparty,
			Reference:    p.Reference,
			Status:       model.StatusPosted,
			Memo:         p.Memo,
		},
		{
			EntryID:      id.FormatLegID(entryID, 1),
			Date:         p.Date,
			AccountID:    p.CreditAccount,
			Description:  p.Description,
			Credit:       p.Amount,
			Counterparty: p.Counterparty,
			Reference:    p.Reference,
			Status:       model.StatusPosted,
			Memo:         p.Memo,
		},
	}

	allLegs := append(existing, newLegs...)
	if verrs := ValidateLegs(allLegs, s.accounts, kind); len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, ve := range verrs {
			msgs[i] = ve.Error()
		}
		return model.LedgerRef{}, fault.Validation("create entry", "validation failed: %s", strings.Join(msgs, "; "))
	}

	path := s.typePath(kind)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return model.LedgerRef{}, fmt.Errorf("creating ledger dir: %w", err)
	}

	isNew := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return model.LedgerRef{}, fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()

	if isNew {
		if _, err := fmt.Fprintln(f, Header); err != nil {
			return model.LedgerRef{}, fmt.Errorf("writing header: %w", err)
		}
	}
	if err := AppendLegs(f, newLegs); err != nil {
		return model.LedgerRef{}, fmt.Errorf("appending legs: %w", err)
	}

	ref := model.LedgerRef{Type: kind, Number: number}
	if err := s.commit(fmt.Sprintf("ledger: post %s", ref), kind); err != nil {
		return ref, err
	}
	return ref, nil
}

// Void marks every leg of the entry voided. Voiding twice is an invariant violation.
func (s *Service) Void(ctx context.Context, ref model.LedgerRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ref.Number <= 0 {
		return fault.Validation("void", "invalid ledger number %d", ref.Number)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	legs, err := s.ReadType(ref.Type)
	if err != nil {
		return err
	}

	entryID := id.FormatEntryID(int(ref.Type), ref.Number)
	found := false
	for i := range legs {
		if legs[i].EntryGroup() != entryID {
			continue
		}
		if legs[i].Status == model.StatusVoided {
			return fault.Invariant("void", "%s is already voided", ref)
		}
		legs[i].Status = model.StatusVoided
		found = true
	}
	if !found {
		return fmt.Errorf("void %s: %w", ref, ErrEntryNotFound)
	}

	path := s.typePath(ref.Type)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}
	if err := WriteLegs(f, legs); err != nil {
		f.Close()
		return fmt.Errorf("rewriting ledger: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing ledger: %w", err)
	}

	return s.commit(fmt.Sprintf("ledger: void %s", ref), ref.Type)
}

// Entry returns the legs of one ledger entry.
func (s *Service) Entry(ref model.LedgerRef) ([]model.Leg, error) {
	legs, err := s.ReadType(ref.Type)
	if err != nil {
		return nil, err
	}
	entryID := id.FormatEntryID(int(ref.Type), ref.Number)
	var out []model.Leg
	for _, leg := range legs {
		if leg.EntryGroup() == entryID {
			out = append(out, leg)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", ref, ErrEntryNotFound)
	}
	return out, nil
}

// ReadType reads all legs of one ledger type.
func (s *Service) ReadType(kind model.LedgerType) ([]model.Leg, error) {
	path := s.typePath(kind)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	defer f.Close()

	legs, err := ReadLegs(f)
	if err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", path, err)
	}
	return legs, nil
}

// NextNumber returns the number the next entry of kind will get.
func (s *Service) NextNumber(kind model.LedgerType) (int, error) {
	legs, err := s.ReadType(kind)
	if err != nil {
		return 0, err
	}
	return nextNumber(legs), nil
}

func nextNumber(legs []model.Leg) int {
	maxNum := 0
	for _, leg := range legs {
		_, n, err := id.ParseEntryID(leg.EntryID)
		if err != nil {
			continue
		}
		if n > maxNum {
			maxNum = n
		}
	}
	return maxNum + 1
}

func (s *Service) commit(message string, kind model.LedgerType) error {
	if s.committer == nil {
		return nil
	}
	rel, err := filepath.Rel(s.repoRoot, s.typePath(kind))
	if err != nil {
		return fmt.Errorf("locating ledger file: %w", err)
	}
	if _, err := s.committer.Commit(message, rel); err != nil {
		return fmt.Errorf("committing ledger: %w", err)
	}
	return nil
}

func (s *Service) typePath(kind model.LedgerType) string {
	return filepath.Join(s.repoRoot, "ledger", strconv.Itoa(int(kind)), "journal.csv")
}
