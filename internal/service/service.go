// Package service is the reconciliation controller: it loads transactions,
// runs the classifier and handlers against them, persists the outcome and
// records it in the audit log.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/reconcile/internal/accounts"
	"github.com/cleared-dev/reconcile/internal/auditlog"
	"github.com/cleared-dev/reconcile/internal/candidates"
	"github.com/cleared-dev/reconcile/internal/classify"
	"github.com/cleared-dev/reconcile/internal/dispatch"
	"github.com/cleared-dev/reconcile/internal/fault"
	"github.com/cleared-dev/reconcile/internal/ledger"
	"github.com/cleared-dev/reconcile/internal/logger"
	"github.com/cleared-dev/reconcile/internal/lookup"
	"github.com/cleared-dev/reconcile/internal/model"
	"github.com/cleared-dev/reconcile/internal/process"
	"github.com/cleared-dev/reconcile/internal/store"
)

// DefaultSearchWindowDays bounds candidate dates when Options leaves it unset.
const DefaultSearchWindowDays = 14

// Ledger posts and voids ledger entries.
type Ledger = ledger.Writer

// Recorder receives one entry per action.
type Recorder interface {
	Record(e auditlog.Entry) error
}

// Options configures a Service.
type Options struct {
	Store        store.Store
	Ledger       Ledger
	Accounts     accounts.Resolver
	Candidates   candidates.Source
	Chart        lookup.Chart
	QuickEntries []model.QuickEntry
	Audit        Recorder
	Log          zerolog.Logger

	Receivables      int
	Payables         int
	SearchWindowDays int
	// Actor names the caller in audit entries, e.g. "api" or "cli".
	Actor string
}

// Service reconciles imported transactions.
type Service struct {
	store      store.Store
	ledger     Ledger
	accounts   accounts.Resolver
	candidates candidates.Source
	classifier *classify.Classifier
	registry   *dispatch.Registry
	transfer   *process.Transfer
	dual       *dispatch.DualSide
	commands   dispatch.Commands
	chart      lookup.Chart
	quick      []model.QuickEntry
	audit      Recorder
	log        zerolog.Logger
	window     int
	actor      string
}

// New creates a Service with a handler registered for every category.
func New(o Options) *Service {
	s := &Service{
		store:      o.Store,
		ledger:     o.Ledger,
		accounts:   o.Accounts,
		candidates: o.Candidates,
		classifier: classify.New(o.Log),
		registry:   dispatch.NewRegistry(),
		commands:   dispatch.DefaultCommands(),
		chart:      o.Chart,
		quick:      o.QuickEntries,
		audit:      o.Audit,
		log:        o.Log,
		window:     o.SearchWindowDays,
		actor:      o.Actor,
	}
	if s.window == 0 {
		s.window = DefaultSearchWindowDays
	}
	if s.actor == "" {
		s.actor = "reconcile"
	}
	if s.candidates == nil && o.Store != nil {
		s.candidates = candidates.NewStoreSource(o.Store)
	}
	s.transfer = process.RegisterAll(s.registry, process.Deps{
		Store:       o.Store,
		Ledger:      o.Ledger,
		Accounts:    o.Accounts,
		Log:         o.Log,
		Receivables: o.Receivables,
		Payables:    o.Payables,
	})
	s.dual = dispatch.NewDualSide(s)
	return s
}

// Registry exposes the category registry so handlers can be replaced.
func (s *Service) Registry() *dispatch.Registry { return s.registry }

// DualSide exposes the dual-side dispatcher so its processor can be replaced.
func (s *Service) DualSide() *dispatch.DualSide { return s.dual }

// begin scopes a request: fresh lookups and a logger carrying the
// transaction id.
func (s *Service) begin(ctx context.Context, txnID int) (context.Context, zerolog.Logger) {
	ctx = lookup.WithContext(ctx, lookup.New(s.chart, s.store, s.quick))
	log := s.log
	if l := logger.FromContext(ctx); l.GetLevel() != zerolog.Disabled {
		log = l
	}
	if txnID != 0 {
		log = log.With().Int("txn", txnID).Logger()
	}
	return ctx, log
}

// Transaction returns one imported transaction.
func (s *Service) Transaction(ctx context.Context, id int) (model.ImportedTransaction, error) {
	return s.store.Transaction(ctx, id)
}

// Transactions lists imported transactions.
func (s *Service) Transactions(ctx context.Context, f store.Filter) ([]model.ImportedTransaction, error) {
	return s.store.ListTransactions(ctx, f)
}

// Import stores new imported transactions, assigning their ids.
func (s *Service) Import(ctx context.Context, txns []model.ImportedTransaction) ([]int, error) {
	ids := make([]int, 0, len(txns))
	err := s.store.Transact(ctx, func(st store.Store) error {
		for i := range txns {
			txns[i].ID = 0
			if err := st.SaveTransaction(ctx, &txns[i]); err != nil {
				return fmt.Errorf("importing transaction %d: %w", i+1, err)
			}
			ids = append(ids, txns[i].ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Service) record(action string, txnID int, res dispatch.Result) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(auditlog.Entry{
		Actor:         s.actor,
		Action:        action,
		TransactionID: txnID,
		Success:       res.Success,
		TransType:     res.TransType,
		TransNo:       res.TransNo,
		Message:       res.Message,
		Error:         res.Error,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("writing audit entry")
	}
}

// outcome turns err into a failed Result when it is a reconciliation
// failure. Other errors, such as a missing record, are returned.
func outcome(message string, err error) (dispatch.Result, error) {
	if fault.KindOf(err) != "" {
		return dispatch.Failed(message, err), nil
	}
	return dispatch.Result{}, err
}

// IsNotFound reports whether err means the transaction or entry does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound) || errors.Is(err, ledger.ErrEntryNotFound)
}
