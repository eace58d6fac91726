package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cleared-dev/reconcile/internal/candidates"
	"github.com/cleared-dev/reconcile/internal/classify"
	"github.com/cleared-dev/reconcile/internal/dispatch"
	"github.com/cleared-dev/reconcile/internal/model"
	"github.com/cleared-dev/reconcile/internal/reconcile"
)

// Suggestion is the classifier's view of a transaction.
type Suggestion struct {
	Decision   classify.Decision
	Decided    bool
	Reason     classify.Reason
	Candidates []model.MatchCandidate
}

// matchDetails is stored on a transaction linked by AutoMatch.
type matchDetails struct {
	Label        string `json:"label"`
	Category     string `json:"category"`
	Score        string `json:"score"`
	LedgerType   int    `json:"ledger_type"`
	LedgerNumber int    `json:"ledger_number"`
}

// Suggest classifies a transaction without changing it.
func (s *Service) Suggest(ctx context.Context, txnID int) (Suggestion, error) {
	txn, err := s.store.Transaction(ctx, txnID)
	if err != nil {
		return Suggestion{}, err
	}
	return s.suggest(ctx, txn)
}

func (s *Service) suggest(ctx context.Context, txn model.ImportedTransaction) (Suggestion, error) {
	cs, err := s.candidates.FindCandidates(ctx, txn, candidates.Around(txn.ValueDate, s.window))
	if err != nil {
		return Suggestion{}, err
	}
	d, ok := s.classifier.Classify(txn.ID, cs)
	sug := Suggestion{Decision: d, Decided: ok, Candidates: cs}
	if !ok {
		sug.Reason = classify.Explain(cs)
	}
	return sug, nil
}

// AutoMatch links a transaction to the candidate the classifier decides on
// and records the decision as match details.
func (s *Service) AutoMatch(ctx context.Context, txnID int) (dispatch.Result, error) {
	ctx, log := s.begin(ctx, txnID)
	txn, err := s.store.Transaction(ctx, txnID)
	if err != nil {
		return dispatch.Result{}, err
	}
	sug, err := s.suggest(ctx, txn)
	if err != nil {
		return dispatch.Result{}, err
	}
	if !sug.Decided {
		res := dispatch.Result{Message: fmt.Sprintf("no match for transaction %d: %s", txnID, sug.Reason)}
		s.record("match", txnID, res)
		return res, nil
	}

	d := sug.Decision
	if err := reconcile.LinkExisting(&txn, d.Ref, d.Candidate.PartyRef); err != nil {
		res, err := outcome(fmt.Sprintf("transaction %d could not be matched", txnID), err)
		if err == nil {
			s.record("match", txnID, res)
		}
		return res, err
	}
	details, err := json.Marshal(matchDetails{
		Label:        d.Label,
		Category:     d.Category.Code(),
		Score:        d.Score.String(),
		LedgerType:   int(d.Ref.Type),
		LedgerNumber: d.Ref.Number,
	})
	if err != nil {
		return dispatch.Result{}, fmt.Errorf("encoding match details: %w", err)
	}
	txn.Category = d.Category
	txn.MatchDetails = details
	if err := s.store.SaveTransaction(ctx, &txn); err != nil {
		return dispatch.Result{}, fmt.Errorf("saving matched transaction: %w", err)
	}

	log.Info().Str("label", d.Label).Stringer("ref", d.Ref).Msg("auto-matched")
	res := dispatch.Ok(d.Ref, fmt.Sprintf("%s: transaction %d matched to %s", d.Label, txnID, d.Ref))
	s.record("match", txnID, res)
	return res, nil
}
