// Package classify decides the counter-party category of an imported
// transaction from its pre-scored ledger match candidates.
package classify

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/reconcile/internal/model"
)

const (
	// MinScore is the lowest top-candidate score that can be auto-classified.
	MinScore = 50
	// MaxCandidates is the candidate count at which a transaction needs manual sorting.
	MaxCandidates = 3
)

// Labels recorded with a decision.
const (
	LabelMatch           = "MATCH"
	LabelQuickEntryMatch = "Quick Entry MATCH"
)

// Reason explains why no decision was made.
type Reason string

const (
	ReasonNoCandidates Reason = "no candidates"
	ReasonManualSort   Reason = "needs manual sort"
	ReasonBelowScore   Reason = "score below threshold"
)

// Decision is the category chosen for a transaction and the candidate it rests on.
type Decision struct {
	Category  model.Category
	Label     string
	Ref       model.LedgerRef
	Score     decimal.Decimal
	Candidate model.MatchCandidate
}

var minScore = decimal.NewFromInt(MinScore)

// Classify maps candidates, sorted by descending score, to a Decision.
// The bool is false when no decision can be made.
func Classify(candidates []model.MatchCandidate) (Decision, bool) {
	d, reason := evaluate(candidates)
	return d, reason == ""
}

func evaluate(candidates []model.MatchCandidate) (Decision, Reason) {
	if len(candidates) == 0 {
		return Decision{}, ReasonNoCandidates
	}
	if len(candidates) >= MaxCandidates {
		return Decision{}, ReasonManualSort
	}

	top := candidates[0]
	if !top.Score.Valid || top.Score.Decimal.LessThan(minScore) {
		return Decision{}, ReasonBelowScore
	}

	d := Decision{
		Label:     LabelMatch,
		Ref:       top.Ref(),
		Score:     top.Score.Decimal,
		Candidate: top,
	}
	switch {
	case top.IsInvoice:
		d.Category = model.CategorySupplier
	case top.LedgerType.QuickEntryEligible():
		d.Category = model.CategoryQuickEntry
		d.Label = LabelQuickEntryMatch
	default:
		d.Category = model.CategoryMatched
	}
	return d, ""
}

// Classifier runs Classify and logs the outcomes that need a human.
type Classifier struct {
	log zerolog.Logger
}

// New creates a Classifier logging to log.
func New(log zerolog.Logger) *Classifier {
	return &Classifier{log: log}
}

// Classify classifies the candidates of transaction txnID.
func (c *Classifier) Classify(txnID int, candidates []model.MatchCandidate) (Decision, bool) {
	d, reason := evaluate(candidates)
	switch reason {
	case "":
		c.log.Debug().
			Int("txn", txnID).
			Str("category", d.Category.Code()).
			Stringer("ref", d.Ref).
			Str("score", d.Score.String()).
			Msg("classified")
		return d, true
	case ReasonManualSort:
		c.log.Info().
			Int("txn", txnID).
			Int("candidates", len(candidates)).
			Msg(string(reason))
	case ReasonBelowScore:
		ev := c.log.Info().Int("txn", txnID).Stringer("ref", candidates[0].Ref())
		if candidates[0].Score.Valid {
			ev = ev.Str("score", candidates[0].Score.Decimal.String())
		}
		ev.Msg(string(reason))
	}
	return Decision{}, false
}

// Explain returns why candidates yield no decision, or "" when they do.
func Explain(candidates []model.MatchCandidate) Reason {
	_, reason := evaluate(candidates)
	return reason
}
