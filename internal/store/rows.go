package store

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/cleared-dev/reconcile/internal/model"
)

type transactionRow struct {
	ID               int       `gorm:"primaryKey;autoIncrement"`
	StatementRef     string    `gorm:"index"`
	ValueDate        time.Time `gorm:"index"`
	EntryDate        time.Time
	Amount           decimal.Decimal `gorm:"type:decimal(20,2)"`
	Indicator        string          `gorm:"size:1"`
	IndicatorDesc    string
	TransactionCode  string
	Title            string
	Memo             string
	Account          string
	AccountName      string
	BankAccountID    int    `gorm:"index"`
	Status           string `gorm:"index"`
	LedgerType       int    `gorm:"index:idx_ledger_ref"`
	LedgerNumber     int    `gorm:"index:idx_ledger_ref"`
	Category         string `gorm:"size:2"`
	GroupOption      string
	PartyRef         string
	Merchant         string
	MerchantCategory string
	MatchDetails     datatypes.JSON
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (transactionRow) TableName() string { return "imported_transactions" }

func toTransactionRow(t *model.ImportedTransaction) transactionRow {
	return transactionRow{
		ID:               t.ID,
		StatementRef:     t.StatementRef,
		ValueDate:        t.ValueDate,
		EntryDate:        t.EntryDate,
		Amount:           t.Amount,
		Indicator:        string(t.Indicator),
		IndicatorDesc:    t.IndicatorDesc,
		TransactionCode:  t.TransactionCode,
		Title:            t.Title,
		Memo:             t.Memo,
		Account:          t.Account,
		AccountName:      t.AccountName,
		BankAccountID:    t.BankAccountID,
		Status:           string(statusOrDefault(t.Status)),
		LedgerType:       int(t.Ledger.Type),
		LedgerNumber:     t.Ledger.Number,
		Category:         t.Category.Code(),
		GroupOption:      t.GroupOption,
		PartyRef:         t.PartyRef,
		Merchant:         t.Merchant,
		MerchantCategory: t.MerchantCategory,
		MatchDetails:     datatypes.JSON(t.MatchDetails),
	}
}

func (r transactionRow) toModel() model.ImportedTransaction {
	// Unknown codes load as undecided.
	cat, _ := model.ParseCategory(r.Category)
	var details json.RawMessage
	if len(r.MatchDetails) > 0 {
		details = json.RawMessage(r.MatchDetails)
	}
	return model.ImportedTransaction{
		ID:               r.ID,
		StatementRef:     r.StatementRef,
		ValueDate:        r.ValueDate,
		EntryDate:        r.EntryDate,
		Amount:           r.Amount,
		Indicator:        model.Indicator(r.Indicator),
		IndicatorDesc:    r.IndicatorDesc,
		TransactionCode:  r.TransactionCode,
		Title:            r.Title,
		Memo:             r.Memo,
		Account:          r.Account,
		AccountName:      r.AccountName,
		BankAccountID:    r.BankAccountID,
		Status:           model.Status(r.Status),
		Ledger:           model.LedgerRef{Type: model.LedgerType(r.LedgerType), Number: r.LedgerNumber},
		Category:         cat,
		GroupOption:      r.GroupOption,
		PartyRef:         r.PartyRef,
		Merchant:         r.Merchant,
		MerchantCategory: r.MerchantCategory,
		MatchDetails:     details,
	}
}

type candidateRow struct {
	ID            uint `gorm:"primaryKey"`
	TransactionID int  `gorm:"index"`
	Position      int
	LedgerType    int
	LedgerNumber  int
	Date          time.Time
	Account       string
	AccountName   string
	Amount        decimal.Decimal     `gorm:"type:decimal(20,2)"`
	Score         decimal.NullDecimal `gorm:"type:decimal(10,4)"`
	IsInvoice     bool
	PartyRef      string
}

func (candidateRow) TableName() string { return "match_candidates" }

func toCandidateRow(txnID, pos int, c model.MatchCandidate) candidateRow {
	return candidateRow{
		TransactionID: txnID,
		Position:      pos,
		LedgerType:    int(c.LedgerType),
		LedgerNumber:  c.LedgerNumber,
		Date:          c.Date,
		Account:       c.Account,
		AccountName:   c.AccountName,
		Amount:        c.Amount,
		Score:         c.Score,
		IsInvoice:     c.IsInvoice,
		PartyRef:      c.PartyRef,
	}
}

func (r candidateRow) toModel() model.MatchCandidate {
	return model.MatchCandidate{
		LedgerType:   model.LedgerType(r.LedgerType),
		LedgerNumber: r.LedgerNumber,
		Date:         r.Date,
		Account:      r.Account,
		AccountName:  r.AccountName,
		Amount:       r.Amount,
		Score:        r.Score,
		IsInvoice:    r.IsInvoice,
		PartyRef:     r.PartyRef,
	}
}

type partyRow struct {
	ID        int    `gorm:"primaryKey;autoIncrement"`
	Kind      string `gorm:"index"`
	Name      string
	Account   string
	CreatedAt time.Time
}

func (partyRow) TableName() string { return "parties" }

func (r partyRow) toModel() model.Party {
	return model.Party{ID: r.ID, Kind: model.PartyKind(r.Kind), Name: r.Name, Account: r.Account}
}

func statusOrDefault(s model.Status) model.Status {
	if s == "" {
		return model.StatusUnprocessed
	}
	return s
}
