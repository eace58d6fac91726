package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/reconcile/internal/dispatch"
	"github.com/cleared-dev/reconcile/internal/fault"
	"github.com/cleared-dev/reconcile/internal/id"
	"github.com/cleared-dev/reconcile/internal/logger"
	"github.com/cleared-dev/reconcile/internal/model"
	"github.com/cleared-dev/reconcile/internal/reconcile"
	"github.com/cleared-dev/reconcile/internal/service"
	"github.com/cleared-dev/reconcile/internal/store"
)

const dateLayout = "2006-01-02"

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	switch {
	case service.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, fault.ErrValidation), errors.Is(err, fault.ErrUnregisteredHandler):
		return http.StatusBadRequest
	case errors.Is(err, fault.ErrInvariant), errors.Is(err, fault.ErrPrecondition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log := logger.FromContext(c.Request.Context())
		log.Error().Err(err).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func txnParam(c *gin.Context) (int, bool) {
	n, err := id.ParseTransactionID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction ID"})
		return 0, false
	}
	return n, true
}

func ledgerParam(c *gin.Context) (model.LedgerRef, bool) {
	lt, err := strconv.Atoi(c.Param("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ledger type"})
		return model.LedgerRef{}, false
	}
	n, err := strconv.Atoi(c.Param("number"))
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ledger number"})
		return model.LedgerRef{}, false
	}
	return model.LedgerRef{Type: model.LedgerType(lt), Number: n}, true
}

func (s *Server) executeAction(c *gin.Context) {
	var req dispatch.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid action request"})
		return
	}
	res, err := s.svc.Execute(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type processRequest struct {
	Category      string            `json:"category" binding:"required"`
	Form          map[string]string `json:"form"`
	CollectionIDs string            `json:"collection_ids"`
}

func (s *Server) processCategory(c *gin.Context) {
	txnID, ok := txnParam(c)
	if !ok {
		return
	}
	var body processRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category, err := model.ParseCategory(body.Category)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := s.svc.ProcessCategory(c.Request.Context(), txnID, category, body.Form, body.CollectionIDs)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) autoMatch(c *gin.Context) {
	txnID, ok := txnParam(c)
	if !ok {
		return
	}
	res, err := s.svc.AutoMatch(c.Request.Context(), txnID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type suggestionView struct {
	Decided    bool   `json:"decided"`
	Category   string `json:"category,omitempty"`
	Label      string `json:"label,omitempty"`
	Score      string `json:"score,omitempty"`
	TransType  int    `json:"transType"`
	TransNo    int    `json:"transNo"`
	Reason     string `json:"reason,omitempty"`
	Candidates int    `json:"candidates"`
}

func (s *Server) suggest(c *gin.Context) {
	txnID, ok := txnParam(c)
	if !ok {
		return
	}
	sug, err := s.svc.Suggest(c.Request.Context(), txnID)
	if err != nil {
		s.fail(c, err)
		return
	}
	v := suggestionView{Decided: sug.Decided, Reason: string(sug.Reason), Candidates: len(sug.Candidates)}
	if sug.Decided {
		d := sug.Decision
		v.Category = d.Category.Code()
		v.Label = d.Label
		v.Score = d.Score.String()
		v.TransType = int(d.Ref.Type)
		v.TransNo = d.Ref.Number
	}
	c.JSON(http.StatusOK, v)
}

type transactionView struct {
	ID               int             `json:"id"`
	StatementRef     string          `json:"statement_ref"`
	ValueDate        string          `json:"value_date"`
	EntryDate        string          `json:"entry_date"`
	Amount           decimal.Decimal `json:"amount"`
	Indicator        string          `json:"indicator"`
	IndicatorDesc    string          `json:"indicator_desc"`
	TransactionCode  string          `json:"transaction_code"`
	Title            string          `json:"title"`
	Memo             string          `json:"memo"`
	Account          string          `json:"account"`
	AccountName      string          `json:"account_name"`
	BankAccountID    int             `json:"bank_account_id"`
	Status           string          `json:"status"`
	Matched          bool            `json:"matched"`
	Created          bool            `json:"created"`
	TransType        int             `json:"transType"`
	TransNo          int             `json:"transNo"`
	Category         string          `json:"category"`
	GroupOption      string          `json:"group_option"`
	PartyRef         string          `json:"party_ref"`
	Merchant         string          `json:"merchant"`
	MerchantCategory string          `json:"merchant_category"`
	MatchDetails     json.RawMessage `json:"match_details,omitempty"`
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func viewOf(t model.ImportedTransaction) transactionView {
	return transactionView{
		ID:               t.ID,
		StatementRef:     t.StatementRef,
		ValueDate:        formatDate(t.ValueDate),
		EntryDate:        formatDate(t.EntryDate),
		Amount:           t.Amount,
		Indicator:        string(t.Indicator),
		IndicatorDesc:    t.IndicatorDesc,
		TransactionCode:  t.TransactionCode,
		Title:            t.Title,
		Memo:             t.Memo,
		Account:          t.Account,
		AccountName:      t.AccountName,
		BankAccountID:    t.BankAccountID,
		Status:           string(t.Status),
		Matched:          t.Matched(),
		Created:          t.Created(),
		TransType:        int(t.Ledger.Type),
		TransNo:          t.Ledger.Number,
		Category:         t.Category.Code(),
		GroupOption:      t.GroupOption,
		PartyRef:         t.PartyRef,
		Merchant:         t.Merchant,
		MerchantCategory: t.MerchantCategory,
		MatchDetails:     t.MatchDetails,
	}
}

func (s *Server) getTransaction(c *gin.Context) {
	txnID, ok := txnParam(c)
	if !ok {
		return
	}
	txn, err := s.svc.Transaction(c.Request.Context(), txnID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(txn))
}

func (s *Server) listTransactions(c *gin.Context) {
	f := store.Filter{
		Status:       model.Status(c.Query("status")),
		StatementRef: c.Query("statement_ref"),
	}
	for key, dst := range map[string]*int{"bank_account_id": &f.BankAccountID, "limit": &f.Limit, "offset": &f.Offset} {
		v := c.Query(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key})
			return
		}
		*dst = n
	}

	txns, err := s.svc.Transactions(c.Request.Context(), f)
	if err != nil {
		s.fail(c, err)
		return
	}
	views := make([]transactionView, len(txns))
	for i, t := range txns {
		views[i] = viewOf(t)
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

// updateRequest is a PATCH body. Absent fields are left unchanged.
type updateRequest struct {
	TransactionCode  *string          `json:"transaction_code"`
	Account          *string          `json:"account"`
	AccountName      *string          `json:"account_name"`
	ValueDate        *string          `json:"value_date"`
	EntryDate        *string          `json:"entry_date"`
	Amount           *decimal.Decimal `json:"amount"`
	Title            *string          `json:"title"`
	Memo             *string          `json:"memo"`
	StatementRef     *string          `json:"statement_ref"`
	Merchant         *string          `json:"merchant"`
	MerchantCategory *string          `json:"merchant_category"`
	Category         *string          `json:"category"`
	PartyRef         *string          `json:"party_ref"`
	MatchDetails     json.RawMessage  `json:"match_details"`
}

func (u updateRequest) changes() (reconcile.Changes, error) {
	c := reconcile.Changes{
		TransactionCode:  u.TransactionCode,
		Account:          u.Account,
		AccountName:      u.AccountName,
		Amount:           u.Amount,
		Title:            u.Title,
		Memo:             u.Memo,
		StatementRef:     u.StatementRef,
		Merchant:         u.Merchant,
		MerchantCategory: u.MerchantCategory,
		PartyRef:         u.PartyRef,
		MatchDetails:     u.MatchDetails,
	}
	for _, d := range []struct {
		in  *string
		out **time.Time
	}{{u.ValueDate, &c.ValueDate}, {u.EntryDate, &c.EntryDate}} {
		if d.in == nil {
			continue
		}
		t, err := time.Parse(dateLayout, *d.in)
		if err != nil {
			return reconcile.Changes{}, fault.Validation("update", "invalid date %q", *d.in)
		}
		*d.out = &t
	}
	if u.Category != nil {
		cat := model.CategoryNone
		if *u.Category != "" {
			var err error
			if cat, err = model.ParseCategory(*u.Category); err != nil {
				return reconcile.Changes{}, fault.Validation("update", "%v", err)
			}
		}
		c.Category = &cat
	}
	return c, nil
}

func (s *Server) updateTransaction(c *gin.Context) {
	txnID, ok := txnParam(c)
	if !ok {
		return
	}
	var body updateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	changes, err := body.changes()
	if err != nil {
		s.fail(c, err)
		return
	}

	txn, err := s.svc.ApplyUpdate(c.Request.Context(), txnID, changes)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(txn))
}

func (s *Server) voidEntry(c *gin.Context) {
	ref, ok := ledgerParam(c)
	if !ok {
		return
	}
	reopened, err := s.svc.VoidLedgerEntry(c.Request.Context(), ref)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": ref.String() + " voided", "reopened": nonNil(reopened)})
}

func (s *Server) reopenEntry(c *gin.Context) {
	ref, ok := ledgerParam(c)
	if !ok {
		return
	}
	reopened, err := s.svc.ReopenLedgerEntry(c.Request.Context(), ref)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reopened": nonNil(reopened)})
}

func nonNil(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}
