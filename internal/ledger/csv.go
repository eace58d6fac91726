package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/reconcile/internal/model"
)

const dateFormat = "2006-01-02"

// Journal columns in file order.
const (
	colEntryID = iota
	colDate
	colAcctID
	colDesc
	colDebit
	colCredit
	colCparty
	colRef
	colStatus
	colMemo
	numFields
)

var columns = [numFields]string{
	"entry_id", "date", "account_id", "description", "debit", "credit",
	"counterparty", "reference", "status", "memo",
}

// Header is the first line of a ledger type's journal.csv.
var Header = strings.Join(columns[:], ",")

// ReadLegs reads a journal.csv. Empty input and a lone header both yield no legs.
func ReadLegs(r io.Reader) ([]model.Leg, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading ledger CSV: %w", err)
	}
	if !slices.Equal(head, columns[:]) {
		return nil, fmt.Errorf("reading ledger CSV: unexpected header %q", strings.Join(head, ","))
	}

	var legs []model.Leg
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return legs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading ledger CSV: %w", err)
		}
		leg, err := UnmarshalLeg(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		legs = append(legs, leg)
	}
}

// WriteLegs writes a complete journal.csv: header, then legs.
func WriteLegs(w io.Writer, legs []model.Leg) error {
	return writeLegs(w, legs, true)
}

// AppendLegs writes legs without a header, for appending to an existing file.
func AppendLegs(w io.Writer, legs []model.Leg) error {
	return writeLegs(w, legs, false)
}

func writeLegs(w io.Writer, legs []model.Leg, header bool) error {
	records := make([][]string, 0, len(legs)+1)
	if header {
		records = append(records, columns[:])
	}
	for _, leg := range legs {
		records = append(records, MarshalLeg(leg))
	}
	if err := csv.NewWriter(w).WriteAll(records); err != nil {
		return fmt.Errorf("writing ledger CSV: %w", err)
	}
	return nil
}

// MarshalLeg converts a Leg to a CSV record. Zero amounts are left blank so
// each leg shows a single side.
func MarshalLeg(leg model.Leg) []string {
	return []string{
		colEntryID: leg.EntryID,
		colDate:    leg.Date.Format(dateFormat),
		colAcctID:  strconv.Itoa(leg.AccountID),
		colDesc:    leg.Description,
		colDebit:   formatAmount(leg.Debit),
		colCredit:  formatAmount(leg.Credit),
		colCparty:  leg.Counterparty,
		colRef:     leg.Reference,
		colStatus:  string(leg.Status),
		colMemo:    leg.Memo,
	}
}

func formatAmount(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.StringFixed(2)
}

// UnmarshalLeg converts a CSV record to a Leg.
func UnmarshalLeg(record []string) (model.Leg, error) {
	if len(record) != numFields {
		return model.Leg{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	p := fieldParser{rec: record}
	leg := model.Leg{
		EntryID:      record[colEntryID],
		Date:         p.date(colDate),
		AccountID:    p.int(colAcctID),
		Description:  record[colDesc],
		Debit:        p.amount(colDebit),
		Credit:       p.amount(colCredit),
		Counterparty: record[colCparty],
		Reference:    record[colRef],
		Status:       model.EntryStatus(record[colStatus]),
		Memo:         record[colMemo],
	}
	if p.err != nil {
		return model.Leg{}, p.err
	}
	return leg, nil
}

// fieldParser keeps the first parse error of a record.
type fieldParser struct {
	rec []string
	err error
}

func (p *fieldParser) fail(col int, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("parsing %s %q: %w", columns[col], p.rec[col], err)
	}
}

func (p *fieldParser) date(col int) time.Time {
	t, err := time.Parse(dateFormat, p.rec[col])
	if err != nil {
		p.fail(col, err)
	}
	return t
}

func (p *fieldParser) int(col int) int {
	n, err := strconv.Atoi(p.rec[col])
	if err != nil {
		p.fail(col, err)
	}
	return n
}

func (p *fieldParser) amount(col int) decimal.Decimal {
	if p.rec[col] == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(p.rec[col])
	if err != nil {
		p.fail(col, err)
	}
	return d
}
