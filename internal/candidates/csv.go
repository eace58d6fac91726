package candidates

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/reconcile/internal/model"
	"github.com/cleared-dev/reconcile/internal/store"
)

// Header is the CSV header of a candidate file.
const Header = "transaction_id,ledger_type,ledger_number,date,account,account_name,amount,score,is_invoice,party_ref"

const (
	numFields    = 10
	dateFormat   = "2006-01-02"
	colTxnID     = 0
	colType      = 1
	colNumber    = 2
	colDate      = 3
	colAccount   = 4
	colAcctName  = 5
	colAmount    = 6
	colScore     = 7
	colIsInvoice = 8
	colPartyRef  = 9
)

// Row is one candidate line: the transaction it belongs to and the candidate.
type Row struct {
	TransactionID int
	Candidate     model.MatchCandidate
}

// ReadRows reads a candidate CSV.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading candidate CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		row, err := UnmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteRows writes rows with a header.
func WriteRows(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(MarshalRow(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalRow converts a Row to CSV fields.
func MarshalRow(row Row) []string {
	c := row.Candidate
	rec := make([]string, numFields)
	rec[colTxnID] = strconv.Itoa(row.TransactionID)
	rec[colType] = strconv.Itoa(int(c.LedgerType))
	rec[colNumber] = strconv.Itoa(c.LedgerNumber)
	if !c.Date.IsZero() {
		rec[colDate] = c.Date.Format(dateFormat)
	}
	rec[colAccount] = c.Account
	rec[colAcctName] = c.AccountName
	rec[colAmount] = c.Amount.StringFixed(2)
	if c.Score.Valid {
		rec[colScore] = c.Score.Decimal.String()
	}
	rec[colIsInvoice] = strconv.FormatBool(c.IsInvoice)
	rec[colPartyRef] = c.PartyRef
	return rec
}

// UnmarshalRow parses CSV fields. Date, score, is_invoice and party_ref may be empty.
func UnmarshalRow(rec []string) (Row, error) {
	if len(rec) != numFields {
		return Row{}, fmt.Errorf("expected %d fields, got %d", numFields, len(rec))
	}

	txnID, err := strconv.Atoi(rec[colTxnID])
	if err != nil {
		return Row{}, fmt.Errorf("parsing transaction_id %q: %w", rec[colTxnID], err)
	}
	lt, err := strconv.Atoi(rec[colType])
	if err != nil {
		return Row{}, fmt.Errorf("parsing ledger_type %q: %w", rec[colType], err)
	}
	number, err := strconv.Atoi(rec[colNumber])
	if err != nil {
		return Row{}, fmt.Errorf("parsing ledger_number %q: %w", rec[colNumber], err)
	}

	var date time.Time
	if rec[colDate] != "" {
		date, err = time.Parse(dateFormat, rec[colDate])
		if err != nil {
			return Row{}, fmt.Errorf("parsing date %q: %w", rec[colDate], err)
		}
	}

	amount, err := decimal.NewFromString(rec[colAmount])
	if err != nil {
		return Row{}, fmt.Errorf("parsing amount %q: %w", rec[colAmount], err)
	}

	var score decimal.NullDecimal
	if rec[colScore] != "" {
		d, err := decimal.NewFromString(rec[colScore])
		if err != nil {
			return Row{}, fmt.Errorf("parsing score %q: %w", rec[colScore], err)
		}
		score = decimal.NewNullDecimal(d)
	}

	var isInvoice bool
	if rec[colIsInvoice] != "" {
		isInvoice, err = strconv.ParseBool(rec[colIsInvoice])
		if err != nil {
			return Row{}, fmt.Errorf("parsing is_invoice %q: %w", rec[colIsInvoice], err)
		}
	}

	return Row{
		TransactionID: txnID,
		Candidate: model.MatchCandidate{
			LedgerType:   model.LedgerType(lt),
			LedgerNumber: number,
			Date:         date,
			Account:      rec[colAccount],
			AccountName:  rec[colAcctName],
			Amount:       amount,
			Score:        score,
			IsInvoice:    isInvoice,
			PartyRef:     rec[colPartyRef],
		},
	}, nil
}

// Summary reports what an import stored.
type Summary struct {
	Transactions int
	Candidates   int
}

// Import replaces the stored candidates of every transaction named in rows.
// Rows keep their file order within a transaction.
func Import(ctx context.Context, s store.CandidateStore, rows []Row) (Summary, error) {
	byTxn := make(map[int][]model.MatchCandidate)
	var order []int
	for _, row := range rows {
		if _, seen := byTxn[row.TransactionID]; !seen {
			order = append(order, row.TransactionID)
		}
		byTxn[row.TransactionID] = append(byTxn[row.TransactionID], row.Candidate)
	}

	var sum Summary
	for _, txnID := range order {
		cs := byTxn[txnID]
		if err := s.ReplaceCandidates(ctx, txnID, cs); err != nil {
			return sum, fmt.Errorf("importing candidates of %d: %w", txnID, err)
		}
		sum.Transactions++
		sum.Candidates += len(cs)
	}
	return sum, nil
}

// FileInfo describes a CSV file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

const (
	importDir    = "import"
	processedDir = "import/processed"
)

// Scan returns candidate CSV files in <root>/import/.
func Scan(root string) ([]FileInfo, error) {
	dir := filepath.Join(root, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{Name: e.Name(), Path: filepath.Join(dir, e.Name()), Size: info.Size()})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(root, fileName string) error {
	dstDir := filepath.Join(root, processedDir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}
	src := filepath.Join(root, importDir, fileName)
	if err := os.Rename(src, filepath.Join(dstDir, fileName)); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}

// ImportFile reads path and imports its rows.
func ImportFile(ctx context.Context, s store.CandidateStore, path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rows, err := ReadRows(f)
	if err != nil {
		return Summary{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return Import(ctx, s, rows)
}
