// Package auditlog keeps a CSV trail of every reconciliation action and its outcome.
package auditlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one row in the audit log.
type Entry struct {
	ID            string
	Timestamp     time.Time
	Actor         string
	Action        string
	TransactionID int
	Success       bool
	TransType     int
	TransNo       int
	Message       string
	Error         string
}

// Header is the CSV header for audit-log.csv.
const Header = "id,timestamp,actor,action,transaction_id,success,trans_type,trans_no,message,error"

const (
	numFields  = 10
	logDir     = "logs"
	logFile    = "logs/audit-log.csv"
	colID      = 0
	colTime    = 1
	colActor   = 2
	colAction  = 3
	colTxnID   = 4
	colSuccess = 5
	colType    = 6
	colNumber  = 7
	colMessage = 8
	colError   = 9
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colID] = e.ID
	row[colTime] = e.Timestamp.Format(time.RFC3339)
	row[colActor] = e.Actor
	row[colAction] = e.Action
	row[colTxnID] = strconv.Itoa(e.TransactionID)
	row[colSuccess] = strconv.FormatBool(e.Success)
	row[colType] = strconv.Itoa(e.TransType)
	row[colNumber] = strconv.Itoa(e.TransNo)
	row[colMessage] = e.Message
	row[colError] = e.Error
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTime])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTime], err)
	}
	ints := make([]int, 3)
	for i, col := range []int{colTxnID, colType, colNumber} {
		if ints[i], err = strconv.Atoi(record[col]); err != nil {
			return Entry{}, fmt.Errorf("parsing column %d %q: %w", col, record[col], err)
		}
	}
	ok, err := strconv.ParseBool(record[colSuccess])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing success %q: %w", record[colSuccess], err)
	}

	return Entry{
		ID:            record[colID],
		Timestamp:     ts,
		Actor:         record[colActor],
		Action:        record[colAction],
		TransactionID: ints[0],
		Success:       ok,
		TransType:     ints[1],
		TransNo:       ints[2],
		Message:       record[colMessage],
		Error:         record[colError],
	}, nil
}

// Log appends entries under a repository root.
type Log struct {
	root string
	now  func() time.Time
	mu   sync.Mutex
}

// New creates a Log writing to <root>/logs/audit-log.csv.
func New(root string) *Log {
	return &Log{root: root, now: time.Now}
}

// Record stamps e with an id and time when missing and appends it.
func (l *Log) Record(e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now().UTC()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return Append(l.root, []Entry{e})
}

// Append writes entries to <repoRoot>/logs/audit-log.csv, creating the file and header if needed.
func Append(repoRoot string, entries []Entry) error {
	dir := filepath.Join(repoRoot, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(repoRoot, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	return cw.Error()
}

// Read returns all entries from <repoRoot>/logs/audit-log.csv.
// Returns nil if the file does not exist.
func Read(repoRoot string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(repoRoot, logFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
