package candidates

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/reconcile/internal/model"
	"github.com/cleared-dev/reconcile/internal/store"
)

const sampleCSV = Header + `
7,20,100,2025-06-02,DE89370400440532013000,ACME GmbH,120.50,75,true,ACME
7,0,3,2025-06-02,,,120.50,,,
8,1,500,,DE02,Landlord,-900.00,80,false,
`

func TestReadRows(t *testing.T) {
	rows, err := ReadRows(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	first := rows[0]
	assert.Equal(t, 7, first.TransactionID)
	assert.Equal(t, model.LedgerSupplierInvoice, first.Candidate.LedgerType)
	assert.Equal(t, 100, first.Candidate.LedgerNumber)
	assert.Equal(t, "ACME GmbH", first.Candidate.AccountName)
	assert.True(t, first.Candidate.Score.Valid)
	assert.Equal(t, "75", first.Candidate.Score.Decimal.String())
	assert.True(t, first.Candidate.IsInvoice)
	assert.Equal(t, "ACME", first.Candidate.PartyRef)

	assert.False(t, rows[1].Candidate.Score.Valid)
	assert.False(t, rows[1].Candidate.IsInvoice)
	assert.True(t, rows[2].Candidate.Date.IsZero())
	assert.Equal(t, "-900.00", rows[2].Candidate.Amount.StringFixed(2))
}

func TestRowsRoundTrip(t *testing.T) {
	rows, err := ReadRows(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteRows(&buf, rows))

	got, err := ReadRows(&buf)
	require.NoError(t, err)
	require.Len(t, got, len(rows))
	for i := range rows {
		assert.Equal(t, rows[i].TransactionID, got[i].TransactionID)
		assert.Equal(t, rows[i].Candidate.Ref(), got[i].Candidate.Ref())
		assert.True(t, rows[i].Candidate.Amount.Equal(got[i].Candidate.Amount))
		assert.Equal(t, rows[i].Candidate.Score.Valid, got[i].Candidate.Score.Valid)
	}
}

func TestReadRows_Errors(t *testing.T) {
	bad := []string{
		"x,20,100,,,,1.00,,,",
		"7,x,100,,,,1.00,,,",
		"7,20,100,06/02/2025,,,1.00,,,",
		"7,20,100,,,,abc,,,",
		"7,20,100,,,,1.00,high,,",
		"7,20,100,,,,1.00,,maybe,",
	}
	for _, line := range bad {
		_, err := ReadRows(strings.NewReader(Header + "\n" + line + "\n"))
		assert.Error(t, err, "line %q", line)
	}

	rows, err := ReadRows(strings.NewReader(Header + "\n"))
	require.NoError(t, err)
	assert.Nil(t, rows)
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.ReplaceCandidates(ctx, 7, []model.MatchCandidate{{LedgerNumber: 42}}))

	rows, err := ReadRows(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	sum, err := Import(ctx, mem, rows)
	require.NoError(t, err)
	assert.Equal(t, Summary{Transactions: 2, Candidates: 3}, sum)

	got, err := mem.Candidates(ctx, 7)
	require.NoError(t, err)
	require.Len(t, got, 2, "previous candidates replaced")
	assert.Equal(t, 100, got[0].LedgerNumber)
	assert.True(t, got[0].Amount.Equal(decimal.RequireFromString("120.5")))
}

func TestScanImportMarkProcessed(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	dir := filepath.Join(root, "import")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "june.csv"), []byte(sampleCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	files, err := Scan(root)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "june.csv", files[0].Name)

	mem := store.NewMemory()
	sum, err := ImportFile(ctx, mem, files[0].Path)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Candidates)

	require.NoError(t, MarkProcessed(root, "june.csv"))
	_, err = os.Stat(filepath.Join(root, "import", "processed", "june.csv"))
	require.NoError(t, err)

	files, err = Scan(root)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScan_NoDir(t *testing.T) {
	files, err := Scan(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, files)
}
