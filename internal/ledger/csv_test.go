package ledger

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/reconcile/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestRoundTrip(t *testing.T) {
	legs := []model.Leg{
		{
			EntryID:      "22-000001a",
			Date:         date(2025, 1, 3),
			AccountID:    2100,
			Description:  "ACME invoice 100",
			Debit:        dec("120.50"),
			Counterparty: "ACME GmbH",
			Reference:    "7",
			Status:       model.StatusPosted,
			Memo:         "NTRF",
		},
		{
			EntryID:      "22-000001b",
			Date:         date(2025, 1, 3),
			AccountID:    1010,
			Description:  "ACME invoice 100",
			Credit:       dec("120.50"),
			Counterparty: "ACME GmbH",
			Reference:    "7",
			Status:       model.StatusPosted,
			Memo:         "NTRF",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteLegs(&buf, legs))
	assert.True(t, strings.HasPrefix(buf.String(), "entry_id,"))

	got, err := ReadLegs(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	for i := range legs {
		assert.Equal(t, legs[i].EntryID, got[i].EntryID)
		assert.True(t, legs[i].Date.Equal(got[i].Date))
		assert.Equal(t, legs[i].AccountID, got[i].AccountID)
		assert.Equal(t, legs[i].Description, got[i].Description)
		assert.True(t, legs[i].Debit.Equal(got[i].Debit), "debit mismatch row %d", i)
		assert.True(t, legs[i].Credit.Equal(got[i].Credit), "credit mismatch row %d", i)
		assert.Equal(t, legs[i].Counterparty, got[i].Counterparty)
		assert.Equal(t, legs[i].Reference, got[i].Reference)
		assert.Equal(t, legs[i].Status, got[i].Status)
		assert.Equal(t, legs[i].Memo, got[i].Memo)
	}
}

func TestMarshalLeg_Amounts(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"4.00", "4.00"},
		{"127.5", "127.50"},
		{"3500", "3500.00"},
	}
	for _, tt := range tests {
		row := MarshalLeg(model.Leg{EntryID: "1-000001a", Date: date(2025, 1, 1), AccountID: 5020, Debit: dec(tt.input)})
		assert.Equal(t, tt.want, row[colDebit], "input %q", tt.input)
		assert.Empty(t, row[colCredit])
	}
}

func TestSpecialCharacters(t *testing.T) {
	leg := model.Leg{
		EntryID:     "2-000004a",
		Date:        date(2025, 1, 15),
		AccountID:   4010,
		Description: `ACME CONSULTING, "Invoice 1042" :: refund`,
		Credit:      dec("3500.00"),
		Status:      model.StatusVoided,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteLegs(&buf, []model.Leg{leg}))

	got, err := ReadLegs(&buf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, leg.Description, got[0].Description)
	assert.Equal(t, model.StatusVoided, got[0].Status)
}

func TestAppendLegs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLegs(&buf, []model.Leg{{EntryID: "1-000001a", Date: date(2025, 1, 3), AccountID: 5020, Debit: dec("4.00")}}))
	require.NoError(t, AppendLegs(&buf, []model.Leg{{EntryID: "1-000002a", Date: date(2025, 1, 5), AccountID: 5020, Debit: dec("1.00")}}))

	got, err := ReadLegs(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1-000002a", got[1].EntryID)
}

func TestReadLegs_Empty(t *testing.T) {
	legs, err := ReadLegs(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, legs)

	legs, err = ReadLegs(strings.NewReader(Header + "\n"))
	require.NoError(t, err)
	assert.Empty(t, legs)
}

func TestUnmarshalLeg_Errors(t *testing.T) {
	good := MarshalLeg(model.Leg{EntryID: "1-000001a", Date: date(2025, 1, 1), AccountID: 5020, Debit: dec("1.00")})

	_, err := UnmarshalLeg(good[:5])
	assert.Error(t, err)

	bad := append([]string(nil), good...)
	bad[colDate] = "01/01/2025"
	_, err = UnmarshalLeg(bad)
	assert.Error(t, err)

	bad = append([]string(nil), good...)
	bad[colDebit] = "x"
	_, err = UnmarshalLeg(bad)
	assert.Error(t, err)
}

func TestReadLegs_Errors(t *testing.T) {
	_, err := ReadLegs(strings.NewReader("id,date,account,description,debit,credit,counterparty,reference,status,memo\n"))
	assert.ErrorContains(t, err, "unexpected header")

	row := strings.Join(MarshalLeg(model.Leg{EntryID: "1-000001a", Date: date(2025, 1, 1), AccountID: 5020}), ",")
	bad := strings.Replace(row, "2025-01-01", "Jan 1", 1)
	_, err = ReadLegs(strings.NewReader(Header + "\n" + row + "\n" + bad + "\n"))
	assert.ErrorContains(t, err, "line 3: parsing date")
}
