package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatEntryID(t *testing.T) {
	tests := []struct {
		ledgerType, number int
		want               string
	}{
		{22, 1, "22-000001"},
		{4, 99, "4-000099"},
		{0, 123456, "0-123456"},
	}
	for _, tt := range tests {
		got := FormatEntryID(tt.ledgerType, tt.number)
		assert.Equal(t, tt.want, got)
	}
}

func TestFormatLegID(t *testing.T) {
	tests := []struct {
		entryID string
		leg     int
		want    string
	}{
		{"22-000001", 0, "22-000001a"},
		{"22-000001", 1, "22-000001b"},
		{"22-000001", 2, "22-000001c"},
	}
	for _, tt := range tests {
		got := FormatLegID(tt.entryID, tt.leg)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseEntryID(t *testing.T) {
	tests := []struct {
		input      string
		wantType   int
		wantNumber int
	}{
		{"22-000001", 22, 1},
		{"4-000099", 4, 99},
		{"12-000041a", 12, 41},
		{"12-000041b", 12, 41},
	}
	for _, tt := range tests {
		lt, n, err := ParseEntryID(tt.input)
		require.NoError(t, err, "input: %s", tt.input)
		assert.Equal(t, tt.wantType, lt)
		assert.Equal(t, tt.wantNumber, n)
	}
}

func TestParseEntryID_Errors(t *testing.T) {
	badInputs := []string{
		"",
		"not-valid",
		"22",
		"x-000001",
		"22-000000",
	}
	for _, input := range badInputs {
		_, _, err := ParseEntryID(input)
		assert.Error(t, err, "expected error for input: %s", input)
	}
}

func TestEntryGroup(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"22-000001a", "22-000001"},
		{"22-000001b", "22-000001"},
		{"22-000001", "22-000001"},
		{"", ""},
	}
	for _, tt := range tests {
		got := EntryGroup(tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseTransactionID(t *testing.T) {
	n, err := ParseTransactionID(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	for _, bad := range []string{"", "abc", "0", "-3", "1.5"} {
		_, err := ParseTransactionID(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestParseIDList(t *testing.T) {
	ids, err := ParseIDList("3, 4,,5")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4, 5}, ids)

	ids, err = ParseIDList("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = ParseIDList("3,x")
	assert.Error(t, err)
}
