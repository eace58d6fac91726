package accounts

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/reconcile/internal/model"
)

func TestRoundTrip(t *testing.T) {
	accounts := []model.Account{
		{ID: 1010, Name: "Operating Account", Type: model.AccountTypeAsset, Description: "Primary bank account"},
		{ID: 5020, Name: "Rent, office", Type: model.AccountTypeExpense, ParentID: 5000},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, accounts))

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	assert.Equal(t, accounts, got)
}

func TestReadAccounts_Errors(t *testing.T) {
	const header = "account_id,account_name,account_type,parent_id,description\n"
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bad id", header + "x,Cash,asset,,\n", "line 2"},
		{"bad parent", header + "1010,Cash,asset,p,\n", "parent_id"},
		{"bad type", header + "1010,Cash,money,,\n", "unknown account_type"},
		{"short row", header + "1010,Cash,asset\n", "wrong number of fields"},
		{"bad header", "id,name,type,parent,desc\n", "unexpected header"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadAccounts(strings.NewReader(tt.input))
			assert.ErrorContains(t, err, tt.want)
		})
	}

	accts, err := ReadAccounts(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, accts)
}

func TestDefaultChartRoundTrip(t *testing.T) {
	chart := DefaultChart()

	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, chart))

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	assert.Equal(t, chart, got)
}

func TestDefaultChart(t *testing.T) {
	types := make(map[model.AccountType]bool)
	for _, acct := range DefaultChart() {
		assert.NotEmpty(t, acct.Name, "account %d missing name", acct.ID)
		types[acct.Type] = true
	}
	assert.Len(t, types, 5, "default chart spans all account types")
}
