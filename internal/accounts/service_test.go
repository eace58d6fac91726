package accounts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/reconcile/internal/model"
)

func TestGetExists(t *testing.T) {
	svc := NewService(DefaultChart())

	acct, ok := svc.Get(1010)
	assert.True(t, ok)
	assert.Equal(t, "Operating Account", acct.Name)

	_, ok = svc.Get(9999)
	assert.False(t, ok)

	assert.True(t, svc.Exists(2100))
	assert.False(t, svc.Exists(9999))
}

func TestValidate(t *testing.T) {
	require.NoError(t, NewService(DefaultChart()).Validate())

	tests := []struct {
		name  string
		chart []model.Account
		want  string
	}{
		{"zero id", []model.Account{{ID: 0, Name: "Cash", Type: model.AccountTypeAsset}}, "has id 0"},
		{"duplicate", []model.Account{
			{ID: 1010, Name: "Cash", Type: model.AccountTypeAsset},
			{ID: 1010, Name: "Bank", Type: model.AccountTypeAsset},
		}, "listed twice"},
		{"orphan", []model.Account{{ID: 5020, Name: "Rent", Type: model.AccountTypeExpense, ParentID: 5000}}, "parent 5000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewService(tt.chart).Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSaveLoad(t *testing.T) {
	chart := DefaultChart()
	dir := t.TempDir()
	require.NoError(t, NewService(chart).Save(dir))

	_, err := os.Stat(filepath.Join(dir, "accounts", "chart-of-accounts.csv"))
	require.NoError(t, err)

	svc, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, svc.All(), len(chart))
	for _, orig := range chart {
		got, ok := svc.Get(orig.ID)
		require.True(t, ok, "account %d should exist", orig.ID)
		assert.Equal(t, orig, got)
	}
}

func TestSave_Overwrites(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewService(DefaultChart()).Save(dir))
	require.NoError(t, NewService(DefaultChart()[:2]).Save(dir))

	svc, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, svc.All(), 2)

	entries, err := os.ReadDir(filepath.Join(dir, "accounts"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	chart := []model.Account{{ID: 5020, Name: "Rent", Type: model.AccountTypeExpense, ParentID: 5000}}
	require.NoError(t, NewService(chart).Save(dir))

	_, err := Load(dir)
	assert.ErrorContains(t, err, "not in chart")
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
