package accounts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/cleared-dev/reconcile/internal/model"
)

// Header is the first record of chart-of-accounts.csv.
var Header = []string{"account_id", "account_name", "account_type", "parent_id", "description"}

// ReadAccounts reads chart-of-accounts.csv. Empty input yields no accounts.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}
	if !slices.Equal(head, Header) {
		return nil, fmt.Errorf("reading accounts CSV: unexpected header %v", head)
	}

	var accounts []model.Account
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return accounts, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading accounts CSV: %w", err)
		}
		acct, err := parseAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		accounts = append(accounts, acct)
	}
}

// WriteAccounts writes chart-of-accounts.csv.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	records := make([][]string, 0, len(accounts)+1)
	records = append(records, Header)
	for _, acct := range accounts {
		records = append(records, accountRecord(acct))
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("writing accounts CSV: %w", err)
	}
	return nil
}

func accountRecord(acct model.Account) []string {
	parent := ""
	if acct.ParentID != 0 {
		parent = strconv.Itoa(acct.ParentID)
	}
	return []string{strconv.Itoa(acct.ID), acct.Name, string(acct.Type), parent, acct.Description}
}

func parseAccount(rec []string) (model.Account, error) {
	id, err := strconv.Atoi(rec[0])
	if err != nil {
		return model.Account{}, fmt.Errorf("account_id %q is not a number", rec[0])
	}
	acct := model.Account{ID: id, Name: rec[1], Type: model.AccountType(rec[2]), Description: rec[4]}
	if !acct.Type.Valid() {
		return model.Account{}, fmt.Errorf("account %d: unknown account_type %q", id, rec[2])
	}
	if rec[3] != "" {
		if acct.ParentID, err = strconv.Atoi(rec[3]); err != nil {
			return model.Account{}, fmt.Errorf("account %d: parent_id %q is not a number", id, rec[3])
		}
	}
	return acct, nil
}
