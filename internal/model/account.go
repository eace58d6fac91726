package model

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// Valid reports whether t is one of the five account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// Account represents a row in chart-of-accounts.csv.
type Account struct {
	ID          int
	Name        string
	Type        AccountType
	ParentID    int // 0 = top-level
	Description string
}

// BankAccount is one of the organisation's own bank accounts.
type BankAccount struct {
	ID        int
	Name      string
	Number    string
	Currency  string
	GLAccount int // chart account the bank balance posts to
}

// PartyKind distinguishes customers from suppliers.
type PartyKind string

const (
	PartyCustomer PartyKind = "customer"
	PartySupplier PartyKind = "supplier"
)

// Party is a customer or supplier known to the ledger.
type Party struct {
	ID      int
	Kind    PartyKind
	Name    string
	Account string // bank account the party pays from / is paid to
}

// QuickEntry is a preconfigured posting template for routine payments and deposits.
type QuickEntry struct {
	ID        int
	Label     string
	GLAccount int
}
