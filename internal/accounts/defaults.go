package accounts

import "github.com/cleared-dev/reconcile/internal/model"

// DefaultChart returns the chart of accounts a new project starts with.
// It carries the bank, control and suspense accounts reconciliation posts to.
func DefaultChart() []model.Account {
	return []model.Account{
		{ID: 1010, Name: "Operating Account", Type: model.AccountTypeAsset, Description: "Primary bank account"},
		{ID: 1020, Name: "Savings Account", Type: model.AccountTypeAsset, Description: "Savings bank account"},
		{ID: 1200, Name: "Accounts Receivable", Type: model.AccountTypeAsset, Description: "Customer balances"},
		{ID: 1900, Name: "Suspense", Type: model.AccountTypeAsset, Description: "Unidentified receipts and payments"},
		{ID: 2100, Name: "Accounts Payable", Type: model.AccountTypeLiability, Description: "Supplier balances"},
		{ID: 3010, Name: "Owner's Equity", Type: model.AccountTypeEquity},
		{ID: 4010, Name: "Sales", Type: model.AccountTypeRevenue},
		{ID: 4090, Name: "Interest Income", Type: model.AccountTypeRevenue},
		{ID: 5010, Name: "Bank Charges", Type: model.AccountTypeExpense},
		{ID: 5020, Name: "Rent", Type: model.AccountTypeExpense},
		{ID: 5030, Name: "Utilities", Type: model.AccountTypeExpense},
	}
}
