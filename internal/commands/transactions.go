package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/reconcile/internal/dispatch"
	"github.com/cleared-dev/reconcile/internal/id"
	"github.com/cleared-dev/reconcile/internal/model"
	"github.com/cleared-dev/reconcile/internal/store"
)

// printResult writes res and turns a failed result into an error so the
// command exits non-zero.
func printResult(w io.Writer, res dispatch.Result) error {
	if !res.Success {
		if res.Error != "" {
			return fmt.Errorf("%s: %s", res.Message, res.Error)
		}
		return errors.New(res.Message)
	}
	fmt.Fprintln(w, res.Message)
	if res.Error != "" {
		fmt.Fprintf(w, "warning: %s\n", res.Error)
	}
	return nil
}

func txnArg(args []string) (int, error) {
	txnID, err := id.ParseTransactionID(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid transaction id %q", args[0])
	}
	return txnID, nil
}

func newListCommand(open opener) *cobra.Command {
	var f store.Filter
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List imported transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()

			f.Status = model.Status(status)
			txns, err := a.svc.Transactions(cmd.Context(), f)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tAMOUNT\tSTATUS\tLEDGER\tTITLE")
			for _, t := range txns {
				ref := ""
				if !t.Ledger.IsZero() {
					ref = t.Ledger.String()
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
					t.ID, t.ValueDate.Format("2006-01-02"), t.Amount.StringFixed(2), t.Status, ref, t.Title)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "only transactions in this status")
	cmd.Flags().IntVar(&f.BankAccountID, "bank", 0, "only transactions of this bank account")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "maximum number of rows")

	return cmd
}

func newClassifyCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <transaction-id>",
		Short: "Show the classifier's decision for a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txnID, err := txnArg(args)
			if err != nil {
				return err
			}
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()

			sug, err := a.svc.Suggest(cmd.Context(), txnID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !sug.Decided {
				fmt.Fprintf(out, "transaction %d: %s (%d candidates)\n", txnID, sug.Reason, len(sug.Candidates))
				return nil
			}
			d := sug.Decision
			fmt.Fprintf(out, "transaction %d: %s %s %s score %s\n", txnID, d.Category.Code(), d.Label, d.Ref, d.Score.String())
			return nil
		},
	}
}

func newMatchCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "match <transaction-id>",
		Short: "Link a transaction to the candidate the classifier decides on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txnID, err := txnArg(args)
			if err != nil {
				return err
			}
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.svc.AutoMatch(cmd.Context(), txnID)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}
}

func newProcessCommand(open opener) *cobra.Command {
	var category string
	var form map[string]string
	var collection string

	cmd := &cobra.Command{
		Use:   "process <transaction-id>",
		Short: "Post a transaction through a category handler",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txnID, err := txnArg(args)
			if err != nil {
				return err
			}
			cat, err := model.ParseCategory(category)
			if err != nil {
				return err
			}
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.svc.ProcessCategory(cmd.Context(), txnID, cat, form, collection)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "category code: SP, CU, QE, BT, MA or ZZ (required)")
	_ = cmd.MarkFlagRequired("category")
	cmd.Flags().StringToStringVar(&form, "form", nil, "form fields, e.g. --form quick_entry=Rent")
	cmd.Flags().StringVar(&collection, "collection", "", "comma-separated ids processed along with the transaction")

	return cmd
}

func newBothSidesCommand(open opener) *cobra.Command {
	var partner int

	cmd := &cobra.Command{
		Use:   "both-sides <transaction-id>",
		Short: "Post a transfer between two own bank accounts from both statement lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txnID, err := txnArg(args)
			if err != nil {
				return err
			}
			token := "Process"
			if partner > 0 {
				token = strconv.Itoa(partner)
			}
			return execute(cmd, open, dispatch.Request{
				dispatch.ActionProcessBothSides: {strconv.Itoa(txnID): token},
			})
		},
	}

	cmd.Flags().IntVar(&partner, "partner", 0, "counterpart transaction id (searched for when omitted)")

	return cmd
}

type simpleAction struct {
	use    string
	short  string
	action string
	token  string
}

var simpleActions = []simpleAction{
	{"unset", "Return a matched or created transaction to unprocessed", dispatch.ActionUnsetTrans, "Unset"},
	{"toggle", "Flip a transaction between debit and credit", dispatch.ActionToggleTransaction, "Toggle"},
	{"add-customer", "Create a customer from a transaction's counter-party", dispatch.ActionAddCustomer, "Add"},
	{"add-vendor", "Create a supplier from a transaction's counter-party", dispatch.ActionAddVendor, "Add"},
}

func newActionCommand(open opener, sa simpleAction) *cobra.Command {
	return &cobra.Command{
		Use:   sa.use + " <transaction-id>",
		Short: sa.short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txnID, err := txnArg(args)
			if err != nil {
				return err
			}
			return execute(cmd, open, dispatch.Request{sa.action: {strconv.Itoa(txnID): sa.token}})
		},
	}
}

func execute(cmd *cobra.Command, open opener, req dispatch.Request) error {
	a, err := open()
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.svc.Execute(cmd.Context(), req)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), res)
}
