package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/reconcile/internal/model"
)

func newReopenCommand(open opener) *cobra.Command {
	var ledgerType int
	var number int
	var void bool

	cmd := &cobra.Command{
		Use:   "reopen",
		Short: "Void a ledger entry and reopen the transactions it was created for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()

			ref := model.LedgerRef{Type: model.LedgerType(ledgerType), Number: number}
			var reopened []int
			if void {
				reopened, err = a.svc.VoidLedgerEntry(cmd.Context(), ref)
			} else {
				reopened, err = a.svc.ReopenLedgerEntry(cmd.Context(), ref)
			}
			if err != nil {
				return err
			}

			ids := make([]string, len(reopened))
			for i, n := range reopened {
				ids[i] = fmt.Sprint(n)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: reopened %d transaction(s) %s\n", ref, len(reopened), strings.Join(ids, ","))
			return nil
		},
	}

	cmd.Flags().IntVar(&ledgerType, "type", 0, "ledger type (required)")
	cmd.Flags().IntVar(&number, "number", 0, "ledger number (required)")
	cmd.Flags().BoolVar(&void, "void", true, "void the entry in the ledger first; --void=false when it was voided elsewhere")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("number")

	return cmd
}
