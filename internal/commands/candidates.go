package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/reconcile/internal/candidates"
)

func newCandidatesCommand(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "Match candidate operations",
	}
	cmd.AddCommand(newCandidatesImportCommand(open))
	return cmd
}

func newCandidatesImportCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file...]",
		Short: "Load scored match candidates from CSV",
		Long: "Load scored match candidates from CSV files. With no arguments every CSV\n" +
			"in import/ is loaded and moved to import/processed/.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			ctx := cmd.Context()
			if len(args) > 0 {
				for _, path := range args {
					sum, err := candidates.ImportFile(ctx, a.db, path)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s: %d candidates for %d transactions\n", path, sum.Candidates, sum.Transactions)
				}
				return nil
			}

			files, err := candidates.Scan(a.root)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(out, "nothing to import")
				return nil
			}
			for _, f := range files {
				sum, err := candidates.ImportFile(ctx, a.db, f.Path)
				if err != nil {
					return err
				}
				if err := candidates.MarkProcessed(a.root, f.Name); err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %d candidates for %d transactions\n", f.Name, sum.Candidates, sum.Transactions)
			}
			return nil
		},
	}
}
