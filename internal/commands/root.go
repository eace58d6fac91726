package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand(version string) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "reconcile",
		Short:   "Bank statement reconciliation",
		Version: version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "reconcile.yaml", "path to the project config")

	open := func() (*app, error) { return openApp(configPath) }

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newServeCommand(open))
	rootCmd.AddCommand(newListCommand(open))
	rootCmd.AddCommand(newClassifyCommand(open))
	rootCmd.AddCommand(newMatchCommand(open))
	rootCmd.AddCommand(newProcessCommand(open))
	rootCmd.AddCommand(newBothSidesCommand(open))
	for _, a := range simpleActions {
		rootCmd.AddCommand(newActionCommand(open, a))
	}
	rootCmd.AddCommand(newReopenCommand(open))
	rootCmd.AddCommand(newCandidatesCommand(open))

	return rootCmd
}
