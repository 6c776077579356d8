package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var providersCheck bool

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List LLM providers and whether they are usable",
	Long: `Lists every LLM provider with its configuration status. With --check each
configured provider is contacted to confirm its endpoint and credentials.`,
	Args: cobra.NoArgs,
	RunE: runProviders,
}

func init() {
	providersCmd.Flags().BoolVar(&providersCheck, "check", false, "contact each configured provider")
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, _ []string) error {
	if providerChecker == nil {
		return errors.New("provider registry not configured")
	}

	statuses := providerChecker(cmd.Context(), providersCheck)
	failed := 0
	for _, st := range statuses {
		switch {
		case !st.Configured:
			cmd.Printf("  %-10s not configured: %v\n", st.ID, st.Err)
		case st.Err != nil:
			failed++
			cmd.Printf("  %-10s error: %v\n", st.ID, st.Err)
		case providersCheck:
			cmd.Printf("  %-10s ok\n", st.ID)
		default:
			cmd.Printf("  %-10s configured\n", st.ID)
		}
	}

	if failed > 0 {
		return errors.New("one or more providers failed the check")
	}
	return nil
}
