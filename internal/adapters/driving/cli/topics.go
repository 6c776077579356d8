package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

var topicsCmd = &cobra.Command{
	Use:         "topics",
	Short:       "List the standard legal topics",
	Args:        cobra.NoArgs,
	Annotations: standalone(),
	Run: func(cmd *cobra.Command, _ []string) {
		for _, topic := range domain.LegalTopics() {
			cmd.Println(topic)
		}
	},
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}
