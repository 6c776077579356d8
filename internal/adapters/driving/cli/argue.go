package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/caselaw/internal/connectors/filesystem"
	"github.com/custodia-labs/caselaw/internal/core/domain"
)

var (
	argueTitle        string
	argueTopic        string
	argueContent      string
	argueFile         string
	argueProvider     string
	argueModel        string
	argueConversation string
	argueSingleCall   bool
	argueShowSteps    bool
	argueJSON         bool
)

var argueCmd = &cobra.Command{
	Use:   "argue",
	Short: "Draft arguments for a matter from related cases",
	Long: `Finds cases related to the matter and drafts legal arguments grounded in
them. The draft lists the related cases and ends with a disclaimer.

The matter can be described with --content or read from a case file with
--file (any format ingest accepts).`,
	Args: cobra.NoArgs,
	RunE: runArgue,
}

func init() {
	addGenerationFlags(argueCmd, &argueProvider, &argueModel, &argueConversation, &argueJSON)
	argueCmd.Flags().StringVar(&argueTitle, "title", "", "short name of the matter")
	argueCmd.Flags().StringVar(&argueTopic, "topic", "", "legal topic of the matter")
	argueCmd.Flags().StringVar(&argueContent, "content", "", "facts and issues of the matter")
	argueCmd.Flags().StringVarP(&argueFile, "file", "f", "", "read the matter from a case file")
	argueCmd.Flags().BoolVar(&argueSingleCall, "single-call", false, "draft in one call instead of the reasoning chain")
	argueCmd.Flags().BoolVar(&argueShowSteps, "steps", false, "print each reasoning step")
	rootCmd.AddCommand(argueCmd)
}

func runArgue(cmd *cobra.Command, _ []string) error {
	if generationService == nil {
		return errors.New("generation service not configured")
	}

	title, content := argueTitle, argueContent
	if argueFile != "" {
		fileTitle, fileContent, err := readMatter(cmd, argueFile)
		if err != nil {
			return err
		}
		if title == "" {
			title = fileTitle
		}
		if content == "" {
			content = fileContent
		}
	}
	if strings.TrimSpace(title) == "" && strings.TrimSpace(content) == "" {
		return errors.New("describe the matter with --title, --content or --file")
	}

	resp, err := generationService.BuildArguments(cmd.Context(), domain.ArgumentsRequest{
		CaseTitle:      title,
		CaseTopic:      argueTopic,
		CaseContent:    content,
		Provider:       domain.ProviderID(argueProvider),
		Model:          argueModel,
		ConversationID: argueConversation,
		SingleCall:     argueSingleCall,
	})
	if err != nil {
		return fmt.Errorf("drafting arguments failed: %w", err)
	}

	if argueJSON {
		return outputJSON(cmd, resp)
	}
	printResponse(cmd, resp, argueShowSteps)
	return nil
}

// readMatter loads a case file, normalising it when a normaliser is wired.
func readMatter(cmd *cobra.Command, path string) (string, string, error) {
	if normaliser == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", "", fmt.Errorf("reading %s: %w", path, err)
		}
		return "", string(data), nil
	}

	raw, err := filesystem.New().Read(path)
	if err != nil {
		return "", "", err
	}
	result, err := normaliser.Normalise(cmd.Context(), raw)
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", path, err)
	}
	return result.Document.Title, result.Document.Content, nil
}
