package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

var (
	askProvider     string
	askModel        string
	askMode         string
	askTopic        string
	askTopK         int
	askConversation string
	askShowSteps    bool
	askJSON         bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a research question from the corpus",
	Long: `Retrieves grounding passages for the question and asks an LLM to answer
from them, citing sources by number.

In multi-step mode the model works through a fixed reasoning chain, one
call per step, before writing the final answer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	addGenerationFlags(askCmd, &askProvider, &askModel, &askConversation, &askJSON)
	askCmd.Flags().StringVar(&askMode, "mode", "", "single-call or multi-step (default from config)")
	askCmd.Flags().StringVar(&askTopic, "topic", "", "restrict grounding passages to one legal topic")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of grounding passages (default from config)")
	askCmd.Flags().BoolVar(&askShowSteps, "steps", false, "print each reasoning step")
	rootCmd.AddCommand(askCmd)
}

func addGenerationFlags(cmd *cobra.Command, provider, model, conversation *string, asJSON *bool) {
	cmd.Flags().StringVarP(provider, "provider", "p", "", "LLM provider: openai, deepseek, anthropic, ollama or dummy")
	cmd.Flags().StringVarP(model, "model", "m", "", "model override")
	cmd.Flags().StringVarP(conversation, "conversation", "c", "", "continue a conversation by ID")
	cmd.Flags().BoolVar(asJSON, "json", false, "output the response as JSON")
}

func runAsk(cmd *cobra.Command, args []string) error {
	if generationService == nil {
		return errors.New("generation service not configured")
	}

	req := domain.GenerationRequest{
		Query:          strings.Join(args, " "),
		ConversationID: askConversation,
		Provider:       domain.ProviderID(askProvider),
		Model:          askModel,
		Mode:           domain.GenerationMode(askMode),
		Topic:          askTopic,
		TopK:           askTopK,
	}

	resp, err := generationService.GenerateAnswer(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	if askJSON {
		return outputJSON(cmd, resp)
	}
	printResponse(cmd, resp, askShowSteps)
	return nil
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func printResponse(cmd *cobra.Command, resp *domain.GenerationResponse, showSteps bool) {
	if showSteps {
		for _, step := range resp.Steps {
			cmd.Printf("--- Step %d: %s ---\n", step.Number, step.Name)
			cmd.Println(strings.TrimSpace(step.Output))
			cmd.Println()
		}
	}

	cmd.Println(strings.TrimSpace(resp.Answer))
	cmd.Println()

	if len(resp.RelatedCases) > 0 {
		cmd.Println("Related cases:")
		for _, rc := range resp.RelatedCases {
			label := rc.Title
			if rc.Citation != "" && !strings.Contains(label, rc.Citation) {
				label += " " + rc.Citation
			}
			cmd.Printf("  [%d] %s (%.2f)\n", rc.CitationNumber, label, rc.Similarity)
			if rc.URL != "" {
				cmd.Printf("      %s\n", rc.URL)
			}
		}
		cmd.Println()
	} else if len(resp.Sources) > 0 {
		cmd.Println("Sources:")
		for _, src := range resp.Sources {
			label := src.Title
			if src.Citation != "" && !strings.Contains(label, src.Citation) {
				label += " " + src.Citation
			}
			cmd.Printf("  [%d] %s (%.2f)\n", src.Number, label, src.Score)
		}
		cmd.Println()
	}

	if resp.Disclaimer != "" {
		cmd.Println(resp.Disclaimer)
		cmd.Println()
	}

	qt := ""
	if resp.QueryType != nil {
		qt = fmt.Sprintf(", query=%s", resp.QueryType.Type)
	}
	cmd.Printf("Conversation: %s (%s, %s/%s%s)\n", resp.ConversationID, resp.Mode, resp.Provider, resp.Model, qt)
}
