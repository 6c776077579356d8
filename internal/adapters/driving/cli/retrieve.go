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
	retrieveTopK     int
	retrieveTopic    string
	retrieveNoRerank bool
	retrieveJSON     bool
)

var retrieveCmd = &cobra.Command{
	Use:     "retrieve [query]",
	Aliases: []string{"search"},
	Short:   "Find the passages most relevant to a legal question",
	Long: `Embeds the query, finds the nearest stored passages by L2 distance and,
when a reranker is configured, reorders them by relevance.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().IntVarP(&retrieveTopK, "top-k", "k", 5, "maximum number of passages")
	retrieveCmd.Flags().StringVar(&retrieveTopic, "topic", "", "restrict results to one legal topic")
	retrieveCmd.Flags().BoolVar(&retrieveNoRerank, "no-rerank", false, "skip the reranker")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(retrieveCmd)
}

// passageJSON is the JSON form of a retrieved passage.
type passageJSON struct {
	Rank       int     `json:"rank"`
	Score      float64 `json:"score"`
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title,omitempty"`
	Citation   string  `json:"citation,omitempty"`
	Topic      string  `json:"topic,omitempty"`
	Content    string  `json:"content"`
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	query := strings.Join(args, " ")
	opts := domain.SearchOptions{TopK: retrieveTopK, Topic: retrieveTopic, NoRerank: retrieveNoRerank}

	results, err := retrievalService.Search(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if retrieveJSON {
		return outputRetrieveJSON(cmd, results)
	}
	outputRetrieveTable(cmd, results)
	return nil
}

func outputRetrieveJSON(cmd *cobra.Command, results []domain.RankedResult) error {
	out := make([]passageJSON, len(results))
	for i := range results {
		c := results[i].Chunk
		out[i] = passageJSON{
			Rank:       results[i].Rank,
			Score:      results[i].Score,
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			Title:      c.MetaString(domain.MetaTitle),
			Citation:   c.MetaString(domain.MetaCitation),
			Topic:      c.Topic,
			Content:    c.Content,
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputRetrieveTable(cmd *cobra.Command, results []domain.RankedResult) {
	if len(results) == 0 {
		cmd.Println("No passages found.")
		return
	}

	for i := range results {
		c := results[i].Chunk
		title := c.MetaString(domain.MetaTitle)
		if title == "" {
			title = c.DocumentID
		}
		if citation := c.MetaString(domain.MetaCitation); citation != "" && !strings.Contains(title, citation) {
			title += " " + citation
		}

		// Format: [N] Title (Score)
		cmd.Printf("  [%d] %s (%.3f)\n", results[i].Rank, title, results[i].Score)
		if c.Topic != "" {
			cmd.Printf("      Topic: %s\n", c.Topic)
		}
		cmd.Printf("      %s\n", excerpt(c.Content, 240))
		cmd.Println()
	}
}

// excerpt collapses whitespace and truncates s to n runes.
func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
