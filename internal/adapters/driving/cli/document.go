package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"documents", "doc"},
	Short:   "Manage ingested cases",
	Long:    `List, view, inspect or remove ingested cases.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested cases",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show case info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentContentCmd = &cobra.Command{
	Use:   "content [doc-id]",
	Short: "Print case text",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentContent,
}

var documentChunksCmd = &cobra.Command{
	Use:   "chunks [doc-id]",
	Short: "List a case's stored passages",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentChunks,
}

var documentRemoveCmd = &cobra.Command{
	Use:     "remove [doc-id]",
	Aliases: []string{"rm"},
	Short:   "Remove a case and its passages",
	Args:    cobra.ExactArgs(1),
	RunE:    runDocumentRemove,
}

var (
	documentListTopic string
	documentListJSON  bool
)

func init() {
	documentListCmd.Flags().StringVar(&documentListTopic, "topic", "", "only list cases with this topic")
	documentListCmd.Flags().BoolVar(&documentListJSON, "json", false, "output as JSON")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentContentCmd)
	documentCmd.AddCommand(documentChunksCmd)
	documentCmd.AddCommand(documentRemoveCmd)
	rootCmd.AddCommand(documentCmd)
}

// documentJSON is the JSON form of a listed case.
type documentJSON struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Topic string `json:"topic,omitempty"`
	URL   string `json:"url,omitempty"`
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(cmd.Context(), documentListTopic)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if documentListJSON {
		out := make([]documentJSON, len(docs))
		for i := range docs {
			out[i] = documentJSON{ID: docs[i].ID, Title: docs[i].Title, Topic: docs[i].Topic, URL: docs[i].URL}
		}
		return outputJSON(cmd, out)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Title: %s\n", docs[i].Title)
		if docs[i].Topic != "" {
			cmd.Printf("    Topic: %s\n", docs[i].Topic)
		}
		if docs[i].URL != "" {
			cmd.Printf("    URL: %s\n", docs[i].URL)
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	ctx := cmd.Context()
	doc, err := documentService.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	chunks, err := documentService.Chunks(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Title:    %s\n", doc.Title)
	if doc.Topic != "" {
		cmd.Printf("  Topic:    %s\n", doc.Topic)
	}
	if doc.URL != "" {
		cmd.Printf("  URL:      %s\n", doc.URL)
	}
	if doc.Summary != "" {
		cmd.Printf("  Summary:  %s\n", doc.Summary)
	}
	cmd.Printf("  Chunks:   %d\n", len(chunks))
	cmd.Printf("  Created:  %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:  %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))

	if len(doc.Metadata) > 0 {
		keys := make([]string, 0, len(doc.Metadata))
		for k := range doc.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		cmd.Println("\n  Metadata:")
		for _, k := range keys {
			cmd.Printf("    %s: %v\n", k, doc.Metadata[k])
		}
	}

	return nil
}

func runDocumentContent(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document content: %w", err)
	}

	cmd.Println(doc.Content)
	return nil
}

func runDocumentChunks(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	chunks, err := documentService.Chunks(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}
	if len(chunks) == 0 {
		cmd.Printf("No chunks stored for %s.\n", args[0])
		return nil
	}

	for i := range chunks {
		c := chunks[i]
		cmd.Printf("  %s (position %d, %d chars)\n", c.ID, c.Position, len(c.Content))
		cmd.Printf("    %s\n", excerpt(c.Content, 160))
	}
	cmd.Printf("\nTotal: %d chunks\n", len(chunks))
	return nil
}

func runDocumentRemove(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	if err := ingestService.RemoveDocument(cmd.Context(), args[0]); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("document %s not found", args[0])
		}
		return fmt.Errorf("failed to remove document: %w", err)
	}

	cmd.Printf("Document %s removed.\n", args[0])
	return nil
}
