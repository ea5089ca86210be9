package cli

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"admissionrag/internal/adapter/llm"
	"admissionrag/internal/usecase"
)

var (
	searchText string
	searchTopK int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Show the passages a question retrieves",
	Long: `Embed the question and list the most similar indexed passages without
calling the language model. The index is built first if it is missing.

Examples:
  ragbot search -q "경제학과 경쟁률"
  ragbot search -q "논술전형 일정" --top-k 10 --json`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchText, "query", "q", "", "search query (required)")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.MarkFlagRequired("query")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

	assistant, err := newAssistant(ctx, cfg, GetRootDir(), assistantOptions{generator: llm.NewEchoGenerator()})
	if err != nil {
		return err
	}
	defer assistant.Close()

	topK := cfg.Retrieve.TopK
	if searchTopK > 0 {
		topK = searchTopK
	}

	entries, err := assistant.Retrieve(ctx, searchText, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	results := usecase.ToResults(entries)

	if searchJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(results), searchText)
	for i, r := range results {
		where := r.Source
		if r.Page != "" {
			where += " p." + r.Page
		}
		fmt.Printf("--- [%d] %s (score: %.3f) ---\n", i+1, where, r.Score)
		fmt.Println(truncate(r.Text, 500))
		fmt.Println()
	}
	return nil
}

// truncate shortens text to at most n characters for display.
func truncate(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n]) + "..."
}
