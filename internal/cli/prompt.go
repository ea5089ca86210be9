package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"admissionrag/internal/adapter/llm"
)

var (
	promptQuery  string
	promptJSON   bool
	promptOutput string
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Render the prompt for a question without calling the model",
	Long: `Retrieve context for the question and print the prompt that would be sent
to the language model, for pasting into another chat tool or for debugging
retrieval. --json prints the packed context instead.

Examples:
  ragbot prompt -q "경제학과 경쟁률 알려줘"
  ragbot prompt -q "수시 일정" --json -o context.json`,
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().StringVarP(&promptQuery, "query", "q", "", "question (required)")
	promptCmd.Flags().BoolVar(&promptJSON, "json", false, "print the packed context as JSON")
	promptCmd.Flags().StringVarP(&promptOutput, "output", "o", "", "output file (default: stdout)")
	promptCmd.MarkFlagRequired("query")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	assistant, err := newAssistant(ctx, GetConfig(), GetRootDir(), assistantOptions{generator: llm.NewEchoGenerator()})
	if err != nil {
		return err
	}
	defer assistant.Close()

	prompt, packed, err := assistant.Prompt(ctx, promptQuery)
	if err != nil {
		return err
	}

	out := prompt
	if promptJSON {
		data, err := json.MarshalIndent(packed, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal context: %w", err)
		}
		out = string(data)
	}

	if promptOutput != "" {
		if err := os.WriteFile(promptOutput, []byte(out+"\n"), 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		fmt.Printf("Wrote %d snippets (%d chars) to %s\n", len(packed.Snippets), packed.Used, promptOutput)
		return nil
	}

	fmt.Println(out)
	return nil
}
