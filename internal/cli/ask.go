package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"admissionrag/internal/tui"
)

var (
	askQuery      string
	askPreset     string
	askTopK       int
	askJSON       bool
	askShowPrompt bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer an admissions question",
	Long: `Retrieve the passages most relevant to the question, send them with the
question to the configured language model and print the answer.

Presets (--preset takes the number or the title):
` + presetHelp() + `
Examples:
  ragbot ask "경제학과 경쟁률 알려줘"
  ragbot ask --preset 3
  ragbot ask -q "논술전형 일정" --show-prompt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuery, "query", "q", "", "question to ask")
	askCmd.Flags().StringVarP(&askPreset, "preset", "p", "", "ask a preset question by number or title")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "passages to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.Flags().BoolVar(&askShowPrompt, "show-prompt", false, "print the prompt sent to the model")
}

func presetHelp() string {
	var b strings.Builder
	for i, p := range tui.Presets {
		fmt.Fprintf(&b, "  %d. %s: %s\n", i+1, p.Title, p.Question)
	}
	return b.String()
}

// resolveQuestion picks the question from args, --query or --preset.
func resolveQuestion(args []string, query, preset string) (string, error) {
	switch {
	case len(args) > 0 && strings.TrimSpace(args[0]) != "":
		return args[0], nil
	case strings.TrimSpace(query) != "":
		return query, nil
	case preset != "":
		p, ok := tui.FindPreset(preset)
		if !ok {
			return "", fmt.Errorf("unknown preset %q", preset)
		}
		return p.Question, nil
	default:
		return "", fmt.Errorf("a question is required: pass it as an argument, with --query or --preset")
	}
}

func runAsk(cmd *cobra.Command, args []string) error {
	question, err := resolveQuestion(args, askQuery, askPreset)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	assistant, err := newAssistant(ctx, GetConfig(), GetRootDir(), assistantOptions{topK: askTopK})
	if err != nil {
		return err
	}
	defer assistant.Close()

	answer, err := assistant.Answer(ctx, question)
	if err != nil {
		return err
	}

	if askJSON {
		output, _ := json.MarshalIndent(answer, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if askShowPrompt {
		fmt.Println("=== Prompt ===")
		fmt.Println(answer.Prompt)
		fmt.Println()
	}
	fmt.Printf("질문: %s\n\n", question)
	fmt.Println("#### 답변")
	fmt.Println(answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Printf("\n출처: %s\n", strings.Join(answer.Sources, ", "))
	}
	return nil
}
