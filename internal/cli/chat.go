package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"admissionrag/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive admissions chat screen",
	Long: `Open a terminal chat screen with the preset question menu. Tab cycles
through the presets, Enter asks, Esc quits.

The index is loaded (or built if missing) before the screen opens.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

	assistant, err := newAssistant(ctx, cfg, GetRootDir(), assistantOptions{})
	if err != nil {
		return err
	}
	defer assistant.Close()

	result, err := assistant.EnsureIndex(ctx, newProgress())
	if err != nil {
		return fmt.Errorf("failed to prepare index: %w", err)
	}
	if result != nil {
		fmt.Printf("Index built: %d chunks from %d sources\n", result.Chunks, result.SourcesLoaded)
	}

	// each question embeds once and generates once, both possibly retried
	attempts := cfg.Retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	timeout := time.Duration(attempts) * (cfg.Embedding.Timeout + cfg.Generation.Timeout)
	return tui.Run(ctx, assistant, timeout)
}
