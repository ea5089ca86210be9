package cli

import (
	"fmt"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"admissionrag/internal/adapter/llm"
	"admissionrag/internal/usecase"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the vector index from the configured sources",
	Long: `Load every configured source, split it into chunks, embed the chunks and
replace the persisted index. Sources that cannot be read are reported and
skipped.

The index is stored in .rag/ within the root directory (see index.dir).

Examples:
  ragbot index
  ragbot index -d /path/to/bot`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	rootDir := GetRootDir()
	ctx := cmd.Context()

	if err := cfg.EnsureIndexDir(rootDir); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	assistant, err := newAssistant(ctx, cfg, rootDir, assistantOptions{generator: llm.NewEchoGenerator()})
	if err != nil {
		return err
	}
	defer assistant.Close()

	fmt.Printf("Indexing %d sources (embedding: %s/%s)...\n",
		len(cfg.Sources), cfg.Embedding.Provider, modelLabel(cfg.Embedding.Model))

	result, err := assistant.Rebuild(ctx, newProgress())
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Printf("\nIndexing complete:\n")
	fmt.Printf("  Sources loaded: %d\n", result.SourcesLoaded)
	fmt.Printf("  Sources failed: %d\n", result.SourcesFailed)
	fmt.Printf("  Documents:      %d\n", result.Documents)
	fmt.Printf("  Chunks:         %d\n", result.Chunks)
	if result.DuplicateChunks > 0 {
		fmt.Printf("  Duplicates:     %d (sources overlap)\n", result.DuplicateChunks)
	}
	fmt.Printf("  Duration:       %s\n", formatDuration(result.Duration))

	if len(result.Errors) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	fmt.Printf("\nIndex stored at: %s\n", cfg.IndexDir(rootDir))
	return nil
}

// newProgress renders one progress bar per build stage.
func newProgress() usecase.ProgressFunc {
	var (
		mu        sync.Mutex
		bar       *progressbar.ProgressBar
		stage     string
		startTime time.Time
	)

	return func(s string, done, total int) {
		mu.Lock()
		defer mu.Unlock()

		if s != stage || bar == nil {
			if bar != nil {
				bar.Finish()
			}
			stage = s
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription(stageLabel(s)),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		bar.Set(done)

		if done > 0 && done < total {
			elapsed := time.Since(startTime)
			rate := float64(done) / elapsed.Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-done)/rate) * time.Second
				bar.Describe(fmt.Sprintf("%s ETA: %s", stageLabel(s), formatDuration(eta)))
			}
		}
	}
}

func stageLabel(stage string) string {
	switch stage {
	case usecase.StageLoad:
		return "[cyan]Loading[reset]"
	case usecase.StageEmbed:
		return "[cyan]Embedding[reset]"
	default:
		return stage
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
