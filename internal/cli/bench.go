package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"admissionrag/internal/adapter/llm"
	"admissionrag/internal/domain"
	"admissionrag/internal/tui"
)

var (
	benchQueries []string
	benchTopK    int
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Report similarity scores of retrieval for sample questions",
	Long: `Run questions against the index and rate how similar the retrieved passages
are. Without --query the preset questions are used. Useful after switching the
embedding model or chunk size.

Examples:
  ragbot bench
  ragbot bench -q "경제학과 경쟁률" -q "논술전형 일정" -k 10`,
	Args: cobra.NoArgs,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)
	benchCmd.Flags().StringArrayVarP(&benchQueries, "query", "q", nil, "question to test (repeatable)")
	benchCmd.Flags().IntVarP(&benchTopK, "top-k", "k", 0, "number of results (default from config)")
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

	assistant, err := newAssistant(ctx, cfg, GetRootDir(), assistantOptions{generator: llm.NewEchoGenerator()})
	if err != nil {
		return err
	}
	defer assistant.Close()

	queries := benchQueries
	if len(queries) == 0 {
		for _, p := range tui.Presets {
			queries = append(queries, p.Question)
		}
	}
	topK := cfg.Retrieve.TopK
	if benchTopK > 0 {
		topK = benchTopK
	}

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Model: %s (%s)\n", modelLabel(cfg.Embedding.Model), cfg.Embedding.Provider)
	fmt.Printf("Chunking: size=%d overlap=%d\n\n", cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)

	var stats benchStats
	for _, q := range queries {
		results, err := assistant.Retrieve(ctx, q, topK)
		if err != nil {
			return fmt.Errorf("search failed for %q: %w", q, err)
		}

		stats.add(results)
		fmt.Printf("Query: %q\n", q)
		fmt.Println(strings.Repeat("-", 70))
		if len(results) == 0 {
			fmt.Println("  no results")
			fmt.Println()
			continue
		}
		for i, r := range results {
			fmt.Printf("%d. [%s %.3f] %s\n", i+1, rating(r.Score), r.Score, r.Entry.Source)
			fmt.Printf("   %s\n", preview(r))
		}
		fmt.Println()
	}

	if stats.scored == 0 {
		fmt.Println("Index is empty.")
		return nil
	}

	avg := stats.average()
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average similarity: %.3f\n", avg)
	fmt.Printf("  Mean top-1:         %.3f (%d/%d queries matched)\n",
		stats.meanTop1(), stats.answered, stats.queries)

	switch {
	case avg > 0.5:
		fmt.Println("  Status: GOOD - retrieved passages match the questions")
	case avg > 0.3:
		fmt.Println("  Status: OK - results are somewhat related")
	default:
		fmt.Println("  Status: POOR - check the embedding model, chunk size or sources")
	}
	return nil
}

// benchStats accumulates similarity scores over benchmark queries.
type benchStats struct {
	queries  int
	answered int // queries with at least one result
	scored   int
	total    float64
	top1     float64
}

func (s *benchStats) add(results []domain.ScoredEntry) {
	s.queries++
	if len(results) == 0 {
		return
	}
	s.answered++
	s.top1 += results[0].Score
	for _, r := range results {
		s.total += r.Score
		s.scored++
	}
}

func (s *benchStats) average() float64 {
	if s.scored == 0 {
		return 0
	}
	return s.total / float64(s.scored)
}

// meanTop1 averages the best score of the queries that matched anything.
func (s *benchStats) meanTop1() float64 {
	if s.answered == 0 {
		return 0
	}
	return s.top1 / float64(s.answered)
}

func rating(similarity float64) string {
	switch {
	case similarity > 0.7:
		return "HIGH"
	case similarity > 0.5:
		return "GOOD"
	case similarity > 0.3:
		return "OK"
	default:
		return "LOW"
	}
}

func preview(r domain.ScoredEntry) string {
	return strings.ReplaceAll(truncate(r.Entry.Text, 150), "\n", " ")
}
