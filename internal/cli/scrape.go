package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"admissionrag/config"
	"admissionrag/internal/adapter/scraper"
)

var (
	scrapeURLs   []string
	scrapeOutput string
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Save the text of competition-ratio pages to a file",
	Long: `Fetch each page, extract its visible text and write it to a text file as
"=== URL: <url> ===" sections. The file can then be listed as a text source.

Without --url the scrape sources from the config are used, and without
those the built-in competition-ratio pages.

Examples:
  ragbot scrape -o data/data.txt
  ragbot scrape --url https://addon.jinhakapply.com/RatioV1/RatioH/Ratio10950551.html`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	scrapeCmd.Flags().StringSliceVarP(&scrapeURLs, "url", "u", nil, "page to scrape (repeatable)")
	scrapeCmd.Flags().StringVarP(&scrapeOutput, "output", "o", "data/data.txt", "output file")
}

// scrapeTargets picks the flag URLs, then configured scrape sources, then
// the built-in pages.
func scrapeTargets(cfg *config.Config, flagURLs []string) []string {
	if len(flagURLs) > 0 {
		return flagURLs
	}
	var targets []string
	for _, src := range cfg.Sources {
		if src.Kind != "scrape" {
			continue
		}
		if src.URL != "" {
			targets = append(targets, src.URL)
		} else if src.Path != "" {
			targets = append(targets, src.Path)
		}
	}
	if len(targets) == 0 {
		targets = scraper.DefaultTargets
	}
	return targets
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	targets := scrapeTargets(cfg, scrapeURLs)
	output := config.ResolvePath(GetRootDir(), scrapeOutput)

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fetcher := scraper.NewHTTPFetcher(cfg.Scrape.Timeout, cfg.Scrape.UserAgent)

	fmt.Printf("Scraping %d pages...\n", len(targets))
	result, err := scraper.Dump(cmd.Context(), fetcher, targets, w)
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	fmt.Printf("  Pages written: %d\n", result.Written)
	if len(result.Failed) > 0 {
		fmt.Printf("\nWarnings:\n")
		for target, ferr := range result.Failed {
			fmt.Printf("  - %s: %v\n", target, ferr)
		}
	}
	fmt.Printf("\nSaved to: %s\n", output)

	if result.Written == 0 {
		return fmt.Errorf("no page could be scraped")
	}
	return nil
}
