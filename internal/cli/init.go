package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"admissionrag/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write rag.yaml with the current settings",
	Long: `Write the effective configuration (defaults plus any loaded config file)
to rag.yaml in the root directory, as a starting point for adding sources or
switching providers.

Examples:
  ragbot init
  ragbot init -d /path/to/bot --force`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing rag.yaml")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := filepath.Join(GetRootDir(), "rag.yaml")
	if err := writeConfig(GetConfig(), path, initForce); err != nil {
		return err
	}
	fmt.Printf("Configuration written to %s\n", path)
	return nil
}

// writeConfig saves cfg to path, refusing to replace an existing file
// unless force is set.
func writeConfig(cfg *config.Config, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
