package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"triage/internal/config"
	"triage/internal/errors"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default triage configuration",
	Long: `Write triage.json with the default configuration and create the
.triage state directory. Defaults to the current directory.

Examples:
  triage init
  triage init ./service
  triage init --force`,
	Args: maxArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Rewrite an existing configuration")
	rootCmd.AddCommand(initCmd)
}

// configNames are the project config files Load probes for.
var configNames = []string{"triage.json", "triage.yaml", "triage.yml", "triage.toml"}

func existingConfig(root string) string {
	for _, name := range configNames {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := resolveTarget(args)
	if err != nil {
		return err
	}

	if existing := existingConfig(root); existing != "" && !initForce {
		// Idempotent: an initialized project is success, so init is safe in CI.
		if jsonOut {
			return printJSON(initResponse{Root: root, ConfigPath: existing, Created: false})
		}
		fmt.Println("Already initialized.")
		fmt.Printf("Configuration at: %s\n", existing)
		fmt.Println("\nRun 'triage init --force' to rewrite the defaults.")
		return nil
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(root); err != nil {
		return errors.NewStorageFailure("write configuration", err)
	}
	if err := os.MkdirAll(filepath.Join(root, ".triage"), 0755); err != nil {
		return errors.NewStorageFailure("create state directory", err)
	}

	configPath := filepath.Join(root, "triage.json")
	if jsonOut {
		return printJSON(initResponse{Root: root, ConfigPath: configPath, Created: true})
	}
	fmt.Println("Initialized.")
	fmt.Printf("Configuration written to: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Run 'triage doctor' to check the setup")
	fmt.Println("  2. Run 'triage scan' for a first report")
	return nil
}

type initResponse struct {
	Root       string `json:"root"`
	ConfigPath string `json:"configPath"`
	Created    bool   `json:"created"`
}
