// Command tutopanda drives the planner and runner over a movie's
// blueprint, inputs, and event log: init creates a storage root, generate
// plans and (unless --dry-run) executes a build, clean removes a movie's
// recorded state.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/keremk/tutopanda/internal/config"
)

var storageDirFlag string

var rootCmd = &cobra.Command{
	Use:   "tutopanda",
	Short: "Content-addressed planner and runner for video-generation pipelines",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storageDirFlag, "storage-dir", ".", "project storage root")
	rootCmd.AddCommand(initCmd, generateCmd, cleanCmd)
}

func configPath() string {
	return filepath.Join(storageDirFlag, config.FileName)
}

func loadConfig() (config.Config, error) {
	return config.Load(configPath())
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "tutopanda:", err)
	os.Exit(1)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fail(err)
	}
}
