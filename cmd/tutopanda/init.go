package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/keremk/tutopanda/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the storage root and write the project config file",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(storageDirFlag, 0o755); err != nil {
		return fmt.Errorf("init: create storage dir %s: %w", storageDirFlag, err)
	}
	path := filepath.Join(storageDirFlag, config.FileName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("init: config already exists at %s", path)
	}
	cfg := config.Default(storageDirFlag)
	if err := config.Write(path, cfg); err != nil {
		return fmt.Errorf("init: write config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "initialized tutopanda project at %s\n", storageDirFlag)
	return nil
}
