package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var cleanYes bool

var cleanCmd = &cobra.Command{
	Use:   "clean <movie-id>",
	Short: "Remove a movie's recorded state from the storage root",
	Args:  cobra.ExactArgs(1),
	RunE:  runClean,
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanYes, "yes", false, "skip the confirmation prompt")
}

func runClean(cmd *cobra.Command, args []string) error {
	movieID := args[0]
	dir := filepath.Join(storageDirFlag, movieID)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		fmt.Fprintf(cmd.OutOrStdout(), "no data found for movie %q\n", movieID)
		return nil
	}

	if !cleanYes {
		fmt.Fprintf(cmd.OutOrStdout(), "remove all data for movie %q at %s? [y/N] ", movieID, dir)
		reader := bufio.NewReader(cmd.InOrStdin())
		line, _ := reader.ReadString('\n')
		if line != "y\n" && line != "Y\n" && line != "y\r\n" {
			fmt.Fprintln(cmd.OutOrStdout(), "aborted")
			return nil
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clean: remove %s: %w", dir, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed movie %q\n", movieID)
	return nil
}
