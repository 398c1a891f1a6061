package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docfold/slicecache"
)

var getJSON bool

var getCmd = &cobra.Command{
	Use:   "get [KEY]",
	Short: "Show the cached view configuration for one document",
	Long: `Show the cached view configuration for the document identified by KEY.

Keys are the absolute file paths the host viewer used, verbatim and
case-sensitive.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	getCmd.Flags().BoolVar(&getJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	cache, err := openCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	rec, err := cache.Get(context.Background(), key)
	if err != nil {
		if errors.Is(err, slicecache.ErrNotFound) {
			return fmt.Errorf("no record for %q", key)
		}
		return fmt.Errorf("reading record: %w", err)
	}

	if getJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	fmt.Printf("%s\t%s\n", key, formatRecord(rec))
	return nil
}
