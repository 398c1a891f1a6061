package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every cached document and its view configuration",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cache, err := openCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	ctx := context.Background()

	keys, err := cache.Keys(ctx)
	if err != nil {
		return fmt.Errorf("listing records: %w", err)
	}

	if listJSON {
		out := make(map[string]any, len(keys))
		for _, key := range keys {
			rec, err := cache.Get(ctx, key)
			if err != nil {
				continue
			}
			out[key] = rec
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	for _, key := range keys {
		rec, err := cache.Get(ctx, key)
		if err != nil {
			continue
		}
		fmt.Printf("%s\t%s\n", key, formatRecord(rec))
	}
	fmt.Printf("%d record(s)\n", len(keys))
	return nil
}
