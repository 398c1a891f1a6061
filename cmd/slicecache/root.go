package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/docfold/slicecache"
)

var (
	// Global flags.
	storePath string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "slicecache",
	Short: "Inspect and edit persisted per-document view configurations",
	Long: `Slicecache is a CLI tool for the store file that document viewers use
to remember the display slice, image width and render resolution of each
document across sessions.

Examples:
  # Show every cached document
  slicecache list

  # Show one record
  slicecache get /home/u/paper.pdf

  # Replace one record
  slicecache set /home/u/paper.pdf --slice 0,0,100,200 --image-width 800`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&storePath, "store", "s", "", "store file path (default: per-user config location)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// openCache builds a cache on the configured store file.
func openCache() (*slicecache.Cache, error) {
	path := storePath
	if path == "" {
		defaultPath, err := slicecache.DefaultStorePath()
		if err != nil {
			return nil, fmt.Errorf("resolving default store path: %w", err)
		}
		path = defaultPath
	}

	opts := []slicecache.Option{slicecache.WithStorePath(path)}
	if verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("creating logger: %w", err)
		}
		opts = append(opts, slicecache.WithLogger(logger))
	}

	return slicecache.New(opts...)
}

// formatRecord renders a record for terminal output.
func formatRecord(rec slicecache.Record) string {
	out := ""
	if rec.Slice != nil {
		out += fmt.Sprintf("slice=%d,%d,%d,%d", rec.Slice.Left, rec.Slice.Top, rec.Slice.Width, rec.Slice.Height)
	} else {
		out += "slice=-"
	}
	if rec.ImageWidth > 0 {
		out += fmt.Sprintf(" width=%d", rec.ImageWidth)
	}
	if rec.Resolution > 0 {
		out += fmt.Sprintf(" resolution=%g", rec.Resolution)
	}
	return out
}
