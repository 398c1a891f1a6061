package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docfold/slicecache"
)

var (
	setSlice      string
	setImageWidth int
	setResolution float64
)

var setCmd = &cobra.Command{
	Use:   "set [KEY]",
	Short: "Replace the cached view configuration for one document",
	Long: `Replace the cached view configuration for the document identified by KEY
and save the store file. The record is replaced wholesale: fields not given
on the command line end up absent.

Examples:
  slicecache set /home/u/paper.pdf --slice 0,0,100,200 --image-width 800
  slicecache set /home/u/scan.djvu --resolution 300`,
	Args: cobra.ExactArgs(1),
	RunE: runSet,
}

func init() {
	setCmd.Flags().StringVar(&setSlice, "slice", "", "display slice as left,top,width,height")
	setCmd.Flags().IntVar(&setImageWidth, "image-width", 0, "display image width in pixels")
	setCmd.Flags().Float64Var(&setResolution, "resolution", 0, "render resolution in DPI")
	rootCmd.AddCommand(setCmd)
}

func runSet(cmd *cobra.Command, args []string) error {
	key := args[0]

	rec := slicecache.Record{
		ImageWidth: setImageWidth,
		Resolution: setResolution,
	}

	if setSlice != "" {
		slice, err := parseSlice(setSlice)
		if err != nil {
			return err
		}
		rec.Slice = &slice
	}

	cache, err := openCache()
	if err != nil {
		return err
	}

	ctx := context.Background()

	if err := cache.Put(ctx, key, rec); err != nil {
		cache.Close()
		return fmt.Errorf("updating record: %w", err)
	}

	// Close flushes the mapping to the store file.
	if err := cache.Close(); err != nil {
		return fmt.Errorf("saving store: %w", err)
	}

	fmt.Printf("%s\t%s\n", key, formatRecord(rec))
	return nil
}

// parseSlice parses a left,top,width,height tuple.
func parseSlice(s string) (slicecache.Slice, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return slicecache.Slice{}, fmt.Errorf("slice must be left,top,width,height, got %q", s)
	}

	vals := make([]int, 4)
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return slicecache.Slice{}, fmt.Errorf("slice component %q is not an integer", part)
		}
		vals[i] = v
	}

	slice := slicecache.Slice{Left: vals[0], Top: vals[1], Width: vals[2], Height: vals[3]}
	if slice.Left < 0 || slice.Top < 0 || slice.Width <= 0 || slice.Height <= 0 {
		return slicecache.Slice{}, fmt.Errorf("slice %q out of range: offsets must be >= 0, size must be > 0", s)
	}
	return slice, nil
}
