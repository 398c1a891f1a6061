// Package main provides the slicecache CLI tool for inspecting and editing
// the persisted per-document view configurations.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
