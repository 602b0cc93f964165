package main

import (
	"context"
	"fmt"
	"os"

	profiling2 "github.com/emallson/profiling2-decode"
	"github.com/emallson/profiling2-decode/cmd/profiling2/internal/cache"
)

// runCache populates a SQLite decoded-recording cache from a
// saved-variables file, so a later "decode --cache" run can skip the
// print-decode/inflate/deserialize/schema-map pipeline entirely.
func runCache(args []string) error {
	fs := newFlagSet("cache")
	file := fs.String("file", "", "path to a profiling2 SavedVariables.lua file")
	dbPath := fs.String("db", "", "path to the SQLite cache database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" || *dbPath == "" {
		return fmt.Errorf("cache: both --file and --db are required")
	}

	contents, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("cache: read %s: %w", *file, err)
	}
	sv, err := profiling2.ParseSavedVariables(string(contents))
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	c, err := cache.Open(*dbPath)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer c.Close()

	ctx := context.Background()
	fileHash := cache.HashFile(contents)
	populated, failed := 0, 0
	for i, rec := range sv.Recordings {
		pr, err := profiling2.DecodeRecording(rec)
		if err != nil {
			failed++
			continue
		}
		if err := c.Put(ctx, fileHash, i, pr); err != nil {
			return fmt.Errorf("cache: %w", err)
		}
		populated++
	}
	fmt.Printf("cached %d recordings (%d failed to decode)\n", populated, failed)
	return nil
}
