package main

import (
	"context"
	"fmt"
	"os"

	profiling2 "github.com/emallson/profiling2-decode"
	"github.com/emallson/profiling2-decode/cmd/profiling2/internal/cache"
	"github.com/emallson/profiling2-decode/cmd/profiling2/internal/config"
	"github.com/emallson/profiling2-decode/cmd/profiling2/internal/liveserve"
	"github.com/emallson/profiling2-decode/internal/schema"
)

func runDecode(args []string) error {
	fs := newFlagSet("decode")
	file := fs.String("file", "", "path to a profiling2 SavedVariables.lua file (default: config savedVariablesPath)")
	cacheDB := fs.String("cache", "", "path to a SQLite decoded-recording cache (optional)")
	serveAddr := fs.String("serve", "", "address to stream decode progress on, e.g. :8089 (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfigOrDefault()
	if err != nil {
		return err
	}
	path := *file
	if path == "" {
		path = cfg.SavedVariablesPath
	}
	if path == "" {
		return fmt.Errorf("decode: no --file given and no savedVariablesPath configured")
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("decode: read %s: %w", path, err)
	}

	sv, err := profiling2.ParseSavedVariables(string(contents))
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	var c *cache.Cache
	if *cacheDB != "" {
		c, err = cache.Open(*cacheDB)
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		defer c.Close()
	}

	var live *liveserve.Server
	if *serveAddr != "" {
		live = liveserve.New()
		stop, err := startLiveServer(*serveAddr, live)
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		defer stop()
	}

	fileHash := ""
	if c != nil {
		fileHash = cache.HashFile(contents)
	}

	ctx := context.Background()
	total := len(sv.Recordings)
	for i, rec := range sv.Recordings {
		if live != nil {
			live.Broadcast(liveserve.Progress{Index: i, Total: total, Status: "decoding"})
		}

		pr, decodeErr := decodeOneRecording(ctx, c, fileHash, i, rec)

		status := "ok"
		msg := ""
		if decodeErr != nil {
			status = "error"
			msg = decodeErr.Error()
		}
		if live != nil {
			live.Broadcast(liveserve.Progress{Index: i, Total: total, Status: status, Message: msg})
		}

		if decodeErr != nil {
			fmt.Printf("recording %d: %s: error: %v\n", i, rec.Encounter.Kind, decodeErr)
			continue
		}
		fmt.Printf("recording %d: %s: %d scripts, %d externals\n",
			i, rec.Encounter.Kind, len(pr.Scripts), len(pr.Externals))
	}
	return nil
}

func decodeOneRecording(ctx context.Context, c *cache.Cache, fileHash string, index int, rec *schema.Recording) (*schema.ParsedRecording, error) {
	if c != nil {
		if pr, ok, err := c.Get(ctx, fileHash, index); err == nil && ok {
			return pr, nil
		}
	}
	pr, err := profiling2.DecodeRecording(rec)
	if err != nil {
		return nil, err
	}
	if c != nil {
		_ = c.Put(ctx, fileHash, index, pr)
	}
	return pr, nil
}

func loadConfigOrDefault() (*config.Config, error) {
	path, err := config.Path()
	if err != nil {
		return config.Default(), nil
	}
	return config.Load(path)
}
