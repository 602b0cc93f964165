package config

import (
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Account != "" || cfg.Realm != "" {
		t.Fatalf("got %+v, want zero-value defaults", cfg)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := &Config{
		SavedVariablesPath: "/wow/WTF/Account/FOO/SavedVariables/Profiling2.lua",
		Account:            "FOO",
		Realm:              "Area 52",
		Upload: UploadConfig{
			Endpoint:      "https://example.invalid/upload",
			CredentialDir: "/home/user/.config/profiling2",
		},
	}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *cfg {
		t.Fatalf("got %+v, want %+v", got, cfg)
	}
}
