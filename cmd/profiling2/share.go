package main

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"time"

	profiling2 "github.com/emallson/profiling2-decode"
	"github.com/emallson/profiling2-decode/cmd/profiling2/internal/sharetoken"
	"github.com/emallson/profiling2-decode/internal/schema"
)

const shareSecretFile = "share.key"

func runShare(args []string) error {
	fs := newFlagSet("share")
	file := fs.String("file", "", "path to a profiling2 SavedVariables.lua file (default: config savedVariablesPath)")
	index := fs.Int("index", 0, "recording index within the file to mint a token for")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfigOrDefault()
	if err != nil {
		return fmt.Errorf("share: %w", err)
	}
	path := *file
	if path == "" {
		path = cfg.SavedVariablesPath
	}
	if path == "" {
		return fmt.Errorf("share: no --file given and no savedVariablesPath configured")
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("share: read %s: %w", path, err)
	}
	sv, err := profiling2.ParseSavedVariables(string(contents))
	if err != nil {
		return fmt.Errorf("share: %w", err)
	}
	if *index < 0 || *index >= len(sv.Recordings) {
		return fmt.Errorf("share: recording index %d out of range (%d recordings)", *index, len(sv.Recordings))
	}

	secret, err := shareSecret(cfg.Upload.CredentialDir)
	if err != nil {
		return fmt.Errorf("share: %w", err)
	}

	enc := sv.Recordings[*index].Encounter
	token, err := sharetoken.Mint(&enc, secret, time.Now())
	if err != nil {
		return fmt.Errorf("share: %w", err)
	}
	fmt.Println(token)
	return nil
}

func runVerifyShare(args []string) error {
	fs := newFlagSet("verify-share")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("verify-share: expected exactly one token argument")
	}

	cfg, err := loadConfigOrDefault()
	if err != nil {
		return fmt.Errorf("verify-share: %w", err)
	}
	secret, err := shareSecret(cfg.Upload.CredentialDir)
	if err != nil {
		return fmt.Errorf("verify-share: %w", err)
	}

	enc, err := sharetoken.Verify(fs.Arg(0), secret)
	if err != nil {
		return fmt.Errorf("verify-share: %w", err)
	}
	printEncounter(enc)
	return nil
}

func printEncounter(enc *schema.Encounter) {
	fmt.Printf("kind:      %s\n", enc.Kind)
	fmt.Printf("startTime: %d\n", enc.StartTime)
	fmt.Printf("endTime:   %d\n", enc.EndTime)
	if enc.Kind == schema.EncounterDungeon {
		fmt.Printf("mapId:     %d\n", enc.MapID)
	}
	if enc.EncounterName != "" {
		fmt.Printf("name:      %s\n", enc.EncounterName)
	}
}

// shareSecret loads the HMAC signing key used for share tokens from
// credentialDir/share.key, generating and persisting a new random one on
// first use.
func shareSecret(credentialDir string) ([]byte, error) {
	path := filepath.Join(credentialDir, shareSecretFile)
	if b, err := os.ReadFile(path); err == nil {
		return b, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read share secret: %w", err)
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate share secret: %w", err)
	}
	if err := os.MkdirAll(credentialDir, 0700); err != nil {
		return nil, fmt.Errorf("create credential dir: %w", err)
	}
	if err := os.WriteFile(path, secret, 0600); err != nil {
		return nil, fmt.Errorf("write share secret: %w", err)
	}
	return secret, nil
}
