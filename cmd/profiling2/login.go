package main

import (
	"fmt"
	"os"

	"github.com/emallson/profiling2-decode/cmd/profiling2/internal/auth"
)

func runLogin(args []string) error {
	fs := newFlagSet("login")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfigOrDefault()
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	var passphrase string
	if term := os.Stdin; isTerminal(term) {
		passphrase, err = auth.ReadPassphrase(term, os.Stdout)
	} else {
		passphrase, err = auth.ReadPassphraseLine(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if passphrase == "" {
		return fmt.Errorf("login: empty passphrase")
	}

	if err := auth.StorePassphrase(cfg.Upload.CredentialDir, passphrase); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	fmt.Println("passphrase stored")
	return nil
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
