package auth

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestStoreAndVerifyPassphrase(t *testing.T) {
	dir := t.TempDir()
	if err := StorePassphrase(dir, "correct horse battery staple"); err != nil {
		t.Fatalf("StorePassphrase: %v", err)
	}

	ok, err := VerifyPassphrase(dir, "correct horse battery staple")
	if err != nil {
		t.Fatalf("VerifyPassphrase: %v", err)
	}
	if !ok {
		t.Fatal("correct passphrase rejected")
	}

	ok, err = VerifyPassphrase(dir, "wrong passphrase")
	if err != nil {
		t.Fatalf("VerifyPassphrase: %v", err)
	}
	if ok {
		t.Fatal("wrong passphrase accepted")
	}
}

func TestVerifyPassphraseMissingCredential(t *testing.T) {
	_, err := VerifyPassphrase(filepath.Join(t.TempDir(), "nope"), "anything")
	if err == nil {
		t.Fatal("expected an error reading a nonexistent credential store")
	}
}

func TestReadPassphraseLine(t *testing.T) {
	got, err := ReadPassphraseLine(strings.NewReader("hunter2\nextra"))
	if err != nil {
		t.Fatalf("ReadPassphraseLine: %v", err)
	}
	if got != "hunter2" {
		t.Fatalf("got %q, want %q", got, "hunter2")
	}
}
