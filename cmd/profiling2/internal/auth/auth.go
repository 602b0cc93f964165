// Package auth manages the local credential store backing the upload
// service passphrase stored by `profiling2 login`: reading a passphrase from
// the terminal without echo, hashing it for storage, and checking it back.
// `profiling2 share` does not read or check the stored passphrase.
package auth

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

// credentialFile is the name of the hashed-passphrase file within a
// config.UploadConfig.CredentialDir.
const credentialFile = "upload.passphrase"

// ReadPassphrase prompts on prompt (typically os.Stdout) and reads a
// passphrase from in without echoing it, the way an interactive terminal
// login would. in must be backed by a real terminal file descriptor for the
// no-echo behavior; callers passing a non-terminal (e.g. in tests) should
// use ReadPassphraseLine instead.
func ReadPassphrase(in *os.File, prompt io.Writer) (string, error) {
	fmt.Fprint(prompt, "upload passphrase: ")
	b, err := term.ReadPassword(int(in.Fd()))
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	return string(b), nil
}

// ReadPassphraseLine reads a single newline-terminated passphrase from r,
// for callers (and tests) without a real terminal.
func ReadPassphraseLine(r io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			sb.WriteByte(buf[0])
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return "", fmt.Errorf("read passphrase: %w", err)
		}
	}
	return strings.TrimSuffix(sb.String(), "\r"), nil
}

// StorePassphrase bcrypt-hashes passphrase and writes it to
// credentialDir/upload.passphrase, overwriting any existing credential.
func StorePassphrase(credentialDir, passphrase string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash passphrase: %w", err)
	}
	if err := os.MkdirAll(credentialDir, 0700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(credentialDir, credentialFile), hash, 0600); err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	return nil
}

// VerifyPassphrase checks passphrase against the hash stored in
// credentialDir. It returns false (with no error) for an ordinary mismatch;
// an error indicates the credential store itself could not be read.
func VerifyPassphrase(credentialDir, passphrase string) (bool, error) {
	hash, err := os.ReadFile(filepath.Join(credentialDir, credentialFile))
	if err != nil {
		return false, fmt.Errorf("read credential: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(passphrase)); err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return false, nil
		}
		return false, fmt.Errorf("verify credential: %w", err)
	}
	return true, nil
}
