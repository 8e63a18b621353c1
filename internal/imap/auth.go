package imap

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wesm/mailtrends/internal/fileutil"
)

// ErrNoCredentials is returned by LoadCredentials when nothing is stored.
var ErrNoCredentials = errors.New("no IMAP credentials stored")

type credentialsFile struct {
	Password string `json:"password"`
}

// credentialsPath returns the path to the credentials file for the given identifier.
func credentialsPath(tokensDir, identifier string) string {
	hash := sha256.Sum256([]byte(identifier))
	return filepath.Join(tokensDir, fmt.Sprintf("imap_%x.json", hash[:8]))
}

// SaveCredentials saves an IMAP password for the given identifier.
func SaveCredentials(tokensDir, identifier, password string) error {
	if err := fileutil.MkdirAll(tokensDir, 0o700); err != nil {
		return fmt.Errorf("create tokens dir: %w", err)
	}
	err := fileutil.WriteFile(credentialsPath(tokensDir, identifier), 0o600, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(credentialsFile{Password: password})
	})
	if err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// LoadCredentials loads an IMAP password for the given identifier.
func LoadCredentials(tokensDir, identifier string) (string, error) {
	data, err := os.ReadFile(credentialsPath(tokensDir, identifier))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w for %s (run 'add-imap' first)", ErrNoCredentials, identifier)
		}
		return "", fmt.Errorf("read credentials: %w", err)
	}
	var creds credentialsFile
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", fmt.Errorf("parse credentials: %w", err)
	}
	return creds.Password, nil
}

// HasCredentials reports whether credentials exist for the given identifier.
func HasCredentials(tokensDir, identifier string) bool {
	_, err := os.Stat(credentialsPath(tokensDir, identifier))
	return err == nil
}
