package app

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"yowbook/internal/config"
)

type tokenSource string

const (
	tokenFromConfig tokenSource = "config"
	tokenFromFile   tokenSource = "file"
	tokenGenerated  tokenSource = "generated"
)

const adminTokenFileName = "admin.token"

// adminToken resolves the token guarding settings writes: the configured
// value wins, then <data dir>/admin.token, else a new one is written there.
func adminToken(cfg config.Config) (string, tokenSource, error) {
	if token := strings.TrimSpace(cfg.AdminToken); token != "" {
		return token, tokenFromConfig, nil
	}

	path := filepath.Join(cfg.DataDir, adminTokenFileName)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if token := strings.TrimSpace(string(data)); token != "" {
			return token, tokenFromFile, nil
		}
	case !os.IsNotExist(err):
		return "", "", fmt.Errorf("read admin token: %w", err)
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate admin token: %w", err)
	}
	token := hex.EncodeToString(buf)
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return "", "", fmt.Errorf("write admin token: %w", err)
	}
	return token, tokenGenerated, nil
}
