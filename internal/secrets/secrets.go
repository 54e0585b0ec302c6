// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets finds the extraction service API key. Keys live in a
// directory of one-value files (name is the key, trimmed contents the value)
// with environment variables as the fallback.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Key files the CLI understands, in lookup order.
const (
	KeyOpenRouter = "openrouter-api-key"
	KeyOpenAI     = "openai-api-key"
)

var keyFiles = []string{KeyOpenRouter, KeyOpenAI}

// Environment variables consulted after the key files.
var apiKeyEnv = []string{"OPENROUTER_API_KEY", "OPENAI_API_KEY"}

// Load collects every non-empty regular file in dir. A missing directory
// yields an empty map; dotfiles are ignored and unreadable files are logged.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return map[string]string{}, nil
	case err != nil:
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	loaded := make(map[string]string, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		value, err := readValue(filepath.Join(dir, e.Name()))
		if err != nil {
			slog.Warn("secrets.unreadable", "name", e.Name(), "error", err)
			continue
		}
		if value != "" {
			loaded[e.Name()] = value
		}
	}
	return loaded, nil
}

func readValue(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// APIKey picks the first key from loaded key files, then the environment.
// It returns "" when none is set.
func APIKey(loaded map[string]string) string {
	for _, k := range keyFiles {
		if v := loaded[k]; v != "" {
			return v
		}
	}
	for _, env := range apiKeyEnv {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v
		}
	}
	return ""
}
