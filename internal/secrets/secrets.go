// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads provider API keys from a directory of plain-text
// files. Each file holds one secret: the filename is the key name and the
// trimmed file contents are the value.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Key file names read by the aggregator.
const (
	NCBIAPIKey            = "ncbi-api-key"
	SemanticScholarAPIKey = "semantic-scholar-api-key"
	OpenAlexEmail         = "openalex-email"
	PLOSAPIKey            = "plos-api-key"
)

// Keys holds the credentials the providers understand. Empty fields mean
// the provider runs anonymously.
type Keys struct {
	NCBI            string
	SemanticScholar string
	OpenAlexEmail   string
	PLOS            string
}

// KeysFrom picks the known keys out of a loaded secrets map.
func KeysFrom(m map[string]string) Keys {
	return Keys{
		NCBI:            m[NCBIAPIKey],
		SemanticScholar: m[SemanticScholarAPIKey],
		OpenAlexEmail:   m[OpenAlexEmail],
		PLOS:            m[PLOSAPIKey],
	}
}

// Merge returns k with empty fields filled from other.
func (k Keys) Merge(other Keys) Keys {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	return Keys{
		NCBI:            pick(k.NCBI, other.NCBI),
		SemanticScholar: pick(k.SemanticScholar, other.SemanticScholar),
		OpenAlexEmail:   pick(k.OpenAlexEmail, other.OpenAlexEmail),
		PLOS:            pick(k.PLOS, other.PLOS),
	}
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged as warnings and skipped.
func Load(dir string, logger zerolog.Logger) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn().Err(err).Str("secret", name).Msg("could not read secret")
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}
