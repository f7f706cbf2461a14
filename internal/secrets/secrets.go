// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads gateway credentials from a directory of plain-text
// files. Each file is one secret: the filename is the key name and the
// trimmed contents are the value.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/paper-library/internal/logger"
	"github.com/pdiddy/paper-library/pkg/types"
)

// Recognized key files.
const (
	AnalysisAPIKey        = "analysis-api-key"
	ClusteringAPIKey      = "clustering-api-key"
	SemanticScholarAPIKey = "semantic-scholar-api-key"
	OpenAlexEmail         = "openalex-email"
)

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error. Unreadable files are
// logged and skipped.
func Load(dir string, log *logger.Logger) (map[string]string, error) {
	if log == nil {
		log = logger.Nop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read secret", "name", name, "error", err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}

// Apply copies loaded secrets into cfg. Values already present in cfg,
// from the config file or environment, win.
func Apply(cfg *types.Config, secrets map[string]string) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = secrets[key]
		}
	}
	fill(&cfg.Analysis.APIKey, AnalysisAPIKey)
	fill(&cfg.Clustering.APIKey, ClusteringAPIKey)
	fill(&cfg.RelatedWork.SemanticScholarAPIKey, SemanticScholarAPIKey)
	fill(&cfg.RelatedWork.OpenAlexEmail, OpenAlexEmail)
}
