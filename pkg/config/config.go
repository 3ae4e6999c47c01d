// Package config loads application configuration from an optional JSON
// file plus environment variable overrides.
package config

import (
	"encoding/json"
	"fmt"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ArionMiles/finsight/pkg/classify"
)

// Config holds the application configuration. Environment variables
// override values from the config file.
type Config struct {
	// DBPath is the SQLite database file.
	// Environment variable: FINSIGHT_DB
	DBPath string `koanf:"FINSIGHT_DB"`

	// CSVPath is the CSV export file. Empty disables export.
	// Environment variable: FINSIGHT_CSV
	CSVPath string `koanf:"FINSIGHT_CSV"`

	// Person is stamped on every imported transaction, for shared databases.
	// Environment variable: FINSIGHT_PERSON
	Person string `koanf:"FINSIGHT_PERSON"`

	// GeminiEnabled turns on the external classifier fallback.
	// Environment variable: FINSIGHT_GEMINI_ENABLED
	GeminiEnabled bool `koanf:"FINSIGHT_GEMINI_ENABLED"`

	// GeminiModel overrides the default Gemini model.
	// Environment variable: FINSIGHT_GEMINI_MODEL
	GeminiModel string `koanf:"FINSIGHT_GEMINI_MODEL"`

	// GeminiTimeoutSeconds bounds each external classification call.
	// Environment variable: FINSIGHT_GEMINI_TIMEOUT_SECONDS
	GeminiTimeoutSeconds int `koanf:"FINSIGHT_GEMINI_TIMEOUT_SECONDS"`

	// PostgreSQL configuration (used when FINSIGHT_POSTGRES_HOST is set).
	Postgres PostgresConfig

	// Banks, Merchants, and Categories are populated from embedded or
	// file-based dictionaries, not environment variables.
	Banks      []Bank
	Merchants  classify.Dictionary
	Categories classify.Dictionary
}

// PostgresConfig holds PostgreSQL connection configuration.
type PostgresConfig struct {
	Host     string `koanf:"FINSIGHT_POSTGRES_HOST"`
	Port     int    `koanf:"FINSIGHT_POSTGRES_PORT"`
	Database string `koanf:"FINSIGHT_POSTGRES_DB"`
	User     string `koanf:"FINSIGHT_POSTGRES_USER"`
	Password string `koanf:"FINSIGHT_POSTGRES_PASSWORD"`
	SSLMode  string `koanf:"FINSIGHT_POSTGRES_SSLMODE"`
}

// Bank maps a configured bank name to a statement format.
type Bank struct {
	Name       string   `json:"name"`
	Format     string   `json:"format"`
	Extensions []string `json:"extensions"`
	Password   string   `json:"password"`
}

// Load reads configuration from path (skipped when empty) and then from
// the environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), kjson.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.DBPath == "" {
		cfg.DBPath = "finsight.db"
	}
	return &cfg, nil
}

// ParseDictionary decodes a JSON classification dictionary. Entry order
// is preserved and trigger strings are lowercased for matching.
func ParseDictionary(data []byte) (classify.Dictionary, error) {
	var dict classify.Dictionary
	if err := json.Unmarshal(data, &dict); err != nil {
		return nil, fmt.Errorf("parsing dictionary: %w", err)
	}
	for i := range dict {
		for j, t := range dict[i].Triggers {
			dict[i].Triggers[j] = strings.ToLower(t)
		}
	}
	return dict, nil
}

// ParseBanks decodes the bank roster JSON.
func ParseBanks(data []byte) ([]Bank, error) {
	var banks []Bank
	if err := json.Unmarshal(data, &banks); err != nil {
		return nil, fmt.Errorf("parsing banks: %w", err)
	}
	return banks, nil
}
