package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "finsight.db" {
		t.Errorf("DBPath = %q, want finsight.db", cfg.DBPath)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"FINSIGHT_DB": "/tmp/custom.db",
		"FINSIGHT_CSV": "/tmp/out.csv",
		"FINSIGHT_GEMINI_ENABLED": true,
		"FINSIGHT_GEMINI_TIMEOUT_SECONDS": 5
	}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/tmp/custom.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.CSVPath != "/tmp/out.csv" {
		t.Errorf("CSVPath = %q", cfg.CSVPath)
	}
	if !cfg.GeminiEnabled {
		t.Error("GeminiEnabled = false")
	}
	if cfg.GeminiTimeoutSeconds != 5 {
		t.Errorf("GeminiTimeoutSeconds = %d", cfg.GeminiTimeoutSeconds)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"FINSIGHT_DB": "from-file.db"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FINSIGHT_DB", "from-env.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "from-env.db" {
		t.Errorf("DBPath = %q, want from-env.db", cfg.DBPath)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/does/not/exist.json"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestParseDictionary(t *testing.T) {
	data := []byte(`[
		{"name": "Swiggy", "triggers": ["SWIGGY", "Instamart"]},
		{"name": "Uber", "triggers": ["uber"]}
	]`)

	dict, err := ParseDictionary(data)
	if err != nil {
		t.Fatalf("ParseDictionary: %v", err)
	}
	if len(dict) != 2 {
		t.Fatalf("got %d entries", len(dict))
	}
	// Declared order is preserved; triggers are lowercased for matching.
	if dict[0].Name != "Swiggy" || dict[1].Name != "Uber" {
		t.Errorf("order = %s, %s", dict[0].Name, dict[1].Name)
	}
	if dict[0].Triggers[0] != "swiggy" || dict[0].Triggers[1] != "instamart" {
		t.Errorf("triggers = %v, want lowercased", dict[0].Triggers)
	}
}

func TestParseDictionary_Malformed(t *testing.T) {
	if _, err := ParseDictionary([]byte(`{"not": "an array"}`)); err == nil {
		t.Error("expected error for malformed dictionary")
	}
}

func TestParseBanks(t *testing.T) {
	data := []byte(`[
		{"name": "hdfc-cred", "format": "pdftable", "extensions": [".pdf"], "password": "secret"},
		{"name": "sbi", "format": "delimited", "extensions": [".csv"]}
	]`)

	banks, err := ParseBanks(data)
	if err != nil {
		t.Fatalf("ParseBanks: %v", err)
	}
	if len(banks) != 2 {
		t.Fatalf("got %d banks", len(banks))
	}
	if banks[0].Format != "pdftable" || banks[0].Password != "secret" {
		t.Errorf("bank[0] = %+v", banks[0])
	}
	if len(banks[1].Extensions) != 1 || banks[1].Extensions[0] != ".csv" {
		t.Errorf("bank[1].Extensions = %v", banks[1].Extensions)
	}
}
