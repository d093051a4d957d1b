package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries everything the process needs: collaborator credentials
// from the environment (.env supported) and batch behavior from an optional
// JSON app-config file.
type Config struct {
	// Azure Document Intelligence (OCR collaborator)
	AzureDIEndpoint string
	AzureDIKey      string

	// Gemini (tagging collaborator)
	GeminiAPIKey string
	GeminiModel  string

	// Data layout. Everything below DataDir is derived.
	DataDir string

	// Log output
	Log LogConfig

	// Cloud inbox sync
	CloudSync CloudSyncConfig

	// Receipt image extensions accepted by the input scan (lowercase,
	// with leading dot).
	ReceiptImageExts []string
}

type LogConfig struct {
	ConsoleLevel string `json:"console_level"`
	EnableFile   bool   `json:"enable_file"`
	FilePath     string `json:"file_path"`
	FileLevel    string `json:"file_level"`
}

type CloudSyncConfig struct {
	Enabled         bool   `json:"enabled"`
	Bucket          string `json:"bucket"`
	InboxPrefix     string `json:"inbox_prefix"`
	ProcessedPrefix string `json:"processed_prefix"`
	ErrorPrefix     string `json:"error_prefix"`
}

// appConfigFile is the JSON shape of the optional app-config file.
type appConfigFile struct {
	DataDir     string          `json:"data_dir"`
	GeminiModel string          `json:"gemini_model"`
	Log         LogConfig       `json:"log"`
	CloudSync   CloudSyncConfig `json:"cloud_sync"`
	ImageExts   []string        `json:"receipt_image_exts"`
}

// Load reads .env (when present), the environment, and the JSON app config
// at path (when path is non-empty and the file exists).
func Load(path string) (*Config, error) {
	// Missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	cfg := &Config{
		AzureDIEndpoint: strings.TrimSpace(getEnv("AZURE_DI_ENDPOINT", "")),
		AzureDIKey:      strings.TrimSpace(getEnv("AZURE_DI_KEY", "")),
		GeminiAPIKey:    strings.TrimSpace(getEnv("GEMINI_API_KEY", "")),
		GeminiModel:     "gemini-2.5-flash",
		DataDir:         getEnv("KAKEIBO_DATA_DIR", "./data"),
		Log: LogConfig{
			ConsoleLevel: "info",
			FileLevel:    "debug",
		},
		ReceiptImageExts: []string{
			".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff", ".pdf",
		},
	}

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read app config %s: %w", path, err)
	}

	var file appConfigFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse app config %s: %w", path, err)
	}

	if file.DataDir != "" {
		c.DataDir = file.DataDir
	}
	if file.GeminiModel != "" {
		c.GeminiModel = file.GeminiModel
	}
	if file.Log.ConsoleLevel != "" {
		c.Log.ConsoleLevel = file.Log.ConsoleLevel
	}
	if file.Log.FileLevel != "" {
		c.Log.FileLevel = file.Log.FileLevel
	}
	c.Log.EnableFile = file.Log.EnableFile
	if file.Log.FilePath != "" {
		c.Log.FilePath = file.Log.FilePath
	}
	c.CloudSync = file.CloudSync
	if len(file.ImageExts) > 0 {
		c.ReceiptImageExts = file.ImageExts
	}

	return nil
}

// Validate checks the parts of the config the batch cannot run without.
func (c *Config) Validate() error {
	var problems []string

	if c.AzureDIEndpoint == "" {
		problems = append(problems, "AZURE_DI_ENDPOINT is empty")
	}
	if c.AzureDIKey == "" {
		problems = append(problems, "AZURE_DI_KEY is empty")
	}
	if c.GeminiAPIKey == "" {
		problems = append(problems, "GEMINI_API_KEY is empty")
	}
	if c.CloudSync.Enabled && c.CloudSync.Bucket == "" {
		problems = append(problems, "cloud_sync.bucket is empty while cloud sync is enabled")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Directory layout under DataDir, mirroring the on-disk contract the
// ledger, snapshots and routing depend on.

func (c *Config) InputDir() string     { return filepath.Join(c.DataDir, "input") }
func (c *Config) ProcessedDir() string { return filepath.Join(c.DataDir, "processed") }
func (c *Config) ErrorDir() string     { return filepath.Join(c.DataDir, "error") }
func (c *Config) JSONDir() string      { return filepath.Join(c.DataDir, "output", "json") }
func (c *Config) CSVDir() string       { return filepath.Join(c.DataDir, "output", "csv") }
func (c *Config) SummaryDir() string   { return filepath.Join(c.DataDir, "output", "summary") }

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
