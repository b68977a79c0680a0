// Package config builds the process configuration from command line flags,
// environment variables, and the local secrets file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeFill  = "fill"
	ModeServe = "serve"

	// Default values
	DefaultIdentifierField = "record_id"
	DefaultSecretsFile     = "secrets.json"
	DefaultLogFormat       = "text"
	DefaultMaxFileSize     = 100 * 1024 * 1024 // 100MB

	defaultOutputDir      = "output"
	outputTimestampLayout = "20060102_150405"
)

// Config holds all configuration for a single run.
type Config struct {
	// Mode is "fill" (single-record pipeline) or "serve" (MCP stdio server).
	Mode string

	// Fill inputs
	RecordID        string
	IdentifierField string
	TemplatePath    string
	OutputPath      string

	// OutputDefaulted is true when OutputPath was synthesized because the
	// user did not supply one.
	OutputDefaulted bool

	// Application configuration
	SecretsFile string
	LogFormat   string
	Debug       bool
	MaxFileSize int64
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Mode:            ModeFill,
		IdentifierField: DefaultIdentifierField,
		SecretsFile:     DefaultSecretsFile,
		LogFormat:       DefaultLogFormat,
		MaxFileSize:     DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration.
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	if cfg.IsFillMode() && cfg.OutputPath == "" {
		cfg.OutputPath = DefaultOutputPath(cfg.TemplatePath, cfg.RecordID, time.Now())
		cfg.OutputDefaulted = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults.
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("REDCAP_FILL")
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("identifier", cfg.RecordID)
	viper.SetDefault("record-variable", cfg.IdentifierField)
	viper.SetDefault("input-pdf", cfg.TemplatePath)
	viper.SetDefault("output-pdf", cfg.OutputPath)
	viper.SetDefault("secrets", cfg.SecretsFile)
	viper.SetDefault("logformat", cfg.LogFormat)
	viper.SetDefault("debug", cfg.Debug)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags.
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'fill' for a single-record fill, 'serve' for an MCP stdio server")
	pflag.String("identifier", cfg.RecordID, "Unique ID of the REDCap record to fill the template with")
	pflag.String("record-variable", cfg.IdentifierField, "REDCap variable that uniquely identifies each record")
	pflag.String("input-pdf", cfg.TemplatePath, "Path to the empty template .pdf file")
	pflag.String("output-pdf", cfg.OutputPath, "Path of the filled .pdf file to create")
	pflag.String("secrets", cfg.SecretsFile, "Path to the JSON secrets file with 'api_key' and 'url'")
	pflag.String("logformat", cfg.LogFormat, "Log output format (text, json)")
	pflag.Bool("debug", cfg.Debug, "Enable debug logging")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum template PDF size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration.
func bindFlagsToViper() {
	_ = viper.BindPFlag("mode", pflag.Lookup("mode"))
	_ = viper.BindPFlag("identifier", pflag.Lookup("identifier"))
	_ = viper.BindPFlag("record-variable", pflag.Lookup("record-variable"))
	_ = viper.BindPFlag("input-pdf", pflag.Lookup("input-pdf"))
	_ = viper.BindPFlag("output-pdf", pflag.Lookup("output-pdf"))
	_ = viper.BindPFlag("secrets", pflag.Lookup("secrets"))
	_ = viper.BindPFlag("logformat", pflag.Lookup("logformat"))
	_ = viper.BindPFlag("debug", pflag.Lookup("debug"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
}

// populateConfigFromViper fills the config struct from resolved viper values.
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.RecordID = viper.GetString("identifier")
	cfg.IdentifierField = viper.GetString("record-variable")
	cfg.TemplatePath = viper.GetString("input-pdf")
	cfg.OutputPath = viper.GetString("output-pdf")
	cfg.SecretsFile = viper.GetString("secrets")
	cfg.LogFormat = viper.GetString("logformat")
	cfg.Debug = viper.GetBool("debug")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
}

// setupUsageMessage configures the custom usage message.
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nREDCap PDF Auto-fill - fills a PDF form template with one REDCap record\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --identifier=42 --input-pdf=consent.pdf\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --identifier=42 --record-variable=study_id --input-pdf=consent.pdf --output-pdf=out/consent_42.pdf\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=serve\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  REDCAP_FILL_MODE         Run mode\n")
		fmt.Fprintf(os.Stderr, "  REDCAP_FILL_SECRETS      Secrets file path\n")
		fmt.Fprintf(os.Stderr, "  REDCAP_FILL_LOGFORMAT    Log format\n")
		fmt.Fprintf(os.Stderr, "  REDCAP_FILL_DEBUG        Debug logging\n")
		fmt.Fprintf(os.Stderr, "  REDCAP_FILL_MAXFILESIZE  Maximum template size\n")
	}
}

// DefaultOutputPath synthesizes the output path used when none is given:
// ./output/<timestamp>_<template-stem>_<identifier>.pdf
func DefaultOutputPath(templatePath, recordID string, now time.Time) string {
	stem := strings.TrimSuffix(filepath.Base(templatePath), filepath.Ext(templatePath))
	name := fmt.Sprintf("%s_%s_%s.pdf", now.Format(outputTimestampLayout), stem, recordID)
	return filepath.Join(defaultOutputDir, name)
}

// Validate checks the configuration for the selected mode. All checks here
// run before any network or PDF I/O.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeFill, ModeServe:
	default:
		return fmt.Errorf("invalid mode: %s (must be '%s' or '%s')", c.Mode, ModeFill, ModeServe)
	}

	if c.SecretsFile == "" {
		return fmt.Errorf("secrets file path cannot be empty")
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max file size must be positive, got %d", c.MaxFileSize)
	}

	if c.IsServeMode() {
		return nil
	}

	if c.RecordID == "" {
		return fmt.Errorf("record identifier is required (--identifier)")
	}
	if c.IdentifierField == "" {
		return fmt.Errorf("record variable cannot be empty")
	}
	if c.TemplatePath == "" {
		return fmt.Errorf("template PDF path is required (--input-pdf)")
	}
	if !strings.HasSuffix(c.TemplatePath, ".pdf") {
		return fmt.Errorf("template PDF must have a '.pdf' extension: %s", c.TemplatePath)
	}
	if _, err := os.Stat(c.TemplatePath); os.IsNotExist(err) {
		return fmt.Errorf("template PDF does not exist: %s", c.TemplatePath)
	}
	if sameFile(c.TemplatePath, c.OutputPath) {
		return fmt.Errorf("template PDF and output PDF must be different: %s", c.TemplatePath)
	}

	return nil
}

// OutputWarning returns a human-readable warning about the output path, or
// "" when there is nothing to warn about. A non-.pdf output path still
// works, it is just awkward to open, so it does not stop the run.
func (c *Config) OutputWarning() string {
	if c.OutputPath != "" && !strings.HasSuffix(c.OutputPath, ".pdf") {
		return fmt.Sprintf("output PDF does not have a '.pdf' extension: %s", c.OutputPath)
	}
	return ""
}

// IsFillMode returns true if running the single-record fill pipeline.
func (c *Config) IsFillMode() bool {
	return c.Mode == ModeFill
}

// IsServeMode returns true if running as an MCP server.
func (c *Config) IsServeMode() bool {
	return c.Mode == ModeServe
}

// IsDebug returns true if debug logging is enabled.
func (c *Config) IsDebug() bool {
	return c.Debug
}

// String returns a loggable representation without secret material.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, RecordID: %s, IdentifierField: %s, TemplatePath: %s, OutputPath: %s, SecretsFile: %s, LogFormat: %s, Debug: %t}",
		c.Mode, c.RecordID, c.IdentifierField, c.TemplatePath, c.OutputPath, c.SecretsFile, c.LogFormat, c.Debug)
}

// sameFile reports whether two paths refer to the same file, comparing
// cleaned absolute paths so "./a.pdf" and "a.pdf" collide as expected.
func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
