package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/redcap-tools/redcap-pdf-fill/internal/config"
	"github.com/redcap-tools/redcap-pdf-fill/internal/exitcode"
	"github.com/redcap-tools/redcap-pdf-fill/internal/fill"
	"github.com/redcap-tools/redcap-pdf-fill/internal/logging"
	"github.com/redcap-tools/redcap-pdf-fill/internal/mcp"
	"github.com/redcap-tools/redcap-pdf-fill/internal/record"
	"github.com/redcap-tools/redcap-pdf-fill/internal/redcap"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitcode.ValidationError)
	}

	log := logging.Setup(cfg.LogFormat, cfg.IsDebug())

	secrets, err := config.LoadSecrets(cfg.SecretsFile)
	if err != nil {
		log.Error().Err(err).Msg("failed to load secrets")
		os.Exit(exitcode.ConfigError)
	}
	log.Info().Str("file", cfg.SecretsFile).Msg("loaded secrets file")

	service := fill.NewService(redcap.Credentials{
		URL:    secrets.URL,
		APIKey: secrets.APIKey,
	}, cfg.MaxFileSize, log)

	ctx := context.Background()

	if cfg.IsServeMode() {
		runServeMode(ctx, cfg, service, log)
		return
	}
	runFillMode(ctx, cfg, service, log)
}

// runFillMode executes the single-record pipeline and exits.
func runFillMode(ctx context.Context, cfg *config.Config, service *fill.Service, log zerolog.Logger) {
	if cfg.OutputDefaulted {
		log.Info().Str("output", cfg.OutputPath).Msg("no output PDF specified; using default")
	}
	if warning := cfg.OutputWarning(); warning != "" {
		log.Warn().Msg(warning)
	}
	log.Info().
		Str("record", cfg.RecordID).
		Str("redcap_variable", cfg.IdentifierField).
		Str("template", cfg.TemplatePath).
		Str("output", cfg.OutputPath).
		Msg("inputs resolved")

	result, err := service.Run(ctx, fill.Request{
		RecordID:        cfg.RecordID,
		IdentifierField: cfg.IdentifierField,
		TemplatePath:    cfg.TemplatePath,
		OutputPath:      cfg.OutputPath,
	})
	if err != nil {
		log.Error().Err(err).Msg("fill run failed")
		os.Exit(classifyExit(err))
	}

	log.Info().Str("output", result.OutputPath).Msg("done")
}

// runServeMode starts the MCP stdio server.
func runServeMode(ctx context.Context, cfg *config.Config, service *fill.Service, log zerolog.Logger) {
	mcp.Version = version
	server, err := mcp.NewServer(cfg, service)
	if err != nil {
		log.Error().Err(err).Msg("failed to create MCP server")
		os.Exit(exitcode.ConfigError)
	}
	if err := server.Run(ctx); err != nil {
		log.Error().Err(err).Msg("MCP server error")
		os.Exit(exitcode.FillError)
	}
}

// classifyExit maps a pipeline error to a process exit code.
func classifyExit(err error) int {
	var apiErr *redcap.APIError
	if errors.As(err, &apiErr) {
		return exitcode.APIError
	}

	var lookupErr *redcap.LookupError
	var choiceErr *record.ChoiceLookupError
	var typeErr *record.GroupTypeError
	var selErr *record.GroupSelectionError
	if errors.As(err, &lookupErr) || errors.As(err, &choiceErr) ||
		errors.As(err, &typeErr) || errors.As(err, &selErr) {
		return exitcode.DataError
	}

	return exitcode.FillError
}

// printVersion prints version information.
func printVersion() {
	fmt.Printf("REDCap PDF Auto-fill\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
}
