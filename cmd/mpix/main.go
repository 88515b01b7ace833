// Package main is the entry point for the mpix tracking pixel service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/vyrodovalexey/mpix/internal/config"
	"github.com/vyrodovalexey/mpix/internal/observability"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// EnvConfigPath names the configuration file when -config is not given.
const EnvConfigPath = "MPIX_CONFIG_PATH"

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		printVersion()
		return
	}

	bootLogger := initLogger(flags.logLevel, flags.logFormat)

	cfg := loadConfig(flags, bootLogger)
	logger := initLogger(cfg.Log.Level, cfg.LogFormat())
	defer func() { _ = logger.Sync() }()

	logger.Info("starting mpix",
		observability.String("version", version),
		observability.String("commit", gitCommit),
		observability.String("env", string(cfg.Env)),
		observability.String("config", flags.configPath),
	)

	app, err := newApplication(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", observability.Error(err))
	}

	run(app)
}

// parseFlags parses command line flags.
func parseFlags() cliFlags {
	configPath := flag.String("config", getEnvOrDefault(EnvConfigPath, ""),
		"Path to an optional YAML configuration file")
	logLevel := flag.String("log-level", "",
		"Log level (debug, info, warn, error); overrides configuration")
	logFormat := flag.String("log-format", "",
		"Log format (json, console); overrides configuration")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	return cliFlags{
		configPath:  *configPath,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

// printVersion prints version information.
func printVersion() {
	fmt.Printf("mpix version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// initLogger builds a logger or exits.
func initLogger(level, format string) observability.Logger {
	if level == "" {
		level = "info"
	}
	if format == "" {
		format = "json"
	}

	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  level,
		Format: format,
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

// loadConfig loads the configuration and applies flag overrides. Any error
// is fatal.
func loadConfig(flags cliFlags, logger observability.Logger) *config.Config {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", observability.Error(err))
	}

	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}
	if err := config.Validate(cfg); err != nil {
		logger.Fatal("invalid configuration", observability.Error(err))
	}
	return cfg
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
