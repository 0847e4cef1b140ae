// Package cli holds the initialization shared by the commands under cmd/.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"igreja/internal/config"
	applog "igreja/internal/log"
)

// LoadEnvFile loads .env for local development. A missing file is ignored.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger installs the configured handler as the default logger.
func SetupLogger(level, format, component string) *applog.Logger {
	lvl, err := applog.ParseLevel(level)
	logger := applog.New(applog.Config{
		Level:     lvl,
		Format:    format,
		Component: component,
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)
	if err != nil {
		logger.WarnContext(context.Background(), "Invalid log level, using info", applog.FieldError, err)
	}
	return logger
}

// LoadAndValidateConfig loads the environment and exits on invalid
// configuration. validate selects the check of the running command.
func LoadAndValidateConfig(validate func(*config.Config) error) *config.Config {
	LoadEnvFile()
	cfg := config.Load()
	if err := validate(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
