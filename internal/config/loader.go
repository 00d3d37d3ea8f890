// loader.go implements the configuration loading lifecycle.
//
// The loading sequence is:
//  1. Enforce UTC timezone so update timestamps are comparable.
//  2. Load the dotenv file via godotenv (non-fatal if the default .env is absent).
//  3. Use envconfig to process struct tags and populate the Config struct.
//  4. Populate BuildInfo from linker-injected variables and derive the
//     default routing User-Agent from it.
//  5. Validate the struct using go-playground/validator.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"searoute/internal/types"
)

// ConfigError is a diagnostic error type returned by Load to aid debugging.
// It wraps a ConfigErrorType and an underlying error message.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// dotenvFileVar names an alternate dotenv file. When set, the file must exist.
const dotenvFileVar = "SEAROUTE_ENV_FILE"

const defaultDotenvFile = ".env"

// Load loads and validates the configuration from the process environment.
func Load() (*Config, error) {
	return load(os.LookupEnv)
}

func load(lookupEnv func(string) (string, bool)) (*Config, error) {
	time.Local = time.UTC

	// godotenv does NOT override variables already present in the environment.
	if path, ok := lookupEnv(dotenvFileVar); ok && path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, &ConfigError{
				Type:    ErrDotenv,
				Message: fmt.Sprintf("failed to load %s", path),
				Err:     err,
			}
		}
	} else if err := godotenv.Load(defaultDotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &ConfigError{
			Type:    ErrDotenv,
			Message: "failed to load .env",
			Err:     err,
		}
	}

	// The empty prefix "" means envconfig uses the exact tag values.
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	cfg.Build = NewBuildInfo()
	if cfg.Routing.UserAgent == "" {
		cfg.Routing.UserAgent = cfg.Build.UserAgent()
	}

	if err := types.Validator().Struct(cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}

	return &cfg, nil
}
