package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/g-but/fitfoot/internal/logger"
)

const (
	defaultAPIBase         = "http://localhost:9000"
	defaultAppURL          = "http://localhost:8000"
	defaultLoggingLevel    = logger.LevelWarn
	defaultMonitorInterval = time.Minute
	defaultStateFile       = ".fitfoot/session.json" // relative to home dir
)

type Config struct {
	// Commerce API base url
	APIBase string

	// Storefront server url
	AppURL string

	// File the session is kept in between runs
	StateFile string

	// Hex encoded 32 bytes key to encrypt the state file with. Empty keeps it in plain JSON
	StateKey string

	LogLevel string

	// How often `watch` checks token expiry
	MonitorInterval time.Duration
}

func NewConfig(home string) *Config {
	return &Config{
		APIBase:         defaultAPIBase,
		AppURL:          defaultAppURL,
		StateFile:       filepath.Join(home, defaultStateFile),
		LogLevel:        defaultLoggingLevel,
		MonitorInterval: defaultMonitorInterval,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setDuration := func(o *time.Duration) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			*o = d
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"API_BASE":         setString(&c.APIBase),
		"APP_URL":          setString(&c.AppURL),
		"STATE_FILE":       setString(&c.StateFile),
		"STATE_KEY":        setString(&c.StateKey),
		"LOG_LEVEL":        setString(&c.LogLevel),
		"MONITOR_INTERVAL": setDuration(&c.MonitorInterval),
	}

	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	return nil
}

// ParseFlags parses global flags standing before the command and returns the command with its arguments
func (c *Config) ParseFlags(args []string) ([]string, error) {
	fs := pflag.NewFlagSet("shopctl", pflag.ContinueOnError)
	fs.SetInterspersed(false)

	fs.StringVar(&c.APIBase, "api-base", c.APIBase, "Commerce API base url")
	fs.StringVar(&c.AppURL, "app-url", c.AppURL, "Storefront url")
	fs.StringVar(&c.StateFile, "state", c.StateFile, "Session state file")
	fs.StringVar(&c.StateKey, "state-key", c.StateKey, "Hex encoded 32 bytes key to encrypt the state file")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.DurationVar(&c.MonitorInterval, "interval", c.MonitorInterval, "Token expiry check interval for watch")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return fs.Args(), nil
}
