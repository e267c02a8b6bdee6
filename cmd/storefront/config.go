package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/g-but/fitfoot/internal/logger"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultCommerceAPI  = "http://localhost:9000"
	defaultAppURL       = "http://localhost:8000"
	defaultEnvironment  = logger.EnvProduction
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the storefront server will be run
	ListenAddr string

	// Commerce API base url the account flows are forwarded to
	CommerceAPI string

	// Public url of the storefront, confirmation and reset links point there
	AppURL string

	// Database to keep products in. Empty means in-memory storage
	DatabaseDSN string

	// Key shared with the commerce API to verify admin tokens.
	// Empty means admin endpoints only check a bearer token is present
	AdminTokenSecret string

	// Environment: links and tokens are echoed in responses outside production
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:    defaultLoggingLevel,
		ListenAddr:  defaultListenAddr,
		CommerceAPI: defaultCommerceAPI,
		AppURL:      defaultAppURL,
		Environment: defaultEnvironment,
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
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":        setString(&c.ListenAddr),
		"DATABASE_URI":       setString(&c.DatabaseDSN),
		"COMMERCE_API_BASE":  setString(&c.CommerceAPI),
		"APP_URL":            setString(&c.AppURL),
		"ADMIN_TOKEN_SECRET": setString(&c.AdminTokenSecret),
		"LOG_LEVEL":          setString(&c.LogLevel),
		"ENVIRONMENT":        setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("storefront", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string, in-memory storage if empty")
	fs.StringVarP(&c.CommerceAPI, "commerce-api", "c", c.CommerceAPI, "Commerce API base url")
	fs.StringVarP(&c.AppURL, "app-url", "u", c.AppURL, "Public storefront url")
	fs.StringVarP(&c.AdminTokenSecret, "admin-secret", "s", c.AdminTokenSecret, "Secret to verify admin tokens")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (development, production)")

	return fs.Parse(args)
}

// Development mode exposes confirmation and reset tokens in responses
func (c *Config) Development() bool {
	return c.Environment == logger.EnvDevelopment
}
