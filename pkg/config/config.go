// Package config resolves menued settings from an optional .env file and
// the process environment. Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mchmarny/menued/pkg/menu"
	"github.com/mchmarny/menued/pkg/storage"
	"github.com/mchmarny/menued/pkg/store"
)

// Environment variable names.
const (
	EnvStore        = "MENUED_STORE"
	EnvKey          = "MENUED_KEY"
	EnvPort         = "MENUED_PORT"
	EnvIDStrategy   = "MENUED_ID_STRATEGY"
	EnvValidateDrop = "MENUED_VALIDATE_DROP"
	EnvS3Endpoint   = "MENUED_S3_ENDPOINT"
	EnvS3Region     = "MENUED_S3_REGION"
	EnvS3AccessKey  = "MENUED_S3_ACCESS_KEY"
	EnvS3SecretKey  = "MENUED_S3_SECRET_KEY"
)

const (
	// DefaultEnvFile is read when present; a missing default file is not an error.
	DefaultEnvFile = ".env"

	// DefaultStore keeps the forest under ~/.menued.
	DefaultStore = "file:~/.menued"

	// DefaultPort is the HTTP port of `menued serve`.
	DefaultPort = 9876
)

// Config holds the resolved settings.
type Config struct {
	Store        string
	Key          string
	Port         int
	IDStrategy   string
	ValidateDrop bool
	S3           storage.S3Options
}

// Load reads envFile (DefaultEnvFile when empty) into the environment without
// overriding variables already set, then resolves the Config. An explicitly
// named env file must exist.
func Load(envFile string) (*Config, error) {
	explicit := envFile != ""
	if !explicit {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}
	return FromEnv()
}

// FromEnv resolves the Config from the process environment only.
func FromEnv() (*Config, error) {
	c := &Config{
		Store:      getenv(EnvStore, DefaultStore),
		Key:        getenv(EnvKey, store.DefaultKey),
		Port:       DefaultPort,
		IDStrategy: getenv(EnvIDStrategy, menu.StrategyPositional),
		S3: storage.S3Options{
			Endpoint:  os.Getenv(EnvS3Endpoint),
			Region:    os.Getenv(EnvS3Region),
			AccessKey: os.Getenv(EnvS3AccessKey),
			SecretKey: os.Getenv(EnvS3SecretKey),
		},
	}

	if v := os.Getenv(EnvPort); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p <= 0 || p > 65535 {
			return nil, fmt.Errorf("invalid %s %q", EnvPort, v)
		}
		c.Port = p
	}

	if v := os.Getenv(EnvValidateDrop); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", EnvValidateDrop, v, err)
		}
		c.ValidateDrop = b
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the settings that have a fixed set of values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Store) == "" {
		return errors.New("store must not be empty")
	}
	if strings.TrimSpace(c.Key) == "" {
		return errors.New("key must not be empty")
	}
	if _, err := menu.NewIDGenerator(c.IDStrategy); err != nil {
		return err
	}
	return nil
}

// StorageOptions returns the backend options derived from the Config.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{S3: c.S3}
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
