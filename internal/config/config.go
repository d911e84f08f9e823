package config

import (
	"os"
	"path/filepath"

	"github.com/systmms/kvboot/internal/logging"
)

const (
	// EnvPrefix marks environment variables that override unprefixed ones.
	EnvPrefix = "KVBOOT_"

	// EnvironmentVariable names the hosting environment (Development, Production, ...).
	EnvironmentVariable = "KVBOOT_ENVIRONMENT"

	// DefaultEnvironment is used when no environment name is set.
	DefaultEnvironment = "Production"

	settingsFile = "appsettings"
)

// Config holds the runtime configuration
type Config struct {
	Dir         string
	Environment string
	Thumbprint  string
	Logger      *logging.Logger

	// Base is the local configuration: files then environment. It is nil
	// until Load succeeds.
	Base *Store
}

// Load builds the base configuration from appsettings.yaml,
// appsettings.{Environment}.yaml and the process environment.
func (c *Config) Load() error {
	return c.LoadFrom(os.Environ())
}

// LoadFrom is Load with an explicit environment.
func (c *Config) LoadFrom(environ []string) error {
	if c.Environment == "" {
		vars := environmentMap(environ)
		c.Environment = vars[EnvironmentVariable]
	}
	if c.Environment == "" {
		c.Environment = DefaultEnvironment
	}

	dir := c.Dir
	if dir == "" {
		dir = "."
	}

	store, err := NewBuilder().
		AddYAMLFile(filepath.Join(dir, settingsFile+".yaml"), true).
		AddYAMLFile(filepath.Join(dir, settingsFile+"."+c.Environment+".yaml"), true).
		AddEnvironment(EnvPrefix, environ).
		Build()
	if err != nil {
		return err
	}

	if c.Logger != nil {
		c.Logger.Debug("Loaded %d configuration keys from %v (environment %s)", store.Len(), store.Layers(), c.Environment)
	}

	c.Base = store
	return nil
}

func environmentMap(environ []string) map[string]string {
	plain, _ := environmentLayers("", environ)
	return plain
}
