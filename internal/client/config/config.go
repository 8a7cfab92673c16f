package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the authkeeper CLI.
//
// Units: OnlineCheckInterval is a time.Duration (e.g., 3*time.Second).
type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	DatabasePath        string
	VaultKeyPath        string
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults. Local files live under
// the user's config directory.
func (c *Config) LoadDefaults() {
	dir := dataDir()
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.DatabasePath = filepath.Join(dir, "client.db")
	c.VaultKeyPath = filepath.Join(dir, "device.key")
	c.LogLevel = "warn"
}

func dataDir() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		return ".authkeeper"
	}
	return filepath.Join(base, "authkeeper")
}

// Load builds a Config from defaults, then the JSON file named by -c/-config
// (if any), then flags. Later sources take precedence.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig is Load over the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}
