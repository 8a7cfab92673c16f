package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
//	-a string   address and port of the identity server
//	-i int      online check interval (seconds)
//	-d string   path of the local database
//	-k string   path of the device key file
//	-l string   log level
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-i", "-d", "-k", "-l"})

	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	interval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database path")
	fs.StringVar(&cfg.VaultKeyPath, "k", cfg.VaultKeyPath, "device key path")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}

	// -i only overrides when given, so sub-second JSON intervals survive.
	var err error
	fs.Visit(func(f *flag.Flag) {
		if f.Name != "i" {
			return
		}
		if *interval <= 0 {
			err = fmt.Errorf("online check interval must be positive, got %d", *interval)
			return
		}
		cfg.OnlineCheckInterval = time.Duration(*interval) * time.Second
	})
	return err
}
