package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-v int      verification token validity, minutes
//	-m string   mail outbox ("log" or "s3")
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-l string   log level
//
// Duration flags are given in minutes and only override when present.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-t", "-v", "-m", "-u", "-p", "-b", "-g", "-e", "-l"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	accessMinutes := fs.Int("t", 0, "access token validity (in minutes)")
	verificationMinutes := fs.Int("v", 0, "verification token validity (in minutes)")
	fs.StringVar(&config.MailOutbox, "m", config.MailOutbox, "mail outbox: log or s3")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}

	var err error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			err = setMinutes(&config.AccessTokenValidityDuration, *accessMinutes, "access token validity")
		case "v":
			err = setMinutes(&config.VerificationTokenValidityDuration, *verificationMinutes, "verification token validity")
		}
	})
	if err != nil {
		return err
	}

	switch config.MailOutbox {
	case MailOutboxLog, MailOutboxS3:
	default:
		return fmt.Errorf("unknown mail outbox %q", config.MailOutbox)
	}
	return nil
}

func setMinutes(dst *time.Duration, minutes int, name string) error {
	if minutes <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, minutes)
	}
	*dst = time.Duration(minutes) * time.Minute
	return nil
}
