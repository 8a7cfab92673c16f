package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
	"github.com/dmitrijs2005/authkeeper/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations use timex.Duration,
// so both "15m" and integer nanoseconds are accepted. Zero values leave
// the current setting untouched.
type JsonConfig struct {
	EndpointAddrGRPC                  string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                       string         `json:"database_dsn"`
	SecretKey                         string         `json:"secret_key"`
	AccessTokenValidityDuration       timex.Duration `json:"access_token_validity_duration"`
	VerificationTokenValidityDuration timex.Duration `json:"verification_token_validity_duration"`
	MailOutbox                        string         `json:"mail_outbox"`
	S3RootUser                        string         `json:"s3_root_user"`
	S3RootPassword                    string         `json:"s3_root_password"`
	S3Bucket                          string         `json:"s3_bucket"`
	S3Region                          string         `json:"s3_region"`
	S3BaseEndpoint                    string         `json:"s3_base_endpoint"`
	LogLevel                          string         `json:"log_level"`
}

func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	for dst, v := range map[*string]string{
		&cfg.EndpointAddrGRPC: jc.EndpointAddrGRPC,
		&cfg.DatabaseDSN:      jc.DatabaseDSN,
		&cfg.SecretKey:        jc.SecretKey,
		&cfg.MailOutbox:       jc.MailOutbox,
		&cfg.S3RootUser:       jc.S3RootUser,
		&cfg.S3RootPassword:   jc.S3RootPassword,
		&cfg.S3Bucket:         jc.S3Bucket,
		&cfg.S3Region:         jc.S3Region,
		&cfg.S3BaseEndpoint:   jc.S3BaseEndpoint,
		&cfg.LogLevel:         jc.LogLevel,
	} {
		if v != "" {
			*dst = v
		}
	}
	if jc.AccessTokenValidityDuration.Duration > 0 {
		cfg.AccessTokenValidityDuration = jc.AccessTokenValidityDuration.Duration
	}
	if jc.VerificationTokenValidityDuration.Duration > 0 {
		cfg.VerificationTokenValidityDuration = jc.VerificationTokenValidityDuration.Duration
	}
	return nil
}
