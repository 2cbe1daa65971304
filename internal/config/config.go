// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"codeberg.org/walletsurance/nominee/internal/models"
	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

var configFile = altsrc.StringSourcer("config.toml")

// ErrInvalid is returned by Validate for settings the service cannot run with.
var ErrInvalid = errors.New("invalid configuration")

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	TLS      TLSConfig
	Ledger   LedgerConfig
	Monitor  MonitorConfig
	Claim    ClaimConfig
	SMS      SMSConfig
	SMTP     SMTPConfig
	Offramp  OfframpConfig
	Errors   ErrorsConfig
}

type TLSConfig struct {
	Mode     string // auto, acme, selfsigned, manual, off
	CertDir  string // Directory for auto-generated certificates
	Email    string // ACME email for Let's Encrypt
	CertFile string // Path to certificate file (manual mode)
	KeyFile  string // Path to private key file (manual mode)
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	BaseURL     string
	MaxBodySize int // in MB
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	DSN string
}

type LedgerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	HorizonURL           string
	NetworkPassphrase    string
	PlatformSweepAddress string // optional, published to claimants
	Timeout              time.Duration
}

type MonitorConfig struct { //nolint:govet // fieldalignment not critical for config structs
	DefaultInactivityDays int
	MissingActivity       string // inactive, skip
	Concurrency           int
	CollaboratorTimeout   time.Duration
}

type ClaimConfig struct {
	SingleUse bool   // consumed tokens stop resolving
	BaseURL   string // origin used in claim links, defaults to Server.BaseURL
}

type SMSConfig struct {
	Provider         string // auto, twilio, mail, log
	Locale           string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
	TwilioBaseURL    string
	GatewayDomain    string // mail-to-SMS gateway, e.g. sms.example.com
}

type SMTPConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

type OfframpConfig struct {
	RateXLMINR float64
}

type ErrorsConfig struct {
	Detail bool // include the error chain in API responses
}

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			BaseURL:     cmd.String("base-url"),
			MaxBodySize: int(cmd.Int("max-body-size")),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			DSN: cmd.String("database-dsn"),
		},
		TLS: TLSConfig{
			Mode:     cmd.String("tls-mode"),
			CertDir:  cmd.String("tls-cert-dir"),
			Email:    cmd.String("tls-email"),
			CertFile: cmd.String("tls-cert-file"),
			KeyFile:  cmd.String("tls-key-file"),
		},
		Ledger: LedgerConfig{
			HorizonURL:           cmd.String("horizon-url"),
			NetworkPassphrase:    cmd.String("network-passphrase"),
			PlatformSweepAddress: cmd.String("platform-sweep-address"),
			Timeout:              cmd.Duration("ledger-timeout"),
		},
		Monitor: MonitorConfig{
			DefaultInactivityDays: int(cmd.Int("default-inactivity-days")),
			MissingActivity:       cmd.String("missing-activity"),
			Concurrency:           int(cmd.Int("monitor-concurrency")),
			CollaboratorTimeout:   cmd.Duration("collaborator-timeout"),
		},
		Claim: ClaimConfig{
			SingleUse: cmd.Bool("claim-single-use"),
			BaseURL:   cmd.String("claim-base-url"),
		},
		SMS: SMSConfig{
			Provider:         cmd.String("sms-provider"),
			Locale:           cmd.String("sms-locale"),
			TwilioAccountSID: cmd.String("twilio-account-sid"),
			TwilioAuthToken:  cmd.String("twilio-auth-token"),
			TwilioFrom:       cmd.String("twilio-from"),
			TwilioBaseURL:    cmd.String("twilio-base-url"),
			GatewayDomain:    cmd.String("sms-gateway-domain"),
		},
		SMTP: SMTPConfig{
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			From:     cmd.String("smtp-from"),
			FromName: cmd.String("smtp-from-name"),
			TLS:      cmd.Bool("smtp-tls"),
		},
		Offramp: OfframpConfig{
			RateXLMINR: cmd.Float("offramp-rate-xlm-inr"),
		},
		Errors: ErrorsConfig{
			Detail: cmd.Bool("error-detail"),
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = buildBaseURL(cfg)
	}
	if cfg.Claim.BaseURL == "" {
		cfg.Claim.BaseURL = cfg.Server.BaseURL
	}

	return cfg
}

// Validate rejects settings that would only fail later at runtime.
func (c *Config) Validate() error {
	switch c.Monitor.MissingActivity {
	case "inactive", "skip":
	default:
		return fmt.Errorf("%w: missing-activity must be inactive or skip, got %q", ErrInvalid, c.Monitor.MissingActivity)
	}
	if c.Monitor.DefaultInactivityDays < 0 || c.Monitor.DefaultInactivityDays > models.MaxInactivityDays {
		return fmt.Errorf("%w: default-inactivity-days must be between 0 and %d", ErrInvalid, models.MaxInactivityDays)
	}
	if c.Monitor.Concurrency < 1 {
		return fmt.Errorf("%w: monitor-concurrency must be at least 1", ErrInvalid)
	}
	if c.Offramp.RateXLMINR <= 0 {
		return fmt.Errorf("%w: offramp-rate-xlm-inr must be positive", ErrInvalid)
	}
	switch c.SMS.Provider {
	case "auto", "twilio", "mail", "log":
	default:
		return fmt.Errorf("%w: unknown sms-provider %q", ErrInvalid, c.SMS.Provider)
	}
	return nil
}

func buildBaseURL(cfg *Config) string {
	host := cfg.Server.Host
	port := cfg.Server.Port
	mode := strings.ToLower(cfg.TLS.Mode)

	// Determine if TLS will be used
	useTLS := shouldUseTLS(mode, host)

	scheme := "http"
	if useTLS {
		scheme = "https"
	}

	// ACME mode always uses port 443
	if mode == "acme" {
		return fmt.Sprintf("https://%s", host)
	}

	// Hide default ports in URL
	if (scheme == "http" && port == 80) || (scheme == "https" && port == 443) {
		return fmt.Sprintf("%s://%s", scheme, host)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, port)
}

func shouldUseTLS(mode, host string) bool {
	switch mode {
	case "off":
		return false
	case "acme", "selfsigned", "manual":
		return true
	default: // "auto" or empty
		return !IsLocalhost(host)
	}
}

// IsLocalhost checks if the host is a localhost address.
func IsLocalhost(host string) bool {
	switch host {
	case "", "localhost", "127.0.0.1", "::1":
		return true
	}
	// Check for *.localhost subdomains (e.g., app.localhost)
	return strings.HasSuffix(host, ".localhost")
}

func Flags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: cli.NewValueSourceChain(cli.EnvVar("HOST"), toml.TOML("server.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "Port to listen on",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PORT"), toml.TOML("server.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Base URL for the application",
			Sources: cli.NewValueSourceChain(cli.EnvVar("BASE_URL"), toml.TOML("server.base_url", configFile)),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   1,
			Usage:   "Maximum request body size in MB",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MAX_BODY_SIZE"), toml.TOML("server.max_body_size", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_LEVEL"), toml.TOML("log.level", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_FORMAT"), toml.TOML("log.format", configFile)),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/nominee.db",
			Usage:   "Database DSN",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DATABASE_DSN"), toml.TOML("database.dsn", configFile)),
		},
		&cli.StringFlag{
			Name:    "tls-mode",
			Value:   "auto",
			Usage:   "TLS mode (auto, acme, selfsigned, manual, off)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TLS_MODE"), toml.TOML("tls.mode", configFile)),
		},
		&cli.StringFlag{
			Name:    "tls-cert-dir",
			Value:   "./data/certs",
			Usage:   "Directory for auto-generated certificates",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TLS_CERT_DIR"), toml.TOML("tls.cert_dir", configFile)),
		},
		&cli.StringFlag{
			Name:    "tls-email",
			Usage:   "Email for ACME/Let's Encrypt registration",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TLS_EMAIL"), toml.TOML("tls.email", configFile)),
		},
		&cli.StringFlag{
			Name:    "tls-cert-file",
			Usage:   "Path to TLS certificate file (manual mode)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TLS_CERT_FILE"), toml.TOML("tls.cert_file", configFile)),
		},
		&cli.StringFlag{
			Name:    "tls-key-file",
			Usage:   "Path to TLS private key file (manual mode)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TLS_KEY_FILE"), toml.TOML("tls.key_file", configFile)),
		},
		&cli.BoolFlag{
			Name:    "error-detail",
			Usage:   "Include the internal error chain in API error responses",
			Sources: cli.NewValueSourceChain(cli.EnvVar("ERROR_DETAIL"), toml.TOML("errors.detail", configFile)),
		},
	}
	flags = append(flags, ledgerFlags()...)
	flags = append(flags, monitorFlags()...)
	flags = append(flags, notifyFlags()...)
	return flags
}

func ledgerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "horizon-url",
			Value:   "https://horizon-testnet.stellar.org",
			Usage:   "Horizon server URL",
			Sources: cli.NewValueSourceChain(cli.EnvVar("HORIZON_URL"), toml.TOML("ledger.horizon_url", configFile)),
		},
		&cli.StringFlag{
			Name:    "network-passphrase",
			Value:   "Test SDF Network ; September 2015",
			Usage:   "Stellar network passphrase published to claimants",
			Sources: cli.NewValueSourceChain(cli.EnvVar("NETWORK_PASSPHRASE"), toml.TOML("ledger.network_passphrase", configFile)),
		},
		&cli.StringFlag{
			Name:    "platform-sweep-address",
			Usage:   "Platform address claimants may sweep funds to",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PLATFORM_SWEEP_ADDRESS"), toml.TOML("ledger.platform_sweep_address", configFile)),
		},
		&cli.DurationFlag{
			Name:    "ledger-timeout",
			Value:   15 * time.Second,
			Usage:   "HTTP timeout for Horizon requests",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LEDGER_TIMEOUT"), toml.TOML("ledger.timeout", configFile)),
		},
	}
}

func monitorFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "default-inactivity-days",
			Value:   30,
			Usage:   "Inactivity period used when a registration omits it",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DEFAULT_INACTIVITY_DAYS"), toml.TOML("monitor.default_inactivity_days", configFile)),
		},
		&cli.StringFlag{
			Name:    "missing-activity",
			Value:   "inactive",
			Usage:   "How to treat accounts without recorded activity (inactive, skip)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MISSING_ACTIVITY"), toml.TOML("monitor.missing_activity", configFile)),
		},
		&cli.IntFlag{
			Name:    "monitor-concurrency",
			Value:   4,
			Usage:   "Nominees checked in parallel during a pass",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MONITOR_CONCURRENCY"), toml.TOML("monitor.concurrency", configFile)),
		},
		&cli.DurationFlag{
			Name:    "collaborator-timeout",
			Value:   15 * time.Second,
			Usage:   "Deadline for each oracle or notification call",
			Sources: cli.NewValueSourceChain(cli.EnvVar("COLLABORATOR_TIMEOUT"), toml.TOML("monitor.collaborator_timeout", configFile)),
		},
		&cli.BoolFlag{
			Name:    "claim-single-use",
			Usage:   "Stop resolving claim tokens once a claim was submitted",
			Sources: cli.NewValueSourceChain(cli.EnvVar("CLAIM_SINGLE_USE"), toml.TOML("claim.single_use", configFile)),
		},
		&cli.StringFlag{
			Name:    "claim-base-url",
			Usage:   "Origin used in claim links (defaults to base-url)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("CLAIM_BASE_URL"), toml.TOML("claim.base_url", configFile)),
		},
		&cli.FloatFlag{
			Name:    "offramp-rate-xlm-inr",
			Value:   10.5,
			Usage:   "Mock XLM to INR rate for off-ramp quotes",
			Sources: cli.NewValueSourceChain(cli.EnvVar("OFFRAMP_RATE_XLM_INR"), toml.TOML("offramp.rate_xlm_inr", configFile)),
		},
	}
}

func notifyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "sms-provider",
			Value:   "auto",
			Usage:   "Claim notification channel (auto, twilio, mail, log)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMS_PROVIDER"), toml.TOML("sms.provider", configFile)),
		},
		&cli.StringFlag{
			Name:    "sms-locale",
			Value:   "en",
			Usage:   "Language of claim notifications",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMS_LOCALE"), toml.TOML("sms.locale", configFile)),
		},
		&cli.StringFlag{
			Name:    "twilio-account-sid",
			Usage:   "Twilio account SID",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TWILIO_ACCOUNT_SID"), toml.TOML("sms.twilio_account_sid", configFile)),
		},
		&cli.StringFlag{
			Name:    "twilio-auth-token",
			Usage:   "Twilio auth token",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TWILIO_AUTH_TOKEN"), toml.TOML("sms.twilio_auth_token", configFile)),
		},
		&cli.StringFlag{
			Name:    "twilio-from",
			Usage:   "Twilio sender number",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TWILIO_PHONE_NUMBER"), toml.TOML("sms.twilio_from", configFile)),
		},
		&cli.StringFlag{
			Name:    "twilio-base-url",
			Value:   "https://api.twilio.com",
			Usage:   "Twilio API base URL",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TWILIO_BASE_URL"), toml.TOML("sms.twilio_base_url", configFile)),
		},
		&cli.StringFlag{
			Name:    "sms-gateway-domain",
			Usage:   "Mail-to-SMS gateway domain (number@domain)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMS_GATEWAY_DOMAIN"), toml.TOML("sms.gateway_domain", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP server host",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_HOST"), toml.TOML("smtp.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP server port",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PORT"), toml.TOML("smtp.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_USERNAME"), toml.TOML("smtp.username", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PASSWORD"), toml.TOML("smtp.password", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Usage:   "Sender address for gateway mails",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM"), toml.TOML("smtp.from", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from-name",
			Usage:   "Sender display name",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM_NAME"), toml.TOML("smtp.from_name", configFile)),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS for SMTP",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_TLS"), toml.TOML("smtp.tls", configFile)),
		},
	}
}
