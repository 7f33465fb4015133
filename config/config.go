/*
Package config loads engine configuration with viper.

PURPOSE:
  Settings are layered: defaults, then an optional YAML/JSON file, then PF_
  environment variables (dots become underscores, so database.dsn is
  PF_DATABASE_DSN). Every key has a default so environment overrides work
  without a file.

SEE ALSO:
  - cmd/pfengine/main.go: --config flag and logger setup
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/propertyfriends/pf-engine/exceptions"
	"github.com/propertyfriends/pf-engine/integrations"
	"github.com/propertyfriends/pf-engine/notify"
	"github.com/propertyfriends/pf-engine/pricing"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const EnvPrefix = "PF"

type Server struct {
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type Database struct {
	DSN string `mapstructure:"dsn"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Fees struct {
	DefaultAgencyRate string `mapstructure:"default_agency_rate"`
}

type Detection struct {
	PlanExpiryDays      int `mapstructure:"plan_expiry_days"`
	PlanCriticalDays    int `mapstructure:"plan_critical_days"`
	GraceDay            int `mapstructure:"grace_day"`
	OverdueWarningDays  int `mapstructure:"overdue_warning_days"`
	OverdueCriticalDays int `mapstructure:"overdue_critical_days"`
	BookingExpiryDays   int `mapstructure:"booking_expiry_days"`
}

type Claims struct {
	// RegistrationNumber is the provider's NDIS registration number,
	// written into PRODA bulk upload files.
	RegistrationNumber string `mapstructure:"registration_number"`
}

type Schedule struct {
	Enabled         bool   `mapstructure:"enabled"`
	ExceptionCheck  string `mapstructure:"exception_check"`
	PaymentFollowup string `mapstructure:"payment_followup"`
	MonthlyCycle    string `mapstructure:"monthly_cycle"`
	Timezone        string `mapstructure:"timezone"`
}

type Auth struct {
	CronSecret string        `mapstructure:"cron_secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type Email struct {
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	From         string `mapstructure:"from"`
	OpsRecipient string `mapstructure:"ops_recipient"`
}

type OAuthClient struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	TokenURL     string `mapstructure:"token_url"`
	BaseURL      string `mapstructure:"base_url"`
}

type Pricing struct {
	RateTable string `mapstructure:"rate_table"`
}

// Config is the full engine configuration.
type Config struct {
	Server    Server      `mapstructure:"server"`
	Database  Database    `mapstructure:"database"`
	Log       Log         `mapstructure:"log"`
	Fees      Fees        `mapstructure:"fees"`
	Detection Detection   `mapstructure:"detection"`
	Schedule  Schedule    `mapstructure:"schedule"`
	Auth      Auth        `mapstructure:"auth"`
	Email     Email       `mapstructure:"email"`
	NDIA      OAuthClient `mapstructure:"ndia"`
	Xero      OAuthClient `mapstructure:"xero"`
	Pricing   Pricing     `mapstructure:"pricing"`
	Claims    Claims      `mapstructure:"claims"`
}

// SetDefaults registers every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("database.dsn", "pf.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("fees.default_agency_rate", "0.044")

	d := exceptions.DefaultConfig()
	v.SetDefault("detection.plan_expiry_days", d.PlanExpiryDays)
	v.SetDefault("detection.plan_critical_days", d.PlanCriticalDays)
	v.SetDefault("detection.grace_day", d.GraceDay)
	v.SetDefault("detection.overdue_warning_days", d.OverdueWarningDays)
	v.SetDefault("detection.overdue_critical_days", d.OverdueCriticalDays)
	v.SetDefault("detection.booking_expiry_days", d.BookingExpiryDays)
	v.SetDefault("claims.registration_number", "")

	v.SetDefault("schedule.enabled", true)
	v.SetDefault("schedule.exception_check", "0 7 * * *")
	v.SetDefault("schedule.payment_followup", "0 9 * * *")
	v.SetDefault("schedule.monthly_cycle", "0 2 1 * *")
	v.SetDefault("schedule.timezone", "Australia/Brisbane")

	v.SetDefault("auth.cron_secret", "")
	v.SetDefault("auth.token_ttl", time.Hour)

	for _, k := range []string{"host", "username", "password", "from", "ops_recipient"} {
		v.SetDefault("email."+k, "")
	}
	v.SetDefault("email.port", "587")

	for _, prefix := range []string{"ndia", "xero"} {
		for _, k := range []string{"client_id", "client_secret", "token_url", "base_url"} {
			v.SetDefault(prefix+"."+k, "")
		}
	}
	v.SetDefault("pricing.rate_table", "")
}

// Load reads configuration into a fresh viper instance. An empty file means
// defaults and environment only; a named file that does not exist is an
// error.
func Load(file string) (*Config, error) {
	return LoadViper(viper.New(), file)
}

// LoadViper is Load on a caller-supplied viper, typically one with command
// line flags already bound.
func LoadViper(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}
	return Decode(v)
}

// Decode unmarshals v and validates the result.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail later at use.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.AgencyRate(); err != nil {
		errs = append(errs, fmt.Errorf("fees.default_agency_rate: %w", err))
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format: must be text or json, got %q", c.Log.Format))
	}
	if c.Detection.GraceDay < 1 || c.Detection.GraceDay > 28 {
		errs = append(errs, fmt.Errorf("detection.grace_day: must be 1-28, got %d", c.Detection.GraceDay))
	}
	if c.Detection.OverdueCriticalDays < c.Detection.OverdueWarningDays {
		errs = append(errs, errors.New("detection.overdue_critical_days must not be below overdue_warning_days"))
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("schedule.timezone: %w", err))
	}
	return errors.Join(errs...)
}

// AgencyRate parses the default management fee rate.
func (c *Config) AgencyRate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(c.Fees.DefaultAgencyRate)
	if err != nil {
		return decimal.Zero, err
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("rate %s outside [0, 1)", rate)
	}
	return rate, nil
}

// DetectionConfig returns the detection windows.
func (c *Config) DetectionConfig() exceptions.Config {
	return exceptions.Config{
		PlanExpiryDays:      c.Detection.PlanExpiryDays,
		PlanCriticalDays:    c.Detection.PlanCriticalDays,
		GraceDay:            c.Detection.GraceDay,
		OverdueWarningDays:  c.Detection.OverdueWarningDays,
		OverdueCriticalDays: c.Detection.OverdueCriticalDays,
		BookingExpiryDays:   c.Detection.BookingExpiryDays,
	}
}

// EmailConfig returns the notifier SMTP settings.
func (c *Config) EmailConfig() notify.EmailConfig {
	return notify.EmailConfig(c.Email)
}

// Integrations returns OAuth2 credentials keyed by integration name.
func (c *Config) Integrations() map[string]integrations.Credentials {
	return map[string]integrations.Credentials{
		integrations.NDIA: c.NDIA.credentials(),
		integrations.Xero: c.Xero.credentials(),
	}
}

func (o OAuthClient) credentials() integrations.Credentials {
	return integrations.Credentials{
		ClientID:     o.ClientID,
		ClientSecret: o.ClientSecret,
		TokenURL:     o.TokenURL,
		BaseURL:      o.BaseURL,
	}
}

// Calculator returns an SDA calculator holding the built-in table plus the
// configured rate table file, which becomes current.
func (c *Config) Calculator() (*pricing.Calculator, error) {
	calc := pricing.NewCalculator()
	if c.Pricing.RateTable == "" {
		return calc, nil
	}
	t, err := pricing.LoadRateTableFile(c.Pricing.RateTable)
	if err != nil {
		return nil, fmt.Errorf("pricing.rate_table: %w", err)
	}
	calc.Register(t)
	return calc, nil
}

// Location returns the scheduler time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NewLogger builds a logrus logger from the log settings, writing to stderr.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if level, err := logrus.ParseLevel(c.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	if c.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
