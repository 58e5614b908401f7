package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Database   DatabaseConfig   `mapstructure:"database"`
	AWS        AWSConfig        `mapstructure:"aws"`
	Identity   IdentityConfig   `mapstructure:"identity"`
	Onboarding OnboardingConfig `mapstructure:"onboarding"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AWSConfig holds settings for the blob store and outbound messaging.
type AWSConfig struct {
	Region       string `mapstructure:"region"`
	UploadBucket string `mapstructure:"upload_bucket"`
	SenderEmail  string `mapstructure:"sender_email"`
	SMSSenderID  string `mapstructure:"sms_sender_id"`
}

// IdentityConfig holds settings for the identity provider.
type IdentityConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	Realm        string `mapstructure:"realm"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// OnboardingConfig holds workflow tuning knobs.
type OnboardingConfig struct {
	// AutosaveDebounce is how long the autosave task waits after the last
	// edit before persisting a snapshot.
	AutosaveDebounce time.Duration `mapstructure:"autosave_debounce"`
	// ProgressTTL bounds how long an interrupted session survives.
	ProgressTTL time.Duration `mapstructure:"progress_ttl"`
	// RedirectAfter is surfaced to the caller on successful submission so
	// the success message can be read before navigation.
	RedirectAfter time.Duration `mapstructure:"redirect_after"`
	// ProgressKeyPrefix namespaces saved-progress envelopes per applicant.
	ProgressKeyPrefix string `mapstructure:"progress_key_prefix"`
	// OTPTTL bounds how long a delivered verification code stays valid.
	OTPTTL time.Duration `mapstructure:"otp_ttl"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
