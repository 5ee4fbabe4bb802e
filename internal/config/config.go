package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name      string `envconfig:"APP_NAME" default:"Africa Access Water"`
		Port      int    `envconfig:"PORT" default:"3001"`
		Env       string `envconfig:"APP_ENV" default:"development"`
		ClientURL string `envconfig:"CLIENT_URL" default:"http://localhost:3000"`
	}

	DB struct {
		URL      string `envconfig:"DATABASE_URL"`
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"afaw"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	HTTP struct {
		AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	}

	Auth struct {
		JWTSecret string `envconfig:"JWT_SECRET"`
	}

	Stripe struct {
		SecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
		WebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	}

	Mail struct {
		Host      string `envconfig:"EMAIL_HOST"`
		Port      int    `envconfig:"EMAIL_PORT" default:"465"`
		User      string `envconfig:"EMAIL_USER"`
		Password  string `envconfig:"EMAIL_PASS"`
		FromName  string `envconfig:"EMAIL_FROM_NAME" default:"Africa Access Water"`
		Workers   int    `envconfig:"EMAIL_WORKERS" default:"2"`
		QueueSize int    `envconfig:"EMAIL_QUEUE_SIZE" default:"256"`
	}

	Receipt struct {
		RendererURL string        `envconfig:"RECEIPT_RENDERER_URL"`
		Timeout     time.Duration `envconfig:"RECEIPT_TIMEOUT" default:"20s"`
	}

	Admin struct {
		Emails []string `envconfig:"ADMIN_EMAILS"`
	}
}

// ConnectionString prefers DATABASE_URL and falls back to the discrete DB_* settings.
func (c *Config) ConnectionString() string {
	if c.DB.URL != "" {
		return c.DB.URL
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Validate checks the settings the API server cannot start without.
func (c *Config) Validate() error {
	var errs []error

	if c.Stripe.SecretKey == "" {
		errs = append(errs, errors.New("STRIPE_SECRET_KEY is required"))
	}

	if c.Stripe.WebhookSecret == "" {
		errs = append(errs, errors.New("STRIPE_WEBHOOK_SECRET is required"))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}

	if c.Mail.Host != "" && c.Mail.User == "" {
		errs = append(errs, errors.New("EMAIL_USER is required when EMAIL_HOST is set"))
	}

	if c.Mail.Workers < 1 {
		errs = append(errs, errors.New("EMAIL_WORKERS must be at least 1"))
	}

	return errors.Join(errs...)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
