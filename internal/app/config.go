package app

import (
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"

	"github.com/xenking/kart-storefront/internal/listing"
	"github.com/xenking/kart-storefront/pkg/transport"
)

// Config holds the complete storefront configuration, loadable from
// environment variables (STOREFRONT_ prefix) or YAML config files.
type Config struct {
	API APIConfig `env:"API" yaml:"api"`
	UI  UIConfig  `env:"UI" yaml:"ui"`
	Log LogConfig `env:"LOG" yaml:"log"`
}

// APIConfig describes the shop backend.
type APIConfig struct {
	BaseURL   string        `env:"BASE_URL" yaml:"base_url" usage:"Base URL of the shop API (e.g. https://shop.example.com/api/)"`
	Key       string        `env:"KEY" yaml:"key" usage:"API key sent with every request"`
	KeyHeader string        `env:"KEY_HEADER" yaml:"key_header" default:"api_key" usage:"Header carrying the API key"`
	Token     string        `env:"TOKEN" yaml:"token" usage:"Bearer token, used instead of the API key when set"`
	Timeout   time.Duration `env:"TIMEOUT" yaml:"timeout" default:"10s" usage:"Timeout of a single request"`
}

// UIConfig controls presentation.
type UIConfig struct {
	AlertMessage   string `env:"ALERT_MESSAGE" yaml:"alert_message" usage:"Text of the add-to-cart success alert"`
	CurrencySuffix string `env:"CURRENCY_SUFFIX" yaml:"currency_suffix" default:"USD" usage:"Suffix appended to prices"`
}

// LogConfig controls logging.
type LogConfig struct {
	File  string `env:"FILE" yaml:"file" default:"storefront.log" usage:"Log file of the interactive browser"`
	Level string `env:"LEVEL" yaml:"level" default:"info" usage:"Log level"`
}

// LoadConfig loads configuration from environment variables and YAML config
// files. When path is set, only that file is read and it must exist.
// Variables from a .env file in the working directory are added to the
// environment first; they never override variables that are already set.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}

	var cfg Config
	acfg := aconfig.Config{
		EnvPrefix: "STOREFRONT",
		SkipFlags: true,
		Files:     []string{"storefront.yaml", "/etc/kart/storefront.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
			".yml":  aconfigyaml.New(),
		},
	}
	if path != "" {
		acfg.Files = []string{path}
		acfg.FailOnFileNotFound = true
	}

	loader := aconfig.LoaderFor(&cfg, acfg)
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults falls back to the KART_-prefixed variables shared
// with the API server deployment.
func (c *Config) applyPlatformDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = os.Getenv("KART_API_URL")
	}
	if c.API.Key == "" {
		c.API.Key = os.Getenv("KART_API_KEY")
	}
	if c.UI.AlertMessage == "" {
		c.UI.AlertMessage = listing.DefaultAlertMessage
	}
}

// Validate reports configuration errors.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api base URL is required: set STOREFRONT_API_BASE_URL or KART_API_URL")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return errors.Wrap(err, "api base URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("api base URL %q: scheme must be http or https", c.API.BaseURL)
	}
	if c.API.Key != "" && c.API.KeyHeader == "" {
		return errors.New("api key header must not be empty")
	}
	if c.API.Timeout < 0 {
		return errors.Errorf("api timeout %s: must not be negative", c.API.Timeout)
	}
	return nil
}

// Authorizer returns the credentials configured for the API, or nil.
func (c APIConfig) Authorizer() transport.Authorizer {
	switch {
	case c.Token != "":
		return transport.BearerToken(c.Token)
	case c.Key != "":
		return transport.APIKey(c.KeyHeader, c.Key)
	default:
		return nil
	}
}
