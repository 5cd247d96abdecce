package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/gommon/bytes"
	"github.com/spf13/viper"
)

const (
	// DefaultOrchestratorURL is used when ORCH_URL is not set
	DefaultOrchestratorURL = "http://127.0.0.1:8001"
	// DefaultOrchestratorTimeout bounds each outbound orchestrator call. Reviews
	// clone, generate and push, so this is generous.
	DefaultOrchestratorTimeout = 5 * time.Minute
	// DefaultPort is the gateway listen port
	DefaultPort = "8080"
	// DefaultMaxBodySize bounds inbound request bodies. Review requests may
	// carry a whole analytics CSV export in csv_text.
	DefaultMaxBodySize = "10M"
	// EnvPrefix prefixes every environment override except ORCH_URL
	EnvPrefix = "SEO_AGENT_PROXY"
)

// OrchestratorConfig describes where the SEO agent orchestrator lives
type OrchestratorConfig struct {
	// URL is the orchestrator base address, without trailing slash
	URL string `json:"url" mapstructure:"url"`
	// Timeout bounds each call; zero disables the bound
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// CORSConfig controls which browser origins may call the gateway
type CORSConfig struct {
	AllowOrigins []string `json:"allow_origins" mapstructure:"allow_origins"`
}

// Config represents the gateway configuration
type Config struct {
	Port         string             `json:"port" mapstructure:"port"`
	Verbose      bool               `json:"verbose" mapstructure:"verbose"`
	MaxBodySize  string             `json:"max_body_size" mapstructure:"max_body_size"`
	Orchestrator OrchestratorConfig `json:"orchestrator" mapstructure:"orchestrator"`
	CORS         CORSConfig         `json:"cors" mapstructure:"cors"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Port:        DefaultPort,
		MaxBodySize: DefaultMaxBodySize,
		Orchestrator: OrchestratorConfig{
			URL:     DefaultOrchestratorURL,
			Timeout: DefaultOrchestratorTimeout,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"*"},
		},
	}
}

// NewViper returns a viper instance with defaults and environment bindings applied
func NewViper() *viper.Viper {
	v := viper.New()
	def := DefaultConfig()
	v.SetDefault("port", def.Port)
	v.SetDefault("verbose", def.Verbose)
	v.SetDefault("max_body_size", def.MaxBodySize)
	v.SetDefault("orchestrator.url", def.Orchestrator.URL)
	v.SetDefault("orchestrator.timeout", def.Orchestrator.Timeout)
	v.SetDefault("cors.allow_origins", def.CORS.AllowOrigins)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// ORCH_URL is the historical name and wins over the prefixed variant
	_ = v.BindEnv("orchestrator.url", "ORCH_URL", EnvPrefix+"_ORCHESTRATOR_URL")
	return v
}

// LoadConfig resolves the configuration from an optional file (JSON, YAML or TOML),
// environment variables and anything already bound on v.
// A missing file is not an error; the remaining sources still apply.
func LoadConfig(v *viper.Viper, filename string) (*Config, error) {
	if v == nil {
		v = NewViper()
	}

	if filename != "" {
		v.SetConfigFile(filename)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
			}
			log.Printf("[CONFIG] Config file %s not found, using environment and defaults", filename)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.Orchestrator.URL = strings.TrimRight(strings.TrimSpace(c.Orchestrator.URL), "/")
	if c.Orchestrator.URL == "" {
		c.Orchestrator.URL = DefaultOrchestratorURL
	}
	u, err := url.Parse(c.Orchestrator.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid orchestrator url %q", c.Orchestrator.URL)
	}
	if c.Orchestrator.Timeout < 0 {
		return fmt.Errorf("orchestrator timeout must not be negative, got %s", c.Orchestrator.Timeout)
	}
	if c.Port == "" {
		c.Port = DefaultPort
	}
	c.MaxBodySize = strings.TrimSpace(c.MaxBodySize)
	if c.MaxBodySize == "" {
		c.MaxBodySize = DefaultMaxBodySize
	}
	if _, err := bytes.Parse(c.MaxBodySize); err != nil {
		return fmt.Errorf("invalid max body size %q: %w", c.MaxBodySize, err)
	}
	return nil
}
