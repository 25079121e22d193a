// Package config defines the application configuration. Values are
// read from a yaml file, from environment variables or both.
package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Recorder  RecorderConfig  `yaml:"recorder"`
	Renderer  RendererConfig  `yaml:"renderer"`
	Exports   ExportsConfig   `yaml:"exports"`
	Describer DescriberConfig `yaml:"describer"`
	Server    ServerConfig    `yaml:"server"`
}

// StoreConfig selects and configures the session store.
type StoreConfig struct {
	Type string `yaml:"type" env:"STORE_TYPE" env-default:"memory"`
	DSN  string `yaml:"dsn" env:"STORE_DSN"`
}

// RecorderConfig configures the live browser recording.
type RecorderConfig struct {
	CaptureSelector string `yaml:"capture_selector" env:"CAPTURE_SELECTOR" env-default:"body"`
	WindowWidth     int    `yaml:"window_width" env-default:"1280"`
	WindowHeight    int    `yaml:"window_height" env-default:"900"`
	UserAgent       string `yaml:"user_agent"`
}

// RendererConfig configures the offscreen capture renderer. The fixed
// width keeps renders reproducible independent of any real viewport.
type RendererConfig struct {
	Width        int    `yaml:"width" env-default:"1280"`
	SettleMS     int    `yaml:"settle_ms" env-default:"500"`
	UserAgent    string `yaml:"user_agent"`
	ChromedpPath string `yaml:"chromedp_path"`
}

type ExportsConfig struct {
	Dir    string `yaml:"dir" env:"EXPORTS_DIR" env-default:"exports"`
	Locale string `yaml:"locale" env:"EXPORTS_LOCALE" env-default:"en_US"`
}

// DescriberConfig configures the optional AI description service.
// Availability is decided here, at construction time: without an api
// key the deterministic fallback describer is used.
type DescriberConfig struct {
	APIKey    string `yaml:"api_key" env:"DESCRIBER_API_KEY"`
	Endpoint  string `yaml:"endpoint" env:"DESCRIBER_ENDPOINT" env-default:"https://api.openai.com/v1/chat/completions"`
	Model     string `yaml:"model" env:"DESCRIBER_MODEL" env-default:"gpt-4o-mini"`
	TimeoutMS int    `yaml:"timeout_ms" env-default:"10000"`
}

type ServerConfig struct {
	Addr             string      `yaml:"addr" env:"SERVER_ADDR" env-default:":8080"`
	Redis            RedisConfig `yaml:"redis"`
	SharedRatePerSec int         `yaml:"shared_rate_per_sec" env-default:"10"`
}

// RedisConfig configures the rate limit backend for shared views. An
// empty addr disables rate limiting.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

// New reads the configuration from the given yaml file, falling back
// to environment variables and defaults if the file does not exist.
func New(configPath string) (*Config, error) {
	var config Config
	if _, err := os.Stat(configPath); err != nil {
		if err := cleanenv.ReadEnv(&config); err != nil {
			return nil, fmt.Errorf("error while reading config from environment: %v", err)
		}
		return &config, nil
	}
	if err := cleanenv.ReadConfig(configPath, &config); err != nil {
		return nil, fmt.Errorf("error while reading config file %s: %v", configPath, err)
	}
	return &config, nil
}
