package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultImgBBEndpoint = "https://api.imgbb.com/1/upload"
	DefaultMaxFileBytes  = 10 << 20
	DefaultLivenessBody  = "imgbb uploader bot is alive"

	minExpiration = 60
	maxExpiration = 15552000
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token           string        `yaml:"token"`
	Language        string        `yaml:"language"`
	PollTimeout     int           `yaml:"poll_timeout"`   // seconds, long polling
	MaxFileBytes    int64         `yaml:"max_file_bytes"` // document/photo ceiling
	DownloadTimeout time.Duration `yaml:"download_timeout"`
}

type ImgBBConfig struct {
	APIKey     string        `yaml:"api_key"`
	Endpoint   string        `yaml:"endpoint"`
	Encoding   string        `yaml:"encoding"` // base64 | multipart
	Timeout    time.Duration `yaml:"timeout"`
	Expiration int           `yaml:"expiration"` // seconds, 0 = keep forever
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

// HTTPConfig is the liveness endpoint. Port 0 disables it.
type HTTPConfig struct {
	Port int    `yaml:"port"`
	Body string `yaml:"body"`
}

type MetricsConfig struct {
	Port int `yaml:"port"`
}

type Config struct {
	Bot     BotConfig     `yaml:"bot"`
	ImgBB   ImgBBConfig   `yaml:"imgbb"`
	Log     LogConfig     `yaml:"log"`
	HTTP    HTTPConfig    `yaml:"http"`
	Metrics MetricsConfig `yaml:"metrics"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig builds the configuration for the bot process: .env, then the
// optional YAML file at path, then environment overrides, then defaults.
// A missing file is not an error; a missing credential is.
func LoadConfig(path string, dev bool) (*Config, error) {
	cfg, err := load(path, dev)
	if err != nil {
		return nil, err
	}
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required (TELEGRAM_BOT_TOKEN)")
	}
	if err := cfg.validateImgBB(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadUploaderConfig is LoadConfig without the bot credential, for one-shot uploads.
func LoadUploaderConfig(path string, dev bool) (*Config, error) {
	cfg, err := load(path, dev)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateImgBB(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load(path string, dev bool) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("env %s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("TELEGRAM_BOT_TOKEN", &cfg.Bot.Token)
	str("BOT_LANGUAGE", &cfg.Bot.Language)
	str("IMGBB_API_KEY", &cfg.ImgBB.APIKey)
	str("IMGBB_ENDPOINT", &cfg.ImgBB.Endpoint)
	str("IMGBB_ENCODING", &cfg.ImgBB.Encoding)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)

	for key, dst := range map[string]*int{
		"PORT":             &cfg.HTTP.Port,
		"METRICS_PORT":     &cfg.Metrics.Port,
		"IMGBB_EXPIRATION": &cfg.ImgBB.Expiration,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}

	if v, ok := lookup("MAX_FILE_BYTES"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("env MAX_FILE_BYTES: %w", err)
		}
		cfg.Bot.MaxFileBytes = n
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.PollTimeout <= 0 {
		cfg.Bot.PollTimeout = 60
	}
	if cfg.Bot.MaxFileBytes <= 0 {
		cfg.Bot.MaxFileBytes = DefaultMaxFileBytes
	}
	if cfg.Bot.DownloadTimeout <= 0 {
		cfg.Bot.DownloadTimeout = 60 * time.Second
	}
	if cfg.Bot.Language == "" {
		cfg.Bot.Language = "en"
	}
	if cfg.ImgBB.Endpoint == "" {
		cfg.ImgBB.Endpoint = DefaultImgBBEndpoint
	}
	if cfg.ImgBB.Encoding == "" {
		cfg.ImgBB.Encoding = "base64"
	}
	cfg.ImgBB.Encoding = strings.ToLower(cfg.ImgBB.Encoding)
	if cfg.ImgBB.Timeout <= 0 {
		cfg.ImgBB.Timeout = 60 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Body == "" {
		cfg.HTTP.Body = DefaultLivenessBody
	}
}

func (c *Config) validateImgBB() error {
	if c.ImgBB.APIKey == "" {
		return errors.New("imgbb.api_key is required (IMGBB_API_KEY)")
	}
	switch c.ImgBB.Encoding {
	case "base64", "multipart":
	default:
		return fmt.Errorf("imgbb.encoding must be base64 or multipart, got %q", c.ImgBB.Encoding)
	}
	if e := c.ImgBB.Expiration; e != 0 && (e < minExpiration || e > maxExpiration) {
		return fmt.Errorf("imgbb.expiration must be between %d and %d seconds", minExpiration, maxExpiration)
	}
	return nil
}
