package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"readTimeout"`
		WriteTimeout    time.Duration `yaml:"writeTimeout"`
		IdleTimeout     time.Duration `yaml:"idleTimeout"`
		ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
		MaxUploadMB     int64         `yaml:"maxUploadMB"`
		RateLimit       int           `yaml:"rateLimit"` // requests per minute per client, 0 = off
		CORSOrigins     []string      `yaml:"corsOrigins"`
		TrustProxy      bool          `yaml:"trustProxy"` // honour X-Forwarded-For / X-Real-IP
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	OpenAI struct {
		APIKey     string `yaml:"apiKey"`
		BaseURL    string `yaml:"baseURL"`
		Model      string `yaml:"model"`
		ImageModel string `yaml:"imageModel"`
		ImageSize  string `yaml:"imageSize"`
		MaxTokens  int    `yaml:"maxTokens"`
	} `yaml:"openai"`

	Pipeline struct {
		Timeout     time.Duration `yaml:"timeout"`
		Language    string        `yaml:"language"`
		CompressPDF bool          `yaml:"compressPDF"`
	} `yaml:"pipeline"`

	OCR struct {
		Tesseract   string `yaml:"tesseract"`
		Lang        string `yaml:"lang"`
		PSM         int    `yaml:"psm"`
		TessdataDir string `yaml:"tessdataDir"`
	} `yaml:"ocr"`

	Archive struct {
		Enabled     bool   `yaml:"enabled"`
		Endpoint    string `yaml:"endpoint"`
		AccessKey   string `yaml:"accessKey"`
		SecretKey   string `yaml:"secretKey"`
		BucketName  string `yaml:"bucketName"`
		Region      string `yaml:"region"`
		UseSSL      bool   `yaml:"useSSL"`
		ExpireHours int    `yaml:"expireHours"` // > 0 returns presigned links
	} `yaml:"archive"`
}

// Default is what runs when there is no config.yaml.
func Default() *Config {
	var c Config
	c.Server.Port = 8080
	c.Server.ReadTimeout = 30 * time.Second
	c.Server.WriteTimeout = 120 * time.Second
	c.Server.IdleTimeout = 60 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Server.MaxUploadMB = 20
	c.Server.RateLimit = 60
	c.Server.CORSOrigins = []string{"*"}
	c.Log.Level = "info"
	c.Log.Format = "text"
	c.OpenAI.Model = "gpt-4"
	c.OpenAI.ImageModel = "dall-e-2"
	c.OpenAI.ImageSize = "256x256"
	c.OpenAI.MaxTokens = 500
	c.Pipeline.Timeout = 60 * time.Second
	c.Pipeline.Language = "en"
	c.Pipeline.CompressPDF = true
	c.OCR.Tesseract = "tesseract"
	c.OCR.Lang = "eng"
	c.Archive.BucketName = "termination-letters"
	c.Archive.Region = "us-east-1"
	return &c
}

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "config.yaml"

// LoadDotEnv fills the process environment from .env (or the given files).
// Variables already set are left alone. Call it before Path and Load.
func LoadDotEnv(files ...string) error {
	return godotenv.Load(files...)
}

// Path is CONFIG_PATH or DefaultPath.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads path on top of the defaults, then applies the environment.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.OpenAI.BaseURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.OpenAI.Model = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = p
	}
	return nil
}

// Validate catches values the server cannot start with. The API key is
// deliberately not required here.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Pipeline.Language != "en" && c.Pipeline.Language != "de" {
		return fmt.Errorf("pipeline.language must be en or de, got %q", c.Pipeline.Language)
	}
	if c.Archive.Enabled && (c.Archive.Endpoint == "" || c.Archive.BucketName == "") {
		return errors.New("archive.endpoint and archive.bucketName are required when archive is enabled")
	}
	return nil
}

// HasAPIKey reports whether model-backed features can run.
func (c *Config) HasAPIKey() bool { return strings.TrimSpace(c.OpenAI.APIKey) != "" }

// ArchiveExpiry is zero when links should be public rather than presigned.
func (c *Config) ArchiveExpiry() time.Duration {
	return time.Duration(c.Archive.ExpireHours) * time.Hour
}
