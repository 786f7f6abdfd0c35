// Package config layers the build configuration: built-in defaults, an
// optional picsmith.yaml, PICSMITH_* environment variables, then command
// line flags applied by the caller.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/picsmith/picsmith/internal/transcode"
)

// DefaultPath is where commands look when no --config flag is given.
const DefaultPath = "picsmith.yaml"

// Config carries every knob the commands need.
type Config struct {
	SourceDir string   `yaml:"source"`
	OutputDir string   `yaml:"output"`
	Domain    string   `yaml:"domain"`
	Quality   float32  `yaml:"quality"`
	MaxWidth  int      `yaml:"max_width"`
	Workers   int      `yaml:"workers"`
	S3        S3Config `yaml:"s3"`
}

// S3Config points deploys at an S3-compatible bucket. AccessKey and
// SecretKey support ${VAR} expansion in the YAML file.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Default returns the built-in configuration. Workers 0 means one worker
// per CPU.
func Default() Config {
	return Config{
		SourceDir: "pics",
		OutputDir: "dist",
		Quality:   transcode.DefaultQuality,
		MaxWidth:  transcode.DefaultMaxWidth,
	}
}

// Load reads the YAML file at path on top of the defaults, expanding ${VAR}
// references from the environment. The file must exist; callers decide
// whether a missing file is acceptable.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays the PICSMITH_* environment variables. The root command
// has already populated the environment from .env by the time this runs.
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv("PICSMITH_DOMAIN"); ok {
		c.Domain = v
	}
	if v, ok := os.LookupEnv("PICSMITH_S3_ENDPOINT"); ok {
		c.S3.Endpoint = v
	}
	if v, ok := os.LookupEnv("PICSMITH_S3_REGION"); ok {
		c.S3.Region = v
	}
	if v, ok := os.LookupEnv("PICSMITH_S3_BUCKET"); ok {
		c.S3.Bucket = v
	}
	if v, ok := os.LookupEnv("PICSMITH_S3_ACCESS_KEY"); ok {
		c.S3.AccessKey = v
	}
	if v, ok := os.LookupEnv("PICSMITH_S3_SECRET_KEY"); ok {
		c.S3.SecretKey = v
	}
	if v, ok := os.LookupEnv("PICSMITH_S3_SSL"); ok {
		if ssl, err := strconv.ParseBool(v); err == nil {
			c.S3.UseSSL = ssl
		}
	}
}

// Validate checks the fields a deploy cannot run without.
func (s S3Config) Validate() error {
	if s.Endpoint == "" {
		return fmt.Errorf("s3 endpoint is required")
	}
	if s.Bucket == "" {
		return fmt.Errorf("s3 bucket is required")
	}
	return nil
}
