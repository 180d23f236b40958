package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the server settings resolved from flags, environment,
// the optional .env file and the optional redmine-mcp.yaml file.
type Config struct {
	URL         string        `mapstructure:"url"`
	APIKey      string        `mapstructure:"api_key"`
	LogLevel    string        `mapstructure:"log_level"`
	LogFormat   string        `mapstructure:"log_format"`
	LogFile     string        `mapstructure:"log_file"`
	MetricsAddr string        `mapstructure:"metrics_addr"`
	Timeout     time.Duration `mapstructure:"timeout"`
	ReadOnly    bool          `mapstructure:"read_only"`
}

const (
	envPrefix      = "REDMINE"
	configName     = "redmine-mcp"
	DefaultTimeout = 30 * time.Second

	maxInputLength = 500
)

// Pre-compiled regexes for input validation
var (
	issueIDPattern    = regexp.MustCompile(`^#?(\d+)$`)
	issueURLPattern   = regexp.MustCompile(`^https?://[^\s]+/issues/(\d+)(?:[/?#.][^\s]*)?$`)
	projectIDPattern  = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
	projectURLPattern = regexp.MustCompile(`^https?://[^\s]+/projects/([a-z0-9][a-z0-9_-]*)(?:[/?#][^\s]*)?$`)
)

// DefaultEnvPath returns the path of the .env file next to the binary.
func DefaultEnvPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(exe), ".env"), nil
}

// LoadEnvFile loads variables from a .env file without overriding variables
// already set. A missing file is not an error; a file readable by group or
// others is refused.
func LoadEnvFile(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode&0077 != 0 {
		return fmt.Errorf(".env file has insecure permissions (%04o). Run: chmod 600 %s", mode, path)
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// NewViper returns a viper instance that reads REDMINE_* environment
// variables and an optional redmine-mcp.yaml from the binary's directory or
// the working directory.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	if exe, err := os.Executable(); err == nil {
		v.AddConfigPath(filepath.Dir(exe))
	}
	v.AddConfigPath(".")

	v.SetDefault("url", "")
	v.SetDefault("api_key", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("log_file", "")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("read_only", false)
	return v
}

// Load reads the optional config file into v, decodes and validates it.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required settings and normalizes the base URL.
func (c *Config) Validate() error {
	c.URL = strings.TrimRight(strings.TrimSpace(c.URL), "/")
	if c.URL == "" {
		return fmt.Errorf("missing Redmine URL (--url or REDMINE_URL)")
	}
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid Redmine URL: must be http(s) with a host")
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("invalid Redmine URL: query and fragment are not allowed")
	}

	c.APIKey = strings.TrimSpace(c.APIKey)
	if c.APIKey == "" {
		return fmt.Errorf("missing Redmine API key (--api-key or REDMINE_API_KEY)")
	}

	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}

// ExtractIssueID extracts an issue number from "123", "#123" or an issue URL
// such as https://redmine.example.com/issues/123.
func ExtractIssueID(input string) (int, error) {
	input = strings.TrimSpace(input)

	if len(input) > maxInputLength {
		return 0, fmt.Errorf("input too long (max %d characters)", maxInputLength)
	}

	var raw string
	if m := issueIDPattern.FindStringSubmatch(input); len(m) == 2 {
		raw = m[1]
	} else if m := issueURLPattern.FindStringSubmatch(input); len(m) == 2 {
		raw = m[1]
	} else {
		return 0, fmt.Errorf("invalid input: must be an issue number (123 or #123) or a full Redmine issue URL")
	}

	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid issue number: %s", raw)
	}
	return id, nil
}

// ExtractProjectID extracts a project id or identifier from the value itself
// or a project URL such as https://redmine.example.com/projects/web-app.
func ExtractProjectID(input string) (string, error) {
	input = strings.TrimSpace(input)

	if len(input) > maxInputLength {
		return "", fmt.Errorf("input too long (max %d characters)", maxInputLength)
	}

	if projectIDPattern.MatchString(input) {
		return input, nil
	}

	if m := projectURLPattern.FindStringSubmatch(input); len(m) == 2 {
		return m[1], nil
	}

	return "", fmt.Errorf("invalid input: must be a project id, identifier or full Redmine project URL")
}
