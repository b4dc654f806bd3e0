package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override, e.g. UDACIMAK_DELAY_YOUTUBE
const EnvPrefix = "UDACIMAK"

// Config holds all configuration options for rendering courses
type Config struct {
	Render    RenderConfig    `yaml:"render" json:"render"`
	Download  DownloadConfig  `yaml:"download" json:"download"`
	Video     VideoConfig     `yaml:"video" json:"video"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// RenderConfig holds options that change the rendered output
type RenderConfig struct {
	TargetDir string `yaml:"target_dir" json:"target_dir"`
	// DelayYoutube is the minimum number of seconds between two video downloads.
	DelayYoutube   int    `yaml:"delay_youtube" json:"delay_youtube"`
	Subtitles      bool   `yaml:"subtitles" json:"subtitles"`
	YtdlpVerbose   bool   `yaml:"ytdlp_verbose" json:"ytdlp_verbose"`
	UserQuizAnswer bool   `yaml:"user_quiz_answer" json:"user_quiz_answer"`
	AssetsDir      string `yaml:"assets_dir" json:"assets_dir"`
}

// DownloadConfig holds HTTP asset download configuration
type DownloadConfig struct {
	Timeout             time.Duration `yaml:"timeout" json:"timeout"`
	RetryAttempts       int           `yaml:"retry_attempts" json:"retry_attempts"`
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	UserAgent           string        `yaml:"user_agent" json:"user_agent"`
	Origin              string        `yaml:"origin" json:"origin"`
	Referer             string        `yaml:"referer" json:"referer"`
}

// VideoConfig holds yt-dlp configuration
type VideoConfig struct {
	// Qualities are tried in order until one succeeds.
	Qualities  []string `yaml:"qualities" json:"qualities"`
	Executable string   `yaml:"executable" json:"executable"`
	Install    bool     `yaml:"install" json:"install"`
}

// RateLimitConfig holds rate limiting configuration for asset hosts
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// envOverrides mirrors the settings that can be changed through the environment.
// Pointers distinguish "unset" from zero values.
type envOverrides struct {
	TargetDir           *string        `envconfig:"TARGET_DIR"`
	DelayYoutube        *int           `envconfig:"DELAY_YOUTUBE"`
	Subtitles           *bool          `envconfig:"SUBTITLES"`
	YtdlpVerbose        *bool          `envconfig:"YTDLP_VERBOSE"`
	UserQuizAnswer      *bool          `envconfig:"USER_QUIZ_ANSWER"`
	AssetsDir           *string        `envconfig:"ASSETS_DIR"`
	DownloadTimeout     *time.Duration `envconfig:"DOWNLOAD_TIMEOUT"`
	RetryAttempts       *int           `envconfig:"RETRY_ATTEMPTS"`
	ConcurrentDownloads *int           `envconfig:"CONCURRENT_DOWNLOADS"`
	UserAgent           *string        `envconfig:"USER_AGENT"`
	VideoQualities      []string       `envconfig:"VIDEO_QUALITIES"`
	YtdlpPath           *string        `envconfig:"YTDLP_PATH"`
	RequestsPerMinute   *int           `envconfig:"REQUESTS_PER_MINUTE"`
	LogLevel            *string        `envconfig:"LOG_LEVEL"`
	LogFile             *string        `envconfig:"LOG_FILE"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Render: RenderConfig{
			TargetDir:    ".",
			DelayYoutube: 0,
			Subtitles:    false,
		},
		Download: DownloadConfig{
			Timeout:             60 * time.Second,
			RetryAttempts:       3,
			ConcurrentDownloads: 3,
			UserAgent:           "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			Origin:              "https://classroom.udacity.com",
			Referer:             "https://classroom.udacity.com/me",
		},
		Video: VideoConfig{
			Qualities: []string{"worst"},
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 120,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from UDACIMAK_* environment variables
func (c *Config) LoadFromEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	setString(&c.Render.TargetDir, env.TargetDir)
	setInt(&c.Render.DelayYoutube, env.DelayYoutube)
	setBool(&c.Render.Subtitles, env.Subtitles)
	setBool(&c.Render.YtdlpVerbose, env.YtdlpVerbose)
	setBool(&c.Render.UserQuizAnswer, env.UserQuizAnswer)
	setString(&c.Render.AssetsDir, env.AssetsDir)
	if env.DownloadTimeout != nil {
		c.Download.Timeout = *env.DownloadTimeout
	}
	setInt(&c.Download.RetryAttempts, env.RetryAttempts)
	setInt(&c.Download.ConcurrentDownloads, env.ConcurrentDownloads)
	setString(&c.Download.UserAgent, env.UserAgent)
	if len(env.VideoQualities) > 0 {
		c.Video.Qualities = env.VideoQualities
	}
	setString(&c.Video.Executable, env.YtdlpPath)
	setInt(&c.RateLimit.RequestsPerMinute, env.RequestsPerMinute)
	setString(&c.Logging.Level, env.LogLevel)
	setString(&c.Logging.File, env.LogFile)

	return nil
}

func setString(dst *string, v *string) {
	if v != nil && *v != "" {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".udacimak.yaml",
		".udacimak.yml",
		filepath.Join(home, ".config", "udacimak", "config.yaml"),
		filepath.Join(home, ".config", "udacimak", "config.yml"),
		filepath.Join(home, ".udacimak.yaml"),
		filepath.Join(home, ".udacimak.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Render.DelayYoutube < 0 {
		errs = append(errs, errors.New("youtube delay cannot be negative"))
	}

	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.RetryAttempts < 0 {
		errs = append(errs, errors.New("retry attempts cannot be negative"))
	}
	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.ConcurrentDownloads > 10 {
		errs = append(errs, errors.New("concurrent downloads should not exceed 10"))
	}

	if len(c.Video.Qualities) == 0 {
		errs = append(errs, errors.New("at least one video quality is required"))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["targetdir"].(string); ok && v != "" {
		c.Render.TargetDir = v
	}
	if v, ok := flags["delay-youtube"].(int); ok {
		c.Render.DelayYoutube = v
	}
	if v, ok := flags["subtitles"].(bool); ok {
		c.Render.Subtitles = v
	}
	if v, ok := flags["ytdlp-verbose"].(bool); ok {
		c.Render.YtdlpVerbose = v
	}
	if v, ok := flags["userquizanswer"].(bool); ok {
		c.Render.UserQuizAnswer = v
	}
	if v, ok := flags["concurrent"].(int); ok && v > 0 {
		c.Download.ConcurrentDownloads = v
	}
	if v, ok := flags["ytdlp-path"].(string); ok && v != "" {
		c.Video.Executable = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-file"].(string); ok && v != "" {
		c.Logging.File = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".udacimak.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
