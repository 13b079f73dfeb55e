package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/pantry/internal/mealdb"
)

// Config captures Pantry's runtime settings.
type Config struct {
	APIBaseURL      string        `toml:"api_base_url" validate:"required,url"`
	DataDir         string        `toml:"data_dir" validate:"required"`
	PopularCategory string        `toml:"popular_category" validate:"required,max=64"`
	RequestTimeout  time.Duration `toml:"request_timeout" validate:"gt=0"`
	RateLimit       float64       `toml:"rate_limit" validate:"gt=0,lte=100"`
	RefreshInterval time.Duration `toml:"refresh_interval" validate:"gte=0"`
	LogLevel        string        `toml:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat       string        `toml:"log_format" validate:"oneof=json pretty"`
	Ordering        string        `toml:"ordering" validate:"oneof=completion issue"`
}

const (
	defaultConfigPath      = "~/.config/pantry/config.toml"
	defaultDataDir         = "~/.local/share/pantry"
	defaultPopularCategory = "Seafood"
	defaultRequestTimeout  = 10 * time.Second
	defaultRateLimit       = 5.0
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"
	defaultOrdering        = "completion"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBaseURL:      mealdb.DefaultBaseURL,
		DataDir:         mustExpand(defaultDataDir),
		PopularCategory: defaultPopularCategory,
		RequestTimeout:  defaultRequestTimeout,
		RateLimit:       defaultRateLimit,
		LogLevel:        defaultLogLevel,
		LogFormat:       defaultLogFormat,
		Ordering:        defaultOrdering,
	}
}

// Load locates and parses the Pantry config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBaseURL      string   `toml:"api_base_url"`
		DataDir         string   `toml:"data_dir"`
		PopularCategory string   `toml:"popular_category"`
		RequestTimeout  string   `toml:"request_timeout"`
		RateLimit       *float64 `toml:"rate_limit"`
		RefreshInterval string   `toml:"refresh_interval"`
		LogLevel        string   `toml:"log_level"`
		LogFormat       string   `toml:"log_format"`
		Ordering        string   `toml:"ordering"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIBaseURL); v != "" {
		cfg.APIBaseURL = v
	}
	if v := strings.TrimSpace(raw.DataDir); v != "" {
		cfg.DataDir = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.PopularCategory); v != "" {
		cfg.PopularCategory = v
	}
	if cfg.RequestTimeout, err = parseDuration("request_timeout", raw.RequestTimeout, cfg.RequestTimeout); err != nil {
		return Config{}, err
	}
	if cfg.RefreshInterval, err = parseDuration("refresh_interval", raw.RefreshInterval, cfg.RefreshInterval); err != nil {
		return Config{}, err
	}
	if raw.RateLimit != nil {
		cfg.RateLimit = *raw.RateLimit
	}
	if v := strings.ToLower(strings.TrimSpace(raw.LogLevel)); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.ToLower(strings.TrimSpace(raw.LogFormat)); v != "" {
		cfg.LogFormat = v
	}
	if v := strings.ToLower(strings.TrimSpace(raw.Ordering)); v != "" {
		cfg.Ordering = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field against its constraints.
func (c Config) Validate() error {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("toml"); name != "" {
			return name
		}
		return fld.Name
	})

	err := v.Struct(c)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("invalid config: %w", err)
	}

	problems := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		problems = append(problems, fe.Field()+" "+friendlyMessage(fe))
	}
	sort.Strings(problems)
	return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	default:
		return "is invalid"
	}
}

// DatabasePath returns the favorites database location.
func (c Config) DatabasePath() string {
	return filepath.Join(c.dataDir(), "pantry.db")
}

// LogPath returns the log file location.
func (c Config) LogPath() string {
	return filepath.Join(c.dataDir(), "pantry.log")
}

func (c Config) dataDir() string {
	if strings.TrimSpace(c.DataDir) == "" {
		return mustExpand(defaultDataDir)
	}
	return c.DataDir
}

func parseDuration(field, raw string, fallback time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse config: %s: %w", field, err)
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
