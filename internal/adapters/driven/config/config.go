// Package config loads wpask configuration from the environment and an
// optional TOML file.
//
// Precedence, lowest to highest: built-in defaults, the config file
// (~/.wpask/config.toml or $WPASK_CONFIG), environment variables. A .env
// file in the working directory is loaded into the environment first.
// Configuration is read once at process start and immutable afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Defaults.
const (
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultMaxResults        = 5
	DefaultMaxResultsLimit   = 20
	DefaultRequestTimeout    = 30 * time.Second
	DefaultTurnTimeout       = 120 * time.Second
	DefaultToolRoundLimit    = 3
	DefaultBackendRetries    = 2
)

// DefaultModels is the built-in backend priority list: primary first,
// fallbacks after.
var DefaultModels = []string{
	"z-ai/glm-4.5-air:free",
	"qwen/qwen3-coder:free",
	"moonshotai/kimi-k2:free",
}

// WordPressConfig holds the content endpoint settings.
type WordPressConfig struct {
	APIURL   string
	Username string
	Password string
}

// OpenRouterConfig holds the model backend settings.
type OpenRouterConfig struct {
	APIKey  string
	BaseURL string

	// Models is the backend candidate list in priority order.
	Models []string
}

// Config is the full process configuration.
type Config struct {
	WordPress  WordPressConfig
	OpenRouter OpenRouterConfig

	// MaxResults is the default result bound per query.
	MaxResults int

	// MaxResultsLimit caps any result bound, including ones requested by
	// the model.
	MaxResultsLimit int

	// RequestTimeout bounds one WordPress call attempt.
	RequestTimeout time.Duration

	// TurnTimeout bounds one backend turn. Streaming turns run much longer
	// than a content fetch, so the bound is separate from RequestTimeout.
	TurnTimeout time.Duration

	// ToolRoundLimit caps tool-call rounds per query.
	ToolRoundLimit int

	// BackendRetries is the transient-failure retry budget per candidate.
	BackendRetries int

	// Verbose enables debug logging.
	Verbose bool
}

// fileConfig is the TOML shape of the config file.
type fileConfig struct {
	WordPress struct {
		APIURL   string `toml:"api_url"`
		Username string `toml:"username"`
		Password string `toml:"password"`
	} `toml:"wordpress"`
	OpenRouter struct {
		APIKey  string   `toml:"api_key"`
		BaseURL string   `toml:"base_url"`
		Models  []string `toml:"models"`
	} `toml:"openrouter"`
	Search struct {
		MaxResults            int `toml:"max_results"`
		MaxResultsLimit       int `toml:"max_results_limit"`
		RequestTimeoutSeconds int `toml:"request_timeout_seconds"`
		TurnTimeoutSeconds    int `toml:"turn_timeout_seconds"`
		ToolRoundLimit        int `toml:"tool_round_limit"`
		BackendRetries        int `toml:"backend_retries"`
	} `toml:"search"`
}

// Load builds the configuration from defaults, the optional config file and
// the environment, then validates it.
func Load() (*Config, error) {
	// Best-effort: a missing .env is the normal case.
	_ = godotenv.Load()

	cfg := defaults()
	if err := applyFile(cfg, configFilePath()); err != nil {
		return nil, err
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		OpenRouter: OpenRouterConfig{
			BaseURL: DefaultOpenRouterBaseURL,
			Models:  append([]string(nil), DefaultModels...),
		},
		MaxResults:      DefaultMaxResults,
		MaxResultsLimit: DefaultMaxResultsLimit,
		RequestTimeout:  DefaultRequestTimeout,
		TurnTimeout:     DefaultTurnTimeout,
		ToolRoundLimit:  DefaultToolRoundLimit,
		BackendRetries:  DefaultBackendRetries,
	}
}

// configFilePath returns $WPASK_CONFIG or ~/.wpask/config.toml.
func configFilePath() string {
	if p := os.Getenv("WPASK_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".wpask", "config.toml")
}

// applyFile overlays values from the TOML file, when it exists.
func applyFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: reading %s: %w", path, err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}

	setString(&cfg.WordPress.APIURL, fc.WordPress.APIURL)
	setString(&cfg.WordPress.Username, fc.WordPress.Username)
	setString(&cfg.WordPress.Password, fc.WordPress.Password)
	setString(&cfg.OpenRouter.APIKey, fc.OpenRouter.APIKey)
	setString(&cfg.OpenRouter.BaseURL, fc.OpenRouter.BaseURL)
	if len(fc.OpenRouter.Models) > 0 {
		cfg.OpenRouter.Models = fc.OpenRouter.Models
	}
	setPositive(&cfg.MaxResults, fc.Search.MaxResults)
	setPositive(&cfg.MaxResultsLimit, fc.Search.MaxResultsLimit)
	if fc.Search.RequestTimeoutSeconds > 0 {
		cfg.RequestTimeout = time.Duration(fc.Search.RequestTimeoutSeconds) * time.Second
	}
	if fc.Search.TurnTimeoutSeconds > 0 {
		cfg.TurnTimeout = time.Duration(fc.Search.TurnTimeoutSeconds) * time.Second
	}
	setPositive(&cfg.ToolRoundLimit, fc.Search.ToolRoundLimit)
	setPositive(&cfg.BackendRetries, fc.Search.BackendRetries)
	return nil
}

// applyEnv overlays values from environment variables.
func applyEnv(cfg *Config) {
	setString(&cfg.WordPress.APIURL, os.Getenv("WORDPRESS_API_URL"))
	setString(&cfg.WordPress.Username, os.Getenv("WORDPRESS_USERNAME"))
	setString(&cfg.WordPress.Password, os.Getenv("WORDPRESS_PASSWORD"))
	setString(&cfg.OpenRouter.APIKey, os.Getenv("OPENROUTER_API_KEY"))
	setString(&cfg.OpenRouter.BaseURL, os.Getenv("OPENROUTER_BASE_URL"))

	if primary := os.Getenv("AI_MODEL"); primary != "" {
		models := []string{primary}
		for _, m := range cfg.OpenRouter.Models {
			if m != primary {
				models = append(models, m)
			}
		}
		cfg.OpenRouter.Models = models
	}
	if raw := os.Getenv("AI_FALLBACK_MODELS"); raw != "" {
		primary := cfg.OpenRouter.Models[:1]
		models := append([]string(nil), primary...)
		for _, m := range strings.Split(raw, ",") {
			if m = strings.TrimSpace(m); m != "" {
				models = append(models, m)
			}
		}
		cfg.OpenRouter.Models = models
	}

	setEnvInt(&cfg.MaxResults, "MAX_RESULTS")
	setEnvInt(&cfg.MaxResultsLimit, "MAX_RESULTS_LIMIT")
	setEnvInt(&cfg.ToolRoundLimit, "TOOL_ROUND_LIMIT")
	setEnvInt(&cfg.BackendRetries, "BACKEND_RETRIES")

	if raw := os.Getenv("REQUEST_TIMEOUT"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			cfg.RequestTimeout = time.Duration(secs) * time.Second
		}
	}
	if raw := os.Getenv("TURN_TIMEOUT"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			cfg.TurnTimeout = time.Duration(secs) * time.Second
		}
	}
	if raw := os.Getenv("VERBOSE_LOGGING"); raw != "" {
		cfg.Verbose = strings.EqualFold(raw, "true") || raw == "1"
	}
}

func setString(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}

func setPositive(dst *int, val int) {
	if val > 0 {
		*dst = val
	}
}

func setEnvInt(dst *int, key string) {
	if raw := os.Getenv(key); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			*dst = n
		}
	}
}

// Validate checks required fields and numeric bounds.
func (c *Config) Validate() error {
	var missing []string
	if c.WordPress.APIURL == "" {
		missing = append(missing, "WORDPRESS_API_URL")
	}
	if c.WordPress.Username == "" {
		missing = append(missing, "WORDPRESS_USERNAME")
	}
	if c.WordPress.Password == "" {
		missing = append(missing, "WORDPRESS_PASSWORD")
	}
	if c.OpenRouter.APIKey == "" {
		missing = append(missing, "OPENROUTER_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: required settings missing: %s", strings.Join(missing, ", "))
	}

	if len(c.OpenRouter.Models) == 0 {
		return fmt.Errorf("config: at least one model is required")
	}
	if c.MaxResults > c.MaxResultsLimit {
		return fmt.Errorf("config: MAX_RESULTS (%d) exceeds MAX_RESULTS_LIMIT (%d)",
			c.MaxResults, c.MaxResultsLimit)
	}
	return nil
}
