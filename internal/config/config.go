package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig      `yaml:"store" mapstructure:"store"`
	Log         LogConfig        `yaml:"log" mapstructure:"log"`
	Batch       BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Apollo      ProviderConfig   `yaml:"apollo" mapstructure:"apollo"`
	EnrichLayer ProviderConfig   `yaml:"enrichlayer" mapstructure:"enrichlayer"`
	CoreSignal  ProviderConfig   `yaml:"coresignal" mapstructure:"coresignal"`
	Hunter      ProviderConfig   `yaml:"hunter" mapstructure:"hunter"`
	Serper      ProviderConfig   `yaml:"serper" mapstructure:"serper"`
	Mistral     MistralConfig    `yaml:"mistral" mapstructure:"mistral"`
	Retry       RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Discovery   DiscoveryConfig  `yaml:"discovery" mapstructure:"discovery"`
	Social      SocialConfig     `yaml:"social" mapstructure:"social"`
	Guardrails  GuardrailConfig  `yaml:"guardrails" mapstructure:"guardrails"`
	Waterfall   WaterfallConfig  `yaml:"waterfall" mapstructure:"waterfall"`
	Pricing     PricingConfig    `yaml:"pricing" mapstructure:"pricing"`
	Metrics     MetricsConfig    `yaml:"metrics" mapstructure:"metrics"`
	Monitoring  MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Personas    []PersonaConfig  `yaml:"personas" mapstructure:"personas"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// BatchConfig controls batch fan-out.
type BatchConfig struct {
	MaxConcurrentCompanies int `yaml:"max_concurrent_companies" mapstructure:"max_concurrent_companies"`
	MaxLeadsPerCompany     int `yaml:"max_leads_per_company" mapstructure:"max_leads_per_company"`
	EventBuffer            int `yaml:"event_buffer" mapstructure:"event_buffer"`
}

// ProviderConfig holds the credential and endpoint of one data provider.
// An empty key leaves the provider unconfigured.
type ProviderConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// MistralConfig holds Mistral chat completion settings.
type MistralConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	Model         string `yaml:"model" mapstructure:"model"`
	MinIntervalMs int    `yaml:"min_interval_ms" mapstructure:"min_interval_ms"`
}

// RetryConfig is the retry policy applied to provider calls. DelaysMs are
// fixed wait tiers; the last tier repeats. With no tiers, InitialBackoffMs
// selects jittered exponential backoff capped at MaxBackoffMs.
type RetryConfig struct {
	MaxAttempts      int   `yaml:"max_attempts" mapstructure:"max_attempts"`
	DelaysMs         []int `yaml:"delays_ms" mapstructure:"delays_ms"`
	InitialBackoffMs int   `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int   `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// DiscoveryConfig tunes the domain discovery chain. Zero confidences keep
// the built-in values.
type DiscoveryConfig struct {
	SlugConfidence    int      `yaml:"slug_confidence" mapstructure:"slug_confidence"`
	ProfileConfidence int      `yaml:"profile_confidence" mapstructure:"profile_confidence"`
	NameConfidence    int      `yaml:"name_confidence" mapstructure:"name_confidence"`
	Blocklist         []string `yaml:"blocklist" mapstructure:"blocklist"`
}

// SocialConfig configures social profile resolution and its cache.
type SocialConfig struct {
	CacheBackend  string        `yaml:"cache_backend" mapstructure:"cache_backend"`
	RedisURL      string        `yaml:"redis_url" mapstructure:"redis_url"`
	CacheTTLHours int           `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	Scoring       ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
}

// ScoringConfig overrides social scoring constants. Zero values keep the
// defaults.
type ScoringConfig struct {
	NameTokensAll          float64 `yaml:"name_tokens_all" mapstructure:"name_tokens_all"`
	NameTokensOne          float64 `yaml:"name_tokens_one" mapstructure:"name_tokens_one"`
	CompanyMatch           float64 `yaml:"company_match" mapstructure:"company_match"`
	ShortPathBonus         float64 `yaml:"short_path_bonus" mapstructure:"short_path_bonus"`
	ShortPathMaxLen        int     `yaml:"short_path_max_len" mapstructure:"short_path_max_len"`
	PeopleSearchEmailMatch float64 `yaml:"people_search_email_match" mapstructure:"people_search_email_match"`
	PeopleSearchBase       float64 `yaml:"people_search_base" mapstructure:"people_search_base"`
	TwitterSearch          float64 `yaml:"twitter_search" mapstructure:"twitter_search"`
	TwitterProfileBonus    float64 `yaml:"twitter_profile_bonus" mapstructure:"twitter_profile_bonus"`
	GitHubSearch           float64 `yaml:"github_search" mapstructure:"github_search"`
	GitHubBonus            float64 `yaml:"github_bonus" mapstructure:"github_bonus"`
	ContentLink            float64 `yaml:"content_link" mapstructure:"content_link"`
	VerifiedEmailBaseline  float64 `yaml:"verified_email_baseline" mapstructure:"verified_email_baseline"`
	EmailBoostFloor        float64 `yaml:"email_boost_floor" mapstructure:"email_boost_floor"`
	CrossNetworkFloor      float64 `yaml:"cross_network_floor" mapstructure:"cross_network_floor"`
	EarlyStop              float64 `yaml:"early_stop" mapstructure:"early_stop"`
	NetworkResultLimit     int     `yaml:"network_result_limit" mapstructure:"network_result_limit"`
	ContentResultLimit     int     `yaml:"content_result_limit" mapstructure:"content_result_limit"`
}

// GuardrailConfig selects the output validation rules.
type GuardrailConfig struct {
	Enabled []string     `yaml:"enabled" mapstructure:"enabled"`
	Strict  bool         `yaml:"strict" mapstructure:"strict"`
	Rules   []RuleConfig `yaml:"rules" mapstructure:"rules"`
}

// RuleConfig is an extra CEL rule. Target is "lead" or "company".
type RuleConfig struct {
	Name   string `yaml:"name" mapstructure:"name"`
	Target string `yaml:"target" mapstructure:"target"`
	Expr   string `yaml:"expr" mapstructure:"expr"`
}

// WaterfallConfig points at the field priority table. An empty path uses
// the built-in table.
type WaterfallConfig struct {
	Path     string `yaml:"path" mapstructure:"path"`
	Research bool   `yaml:"research" mapstructure:"research"` // run the serper_research stage
}

// PricingConfig overrides provider rates.
type PricingConfig struct {
	PerCall map[string]float64      `yaml:"per_call" mapstructure:"per_call"`
	Models  map[string]ModelPricing `yaml:"models" mapstructure:"models"`
}

// ModelPricing is per-million-token pricing for one model.
type ModelPricing struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr    string `yaml:"addr" mapstructure:"addr"`
}

// MonitoringConfig configures run health checks and webhook alerts.
type MonitoringConfig struct {
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours  int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	FilterRateThreshold  float64 `yaml:"filter_rate_threshold" mapstructure:"filter_rate_threshold"`
	CostThresholdUSD     float64 `yaml:"cost_threshold_usd" mapstructure:"cost_threshold_usd"`
}

// PersonaConfig is a named group of job title patterns.
type PersonaConfig struct {
	Name       string   `yaml:"name" mapstructure:"name"`
	TitleRegex []string `yaml:"title_regex" mapstructure:"title_regex"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "enrich.db")
	v.SetDefault("store.database_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("batch.max_concurrent_companies", 5)
	v.SetDefault("batch.max_leads_per_company", 10)
	v.SetDefault("batch.event_buffer", 100)
	v.SetDefault("apollo.key", "")
	v.SetDefault("enrichlayer.key", "")
	v.SetDefault("coresignal.key", "")
	v.SetDefault("hunter.key", "")
	v.SetDefault("serper.key", "")
	v.SetDefault("mistral.key", "")
	v.SetDefault("mistral.model", "mistral-small-latest")
	v.SetDefault("mistral.min_interval_ms", 1000)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.delays_ms", []int{10000, 20000, 30000})
	v.SetDefault("retry.initial_backoff_ms", 0)
	v.SetDefault("retry.max_backoff_ms", 0)
	v.SetDefault("social.cache_backend", "memory")
	v.SetDefault("social.cache_ttl_hours", 24)
	v.SetDefault("social.redis_url", "")
	v.SetDefault("guardrails.enabled", []string{"required_name_fields", "required_company_name"})
	v.SetDefault("guardrails.strict", false)
	v.SetDefault("waterfall.path", "")
	v.SetDefault("waterfall.research", true)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.failure_rate_threshold", 0.25)
	v.SetDefault("monitoring.filter_rate_threshold", 0.5)
	v.SetDefault("monitoring.cost_threshold_usd", 50.0)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes are
// "enrich", "leads", "search", "monitor" and "migrate".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			errs = append(errs, "store.sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for the postgres driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q must be sqlite or postgres", c.Store.Driver))
	}

	switch mode {
	case "enrich", "leads":
		if n := c.Batch.MaxConcurrentCompanies; n < 1 || n > 50 {
			errs = append(errs, "batch.max_concurrent_companies must be between 1 and 50")
		}
		if c.Batch.MaxLeadsPerCompany < 1 {
			errs = append(errs, "batch.max_leads_per_company must be >= 1")
		}
		errs = append(errs, c.validateSocial()...)
		for _, conf := range []struct {
			key string
			v   int
		}{
			{"discovery.slug_confidence", c.Discovery.SlugConfidence},
			{"discovery.profile_confidence", c.Discovery.ProfileConfidence},
			{"discovery.name_confidence", c.Discovery.NameConfidence},
		} {
			if conf.v < 0 || conf.v > 100 {
				errs = append(errs, fmt.Sprintf("%s must be between 0 and 100", conf.key))
			}
		}
		for i, r := range c.Guardrails.Rules {
			if r.Name == "" || r.Expr == "" {
				errs = append(errs, fmt.Sprintf("guardrails.rules[%d] needs a name and an expr", i))
			}
			if r.Target != "" && r.Target != "lead" && r.Target != "company" {
				errs = append(errs, fmt.Sprintf("guardrails.rules[%d].target must be lead or company", i))
			}
		}
	case "search":
		if c.Mistral.Key == "" {
			errs = append(errs, "mistral.key is required")
		}
		if c.Apollo.Key == "" {
			errs = append(errs, "apollo.key is required")
		}
	case "monitor":
		if c.Monitoring.WebhookURL == "" {
			errs = append(errs, "monitoring.webhook_url is required")
		}
		if t := c.Monitoring.FailureRateThreshold; t < 0 || t > 1 {
			errs = append(errs, "monitoring.failure_rate_threshold must be between 0 and 1")
		}
		if t := c.Monitoring.FilterRateThreshold; t < 0 || t > 1 {
			errs = append(errs, "monitoring.filter_rate_threshold must be between 0 and 1")
		}
	case "migrate":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = append(errs, "metrics.addr is required when metrics are enabled")
	}

	if len(errs) > 0 {
		return eris.Wrap(errors.New(strings.Join(errs, "; ")), "config: invalid")
	}
	return nil
}

func (c *Config) validateSocial() []string {
	var errs []string
	switch c.Social.CacheBackend {
	case "memory", "store":
	case "redis":
		if c.Social.RedisURL == "" {
			errs = append(errs, "social.redis_url is required for the redis cache")
		}
	default:
		errs = append(errs, fmt.Sprintf("social.cache_backend %q must be memory, redis or store", c.Social.CacheBackend))
	}
	if c.Social.CacheTTLHours < 0 {
		errs = append(errs, "social.cache_ttl_hours must be >= 0")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
