// Package config loads server and module configuration from environment
// variables and an optional YAML module-config file. Configuration errors are
// never fatal: unparseable or missing values fall back to documented defaults
// so a negotiation can always proceed.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"dev.accord.negotiation/internal/cache"
	"dev.accord.negotiation/internal/llm"
	"dev.accord.negotiation/internal/negotiation"
	"dev.accord.negotiation/internal/negotiation/modules"
	"dev.accord.negotiation/internal/strategy"
	"dev.accord.negotiation/internal/swarm"
	"dev.accord.negotiation/internal/tom"
)

// Config is the full process configuration.
type Config struct {
	Server  ServerConfig
	Redis   cache.RedisConfig
	Oracle  llm.HTTPOracleConfig
	Session SessionConfig
	Modules ModulesConfig
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Host         string
	Port         string
	Mode         string // "debug" or "release"
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// SessionConfig carries negotiation session defaults.
type SessionConfig struct {
	MaxRounds     int
	ModuleTimeout time.Duration
	CacheTTL      time.Duration
	CacheEnabled  bool
}

// ModulesConfig holds per-module options plus the enabled module set.
// Unrecognized YAML keys are ignored; missing keys take defaults.
type ModulesConfig struct {
	Enabled            []string                  `yaml:"enabled"`
	SocialIntelligence modules.SocialConfig      `yaml:"social_intelligence"`
	TemporalDynamics   modules.TemporalConfig    `yaml:"temporal_dynamics"`
	Uncertainty        modules.UncertaintyConfig `yaml:"uncertainty_management"`
	SwarmConsensus     swarm.Config              `yaml:"swarm_consensus"`
	StrategyEvolution  strategy.EvolutionConfig  `yaml:"strategy_evolution"`
	TheoryOfMind       tom.Config                `yaml:"theory_of_mind"`
}

// DefaultModulesConfig enables every module with its documented defaults.
func DefaultModulesConfig() ModulesConfig {
	return ModulesConfig{
		Enabled: []string{
			negotiation.ModuleSocialIntelligence,
			negotiation.ModuleCulturalAwareness,
			negotiation.ModuleTemporalDynamics,
			negotiation.ModuleUncertaintyManagement,
			negotiation.ModuleCollectiveIntelligence,
		},
		SocialIntelligence: modules.DefaultSocialConfig(),
		TemporalDynamics:   modules.DefaultTemporalConfig(),
		Uncertainty:        modules.DefaultUncertaintyConfig(),
		SwarmConsensus:     swarm.DefaultConfig(),
		StrategyEvolution:  strategy.DefaultEvolutionConfig(),
		TheoryOfMind:       tom.DefaultConfig(),
	}
}

// Load reads the full configuration from the environment. The optional
// MODULES_CONFIG_PATH points at a YAML file overriding module options.
func Load() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("ACCORD_HOST", "0.0.0.0"),
			Port:         getEnv("ACCORD_PORT", "8090"),
			Mode:         getEnv("ACCORD_MODE", "release"),
			ReadTimeout:  getDuration("ACCORD_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDuration("ACCORD_WRITE_TIMEOUT", 30*time.Second),
		},
		Redis: cache.RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		Oracle: llm.HTTPOracleConfig{
			BaseURL:     getEnv("ORACLE_BASE_URL", ""),
			APIKey:      getEnv("ORACLE_API_KEY", ""),
			Model:       getEnv("ORACLE_MODEL", llm.DefaultModel),
			Temperature: getFloat("ORACLE_TEMPERATURE", 0.2),
			MaxTokens:   getInt("ORACLE_MAX_TOKENS", 512),
			Timeout:     getDuration("ORACLE_TIMEOUT", 60*time.Second),
		},
		Session: SessionConfig{
			MaxRounds:     getInt("SESSION_MAX_ROUNDS", 10),
			ModuleTimeout: getDuration("SESSION_MODULE_TIMEOUT", 10*time.Second),
			CacheTTL:      getDuration("ORACLE_CACHE_TTL", cache.DefaultCompletionTTL),
			CacheEnabled:  getBool("ORACLE_CACHE_ENABLED", false),
		},
		Modules: DefaultModulesConfig(),
	}

	if path := os.Getenv("MODULES_CONFIG_PATH"); path != "" {
		cfg.Modules = LoadModulesFile(path, nil)
	}
	if enabled := os.Getenv("MODULES_ENABLED"); enabled != "" {
		cfg.Modules.Enabled = splitList(enabled)
	}

	return cfg
}

// LoadModulesFile parses a YAML module-config file. Any read or parse failure
// returns the defaults unchanged: the negotiation proceeds with documented
// defaults rather than aborting.
func LoadModulesFile(path string, log *logrus.Logger) ModulesConfig {
	if log == nil {
		log = logrus.New()
	}
	defaults := DefaultModulesConfig()

	data, err := os.ReadFile(path) // #nosec G304 - path is operator-supplied configuration
	if err != nil {
		log.WithError(err).WithField("path", path).Warn("Module config unreadable, using defaults")
		return defaults
	}

	parsed := DefaultModulesConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		log.WithError(err).WithField("path", path).Warn("Module config unparseable, using defaults")
		return defaults
	}
	if len(parsed.Enabled) == 0 {
		parsed.Enabled = defaults.Enabled
	}
	return parsed
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
