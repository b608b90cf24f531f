package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Environment Loading Tests
// =============================================================================

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8090", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 10, cfg.Session.MaxRounds)
	assert.Equal(t, 10*time.Second, cfg.Session.ModuleTimeout)
	assert.False(t, cfg.Session.CacheEnabled)
	assert.Len(t, cfg.Modules.Enabled, 5)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ACCORD_PORT", "9191")
	t.Setenv("SESSION_MAX_ROUNDS", "6")
	t.Setenv("ORACLE_TEMPERATURE", "0.55")
	t.Setenv("ORACLE_CACHE_ENABLED", "true")
	t.Setenv("MODULES_ENABLED", "social_intelligence, temporal_dynamics")

	cfg := Load()

	assert.Equal(t, "9191", cfg.Server.Port)
	assert.Equal(t, 6, cfg.Session.MaxRounds)
	assert.InDelta(t, 0.55, cfg.Oracle.Temperature, 1e-9)
	assert.True(t, cfg.Session.CacheEnabled)
	assert.Equal(t, []string{"social_intelligence", "temporal_dynamics"}, cfg.Modules.Enabled)
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("SESSION_MAX_ROUNDS", "not-a-number")
	t.Setenv("ORACLE_TEMPERATURE", "warm")
	t.Setenv("SESSION_MODULE_TIMEOUT", "soon")
	t.Setenv("ORACLE_CACHE_ENABLED", "yes please")

	cfg := Load()

	assert.Equal(t, 10, cfg.Session.MaxRounds)
	assert.InDelta(t, 0.2, cfg.Oracle.Temperature, 1e-9)
	assert.Equal(t, 10*time.Second, cfg.Session.ModuleTimeout)
	assert.False(t, cfg.Session.CacheEnabled)
}

// =============================================================================
// Module Config File Tests
// =============================================================================

func TestLoadModulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modules.yaml")
	content := `
enabled:
  - social_intelligence
  - uncertainty_management
social_intelligence:
  consistency_tolerance: 0.25
swarm_consensus:
  consensus_threshold: 0.8
  max_iterations: 5
strategy_evolution:
  population_size: 40
theory_of_mind:
  max_recursion_depth: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	mc := LoadModulesFile(path, nil)

	assert.Equal(t, []string{"social_intelligence", "uncertainty_management"}, mc.Enabled)
	assert.InDelta(t, 0.25, mc.SocialIntelligence.ConsistencyTolerance, 1e-9)
	assert.InDelta(t, 0.8, mc.SwarmConsensus.ConsensusThreshold, 1e-9)
	assert.Equal(t, 5, mc.SwarmConsensus.MaxIterations)
	assert.Equal(t, 40, mc.StrategyEvolution.PopulationSize)
	assert.Equal(t, 2, mc.TheoryOfMind.MaxRecursionDepth)
	// Untouched sections keep their defaults.
	assert.InDelta(t, 0.9, mc.TemporalDynamics.DiscountFactor, 1e-9)
}

func TestLoadModulesFileMissing(t *testing.T) {
	mc := LoadModulesFile(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Equal(t, DefaultModulesConfig(), mc)
}

func TestLoadModulesFileUnparseable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enabled: [unclosed"), 0o600))

	mc := LoadModulesFile(path, nil)
	assert.Equal(t, DefaultModulesConfig(), mc)
}

func TestLoadModulesFileEmptyEnabledKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("swarm_consensus:\n  max_iterations: 2\n"), 0o600))

	mc := LoadModulesFile(path, nil)
	assert.Equal(t, DefaultModulesConfig().Enabled, mc.Enabled)
	assert.Equal(t, 2, mc.SwarmConsensus.MaxIterations)
}
