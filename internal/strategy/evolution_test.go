package strategy

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// sumFitness rewards genomes whose genes sum high. Monotone and deterministic,
// so evolution progress is easy to assert.
func sumFitness(ctx context.Context, genes []float64) (float64, error) {
	total := 0.0
	for _, g := range genes {
		total += g
	}
	return total, nil
}

// =============================================================================
// Population Invariant Tests
// =============================================================================

func TestPopulationSizeInvariant(t *testing.T) {
	defer goleak.VerifyNone(t)

	engine := NewEvolutionEngine(EvolutionConfig{PopulationSize: 12, GenerationBudget: 5}, 42, quietLogger())
	require.Equal(t, 12, engine.PopulationSize())

	for i := 0; i < 5; i++ {
		require.NoError(t, engine.RunGeneration(context.Background(), sumFitness))
		assert.Equal(t, 12, engine.PopulationSize(), "generation %d", i+1)
	}
	assert.Equal(t, 5, engine.Generation())
}

func TestGenomeLengthFixed(t *testing.T) {
	engine := NewEvolutionEngine(DefaultEvolutionConfig(), 1, quietLogger())
	require.NoError(t, engine.RunGeneration(context.Background(), sumFitness))

	params := engine.BestParameters()
	assert.Len(t, params, GenomeLength)
}

// =============================================================================
// Elitism Tests
// =============================================================================

func TestBestFitnessNeverRegresses(t *testing.T) {
	defer goleak.VerifyNone(t)

	engine := NewEvolutionEngine(EvolutionConfig{PopulationSize: 20}, 7, quietLogger())

	best := engine.BestFitness()
	for i := 0; i < 10; i++ {
		require.NoError(t, engine.RunGeneration(context.Background(), sumFitness))
		current := engine.BestFitness()
		assert.GreaterOrEqual(t, current, best, "generation %d", i+1)
		best = current
	}
}

func TestEvolutionImprovesOnMonotoneFitness(t *testing.T) {
	engine := NewEvolutionEngine(EvolutionConfig{PopulationSize: 20, GenerationBudget: 15}, 99, quietLogger())

	require.NoError(t, engine.RunGeneration(context.Background(), sumFitness))
	initial := engine.BestFitness()

	require.NoError(t, engine.Evolve(context.Background(), sumFitness))
	assert.GreaterOrEqual(t, engine.BestFitness(), initial)
}

// =============================================================================
// Failure and Convergence Tests
// =============================================================================

func TestRunGenerationPropagatesFitnessError(t *testing.T) {
	defer goleak.VerifyNone(t)

	engine := NewEvolutionEngine(EvolutionConfig{PopulationSize: 8}, 3, quietLogger())
	err := engine.RunGeneration(context.Background(), func(ctx context.Context, genes []float64) (float64, error) {
		return 0, assert.AnError
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestEvolveStopsOnConvergence(t *testing.T) {
	engine := NewEvolutionEngine(EvolutionConfig{
		PopulationSize:     10,
		GenerationBudget:   50,
		MutationRate:       0, // no noise: uniform fitness converges immediately
		ConvergenceEpsilon: 1e-6,
	}, 5, quietLogger())

	constant := func(ctx context.Context, genes []float64) (float64, error) {
		return 1.0, nil
	}
	require.NoError(t, engine.Evolve(context.Background(), constant))

	assert.True(t, engine.Converged())
	assert.Less(t, engine.Generation(), 50, "budget not exhausted")
}

func TestRunGenerationHonorsContext(t *testing.T) {
	engine := NewEvolutionEngine(EvolutionConfig{PopulationSize: 8}, 11, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := engine.RunGeneration(ctx, func(ctx context.Context, genes []float64) (float64, error) {
		return 0, ctx.Err()
	})
	assert.Error(t, err)
}

func TestBestParametersNilBeforeFirstGeneration(t *testing.T) {
	engine := NewEvolutionEngine(DefaultEvolutionConfig(), 1, quietLogger())
	assert.Nil(t, engine.BestParameters())
}

func TestDeterministicWithSameSeed(t *testing.T) {
	run := func() []float64 {
		engine := NewEvolutionEngine(EvolutionConfig{PopulationSize: 10, GenerationBudget: 3}, 1234, quietLogger())
		for i := 0; i < 3; i++ {
			require.NoError(t, engine.RunGeneration(context.Background(), sumFitness))
		}
		return engine.BestParameters()
	}

	assert.Equal(t, run(), run())
}
