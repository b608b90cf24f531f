package strategy

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"dev.accord.negotiation/internal/observability"
)

// GenomeLength is the number of strategy parameters under evolution:
// opening aggressiveness, concession decay, risk appetite, relationship
// weight, and deadline sensitivity.
const GenomeLength = 5

// Genome is one candidate strategy-parameter vector. Fitness is assigned
// after episode evaluation.
type Genome struct {
	Genes   []float64 `json:"genes"`
	Fitness float64   `json:"fitness"`
}

// Clone returns a deep copy.
func (g *Genome) Clone() *Genome {
	genes := make([]float64, len(g.Genes))
	copy(genes, g.Genes)
	return &Genome{Genes: genes, Fitness: g.Fitness}
}

// FitnessFunc scores a parameter vector by running or simulating one episode
// and comparing the outcome against reservation/target. Evaluations are
// independent and may run in parallel.
type FitnessFunc func(ctx context.Context, genes []float64) (float64, error)

// EvolutionConfig configures the genetic engine.
type EvolutionConfig struct {
	PopulationSize     int     `json:"population_size" yaml:"population_size"`
	MutationRate       float64 `json:"mutation_rate" yaml:"mutation_rate"`
	CrossoverRate      float64 `json:"crossover_rate" yaml:"crossover_rate"`
	LearningRate       float64 `json:"learning_rate" yaml:"learning_rate"`
	GenerationBudget   int     `json:"generation_budget" yaml:"generation_budget"`
	ConvergenceEpsilon float64 `json:"convergence_epsilon" yaml:"convergence_epsilon"`
}

// DefaultEvolutionConfig returns the documented defaults.
func DefaultEvolutionConfig() EvolutionConfig {
	return EvolutionConfig{
		PopulationSize:     20,
		MutationRate:       0.1,
		CrossoverRate:      0.7,
		LearningRate:       0.01,
		GenerationBudget:   50,
		ConvergenceEpsilon: 1e-6,
	}
}

// EvolutionEngine maintains one fixed-size population of strategy genomes and
// advances it generation by generation. The population size is invariant
// across generations; elitism guarantees the best observed fitness never
// regresses.
type EvolutionEngine struct {
	mu         sync.Mutex
	cfg        EvolutionConfig
	population []*Genome
	best       *Genome
	generation int
	rng        *rand.Rand
	log        *logrus.Logger
}

// NewEvolutionEngine creates an engine with a randomly initialized population.
// Out-of-range config values fall back to defaults.
func NewEvolutionEngine(cfg EvolutionConfig, seed int64, log *logrus.Logger) *EvolutionEngine {
	if log == nil {
		log = logrus.New()
	}
	defaults := DefaultEvolutionConfig()
	if cfg.PopulationSize <= 0 {
		cfg.PopulationSize = defaults.PopulationSize
	}
	if cfg.MutationRate < 0 || cfg.MutationRate > 1 {
		cfg.MutationRate = defaults.MutationRate
	}
	if cfg.CrossoverRate < 0 || cfg.CrossoverRate > 1 {
		cfg.CrossoverRate = defaults.CrossoverRate
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = defaults.LearningRate
	}
	if cfg.GenerationBudget <= 0 {
		cfg.GenerationBudget = defaults.GenerationBudget
	}
	if cfg.ConvergenceEpsilon <= 0 {
		cfg.ConvergenceEpsilon = defaults.ConvergenceEpsilon
	}

	rng := rand.New(rand.NewSource(seed)) // #nosec G404 - stochastic search, not security
	engine := &EvolutionEngine{
		cfg: cfg,
		rng: rng,
		log: log,
	}
	engine.population = make([]*Genome, cfg.PopulationSize)
	for i := range engine.population {
		genes := make([]float64, GenomeLength)
		for j := range genes {
			genes[j] = rng.Float64()
		}
		engine.population[i] = &Genome{Genes: genes}
	}
	return engine
}

// RunGeneration advances the population by one generation: parallel fitness
// evaluation with a synchronization barrier, fitness-proportional selection,
// blend crossover, per-gene mutation, and single-genome elitism.
func (e *EvolutionEngine) RunGeneration(ctx context.Context, fitness FitnessFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Evaluate every genome. Evaluations share no mutable state, so they run
	// concurrently; Wait is the barrier required before selection proceeds.
	group, groupCtx := errgroup.WithContext(ctx)
	for _, genome := range e.population {
		genome := genome
		group.Go(func() error {
			score, err := fitness(groupCtx, genome.Genes)
			if err != nil {
				return fmt.Errorf("fitness evaluation failed: %w", err)
			}
			genome.Fitness = score
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	elite := e.bestOfPopulation()
	if e.best == nil || elite.Fitness > e.best.Fitness {
		e.best = elite.Clone()
	}

	next := make([]*Genome, 0, e.cfg.PopulationSize)
	// Elitism: the best genome of this generation survives unconditionally.
	next = append(next, elite.Clone())

	for len(next) < e.cfg.PopulationSize {
		var offspring *Genome
		if e.rng.Float64() < e.cfg.CrossoverRate {
			offspring = e.crossover(e.selectParent(), e.selectParent())
		} else {
			offspring = e.selectParent().Clone()
		}
		e.mutate(offspring)
		offspring.Fitness = 0
		next = append(next, offspring)
	}

	e.population = next
	e.generation++
	observability.GenerationsTotal.Inc()

	e.log.WithFields(logrus.Fields{
		"generation":   e.generation,
		"best_fitness": e.best.Fitness,
	}).Debug("Generation advanced")

	return nil
}

// Evolve runs generations until the budget is spent or the population's
// fitness variance falls below the convergence epsilon.
func (e *EvolutionEngine) Evolve(ctx context.Context, fitness FitnessFunc) error {
	for i := 0; i < e.cfg.GenerationBudget; i++ {
		if err := e.RunGeneration(ctx, fitness); err != nil {
			return err
		}
		if e.Converged() {
			e.log.WithField("generation", e.Generation()).Debug("Population converged early")
			return nil
		}
	}
	return nil
}

// Converged reports whether the population fitness variance has fallen below
// the convergence epsilon.
func (e *EvolutionEngine) Converged() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	mean := 0.0
	for _, genome := range e.population {
		mean += genome.Fitness
	}
	mean /= float64(len(e.population))

	variance := 0.0
	for _, genome := range e.population {
		diff := genome.Fitness - mean
		variance += diff * diff
	}
	variance /= float64(len(e.population))

	return variance < e.cfg.ConvergenceEpsilon
}

// BestParameters returns the parameter vector of the best genome observed so
// far, for use by the strategy engine. Nil before the first generation.
func (e *EvolutionEngine) BestParameters() []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.best == nil {
		return nil
	}
	genes := make([]float64, len(e.best.Genes))
	copy(genes, e.best.Genes)
	return genes
}

// BestFitness returns the best fitness observed so far.
func (e *EvolutionEngine) BestFitness() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.best == nil {
		return math.Inf(-1)
	}
	return e.best.Fitness
}

// PopulationSize returns the current population size (invariant across
// generations).
func (e *EvolutionEngine) PopulationSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.population)
}

// Generation returns the number of completed generations.
func (e *EvolutionEngine) Generation() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// selectParent samples fitness-proportionally. Fitness values are shifted so
// the minimum is zero; a degenerate all-equal population falls back to a
// uniform pick. Never selects from an empty population (size is fixed > 0).
func (e *EvolutionEngine) selectParent() *Genome {
	minFitness := math.Inf(1)
	for _, genome := range e.population {
		if genome.Fitness < minFitness {
			minFitness = genome.Fitness
		}
	}

	total := 0.0
	for _, genome := range e.population {
		total += genome.Fitness - minFitness
	}
	if total <= 0 {
		return e.population[e.rng.Intn(len(e.population))]
	}

	pick := e.rng.Float64() * total
	cumulative := 0.0
	for _, genome := range e.population {
		cumulative += genome.Fitness - minFitness
		if pick <= cumulative {
			return genome
		}
	}
	return e.population[len(e.population)-1]
}

// crossover blends two parents gene-wise with a random mixing weight per gene.
func (e *EvolutionEngine) crossover(a, b *Genome) *Genome {
	genes := make([]float64, len(a.Genes))
	for i := range genes {
		w := e.rng.Float64()
		genes[i] = w*a.Genes[i] + (1-w)*b.Genes[i]
	}
	return &Genome{Genes: genes}
}

// mutate perturbs each gene independently with probability MutationRate by a
// zero-mean offset scaled by the learning rate.
func (e *EvolutionEngine) mutate(genome *Genome) {
	for i := range genome.Genes {
		if e.rng.Float64() < e.cfg.MutationRate {
			genome.Genes[i] += e.rng.NormFloat64() * e.cfg.LearningRate
		}
	}
}

// bestOfPopulation returns the genome with the highest fitness.
func (e *EvolutionEngine) bestOfPopulation() *Genome {
	best := e.population[0]
	for _, genome := range e.population[1:] {
		if genome.Fitness > best.Fitness {
			best = genome
		}
	}
	return best
}
