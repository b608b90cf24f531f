package negotiation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"dev.accord.negotiation/internal/observability"
)

// ActionType identifies the action a round resolves to.
type ActionType string

const (
	ActionOffer    ActionType = "offer"
	ActionAccept   ActionType = "accept"
	ActionWithdraw ActionType = "withdraw"
)

// RoundAction is the single action applied at the end of a round.
type RoundAction struct {
	Type      ActionType             `json:"type"`
	Actor     string                 `json:"actor"`
	Recipient string                 `json:"recipient,omitempty"`
	OfferType OfferType              `json:"offer_type,omitempty"`
	Terms     map[string]interface{} `json:"terms,omitempty"`
	Statement string                 `json:"statement,omitempty"`
}

// OrchestratorConfig configures one orchestrator instance.
type OrchestratorConfig struct {
	NegotiationID string        `json:"negotiation_id"`
	Participants  []string      `json:"participants"`
	MaxRounds     int           `json:"max_rounds"`
	ModuleTimeout time.Duration `json:"module_timeout"`
	// ActiveModules maps participant -> module names enabled for them. A nil
	// map enables every registered module for every participant.
	ActiveModules map[string][]string `json:"active_modules,omitempty"`
}

// DefaultOrchestratorConfig returns sensible defaults for a bilateral session.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		MaxRounds:     10,
		ModuleTimeout: 10 * time.Second,
	}
}

// Orchestrator drives negotiation rounds. Each Step builds a fresh
// RoundContext, collects observation text from the modules active for each
// participant (in module registration order), applies the round action, and
// updates the negotiation state. Rounds are strictly sequential.
type Orchestrator struct {
	mu       sync.Mutex
	cfg      OrchestratorConfig
	state    *NegotiationState
	registry *Registry
	modules  map[string]AnalysisModule // instantiated once, keyed by name
	order    []string                  // module invocation order
	log      *logrus.Logger

	lastStatement string
	lastActor     string
}

// NewOrchestrator creates an orchestrator over a fresh negotiation state.
// Module instances are created up front from the registry; unknown names in
// the configuration are skipped, not fatal.
func NewOrchestrator(cfg OrchestratorConfig, registry *Registry, log *logrus.Logger) *Orchestrator {
	if log == nil {
		log = logrus.New()
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = DefaultOrchestratorConfig().MaxRounds
	}
	if cfg.ModuleTimeout <= 0 {
		cfg.ModuleTimeout = DefaultOrchestratorConfig().ModuleTimeout
	}

	o := &Orchestrator{
		cfg:      cfg,
		state:    NewNegotiationState(cfg.NegotiationID, cfg.Participants, cfg.MaxRounds),
		registry: registry,
		modules:  make(map[string]AnalysisModule),
		log:      log,
	}

	for _, name := range registry.ListModules() {
		if !o.moduleWanted(name) {
			continue
		}
		instance, ok := registry.Create(name)
		if !ok {
			log.WithField("module", name).Warn("Module factory missing, skipping")
			continue
		}
		o.modules[name] = instance
		o.order = append(o.order, name)
	}

	return o
}

// moduleWanted reports whether any participant has the module enabled.
func (o *Orchestrator) moduleWanted(name string) bool {
	if o.cfg.ActiveModules == nil {
		return true
	}
	for _, names := range o.cfg.ActiveModules {
		for _, n := range names {
			if n == name {
				return true
			}
		}
	}
	return false
}

// Step advances one round: modules run first against the new round's context,
// then the action is applied. It returns the aggregated observation text per
// participant. Once the negotiation is concluded, Step is a no-op that
// returns ErrNegotiationConcluded and leaves the history unchanged.
func (o *Orchestrator) Step(ctx context.Context, action RoundAction) (map[string]string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.IsConcluded() {
		return nil, ErrNegotiationConcluded
	}

	if err := o.state.AdvanceRound(o.state.Round + 1); err != nil {
		return nil, err
	}

	rc := o.buildRoundContext()
	observations := o.collectObservations(ctx, rc)

	if err := o.applyAction(action); err != nil {
		return observations, err
	}
	if action.Statement != "" {
		o.lastStatement = action.Statement
		o.lastActor = action.Actor
	}

	// Round-cap exhaustion concludes the session unless the final action
	// already did (agreement or withdrawal take precedence).
	if o.state.Round >= o.cfg.MaxRounds {
		o.state.ConcludeByRoundCap()
	}

	observability.RoundsTotal.WithLabelValues(string(o.state.Phase)).Inc()
	o.log.WithFields(logrus.Fields{
		"negotiation": o.state.ID,
		"round":       o.state.Round,
		"phase":       o.state.Phase,
		"action":      action.Type,
	}).Debug("Round stepped")

	return observations, nil
}

// buildRoundContext constructs the snapshot shared by this round's modules.
func (o *Orchestrator) buildRoundContext() *RoundContext {
	rc := NewRoundContext(o.state.ID, o.state.Participants, o.state.Phase, o.state.Round)
	for _, participant := range o.state.Participants {
		for _, name := range o.order {
			if o.moduleActiveFor(participant, name) {
				rc.Activate(participant, name)
			}
		}
	}
	rc.SharedData[SharedKeyMaxRounds] = o.cfg.MaxRounds
	if last := o.state.LastOffer(); last != nil {
		rc.SharedData[SharedKeyLastOffer] = last
	}
	if o.lastStatement != "" {
		rc.SharedData[SharedKeyLastStatement] = o.lastStatement
		rc.SharedData[SharedKeyLastActor] = o.lastActor
	}
	return rc
}

func (o *Orchestrator) moduleActiveFor(participant, name string) bool {
	if o.cfg.ActiveModules == nil {
		return true
	}
	for _, n := range o.cfg.ActiveModules[participant] {
		if n == name {
			return true
		}
	}
	return false
}

// collectObservations runs every active module for every participant and
// concatenates the produced text in module registration order. A module that
// errors or overruns the timeout contributes nothing (fail-open): the round
// proceeds without it.
func (o *Orchestrator) collectObservations(ctx context.Context, rc *RoundContext) map[string]string {
	observations := make(map[string]string, len(rc.Participants))

	for _, participant := range rc.Participants {
		var parts []string
		for _, name := range o.order {
			if !rc.IsActive(participant, name) {
				continue
			}
			text, err := o.runModule(ctx, o.modules[name], participant, rc)
			if err != nil {
				o.log.WithError(err).WithFields(logrus.Fields{
					"module":      name,
					"participant": participant,
				}).Warn("Module contribution dropped")
				continue
			}
			if text != "" {
				parts = append(parts, text)
			}
		}
		observations[participant] = strings.Join(parts, "\n")
	}

	return observations
}

// runModule invokes one module under the configured timeout.
func (o *Orchestrator) runModule(ctx context.Context, mod AnalysisModule, participant string, rc *RoundContext) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.cfg.ModuleTimeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := mod.ObservationContext(callCtx, participant, rc)
		done <- result{text, err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-callCtx.Done():
		observability.ModuleTimeoutsTotal.WithLabelValues(mod.Name()).Inc()
		return "", fmt.Errorf("module %s timed out after %s: %w", mod.Name(), o.cfg.ModuleTimeout, callCtx.Err())
	}
}

// applyAction resolves the round's action against the state machine.
func (o *Orchestrator) applyAction(action RoundAction) error {
	switch action.Type {
	case ActionOffer:
		offerType := action.OfferType
		if offerType == "" {
			offerType = OfferCounter
			if len(o.state.Events) == 0 {
				offerType = OfferInitial
			}
		}
		return o.state.RecordOffer(Offer{
			Offerer:   action.Actor,
			Recipient: action.Recipient,
			Terms:     action.Terms,
			Type:      offerType,
		})

	case ActionAccept:
		last := o.state.LastOffer()
		if last == nil {
			return fmt.Errorf("cannot accept: no offer on the table")
		}
		return o.state.RecordAgreement(Agreement{
			Parties: []string{last.Offerer, action.Actor},
			Terms:   last.Terms,
		})

	case ActionWithdraw:
		return o.state.RecordWithdrawal(action.Actor)

	default:
		return fmt.Errorf("unknown action type %q", action.Type)
	}
}

// Module returns the instantiated module by name, if the orchestrator
// carries it.
func (o *Orchestrator) Module(name string) (AnalysisModule, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	mod, ok := o.modules[name]
	return mod, ok
}

// IsConcluded reports whether the negotiation has ended.
func (o *Orchestrator) IsConcluded() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.IsConcluded()
}

// GetAgreement returns the recorded agreement. Valid only once concluded by
// agreement; otherwise the second return value is false.
func (o *Orchestrator) GetAgreement() (*Agreement, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Agreement == nil {
		return nil, false
	}
	agreement := *o.state.Agreement
	return &agreement, true
}

// GetHistory returns the ordered event sequence.
func (o *Orchestrator) GetHistory() []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.History()
}

// State returns a snapshot copy of the negotiation state.
func (o *Orchestrator) State() NegotiationState {
	o.mu.Lock()
	defer o.mu.Unlock()
	snapshot := *o.state
	snapshot.Events = o.state.History()
	return snapshot
}

// Phase returns the current phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Phase
}

// Round returns the current round counter.
func (o *Orchestrator) Round() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Round
}
