package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"dev.accord.negotiation/internal/config"
	"dev.accord.negotiation/internal/llm"
	"dev.accord.negotiation/internal/negotiation"
	"dev.accord.negotiation/internal/negotiation/modules"
)

// NewModuleRegistry wires the five analysis modules into a registry, each
// factory bound to its configuration section. The social-intelligence module
// is the only one carrying an oracle dependency.
func NewModuleRegistry(cfg config.ModulesConfig, oracle llm.Oracle, log *logrus.Logger) *negotiation.Registry {
	if log == nil {
		log = logrus.New()
	}

	registry := negotiation.NewRegistry()
	factories := map[string]negotiation.ModuleFactory{
		negotiation.ModuleSocialIntelligence: func() negotiation.AnalysisModule {
			socialCfg := cfg.SocialIntelligence
			return modules.NewSocialIntelligence(oracle, &socialCfg, log)
		},
		negotiation.ModuleCulturalAwareness: func() negotiation.AnalysisModule {
			return modules.NewCulturalAwareness(log)
		},
		negotiation.ModuleTemporalDynamics: func() negotiation.AnalysisModule {
			temporalCfg := cfg.TemporalDynamics
			return modules.NewTemporalDynamics(&temporalCfg, log)
		},
		negotiation.ModuleUncertaintyManagement: func() negotiation.AnalysisModule {
			uncertaintyCfg := cfg.Uncertainty
			return modules.NewUncertaintyManagement(&uncertaintyCfg, log)
		},
		negotiation.ModuleCollectiveIntelligence: func() negotiation.AnalysisModule {
			return modules.NewCollectiveIntelligence(cfg.SwarmConsensus, log)
		},
	}

	// Register in the canonical order so orchestrators invoke modules
	// deterministically.
	for _, name := range []string{
		negotiation.ModuleSocialIntelligence,
		negotiation.ModuleCulturalAwareness,
		negotiation.ModuleTemporalDynamics,
		negotiation.ModuleUncertaintyManagement,
		negotiation.ModuleCollectiveIntelligence,
	} {
		if enabledModule(cfg.Enabled, name) {
			registry.Register(name, factories[name])
		}
	}
	return registry
}

func enabledModule(enabled []string, name string) bool {
	for _, n := range enabled {
		if n == name {
			return true
		}
	}
	return false
}

// CreateNegotiationRequest carries the session parameters.
type CreateNegotiationRequest struct {
	Participants []string          `json:"participants" binding:"required"`
	MaxRounds    int               `json:"max_rounds"`
	Cultures     map[string]string `json:"cultures,omitempty"` // participant -> culture key
	// ActiveModules maps participant -> enabled module names. Empty enables
	// every registered module for everyone.
	ActiveModules map[string][]string `json:"active_modules,omitempty"`
}

// SessionSummary is the list/describe view of a session.
type SessionSummary struct {
	ID           string            `json:"id"`
	Participants []string          `json:"participants"`
	Round        int               `json:"round"`
	MaxRounds    int               `json:"max_rounds"`
	Phase        negotiation.Phase `json:"phase"`
	Concluded    bool              `json:"concluded"`
	CreatedAt    time.Time         `json:"created_at"`
}

// StepResult is what one advanced round produced.
type StepResult struct {
	Round        int               `json:"round"`
	Phase        negotiation.Phase `json:"phase"`
	Concluded    bool              `json:"concluded"`
	Observations map[string]string `json:"observations"`
}

type session struct {
	orchestrator *negotiation.Orchestrator
	maxRounds    int
	createdAt    time.Time
	eventCursor  int
}

// subscription is one attached event channel. Its mutex serializes deliver
// against close: a cancel landing while a step is mid-broadcast must never
// let the broadcast send on a closed channel.
type subscription struct {
	mu     sync.Mutex
	ch     chan negotiation.Event
	closed bool
}

// deliver sends event without blocking. It reports false only when the
// subscriber's buffer is full; delivery to a closed subscription is a silent
// no-op.
func (sub *subscription) deliver(event negotiation.Event) bool {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return true
	}
	select {
	case sub.ch <- event:
		return true
	default:
		return false
	}
}

// close marks the subscription closed and closes the channel, once.
func (sub *subscription) close() {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.ch)
}

// NegotiationService owns the live negotiation sessions. Session state is
// kept in memory; concluded sessions remain readable until the process exits.
type NegotiationService struct {
	mu       sync.RWMutex
	registry *negotiation.Registry
	cfg      config.SessionConfig
	log      *logrus.Logger

	sessions    map[string]*session
	subscribers map[string][]*subscription
}

// NewNegotiationService creates the service over a wired module registry.
func NewNegotiationService(registry *negotiation.Registry, cfg config.SessionConfig, log *logrus.Logger) *NegotiationService {
	if log == nil {
		log = logrus.New()
	}
	return &NegotiationService{
		registry:    registry,
		cfg:         cfg,
		log:         log,
		sessions:    make(map[string]*session),
		subscribers: make(map[string][]*subscription),
	}
}

// Create starts a new negotiation session and returns its summary.
func (s *NegotiationService) Create(req CreateNegotiationRequest) (*SessionSummary, error) {
	if len(req.Participants) < 2 {
		return nil, fmt.Errorf("a negotiation needs at least two participants, got %d", len(req.Participants))
	}
	maxRounds := req.MaxRounds
	if maxRounds <= 0 {
		maxRounds = s.cfg.MaxRounds
	}

	id := uuid.New().String()
	orchestrator := negotiation.NewOrchestrator(negotiation.OrchestratorConfig{
		NegotiationID: id,
		Participants:  req.Participants,
		MaxRounds:     maxRounds,
		ModuleTimeout: s.cfg.ModuleTimeout,
		ActiveModules: req.ActiveModules,
	}, s.registry, s.log)

	if len(req.Cultures) > 0 {
		if mod, ok := orchestrator.Module(negotiation.ModuleCulturalAwareness); ok {
			if cultural, ok := mod.(*modules.CulturalAwareness); ok {
				for participant, key := range req.Cultures {
					cultural.SetParticipantCulture(participant, key)
				}
			}
		}
	}

	sess := &session{
		orchestrator: orchestrator,
		maxRounds:    maxRounds,
		createdAt:    time.Now(),
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"negotiation":  id,
		"participants": req.Participants,
		"max_rounds":   maxRounds,
	}).Info("Negotiation session created")

	return s.summarize(id, sess), nil
}

// Step advances one round of the identified session.
func (s *NegotiationService) Step(ctx context.Context, id string, action negotiation.RoundAction) (*StepResult, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	observations, err := sess.orchestrator.Step(ctx, action)
	if err != nil {
		return nil, err
	}

	s.broadcast(id, sess)

	return &StepResult{
		Round:        sess.orchestrator.Round(),
		Phase:        sess.orchestrator.Phase(),
		Concluded:    sess.orchestrator.IsConcluded(),
		Observations: observations,
	}, nil
}

// Get returns the summary of one session.
func (s *NegotiationService) Get(id string) (*SessionSummary, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return s.summarize(id, sess), nil
}

// List returns summaries of all sessions, newest first.
func (s *NegotiationService) List() []*SessionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]*SessionSummary, 0, len(s.sessions))
	for id, sess := range s.sessions {
		summaries = append(summaries, s.summarize(id, sess))
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries
}

// History returns the ordered event sequence of one session.
func (s *NegotiationService) History(id string) ([]negotiation.Event, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return sess.orchestrator.GetHistory(), nil
}

// Agreement returns the session's agreement, or an error while none exists.
func (s *NegotiationService) Agreement(id string) (*negotiation.Agreement, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	agreement, ok := sess.orchestrator.GetAgreement()
	if !ok {
		return nil, fmt.Errorf("negotiation %s has no agreement", id)
	}
	return agreement, nil
}

// Subscribe attaches an event channel to the session. New events recorded by
// subsequent steps are delivered in order; a slow subscriber's events are
// dropped rather than blocking the round. The returned cancel function
// detaches and closes the channel.
func (s *NegotiationService) Subscribe(id string) (<-chan negotiation.Event, func(), error) {
	if _, err := s.lookup(id); err != nil {
		return nil, nil, err
	}

	sub := &subscription{ch: make(chan negotiation.Event, 16)}
	s.mu.Lock()
	s.subscribers[id] = append(s.subscribers[id], sub)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		subs := s.subscribers[id]
		for i, candidate := range subs {
			if candidate == sub {
				s.subscribers[id] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		sub.close()
	}
	return sub.ch, cancel, nil
}

// broadcast delivers events recorded since the session's cursor to every
// subscriber.
func (s *NegotiationService) broadcast(id string, sess *session) {
	history := sess.orchestrator.GetHistory()

	s.mu.Lock()
	fresh := history[sess.eventCursor:]
	sess.eventCursor = len(history)
	subs := make([]*subscription, len(s.subscribers[id]))
	copy(subs, s.subscribers[id])
	s.mu.Unlock()

	for _, event := range fresh {
		for _, sub := range subs {
			if !sub.deliver(event) {
				s.log.WithField("negotiation", id).Warn("Event dropped for slow subscriber")
			}
		}
	}
}

func (s *NegotiationService) lookup(id string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("negotiation %s: %w", id, negotiation.ErrUnknownNegotiation)
	}
	return sess, nil
}

func (s *NegotiationService) summarize(id string, sess *session) *SessionSummary {
	state := sess.orchestrator.State()
	return &SessionSummary{
		ID:           id,
		Participants: state.Participants,
		Round:        state.Round,
		MaxRounds:    sess.maxRounds,
		Phase:        state.Phase,
		Concluded:    sess.orchestrator.IsConcluded(),
		CreatedAt:    sess.createdAt,
	}
}
