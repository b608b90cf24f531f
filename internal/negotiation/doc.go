// Package negotiation implements the multi-party negotiation orchestration
// core: the negotiation state machine, the per-round analysis module registry,
// and the orchestrator that drives rounds.
//
// # Architecture Overview
//
//	┌─────────────────────────────────────────────────────────┐
//	│                     Orchestrator                         │
//	│  builds RoundContext → runs active modules → applies    │
//	│  round action → updates NegotiationState                 │
//	└───────────────┬─────────────────────┬───────────────────┘
//	                │                     │
//	      ┌─────────▼─────────┐  ┌────────▼────────┐
//	      │  Module Registry  │  │ NegotiationState │
//	      │  name → factory   │  │ offers/agreement │
//	      └─────────┬─────────┘  └─────────────────┘
//	                │
//	 social_intelligence · cultural_awareness · temporal_dynamics
//	 uncertainty_management · collective_intelligence
//
// # State Machine
//
// A negotiation moves through four phases:
//
//	opening → bargaining → closing → concluded
//
// Conclusion happens on one of three events: an Agreement is recorded, the
// round counter reaches the configured maximum, or a participant withdraws.
// There is no transition out of concluded; any offer submitted afterwards is
// rejected with ErrNegotiationConcluded and the history is left untouched.
//
// # Analysis Modules
//
// Modules implement the AnalysisModule interface: given a RoundContext they
// produce observation text for one participant and may update their own
// private state. Modules never mutate another module's state; the only shared
// surface is RoundContext.SharedData. A module that overruns the configured
// per-module timeout simply contributes nothing to that round (fail-open).
//
// # Example
//
//	registry := negotiation.NewRegistry()
//	registry.Register(negotiation.ModuleSocialIntelligence, func() negotiation.AnalysisModule {
//	    return modules.NewSocialIntelligence(oracle, nil, logger)
//	})
//
//	orch := negotiation.NewOrchestrator(negotiation.OrchestratorConfig{
//	    Participants: []string{"Alice", "Bob"},
//	    MaxRounds:    10,
//	}, registry, logger)
//
//	observations, err := orch.Step(ctx, negotiation.RoundAction{
//	    Type:      negotiation.ActionOffer,
//	    Actor:     "Alice",
//	    Recipient: "Bob",
//	    Terms:     map[string]interface{}{"price": 500.0},
//	})
package negotiation
