package negotiation

// RoundContext is the per-round snapshot handed to every analysis module. The
// Orchestrator constructs a fresh one each round and discards it after the
// round's modules have run. Identity fields are fixed for the duration of the
// call; SharedData is the only module-writable surface and a module may only
// write under its own keys.
type RoundContext struct {
	NegotiationID string                     `json:"negotiation_id"`
	Participants  []string                   `json:"participants"`
	Phase         Phase                      `json:"phase"`
	Round         int                        `json:"round"`
	ActiveModules map[string]map[string]bool `json:"active_modules"` // participant -> module name set
	SharedData    map[string]interface{}     `json:"shared_data"`
}

// Well-known SharedData keys written by the Orchestrator before modules run.
const (
	SharedKeyLastOffer     = "last_offer"     // *Offer
	SharedKeyLastStatement = "last_statement" // string
	SharedKeyLastActor     = "last_actor"     // string
	SharedKeyMaxRounds     = "max_rounds"     // int
)

// NewRoundContext builds a snapshot for one round.
func NewRoundContext(id string, participants []string, phase Phase, round int) *RoundContext {
	parts := make([]string, len(participants))
	copy(parts, participants)
	return &RoundContext{
		NegotiationID: id,
		Participants:  parts,
		Phase:         phase,
		Round:         round,
		ActiveModules: make(map[string]map[string]bool),
		SharedData:    make(map[string]interface{}),
	}
}

// Activate marks a module as active for a participant this round.
func (rc *RoundContext) Activate(participant, module string) {
	set, ok := rc.ActiveModules[participant]
	if !ok {
		set = make(map[string]bool)
		rc.ActiveModules[participant] = set
	}
	set[module] = true
}

// IsActive reports whether a module is active for a participant.
func (rc *RoundContext) IsActive(participant, module string) bool {
	return rc.ActiveModules[participant][module]
}

// Counterpart returns the first participant other than name. Bilateral
// negotiations have exactly one; multilateral callers should iterate
// Participants themselves.
func (rc *RoundContext) Counterpart(name string) (string, bool) {
	for _, p := range rc.Participants {
		if p != name {
			return p, true
		}
	}
	return "", false
}
