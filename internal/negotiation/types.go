package negotiation

import (
	"errors"
	"time"
)

// Phase identifies the lifecycle stage of a negotiation.
type Phase string

const (
	PhaseOpening    Phase = "opening"
	PhaseBargaining Phase = "bargaining"
	PhaseClosing    Phase = "closing"
	PhaseConcluded  Phase = "concluded"
)

// OfferType classifies a proposal.
type OfferType string

const (
	OfferInitial OfferType = "initial"
	OfferCounter OfferType = "counter"
	OfferFinal   OfferType = "final"
)

// Conclusion records why a negotiation ended.
type Conclusion string

const (
	ConcludedByAgreement  Conclusion = "agreement"
	ConcludedByRoundCap   Conclusion = "round_cap"
	ConcludedByWithdrawal Conclusion = "withdrawal"
)

// State invariant violations are programming errors: the offending call is
// rejected and the negotiation state is left unchanged.
var (
	ErrNegotiationConcluded = errors.New("negotiation already concluded")
	ErrRoundRegression      = errors.New("round counter must not decrease")
	ErrUnknownParticipant   = errors.New("unknown participant")
	ErrEmptyTerms           = errors.New("offer terms must not be empty")
	ErrUnknownNegotiation   = errors.New("unknown negotiation")
)

// Offer is a single proposal. Offers are immutable once recorded.
type Offer struct {
	Offerer   string                 `json:"offerer"`
	Recipient string                 `json:"recipient"`
	Terms     map[string]interface{} `json:"terms"`
	Type      OfferType              `json:"type"`
	Round     int                    `json:"round"`
	Timestamp time.Time              `json:"timestamp"`
}

// Agreement is a reached settlement. Recording one makes the negotiation
// terminal: no further offers are accepted.
type Agreement struct {
	Parties   []string               `json:"parties"`
	Terms     map[string]interface{} `json:"terms"`
	Round     int                    `json:"round"`
	Timestamp time.Time              `json:"timestamp"`
}

// EventType tags entries in the negotiation history.
type EventType string

const (
	EventOffer      EventType = "offer"
	EventAgreement  EventType = "agreement"
	EventWithdrawal EventType = "withdrawal"
)

// Event is one entry in the ordered negotiation history.
type Event struct {
	Type      EventType  `json:"type"`
	Offer     *Offer     `json:"offer,omitempty"`
	Agreement *Agreement `json:"agreement,omitempty"`
	Actor     string     `json:"actor,omitempty"`
	Round     int        `json:"round"`
}

// EmotionalState is the detected affect of a participant at one moment. It is
// produced per detection call and never merged across calls; retention is the
// caller's decision.
type EmotionalState struct {
	Participant    string   `json:"participant"`
	PrimaryEmotion string   `json:"primary_emotion"`
	Intensity      float64  `json:"intensity"` // 0-1
	Valence        float64  `json:"valence"`   // -1 to 1
	Context        []string `json:"context,omitempty"`
	Round          int      `json:"round"`
}

// DeceptionIndicator flags a numeric claim that contradicts an earlier claim
// by the same participant on the same topic beyond tolerance.
type DeceptionIndicator struct {
	Participant   string  `json:"participant"`
	IndicatorType string  `json:"indicator_type"`
	Description   string  `json:"description"`
	Topic         string  `json:"topic"`
	PriorRound    int     `json:"prior_round"`
	CurrentRound  int     `json:"current_round"`
	PriorValue    float64 `json:"prior_value"`
	CurrentValue  float64 `json:"current_value"`
}

// BeliefNode is one level of recursive mental-state inference. Depth 0 is the
// literal statement; depth d wraps the depth d-1 inference.
type BeliefNode struct {
	Holder  string `json:"holder"`
	About   string `json:"about"`
	Content string `json:"content"`
	Depth   int    `json:"depth"`
}
