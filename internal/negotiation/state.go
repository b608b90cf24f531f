package negotiation

import (
	"fmt"
	"time"
)

// NegotiationState holds the full history of one negotiation. It is mutated
// only by the Orchestrator; once the phase reaches concluded the state is
// frozen and every mutating call is rejected.
type NegotiationState struct {
	ID           string     `json:"id"`
	Participants []string   `json:"participants"`
	Phase        Phase      `json:"phase"`
	Round        int        `json:"round"`
	MaxRounds    int        `json:"max_rounds"`
	Events       []Event    `json:"events"`
	Agreement    *Agreement `json:"agreement,omitempty"`
	Conclusion   Conclusion `json:"conclusion,omitempty"`
}

// NewNegotiationState creates a fresh negotiation in the opening phase.
func NewNegotiationState(id string, participants []string, maxRounds int) *NegotiationState {
	parts := make([]string, len(participants))
	copy(parts, participants)
	return &NegotiationState{
		ID:           id,
		Participants: parts,
		Phase:        PhaseOpening,
		Round:        0,
		MaxRounds:    maxRounds,
		Events:       make([]Event, 0),
	}
}

// IsConcluded reports whether the negotiation is terminal.
func (s *NegotiationState) IsConcluded() bool {
	return s.Phase == PhaseConcluded
}

// HasParticipant reports whether name is a party to this negotiation.
func (s *NegotiationState) HasParticipant(name string) bool {
	for _, p := range s.Participants {
		if p == name {
			return true
		}
	}
	return false
}

// AdvanceRound moves the round counter forward and recomputes the phase. The
// counter is monotonic: a regression is an invariant violation.
func (s *NegotiationState) AdvanceRound(round int) error {
	if s.IsConcluded() {
		return ErrNegotiationConcluded
	}
	if round < s.Round {
		return fmt.Errorf("%w: have %d, got %d", ErrRoundRegression, s.Round, round)
	}
	s.Round = round
	s.Phase = s.phaseForRound(round)
	return nil
}

// ConcludeByRoundCap ends the negotiation on round-cap exhaustion. No-op if
// already concluded.
func (s *NegotiationState) ConcludeByRoundCap() {
	if !s.IsConcluded() {
		s.conclude(ConcludedByRoundCap)
	}
}

// phaseForRound derives the non-terminal phase from round position: the first
// round is the opening, the last two rounds before the cap are the closing
// window, everything between is bargaining.
func (s *NegotiationState) phaseForRound(round int) Phase {
	switch {
	case round <= 1:
		return PhaseOpening
	case round >= s.MaxRounds-1:
		return PhaseClosing
	default:
		return PhaseBargaining
	}
}

// RecordOffer appends an offer event. Rejected once concluded.
func (s *NegotiationState) RecordOffer(offer Offer) error {
	if s.IsConcluded() {
		return ErrNegotiationConcluded
	}
	if !s.HasParticipant(offer.Offerer) {
		return fmt.Errorf("%w: %s", ErrUnknownParticipant, offer.Offerer)
	}
	if len(offer.Terms) == 0 {
		return ErrEmptyTerms
	}
	if offer.Timestamp.IsZero() {
		offer.Timestamp = time.Now()
	}
	offer.Round = s.Round
	s.Events = append(s.Events, Event{Type: EventOffer, Offer: &offer, Actor: offer.Offerer, Round: s.Round})
	return nil
}

// RecordAgreement records a settlement and concludes the negotiation.
func (s *NegotiationState) RecordAgreement(agreement Agreement) error {
	if s.IsConcluded() {
		return ErrNegotiationConcluded
	}
	if len(agreement.Parties) < 2 {
		return fmt.Errorf("agreement requires at least two parties, got %d", len(agreement.Parties))
	}
	for _, p := range agreement.Parties {
		if !s.HasParticipant(p) {
			return fmt.Errorf("%w: %s", ErrUnknownParticipant, p)
		}
	}
	if agreement.Timestamp.IsZero() {
		agreement.Timestamp = time.Now()
	}
	agreement.Round = s.Round
	s.Agreement = &agreement
	s.Events = append(s.Events, Event{Type: EventAgreement, Agreement: &agreement, Round: s.Round})
	s.conclude(ConcludedByAgreement)
	return nil
}

// RecordWithdrawal records a participant leaving and concludes the negotiation.
func (s *NegotiationState) RecordWithdrawal(participant string) error {
	if s.IsConcluded() {
		return ErrNegotiationConcluded
	}
	if !s.HasParticipant(participant) {
		return fmt.Errorf("%w: %s", ErrUnknownParticipant, participant)
	}
	s.Events = append(s.Events, Event{Type: EventWithdrawal, Actor: participant, Round: s.Round})
	s.conclude(ConcludedByWithdrawal)
	return nil
}

// LastOffer returns the most recent offer in the history, or nil.
func (s *NegotiationState) LastOffer() *Offer {
	for i := len(s.Events) - 1; i >= 0; i-- {
		if s.Events[i].Type == EventOffer {
			return s.Events[i].Offer
		}
	}
	return nil
}

// History returns a copy of the ordered event sequence.
func (s *NegotiationState) History() []Event {
	events := make([]Event, len(s.Events))
	copy(events, s.Events)
	return events
}

func (s *NegotiationState) conclude(reason Conclusion) {
	s.Phase = PhaseConcluded
	s.Conclusion = reason
}
