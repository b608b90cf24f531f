// Package modules provides the five analysis modules that augment negotiation
// rounds with observation context: social intelligence (emotion and deception
// detection), cultural awareness (profile distance and violation detection),
// temporal dynamics, uncertainty management, and collective intelligence.
//
// Every module implements negotiation.AnalysisModule. Modules keep private
// per-participant state across rounds and communicate with each other only
// through RoundContext.SharedData. Oracle-dependent classifications fall back
// to "nothing detected" on any unusable oracle output; the lexical scoring
// functions (intensity, directness) are deterministic and testable on their
// own.
package modules
