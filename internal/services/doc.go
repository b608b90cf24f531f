// Package services contains the application services behind the HTTP
// handlers: session lifecycle for negotiations, module registry wiring, the
// event broadcast fan-out for stream subscribers, and the advisory surface
// over the theory-of-mind and strategy-evolution engines.
package services
