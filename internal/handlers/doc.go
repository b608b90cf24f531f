// Package handlers contains the Gin HTTP handlers: negotiation session
// lifecycle, the advisory analysis surface, the websocket event stream, and
// health reporting. Handlers translate transport concerns only; all domain
// behavior lives in the services they wrap.
package handlers
