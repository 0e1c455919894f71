// Package state keeps per-user conversation sessions in memory and routes
// text updates to the handler registered for the user's current state.
// Nothing is persisted; sessions idle longer than a TTL are swept.
package state
