// Package core owns the live auction: the single in-memory state, its
// persistence, and everything that reacts to a change.
//
// It can be used by web handlers, the CLI or tests without modification.
//
// # Architecture
//
//   - State transitions are pure and live in package auction. Core never edits
//     a player or team directly; it builds an [auction.Action] and calls
//     [Service.Dispatch].
//   - Dispatch applies the action, writes the players, teams and meta entries
//     to the configured [storage.KV] in one call, and only then swaps the new
//     state in. A failed write leaves the previous state in place.
//   - After a swap the change is recorded in the activity log, counted in
//     metrics, and broadcast to subscribers (the dashboard event stream).
//
// # Loading and migration
//
// [NewService] reads the stored snapshot, seeds it when nothing is stored,
// and upgrades older snapshots to the current schema (see migrate.go).
//
// # Import
//
// [Service.Import] parses a registration CSV with package ingest and replaces
// the player pool in one action. [Service.PreviewImport] parses without
// applying so the operator can confirm first.
//
// # Error Handling
//
// Technical errors are mapped to operator-facing messages using [MapError].
// See error_messages.go for the code reference.
package core
