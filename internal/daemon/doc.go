// Package daemon coordinates the long-running EduAssist process.
//
// It wires configuration, the job queue, the records store, the workflow
// manager, the inbox watcher, and the HTTP API into a single lifecycle with
// flock-based locking to prevent multiple instances. The daemon exposes queue
// maintenance helpers and emits dependency health summaries.
//
// Keep orchestration logic here: individual workflow stages live in their own
// packages while the daemon focuses on startup, shutdown, and high level
// coordination.
package daemon
