// Package api defines wire-format types and converters for the HTTP API
// layer. It translates internal job models into transport-friendly DTOs that
// the CLI and the browser frontend can render without coupling to internal
// types.
//
// # Key Types
//
// Job: transport representation of a generation job with progress, review
// state, and artifact paths.
//
// WorkflowStatus: daemon running state, queue stats, stage health, and last job.
//
// DaemonStatus: aggregated runtime information including dependencies.
//
// LogEvent/LogStreamResponse: structured log payloads for live tailing.
//
// # Design Notes
//
// Job and status DTOs use camelCase JSON tags for JavaScript/TypeScript
// consumers. Internal enums (jobs.Status, jobs.Kind) are exposed as lowercase
// strings. Records-domain payloads (events, tasks, profile, rosters) reuse
// the records structs directly since their snake_case JSON shapes are part of
// the original API surface.
package api
