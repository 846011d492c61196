// Package workflow advances generation jobs through the configured processing
// stages.
//
// The Manager polls the job queue, reclaims stale work via heartbeats, and
// feeds jobs into registered stage handlers (drafter, renderer, illustrator,
// organizer) while capturing progress and failure metadata. It also aggregates
// queue stats, calls stage health checks, and emits queue-level notifications
// when processing starts or completes.
//
// The workflow runs two independent lanes: foreground (drafting, where the
// language model call happens and the teacher is usually waiting) and
// background (rendering, illustrating, organizing). Each lane polls for jobs
// matching its statuses and processes them independently, so drafting of job B
// can proceed while job A renders.
//
// Add new lifecycle stages by extending StageSet, updating the job status
// enums, and teaching the manager how to transition jobs; this package is the
// authoritative home for that coordination logic.
package workflow
