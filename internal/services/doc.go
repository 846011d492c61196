// Package services holds cross-cutting helpers shared by workflow stages and
// the domain services built on top of them: sentinel error kinds with failure
// classification, and context annotations (job id, stage, lane, request id)
// that the logging package extracts into structured fields.
package services
