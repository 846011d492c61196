package stage

import (
	"eduassist/internal/jobs"
	"eduassist/internal/llm"
	"eduassist/internal/services"
)

// DecodePlan decodes a job's stored plan JSON into target. On failure it
// returns a services.ErrValidation suitable for stage Execute methods.
func DecodePlan(job *jobs.Job, target any) error {
	if job == nil || job.PlanJSON == "" {
		return services.Wrap(
			services.ErrValidation, "stage", "decode plan",
			"Plan JSON missing; rerun drafting", nil)
	}
	if err := llm.DecodeModelJSON(job.PlanJSON, target); err != nil {
		return services.Wrap(
			services.ErrValidation, "stage", "decode plan",
			"Plan JSON invalid; rerun drafting", err)
	}
	return nil
}
