package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldJobID is the standardized structured logging key for generation job identifiers.
	FieldJobID = "job_id"
	// FieldStage is the standardized structured logging key for workflow stage names.
	FieldStage = "stage"
	// FieldLane is the standardized structured logging key for workflow lane names.
	FieldLane = "lane"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType is the standardized structured logging key for machine-matchable event names.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized structured logging key for operator remediation hints.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
	// FieldProvider is the standardized structured logging key for the language model provider in use.
	FieldProvider = "provider"
)
