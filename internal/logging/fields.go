package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering (e.g. video_task_failed).
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator's next step for warnings and errors.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldRunID is the standardized key for the match run identifier.
	FieldRunID = "run_id"
	// FieldVideoID is the standardized key for video identifiers.
	FieldVideoID = "video_id"
	// FieldWorker identifies the pool worker handling a task.
	FieldWorker = "worker"
)
