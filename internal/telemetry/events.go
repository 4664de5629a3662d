package telemetry

import "time"

// Event names. Properties never carry task titles or descriptions.
const (
	EventPlanGenerated = "plan_generated"
	EventPlanFailed    = "plan_failed"
	EventTaskAdded     = "task_added"
	EventPlanExported  = "plan_exported"
)

// FailureProperties describes a failed generation by error class only.
func FailureProperties(errorType string, elapsed time.Duration) Properties {
	return Properties{
		"error_type":  errorType,
		"duration_ms": elapsed.Milliseconds(),
	}
}
