package types

import "time"

// Status of a completed run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ExecutionResult is the single structured record returned for every
// submitted script. Exactly one of Result or ErrorMessage is populated,
// matching Status. Immutable once returned.
type ExecutionResult struct {
	Status       Status  `json:"status"`
	Result       string  `json:"result,omitempty"`
	ErrorMessage string  `json:"error,omitempty"`
	StartedAt    string  `json:"execution_time"`
	TotalTime    float64 `json:"total_time"`
}

// IsSuccess reports whether the run completed without a fault.
func (r *ExecutionResult) IsSuccess() bool {
	return r.Status == StatusSuccess
}

// NewSuccessResult builds a success record with timing.
func NewSuccessResult(value string, startedAt time.Time, total time.Duration) *ExecutionResult {
	return &ExecutionResult{
		Status:    StatusSuccess,
		Result:    value,
		StartedAt: startedAt.UTC().Format(time.RFC3339),
		TotalTime: total.Seconds(),
	}
}

// NewErrorResult builds an error record from a fault. The fault's
// human-readable message is flattened into the error field; callers that
// need fault-class granularity inspect the *Error value itself.
func NewErrorResult(err error, startedAt time.Time, total time.Duration) *ExecutionResult {
	return &ExecutionResult{
		Status:       StatusError,
		ErrorMessage: err.Error(),
		StartedAt:    startedAt.UTC().Format(time.RFC3339),
		TotalTime:    total.Seconds(),
	}
}
