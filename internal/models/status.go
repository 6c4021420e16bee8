package models

type Step string

const (
	StepReceived       Step = "received"
	StepFingerprinting Step = "fingerprinting"
	StepChecking       Step = "checking"
	StepCompleted      Step = "completed"
	StepFailed         Step = "failed"
)

// ErrorResponse represents a standard error response.
type ErrorResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	ExistingID string `json:"existingId,omitempty"`
}
