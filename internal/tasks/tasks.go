package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TypeSendVerificationCode = "mail:verification_code"
)

// VerificationCodePayload carries what the worker needs to compose the mail
type VerificationCodePayload struct {
	Email     string `json:"email"`
	Code      string `json:"code"`
	Language  string `json:"language,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// NewSendVerificationCodeTask creates a task that mails a login code.
// The code expires after five minutes, so the task is not retried past that.
func NewSendVerificationCodeTask(p VerificationCodePayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeSendVerificationCode, payload,
		asynq.Queue("critical"),
		asynq.MaxRetry(3),
	), nil
}

// ParseVerificationCodePayload parses task payload from Asynq task
func ParseVerificationCodePayload(task *asynq.Task) (VerificationCodePayload, error) {
	var payload VerificationCodePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}
