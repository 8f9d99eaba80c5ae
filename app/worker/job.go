// Package worker implements the durable dispatch queue and its consumers
package worker

import (
	"encoding/json"
	"fmt"
	"time"

	businessflow "github.com/StevenOng97/backend-saas/business_flow"
	"github.com/google/uuid"
)

// JobKind discriminates the job payload variant
type JobKind string

const (
	JobKindDispatch          JobKind = "dispatch"
	JobKindRegistrationCheck JobKind = "registration_check"
)

// RegistrationCheckPayload schedules one onboarding check stage
type RegistrationCheckPayload struct {
	BusinessID uint `json:"business_id"`
	Stage      int  `json:"stage"`
}

// Job is the queue envelope. Exactly one payload field matching Kind is
// set; consumers switch on Kind exhaustively instead of probing fields.
type Job struct {
	ID          string    `json:"id"`
	Kind        JobKind   `json:"kind"`
	Attempt     int       `json:"attempt"`
	MaxAttempts int       `json:"max_attempts"`
	RunAt       time.Time `json:"run_at"`
	EnqueuedAt  time.Time `json:"enqueued_at"`

	Dispatch          *businessflow.DispatchJob `json:"dispatch,omitempty"`
	RegistrationCheck *RegistrationCheckPayload `json:"registration_check,omitempty"`
}

// NewDispatchJob builds a dispatch envelope running after delay
func NewDispatchJob(payload businessflow.DispatchJob, delay time.Duration, maxAttempts int) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:          uuid.NewString(),
		Kind:        JobKindDispatch,
		Attempt:     0,
		MaxAttempts: maxAttempts,
		RunAt:       now.Add(delay),
		EnqueuedAt:  now,
		Dispatch:    &payload,
	}
}

// NewRegistrationCheckJob builds an onboarding-check envelope
func NewRegistrationCheckJob(businessID uint, stage int, delay time.Duration, maxAttempts int) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:                uuid.NewString(),
		Kind:              JobKindRegistrationCheck,
		Attempt:           0,
		MaxAttempts:       maxAttempts,
		RunAt:             now.Add(delay),
		EnqueuedAt:        now,
		RegistrationCheck: &RegistrationCheckPayload{BusinessID: businessID, Stage: stage},
	}
}

// Validate checks that the payload matches the declared kind
func (j *Job) Validate() error {
	switch j.Kind {
	case JobKindDispatch:
		if j.Dispatch == nil {
			return fmt.Errorf("dispatch job %s has no dispatch payload", j.ID)
		}
	case JobKindRegistrationCheck:
		if j.RegistrationCheck == nil {
			return fmt.Errorf("registration check job %s has no payload", j.ID)
		}
	default:
		return fmt.Errorf("unknown job kind %q", j.Kind)
	}
	return nil
}

// Marshal encodes the job for queue storage
func (j *Job) Marshal() (string, error) {
	b, err := json.Marshal(j)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job: %w", err)
	}
	return string(b), nil
}

// UnmarshalJob decodes a queue entry back into a Job
func UnmarshalJob(raw string) (*Job, error) {
	var j Job
	if err := json.Unmarshal([]byte(raw), &j); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &j, nil
}
