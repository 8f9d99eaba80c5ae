// Package businessflow contains the core business logic and use cases for invite and feedback workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Invite-related errors
	ErrInviteNotFound  = errors.New("invite not found")
	ErrInviteExpired   = errors.New("invite has expired")
	ErrInvalidSchedule = errors.New("scheduled send time must be in the future")
	ErrQuotaExceeded   = errors.New("invite quota exceeded")

	// Customer and business errors
	ErrCustomerNotFound = errors.New("customer not found")
	ErrBusinessNotFound = errors.New("business not found")
	ErrCustomerOptedOut = errors.New("customer opted out")
	ErrMissingPhone     = errors.New("customer has no phone number")

	// Rating and feedback errors
	ErrAlreadyRated            = errors.New("invite already rated")
	ErrRatingNotFound          = errors.New("rating not found")
	ErrInvalidRatingValue      = errors.New("invalid rating value")
	ErrFeedbackAlreadyProvided = errors.New("feedback already provided")
	ErrFeedbackNotApplicable   = errors.New("feedback only applies to negative ratings")

	// Dispatch errors
	ErrDequeuedTooEarly = errors.New("job dequeued before scheduled send time")
	ErrSmsLogNotFound   = errors.New("sms log not found")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

// terminalError marks a dispatch failure that must not be retried
type terminalError struct {
	err error
}

func (e *terminalError) Error() string { return e.err.Error() }
func (e *terminalError) Unwrap() error { return e.err }

// Terminal wraps err so the queue dead-letters the job instead of retrying
func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return &terminalError{err: err}
}

// IsTerminal reports whether err was marked with Terminal
func IsTerminal(err error) bool {
	var te *terminalError
	return errors.As(err, &te)
}

func IsInviteNotFound(err error) bool {
	return errors.Is(err, ErrInviteNotFound)
}

func IsInviteExpired(err error) bool {
	return errors.Is(err, ErrInviteExpired)
}

func IsInvalidSchedule(err error) bool {
	return errors.Is(err, ErrInvalidSchedule)
}

func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

func IsCustomerNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound)
}

func IsBusinessNotFound(err error) bool {
	return errors.Is(err, ErrBusinessNotFound)
}

func IsCustomerOptedOut(err error) bool {
	return errors.Is(err, ErrCustomerOptedOut)
}

func IsMissingPhone(err error) bool {
	return errors.Is(err, ErrMissingPhone)
}

func IsAlreadyRated(err error) bool {
	return errors.Is(err, ErrAlreadyRated)
}

func IsRatingNotFound(err error) bool {
	return errors.Is(err, ErrRatingNotFound)
}

func IsInvalidRatingValue(err error) bool {
	return errors.Is(err, ErrInvalidRatingValue)
}

func IsFeedbackAlreadyProvided(err error) bool {
	return errors.Is(err, ErrFeedbackAlreadyProvided)
}

func IsFeedbackNotApplicable(err error) bool {
	return errors.Is(err, ErrFeedbackNotApplicable)
}

func IsDequeuedTooEarly(err error) bool {
	return errors.Is(err, ErrDequeuedTooEarly)
}

func IsSmsLogNotFound(err error) bool {
	return errors.Is(err, ErrSmsLogNotFound)
}
