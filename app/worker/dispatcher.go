package worker

import (
	"context"
	"fmt"
	"log"

	businessflow "github.com/StevenOng97/backend-saas/business_flow"
)

// Dispatcher routes queue jobs to their flows. The kind switch is
// exhaustive: an unknown kind is a terminal failure, not a silent skip.
type Dispatcher struct {
	dispatchFlow businessflow.DispatchFlow
	registration businessflow.RegistrationCheckFlow
	logger       *log.Logger
}

func NewDispatcher(dispatchFlow businessflow.DispatchFlow, registration businessflow.RegistrationCheckFlow, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{
		dispatchFlow: dispatchFlow,
		registration: registration,
		logger:       logger,
	}
}

// Handle implements the queue Handler
func (d *Dispatcher) Handle(ctx context.Context, job *Job) error {
	switch job.Kind {
	case JobKindDispatch:
		result, err := d.dispatchFlow.Dispatch(ctx, *job.Dispatch)
		if err != nil {
			return err
		}
		if result.Success {
			d.logger.Printf("worker: dispatched invite id=%d sid=%s", job.Dispatch.InviteID, result.ProviderMessageID)
		} else {
			d.logger.Printf("worker: dispatch for invite id=%d recorded failure: %s", job.Dispatch.InviteID, result.Reason)
		}
		return nil

	case JobKindRegistrationCheck:
		return d.registration.CheckRegistration(ctx, job.RegistrationCheck.BusinessID, job.RegistrationCheck.Stage)

	default:
		return businessflow.Terminal(fmt.Errorf("unknown job kind %q", job.Kind))
	}
}

// HandleExhausted records a terminal outcome for a job whose retry budget
// ran out before any attempt succeeded
func (d *Dispatcher) HandleExhausted(ctx context.Context, job *Job, cause error) {
	switch job.Kind {
	case JobKindDispatch:
		reason := fmt.Sprintf("Delivery attempts exhausted: %v", cause)
		if err := d.dispatchFlow.FailDispatch(ctx, *job.Dispatch, reason); err != nil {
			d.logger.Printf("worker: recording exhausted dispatch for invite id=%d failed: %v", job.Dispatch.InviteID, err)
		}

	case JobKindRegistrationCheck:
		// Reminder stages are best-effort; there is no invite row to fail
		d.logger.Printf("worker: registration check for business id=%d exhausted retries: %v", job.RegistrationCheck.BusinessID, cause)
	}
}
