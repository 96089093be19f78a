package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

const (
	// WorkflowSendEmail and ActivitySendEmail are the names registered with Temporal
	WorkflowSendEmail = "SendEmailWorkflow"
	ActivitySendEmail = "SendEmail"
)

var ErrMissingRecipient = errors.New("email has no recipient")

// SendEmailWorkflow delivers one email, retrying the send with exponential backoff
func SendEmailWorkflow(ctx workflow.Context, email Email) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Email workflow started", "To", email.To, "Subject", email.Subject)

	retryPolicy := temporal.RetryPolicy{
		InitialInterval:    time.Second,
		BackoffCoefficient: 2.0,
		MaximumInterval:    time.Minute,
		MaximumAttempts:    5,
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy:         &retryPolicy,
	})

	if err := workflow.ExecuteActivity(ctx, ActivitySendEmail, email).Get(ctx, nil); err != nil {
		logger.Error("Email delivery failed", "To", email.To, "Error", err)
		return err
	}

	logger.Info("Email delivered", "To", email.To)
	return nil
}

// EmailActivities performs the side effecting part of the email workflow
type EmailActivities struct {
	Sender Notifier
}

func NewEmailActivities(sender Notifier) *EmailActivities {
	return &EmailActivities{Sender: sender}
}

// SendEmail hands the email to the configured sender.
// Emails without a recipient fail without retry.
func (a *EmailActivities) SendEmail(ctx context.Context, email Email) error {
	if email.To == "" {
		return temporal.NewNonRetryableApplicationError(ErrMissingRecipient.Error(), "InvalidEmail", ErrMissingRecipient)
	}
	return a.Sender.Notify(ctx, email)
}

// NewWorker creates a worker that runs the email workflow and its activity on taskQueue
func NewWorker(c client.Client, taskQueue string, sender Notifier) worker.Worker {
	w := worker.New(c, taskQueue, worker.Options{})

	w.RegisterWorkflowWithOptions(SendEmailWorkflow, workflow.RegisterOptions{Name: WorkflowSendEmail})
	w.RegisterActivityWithOptions(NewEmailActivities(sender).SendEmail, activity.RegisterOptions{Name: ActivitySendEmail})

	return w
}

// TemporalDispatcher implements Notifier by starting a SendEmailWorkflow.
// Notify returns once the workflow is accepted, not when the email is sent.
type TemporalDispatcher struct {
	client    client.Client
	taskQueue string
}

func NewTemporalDispatcher(c client.Client, taskQueue string) *TemporalDispatcher {
	return &TemporalDispatcher{client: c, taskQueue: taskQueue}
}

func (d *TemporalDispatcher) Notify(ctx context.Context, email Email) error {
	options := client.StartWorkflowOptions{
		ID:        "email-" + uuid.New().String(),
		TaskQueue: d.taskQueue,
	}

	if _, err := d.client.ExecuteWorkflow(ctx, options, WorkflowSendEmail, email); err != nil {
		return fmt.Errorf("failed to start email workflow: %w", err)
	}
	return nil
}
