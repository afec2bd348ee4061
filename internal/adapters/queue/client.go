package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const exportMaxRetry = 5

// Enqueuer is the part of *asynq.Client used to submit tasks.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Client submits export and expiry tasks. Each task carries a deterministic
// id so that a repeated request does not schedule the work twice.
type Client struct {
	enqueuer Enqueuer
	queue    string
}

func NewClient(enqueuer Enqueuer, queue string) *Client {
	if queue == "" {
		queue = "default"
	}
	return &Client{enqueuer: enqueuer, queue: queue}
}

func (c *Client) EnqueueExport(ctx context.Context, jobID uuid.UUID) error {
	task, err := NewExportRenderTask(jobID)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task,
		asynq.Queue(c.queue),
		asynq.TaskID(exportTaskID(jobID)),
		asynq.MaxRetry(exportMaxRetry),
		asynq.Timeout(5*time.Minute),
	)
}

func (c *Client) ScheduleClose(ctx context.Context, surveyID uuid.UUID, at time.Time) error {
	task, err := NewSurveyCloseTask(surveyID)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task,
		asynq.Queue(c.queue),
		asynq.ProcessAt(at),
		asynq.TaskID(closeTaskID(surveyID)),
	)
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) error {
	_, err := c.enqueuer.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", task.Type(), err)
	}
	return nil
}
