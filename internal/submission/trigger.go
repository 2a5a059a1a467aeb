// Package submission emits the event that hands an approved job off to the
// submission subsystem, which applies to the job on the client's behalf.
// That subsystem runs as a separate process outside this module; this
// package only produces the task it consumes.
package submission

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/hipanai/jobpipeline/internal/adapter/observability"
)

// TaskSubmitJob is the asynq task type consumed by the external submission
// subsystem.
const TaskSubmitJob = "submit_job"

// TaskPayload is the body of a submit_job task.
type TaskPayload struct {
	JobID string `json:"job_id"`
}

// Trigger implements domain.SubmissionTrigger against an asynq-backed queue.
type Trigger struct{ client *asynq.Client }

// New constructs a Trigger connected to the Redis instance at redisURL.
func New(redisURL string) (*Trigger, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return &Trigger{client: asynq.NewClient(opt)}, nil
}

// Emit enqueues a submit_job task for the given job id.
func (t *Trigger) Emit(ctx context.Context, jobID string) error {
	b, err := json.Marshal(TaskPayload{JobID: jobID})
	if err != nil {
		return fmt.Errorf("op=submission.emit.marshal: %w", err)
	}
	task := asynq.NewTask(TaskSubmitJob, b)
	if _, err := t.client.EnqueueContext(ctx, task, asynq.MaxRetry(5), asynq.Retention(24*time.Hour)); err != nil {
		return fmt.Errorf("op=submission.emit: %w", err)
	}
	observability.EnqueueJob("submit")
	return nil
}

// Close releases the underlying asynq client connection.
func (t *Trigger) Close() error { return t.client.Close() }
