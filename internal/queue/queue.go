// Package queue defines the task payloads exchanged between the API and the
// analysis worker, and the asynq-backed enqueuer. The payload is the only
// channel between the two processes; they share no in-process state.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/lunamoss/readmaster/config"
	"github.com/rs/zerolog/log"
)

// TypeAssessmentProcess is the task type for speech analysis jobs.
const TypeAssessmentProcess = "assessment:process"

// AssessmentProcessPayload carries everything the worker needs. The
// assessment id doubles as the idempotency key.
type AssessmentProcessPayload struct {
	AssessmentID   string `json:"assessment_id"`
	AudioObjectKey string `json:"audio_object_key"`
}

// Enqueuer hands analysis jobs to the worker pool. Kept as an interface so
// the upload broker can be tested without Redis.
type Enqueuer interface {
	EnqueueAssessmentProcess(payload AssessmentProcessPayload) error
}

type asynqEnqueuer struct {
	client   *asynq.Client
	maxRetry int
}

func NewEnqueuer(cfg *config.Config) Enqueuer {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return &asynqEnqueuer{client: client, maxRetry: cfg.Worker.MaxRetry}
}

func (e *asynqEnqueuer) EnqueueAssessmentProcess(payload AssessmentProcessPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal assessment process payload: %w", err)
	}

	task := asynq.NewTask(TypeAssessmentProcess, data)
	info, err := e.client.Enqueue(task,
		asynq.TaskID(TypeAssessmentProcess+":"+payload.AssessmentID),
		asynq.MaxRetry(e.maxRetry),
	)
	if err != nil {
		// A task id conflict means the job for this assessment is already
		// queued or in flight; the confirm-upload conditional update should
		// have prevented this, so treat it as already enqueued.
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			log.Warn().Str("assessmentID", payload.AssessmentID).Msg("Analysis job already enqueued, skipping duplicate")
			return nil
		}
		return fmt.Errorf("failed to enqueue analysis job for assessment %s: %w", payload.AssessmentID, err)
	}

	log.Info().Str("assessmentID", payload.AssessmentID).Str("taskID", info.ID).Msg("Analysis job enqueued")
	return nil
}
