// Package worker runs the speech analysis pipeline. It consumes
// assessment:process tasks, calls the AI analyzer, and settles the
// assessment to completed or error. Delivery is at-least-once, so every
// step tolerates redelivery.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/lunamoss/readmaster/internal/model"
	"github.com/lunamoss/readmaster/internal/notifier"
	"github.com/lunamoss/readmaster/internal/queue"
	"github.com/lunamoss/readmaster/internal/repository"
	"github.com/lunamoss/readmaster/internal/service"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Processor struct {
	assessmentRepo repository.AssessmentRepository
	resultRepo     repository.AssessmentResultRepository
	answerRepo     repository.StudentQuizAnswerRepository
	questionRepo   repository.QuizQuestionRepository
	storage        service.ObjectStorage
	analyzer       service.SpeechAnalyzer
	notifications  notifier.Service
}

func NewProcessor(
	assessmentRepo repository.AssessmentRepository,
	resultRepo repository.AssessmentResultRepository,
	answerRepo repository.StudentQuizAnswerRepository,
	questionRepo repository.QuizQuestionRepository,
	storage service.ObjectStorage,
	analyzer service.SpeechAnalyzer,
	notifications notifier.Service,
) *Processor {
	return &Processor{
		assessmentRepo: assessmentRepo,
		resultRepo:     resultRepo,
		answerRepo:     answerRepo,
		questionRepo:   questionRepo,
		storage:        storage,
		analyzer:       analyzer,
		notifications:  notifications,
	}
}

// HandleAssessmentProcess is the asynq handler for assessment:process tasks.
// Returning nil acks the task; returning an error without asynq.SkipRetry
// requeues it with backoff.
func (p *Processor) HandleAssessmentProcess(ctx context.Context, task *asynq.Task) error {
	var payload queue.AssessmentProcessPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		// Malformed payloads never become valid; drop them.
		log.Error().Err(err).Msg("Malformed assessment process payload")
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	logger := log.With().Str("assessmentID", payload.AssessmentID).Logger()

	assessment, err := p.assessmentRepo.FindByIDWithDetails(payload.AssessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn().Msg("Assessment vanished before processing, dropping task")
			return nil
		}
		return fmt.Errorf("load assessment %s: %w", payload.AssessmentID, err)
	}

	// Redelivery after a completed run, or a concurrent settle. Ack without
	// touching anything.
	if assessment.Status.Terminal() {
		logger.Info().Str("status", string(assessment.Status)).Msg("Assessment already settled, dropping task")
		return nil
	}
	if assessment.Status != model.StatusProcessing {
		logger.Warn().Str("status", string(assessment.Status)).Msg("Assessment not in processing, dropping task")
		return nil
	}

	audioURL, err := p.storage.PresignDownload(payload.AudioObjectKey)
	if err != nil {
		return p.failOrRetry(ctx, assessment, fmt.Errorf("presign audio download: %w", err))
	}

	analysis, err := p.analyzer.AnalyzeAudio(ctx, audioURL, assessment.Reading.Language)
	if err != nil {
		return p.failOrRetry(ctx, assessment, fmt.Errorf("analyze audio: %w", err))
	}

	result := &model.AssessmentResult{
		AssessmentID: assessment.ID,
		AnalysisData: datatypes.JSONMap(analysis.Metrics),
	}
	if err := p.resultRepo.Upsert(result); err != nil {
		return p.failOrRetry(ctx, assessment, fmt.Errorf("store analysis result: %w", err))
	}

	transitioned, err := p.assessmentRepo.MarkCompleted(assessment.ID, analysis.Transcript)
	if err != nil {
		return fmt.Errorf("mark assessment %s completed: %w", assessment.ID, err)
	}
	if !transitioned {
		logger.Warn().Msg("Assessment left processing concurrently, skipping completion")
		return nil
	}

	// Fold in quiz answers submitted while the audio was processing. Counting
	// after the transition means a batch landing mid-flight is either seen
	// here or folded in by the submission path against the stored result.
	correct, answered, err := p.answerRepo.CountByAssessment(assessment.ID)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to count quiz answers")
	} else if answered > 0 {
		total := len(assessment.Reading.Questions)
		if total > 0 {
			score := float64(correct) / float64(total)
			if err := p.resultRepo.UpdateComprehensionScore(assessment.ID, score); err != nil {
				logger.Warn().Err(err).Msg("Failed to update comprehension score")
			}
		}
	}

	assessment.Status = model.StatusCompleted
	assessment.RawTranscript = &analysis.Transcript
	if err := p.notifications.NotifyAssessmentSettled(assessment); err != nil {
		logger.Warn().Err(err).Msg("Failed to send completion notification")
	}

	logger.Info().Msg("Assessment analysis completed")
	return nil
}

// failOrRetry requeues the task while retry budget remains. On the final
// attempt it settles the assessment to error, keeps the diagnostic detail
// for admin tooling, notifies the student, and acks via SkipRetry.
func (p *Processor) failOrRetry(ctx context.Context, assessment *model.Assessment, cause error) error {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	logger := log.With().Str("assessmentID", assessment.ID).Int("retried", retried).Int("maxRetry", maxRetry).Logger()

	if retried < maxRetry {
		logger.Warn().Err(cause).Msg("Assessment processing failed, will retry")
		return cause
	}

	logger.Error().Err(cause).Msg("Assessment processing failed permanently")
	transitioned, err := p.assessmentRepo.MarkError(assessment.ID, cause.Error())
	if err != nil {
		return fmt.Errorf("mark assessment %s errored: %w", assessment.ID, err)
	}
	if transitioned {
		assessment.Status = model.StatusError
		if err := p.notifications.NotifyAssessmentSettled(assessment); err != nil {
			logger.Warn().Err(err).Msg("Failed to send failure notification")
		}
	}
	return fmt.Errorf("assessment %s: %v: %w", assessment.ID, cause, asynq.SkipRetry)
}
