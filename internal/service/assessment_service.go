package service

import (
	"errors"
	"fmt"

	"github.com/lunamoss/readmaster/internal/dto"
	"github.com/lunamoss/readmaster/internal/model"
	"github.com/lunamoss/readmaster/internal/notifier"
	"github.com/lunamoss/readmaster/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type AssessmentService interface {
	StartAssessment(caller *model.User, req dto.StartAssessmentRequest) (*dto.AssessmentResponse, error)
	ListForStudent(studentID string, caller *model.User) ([]dto.AssessmentResponse, error)
	GetAssessment(assessmentID string, caller *model.User) (*dto.AssessmentResponse, error)
	GetResult(assessmentID string, caller *model.User) (*dto.AssessmentResultResponse, error)
	GetDiagnostics(assessmentID string, caller *model.User) (*string, error)
	AssignReading(caller *model.User, req dto.AssignReadingRequest) (*dto.AssignReadingResponse, error)
	StudentProgress(studentID string, caller *model.User) (*dto.StudentProgressResponse, error)
}

type assessmentService struct {
	assessmentRepo repository.AssessmentRepository
	resultRepo     repository.AssessmentResultRepository
	answerRepo     repository.StudentQuizAnswerRepository
	readingRepo    repository.ReadingRepository
	userRepo       repository.UserRepository
	classRepo      repository.ClassRepository
	notifications  notifier.Service
}

func NewAssessmentService(
	assessmentRepo repository.AssessmentRepository,
	resultRepo repository.AssessmentResultRepository,
	answerRepo repository.StudentQuizAnswerRepository,
	readingRepo repository.ReadingRepository,
	userRepo repository.UserRepository,
	classRepo repository.ClassRepository,
	notifications notifier.Service,
) AssessmentService {
	return &assessmentService{
		assessmentRepo: assessmentRepo,
		resultRepo:     resultRepo,
		answerRepo:     answerRepo,
		readingRepo:    readingRepo,
		userRepo:       userRepo,
		classRepo:      classRepo,
		notifications:  notifications,
	}
}

// canView extends the model predicate with the parent link lookup, which
// needs repository access.
func (s *assessmentService) canView(caller *model.User, assessment *model.Assessment) (bool, error) {
	if caller.CanViewAssessment(assessment) {
		return true, nil
	}
	if caller.Role == model.RoleParent {
		return s.userRepo.IsParentOf(caller.ID, assessment.StudentID)
	}
	return false, nil
}

func toAssessmentResponse(a *model.Assessment) dto.AssessmentResponse {
	resp := dto.AssessmentResponse{
		ID:                  a.ID,
		StudentID:           a.StudentID,
		ReadingID:           a.ReadingID,
		AssignedByTeacherID: a.AssignedByTeacherID,
		Status:              string(a.Status),
		AudioDuration:       a.AudioDuration,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
	if a.Reading.ID != "" {
		resp.ReadingTitle = a.Reading.Title
	}
	return resp
}

// StartAssessment creates a self-initiated assessment in pending_audio.
func (s *assessmentService) StartAssessment(caller *model.User, req dto.StartAssessmentRequest) (*dto.AssessmentResponse, error) {
	reading, err := s.readingRepo.FindByID(req.ReadingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("reading %s: %w", req.ReadingID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load reading: %w", err)
	}

	assessment := &model.Assessment{
		StudentID: caller.ID,
		ReadingID: reading.ID,
		Status:    model.StatusPendingAudio,
	}
	if err := s.assessmentRepo.Create(assessment); err != nil {
		return nil, fmt.Errorf("failed to create assessment: %w", err)
	}

	log.Info().Str("assessmentID", assessment.ID).Str("studentID", caller.ID).Str("readingID", reading.ID).Msg("Assessment started")
	resp := toAssessmentResponse(assessment)
	resp.ReadingTitle = reading.Title
	return &resp, nil
}

func (s *assessmentService) ListForStudent(studentID string, caller *model.User) ([]dto.AssessmentResponse, error) {
	allowed := caller.ID == studentID || caller.Role == model.RoleAdmin || caller.Role == model.RoleTeacher
	if !allowed && caller.Role == model.RoleParent {
		linked, err := s.userRepo.IsParentOf(caller.ID, studentID)
		if err != nil {
			return nil, fmt.Errorf("failed to check parent link: %w", err)
		}
		allowed = linked
	}
	if !allowed {
		return nil, fmt.Errorf("cannot list assessments for student %s: %w", studentID, ErrForbidden)
	}

	assessments, err := s.assessmentRepo.FindAllByStudent(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	responses := make([]dto.AssessmentResponse, 0, len(assessments))
	for i := range assessments {
		responses = append(responses, toAssessmentResponse(&assessments[i]))
	}
	return responses, nil
}

func (s *assessmentService) GetAssessment(assessmentID string, caller *model.User) (*dto.AssessmentResponse, error) {
	assessment, err := s.assessmentRepo.FindByID(assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("assessment %s: %w", assessmentID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load assessment: %w", err)
	}
	ok, err := s.canView(caller, assessment)
	if err != nil {
		return nil, fmt.Errorf("failed to check access: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("assessment %s: %w", assessmentID, ErrForbidden)
	}
	resp := toAssessmentResponse(assessment)
	return &resp, nil
}

// GetResult returns the full result view including AI analysis and quiz
// breakdown. Processing diagnostics never appear here regardless of role.
func (s *assessmentService) GetResult(assessmentID string, caller *model.User) (*dto.AssessmentResultResponse, error) {
	assessment, err := s.assessmentRepo.FindByIDWithDetails(assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("assessment %s: %w", assessmentID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load assessment: %w", err)
	}
	ok, err := s.canView(caller, assessment)
	if err != nil {
		return nil, fmt.Errorf("failed to check access: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("assessment %s: %w", assessmentID, ErrForbidden)
	}
	if !assessment.Status.Terminal() {
		return nil, fmt.Errorf("assessment %s is still %s: %w", assessmentID, assessment.Status, ErrInvalidState)
	}

	resp := &dto.AssessmentResultResponse{
		AssessmentID:  assessment.ID,
		StudentID:     assessment.StudentID,
		ReadingID:     assessment.ReadingID,
		ReadingTitle:  assessment.Reading.Title,
		Status:        string(assessment.Status),
		AudioDuration: assessment.AudioDuration,
		RawTranscript: assessment.RawTranscript,
		CreatedAt:     assessment.CreatedAt,
		UpdatedAt:     assessment.UpdatedAt,
	}
	if assessment.Result != nil {
		resp.AnalysisData = assessment.Result.AnalysisData
		resp.ComprehensionScore = assessment.Result.ComprehensionScore
	}

	questions := make(map[string]*model.QuizQuestion, len(assessment.Reading.Questions))
	for i := range assessment.Reading.Questions {
		questions[assessment.Reading.Questions[i].ID] = &assessment.Reading.Questions[i]
	}
	resp.SubmittedAnswers = make([]dto.SubmittedAnswerDetail, 0, len(assessment.QuizAnswers))
	for _, answer := range assessment.QuizAnswers {
		detail := dto.SubmittedAnswerDetail{
			QuestionID:       answer.QuestionID,
			SelectedOptionID: answer.SelectedOptionID,
			IsCorrect:        answer.IsCorrect,
		}
		if q, found := questions[answer.QuestionID]; found {
			detail.QuestionText = q.QuestionText
			detail.Options = q.Options
			detail.CorrectOptionID = q.CorrectOptionID
		}
		resp.SubmittedAnswers = append(resp.SubmittedAnswers, detail)
	}
	return resp, nil
}

// GetDiagnostics exposes the stored processing error detail. Admin only.
func (s *assessmentService) GetDiagnostics(assessmentID string, caller *model.User) (*string, error) {
	if caller.Role != model.RoleAdmin {
		return nil, fmt.Errorf("diagnostics require admin role: %w", ErrForbidden)
	}
	assessment, err := s.assessmentRepo.FindByID(assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("assessment %s: %w", assessmentID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load assessment: %w", err)
	}
	return assessment.ProcessingError, nil
}

// AssignReading fans one reading out to a set of students, either named
// directly or through a class roster. Each student gets a fresh pending
// assessment and a notification; unknown or non-student ids are skipped
// rather than failing the batch.
func (s *assessmentService) AssignReading(caller *model.User, req dto.AssignReadingRequest) (*dto.AssignReadingResponse, error) {
	if !caller.CanAssignReadings() && caller.Role != model.RoleParent {
		return nil, fmt.Errorf("assigning readings requires teacher, parent or admin role: %w", ErrForbidden)
	}

	reading, err := s.readingRepo.FindByID(req.ReadingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("reading %s: %w", req.ReadingID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load reading: %w", err)
	}

	studentIDs := append([]string{}, req.StudentIDs...)
	if req.ClassID != nil {
		class, err := s.classRepo.FindByIDWithStudents(*req.ClassID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("class %s: %w", *req.ClassID, ErrNotFound)
			}
			return nil, fmt.Errorf("failed to load class: %w", err)
		}
		if caller.Role == model.RoleTeacher && class.CreatedByTeacherID != caller.ID {
			return nil, fmt.Errorf("class %s does not belong to caller: %w", class.ID, ErrForbidden)
		}
		for _, student := range class.Students {
			studentIDs = append(studentIDs, student.ID)
		}
	}
	if len(studentIDs) == 0 {
		return nil, fmt.Errorf("no students to assign: %w", ErrInvalidState)
	}

	resp := &dto.AssignReadingResponse{
		CreatedAssessments: []dto.AssessmentResponse{},
		SkippedStudents:    []string{},
	}
	seen := make(map[string]struct{}, len(studentIDs))
	for _, studentID := range studentIDs {
		if _, dup := seen[studentID]; dup {
			continue
		}
		seen[studentID] = struct{}{}

		student, err := s.userRepo.FindByID(studentID)
		if err != nil || student.Role != model.RoleStudent {
			resp.SkippedStudents = append(resp.SkippedStudents, studentID)
			continue
		}
		if caller.Role == model.RoleParent {
			linked, err := s.userRepo.IsParentOf(caller.ID, studentID)
			if err != nil || !linked {
				resp.SkippedStudents = append(resp.SkippedStudents, studentID)
				continue
			}
		}

		assessment := &model.Assessment{
			StudentID: studentID,
			ReadingID: reading.ID,
			Status:    model.StatusPendingAudio,
		}
		switch caller.Role {
		case model.RoleParent:
			assessment.AssignedByParentID = &caller.ID
		default:
			assessment.AssignedByTeacherID = &caller.ID
		}
		if err := s.assessmentRepo.Create(assessment); err != nil {
			log.Error().Err(err).Str("studentID", studentID).Msg("Failed to create assigned assessment")
			resp.SkippedStudents = append(resp.SkippedStudents, studentID)
			continue
		}

		if err := s.notifications.NotifyAssignment(studentID, reading.Title, assessment.ID); err != nil {
			log.Warn().Err(err).Str("assessmentID", assessment.ID).Msg("Failed to notify assignment")
		}
		created := toAssessmentResponse(assessment)
		created.ReadingTitle = reading.Title
		resp.CreatedAssessments = append(resp.CreatedAssessments, created)
	}

	resp.Message = fmt.Sprintf("Assigned %q to %d student(s)", reading.Title, len(resp.CreatedAssessments))
	log.Info().Str("readingID", reading.ID).Int("created", len(resp.CreatedAssessments)).
		Int("skipped", len(resp.SkippedStudents)).Msg("Reading assigned")
	return resp, nil
}

// StudentProgress aggregates assessment counts and average scores for one
// student.
func (s *assessmentService) StudentProgress(studentID string, caller *model.User) (*dto.StudentProgressResponse, error) {
	allowed := caller.ID == studentID || caller.Role == model.RoleAdmin || caller.Role == model.RoleTeacher
	if !allowed && caller.Role == model.RoleParent {
		linked, err := s.userRepo.IsParentOf(caller.ID, studentID)
		if err != nil {
			return nil, fmt.Errorf("failed to check parent link: %w", err)
		}
		allowed = linked
	}
	if !allowed {
		return nil, fmt.Errorf("cannot view progress for student %s: %w", studentID, ErrForbidden)
	}

	assessments, err := s.assessmentRepo.FindAllByStudent(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}

	resp := &dto.StudentProgressResponse{StudentID: studentID, TotalAssessments: len(assessments)}
	var comprehensionSum, fluencySum float64
	var comprehensionN, fluencyN int
	for i := range assessments {
		a := &assessments[i]
		switch a.Status {
		case model.StatusCompleted:
			resp.CompletedAssessments++
		case model.StatusError:
			resp.ErroredAssessments++
		default:
			resp.PendingAssessments++
		}
		result, err := s.resultRepo.FindByAssessmentID(a.ID)
		if err != nil {
			continue
		}
		if result.ComprehensionScore != nil {
			comprehensionSum += *result.ComprehensionScore
			comprehensionN++
		}
		if fluency, found := result.AnalysisData["fluency_score"]; found {
			if f, isNum := fluency.(float64); isNum {
				fluencySum += f
				fluencyN++
			}
		}
	}
	if comprehensionN > 0 {
		avg := comprehensionSum / float64(comprehensionN)
		resp.AverageComprehension = &avg
	}
	if fluencyN > 0 {
		avg := fluencySum / float64(fluencyN)
		resp.AverageFluency = &avg
	}
	return resp, nil
}
