package service

import (
	"errors"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/lunamoss/readmaster/internal/dto"
	"github.com/lunamoss/readmaster/internal/model"
	"github.com/lunamoss/readmaster/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReadingService manages the reading library and its quiz questions. Content
// mutation is restricted to admins; reads are open to every authenticated
// role.
type ReadingService interface {
	CreateReading(caller *model.User, req dto.CreateReadingRequest) (*dto.ReadingResponse, error)
	UpdateReading(caller *model.User, id string, req dto.UpdateReadingRequest) (*dto.ReadingResponse, error)
	DeleteReading(caller *model.User, id string) error
	GetReading(id string) (*dto.ReadingDetailResponse, error)
	ListReadings(filter repository.ReadingFilter) ([]dto.ReadingResponse, error)

	CreateQuestion(caller *model.User, req dto.CreateQuizQuestionRequest) (*dto.QuizQuestionAdminResponse, error)
	UpdateQuestion(caller *model.User, id string, req dto.UpdateQuizQuestionRequest) (*dto.QuizQuestionAdminResponse, error)
	DeleteQuestion(caller *model.User, id string) error
	ListQuestionsAdmin(caller *model.User, readingID string) ([]dto.QuizQuestionAdminResponse, error)
}

type readingService struct {
	readingRepo  repository.ReadingRepository
	questionRepo repository.QuizQuestionRepository
}

func NewReadingService(readingRepo repository.ReadingRepository, questionRepo repository.QuizQuestionRepository) ReadingService {
	return &readingService{readingRepo: readingRepo, questionRepo: questionRepo}
}

func toReadingResponse(reading *model.Reading) dto.ReadingResponse {
	var resp dto.ReadingResponse
	copier.Copy(&resp, reading)
	if reading.Difficulty != nil {
		difficulty := string(*reading.Difficulty)
		resp.Difficulty = &difficulty
	}
	return resp
}

func toQuestionResponse(question *model.QuizQuestion) dto.QuizQuestionResponse {
	return dto.QuizQuestionResponse{
		ID:           question.ID,
		ReadingID:    question.ReadingID,
		QuestionText: question.QuestionText,
		Options:      question.Options,
		Language:     question.Language,
	}
}

func (s *readingService) CreateReading(caller *model.User, req dto.CreateReadingRequest) (*dto.ReadingResponse, error) {
	if !caller.CanManageContent() {
		return nil, fmt.Errorf("managing readings requires admin role: %w", ErrForbidden)
	}

	reading := &model.Reading{
		Title:           req.Title,
		ContentText:     req.ContentText,
		ContentImageURL: req.ContentImageURL,
		AgeCategory:     req.AgeCategory,
		Language:        req.Language,
		Genre:           req.Genre,
		AddedByAdminID:  &caller.ID,
	}
	if reading.Language == "" {
		reading.Language = "en"
	}
	if req.Difficulty != nil {
		difficulty := model.DifficultyLevel(*req.Difficulty)
		reading.Difficulty = &difficulty
	}
	if err := s.readingRepo.Create(reading); err != nil {
		return nil, fmt.Errorf("failed to create reading: %w", err)
	}

	log.Info().Str("readingID", reading.ID).Str("title", reading.Title).Msg("Reading created")
	resp := toReadingResponse(reading)
	return &resp, nil
}

func (s *readingService) UpdateReading(caller *model.User, id string, req dto.UpdateReadingRequest) (*dto.ReadingResponse, error) {
	if !caller.CanManageContent() {
		return nil, fmt.Errorf("managing readings requires admin role: %w", ErrForbidden)
	}

	reading, err := s.readingRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("reading %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load reading: %w", err)
	}

	if req.Title != nil {
		reading.Title = *req.Title
	}
	if req.ContentText != nil {
		reading.ContentText = req.ContentText
	}
	if req.ContentImageURL != nil {
		reading.ContentImageURL = req.ContentImageURL
	}
	if req.AgeCategory != nil {
		reading.AgeCategory = req.AgeCategory
	}
	if req.Difficulty != nil {
		difficulty := model.DifficultyLevel(*req.Difficulty)
		reading.Difficulty = &difficulty
	}
	if req.Language != nil {
		reading.Language = *req.Language
	}
	if req.Genre != nil {
		reading.Genre = req.Genre
	}
	if err := s.readingRepo.Update(reading); err != nil {
		return nil, fmt.Errorf("failed to update reading: %w", err)
	}

	resp := toReadingResponse(reading)
	return &resp, nil
}

func (s *readingService) DeleteReading(caller *model.User, id string) error {
	if !caller.CanManageContent() {
		return fmt.Errorf("managing readings requires admin role: %w", ErrForbidden)
	}
	if _, err := s.readingRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("reading %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to load reading: %w", err)
	}
	if err := s.readingRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete reading: %w", err)
	}
	log.Info().Str("readingID", id).Msg("Reading deleted")
	return nil
}

func (s *readingService) GetReading(id string) (*dto.ReadingDetailResponse, error) {
	reading, err := s.readingRepo.FindByIDWithQuestions(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("reading %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load reading: %w", err)
	}

	resp := &dto.ReadingDetailResponse{
		ReadingResponse: toReadingResponse(reading),
		Questions:       make([]dto.QuizQuestionResponse, 0, len(reading.Questions)),
	}
	for i := range reading.Questions {
		resp.Questions = append(resp.Questions, toQuestionResponse(&reading.Questions[i]))
	}
	return resp, nil
}

func (s *readingService) ListReadings(filter repository.ReadingFilter) ([]dto.ReadingResponse, error) {
	readings, err := s.readingRepo.FindAll(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}
	responses := make([]dto.ReadingResponse, 0, len(readings))
	for i := range readings {
		responses = append(responses, toReadingResponse(&readings[i]))
	}
	return responses, nil
}

func optionsToJSONMap(options map[string]string) datatypes.JSONMap {
	m := make(datatypes.JSONMap, len(options))
	for id, text := range options {
		m[id] = text
	}
	return m
}

func (s *readingService) CreateQuestion(caller *model.User, req dto.CreateQuizQuestionRequest) (*dto.QuizQuestionAdminResponse, error) {
	if !caller.CanManageContent() {
		return nil, fmt.Errorf("managing questions requires admin role: %w", ErrForbidden)
	}
	if _, found := req.Options[req.CorrectOptionID]; !found {
		return nil, fmt.Errorf("correct_option_id %q is not among the options: %w", req.CorrectOptionID, ErrInvalidState)
	}
	if _, err := s.readingRepo.FindByID(req.ReadingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("reading %s: %w", req.ReadingID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load reading: %w", err)
	}

	question := &model.QuizQuestion{
		ReadingID:       req.ReadingID,
		QuestionText:    req.QuestionText,
		Options:         optionsToJSONMap(req.Options),
		CorrectOptionID: req.CorrectOptionID,
		Language:        req.Language,
		AddedByAdminID:  &caller.ID,
	}
	if question.Language == "" {
		question.Language = "en"
	}
	if err := s.questionRepo.Create(question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	log.Info().Str("questionID", question.ID).Str("readingID", question.ReadingID).Msg("Quiz question created")
	return &dto.QuizQuestionAdminResponse{
		QuizQuestionResponse: toQuestionResponse(question),
		CorrectOptionID:      question.CorrectOptionID,
	}, nil
}

func (s *readingService) UpdateQuestion(caller *model.User, id string, req dto.UpdateQuizQuestionRequest) (*dto.QuizQuestionAdminResponse, error) {
	if !caller.CanManageContent() {
		return nil, fmt.Errorf("managing questions requires admin role: %w", ErrForbidden)
	}

	question, err := s.questionRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("question %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load question: %w", err)
	}

	if req.QuestionText != nil {
		question.QuestionText = *req.QuestionText
	}
	if req.Options != nil {
		question.Options = optionsToJSONMap(req.Options)
	}
	if req.CorrectOptionID != nil {
		question.CorrectOptionID = *req.CorrectOptionID
	}
	if req.Language != nil {
		question.Language = *req.Language
	}
	if _, found := question.Options[question.CorrectOptionID]; !found {
		return nil, fmt.Errorf("correct_option_id %q is not among the options: %w", question.CorrectOptionID, ErrInvalidState)
	}
	if err := s.questionRepo.Update(question); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}

	return &dto.QuizQuestionAdminResponse{
		QuizQuestionResponse: toQuestionResponse(question),
		CorrectOptionID:      question.CorrectOptionID,
	}, nil
}

func (s *readingService) DeleteQuestion(caller *model.User, id string) error {
	if !caller.CanManageContent() {
		return fmt.Errorf("managing questions requires admin role: %w", ErrForbidden)
	}
	if _, err := s.questionRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("question %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to load question: %w", err)
	}
	if err := s.questionRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	return nil
}

func (s *readingService) ListQuestionsAdmin(caller *model.User, readingID string) ([]dto.QuizQuestionAdminResponse, error) {
	if !caller.CanManageContent() {
		return nil, fmt.Errorf("listing answer keys requires admin role: %w", ErrForbidden)
	}
	questions, err := s.questionRepo.FindByReadingID(readingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	responses := make([]dto.QuizQuestionAdminResponse, 0, len(questions))
	for i := range questions {
		responses = append(responses, dto.QuizQuestionAdminResponse{
			QuizQuestionResponse: toQuestionResponse(&questions[i]),
			CorrectOptionID:      questions[i].CorrectOptionID,
		})
	}
	return responses, nil
}
