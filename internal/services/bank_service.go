package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lumenlearn/assessment-engine/internal/models"
	"github.com/lumenlearn/assessment-engine/internal/repositories"
	"github.com/lumenlearn/assessment-engine/internal/validator"
	"gorm.io/gorm"
)

type bankService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewBankService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) BankService {
	return &bankService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// CreateQuestion adds a question to a module's bank after structural and
// content validation. Difficulty defaults to medium when omitted.
func (s *bankService) CreateQuestion(ctx context.Context, moduleID uint, req *CreateQuestionRequest, creatorID string) (*QuestionResponse, error) {
	s.logger.Info("Creating bank question", "module_id", moduleID, "type", req.Type, "creator_id", creatorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if errs := s.validator.ValidateQuestionContent(req.Type, req.Options, req.CorrectAnswer); len(errs) > 0 {
		return nil, errs
	}

	if _, err := s.repo.Module().GetByID(ctx, nil, moduleID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	question, err := buildQuestion(moduleID, req, creatorID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("Bank question created", "question_id", question.ID, "module_id", moduleID)

	return buildQuestionResponse(question)
}

// GetBank returns the full bank for a module along with its stats. An empty
// bank is a valid, empty result.
func (s *bankService) GetBank(ctx context.Context, moduleID uint, userID string) (*BankResponse, error) {
	if _, err := s.repo.Module().GetByID(ctx, nil, moduleID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	questions, err := s.repo.Question().GetBank(ctx, nil, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load question bank: %w", err)
	}

	stats, err := s.repo.Question().GetBankStats(ctx, nil, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bank stats: %w", err)
	}

	responses := make([]*QuestionResponse, 0, len(questions))
	for _, question := range questions {
		qr, err := buildQuestionResponse(question)
		if err != nil {
			return nil, err
		}
		responses = append(responses, qr)
	}

	return &BankResponse{
		ModuleID:  moduleID,
		Questions: responses,
		Stats:     stats,
	}, nil
}

// DeleteQuestion removes a question from its bank. Questions with a recorded
// author may only be deleted by that author. Already-issued quizzes keep
// their snapshots either way.
func (s *bankService) DeleteQuestion(ctx context.Context, questionID uint, userID string) error {
	question, err := s.repo.Question().GetByID(ctx, nil, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}

	if question.CreatedBy != "" && question.CreatedBy != userID {
		return NewPermissionError(userID, questionID, "question", "delete", "question belongs to another instructor")
	}

	if err := s.repo.Question().Delete(ctx, nil, questionID); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	s.logger.Info("Bank question deleted", "question_id", questionID, "user_id", userID)
	return nil
}

// buildQuestion converts a validated create request into the bank model.
// True/false questions store no options; they always present the fixed pair.
func buildQuestion(moduleID uint, req *CreateQuestionRequest, creatorID string) (*models.Question, error) {
	question := &models.Question{
		ModuleID:      moduleID,
		Type:          req.Type,
		Text:          req.Text,
		CorrectAnswer: req.CorrectAnswer,
		Difficulty:    req.Difficulty,
		CreatedBy:     creatorID,
	}
	if question.Difficulty == "" {
		question.Difficulty = models.DifficultyMedium
	}

	if req.Type == models.MultipleChoice {
		data, err := json.Marshal(req.Options)
		if err != nil {
			return nil, fmt.Errorf("failed to encode options: %w", err)
		}
		question.Options = data
	}

	return question, nil
}

func buildQuestionResponse(question *models.Question) (*QuestionResponse, error) {
	options, err := parsedOptions(question)
	if err != nil {
		return nil, err
	}
	return &QuestionResponse{
		Question:      question,
		ParsedOptions: options,
	}, nil
}

func parsedOptions(question *models.Question) ([]string, error) {
	if question.Type == models.TrueFalse {
		return append([]string(nil), models.TrueFalseOptions...), nil
	}
	var options []string
	if len(question.Options) > 0 {
		if err := json.Unmarshal(question.Options, &options); err != nil {
			return nil, fmt.Errorf("failed to decode options for question %d: %w", question.ID, err)
		}
	}
	return options, nil
}
