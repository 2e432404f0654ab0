package services

import (
	"context"
	"errors"
	"testing"

	"github.com/lumenlearn/assessment-engine/internal/models"
	"github.com/lumenlearn/assessment-engine/internal/validator"
)

func newBankService(f *fakeRepository) BankService {
	return NewBankService(f, nil, testLogger(), validator.New())
}

func TestCreateQuestionMultipleChoice(t *testing.T) {
	f := newFakeRepository()
	course := f.seedCourse(t, 1)
	module := f.seedModule(t, course.ID, 1)
	svc := newBankService(f)

	question, err := svc.CreateQuestion(context.Background(), module.ID, &CreateQuestionRequest{
		Type:          models.MultipleChoice,
		Text:          "What is the capital of France?",
		Options:       []string{"Paris", "Lyon", "Nice"},
		CorrectAnswer: "Paris",
	}, "instructor-1")
	if err != nil {
		t.Fatalf("CreateQuestion() error = %v", err)
	}

	if question.ID == 0 {
		t.Errorf("question was not assigned an ID")
	}
	if question.Difficulty != models.DifficultyMedium {
		t.Errorf("Difficulty = %s, want medium default", question.Difficulty)
	}
	if question.CreatedBy != "instructor-1" {
		t.Errorf("CreatedBy = %s, want instructor-1", question.CreatedBy)
	}
	if len(question.ParsedOptions) != 3 || question.ParsedOptions[0] != "Paris" {
		t.Errorf("ParsedOptions = %v, want the submitted options", question.ParsedOptions)
	}
}

func TestCreateQuestionTrueFalse(t *testing.T) {
	f := newFakeRepository()
	course := f.seedCourse(t, 1)
	module := f.seedModule(t, course.ID, 1)
	svc := newBankService(f)

	question, err := svc.CreateQuestion(context.Background(), module.ID, &CreateQuestionRequest{
		Type:          models.TrueFalse,
		Text:          "Paris is the capital of France.",
		CorrectAnswer: "true",
		Difficulty:    models.DifficultyEasy,
	}, "instructor-1")
	if err != nil {
		t.Fatalf("CreateQuestion() error = %v", err)
	}

	if len(question.Options) != 0 {
		t.Errorf("stored Options = %s, true/false questions store none", question.Options)
	}
	if len(question.ParsedOptions) != 2 || question.ParsedOptions[0] != "true" || question.ParsedOptions[1] != "false" {
		t.Errorf("ParsedOptions = %v, want the fixed true/false pair", question.ParsedOptions)
	}
	if question.Difficulty != models.DifficultyEasy {
		t.Errorf("Difficulty = %s, want easy", question.Difficulty)
	}
}

func TestCreateQuestionContentValidation(t *testing.T) {
	f := newFakeRepository()
	course := f.seedCourse(t, 1)
	module := f.seedModule(t, course.ID, 1)
	svc := newBankService(f)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *CreateQuestionRequest
	}{
		{
			"answer outside options",
			&CreateQuestionRequest{Type: models.MultipleChoice, Text: "q", Options: []string{"a", "b"}, CorrectAnswer: "c"},
		},
		{
			"single option",
			&CreateQuestionRequest{Type: models.MultipleChoice, Text: "q", Options: []string{"a"}, CorrectAnswer: "a"},
		},
		{
			"duplicate options",
			&CreateQuestionRequest{Type: models.MultipleChoice, Text: "q", Options: []string{"a", "b", "a"}, CorrectAnswer: "a"},
		},
		{
			"true/false with stray answer",
			&CreateQuestionRequest{Type: models.TrueFalse, Text: "q", CorrectAnswer: "maybe"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateQuestion(ctx, module.ID, tt.req, "instructor-1")
			if !IsValidation(err) {
				t.Fatalf("error = %v, want validation error", err)
			}
		})
	}

	if len(f.questions) != 0 {
		t.Errorf("invalid questions were persisted")
	}
}

func TestCreateQuestionUnknownModule(t *testing.T) {
	f := newFakeRepository()
	svc := newBankService(f)

	_, err := svc.CreateQuestion(context.Background(), 99, &CreateQuestionRequest{
		Type:          models.TrueFalse,
		Text:          "q",
		CorrectAnswer: "true",
	}, "instructor-1")
	if !errors.Is(err, ErrModuleNotFound) {
		t.Fatalf("error = %v, want ErrModuleNotFound", err)
	}
}

func TestGetBank(t *testing.T) {
	f := newFakeRepository()
	course := f.seedCourse(t, 1)
	module := f.seedModule(t, course.ID, 1)
	other := f.seedModule(t, course.ID, 2)
	f.seedQuestion(t, module.ID, models.MultipleChoice, "mcq", "a", []string{"a", "b"}, models.DifficultyMedium)
	f.seedQuestion(t, module.ID, models.TrueFalse, "tf", "true", nil, models.DifficultyEasy)
	f.seedQuestion(t, other.ID, models.TrueFalse, "other module", "false", nil, models.DifficultyEasy)

	svc := newBankService(f)

	bank, err := svc.GetBank(context.Background(), module.ID, "instructor-1")
	if err != nil {
		t.Fatalf("GetBank() error = %v", err)
	}

	if len(bank.Questions) != 2 {
		t.Fatalf("bank size = %d, want 2", len(bank.Questions))
	}
	if bank.Stats.TotalQuestions != 2 {
		t.Errorf("Stats.TotalQuestions = %d, want 2", bank.Stats.TotalQuestions)
	}
	if bank.Stats.QuestionsByType[models.MultipleChoice] != 1 || bank.Stats.QuestionsByType[models.TrueFalse] != 1 {
		t.Errorf("QuestionsByType = %v, want one of each", bank.Stats.QuestionsByType)
	}
}

func TestGetBankEmptyModule(t *testing.T) {
	f := newFakeRepository()
	course := f.seedCourse(t, 1)
	module := f.seedModule(t, course.ID, 1)
	svc := newBankService(f)

	bank, err := svc.GetBank(context.Background(), module.ID, "instructor-1")
	if err != nil {
		t.Fatalf("GetBank() error = %v, an empty bank is a valid result", err)
	}
	if len(bank.Questions) != 0 || bank.Stats.TotalQuestions != 0 {
		t.Errorf("empty bank reported %d questions", bank.Stats.TotalQuestions)
	}
}

func TestDeleteQuestion(t *testing.T) {
	f := newFakeRepository()
	course := f.seedCourse(t, 1)
	module := f.seedModule(t, course.ID, 1)
	question := f.seedQuestion(t, module.ID, models.TrueFalse, "tf", "true", nil, models.DifficultyEasy)
	question.CreatedBy = "instructor-1"

	svc := newBankService(f)
	ctx := context.Background()

	if err := svc.DeleteQuestion(ctx, question.ID, "instructor-2"); !IsPermission(err) {
		t.Fatalf("error = %v, want permission error for a foreign author", err)
	}
	if len(f.questions) != 1 {
		t.Fatalf("question deleted despite permission failure")
	}

	if err := svc.DeleteQuestion(ctx, question.ID, "instructor-1"); err != nil {
		t.Fatalf("DeleteQuestion() error = %v", err)
	}
	if len(f.questions) != 0 {
		t.Errorf("question still present after delete")
	}

	if err := svc.DeleteQuestion(ctx, question.ID, "instructor-1"); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("error = %v, want ErrQuestionNotFound", err)
	}
}
