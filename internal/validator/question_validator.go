package validator

import (
	apperrors "github.com/lumenlearn/assessment-engine/internal/errors"
	"github.com/lumenlearn/assessment-engine/internal/models"
)

// ValidateQuestionContent checks the cross-field rules a bank question must
// satisfy before it may be issued on a quiz.
func (v *Validator) ValidateQuestionContent(qType models.QuestionType, options []string, correctAnswer string) apperrors.ValidationErrors {
	var errs apperrors.ValidationErrors

	switch qType {
	case models.MultipleChoice:
		if len(options) < 2 {
			errs = append(errs, apperrors.ValidationError{
				Field:   "options",
				Message: "must contain at least 2 options",
				Value:   len(options),
			})
		}
		if !containsOption(options, correctAnswer) {
			errs = append(errs, apperrors.ValidationError{
				Field:   "correct_answer",
				Message: "must be one of the listed options",
				Value:   correctAnswer,
			})
		}
		if dup := firstDuplicate(options); dup != "" {
			errs = append(errs, apperrors.ValidationError{
				Field:   "options",
				Message: "must not contain duplicate options",
				Value:   dup,
			})
		}

	case models.TrueFalse:
		if len(options) > 0 && !sameOptions(options, models.TrueFalseOptions) {
			errs = append(errs, apperrors.ValidationError{
				Field:   "options",
				Message: "true/false questions take the fixed true/false options",
				Value:   options,
			})
		}
		if !containsOption(models.TrueFalseOptions, correctAnswer) {
			errs = append(errs, apperrors.ValidationError{
				Field:   "correct_answer",
				Message: "must be 'true' or 'false'",
				Value:   correctAnswer,
			})
		}

	default:
		errs = append(errs, apperrors.ValidationError{
			Field:   "type",
			Message: "must be a valid question type (multiple_choice, true_false)",
			Value:   string(qType),
		})
	}

	return errs
}

func containsOption(options []string, answer string) bool {
	for _, opt := range options {
		if opt == answer {
			return true
		}
	}
	return false
}

func firstDuplicate(options []string) string {
	seen := make(map[string]struct{}, len(options))
	for _, opt := range options {
		if _, ok := seen[opt]; ok {
			return opt
		}
		seen[opt] = struct{}{}
	}
	return ""
}

func sameOptions(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
