package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/lumenlearn/assessment-engine/internal/events"
	"github.com/lumenlearn/assessment-engine/internal/models"
)

func newProgressFixture(t *testing.T, numModules int) (*fakeRepository, *events.MockEventPublisher, ProgressService) {
	t.Helper()
	f := newFakeRepository()
	logger := testLogger()
	publisher := events.NewMockEventPublisher(logger)
	return f, publisher, NewProgressService(f, nil, logger, publisher)
}

func TestEnroll(t *testing.T) {
	f, _, svc := newProgressFixture(t, 3)
	course := f.seedCourse(t, 3)

	progress, err := svc.Enroll(context.Background(), "learner-1", course.ID)
	if err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}

	if progress.UserID != "learner-1" || progress.CourseID != course.ID {
		t.Errorf("enrolled row = (%s, %d), want (learner-1, %d)", progress.UserID, progress.CourseID, course.ID)
	}
	if progress.QuizzesTaken != 0 || progress.CompletedModules != 0 {
		t.Errorf("fresh enrollment has history: taken=%d completed=%d", progress.QuizzesTaken, progress.CompletedModules)
	}
	if len(progress.QuizGrades) != 3 {
		t.Fatalf("grade slots = %d, want 3", len(progress.QuizGrades))
	}
	for i, grade := range progress.QuizGrades {
		if grade != nil {
			t.Errorf("grade slot %d = %v, want nil", i, *grade)
		}
	}
}

func TestEnrollTwiceReturnsExisting(t *testing.T) {
	f, _, svc := newProgressFixture(t, 2)
	course := f.seedCourse(t, 2)
	ctx := context.Background()

	if _, err := svc.Enroll(ctx, "learner-1", course.ID); err != nil {
		t.Fatalf("first Enroll() error = %v", err)
	}

	// Take a quiz, then re-enroll; the history must survive.
	module := f.seedModule(t, course.ID, 1)
	if _, err := svc.ApplyScore(ctx, "learner-1", module.ID, 70, nil, true); err != nil {
		t.Fatalf("ApplyScore() error = %v", err)
	}

	progress, err := svc.Enroll(ctx, "learner-1", course.ID)
	if err != nil {
		t.Fatalf("second Enroll() error = %v", err)
	}
	if progress.QuizzesTaken != 1 {
		t.Errorf("re-enrollment reset history: QuizzesTaken = %d, want 1", progress.QuizzesTaken)
	}
	if len(f.progress) != 1 {
		t.Errorf("ledger rows = %d, want 1", len(f.progress))
	}
}

func TestEnrollUnknownCourse(t *testing.T) {
	_, _, svc := newProgressFixture(t, 1)

	if _, err := svc.Enroll(context.Background(), "learner-1", 99); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("error = %v, want ErrCourseNotFound", err)
	}
}

func TestGetProgressNotEnrolled(t *testing.T) {
	f, _, svc := newProgressFixture(t, 1)
	course := f.seedCourse(t, 1)

	if _, err := svc.GetProgress(context.Background(), "learner-1", course.ID); !errors.Is(err, ErrProgressNotFound) {
		t.Fatalf("error = %v, want ErrProgressNotFound", err)
	}
}

func TestApplyScoreFirstAttempt(t *testing.T) {
	f, _, svc := newProgressFixture(t, 3)
	course := f.seedCourse(t, 3)
	module := f.seedModule(t, course.ID, 2)
	f.seedAccount(t, "learner-1")
	f.seedProgress(t, "learner-1", course.ID, course.NumModules)

	progress, err := svc.ApplyScore(context.Background(), "learner-1", module.ID, 80, nil, true)
	if err != nil {
		t.Fatalf("ApplyScore() error = %v", err)
	}

	if progress.QuizzesTaken != 1 {
		t.Errorf("QuizzesTaken = %d, want 1", progress.QuizzesTaken)
	}
	if progress.AvgScore == nil || *progress.AvgScore != 80 {
		t.Errorf("AvgScore = %v, want 80", progress.AvgScore)
	}
	if progress.LastQuizScore == nil || *progress.LastQuizScore != 80 {
		t.Errorf("LastQuizScore = %v, want 80", progress.LastQuizScore)
	}
	if progress.CompletedModules != 2 {
		t.Errorf("CompletedModules = %d, want 2", progress.CompletedModules)
	}
	if math.Abs(progress.CompletionPercentage-200.0/3) > 1e-9 {
		t.Errorf("CompletionPercentage = %.4f, want %.4f", progress.CompletionPercentage, 200.0/3)
	}
	if progress.QuizGrades[1] == nil || *progress.QuizGrades[1] != 80 {
		t.Errorf("grade slot 1 = %v, want 80", progress.QuizGrades[1])
	}
	if progress.QuizGrades[0] != nil || progress.QuizGrades[2] != nil {
		t.Errorf("untouched grade slots mutated: %v", progress.QuizGrades)
	}
}

func TestApplyScoreAverageAcrossModules(t *testing.T) {
	f, _, svc := newProgressFixture(t, 2)
	course := f.seedCourse(t, 2)
	module1 := f.seedModule(t, course.ID, 1)
	module2 := f.seedModule(t, course.ID, 2)
	f.seedAccount(t, "learner-1")
	f.seedProgress(t, "learner-1", course.ID, course.NumModules)
	ctx := context.Background()

	if _, err := svc.ApplyScore(ctx, "learner-1", module1.ID, 40, nil, false); err != nil {
		t.Fatalf("ApplyScore() module 1 error = %v", err)
	}
	progress, err := svc.ApplyScore(ctx, "learner-1", module2.ID, 80, nil, true)
	if err != nil {
		t.Fatalf("ApplyScore() module 2 error = %v", err)
	}

	if progress.QuizzesTaken != 2 {
		t.Errorf("QuizzesTaken = %d, want 2", progress.QuizzesTaken)
	}
	if progress.AvgScore == nil || *progress.AvgScore != 60 {
		t.Errorf("AvgScore = %v, want 60", progress.AvgScore)
	}
}

func TestApplyScoreRetakeBacksOutOldScore(t *testing.T) {
	f, _, svc := newProgressFixture(t, 1)
	course := f.seedCourse(t, 1)
	module := f.seedModule(t, course.ID, 1)
	f.seedAccount(t, "learner-1")
	f.seedProgress(t, "learner-1", course.ID, course.NumModules)
	ctx := context.Background()

	if _, err := svc.ApplyScore(ctx, "learner-1", module.ID, 30, nil, false); err != nil {
		t.Fatalf("first attempt error = %v", err)
	}
	progress, err := svc.ApplyScore(ctx, "learner-1", module.ID, 90, floatPtr(30), true)
	if err != nil {
		t.Fatalf("retake error = %v", err)
	}

	if progress.QuizzesTaken != 1 {
		t.Errorf("QuizzesTaken = %d, want 1 after retake", progress.QuizzesTaken)
	}
	if progress.AvgScore == nil || *progress.AvgScore != 90 {
		t.Errorf("AvgScore = %v, want 90 with 30 backed out", progress.AvgScore)
	}
	if progress.QuizGrades[0] == nil || *progress.QuizGrades[0] != 90 {
		t.Errorf("grade slot 0 = %v, want 90", progress.QuizGrades[0])
	}
}

func TestApplyScoreCompletionRatchet(t *testing.T) {
	f, _, svc := newProgressFixture(t, 3)
	course := f.seedCourse(t, 3)
	module1 := f.seedModule(t, course.ID, 1)
	module2 := f.seedModule(t, course.ID, 2)
	f.seedAccount(t, "learner-1")
	f.seedProgress(t, "learner-1", course.ID, course.NumModules)
	ctx := context.Background()

	progress, err := svc.ApplyScore(ctx, "learner-1", module2.ID, 90, nil, true)
	if err != nil {
		t.Fatalf("ApplyScore() module 2 error = %v", err)
	}
	if progress.CompletedModules != 2 {
		t.Fatalf("CompletedModules = %d, want 2", progress.CompletedModules)
	}

	// A later pass of an earlier module never rolls completion back.
	progress, err = svc.ApplyScore(ctx, "learner-1", module1.ID, 100, nil, true)
	if err != nil {
		t.Fatalf("ApplyScore() module 1 error = %v", err)
	}
	if progress.CompletedModules != 2 {
		t.Errorf("CompletedModules = %d, want 2 after passing module 1", progress.CompletedModules)
	}
	if math.Abs(progress.CompletionPercentage-200.0/3) > 1e-9 {
		t.Errorf("CompletionPercentage = %.4f, want unchanged %.4f", progress.CompletionPercentage, 200.0/3)
	}
}

func TestApplyScoreFailedPassDoesNotAdvance(t *testing.T) {
	f, _, svc := newProgressFixture(t, 2)
	course := f.seedCourse(t, 2)
	module := f.seedModule(t, course.ID, 1)
	f.seedAccount(t, "learner-1")
	f.seedProgress(t, "learner-1", course.ID, course.NumModules)

	progress, err := svc.ApplyScore(context.Background(), "learner-1", module.ID, 40, nil, false)
	if err != nil {
		t.Fatalf("ApplyScore() error = %v", err)
	}

	if progress.CompletedModules != 0 {
		t.Errorf("CompletedModules = %d, want 0 on a fail", progress.CompletedModules)
	}
	if progress.QuizGrades[0] == nil || *progress.QuizGrades[0] != 40 {
		t.Errorf("grade slot 0 = %v, failing scores still record a grade", progress.QuizGrades[0])
	}
}

func TestApplyScoreUnorderedModuleRecordsNoGrade(t *testing.T) {
	f, _, svc := newProgressFixture(t, 2)
	course := f.seedCourse(t, 2)
	module := f.seedModule(t, course.ID, 0)
	f.seedAccount(t, "learner-1")
	f.seedProgress(t, "learner-1", course.ID, course.NumModules)

	progress, err := svc.ApplyScore(context.Background(), "learner-1", module.ID, 75, nil, true)
	if err != nil {
		t.Fatalf("ApplyScore() error = %v", err)
	}

	for i, grade := range progress.QuizGrades {
		if grade != nil {
			t.Errorf("grade slot %d = %v, order-0 modules record no grade", i, *grade)
		}
	}
	if progress.AvgScore == nil || *progress.AvgScore != 75 {
		t.Errorf("AvgScore = %v, want 75; the average still counts the quiz", progress.AvgScore)
	}
	if progress.CompletedModules != 0 {
		t.Errorf("CompletedModules = %d, order-0 modules do not advance completion", progress.CompletedModules)
	}
}

func TestApplyScoreResizesStaleGrades(t *testing.T) {
	f, _, svc := newProgressFixture(t, 3)
	course := f.seedCourse(t, 3)
	module := f.seedModule(t, course.ID, 3)
	f.seedAccount(t, "learner-1")

	// Ledger created before the course grew to three modules.
	f.seedProgress(t, "learner-1", course.ID, 1)

	progress, err := svc.ApplyScore(context.Background(), "learner-1", module.ID, 65, nil, true)
	if err != nil {
		t.Fatalf("ApplyScore() error = %v", err)
	}

	if len(progress.QuizGrades) != 3 {
		t.Fatalf("grade slots = %d, want 3 after resize", len(progress.QuizGrades))
	}
	if progress.QuizGrades[2] == nil || *progress.QuizGrades[2] != 65 {
		t.Errorf("grade slot 2 = %v, want 65", progress.QuizGrades[2])
	}
}

func TestApplyScoreNotEnrolled(t *testing.T) {
	f, _, svc := newProgressFixture(t, 1)
	course := f.seedCourse(t, 1)
	module := f.seedModule(t, course.ID, 1)

	if _, err := svc.ApplyScore(context.Background(), "learner-1", module.ID, 80, nil, true); !errors.Is(err, ErrProgressNotFound) {
		t.Fatalf("error = %v, want ErrProgressNotFound", err)
	}
}

func TestApplyScoreUnknownModule(t *testing.T) {
	_, _, svc := newProgressFixture(t, 1)

	if _, err := svc.ApplyScore(context.Background(), "learner-1", 99, 80, nil, true); !errors.Is(err, ErrModuleNotFound) {
		t.Fatalf("error = %v, want ErrModuleNotFound", err)
	}
}

func TestApplyScoreCourseCompletion(t *testing.T) {
	f, publisher, svc := newProgressFixture(t, 2)
	course := f.seedCourse(t, 2)
	module1 := f.seedModule(t, course.ID, 1)
	module2 := f.seedModule(t, course.ID, 2)
	f.seedAccount(t, "learner-1")
	f.seedProgress(t, "learner-1", course.ID, course.NumModules)
	ctx := context.Background()

	if _, err := svc.ApplyScore(ctx, "learner-1", module1.ID, 80, nil, true); err != nil {
		t.Fatalf("module 1 error = %v", err)
	}
	if course.CompletedLearners != 0 {
		t.Errorf("CompletedLearners = %d before the last module", course.CompletedLearners)
	}

	progress, err := svc.ApplyScore(ctx, "learner-1", module2.ID, 80, nil, true)
	if err != nil {
		t.Fatalf("module 2 error = %v", err)
	}
	if progress.CompletionPercentage != 100 {
		t.Errorf("CompletionPercentage = %.1f, want 100", progress.CompletionPercentage)
	}
	if course.CompletedLearners != 1 {
		t.Errorf("CompletedLearners = %d, want 1", course.CompletedLearners)
	}

	done, err := f.accounts["learner-1"].HasCompletedCourse(course.ID)
	if err != nil {
		t.Fatalf("failed to decode completed courses: %v", err)
	}
	if !done {
		t.Errorf("course missing from the account's completed set")
	}

	counts := eventTypeCounts(publisher.GetPublishedEvents())
	if counts[events.EventModuleCompleted] != 2 {
		t.Errorf("module.completed events = %d, want 2", counts[events.EventModuleCompleted])
	}
	if counts[events.EventCourseCompleted] != 1 {
		t.Errorf("course.completed events = %d, want 1", counts[events.EventCourseCompleted])
	}
}

// ===== LEDGER HELPERS =====

func TestApplyAverage(t *testing.T) {
	tests := []struct {
		name          string
		avgScore      *float64
		quizzesTaken  int
		score         float64
		previousScore *float64
		wantAvg       float64
		wantTaken     int
	}{
		{"first quiz ever", nil, 0, 70, nil, 70, 1},
		{"second quiz", floatPtr(70), 1, 50, nil, 60, 2},
		{"retake replaces old score", floatPtr(60), 2, 90, floatPtr(50), 80, 2},
		{"retake with identical score", floatPtr(60), 2, 50, floatPtr(50), 60, 2},
		{"retake on empty history falls back to score", nil, 0, 45, floatPtr(80), 45, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			progress := &models.CourseProgress{
				AvgScore:     tt.avgScore,
				QuizzesTaken: tt.quizzesTaken,
			}
			applyAverage(progress, tt.score, tt.previousScore)

			if progress.AvgScore == nil || math.Abs(*progress.AvgScore-tt.wantAvg) > 1e-9 {
				t.Errorf("AvgScore = %v, want %.1f", progress.AvgScore, tt.wantAvg)
			}
			if progress.QuizzesTaken != tt.wantTaken {
				t.Errorf("QuizzesTaken = %d, want %d", progress.QuizzesTaken, tt.wantTaken)
			}
			if progress.LastQuizScore == nil || *progress.LastQuizScore != tt.score {
				t.Errorf("LastQuizScore = %v, want %.1f", progress.LastQuizScore, tt.score)
			}
		})
	}
}

func TestRecordGrade(t *testing.T) {
	t.Run("writes the 1-based slot", func(t *testing.T) {
		progress := &models.CourseProgress{}
		if err := progress.SetGrades(make([]*float64, 3)); err != nil {
			t.Fatal(err)
		}
		if err := recordGrade(progress, 2, 3, 85); err != nil {
			t.Fatalf("recordGrade() error = %v", err)
		}
		grades, _ := progress.Grades()
		if grades[1] == nil || *grades[1] != 85 {
			t.Errorf("grades = %v, want slot 1 = 85", grades)
		}
	})

	t.Run("order below one is a no-op", func(t *testing.T) {
		progress := &models.CourseProgress{}
		if err := recordGrade(progress, 0, 3, 85); err != nil {
			t.Fatalf("recordGrade() error = %v", err)
		}
		grades, _ := progress.Grades()
		if grades != nil {
			t.Errorf("grades = %v, want untouched nil", grades)
		}
	})

	t.Run("resizes a short sequence", func(t *testing.T) {
		progress := &models.CourseProgress{}
		if err := progress.SetGrades([]*float64{floatPtr(50)}); err != nil {
			t.Fatal(err)
		}
		if err := recordGrade(progress, 4, 4, 95); err != nil {
			t.Fatalf("recordGrade() error = %v", err)
		}
		grades, _ := progress.Grades()
		if len(grades) != 4 {
			t.Fatalf("grade slots = %d, want 4", len(grades))
		}
		if grades[0] == nil || *grades[0] != 50 {
			t.Errorf("existing grade lost on resize: %v", grades)
		}
		if grades[3] == nil || *grades[3] != 95 {
			t.Errorf("grades = %v, want slot 3 = 95", grades)
		}
	})

	t.Run("order beyond the course is a no-op", func(t *testing.T) {
		progress := &models.CourseProgress{}
		if err := progress.SetGrades(make([]*float64, 2)); err != nil {
			t.Fatal(err)
		}
		if err := recordGrade(progress, 5, 2, 85); err != nil {
			t.Fatalf("recordGrade() error = %v", err)
		}
		grades, _ := progress.Grades()
		for i, grade := range grades {
			if grade != nil {
				t.Errorf("grade slot %d = %v, want nil", i, *grade)
			}
		}
	})
}
