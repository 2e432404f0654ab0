package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lumenlearn/assessment-engine/internal/models"
	"github.com/lumenlearn/assessment-engine/internal/validator"
	"github.com/xuri/excelize/v2"
)

func newImportExportService(f *fakeRepository) ImportExportService {
	return NewImportExportService(f, nil, testLogger(), validator.New())
}

func TestImportBankCSV(t *testing.T) {
	f := newFakeRepository()
	course := f.seedCourse(t, 1)
	module := f.seedModule(t, course.ID, 1)
	svc := newImportExportService(f)

	csvData := strings.Join([]string{
		"question_type,question_text,options,correct_answer,difficulty",
		"multiple_choice,What is 2+2?,2|3|4,4,easy",
		"true_false,The sky is green.,,FALSE,",
		"multiple_choice,Bad row,a|b,c,medium",
		"multiple_choice,Another bad row,a|b,a,extreme",
	}, "\n")

	result, err := svc.ImportBank(context.Background(), module.ID, "bank.csv", []byte(csvData), "instructor-1")
	if err != nil {
		t.Fatalf("ImportBank() error = %v", err)
	}

	if result.Imported != 2 {
		t.Errorf("Imported = %d, want 2", result.Imported)
	}
	if result.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", result.Skipped)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("Errors = %d, want 2", len(result.Errors))
	}
	if result.Errors[0].Row != 4 {
		t.Errorf("first error row = %d, want 4", result.Errors[0].Row)
	}
	if result.Errors[1].Row != 5 {
		t.Errorf("second error row = %d, want 5", result.Errors[1].Row)
	}

	if len(f.questions) != 2 {
		t.Fatalf("persisted questions = %d, want 2", len(f.questions))
	}
	for _, q := range f.questions {
		if q.ModuleID != module.ID {
			t.Errorf("question landed in module %d, want %d", q.ModuleID, module.ID)
		}
		if q.CreatedBy != "instructor-1" {
			t.Errorf("CreatedBy = %s, want instructor-1", q.CreatedBy)
		}
		if q.Type == models.TrueFalse && q.CorrectAnswer != "false" {
			t.Errorf("true/false answer = %q, want lowercased false", q.CorrectAnswer)
		}
	}
}

func TestImportBankXLSX(t *testing.T) {
	f := newFakeRepository()
	course := f.seedCourse(t, 1)
	module := f.seedModule(t, course.ID, 1)
	svc := newImportExportService(f)

	wb := excelize.NewFile()
	rows := [][]string{
		{"question_type", "question_text", "options", "correct_answer"},
		{"true_false", "Water boils at 100C at sea level.", "", "true"},
		{"multiple_choice", "Pick a vowel.", "a|b|c", "a"},
	}
	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatal(err)
			}
			wb.SetCellValue("Sheet1", cell, value)
		}
	}
	buf, err := wb.WriteToBuffer()
	if err != nil {
		t.Fatalf("failed to build workbook: %v", err)
	}

	result, err := svc.ImportBank(context.Background(), module.ID, "bank.xlsx", buf.Bytes(), "instructor-1")
	if err != nil {
		t.Fatalf("ImportBank() error = %v", err)
	}

	if result.Imported != 2 || result.Skipped != 0 {
		t.Errorf("result = %d imported / %d skipped, want 2 / 0", result.Imported, result.Skipped)
	}
	if len(f.questions) != 2 {
		t.Errorf("persisted questions = %d, want 2", len(f.questions))
	}
}

func TestImportBankRejectsBadInput(t *testing.T) {
	f := newFakeRepository()
	course := f.seedCourse(t, 1)
	module := f.seedModule(t, course.ID, 1)
	svc := newImportExportService(f)
	ctx := context.Background()

	tests := []struct {
		name     string
		filename string
		data     string
	}{
		{"unsupported format", "bank.pdf", "whatever"},
		{"missing required column", "bank.csv", "question_type,options\nmultiple_choice,a|b"},
		{"header only", "bank.csv", "question_type,question_text,correct_answer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ImportBank(ctx, module.ID, tt.filename, []byte(tt.data), "instructor-1")
			if !IsValidation(err) {
				t.Fatalf("error = %v, want validation error", err)
			}
		})
	}
}

func TestImportBankUnknownModule(t *testing.T) {
	f := newFakeRepository()
	svc := newImportExportService(f)

	_, err := svc.ImportBank(context.Background(), 99, "bank.csv", []byte("question_type,question_text,correct_answer\n"), "instructor-1")
	if !errors.Is(err, ErrModuleNotFound) {
		t.Fatalf("error = %v, want ErrModuleNotFound", err)
	}
}

func TestExportCourseResults(t *testing.T) {
	f := newFakeRepository()
	course := f.seedCourse(t, 2)
	f.seedAccount(t, "learner-1").FullName = "Ada Lovelace"

	progress := f.seedProgress(t, "learner-1", course.ID, course.NumModules)
	progress.QuizzesTaken = 2
	progress.AvgScore = floatPtr(75)
	progress.LastQuizScore = floatPtr(90)
	progress.CompletedModules = 1
	progress.CompletionPercentage = 50
	if err := progress.SetGrades([]*float64{floatPtr(60), nil}); err != nil {
		t.Fatal(err)
	}

	// No account row for the second learner; the name column stays blank.
	f.seedProgress(t, "learner-2", course.ID, course.NumModules)

	svc := newImportExportService(f)

	data, err := svc.ExportCourseResults(context.Background(), course.ID, "instructor-1")
	if err != nil {
		t.Fatalf("ExportCourseResults() error = %v", err)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("exported bytes are not a readable workbook: %v", err)
	}
	defer wb.Close()

	rows, err := wb.GetRows("Results")
	if err != nil {
		t.Fatalf("failed to read Results sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header plus two learners", len(rows))
	}

	header := rows[0]
	wantHeader := []string{
		"Learner ID", "Learner Name", "Quizzes Taken", "Avg Score", "Last Score",
		"Completed Modules", "Completion %", "Module 1", "Module 2",
	}
	if len(header) != len(wantHeader) {
		t.Fatalf("header columns = %d, want %d", len(header), len(wantHeader))
	}
	for i, want := range wantHeader {
		if header[i] != want {
			t.Errorf("header[%d] = %q, want %q", i, header[i], want)
		}
	}

	first := rows[1]
	if first[0] != "learner-1" || first[1] != "Ada Lovelace" {
		t.Errorf("first row = %v, want learner-1 / Ada Lovelace", first[:2])
	}
	if first[2] != "2" || first[3] != "75" || first[4] != "90" {
		t.Errorf("first row scores = %v, want 2 / 75 / 90", first[2:5])
	}
	if first[7] != "60" {
		t.Errorf("module 1 grade = %q, want 60", first[7])
	}

	second := rows[2]
	if second[0] != "learner-2" {
		t.Errorf("second row learner = %q, want learner-2", second[0])
	}
	if len(second) > 1 && second[1] != "" {
		t.Errorf("second row name = %q, want blank for a missing account", second[1])
	}
}

func TestExportCourseResultsUnknownCourse(t *testing.T) {
	f := newFakeRepository()
	svc := newImportExportService(f)

	_, err := svc.ExportCourseResults(context.Background(), 99, "instructor-1")
	if !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("error = %v, want ErrCourseNotFound", err)
	}
}

func TestParseImportRowOptionsSplitting(t *testing.T) {
	f := newFakeRepository()
	svc := newImportExportService(f).(*importExportService)

	headerMap := map[string]int{
		"question_type": 0, "question_text": 1, "options": 2, "correct_answer": 3,
	}
	row := []string{"multiple_choice", "spaced options", " red | green |  | blue ", "green"}

	question, reason := svc.parseImportRow(row, headerMap, 1, "instructor-1")
	if reason != "" {
		t.Fatalf("row rejected: %s", reason)
	}

	options, err := parsedOptions(question)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"red", "green", "blue"}
	if len(options) != len(want) {
		t.Fatalf("options = %v, want %v", options, want)
	}
	for i := range want {
		if options[i] != want[i] {
			t.Errorf("options[%d] = %q, want %q", i, options[i], want[i])
		}
	}
}
