package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/lumenlearn/assessment-engine/internal/models"
	"github.com/lumenlearn/assessment-engine/internal/repositories"
	"gorm.io/gorm"
)

// fakeRepository is an in-memory Repository for service tests. Transactions
// run the callback against the same store; not-found conditions use the same
// message convention as the PostgreSQL layer so IsNotFoundError matches.
type fakeRepository struct {
	questions map[uint]*models.Question
	quizzes   map[uint]*models.Quiz
	responses map[uint]*models.QuizResponse
	progress  map[string]*models.CourseProgress
	courses   map[uint]*models.Course
	modules   map[uint]*models.CourseModule
	accounts  map[string]*models.Account

	nextID uint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		questions: make(map[uint]*models.Question),
		quizzes:   make(map[uint]*models.Quiz),
		responses: make(map[uint]*models.QuizResponse),
		progress:  make(map[string]*models.CourseProgress),
		courses:   make(map[uint]*models.Course),
		modules:   make(map[uint]*models.CourseModule),
		accounts:  make(map[string]*models.Account),
	}
}

func (f *fakeRepository) nextSeq() uint {
	f.nextID++
	return f.nextID
}

func progressMapKey(userID string, courseID uint) string {
	return fmt.Sprintf("%s:%d", userID, courseID)
}

func (f *fakeRepository) Question() repositories.QuestionRepository { return &fakeQuestionRepo{f} }
func (f *fakeRepository) Quiz() repositories.QuizRepository         { return &fakeQuizRepo{f} }
func (f *fakeRepository) Response() repositories.ResponseRepository { return &fakeResponseRepo{f} }
func (f *fakeRepository) Progress() repositories.ProgressRepository { return &fakeProgressRepo{f} }
func (f *fakeRepository) Course() repositories.CourseRepository     { return &fakeCourseRepo{f} }
func (f *fakeRepository) Module() repositories.ModuleRepository     { return &fakeModuleRepo{f} }
func (f *fakeRepository) Account() repositories.AccountRepository   { return &fakeAccountRepo{f} }

func (f *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(f)
}

func (f *fakeRepository) Ping(ctx context.Context) error { return nil }
func (f *fakeRepository) Close() error                   { return nil }

// ===== QUESTION =====

type fakeQuestionRepo struct{ f *fakeRepository }

func (r *fakeQuestionRepo) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	question.ID = r.f.nextSeq()
	r.f.questions[question.ID] = question
	return nil
}

func (r *fakeQuestionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	q, ok := r.f.questions[id]
	if !ok {
		return nil, fmt.Errorf("question not found with ID %d", id)
	}
	return q, nil
}

func (r *fakeQuestionRepo) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	if _, ok := r.f.questions[question.ID]; !ok {
		return fmt.Errorf("question not found with ID %d", question.ID)
	}
	r.f.questions[question.ID] = question
	return nil
}

func (r *fakeQuestionRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if _, ok := r.f.questions[id]; !ok {
		return fmt.Errorf("question not found with ID %d", id)
	}
	delete(r.f.questions, id)
	return nil
}

func (r *fakeQuestionRepo) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	for _, q := range questions {
		q.ID = r.f.nextSeq()
		r.f.questions[q.ID] = q
	}
	return nil
}

func (r *fakeQuestionRepo) GetBank(ctx context.Context, tx *gorm.DB, moduleID uint) ([]*models.Question, error) {
	var bank []*models.Question
	for _, q := range r.f.questions {
		if q.ModuleID == moduleID {
			bank = append(bank, q)
		}
	}
	sort.Slice(bank, func(i, j int) bool { return bank[i].ID < bank[j].ID })
	return bank, nil
}

func (r *fakeQuestionRepo) GetBankFiltered(ctx context.Context, tx *gorm.DB, moduleID uint, filters repositories.BankFilters) ([]*models.Question, error) {
	bank, _ := r.GetBank(ctx, tx, moduleID)
	var out []*models.Question
	for _, q := range bank {
		if filters.Types != "" && !filters.Types.Matches(q.Type) {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func (r *fakeQuestionRepo) CountByModule(ctx context.Context, tx *gorm.DB, moduleID uint) (int64, error) {
	bank, _ := r.GetBank(ctx, tx, moduleID)
	return int64(len(bank)), nil
}

func (r *fakeQuestionRepo) GetBankStats(ctx context.Context, tx *gorm.DB, moduleID uint) (*repositories.BankStats, error) {
	bank, _ := r.GetBank(ctx, tx, moduleID)
	stats := &repositories.BankStats{
		TotalQuestions:  len(bank),
		QuestionsByType: make(map[models.QuestionType]int),
		QuestionsByDiff: make(map[models.DifficultyLevel]int),
	}
	for _, q := range bank {
		stats.QuestionsByType[q.Type]++
		stats.QuestionsByDiff[q.Difficulty]++
	}
	return stats, nil
}

// ===== QUIZ =====

type fakeQuizRepo struct{ f *fakeRepository }

func (r *fakeQuizRepo) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	quiz.ID = r.f.nextSeq()
	r.f.quizzes[quiz.ID] = quiz
	return nil
}

func (r *fakeQuizRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	q, ok := r.f.quizzes[id]
	if !ok {
		return nil, fmt.Errorf("quiz not found with ID %d", id)
	}
	return q, nil
}

func (r *fakeQuizRepo) GetByModuleAndSource(ctx context.Context, tx *gorm.DB, moduleID uint, source models.QuizSource) ([]*models.Quiz, error) {
	var out []*models.Quiz
	for _, q := range r.f.quizzes {
		if q.ModuleID == moduleID && q.Source == source {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeQuizRepo) GetByUserAndModule(ctx context.Context, tx *gorm.DB, userID string, moduleID uint) ([]*models.Quiz, error) {
	var out []*models.Quiz
	for _, q := range r.f.quizzes {
		if q.UserID == userID && q.ModuleID == moduleID {
			out = append(out, q)
		}
	}
	return out, nil
}

// ===== RESPONSE =====

type fakeResponseRepo struct{ f *fakeRepository }

func (r *fakeResponseRepo) Create(ctx context.Context, tx *gorm.DB, response *models.QuizResponse) error {
	response.ID = r.f.nextSeq()
	r.f.responses[response.ID] = response
	return nil
}

func (r *fakeResponseRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizResponse, error) {
	resp, ok := r.f.responses[id]
	if !ok {
		return nil, fmt.Errorf("quiz response not found with ID %d", id)
	}
	return resp, nil
}

func (r *fakeResponseRepo) GetByUserAndQuiz(ctx context.Context, tx *gorm.DB, userID string, quizID uint) (*models.QuizResponse, error) {
	for _, resp := range r.f.responses {
		if resp.UserID == userID && resp.QuizID == quizID {
			return resp, nil
		}
	}
	return nil, fmt.Errorf("quiz response not found for user %s and quiz %d", userID, quizID)
}

func (r *fakeResponseRepo) DeleteByUserAndQuiz(ctx context.Context, tx *gorm.DB, userID string, quizID uint) error {
	for id, resp := range r.f.responses {
		if resp.UserID == userID && resp.QuizID == quizID {
			delete(r.f.responses, id)
		}
	}
	return nil
}

func (r *fakeResponseRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.QuizResponse, error) {
	var out []*models.QuizResponse
	for _, resp := range r.f.responses {
		if resp.UserID == userID {
			out = append(out, resp)
		}
	}
	return out, nil
}

// ===== PROGRESS =====

type fakeProgressRepo struct{ f *fakeRepository }

func (r *fakeProgressRepo) Create(ctx context.Context, tx *gorm.DB, progress *models.CourseProgress) error {
	progress.ID = r.f.nextSeq()
	r.f.progress[progressMapKey(progress.UserID, progress.CourseID)] = progress
	return nil
}

func (r *fakeProgressRepo) GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID string, courseID uint) (*models.CourseProgress, error) {
	p, ok := r.f.progress[progressMapKey(userID, courseID)]
	if !ok {
		return nil, fmt.Errorf("course progress not found for user %s and course %d", userID, courseID)
	}
	return p, nil
}

func (r *fakeProgressRepo) Update(ctx context.Context, tx *gorm.DB, progress *models.CourseProgress) error {
	key := progressMapKey(progress.UserID, progress.CourseID)
	if _, ok := r.f.progress[key]; !ok {
		return fmt.Errorf("course progress not found for user %s and course %d", progress.UserID, progress.CourseID)
	}
	r.f.progress[key] = progress
	return nil
}

func (r *fakeProgressRepo) ListByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.CourseProgress, error) {
	var out []*models.CourseProgress
	for _, p := range r.f.progress {
		if p.CourseID == courseID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// ===== COURSE / MODULE =====

type fakeCourseRepo struct{ f *fakeRepository }

func (r *fakeCourseRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	c, ok := r.f.courses[id]
	if !ok {
		return nil, fmt.Errorf("course not found with ID %d", id)
	}
	return c, nil
}

func (r *fakeCourseRepo) IncrementCompletedLearners(ctx context.Context, tx *gorm.DB, id uint) error {
	c, ok := r.f.courses[id]
	if !ok {
		return fmt.Errorf("course not found with ID %d", id)
	}
	c.CompletedLearners++
	return nil
}

type fakeModuleRepo struct{ f *fakeRepository }

func (r *fakeModuleRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.CourseModule, error) {
	m, ok := r.f.modules[id]
	if !ok {
		return nil, fmt.Errorf("module not found with ID %d", id)
	}
	return m, nil
}

func (r *fakeModuleRepo) ListByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.CourseModule, error) {
	var out []*models.CourseModule
	for _, m := range r.f.modules {
		if m.CourseID == courseID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModuleOrder < out[j].ModuleOrder })
	return out, nil
}

// ===== ACCOUNT =====

type fakeAccountRepo struct{ f *fakeRepository }

func (r *fakeAccountRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Account, error) {
	a, ok := r.f.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account not found with ID %s", id)
	}
	return a, nil
}

func (r *fakeAccountRepo) Update(ctx context.Context, tx *gorm.DB, account *models.Account) error {
	if _, ok := r.f.accounts[account.ID]; !ok {
		return fmt.Errorf("account not found with ID %s", account.ID)
	}
	r.f.accounts[account.ID] = account
	return nil
}

// ===== TEST FIXTURES =====

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (f *fakeRepository) seedCourse(t *testing.T, numModules int) *models.Course {
	t.Helper()
	course := &models.Course{
		ID:         f.nextSeq(),
		Title:      "Test Course",
		NumModules: numModules,
	}
	f.courses[course.ID] = course
	return course
}

func (f *fakeRepository) seedModule(t *testing.T, courseID uint, order int) *models.CourseModule {
	t.Helper()
	module := &models.CourseModule{
		ID:          f.nextSeq(),
		CourseID:    courseID,
		Title:       fmt.Sprintf("Module %d", order),
		ModuleOrder: order,
	}
	f.modules[module.ID] = module
	return module
}

func (f *fakeRepository) seedAccount(t *testing.T, id string) *models.Account {
	t.Helper()
	account := &models.Account{
		ID:       id,
		FullName: "Test Learner",
		Role:     models.RoleLearner,
	}
	f.accounts[id] = account
	return account
}

func (f *fakeRepository) seedProgress(t *testing.T, userID string, courseID uint, numModules int) *models.CourseProgress {
	t.Helper()
	progress := &models.CourseProgress{
		ID:       f.nextSeq(),
		UserID:   userID,
		CourseID: courseID,
	}
	if err := progress.SetGrades(make([]*float64, numModules)); err != nil {
		t.Fatalf("failed to seed grades: %v", err)
	}
	f.progress[progressMapKey(userID, courseID)] = progress
	return progress
}

func (f *fakeRepository) seedQuestion(t *testing.T, moduleID uint, qType models.QuestionType, text, answer string, options []string, difficulty models.DifficultyLevel) *models.Question {
	t.Helper()
	question := &models.Question{
		ID:            f.nextSeq(),
		ModuleID:      moduleID,
		Type:          qType,
		Text:          text,
		CorrectAnswer: answer,
		Difficulty:    difficulty,
	}
	if qType == models.MultipleChoice {
		data, err := json.Marshal(options)
		if err != nil {
			t.Fatalf("failed to seed options: %v", err)
		}
		question.Options = data
	}
	f.questions[question.ID] = question
	return question
}

func (f *fakeRepository) seedInstructorQuiz(t *testing.T, moduleID uint, snaps []models.QuizQuestion) *models.Quiz {
	t.Helper()
	quiz := &models.Quiz{
		ID:       f.nextSeq(),
		UserID:   "instructor-1",
		ModuleID: moduleID,
		Source:   models.QuizSourceInstructor,
	}
	if err := quiz.SetQuestionSnapshots(snaps); err != nil {
		t.Fatalf("failed to seed quiz snapshots: %v", err)
	}
	f.quizzes[quiz.ID] = quiz
	return quiz
}

func snap(id uint, difficulty models.DifficultyLevel, answer string) models.QuizQuestion {
	return models.QuizQuestion{
		QuestionID:    id,
		Type:          models.MultipleChoice,
		Text:          fmt.Sprintf("question %d", id),
		Options:       []string{"a", "b", "c"},
		CorrectAnswer: answer,
		Difficulty:    difficulty,
	}
}

func floatPtr(v float64) *float64 { return &v }
