package services

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"

	"eduhub/backend/models"
	"eduhub/backend/repository"

	"gorm.io/gorm"
)

const (
	defaultOptionCount      = 4
	defaultAdminPageSize    = 10
	maxAdminPageSize        = 100
	defaultRecentResults    = 100
	maxRecentResults        = 1000
	statisticsRecentResults = 10
)

// CatalogService manages IQ tests and their questions and reports on their
// results.
type CatalogService struct {
	Catalog  *repository.CatalogRepository
	Sessions *repository.SessionRepository
	Results  *repository.ResultRepository
}

func NewCatalogService(catalog *repository.CatalogRepository, sessions *repository.SessionRepository,
	results *repository.ResultRepository) *CatalogService {
	return &CatalogService{Catalog: catalog, Sessions: sessions, Results: results}
}

// TestSummary is a test as listed to test takers.
type TestSummary struct {
	models.Test
	TimeLimitMinutes int `json:"time_limit_minutes"`
}

func newTestSummary(t models.Test) TestSummary {
	return TestSummary{Test: t, TimeLimitMinutes: t.TimeLimit / 60}
}

type PublicTest struct {
	TestSummary
	Questions []QuestionView `json:"questions"`
}

func notFoundOr(err error, msg, internal string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(msg)
	}
	return Internal(internal, err)
}

func (s *CatalogService) ListActive(ctx context.Context) ([]TestSummary, error) {
	tests, err := s.Catalog.ListActive(ctx)
	if err != nil {
		return nil, Internal("could not list tests", err)
	}
	out := make([]TestSummary, 0, len(tests))
	for _, t := range tests {
		out = append(out, newTestSummary(t))
	}
	return out, nil
}

func (s *CatalogService) ListSimple(ctx context.Context) ([]models.TestOption, error) {
	tests, err := s.Catalog.ListActiveSimple(ctx)
	if err != nil {
		return nil, Internal("could not list tests", err)
	}
	return tests, nil
}

// PublicTest returns an active test with its questions, stripped of answers.
func (s *CatalogService) PublicTest(ctx context.Context, id uint) (*PublicTest, error) {
	test, err := s.Catalog.FindActive(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "IQ test not found", "could not load test")
	}
	questions, err := s.Catalog.Questions(ctx, id)
	if err != nil {
		return nil, Internal("could not load questions", err)
	}
	return &PublicTest{TestSummary: newTestSummary(*test), Questions: newQuestionViews(questions)}, nil
}

type AdminTestQuery struct {
	Page   int    `query:"page" validate:"gte=0"`
	Limit  int    `query:"limit" validate:"gte=0"`
	Search string `query:"search"`
	Status string `query:"status" validate:"omitempty,oneof=all active inactive"`
}

type TestPage struct {
	Tests []models.TestListItem
	Total int64
	Page  int
	Limit int
}

func pageBounds(page, limit, def, max int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return page, limit
}

func (s *CatalogService) AdminList(ctx context.Context, q AdminTestQuery) (*TestPage, error) {
	page, limit := pageBounds(q.Page, q.Limit, defaultAdminPageSize, maxAdminPageSize)
	items, total, err := s.Catalog.ListAdmin(ctx, repository.TestFilter{
		Search: strings.TrimSpace(q.Search),
		Status: q.Status,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, Internal("could not list tests", err)
	}
	if items == nil {
		items = []models.TestListItem{}
	}
	return &TestPage{Tests: items, Total: total, Page: page, Limit: limit}, nil
}

type CreateTestInput struct {
	Title             string `json:"title" validate:"required"`
	Description       string `json:"description"`
	Instructions      string `json:"instructions"`
	TotalQuestions    *int   `json:"total_questions" validate:"omitempty,gte=0"`
	TimeLimit         int    `json:"time_limit" validate:"required,gt=0"` // minutes
	PointsPerQuestion *int   `json:"points_per_question" validate:"omitempty,gte=1"`
	NegativeMarking   bool   `json:"negative_marking"`
	DifficultyLevel   string `json:"difficulty_level"`
}

func (s *CatalogService) CreateTest(ctx context.Context, in CreateTestInput, createdBy uint) (*models.Test, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || in.TimeLimit <= 0 {
		return nil, Validation("Title and time limit are required")
	}

	test := &models.Test{
		Title:             title,
		Description:       in.Description,
		Instructions:      in.Instructions,
		TotalQuestions:    10,
		TimeLimit:         in.TimeLimit * 60,
		PointsPerQuestion: 1,
		NegativeMarking:   in.NegativeMarking,
		DifficultyLevel:   "medium",
		IsActive:          true,
		CreatedBy:         createdBy,
	}
	if in.TotalQuestions != nil {
		test.TotalQuestions = *in.TotalQuestions
	}
	if in.PointsPerQuestion != nil {
		test.PointsPerQuestion = *in.PointsPerQuestion
	}
	if d := strings.TrimSpace(in.DifficultyLevel); d != "" {
		test.DifficultyLevel = d
	}

	if err := s.Catalog.Create(ctx, test); err != nil {
		return nil, Internal("could not create test", err)
	}
	return test, nil
}

// TestPatch lists the test fields an administrator may change. Absent fields
// are left untouched.
type TestPatch struct {
	Title             *string `json:"title" validate:"omitempty,min=1"`
	Description       *string `json:"description"`
	Instructions      *string `json:"instructions"`
	TotalQuestions    *int    `json:"total_questions" validate:"omitempty,gte=0"`
	TimeLimit         *int    `json:"time_limit" validate:"omitempty,gt=0"` // minutes
	PointsPerQuestion *int    `json:"points_per_question" validate:"omitempty,gte=1"`
	NegativeMarking   *bool   `json:"negative_marking"`
	DifficultyLevel   *string `json:"difficulty_level"`
}

func (p TestPatch) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if p.Title != nil {
		cols["title"] = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Instructions != nil {
		cols["instructions"] = *p.Instructions
	}
	if p.TotalQuestions != nil {
		cols["total_questions"] = *p.TotalQuestions
	}
	if p.TimeLimit != nil {
		cols["time_limit"] = *p.TimeLimit * 60
	}
	if p.PointsPerQuestion != nil {
		cols["points_per_question"] = *p.PointsPerQuestion
	}
	if p.NegativeMarking != nil {
		cols["negative_marking"] = *p.NegativeMarking
	}
	if p.DifficultyLevel != nil {
		cols["difficulty_level"] = *p.DifficultyLevel
	}
	return cols
}

func (s *CatalogService) UpdateTest(ctx context.Context, id uint, patch TestPatch) (*models.Test, error) {
	cols := patch.columns()
	if len(cols) == 0 {
		return nil, Validation("No valid fields to update")
	}
	if title, ok := cols["title"]; ok && title == "" {
		return nil, Validation("Title must not be empty")
	}
	if err := s.Catalog.Update(ctx, id, cols); err != nil {
		return nil, notFoundOr(err, "IQ test not found", "could not update test")
	}
	test, err := s.Catalog.Find(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "IQ test not found", "could not load test")
	}
	return test, nil
}

func (s *CatalogService) SetStatus(ctx context.Context, id uint, active bool) error {
	if err := s.Catalog.SetActive(ctx, id, active); err != nil {
		return notFoundOr(err, "IQ test not found", "could not update test status")
	}
	return nil
}

func (s *CatalogService) DeleteTest(ctx context.Context, id uint) error {
	err := s.Catalog.Delete(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrTestInUse):
		return Conflict("Test has attempts and cannot be deleted, deactivate it instead")
	default:
		return notFoundOr(err, "IQ test not found", "could not delete test")
	}
}

// AdminTest is a test with its full questions and result statistics.
type AdminTest struct {
	TestSummary
	Questions    []models.Question      `json:"questions"`
	SessionCount int64                  `json:"session_count"`
	Statistics   *models.TestStatistics `json:"statistics"`
}

func (s *CatalogService) AdminTest(ctx context.Context, id uint) (*AdminTest, error) {
	test, err := s.Catalog.Find(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "IQ test not found", "could not load test")
	}
	questions, err := s.Catalog.Questions(ctx, id)
	if err != nil {
		return nil, Internal("could not load questions", err)
	}
	if questions == nil {
		questions = []models.Question{}
	}
	sessions, err := s.Sessions.CountByTest(ctx, id)
	if err != nil {
		return nil, Internal("could not count sessions", err)
	}
	stats, err := s.Results.StatisticsForTest(ctx, id)
	if err != nil {
		return nil, Internal("could not load statistics", err)
	}
	return &AdminTest{
		TestSummary:  newTestSummary(*test),
		Questions:    questions,
		SessionCount: sessions,
		Statistics:   stats,
	}, nil
}

type QuestionInput struct {
	QuestionText  string   `json:"question_text" validate:"required"`
	QuestionType  string   `json:"question_type"`
	Difficulty    string   `json:"difficulty"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correct_answer" validate:"omitempty,gte=0"`
	Explanation   *string  `json:"explanation"`
}

type AddQuestionsInput struct {
	Questions []QuestionInput `json:"questions" validate:"required,min=1,dive"`
}

// padOptions returns options extended with empty strings up to four entries.
func padOptions(options []string) models.OptionList {
	out := make(models.OptionList, 0, defaultOptionCount)
	out = append(out, options...)
	for len(out) < defaultOptionCount {
		out = append(out, "")
	}
	return out
}

func (in QuestionInput) question() (models.Question, error) {
	q := models.Question{
		QuestionText: strings.TrimSpace(in.QuestionText),
		QuestionType: strings.TrimSpace(in.QuestionType),
		Difficulty:   strings.TrimSpace(in.Difficulty),
		Options:      padOptions(in.Options),
		Explanation:  in.Explanation,
	}
	if q.QuestionText == "" {
		return q, Validation("Question text is required")
	}
	if q.QuestionType == "" {
		q.QuestionType = models.CategoryLogical
	}
	if q.Difficulty == "" {
		q.Difficulty = "medium"
	}
	if in.CorrectAnswer != nil {
		q.CorrectAnswer = *in.CorrectAnswer
	}
	if !q.ValidAnswerIndex() {
		return q, Validation("Correct answer must reference one of the options")
	}
	return q, nil
}

func (s *CatalogService) AddQuestions(ctx context.Context, testID uint, in AddQuestionsInput) ([]models.Question, error) {
	if len(in.Questions) == 0 {
		return nil, Validation("Questions array is required")
	}
	questions := make([]models.Question, 0, len(in.Questions))
	for _, qi := range in.Questions {
		q, err := qi.question()
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}

	created, err := s.Catalog.AddQuestions(ctx, testID, questions)
	if err != nil {
		return nil, notFoundOr(err, "IQ test not found", "could not add questions")
	}
	return created, nil
}

type QuestionPage struct {
	Questions []models.Question
	Total     int64
	Page      int
	Limit     int
}

func (s *CatalogService) Questions(ctx context.Context, testID uint, page, limit int) (*QuestionPage, error) {
	if _, err := s.Catalog.Find(ctx, testID); err != nil {
		return nil, notFoundOr(err, "IQ test not found", "could not load test")
	}
	page, limit = pageBounds(page, limit, 20, maxAdminPageSize)
	questions, total, err := s.Catalog.QuestionsPage(ctx, testID, limit, (page-1)*limit)
	if err != nil {
		return nil, Internal("could not load questions", err)
	}
	if questions == nil {
		questions = []models.Question{}
	}
	return &QuestionPage{Questions: questions, Total: total, Page: page, Limit: limit}, nil
}

type QuestionPatch struct {
	QuestionText  *string  `json:"question_text" validate:"omitempty,min=1"`
	QuestionType  *string  `json:"question_type" validate:"omitempty,min=1"`
	Difficulty    *string  `json:"difficulty"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correct_answer" validate:"omitempty,gte=0"`
	Explanation   *string  `json:"explanation"`
}

func (p QuestionPatch) empty() bool {
	return p.QuestionText == nil && p.QuestionType == nil && p.Difficulty == nil &&
		p.Options == nil && p.CorrectAnswer == nil && p.Explanation == nil
}

func (s *CatalogService) UpdateQuestion(ctx context.Context, id uint, patch QuestionPatch) (*models.Question, error) {
	if patch.empty() {
		return nil, Validation("No valid fields to update")
	}
	q, err := s.Catalog.FindQuestion(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Question not found", "could not load question")
	}

	if patch.QuestionText != nil {
		q.QuestionText = strings.TrimSpace(*patch.QuestionText)
		if q.QuestionText == "" {
			return nil, Validation("Question text is required")
		}
	}
	if patch.QuestionType != nil {
		q.QuestionType = *patch.QuestionType
	}
	if patch.Difficulty != nil {
		q.Difficulty = *patch.Difficulty
	}
	if patch.Options != nil {
		q.Options = padOptions(patch.Options)
	}
	if patch.CorrectAnswer != nil {
		q.CorrectAnswer = *patch.CorrectAnswer
	}
	if patch.Explanation != nil {
		q.Explanation = patch.Explanation
	}
	if !q.ValidAnswerIndex() {
		return nil, Validation("Correct answer must reference one of the options")
	}

	if err := s.Catalog.SaveQuestion(ctx, q); err != nil {
		return nil, Internal("could not update question", err)
	}
	return q, nil
}

func (s *CatalogService) DeleteQuestion(ctx context.Context, id uint) (*models.Question, error) {
	q, err := s.Catalog.DeleteQuestion(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Question not found", "could not delete question")
	}
	return q, nil
}

type CategoryPerformance struct {
	Category     string  `json:"category"`
	Correct      int     `json:"correct"`
	Total        int     `json:"total"`
	AccuracyRate float64 `json:"accuracy_rate"`
}

type TestStatisticsReport struct {
	Test                    TestSummary                `json:"test"`
	Basic                   *models.TestStatistics     `json:"basic_statistics"`
	PerformanceDistribution []models.PerformanceBucket `json:"performance_distribution"`
	CategoryPerformance     []CategoryPerformance      `json:"category_performance"`
	RecentAttempts          []models.AdminResult       `json:"recent_attempts"`
}

var levelOrder = []string{LevelExceptional, LevelExcellent, LevelAboveAverage, LevelAverage, LevelBelowAverage}

func levelRank(level string) int {
	for i, l := range levelOrder {
		if l == level {
			return i
		}
	}
	return len(levelOrder)
}

func (s *CatalogService) Statistics(ctx context.Context, testID uint) (*TestStatisticsReport, error) {
	test, err := s.Catalog.Find(ctx, testID)
	if err != nil {
		return nil, notFoundOr(err, "IQ test not found", "could not load test")
	}

	basic, err := s.Results.StatisticsForTest(ctx, testID)
	if err != nil {
		return nil, Internal("could not load statistics", err)
	}
	basic.AvgScore = roundPercentage(basic.AvgScore)
	basic.AvgIQScore = roundPercentage(basic.AvgIQScore)
	basic.AvgTimeTaken = math.Round(basic.AvgTimeTaken)

	buckets, err := s.Results.PerformanceDistribution(ctx, testID)
	if err != nil {
		return nil, Internal("could not load performance distribution", err)
	}
	var attempts int64
	for _, b := range buckets {
		attempts += b.Count
	}
	for i := range buckets {
		if attempts > 0 {
			buckets[i].Percentage = roundPercentage(float64(buckets[i].Count*100) / float64(attempts))
		}
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		return levelRank(buckets[i].PerformanceLevel) < levelRank(buckets[j].PerformanceLevel)
	})

	breakdowns, err := s.Results.CategoryBreakdowns(ctx, testID)
	if err != nil {
		return nil, Internal("could not load category scores", err)
	}

	recent, err := s.Results.RecentForTest(ctx, testID, statisticsRecentResults)
	if err != nil {
		return nil, Internal("could not load recent attempts", err)
	}

	return &TestStatisticsReport{
		Test:                    newTestSummary(*test),
		Basic:                   basic,
		PerformanceDistribution: buckets,
		CategoryPerformance:     aggregateCategories(breakdowns),
		RecentAttempts:          recent,
	}, nil
}

// aggregateCategories sums per-result category breakdowns. Categories are
// ordered by name.
func aggregateCategories(breakdowns []models.CategoryBreakdown) []CategoryPerformance {
	totals := map[string]*CategoryPerformance{}
	for _, b := range breakdowns {
		for name, score := range b {
			cp, ok := totals[name]
			if !ok {
				cp = &CategoryPerformance{Category: name}
				totals[name] = cp
			}
			cp.Correct += score.Correct
			cp.Total += score.Total
		}
	}

	out := make([]CategoryPerformance, 0, len(totals))
	for _, cp := range totals {
		if cp.Total > 0 {
			cp.AccuracyRate = roundPercentage(float64(cp.Correct*100) / float64(cp.Total))
		}
		out = append(out, *cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// RecentResults lists the latest results across all users. A limit of 0
// selects the default; larger limits are capped.
func (s *CatalogService) RecentResults(ctx context.Context, limit int) ([]models.AdminResult, error) {
	if limit < 0 {
		return nil, Validation("limit must not be negative")
	}
	if limit == 0 {
		limit = defaultRecentResults
	}
	if limit > maxRecentResults {
		limit = maxRecentResults
	}
	results, err := s.Results.ListRecent(ctx, limit)
	if err != nil {
		return nil, Internal("could not load results", err)
	}
	return results, nil
}
