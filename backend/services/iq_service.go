package services

import (
	"context"
	"errors"
	"log"
	"time"

	"eduhub/backend/config"
	"eduhub/backend/events"
	"eduhub/backend/models"
	"eduhub/backend/repository"
	"eduhub/backend/utils"

	"gorm.io/gorm"
)

// Absent rows are reported as gorm.ErrRecordNotFound by every store.

type UserStore interface {
	Exists(ctx context.Context, id uint) (bool, error)
}

type TestCatalog interface {
	FindActive(ctx context.Context, id uint) (*models.Test, error)
	Find(ctx context.Context, id uint) (*models.Test, error)
	Questions(ctx context.Context, testID uint) ([]models.Question, error)
}

type SessionStore interface {
	FindOpen(ctx context.Context, userID, testID uint) (*models.Session, error)
	Create(ctx context.Context, s *models.Session) error
	FindByToken(ctx context.Context, token string) (*models.Session, error)
	SaveAnswer(ctx context.Context, token string, questionID uint, selected, timeSpent int) error
	Finalize(ctx context.Context, s *models.Session, result *models.Result) error
}

type ResultStore interface {
	FindByID(ctx context.Context, id uint) (*models.ResultWithTest, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.ResultWithTest, int64, error)
}

const defaultHistoryLimit = 10

// IQService runs the test-taking flow: start or resume a session, serve its
// questions, record answers and score the submission.
type IQService struct {
	Users    UserStore
	Catalog  TestCatalog
	Sessions SessionStore
	Results  ResultStore
	Events   events.Publisher
	Cfg      *config.Config
	Logger   *log.Logger

	now      func() time.Time
	newToken func() (string, error)
}

func NewIQService(users UserStore, catalog TestCatalog, sessions SessionStore, results ResultStore,
	publisher events.Publisher, cfg *config.Config, logger *log.Logger) *IQService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &IQService{
		Users:    users,
		Catalog:  catalog,
		Sessions: sessions,
		Results:  results,
		Events:   publisher,
		Cfg:      cfg,
		Logger:   logger,
		now:      time.Now,
		newToken: utils.NewSessionToken,
	}
}

type StartedSession struct {
	SessionToken string `json:"sessionToken"`
	SessionID    uint   `json:"sessionId"`
	Resumed      bool   `json:"resumed"`
}

// QuestionView is a question as shown to a test taker. It never carries the
// correct answer or the explanation.
type QuestionView struct {
	ID             uint              `json:"id"`
	QuestionNumber int               `json:"question_number"`
	QuestionText   string            `json:"question_text"`
	QuestionType   string            `json:"question_type"`
	Difficulty     string            `json:"difficulty"`
	Options        models.OptionList `json:"options"`
}

func newQuestionViews(questions []models.Question) []QuestionView {
	views := make([]QuestionView, 0, len(questions))
	for _, q := range questions {
		options := q.Options
		if options == nil {
			options = models.OptionList{}
		}
		views = append(views, QuestionView{
			ID:             q.ID,
			QuestionNumber: q.QuestionNumber,
			QuestionText:   q.QuestionText,
			QuestionType:   q.QuestionType,
			Difficulty:     q.Difficulty,
			Options:        options,
		})
	}
	return views
}

type SessionQuestions struct {
	SessionID      uint             `json:"sessionId"`
	TestID         uint             `json:"testId"`
	TestTitle      string           `json:"testTitle"`
	TotalQuestions int              `json:"totalQuestions"`
	TimeLimit      int              `json:"timeLimit"`
	TimeSpent      int              `json:"timeSpent"`
	IsCompleted    bool             `json:"isCompleted"`
	Questions      []QuestionView   `json:"questions"`
	Answers        models.AnswerMap `json:"answers"`
}

type Summary struct {
	Score            int     `json:"score"`
	MaxScore         int     `json:"maxScore"`
	CorrectAnswers   int     `json:"correctAnswers"`
	TotalQuestions   int     `json:"totalQuestions"`
	WrongAnswers     int     `json:"wrongAnswers"`
	Unanswered       int     `json:"unanswered"`
	Percentage       float64 `json:"percentage"`
	IQScore          int     `json:"iqScore"`
	PerformanceLevel string  `json:"performanceLevel"`
	TimeTaken        int     `json:"timeTaken"`
}

type Submission struct {
	Result  *models.Result `json:"result"`
	Summary Summary        `json:"summary"`
}

type History struct {
	Results []models.ResultWithTest `json:"results"`
	Total   int64                   `json:"total"`
	Limit   int                     `json:"limit"`
	Offset  int                     `json:"offset"`
}

// StartSession returns the user's open session for the test, or creates one.
func (s *IQService) StartSession(ctx context.Context, userID, testID uint) (*StartedSession, error) {
	if userID == 0 || testID == 0 {
		return nil, Validation("User ID and Test ID are required")
	}

	exists, err := s.Users.Exists(ctx, userID)
	if err != nil {
		return nil, Internal("could not look up user", err)
	}
	if !exists {
		return nil, NotFound("User not found")
	}

	if _, err := s.Catalog.FindActive(ctx, testID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("IQ test not found")
		}
		return nil, Internal("could not look up test", err)
	}

	open, err := s.Sessions.FindOpen(ctx, userID, testID)
	switch {
	case err == nil:
		return &StartedSession{SessionToken: open.SessionToken, SessionID: open.ID, Resumed: true}, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, Internal("could not look up open session", err)
	}

	token, err := s.newToken()
	if err != nil {
		return nil, Internal("could not generate session token", err)
	}

	session := &models.Session{
		UserID:       userID,
		TestID:       testID,
		SessionToken: token,
		StartTime:    s.now(),
		Answers:      models.AnswerMap{},
	}
	if err := s.Sessions.Create(ctx, session); err != nil {
		// A concurrent start may have won the open-session index.
		open, findErr := s.Sessions.FindOpen(ctx, userID, testID)
		if findErr == nil {
			s.Logger.Printf("start session: user %d test %d resumed after concurrent create: %v", userID, testID, err)
			return &StartedSession{SessionToken: open.SessionToken, SessionID: open.ID, Resumed: true}, nil
		}
		return nil, Internal("could not create session", err)
	}

	return &StartedSession{SessionToken: session.SessionToken, SessionID: session.ID}, nil
}

func (s *IQService) findSession(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, Validation("Session token is required")
	}
	session, err := s.Sessions.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Session not found")
		}
		return nil, Internal("could not load session", err)
	}
	return session, nil
}

// GetSessionQuestions returns the questions of the session's test together
// with the answers saved so far. Completed sessions can be read for review.
func (s *IQService) GetSessionQuestions(ctx context.Context, token string) (*SessionQuestions, error) {
	session, err := s.findSession(ctx, token)
	if err != nil {
		return nil, err
	}

	test, err := s.Catalog.Find(ctx, session.TestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("IQ test not found")
		}
		return nil, Internal("could not load test", err)
	}

	questions, err := s.Catalog.Questions(ctx, session.TestID)
	if err != nil {
		return nil, Internal("could not load questions", err)
	}

	answers := session.Answers
	if answers == nil {
		answers = models.AnswerMap{}
	}

	return &SessionQuestions{
		SessionID:      session.ID,
		TestID:         test.ID,
		TestTitle:      test.Title,
		TotalQuestions: test.TotalQuestions,
		TimeLimit:      test.TimeLimit,
		TimeSpent:      session.TimeSpent,
		IsCompleted:    session.IsCompleted,
		Questions:      newQuestionViews(questions),
		Answers:        answers,
	}, nil
}

type SaveAnswerInput struct {
	QuestionID     uint `json:"questionId" validate:"required,gt=0"`
	SelectedOption *int `json:"selectedOption" validate:"required,gte=0"`
	TimeSpent      int  `json:"timeSpent" validate:"gte=0"`
}

// SaveAnswer records the selected option for one question. Answers to a
// completed session are rejected.
func (s *IQService) SaveAnswer(ctx context.Context, token string, in SaveAnswerInput) error {
	if token == "" {
		return Validation("Session token is required")
	}
	if in.QuestionID == 0 || in.SelectedOption == nil {
		return Validation("Question ID and selected option are required")
	}

	err := s.Sessions.SaveAnswer(ctx, token, in.QuestionID, *in.SelectedOption, in.TimeSpent)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound("Session not found")
	case errors.Is(err, repository.ErrSessionClosed):
		return Conflict("Session already submitted")
	case errors.Is(err, repository.ErrAnswerContention):
		return Conflict("Answer was modified concurrently, retry")
	default:
		return Internal("could not save answer", err)
	}
}

// SubmitTest scores an open session, completes it and stores its result.
// A session can be submitted once; later attempts find no open session.
func (s *IQService) SubmitTest(ctx context.Context, token string, timeSpent int) (*Submission, error) {
	if timeSpent < 0 {
		return nil, Validation("timeSpent must be at least 0")
	}

	session, err := s.findSession(ctx, token)
	if err != nil {
		if KindOf(err) == KindNotFound {
			return nil, NotFound("Active session not found")
		}
		return nil, err
	}
	if session.IsCompleted {
		return nil, NotFound("Active session not found")
	}

	test, err := s.Catalog.Find(ctx, session.TestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("IQ test not found")
		}
		return nil, Internal("could not load test", err)
	}
	if s.Cfg != nil && s.Cfg.EnforceTimeLimit {
		limit := time.Duration(test.TimeLimit)*time.Second + s.Cfg.TimeLimitGrace
		if time.Duration(timeSpent)*time.Second > limit {
			return nil, Validation("Reported time exceeds the test time limit")
		}
	}

	questions, err := s.Catalog.Questions(ctx, session.TestID)
	if err != nil {
		return nil, Internal("could not load questions", err)
	}

	score := ScoreAnswers(questions, session.Answers, test.PointsPerQuestion)

	end := s.now()
	session.EndTime = &end
	session.TimeSpent = timeSpent
	session.TotalScore = score.TotalScore
	session.CorrectAnswers = score.CorrectAnswers
	session.WrongAnswers = score.WrongAnswers
	session.Unanswered = score.Unanswered

	result := &models.Result{
		UserID:           session.UserID,
		TestID:           session.TestID,
		TotalScore:       score.TotalScore,
		MaxScore:         score.MaxScore,
		IQScore:          score.IQScore,
		PerformanceLevel: score.PerformanceLevel,
		Percentage:       score.Percentage,
		CategoryScores:   score.Categories,
		TimeTaken:        timeSpent,
	}

	if err := s.Sessions.Finalize(ctx, session, result); err != nil {
		if errors.Is(err, repository.ErrSessionClosed) {
			return nil, NotFound("Active session not found")
		}
		return nil, Internal("could not store result", err)
	}

	s.publishResult(result)

	return &Submission{
		Result: result,
		Summary: Summary{
			Score:            score.TotalScore,
			MaxScore:         score.MaxScore,
			CorrectAnswers:   score.CorrectAnswers,
			TotalQuestions:   score.QuestionCount,
			WrongAnswers:     score.WrongAnswers,
			Unanswered:       score.Unanswered,
			Percentage:       roundPercentage(score.Percentage),
			IQScore:          score.IQScore,
			PerformanceLevel: score.PerformanceLevel,
			TimeTaken:        timeSpent,
		},
	}, nil
}

func (s *IQService) publishResult(result *models.Result) {
	err := s.Events.Publish(events.ResultCreated, events.ResultCreatedPayload{
		ResultID:         result.ID,
		SessionID:        result.SessionID,
		UserID:           result.UserID,
		TestID:           result.TestID,
		IQScore:          result.IQScore,
		PerformanceLevel: result.PerformanceLevel,
	})
	if err != nil {
		s.Logger.Printf("publish %s for result %d: %v", events.ResultCreated, result.ID, err)
	}
}

func (s *IQService) GetTestResult(ctx context.Context, resultID uint) (*models.ResultWithTest, error) {
	if resultID == 0 {
		return nil, Validation("Result ID is required")
	}
	result, err := s.Results.FindByID(ctx, resultID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Result not found")
		}
		return nil, Internal("could not load result", err)
	}
	return result, nil
}

// GetUserHistory pages through a user's results, newest first. A limit of 0
// selects the default page size; larger limits are capped.
func (s *IQService) GetUserHistory(ctx context.Context, userID uint, limit, offset int) (*History, error) {
	if userID == 0 {
		return nil, Validation("User ID is required")
	}
	if limit < 0 || offset < 0 {
		return nil, Validation("limit and offset must not be negative")
	}
	if limit == 0 {
		limit = defaultHistoryLimit
	}
	if s.Cfg != nil && s.Cfg.HistoryMaxLimit > 0 && limit > s.Cfg.HistoryMaxLimit {
		limit = s.Cfg.HistoryMaxLimit
	}

	results, total, err := s.Results.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, Internal("could not load history", err)
	}
	if results == nil {
		results = []models.ResultWithTest{}
	}
	return &History{Results: results, Total: total, Limit: limit, Offset: offset}, nil
}
