package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"eduhub/backend/models"
	"eduhub/backend/repository"

	"gorm.io/gorm"
)

type fakeUsers map[uint]bool

func (f fakeUsers) Exists(_ context.Context, id uint) (bool, error) {
	return f[id], nil
}

type fakeCatalog struct {
	tests     map[uint]*models.Test
	questions map[uint][]models.Question
}

func (f *fakeCatalog) FindActive(ctx context.Context, id uint) (*models.Test, error) {
	t, err := f.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (f *fakeCatalog) Find(_ context.Context, id uint) (*models.Test, error) {
	t, ok := f.tests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeCatalog) Questions(_ context.Context, testID uint) ([]models.Question, error) {
	return f.questions[testID], nil
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions []*models.Session
	results  []*models.Result
	// onCreate runs before a session is stored; a non-nil error aborts the
	// insert.
	onCreate func(f *fakeSessions, s *models.Session) error
}

func copySession(s *models.Session) *models.Session {
	cp := *s
	cp.Answers = make(models.AnswerMap, len(s.Answers))
	for k, v := range s.Answers {
		cp.Answers[k] = v
	}
	return &cp
}

func (f *fakeSessions) insert(s *models.Session) {
	s.ID = uint(len(f.sessions) + 1)
	f.sessions = append(f.sessions, copySession(s))
}

func (f *fakeSessions) FindOpen(_ context.Context, userID, testID uint) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.UserID == userID && s.TestID == testID && !s.IsCompleted {
			return copySession(s), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSessions) Create(_ context.Context, s *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onCreate != nil {
		if err := f.onCreate(f, s); err != nil {
			return err
		}
	}
	f.insert(s)
	return nil
}

func (f *fakeSessions) byToken(token string) *models.Session {
	for _, s := range f.sessions {
		if s.SessionToken == token {
			return s
		}
	}
	return nil
}

func (f *fakeSessions) FindByToken(_ context.Context, token string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.byToken(token)
	if s == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return copySession(s), nil
}

func (f *fakeSessions) SaveAnswer(_ context.Context, token string, questionID uint, selected, timeSpent int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.byToken(token)
	if s == nil {
		return gorm.ErrRecordNotFound
	}
	if s.IsCompleted {
		return repository.ErrSessionClosed
	}
	s.Answers[questionID] = selected
	s.TimeSpent = timeSpent
	return nil
}

func (f *fakeSessions) Finalize(_ context.Context, s *models.Session, result *models.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.byToken(s.SessionToken)
	if stored == nil || stored.IsCompleted {
		return repository.ErrSessionClosed
	}
	stored.IsCompleted = true
	stored.EndTime = s.EndTime
	stored.TimeSpent = s.TimeSpent
	stored.TotalScore = s.TotalScore

	result.SessionID = s.ID
	result.ID = uint(len(f.results) + 1)
	f.results = append(f.results, result)
	s.IsCompleted = true
	return nil
}

type fakeResults struct {
	rows []models.ResultWithTest
	err  error
}

func (f *fakeResults) FindByID(_ context.Context, id uint) (*models.ResultWithTest, error) {
	for _, r := range f.rows {
		if r.ID == id {
			cp := r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeResults) ListByUser(_ context.Context, userID uint, limit, offset int) ([]models.ResultWithTest, int64, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	var mine []models.ResultWithTest
	for _, r := range f.rows {
		if r.UserID == userID {
			mine = append(mine, r)
		}
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].ID > mine[j].ID })
	total := int64(len(mine))
	if offset >= len(mine) {
		return nil, total, nil
	}
	mine = mine[offset:]
	if len(mine) > limit {
		mine = mine[:limit]
	}
	return mine, total, nil
}

type publishedEvent struct {
	eventType string
	payload   interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(eventType string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{eventType: eventType, payload: payload})
	return nil
}

func (p *recordingPublisher) Close() {}

var errStore = errors.New("store unavailable")
