package repository

import (
	"context"
	"errors"

	"eduhub/backend/models"

	"gorm.io/gorm"
)

var (
	// ErrSessionClosed is returned by writes against a completed session.
	ErrSessionClosed = errors.New("session already completed")
	// ErrAnswerContention is returned when concurrent answer writes kept
	// invalidating each other.
	ErrAnswerContention = errors.New("too many concurrent answer writes")
)

const saveAnswerAttempts = 5

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

// FindOpen returns the incomplete session of a user for a test.
func (r *SessionRepository) FindOpen(ctx context.Context, userID, testID uint) (*models.Session, error) {
	var s models.Session
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND test_id = ? AND is_completed = ?", userID, testID, false).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a new session. A second open session for the same user and
// test violates idx_iq_sessions_open.
func (r *SessionRepository) Create(ctx context.Context, s *models.Session) error {
	if s.Answers == nil {
		s.Answers = models.AnswerMap{}
	}
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *SessionRepository) FindByToken(ctx context.Context, token string) (*models.Session, error) {
	var s models.Session
	if err := r.DB.WithContext(ctx).Where("session_token = ?", token).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveAnswer records one answer and overwrites the elapsed time. The write is
// guarded by answers_version so concurrent saves for different questions do
// not drop each other; the last write for the same question wins.
func (r *SessionRepository) SaveAnswer(ctx context.Context, token string, questionID uint, selected, timeSpent int) error {
	db := r.DB.WithContext(ctx)
	for attempt := 0; attempt < saveAnswerAttempts; attempt++ {
		var s models.Session
		if err := db.Where("session_token = ?", token).First(&s).Error; err != nil {
			return err
		}
		if s.IsCompleted {
			return ErrSessionClosed
		}

		answers := make(models.AnswerMap, len(s.Answers)+1)
		for qid, opt := range s.Answers {
			answers[qid] = opt
		}
		answers[questionID] = selected

		res := db.Model(&models.Session{}).
			Where("id = ? AND answers_version = ? AND is_completed = ?", s.ID, s.AnswersVersion, false).
			Updates(map[string]interface{}{
				"answers":         answers,
				"time_spent":      timeSpent,
				"answers_version": gorm.Expr("answers_version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			return nil
		}
	}
	return ErrAnswerContention
}

// Finalize marks the session completed and stores its result in a single
// transaction. Only one caller can complete a session; the others get
// ErrSessionClosed and nothing is written.
func (r *SessionRepository) Finalize(ctx context.Context, s *models.Session, result *models.Result) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Session{}).
			Where("id = ? AND is_completed = ?", s.ID, false).
			Updates(map[string]interface{}{
				"is_completed":    true,
				"end_time":        s.EndTime,
				"time_spent":      s.TimeSpent,
				"total_score":     s.TotalScore,
				"correct_answers": s.CorrectAnswers,
				"wrong_answers":   s.WrongAnswers,
				"unanswered":      s.Unanswered,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSessionClosed
		}

		result.SessionID = s.ID
		return tx.Create(result).Error
	})
	if err != nil {
		return err
	}
	s.IsCompleted = true
	return nil
}

func (r *SessionRepository) CountByTest(ctx context.Context, testID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Session{}).Where("test_id = ?", testID).Count(&count).Error
	return count, err
}
