package models

import (
	"time"

	"gorm.io/gorm"
)

// Default question categories. Tests may use others.
const (
	CategoryNumerical = "numerical"
	CategoryVerbal    = "verbal"
	CategoryLogical   = "logical"
	CategorySpatial   = "spatial"
)

var DefaultCategories = []string{CategoryNumerical, CategoryVerbal, CategoryLogical, CategorySpatial}

type Test struct {
	gorm.Model
	Title             string     `gorm:"not null" json:"title"`
	Description       string     `json:"description"`
	Instructions      string     `json:"instructions"`
	TotalQuestions    int        `gorm:"not null;default:10" json:"total_questions"`
	TimeLimit         int        `gorm:"not null" json:"time_limit"` // seconds
	PointsPerQuestion int        `gorm:"not null;default:1" json:"points_per_question"`
	NegativeMarking   bool       `json:"negative_marking"`
	DifficultyLevel   string     `gorm:"default:medium" json:"difficulty_level"`
	IsActive          bool       `gorm:"index" json:"is_active"`
	CreatedBy         uint       `json:"created_by"`
	Questions         []Question `gorm:"constraint:OnDelete:CASCADE;foreignKey:TestID" json:"questions,omitempty"`
}

func (Test) TableName() string { return "iq_tests" }

type Question struct {
	gorm.Model
	TestID         uint       `gorm:"not null;uniqueIndex:idx_iq_question_number" json:"test_id"`
	QuestionNumber int        `gorm:"not null;uniqueIndex:idx_iq_question_number" json:"question_number"`
	QuestionText   string     `gorm:"type:text;not null" json:"question_text"`
	QuestionType   string     `gorm:"not null;default:logical" json:"question_type"`
	Difficulty     string     `gorm:"default:medium" json:"difficulty"`
	Options        OptionList `gorm:"type:text" json:"options"`
	CorrectAnswer  int        `gorm:"not null" json:"correct_answer"`
	Explanation    *string    `gorm:"type:text" json:"explanation"`
}

func (Question) TableName() string { return "iq_questions" }

// ValidAnswerIndex reports whether CorrectAnswer points at an existing option.
func (q Question) ValidAnswerIndex() bool {
	return q.CorrectAnswer >= 0 && q.CorrectAnswer < len(q.Options)
}

// Session is one attempt of a user at a test. At most one incomplete session
// exists per (user, test); this is enforced by a partial unique index.
type Session struct {
	gorm.Model
	UserID         uint       `gorm:"not null;index" json:"user_id"`
	TestID         uint       `gorm:"not null;index" json:"test_id"`
	SessionToken   string     `gorm:"size:64;not null;uniqueIndex" json:"session_token"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time"`
	TimeSpent      int        `gorm:"not null;default:0" json:"time_spent"`
	Answers        AnswerMap  `gorm:"type:text" json:"answers"`
	AnswersVersion int        `gorm:"not null;default:0" json:"-"`
	IsCompleted    bool       `gorm:"not null;index" json:"is_completed"`
	TotalScore     int        `json:"total_score"`
	CorrectAnswers int        `json:"correct_answers"`
	WrongAnswers   int        `json:"wrong_answers"`
	Unanswered     int        `json:"unanswered"`
}

func (Session) TableName() string { return "iq_test_sessions" }

type Result struct {
	gorm.Model
	SessionID        uint              `gorm:"not null;uniqueIndex" json:"session_id"`
	UserID           uint              `gorm:"not null;index" json:"user_id"`
	TestID           uint              `gorm:"not null;index" json:"test_id"`
	TotalScore       int               `json:"total_score"`
	MaxScore         int               `json:"max_score"`
	IQScore          int               `gorm:"column:iq_score" json:"iq_score"`
	PerformanceLevel string            `gorm:"size:32" json:"performance_level"`
	Percentage       float64           `json:"percentage"`
	CategoryScores   CategoryBreakdown `gorm:"type:text" json:"category_scores"`
	TimeTaken        int               `json:"time_taken"`
}

func (Result) TableName() string { return "iq_results" }

// ResultWithTest is a Result joined with its test title.
type ResultWithTest struct {
	Result
	TestTitle string `json:"test_title"`
}

// AdminResult is a Result row joined with test title and user identity.
type AdminResult struct {
	ID               uint      `json:"id"`
	TotalScore       int       `json:"total_score"`
	MaxScore         int       `json:"max_score"`
	IQScore          int       `gorm:"column:iq_score" json:"iq_score"`
	PerformanceLevel string    `json:"performance_level"`
	TimeTaken        int       `json:"time_taken"`
	CreatedAt        time.Time `json:"created_at"`
	TestTitle        string    `json:"test_title"`
	UserName         string    `json:"user_name"`
	UserEmail        string    `json:"user_email"`
}

// TestOption is the short form of a test used by pickers.
type TestOption struct {
	ID             uint   `json:"id"`
	Title          string `json:"title"`
	TotalQuestions int    `json:"total_questions"`
	TimeLimit      int    `json:"time_limit"`
}

// TestListItem is an admin listing row.
type TestListItem struct {
	Test
	QuestionCount int64 `json:"question_count"`
	AttemptCount  int64 `json:"attempt_count"`
}

// TestStatistics aggregates the results of one test.
type TestStatistics struct {
	TotalUsers    int64   `gorm:"column:total_users" json:"total_users"`
	TotalAttempts int64   `gorm:"column:total_attempts" json:"total_attempts"`
	AvgScore      float64 `gorm:"column:avg_score" json:"avg_score"`
	AvgIQScore    float64 `gorm:"column:avg_iq_score" json:"avg_iq_score"`
	HighestScore  int     `gorm:"column:highest_score" json:"highest_score"`
	LowestScore   int     `gorm:"column:lowest_score" json:"lowest_score"`
	AvgTimeTaken  float64 `gorm:"column:avg_time_taken" json:"avg_time_taken"`
}

// PerformanceBucket counts results at one performance level.
type PerformanceBucket struct {
	PerformanceLevel string  `json:"performance_level"`
	Count            int64   `json:"count"`
	Percentage       float64 `gorm:"-" json:"percentage"`
}
