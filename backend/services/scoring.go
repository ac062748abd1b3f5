package services

import (
	"math"

	"eduhub/backend/models"
)

// Performance levels, highest first.
const (
	LevelExceptional  = "Exceptional"
	LevelExcellent    = "Excellent"
	LevelAboveAverage = "Above Average"
	LevelAverage      = "Average"
	LevelBelowAverage = "Below Average"
)

// IQ band the percentage is mapped onto.
const (
	iqBase  = 85
	iqRange = 40
)

// Score is the outcome of grading one session.
type Score struct {
	QuestionCount    int
	TotalScore       int
	MaxScore         int
	CorrectAnswers   int
	WrongAnswers     int
	Unanswered       int
	Percentage       float64
	IQScore          int
	PerformanceLevel string
	Categories       models.CategoryBreakdown
}

// ScoreAnswers grades answers against every question of a test. The question
// rows are the ground truth: answers for question ids outside the test are
// ignored and the declared total of the test is not used.
//
// Negative marking is not applied.
func ScoreAnswers(questions []models.Question, answers models.AnswerMap, pointsPerQuestion int) Score {
	s := Score{
		QuestionCount: len(questions),
		Unanswered:    len(questions),
		Categories:    make(models.CategoryBreakdown, len(models.DefaultCategories)),
	}
	for _, name := range models.DefaultCategories {
		s.Categories[name] = models.CategoryScore{}
	}

	for _, q := range questions {
		cat := s.Categories[q.QuestionType]
		cat.Total++

		if selected, ok := answers[q.ID]; ok {
			s.Unanswered--
			if selected == q.CorrectAnswer {
				s.CorrectAnswers++
				cat.Correct++
			} else {
				s.WrongAnswers++
			}
		}
		s.Categories[q.QuestionType] = cat
	}

	s.TotalScore = s.CorrectAnswers * pointsPerQuestion
	s.MaxScore = len(questions) * pointsPerQuestion
	if s.MaxScore > 0 {
		s.Percentage = float64(s.TotalScore*100) / float64(s.MaxScore)
	}
	s.IQScore = IQScore(s.Percentage)
	s.PerformanceLevel = PerformanceLevel(s.Percentage)
	return s
}

// IQScore maps a 0-100 percentage linearly onto the 85-125 band, rounding
// down. The epsilon absorbs binary representation error on exact boundaries.
func IQScore(percentage float64) int {
	return int(math.Floor(iqBase + percentage*iqRange/100 + 1e-9))
}

// PerformanceLevel buckets a percentage. Lower bounds are inclusive.
func PerformanceLevel(percentage float64) string {
	switch {
	case percentage >= 90:
		return LevelExceptional
	case percentage >= 75:
		return LevelExcellent
	case percentage >= 60:
		return LevelAboveAverage
	case percentage >= 40:
		return LevelAverage
	default:
		return LevelBelowAverage
	}
}

func roundPercentage(p float64) float64 {
	return math.Round(p*100) / 100
}
