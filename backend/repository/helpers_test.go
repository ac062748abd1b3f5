package repository

import (
	"context"
	"testing"

	"eduhub/backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database with the schema applied.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name, role string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", Role: role}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedTest(t *testing.T, db *gorm.DB, title string, active bool, questions int) *models.Test {
	t.Helper()
	test := &models.Test{Title: title, TimeLimit: 600, PointsPerQuestion: 1, IsActive: active}
	require.NoError(t, db.Create(test).Error)

	if questions > 0 {
		qs := make([]models.Question, 0, questions)
		for i := 0; i < questions; i++ {
			qs = append(qs, models.Question{
				QuestionText:  title + " question",
				QuestionType:  models.CategoryLogical,
				Options:       models.OptionList{"a", "b", "c", "d"},
				CorrectAnswer: i % 4,
			})
		}
		_, err := NewCatalogRepository(db).AddQuestions(context.Background(), test.ID, qs)
		require.NoError(t, err)
	}
	return test
}
