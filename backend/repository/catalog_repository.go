package repository

import (
	"context"
	"errors"

	"eduhub/backend/models"

	"gorm.io/gorm"
)

// ErrTestInUse is returned when deleting a test that sessions still reference.
var ErrTestInUse = errors.New("test is referenced by sessions")

type CatalogRepository struct {
	DB *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{DB: db}
}

// TestFilter narrows the admin listing. Status is "all", "active" or "inactive".
type TestFilter struct {
	Search string
	Status string
	Limit  int
	Offset int
}

func (r *CatalogRepository) ListActive(ctx context.Context) ([]models.Test, error) {
	var tests []models.Test
	err := r.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&tests).Error
	return tests, err
}

func (r *CatalogRepository) ListActiveSimple(ctx context.Context) ([]models.TestOption, error) {
	tests := []models.TestOption{}
	err := r.DB.WithContext(ctx).
		Model(&models.Test{}).
		Select("id", "title", "total_questions", "time_limit").
		Where("is_active = ?", true).
		Order("title ASC").
		Scan(&tests).Error
	return tests, err
}

func (r *CatalogRepository) FindActive(ctx context.Context, id uint) (*models.Test, error) {
	var test models.Test
	if err := r.DB.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&test).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *CatalogRepository) Find(ctx context.Context, id uint) (*models.Test, error) {
	var test models.Test
	if err := r.DB.WithContext(ctx).First(&test, id).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

// Questions returns every question of a test in display order.
func (r *CatalogRepository) Questions(ctx context.Context, testID uint) ([]models.Question, error) {
	var questions []models.Question
	err := r.DB.WithContext(ctx).
		Where("test_id = ?", testID).
		Order("question_number ASC").
		Find(&questions).Error
	return questions, err
}

func (r *CatalogRepository) QuestionsPage(ctx context.Context, testID uint, limit, offset int) ([]models.Question, int64, error) {
	base := r.DB.WithContext(ctx).Model(&models.Question{}).Where("test_id = ?", testID).Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var questions []models.Question
	err := base.Order("question_number ASC").Limit(limit).Offset(offset).Find(&questions).Error
	return questions, total, err
}

func (r *CatalogRepository) ListAdmin(ctx context.Context, f TestFilter) ([]models.TestListItem, int64, error) {
	base := r.DB.WithContext(ctx).Model(&models.Test{})
	if f.Search != "" {
		like := "%" + f.Search + "%"
		base = base.Where("title LIKE ? OR description LIKE ?", like, like)
	}
	switch f.Status {
	case "active":
		base = base.Where("is_active = ?", true)
	case "inactive":
		base = base.Where("is_active = ?", false)
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.TestListItem
	err := base.
		Select(`iq_tests.*,
			(SELECT COUNT(*) FROM iq_questions WHERE iq_questions.test_id = iq_tests.id AND iq_questions.deleted_at IS NULL) AS question_count,
			(SELECT COUNT(*) FROM iq_results WHERE iq_results.test_id = iq_tests.id AND iq_results.deleted_at IS NULL) AS attempt_count`).
		Order("iq_tests.created_at DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Scan(&items).Error
	return items, total, err
}

func (r *CatalogRepository) Create(ctx context.Context, test *models.Test) error {
	return r.DB.WithContext(ctx).Create(test).Error
}

// Update applies column updates. Callers build updates from a fixed set of
// column names, never from request keys.
func (r *CatalogRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) error {
	res := r.DB.WithContext(ctx).Model(&models.Test{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CatalogRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return r.Update(ctx, id, map[string]interface{}{"is_active": active})
}

// Delete removes a test and its questions. Tests with sessions are kept so
// results stay resolvable; deactivate those instead.
func (r *CatalogRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sessions int64
		if err := tx.Model(&models.Session{}).Where("test_id = ?", id).Count(&sessions).Error; err != nil {
			return err
		}
		if sessions > 0 {
			return ErrTestInUse
		}
		if err := tx.Unscoped().Where("test_id = ?", id).Delete(&models.Question{}).Error; err != nil {
			return err
		}
		res := tx.Unscoped().Delete(&models.Test{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// AddQuestions appends questions after the current last question number.
// Either all questions are stored or none.
func (r *CatalogRepository) AddQuestions(ctx context.Context, testID uint, questions []models.Question) ([]models.Question, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var test models.Test
		if err := tx.Select("id").First(&test, testID).Error; err != nil {
			return err
		}

		var last int
		if err := tx.Model(&models.Question{}).
			Where("test_id = ?", testID).
			Select("COALESCE(MAX(question_number), 0)").
			Scan(&last).Error; err != nil {
			return err
		}

		for i := range questions {
			questions[i].TestID = testID
			questions[i].QuestionNumber = last + i + 1
		}
		return tx.Create(&questions).Error
	})
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *CatalogRepository) FindQuestion(ctx context.Context, id uint) (*models.Question, error) {
	var q models.Question
	if err := r.DB.WithContext(ctx).First(&q, id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *CatalogRepository) SaveQuestion(ctx context.Context, q *models.Question) error {
	return r.DB.WithContext(ctx).Save(q).Error
}

// DeleteQuestion removes a question and closes the gap in numbering. The
// renumbering goes through negative values so the (test_id, question_number)
// unique index never sees a transient duplicate.
func (r *CatalogRepository) DeleteQuestion(ctx context.Context, id uint) (*models.Question, error) {
	var deleted models.Question
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&deleted, id).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Delete(&models.Question{}, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Question{}).
			Where("test_id = ? AND question_number > ?", deleted.TestID, deleted.QuestionNumber).
			Update("question_number", gorm.Expr("-(question_number - 1)")).Error; err != nil {
			return err
		}
		return tx.Model(&models.Question{}).
			Where("test_id = ? AND question_number < 0", deleted.TestID).
			Update("question_number", gorm.Expr("-question_number")).Error
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}
