package repository

import (
	"context"

	"eduhub/backend/models"

	"gorm.io/gorm"
)

type ResultRepository struct {
	DB *gorm.DB
}

func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{DB: db}
}

func (r *ResultRepository) withTest(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).
		Model(&models.Result{}).
		Select("iq_results.*, iq_tests.title AS test_title").
		Joins("JOIN iq_tests ON iq_tests.id = iq_results.test_id")
}

func (r *ResultRepository) FindByID(ctx context.Context, id uint) (*models.ResultWithTest, error) {
	var row models.ResultWithTest
	if err := r.withTest(ctx).Where("iq_results.id = ?", id).Take(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListByUser returns a page of a user's results, newest first, and the total
// number of results the user has.
func (r *ResultRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.ResultWithTest, int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Result{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := []models.ResultWithTest{}
	err := r.withTest(ctx).
		Where("iq_results.user_id = ?", userID).
		Order("iq_results.created_at DESC").
		Order("iq_results.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, total, err
}

func (r *ResultRepository) recent(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).
		Model(&models.Result{}).
		Select(`iq_results.id, iq_results.total_score, iq_results.max_score, iq_results.iq_score,
			iq_results.performance_level, iq_results.time_taken, iq_results.created_at,
			iq_tests.title AS test_title, users.username AS user_name, users.email AS user_email`).
		Joins("JOIN iq_tests ON iq_tests.id = iq_results.test_id").
		Joins("JOIN users ON users.id = iq_results.user_id").
		Order("iq_results.created_at DESC").
		Order("iq_results.id DESC")
}

// ListRecent returns the latest results across all users.
func (r *ResultRepository) ListRecent(ctx context.Context, limit int) ([]models.AdminResult, error) {
	rows := []models.AdminResult{}
	err := r.recent(ctx).Limit(limit).Scan(&rows).Error
	return rows, err
}

func (r *ResultRepository) RecentForTest(ctx context.Context, testID uint, limit int) ([]models.AdminResult, error) {
	rows := []models.AdminResult{}
	err := r.recent(ctx).Where("iq_results.test_id = ?", testID).Limit(limit).Scan(&rows).Error
	return rows, err
}

func (r *ResultRepository) StatisticsForTest(ctx context.Context, testID uint) (*models.TestStatistics, error) {
	var stats models.TestStatistics
	err := r.DB.WithContext(ctx).
		Model(&models.Result{}).
		Select(`COUNT(DISTINCT user_id) AS total_users,
			COUNT(id) AS total_attempts,
			COALESCE(AVG(total_score), 0) AS avg_score,
			COALESCE(AVG(iq_score), 0) AS avg_iq_score,
			COALESCE(MAX(total_score), 0) AS highest_score,
			COALESCE(MIN(total_score), 0) AS lowest_score,
			COALESCE(AVG(time_taken), 0) AS avg_time_taken`).
		Where("test_id = ?", testID).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *ResultRepository) PerformanceDistribution(ctx context.Context, testID uint) ([]models.PerformanceBucket, error) {
	buckets := []models.PerformanceBucket{}
	err := r.DB.WithContext(ctx).
		Model(&models.Result{}).
		Select("performance_level, COUNT(*) AS count").
		Where("test_id = ?", testID).
		Group("performance_level").
		Scan(&buckets).Error
	return buckets, err
}

// CategoryBreakdowns returns the stored category breakdown of every result of
// a test.
func (r *ResultRepository) CategoryBreakdowns(ctx context.Context, testID uint) ([]models.CategoryBreakdown, error) {
	var results []models.Result
	err := r.DB.WithContext(ctx).
		Select("id", "category_scores").
		Where("test_id = ?", testID).
		Find(&results).Error
	if err != nil {
		return nil, err
	}

	breakdowns := make([]models.CategoryBreakdown, 0, len(results))
	for _, res := range results {
		breakdowns = append(breakdowns, res.CategoryScores)
	}
	return breakdowns, nil
}
