package controllers_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRequiresAdminRole(t *testing.T) {
	s := newTestServer(t)

	status, _, _ := s.do(t, "GET", "/api/iq/admin/tests", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _, _ = s.do(t, "GET", "/api/iq/admin/tests", nil, "Bearer not-a-token")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, result, _ := s.do(t, "GET", "/api/iq/admin/tests", nil, s.userToken)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, false, result["success"])

	status, _, _ = s.do(t, "GET", "/api/iq/admin/tests", nil, s.adminToken)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestAdminCreateTestValidation(t *testing.T) {
	s := newTestServer(t)

	status, result, _ := s.do(t, "POST", "/api/iq/admin/tests", map[string]interface{}{"title": "No limit"}, s.adminToken)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, result["details"], "time_limit")

	status, result, _ = s.do(t, "POST", "/api/iq/admin/tests", map[string]interface{}{"title": "Timed", "time_limit": 15}, s.adminToken)
	require.Equal(t, fiber.StatusCreated, status)
	created := data(t, result)
	assert.Equal(t, float64(900), created["time_limit"])
	assert.Equal(t, float64(1), created["points_per_question"])
	assert.Equal(t, "medium", created["difficulty_level"])
	assert.Equal(t, true, created["is_active"])
}

func TestAdminTestLifecycle(t *testing.T) {
	s := newTestServer(t)
	testID, _ := s.createTest(t, "Lifecycle", 1, 0)
	path := "/api/iq/admin/tests/" + itoa(testID)

	status, result, _ := s.do(t, "GET", "/api/iq/admin/tests?status=active&search=Life", nil, s.adminToken)
	require.Equal(t, fiber.StatusOK, status)
	rows := list(t, result)
	require.Len(t, rows, 1)
	assert.Equal(t, float64(1), rows[0].(map[string]interface{})["question_count"])
	assert.Equal(t, float64(1), result["pagination"].(map[string]interface{})["pages"])

	status, _, _ = s.do(t, "GET", "/api/iq/admin/tests?status=deleted", nil, s.adminToken)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, result, _ = s.do(t, "PUT", path, map[string]interface{}{"unknown": "x"}, s.adminToken)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "No valid fields to update", result["message"])

	status, result, _ = s.do(t, "PUT", path, map[string]interface{}{"title": "Renamed", "time_limit": 20, "negative_marking": true}, s.adminToken)
	require.Equal(t, fiber.StatusOK, status, result)
	assert.Equal(t, "Renamed", data(t, result)["title"])
	assert.Equal(t, float64(1200), data(t, result)["time_limit"])
	assert.Equal(t, true, data(t, result)["negative_marking"])

	status, _, _ = s.do(t, "PUT", "/api/iq/admin/tests/999", map[string]interface{}{"title": "x"}, s.adminToken)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, result, raw := s.do(t, "GET", path, nil, s.adminToken)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, raw, "correct_answer")
	assert.Equal(t, float64(20), data(t, result)["time_limit_minutes"])

	// Deactivated tests disappear from the public catalog.
	status, _, _ = s.do(t, "PATCH", path+"/status", map[string]interface{}{}, s.adminToken)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, result, _ = s.do(t, "PATCH", path+"/status", map[string]interface{}{"is_active": false}, s.adminToken)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "IQ test deactivated successfully", result["message"])

	status, _, _ = s.do(t, "GET", "/api/iq/tests/"+itoa(testID), nil, "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _, _ = s.do(t, "POST", "/api/iq/sessions/start", map[string]interface{}{"userId": s.user.ID, "testId": testID}, "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _, _ = s.do(t, "DELETE", path, nil, s.adminToken)
	require.Equal(t, fiber.StatusOK, status)

	status, _, _ = s.do(t, "GET", path, nil, s.adminToken)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestAdminDeleteTestWithAttempts(t *testing.T) {
	s := newTestServer(t)
	testID, _ := s.createTest(t, "Attempted", 1, 0)

	status, _, _ := s.do(t, "POST", "/api/iq/sessions/start", map[string]interface{}{"userId": s.user.ID, "testId": testID}, "")
	require.Equal(t, fiber.StatusOK, status)

	status, _, _ = s.do(t, "DELETE", "/api/iq/admin/tests/"+itoa(testID), nil, s.adminToken)
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestAdminQuestions(t *testing.T) {
	s := newTestServer(t)
	testID, ids := s.createTest(t, "Questions", 1, 0, 1, 2)
	require.Len(t, ids, 3)
	questionsPath := "/api/iq/admin/tests/" + itoa(testID) + "/questions"

	// Options are padded to four entries and defaults applied.
	status, result, _ := s.do(t, "POST", questionsPath, map[string]interface{}{
		"questions": []map[string]interface{}{{"question_text": "Odd one out", "options": []string{"cat", "dog"}, "correct_answer": 3}},
	}, s.adminToken)
	require.Equal(t, fiber.StatusCreated, status, result)
	added := list(t, result)[0].(map[string]interface{})
	assert.Len(t, added["options"], 4)
	assert.Equal(t, "logical", added["question_type"])
	assert.Equal(t, float64(4), added["question_number"])

	status, _, _ = s.do(t, "POST", questionsPath, map[string]interface{}{
		"questions": []map[string]interface{}{{"question_text": "Bad", "correct_answer": 4}},
	}, s.adminToken)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _, _ = s.do(t, "POST", questionsPath, map[string]interface{}{"questions": []interface{}{}}, s.adminToken)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _, _ = s.do(t, "POST", "/api/iq/admin/tests/999/questions", map[string]interface{}{
		"questions": []map[string]interface{}{{"question_text": "Orphan"}},
	}, s.adminToken)
	assert.Equal(t, fiber.StatusNotFound, status)

	// Update
	questionPath := "/api/iq/admin/questions/" + itoa(ids[0])
	status, result, _ = s.do(t, "PUT", questionPath, map[string]interface{}{"question_type": "numerical", "correct_answer": 3}, s.adminToken)
	require.Equal(t, fiber.StatusOK, status, result)
	assert.Equal(t, "numerical", data(t, result)["question_type"])

	status, _, _ = s.do(t, "PUT", questionPath, map[string]interface{}{"options": []string{"a", "b", "c", "d", "e"}, "correct_answer": 5}, s.adminToken)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _, _ = s.do(t, "PUT", questionPath, map[string]interface{}{}, s.adminToken)
	assert.Equal(t, fiber.StatusBadRequest, status)

	// Delete renumbers
	status, _, _ = s.do(t, "DELETE", "/api/iq/admin/questions/"+itoa(ids[1]), nil, s.adminToken)
	require.Equal(t, fiber.StatusOK, status)

	status, result, _ = s.do(t, "GET", questionsPath+"?page=1&limit=10", nil, s.adminToken)
	require.Equal(t, fiber.StatusOK, status)
	rows := list(t, result)
	require.Len(t, rows, 3)
	for i, row := range rows {
		assert.Equal(t, float64(i+1), row.(map[string]interface{})["question_number"])
	}
	assert.Equal(t, float64(3), result["pagination"].(map[string]interface{})["total"])

	status, _, _ = s.do(t, "DELETE", "/api/iq/admin/questions/"+itoa(ids[1]), nil, s.adminToken)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestAdminStatisticsAndResults(t *testing.T) {
	s := newTestServer(t)
	testID, ids := s.createTest(t, "Stats", 1, 0, 1)

	status, result, _ := s.do(t, "POST", "/api/iq/sessions/start", map[string]interface{}{"userId": s.user.ID, "testId": testID}, "")
	require.Equal(t, fiber.StatusOK, status)
	token := data(t, result)["sessionToken"].(string)

	for _, id := range ids {
		status, _, _ = s.do(t, "POST", "/api/iq/sessions/"+token+"/answer", map[string]interface{}{"questionId": id, "selectedOption": 0}, "")
		require.Equal(t, fiber.StatusOK, status)
	}
	status, _, _ = s.do(t, "POST", "/api/iq/sessions/"+token+"/submit", map[string]interface{}{"timeSpent": 60}, "")
	require.Equal(t, fiber.StatusOK, status)

	status, result, _ = s.do(t, "GET", "/api/iq/admin/tests/"+itoa(testID)+"/statistics", nil, s.adminToken)
	require.Equal(t, fiber.StatusOK, status)
	report := data(t, result)
	basic := report["basic_statistics"].(map[string]interface{})
	assert.Equal(t, float64(1), basic["total_attempts"])
	assert.Equal(t, float64(105), basic["avg_iq_score"])

	distribution := report["performance_distribution"].([]interface{})
	require.Len(t, distribution, 1)
	bucket := distribution[0].(map[string]interface{})
	assert.Equal(t, "Average", bucket["performance_level"])
	assert.Equal(t, float64(100), bucket["percentage"])

	categories := map[string]map[string]interface{}{}
	for _, c := range report["category_performance"].([]interface{}) {
		cp := c.(map[string]interface{})
		categories[cp["category"].(string)] = cp
	}
	require.Contains(t, categories, "logical")
	assert.Equal(t, float64(50), categories["logical"]["accuracy_rate"])
	assert.Equal(t, float64(0), categories["verbal"]["total"])
	assert.Len(t, report["recent_attempts"], 1)

	status, _, _ = s.do(t, "GET", "/api/iq/admin/tests/999/statistics", nil, s.adminToken)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, result, _ = s.do(t, "GET", "/api/iq/admin/results?limit=5", nil, s.adminToken)
	require.Equal(t, fiber.StatusOK, status)
	rows := list(t, result)
	require.Len(t, rows, 1)
	assert.Equal(t, "student", rows[0].(map[string]interface{})["user_name"])

	status, _, _ = s.do(t, "GET", "/api/iq/admin/results?limit=-1", nil, s.adminToken)
	assert.Equal(t, fiber.StatusBadRequest, status)
}
