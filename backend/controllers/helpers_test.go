package controllers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"testing"

	"eduhub/backend/config"
	"eduhub/backend/events"
	"eduhub/backend/middleware"
	"eduhub/backend/models"
	"eduhub/backend/repository"
	"eduhub/backend/routes"
	"eduhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testServer struct {
	app        *fiber.App
	db         *gorm.DB
	cfg        *config.Config
	adminToken string
	userToken  string
	user       *models.User
}

func newTestServer(t *testing.T) *testServer {
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
	require.NoError(t, repository.Migrate(db))

	cfg := &config.Config{JWTSecret: "test-secret", HistoryMaxLimit: 100}
	log := utils.InitLogger(utils.LoggerConfig{Output: io.Discard})

	app := fiber.New()
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(middleware.LoggingMiddleware(log, false))
	routes.SetupRoutes(app, db, cfg, events.NopPublisher{}, log)

	admin := &models.User{Username: "admin", Email: "admin@example.com", Role: models.RoleAdmin}
	require.NoError(t, db.Create(admin).Error)
	user := &models.User{Username: "student", Email: "student@example.com", Role: "user"}
	require.NoError(t, db.Create(user).Error)

	adminToken, err := utils.GenerateJWTToken(admin.ID, cfg)
	require.NoError(t, err)
	userToken, err := utils.GenerateJWTToken(user.ID, cfg)
	require.NoError(t, err)

	return &testServer{
		app:        app,
		db:         db,
		cfg:        cfg,
		adminToken: "Bearer " + adminToken,
		userToken:  "Bearer " + userToken,
		user:       user,
	}
}

// do sends a request and decodes the JSON envelope. The raw body is returned
// for assertions on fields that must not appear.
func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) (int, map[string]interface{}, string) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(jsonData)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var result map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &result), string(raw))
	}
	return resp.StatusCode, result, string(raw)
}

func data(t *testing.T, result map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := result["data"].(map[string]interface{})
	require.True(t, ok, "data is not an object: %v", result["data"])
	return d
}

func list(t *testing.T, result map[string]interface{}) []interface{} {
	t.Helper()
	d, ok := result["data"].([]interface{})
	require.True(t, ok, "data is not a list: %v", result["data"])
	return d
}

// createTest creates an active test with the given correct answers through
// the admin API and returns its id and question ids.
func (s *testServer) createTest(t *testing.T, title string, points int, correct ...int) (uint, []uint) {
	t.Helper()

	status, result, _ := s.do(t, "POST", "/api/iq/admin/tests", map[string]interface{}{
		"title":               title,
		"time_limit":          10,
		"points_per_question": points,
	}, s.adminToken)
	require.Equal(t, fiber.StatusCreated, status, result)
	testID := uint(data(t, result)["ID"].(float64))

	questions := make([]map[string]interface{}, 0, len(correct))
	for _, c := range correct {
		questions = append(questions, map[string]interface{}{
			"question_text":  "Which comes next?",
			"options":        []string{"2", "4", "8", "16"},
			"correct_answer": c,
			"explanation":    "Doubling",
		})
	}
	if len(questions) == 0 {
		return testID, nil
	}

	status, result, _ = s.do(t, "POST", "/api/iq/admin/tests/"+itoa(testID)+"/questions",
		map[string]interface{}{"questions": questions}, s.adminToken)
	require.Equal(t, fiber.StatusCreated, status, result)

	var ids []uint
	for _, q := range list(t, result) {
		ids = append(ids, uint(q.(map[string]interface{})["ID"].(float64)))
	}
	return testID, ids
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
