package routes

import (
	"log"

	"eduhub/backend/config"
	"eduhub/backend/controllers"
	"eduhub/backend/events"
	"eduhub/backend/middleware"
	"eduhub/backend/repository"
	"eduhub/backend/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, publisher events.Publisher, logger *log.Logger) {
	// Repositories
	users := repository.NewUserRepository(db)
	catalog := repository.NewCatalogRepository(db)
	sessions := repository.NewSessionRepository(db)
	results := repository.NewResultRepository(db)

	// Services
	iqService := services.NewIQService(users, catalog, sessions, results, publisher, cfg, logger)
	catalogService := services.NewCatalogService(catalog, sessions, results)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware(users)

	iqController := controllers.NewIQController(iqService, catalogService, logger)
	iq := app.Group("/api/iq")
	iq.Get("/tests", iqController.ListTests)
	iq.Get("/tests/simple", iqController.ListTestsSimple)
	iq.Get("/tests/:id", iqController.GetTest)
	iq.Post("/sessions/start", iqController.StartSession)
	iq.Get("/sessions/:token/questions", iqController.GetSessionQuestions)
	iq.Post("/sessions/:token/answer", iqController.SaveAnswer)
	iq.Post("/sessions/:token/submit", iqController.SubmitTest)
	iq.Get("/results/:resultId", iqController.GetTestResult)
	iq.Get("/users/:userId/history", iqController.GetUserHistory)

	// Admin routes
	adminController := controllers.NewIQAdminController(catalogService, logger)
	admin := app.Group("/api/iq/admin", authMiddleware, adminMiddleware)
	admin.Get("/tests", adminController.ListTests)
	admin.Post("/tests", adminController.CreateTest)
	admin.Get("/tests/:id", adminController.GetTest)
	admin.Put("/tests/:id", adminController.UpdateTest)
	admin.Patch("/tests/:id/status", adminController.UpdateTestStatus)
	admin.Delete("/tests/:id", adminController.DeleteTest)
	admin.Post("/tests/:id/questions", adminController.AddQuestions)
	admin.Get("/tests/:id/questions", adminController.ListQuestions)
	admin.Get("/tests/:id/statistics", adminController.TestStatistics)
	admin.Put("/questions/:questionId", adminController.UpdateQuestion)
	admin.Delete("/questions/:questionId", adminController.DeleteQuestion)
	admin.Get("/results", adminController.RecentResults)
}
