package main

import (
	"log"
	"os"

	"eduhub/backend/config"
	"eduhub/backend/events"
	"eduhub/backend/middleware"
	"eduhub/backend/repository"
	"eduhub/backend/routes"
	"eduhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize logger
	colors := cfg.LogFormat != "json"
	logger := utils.InitLogger(utils.LoggerConfig{
		Format:       cfg.LogFormat,
		Output:       os.Stdout,
		EnableColors: colors,
	})

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		logger.Fatalf("Error initializing database: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		logger.Fatalf("Error migrating database: %v", err)
	}

	// Result events
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			logger.Printf("Result events disabled: %v", err)
		} else {
			publisher = amqpPublisher
		}
	}
	defer publisher.Close()

	// Create Fiber app
	app := fiber.New()

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger, colors))

	// Setup routes
	routes.SetupRoutes(app, db, cfg, publisher, logger)

	// Start server
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Printf("Server stopped: %v", err)
	}
}
