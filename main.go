package main

import (
	"log"

	"wikiquiz/config"
	"wikiquiz/handlers"
	"wikiquiz/middleware"
	"wikiquiz/models"
	"wikiquiz/routes"
	"wikiquiz/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database models
	err = db.AutoMigrate(
		&models.Quiz{},
		&models.Question{},
		&models.RelatedTopic{},
		&models.Attempt{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize Redis-backed scrape cache
	redisClient := config.InitRedis(cfg)
	scrapeCache := services.NewScrapeCache(redisClient)

	// Initialize pipeline components
	scraper := services.NewScraper(cfg.ScrapeTimeout)
	llmClient, err := services.NewLLMClient(cfg)
	if err != nil {
		log.Fatal("Failed to initialize LLM client:", err)
	}

	// Initialize services
	quizService := services.NewQuizService(db, scraper, llmClient, scrapeCache)
	attemptService := services.NewAttemptService(db)

	// Initialize handlers
	systemHandler := handlers.NewSystemHandler(db)
	quizHandler := handlers.NewQuizHandler(quizService)
	attemptHandler := handlers.NewAttemptHandler(attemptService)

	// Setup Gin router
	router := gin.Default()

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Setup routes
	routes.SetupRoutes(router, systemHandler, quizHandler, attemptHandler)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
