package routes

import (
	"wikiquiz/handlers"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	systemHandler *handlers.SystemHandler,
	quizHandler *handlers.QuizHandler,
	attemptHandler *handlers.AttemptHandler,
) {
	// Diagnostics
	router.GET("/", systemHandler.Root)
	router.GET("/test-db", systemHandler.TestDB)

	// Quiz pipeline
	router.GET("/validate", quizHandler.Validate)
	router.GET("/scrape", quizHandler.Scrape)
	router.POST("/generate", quizHandler.Generate)

	// Quiz queries
	router.GET("/history", quizHandler.GetHistory)
	router.GET("/quiz/:id", quizHandler.GetQuizByID)
	router.DELETE("/quiz/:id", quizHandler.DeleteQuiz)

	// Attempts and reporting
	router.POST("/attempts", attemptHandler.CreateAttempt)
	router.GET("/analytics", attemptHandler.Analytics)
	router.GET("/topic-summary", attemptHandler.TopicSummary)
}
