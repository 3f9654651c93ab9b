package handlers

import (
	"errors"
	"net/http"

	"wikiquiz/services"

	"github.com/gin-gonic/gin"
)

type AttemptHandler struct {
	attemptService *services.AttemptService
}

func NewAttemptHandler(attemptService *services.AttemptService) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
	}
}

type CreateAttemptRequest struct {
	QuizID uint `json:"quiz_id" binding:"required"`
	Score  int  `json:"score"`
	Total  int  `json:"total"`
}

func (h *AttemptHandler) CreateAttempt(c *gin.Context) {
	var req CreateAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	attempt, err := h.attemptService.CreateAttempt(req.QuizID, req.Score, req.Total)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, attempt)
}

func (h *AttemptHandler) Analytics(c *gin.Context) {
	analytics, err := h.attemptService.Analytics()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, analytics)
}

func (h *AttemptHandler) TopicSummary(c *gin.Context) {
	topic := c.Query("topic")

	summary, err := h.attemptService.TopicSummary(topic)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"topic": topic, "summary": summary})
}
