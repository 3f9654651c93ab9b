package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SystemHandler serves the liveness and storage diagnostic endpoints.
type SystemHandler struct {
	db *gorm.DB
}

func NewSystemHandler(db *gorm.DB) *SystemHandler {
	return &SystemHandler{db: db}
}

func (h *SystemHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Wiki Quiz backend running"})
}

func (h *SystemHandler) TestDB(c *gin.Context) {
	if err := h.db.Exec("SELECT 1").Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Database connection failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Database connection successful"})
}
