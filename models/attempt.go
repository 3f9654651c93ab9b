package models

import (
	"time"
)

// Attempt records one submitted quiz result. Attempts are immutable and
// reference a quiz without being owned by it, so deleting a quiz does not
// delete its attempts.
type Attempt struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	QuizID    uint      `json:"quiz_id" gorm:"not null;index"`
	Score     int       `json:"score" gorm:"not null"`
	Total     int       `json:"total" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}
