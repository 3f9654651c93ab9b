package models

import (
	"time"
)

type RelatedTopic struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	QuizID    uint      `json:"quiz_id" gorm:"not null;index"`
	TopicName string    `json:"topic_name" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}
