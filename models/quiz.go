package models

import (
	"time"
)

type Quiz struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	URL         string    `json:"url" gorm:"uniqueIndex;not null"`
	Title       string    `json:"title" gorm:"not null"`
	Summary     string    `json:"summary" gorm:"type:text"`
	RawHTML     string    `json:"-" gorm:"type:text"`
	CleanedText string    `json:"cleaned_text,omitempty" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`

	// Relationships
	Questions     []Question     `json:"questions,omitempty" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
	RelatedTopics []RelatedTopic `json:"related_topics,omitempty" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
}
