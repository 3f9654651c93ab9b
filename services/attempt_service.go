package services

import (
	"database/sql"
	"errors"
	"fmt"
	"math"

	"wikiquiz/models"

	"gorm.io/gorm"
)

// AttemptService records quiz attempts and aggregates them for reporting.
type AttemptService struct {
	db *gorm.DB
}

func NewAttemptService(db *gorm.DB) *AttemptService {
	return &AttemptService{db: db}
}

// CreateAttempt validates and persists one submitted result. Attempts are
// immutable once created.
func (s *AttemptService) CreateAttempt(quizID uint, score, total int) (*models.Attempt, error) {
	if total <= 0 {
		return nil, fmt.Errorf("%w: total must be positive", ErrInvalidInput)
	}
	if score < 0 {
		return nil, fmt.Errorf("%w: score must not be negative", ErrInvalidInput)
	}
	if score > total {
		return nil, fmt.Errorf("%w: score must not exceed total", ErrInvalidInput)
	}

	var quiz models.Quiz
	if err := s.db.First(&quiz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: quiz %d", ErrNotFound, quizID)
		}
		return nil, err
	}

	attempt := models.Attempt{
		QuizID: quizID,
		Score:  score,
		Total:  total,
	}
	if err := s.db.Create(&attempt).Error; err != nil {
		return nil, err
	}

	return &attempt, nil
}

// AnalyticsByQuiz is the per-quiz attempt breakdown, keyed by quiz title.
type AnalyticsByQuiz struct {
	Title    string  `json:"title"`
	Attempts int64   `json:"attempts"`
	AvgScore float64 `json:"avgScore"`
}

// AnalyticsResponse aggregates all recorded attempts.
type AnalyticsResponse struct {
	TotalAttempts int64             `json:"totalAttempts"`
	AverageScore  float64           `json:"averageScore"`
	ByQuiz        []AnalyticsByQuiz `json:"byQuiz"`
}

// Analytics computes the total attempt count, the mean score percentage over
// all attempts, and a per-quiz breakdown ordered by attempt count descending
// then title ascending. Attempts with total=0 cannot exist through
// CreateAttempt, but the division is NULLIF-guarded regardless.
func (s *AttemptService) Analytics() (*AnalyticsResponse, error) {
	var totalAttempts int64
	if err := s.db.Model(&models.Attempt{}).Count(&totalAttempts).Error; err != nil {
		return nil, err
	}

	var average sql.NullFloat64
	err := s.db.Model(&models.Attempt{}).
		Select("AVG(score * 100.0 / NULLIF(total, 0))").
		Scan(&average).Error
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Title    string
		Attempts int64
		AvgScore sql.NullFloat64
	}
	err = s.db.Model(&models.Attempt{}).
		Select("quizzes.title AS title, COUNT(attempts.id) AS attempts, AVG(attempts.score * 100.0 / NULLIF(attempts.total, 0)) AS avg_score").
		Joins("JOIN quizzes ON quizzes.id = attempts.quiz_id").
		Group("quizzes.title").
		Order("attempts DESC").
		Order("quizzes.title ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	byQuiz := make([]AnalyticsByQuiz, 0, len(rows))
	for _, row := range rows {
		byQuiz = append(byQuiz, AnalyticsByQuiz{
			Title:    row.Title,
			Attempts: row.Attempts,
			AvgScore: round2(row.AvgScore.Float64),
		})
	}

	return &AnalyticsResponse{
		TotalAttempts: totalAttempts,
		AverageScore:  round2(average.Float64),
		ByQuiz:        byQuiz,
	}, nil
}

// TopicSummary is a stateless stub: it echoes the topic in a templated
// sentence without any lookup.
func (s *AttemptService) TopicSummary(topic string) (string, error) {
	if len(topic) < 2 || len(topic) > 120 {
		return "", fmt.Errorf("%w: topic must be between 2 and 120 characters", ErrInvalidInput)
	}
	return fmt.Sprintf("%s is a topic worth exploring further on Wikipedia.", topic), nil
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
