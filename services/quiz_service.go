package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"wikiquiz/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuizService orchestrates the generate-quiz pipeline: validate the URL,
// reuse or create the quiz row, invoke the generator and persist its output.
type QuizService struct {
	db        *gorm.DB
	scraper   PageScraper
	generator QuizGenerator
	cache     *ScrapeCache
}

func NewQuizService(db *gorm.DB, scraper PageScraper, generator QuizGenerator, cache *ScrapeCache) *QuizService {
	return &QuizService{db: db, scraper: scraper, generator: generator, cache: cache}
}

// QuizResponse is the assembled generate/detail payload: the quiz row plus
// its questions and related topics, without the stored raw markup.
type QuizResponse struct {
	ID            uint       `json:"id"`
	URL           string     `json:"url"`
	Title         string     `json:"title"`
	Summary       string     `json:"summary"`
	Quiz          []QuizItem `json:"quiz"`
	RelatedTopics []string   `json:"related_topics"`
}

// HistoryItem is one row of the quiz history listing.
type HistoryItem struct {
	ID        uint      `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// GenerateFromURL runs the full pipeline for url. Three cases, checked in
// order:
//
//	A: a quiz with questions already exists — return it, never calling the
//	   generator again.
//	B: a quiz row exists but has no questions (an earlier generation
//	   failed) — reuse the row and generate into it.
//	C: no quiz row — scrape the page and insert one first, so concurrent
//	   requests can find it before generation finishes.
func (s *QuizService) GenerateFromURL(ctx context.Context, url string, strict bool) (*QuizResponse, error) {
	if err := ValidateWikipediaURL(url); err != nil {
		return nil, err
	}
	log.Printf("Generating quiz for %s", url)

	quiz, err := s.findByURL(url)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if quiz != nil && len(quiz.Questions) > 0 {
		return buildQuizResponse(quiz), nil // Case A: cache hit
	}

	if quiz == nil {
		// Case C
		quiz, err = s.createFromScrape(ctx, url)
		if err != nil {
			return nil, err
		}
		// The insert may have lost a race against a concurrent request;
		// createFromScrape then returns the winner's row, which can
		// already have questions.
		if len(quiz.Questions) > 0 {
			return buildQuizResponse(quiz), nil
		}
	}

	generated, err := s.generator.GenerateQuiz(ctx, quiz.CleanedText, strict)
	if err != nil {
		// The quiz row stays in place with zero questions, so a retry
		// resumes from Case B without re-fetching the page.
		if errors.Is(err, ErrMalformedModelOutput) || errors.Is(err, ErrInvalidModelOutput) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if err := s.persistGenerated(quiz.ID, generated); err != nil {
		return nil, err
	}

	quiz, err = s.findByURL(url)
	if err != nil {
		return nil, err
	}
	return buildQuizResponse(quiz), nil
}

func (s *QuizService) findByURL(url string) (*models.Quiz, error) {
	var quiz models.Quiz
	err := s.db.Where("url = ?", url).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.id")
		}).
		Preload("RelatedTopics", func(db *gorm.DB) *gorm.DB {
			return db.Order("related_topics.id")
		}).
		First(&quiz).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

// createFromScrape fetches the page and inserts a quiz row without
// questions. On a unique-constraint conflict the storage layer arbitrates:
// the row inserted by the concurrent winner is re-read and returned.
func (s *QuizService) createFromScrape(ctx context.Context, url string) (*models.Quiz, error) {
	scraped, err := s.scrape(ctx, url)
	if err != nil {
		return nil, err
	}

	quiz := models.Quiz{
		URL:         url,
		Title:       scraped.Title,
		Summary:     scraped.Summary,
		RawHTML:     scraped.RawHTML,
		CleanedText: scraped.CleanedText,
	}

	if err := s.db.Create(&quiz).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Printf("Concurrent insert for %s, reusing existing quiz", url)
			return s.findByURL(url)
		}
		return nil, err
	}

	return &quiz, nil
}

// Scrape validates the URL and returns the extraction result, consulting
// the cache first. Used by the scrape-only endpoint and by Case C.
func (s *QuizService) Scrape(ctx context.Context, url string) (*ScrapeResult, error) {
	if err := ValidateWikipediaURL(url); err != nil {
		return nil, err
	}
	return s.scrape(ctx, url)
}

func (s *QuizService) scrape(ctx context.Context, url string) (*ScrapeResult, error) {
	if cached, ok := s.cache.Get(ctx, url); ok {
		log.Printf("Scrape cache hit for %s", url)
		return cached, nil
	}

	result, err := s.scraper.Scrape(ctx, url)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, url, result)
	return result, nil
}

// persistGenerated writes all questions and related topics for one quiz as
// a single transaction.
func (s *QuizService) persistGenerated(quizID uint, generated *GeneratedQuiz) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range generated.Quiz {
			question := models.Question{
				QuizID:        quizID,
				QuestionText:  item.Question,
				Options:       datatypes.NewJSONSlice(item.Options),
				CorrectAnswer: item.Answer,
				Difficulty:    models.Difficulty(item.Difficulty),
				Explanation:   item.Explanation,
			}
			if err := tx.Create(&question).Error; err != nil {
				return err
			}
		}

		for _, topic := range generated.RelatedTopics {
			related := models.RelatedTopic{
				QuizID:    quizID,
				TopicName: topic,
			}
			if err := tx.Create(&related).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// GetHistory returns all quizzes, newest first.
func (s *QuizService) GetHistory() ([]HistoryItem, error) {
	var quizzes []models.Quiz
	if err := s.db.Order("created_at DESC").Find(&quizzes).Error; err != nil {
		return nil, err
	}

	history := make([]HistoryItem, 0, len(quizzes))
	for _, quiz := range quizzes {
		history = append(history, HistoryItem{
			ID:        quiz.ID,
			URL:       quiz.URL,
			Title:     quiz.Title,
			CreatedAt: quiz.CreatedAt,
		})
	}
	return history, nil
}

// GetQuizByID returns one quiz with its questions and topics.
func (s *QuizService) GetQuizByID(quizID uint) (*QuizResponse, error) {
	var quiz models.Quiz
	err := s.db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.id")
		}).
		Preload("RelatedTopics", func(db *gorm.DB) *gorm.DB {
			return db.Order("related_topics.id")
		}).
		First(&quiz, quizID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: quiz %d", ErrNotFound, quizID)
		}
		return nil, err
	}
	return buildQuizResponse(&quiz), nil
}

// DeleteQuiz removes a quiz and its questions and related topics in one
// transaction. The cascade is an explicit delete per child table, not an
// object-graph traversal. Attempts are kept.
func (s *QuizService) DeleteQuiz(quizID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var quiz models.Quiz
		if err := tx.First(&quiz, quizID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: quiz %d", ErrNotFound, quizID)
			}
			return err
		}

		if err := tx.Where("quiz_id = ?", quizID).Delete(&models.Question{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id = ?", quizID).Delete(&models.RelatedTopic{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Quiz{}, quizID).Error
	})
}

func buildQuizResponse(quiz *models.Quiz) *QuizResponse {
	items := make([]QuizItem, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		items = append(items, QuizItem{
			Question:    q.QuestionText,
			Options:     []string(q.Options),
			Answer:      q.CorrectAnswer,
			Difficulty:  string(q.Difficulty),
			Explanation: q.Explanation,
		})
	}

	topics := make([]string, 0, len(quiz.RelatedTopics))
	for _, t := range quiz.RelatedTopics {
		topics = append(topics, t.TopicName)
	}

	return &QuizResponse{
		ID:            quiz.ID,
		URL:           quiz.URL,
		Title:         quiz.Title,
		Summary:       quiz.Summary,
		Quiz:          items,
		RelatedTopics: topics,
	}
}
