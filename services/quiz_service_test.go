package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"wikiquiz/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Quiz{},
		&models.Question{},
		&models.RelatedTopic{},
		&models.Attempt{},
	))
	return db
}

type stubScraper struct {
	result *ScrapeResult
	err    error
	calls  int
}

func (s *stubScraper) Scrape(ctx context.Context, pageURL string) (*ScrapeResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubGenerator struct {
	generated *GeneratedQuiz
	err       error
	calls     int
}

func (g *stubGenerator) GenerateQuiz(ctx context.Context, articleText string, strict bool) (*GeneratedQuiz, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.generated, nil
}

const octopusURL = "https://en.wikipedia.org/wiki/Octopus"

func octopusScrapeResult() *ScrapeResult {
	return &ScrapeResult{
		Title:       "Octopus",
		Summary:     "Octopuses are soft-bodied molluscs.",
		Sections:    []string{"Etymology", "Anatomy"},
		CleanedText: "Octopuses are soft-bodied molluscs of the order Octopoda.",
		RawHTML:     "<html><h1>Octopus</h1></html>",
	}
}

func octopusGeneratedQuiz() *GeneratedQuiz {
	item := func(q string) QuizItem {
		return QuizItem{
			Question:    q,
			Options:     []string{"a", "b", "c", "d"},
			Answer:      "a",
			Difficulty:  "medium",
			Explanation: "because",
		}
	}
	return &GeneratedQuiz{
		Quiz:          []QuizItem{item("Q1?"), item("Q2?"), item("Q3?")},
		RelatedTopics: []string{"Squid", "Cephalopod intelligence"},
	}
}

func newTestQuizService(t *testing.T) (*QuizService, *stubScraper, *stubGenerator) {
	t.Helper()
	scraper := &stubScraper{result: octopusScrapeResult()}
	generator := &stubGenerator{generated: octopusGeneratedQuiz()}
	service := NewQuizService(newTestDB(t), scraper, generator, NewScrapeCache(nil))
	return service, scraper, generator
}

func TestGenerateFromURLFullPipeline(t *testing.T) {
	service, scraper, generator := newTestQuizService(t)

	resp, err := service.GenerateFromURL(context.Background(), octopusURL, false)
	require.NoError(t, err)

	assert.NotZero(t, resp.ID)
	assert.Equal(t, octopusURL, resp.URL)
	assert.Equal(t, "Octopus", resp.Title)
	assert.Len(t, resp.Quiz, 3)
	assert.Equal(t, []string{"Squid", "Cephalopod intelligence"}, resp.RelatedTopics)
	assert.Equal(t, 1, scraper.calls)
	assert.Equal(t, 1, generator.calls)

	assert.Equal(t, []string{"a", "b", "c", "d"}, resp.Quiz[0].Options)
	assert.Equal(t, "a", resp.Quiz[0].Answer)
}

func TestGenerateFromURLIdempotent(t *testing.T) {
	service, scraper, generator := newTestQuizService(t)

	first, err := service.GenerateFromURL(context.Background(), octopusURL, false)
	require.NoError(t, err)

	second, err := service.GenerateFromURL(context.Background(), octopusURL, false)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Quiz, second.Quiz)
	assert.Equal(t, first.RelatedTopics, second.RelatedTopics)
	// The second call is a cache hit: neither the page nor the model is
	// touched again.
	assert.Equal(t, 1, scraper.calls)
	assert.Equal(t, 1, generator.calls)
}

func TestGenerateFromURLResumesAfterGenerationFailure(t *testing.T) {
	service, scraper, generator := newTestQuizService(t)
	generator.err = errors.New("provider unavailable")

	_, err := service.GenerateFromURL(context.Background(), octopusURL, false)
	assert.ErrorIs(t, err, ErrGenerationFailed)

	// The quiz row was persisted before generation and survives the failure.
	var quiz models.Quiz
	require.NoError(t, service.db.Where("url = ?", octopusURL).First(&quiz).Error)
	var questionCount int64
	require.NoError(t, service.db.Model(&models.Question{}).Where("quiz_id = ?", quiz.ID).Count(&questionCount).Error)
	assert.Zero(t, questionCount)

	// A retry reuses the row without re-fetching the page.
	generator.err = nil
	resp, err := service.GenerateFromURL(context.Background(), octopusURL, false)
	require.NoError(t, err)

	assert.Equal(t, quiz.ID, resp.ID)
	assert.Len(t, resp.Quiz, 3)
	assert.Equal(t, 1, scraper.calls)
	assert.Equal(t, 2, generator.calls)
}

func TestGenerateFromURLInvalidModelOutputPropagates(t *testing.T) {
	service, _, generator := newTestQuizService(t)
	generator.err = ErrInvalidModelOutput

	_, err := service.GenerateFromURL(context.Background(), octopusURL, false)

	assert.ErrorIs(t, err, ErrInvalidModelOutput)
	assert.NotErrorIs(t, err, ErrGenerationFailed)
}

func TestGenerateFromURLRejectsInvalidURL(t *testing.T) {
	service, scraper, generator := newTestQuizService(t)

	_, err := service.GenerateFromURL(context.Background(), "https://example.com/wiki/Octopus", false)

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, scraper.calls)
	assert.Zero(t, generator.calls)
}

func TestGenerateFromURLScrapeErrorsPropagate(t *testing.T) {
	service, scraper, generator := newTestQuizService(t)
	scraper.err = ErrNotFound

	_, err := service.GenerateFromURL(context.Background(), octopusURL, false)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, generator.calls)
}

func TestScrapeDoesNotPersist(t *testing.T) {
	service, _, _ := newTestQuizService(t)

	result, err := service.Scrape(context.Background(), octopusURL)
	require.NoError(t, err)
	assert.Equal(t, "Octopus", result.Title)

	var count int64
	require.NoError(t, service.db.Model(&models.Quiz{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGetHistoryNewestFirst(t *testing.T) {
	service, _, _ := newTestQuizService(t)
	db := service.db

	now := time.Now().UTC()
	require.NoError(t, db.Create(&models.Quiz{URL: "https://en.wikipedia.org/wiki/A", Title: "A", CreatedAt: now.Add(-2 * time.Hour)}).Error)
	require.NoError(t, db.Create(&models.Quiz{URL: "https://en.wikipedia.org/wiki/B", Title: "B", CreatedAt: now.Add(-1 * time.Hour)}).Error)
	require.NoError(t, db.Create(&models.Quiz{URL: "https://en.wikipedia.org/wiki/C", Title: "C", CreatedAt: now}).Error)

	history, err := service.GetHistory()
	require.NoError(t, err)

	require.Len(t, history, 3)
	assert.Equal(t, "C", history[0].Title)
	assert.Equal(t, "B", history[1].Title)
	assert.Equal(t, "A", history[2].Title)
}

func TestGetQuizByIDNotFound(t *testing.T) {
	service, _, _ := newTestQuizService(t)

	_, err := service.GetQuizByID(42)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteQuizCascades(t *testing.T) {
	service, _, _ := newTestQuizService(t)
	db := service.db

	resp, err := service.GenerateFromURL(context.Background(), octopusURL, false)
	require.NoError(t, err)

	// Attempts reference the quiz but are not owned by it.
	require.NoError(t, db.Create(&models.Attempt{QuizID: resp.ID, Score: 2, Total: 3}).Error)

	require.NoError(t, service.DeleteQuiz(resp.ID))

	var quizzes, questions, topics, attempts int64
	require.NoError(t, db.Model(&models.Quiz{}).Count(&quizzes).Error)
	require.NoError(t, db.Model(&models.Question{}).Count(&questions).Error)
	require.NoError(t, db.Model(&models.RelatedTopic{}).Count(&topics).Error)
	require.NoError(t, db.Model(&models.Attempt{}).Count(&attempts).Error)

	assert.Zero(t, quizzes)
	assert.Zero(t, questions)
	assert.Zero(t, topics)
	assert.Equal(t, int64(1), attempts)
}

func TestDeleteQuizNotFound(t *testing.T) {
	service, _, _ := newTestQuizService(t)

	assert.ErrorIs(t, service.DeleteQuiz(42), ErrNotFound)
}

func TestDuplicateURLInsertFallsBackToExistingRow(t *testing.T) {
	service, _, _ := newTestQuizService(t)

	// Simulate a concurrent winner: the row already exists when Case C
	// tries to insert.
	require.NoError(t, service.db.Create(&models.Quiz{
		URL:         octopusURL,
		Title:       "Octopus",
		CleanedText: "existing text",
	}).Error)

	quiz, err := service.createFromScrape(context.Background(), octopusURL)
	require.NoError(t, err)

	assert.Equal(t, "existing text", quiz.CleanedText)

	var count int64
	require.NoError(t, service.db.Model(&models.Quiz{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
