package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"wikiquiz/config"
	"wikiquiz/models"
)

const articlePlaceholder = "{article_text}"

// strictInstructions is appended to the prompt when the caller requests
// strict output mode.
const strictInstructions = `

IMPORTANT: Respond with pure JSON only. Do not wrap the response in markdown
code fences. The JSON object must contain exactly two keys: "quiz" and
"related_topics". Every quiz entry must have exactly 4 options.`

// QuizItem is one generated question as it appears in the model output and
// in API responses.
type QuizItem struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Difficulty  string   `json:"difficulty"`
	Explanation string   `json:"explanation"`
}

// GeneratedQuiz is the validated payload produced by one model call.
type GeneratedQuiz struct {
	Quiz          []QuizItem `json:"quiz"`
	RelatedTopics []string   `json:"related_topics"`
}

// QuizGenerator produces quiz content from cleaned article text.
type QuizGenerator interface {
	GenerateQuiz(ctx context.Context, articleText string, strict bool) (*GeneratedQuiz, error)
}

// LLMClient calls the Gemini generateContent endpoint and parses the model
// response into a GeneratedQuiz.
type LLMClient struct {
	apiKey         string
	model          string
	baseURL        string
	promptTemplate string
	httpClient     *http.Client
	timeout        time.Duration
}

// NewLLMClient loads the prompt template from disk and returns a client
// bound to the configured model and credentials.
func NewLLMClient(cfg *config.Config) (*LLMClient, error) {
	template, err := os.ReadFile(cfg.PromptPath)
	if err != nil {
		return nil, fmt.Errorf("loading prompt template: %w", err)
	}
	if !strings.Contains(string(template), articlePlaceholder) {
		return nil, fmt.Errorf("prompt template %s has no %s placeholder", cfg.PromptPath, articlePlaceholder)
	}

	return &LLMClient{
		apiKey:         cfg.GeminiAPIKey,
		model:          cfg.GeminiModel,
		baseURL:        strings.TrimRight(cfg.GeminiBaseURL, "/"),
		promptTemplate: string(template),
		httpClient:     &http.Client{Timeout: cfg.LLMTimeout},
		timeout:        cfg.LLMTimeout,
	}, nil
}

// BuildPrompt substitutes the article text into the template, appending the
// strict-output instruction block when requested.
func (c *LLMClient) BuildPrompt(articleText string, strict bool) string {
	prompt := strings.ReplaceAll(c.promptTemplate, articlePlaceholder, articleText)
	if strict {
		prompt += strictInstructions
	}
	return prompt
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		Temperature float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// GenerateQuiz renders the prompt, invokes the model once and parses the
// response. The call is bounded by the configured timeout; there are no
// automatic retries.
func (c *LLMClient) GenerateQuiz(ctx context.Context, articleText string, strict bool) (*GeneratedQuiz, error) {
	raw, err := c.complete(ctx, c.BuildPrompt(articleText, strict))
	if err != nil {
		return nil, err
	}
	return ParseQuizResponse(raw)
}

func (c *LLMClient) complete(ctx context.Context, prompt string) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}
	reqBody.GenerationConfig.Temperature = 0.2

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: encoding request: %v", ErrGenerationFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%w: model call timed out after %v", ErrGenerationFailed, time.Since(start))
		}
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", ErrGenerationFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: provider returned status %d: %s", ErrGenerationFailed, resp.StatusCode, body)
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", fmt.Errorf("%w: decoding provider response: %v", ErrGenerationFailed, err)
	}
	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no candidates in provider response", ErrGenerationFailed)
	}

	log.Printf("Model call completed in %v", time.Since(start))
	return geminiResp.Candidates[0].Content.Parts[0].Text, nil
}

var fencePattern = regexp.MustCompile("```[a-zA-Z]*")

var requiredQuestionFields = []string{"question", "options", "answer", "difficulty", "explanation"}

// ParseQuizResponse strips markdown code fences from the raw model text,
// parses it as JSON and validates the quiz structure.
func ParseQuizResponse(raw string) (*GeneratedQuiz, error) {
	cleaned := strings.TrimSpace(fencePattern.ReplaceAllString(raw, ""))

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedModelOutput, err)
	}

	quizRaw, ok := envelope["quiz"]
	if !ok {
		return nil, fmt.Errorf("%w: missing quiz key", ErrInvalidModelOutput)
	}
	topicsRaw, ok := envelope["related_topics"]
	if !ok {
		return nil, fmt.Errorf("%w: missing related_topics key", ErrInvalidModelOutput)
	}

	var rawItems []json.RawMessage
	if err := json.Unmarshal(quizRaw, &rawItems); err != nil {
		return nil, fmt.Errorf("%w: quiz must be a list", ErrInvalidModelOutput)
	}

	items := make([]QuizItem, 0, len(rawItems))
	for i, rawItem := range rawItems {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(rawItem, &fields); err != nil {
			return nil, fmt.Errorf("%w: quiz entry %d is not an object", ErrInvalidModelOutput, i)
		}
		for _, field := range requiredQuestionFields {
			if _, ok := fields[field]; !ok {
				return nil, fmt.Errorf("%w: quiz entry %d missing field %q", ErrInvalidModelOutput, i, field)
			}
		}

		var item QuizItem
		if err := json.Unmarshal(rawItem, &item); err != nil {
			return nil, fmt.Errorf("%w: quiz entry %d: %v", ErrInvalidModelOutput, i, err)
		}
		if len(item.Options) != 4 {
			return nil, fmt.Errorf("%w: quiz entry %d has %d options, want 4", ErrInvalidModelOutput, i, len(item.Options))
		}
		if !models.Difficulty(item.Difficulty).Valid() {
			return nil, fmt.Errorf("%w: quiz entry %d has invalid difficulty %q", ErrInvalidModelOutput, i, item.Difficulty)
		}
		if !containsString(item.Options, item.Answer) {
			return nil, fmt.Errorf("%w: quiz entry %d answer is not one of the options", ErrInvalidModelOutput, i)
		}
		items = append(items, item)
	}

	var topics []string
	if err := json.Unmarshal(topicsRaw, &topics); err != nil {
		return nil, fmt.Errorf("%w: related_topics must be a list of strings", ErrInvalidModelOutput)
	}

	return &GeneratedQuiz{Quiz: items, RelatedTopics: topics}, nil
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
