package tagger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"rdtagger/pkg/config"
	errs "rdtagger/pkg/errors"
	"rdtagger/pkg/logger"
)

// SystemPrompt instructs the model to answer with tags only
const SystemPrompt = "You are a bookmark tagging assistant. Generate 3-5 relevant, concise tags for the given bookmark. Return ONLY the tags as a comma-separated list, nothing else."

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// ChatClient requests tags from a chat-completions endpoint
type ChatClient struct {
	httpClient  *http.Client
	endpoint    string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	limiter     *rate.Limiter
	logger      logger.Logger
}

// ChatOption configures a ChatClient
type ChatOption func(*ChatClient)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ChatOption {
	return func(c *ChatClient) { c.httpClient = hc }
}

// WithLogger sets the client's logger
func WithLogger(l logger.Logger) ChatOption {
	return func(c *ChatClient) { c.logger = l }
}

// WithRateLimit caps requests per minute. Zero disables the cap.
func WithRateLimit(perMinute int) ChatOption {
	return func(c *ChatClient) {
		if perMinute <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
}

// NewChatClient creates a client from the ai config section
func NewChatClient(cfg config.AIConfig, opts ...ChatOption) *ChatClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 100
	}
	model := cfg.Model
	if model == "" {
		model = "deepseek-chat"
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.deepseek.com/v1"
	}

	c := &ChatClient{
		httpClient:  &http.Client{Timeout: timeout},
		endpoint:    baseURL + "/chat/completions",
		apiKey:      cfg.APIKey,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
	}
	WithRateLimit(cfg.RequestsPerMinute)(c)
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.GetLogger()
	}
	return c
}

// SuggestTags asks the model for tags. Any failure comes back as a
// collaborator error; non-2xx responses carry status and body.
func (c *ChatClient) SuggestTags(ctx context.Context, req Request) ([]string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: userPrompt(req)},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeCollaborator, err, "failed to encode request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeCollaborator, err, "failed to create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.ErrorWithFields("AI request failed", map[string]interface{}{
			"error": err.Error(),
			"url":   req.URL,
		})
		return nil, errs.Wrap(errs.ErrorTypeCollaborator, err, "AI request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeCollaborator, err, "failed to read AI response")
	}
	logger.LogRequest(c.logger, http.MethodPost, c.endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := errs.FromResponse(resp.StatusCode, strings.TrimSpace(string(body)))
		apiErr.Type = errs.ErrorTypeCollaborator
		apiErr.Message = fmt.Sprintf("AI service returned %d", resp.StatusCode)
		return nil, apiErr
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeCollaborator, err, "failed to parse AI response")
	}
	if len(parsed.Choices) == 0 {
		return nil, errs.New(errs.ErrorTypeCollaborator, resp.StatusCode, "AI response has no choices")
	}

	return ParseTags(parsed.Choices[0].Message.Content), nil
}

func userPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate tags for this bookmark:\nTitle: %s\nURL: %s", req.Title, req.URL)
	if len(req.ExistingTags) > 0 {
		fmt.Fprintf(&b, "\nExisting tags: %s", strings.Join(req.ExistingTags, ", "))
	}
	return b.String()
}
