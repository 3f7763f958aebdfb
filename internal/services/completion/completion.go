package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/nodeflow/nodeflow/internal/utils"
)

// defaultEndpoint is the OpenAI-compatible chat completions endpoint
const defaultEndpoint = "https://api.openai.com/v1/chat/completions"

// Service provides a centralized way to interact with the reasoning engine
// behind an OpenAI-compatible chat completions API
type Service struct {
	apiKey   string
	endpoint string
}

// Message represents a message in the completion conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request represents a chat completions API request
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Response represents a chat completions API response
type Response struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Choices []struct {
		Index        int     `json:"index"`
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// APIError represents an error payload from the completions API
type APIError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Options contains the parameters for a completion request
type Options struct {
	Model            string
	Temperature      float64
	MaxTokens        int
	RequestTimeoutMS int
}

// NewService creates a new completion service instance
func NewService() (*Service, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable is not set")
	}

	endpoint := os.Getenv("OPENAI_API_BASE")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	return &Service{
		apiKey:   apiKey,
		endpoint: endpoint,
	}, nil
}

// Complete sends a completion request to the API
func (s *Service) Complete(ctx context.Context, messages []Message, opts Options) (*Response, error) {
	// Create a timeout context if RequestTimeoutMS is specified
	if opts.RequestTimeoutMS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(opts.RequestTimeoutMS)*time.Millisecond)
		defer cancel()
	}

	// Create the request body
	reqBody := Request{
		Model:       opts.Model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	reqData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Create the HTTP request
	req, err := http.NewRequestWithContext(
		ctx,
		"POST",
		s.endpoint,
		bytes.NewBuffer(reqData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	// Send the request
	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			utils.LogWarning("Failed to close response body: %v", err)
		}
	}()

	// Read the response body
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// Check for API errors
	if resp.StatusCode != http.StatusOK {
		var apiErr APIError
		if err := json.Unmarshal(respBody, &apiErr); err == nil {
			return nil, fmt.Errorf("API error: %s", apiErr.Error.Message)
		}
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	// Parse the response
	var completion Response
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// Check if there are any choices in the response
	if len(completion.Choices) == 0 {
		return nil, errors.New("no response from completion API")
	}

	return &completion, nil
}

// GetContent is a helper function that returns just the content from the first choice
func (s *Service) GetContent(ctx context.Context, messages []Message, opts Options) (string, error) {
	resp, err := s.Complete(ctx, messages, opts)
	if err != nil {
		return "", err
	}

	return resp.Choices[0].Message.Content, nil
}

// IsAPIKeySet checks if the API key is set in the environment
func IsAPIKeySet() bool {
	return os.Getenv("OPENAI_API_KEY") != ""
}

// ValidateAPIKey checks if the API key is set and returns an error if it's not
func ValidateAPIKey() error {
	if !IsAPIKeySet() {
		return errors.New("OPENAI_API_KEY environment variable is not set")
	}
	return nil
}
