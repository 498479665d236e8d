package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vbabrew-backend/internal/models"
)

// SystemPrompt is the fixed instruction contract. The response validation in
// parseResult must stay symmetric with the four keys promised here.
const SystemPrompt = `You are a VBA Code Generator for Microsoft Excel.
## YOUR TASK
Generate production-ready VBA code from the user's description.
## OUTPUT
Return a JSON object with exactly these 4 keys:
{
  "code": "...",
  "explanation": "...",
  "limitations": "...",
  "non_vba_alternative": "..."
}
## RULES
1. Return ONLY valid JSON - no markdown, no code blocks
2. Include error handling and performance optimization in code
`

var (
	// ErrMalformedResult: the provider answered successfully but the assistant
	// content is not the strict JSON object the contract demands.
	ErrMalformedResult = errors.New("generation result is not valid JSON")
	// ErrContractViolation: valid JSON, but a required field is missing or empty.
	ErrContractViolation = errors.New("generation result is missing required fields")
)

// GenerationError is a provider-side failure: transport error or non-success
// status. Message is derived best-effort from the provider payload.
type GenerationError struct {
	Message    string
	StatusCode int // 0 for transport failures
}

func (e *GenerationError) Error() string { return e.Message }

// BadCredential reports whether the provider rejected the generation key.
func (e *GenerationError) BadCredential() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// GroqService calls an OpenAI-compatible chat-completions endpoint.
// Temperature is pinned low so the same history biases toward the same output.
type GroqService struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewGroqService(baseURL, model string) *GroqService {
	return &GroqService{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

type chatCompletionRequest struct {
	Model          string               `json:"model"`
	Messages       []models.ChatMessage `json:"messages"`
	Temperature    float32              `json:"temperature"`
	ResponseFormat *responseFormat      `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"` // "json_object" or "text"
}

type chatCompletionResponse struct {
	Choices []struct {
		Message      models.ChatMessage `json:"message"`
		FinishReason string             `json:"finish_reason"`
	} `json:"choices"`
}

// Generate sends the ordered message list and returns the validated result
// plus the raw assistant payload. The raw string is what callers append to
// history, so replay sends exactly what the provider produced.
func (s *GroqService) Generate(ctx context.Context, messages []models.ChatMessage, apiKey string) (*models.GenerationResult, string, error) {
	reqBody := chatCompletionRequest{
		Model:          s.model,
		Messages:       messages,
		Temperature:    0.1,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal generation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create generation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, "", &GenerationError{Message: fmt.Sprintf("Generation provider unreachable: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &GenerationError{Message: fmt.Sprintf("Failed to read provider response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &GenerationError{
			Message:    providerErrorMessage(resp, body),
			StatusCode: resp.StatusCode,
		}
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil || len(chatResp.Choices) == 0 {
		return nil, "", fmt.Errorf("%w: unexpected completion envelope", ErrMalformedResult)
	}

	raw := chatResp.Choices[0].Message.Content
	result, err := parseResult(raw)
	if err != nil {
		return nil, "", err
	}

	return result, raw, nil
}

// providerErrorMessage extracts a readable message from a failed response:
// structured error body first, then the raw body, then the status line.
func providerErrorMessage(resp *http.Response, body []byte) string {
	var errBody struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &errBody) == nil && errBody.Error.Message != "" {
		return errBody.Error.Message
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return fmt.Sprintf("Error %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

// parseResult validates the assistant content against the contract. The
// alternative note is optional and kept verbatim, trivial or not; presentation
// decides whether it is worth showing.
func parseResult(raw string) (*models.GenerationResult, error) {
	var result models.GenerationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}

	missing := []string{}
	if strings.TrimSpace(result.Code) == "" {
		missing = append(missing, "code")
	}
	if strings.TrimSpace(result.Explanation) == "" {
		missing = append(missing, "explanation")
	}
	if strings.TrimSpace(result.Limitations) == "" {
		missing = append(missing, "limitations")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrContractViolation, strings.Join(missing, ", "))
	}

	return &result, nil
}
