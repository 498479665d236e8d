package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"vbabrew-backend/internal/models"
)

func completionEnvelope(content string) string {
	envelope := map[string]interface{}{
		"choices": []map[string]interface{}{
			{
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	}
	data, _ := json.Marshal(envelope)
	return string(data)
}

func TestGenerate_Success(t *testing.T) {
	assistantJSON := `{"code":"Sub X()\nEnd Sub","explanation":"Does X.","limitations":"None worth noting here.","non_vba_alternative":""}`

	var gotReq chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer gsk_test" {
			t.Errorf("Missing bearer credential, got %q", r.Header.Get("Authorization"))
		}
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionEnvelope(assistantJSON)))
	}))
	defer server.Close()

	svc := NewGroqService(server.URL, "llama-3.3-70b-versatile")

	messages := []models.ChatMessage{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: "do X"},
	}
	result, raw, err := svc.Generate(context.Background(), messages, "gsk_test")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if result.Code != "Sub X()\nEnd Sub" {
		t.Errorf("Unexpected code: %q", result.Code)
	}
	if raw != assistantJSON {
		t.Error("Raw assistant payload must be returned verbatim")
	}

	if gotReq.Model != "llama-3.3-70b-versatile" {
		t.Errorf("Unexpected model %q", gotReq.Model)
	}
	if gotReq.Temperature != 0.1 {
		t.Errorf("Temperature must be pinned to 0.1, got %v", gotReq.Temperature)
	}
	if gotReq.ResponseFormat == nil || gotReq.ResponseFormat.Type != "json_object" {
		t.Error("Request must demand a json_object response")
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Error("Message list must be forwarded in order")
	}
}

func TestGenerate_ErrorBodyMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	svc := NewGroqService(server.URL, "llama-3.3-70b-versatile")

	_, _, err := svc.Generate(context.Background(), nil, "gsk_test")
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("Expected GenerationError, got %v", err)
	}
	if genErr.Message != "rate limited" {
		t.Errorf("Expected message from structured error body, got %q", genErr.Message)
	}
	if genErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", genErr.StatusCode)
	}
}

func TestGenerate_ErrorBodyFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"raw body when not structured", http.StatusBadGateway, "upstream exploded", "upstream exploded"},
		{"status line when body empty", http.StatusServiceUnavailable, "", "Error 503: Service Unavailable"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			svc := NewGroqService(server.URL, "llama-3.3-70b-versatile")

			_, _, err := svc.Generate(context.Background(), nil, "gsk_test")
			var genErr *GenerationError
			if !errors.As(err, &genErr) {
				t.Fatalf("Expected GenerationError, got %v", err)
			}
			if genErr.Message != tc.wantMsg {
				t.Errorf("Expected %q, got %q", tc.wantMsg, genErr.Message)
			}
		})
	}
}

func TestGenerate_BadCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer server.Close()

	svc := NewGroqService(server.URL, "llama-3.3-70b-versatile")

	_, _, err := svc.Generate(context.Background(), nil, "gsk_wrong")
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("Expected GenerationError, got %v", err)
	}
	if !genErr.BadCredential() {
		t.Error("401 must classify as a bad credential")
	}
}

func TestGenerate_MalformedResult(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"assistant content is not JSON", completionEnvelope("Here is your code: Sub X()")},
		{"empty completion envelope", `{"choices":[]}`},
		{"envelope is not JSON", "<html>gateway timeout</html>"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			svc := NewGroqService(server.URL, "llama-3.3-70b-versatile")

			_, _, err := svc.Generate(context.Background(), nil, "gsk_test")
			if !errors.Is(err, ErrMalformedResult) {
				t.Errorf("Expected ErrMalformedResult, got %v", err)
			}
		})
	}
}

func TestGenerate_ContractViolation(t *testing.T) {
	content := `{"code":"","explanation":"Does X.","limitations":""}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionEnvelope(content)))
	}))
	defer server.Close()

	svc := NewGroqService(server.URL, "llama-3.3-70b-versatile")

	_, _, err := svc.Generate(context.Background(), nil, "gsk_test")
	if !errors.Is(err, ErrContractViolation) {
		t.Fatalf("Expected ErrContractViolation, got %v", err)
	}
}

func TestGenerate_TransportFailure(t *testing.T) {
	// Point at a closed server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	svc := NewGroqService(server.URL, "llama-3.3-70b-versatile")

	_, _, err := svc.Generate(context.Background(), nil, "gsk_test")
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("Expected GenerationError, got %v", err)
	}
	if genErr.StatusCode != 0 {
		t.Errorf("Transport failure carries no status, got %d", genErr.StatusCode)
	}
}

func TestHasAlternative_Threshold(t *testing.T) {
	tests := []struct {
		name string
		note string
		want bool
	}{
		{"absent", "", false},
		{"trivial", "N/A", false},
		{"exactly at threshold", "12345678901234567890", false},
		{"informative", "Consider Power Query for this transformation instead.", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := models.GenerationResult{NonVBAAlternative: tc.note}
			if r.HasAlternative() != tc.want {
				t.Errorf("HasAlternative(%q) = %v, want %v", tc.note, r.HasAlternative(), tc.want)
			}
		})
	}
}
