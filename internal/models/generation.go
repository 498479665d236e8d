package models

import "github.com/google/uuid"

// alternativeMinLength is the informativeness threshold: shorter alternative
// notes are treated as "not applicable" by presentation layers.
const alternativeMinLength = 20

// GenerationResult is the fixed four-field object the provider must return.
// Code, Explanation and Limitations are required; NonVBAAlternative is optional.
type GenerationResult struct {
	Code              string `json:"code"`
	Explanation       string `json:"explanation"`
	Limitations       string `json:"limitations"`
	NonVBAAlternative string `json:"non_vba_alternative"`
}

// HasAlternative reports whether the alternative-approach note is long enough
// to be worth showing, preserving the absent vs present-but-trivial distinction.
func (r GenerationResult) HasAlternative() bool {
	return len(r.NonVBAAlternative) > alternativeMinLength
}

// SessionState mirrors the client-side conversation state: the bound chat id
// (nil while unsaved), the accumulated turns, and the last artifact.
type SessionState struct {
	ChatID              *uuid.UUID    `json:"chat_id"`
	ConversationHistory []ChatMessage `json:"conversationHistory"`
	LastGeneratedCode   string        `json:"lastGeneratedCode"`
}

type GenerateRequest struct {
	Prompt  string       `json:"prompt"`
	APIKey  string       `json:"api_key"`
	Session SessionState `json:"session"`
}

type GenerateResponse struct {
	Result  GenerationResult `json:"result"`
	Session SessionState     `json:"session"`
}
