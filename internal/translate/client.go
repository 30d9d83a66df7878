// Package translate provides the translation provider client.
//
// The provider speaks an OpenAI-compatible chat-completion API. The client
// sends the full source text with a persona-preserving instruction and
// returns the translated text verbatim.
package translate

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

	"github.com/glowline/audio-service/internal/core"
)

// API endpoints and headers.
const (
	apiChatCompletions  = "/v1/chat/completions"
	headerContentType   = "Content-Type"
	headerAuthorization = "Authorization"
	contentTypeJSON     = "application/json"
)

// Request parameters.
const (
	roleSystem = "system"
	roleUser   = "user"

	// translationTemperature keeps the provider from wandering creatively;
	// translations must stay stable across regeneration attempts.
	translationTemperature = 0.1
	translationMaxTokens   = 2000
)

// systemInstructionFormat is passed to the provider verbatim. Preserving the
// author's tone and register across languages is a product requirement.
const systemInstructionFormat = "You are a highly accurate and fluent translator. " +
	"Translate the following English text into %s, preserving the author's tone, " +
	"register, and persona. Provide only the translated text, with no additional " +
	"commentary or formatting."

// Static errors.
var (
	ErrTextEmpty        = errors.New("text cannot be empty")
	ErrEmptyTranslation = errors.New("provider returned an empty translation")
)

// Error formats.
const (
	errFmtProviderError     = "translation provider error (%s): %s"
	errFmtProviderNonOK     = "translation provider returned non-OK status: %s, body: %s"
	errFmtNoChoicesReturned = "%w: no choices in provider response"
)

// Client is an HTTP client for the translation provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewClient creates a translation client. The baseURL should include the
// protocol and host (e.g., "https://api.openai.com"). The timeout applies to
// every request made by this client.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
	}
}

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

type providerErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Translate returns text in the target language. Source-language input is
// returned unchanged without a provider call. An empty provider result is an
// error, never an empty narration.
func (c *Client) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	if text == "" {
		return "", ErrTextEmpty
	}

	if targetLanguage == core.SourceLanguage {
		return text, nil
	}

	instruction := fmt.Sprintf(systemInstructionFormat, LanguageName(targetLanguage))

	requestBody, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: roleSystem, Content: instruction},
			{Role: roleUser, Content: text},
		},
		Temperature: translationTemperature,
		MaxTokens:   translationMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal translation request: %w", err)
	}

	url := c.baseURL + apiChatCompletions

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create translation request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAuthorization, "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request to translation provider at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.parseErrorResponse(resp)
	}

	var parsed chatResponse

	err = json.NewDecoder(resp.Body).Decode(&parsed)
	if err != nil {
		return "", fmt.Errorf("failed to decode translation response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf(errFmtNoChoicesReturned, ErrEmptyTranslation)
	}

	translation := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if translation == "" {
		return "", ErrEmptyTranslation
	}

	return translation, nil
}

// parseErrorResponse attempts to decode a structured JSON error from the
// provider, falling back to the raw body so diagnostics are preserved.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errorResp providerErrorResponse

	err := json.NewDecoder(resp.Body).Decode(&errorResp)
	if err == nil && errorResp.Error.Message != "" {
		return fmt.Errorf(errFmtProviderError, resp.Status, errorResp.Error.Message)
	}

	body, _ := io.ReadAll(resp.Body)

	return fmt.Errorf(errFmtProviderNonOK, resp.Status, string(body))
}
