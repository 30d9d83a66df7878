// Package synth converts narration text into a single binary audio stream.
//
// Long text is split into provider-safe chunks, each chunk is synthesized by
// an OpenAI-compatible speech API, and the chunk buffers are joined by raw
// byte concatenation in their original order.
package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// API endpoints and headers.
const (
	apiAudioSpeech      = "/v1/audio/speech"
	headerContentType   = "Content-Type"
	headerAuthorization = "Authorization"
	headerAccept        = "Accept"
	contentTypeJSON     = "application/json"
	contentTypeMPEG     = "audio/mpeg"
)

// Static errors.
var (
	ErrChunkTextEmpty = errors.New("chunk text cannot be empty")
	ErrEmptyAudio     = errors.New("received empty audio data")
)

// Error formats.
const (
	errFmtProviderError = "speech provider error (%s): %s"
	errFmtProviderNonOK = "speech provider returned non-OK status: %s, body: %s"
)

// Client is an HTTP client for the speech synthesis provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewClient creates a speech client. The baseURL should include the protocol
// and host. The timeout applies to every chunk request made by this client.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
	}
}

// speechRequest is the JSON payload for one synthesis call. The provider
// imposes the input size cap that the chunker exists to satisfy.
type speechRequest struct {
	Model string  `json:"model"`
	Input string  `json:"input"`
	Voice string  `json:"voice"`
	Speed float64 `json:"speed"`
}

type providerErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateSpeech synthesizes one text chunk and returns the raw audio bytes.
func (c *Client) GenerateSpeech(ctx context.Context, text, voice string, speed float64) ([]byte, error) {
	if text == "" {
		return nil, ErrChunkTextEmpty
	}

	requestBody, err := json.Marshal(speechRequest{
		Model: c.model,
		Input: text,
		Voice: voice,
		Speed: speed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal speech request: %w", err)
	}

	url := c.baseURL + apiAudioSpeech

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create speech request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAuthorization, "Bearer "+c.apiKey)
	httpReq.Header.Set(headerAccept, contentTypeMPEG)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to speech provider at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, ErrEmptyAudio
	}

	return audioData, nil
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
