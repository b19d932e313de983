// Package speech renders reply text to audio through the OpenAI speech
// endpoint and exposes the result as an opaque reference the caller can
// fetch later.
package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// Renderer turns reply text into a fetchable audio reference.
type Renderer interface {
	Render(ctx context.Context, text string) (string, error)
}

const (
	defaultBaseURL = "https://api.openai.com"
	defaultModel   = "tts-1"
	defaultVoice   = "alloy"

	// RefPrefix is the public path prefix audio references resolve under.
	RefPrefix = "/audio/"
)

// Client renders speech via POST /v1/audio/speech and stores MP3 files
// in a local directory.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	voice      string
	dir        string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithBaseURL sets the base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithModel sets the speech model.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithVoice sets the voice.
func WithVoice(voice string) Option {
	return func(c *Client) { c.voice = voice }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client writing rendered audio under dir.
func New(dir string, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		voice:      defaultVoice,
		dir:        dir,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type speechRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
	Voice string `json:"voice"`
}

// Render synthesizes text and returns the reference the caller can
// dereference under RefPrefix.
func (c *Client) Render(ctx context.Context, text string) (string, error) {
	body, err := sonic.Marshal(speechRequest{Model: c.model, Input: text, Voice: c.voice})
	if err != nil {
		return "", fmt.Errorf("error encoding speech request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/audio/speech", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("error building speech request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error calling speech endpoint: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("speech endpoint returned %d: %s", resp.StatusCode, snippet)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading speech response: %v", err)
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return "", fmt.Errorf("error creating audio directory: %v", err)
	}

	name := uuid.NewString() + ".mp3"
	if err := os.WriteFile(filepath.Join(c.dir, name), audio, 0644); err != nil {
		return "", fmt.Errorf("error writing audio file: %v", err)
	}

	return RefPrefix + name, nil
}
