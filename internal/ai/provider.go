// Package ai provides the generation provider consumed by the metered
// image/content methods. Providers are selected by a platform tag; each one
// exposes a single capability, Generate.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Platform tags.
const (
	PlatformGemini = "gemini"
	PlatformOpenAI = "openai"
)

// ErrUnimplemented marks a recognized platform with no working client yet.
// It is distinct from provider call failures so callers can fail fast.
var ErrUnimplemented = errors.New("generation platform not implemented")

// Part is one caller-supplied piece of generation input: text or inline
// base64 data.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData is binary content carried inline, base64 encoded.
type InlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Content is one piece of generated output.
type Content struct {
	Parts []Part `json:"parts"`
}

// Generator produces content from caller-supplied parts.
type Generator interface {
	Generate(ctx context.Context, parts []Part) ([]Content, error)
}

// Config selects and configures a provider.
type Config struct {
	Platform string
	APIKey   string
	Model    string
	// BaseURL overrides the provider endpoint, used by tests.
	BaseURL string
	Timeout time.Duration
}

// New creates the generator for the configured platform.
func New(cfg Config) (Generator, error) {
	switch cfg.Platform {
	case PlatformGemini:
		return newGemini(cfg), nil
	case PlatformOpenAI:
		return &unimplemented{platform: PlatformOpenAI}, nil
	default:
		return nil, fmt.Errorf("unknown generation platform: %q", cfg.Platform)
	}
}

// unimplemented is a recognized platform without a client. Generate fails
// fast without any network activity.
type unimplemented struct {
	platform string
}

func (u *unimplemented) Generate(context.Context, []Part) ([]Content, error) {
	return nil, fmt.Errorf("%w: %s", ErrUnimplemented, u.platform)
}

func httpClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
