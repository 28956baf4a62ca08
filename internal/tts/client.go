package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/docvoice/docvoice/internal/audio"
)

// Client synthesizes speech through an OpenAI-compatible /v1/audio/speech
// endpoint, such as a local Kokoro server. Responses are requested as raw
// PCM and decoded into sample buffers.
type Client struct {
	api        openai.Client
	model      string
	voice      string
	speed      float64
	sampleRate int
}

type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Voice      string
	Speed      float64
	SampleRate int
	Timeout    time.Duration
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.Speed <= 0 {
		cfg.Speed = 1.0
	}
	opts := []option.RequestOption{
		option.WithBaseURL(cfg.BaseURL),
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	return &Client{
		api:        openai.NewClient(opts...),
		model:      cfg.Model,
		voice:      cfg.Voice,
		speed:      cfg.Speed,
		sampleRate: cfg.SampleRate,
	}
}

// WithVoice returns a client using the given voice and speed. Empty voice
// or zero speed keep the configured defaults.
func (c *Client) WithVoice(voice string, speed float64) *Client {
	if voice == "" && speed <= 0 {
		return c
	}
	clone := *c
	if voice != "" {
		clone.voice = voice
	}
	if speed > 0 {
		clone.speed = speed
	}
	return &clone
}

// Synthesize converts one text chunk to audio.
func (c *Client) Synthesize(ctx context.Context, text string) (audio.Clip, error) {
	resp, err := c.api.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(c.model),
		Input:          text,
		Voice:          openai.AudioSpeechNewParamsVoice(c.voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatPCM,
		Speed:          openai.Float(c.speed),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500 {
				return audio.Clip{}, &RetryableError{
					StatusCode: apiErr.StatusCode,
					Message:    apiErr.Message,
				}
			}
			return audio.Clip{}, fmt.Errorf("tts api status %d: %s", apiErr.StatusCode, apiErr.Message)
		}
		return audio.Clip{}, fmt.Errorf("tts api: %w", err)
	}
	defer resp.Body.Close()

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("read audio: %w", err)
	}
	if len(pcm) < 2 {
		return audio.Clip{}, fmt.Errorf("empty audio for chunk (%d chars)", len(text))
	}

	return audio.Clip{
		Samples: audio.DecodePCM16(pcm),
		Rate:    c.sampleRate,
	}, nil
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
