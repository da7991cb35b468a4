// Package openai provides a REST client for the three external speech
// capabilities: transcription (speech→text), single-turn generation
// (prompt→reply), and synthesis (text→speech).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/nanicare/nani-backend/internal/httpc"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Endpoint names used in error context.
const (
	endpointTranscribe = "transcriptions"
	endpointGenerate   = "responses"
	endpointSynthesize = "speech"
)

// Client calls the provider's REST endpoints with retries and typed
// errors. One client serves all three capabilities.
type Client struct {
	config *Config
	client *http.Client
	logger *slog.Logger
}

// NewClient creates a provider client. An API key is required.
func NewClient(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	client := cfg.HTTPClient
	if client == nil {
		client = httpc.NewClient(cfg.Timeout)
	}

	return &Client{
		config: cfg,
		client: client,
		logger: cfg.Logger.With("component", "openai"),
	}, nil
}

// Transcribe sends audio bytes tagged with a container format to the
// transcription endpoint and returns the transcript text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	start := time.Now()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreatePart(fileHeader("file", "input."+format, mimeForFormat(format)))
	if err != nil {
		return "", wrapErr(endpointTranscribe, fmt.Errorf("build form: %w", err))
	}
	if _, err := part.Write(audio); err != nil {
		return "", wrapErr(endpointTranscribe, fmt.Errorf("build form: %w", err))
	}
	if err := w.WriteField("model", c.config.STTModel); err != nil {
		return "", wrapErr(endpointTranscribe, fmt.Errorf("build form: %w", err))
	}
	if err := w.Close(); err != nil {
		return "", wrapErr(endpointTranscribe, fmt.Errorf("build form: %w", err))
	}

	resp, err := c.post(ctx, endpointTranscribe, "/audio/transcriptions", buf.Bytes(), w.FormDataContentType())
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", wrapErr(endpointTranscribe, fmt.Errorf("decode response: %w", err))
	}

	c.logger.Debug("transcribed audio",
		"bytes", len(audio),
		"format", format,
		"chars", len(out.Text),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return out.Text, nil
}

// Generate issues a single-turn request (system + user message) and
// returns the first textual content block of the structured output.
// An output with no text returns "" and no error; the caller decides
// how to degrade.
func (c *Client) Generate(ctx context.Context, system, user string) (string, error) {
	start := time.Now()

	type contentBlock struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	type message struct {
		Role    string         `json:"role"`
		Content []contentBlock `json:"content"`
	}

	input := make([]message, 0, 2)
	if system != "" {
		input = append(input, message{
			Role:    "system",
			Content: []contentBlock{{Type: "input_text", Text: system}},
		})
	}
	input = append(input, message{
		Role:    "user",
		Content: []contentBlock{{Type: "input_text", Text: user}},
	})

	body, err := json.Marshal(map[string]any{
		"model": c.config.GenModel,
		"input": input,
	})
	if err != nil {
		return "", wrapErr(endpointGenerate, fmt.Errorf("marshal payload: %w", err))
	}

	resp, err := c.post(ctx, endpointGenerate, "/responses", body, "application/json")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		Output []struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", wrapErr(endpointGenerate, fmt.Errorf("decode response: %w", err))
	}

	reply := ""
	for _, o := range out.Output {
		for _, block := range o.Content {
			if block.Type == "output_text" || block.Type == "text" {
				reply = block.Text
				break
			}
		}
		if reply != "" {
			break
		}
	}

	c.logger.Debug("generated reply",
		"prompt_chars", len(system)+len(user),
		"reply_chars", len(reply),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return reply, nil
}

// Synthesize converts the reply text to audio in the configured voice
// and output format, returning raw audio bytes.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	start := time.Now()

	body, err := json.Marshal(map[string]any{
		"model":           c.config.TTSModel,
		"voice":           c.config.Voice,
		"input":           text,
		"response_format": c.config.AudioFormat,
	})
	if err != nil {
		return nil, wrapErr(endpointSynthesize, fmt.Errorf("marshal payload: %w", err))
	}

	resp, err := c.post(ctx, endpointSynthesize, "/audio/speech", body, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapErr(endpointSynthesize, fmt.Errorf("read response: %w", err))
	}

	c.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"voice", c.config.Voice,
		"format", c.config.AudioFormat,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return audio, nil
}

// post performs a POST with retry on 429/5xx and converts non-2xx
// responses into *APIError.
func (c *Client) post(ctx context.Context, endpoint, path string, body []byte, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, wrapErr(endpoint, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", contentType)

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, wrapErr(endpoint, ctx.Err())
			case <-time.After(c.config.RetryDelay * time.Duration(attempt)):
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = wrapErr(endpoint, err)
			continue
		}

		if resp.StatusCode == 429 || resp.StatusCode >= 500 {
			lastErr = c.parseError(endpoint, resp)
			resp.Body.Close()
			c.logger.Warn("retrying request",
				"endpoint", endpoint,
				"attempt", attempt+1,
				"status", resp.StatusCode,
			)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			err := c.parseError(endpoint, resp)
			resp.Body.Close()
			return nil, err
		}

		return resp, nil
	}

	return nil, lastErr
}

// parseError reads and parses an error response into *APIError.
func (c *Client) parseError(endpoint string, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    string(body),
		Endpoint:   endpoint,
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		apiErr.Message = errResp.Error.Message
		apiErr.Code = errResp.Error.Code
		apiErr.Detail = json.RawMessage(body)
	}

	return apiErr
}

// fileHeader builds the multipart header for the audio part.
func fileHeader(field, filename, mime string) map[string][]string {
	return map[string][]string{
		"Content-Disposition": {fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename)},
		"Content-Type":        {mime},
	}
}

// mimeForFormat maps an audio container format to its MIME type.
func mimeForFormat(format string) string {
	switch format {
	case "m4a":
		return "audio/m4a"
	case "mp4":
		return "audio/mp4"
	case "wav":
		return "audio/wav"
	case "mp3":
		return "audio/mpeg"
	case "ogg":
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}
