package openai

import (
	"log/slog"
	"net/http"
	"time"
)

// Config holds provider client configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	APIKey  string
	BaseURL string

	// Model identifiers per capability.
	STTModel string
	GenModel string
	TTSModel string

	// Speech synthesis output.
	Voice       string
	AudioFormat string

	// Timeouts and retries.
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	// Observability.
	Logger *slog.Logger

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Option is a functional option for configuring the client.
type Option func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithSTTModel sets the transcription model.
func WithSTTModel(model string) Option {
	return func(c *Config) { c.STTModel = model }
}

// WithGenModel sets the text generation model.
func WithGenModel(model string) Option {
	return func(c *Config) { c.GenModel = model }
}

// WithTTSModel sets the speech synthesis model.
func WithTTSModel(model string) Option {
	return func(c *Config) { c.TTSModel = model }
}

// WithVoice sets the synthesis voice.
func WithVoice(voice string) Option {
	return func(c *Config) { c.Voice = voice }
}

// WithAudioFormat sets the synthesis output container.
func WithAudioFormat(format string) Option {
	return func(c *Config) { c.AudioFormat = format }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) { c.Timeout = timeout }
}

// WithRetry configures retry behavior for 429/5xx responses.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// WithClient overrides the HTTP client.
func WithClient(client *http.Client) Option {
	return func(c *Config) { c.HTTPClient = client }
}

// DefaultConfig returns sensible defaults. Retries stay low so a voice
// exchange remains interactive.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     defaultBaseURL,
		STTModel:    "whisper-1",
		GenModel:    "gpt-4o-mini",
		TTSModel:    "gpt-4o-mini-tts",
		Voice:       "alloy",
		AudioFormat: "wav",
		Timeout:     60 * time.Second,
		MaxRetries:  2,
		RetryDelay:  200 * time.Millisecond,
		Logger:      slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
