// Package config provides environment configuration for the nani backend.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults mirror the original deployment so existing clients keep working.
const (
	DefaultHost        = "127.0.0.1"
	DefaultPort        = "4000"
	DefaultSTTModel    = "whisper-1"
	DefaultGenModel    = "gpt-4o-mini"
	DefaultTTSModel    = "gpt-4o-mini-tts"
	DefaultVoice       = "alloy"
	DefaultAudioFormat = "wav"

	DefaultMaxAudioBytes = 15 * 1024 * 1024

	DefaultPollInterval    = 1000 * time.Millisecond
	DefaultTriggerCooldown = 10000 * time.Millisecond
)

// audioFormats are the synthesis output formats the speech API accepts.
var audioFormats = map[string]bool{
	"wav":  true,
	"mp3":  true,
	"opus": true,
	"aac":  true,
	"flac": true,
}

// Config holds the full backend configuration.
type Config struct {
	Host string
	Port string

	// Provider credential and model identifiers.
	APIKey   string
	STTModel string
	GenModel string
	TTSModel string
	Voice    string

	// AudioFormat is the synthesis output container (wav|mp3|opus|aac|flac).
	AudioFormat string

	// MaxAudioBytes bounds the multipart audio upload.
	MaxAudioBytes int

	// Sheet polling. Empty SheetID disables the subsystem.
	SheetID         string
	SheetGID        string
	PollInterval    time.Duration
	TriggerCooldown time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment.
// It fails only when the provider credential is missing; everything
// else falls back to defaults.
func Load() (*Config, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required; add it to your environment or .env file")
	}

	cfg := &Config{
		Host:            envStr("HOST", DefaultHost),
		Port:            envStr("PORT", DefaultPort),
		APIKey:          apiKey,
		STTModel:        envStr("OPENAI_STT_MODEL", DefaultSTTModel),
		GenModel:        envStr("OPENAI_GEN_MODEL", DefaultGenModel),
		TTSModel:        envStr("OPENAI_TTS_MODEL", DefaultTTSModel),
		Voice:           envStr("OPENAI_SPEECH_VOICE", DefaultVoice),
		AudioFormat:     envStr("OPENAI_AUDIO_FORMAT", DefaultAudioFormat),
		MaxAudioBytes:   envInt("MAX_AUDIO_BYTES", DefaultMaxAudioBytes),
		SheetID:         os.Getenv("SHEET_ID"),
		SheetGID:        envStr("SHEET_GID", "0"),
		PollInterval:    envMillis("SHEET_POLL_MS", DefaultPollInterval),
		TriggerCooldown: envMillis("SHEET_ZERO_COOLDOWN_MS", DefaultTriggerCooldown),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		LogFormat:       envStr("LOG_FORMAT", "text"),
	}

	if !audioFormats[cfg.AudioFormat] {
		return nil, fmt.Errorf("OPENAI_AUDIO_FORMAT %q is not one of wav|mp3|opus|aac|flac", cfg.AudioFormat)
	}

	return cfg, nil
}

// SheetEnabled reports whether the sheet polling subsystem is configured.
func (c *Config) SheetEnabled() bool {
	return c.SheetID != ""
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envMillis(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}
