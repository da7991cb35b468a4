package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nanicare/nani-backend/pkg/openai"
)

func newTestClient(t *testing.T, handler http.Handler, opts ...openai.Option) *openai.Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	base := []openai.Option{
		openai.WithAPIKey("test-key"),
		openai.WithBaseURL(ts.URL),
		openai.WithClient(ts.Client()),
		openai.WithRetry(0, time.Millisecond),
	}
	c, err := openai.NewClient(append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := openai.NewClient(); !errors.Is(err, openai.ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestTranscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("posts multipart and returns text", func(t *testing.T) {
		var gotModel, gotFilename, gotMime, gotAuth string
		var gotAudio []byte

		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/audio/transcriptions" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			gotAuth = r.Header.Get("Authorization")
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Fatalf("parse form: %v", err)
			}
			gotModel = r.FormValue("model")
			f, fh, err := r.FormFile("file")
			if err != nil {
				t.Fatalf("form file: %v", err)
			}
			defer f.Close()
			gotFilename = fh.Filename
			gotMime = fh.Header.Get("Content-Type")
			gotAudio, _ = io.ReadAll(f)
			_ = json.NewEncoder(w).Encode(map[string]string{"text": "hello there"})
		}), openai.WithSTTModel("whisper-1"))

		text, err := c.Transcribe(ctx, []byte("fake-audio"), "m4a")
		if err != nil {
			t.Fatalf("Transcribe: %v", err)
		}
		if text != "hello there" {
			t.Errorf("got transcript %q", text)
		}
		if gotAuth != "Bearer test-key" {
			t.Errorf("got auth %q", gotAuth)
		}
		if gotModel != "whisper-1" {
			t.Errorf("got model %q", gotModel)
		}
		if gotFilename != "input.m4a" {
			t.Errorf("got filename %q", gotFilename)
		}
		if gotMime != "audio/m4a" {
			t.Errorf("got mime %q", gotMime)
		}
		if string(gotAudio) != "fake-audio" {
			t.Errorf("got audio %q", gotAudio)
		}
	})

	t.Run("provider error surfaces as APIError", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"invalid audio","code":"invalid_request"}}`))
		}))

		_, err := c.Transcribe(ctx, []byte("x"), "wav")
		var apiErr *openai.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %v", err)
		}
		if apiErr.StatusCode != http.StatusBadRequest {
			t.Errorf("got status %d", apiErr.StatusCode)
		}
		if apiErr.Message != "invalid audio" || apiErr.Code != "invalid_request" {
			t.Errorf("got message %q code %q", apiErr.Message, apiErr.Code)
		}
		if apiErr.Detail == nil {
			t.Error("expected raw detail preserved")
		}
	})
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("sends system and user messages", func(t *testing.T) {
		var payload struct {
			Model string `json:"model"`
			Input []struct {
				Role    string `json:"role"`
				Content []struct {
					Type string `json:"type"`
					Text string `json:"text"`
				} `json:"content"`
			} `json:"input"`
		}

		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/responses" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Fatalf("decode payload: %v", err)
			}
			_, _ = w.Write([]byte(`{"output":[{"content":[{"type":"output_text","text":"Take your Metformin."}]}]}`))
		}), openai.WithGenModel("gpt-4o-mini"))

		reply, err := c.Generate(ctx, "you are a helper", "what now?")
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if reply != "Take your Metformin." {
			t.Errorf("got reply %q", reply)
		}
		if payload.Model != "gpt-4o-mini" {
			t.Errorf("got model %q", payload.Model)
		}
		if len(payload.Input) != 2 ||
			payload.Input[0].Role != "system" ||
			payload.Input[1].Role != "user" {
			t.Fatalf("unexpected input shape: %+v", payload.Input)
		}
		if payload.Input[0].Content[0].Text != "you are a helper" {
			t.Errorf("system text %q", payload.Input[0].Content[0].Text)
		}
		if payload.Input[1].Content[0].Type != "input_text" {
			t.Errorf("user block type %q", payload.Input[1].Content[0].Type)
		}
	})

	t.Run("skips non-text blocks", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"output":[{"content":[{"type":"reasoning","text":"internal"},{"type":"text","text":"reply"}]}]}`))
		}))

		reply, err := c.Generate(ctx, "", "hi")
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if reply != "reply" {
			t.Errorf("got reply %q", reply)
		}
	})

	t.Run("empty output is not an error", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"output":[]}`))
		}))

		reply, err := c.Generate(ctx, "", "hi")
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if reply != "" {
			t.Errorf("expected empty reply, got %q", reply)
		}
	})
}

func TestSynthesize(t *testing.T) {
	ctx := context.Background()

	t.Run("returns raw audio bytes", func(t *testing.T) {
		var payload map[string]any
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/audio/speech" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Fatalf("decode payload: %v", err)
			}
			_, _ = w.Write([]byte("RIFF-audio-bytes"))
		}), openai.WithTTSModel("gpt-4o-mini-tts"), openai.WithVoice("alloy"), openai.WithAudioFormat("wav"))

		audio, err := c.Synthesize(ctx, "Take your Metformin.")
		if err != nil {
			t.Fatalf("Synthesize: %v", err)
		}
		if string(audio) != "RIFF-audio-bytes" {
			t.Errorf("got audio %q", audio)
		}
		if payload["voice"] != "alloy" || payload["response_format"] != "wav" {
			t.Errorf("unexpected payload: %v", payload)
		}
		if payload["input"] != "Take your Metformin." {
			t.Errorf("unexpected input: %v", payload["input"])
		}
	})

	t.Run("non-JSON error body kept verbatim", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusPaymentRequired)
			_, _ = w.Write([]byte("quota exceeded"))
		}))

		_, err := c.Synthesize(ctx, "hi")
		var apiErr *openai.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %v", err)
		}
		if apiErr.Message != "quota exceeded" {
			t.Errorf("got message %q", apiErr.Message)
		}
		if apiErr.Detail != nil {
			t.Error("non-JSON body must not populate detail")
		}
		if !strings.Contains(apiErr.Error(), "402") {
			t.Errorf("status missing from error string: %v", apiErr)
		}
	})
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("retries 429 then succeeds", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = w.Write([]byte(`{"output":[{"content":[{"type":"output_text","text":"ok"}]}]}`))
		}), openai.WithRetry(2, time.Millisecond))

		reply, err := c.Generate(ctx, "", "hi")
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if reply != "ok" {
			t.Errorf("got reply %q", reply)
		}
		if calls.Load() != 2 {
			t.Errorf("expected 2 calls, got %d", calls.Load())
		}
	})

	t.Run("exhausted retries return last error", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}), openai.WithRetry(1, time.Millisecond))

		_, err := c.Generate(ctx, "", "hi")
		var apiErr *openai.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %v", err)
		}
		if !apiErr.IsServerError() || !apiErr.IsRetryable() {
			t.Errorf("classification wrong for %v", apiErr)
		}
		if calls.Load() != 2 {
			t.Errorf("expected 2 calls, got %d", calls.Load())
		}
	})

	t.Run("4xx is not retried", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		}), openai.WithRetry(3, time.Millisecond))

		_, err := c.Generate(ctx, "", "hi")
		if err == nil {
			t.Fatal("expected error")
		}
		if calls.Load() != 1 {
			t.Errorf("expected 1 call, got %d", calls.Load())
		}
	})
}
