// Package exchange orchestrates one voice exchange: validate input,
// transcribe audio, generate a reply with the assembled system prompt,
// and synthesize speech for the reply.
package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nanicare/nani-backend/pkg/prompt"
	"github.com/nanicare/nani-backend/pkg/sheet"
)

// DefaultFillerReply replaces a generation result that carried no
// textual content. Producing no text is a soft degradation, not a
// failure; the patient still hears something.
const DefaultFillerReply = "Okay."

// Transcriber converts audio bytes in the given container format to
// text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, format string) (string, error)
}

// Generator produces a reply for a single system + user turn.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Synthesizer converts reply text to audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// SheetSnapshot returns the latest cached sheet record, if any.
type SheetSnapshot func() (sheet.Record, bool)

// Request is one inbound voice exchange.
type Request struct {
	Audio    []byte
	MIMEType string
	Filename string
	Text     string
	Context  string
}

// Result is a completed exchange. Transient; never persisted.
type Result struct {
	Text        string
	AudioFormat string
	Audio       []byte
}

// Orchestrator chains the three external capabilities for each
// request. Concurrent requests are independent; the only shared state
// is the read-only sheet snapshot.
type Orchestrator struct {
	stt Transcriber
	gen Generator
	tts Synthesizer

	plan        prompt.DayPlan
	snapshot    SheetSnapshot
	audioFormat string
	filler      string
	logger      *slog.Logger
	now         func() time.Time
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithDayPlan sets the daily scenario rendered into the system prompt.
func WithDayPlan(plan prompt.DayPlan) OrchestratorOption {
	return func(o *Orchestrator) { o.plan = plan }
}

// WithSheetSnapshot wires the poller's cached record into prompt
// assembly.
func WithSheetSnapshot(fn SheetSnapshot) OrchestratorOption {
	return func(o *Orchestrator) { o.snapshot = fn }
}

// WithAudioFormat sets the synthesis output format reported in results
// and used as the inference fallback for uploads.
func WithAudioFormat(format string) OrchestratorOption {
	return func(o *Orchestrator) { o.audioFormat = format }
}

// WithFillerReply overrides the reply used when generation produces no
// text.
func WithFillerReply(s string) OrchestratorOption {
	return func(o *Orchestrator) { o.filler = s }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithNow overrides the time source, mainly for tests.
func WithNow(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an orchestrator over the three capabilities.
func New(stt Transcriber, gen Generator, tts Synthesizer, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		stt:         stt,
		gen:         gen,
		tts:         tts,
		plan:        prompt.DemoPlan(),
		audioFormat: "wav",
		filler:      DefaultFillerReply,
		logger:      slog.Default().With("component", "exchange"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Handle runs one exchange end to end. Any stage failure short-circuits
// with the stage's error; the HTTP layer translates it.
func (o *Orchestrator) Handle(ctx context.Context, req Request) (*Result, error) {
	userText := strings.TrimSpace(req.Text)
	hasAudio := len(req.Audio) > 0

	if !hasAudio && userText == "" {
		return nil, ErrMissingInput
	}

	if hasAudio {
		format := InferFormat(req.MIMEType, req.Filename, o.audioFormat)
		transcript, err := o.stt.Transcribe(ctx, req.Audio, format)
		if err != nil {
			o.logger.Error("transcription failed", "error", err)
			return nil, fmt.Errorf("transcribe: %w", err)
		}
		// Typed text first, then the transcript.
		if userText != "" {
			userText = userText + "\n\n" + transcript
		} else {
			userText = transcript
		}
		userText = strings.TrimSpace(userText)
	}

	if userText == "" {
		return nil, ErrEmptyTranscript
	}

	var entry sheet.Record
	if o.snapshot != nil {
		entry, _ = o.snapshot()
	}
	system := prompt.BuildSystemPrompt(o.now(), o.plan, entry, req.Context)

	reply, err := o.gen.Generate(ctx, system, userText)
	if err != nil {
		o.logger.Error("generation failed", "error", err)
		return nil, fmt.Errorf("generate: %w", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		o.logger.Warn("generation returned no text, using filler reply")
		reply = o.filler
	}

	audio, err := o.tts.Synthesize(ctx, reply)
	if err != nil {
		o.logger.Error("synthesis failed", "error", err)
		return nil, fmt.Errorf("synthesize: %w", err)
	}

	return &Result{
		Text:        reply,
		AudioFormat: o.audioFormat,
		Audio:       audio,
	}, nil
}
