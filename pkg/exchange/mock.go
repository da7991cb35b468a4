package exchange

import (
	"context"
	"sync"
)

// Mock implements Transcriber, Generator, and Synthesizer for testing.
// All methods can be customized via function fields; nil fields return
// canned values.
type Mock struct {
	// TranscribeFunc is called when Transcribe is invoked.
	// If nil, returns "mock transcript".
	TranscribeFunc func(ctx context.Context, audio []byte, format string) (string, error)

	// GenerateFunc is called when Generate is invoked.
	// If nil, echoes the user text.
	GenerateFunc func(ctx context.Context, system, user string) (string, error)

	// SynthesizeFunc is called when Synthesize is invoked.
	// If nil, returns a short fake audio buffer.
	SynthesizeFunc func(ctx context.Context, text string) ([]byte, error)

	mu    sync.Mutex
	calls []string
}

// Transcribe calls TranscribeFunc and records the call.
func (m *Mock) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	m.record("Transcribe")
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audio, format)
	}
	return "mock transcript", nil
}

// Generate calls GenerateFunc and records the call.
func (m *Mock) Generate(ctx context.Context, system, user string) (string, error) {
	m.record("Generate")
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, system, user)
	}
	return user, nil
}

// Synthesize calls SynthesizeFunc and records the call.
func (m *Mock) Synthesize(ctx context.Context, text string) ([]byte, error) {
	m.record("Synthesize")
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text)
	}
	return []byte("RIFF-mock-audio"), nil
}

func (m *Mock) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, method)
}

// Calls returns the recorded method names in invocation order.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times a method was invoked.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == method {
			n++
		}
	}
	return n
}

// Verify Mock satisfies the capability interfaces at compile time.
var (
	_ Transcriber = (*Mock)(nil)
	_ Generator   = (*Mock)(nil)
	_ Synthesizer = (*Mock)(nil)
)
