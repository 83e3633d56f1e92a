package tts

import (
	"io"
	"sync"

	"github.com/fatih/color"
)

// Op names recorded by MockEngine.
const (
	OpSpeak = "speak"
	OpStop  = "stop"
)

// Call is one recorded engine interaction.
type Call struct {
	Op   string
	Text string
}

// MockEngine records every Speak and Stop. An utterance counts as playing
// until Stop or Finish. With an output writer attached it prints what it
// would say instead, and the utterance is over once printed; that is how
// the CLI narrates without audio.
type MockEngine struct {
	mu      sync.Mutex
	calls   []Call
	playing bool
	out     io.Writer
}

func NewMockEngine() *MockEngine {
	return &MockEngine{}
}

// WithOutput makes the engine print each utterance to w.
func (m *MockEngine) WithOutput(w io.Writer) *MockEngine {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.out = w
	return m
}

func (m *MockEngine) Speak(text string) error {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Op: OpSpeak, Text: text})
	out := m.out
	m.playing = out == nil
	m.mu.Unlock()

	if out != nil {
		color.New(color.FgYellow).Fprintf(out, "🔊 %s\n", text)
	}
	return nil
}

func (m *MockEngine) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: OpStop})
	m.playing = false
	return nil
}

// Finish marks the current utterance as played to completion.
func (m *MockEngine) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
}

func (m *MockEngine) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

func (m *MockEngine) GetAvailableVoices() ([]string, error) {
	return []string{"mock-voice"}, nil
}

// Calls returns a copy of the recorded interactions in order.
func (m *MockEngine) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Spoken returns the texts passed to Speak, in order.
func (m *MockEngine) Spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, c := range m.calls {
		if c.Op == OpSpeak {
			out = append(out, c.Text)
		}
	}
	return out
}

// Reset forgets recorded calls.
func (m *MockEngine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}
