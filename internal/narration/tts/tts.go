// Package tts adapts platform and cloud speech synthesis to the narrator.
// Every engine speaks one utterance at a time; Stop cancels whatever is
// playing so a new utterance can start.
package tts

import "errors"

// ErrUnsupportedEngine is returned by NewEngine for unknown engine types.
var ErrUnsupportedEngine = errors.New("unsupported TTS engine type")

// ErrNoEngine is returned by NewEngine when speech is switched off.
var ErrNoEngine = errors.New("speech synthesis disabled")

type Config struct {
	Type      string
	Speed     float64
	Volume    float64
	Voice     string
	CachePath string
}

// Engine interface for text-to-speech functionality
type Engine interface {
	// Speak starts synthesizing text. It does not wait for playback to end.
	Speak(text string) error
	// Stop cancels the current utterance. Stopping an idle engine is a no-op.
	Stop() error
	IsPlaying() bool
	GetAvailableVoices() ([]string, error)
}

// Availability is the outcome of probing for a speech capability.
type Availability int

const (
	// AvailabilityUnknown means no probe has run yet.
	AvailabilityUnknown Availability = iota
	Available
	Unavailable
)

func (a Availability) String() string {
	switch a {
	case Available:
		return "available"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Prober detects whether a speech capability exists in the environment.
type Prober interface {
	Probe() Availability
}

// ProbeFunc adapts a function to Prober.
type ProbeFunc func() Availability

func (f ProbeFunc) Probe() Availability { return f() }
