package tts

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

type EngineType string

const (
	EngineTypeMock          EngineType = "mock"
	EngineTypeESpeak        EngineType = "espeak"
	EngineTypeSay           EngineType = "say" // macOS only
	EngineTypeGoogleClassic EngineType = "googleclassic"
	EngineTypeNone          EngineType = "none"
	EngineTypeAuto          EngineType = "auto" // Automatically choose best for platform
)

func (e EngineType) String() string {
	return string(e)
}

// NewEngine creates a new TTS engine based on the provided config
func NewEngine(config Config) (Engine, error) {
	if config.Type == EngineTypeAuto.String() {
		config.Type = getBestEngineForPlatform().String()
	}

	switch config.Type {
	case EngineTypeMock.String():
		return NewMockEngine(), nil

	case EngineTypeGoogleClassic.String():
		return newGoogleClassicTTSEngine(config)

	case EngineTypeESpeak.String():
		return newESpeakEngine(config)

	case EngineTypeSay.String():
		return newSayEngine(config)

	case EngineTypeNone.String():
		return nil, ErrNoEngine

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEngine, config.Type)
	}
}

// ProberFor returns a Prober that checks whether the engine type can run on
// this machine without constructing it.
func ProberFor(engineType string) Prober {
	return ProbeFunc(func() Availability {
		t := EngineType(engineType)
		if t == EngineTypeAuto {
			t = getBestEngineForPlatform()
		}
		switch t {
		case EngineTypeMock:
			return Available
		case EngineTypeESpeak:
			if _, err := findESpeakExecutable(); err == nil {
				return Available
			}
		case EngineTypeSay:
			if _, err := findSayExecutable(); err == nil {
				return Available
			}
		case EngineTypeGoogleClassic:
			if hasGoogleCredentials() {
				return Available
			}
		}
		return Unavailable
	})
}

// getBestEngineForPlatform returns the recommended engine for the current platform
func getBestEngineForPlatform() EngineType {
	if hasGoogleCredentials() {
		return EngineTypeGoogleClassic
	}

	switch runtime.GOOS {
	case "darwin":
		if _, err := exec.LookPath("say"); err == nil {
			return EngineTypeSay
		}
		return EngineTypeESpeak
	default:
		return EngineTypeESpeak // Cross-platform fallback
	}
}

// GetAvailableEngines returns every concrete engine type, in preference
// order, for display alongside its probed availability.
func GetAvailableEngines() []EngineType {
	return []EngineType{
		EngineTypeGoogleClassic,
		EngineTypeSay,
		EngineTypeESpeak,
		EngineTypeMock,
	}
}

// hasGoogleCredentials checks if Google Cloud credentials are available
func hasGoogleCredentials() bool {
	_, ok := os.LookupEnv("GOOGLE_APPLICATION_CREDENTIALS")
	return ok
}
