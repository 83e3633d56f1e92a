package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"focusnarrator/internal/narration/tts"

	"github.com/spf13/viper"
)

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	c, err := LoadFrom(newViper())
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if !c.Narrator.Enabled || !c.Narrator.KeyboardGate {
		t.Errorf("narrator defaults = %+v, want enabled with keyboard gate", c.Narrator)
	}
	if c.Narrator.SpeakDelay != 50*time.Millisecond {
		t.Errorf("SpeakDelay = %v", c.Narrator.SpeakDelay)
	}
	if c.Announcer.ClearDelay != time.Second || c.Announcer.FocusDelay != 100*time.Millisecond {
		t.Errorf("announcer delays = %v/%v", c.Announcer.ClearDelay, c.Announcer.FocusDelay)
	}
	if c.Announcer.MainID != "main-content" {
		t.Errorf("MainID = %q", c.Announcer.MainID)
	}
	if c.TTS.Type != tts.EngineTypeAuto.String() {
		t.Errorf("TTS.Type = %q", c.TTS.Type)
	}
}

func TestLoadOverrides(t *testing.T) {
	v := newViper()
	v.Set(KeyKeyboardGate, false)
	v.Set(KeySpeakDelay, "120ms")
	v.Set(KeyTTSType, "ESpeak")
	v.Set(KeyTTSVolume, 0.5)

	c, err := LoadFrom(v)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if c.Narrator.KeyboardGate {
		t.Error("KeyboardGate = true, want false")
	}
	if c.Narrator.SpeakDelay != 120*time.Millisecond {
		t.Errorf("SpeakDelay = %v", c.Narrator.SpeakDelay)
	}

	got := c.TTSConfig()
	if got.Type != "espeak" || got.Volume != 0.5 {
		t.Errorf("TTSConfig() = %+v", got)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{"unknown engine", KeyTTSType, "festival"},
		{"zero speed", KeyTTSSpeed, 0},
		{"loud volume", KeyTTSVolume, 1.5},
		{"negative delay", KeySpeakDelay, "-1s"},
		{"empty main id", KeyMainID, ""},
		{"bad log level", KeyLogLevel, "chatty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.value)
			if _, err := LoadFrom(v); err == nil {
				t.Errorf("LoadFrom() with %s=%v succeeded", tt.key, tt.value)
			}
		})
	}
}

func TestUnknownEngineWrapsSentinel(t *testing.T) {
	v := newViper()
	v.Set(KeyTTSType, "festival")
	_, err := LoadFrom(v)
	if !errors.Is(err, tts.ErrUnsupportedEngine) {
		t.Errorf("error = %v, want ErrUnsupportedEngine", err)
	}
}

func TestInitReadsConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Reset()

	path := filepath.Join(t.TempDir(), "focusnarrator.yaml")
	data := []byte("narrator:\n  keyboard_gate: false\ntts:\n  type: mock\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Init(path); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Narrator.KeyboardGate || c.TTS.Type != "mock" {
		t.Errorf("config = %+v, want file values", c)
	}
	if !c.Narrator.Enabled {
		t.Error("defaults lost after reading file")
	}
}

func TestInitEnvironment(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Reset()
	t.Setenv("FOCUSNARRATOR_TTS_TYPE", "none")

	if err := Init(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Init() with a missing explicit file succeeded")
	}

	viper.Reset()
	if err := Init(""); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.TTS.Type != "none" {
		t.Errorf("TTS.Type = %q, want value from environment", c.TTS.Type)
	}
}
