package app

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"focusnarrator/internal/config"
	"focusnarrator/internal/narration/tts"

	"github.com/fatih/color"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{LogLevel: "warn"}
	c.Narrator.Enabled = true
	c.Narrator.KeyboardGate = true
	c.Narrator.SpeakDelay = 50 * time.Millisecond
	c.Announcer.ClearDelay = time.Second
	c.Announcer.FocusDelay = 100 * time.Millisecond
	c.Announcer.MainID = "main-content"
	c.TTS.Type = "mock"
	c.TTS.Voice = "default"
	c.TTS.Speed = 1
	c.TTS.Volume = 0.8
	c.TTS.CachePath = t.TempDir()
	c.TTS.VoiceCacheMaxAge = time.Hour
	return c
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := New(cfg, WithOutput(&out))
	t.Cleanup(a.Cancel)
	cmd := a.RootCommand()
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func fixture(name string) string {
	return filepath.Join("testdata", name)
}

func TestResolveElement(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"data-narrate label", []string{"resolve", fixture("users.html"), "add-user"}, "Add new user"},
		{"aria-label", []string{"resolve", fixture("users.html"), "edit-alice"}, "Edit Alice Johnson"},
		{"labelledby", []string{"resolve", fixture("users.html"), "search"}, "Search users"},
		{"own text", []string{"resolve", fixture("users.html"), "dialog-cancel"}, "Cancel"},
		{"flag wins", []string{"resolve", fixture("users.html"), "add-user", "--label", "Create user"}, "Create user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, testConfig(t), tt.args...)
			if err != nil {
				t.Fatalf("resolve error = %v", err)
			}
			if got := strings.TrimSpace(out); got != tt.want {
				t.Errorf("resolve = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveElementMissing(t *testing.T) {
	_, err := run(t, testConfig(t), "resolve", fixture("users.html"), "ghost")
	if !errors.Is(err, ErrElementNotFound) {
		t.Errorf("error = %v, want ErrElementNotFound", err)
	}
}

func TestReplayTranscript(t *testing.T) {
	out, err := run(t, testConfig(t), "replay", fixture("users.yaml"), "--metrics")
	if err != nil {
		t.Fatalf("replay error = %v\n%s", err, out)
	}

	var spoken []string
	for _, line := range strings.Split(out, "\n") {
		if text, ok := strings.CutPrefix(line, "🔊 "); ok {
			spoken = append(spoken, text)
		}
	}
	want := []string{"Add new user", "Edit Alice Johnson", "Add new user", "Disable narrator, currently on"}
	if strings.Join(spoken, "|") != strings.Join(want, "|") {
		t.Errorf("spoken = %q, want %q", spoken, want)
	}

	for _, line := range []string{
		"[route-announcer] Navigated to Users",
		"[status-region] 3 results found",
		"narrator.utterances.spoken 4",
		"narrator.utterances.suppressed{reason=pointer} 1",
		"narrator.utterances.suppressed{reason=disabled} 1",
		"narrator.announcements{region=route-announcer} 1",
	} {
		if !strings.Contains(out, line) {
			t.Errorf("output missing %q\n%s", line, out)
		}
	}
}

func TestReplayGateOff(t *testing.T) {
	cfg := testConfig(t)
	cfg.Narrator.KeyboardGate = false
	out, err := run(t, cfg, "replay", fixture("users.yaml"))
	if err != nil {
		t.Fatalf("replay error = %v", err)
	}
	if n := strings.Count(out, "🔊 Edit Alice Johnson"); n != 2 {
		t.Errorf("pointer focus narrated %d times, want 2 with the gate off\n%s", n, out)
	}
}

func TestReplayMissingElement(t *testing.T) {
	_, err := run(t, testConfig(t), "replay", fixture("missing.yaml"))
	if !errors.Is(err, ErrElementNotFound) {
		t.Errorf("error = %v, want ErrElementNotFound", err)
	}
}

func TestSpeak(t *testing.T) {
	out, err := run(t, testConfig(t), "speak", "Save", "Changes")
	if err != nil {
		t.Fatalf("speak error = %v", err)
	}
	if !strings.Contains(out, "🔊 Save Changes") {
		t.Errorf("output = %q", out)
	}
}

func TestSpeakWithoutEngine(t *testing.T) {
	cfg := testConfig(t)
	cfg.TTS.Type = "none"
	if _, err := run(t, cfg, "speak", "hello"); !errors.Is(err, ErrNoSpeech) {
		t.Errorf("error = %v, want ErrNoSpeech", err)
	}
}

func TestSpeakDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Narrator.Enabled = false
	out, err := run(t, cfg, "speak", "hello")
	if err != nil {
		t.Fatalf("speak error = %v", err)
	}
	if strings.Contains(out, "🔊") || !strings.Contains(out, "disabled") {
		t.Errorf("output = %q", out)
	}
}

func TestListEngines(t *testing.T) {
	var out bytes.Buffer
	a := New(testConfig(t), WithOutput(&out), WithEngineFactory(tts.NewEngine, func(engineType string) tts.Prober {
		return tts.ProbeFunc(func() tts.Availability {
			if engineType == "mock" {
				return tts.Available
			}
			return tts.Unavailable
		})
	}))
	cmd := a.RootCommand()
	cmd.SetArgs([]string{"engines"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}

	var mockLine, espeakLine string
	for _, line := range strings.Split(out.String(), "\n") {
		switch {
		case strings.HasPrefix(line, "▸ mock"):
			mockLine = line
		case strings.HasPrefix(line, "  espeak"):
			espeakLine = line
		}
	}
	if !strings.HasSuffix(mockLine, " available") {
		t.Errorf("mock line = %q, want configured and available", mockLine)
	}
	if !strings.HasSuffix(espeakLine, "unavailable") {
		t.Errorf("espeak line = %q, want unavailable", espeakLine)
	}
}

func TestListVoices(t *testing.T) {
	cfg := testConfig(t)
	out, err := run(t, cfg, "voices")
	if err != nil {
		t.Fatalf("voices error = %v", err)
	}
	if !strings.Contains(out, "mock-voice") {
		t.Errorf("output = %q", out)
	}

	out, err = run(t, cfg, "voices", "--cache-info")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Cache exists") || !strings.Contains(out, "voices_mock.json") {
		t.Errorf("cache info = %q", out)
	}
}

func TestShowSettings(t *testing.T) {
	out, err := run(t, testConfig(t), "settings")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Keyboard gate: true", "Speak delay: 50ms", "Main landmark: #main-content", "Engine: mock"} {
		if !strings.Contains(out, want) {
			t.Errorf("settings output missing %q", want)
		}
	}
}
