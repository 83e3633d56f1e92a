// Cross-platform eSpeak implementation
package tts

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// ESpeakEngine implements TTS using eSpeak/eSpeak-NG
type ESpeakEngine struct {
	config Config
	path   string
	cmd    *exec.Cmd
	mutex  sync.RWMutex
}

// newESpeakEngine creates a new eSpeak TTS engine
func newESpeakEngine(config Config) (*ESpeakEngine, error) {
	espeakPath, err := findESpeakExecutable()
	if err != nil {
		return nil, fmt.Errorf("eSpeak not found: %w", err)
	}

	if err := exec.Command(espeakPath, "--version").Run(); err != nil {
		return nil, fmt.Errorf("eSpeak test failed: %w", err)
	}

	return &ESpeakEngine{config: config, path: espeakPath}, nil
}

func findESpeakExecutable() (string, error) {
	candidates := []string{"espeak-ng", "espeak"}

	for _, candidate := range candidates {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("eSpeak executable not found in PATH")
}

// espeakArgs builds the command line for one utterance.
func espeakArgs(config Config, text string) []string {
	args := []string{}

	if config.Voice != "" && config.Voice != "default" {
		args = append(args, "-v", config.Voice)
	}

	// Words per minute, default is 175
	speed := int(175 * config.Speed)
	args = append(args, "-s", strconv.Itoa(speed))

	// Amplitude 0-200, default is 100
	volume := int(100 * config.Volume)
	args = append(args, "-a", strconv.Itoa(volume))

	// "--" keeps text starting with a dash from being read as a flag
	return append(args, "--", text)
}

// Speak interrupts any running utterance and starts a new eSpeak process.
func (e *ESpeakEngine) Speak(text string) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.killLocked()

	cmd := exec.Command(e.path, espeakArgs(e.config, text)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start eSpeak: %w", err)
	}
	e.cmd = cmd

	go func() {
		err := cmd.Wait()

		e.mutex.Lock()
		current := e.cmd == cmd
		if current {
			e.cmd = nil
		}
		e.mutex.Unlock()

		// A killed process exits with an error; only report natural failures.
		if err != nil && current {
			logrus.WithError(err).Warn("eSpeak exited with error")
		}
	}()

	return nil
}

func (e *ESpeakEngine) Stop() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.killLocked()
}

func (e *ESpeakEngine) killLocked() error {
	if e.cmd == nil || e.cmd.Process == nil {
		return nil
	}
	err := e.cmd.Process.Kill()
	e.cmd = nil
	return err
}

func (e *ESpeakEngine) IsPlaying() bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.cmd != nil
}

func (e *ESpeakEngine) GetAvailableVoices() ([]string, error) {
	output, err := exec.Command(e.path, "--voices").Output()
	if err != nil {
		return nil, err
	}

	return parseESpeakVoices(string(output)), nil
}

func parseESpeakVoices(output string) []string {
	lines := strings.Split(output, "\n")
	voices := make([]string, 0)

	for i, line := range lines {
		// Skip header line
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}

		// Pty Language Age/Gender VoiceName          File          Other Languages
		fields := strings.Fields(line)
		if len(fields) >= 4 {
			voices = append(voices, fields[3])
		}
	}

	return voices
}
