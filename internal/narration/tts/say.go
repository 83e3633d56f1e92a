package tts

import (
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// SayEngine speaks through the macOS say command.
type SayEngine struct {
	config Config
	path   string
	cmd    *exec.Cmd
	mutex  sync.RWMutex
}

func findSayExecutable() (string, error) {
	if runtime.GOOS != "darwin" {
		return "", fmt.Errorf("say is only supported on macOS")
	}
	return exec.LookPath("say")
}

func newSayEngine(config Config) (*SayEngine, error) {
	path, err := findSayExecutable()
	if err != nil {
		return nil, fmt.Errorf("say not found: %w", err)
	}
	return &SayEngine{config: config, path: path}, nil
}

func sayArgs(config Config, text string) []string {
	args := []string{}
	if config.Voice != "" && config.Voice != "default" {
		args = append(args, "-v", config.Voice)
	}
	// say defaults to roughly 175 words per minute
	args = append(args, "-r", strconv.Itoa(int(175*config.Speed)))
	return append(args, "--", text)
}

func (s *SayEngine) Speak(text string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.killLocked()

	cmd := exec.Command(s.path, sayArgs(s.config, text)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start 'say' command: %w", err)
	}
	s.cmd = cmd

	go func() {
		err := cmd.Wait()

		s.mutex.Lock()
		current := s.cmd == cmd
		if current {
			s.cmd = nil
		}
		s.mutex.Unlock()

		if err != nil && current {
			logrus.WithError(err).Warn("'say' command finished with error")
		}
	}()
	return nil
}

func (s *SayEngine) Stop() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.killLocked()
}

func (s *SayEngine) killLocked() error {
	if s.cmd == nil || s.cmd.Process == nil {
		return nil
	}
	err := s.cmd.Process.Kill()
	s.cmd = nil
	return err
}

func (s *SayEngine) IsPlaying() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.cmd != nil
}

func (s *SayEngine) GetAvailableVoices() ([]string, error) {
	output, err := exec.Command(s.path, "-v", "?").Output()
	if err != nil {
		return nil, err
	}
	return parseSayVoices(string(output)), nil
}

// parseSayVoices reads lines like "Alex   en_US   # Most people recognize me by my voice."
func parseSayVoices(output string) []string {
	voices := make([]string, 0)
	for _, line := range strings.Split(output, "\n") {
		desc, _, _ := strings.Cut(line, "#")
		fields := strings.Fields(desc)
		if len(fields) < 2 {
			continue
		}
		// Voice names may contain spaces; the locale is always the last field.
		voices = append(voices, strings.Join(fields[:len(fields)-1], " "))
	}
	return voices
}
