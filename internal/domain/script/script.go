// Package script describes a scripted interaction session: navigation,
// key presses, pointer presses, focus moves and status messages, replayed
// against a document to show what the narrator would say.
package script

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid marks a script that parsed as YAML but does not describe a
// valid session.
var ErrInvalid = errors.New("invalid script")

// Step kinds.
const (
	KindNavigate   = "navigate"
	KindKey        = "key"
	KindMouseDown  = "mousedown"
	KindFocus      = "focus"
	KindFocusLater = "focus_later"
	KindRemove     = "remove"
	KindStatus     = "status"
	KindAlert      = "alert"
	KindEnable     = "enable"
	KindWait       = "wait"
)

// Script is the top-level structure of a replay file.
//
// Example:
//
//	document: users.html
//	steps:
//	  - navigate: /dashboard/users
//	    title: Users
//	  - key: Tab
//	  - focus: add-user
//	  - wait: 200ms
//	  - status: "3 results found"
type Script struct {
	// Document is the HTML fixture the session runs against, relative to
	// the script file.
	Document string `yaml:"document"`

	// KeyboardGate overrides narrator.keyboard_gate when set.
	KeyboardGate *bool `yaml:"keyboard_gate,omitempty"`

	Steps []Step `yaml:"steps"`
}

// Step is one interaction. Exactly one action field is set; Title only
// accompanies Navigate.
type Step struct {
	Navigate   string   `yaml:"navigate,omitempty"`
	Title      string   `yaml:"title,omitempty"`
	Key        string   `yaml:"key,omitempty"`
	MouseDown  bool     `yaml:"mousedown,omitempty"`
	Focus      string   `yaml:"focus,omitempty"`
	FocusLater string   `yaml:"focus_later,omitempty"`
	Remove     string   `yaml:"remove,omitempty"`
	Status     string   `yaml:"status,omitempty"`
	Alert      string   `yaml:"alert,omitempty"`
	Enable     *bool    `yaml:"enable,omitempty"`
	Wait       Duration `yaml:"wait,omitempty"`
}

// Kind names the action the step performs, or "" when none or several
// are set.
func (s Step) Kind() string {
	var kinds []string
	if s.Navigate != "" {
		kinds = append(kinds, KindNavigate)
	}
	if s.Key != "" {
		kinds = append(kinds, KindKey)
	}
	if s.MouseDown {
		kinds = append(kinds, KindMouseDown)
	}
	if s.Focus != "" {
		kinds = append(kinds, KindFocus)
	}
	if s.FocusLater != "" {
		kinds = append(kinds, KindFocusLater)
	}
	if s.Remove != "" {
		kinds = append(kinds, KindRemove)
	}
	if s.Status != "" {
		kinds = append(kinds, KindStatus)
	}
	if s.Alert != "" {
		kinds = append(kinds, KindAlert)
	}
	if s.Enable != nil {
		kinds = append(kinds, KindEnable)
	}
	if s.Wait > 0 {
		kinds = append(kinds, KindWait)
	}
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

// Duration is a time.Duration written in YAML as "150ms" or "1s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load reads and validates the script at path. A relative Document is
// resolved against the script's directory.
func Load(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("script: open %q: %w", path, err)
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("script: parse %q: %w", path, err)
	}
	if s.Document != "" && !filepath.IsAbs(s.Document) {
		s.Document = filepath.Join(filepath.Dir(path), s.Document)
	}
	return s, nil
}

// Parse decodes a script from r and validates it. Unknown keys are
// rejected.
func Parse(r io.Reader) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("script: decode yaml: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate reports every malformed step.
func (s *Script) Validate() error {
	var errs []error
	if s.Document == "" {
		errs = append(errs, fmt.Errorf("%w: document is required", ErrInvalid))
	}
	for i, step := range s.Steps {
		kind := step.Kind()
		if kind == "" {
			errs = append(errs, fmt.Errorf("%w: step %d must set exactly one action", ErrInvalid, i+1))
			continue
		}
		if step.Title != "" && kind != KindNavigate {
			errs = append(errs, fmt.Errorf("%w: step %d: title only applies to navigate", ErrInvalid, i+1))
		}
	}
	return errors.Join(errs...)
}
