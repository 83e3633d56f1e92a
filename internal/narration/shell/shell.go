// Package shell mounts the narrator onto a document. It owns the
// lifetime of the global listeners, the narrator and the announcer: they
// come alive on Mount and are torn down, timers included, on Unmount.
package shell

import (
	"context"
	"strconv"
	"sync"
	"time"

	"focusnarrator/internal/clock"
	"focusnarrator/internal/domain/dom"
	"focusnarrator/internal/narration/announce"
	"focusnarrator/internal/narration/gate"
	"focusnarrator/internal/narration/narrator"
	"focusnarrator/internal/narration/resolve"
	"focusnarrator/internal/observe"

	"github.com/sirupsen/logrus"
)

// DefaultFocusDelay is the wait before a deferred focus, long enough for a
// closing dialog to leave the tree.
const DefaultFocusDelay = 100 * time.Millisecond

// Option configures a Shell.
type Option func(*Shell)

// WithScheduler replaces the real clock, for tests.
func WithScheduler(s clock.Scheduler) Option {
	return func(sh *Shell) { sh.sched = s }
}

// WithFocusDelay sets the FocusLater delay.
func WithFocusDelay(d time.Duration) Option {
	return func(sh *Shell) { sh.focusDelay = d }
}

// WithMetrics records focus suppressions on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(sh *Shell) { sh.metrics = m }
}

type registration struct {
	id    int
	label func() string
}

// Shell is safe for concurrent use.
type Shell struct {
	doc        *dom.Document
	narrator   *narrator.Narrator
	gate       *gate.Gate
	announcer  *announce.Announcer
	sched      clock.Scheduler
	focusDelay time.Duration
	metrics    *observe.Metrics
	log        *logrus.Entry

	mu          sync.Mutex
	mounted     bool
	unmounted   bool
	removeFocus func()
	labels      map[*dom.Element]registration
	deferred    map[int]clock.Timer
	nextID      int
}

// New wires the components to doc. The shell takes ownership of n and a
// and closes them on Unmount.
func New(doc *dom.Document, n *narrator.Narrator, g *gate.Gate, a *announce.Announcer, opts ...Option) *Shell {
	s := &Shell{
		doc:        doc,
		narrator:   n,
		gate:       g,
		announcer:  a,
		sched:      clock.Real{},
		focusDelay: DefaultFocusDelay,
		labels:     make(map[*dom.Element]registration),
		deferred:   make(map[int]clock.Timer),
		log:        logrus.WithField("component", "shell"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = observe.Default()
	}
	return s
}

func (s *Shell) Document() *dom.Document { return s.doc }
func (s *Shell) Narrator() *narrator.Narrator { return s.narrator }
func (s *Shell) Gate() *gate.Gate { return s.gate }
func (s *Shell) Announcer() *announce.Announcer { return s.announcer }

// Context returns ctx carrying the shell's narrator.
func (s *Shell) Context(ctx context.Context) context.Context {
	return narrator.NewContext(ctx, s.narrator)
}

// Mount attaches the global listeners. Mounting twice, or after Unmount,
// is a no-op.
func (s *Shell) Mount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mounted || s.unmounted {
		return
	}
	s.mounted = true
	s.gate.Attach(s.doc)
	s.removeFocus = s.doc.AddEventListener(dom.EventFocus, s.handleFocus)
	s.log.Debug("shell mounted")
}

// Unmount detaches the listeners, cancels every pending timer and closes
// the narrator and announcer.
func (s *Shell) Unmount() {
	s.mu.Lock()
	if !s.mounted || s.unmounted {
		s.mu.Unlock()
		return
	}
	s.unmounted = true
	s.gate.Detach()
	if s.removeFocus != nil {
		s.removeFocus()
		s.removeFocus = nil
	}
	for id, t := range s.deferred {
		t.Stop()
		delete(s.deferred, id)
	}
	s.labels = make(map[*dom.Element]registration)
	s.mu.Unlock()

	s.announcer.Close()
	s.narrator.Close()
	s.log.Debug("shell unmounted")
}

// Narrate opts el into focus narration. label, when non-nil, is read at
// every focus and takes precedence over the element's own attributes. The
// returned function opts the element back out.
func (s *Shell) Narrate(el *dom.Element, label func() string) (release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.labels[el] = registration{id: id, label: label}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if reg, ok := s.labels[el]; ok && reg.id == id {
			delete(s.labels, el)
		}
	}
}

// Static wraps a fixed explicit label.
func Static(label string) func() string {
	return func() string { return label }
}

func (s *Shell) handleFocus(ev dom.Event) {
	el := ev.Target
	s.mu.Lock()
	reg, ok := s.labels[el]
	s.mu.Unlock()
	if !ok || el == nil {
		return
	}

	if !s.narrator.Enabled() {
		s.metrics.Suppressed(context.Background(), observe.ReasonDisabled)
		return
	}
	if !s.gate.Allow() {
		s.metrics.Suppressed(context.Background(), observe.ReasonPointer)
		return
	}

	explicit := ""
	if reg.label != nil {
		explicit = reg.label()
	}
	text := resolve.Element(el, explicit)
	s.log.WithFields(logrus.Fields{"tag": el.Tag(), "id": el.ID(), "text": text}).Debug("narrating focus")
	s.narrator.Speak(text)
}

// Navigate announces a route change and moves focus to the main landmark.
// A non-empty title replaces the document title first.
func (s *Shell) Navigate(path, title string) {
	if title != "" {
		s.doc.SetTitle(title)
	}
	s.announcer.Navigated(path, s.doc.Title())
	s.announcer.FocusMain(s.doc)
}

// Status publishes a polite status message.
func (s *Shell) Status(msg string) {
	s.announcer.Status(msg)
}

// Alert publishes an assertive error message.
func (s *Shell) Alert(msg string) {
	s.announcer.Alert(msg)
}

// FocusLater focuses el after the focus delay, e.g. to return focus to a
// dialog trigger once the dialog has closed. It is skipped when el has left
// the document by then, and cancelled on Unmount. The returned function
// cancels it early.
func (s *Shell) FocusLater(el *dom.Element) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unmounted {
		return func() {}
	}
	s.nextID++
	id := s.nextID
	s.deferred[id] = s.sched.AfterFunc(s.focusDelay, func() {
		s.mu.Lock()
		_, live := s.deferred[id]
		delete(s.deferred, id)
		s.mu.Unlock()
		if live && el.Attached() {
			s.doc.Focus(el)
		}
	})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if t, ok := s.deferred[id]; ok {
			t.Stop()
			delete(s.deferred, id)
		}
	}
}

// BindToggle turns el into the narrator on/off control: its accessible
// name and pressed state follow the narrator, and focusing it speaks the
// current state. The returned function unbinds it.
func (s *Shell) BindToggle(el *dom.Element) (release func()) {
	update := func(enabled bool) {
		if enabled {
			el.SetAttr("aria-label", "Disable narrator")
		} else {
			el.SetAttr("aria-label", "Enable narrator")
		}
		el.SetAttr("aria-pressed", strconv.FormatBool(enabled))
	}
	update(s.narrator.Enabled())

	unsubscribe := s.narrator.Subscribe(update)
	unnarrate := s.Narrate(el, func() string {
		return narrator.ToggleLabel(s.narrator.Enabled())
	})
	return func() {
		unsubscribe()
		unnarrate()
	}
}
