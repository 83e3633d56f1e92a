// Package narrator holds the process-wide narrator state: whether narration
// is switched on, whether speech synthesis exists at all, and the single
// Speak entry point that guarantees at most one utterance is in flight.
package narrator

import (
	"context"
	"sync"
	"time"

	"focusnarrator/internal/clock"
	"focusnarrator/internal/narration/tts"
	"focusnarrator/internal/observe"

	"github.com/sirupsen/logrus"
)

// DefaultSpeakDelay leaves the engine time to finish cancelling before the
// next utterance starts.
const DefaultSpeakDelay = 50 * time.Millisecond

// Option configures a Narrator.
type Option func(*Narrator)

// WithEnabled sets the initial enabled state. The default is true.
func WithEnabled(enabled bool) Option {
	return func(n *Narrator) { n.enabled = enabled }
}

// WithSpeakDelay sets the debounce between cancelling and speaking.
func WithSpeakDelay(d time.Duration) Option {
	return func(n *Narrator) { n.delay = d }
}

// WithScheduler replaces the real clock, for tests.
func WithScheduler(s clock.Scheduler) Option {
	return func(n *Narrator) { n.sched = s }
}

// WithMetrics records utterance counters on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(n *Narrator) { n.metrics = m }
}

// Narrator is safe for concurrent use. The zero value is not usable; call New.
type Narrator struct {
	engine       tts.Engine
	availability tts.Availability
	sched        clock.Scheduler
	delay        time.Duration
	metrics      *observe.Metrics
	log          *logrus.Entry

	mu      sync.Mutex
	enabled bool
	closed  bool
	pending clock.Timer
	gen     uint64
	subs    map[int]func(bool)
	nextSub int
}

// New creates a narrator speaking through engine. probe runs once, here;
// anything other than tts.Available leaves Speak a permanent no-op while
// the enabled flag stays fully usable. A nil engine is unavailable.
func New(engine tts.Engine, probe tts.Prober, opts ...Option) *Narrator {
	n := &Narrator{
		engine:  engine,
		sched:   clock.Real{},
		delay:   DefaultSpeakDelay,
		enabled: true,
		subs:    make(map[int]func(bool)),
		log:     logrus.WithField("component", "narrator"),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.metrics == nil {
		n.metrics = observe.Default()
	}

	switch {
	case engine == nil:
		n.availability = tts.Unavailable
	case probe == nil:
		n.availability = tts.Available
	default:
		n.availability = probe.Probe()
	}
	if n.availability != tts.Available {
		n.log.WithField("availability", n.availability).Info("speech synthesis not available, narration is silent")
	}
	return n
}

// Enabled reports whether narration is switched on.
func (n *Narrator) Enabled() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.enabled
}

// Availability returns the probe result taken at construction.
func (n *Narrator) Availability() tts.Availability {
	return n.availability
}

// SetEnabled switches narration on or off and notifies subscribers when the
// value changes. Switching off drops any pending or playing utterance.
func (n *Narrator) SetEnabled(enabled bool) {
	n.mu.Lock()
	if n.closed || n.enabled == enabled {
		n.mu.Unlock()
		return
	}
	n.enabled = enabled
	if !enabled {
		n.cancelLocked()
	}
	subs := make([]func(bool), 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	n.mu.Unlock()

	n.log.WithField("enabled", enabled).Debug("narrator toggled")
	for _, fn := range subs {
		fn(enabled)
	}
}

// Subscribe registers fn to be called with every change of the enabled
// flag. The returned function unsubscribes.
func (n *Narrator) Subscribe(fn func(enabled bool)) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextSub++
	id := n.nextSub
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// Speak cancels any in-flight utterance and, after the speak delay, sends
// text to the engine. It silently does nothing when narration is off,
// speech is unavailable, or text is empty.
func (n *Narrator) Speak(text string) {
	ctx := context.Background()

	n.mu.Lock()
	defer n.mu.Unlock()

	switch {
	case n.closed:
		return
	case text == "":
		n.metrics.Suppressed(ctx, observe.ReasonEmpty)
		return
	case !n.enabled:
		n.metrics.Suppressed(ctx, observe.ReasonDisabled)
		n.log.WithField("text", text).Debug("narrator disabled, not speaking")
		return
	case n.availability != tts.Available:
		n.metrics.Suppressed(ctx, observe.ReasonUnavailable)
		return
	}

	n.cancelLocked()

	n.gen++
	gen := n.gen
	n.pending = n.sched.AfterFunc(n.delay, func() { n.fire(gen, text) })
}

// cancelLocked drops the pending utterance and stops playback. The engine
// is only told to stop when something is actually in flight.
func (n *Narrator) cancelLocked() {
	inFlight := false
	if n.pending != nil {
		n.pending.Stop()
		n.pending = nil
		inFlight = true
	}
	n.gen++
	if n.engine == nil {
		return
	}
	if inFlight || n.engine.IsPlaying() {
		if err := n.engine.Stop(); err != nil {
			n.log.WithError(err).Warn("failed to stop speech")
		}
		n.metrics.UtterancesCancelled.Add(context.Background(), 1)
	}
}

func (n *Narrator) fire(gen uint64, text string) {
	n.mu.Lock()
	if n.closed || gen != n.gen || !n.enabled {
		n.mu.Unlock()
		return
	}
	n.pending = nil
	n.mu.Unlock()

	ctx := context.Background()
	if err := n.engine.Speak(text); err != nil {
		n.metrics.EngineErrors.Add(ctx, 1)
		n.log.WithError(err).WithField("text", text).Warn("speech engine failed")
		return
	}
	n.metrics.UtterancesSpoken.Add(ctx, 1)
}

// Close cancels pending speech, stops the engine and drops subscribers.
// The narrator is inert afterwards.
func (n *Narrator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.cancelLocked()
	n.closed = true
	n.subs = make(map[int]func(bool))
}

// ToggleLabel is the narration for the narrator on/off control.
func ToggleLabel(enabled bool) string {
	if enabled {
		return "Disable narrator, currently on"
	}
	return "Enable narrator, currently off"
}
