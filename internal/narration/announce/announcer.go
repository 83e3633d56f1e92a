// Package announce publishes navigation and status text through live
// regions. Nothing here speaks; assistive technology reads the regions.
package announce

import (
	"context"
	"strings"
	"sync"
	"time"

	"focusnarrator/internal/clock"
	"focusnarrator/internal/domain/dom"
	"focusnarrator/internal/observe"

	"github.com/sirupsen/logrus"
)

// Region ids.
const (
	RouteRegionID  = "route-announcer"
	StatusRegionID = "status-region"
	AlertRegionID  = "alert-region"
)

// Defaults for Config.
const (
	DefaultClearDelay = time.Second
	DefaultFocusDelay = 100 * time.Millisecond
	DefaultMainID     = "main-content"
)

// Config sets the announcer timings and the main landmark id.
type Config struct {
	// ClearDelay is how long a route announcement stays before it is
	// cleared so the same text can be announced again.
	ClearDelay time.Duration
	// FocusDelay is the wait before focusing the main landmark after
	// navigation, letting the new page render.
	FocusDelay time.Duration
	MainID     string
}

// DefaultConfig returns the standard timings.
func DefaultConfig() Config {
	return Config{ClearDelay: DefaultClearDelay, FocusDelay: DefaultFocusDelay, MainID: DefaultMainID}
}

// Option configures an Announcer.
type Option func(*Announcer)

// WithScheduler replaces the real clock, for tests.
func WithScheduler(s clock.Scheduler) Option {
	return func(a *Announcer) { a.sched = s }
}

// WithMetrics records announcement counters on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *Announcer) { a.metrics = m }
}

// Announcer owns the route, status and alert regions. It is safe for
// concurrent use.
type Announcer struct {
	cfg     Config
	sched   clock.Scheduler
	metrics *observe.Metrics
	route   *LiveRegion
	status  *LiveRegion
	alert   *LiveRegion

	mu         sync.Mutex
	closed     bool
	clearGen   uint64
	clearTimer clock.Timer
	focusTimer clock.Timer
	revoke     func() // undoes a temporary tabindex for a pending focus
}

// New returns an announcer. Zero fields of cfg take their defaults.
func New(cfg Config, opts ...Option) *Announcer {
	if cfg.ClearDelay <= 0 {
		cfg.ClearDelay = DefaultClearDelay
	}
	if cfg.FocusDelay <= 0 {
		cfg.FocusDelay = DefaultFocusDelay
	}
	if cfg.MainID == "" {
		cfg.MainID = DefaultMainID
	}
	a := &Announcer{
		cfg:    cfg,
		sched:  clock.Real{},
		route:  NewLiveRegion(RouteRegionID, Polite),
		status: NewLiveRegion(StatusRegionID, Polite),
		alert:  NewLiveRegion(AlertRegionID, Assertive),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.metrics == nil {
		a.metrics = observe.Default()
	}
	return a
}

// Route returns the route announcement region.
func (a *Announcer) Route() *LiveRegion { return a.route }

// StatusRegion returns the polite status region.
func (a *Announcer) StatusRegion() *LiveRegion { return a.status }

// AlertRegion returns the assertive alert region.
func (a *Announcer) AlertRegion() *LiveRegion { return a.alert }

// PageName picks the spoken name of a destination: the title, else the
// last path segment, else "Page".
func PageName(path, title string) string {
	if title = strings.TrimSpace(title); title != "" {
		return title
	}
	segs := strings.Split(path, "/")
	for i := len(segs) - 1; i >= 0; i-- {
		if seg := strings.TrimSpace(segs[i]); seg != "" {
			return seg
		}
	}
	return "Page"
}

// Navigated announces a route change and schedules the region to clear.
// If the region still holds the same announcement it is cleared first so
// the repeat is a real mutation.
func (a *Announcer) Navigated(path, title string) {
	text := "Navigated to " + PageName(path, title)

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	if a.clearTimer != nil {
		a.clearTimer.Stop()
	}
	a.clearGen++
	gen := a.clearGen
	a.clearTimer = a.sched.AfterFunc(a.cfg.ClearDelay, func() { a.clearRoute(gen) })
	a.mu.Unlock()

	if a.route.Text() == text {
		a.route.Clear()
	}
	a.route.Set(text)
	a.metrics.Announced(context.Background(), RouteRegionID)
	logrus.WithFields(logrus.Fields{"path": path, "text": text}).Debug("route announced")
}

func (a *Announcer) clearRoute(gen uint64) {
	a.mu.Lock()
	if a.closed || gen != a.clearGen {
		a.mu.Unlock()
		return
	}
	a.clearTimer = nil
	a.mu.Unlock()
	a.route.Clear()
}

// FocusMain moves focus to the main landmark of doc after the focus delay.
// The landmark is made focusable for the move if it is not already, and
// that grant is revoked afterwards. A missing landmark is skipped, as is
// one that was detached before the timer fired.
func (a *Announcer) FocusMain(doc *dom.Document) {
	main := doc.ElementByID(a.cfg.MainID)
	if main == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.cancelFocusLocked()

	revoke := func() {}
	if !main.HasAttr("tabindex") {
		main.SetAttr("tabindex", "-1")
		revoke = func() { main.RemoveAttr("tabindex") }
	}
	a.revoke = revoke

	var timer clock.Timer
	timer = a.sched.AfterFunc(a.cfg.FocusDelay, func() {
		a.mu.Lock()
		if a.focusTimer != timer {
			a.mu.Unlock()
			return
		}
		a.focusTimer = nil
		a.revoke = nil
		a.mu.Unlock()

		if main.Attached() {
			doc.Focus(main)
		}
		revoke()
	})
	a.focusTimer = timer
}

func (a *Announcer) cancelFocusLocked() {
	if a.focusTimer != nil {
		a.focusTimer.Stop()
		a.focusTimer = nil
	}
	if a.revoke != nil {
		a.revoke()
		a.revoke = nil
	}
}

// Status replaces the status region text. Only the latest message matters.
func (a *Announcer) Status(msg string) {
	if a.status.Set(msg) {
		a.metrics.Announced(context.Background(), StatusRegionID)
	}
}

// Alert replaces the assertive alert region text, for errors.
func (a *Announcer) Alert(msg string) {
	if a.alert.Set(msg) {
		a.metrics.Announced(context.Background(), AlertRegionID)
	}
}

// Close cancels pending clears and focus moves.
func (a *Announcer) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	if a.clearTimer != nil {
		a.clearTimer.Stop()
		a.clearTimer = nil
	}
	a.cancelFocusLocked()
}
