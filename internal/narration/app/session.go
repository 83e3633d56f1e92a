package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"focusnarrator/internal/cli/scheme/colours"
	"focusnarrator/internal/clock"
	"focusnarrator/internal/domain/dom"
	"focusnarrator/internal/domain/script"
	"focusnarrator/internal/narration/announce"
	"focusnarrator/internal/narration/gate"
	"focusnarrator/internal/narration/narrator"
	"focusnarrator/internal/narration/shell"
	"focusnarrator/internal/narration/tts"
	"focusnarrator/internal/observe"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Replay runs a scripted session against its HTML document and prints
// live region updates and utterances as they happen. Without --audio the
// session runs on a virtual clock and utterances are printed instead of
// spoken; --metrics prints the narration counters at the end.
func (a *App) Replay(cmd *cobra.Command, args []string) error {
	s, err := script.Load(args[0])
	if err != nil {
		return err
	}
	doc, err := loadDocument(s.Document)
	if err != nil {
		return err
	}

	audio, _ := cmd.Flags().GetBool("audio")
	withMetrics, _ := cmd.Flags().GetBool("metrics")

	metrics := observe.Noop()
	var rec *observe.Recorder
	if withMetrics {
		if rec, err = observe.NewRecorder(); err != nil {
			return fmt.Errorf("failed to set up metrics: %w", err)
		}
		defer rec.Shutdown(context.Background())
		metrics = rec.Metrics
	}

	sess := a.newSession(doc, s, audio, metrics)
	colours.Title.Fprintf(a.out, "▶ Replaying %s\n", args[0])
	runErr := sess.run(s.Steps)
	sess.close()
	if runErr != nil {
		return runErr
	}

	if rec != nil {
		fmt.Fprintln(a.out)
		colours.Title.Fprintln(a.out, "📊 Metrics")
		if err := rec.Print(a.ctx, a.out); err != nil {
			return err
		}
	}
	return nil
}

// session is one replay: a mounted shell plus the clock it runs on.
type session struct {
	app    *App
	out    io.Writer
	doc    *dom.Document
	shell  *shell.Shell
	engine tts.Engine
	audio  bool
	wait   func(time.Duration) error
	settle time.Duration
}

func (a *App) newSession(doc *dom.Document, s *script.Script, audio bool, metrics *observe.Metrics) *session {
	sess := &session{app: a, out: a.out, doc: doc, audio: audio}

	var (
		sched  clock.Scheduler
		engine tts.Engine
		probe  tts.Prober
	)
	if audio {
		engine, probe = a.openEngine()
		if mock, ok := engine.(*tts.MockEngine); ok {
			mock.WithOutput(a.out)
		}
		sched = clock.Real{}
		sess.wait = func(d time.Duration) error {
			if !sleep(a.ctx, d) {
				return a.ctx.Err()
			}
			return nil
		}
	} else {
		fake := clock.NewFake()
		engine = tts.NewMockEngine().WithOutput(a.out)
		sched = fake
		sess.wait = func(d time.Duration) error {
			fake.Advance(d)
			return a.ctx.Err()
		}
	}
	sess.engine = engine

	enforced := a.cfg.Narrator.KeyboardGate
	if s.KeyboardGate != nil {
		enforced = *s.KeyboardGate
	}

	n := narrator.New(engine, probe,
		narrator.WithEnabled(a.cfg.Narrator.Enabled),
		narrator.WithSpeakDelay(a.cfg.Narrator.SpeakDelay),
		narrator.WithScheduler(sched),
		narrator.WithMetrics(metrics))
	ann := announce.New(announce.Config{
		ClearDelay: a.cfg.Announcer.ClearDelay,
		FocusDelay: a.cfg.Announcer.FocusDelay,
		MainID:     a.cfg.Announcer.MainID,
	}, announce.WithScheduler(sched), announce.WithMetrics(metrics))
	sess.shell = shell.New(doc, n, gate.New(enforced), ann,
		shell.WithScheduler(sched),
		shell.WithFocusDelay(a.cfg.Announcer.FocusDelay),
		shell.WithMetrics(metrics))

	sess.settle = a.cfg.Narrator.SpeakDelay + a.cfg.Announcer.FocusDelay + a.cfg.Announcer.ClearDelay

	sess.watch(ann.Route(), colours.Route, "📣")
	sess.watch(ann.StatusRegion(), colours.Status, "ℹ️")
	sess.watch(ann.AlertRegion(), colours.Alert, "⚠️")
	sess.register()
	sess.shell.Mount()
	return sess
}

// watch prints every non-empty text written to region.
func (s *session) watch(region *announce.LiveRegion, c *color.Color, icon string) {
	region.Subscribe(func(text string) {
		if text == "" {
			return
		}
		c.Fprintf(s.out, "%s [%s] %s\n", icon, region.ID(), text)
	})
}

// register opts every interactive element into narration, taking explicit
// labels from data-narrate and binding the narrator toggle.
func (s *session) register() {
	body := s.doc.Body()
	if body == nil {
		return
	}
	count := 0
	body.Walk(func(el *dom.Element) {
		if el.HasAttr(ToggleAttr) {
			s.shell.BindToggle(el)
			count++
			return
		}
		if !el.Interactive() {
			return
		}
		var label func() string
		if text, ok := el.Attr(NarrateAttr); ok {
			label = shell.Static(text)
		}
		s.shell.Narrate(el, label)
		count++
	})
	logrus.WithField("elements", count).Debug("registered elements for narration")
}

func (s *session) run(steps []script.Step) error {
	for i, step := range steps {
		colours.Step.Fprintf(s.out, "▸ %s\n", describe(step))
		if err := s.apply(step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Kind(), err)
		}
	}
	if err := s.wait(s.settle); err != nil {
		return err
	}
	if s.audio && s.engine != nil {
		return s.app.waitIdle(s.engine, 0)
	}
	return nil
}

func (s *session) apply(step script.Step) error {
	switch step.Kind() {
	case script.KindNavigate:
		s.shell.Navigate(step.Navigate, step.Title)
	case script.KindKey:
		s.doc.KeyDown(step.Key)
	case script.KindMouseDown:
		s.doc.MouseDown()
	case script.KindFocus:
		el, err := s.element(step.Focus)
		if err != nil {
			return err
		}
		if !s.doc.Focus(el) {
			colours.Warning.Fprintf(s.out, "  #%s cannot take focus\n", step.Focus)
		}
	case script.KindFocusLater:
		el, err := s.element(step.FocusLater)
		if err != nil {
			return err
		}
		s.shell.FocusLater(el)
	case script.KindRemove:
		el, err := s.element(step.Remove)
		if err != nil {
			return err
		}
		el.Remove()
	case script.KindStatus:
		s.shell.Status(step.Status)
	case script.KindAlert:
		s.shell.Alert(step.Alert)
	case script.KindEnable:
		s.shell.Narrator().SetEnabled(*step.Enable)
	case script.KindWait:
		return s.wait(time.Duration(step.Wait))
	}
	return nil
}

func (s *session) element(id string) (*dom.Element, error) {
	el := s.doc.ElementByID(id)
	if el == nil {
		return nil, fmt.Errorf("%w: %q", ErrElementNotFound, id)
	}
	return el, nil
}

func (s *session) close() {
	s.shell.Unmount()
}

func describe(step script.Step) string {
	switch step.Kind() {
	case script.KindNavigate:
		if step.Title != "" {
			return fmt.Sprintf("navigate %s (%s)", step.Navigate, step.Title)
		}
		return "navigate " + step.Navigate
	case script.KindKey:
		return "key " + step.Key
	case script.KindMouseDown:
		return "mousedown"
	case script.KindFocus:
		return "focus #" + step.Focus
	case script.KindFocusLater:
		return "focus later #" + step.FocusLater
	case script.KindRemove:
		return "remove #" + step.Remove
	case script.KindStatus:
		return "status " + step.Status
	case script.KindAlert:
		return "alert " + step.Alert
	case script.KindEnable:
		return "narrator " + narratorState(*step.Enable)
	case script.KindWait:
		return "wait " + time.Duration(step.Wait).String()
	}
	return "?"
}

func narratorState(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
