package narrator

import (
	"context"
	"testing"
	"time"

	"focusnarrator/internal/clock"
	"focusnarrator/internal/narration/tts"
	"focusnarrator/internal/observe"
)

func newTestNarrator(t *testing.T, opts ...Option) (*Narrator, *tts.MockEngine, *clock.Fake) {
	t.Helper()
	engine := tts.NewMockEngine()
	fake := clock.NewFake()
	opts = append([]Option{WithScheduler(fake), WithMetrics(observe.Noop())}, opts...)
	n := New(engine, tts.ProbeFunc(func() tts.Availability { return tts.Available }), opts...)
	t.Cleanup(n.Close)
	return n, engine, fake
}

func TestSpeakAfterDelay(t *testing.T) {
	n, engine, fake := newTestNarrator(t)

	n.Speak("Save Changes")
	if got := engine.Spoken(); len(got) != 0 {
		t.Fatalf("spoken before delay: %v", got)
	}

	fake.Advance(DefaultSpeakDelay)
	got := engine.Spoken()
	if len(got) != 1 || got[0] != "Save Changes" {
		t.Errorf("Spoken() = %v, want [Save Changes]", got)
	}
}

func TestSpeakDisabledNeverReachesEngine(t *testing.T) {
	n, engine, fake := newTestNarrator(t, WithEnabled(false))

	n.Speak("Button")
	fake.Advance(time.Second)

	if calls := engine.Calls(); len(calls) != 0 {
		t.Errorf("engine calls = %+v, want none", calls)
	}
}

func TestSpeakUnavailableIsNoop(t *testing.T) {
	engine := tts.NewMockEngine()
	fake := clock.NewFake()
	n := New(engine, tts.ProbeFunc(func() tts.Availability { return tts.Unavailable }),
		WithScheduler(fake), WithMetrics(observe.Noop()))
	defer n.Close()

	if n.Availability() != tts.Unavailable {
		t.Fatalf("Availability() = %v", n.Availability())
	}

	n.Speak("Button")
	fake.Advance(time.Second)
	if calls := engine.Calls(); len(calls) != 0 {
		t.Errorf("engine calls = %+v, want none", calls)
	}

	// Toggling still works while degraded.
	n.SetEnabled(false)
	n.SetEnabled(true)
	if !n.Enabled() {
		t.Error("Enabled() = false after re-enabling")
	}
}

func TestUnknownProbeIsUnavailable(t *testing.T) {
	engine := tts.NewMockEngine()
	fake := clock.NewFake()
	n := New(engine, tts.ProbeFunc(func() tts.Availability { return tts.AvailabilityUnknown }),
		WithScheduler(fake), WithMetrics(observe.Noop()))
	defer n.Close()

	n.Speak("Link")
	fake.Advance(time.Second)
	if len(engine.Calls()) != 0 {
		t.Error("engine called with unknown availability")
	}
}

func TestNilEngineIsUnavailable(t *testing.T) {
	n := New(nil, nil, WithMetrics(observe.Noop()))
	defer n.Close()
	if n.Availability() != tts.Unavailable {
		t.Errorf("Availability() = %v, want unavailable", n.Availability())
	}
	n.Speak("nothing happens")
}

func TestNewUtteranceCancelsPrevious(t *testing.T) {
	n, engine, fake := newTestNarrator(t)

	n.Speak("A")
	n.Speak("B")
	fake.Advance(time.Second)

	calls := engine.Calls()
	want := []tts.Call{{Op: tts.OpStop}, {Op: tts.OpSpeak, Text: "B"}}
	if len(calls) != len(want) {
		t.Fatalf("calls = %+v, want %+v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %+v, want %+v", i, calls[i], want[i])
		}
	}
}

func TestSpeakStopsPlayingUtterance(t *testing.T) {
	n, engine, fake := newTestNarrator(t)

	n.Speak("first")
	fake.Advance(DefaultSpeakDelay)
	if !engine.IsPlaying() {
		t.Fatal("engine not playing after first utterance")
	}

	n.Speak("second")
	fake.Advance(DefaultSpeakDelay)

	calls := engine.Calls()
	if len(calls) != 3 || calls[1].Op != tts.OpStop || calls[2].Text != "second" {
		t.Errorf("calls = %+v", calls)
	}
}

func TestIdleEngineIsNotStopped(t *testing.T) {
	n, engine, fake := newTestNarrator(t)

	n.Speak("first")
	fake.Advance(DefaultSpeakDelay)
	engine.Finish()
	engine.Reset()

	n.Speak("second")
	fake.Advance(DefaultSpeakDelay)

	calls := engine.Calls()
	if len(calls) != 1 || calls[0].Op != tts.OpSpeak {
		t.Errorf("calls = %+v, want a single speak", calls)
	}
}

func TestDisableDropsPendingUtterance(t *testing.T) {
	n, engine, fake := newTestNarrator(t)

	n.Speak("Edit Alice Johnson")
	n.SetEnabled(false)
	fake.Advance(time.Second)

	if got := engine.Spoken(); len(got) != 0 {
		t.Errorf("Spoken() = %v, want none", got)
	}
}

func TestSubscribersSeeToggles(t *testing.T) {
	n, _, _ := newTestNarrator(t)

	var a, b []bool
	unsubA := n.Subscribe(func(v bool) { a = append(a, v) })
	n.Subscribe(func(v bool) { b = append(b, v) })

	n.SetEnabled(false)
	n.SetEnabled(false) // unchanged, not delivered
	unsubA()
	n.SetEnabled(true)

	if len(a) != 1 || a[0] {
		t.Errorf("subscriber a got %v, want [false]", a)
	}
	if len(b) != 2 || b[0] || !b[1] {
		t.Errorf("subscriber b got %v, want [false true]", b)
	}
}

func TestCloseCancelsPending(t *testing.T) {
	engine := tts.NewMockEngine()
	fake := clock.NewFake()
	n := New(engine, nil, WithScheduler(fake), WithMetrics(observe.Noop()))

	n.Speak("pending")
	n.Close()
	fake.Advance(time.Second)
	n.Speak("after close")
	fake.Advance(time.Second)

	if got := engine.Spoken(); len(got) != 0 {
		t.Errorf("Spoken() = %v, want none", got)
	}
	if fake.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", fake.Pending())
	}
}

func TestSpeakRecordsMetrics(t *testing.T) {
	rec, err := observe.NewRecorder()
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	defer rec.Shutdown(context.Background())

	n, _, fake := newTestNarrator(t, WithMetrics(rec.Metrics))
	n.Speak("A")
	n.Speak("B")
	fake.Advance(time.Second)
	n.SetEnabled(false)
	n.Speak("C")

	totals, err := rec.Totals(context.Background())
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if totals["narrator.utterances.spoken"] != 1 {
		t.Errorf("spoken = %d, want 1", totals["narrator.utterances.spoken"])
	}
	if totals["narrator.utterances.suppressed{reason=disabled}"] != 1 {
		t.Errorf("suppressed = %v", totals)
	}
}

func TestContextAccessors(t *testing.T) {
	n, _, _ := newTestNarrator(t)
	ctx := NewContext(context.Background(), n)

	if got, ok := FromContext(ctx); !ok || got != n {
		t.Error("FromContext did not return the stored narrator")
	}
	if MustFromContext(ctx) != n {
		t.Error("MustFromContext did not return the stored narrator")
	}
	if _, ok := FromContext(context.Background()); ok {
		t.Error("FromContext found a narrator in an empty context")
	}
}

func TestMustFromContextPanicsWithoutNarrator(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustFromContext did not panic")
		}
	}()
	MustFromContext(context.Background())
}

func TestToggleLabel(t *testing.T) {
	if got := ToggleLabel(true); got != "Disable narrator, currently on" {
		t.Errorf("ToggleLabel(true) = %q", got)
	}
	if got := ToggleLabel(false); got != "Enable narrator, currently off" {
		t.Errorf("ToggleLabel(false) = %q", got)
	}
}
