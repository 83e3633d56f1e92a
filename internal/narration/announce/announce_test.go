package announce

import (
	"testing"
	"time"

	"focusnarrator/internal/clock"
	"focusnarrator/internal/domain/dom"
	"focusnarrator/internal/observe"
)

func newTestAnnouncer(t *testing.T) (*Announcer, *clock.Fake) {
	t.Helper()
	fake := clock.NewFake()
	a := New(DefaultConfig(), WithScheduler(fake), WithMetrics(observe.Noop()))
	t.Cleanup(a.Close)
	return a, fake
}

func TestPageName(t *testing.T) {
	tests := []struct {
		path, title, want string
	}{
		{"/dashboard/settings", "Settings", "Settings"},
		{"/dashboard/leaderboard", "", "leaderboard"},
		{"/dashboard/leaderboard/", "  ", "leaderboard"},
		{"/", "", "Page"},
		{"", "", "Page"},
	}
	for _, tc := range tests {
		if got := PageName(tc.path, tc.title); got != tc.want {
			t.Errorf("PageName(%q, %q) = %q, want %q", tc.path, tc.title, got, tc.want)
		}
	}
}

func TestNavigatedClearsAfterDelay(t *testing.T) {
	a, fake := newTestAnnouncer(t)

	a.Navigated("/dashboard/leaderboard", "")
	if got := a.Route().Text(); got != "Navigated to leaderboard" {
		t.Fatalf("Text() = %q", got)
	}

	fake.Advance(DefaultClearDelay - time.Millisecond)
	if a.Route().Text() == "" {
		t.Fatal("cleared before the delay")
	}
	fake.Advance(time.Millisecond)
	if got := a.Route().Text(); got != "" {
		t.Errorf("Text() after delay = %q, want empty", got)
	}
}

func TestRepeatNavigationIsAnnouncedAgain(t *testing.T) {
	a, fake := newTestAnnouncer(t)

	var seen []string
	a.Route().Subscribe(func(text string) { seen = append(seen, text) })

	a.Navigated("/dashboard", "Dashboard")
	fake.Advance(DefaultClearDelay)
	a.Navigated("/dashboard", "Dashboard")

	want := []string{"Navigated to Dashboard", "", "Navigated to Dashboard"}
	if len(seen) != len(want) {
		t.Fatalf("mutations = %q, want %q", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("mutation %d = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestRepeatNavigationBeforeClearStillMutates(t *testing.T) {
	a, fake := newTestAnnouncer(t)

	var seen []string
	a.Route().Subscribe(func(text string) { seen = append(seen, text) })

	a.Navigated("/dashboard", "Dashboard")
	fake.Advance(DefaultClearDelay / 2)
	a.Navigated("/dashboard", "Dashboard")

	if len(seen) != 3 || seen[2] != "Navigated to Dashboard" {
		t.Fatalf("mutations = %q", seen)
	}

	// The first clear was cancelled; the region clears one full delay after
	// the second navigation.
	fake.Advance(DefaultClearDelay / 2)
	if a.Route().Text() == "" {
		t.Error("stale clear timer fired")
	}
	fake.Advance(DefaultClearDelay / 2)
	if a.Route().Text() != "" {
		t.Error("route region not cleared")
	}
}

func TestFocusMainGrantsAndRevokesTabindex(t *testing.T) {
	a, fake := newTestAnnouncer(t)
	doc := dom.MustParse(`<body><main id="main-content"><h1>Users</h1></main></body>`)
	main := doc.ElementByID("main-content")

	var focused []string
	doc.AddEventListener(dom.EventFocus, func(ev dom.Event) { focused = append(focused, ev.Target.ID()) })

	a.FocusMain(doc)
	if v, ok := main.Attr("tabindex"); !ok || v != "-1" {
		t.Fatalf("tabindex = %q, %v; want -1 during the delay", v, ok)
	}

	fake.Advance(DefaultFocusDelay)
	if len(focused) != 1 || focused[0] != "main-content" {
		t.Errorf("focused = %v", focused)
	}
	if doc.ActiveElement() != main {
		t.Error("main is not the active element")
	}
	if main.HasAttr("tabindex") {
		t.Error("temporary tabindex not revoked")
	}
}

func TestFocusMainKeepsExistingTabindex(t *testing.T) {
	a, fake := newTestAnnouncer(t)
	doc := dom.MustParse(`<body><main id="main-content" tabindex="-1"></main></body>`)

	a.FocusMain(doc)
	fake.Advance(DefaultFocusDelay)

	if v, _ := doc.ElementByID("main-content").Attr("tabindex"); v != "-1" {
		t.Errorf("tabindex = %q, want -1 kept", v)
	}
}

func TestFocusMainSkipsDetachedLandmark(t *testing.T) {
	a, fake := newTestAnnouncer(t)
	doc := dom.MustParse(`<body><main id="main-content"></main></body>`)
	main := doc.ElementByID("main-content")

	a.FocusMain(doc)
	main.Remove()
	fake.Advance(DefaultFocusDelay)

	if doc.ActiveElement() != nil {
		t.Error("detached landmark received focus")
	}
}

func TestFocusMainMissingLandmark(t *testing.T) {
	a, fake := newTestAnnouncer(t)
	doc := dom.NewDocument("empty")
	a.FocusMain(doc)
	if fake.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", fake.Pending())
	}
}

func TestCloseCancelsTimers(t *testing.T) {
	fake := clock.NewFake()
	a := New(Config{}, WithScheduler(fake), WithMetrics(observe.Noop()))
	doc := dom.MustParse(`<body><main id="main-content"></main></body>`)

	a.Navigated("/dashboard", "")
	a.FocusMain(doc)
	a.Close()

	if fake.Pending() != 0 {
		t.Errorf("Pending() = %d after Close, want 0", fake.Pending())
	}
	if doc.ElementByID("main-content").HasAttr("tabindex") {
		t.Error("tabindex left behind after Close")
	}
	a.Navigated("/other", "")
	if got := a.Route().Text(); got != "Navigated to dashboard" {
		t.Errorf("Navigated after Close changed text to %q", got)
	}
}

func TestStatusReplacesPreviousMessage(t *testing.T) {
	a, _ := newTestAnnouncer(t)

	var seen []string
	a.StatusRegion().Subscribe(func(text string) { seen = append(seen, text) })

	a.Status(FiltersApplied(5))
	a.Status(UserAdded("Alice Johnson"))
	a.Status(UserAdded("Alice Johnson"))

	if got := a.StatusRegion().Text(); got != "Alice Johnson has been added successfully." {
		t.Errorf("Text() = %q", got)
	}
	if len(seen) != 2 {
		t.Errorf("mutations = %q, want 2", seen)
	}
	if a.StatusRegion().Politeness() != Polite || a.AlertRegion().Politeness() != Assertive {
		t.Error("unexpected region politeness")
	}
}

func TestMessages(t *testing.T) {
	tests := []struct{ got, want string }{
		{ResultsFound(5), "5 results found"},
		{ResultsFound(1), "1 result found"},
		{FiltersApplied(1), "Filters applied. Showing 1 result."},
		{FiltersApplied(0), "Filters applied. Showing 0 results."},
		{FiltersReset(), "Filters reset. Showing all users."},
		{UserDeleted("Bob"), "Bob has been deleted."},
		{EditOpened("Bob"), "Opening edit form for Bob"},
		{PageChanged(2, 5), "Navigated to page 2 of 5"},
		{SettingsSaved(), "Settings saved successfully"},
		{SaveFailed("network"), "Settings could not be saved: network"},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Errorf("got %q, want %q", tc.got, tc.want)
		}
	}
}
