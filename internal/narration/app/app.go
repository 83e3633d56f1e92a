// Package app holds the focusnarrator command handlers: it turns the
// effective configuration into engines, narrators and shells and drives
// them from the command line.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"focusnarrator/internal/cli/scheme/colours"
	"focusnarrator/internal/clock"
	"focusnarrator/internal/config"
	"focusnarrator/internal/domain/dom"
	"focusnarrator/internal/narration/narrator"
	"focusnarrator/internal/narration/resolve"
	"focusnarrator/internal/narration/tts"
	"focusnarrator/internal/observe"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// ErrElementNotFound is returned when a fixture has no element with the
// requested id.
var ErrElementNotFound = errors.New("element not found")

// ErrNoSpeech is returned by Speak when no engine can produce audio.
var ErrNoSpeech = errors.New("no speech engine available")

// NarrateAttr supplies an element's explicit narration label in HTML
// fixtures.
const NarrateAttr = "data-narrate"

// ToggleAttr marks the narrator on/off control in HTML fixtures.
const ToggleAttr = "data-narrator-toggle"

const (
	pollInterval = 50 * time.Millisecond
	maxSpeakWait = time.Minute
)

// App is the focusnarrator command-line application.
type App struct {
	cfg *config.Config
	out io.Writer

	newEngine func(tts.Config) (tts.Engine, error)
	prober    func(engineType string) tts.Prober

	ctx    context.Context
	Cancel context.CancelFunc

	mu     sync.Mutex
	active tts.Engine
}

// Option configures an App.
type Option func(*App)

// WithOutput redirects command output, which defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(a *App) { a.out = w }
}

// WithEngineFactory replaces tts.NewEngine and tts.ProberFor.
func WithEngineFactory(newEngine func(tts.Config) (tts.Engine, error), prober func(string) tts.Prober) Option {
	return func(a *App) {
		a.newEngine = newEngine
		a.prober = prober
	}
}

func New(cfg *config.Config, opts ...Option) *App {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		cfg:       cfg,
		out:       os.Stdout,
		newEngine: tts.NewEngine,
		prober:    tts.ProberFor,
		ctx:       ctx,
		Cancel:    cancel,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Stop silences whatever engine is currently speaking.
func (a *App) Stop() {
	a.mu.Lock()
	engine := a.active
	a.mu.Unlock()
	if engine != nil {
		if err := engine.Stop(); err != nil {
			logrus.WithError(err).Warn("failed to stop tts engine")
		}
	}
}

// openEngine builds the configured engine. A missing engine is not fatal:
// the narrator just stays silent.
func (a *App) openEngine() (tts.Engine, tts.Prober) {
	engine, err := a.newEngine(a.cfg.TTSConfig())
	switch {
	case errors.Is(err, tts.ErrNoEngine):
		logrus.Debug("speech synthesis switched off")
		return nil, nil
	case err != nil:
		logrus.WithError(err).WithField("type", a.cfg.TTS.Type).Warn("failed to create tts engine")
		return nil, nil
	}

	a.mu.Lock()
	a.active = engine
	a.mu.Unlock()
	return engine, a.prober(a.cfg.TTS.Type)
}

func (a *App) ShowWelcome() {
	fmt.Fprintln(a.out)
	colours.Title.Fprintln(a.out, "🔈 focusnarrator")
	fmt.Fprintln(a.out)
	colours.Info.Fprintln(a.out, "📚 Available commands:")
	fmt.Fprintln(a.out, "  • focusnarrator resolve  - Show what focusing an element would say")
	fmt.Fprintln(a.out, "  • focusnarrator speak    - Speak text through the narrator")
	fmt.Fprintln(a.out, "  • focusnarrator replay   - Replay a scripted keyboard session")
	fmt.Fprintln(a.out, "  • focusnarrator engines  - List speech engines")
	fmt.Fprintln(a.out, "  • focusnarrator voices   - List voices of the configured engine")
	fmt.Fprintln(a.out, "  • focusnarrator settings - Show narrator settings")
}

// ResolveElement prints the narration text for an element of an HTML
// fixture. args are the fixture path and the element id.
func (a *App) ResolveElement(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(args[0])
	if err != nil {
		return err
	}
	el := doc.ElementByID(args[1])
	if el == nil {
		return fmt.Errorf("%w: %q in %s", ErrElementNotFound, args[1], args[0])
	}

	explicit, _ := cmd.Flags().GetString("label")
	if explicit == "" {
		explicit, _ = el.Attr(NarrateAttr)
	}
	fmt.Fprintln(a.out, resolve.Element(el, explicit))
	return nil
}

// Speak narrates the joined args with the configured engine and waits
// until the engine goes quiet.
func (a *App) Speak(cmd *cobra.Command, args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return errors.New("nothing to speak")
	}
	if !a.cfg.Narrator.Enabled {
		colours.Warning.Fprintln(a.out, "🔇 Narrator is disabled (narrator.enabled=false)")
		return nil
	}

	engine, probe := a.openEngine()
	if engine == nil {
		return ErrNoSpeech
	}
	if mock, ok := engine.(*tts.MockEngine); ok {
		mock.WithOutput(a.out)
	}

	n := narrator.New(engine, probe,
		narrator.WithSpeakDelay(a.cfg.Narrator.SpeakDelay),
		narrator.WithScheduler(clock.Real{}),
		narrator.WithMetrics(observe.Noop()))
	defer n.Close()

	if n.Availability() != tts.Available {
		return fmt.Errorf("%w: %s is %s", ErrNoSpeech, a.cfg.TTS.Type, n.Availability())
	}

	n.Speak(text)
	return a.waitIdle(engine, a.cfg.Narrator.SpeakDelay)
}

// waitIdle gives the narrator its debounce delay and then waits for the
// engine to finish, for the context to end, or for maxSpeakWait.
func (a *App) waitIdle(engine tts.Engine, delay time.Duration) error {
	if !sleep(a.ctx, delay+pollInterval) {
		return a.ctx.Err()
	}
	deadline := time.Now().Add(maxSpeakWait)
	for engine.IsPlaying() {
		if time.Now().After(deadline) {
			logrus.Warn("gave up waiting for speech to finish")
			return nil
		}
		if !sleep(a.ctx, pollInterval) {
			return a.ctx.Err()
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// ListEngines prints every engine type with its probed availability.
func (a *App) ListEngines(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(a.out)
	colours.Title.Fprintln(a.out, "🎤 Speech Engines")
	fmt.Fprintln(a.out)

	for _, engineType := range tts.GetAvailableEngines() {
		availability := a.prober(engineType.String()).Probe()
		marker := "  "
		if engineType.String() == a.cfg.TTS.Type {
			marker = "▸ "
		}
		fmt.Fprintf(a.out, "%s%-14s ", marker, engineType)
		if availability == tts.Available {
			colours.Success.Fprintln(a.out, availability)
		} else {
			colours.Warning.Fprintln(a.out, availability)
		}
	}

	fmt.Fprintln(a.out)
	colours.Info.Fprintf(a.out, "Configured: %s (auto picks the first available engine)\n", a.cfg.TTS.Type)
	return nil
}

// ListVoices prints the configured engine's voices through the voice
// cache. --refresh drops the cache first, --cache-info describes it.
func (a *App) ListVoices(cmd *cobra.Command, args []string) error {
	cache := tts.NewVoiceCache(tts.CacheDir(a.cfg.TTSConfig()), a.cfg.TTS.Type, a.cfg.TTS.VoiceCacheMaxAge)

	if info, _ := cmd.Flags().GetBool("cache-info"); info {
		a.printCacheInfo(cache.Info())
		return nil
	}
	if refresh, _ := cmd.Flags().GetBool("refresh"); refresh {
		if err := cache.ClearCache(); err != nil {
			return err
		}
	}

	engine, _ := a.openEngine()
	if engine == nil {
		return ErrNoSpeech
	}
	voices, err := cache.Voices(a.cfg.TTS.Type, engine)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out)
	colours.Title.Fprintf(a.out, "🗣️ Voices for %s\n", a.cfg.TTS.Type)
	fmt.Fprintln(a.out)
	for _, voice := range voices {
		marker := "  "
		if voice == a.cfg.TTS.Voice {
			marker = "▸ "
		}
		fmt.Fprintf(a.out, "%s%s\n", marker, voice)
	}
	colours.Success.Fprintf(a.out, "\n✨ %d voices\n", len(voices))
	return nil
}

func (a *App) printCacheInfo(info tts.VoiceCacheInfo) {
	colours.Title.Fprintln(a.out, "📊 Voice Cache Status")
	if !info.Exists {
		colours.Warning.Fprintln(a.out, "❌ Cache does not exist")
		colours.Info.Fprintln(a.out, "💡 Run 'focusnarrator voices' to create it")
		return
	}

	colours.Success.Fprintln(a.out, "✅ Cache exists")
	colours.Info.Fprintf(a.out, "📁 Location: %s\n", info.Path)
	colours.Info.Fprintf(a.out, "📏 Size: %d bytes\n", info.Size)
	colours.Info.Fprintf(a.out, "🕐 Last modified: %s\n", info.LastModified.Format("2006-01-02 15:04:05"))
	if info.Fresh {
		colours.Success.Fprintln(a.out, "🔄 Cache is fresh")
	} else {
		colours.Warning.Fprintln(a.out, "⏰ Cache is stale")
	}
	colours.Info.Fprintf(a.out, "⏳ Max age: %.1f hours\n", info.MaxAge.Hours())
}

// ShowSettings prints the effective narrator settings.
func (a *App) ShowSettings(cmd *cobra.Command, args []string) error {
	c := a.cfg
	fmt.Fprintln(a.out)
	colours.Title.Fprintln(a.out, "⚙️ Narrator Settings")
	fmt.Fprintln(a.out)

	colours.Prompt.Fprintln(a.out, "🔈 Narrator:")
	fmt.Fprintf(a.out, "  • Enabled: %t\n", c.Narrator.Enabled)
	fmt.Fprintf(a.out, "  • Keyboard gate: %t\n", c.Narrator.KeyboardGate)
	fmt.Fprintf(a.out, "  • Speak delay: %s\n", c.Narrator.SpeakDelay)
	fmt.Fprintln(a.out)

	colours.Prompt.Fprintln(a.out, "📣 Announcer:")
	fmt.Fprintf(a.out, "  • Route clear delay: %s\n", c.Announcer.ClearDelay)
	fmt.Fprintf(a.out, "  • Focus delay: %s\n", c.Announcer.FocusDelay)
	fmt.Fprintf(a.out, "  • Main landmark: #%s\n", c.Announcer.MainID)
	fmt.Fprintln(a.out)

	colours.Prompt.Fprintln(a.out, "🎤 Voice:")
	fmt.Fprintf(a.out, "  • Engine: %s\n", c.TTS.Type)
	fmt.Fprintf(a.out, "  • Voice: %s\n", c.TTS.Voice)
	fmt.Fprintf(a.out, "  • Speed: %.1fx\n", c.TTS.Speed)
	fmt.Fprintf(a.out, "  • Volume: %.0f%%\n", c.TTS.Volume*100)
	fmt.Fprintf(a.out, "  • Cache: %s\n", tts.CacheDir(c.TTSConfig()))
	return nil
}

func loadDocument(path string) (*dom.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	doc, err := dom.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}
