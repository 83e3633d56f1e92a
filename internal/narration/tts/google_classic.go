package tts

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/sirupsen/logrus"
	texttospeechpb "google.golang.org/genproto/googleapis/cloud/texttospeech/v1"
)

const defaultGoogleVoice = "en-US-Standard-C"

// GoogleClassicTTSEngine synthesizes with Google Cloud Text-to-Speech and
// plays the MP3 result through the system speaker. Synthesized audio is
// cached on disk because narration repeats the same short labels often.
type GoogleClassicTTSEngine struct {
	client    *texttospeech.Client
	ctx       context.Context
	voice     string
	speed     float64
	volume    float64
	cacheDir  string
	isPlaying bool
	streamer  beep.StreamSeekCloser
	rate      beep.SampleRate // speaker sample rate, zero until initialized
	mu        sync.Mutex
}

func newGoogleClassicTTSEngine(config Config) (*GoogleClassicTTSEngine, error) {
	ctx := context.Background()
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create TTS client: %w", err)
	}

	cacheDir := CacheDir(config)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}

	voice := config.Voice
	if voice == "" || voice == "default" {
		voice = defaultGoogleVoice
	}

	return &GoogleClassicTTSEngine{
		client:   client,
		ctx:      ctx,
		voice:    voice,
		speed:    config.Speed,
		volume:   config.Volume,
		cacheDir: cacheDir,
	}, nil
}

func (g *GoogleClassicTTSEngine) Speak(text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopLocked()

	path, err := g.synthesize(text)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open cached MP3 %s: %w", path, err)
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to decode MP3 %s: %w", path, err)
	}

	if g.rate == 0 {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			streamer.Close()
			return err
		}
		g.rate = format.SampleRate
	}

	var s beep.Streamer = streamer
	if format.SampleRate != g.rate {
		s = beep.Resample(4, format.SampleRate, g.rate, streamer)
	}

	g.streamer = streamer
	g.isPlaying = true
	speaker.Play(beep.Seq(s, beep.Callback(func() {
		// The callback runs under the speaker lock, which stopLocked also
		// takes while holding g.mu.
		go func() {
			g.mu.Lock()
			if g.streamer == streamer {
				g.isPlaying = false
			}
			g.mu.Unlock()
		}()
	})))
	return nil
}

// synthesize returns the path of an MP3 for text, calling the API only
// when the cache misses.
func (g *GoogleClassicTTSEngine) synthesize(text string) (string, error) {
	path := filepath.Join(g.cacheDir, fmt.Sprintf("%s_%s.mp3", g.voice, md5Sum(text + g.voice)[:12]))
	if _, err := os.Stat(path); err == nil {
		logrus.WithField("path", path).Debug("using cached narration audio")
		return path, nil
	}

	audioCfg := &texttospeechpb.AudioConfig{
		AudioEncoding: texttospeechpb.AudioEncoding_MP3,
	}
	// Chirp voices don't support speakingRate/volume
	if !strings.Contains(strings.ToLower(g.voice), "chirp") {
		audioCfg.SpeakingRate = g.speed
		audioCfg.VolumeGainDb = volumeGainDb(g.volume)
	}

	resp, err := g.client.SynthesizeSpeech(g.ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: languageCode(g.voice),
			Name:         g.voice,
		},
		AudioConfig: audioCfg,
	})
	if err != nil {
		return "", fmt.Errorf("failed to synthesize speech: %w", err)
	}

	if err := os.WriteFile(path, resp.AudioContent, 0644); err != nil {
		return "", fmt.Errorf("failed to write MP3 to %s: %w", path, err)
	}
	return path, nil
}

func (g *GoogleClassicTTSEngine) Stop() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopLocked()
	return nil
}

func (g *GoogleClassicTTSEngine) stopLocked() {
	if g.streamer == nil {
		return
	}
	speaker.Clear()
	g.streamer.Close()
	g.streamer = nil
	g.isPlaying = false
}

func (g *GoogleClassicTTSEngine) IsPlaying() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.isPlaying
}

func (g *GoogleClassicTTSEngine) GetAvailableVoices() ([]string, error) {
	resp, err := g.client.ListVoices(g.ctx, &texttospeechpb.ListVoicesRequest{})
	if err != nil {
		return nil, err
	}
	voices := []string{}
	for _, v := range resp.Voices {
		voices = append(voices, v.Name)
	}
	return voices, nil
}

// languageCode extracts "en-US" from a voice name like "en-US-Standard-C".
func languageCode(voice string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) < 2 {
		return "en-US"
	}
	return parts[0] + "-" + parts[1]
}

// volumeGainDb maps a linear volume (1.0 = unchanged) to the API's gain,
// clamped to its [-96, 16] dB range.
func volumeGainDb(volume float64) float64 {
	if volume <= 0 {
		return -96
	}
	return math.Max(-96, math.Min(16, 20*math.Log10(volume)))
}

func md5Sum(s string) string {
	h := md5.New()
	io.WriteString(h, s)
	return fmt.Sprintf("%x", h.Sum(nil))
}
