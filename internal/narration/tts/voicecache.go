package tts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// CacheDir returns the directory engines and the voice cache write to:
// config.CachePath, or a focusnarrator directory under the system temp dir.
func CacheDir(config Config) string {
	if config.CachePath != "" {
		return config.CachePath
	}
	return filepath.Join(os.TempDir(), "focusnarrator")
}

// VoiceLister is the part of Engine the voice cache needs.
type VoiceLister interface {
	GetAvailableVoices() ([]string, error)
}

// VoiceCache keeps an engine's voice list on disk so listing voices does
// not hit the engine (or the network, for cloud engines) every time.
type VoiceCache struct {
	cacheFile string
	maxAge    time.Duration
	now       func() time.Time
}

// CachedVoices is the on-disk form of a voice list.
type CachedVoices struct {
	Engine      string    `json:"engine"`
	Voices      []string  `json:"voices"`
	LastUpdated time.Time `json:"last_updated"`
}

// VoiceCacheInfo describes the cache file.
type VoiceCacheInfo struct {
	Path         string
	Exists       bool
	Size         int64
	LastModified time.Time
	Fresh        bool
	MaxAge       time.Duration
}

// NewVoiceCache creates a cache for engineType's voices in cacheDir.
func NewVoiceCache(cacheDir, engineType string, maxAge time.Duration) *VoiceCache {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		logrus.WithError(err).Warn("Failed to create cache directory")
	}

	return &VoiceCache{
		cacheFile: filepath.Join(cacheDir, fmt.Sprintf("voices_%s.json", engineType)),
		maxAge:    maxAge,
		now:       time.Now,
	}
}

// Voices returns the voice list from the cache while it is fresh, and from
// lister otherwise. When lister fails a stale cache is still served.
func (vc *VoiceCache) Voices(engineType string, lister VoiceLister) ([]string, error) {
	if vc.isCacheFresh() {
		if cached, err := vc.loadFromCache(); err == nil {
			return cached.Voices, nil
		}
	}

	voices, err := lister.GetAvailableVoices()
	if err != nil {
		logrus.WithError(err).Warn("Listing voices failed, trying stale cache")
		if cached, cacheErr := vc.loadFromCache(); cacheErr == nil {
			return cached.Voices, nil
		}
		return nil, fmt.Errorf("failed to list voices and no cache available: %w", err)
	}

	if err := vc.saveToCache(engineType, voices); err != nil {
		logrus.WithError(err).Warn("Failed to save voices to cache")
	}
	return voices, nil
}

func (vc *VoiceCache) isCacheFresh() bool {
	info, err := os.Stat(vc.cacheFile)
	if err != nil {
		return false
	}
	return vc.now().Sub(info.ModTime()) < vc.maxAge
}

func (vc *VoiceCache) loadFromCache() (*CachedVoices, error) {
	file, err := os.Open(vc.cacheFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache file: %w", err)
	}
	defer file.Close()

	var cached CachedVoices
	if err := json.NewDecoder(file).Decode(&cached); err != nil {
		return nil, fmt.Errorf("failed to decode cache file: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"engine":       cached.Engine,
		"voices":       len(cached.Voices),
		"last_updated": cached.LastUpdated.Format(time.RFC3339),
	}).Debug("Loaded voices from cache")

	return &cached, nil
}

func (vc *VoiceCache) saveToCache(engineType string, voices []string) error {
	cached := CachedVoices{
		Engine:      engineType,
		Voices:      voices,
		LastUpdated: vc.now(),
	}

	file, err := os.Create(vc.cacheFile)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cached); err != nil {
		return fmt.Errorf("failed to encode cache data: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"voices": len(voices),
		"file":   vc.cacheFile,
	}).Debug("Saved voices to cache")

	return nil
}

// ClearCache removes the cache file.
func (vc *VoiceCache) ClearCache() error {
	if err := os.Remove(vc.cacheFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	logrus.Debug("Cleared voice cache")
	return nil
}

// Info describes the cache file.
func (vc *VoiceCache) Info() VoiceCacheInfo {
	info := VoiceCacheInfo{Path: vc.cacheFile, MaxAge: vc.maxAge}
	if stat, err := os.Stat(vc.cacheFile); err == nil {
		info.Exists = true
		info.Size = stat.Size()
		info.LastModified = stat.ModTime()
		info.Fresh = vc.isCacheFresh()
	}
	return info
}
