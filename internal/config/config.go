// Package config loads narrator settings through viper from the config
// file, FOCUSNARRATOR_* environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"focusnarrator/internal/narration/tts"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config keys.
const (
	KeyLogLevel          = "log.level"
	KeyNarratorEnabled   = "narrator.enabled"
	KeyKeyboardGate      = "narrator.keyboard_gate"
	KeySpeakDelay        = "narrator.speak_delay"
	KeyClearDelay        = "announcer.clear_delay"
	KeyFocusDelay        = "announcer.focus_delay"
	KeyMainID            = "announcer.main_id"
	KeyTTSType           = "tts.type"
	KeyTTSVoice          = "tts.voice"
	KeyTTSSpeed          = "tts.speed"
	KeyTTSVolume         = "tts.volume"
	KeyTTSCachePath      = "tts.cache_path"
	KeyVoiceCacheMaxAge  = "tts.voice_cache_max_age"
	envPrefix            = "FOCUSNARRATOR"
	configName           = "focusnarrator"
	defaultVoiceCacheAge = 24 * time.Hour
)

var engineTypes = []tts.EngineType{
	tts.EngineTypeAuto,
	tts.EngineTypeMock,
	tts.EngineTypeESpeak,
	tts.EngineTypeSay,
	tts.EngineTypeGoogleClassic,
	tts.EngineTypeNone,
}

// Config is the effective narrator configuration.
type Config struct {
	LogLevel string

	Narrator struct {
		Enabled      bool
		KeyboardGate bool
		SpeakDelay   time.Duration
	}

	Announcer struct {
		ClearDelay time.Duration
		FocusDelay time.Duration
		MainID     string
	}

	TTS struct {
		Type             string
		Voice            string
		Speed            float64
		Volume           float64
		CachePath        string
		VoiceCacheMaxAge time.Duration
	}
}

// SetDefaults registers the built-in defaults on the global viper.
func SetDefaults() {
	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyLogLevel, "warn")

	v.SetDefault(KeyNarratorEnabled, true)
	v.SetDefault(KeyKeyboardGate, true)
	v.SetDefault(KeySpeakDelay, 50*time.Millisecond)

	v.SetDefault(KeyClearDelay, time.Second)
	v.SetDefault(KeyFocusDelay, 100*time.Millisecond)
	v.SetDefault(KeyMainID, "main-content")

	v.SetDefault(KeyTTSType, "auto") // Auto-select best engine
	v.SetDefault(KeyTTSVoice, "default")
	v.SetDefault(KeyTTSSpeed, 1.0)
	v.SetDefault(KeyTTSVolume, 0.8)
	v.SetDefault(KeyTTSCachePath, "")
	v.SetDefault(KeyVoiceCacheMaxAge, defaultVoiceCacheAge)
}

// Init points the global viper at cfgFile, or at focusnarrator.yaml in
// $HOME/.focusnarrator and the working directory, and reads it. A missing
// config file is not an error.
func Init(cfgFile string) error {
	v := viper.GetViper()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.focusnarrator")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			logrus.Debug("no config file found, using defaults")
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	logrus.WithField("file", v.ConfigFileUsed()).Debug("loaded config file")
	return nil
}

// Load returns the validated configuration held by the global viper.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	c := &Config{}
	c.LogLevel = v.GetString(KeyLogLevel)

	c.Narrator.Enabled = v.GetBool(KeyNarratorEnabled)
	c.Narrator.KeyboardGate = v.GetBool(KeyKeyboardGate)
	c.Narrator.SpeakDelay = v.GetDuration(KeySpeakDelay)

	c.Announcer.ClearDelay = v.GetDuration(KeyClearDelay)
	c.Announcer.FocusDelay = v.GetDuration(KeyFocusDelay)
	c.Announcer.MainID = v.GetString(KeyMainID)

	c.TTS.Type = strings.ToLower(v.GetString(KeyTTSType))
	c.TTS.Voice = v.GetString(KeyTTSVoice)
	c.TTS.Speed = v.GetFloat64(KeyTTSSpeed)
	c.TTS.Volume = v.GetFloat64(KeyTTSVolume)
	c.TTS.CachePath = v.GetString(KeyTTSCachePath)
	c.TTS.VoiceCacheMaxAge = v.GetDuration(KeyVoiceCacheMaxAge)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate reports every out-of-range setting.
func (c *Config) Validate() error {
	var errs []error

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyLogLevel, err))
	}
	if c.Narrator.SpeakDelay < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %s", KeySpeakDelay, c.Narrator.SpeakDelay))
	}
	if c.Announcer.ClearDelay < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %s", KeyClearDelay, c.Announcer.ClearDelay))
	}
	if c.Announcer.FocusDelay < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %s", KeyFocusDelay, c.Announcer.FocusDelay))
	}
	if c.Announcer.MainID == "" {
		errs = append(errs, fmt.Errorf("%s must not be empty", KeyMainID))
	}
	if !knownEngine(c.TTS.Type) {
		errs = append(errs, fmt.Errorf("%s: %w: %q", KeyTTSType, tts.ErrUnsupportedEngine, c.TTS.Type))
	}
	if c.TTS.Speed <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", KeyTTSSpeed, c.TTS.Speed))
	}
	if c.TTS.Volume < 0 || c.TTS.Volume > 1 {
		errs = append(errs, fmt.Errorf("%s must be within [0, 1], got %v", KeyTTSVolume, c.TTS.Volume))
	}

	return errors.Join(errs...)
}

func knownEngine(name string) bool {
	for _, t := range engineTypes {
		if name == t.String() {
			return true
		}
	}
	return false
}

// TTSConfig converts the speech settings for tts.NewEngine.
func (c *Config) TTSConfig() tts.Config {
	return tts.Config{
		Type:      c.TTS.Type,
		Speed:     c.TTS.Speed,
		Volume:    c.TTS.Volume,
		Voice:     c.TTS.Voice,
		CachePath: c.TTS.CachePath,
	}
}

// ConfigureLogging applies the configured level to the standard logrus
// logger.
func (c *Config) ConfigureLogging() {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.WarnLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
}
