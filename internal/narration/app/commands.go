package app

import (
	"fmt"

	"focusnarrator/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootCommand builds the focusnarrator command tree. Unless the App was
// created with a configuration, it is loaded once flags are parsed.
func (a *App) RootCommand() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "focusnarrator",
		Short: "🔈 Speak what has keyboard focus",
		Long: `
┌─────────────────────────────────────┐
│  🔈 focusnarrator                   │
│  Hear where keyboard focus lands    │
└─────────────────────────────────────┘

focusnarrator resolves what a screen-reader-style narrator would say when
an element of a page receives keyboard focus, speaks it through the best
speech engine on this machine, and replays scripted keyboard sessions
against HTML pages.
		`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg != nil {
				return nil
			}
			if err := config.Init(cfgFile); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			cfg.ConfigureLogging()
			a.cfg = cfg
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			a.ShowWelcome()
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default $HOME/.focusnarrator/focusnarrator.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("engine", "", "Speech engine: auto, mock, espeak, say, googleclassic, none")
	viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag(config.KeyTTSType, rootCmd.PersistentFlags().Lookup("engine"))

	// Resolve command
	resolveCmd := &cobra.Command{
		Use:   "resolve <file.html> <element-id>",
		Short: "🔎 Show what focusing an element would say",
		Long:  "Resolve the narration text for an element of an HTML page",
		Args:  cobra.ExactArgs(2),
		RunE:  a.ResolveElement,
	}

	// Speak command
	speakCmd := &cobra.Command{
		Use:   "speak <text...>",
		Short: "🗣️ Speak text through the narrator",
		Long:  "Speak text with the configured engine, honouring narrator settings",
		Args:  cobra.MinimumNArgs(1),
		RunE:  a.Speak,
	}

	// Replay command
	replayCmd := &cobra.Command{
		Use:   "replay <script.yaml>",
		Short: "▶️ Replay a scripted keyboard session",
		Long:  "Run a YAML interaction script against its page and print announcements and utterances",
		Args:  cobra.ExactArgs(1),
		RunE:  a.Replay,
	}

	// Engines command
	enginesCmd := &cobra.Command{
		Use:   "engines",
		Short: "🎤 List speech engines",
		Long:  "List speech engines and whether each one can run here",
		Args:  cobra.NoArgs,
		RunE:  a.ListEngines,
	}

	// Voices command
	voicesCmd := &cobra.Command{
		Use:   "voices",
		Short: "👄 List voices",
		Long:  "List the voices of the configured speech engine",
		Args:  cobra.NoArgs,
		RunE:  a.ListVoices,
	}

	// Settings command
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "⚙️ Show narrator settings",
		Long:  "Show the effective narrator, announcer and voice settings",
		Args:  cobra.NoArgs,
		RunE:  a.ShowSettings,
	}

	// Add flags
	resolveCmd.Flags().StringP("label", "l", "", "Explicit label, overriding data-narrate")
	replayCmd.Flags().Bool("audio", false, "Speak through the configured engine in real time")
	replayCmd.Flags().BoolP("metrics", "m", false, "Print narration counters after the replay")
	voicesCmd.Flags().Bool("refresh", false, "Ignore the cached voice list")
	voicesCmd.Flags().Bool("cache-info", false, "Describe the voice cache")

	rootCmd.AddCommand(resolveCmd, speakCmd, replayCmd, enginesCmd, voicesCmd, settingsCmd)
	return rootCmd
}
