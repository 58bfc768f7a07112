package cmd

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/jsphweid/cpword/config"
	"github.com/jsphweid/cpword/constants"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	activeCfg = config.DefaultConfig()
	vocab     = constants.DefaultVocabulary()
)

var rootCmd = &cobra.Command{
	Use:   "cpword",
	Short: "Turns MIDI files into compound word training data",
	Long: `cpword quantizes monophonic MIDI tracks into compound words
(bar, position, pitch, duration), splits them into fixed length sequences,
augments them and writes padded batches ready for training.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(config.LoadOptions{
			Cmd:        cmd,
			ConfigFile: cfgFile,
			Defaults:   config.DefaultConfig(),
		})
		if err != nil {
			return err
		}
		activeCfg = loaded
		setupLogger(loaded.LogLevel)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(rootCmd.PersistentFlags(), config.DefaultConfig())
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func setupLogger(level string) {
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(level)})
	slog.SetDefault(slog.New(h))
}

// Run executes the command line in args, as Execute does for os.Args.
func Run(ctx context.Context, args ...string) error {
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
