package cmd

import (
	"fmt"
	"os"

	"video-to-audio/infrastructure/config"
	"video-to-audio/infrastructure/logging"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
	cfgErr   error
	logger   = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "video-to-audio",
	Short: "Convert batches of video files to audio",
	Long: `video-to-audio extracts the audio track from a batch of video files.

  - Convert one or many videos (or whole folders) in a single run
  - Choose mp3, wav or aac at 64-320 kbps
  - Cancel with Ctrl+C; the file in progress is finished first

Example:
  video-to-audio convert --source lecture.mp4 --source clips/ --output ./audio --format mp3 --bitrate 192`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides config)")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = config.DefaultPath
	}

	// .env is optional
	_ = godotenv.Load()

	cfg, cfgErr = config.LoadOrDefault(cfgFile)
	if cfgErr != nil {
		cfg = nil
		return
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		cfg, cfgErr = nil, err
		return
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logger = logging.Setup(logging.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	}, os.Stderr)
}

// GetConfig returns the loaded configuration, or the error that prevented loading it
func GetConfig() (*config.Config, error) {
	if cfg == nil {
		if cfgErr != nil {
			return nil, fmt.Errorf("failed to load configuration from %s: %w", cfgFile, cfgErr)
		}
		return nil, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}

// OutputWriter allows capturing output in tests
type OutputWriter interface {
	Write(p []byte) (n int, err error)
}
