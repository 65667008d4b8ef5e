package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	appconv "video-to-audio/application/conversion"
	"video-to-audio/domain/conversion"
	"video-to-audio/infrastructure/console"
	"video-to-audio/infrastructure/ffmpeg"
	"video-to-audio/infrastructure/filesystem"
	"video-to-audio/infrastructure/logging"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// ErrConversionFailed is returned when a batch ends with a failure outcome
var ErrConversionFailed = errors.New("conversion failed")

var (
	convertSources []string
	convertOutput  string
	convertFormat  string
	convertBitrate string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Extract audio from a batch of video files",
	Long: `Convert each source video to an audio file, one at a time, in the order given.

Sources may be files or directories. A directory contributes its .mp4, .avi,
.mov and .mkv files, sorted by name. Each output is named after its source
with the extension replaced, e.g. lecture.mp4 -> lecture.mp3.

The batch stops at the first file that fails. Press Ctrl+C to cancel; the file
currently being converted is finished before the batch stops.

Example:
  video-to-audio convert --source a.mp4 --source b.mp4 --output ./audio
  video-to-audio convert --source ./recordings --output ./audio --format aac --bitrate 256`,
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringArrayVar(&convertSources, "source", nil, "Video file or directory to convert (repeatable, required)")
	convertCmd.Flags().StringVar(&convertOutput, "output", "", "Output directory (default from config)")
	convertCmd.Flags().StringVar(&convertFormat, "format", "", "Output format: mp3, wav or aac (default from config or mp3)")
	convertCmd.Flags().StringVar(&convertBitrate, "bitrate", "", "Bitrate in kbps: 64, 128, 192, 256 or 320 (default from config or 192)")
	convertCmd.MarkFlagRequired("source")
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}

	input := appconv.Input{
		Format:          firstNonEmpty(convertFormat, cfg.Audio.Format, string(conversion.DefaultFormat)),
		Bitrate:         firstNonEmpty(convertBitrate, bitrateSetting(cfg.Audio.Bitrate), conversion.DefaultBitrate.String()),
		OutputDirectory: firstNonEmpty(convertOutput, cfg.Paths.OutputDirectory),
	}

	input.Sources, err = filesystem.ExpandSources(convertSources)
	if err != nil {
		return err
	}

	stderr := logging.NewLineWriter(logger, zerolog.WarnLevel, map[string]string{"component": "ffmpeg"})
	defer stderr.Flush()

	extractor := ffmpeg.NewExtractor(
		ffmpeg.WithExtractorFFmpegPath(cfg.FFmpeg.Path),
		ffmpeg.WithExtractorCommandRunner(&ffmpeg.ExecCommandRunner{Stderr: stderr}),
	)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	done := make(chan struct{})
	defer close(done)
	interrupts := firstSignal(signals, func() { signal.Stop(signals) }, done)

	_, err = RunConvertWithDependencies(
		cmd.Context(),
		extractor,
		filesystem.NewChecker(),
		input,
		interrupts,
		os.Stdout,
		logger,
	)
	return err
}

// RunConvertWithDependencies runs one batch with injected dependencies (for testing).
// The first value received on interrupts cancels the batch cooperatively.
func RunConvertWithDependencies(
	ctx context.Context,
	extractor conversion.AudioExtractor,
	checker conversion.DirectoryChecker,
	input appconv.Input,
	interrupts <-chan os.Signal,
	output OutputWriter,
	logger zerolog.Logger,
) (conversion.Outcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// Verify ffmpeg is available if extractor supports it
	if verifiable, ok := extractor.(interface{ VerifyInstalled(context.Context) error }); ok {
		verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := verifiable.VerifyInstalled(verifyCtx); err != nil {
			return conversion.Outcome{}, fmt.Errorf("ffmpeg verification failed: %w", err)
		}
	}

	out := &lockedWriter{w: output}
	sink := console.Multi{
		console.NewReporter(out, len(input.Sources)),
		console.NewLogSink(logger),
	}
	controller := appconv.NewController(extractor, checker, sink, appconv.WithControllerLogger(logger))

	fmt.Fprintf(out, "Converting %d %s to %s at %s kbps into %s...\n",
		len(input.Sources), plural(len(input.Sources), "file", "files"), input.Format, trimK(input.Bitrate), input.OutputDirectory)

	handle, err := controller.Start(ctx, input)
	if err != nil {
		return conversion.Outcome{}, err
	}

	go func() {
		select {
		case <-interrupts:
			controller.Cancel(handle)
			fmt.Fprintln(out, "Cancelling after current file...")
		case <-handle.Done():
		}
	}()

	outcome, err := handle.Wait(context.WithoutCancel(ctx))
	if err != nil {
		return conversion.Outcome{}, err
	}

	if outcome.Kind == conversion.OutcomeKindFailure {
		return outcome, fmt.Errorf("%w: %s", ErrConversionFailed, outcome.Message)
	}
	return outcome, nil
}

// lockedWriter serializes writes from the relay and signal goroutines
type lockedWriter struct {
	mu sync.Mutex
	w  OutputWriter
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// bitrateSetting formats a configured bitrate, treating 0 as unset
func bitrateSetting(kbps int) string {
	if kbps <= 0 {
		return ""
	}
	return strconv.Itoa(kbps)
}

// firstSignal relays the first signal from src and then calls stop, so a second
// Ctrl+C gets the default behaviour and terminates the process.
func firstSignal(src <-chan os.Signal, stop func(), done <-chan struct{}) <-chan os.Signal {
	out := make(chan os.Signal, 1)
	go func() {
		select {
		case sig := <-src:
			stop()
			out <- sig
		case <-done:
		}
	}()
	return out
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func trimK(bitrate string) string {
	if b, err := conversion.ParseBitrate(bitrate); err == nil {
		return strconv.Itoa(b.Kbps())
	}
	return bitrate
}
