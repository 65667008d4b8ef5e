package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"

	"video-to-audio/domain/conversion"
)

// partialSuffix marks an output that is still being written
const partialSuffix = ".part"

// encoding holds the ffmpeg codec and muxer for an output format
type encoding struct {
	codec      string
	muxer      string
	useBitrate bool
}

var encodings = map[conversion.Format]encoding{
	conversion.FormatMP3: {codec: "libmp3lame", muxer: "mp3", useBitrate: true},
	conversion.FormatWAV: {codec: "pcm_s16le", muxer: "wav"}, // PCM has a fixed bitrate
	conversion.FormatAAC: {codec: "aac", muxer: "adts", useBitrate: true},
}

// Extractor implements conversion.AudioExtractor using ffmpeg
type Extractor struct {
	ffmpegPath string
	runner     CommandRunner
}

// ExtractorOption is a functional option for configuring Extractor
type ExtractorOption func(*Extractor)

// WithExtractorFFmpegPath sets a custom ffmpeg executable path
func WithExtractorFFmpegPath(path string) ExtractorOption {
	return func(e *Extractor) {
		if path != "" {
			e.ffmpegPath = path
		}
	}
}

// WithExtractorCommandRunner sets a custom command runner (for testing)
func WithExtractorCommandRunner(runner CommandRunner) ExtractorOption {
	return func(e *Extractor) {
		e.runner = runner
	}
}

// NewExtractor creates a new FFmpeg-based audio extractor
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		ffmpegPath: "ffmpeg",
		runner:     &ExecCommandRunner{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Args returns the ffmpeg arguments that write item's audio to dest
func (e *Extractor) Args(item conversion.Item, dest string) ([]string, error) {
	enc, ok := encodings[item.Format]
	if !ok {
		return nil, fmt.Errorf("unsupported output format %q", item.Format)
	}

	args := []string{
		"-hide_banner",
		"-nostdin", // never read the terminal from a background process group
		"-loglevel", "error",
		"-i", item.SourcePath,
		"-vn", // No video
		"-acodec", enc.codec,
	}
	if enc.useBitrate {
		args = append(args, "-ab", item.Bitrate.String())
	}
	args = append(args,
		"-f", enc.muxer,
		"-y", // Overwrite output file if it exists
		dest,
	)
	return args, nil
}

// Extract implements conversion.AudioExtractor.
// Audio is written next to outputPath and renamed into place once ffmpeg succeeds.
func (e *Extractor) Extract(ctx context.Context, item conversion.Item, outputPath string) error {
	if _, err := os.Stat(item.SourcePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("source video does not exist: %s", item.SourcePath)
		}
		return fmt.Errorf("source video is not readable: %w", err)
	}

	tmpPath := outputPath + partialSuffix
	args, err := e.Args(item, tmpPath)
	if err != nil {
		return err
	}

	if err := e.runner.Run(ctx, e.ffmpegPath, args...); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("ffmpeg audio extraction failed: %w", err)
	}

	if err := os.Rename(tmpPath, outputPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to move audio into place: %w", err)
	}

	return nil
}

// VerifyInstalled checks that ffmpeg is available
func (e *Extractor) VerifyInstalled(ctx context.Context) error {
	_, err := e.runner.Output(ctx, e.ffmpegPath, "-version")
	if err != nil {
		return fmt.Errorf("ffmpeg not found or not executable: %w", err)
	}
	return nil
}

// Ensure Extractor implements conversion.AudioExtractor
var _ conversion.AudioExtractor = (*Extractor)(nil)
