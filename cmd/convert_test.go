package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	appconv "video-to-audio/application/conversion"
	"video-to-audio/domain/conversion"
	"video-to-audio/infrastructure/filesystem"

	"github.com/rs/zerolog"
)

// fileExtractor writes a small file for each item unless told to fail
type fileExtractor struct {
	mu        sync.Mutex
	failOn    map[string]error
	calls     []string
	block     chan struct{}
	started   chan struct{}
	verifyErr error
}

func (f *fileExtractor) Extract(ctx context.Context, item conversion.Item, outputPath string) error {
	f.mu.Lock()
	f.calls = append(f.calls, filepath.Base(item.SourcePath))
	first := len(f.calls) == 1
	f.mu.Unlock()

	if first && f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	if err, ok := f.failOn[filepath.Base(item.SourcePath)]; ok {
		return err
	}
	return os.WriteFile(outputPath, []byte("audio"), 0644)
}

func (f *fileExtractor) VerifyInstalled(ctx context.Context) error {
	return f.verifyErr
}

func convertInput(t *testing.T, names ...string) appconv.Input {
	t.Helper()
	srcDir := t.TempDir()
	var sources []string
	for _, n := range names {
		p := filepath.Join(srcDir, n)
		if err := os.WriteFile(p, []byte("video"), 0644); err != nil {
			t.Fatal(err)
		}
		sources = append(sources, p)
	}
	return appconv.Input{
		Sources:         sources,
		Format:          "mp3",
		Bitrate:         "192",
		OutputDirectory: t.TempDir(),
	}
}

func outputNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRunConvert_Success(t *testing.T) {
	input := convertInput(t, "a.mp4", "b.mp4", "c.mp4")
	var out bytes.Buffer

	outcome, err := RunConvertWithDependencies(context.Background(), &fileExtractor{}, filesystem.NewChecker(), input, nil, &out, zerolog.Nop())
	if err != nil {
		t.Fatalf("RunConvertWithDependencies() unexpected error: %v", err)
	}
	if outcome.Kind != conversion.OutcomeKindSuccess {
		t.Errorf("outcome = %+v, want success", outcome)
	}

	text := out.String()
	for _, want := range []string{
		"Converting 3 files to mp3 at 192 kbps",
		"[1/3]  33%  a.mp4 -> a.mp3",
		"[2/3]  66%  b.mp4 -> b.mp3",
		"[3/3] 100%  c.mp4 -> c.mp3",
		"All videos converted successfully!",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}

	if got := strings.Join(outputNames(t, input.OutputDirectory), ","); got != "a.mp3,b.mp3,c.mp3" {
		t.Errorf("output dir = %s, want a.mp3,b.mp3,c.mp3", got)
	}
}

func TestRunConvert_Failure(t *testing.T) {
	input := convertInput(t, "a.mp4", "b.mp4", "c.mp4")
	extractor := &fileExtractor{failOn: map[string]error{"b.mp4": errors.New("invalid data found when processing input")}}
	var out bytes.Buffer

	outcome, err := RunConvertWithDependencies(context.Background(), extractor, filesystem.NewChecker(), input, nil, &out, zerolog.Nop())
	if !errors.Is(err, ErrConversionFailed) {
		t.Fatalf("error = %v, want ErrConversionFailed", err)
	}
	if outcome.Message != "b.mp4: invalid data found when processing input" {
		t.Errorf("Message = %q", outcome.Message)
	}
	if !strings.Contains(out.String(), "Error during conversion: b.mp4:") {
		t.Errorf("output missing failure line:\n%s", out.String())
	}
	if got := strings.Join(outputNames(t, input.OutputDirectory), ","); got != "a.mp3" {
		t.Errorf("output dir = %s, want only a.mp3", got)
	}
	if strings.Join(extractor.calls, ",") != "a.mp4,b.mp4" {
		t.Errorf("extractor calls = %v, c.mp4 should not be attempted", extractor.calls)
	}
}

func TestRunConvert_InterruptCancelsAtBoundary(t *testing.T) {
	input := convertInput(t, "a.mp4", "b.mp4", "c.mp4")
	extractor := &fileExtractor{block: make(chan struct{}), started: make(chan struct{})}
	interrupts := make(chan os.Signal, 1)
	out := &syncBuffer{}

	done := make(chan struct{})
	var outcome conversion.Outcome
	var err error
	go func() {
		outcome, err = RunConvertWithDependencies(context.Background(), extractor, filesystem.NewChecker(), input, interrupts, out, zerolog.Nop())
		close(done)
	}()

	<-extractor.started
	interrupts <- syscall.SIGINT

	// the interrupt is handled asynchronously; release the in-flight file once it is seen
	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(out.String(), "Cancelling after current file") {
		if time.Now().After(deadline) {
			t.Fatal("interrupt was not acknowledged")
		}
		time.Sleep(time.Millisecond)
	}
	close(extractor.block)
	<-done

	if err != nil {
		t.Fatalf("RunConvertWithDependencies() unexpected error: %v", err)
	}
	if outcome.Kind != conversion.OutcomeKindCancelled {
		t.Errorf("outcome = %+v, want cancelled", outcome)
	}
	if got := strings.Join(outputNames(t, input.OutputDirectory), ","); got != "a.mp3" {
		t.Errorf("output dir = %s, want a.mp3 (in-flight file finishes)", got)
	}
	if !strings.Contains(out.String(), "Conversion cancelled after 1 of 3 files.") {
		t.Errorf("output missing cancellation line:\n%s", out.String())
	}
}

func TestRunConvert_InvalidRequest(t *testing.T) {
	input := convertInput(t, "a.mp4")
	input.OutputDirectory = filepath.Join(t.TempDir(), "missing")
	extractor := &fileExtractor{}

	_, err := RunConvertWithDependencies(context.Background(), extractor, filesystem.NewChecker(), input, nil, &bytes.Buffer{}, zerolog.Nop())
	if !errors.Is(err, conversion.ErrInvalidRequest) {
		t.Errorf("error = %v, want ErrInvalidRequest", err)
	}
	if len(extractor.calls) != 0 {
		t.Errorf("extractor calls = %v, want none", extractor.calls)
	}
}

func TestRunConvert_FFmpegMissing(t *testing.T) {
	input := convertInput(t, "a.mp4")
	extractor := &fileExtractor{verifyErr: errors.New("executable file not found")}

	_, err := RunConvertWithDependencies(context.Background(), extractor, filesystem.NewChecker(), input, nil, &bytes.Buffer{}, zerolog.Nop())
	if err == nil || !strings.Contains(err.Error(), "ffmpeg verification failed") {
		t.Errorf("error = %v, want ffmpeg verification failure", err)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "", "wav"); got != "wav" {
		t.Errorf("firstNonEmpty() = %q, want wav", got)
	}
	if got := firstNonEmpty("", "0", "wav"); got != "0" {
		t.Errorf("firstNonEmpty() = %q, want 0", got)
	}
	if got := firstNonEmpty(); got != "" {
		t.Errorf("firstNonEmpty() = %q, want empty", got)
	}
}

func TestBitrateSetting(t *testing.T) {
	if got := firstNonEmpty("", bitrateSetting(0), "192k"); got != "192k" {
		t.Errorf("unset config bitrate resolved to %q, want the default", got)
	}
	if got := firstNonEmpty("", bitrateSetting(256), "192k"); got != "256" {
		t.Errorf("config bitrate resolved to %q, want 256", got)
	}
}

// syncBuffer is a bytes.Buffer safe for concurrent Write and String
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestFirstSignal_StopsAfterFirst(t *testing.T) {
	src := make(chan os.Signal, 2)
	stopped := make(chan struct{})
	done := make(chan struct{})
	defer close(done)

	out := firstSignal(src, func() { close(stopped) }, done)
	src <- syscall.SIGINT

	select {
	case sig := <-out:
		if sig != syscall.SIGINT {
			t.Errorf("relayed %v, want SIGINT", sig)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("first signal was not relayed")
	}
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("stop was not called after the first signal")
	}

	src <- syscall.SIGINT
	select {
	case sig := <-out:
		t.Errorf("second signal %v should not be relayed", sig)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFirstSignal_DoneWithoutSignal(t *testing.T) {
	called := false
	done := make(chan struct{})
	out := firstSignal(make(chan os.Signal), func() { called = true }, done)
	close(done)

	select {
	case sig := <-out:
		t.Errorf("unexpected signal %v", sig)
	case <-time.After(50 * time.Millisecond):
	}
	if called {
		t.Error("stop should not run when no signal arrived")
	}
}
