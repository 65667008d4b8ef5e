package conversion

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"video-to-audio/domain/conversion"
)

// recordingSink captures relayed events
type recordingSink struct {
	mu     sync.Mutex
	events []conversion.Event
}

func (s *recordingSink) Publish(event conversion.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) snapshot() []conversion.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]conversion.Event(nil), s.events...)
}

// blockingExtractor blocks every extraction until release is closed
type blockingExtractor struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingExtractor() *blockingExtractor {
	return &blockingExtractor{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (b *blockingExtractor) Extract(ctx context.Context, item conversion.Item, outputPath string) error {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return nil
}

func validInput(sources ...string) Input {
	return Input{
		Sources:         sources,
		Format:          "mp3",
		Bitrate:         "192",
		OutputDirectory: "/out",
	}
}

func waitOutcome(t *testing.T, h *Handle) conversion.Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	outcome, err := h.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() unexpected error: %v", err)
	}
	return outcome
}

func TestController_RelaysEventsInOrder(t *testing.T) {
	sink := &recordingSink{}
	c := NewController(&mockExtractor{}, &mockDirChecker{}, sink)

	h, err := c.Start(context.Background(), validInput("/videos/a.mp4", "/videos/b.mp4", "/videos/c.mp4"))
	if err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}

	outcome := waitOutcome(t, h)
	if outcome.Kind != conversion.OutcomeKindSuccess {
		t.Errorf("outcome = %+v, want success", outcome)
	}

	events := sink.snapshot()
	if len(events) != 4 {
		t.Fatalf("sink got %d events, want 4", len(events))
	}
	for i := 0; i < 3; i++ {
		if events[i].Progress == nil || events[i].Progress.Completed != i+1 {
			t.Errorf("event %d = %+v, want progress %d", i, events[i], i+1)
		}
	}
	if !events[3].IsTerminal() {
		t.Errorf("last event = %+v, want terminal", events[3])
	}
	if c.Active() != nil {
		t.Error("controller should be idle after terminal event")
	}
}

func TestController_RejectsSecondStartWhileActive(t *testing.T) {
	extractor := newBlockingExtractor()
	c := NewController(extractor, &mockDirChecker{}, &recordingSink{})

	first, err := c.Start(context.Background(), validInput("/videos/a.mp4"))
	if err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}
	<-extractor.started

	if _, err := c.Start(context.Background(), validInput("/videos/b.mp4")); !errors.Is(err, conversion.ErrJobActive) {
		t.Errorf("second Start() error = %v, want ErrJobActive", err)
	}
	if !errors.Is(conversion.ErrJobActive, conversion.ErrInvalidRequest) {
		t.Error("ErrJobActive should be an invalid request")
	}

	close(extractor.release)
	waitOutcome(t, first)

	second, err := c.Start(context.Background(), validInput("/videos/b.mp4"))
	if err != nil {
		t.Fatalf("Start() after completion unexpected error: %v", err)
	}
	waitOutcome(t, second)
}

func TestController_InvalidInput(t *testing.T) {
	tests := []struct {
		name        string
		input       Input
		checker     *mockDirChecker
		errContains string
	}{
		{name: "no sources", input: validInput(), checker: &mockDirChecker{}, errContains: "at least one source"},
		{name: "no sources reported before bad format", input: Input{Format: "flac", Bitrate: "192", OutputDirectory: "/out"}, checker: &mockDirChecker{}, errContains: "at least one source"},
		{name: "blank source reported before bad bitrate", input: Input{Sources: []string{""}, Format: "mp3", Bitrate: "100", OutputDirectory: "/out"}, checker: &mockDirChecker{}, errContains: "source 1 is empty"},
		{name: "bad format", input: Input{Sources: []string{"a.mp4"}, Format: "ogg", Bitrate: "192", OutputDirectory: "/out"}, checker: &mockDirChecker{}, errContains: "unsupported format"},
		{name: "bad bitrate", input: Input{Sources: []string{"a.mp4"}, Format: "mp3", Bitrate: "100", OutputDirectory: "/out"}, checker: &mockDirChecker{}, errContains: "unsupported bitrate"},
		{name: "missing output dir", input: validInput("a.mp4"), checker: &mockDirChecker{err: errors.New("no such file or directory")}, errContains: "no such file or directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := &mockExtractor{}
			c := NewController(extractor, tt.checker, &recordingSink{})

			h, err := c.Start(context.Background(), tt.input)
			if !errors.Is(err, conversion.ErrInvalidRequest) {
				t.Fatalf("Start() error = %v, want ErrInvalidRequest", err)
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("Start() error = %v, want error containing %q", err, tt.errContains)
			}
			if h != nil {
				t.Error("Start() returned a handle for an invalid request")
			}
			if c.Active() != nil {
				t.Error("no job should be active after a rejected start")
			}
			if extractor.callCount() != 0 {
				t.Errorf("extractor called %d times, want 0", extractor.callCount())
			}
		})
	}
}

func TestController_Cancel(t *testing.T) {
	extractor := newBlockingExtractor()
	sink := &recordingSink{}
	c := NewController(extractor, &mockDirChecker{}, sink)

	h, err := c.Start(context.Background(), validInput("/videos/a.mp4", "/videos/b.mp4", "/videos/c.mp4"))
	if err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}
	<-extractor.started

	c.Cancel(h)
	if !c.CancelActive() {
		t.Error("CancelActive() = false, want true while a job is running")
	}
	close(extractor.release)

	outcome := waitOutcome(t, h)
	if outcome.Kind != conversion.OutcomeKindCancelled {
		t.Errorf("outcome = %+v, want cancelled", outcome)
	}

	events := sink.snapshot()
	if len(events) != 2 || events[0].Progress == nil || events[0].Progress.Completed != 1 {
		t.Errorf("events = %+v, want progress 1/3 then cancelled", events)
	}

	c.Cancel(h)
	if c.CancelActive() {
		t.Error("CancelActive() = true, want false when idle")
	}
	if got := len(sink.snapshot()); got != 2 {
		t.Errorf("cancel after terminal produced events: got %d, want 2", got)
	}
}

func TestController_FailureOutcome(t *testing.T) {
	extractor := &mockExtractor{failOn: map[string]error{"b.mp4": errors.New("no audio stream")}}
	sink := &recordingSink{}
	c := NewController(extractor, &mockDirChecker{}, sink)

	h, err := c.Start(context.Background(), validInput("/videos/a.mp4", "/videos/b.mp4", "/videos/c.mp4"))
	if err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}

	outcome := waitOutcome(t, h)
	if outcome.Kind != conversion.OutcomeKindFailure || outcome.Message != "b.mp4: no audio stream" {
		t.Errorf("outcome = %+v, want failure for b.mp4", outcome)
	}
	if got := len(sink.snapshot()); got != 2 {
		t.Errorf("sink got %d events, want 2", got)
	}
}

func TestHandle_WaitHonoursContext(t *testing.T) {
	extractor := newBlockingExtractor()
	c := NewController(extractor, &mockDirChecker{}, nil)

	h, err := c.Start(context.Background(), validInput("/videos/a.mp4"))
	if err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := h.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want deadline exceeded", err)
	}

	close(extractor.release)
	waitOutcome(t, h)
}
