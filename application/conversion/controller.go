package conversion

import (
	"context"
	"sync"

	"video-to-audio/domain/conversion"

	"github.com/rs/zerolog"
)

// Sink receives a job's events in the order they were produced
type Sink interface {
	Publish(event conversion.Event)
}

// Input is the raw, unvalidated user input for a batch
type Input struct {
	Sources         []string
	Format          string
	Bitrate         string
	OutputDirectory string
}

// Handle refers to a started job and reports when its events have been relayed
type Handle struct {
	job     *Job
	done    chan struct{}
	outcome conversion.Outcome
}

// Job returns the underlying job
func (h *Handle) Job() *Job {
	return h.job
}

// Done is closed once the terminal event has been delivered to the sink
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the terminal event has been relayed or ctx is done
func (h *Handle) Wait(ctx context.Context) (conversion.Outcome, error) {
	select {
	case <-h.done:
		return h.outcome, nil
	case <-ctx.Done():
		return conversion.Outcome{}, ctx.Err()
	}
}

// Controller runs at most one Job at a time and relays its events to a Sink
type Controller struct {
	extractor conversion.AudioExtractor
	checker   conversion.DirectoryChecker
	sink      Sink
	logger    zerolog.Logger

	mu     sync.Mutex
	active *Handle
}

// ControllerOption is a functional option for configuring Controller
type ControllerOption func(*Controller)

// WithControllerLogger sets the logger handed to every job
func WithControllerLogger(logger zerolog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController creates a new Controller
func NewController(extractor conversion.AudioExtractor, checker conversion.DirectoryChecker, sink Sink, opts ...ControllerOption) *Controller {
	c := &Controller{
		extractor: extractor,
		checker:   checker,
		sink:      sink,
		logger:    zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start validates input and launches a job on its own worker goroutine.
// It returns conversion.ErrJobActive while a previous job's terminal event is still pending.
func (c *Controller) Start(ctx context.Context, input Input) (*Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		return nil, conversion.ErrJobActive
	}

	req, err := buildRequest(input, c.checker)
	if err != nil {
		return nil, err
	}

	job := NewJob(req, c.extractor, WithLogger(c.logger))
	h := &Handle{
		job:  job,
		done: make(chan struct{}),
	}
	c.active = h

	go job.Run(ctx)
	go c.relay(h)

	return h, nil
}

// Cancel requests cooperative cancellation of the given job. Repeated calls have no effect.
func (c *Controller) Cancel(h *Handle) {
	if h != nil {
		h.job.Cancel()
	}
}

// CancelActive cancels the running job, if any, and reports whether there was one
func (c *Controller) CancelActive() bool {
	h := c.Active()
	if h == nil {
		return false
	}
	h.job.Cancel()
	return true
}

// Active returns the running job's handle, or nil when idle
func (c *Controller) Active() *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// relay forwards events without reordering and frees the slot after the terminal event
func (c *Controller) relay(h *Handle) {
	for event := range h.job.Events() {
		if c.sink != nil {
			c.sink.Publish(event)
		}
		if event.Outcome != nil {
			h.outcome = *event.Outcome
		}
	}

	c.mu.Lock()
	if c.active == h {
		c.active = nil
	}
	c.mu.Unlock()

	close(h.done)
}

// buildRequest reports problems in the order sources, format, bitrate, output directory
func buildRequest(input Input, checker conversion.DirectoryChecker) (*conversion.Request, error) {
	if err := conversion.ValidateSources(input.Sources); err != nil {
		return nil, err
	}

	format, err := conversion.ParseFormat(input.Format)
	if err != nil {
		return nil, &conversion.InvalidRequestError{Reason: err.Error()}
	}

	bitrate, err := conversion.ParseBitrate(input.Bitrate)
	if err != nil {
		return nil, &conversion.InvalidRequestError{Reason: err.Error()}
	}

	return conversion.NewRequest(input.Sources, format, bitrate, input.OutputDirectory, checker)
}
