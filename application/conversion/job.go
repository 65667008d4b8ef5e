package conversion

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"video-to-audio/domain/conversion"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrJobStarted is returned when Run is called on a job that has already run
var ErrJobStarted = errors.New("job has already been started")

// Job converts one batch of sources sequentially.
// Run is the worker body; Cancel and the read accessors are safe from any goroutine.
type Job struct {
	id        string
	req       *conversion.Request
	extractor conversion.AudioExtractor
	logger    zerolog.Logger
	now       func() time.Time

	started         atomic.Bool
	cancelRequested atomic.Bool

	mu        sync.RWMutex
	status    conversion.Status
	completed int
	outcome   *conversion.Outcome

	// seq is only touched by the worker
	seq    int64
	events chan conversion.Event
}

// JobOption is a functional option for configuring Job
type JobOption func(*Job)

// WithJobID sets a fixed job ID instead of a generated one
func WithJobID(id string) JobOption {
	return func(j *Job) {
		j.id = id
	}
}

// WithLogger sets the logger used for per-item diagnostics
func WithLogger(logger zerolog.Logger) JobOption {
	return func(j *Job) {
		j.logger = logger
	}
}

// WithClock sets the time source for event timestamps (for testing)
func WithClock(now func() time.Time) JobOption {
	return func(j *Job) {
		j.now = now
	}
}

// NewJob creates a job for a validated request. The job does nothing until Run is called.
func NewJob(req *conversion.Request, extractor conversion.AudioExtractor, opts ...JobOption) *Job {
	j := &Job{
		id:        uuid.NewString(),
		req:       req,
		extractor: extractor,
		logger:    zerolog.Nop(),
		now:       func() time.Time { return time.Now().UTC() },
		status:    conversion.StatusRunning,
		// one progress event per source plus the outcome, so emit never blocks
		events: make(chan conversion.Event, req.Len()+1),
	}

	for _, opt := range opts {
		opt(j)
	}

	j.logger = j.logger.With().Str("job", j.id).Logger()
	return j
}

// ID returns the job identifier carried on every event
func (j *Job) ID() string {
	return j.id
}

// Request returns the batch being converted
func (j *Job) Request() *conversion.Request {
	return j.req
}

// Events returns the ordered event stream. It is closed after the terminal event.
func (j *Job) Events() <-chan conversion.Event {
	return j.events
}

// Status returns the current job status
func (j *Job) Status() conversion.Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

// Completed returns how many sources have been converted so far
func (j *Job) Completed() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.completed
}

// Outcome returns the terminal outcome once the job has finished
func (j *Job) Outcome() (conversion.Outcome, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.outcome == nil {
		return conversion.Outcome{}, false
	}
	return *j.outcome, true
}

// Cancel asks the job to stop before the next source. It never blocks,
// never interrupts an extraction in flight, and is a no-op once the job has finished.
func (j *Job) Cancel() {
	if !j.cancelRequested.CompareAndSwap(false, true) {
		return
	}
	if !j.Status().IsTerminal() {
		j.logger.Info().Int("completed", j.Completed()).Msg("cancellation requested")
	}
}

// Run processes every source in order and returns the terminal outcome.
// Cancellation of ctx is treated like Cancel: it is observed only between sources.
func (j *Job) Run(ctx context.Context) (conversion.Outcome, error) {
	if !j.started.CompareAndSwap(false, true) {
		return conversion.Outcome{}, ErrJobStarted
	}
	defer close(j.events)

	total := j.req.Len()
	extractCtx := context.WithoutCancel(ctx)

	j.logger.Info().
		Int("total", total).
		Str("format", j.req.Format().String()).
		Str("bitrate", j.req.Bitrate().String()).
		Str("output_dir", j.req.OutputDirectory()).
		Msg("conversion started")

	for i := 0; i < total; i++ {
		if j.cancelRequested.Load() || ctx.Err() != nil {
			j.logger.Info().Int("completed", i).Int("total", total).Msg("conversion cancelled")
			return j.finish(conversion.OutcomeCancelled(), ""), nil
		}

		item := j.req.Item(i)
		outputPath := j.req.OutputPath(item.SourcePath)
		log := j.logger.With().Str("source", item.SourcePath).Logger()
		log.Debug().Str("output", outputPath).Msg("extracting audio")

		if err := j.extractor.Extract(extractCtx, item, outputPath); err != nil {
			ferr := &conversion.ExtractionError{SourcePath: item.SourcePath, Cause: err}
			log.Warn().Err(err).Int("completed", i).Int("total", total).Msg("conversion failed")
			return j.finish(conversion.OutcomeFailure(ferr), item.SourcePath), nil
		}

		j.mu.Lock()
		j.completed = i + 1
		j.mu.Unlock()

		progress := conversion.ProgressEvent{Completed: i + 1, Total: total}
		log.Info().Int("completed", progress.Completed).Int("total", total).Int("percent", progress.Percent()).Msg("source converted")
		j.emit(conversion.Event{
			Source:   item.SourcePath,
			Output:   outputPath,
			Progress: &progress,
		})
	}

	j.logger.Info().Int("total", total).Msg("conversion completed")
	return j.finish(conversion.OutcomeSuccess(), ""), nil
}

// finish records the terminal status before emitting the terminal event
func (j *Job) finish(outcome conversion.Outcome, source string) conversion.Outcome {
	j.mu.Lock()
	j.status = outcome.Status()
	j.outcome = &outcome
	j.mu.Unlock()

	j.emit(conversion.Event{Source: source, Outcome: &outcome})
	return outcome
}

func (j *Job) emit(event conversion.Event) {
	j.seq++
	event.JobID = j.id
	event.Seq = j.seq
	event.Timestamp = j.now()
	j.events <- event
}
