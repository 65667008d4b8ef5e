package console

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"video-to-audio/domain/conversion"
)

// Reporter prints human-readable progress lines for a single batch
type Reporter struct {
	out   io.Writer
	total int

	mu        sync.Mutex
	completed int
}

// NewReporter creates a Reporter for a batch of total sources
func NewReporter(out io.Writer, total int) *Reporter {
	return &Reporter{out: out, total: total}
}

// Publish implements the controller's Sink
func (r *Reporter) Publish(event conversion.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p := event.Progress; p != nil {
		r.completed = p.Completed
		r.total = p.Total
		fmt.Fprintf(r.out, "[%d/%d] %3d%%  %s -> %s\n", p.Completed, p.Total, p.Percent(), event.SourceName(), filepath.Base(event.Output))
		return
	}

	if o := event.Outcome; o != nil {
		switch o.Kind {
		case conversion.OutcomeKindSuccess:
			fmt.Fprintf(r.out, "All videos converted successfully! (%d %s)\n", r.completed, plural(r.completed))
		case conversion.OutcomeKindCancelled:
			fmt.Fprintf(r.out, "Conversion cancelled after %d of %d %s.\n", r.completed, r.total, plural(r.total))
		default:
			fmt.Fprintf(r.out, "Error during conversion: %s\n", o.Message)
		}
	}
}

func plural(n int) string {
	if n == 1 {
		return "file"
	}
	return "files"
}
