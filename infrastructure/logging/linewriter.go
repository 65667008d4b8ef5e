package logging

import (
	"bytes"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// LineWriter turns stream output into per-line zerolog events at a given level.
// It is an io.Writer so it can be attached directly to a subprocess' stderr.
type LineWriter struct {
	logger zerolog.Logger
	level  zerolog.Level

	mu  sync.Mutex
	buf bytes.Buffer
}

// NewLineWriter creates a LineWriter that tags every line with fields
func NewLineWriter(logger zerolog.Logger, level zerolog.Level, fields map[string]string) *LineWriter {
	ctx := logger.With()
	for k, v := range fields {
		ctx = ctx.Str(k, v)
	}
	return &LineWriter{logger: ctx.Logger(), level: level}
}

// Write logs every complete line in p and keeps any trailing partial line
func (lw *LineWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	lw.buf.Write(p)
	for {
		line, err := lw.buf.ReadString('\n')
		if err != nil {
			// no newline yet; put the fragment back
			lw.buf.Reset()
			lw.buf.WriteString(line)
			break
		}
		lw.emit(line)
	}
	return len(p), nil
}

// Flush logs any buffered partial line
func (lw *LineWriter) Flush() {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	if lw.buf.Len() > 0 {
		lw.emit(lw.buf.String())
		lw.buf.Reset()
	}
}

func (lw *LineWriter) emit(line string) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return
	}
	lw.logger.WithLevel(lw.level).Msg(line)
}
