package conversion

import (
	"path/filepath"
	"strings"
)

// Request is an immutable batch of sources with shared output parameters
type Request struct {
	sources   []string
	format    Format
	bitrate   Bitrate
	outputDir string
}

// NewRequest creates a Request after validating every precondition.
// Source readability is not checked here; an unreadable source fails its own item.
func NewRequest(sources []string, format Format, bitrate Bitrate, outputDir string, checker DirectoryChecker) (*Request, error) {
	if err := ValidateSources(sources); err != nil {
		return nil, err
	}
	if !format.Valid() {
		return nil, invalid("unsupported format %q", format)
	}
	if !bitrate.Valid() {
		return nil, invalid("unsupported bitrate %d kbps", int(bitrate))
	}
	if outputDir == "" {
		return nil, invalid("output directory is required")
	}
	if checker == nil {
		return nil, invalid("no directory checker configured")
	}
	if err := checker.WritableDir(outputDir); err != nil {
		return nil, invalid("output directory %s: %v", outputDir, err)
	}

	return &Request{
		sources:   append([]string(nil), sources...),
		format:    format,
		bitrate:   bitrate,
		outputDir: outputDir,
	}, nil
}

// ValidateSources rejects an empty source list or a blank entry
func ValidateSources(sources []string) error {
	if len(sources) == 0 {
		return invalid("at least one source file is required")
	}
	for i, s := range sources {
		if strings.TrimSpace(s) == "" {
			return invalid("source %d is empty", i+1)
		}
	}
	return nil
}

// Sources returns a copy of the ordered source list
func (r *Request) Sources() []string {
	return append([]string(nil), r.sources...)
}

// Format returns the output format
func (r *Request) Format() Format {
	return r.format
}

// Bitrate returns the output bitrate
func (r *Request) Bitrate() Bitrate {
	return r.bitrate
}

// OutputDirectory returns the directory outputs are written to
func (r *Request) OutputDirectory() string {
	return r.outputDir
}

// Len returns the number of sources in the batch
func (r *Request) Len() int {
	return len(r.sources)
}

// Item returns the extraction unit for the i-th source
func (r *Request) Item(i int) Item {
	return Item{
		SourcePath: r.sources[i],
		Format:     r.format,
		Bitrate:    r.bitrate,
	}
}

// OutputFilename returns the source base name with its extension replaced by the format's
func (r *Request) OutputFilename(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base)) + r.format.Extension()
}

// OutputPath returns the full output path for source inside the output directory.
// Two sources sharing a base name map to the same path; the later one overwrites.
func (r *Request) OutputPath(source string) string {
	return filepath.Join(r.outputDir, r.OutputFilename(source))
}
