package conversion

import "context"

// Item is a single source to extract with the batch parameters applied
type Item struct {
	SourcePath string
	Format     Format
	Bitrate    Bitrate
}

// AudioExtractor defines the interface for audio extraction operations
// This is a port that can be implemented by different infrastructure adapters
type AudioExtractor interface {
	// Extract writes the audio track of item.SourcePath to outputPath.
	// Implementations must not leave a partial file at outputPath on failure.
	Extract(ctx context.Context, item Item, outputPath string) error
}

// DirectoryChecker defines the filesystem checks needed to validate a request
type DirectoryChecker interface {
	// WritableDir returns an error unless path is an existing, writable directory
	WritableDir(path string) error
}
