package filesystem

import (
	"fmt"
	"os"

	"video-to-audio/domain/conversion"
)

// Checker implements conversion.DirectoryChecker using the os package
type Checker struct{}

// NewChecker creates a new filesystem checker
func NewChecker() *Checker {
	return &Checker{}
}

// WritableDir returns nil when path is an existing directory a file can be created in
func (c *Checker) WritableDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist")
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory")
	}

	probe, err := os.CreateTemp(path, ".write-check-*")
	if err != nil {
		return fmt.Errorf("directory is not writable: %w", err)
	}
	name := probe.Name()
	probe.Close()
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("failed to remove write probe: %w", err)
	}
	return nil
}

// Ensure Checker implements conversion.DirectoryChecker
var _ conversion.DirectoryChecker = (*Checker)(nil)
