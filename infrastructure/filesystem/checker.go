package filesystem

import (
	"fmt"
	"os"

	"gdrive-share/domain/distribution"
)

// Checker implements distribution.FileChecker using the os package
type Checker struct{}

// NewChecker creates a new filesystem checker
func NewChecker() *Checker {
	return &Checker{}
}

// Exists returns true if path names an existing regular file
func (c *Checker) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Size returns the file size in bytes
func (c *Checker) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", distribution.ErrLocalIO, err)
	}
	return info.Size(), nil
}

// Ensure Checker implements distribution.FileChecker
var _ distribution.FileChecker = (*Checker)(nil)
