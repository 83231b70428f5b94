// Package resources checks that configured context resources exist on disk
// before a route hands them to a handler.
package resources

import (
	"os"
	"path/filepath"
)

// Checker resolves resource names against a base directory.
type Checker struct {
	baseDir string
}

// NewChecker creates a checker rooted at baseDir. An empty baseDir resolves
// names relative to the working directory.
func NewChecker(baseDir string) *Checker {
	return &Checker{baseDir: baseDir}
}

// Exists reports whether the named resource exists and is a non-empty file.
func (c *Checker) Exists(name string) bool {
	info, err := os.Stat(c.resolve(name))
	if err != nil {
		return false
	}
	if info.IsDir() {
		return true
	}
	return info.Size() > 0
}

// Size returns the resource's size in bytes, or zero when it is missing
// or a directory. Callers use it to budget how much context a route plan
// will pull in.
func (c *Checker) Size(name string) int64 {
	info, err := os.Stat(c.resolve(name))
	if err != nil || info.IsDir() {
		return 0
	}
	return info.Size()
}

func (c *Checker) resolve(name string) string {
	if c.baseDir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.baseDir, name)
}
