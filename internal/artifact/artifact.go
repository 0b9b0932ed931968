// Package artifact decides when a document needs regenerating by comparing
// file modification times.
package artifact

import (
	"errors"
	"io/fs"
	"os"
	"time"
)

// Meta is the metadata the staleness check needs for one file.
type Meta struct {
	Path    string
	Exists  bool
	ModTime time.Time
	Err     error // non-nil when metadata could not be read
}

// Stat reads Meta for path. A missing file is reported with Exists=false and
// Err set to fs.ErrNotExist.
func Stat(path string) Meta {
	info, err := os.Stat(path)
	if err != nil {
		return Meta{Path: path, Exists: !errors.Is(err, fs.ErrNotExist), Err: err}
	}
	return Meta{Path: path, Exists: true, ModTime: info.ModTime()}
}

// Decide reports whether output must be regenerated from inputs.
//
// A missing output always needs generating. Otherwise the output is stale
// when any input was modified strictly after it. If metadata for any file is
// unavailable the answer is false.
func Decide(output Meta, inputs []Meta) bool {
	if !output.Exists {
		return true
	}
	if output.Err != nil {
		return false
	}
	for _, in := range inputs {
		if in.Err != nil || !in.Exists {
			return false
		}
	}
	for _, in := range inputs {
		if in.ModTime.After(output.ModTime) {
			return true
		}
	}
	return false
}

// Check stats output and inputs and returns the decision together with the
// metadata it was based on.
func Check(output string, inputs ...string) (bool, Meta, []Meta) {
	out := Stat(output)
	ins := make([]Meta, len(inputs))
	for i, p := range inputs {
		ins[i] = Stat(p)
	}
	return Decide(out, ins), out, ins
}

// Stale reports whether output must be regenerated from inputs.
func Stale(output string, inputs ...string) bool {
	stale, _, _ := Check(output, inputs...)
	return stale
}

// ModTime returns the modification time of path, or the zero time when it
// cannot be read.
func ModTime(path string) time.Time {
	m := Stat(path)
	if m.Err != nil {
		return time.Time{}
	}
	return m.ModTime
}

// Touch sets the modification time of path to now, creating an empty file
// when it does not exist.
func Touch(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	now := time.Now()
	return os.Chtimes(path, now, now)
}
