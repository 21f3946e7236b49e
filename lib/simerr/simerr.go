package simerr

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

// complexityFactor scales the squared line count of a function into the
// probability of a simulated error.
const complexityFactor = 1e-6

// Tracker injects simulated errors into client code and logs how they were
// handled. It is not safe for concurrent use.
type Tracker struct {
	w   io.Writer
	rng *rand.Rand

	errors int
	fixed  int

	// first write error, reported by Close
	err error
}

// New creates a tracker that logs to w.
func New(w io.Writer, rng *rand.Rand) *Tracker {
	return &Tracker{w: w, rng: rng}
}

// Open creates a tracker that appends to the log file at path.
func Open(path string, rng *rand.Rand) (*Tracker, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "opening error log %s", path)
	}
	return New(f, rng), nil
}

// Hit decides whether the function fn, which is lines long, runs into a
// simulated error. Longer functions fail more often; a length below one
// always fails.
func (t *Tracker) Hit(fn string, lines int) bool {
	p := float64(lines) * float64(lines) * complexityFactor
	if lines >= 1 && t.rng.Float64() >= p {
		return false
	}
	t.Record(fn)
	return true
}

// Record logs an error that happened in fn for real.
func (t *Tracker) Record(fn string) {
	t.errors++
	t.printf("Hit error %d in function %s.\n", t.errors, oneLine(fn))
}

// Fix records how a simulated error was handled.
func (t *Tracker) Fix(msg string) {
	t.fixed++
	t.printf("Error fix [%d/%d]: %s\n", t.fixed, t.errors, oneLine(msg))
}

// Errors returns the number of simulated errors so far.
func (t *Tracker) Errors() int { return t.errors }

// Fixed returns the number of recorded fixes so far.
func (t *Tracker) Fixed() int { return t.fixed }

// Close writes the summary and closes the log if it is closable.
func (t *Tracker) Close() error {
	t.printf("\n\nSummary: Fixed %d/%d\n", t.fixed, t.errors)
	if c, ok := t.w.(io.Closer); ok {
		if err := c.Close(); err != nil && t.err == nil {
			t.err = err
		}
	}
	return errors.Wrap(t.err, "writing error log")
}

func (t *Tracker) printf(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(t.w, format, args...); err != nil && t.err == nil {
		t.err = err
	}
}

// oneLine keeps every log entry on a single line.
func oneLine(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}
