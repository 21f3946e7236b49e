package run

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ValentinKolb/crusher/lib/simerr"
	"github.com/ValentinKolb/crusher/lib/store"
	"github.com/ValentinKolb/crusher/lib/value"
	"github.com/cockroachdb/errors"
)

// Broker is the part of broker.Broker a script needs
type Broker interface {
	store.IStore
	Remove(key value.Value) (value.Value, error)
	Configure(cmd string) (bool, error)
	Interrupted() bool
}

// Runner replays scripts of broker commands. Each line holds one command
// with tab separated fields:
//
//	STORE	<key>	<value>
//	FETCH	<key>
//	REMOVE	<key>
//	CONF	<configuration>
//
// Keys, values and configurations are literals (see value.Parse). Blank
// lines and lines starting with # are skipped.
type Runner struct {
	broker Broker
	out    io.Writer

	// Executed counts the commands run so far
	Executed int

	// ErrorLog, if set, records every missing key and rejected
	// configuration together with how the runner handled it
	ErrorLog *simerr.Tracker
}

// NewRunner creates a runner that prints results to out.
func NewRunner(b Broker, out io.Writer) *Runner {
	return &Runner{broker: b, out: out}
}

// Run executes the script read from r until it ends or the broker is
// interrupted. It returns an error for malformed lines; rejected
// configurations and missing keys are printed and do not stop the script.
func (r *Runner) Run(src io.Reader) error {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		if r.broker.Interrupted() {
			Logger.Infof("interrupted before line %d", line)
			return nil
		}
		if err := r.Exec(scanner.Text()); err != nil {
			return errors.Wrapf(err, "line %d", line)
		}
	}
	return scanner.Err()
}

// Exec executes a single script line.
func (r *Runner) Exec(line string) error {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
		return nil
	}

	fields := strings.Split(line, "\t")
	op := strings.ToUpper(strings.TrimSpace(fields[0]))
	args := fields[1:]

	switch op {
	case "STORE":
		if len(args) != 2 {
			return errors.Newf("STORE expects a key and a value, got %d fields", len(args))
		}
		key, err := value.Parse(args[0])
		if err != nil {
			return errors.Wrap(err, "parsing key")
		}
		val, err := value.Parse(args[1])
		if err != nil {
			return errors.Wrap(err, "parsing value")
		}
		r.broker.Store(key, val)

	case "FETCH", "REMOVE":
		if len(args) != 1 {
			return errors.Newf("%s expects a key, got %d fields", op, len(args))
		}
		key, err := value.Parse(args[0])
		if err != nil {
			return errors.Wrap(err, "parsing key")
		}
		var val value.Value
		if op == "FETCH" {
			val, err = r.broker.Fetch(key)
		} else {
			val, err = r.broker.Remove(key)
		}
		if err := r.printResult(line, val, err); err != nil {
			return err
		}

	case "CONF":
		if len(args) != 1 {
			return errors.Newf("CONF expects a configuration, got %d fields", len(args))
		}
		if _, err := r.broker.Configure(args[0]); err != nil {
			if !store.IsConfigError(err) {
				return err
			}
			fmt.Fprintf(r.out, "Config error: %v\n", err)
			r.recordError(line, "configuration rejected, settings unchanged")
		}

	default:
		return errors.Newf("unknown command %q", fields[0])
	}

	r.Executed++
	return nil
}

func (r *Runner) printResult(line string, val value.Value, err error) error {
	switch {
	case err == nil:
		fmt.Fprintln(r.out, val)
	case store.IsNotFound(err):
		fmt.Fprintln(r.out, "Not found")
		r.recordError(line, "reported as not found")
	default:
		return err
	}
	return nil
}

func (r *Runner) recordError(line, fix string) {
	if r.ErrorLog == nil {
		return
	}
	r.ErrorLog.Record(line)
	r.ErrorLog.Fix(fix)
}
