// Package device carries command lines to a switch and returns its output.
//
// Three transports are provided: SSHTransport runs each command in its own
// SSH exec session, ScrapliTransport drives an interactive CLI through
// scrapligo, and SimDevice keeps a running configuration in memory or Redis
// for tests and dry runs.
package device

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jpillora/backoff"

	"github.com/newtron-network/cmdref/pkg/util"
)

// Transport sends commands to one device.
type Transport interface {
	// Query runs a show command and returns its raw output.
	Query(ctx context.Context, command string) (string, error)
	// Configure applies command lines in configuration mode.
	Configure(ctx context.Context, commands []string) error
	Close() error
}

// Config holds connection parameters shared by the network transports.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string

	// Platform is the scrapligo platform name (cisco_nxos, arista_eos, ...).
	Platform string

	Timeout time.Duration
	Retries int
}

func (c Config) addr() string {
	port := c.Port
	if port == 0 {
		port = 22
	}
	return fmt.Sprintf("%s:%d", c.Host, port)
}

func (c Config) timeout() time.Duration {
	if c.Timeout == 0 {
		return 30 * time.Second
	}
	return c.Timeout
}

// CLIError is returned when the device rejects a command.
type CLIError struct {
	Command string
	Output  string
}

func (e *CLIError) Error() string {
	return fmt.Sprintf("device rejected %q: %s", e.Command, strings.TrimSpace(e.Output))
}

func (e *CLIError) Unwrap() error {
	return util.ErrCLIRejected
}

// Output prefixes that mark a rejected command on NX-OS and IOS style CLIs.
var rejectMarkers = []string{
	"% Invalid",
	"% Incomplete",
	"% Ambiguous",
	"% Permission denied",
	"% Feature not enabled",
	"Syntax error while parsing",
}

func checkOutput(command, output string) error {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		for _, m := range rejectMarkers {
			if strings.HasPrefix(line, m) {
				return &CLIError{Command: command, Output: line}
			}
		}
	}
	return nil
}

// retry runs fn until it succeeds, ctx is done, or attempts are exhausted.
func retry(ctx context.Context, attempts int, what string, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	b := &backoff.Backoff{
		Min:    500 * time.Millisecond,
		Max:    10 * time.Second,
		Factor: 2,
		Jitter: true,
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		d := b.Duration()
		util.WithField("attempt", i+1).Warnf("%s failed, retrying in %s: %v", what, d, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
	}
	return err
}
