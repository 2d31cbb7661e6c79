// Package session drives an interactive VRP CLI over SSH. It owns the
// connection lifecycle, classifies device output into prompts and error
// markers, and tracks CLI view depth so callers always know where the
// device's parser is.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vrpweave/vrpweave/pkg/topology"
	"github.com/vrpweave/vrpweave/pkg/util"
)

// State is the session lifecycle phase.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticating
	StateReady
	StateExecuting
	StateVerifying
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	case StateExecuting:
		return "executing"
	case StateVerifying:
		return "verifying"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// errorMarkers are the substrings the VRP CLI prints when it rejects a
// command. Matching is case-insensitive against each output line.
var errorMarkers = []string{
	"error:",
	"unrecognized command",
	"incomplete command",
	"authentication fail",
	"wrong parameter",
}

// Options tunes session timing. Zero values take the defaults below.
type Options struct {
	ConnectTimeout time.Duration // TCP dial + SSH handshake budget
	CommandTimeout time.Duration // per-command response deadline
	QuietPeriod    time.Duration // silence that ends a read when no prompt shows
	MaxOutputBytes int           // per-command output cap
	HostKeys       HostKeyPolicy
}

const (
	defaultConnectTimeout = 10 * time.Second
	defaultCommandTimeout = 15 * time.Second
	defaultQuietPeriod    = 500 * time.Millisecond
	defaultMaxOutput      = 1 << 20
)

func (o *Options) applyDefaults() {
	if o.ConnectTimeout == 0 {
		o.ConnectTimeout = defaultConnectTimeout
	}
	if o.CommandTimeout == 0 {
		o.CommandTimeout = defaultCommandTimeout
	}
	if o.QuietPeriod == 0 {
		o.QuietPeriod = defaultQuietPeriod
	}
	if o.MaxOutputBytes == 0 {
		o.MaxOutputBytes = defaultMaxOutput
	}
	if o.HostKeys == nil {
		o.HostKeys = NewTOFUPolicy()
	}
}

// Session is a single-device CLI conversation. It is not safe for
// concurrent use; the orchestrator gives each device its own session.
type Session struct {
	device *topology.Device
	opts   Options
	log    *logrus.Entry

	tr      transport
	state   State
	depth   int
	sysname string

	applied    []string
	transcript strings.Builder
	lastOutput string
}

// New returns a disconnected session for the device.
func New(d *topology.Device, opts Options) *Session {
	opts.applyDefaults()
	return &Session{
		device: d,
		opts:   opts,
		log:    util.WithDevice(d.Name),
		state:  StateDisconnected,
	}
}

// newSession wires a pre-built transport, for in-package tests.
func newSession(d *topology.Device, tr transport, opts Options) *Session {
	s := New(d, opts)
	s.tr = tr
	s.state = StateReady
	s.sysname = d.Name
	return s
}

// State returns the current lifecycle phase.
func (s *Session) State() State { return s.state }

// Depth returns the current CLI view depth: 0 in user view, 1 in system
// view, 2 or more inside sub-modes.
func (s *Session) Depth() int { return s.depth }

// Applied returns the commands the device has accepted so far.
func (s *Session) Applied() []string { return s.applied }

// LastOutput returns the raw output of the most recent command.
func (s *Session) LastOutput() string { return s.lastOutput }

// Transcript returns everything the device printed over the session's
// lifetime, for post-mortem diagnostics.
func (s *Session) Transcript() string { return s.transcript.String() }

func (s *Session) fail(err error) error {
	s.state = StateFailed
	return err
}

// Open dials the device and brings the shell to the first prompt. On any
// failure the session lands in the failed state and the returned error
// says which phase broke: timeouts and refusals are reachability problems,
// auth errors are credential problems.
func (s *Session) Open(ctx context.Context) error {
	if s.state != StateDisconnected {
		return s.fail(fmt.Errorf("open in state %s: %w", s.state, util.ErrClosed))
	}
	if err := ctx.Err(); err != nil {
		return s.fail(err)
	}

	target := s.device.Target()
	s.state = StateConnecting
	s.log.WithField("target", target).Debug("connecting")

	// dialSSH covers both the connecting and authenticating phases; the
	// error type tells them apart.
	s.state = StateAuthenticating
	tr, err := dialSSH(target, s.device.Credentials.Username, s.device.Credentials.Password,
		s.opts.ConnectTimeout, s.opts.HostKeys)
	if err != nil {
		return s.fail(err)
	}
	s.tr = tr

	// Drain the login banner up to the first prompt so Execute starts from
	// a known parser state.
	out, err := s.readUntilQuiescent("")
	s.transcript.WriteString(out)
	if err != nil {
		s.tr.close()
		s.tr = nil
		return s.fail(err)
	}
	s.lastOutput = out
	s.state = StateReady
	s.log.WithField("depth", s.depth).Info("session ready")
	return nil
}

// Execute sends the commands in order, waiting for the device to settle
// after each one. The first rejected command fails the session; commands
// already accepted stay applied on the device; there is no rollback.
func (s *Session) Execute(ctx context.Context, commands []string) error {
	if s.state != StateReady {
		return s.fail(fmt.Errorf("execute in state %s: %w", s.state, util.ErrClosed))
	}
	s.state = StateExecuting
	for _, cmd := range commands {
		if err := ctx.Err(); err != nil {
			return s.fail(err)
		}
		if err := s.run(cmd); err != nil {
			return s.fail(err)
		}
		s.applied = append(s.applied, cmd)
	}
	s.state = StateReady
	return nil
}

// Verify checks that each named interface appears in the device's running
// configuration. It is a read-only pass; a mismatch fails the session.
func (s *Session) Verify(ctx context.Context, interfaces []string) error {
	if s.state != StateReady {
		return s.fail(fmt.Errorf("verify in state %s: %w", s.state, util.ErrClosed))
	}
	s.state = StateVerifying
	for _, name := range interfaces {
		if err := ctx.Err(); err != nil {
			return s.fail(err)
		}
		cmd := "display current-configuration interface " + name
		if err := s.run(cmd); err != nil {
			return s.fail(err)
		}
		if !strings.Contains(s.lastOutput, name) {
			return s.fail(&util.ExecError{
				Device:  s.device.Name,
				Command: cmd,
				Output:  s.lastOutput,
				Marker:  "interface missing from running configuration",
			})
		}
	}
	s.state = StateReady
	return nil
}

// Close releases the transport. Best-effort: a session that already failed
// stays failed, but its connection is still torn down.
func (s *Session) Close() error {
	if s.tr == nil {
		if s.state != StateFailed {
			s.state = StateClosed
		}
		return nil
	}
	if s.state == StateReady {
		// Polite logout; the transport is released either way.
		s.tr.send("quit")
	}
	err := s.tr.close()
	s.tr = nil
	if s.state != StateFailed {
		s.state = StateClosed
	}
	return err
}

// run sends one command and reads until the device settles, then scans
// the output for rejection markers.
func (s *Session) run(cmd string) error {
	s.log.WithField("command", cmd).Debug("sending")
	if err := s.tr.send(cmd); err != nil {
		return err
	}
	out, err := s.readUntilQuiescent(cmd)
	s.transcript.WriteString(out)
	if err != nil {
		return err
	}
	s.lastOutput = out
	if marker := findErrorMarker(out); marker != "" {
		return &util.ExecError{
			Device:  s.device.Name,
			Command: cmd,
			Output:  out,
			Marker:  marker,
		}
	}
	return nil
}

// readUntilQuiescent accumulates output until one of: a prompt sits at the
// end of the buffer, the device goes quiet for the quiet period, or the
// output cap is reached. The whole read is bounded by the command timeout.
func (s *Session) readUntilQuiescent(cmd string) (string, error) {
	deadline := time.Now().Add(s.opts.CommandTimeout)
	var buf strings.Builder
	for {
		chunk, err := s.tr.recv(s.opts.QuietPeriod)
		switch {
		case err == errRecvQuiet:
			if buf.Len() > 0 {
				s.notePrompt(buf.String())
				return buf.String(), nil
			}
		case err != nil:
			return buf.String(), err
		default:
			buf.Write(chunk)
			if buf.Len() >= s.opts.MaxOutputBytes {
				s.notePrompt(buf.String())
				return buf.String(), nil
			}
			if s.promptAtTail(buf.String()) {
				return buf.String(), nil
			}
		}
		if time.Now().After(deadline) {
			return buf.String(), &util.TimeoutError{
				Target:  s.device.Target(),
				Timeout: s.opts.CommandTimeout,
			}
		}
	}
}

// promptAtTail reports whether the buffer ends with a CLI prompt and, if
// so, records the implied view depth.
func (s *Session) promptAtTail(out string) bool {
	line := lastLine(out)
	depth, sysname, ok := classifyPrompt(line, s.sysname)
	if !ok {
		return false
	}
	s.depth = depth
	s.sysname = sysname
	return true
}

// notePrompt updates depth from the last line when a read ended on
// quiescence rather than a prompt match.
func (s *Session) notePrompt(out string) {
	s.promptAtTail(out)
}

func lastLine(out string) string {
	out = strings.TrimRight(out, " \r\n")
	if i := strings.LastIndexAny(out, "\r\n"); i >= 0 {
		out = out[i+1:]
	}
	return strings.TrimSpace(out)
}

// classifyPrompt maps a VRP prompt to a view depth. <name> is user view
// (depth 0), [name] is system view (depth 1), [name-sub...] is a sub-mode
// (depth 2 or deeper). The device's sysname can change mid-session (the
// sysname command), so the base name is re-learned from system-view
// prompts.
func classifyPrompt(line, known string) (depth int, sysname string, ok bool) {
	if len(line) < 3 {
		return 0, known, false
	}
	if line[0] == '<' && line[len(line)-1] == '>' {
		return 0, line[1 : len(line)-1], true
	}
	if line[0] != '[' || line[len(line)-1] != ']' {
		return 0, known, false
	}
	inner := line[1 : len(line)-1]
	if inner == "" {
		return 0, known, false
	}
	switch {
	case inner == known:
		return 1, known, true
	case known != "" && strings.HasPrefix(inner, known+"-"):
		return 2, known, true
	default:
		// Either the sysname just changed or this is the first bracketed
		// prompt; sub-modes are only reachable from system view, so a
		// fresh name means system view.
		return 1, inner, true
	}
}

// findErrorMarker returns the first rejection marker present in the
// output, or "" when the device accepted the command.
func findErrorMarker(out string) string {
	lower := strings.ToLower(out)
	for _, marker := range errorMarkers {
		if strings.Contains(lower, marker) {
			return strings.TrimSuffix(marker, ":")
		}
	}
	return ""
}
