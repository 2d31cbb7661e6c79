// Package provision pushes rendered scripts to every device in a topology
// concurrently. Devices fail independently: a rejected command stops that
// device and leaves its applied commands in place, while the rest of the
// run continues.
package provision

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vrpweave/vrpweave/pkg/session"
	"github.com/vrpweave/vrpweave/pkg/template"
	"github.com/vrpweave/vrpweave/pkg/topology"
	"github.com/vrpweave/vrpweave/pkg/util"
)

// Policy tunes a provisioning run.
type Policy struct {
	Concurrency    int           // simultaneous device sessions
	ConnectRetries int           // extra connection attempts after the first
	RetryBackoff   time.Duration // sleep between connection attempts
	ConnectTimeout time.Duration
	CommandTimeout time.Duration
	Verify         bool // read back interface config after applying
}

// DefaultPolicy is sequential with one retry for devices still booting;
// callers opt into parallelism explicitly.
func DefaultPolicy() Policy {
	return Policy{
		Concurrency:    1,
		ConnectRetries: 1,
		RetryBackoff:   3 * time.Second,
		ConnectTimeout: 10 * time.Second,
		CommandTimeout: 15 * time.Second,
	}
}

func (p *Policy) applyDefaults() {
	def := DefaultPolicy()
	if p.Concurrency <= 0 {
		p.Concurrency = def.Concurrency
	}
	if p.ConnectRetries < 0 {
		p.ConnectRetries = 0
	}
	if p.RetryBackoff == 0 {
		p.RetryBackoff = def.RetryBackoff
	}
	if p.ConnectTimeout == 0 {
		p.ConnectTimeout = def.ConnectTimeout
	}
	if p.CommandTimeout == 0 {
		p.CommandTimeout = def.CommandTimeout
	}
}

// DeviceSession is the slice of session behavior the orchestrator needs.
// Tests substitute scripted fakes; production runs use SSH sessions.
type DeviceSession interface {
	Execute(ctx context.Context, commands []string) error
	Verify(ctx context.Context, interfaces []string) error
	Applied() []string
	Transcript() string
	Close() error
}

// Dialer opens a ready-to-use session for one device.
type Dialer interface {
	Dial(ctx context.Context, d *topology.Device) (DeviceSession, error)
}

// SSHDialer is the production Dialer. The host key policy is shared across
// all devices in the run.
type SSHDialer struct {
	Policy   Policy
	HostKeys session.HostKeyPolicy
}

// Dial opens and readies an SSH session for the device.
func (sd *SSHDialer) Dial(ctx context.Context, d *topology.Device) (DeviceSession, error) {
	s := session.New(d, session.Options{
		ConnectTimeout: sd.Policy.ConnectTimeout,
		CommandTimeout: sd.Policy.CommandTimeout,
		HostKeys:       sd.HostKeys,
	})
	if err := s.Open(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Orchestrator runs provisioning jobs against one topology.
type Orchestrator struct {
	policy Policy
	dialer Dialer
}

// New returns an orchestrator using SSH sessions with trust-on-first-use
// host key handling.
func New(policy Policy) *Orchestrator {
	policy.applyDefaults()
	return &Orchestrator{
		policy: policy,
		dialer: &SSHDialer{Policy: policy, HostKeys: session.NewTOFUPolicy()},
	}
}

// newWithDialer injects a fake dialer, for tests.
func newWithDialer(policy Policy, d Dialer) *Orchestrator {
	policy.applyDefaults()
	return &Orchestrator{policy: policy, dialer: d}
}

// Provision renders a script for every device and applies the scripts
// concurrently. The returned report has one outcome per device; the error
// is non-nil only when the run could not start at all.
func (o *Orchestrator) Provision(ctx context.Context, t *topology.Topology, cat *template.Catalogue) (*Report, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	report := newReport(t.DeviceNames())

	// Render everything before touching the network so template problems
	// surface without consuming connection attempts.
	scripts := make(map[string]*template.Script, len(t.Devices))
	for _, d := range t.Devices {
		script, err := cat.Render(d)
		if err != nil {
			report.set(&Outcome{Device: d.Name, Status: StatusFailed, Err: err})
			continue
		}
		scripts[d.Name] = script
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, o.policy.Concurrency)
	for _, d := range t.Devices {
		script, ok := scripts[d.Name]
		if !ok {
			continue
		}
		wg.Add(1)
		go func(d *topology.Device, script *template.Script) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			report.set(o.provisionDevice(ctx, d, script))
		}(d, script)
	}
	wg.Wait()
	return report, nil
}

func (o *Orchestrator) provisionDevice(ctx context.Context, d *topology.Device, script *template.Script) *Outcome {
	out := &Outcome{
		Device:        d.Name,
		CommandsTotal: len(script.Commands),
	}
	start := time.Now()
	defer func() { out.Duration = time.Since(start) }()
	log := util.WithDevice(d.Name)

	if ctx.Err() != nil {
		out.Status = StatusSkipped
		out.Err = ctx.Err()
		log.Warn("skipped: run deadline reached before start")
		return out
	}

	sess, err := o.dial(ctx, d, out)
	if err != nil {
		out.Status = StatusFailed
		out.Err = err
		log.WithError(err).Error("connection failed")
		return out
	}
	defer func() {
		out.Transcript = sess.Transcript()
		sess.Close()
	}()

	if err := sess.Execute(ctx, script.Commands); err != nil {
		out.CommandsApplied = len(sess.Applied())
		out.Err = err
		if out.CommandsApplied > 0 {
			out.Status = StatusPartial
			log.WithError(err).Errorf("stopped after %d/%d commands", out.CommandsApplied, out.CommandsTotal)
		} else {
			out.Status = StatusFailed
			log.WithError(err).Error("first command rejected")
		}
		return out
	}
	out.CommandsApplied = len(sess.Applied())

	if o.policy.Verify {
		names := make([]string, 0, len(d.Interfaces))
		for _, iface := range d.Interfaces {
			names = append(names, iface.Name)
		}
		if err := sess.Verify(ctx, names); err != nil {
			out.Status = StatusFailed
			out.Err = err
			log.WithError(err).Error("verification failed")
			return out
		}
	}

	out.Status = StatusSucceeded
	log.Infof("applied %d commands", out.CommandsApplied)
	return out
}

// dial attempts the connection, retrying reachability failures. Credential
// rejections are never retried: the password will not get better, and lab
// images lock accounts after repeated failures.
func (o *Orchestrator) dial(ctx context.Context, d *topology.Device, out *Outcome) (DeviceSession, error) {
	var lastErr error
	for attempt := 0; attempt <= o.policy.ConnectRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(o.policy.RetryBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		out.Attempts = attempt + 1
		sess, err := o.dialer.Dial(ctx, d)
		if err == nil {
			return sess, nil
		}
		lastErr = err
		if !retryable(err) {
			return nil, err
		}
		util.WithDevice(d.Name).WithError(err).Warnf("connect attempt %d failed", attempt+1)
	}
	return nil, lastErr
}

// retryable reports whether a connection error is worth another attempt.
// Timeouts, refusals, and resets are transient while a simulated device
// boots; everything else is deterministic.
func retryable(err error) bool {
	return errors.Is(err, util.ErrTimeout) ||
		errors.Is(err, util.ErrRefused) ||
		errors.Is(err, util.ErrClosed)
}
