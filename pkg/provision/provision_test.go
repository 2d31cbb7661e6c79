package provision

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/vrpweave/vrpweave/pkg/template"
	"github.com/vrpweave/vrpweave/pkg/topology"
	"github.com/vrpweave/vrpweave/pkg/util"
)

// fakeSession accepts commands until failAt (0-based index into the full
// command list), then rejects.
type fakeSession struct {
	failAt    int // -1: accept everything
	verifyErr error
	applied   []string
	closed    bool
}

func (f *fakeSession) Execute(ctx context.Context, commands []string) error {
	for i, cmd := range commands {
		if f.failAt >= 0 && i == f.failAt {
			return &util.ExecError{Device: "fake", Command: cmd, Marker: "error"}
		}
		f.applied = append(f.applied, cmd)
	}
	return nil
}

func (f *fakeSession) Verify(ctx context.Context, interfaces []string) error {
	return f.verifyErr
}

func (f *fakeSession) Applied() []string { return f.applied }

func (f *fakeSession) Transcript() string { return "[fake]" }

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

// fakeDialer scripts per-device dial results: dialErrs are consumed one per
// attempt, then the session is returned. Workers dial concurrently, so the
// maps are guarded.
type fakeDialer struct {
	mu       sync.Mutex
	dialErrs map[string][]error
	sessions map[string]*fakeSession
	attempts map[string]int
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{
		dialErrs: make(map[string][]error),
		sessions: make(map[string]*fakeSession),
		attempts: make(map[string]int),
	}
}

func (fd *fakeDialer) Dial(ctx context.Context, d *topology.Device) (DeviceSession, error) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.attempts[d.Name]++
	if errs := fd.dialErrs[d.Name]; len(errs) > 0 {
		fd.dialErrs[d.Name] = errs[1:]
		return nil, errs[0]
	}
	sess, ok := fd.sessions[d.Name]
	if !ok {
		sess = &fakeSession{failAt: -1}
		fd.sessions[d.Name] = sess
	}
	return sess, nil
}

func labTopology(names ...string) *topology.Topology {
	t := &topology.Topology{Name: "lab"}
	for i, name := range names {
		d := &topology.Device{
			Name:   name,
			Family: topology.FamilyAccessSwitch,
			MgmtIP: fmt.Sprintf("192.168.56.%d", 10+i),
			VLANs:  []*topology.VLAN{{ID: 10}},
			Interfaces: []*topology.Interface{
				{Name: "GigabitEthernet0/0/1", AccessVLAN: 10},
			},
		}
		d.ApplyDefaults()
		t.Devices = append(t.Devices, d)
	}
	return t
}

func testPolicy() Policy {
	return Policy{
		Concurrency:    2,
		ConnectRetries: 1,
		RetryBackoff:   time.Millisecond,
	}
}

func run(t *testing.T, fd *fakeDialer, topo *topology.Topology) *Report {
	t.Helper()
	orch := newWithDialer(testPolicy(), fd)
	report, err := orch.Provision(context.Background(), topo, template.Builtin())
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	return report
}

func TestProvision_AllSucceed(t *testing.T) {
	topo := labTopology("SW1", "SW2", "SW3")
	report := run(t, newFakeDialer(), topo)

	if !report.AllSucceeded() {
		t.Fatal("clean run reported failures")
	}
	if report.Count(StatusSucceeded) != 3 {
		t.Errorf("succeeded = %d, want 3", report.Count(StatusSucceeded))
	}
	for _, o := range report.Outcomes() {
		if o.CommandsApplied != o.CommandsTotal || o.CommandsTotal == 0 {
			t.Errorf("%s: applied %d/%d", o.Device, o.CommandsApplied, o.CommandsTotal)
		}
		if o.Attempts != 1 {
			t.Errorf("%s: attempts = %d, want 1", o.Device, o.Attempts)
		}
	}
}

func TestProvision_DevicesFailIndependently(t *testing.T) {
	topo := labTopology("SW1", "SW2", "SW3")
	fd := newFakeDialer()
	fd.dialErrs["SW2"] = []error{&util.AuthError{Target: "192.168.56.20:22", User: "admin"}}

	report := run(t, fd, topo)

	for _, name := range []string{"SW1", "SW3"} {
		o, ok := report.Outcome(name)
		if !ok || o.Status != StatusSucceeded {
			t.Errorf("%s should succeed despite SW2 failing", name)
		}
	}
	o, _ := report.Outcome("SW2")
	if o.Status != StatusFailed {
		t.Errorf("SW2 status = %s, want failed", o.Status)
	}
	if !errors.Is(o.Err, util.ErrAuth) {
		t.Errorf("SW2 error = %v, want auth failure", o.Err)
	}
	// Credential rejection is never retried.
	if fd.attempts["SW2"] != 1 {
		t.Errorf("SW2 dialed %d times, want 1", fd.attempts["SW2"])
	}
}

func TestProvision_RetriesReachabilityFailures(t *testing.T) {
	topo := labTopology("SW1")
	fd := newFakeDialer()
	fd.dialErrs["SW1"] = []error{
		&util.TimeoutError{Target: "192.168.56.10:22", Timeout: time.Second},
	}

	report := run(t, fd, topo)

	o, _ := report.Outcome("SW1")
	if o.Status != StatusSucceeded {
		t.Fatalf("status = %s (%v), want success after retry", o.Status, o.Err)
	}
	if o.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", o.Attempts)
	}
}

func TestProvision_RetriesExhausted(t *testing.T) {
	topo := labTopology("SW1")
	fd := newFakeDialer()
	fd.dialErrs["SW1"] = []error{
		&util.RefusedError{Target: "192.168.56.10:22"},
		&util.RefusedError{Target: "192.168.56.10:22"},
		&util.RefusedError{Target: "192.168.56.10:22"},
	}

	report := run(t, fd, topo)

	o, _ := report.Outcome("SW1")
	if o.Status != StatusFailed {
		t.Errorf("status = %s, want failed", o.Status)
	}
	if !errors.Is(o.Err, util.ErrRefused) {
		t.Errorf("error = %v, want refused", o.Err)
	}
	// One initial attempt plus ConnectRetries.
	if fd.attempts["SW1"] != 2 {
		t.Errorf("dialed %d times, want 2", fd.attempts["SW1"])
	}
}

func TestProvision_PartialApplication(t *testing.T) {
	topo := labTopology("SW1")
	fd := newFakeDialer()
	fd.sessions["SW1"] = &fakeSession{failAt: 3}

	report := run(t, fd, topo)

	o, _ := report.Outcome("SW1")
	if o.Status != StatusPartial {
		t.Fatalf("status = %s, want partial", o.Status)
	}
	if o.CommandsApplied != 3 {
		t.Errorf("applied = %d, want 3", o.CommandsApplied)
	}
	if !errors.Is(o.Err, util.ErrExec) {
		t.Errorf("error = %v, want exec failure", o.Err)
	}
	if !fd.sessions["SW1"].closed {
		t.Error("session not closed after partial failure")
	}
}

func TestProvision_FirstCommandRejected(t *testing.T) {
	topo := labTopology("SW1")
	fd := newFakeDialer()
	fd.sessions["SW1"] = &fakeSession{failAt: 0}

	report := run(t, fd, topo)

	o, _ := report.Outcome("SW1")
	if o.Status != StatusFailed {
		t.Errorf("status = %s, want failed when nothing applied", o.Status)
	}
	if o.CommandsApplied != 0 {
		t.Errorf("applied = %d, want 0", o.CommandsApplied)
	}
}

func TestProvision_DeadlineSkipsPendingDevices(t *testing.T) {
	topo := labTopology("SW1", "SW2")
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // deadline already passed before the run starts

	orch := newWithDialer(testPolicy(), newFakeDialer())
	report, err := orch.Provision(ctx, topo, template.Builtin())
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if report.Count(StatusSkipped) != 2 {
		t.Errorf("skipped = %d, want 2", report.Count(StatusSkipped))
	}
}

func TestProvision_RenderFailureDoesNotDial(t *testing.T) {
	topo := labTopology("SW1")
	fd := newFakeDialer()

	orch := newWithDialer(testPolicy(), fd)
	report, err := orch.Provision(context.Background(), topo, template.NewCatalogue())
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}

	o, _ := report.Outcome("SW1")
	if o.Status != StatusFailed {
		t.Errorf("status = %s, want failed", o.Status)
	}
	if !errors.Is(o.Err, util.ErrUnknownModel) {
		t.Errorf("error = %v, want unknown model", o.Err)
	}
	if fd.attempts["SW1"] != 0 {
		t.Error("device with no template should never be dialed")
	}
}

func TestProvision_VerifyFailure(t *testing.T) {
	topo := labTopology("SW1")
	fd := newFakeDialer()
	fd.sessions["SW1"] = &fakeSession{
		failAt:    -1,
		verifyErr: &util.ExecError{Device: "SW1", Command: "display", Marker: "mismatch"},
	}

	policy := testPolicy()
	policy.Verify = true
	orch := newWithDialer(policy, fd)
	report, err := orch.Provision(context.Background(), topo, template.Builtin())
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}

	o, _ := report.Outcome("SW1")
	if o.Status != StatusFailed {
		t.Errorf("status = %s, want failed on verify mismatch", o.Status)
	}
}

func TestProvision_InvalidTopology(t *testing.T) {
	topo := &topology.Topology{Name: "empty"}
	orch := newWithDialer(testPolicy(), newFakeDialer())
	if _, err := orch.Provision(context.Background(), topo, template.Builtin()); err == nil {
		t.Fatal("empty topology accepted")
	}
}
