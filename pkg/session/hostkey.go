package session

import (
	"fmt"
	"net"
	"sync"

	"golang.org/x/crypto/ssh"
)

// HostKeyPolicy decides how device host keys are verified.
type HostKeyPolicy interface {
	Callback() ssh.HostKeyCallback
}

// TOFUPolicy implements trust-on-first-use: the first key seen for a host
// is accepted and remembered, and later connections must present the same
// key. Lab devices regenerate their keys on every boot, so pins are kept
// in memory per run rather than on disk.
type TOFUPolicy struct {
	mu    sync.Mutex
	known map[string]string
}

// NewTOFUPolicy returns an empty trust-on-first-use policy.
func NewTOFUPolicy() *TOFUPolicy {
	return &TOFUPolicy{known: make(map[string]string)}
}

// Callback returns the ssh.HostKeyCallback enforcing the policy.
func (p *TOFUPolicy) Callback() ssh.HostKeyCallback {
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		p.mu.Lock()
		defer p.mu.Unlock()
		fingerprint := ssh.FingerprintSHA256(key)
		seen, ok := p.known[hostname]
		if !ok {
			p.known[hostname] = fingerprint
			return nil
		}
		if seen != fingerprint {
			return fmt.Errorf("host key for %s changed (was %s, now %s)", hostname, seen, fingerprint)
		}
		return nil
	}
}

// Known returns the fingerprint remembered for a host, if any.
func (p *TOFUPolicy) Known(hostname string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fp, ok := p.known[hostname]
	return fp, ok
}

// InsecurePolicy accepts any host key without remembering it. Only for
// throwaway labs where even first-use pinning gets in the way.
type InsecurePolicy struct{}

// Callback returns ssh.InsecureIgnoreHostKey.
func (InsecurePolicy) Callback() ssh.HostKeyCallback {
	return ssh.InsecureIgnoreHostKey()
}
