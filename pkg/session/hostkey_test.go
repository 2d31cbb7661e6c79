package session

import (
	"crypto/ed25519"
	"crypto/rand"
	"net"
	"testing"

	"golang.org/x/crypto/ssh"
)

func generateKey(t *testing.T) ssh.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	key, err := ssh.NewPublicKey(pub)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

func TestTOFUPolicy(t *testing.T) {
	policy := NewTOFUPolicy()
	cb := policy.Callback()
	addr := &net.TCPAddr{IP: net.ParseIP("192.168.56.10"), Port: 22}

	first := generateKey(t)
	if err := cb("192.168.56.10:22", addr, first); err != nil {
		t.Fatalf("first key rejected: %v", err)
	}
	if _, ok := policy.Known("192.168.56.10:22"); !ok {
		t.Error("first key not remembered")
	}

	// Same key again: accepted.
	if err := cb("192.168.56.10:22", addr, first); err != nil {
		t.Errorf("pinned key rejected: %v", err)
	}

	// Different key for the same host: rejected.
	if err := cb("192.168.56.10:22", addr, generateKey(t)); err == nil {
		t.Error("changed host key accepted")
	}

	// Different host gets its own first-use slot.
	if err := cb("192.168.56.11:22", addr, generateKey(t)); err != nil {
		t.Errorf("other host's first key rejected: %v", err)
	}
}
