package session

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/vrpweave/vrpweave/pkg/util"
)

// errRecvQuiet is returned by recv when no output arrives within the poll
// window. It signals quiescence to the reader loop, not a failure.
var errRecvQuiet = errors.New("no output within poll window")

// transport is the interactive channel to a device. Session logic is
// written against this interface so tests can drive it with a scripted
// fake instead of a live SSH shell.
type transport interface {
	send(line string) error
	recv(timeout time.Duration) ([]byte, error)
	close() error
}

// sshTransport runs an interactive shell over an SSH connection. A reader
// goroutine pumps shell output into a channel so recv can poll with a
// timeout; the goroutine exits when the shell closes.
type sshTransport struct {
	client *ssh.Client
	sess   *ssh.Session
	stdin  io.WriteCloser
	out    chan []byte
	done   chan struct{}

	// close is called from both the open path (on banner failures) and
	// Session.Close; it must tolerate being reached twice.
	closeOnce sync.Once
	closeErr  error
}

// dialSSH establishes the TCP connection, the SSH handshake, and an
// interactive shell, classifying failures by phase: TCP failures are
// reachability errors, handshake failures with the server's auth banner
// are credential errors.
func dialSSH(target, user, password string, connectTimeout time.Duration, hostKeys HostKeyPolicy) (*sshTransport, error) {
	conn, err := net.DialTimeout("tcp", target, connectTimeout)
	if err != nil {
		return nil, classifyDialError(target, connectTimeout, err)
	}

	config := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.Password(password)},
		HostKeyCallback: hostKeys.Callback(),
		Timeout:         connectTimeout,
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, target, config)
	if err != nil {
		conn.Close()
		if strings.Contains(err.Error(), "unable to authenticate") {
			return nil, &util.AuthError{Target: target, User: user}
		}
		return nil, fmt.Errorf("ssh handshake with %s: %w", target, err)
	}

	client := ssh.NewClient(sshConn, chans, reqs)
	sess, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("opening session on %s: %w", target, err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := sess.RequestPty("vt100", 80, 200, modes); err != nil {
		sess.Close()
		client.Close()
		return nil, fmt.Errorf("requesting pty on %s: %w", target, err)
	}

	stdin, err := sess.StdinPipe()
	if err != nil {
		sess.Close()
		client.Close()
		return nil, fmt.Errorf("stdin pipe on %s: %w", target, err)
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		sess.Close()
		client.Close()
		return nil, fmt.Errorf("stdout pipe on %s: %w", target, err)
	}

	if err := sess.Shell(); err != nil {
		sess.Close()
		client.Close()
		return nil, fmt.Errorf("starting shell on %s: %w", target, err)
	}

	t := &sshTransport{
		client: client,
		sess:   sess,
		stdin:  stdin,
		out:    make(chan []byte, 16),
		done:   make(chan struct{}),
	}
	go t.pump(stdout)
	return t, nil
}

func classifyDialError(target string, timeout time.Duration, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &util.TimeoutError{Target: target, Timeout: timeout}
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return &util.RefusedError{Target: target}
	}
	return fmt.Errorf("dialing %s: %w", target, err)
}

func (t *sshTransport) pump(stdout io.Reader) {
	defer close(t.out)
	buf := make([]byte, 4096)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case t.out <- chunk:
			case <-t.done:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func (t *sshTransport) send(line string) error {
	if _, err := io.WriteString(t.stdin, line+"\n"); err != nil {
		return fmt.Errorf("%w: %v", util.ErrClosed, err)
	}
	return nil
}

func (t *sshTransport) recv(timeout time.Duration) ([]byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case chunk, ok := <-t.out:
		if !ok {
			return nil, util.ErrClosed
		}
		return chunk, nil
	case <-timer.C:
		return nil, errRecvQuiet
	}
}

func (t *sshTransport) close() error {
	t.closeOnce.Do(func() {
		close(t.done)
		t.stdin.Close()
		t.sess.Close()
		t.closeErr = t.client.Close()
	})
	return t.closeErr
}
