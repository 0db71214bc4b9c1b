package device

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/ssh"

	"github.com/newtron-network/cmdref/pkg/util"
)

// SSHTransport runs commands over SSH exec sessions, one session per call.
//
// Configuration batches are sent as a single line joined with " ; " after
// "configure terminal", which NX-OS accepts on an exec channel.
type SSHTransport struct {
	host   string
	client *ssh.Client
	mu     sync.Mutex
}

// DialSSH connects to cfg.Host, retrying with backoff up to cfg.Retries times.
func DialSSH(ctx context.Context, cfg Config) (*SSHTransport, error) {
	config := &ssh.ClientConfig{
		User: cfg.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(cfg.Password),
		},
		// Lab/test environment; production would verify host keys.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         cfg.timeout(),
	}

	var client *ssh.Client
	err := retry(ctx, cfg.Retries, "SSH dial "+cfg.addr(), func() error {
		c, err := ssh.Dial("tcp", cfg.addr(), config)
		if err != nil {
			return err
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("SSH dial %s: %w", cfg.addr(), err)
	}
	util.WithDevice(cfg.Host).Debugf("SSH connected")
	return &SSHTransport{host: cfg.Host, client: client}, nil
}

// Query runs a show command and returns its output.
func (t *SSHTransport) Query(ctx context.Context, command string) (string, error) {
	out, err := t.exec(ctx, command)
	if cerr := checkOutput(command, out); cerr != nil {
		return out, cerr
	}
	return out, err
}

// Configure enters configuration mode and runs commands in order.
func (t *SSHTransport) Configure(ctx context.Context, commands []string) error {
	if len(commands) == 0 {
		return nil
	}
	line := "configure terminal ; " + strings.Join(commands, " ; ")
	out, err := t.exec(ctx, line)
	if cerr := checkOutput(line, out); cerr != nil {
		return cerr
	}
	return err
}

// Close closes the SSH connection.
func (t *SSHTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}

func (t *SSHTransport) exec(ctx context.Context, cmd string) (string, error) {
	t.mu.Lock()
	client := t.client
	t.mu.Unlock()
	if client == nil {
		return "", util.ErrNotConnected
	}

	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("SSH session: %w", err)
	}
	defer session.Close()

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := session.CombinedOutput(cmd)
		done <- result{out, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		util.WithDevice(t.host).Debugf("exec %q: %d bytes", cmd, len(r.out))
		if r.err != nil {
			return string(r.out), fmt.Errorf("SSH exec '%s': %w", cmd, r.err)
		}
		return string(r.out), nil
	}
}
