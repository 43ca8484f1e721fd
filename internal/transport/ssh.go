package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/term"

	ccerr "callcenter/internal/errors"
	"callcenter/util"
)

// DefaultSSHPort is used when SSHConfig.Port is zero.
const DefaultSSHPort = 22

// SSHConfig describes the gateway an operator console hops through.
type SSHConfig struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	Password      string // used as-is when set
	PromptPass    bool   // ask for the password on the terminal
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string // default ~/.ssh/known_hosts
	Timeout       time.Duration

	// ReadSecret reads a password or passphrase without echo.  Nil
	// means the controlling terminal.
	ReadSecret func(prompt string) ([]byte, error)
}

// Addr returns the gateway's host:port.
func (c *SSHConfig) Addr() string {
	port := c.Port
	if port == 0 {
		port = DefaultSSHPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// SSHDialer routes connections through an SSH client.  The client is
// connected lazily on the first Dial and reconnected if the gateway
// drops it.
type SSHDialer struct {
	config *SSHConfig
	logger *util.Logger

	mu     sync.Mutex
	client *ssh.Client
}

// NewSSHDialer creates a dialer that forwards connections through the
// gateway described by cfg.  Nothing is dialed until the first Dial.
func NewSSHDialer(cfg *SSHConfig, logger *util.Logger) *SSHDialer {
	if logger == nil {
		logger = util.NewLogger(0)
	}
	return &SSHDialer{config: cfg, logger: logger.With("ssh")}
}

// Dial connects to address from the gateway's side.
func (d *SSHDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	client, err := d.connect(ctx)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("dialing %s %s", network, address)
	conn, err := client.Dial(network, address)
	if err != nil {
		return nil, ccerr.Wrap("dial", address, fmt.Errorf("via %s: %w", d.config.Addr(), err))
	}
	return conn, nil
}

// Close tears down the SSH client.
func (d *SSHDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client == nil {
		return nil
	}
	err := d.client.Close()
	d.client = nil
	return err
}

func (d *SSHDialer) connect(ctx context.Context) (*ssh.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client != nil {
		return d.client, nil
	}

	cfg := d.config
	auth, err := cfg.authMethods()
	if err != nil {
		return nil, ccerr.WrapSSH("auth", cfg.Host, cfg.Port, err)
	}
	hostKey, err := cfg.hostKeyCallback()
	if err != nil {
		return nil, ccerr.WrapSSH("hostkey", cfg.Host, cfg.Port, err)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	addr := cfg.Addr()
	d.logger.Verbose("connecting to %s as %s", addr, cfg.User)

	dialer := net.Dialer{Timeout: timeout}
	tcpConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, ccerr.Wrap("dial", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(tcpConn, addr, &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         timeout,
	})
	if err != nil {
		tcpConn.Close()
		return nil, ccerr.WrapSSH("handshake", cfg.Host, cfg.Port, err)
	}

	client := ssh.NewClient(sshConn, chans, reqs)
	d.client = client
	d.logger.Verbose("gateway %s connected", addr)

	go d.watch(client)
	return client, nil
}

// watch forgets client once the gateway closes it, so the next Dial
// reconnects.
func (d *SSHDialer) watch(client *ssh.Client) {
	err := client.Wait()

	d.mu.Lock()
	if d.client == client {
		d.client = nil
	}
	d.mu.Unlock()

	if err != nil {
		d.logger.Debug("gateway closed: %v", err)
	}
}

// ── authentication ───────────────────────────────────────────────────

// authMethods lists the configured methods in the order the server
// should try them.  With nothing configured it falls back to the agent
// and the usual key files.
func (c *SSHConfig) authMethods() ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if c.KeyPath != "" {
		m, err := c.keyFileAuth(c.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", c.KeyPath, err)
		}
		methods = append(methods, m)
	}
	if c.UseAgent {
		m, err := agentAuth()
		if err != nil {
			return nil, fmt.Errorf("ssh-agent: %w", err)
		}
		methods = append(methods, m)
	}
	switch {
	case c.Password != "":
		methods = append(methods, ssh.Password(c.Password))
	case c.PromptPass:
		pass, err := c.readSecret("SSH password: ")
		if err != nil {
			return nil, fmt.Errorf("reading password: %w", err)
		}
		methods = append(methods, ssh.Password(string(pass)))
	}

	if len(methods) == 0 {
		methods = c.fallbackAuth()
	}
	if len(methods) == 0 {
		return nil, errors.New("no SSH authentication methods available; " +
			"use --ssh-key, --ssh-password or --ssh-agent")
	}
	return methods, nil
}

func (c *SSHConfig) keyFileAuth(path string) (ssh.AuthMethod, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	signer, err := ssh.ParsePrivateKey(data)

	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) {
		pass, perr := c.readSecret(fmt.Sprintf("Enter passphrase for %s: ", path))
		if perr != nil {
			return nil, fmt.Errorf("reading passphrase: %w", perr)
		}
		signer, err = ssh.ParsePrivateKeyWithPassphrase(data, pass)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing key: %w", err)
	}
	return ssh.PublicKeys(signer), nil
}

func agentAuth() (ssh.AuthMethod, error) {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, errors.New("SSH_AUTH_SOCK is not set")
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, fmt.Errorf("connecting to agent at %s: %w", sock, err)
	}
	return ssh.PublicKeysCallback(agent.NewClient(conn).Signers), nil
}

// fallbackAuth tries the agent and unencrypted default key files.
func (c *SSHConfig) fallbackAuth() []ssh.AuthMethod {
	var out []ssh.AuthMethod
	if m, err := agentAuth(); err == nil {
		out = append(out, m)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return out
	}
	for _, name := range []string{"id_ed25519", "id_ecdsa", "id_rsa"} {
		data, err := os.ReadFile(filepath.Join(home, ".ssh", name))
		if err != nil {
			continue
		}
		if signer, err := ssh.ParsePrivateKey(data); err == nil {
			out = append(out, ssh.PublicKeys(signer))
		}
	}
	return out
}

func (c *SSHConfig) readSecret(prompt string) ([]byte, error) {
	if c.ReadSecret != nil {
		return c.ReadSecret(prompt)
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)
	return term.ReadPassword(fd)
}

// ── host keys ────────────────────────────────────────────────────────

func (c *SSHConfig) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if !c.StrictHostKey {
		//nolint:gosec // user opted out of host key checking
		return ssh.InsecureIgnoreHostKey(), nil
	}

	path := c.KnownHosts
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating home directory: %w", err)
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}
	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("loading known_hosts from %s: %w", path, err)
	}
	return cb, nil
}
