package flasharray

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/chambridge/pure-monitor/internal/frames"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	hardwareListCommand = "purehw list"
	driveListCommand    = "puredrive list"

	hardwareStatusColumn = 1
	driveTypeColumn      = 1
	driveStatusColumn    = 2
)

// SSHConfig configures the CLI-based health backend.
type SSHConfig struct {
	User    string
	KeyFile string
	// KnownHostsFile enables host key checking. When empty any host key is accepted.
	KnownHostsFile string
	Port           int
	Timeout        time.Duration
}

// SSHConnector opens SSH sessions to the frame management address and reads
// hardware and drive state from the Purity CLI.
type SSHConnector struct {
	config SSHConfig
	log    *zap.Logger
}

func NewSSHConnector(cfg SSHConfig, log *zap.Logger) *SSHConnector {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SSHConnector{config: cfg, log: log.Named("flasharray-ssh")}
}

func (c *SSHConnector) clientConfig() (*ssh.ClientConfig, error) {
	if c.config.KeyFile == "" {
		return nil, fmt.Errorf("ssh_key_file is required for the ssh health backend")
	}
	key, err := os.ReadFile(c.config.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read ssh key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ssh key: %w", err)
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if c.config.KnownHostsFile != "" {
		hostKeyCallback, err = knownhosts.New(c.config.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts: %w", err)
		}
	}

	return &ssh.ClientConfig{
		User:            c.config.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         c.config.Timeout,
	}, nil
}

// ConnectHealth dials the frame by its short name, as the frame list names the
// management VIP.
func (c *SSHConnector) ConnectHealth(ctx context.Context, creds frames.Credentials) (HealthSession, error) {
	cfg, err := c.clientConfig()
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(creds.Frame, fmt.Sprintf("%d", c.config.Port))
	dialer := net.Dialer{Timeout: c.config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("issue with connecting to frame %s: %w", creds.Frame, err)
	}

	// Bound the handshake by the same timeout as the dial.
	_ = conn.SetDeadline(time.Now().Add(c.config.Timeout))
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("issue with connecting to frame %s: %w", creds.Frame, err)
	}
	_ = conn.SetDeadline(time.Time{})

	return &SSHSource{
		frame:  creds.Frame,
		client: ssh.NewClient(sshConn, chans, reqs),
		log:    c.log.With(zap.String("frame", creds.Frame)),
	}, nil
}

// SSHSource runs Purity CLI list commands over one SSH connection.
type SSHSource struct {
	frame          string
	client         *ssh.Client
	log            *zap.Logger
	hardwareHeader string
	driveHeader    string
}

func (s *SSHSource) run(ctx context.Context, command string) (string, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to open ssh session: %w", err)
	}
	defer session.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = session.Close()
		case <-done:
		}
	}()

	out, err := session.CombinedOutput(command)
	if err != nil {
		return "", fmt.Errorf("%q failed on %s: %w", command, s.frame, err)
	}
	return string(out), nil
}

func (s *SSHSource) ListHardware(ctx context.Context) ([]Component, error) {
	out, err := s.run(ctx, hardwareListCommand)
	if err != nil {
		return nil, err
	}
	header, components, err := ParseHardwareList(out)
	if err != nil {
		return nil, err
	}
	s.hardwareHeader = header
	return components, nil
}

func (s *SSHSource) ListDrives(ctx context.Context) ([]Component, error) {
	out, err := s.run(ctx, driveListCommand)
	if err != nil {
		return nil, err
	}
	header, components, err := ParseDriveList(out)
	if err != nil {
		return nil, err
	}
	s.driveHeader = header
	return components, nil
}

func (s *SSHSource) HardwareHeader() string { return s.hardwareHeader }

func (s *SSHSource) DriveHeader() string { return s.driveHeader }

func (s *SSHSource) Close(ctx context.Context) error {
	return s.client.Close()
}

// ParseHardwareList parses `purehw list` output: a header line followed by
// whitespace separated rows with the status in the second column.
func ParseHardwareList(out string) (string, []Component, error) {
	return parseColumns(out, hardwareStatusColumn, func(fields []string, line string) Component {
		return Component{Name: fields[0], Status: fields[hardwareStatusColumn], Line: line}
	})
}

// ParseDriveList parses `puredrive list` output: a header line followed by rows
// with the drive type in the second column and the status in the third.
func ParseDriveList(out string) (string, []Component, error) {
	return parseColumns(out, driveStatusColumn, func(fields []string, line string) Component {
		return Component{Name: fields[0], Type: fields[driveTypeColumn], Status: fields[driveStatusColumn], Line: line}
	})
}

func parseColumns(out string, minColumn int, build func([]string, string) Component) (string, []Component, error) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return "", nil, fmt.Errorf("empty command output")
	}

	header := strings.TrimRight(lines[0], "\r")
	var components []Component
	for i, raw := range lines[1:] {
		line := strings.TrimRight(raw, "\r")
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) <= minColumn {
			return "", nil, fmt.Errorf("line %d has %d columns, expected more than %d: %q", i+2, len(fields), minColumn, line)
		}
		components = append(components, build(fields, line))
	}
	return header, components, nil
}
