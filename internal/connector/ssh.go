package connector

import (
	"context"
	"fmt"

	"golang.org/x/crypto/ssh"

	"github.com/ilee165/network-device-backup/internal/log"
	"github.com/ilee165/network-device-backup/internal/model"
)

// SSHConnector opens SSH sessions to devices and runs the dialect's
// show command to retrieve the running configuration.
type SSHConnector struct{}

// NewSSH creates an SSH connector.
func NewSSH() *SSHConnector {
	return &SSHConnector{}
}

// Open dials the device and returns a live session. The dial honours
// the device's per-attempt timeout.
func (c *SSHConnector) Open(ctx context.Context, device *model.Device) (Session, error) {
	cfg := &ssh.ClientConfig{
		User: device.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(device.Password),
			ssh.KeyboardInteractive(passwordChallenge(device.Password)),
		},
		// Network gear rotates host keys on RMA and config wipes;
		// pinning them would strand backups exactly when they matter.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         device.TimeoutDuration(),
	}

	log.Debug("Opening SSH session", "device", device.Name, "addr", device.Addr())

	client, err := ssh.Dial("tcp", device.Addr(), cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", device.Addr(), err)
	}

	return &sshSession{
		client:  client,
		device:  device.Name,
		dialect: DialectFor(device.Type),
	}, nil
}

// passwordChallenge answers keyboard-interactive prompts with the
// device password. Many switch SSH stacks only offer this method.
func passwordChallenge(password string) ssh.KeyboardInteractiveChallenge {
	return func(name, instruction string, questions []string, echos []bool) ([]string, error) {
		answers := make([]string, len(questions))
		for i := range questions {
			answers[i] = password
		}
		return answers, nil
	}
}

type sshSession struct {
	client  *ssh.Client
	device  string
	dialect Dialect
}

func (s *sshSession) FetchConfig(ctx context.Context) (string, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("opening exec session: %w", err)
	}
	defer sess.Close()

	log.Debug("Fetching configuration", "device", s.device, "command", s.dialect.FetchCommand)

	type fetchResult struct {
		out []byte
		err error
	}
	done := make(chan fetchResult, 1)
	go func() {
		out, err := sess.Output(s.dialect.FetchCommand)
		done <- fetchResult{out, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("running %q: %w", s.dialect.FetchCommand, r.err)
		}
		return string(r.out), nil
	}
}

func (s *sshSession) Close() error {
	return s.client.Close()
}
