package restorer

import (
	"fmt"
	"net"
	"time"
)

// Prober checks that a backup target host answers on its port.
type Prober interface {
	Probe(host string, port int, timeout time.Duration) error
}

// TCPProber probes via a plain TCP connect.
type TCPProber struct{}

func (TCPProber) Probe(host string, port int, timeout time.Duration) error {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, fmt.Sprintf("%d", port)), timeout)
	if err != nil {
		return err
	}
	conn.Close()
	return nil
}

// Guard identifies the host to probe before any engine invocation.
// A zero Host disables the check (local repositories have nothing to probe).
type Guard struct {
	Host    string
	Port    int
	Timeout time.Duration
}

// checkConnectivity verifies the backup target is reachable. Failure is a
// fatal precondition: every subsequent operation depends on the target.
func (s *RestoreService) checkConnectivity() error {
	if s.guard.Host == "" {
		return nil
	}

	timeout := s.guard.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	if err := s.prober.Probe(s.guard.Host, s.guard.Port, timeout); err != nil {
		return fmt.Errorf("backup target %s:%d is unreachable: %w", s.guard.Host, s.guard.Port, err)
	}

	s.logger.Debug("backup target reachable", "host", s.guard.Host, "port", s.guard.Port)
	return nil
}
