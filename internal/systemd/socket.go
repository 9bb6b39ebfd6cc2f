// Package systemd connects `sessiontimer serve` to its unit. It picks up the
// sockets passed by sessiontimer.socket and reports service state over the
// notify socket. Outside systemd both are no-ops.
package systemd

import (
	"fmt"
	"net"
	"strings"

	"github.com/coreos/go-systemd/v22/activation"
	"github.com/coreos/go-systemd/v22/daemon"
)

// FileDescriptorName= values understood by serve.
const (
	APISocket     = "api"
	MetricsSocket = "metrics"
)

// Sockets are the listeners inherited from socket activation, keyed by name.
type Sockets struct {
	byName map[string][]net.Listener
}

// Inherit collects the activated listeners. The LISTEN_* variables are
// cleared so that child processes do not try to claim them again.
func Inherit() (*Sockets, error) {
	byName, err := activation.ListenersWithNames()
	if err != nil {
		return nil, fmt.Errorf("inherit systemd sockets: %w", err)
	}
	return &Sockets{byName: byName}, nil
}

// Activated reports whether systemd passed any socket at all.
func (s *Sockets) Activated() bool {
	return s != nil && len(s.byName) > 0
}

// Listener returns the socket called name, or nil when the unit has none and
// serve should bind the configured port itself.
func (s *Sockets) Listener(name string) net.Listener {
	if s == nil {
		return nil
	}
	if lns := s.byName[name]; len(lns) > 0 {
		return lns[0]
	}
	return nil
}

// Ready reports that the API accepts requests. status becomes the unit's
// STATUS= line shown by systemctl.
func Ready(status string) error {
	return notify(daemon.SdNotifyReady, "STATUS="+status)
}

// Stopping reports that shutdown has begun.
func Stopping() error {
	return notify(daemon.SdNotifyStopping)
}

func notify(states ...string) error {
	// Without NOTIFY_SOCKET nothing is sent and no error is returned
	if _, err := daemon.SdNotify(false, strings.Join(states, "\n")); err != nil {
		return fmt.Errorf("sd_notify %s: %w", states[0], err)
	}
	return nil
}
