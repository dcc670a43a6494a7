package firewall

import (
	"fmt"
	"os"
	"strings"
)

const ipForwardPath = "/proc/sys/net/ipv4/ip_forward"

// Forwarding toggles kernel IPv4 forwarding. With forwarding off, traffic
// redirected to this host by spoofed replies goes nowhere.
type Forwarding struct {
	path string
}

func NewForwarding() *Forwarding {
	return &Forwarding{path: ipForwardPath}
}

// NewForwardingAt uses a different sysctl file.
func NewForwardingAt(path string) *Forwarding {
	return &Forwarding{path: path}
}

func (f *Forwarding) Enabled() (bool, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", f.path, err)
	}
	return strings.TrimSpace(string(data)) == "1", nil
}

func (f *Forwarding) Set(enabled bool) error {
	value := "0"
	if enabled {
		value = "1"
	}
	if err := os.WriteFile(f.path, []byte(value), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	return nil
}
