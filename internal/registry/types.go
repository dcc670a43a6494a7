package registry

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// AddressType tells which address the operator used to name a device.
type AddressType int

const (
	ByIP AddressType = iota
	ByMAC
)

func (t AddressType) String() string {
	switch t {
	case ByIP:
		return "ip"
	case ByMAC:
		return "mac"
	default:
		return fmt.Sprintf("AddressType(%d)", int(t))
	}
}

// State is the lifecycle position of a tracked device.
type State int

const (
	// Pending devices know only their anchor address.
	Pending State = iota
	// Active devices know both addresses and are spoofed on every tick.
	Active
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Active:
		return "active"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Device is one address the operator wants blocked.
type Device struct {
	Anchor string // normalized anchor address
	Kind   AddressType
	IP     net.IP
	MAC    net.HardwareAddr
	State  State
	Since  time.Time // entered the current state
}

// Resolver finds the counterpart of an address. The address cache
// implements it.
type Resolver interface {
	LookupByIP(ip net.IP) (net.HardwareAddr, bool)
	LookupByMAC(mac net.HardwareAddr) (net.IP, bool)
}

// ParseKind classifies operator input as an IPv4 or a MAC address.
func ParseKind(address string) (AddressType, error) {
	address = strings.TrimSpace(address)
	if ip := net.ParseIP(address); ip != nil && ip.To4() != nil {
		return ByIP, nil
	}
	if mac, err := net.ParseMAC(address); err == nil && len(mac) == 6 {
		return ByMAC, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
}

// Normalize parses address as the given kind and returns its canonical form.
// IPv4 addresses come back dotted, MAC addresses lower-case and colon
// separated.
func Normalize(address string, kind AddressType) (string, net.IP, net.HardwareAddr, error) {
	address = strings.TrimSpace(address)
	switch kind {
	case ByIP:
		ip := net.ParseIP(address).To4()
		if ip == nil {
			return "", nil, nil, fmt.Errorf("%w: %q is not an IPv4 address", ErrInvalidAddress, address)
		}
		return ip.String(), ip, nil, nil
	case ByMAC:
		mac, err := net.ParseMAC(address)
		if err != nil || len(mac) != 6 {
			return "", nil, nil, fmt.Errorf("%w: %q is not an Ethernet address", ErrInvalidAddress, address)
		}
		return macKey(mac), nil, mac, nil
	default:
		return "", nil, nil, fmt.Errorf("%w: unknown address type %v", ErrInvalidAddress, kind)
	}
}

func macKey(mac net.HardwareAddr) string {
	return strings.ToLower(mac.String())
}
