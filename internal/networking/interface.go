package networking

import (
	"errors"
	"net"
	"strings"
)

var (
	errInterfaceDown = errors.New("interface is down")
	errNoHardware    = errors.New("interface has no hardware address")
	errNoCandidate   = errors.New("no active interface with an IPv4 address found")
)

// DetectInterface picks the interface to work on when none was configured.
// Wireless interfaces are preferred, otherwise the first interface that is up,
// not a loopback and carries an IPv4 address wins.
func DetectInterface() (*net.Interface, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return nil, &InterfaceError{Name: "auto", Err: err}
	}

	var fallback *net.Interface
	for i := range interfaces {
		iface := interfaces[i]
		// Skip if not up or is loopback
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if len(iface.HardwareAddr) == 0 {
			continue
		}
		if _, err := GetInterfaceCIDR(&iface); err != nil {
			continue
		}

		name := strings.ToLower(iface.Name)
		if strings.Contains(name, "wlan") || strings.Contains(name, "wifi") || strings.HasPrefix(name, "wl") {
			return &iface, nil
		}
		if fallback == nil {
			fallback = &iface
		}
	}

	if fallback == nil {
		return nil, &InterfaceError{Name: "auto", Err: errNoCandidate}
	}
	return fallback, nil
}

// InterfaceByName looks up an interface and checks that it can carry ARP.
func InterfaceByName(name string) (*net.Interface, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, &InterfaceError{Name: name, Err: err}
	}
	if iface.Flags&net.FlagUp == 0 {
		return nil, &InterfaceError{Name: name, Err: errInterfaceDown}
	}
	if len(iface.HardwareAddr) == 0 {
		return nil, &InterfaceError{Name: name, Err: errNoHardware}
	}
	return iface, nil
}

// OwnMAC returns the hardware address bound to iface.
func OwnMAC(iface *net.Interface) (net.HardwareAddr, error) {
	if len(iface.HardwareAddr) == 0 {
		return nil, &InterfaceError{Name: iface.Name, Err: errNoHardware}
	}
	mac := make(net.HardwareAddr, len(iface.HardwareAddr))
	copy(mac, iface.HardwareAddr)
	return mac, nil
}
