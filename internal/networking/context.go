package networking

import (
	"fmt"
	"net"
	"time"

	log "github.com/sirupsen/logrus"
)

// InterfaceContext binds everything the engine needs to know about the
// segment it works on. It is resolved once and never changes afterwards.
type InterfaceContext struct {
	Iface      *net.Interface
	OwnMAC     net.HardwareAddr
	GatewayIP  net.IP
	GatewayMAC net.HardwareAddr
}

// Name is the interface name.
func (c InterfaceContext) Name() string {
	if c.Iface == nil {
		return ""
	}
	return c.Iface.Name
}

// Valid reports whether every address of the context is known.
func (c InterfaceContext) Valid() bool {
	return c.Iface != nil && len(c.OwnMAC) == 6 && c.GatewayIP.To4() != nil && len(c.GatewayMAC) == 6
}

// ResolveContext looks up the interface, its hardware address and the gateway.
// An empty name selects the interface automatically.
func ResolveContext(name string, timeout time.Duration) (InterfaceContext, error) {
	var (
		iface *net.Interface
		err   error
	)
	if name == "" {
		iface, err = DetectInterface()
	} else {
		iface, err = InterfaceByName(name)
	}
	if err != nil {
		return InterfaceContext{}, err
	}

	ownMAC, err := OwnMAC(iface)
	if err != nil {
		return InterfaceContext{}, err
	}

	gatewayIP, err := GatewayIP(iface)
	if err != nil {
		return InterfaceContext{}, fmt.Errorf("failed to get gateway IP: %w", err)
	}

	gatewayMAC, err := GatewayMAC(iface, gatewayIP, timeout)
	if err != nil {
		return InterfaceContext{}, fmt.Errorf("failed to get gateway MAC address: %w", err)
	}

	log.WithFields(log.Fields{
		"interface":   iface.Name,
		"mac":         ownMAC.String(),
		"gateway_ip":  gatewayIP.String(),
		"gateway_mac": gatewayMAC.String(),
	}).Info("resolved interface context")

	return InterfaceContext{
		Iface:      iface,
		OwnMAC:     ownMAC,
		GatewayIP:  gatewayIP,
		GatewayMAC: gatewayMAC,
	}, nil
}
