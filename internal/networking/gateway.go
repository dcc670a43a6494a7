package networking

import (
	"fmt"
	"net"
	"time"

	"github.com/j-keck/arping"
)

// GatewayMAC asks the gateway for its hardware address over iface.
func GatewayMAC(iface *net.Interface, gatewayIP net.IP, timeout time.Duration) (net.HardwareAddr, error) {
	arping.SetTimeout(timeout)

	mac, _, err := arping.PingOverIfaceByName(gatewayIP, iface.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s on %s: %v", ErrGatewayUnresolved, gatewayIP, iface.Name, err)
	}
	return mac, nil
}
