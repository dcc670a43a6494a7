package networking

import (
	"fmt"
	"net"

	"github.com/jackpal/gateway"
	log "github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
)

// GatewayIP resolves the default gateway reachable through iface. The kernel
// routing table is consulted first; the platform-independent discovery of
// jackpal/gateway is only trusted when its answer lies on one of the
// interface's networks.
func GatewayIP(iface *net.Interface) (net.IP, error) {
	routes, err := routesFor(iface)
	if err != nil {
		log.WithField("interface", iface.Name).Debugf("netlink route lookup failed: %v", err)
	}
	if gw := selectGateway(routes, iface.Index); gw != nil {
		return gw, nil
	}

	gw, err := gateway.DiscoverGateway()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRouteNotFound, iface.Name, err)
	}
	nets, err := InterfaceNets(iface)
	if err != nil {
		return nil, &InterfaceError{Name: iface.Name, Err: err}
	}
	for _, n := range nets {
		if n.Contains(gw) {
			return gw.To4(), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRouteNotFound, iface.Name)
}

func routesFor(iface *net.Interface) ([]netlink.Route, error) {
	link, err := netlink.LinkByName(iface.Name)
	if err != nil {
		return nil, err
	}
	return netlink.RouteList(link, netlink.FAMILY_V4)
}

// selectGateway returns the gateway of the first route leaving through the
// given link that has a specified gateway.
func selectGateway(routes []netlink.Route, linkIndex int) net.IP {
	for _, r := range routes {
		if r.LinkIndex != linkIndex {
			continue
		}
		if r.Gw == nil || r.Gw.IsUnspecified() {
			continue
		}
		if gw := r.Gw.To4(); gw != nil {
			return gw
		}
	}
	return nil
}
