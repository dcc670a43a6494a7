package networking

import (
	"fmt"
	"net"
)

// maxSweepBits bounds subnet enumeration to a /16.
const maxSweepBits = 16

// GetInterfaceCIDR returns the first IPv4 address of iface in CIDR notation.
func GetInterfaceCIDR(iface *net.Interface) (string, error) {
	nets, err := InterfaceNets(iface)
	if err != nil {
		return "", err
	}
	if len(nets) == 0 {
		return "", fmt.Errorf("no IPv4 CIDR found on interface %s", iface.Name)
	}
	return nets[0].String(), nil
}

// InterfaceNets returns the IPv4 networks configured on iface.
func InterfaceNets(iface *net.Interface) ([]*net.IPNet, error) {
	addrs, err := iface.Addrs()
	if err != nil {
		return nil, err
	}

	var nets []*net.IPNet
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && ipnet.IP.To4() != nil {
			nets = append(nets, ipnet)
		}
	}
	return nets, nil
}

// GatewaySubnet returns the /24 that contains the gateway.
func GatewaySubnet(gateway net.IP) (string, error) {
	ip4 := gateway.To4()
	if ip4 == nil {
		return "", fmt.Errorf("gateway %s is not an IPv4 address", gateway)
	}
	subnet := net.IPNet{IP: ip4.Mask(net.CIDRMask(24, 32)), Mask: net.CIDRMask(24, 32)}
	return subnet.String(), nil
}

// GenerateIPsFromCIDR lists the host addresses of an IPv4 CIDR. Network and
// broadcast addresses are left out when the network has more than two
// addresses.
func GenerateIPsFromCIDR(cidr string) ([]net.IP, error) {
	ip, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, err
	}

	ip = ip.To4()
	if ip == nil {
		return nil, fmt.Errorf("%s is not an IPv4 network", cidr)
	}
	ones, bits := ipnet.Mask.Size()
	if bits-ones > maxSweepBits {
		return nil, fmt.Errorf("%s is too large to sweep", cidr)
	}

	var ips []net.IP
	// Start from network address
	for ip = ip.Mask(ipnet.Mask); ipnet.Contains(ip); inc(ip) {
		ipCopy := make(net.IP, len(ip))
		copy(ipCopy, ip)
		ips = append(ips, ipCopy)
	}

	if len(ips) > 2 {
		ips = ips[1 : len(ips)-1]
	}
	return ips, nil
}

// inc increments an IP address
func inc(ip net.IP) {
	for j := len(ip) - 1; j >= 0; j-- {
		ip[j]++
		if ip[j] != 0 {
			break
		}
	}
}
