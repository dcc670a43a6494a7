package networking

import (
	"errors"
	"net"
	"testing"

	"github.com/vishvananda/netlink"
)

func TestSelectGateway(t *testing.T) {
	routes := []netlink.Route{
		{LinkIndex: 3, Gw: net.ParseIP("172.16.0.1")},
		{LinkIndex: 2, Gw: nil},
		{LinkIndex: 2, Gw: net.IPv4zero},
		{LinkIndex: 2, Gw: net.ParseIP("192.168.1.1")},
		{LinkIndex: 2, Gw: net.ParseIP("192.168.1.254")},
	}

	gw := selectGateway(routes, 2)
	if gw == nil || !gw.Equal(net.ParseIP("192.168.1.1")) {
		t.Fatalf("selectGateway = %v, want 192.168.1.1", gw)
	}
	if len(gw) != net.IPv4len {
		t.Errorf("gateway should be 4-byte form, got %d bytes", len(gw))
	}
}

func TestSelectGatewayNone(t *testing.T) {
	routes := []netlink.Route{
		{LinkIndex: 2, Gw: net.IPv4zero},
		{LinkIndex: 5, Gw: net.ParseIP("10.1.1.1")},
	}
	if gw := selectGateway(routes, 2); gw != nil {
		t.Errorf("selectGateway = %v, want nil", gw)
	}
	if gw := selectGateway(nil, 2); gw != nil {
		t.Errorf("selectGateway(nil) = %v, want nil", gw)
	}
}

func TestInterfaceError(t *testing.T) {
	_, err := InterfaceByName("arpgate-does-not-exist0")
	if err == nil {
		t.Fatal("expected an error for a missing interface")
	}
	var ifErr *InterfaceError
	if !errors.As(err, &ifErr) {
		t.Fatalf("error %v is not an *InterfaceError", err)
	}
	if ifErr.Name != "arpgate-does-not-exist0" {
		t.Errorf("Name = %q", ifErr.Name)
	}
}

func TestInterfaceContextValid(t *testing.T) {
	ctx := InterfaceContext{
		Iface:      &net.Interface{Name: "eth0", Index: 2},
		OwnMAC:     net.HardwareAddr{0xcc, 0xcc, 0xcc, 0xcc, 0xcc, 0xcc},
		GatewayIP:  net.ParseIP("10.0.0.1"),
		GatewayMAC: net.HardwareAddr{0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa},
	}
	if !ctx.Valid() {
		t.Error("expected context to be valid")
	}
	if ctx.Name() != "eth0" {
		t.Errorf("Name = %q", ctx.Name())
	}

	ctx.GatewayMAC = nil
	if ctx.Valid() {
		t.Error("context without gateway MAC must be invalid")
	}
}
