// Package scanner sweeps a subnet with ARP requests.
package scanner

import (
	"bytes"
	"context"
	"net"
	"net/netip"
	"sort"
	"sync"
	"time"

	"github.com/mdlayher/arp"
	"github.com/prabalesh/arpgate/internal/networking"
	log "github.com/sirupsen/logrus"
)

// Host is an address pair seen answering on the wire.
type Host struct {
	IP  net.IP
	MAC net.HardwareAddr
}

// ResolveFunc asks one address for its hardware address. It reports false
// when nothing answered in time.
type ResolveFunc func(ctx context.Context, ip net.IP) (net.HardwareAddr, bool)

type ArpScanner struct {
	iface      *net.Interface
	timeout    time.Duration
	maxWorkers int
	resolve    ResolveFunc
}

func NewArpScanner(iface *net.Interface, timeout time.Duration, workers int) *ArpScanner {
	a := &ArpScanner{
		iface:      iface,
		timeout:    timeout,
		maxWorkers: workers,
	}
	a.resolve = a.scanSingleIP
	return a
}

// NewWithResolver builds a scanner around a custom resolver.
func NewWithResolver(resolve ResolveFunc, workers int) *ArpScanner {
	return &ArpScanner{maxWorkers: workers, resolve: resolve}
}

// Sweep resolves every host address of cidr and returns the ones that
// answered, ordered by address. Hosts that stay silent are simply missing
// from the result. A sweep cut short by ctx returns what was found so far
// together with ctx's error.
func (a *ArpScanner) Sweep(ctx context.Context, cidr string) ([]Host, error) {
	ips, err := networking.GenerateIPsFromCIDR(cidr)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	hosts := a.Scan(ctx, ips)
	if err := ctx.Err(); err != nil {
		return hosts, err
	}

	log.WithFields(log.Fields{
		"subnet": cidr,
		"hosts":  len(hosts),
		"took":   time.Since(started).Round(time.Millisecond),
	}).Debug("arp sweep finished")

	return hosts, nil
}

func (a *ArpScanner) Scan(ctx context.Context, ips []net.IP) []Host {
	if a.resolve == nil || len(ips) == 0 {
		return []Host{}
	}

	var (
		activeHosts = []Host{}
		hostsMutex  sync.Mutex
	)

	pool := NewPool(a.maxWorkers)
	for _, ip := range ips {
		currentIP := ip
		pool.AddJob(func() {
			if ctx.Err() != nil {
				return
			}
			mac, ok := a.resolve(ctx, currentIP)
			if !ok {
				return
			}
			hostsMutex.Lock()
			activeHosts = append(activeHosts, Host{IP: currentIP, MAC: mac})
			hostsMutex.Unlock()
		})
	}
	pool.Wait()

	sort.Slice(activeHosts, func(i, j int) bool {
		return bytes.Compare(activeHosts[i].IP.To4(), activeHosts[j].IP.To4()) < 0
	})
	return activeHosts
}

// scanSingleIP tries to find a device at one specific IP address
func (a *ArpScanner) scanSingleIP(ctx context.Context, ip net.IP) (net.HardwareAddr, bool) {
	conn, err := arp.Dial(a.iface)
	if err != nil {
		// Can't create connection, maybe interface is down?
		log.WithField("interface", a.iface.Name).Debugf("arp dial: %v", err)
		return nil, false
	}
	defer conn.Close()

	deadline := time.Now().Add(a.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, false
	}

	ipAddr, ok := netip.AddrFromSlice(ip.To4())
	if !ok {
		return nil, false
	}

	// No response = no device at this IP
	mac, err := conn.Resolve(ipAddr)
	if err != nil {
		return nil, false
	}
	return mac, true
}
