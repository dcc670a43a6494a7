// Package cache keeps the IP/MAC pairs last seen answering on the segment.
package cache

import (
	"bytes"
	"context"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prabalesh/arpgate/internal/scanner"
	log "github.com/sirupsen/logrus"
)

// Sweeper performs an active sweep of a subnet.
type Sweeper interface {
	Sweep(ctx context.Context, cidr string) ([]scanner.Host, error)
}

// Cache maps IP to MAC and MAC to IP. Each refresh replaces the whole
// content, so hosts that stopped answering disappear.
type Cache struct {
	sweeper Sweeper
	subnet  string

	mu      sync.RWMutex
	byIP    map[string]net.HardwareAddr
	byMAC   map[string]net.IP
	updated time.Time
}

func New(sweeper Sweeper, subnet string) *Cache {
	return &Cache{
		sweeper: sweeper,
		subnet:  subnet,
		byIP:    make(map[string]net.HardwareAddr),
		byMAC:   make(map[string]net.IP),
	}
}

// Subnet is the network swept on refresh.
func (c *Cache) Subnet() string { return c.subnet }

// Refresh sweeps the subnet and swaps in the result.
func (c *Cache) Refresh(ctx context.Context) error {
	hosts, err := c.sweeper.Sweep(ctx, c.subnet)
	if err != nil {
		return err
	}
	c.Replace(hosts)

	log.WithFields(log.Fields{"subnet": c.subnet, "hosts": len(hosts)}).Debug("address cache refreshed")
	return nil
}

// Replace installs hosts as the complete cache content.
func (c *Cache) Replace(hosts []scanner.Host) {
	byIP := make(map[string]net.HardwareAddr, len(hosts))
	byMAC := make(map[string]net.IP, len(hosts))
	for _, h := range hosts {
		ip := h.IP.To4()
		if ip == nil || len(h.MAC) == 0 {
			continue
		}
		byIP[ip.String()] = h.MAC
		byMAC[macKey(h.MAC)] = ip
	}

	c.mu.Lock()
	c.byIP = byIP
	c.byMAC = byMAC
	c.updated = time.Now()
	c.mu.Unlock()
}

// LookupByIP returns the hardware address last seen for ip.
func (c *Cache) LookupByIP(ip net.IP) (net.HardwareAddr, bool) {
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	mac, ok := c.byIP[ip4.String()]
	return mac, ok
}

// LookupByMAC returns the IP address last seen for mac. Matching ignores case.
func (c *Cache) LookupByMAC(mac net.HardwareAddr) (net.IP, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ip, ok := c.byMAC[macKey(mac)]
	return ip, ok
}

// Hosts returns the cached pairs ordered by IP.
func (c *Cache) Hosts() []scanner.Host {
	c.mu.RLock()
	hosts := make([]scanner.Host, 0, len(c.byIP))
	for ip, mac := range c.byIP {
		hosts = append(hosts, scanner.Host{IP: net.ParseIP(ip).To4(), MAC: mac})
	}
	c.mu.RUnlock()

	sortHosts(hosts)
	return hosts
}

// Len is the number of cached hosts.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byIP)
}

// Updated is the time of the last refresh, zero before the first one.
func (c *Cache) Updated() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updated
}

func macKey(mac net.HardwareAddr) string {
	return strings.ToLower(mac.String())
}

func sortHosts(hosts []scanner.Host) {
	sort.Slice(hosts, func(i, j int) bool {
		return bytes.Compare(hosts[i].IP.To4(), hosts[j].IP.To4()) < 0
	})
}
