// Package engine blocks LAN devices from their gateway by ARP spoofing. It
// owns the device registry and the address cache and is driven by two
// cadences: a fast Tick that re-asserts the spoofed mappings and a slow
// Reconcile that sweeps the subnet and activates devices once they show up.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/prabalesh/arpgate/internal/cache"
	"github.com/prabalesh/arpgate/internal/config"
	"github.com/prabalesh/arpgate/internal/firewall"
	"github.com/prabalesh/arpgate/internal/networking"
	"github.com/prabalesh/arpgate/internal/networking/arp"
	"github.com/prabalesh/arpgate/internal/registry"
	"github.com/prabalesh/arpgate/internal/scanner"
	"github.com/prabalesh/arpgate/internal/spoof"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrProtectedAddress is returned for the gateway's or this host's own
	// addresses, which can never be blocked.
	ErrProtectedAddress = errors.New("address belongs to the gateway or to this host")

	// ErrClosed is returned once the engine has been shut down.
	ErrClosed = errors.New("engine is shut down")
)

// Guard is told about every device that starts or stops being blocked.
type Guard interface {
	Block(ip net.IP) error
	Unblock(ip net.IP) error
	Flush() error
}

type Option func(*Engine)

// WithGuard installs an additional blocking mechanism.
func WithGuard(g Guard) Option {
	return func(e *Engine) { e.guard = g }
}

// WithCloser registers a cleanup step run at the end of Shutdown.
func WithCloser(fn func() error) Option {
	return func(e *Engine) { e.closers = append(e.closers, fn) }
}

type Engine struct {
	cfg     config.Config
	ifc     networking.InterfaceContext
	cache   *cache.Cache
	spoofer *spoof.Controller
	guard   Guard
	closers []func() error

	// mu guards registry and closed. Ticks hold it while sending so a
	// device being released can never be re-spoofed halfway.
	mu       sync.Mutex
	registry *registry.Registry
	closed   bool
}

// New assembles an engine from resolved collaborators.
func New(cfg config.Config, ifc networking.InterfaceContext, c *cache.Cache, sender spoof.Sender, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if !ifc.Valid() {
		return nil, errors.New("incomplete interface context")
	}

	e := &Engine{
		cfg:      cfg,
		ifc:      ifc,
		cache:    c,
		spoofer:  spoof.NewController(sender, ifc, cfg.RestoreCount),
		registry: registry.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Open resolves the interface context and opens the network resources
// described by cfg. Nothing is started when the interface or the gateway
// cannot be resolved.
func Open(cfg config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	ifc, err := networking.ResolveContext(cfg.Interface, cfg.SweepTimeout)
	if err != nil {
		log.WithField("interface", cfg.Interface).Errorf("cannot start: %v", err)
		return nil, err
	}

	subnet := cfg.Subnet
	if subnet == "" {
		if subnet, err = networking.GatewaySubnet(ifc.GatewayIP); err != nil {
			return nil, err
		}
	}

	transport, err := arp.Open(ifc.Iface)
	if err != nil {
		return nil, err
	}

	opts := []Option{WithCloser(func() error {
		transport.Close()
		return nil
	})}

	if cfg.Firewall {
		opts = append(opts, WithGuard(firewall.New()))
	}

	if cfg.DisableForwarding {
		fwd := firewall.NewForwarding()
		wasOn, err := fwd.Enabled()
		if err == nil && wasOn {
			err = fwd.Set(false)
		}
		if err != nil {
			transport.Close()
			return nil, fmt.Errorf("failed to disable forwarding: %w", err)
		}
		if wasOn {
			log.Info("ip forwarding disabled")
			opts = append(opts, WithCloser(func() error { return fwd.Set(true) }))
		}
	}

	sc := scanner.NewArpScanner(ifc.Iface, cfg.SweepTimeout, cfg.SweepWorkers)
	e, err := New(cfg, ifc, cache.New(sc, subnet), transport, opts...)
	if err != nil {
		transport.Close()
		return nil, err
	}
	return e, nil
}

// Context returns the interface context the engine works on.
func (e *Engine) Context() networking.InterfaceContext { return e.ifc }

// AddDevice starts blocking a device. It reports false, with the reason
// logged, when the address is invalid, protected or already tracked. A
// device that is not on the wire yet is accepted as pending.
func (e *Engine) AddDevice(address string, kind registry.AddressType) bool {
	_, err := e.Add(address, kind)
	if err != nil {
		log.WithFields(log.Fields{"address": address, "type": kind.String()}).Warnf("not blocking device: %v", err)
		return false
	}
	return true
}

// RemoveDevice stops blocking a device and restores its ARP state. It
// reports false when the address is not tracked.
func (e *Engine) RemoveDevice(address string, kind registry.AddressType) bool {
	_, err := e.Remove(address, kind)
	if err != nil {
		log.WithFields(log.Fields{"address": address, "type": kind.String()}).Warnf("not unblocking device: %v", err)
		return false
	}
	return true
}

// Add is AddDevice with the registry record and the error.
func (e *Engine) Add(address string, kind registry.AddressType) (registry.Device, error) {
	if e.protectedAddress(address, kind) {
		return registry.Device{}, ErrProtectedAddress
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return registry.Device{}, ErrClosed
	}

	d, err := e.registry.Add(address, kind, e.cache)
	if err != nil {
		return registry.Device{}, err
	}

	if d.State != registry.Active {
		log.WithField("anchor", d.Anchor).Info("device not seen yet, waiting for it to come online")
		return d, nil
	}
	if e.protectedDevice(d) {
		e.registry.Remove(d.Anchor, d.Kind)
		return registry.Device{}, ErrProtectedAddress
	}

	e.activated(d)
	return d, nil
}

// Remove is RemoveDevice with the registry record and the error.
func (e *Engine) Remove(address string, kind registry.AddressType) (registry.Device, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return registry.Device{}, ErrClosed
	}

	d, err := e.registry.Remove(address, kind)
	if err != nil {
		return registry.Device{}, err
	}

	if d.State == registry.Active {
		e.release(d)
	} else {
		log.WithField("anchor", d.Anchor).Info("pending device dropped")
	}
	return d, nil
}

// Tick sends the spoofed replies for every active device. Send failures
// are logged and never stop the remaining devices.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	for _, d := range e.registry.Active() {
		e.spoofer.Poison(target(d))
	}
}

// Reconcile sweeps the subnet and activates pending devices whose missing
// address became known. The sweep runs without holding the registry lock.
func (e *Engine) Reconcile(ctx context.Context) error {
	if e.isClosed() {
		return ErrClosed
	}

	if err := e.cache.Refresh(ctx); err != nil {
		if ctx.Err() == nil {
			log.WithField("subnet", e.cache.Subnet()).Warnf("address cache refresh failed: %v", err)
		}
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	for _, d := range e.registry.PromotePending(e.cache) {
		if e.protectedDevice(d) {
			log.WithField("anchor", d.Anchor).Warn("device resolved to a protected address, dropping it")
			e.registry.Remove(d.Anchor, d.Kind)
			continue
		}
		e.activated(d)
	}
	return nil
}

// Shutdown restores every active device and releases the network
// resources. Failures are collected; every device gets its restore
// attempt. Calling Shutdown again is a no-op.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	var errs []error
	active := e.registry.Drain()
	for _, d := range active {
		if err := e.release(d); err != nil {
			errs = append(errs, err)
		}
	}

	if e.guard != nil {
		if err := e.guard.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, closeFn := range e.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}

	log.WithField("restored", len(active)).Info("engine shut down")
	return errors.Join(errs...)
}

// Devices returns every tracked device.
func (e *Engine) Devices() []registry.Device {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Devices()
}

// Hosts returns the content of the address cache.
func (e *Engine) Hosts() []scanner.Host {
	return e.cache.Hosts()
}

func (e *Engine) activated(d registry.Device) {
	log.WithFields(log.Fields{"ip": d.IP.String(), "mac": d.MAC.String()}).Info("disabling internet for device")

	if e.guard != nil {
		if err := e.guard.Block(d.IP); err != nil {
			log.WithField("ip", d.IP.String()).Warnf("firewall block failed: %v", err)
		}
	}
}

func (e *Engine) release(d registry.Device) error {
	log.WithFields(log.Fields{"ip": d.IP.String(), "mac": d.MAC.String()}).Info("enabling internet for device")

	err := e.spoofer.Restore(target(d))
	if e.guard != nil {
		if gerr := e.guard.Unblock(d.IP); gerr != nil {
			log.WithField("ip", d.IP.String()).Warnf("firewall unblock failed: %v", gerr)
			err = errors.Join(err, gerr)
		}
	}
	return err
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *Engine) protectedAddress(address string, kind registry.AddressType) bool {
	_, ip, mac, err := registry.Normalize(address, kind)
	if err != nil {
		return false
	}
	switch kind {
	case registry.ByIP:
		return ip.Equal(e.ifc.GatewayIP)
	case registry.ByMAC:
		return bytes.Equal(mac, e.ifc.GatewayMAC) || bytes.Equal(mac, e.ifc.OwnMAC)
	}
	return false
}

func (e *Engine) protectedDevice(d registry.Device) bool {
	return d.IP.Equal(e.ifc.GatewayIP) ||
		bytes.Equal(d.MAC, e.ifc.GatewayMAC) ||
		bytes.Equal(d.MAC, e.ifc.OwnMAC)
}

func target(d registry.Device) spoof.Target {
	return spoof.Target{IP: d.IP, MAC: d.MAC}
}
