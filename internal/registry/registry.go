// Package registry tracks the devices selected for blocking.
package registry

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
)

var (
	ErrInvalidAddress = errors.New("invalid address")
	ErrAlreadyTracked = errors.New("address already tracked")
	ErrNotTracked     = errors.New("address not tracked")
)

// Registry holds tracked devices keyed by anchor, plus indexes of the
// active ones by IP and by MAC. No two active devices share an IP or a MAC.
//
// A Registry is not safe for concurrent use; its owner serializes access.
type Registry struct {
	devices     map[string]*Device
	activeByIP  map[string]*Device
	activeByMAC map[string]*Device
}

func New() *Registry {
	return &Registry{
		devices:     make(map[string]*Device),
		activeByIP:  make(map[string]*Device),
		activeByMAC: make(map[string]*Device),
	}
}

// Add starts tracking address. The device is active right away when res
// already knows the counterpart, pending otherwise.
func (r *Registry) Add(address string, kind AddressType, res Resolver) (Device, error) {
	key, ip, mac, err := Normalize(address, kind)
	if err != nil {
		return Device{}, err
	}
	if r.tracked(key, kind) {
		return Device{}, fmt.Errorf("%w: %s", ErrAlreadyTracked, key)
	}

	d := &Device{
		Anchor: key,
		Kind:   kind,
		IP:     ip,
		MAC:    mac,
		State:  Pending,
		Since:  time.Now(),
	}
	r.devices[key] = d
	r.resolve(d, res)

	return *d, nil
}

// Remove stops tracking a device, named by its anchor or, for an active
// device, by its resolved address. An active device owning the address wins
// over a pending record anchored on it, and both are dropped. The removed
// device is returned so the caller can undo the spoofing of an active one.
func (r *Registry) Remove(address string, kind AddressType) (Device, error) {
	key, _, _, err := Normalize(address, kind)
	if err != nil {
		return Device{}, err
	}

	var active *Device
	switch kind {
	case ByIP:
		active = r.activeByIP[key]
	case ByMAC:
		active = r.activeByMAC[key]
	}

	d, ok := r.devices[key]
	if active != nil {
		if ok && d != active {
			r.delete(d)
		}
		r.delete(active)
		return *active, nil
	}
	if !ok {
		return Device{}, fmt.Errorf("%w: %s", ErrNotTracked, key)
	}

	r.delete(d)
	return *d, nil
}

// PromotePending tries to resolve every pending device and returns the ones
// that became active.
func (r *Registry) PromotePending(res Resolver) []Device {
	var promoted []Device
	for _, d := range r.sorted(r.devices) {
		// merged into a device activated earlier in this pass
		if r.devices[d.Anchor] != d || d.State != Pending {
			continue
		}
		if r.resolve(d, res) {
			promoted = append(promoted, *d)
		}
	}
	return promoted
}

// Get returns the device tracked under anchor.
func (r *Registry) Get(address string, kind AddressType) (Device, bool) {
	key, _, _, err := Normalize(address, kind)
	if err != nil {
		return Device{}, false
	}
	d, ok := r.devices[key]
	if !ok {
		return Device{}, false
	}
	return *d, true
}

// Active returns the active devices ordered by anchor.
func (r *Registry) Active() []Device {
	return r.filter(func(d *Device) bool { return d.State == Active })
}

// Pending returns the pending devices ordered by anchor.
func (r *Registry) Pending() []Device {
	return r.filter(func(d *Device) bool { return d.State == Pending })
}

// Devices returns every tracked device ordered by anchor.
func (r *Registry) Devices() []Device {
	return r.filter(func(*Device) bool { return true })
}

func (r *Registry) Len() int { return len(r.devices) }

// Drain forgets every device and returns the ones that were active.
func (r *Registry) Drain() []Device {
	active := r.Active()
	r.devices = make(map[string]*Device)
	r.activeByIP = make(map[string]*Device)
	r.activeByMAC = make(map[string]*Device)
	return active
}

func (r *Registry) tracked(key string, kind AddressType) bool {
	if _, ok := r.devices[key]; ok {
		return true
	}
	switch kind {
	case ByIP:
		_, ok := r.activeByIP[key]
		return ok
	case ByMAC:
		_, ok := r.activeByMAC[key]
		return ok
	}
	return false
}

// resolve fills in the missing half of a pending device and activates it.
// Activation is refused when another active device already owns either
// address.
func (r *Registry) resolve(d *Device, res Resolver) bool {
	if res == nil || d.State != Pending {
		return false
	}

	ip, mac := d.IP, d.MAC
	switch d.Kind {
	case ByIP:
		found, ok := res.LookupByIP(ip)
		if !ok {
			return false
		}
		mac = found
	case ByMAC:
		found, ok := res.LookupByMAC(mac)
		if !ok {
			return false
		}
		ip = found.To4()
	}
	if ip == nil || len(mac) == 0 {
		return false
	}

	if other := r.owner(ip, mac); other != nil && other != d {
		log.WithFields(log.Fields{
			"anchor":   d.Anchor,
			"ip":       ip.String(),
			"mac":      mac.String(),
			"conflict": other.Anchor,
		}).Warn("address already used by an active device, staying pending")
		return false
	}

	d.IP, d.MAC = ip, mac
	d.State = Active
	d.Since = time.Now()
	r.activeByIP[ip.String()] = d
	r.activeByMAC[macKey(mac)] = d
	r.absorb(d)
	return true
}

// absorb drops pending records anchored on an address d now owns, so one
// host is never tracked under two anchors.
func (r *Registry) absorb(d *Device) {
	for _, key := range []string{d.IP.String(), macKey(d.MAC)} {
		other, ok := r.devices[key]
		if !ok || other == d || other.State != Pending {
			continue
		}
		delete(r.devices, key)
		log.WithFields(log.Fields{
			"anchor": other.Anchor,
			"owner":  d.Anchor,
		}).Info("address already tracked by an active device, merging")
	}
}

func (r *Registry) owner(ip net.IP, mac net.HardwareAddr) *Device {
	if d, ok := r.activeByIP[ip.String()]; ok {
		return d
	}
	if d, ok := r.activeByMAC[macKey(mac)]; ok {
		return d
	}
	return nil
}

func (r *Registry) delete(d *Device) {
	delete(r.devices, d.Anchor)
	if d.State == Active {
		delete(r.activeByIP, d.IP.String())
		delete(r.activeByMAC, macKey(d.MAC))
	}
}

func (r *Registry) filter(keep func(*Device) bool) []Device {
	var out []Device
	for _, d := range r.sorted(r.devices) {
		if keep(d) {
			out = append(out, *d)
		}
	}
	return out
}

func (r *Registry) sorted(m map[string]*Device) []*Device {
	list := make([]*Device, 0, len(m))
	for _, d := range m {
		list = append(list, d)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Anchor < list[j].Anchor })
	return list
}
