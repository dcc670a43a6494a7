// Package firewall backs ARP blocking with netfilter rules for hosts whose
// traffic still reaches this machine.
package firewall

import (
	"errors"
	"fmt"
	"net"
	"os/exec"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Direction constants
const (
	DirectionNone     = 0
	DirectionOutgoing = 1
	DirectionIncoming = 2
)

// Runner executes one external command.
type Runner func(name string, args ...string) error

// Firewall drops forwarded traffic of blocked hosts in the FORWARD chain.
type Firewall struct {
	run     Runner
	mutex   sync.Mutex
	blocked map[string]int // host IP -> directions with an installed DROP rule
}

func New() *Firewall {
	return NewWithRunner(executeCommand)
}

func NewWithRunner(run Runner) *Firewall {
	return &Firewall{
		run:     run,
		blocked: make(map[string]int),
	}
}

// executeCommand runs a system command with better error handling
func executeCommand(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %v: %w: %s", name, args, err, output)
	}
	return nil
}

// Block drops traffic from and to ip. Blocking a blocked host is a no-op.
func (f *Firewall) Block(ip net.IP) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	hostIP := ip.String()
	installed := f.blocked[hostIP]

	var errs []error
	if installed&DirectionOutgoing == 0 {
		if err := f.rule("-A", "-s", hostIP); err != nil {
			errs = append(errs, fmt.Errorf("failed to block outgoing traffic: %w", err))
		} else {
			installed |= DirectionOutgoing
		}
	}
	if installed&DirectionIncoming == 0 {
		if err := f.rule("-A", "-d", hostIP); err != nil {
			errs = append(errs, fmt.Errorf("failed to block incoming traffic: %w", err))
		} else {
			installed |= DirectionIncoming
		}
	}

	if installed != DirectionNone {
		f.blocked[hostIP] = installed
	}
	if len(errs) == 0 {
		log.WithField("ip", hostIP).Debug("forwarding blocked")
	}
	return errors.Join(errs...)
}

// Unblock removes the rules Block installed for ip.
func (f *Firewall) Unblock(ip net.IP) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.unblockUnsafe(ip.String())
}

// Flush removes every rule this firewall installed.
func (f *Firewall) Flush() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	var errs []error
	for _, hostIP := range f.hostsUnsafe() {
		if err := f.unblockUnsafe(hostIP); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Blocked lists the hosts with installed rules.
func (f *Firewall) Blocked() []string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.hostsUnsafe()
}

// unblockUnsafe removes rules without locking (internal use)
func (f *Firewall) unblockUnsafe(hostIP string) error {
	installed, ok := f.blocked[hostIP]
	if !ok {
		return nil
	}

	var errs []error
	if installed&DirectionOutgoing != 0 {
		if err := f.rule("-D", "-s", hostIP); err != nil {
			errs = append(errs, err)
		} else {
			installed &^= DirectionOutgoing
		}
	}
	if installed&DirectionIncoming != 0 {
		if err := f.rule("-D", "-d", hostIP); err != nil {
			errs = append(errs, err)
		} else {
			installed &^= DirectionIncoming
		}
	}

	if installed == DirectionNone {
		delete(f.blocked, hostIP)
	} else {
		f.blocked[hostIP] = installed
	}
	return errors.Join(errs...)
}

func (f *Firewall) rule(action, match, hostIP string) error {
	return f.run("iptables", "-t", "filter", action, "FORWARD", match, hostIP, "-j", "DROP")
}

func (f *Firewall) hostsUnsafe() []string {
	hosts := make([]string, 0, len(f.blocked))
	for h := range f.blocked {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}
