// Package config holds the runtime settings of the engine and its host.
package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultScanInterval  = 30 * time.Second
	DefaultSpoofInterval = 2 * time.Second
	DefaultRestoreCount  = 4
	DefaultSweepTimeout  = 2 * time.Second
	DefaultSweepWorkers  = 50
)

// Config is bound to command line flags by kong; the tags carry the flag
// names, defaults and help texts.
type Config struct {
	Interface     string        `short:"i" help:"Network interface to work on. Auto-detected when empty."`
	ScanInterval  time.Duration `default:"30s" help:"How often the subnet is swept and pending devices are resolved."`
	SpoofInterval time.Duration `default:"2s" help:"How often spoofed replies are re-sent to every blocked device."`
	RestoreCount  int           `default:"4" help:"Copies of each corrective reply sent when a device is released."`
	SweepTimeout  time.Duration `default:"2s" help:"How long to wait for an ARP answer from a single address."`
	SweepWorkers  int           `default:"50" help:"Concurrent ARP resolutions during a sweep."`
	Subnet        string        `help:"IPv4 network to sweep. Defaults to the gateway's /24."`

	Firewall          bool `help:"Also drop forwarded traffic of blocked devices with iptables."`
	DisableForwarding bool `help:"Turn kernel IPv4 forwarding off while running."`

	Devices []string `short:"d" name:"device" help:"IP or MAC address to block at startup. Repeatable."`

	LogLevel string `default:"info" enum:"trace,debug,info,warn,error" help:"Log level."`
	LogJSON  bool   `name:"log-json" help:"Log as JSON."`
	Shell    bool   `default:"true" negatable:"" help:"Run the interactive shell."`
}

// Default returns a configuration with every default applied.
func Default() Config {
	return Config{
		ScanInterval:  DefaultScanInterval,
		SpoofInterval: DefaultSpoofInterval,
		RestoreCount:  DefaultRestoreCount,
		SweepTimeout:  DefaultSweepTimeout,
		SweepWorkers:  DefaultSweepWorkers,
		LogLevel:      "info",
		Shell:         true,
	}
}

// Validate reports every problem with c at once.
func (c Config) Validate() error {
	var errs []error

	if c.ScanInterval <= 0 {
		errs = append(errs, errors.New("scan interval must be positive"))
	}
	if c.SpoofInterval <= 0 {
		errs = append(errs, errors.New("spoof interval must be positive"))
	}
	if c.ScanInterval > 0 && c.SpoofInterval > 0 && c.ScanInterval <= c.SpoofInterval {
		errs = append(errs, fmt.Errorf("scan interval %v must be longer than spoof interval %v", c.ScanInterval, c.SpoofInterval))
	}
	if c.RestoreCount < 1 {
		errs = append(errs, errors.New("restore count must be at least 1"))
	}
	if c.SweepTimeout <= 0 {
		errs = append(errs, errors.New("sweep timeout must be positive"))
	}
	if c.SweepWorkers < 1 {
		errs = append(errs, errors.New("sweep workers must be at least 1"))
	}
	if c.Subnet != "" {
		if ip, _, err := net.ParseCIDR(c.Subnet); err != nil || ip.To4() == nil {
			errs = append(errs, fmt.Errorf("subnet %q is not an IPv4 CIDR", c.Subnet))
		}
	}
	if c.LogLevel != "" {
		if _, err := log.ParseLevel(c.LogLevel); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
