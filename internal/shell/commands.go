package shell

import (
	"context"
	"fmt"
	"time"

	"github.com/prabalesh/arpgate/internal/registry"
	"github.com/prabalesh/arpgate/internal/utils/color"
)

// Block starts blocking every address given.
func (s *ShellSession) Block(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(s.out, "❌ Usage: block <ip|mac> [ip|mac...]")
		return
	}

	for _, address := range args {
		kind, err := registry.ParseKind(address)
		if err != nil {
			fmt.Fprintf(s.out, "❌ Invalid address '%s': expected an IPv4 or MAC address\n", address)
			continue
		}
		if !s.engine.AddDevice(address, kind) {
			fmt.Fprintln(s.out, color.RedText(fmt.Sprintf("❌ Could not block %s (see log)", address), false))
			continue
		}
		fmt.Fprintln(s.out, color.GreenText(fmt.Sprintf("✅ Blocking %s", address), false))
	}
}

// Unblock stops blocking every address given.
func (s *ShellSession) Unblock(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(s.out, "❌ Usage: unblock <ip|mac> [ip|mac...]")
		return
	}

	for _, address := range args {
		kind, err := registry.ParseKind(address)
		if err != nil {
			fmt.Fprintf(s.out, "❌ Invalid address '%s': expected an IPv4 or MAC address\n", address)
			continue
		}
		if !s.engine.RemoveDevice(address, kind) {
			fmt.Fprintf(s.out, "⚠️  %s is not blocked\n", address)
			fmt.Fprintln(s.out, "💡 Use 'list' command to see blocked devices")
			continue
		}
		fmt.Fprintln(s.out, color.GreenText(fmt.Sprintf("✅ Unblocked %s", address), false))
	}
}

// RunNetworkScan sweeps the subnet right away instead of waiting for the
// next scan interval.
func (s *ShellSession) RunNetworkScan(ctx context.Context) {
	fmt.Fprintln(s.out, "⏳ Scanning network...")
	startedTime := time.Now()

	if err := s.engine.Reconcile(ctx); err != nil {
		fmt.Fprintln(s.out, color.RedText(fmt.Sprintf("❌ Scan failed: %v", err), false))
		return
	}

	fmt.Fprintln(s.out, "\n✅ Scan completed!")
	s.DisplayHosts()
	fmt.Fprintf(s.out, "⏱️  Time taken: %v\n", time.Since(startedTime).Round(time.Millisecond))
}
