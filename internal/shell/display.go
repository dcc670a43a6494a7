package shell

import (
	"fmt"
	"strings"

	"github.com/prabalesh/arpgate/internal/registry"
	"github.com/prabalesh/arpgate/internal/utils/color"
)

const (
	doubleRule = "══════════════════════════════════════════════════════════════════════════════"
	singleRule = "──────────────────────────────────────────────────────────────────────────────"
)

func (s *ShellSession) DisplayDevices() {
	devices := s.engine.Devices()
	if len(devices) == 0 {
		fmt.Fprintln(s.out, "❌ No devices blocked")
		return
	}

	fmt.Fprintln(s.out, "\n🚫 Blocked Devices:")
	fmt.Fprintln(s.out, doubleRule)
	fmt.Fprintf(s.out, "%-18s %-15s %-18s %-8s %-10s\n", "Added As", "IP Address", "MAC Address", "State", "Since")
	fmt.Fprintln(s.out, singleRule)

	for _, d := range devices {
		state := color.YellowText(fmt.Sprintf("%-8s", d.State), false)
		if d.State == registry.Active {
			state = color.RedText(fmt.Sprintf("%-8s", d.State), false)
		}
		fmt.Fprintf(s.out, "%-18s %-15s %-18s %s %-10s\n",
			d.Anchor, orDash(d.IP), orDash(d.MAC), state, d.Since.Format("15:04:05"))
	}

	fmt.Fprintln(s.out, doubleRule)
	fmt.Fprintf(s.out, "📈 Total devices: %d\n\n", len(devices))
}

func (s *ShellSession) DisplayHosts() {
	hosts := s.engine.Hosts()
	if len(hosts) == 0 {
		fmt.Fprintln(s.out, "❌ No devices online")
		return
	}

	blocked := map[string]bool{}
	for _, d := range s.engine.Devices() {
		if d.State == registry.Active {
			blocked[d.IP.String()] = true
		}
	}

	fmt.Fprintln(s.out, "\n📊 Active Hosts:")
	fmt.Fprintln(s.out, doubleRule)
	fmt.Fprintf(s.out, "%-4s %-15s %-18s %-8s\n", "ID", "IP Address", "MAC Address", "Blocked")
	fmt.Fprintln(s.out, singleRule)

	for id, host := range hosts {
		status := "❌"
		if blocked[host.IP.String()] {
			status = "✅"
		}
		fmt.Fprintf(s.out, "%-4d %-15s %-18s %-8s\n", id, host.IP, host.MAC, status)
	}

	fmt.Fprintln(s.out, doubleRule)
	fmt.Fprintf(s.out, "📈 Total devices found: %d\n\n", len(hosts))
}

func orDash(v fmt.Stringer) string {
	s := v.String()
	if s == "" || strings.HasPrefix(s, "<nil>") {
		return "-"
	}
	return s
}
