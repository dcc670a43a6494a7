package shell

import "fmt"

var commands = map[string]string{
	"block":   "Block an IP or MAC address from the gateway",
	"unblock": "Unblock an address and restore its ARP caches",
	"list":    "Display blocked and pending devices",
	"hosts":   "Display hosts seen by the last sweep",
	"scan":    "Sweep the subnet now and activate pending devices",
	"help":    "Show available commands",
	"quit":    "Restore every device and exit",
	"exit":    "Restore every device and exit",
	"clear":   "Clear the terminal screen",
}

func (s *ShellSession) HandleHelp() {
	fmt.Fprintln(s.out, `
══════════════════════════════════════════════════════════════
                        🔥 ARPGATE COMMANDS 🔥
══════════════════════════════════════════════════════════════`)

	commandOrder := []string{"block", "unblock", "list", "hosts", "scan", "clear", "help", "quit"}

	for _, cmd := range commandOrder {
		if desc, exists := commands[cmd]; exists {
			fmt.Fprintf(s.out, "║  %-8s │ %-48s ║\n", cmd, desc)
		}
	}

	fmt.Fprintln(s.out, `══════════════════════════════════════════════════════════════`)
	fmt.Fprintln(s.out)
}
