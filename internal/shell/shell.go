// Package shell is the interactive front end: it reads operator commands
// and turns them into engine calls.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/prabalesh/arpgate/internal/networking"
	"github.com/prabalesh/arpgate/internal/registry"
	"github.com/prabalesh/arpgate/internal/scanner"
	"github.com/prabalesh/arpgate/internal/utils/color"
)

// Controller is the part of the engine the shell drives.
type Controller interface {
	AddDevice(address string, kind registry.AddressType) bool
	RemoveDevice(address string, kind registry.AddressType) bool
	Reconcile(ctx context.Context) error
	Devices() []registry.Device
	Hosts() []scanner.Host
	Context() networking.InterfaceContext
}

type ShellSession struct {
	engine Controller
	reader *bufio.Reader
	out    io.Writer
}

func NewShell(engine Controller, in io.Reader, out io.Writer) *ShellSession {
	return &ShellSession{
		engine: engine,
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// CheckRequirements verifies the host can run the engine. iptables is only
// needed with the firewall enabled.
func CheckRequirements(out io.Writer, firewall bool) error {
	fmt.Fprint(out, "🔍 Checking system requirements...\n\n")

	allPassed := true

	if runtime.GOOS == "linux" {
		fmt.Fprintln(out, color.GreenText("✅ Linux OS detected", false))
	} else {
		fmt.Fprintln(out, color.RedText(fmt.Sprintf("❌ arpgate requires Linux (detected: %s)", runtime.GOOS), false))
		allPassed = false
	}

	if os.Geteuid() == 0 {
		fmt.Fprintln(out, color.GreenText("✅ Running as root", false))
	} else {
		fmt.Fprintln(out, color.RedText("❌ arpgate must be run as root (try with sudo)", false))
		allPassed = false
	}

	if firewall {
		if path, err := exec.LookPath("iptables"); err == nil {
			fmt.Fprintln(out, color.GreenText(fmt.Sprintf("✅ iptables found at %s", path), false))
		} else {
			fmt.Fprintln(out, color.RedText("❌ iptables not found in PATH", false))
			allPassed = false
		}
	}

	fmt.Fprintln(out)

	if !allPassed {
		return fmt.Errorf("one or more requirements are not met")
	}
	return nil
}

// Start runs the command loop until the operator quits, the input ends or
// ctx is done.
func (s *ShellSession) Start(ctx context.Context) {
	s.printWelcome()

	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			input, err := s.reader.ReadString('\n')
			if input = strings.TrimSpace(input); input != "" {
				select {
				case lines <- input:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		s.prompt()

		var (
			input string
			ok    bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out, "\n\n🔴 Interrupted! Restoring devices...")
			return
		case input, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(s.out)
			return
		}

		command, args := s.parseCommand(input)
		if s.shouldExit(command) {
			fmt.Fprintln(s.out, "\n🔴 Shutting down, restoring devices...")
			return
		}

		s.executeCommand(ctx, command, args)
	}
}

func (s *ShellSession) printWelcome() {
	ifc := s.engine.Context()
	fmt.Fprintf(s.out, `
 ╔═══════════════════════════════════════════════════╗
 ║                     arpgate                       ║
 ╚═══════════════════════════════════════════════════╝

 🌐 Interface: %s (%s)
 🚪 Gateway:   %s (%s)

 📝 Type 'help' for commands | Type 'quit' to exit
`, ifc.Name(), ifc.OwnMAC, ifc.GatewayIP, ifc.GatewayMAC)
}

func (s *ShellSession) prompt() {
	fmt.Fprint(s.out, color.BlueText("⚡ arpgate> ", false))
}

func (s *ShellSession) parseCommand(input string) (string, []string) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return "", nil
	}
	return strings.ToLower(parts[0]), parts[1:]
}

func (s *ShellSession) shouldExit(command string) bool {
	return command == "quit" || command == "exit"
}

func (s *ShellSession) executeCommand(ctx context.Context, command string, args []string) {
	switch command {
	case "block":
		s.Block(args)
	case "unblock":
		s.Unblock(args)
	case "list":
		s.DisplayDevices()
	case "hosts":
		s.DisplayHosts()
	case "scan":
		s.RunNetworkScan(ctx)
	case "help":
		s.HandleHelp()
	case "clear":
		fmt.Fprint(s.out, "\033[2J\033[H")
	default:
		fmt.Fprintf(s.out, "❌ Unknown command: '%s'\n", command)
		fmt.Fprintln(s.out, "💡 Type 'help' to see available commands")
	}
}
