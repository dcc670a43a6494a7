package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/prabalesh/arpgate/internal/networking"
	"github.com/prabalesh/arpgate/internal/registry"
	"github.com/prabalesh/arpgate/internal/scanner"
)

type call struct {
	op      string
	address string
	kind    registry.AddressType
}

type fakeEngine struct {
	calls      []call
	devices    []registry.Device
	hosts      []scanner.Host
	reconciled int
	scanErr    error
}

func (f *fakeEngine) AddDevice(address string, kind registry.AddressType) bool {
	f.calls = append(f.calls, call{"add", address, kind})
	return address != "10.0.0.1"
}

func (f *fakeEngine) RemoveDevice(address string, kind registry.AddressType) bool {
	f.calls = append(f.calls, call{"remove", address, kind})
	return address == "10.0.0.20"
}

func (f *fakeEngine) Reconcile(context.Context) error {
	f.reconciled++
	return f.scanErr
}

func (f *fakeEngine) Devices() []registry.Device { return f.devices }
func (f *fakeEngine) Hosts() []scanner.Host      { return f.hosts }

func (f *fakeEngine) Context() networking.InterfaceContext {
	return networking.InterfaceContext{Iface: &net.Interface{Name: "eth0"}}
}

func run(t *testing.T, f *fakeEngine, input string) string {
	t.Helper()
	var out bytes.Buffer
	NewShell(f, strings.NewReader(input), &out).Start(context.Background())
	return out.String()
}

func TestBlockAndUnblock(t *testing.T) {
	f := &fakeEngine{}
	out := run(t, f, "block 10.0.0.20 BB:BB:BB:BB:BB:BB\nblock 10.0.0.1\nunblock 10.0.0.20\nunblock 10.0.0.99\nquit\n")

	want := []call{
		{"add", "10.0.0.20", registry.ByIP},
		{"add", "BB:BB:BB:BB:BB:BB", registry.ByMAC},
		{"add", "10.0.0.1", registry.ByIP},
		{"remove", "10.0.0.20", registry.ByIP},
		{"remove", "10.0.0.99", registry.ByIP},
	}
	if len(f.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", f.calls, want)
	}
	for i := range want {
		if f.calls[i] != want[i] {
			t.Errorf("call %d = %v, want %v", i, f.calls[i], want[i])
		}
	}

	for _, s := range []string{
		"Blocking 10.0.0.20",
		"Could not block 10.0.0.1",
		"Unblocked 10.0.0.20",
		"10.0.0.99 is not blocked",
		"Shutting down",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("output lacks %q", s)
		}
	}
}

func TestInvalidInput(t *testing.T) {
	f := &fakeEngine{}
	out := run(t, f, "block\nblock not-an-address\nfrobnicate\n")

	if len(f.calls) != 0 {
		t.Errorf("engine called with invalid input: %v", f.calls)
	}
	for _, s := range []string{"Usage: block", "Invalid address 'not-an-address'", "Unknown command: 'frobnicate'"} {
		if !strings.Contains(out, s) {
			t.Errorf("output lacks %q", s)
		}
	}
}

func TestListAndHosts(t *testing.T) {
	f := &fakeEngine{
		devices: []registry.Device{
			{Anchor: "10.0.0.20", Kind: registry.ByIP, IP: net.ParseIP("10.0.0.20"), MAC: net.HardwareAddr{0xbb, 0xbb, 0xbb, 0xbb, 0xbb, 0xbb}, State: registry.Active, Since: time.Now()},
			{Anchor: "dd:dd:dd:dd:dd:dd", Kind: registry.ByMAC, MAC: net.HardwareAddr{0xdd, 0xdd, 0xdd, 0xdd, 0xdd, 0xdd}, State: registry.Pending, Since: time.Now()},
		},
		hosts: []scanner.Host{
			{IP: net.ParseIP("10.0.0.20"), MAC: net.HardwareAddr{0xbb, 0xbb, 0xbb, 0xbb, 0xbb, 0xbb}},
		},
	}
	out := run(t, f, "list\nhosts\n")

	for _, s := range []string{"Blocked Devices", "dd:dd:dd:dd:dd:dd", "pending", "active", "Total devices: 2", "Total devices found: 1"} {
		if !strings.Contains(out, s) {
			t.Errorf("output lacks %q", s)
		}
	}
}

func TestScan(t *testing.T) {
	f := &fakeEngine{}
	out := run(t, f, "scan\n")
	if f.reconciled != 1 || !strings.Contains(out, "Scan completed") {
		t.Errorf("reconciled %d times, output %q", f.reconciled, out)
	}

	f = &fakeEngine{scanErr: errors.New("no route")}
	out = run(t, f, "scan\n")
	if !strings.Contains(out, "Scan failed: no route") {
		t.Errorf("output %q lacks the scan error", out)
	}
}

func TestStartReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, w := io.Pipe()
	defer w.Close()

	done := make(chan struct{})
	go func() {
		NewShell(&fakeEngine{}, r, &bytes.Buffer{}).Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
