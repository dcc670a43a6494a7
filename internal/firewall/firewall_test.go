package firewall

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

type recorder struct {
	commands []string
	fail     func(cmd string) bool
}

func (r *recorder) run(name string, args ...string) error {
	cmd := name + " " + strings.Join(args, " ")
	r.commands = append(r.commands, cmd)
	if r.fail != nil && r.fail(cmd) {
		return errors.New("exit status 1")
	}
	return nil
}

func TestBlockUnblock(t *testing.T) {
	rec := &recorder{}
	fw := NewWithRunner(rec.run)
	ip := net.ParseIP("10.0.0.20")

	if err := fw.Block(ip); err != nil {
		t.Fatal(err)
	}
	if err := fw.Block(ip); err != nil {
		t.Fatal(err)
	}
	if err := fw.Unblock(ip); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"iptables -t filter -A FORWARD -s 10.0.0.20 -j DROP",
		"iptables -t filter -A FORWARD -d 10.0.0.20 -j DROP",
		"iptables -t filter -D FORWARD -s 10.0.0.20 -j DROP",
		"iptables -t filter -D FORWARD -d 10.0.0.20 -j DROP",
	}
	if !reflect.DeepEqual(rec.commands, want) {
		t.Errorf("commands =\n%s\nwant\n%s", strings.Join(rec.commands, "\n"), strings.Join(want, "\n"))
	}
	if len(fw.Blocked()) != 0 {
		t.Errorf("Blocked = %v", fw.Blocked())
	}
}

func TestBlockPartialFailure(t *testing.T) {
	rec := &recorder{fail: func(cmd string) bool { return strings.Contains(cmd, "-A FORWARD -d") }}
	fw := NewWithRunner(rec.run)
	ip := net.ParseIP("10.0.0.20")

	if err := fw.Block(ip); err == nil {
		t.Fatal("expected error")
	}
	if got := fw.Blocked(); len(got) != 1 {
		t.Fatalf("Blocked = %v, want the half-installed host", got)
	}

	rec.commands = nil
	if err := fw.Unblock(ip); err != nil {
		t.Fatal(err)
	}
	want := []string{"iptables -t filter -D FORWARD -s 10.0.0.20 -j DROP"}
	if !reflect.DeepEqual(rec.commands, want) {
		t.Errorf("unblock ran %v, want only the installed rule removed", rec.commands)
	}
}

func TestFlush(t *testing.T) {
	rec := &recorder{}
	fw := NewWithRunner(rec.run)
	for _, s := range []string{"10.0.0.30", "10.0.0.20"} {
		if err := fw.Block(net.ParseIP(s)); err != nil {
			t.Fatal(err)
		}
	}
	rec.commands = nil

	if err := fw.Flush(); err != nil {
		t.Fatal(err)
	}
	if len(rec.commands) != 4 {
		t.Errorf("flush ran %d commands, want 4", len(rec.commands))
	}
	if !strings.Contains(rec.commands[0], "10.0.0.20") {
		t.Errorf("flush order: %v", rec.commands)
	}
	if len(fw.Blocked()) != 0 {
		t.Errorf("Blocked = %v after flush", fw.Blocked())
	}
}

func TestForwarding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ip_forward")
	if err := os.WriteFile(path, []byte("1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	f := NewForwardingAt(path)

	on, err := f.Enabled()
	if err != nil || !on {
		t.Fatalf("Enabled = %v, %v", on, err)
	}
	if err := f.Set(false); err != nil {
		t.Fatal(err)
	}
	on, err = f.Enabled()
	if err != nil || on {
		t.Fatalf("Enabled after Set(false) = %v, %v", on, err)
	}
}

func TestForwardingMissingFile(t *testing.T) {
	f := NewForwardingAt(filepath.Join(t.TempDir(), "missing"))
	if _, err := f.Enabled(); err == nil {
		t.Error("expected error reading missing file")
	}
}
