package spoof

import (
	"errors"
	"net"
	"testing"

	"github.com/google/gopacket/layers"
	"github.com/prabalesh/arpgate/internal/networking"
	"github.com/prabalesh/arpgate/internal/networking/arp"
)

type frameLog struct {
	frames [][]byte
	failAt int
}

func (f *frameLog) WritePacketData(data []byte) error {
	f.frames = append(f.frames, append([]byte(nil), data...))
	if f.failAt > 0 && len(f.frames) == f.failAt {
		return errors.New("network is down")
	}
	return nil
}

type decoded struct {
	ethDst    string
	op        uint16
	senderIP  string
	senderMAC string
	targetIP  string
	targetMAC string
}

func (f *frameLog) decode(t *testing.T) []decoded {
	t.Helper()
	var out []decoded
	for _, frame := range f.frames {
		eth, a, err := arp.Decode(frame)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, decoded{
			ethDst:    eth.DstMAC.String(),
			op:        a.Operation,
			senderIP:  net.IP(a.SourceProtAddress).String(),
			senderMAC: net.HardwareAddr(a.SourceHwAddress).String(),
			targetIP:  net.IP(a.DstProtAddress).String(),
			targetMAC: net.HardwareAddr(a.DstHwAddress).String(),
		})
	}
	return out
}

func mustMAC(s string) net.HardwareAddr {
	mac, err := net.ParseMAC(s)
	if err != nil {
		panic(err)
	}
	return mac
}

func testContext() networking.InterfaceContext {
	return networking.InterfaceContext{
		Iface:      &net.Interface{Name: "eth0", Index: 2},
		OwnMAC:     mustMAC("cc:cc:cc:cc:cc:cc"),
		GatewayIP:  net.ParseIP("10.0.0.1").To4(),
		GatewayMAC: mustMAC("aa:aa:aa:aa:aa:aa"),
	}
}

func newController(fl *frameLog, restore int) *Controller {
	ifc := testContext()
	tr := arp.NewTransport(fl, ifc.OwnMAC)
	tr.SetRepeatGap(0)
	return NewController(tr, ifc, restore)
}

var victim = Target{IP: net.ParseIP("10.0.0.20"), MAC: mustMAC("bb:bb:bb:bb:bb:bb")}

func TestPoison(t *testing.T) {
	fl := &frameLog{}
	c := newController(fl, 4)

	if err := c.Poison(victim); err != nil {
		t.Fatal(err)
	}

	got := fl.decode(t)
	want := []decoded{
		{"bb:bb:bb:bb:bb:bb", layers.ARPReply, "10.0.0.1", "cc:cc:cc:cc:cc:cc", "10.0.0.20", "bb:bb:bb:bb:bb:bb"},
		{"aa:aa:aa:aa:aa:aa", layers.ARPReply, "10.0.0.20", "cc:cc:cc:cc:cc:cc", "10.0.0.1", "aa:aa:aa:aa:aa:aa"},
	}
	if len(got) != len(want) {
		t.Fatalf("sent %d frames, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRestore(t *testing.T) {
	fl := &frameLog{}
	c := newController(fl, 3)

	if err := c.Restore(victim); err != nil {
		t.Fatal(err)
	}

	got := fl.decode(t)
	if len(got) != 6 {
		t.Fatalf("sent %d frames, want 2 replies x 3", len(got))
	}
	toVictim := decoded{"bb:bb:bb:bb:bb:bb", layers.ARPReply, "10.0.0.1", "aa:aa:aa:aa:aa:aa", "10.0.0.20", "bb:bb:bb:bb:bb:bb"}
	toGateway := decoded{"aa:aa:aa:aa:aa:aa", layers.ARPReply, "10.0.0.20", "bb:bb:bb:bb:bb:bb", "10.0.0.1", "aa:aa:aa:aa:aa:aa"}
	for i := 0; i < 3; i++ {
		if got[i] != toVictim {
			t.Errorf("frame %d = %+v, want %+v", i, got[i], toVictim)
		}
		if got[3+i] != toGateway {
			t.Errorf("frame %d = %+v, want %+v", 3+i, got[3+i], toGateway)
		}
	}
}

func TestPoisonSecondFrameSurvivesFirstFailure(t *testing.T) {
	fl := &frameLog{failAt: 1}
	c := newController(fl, 4)

	err := c.Poison(victim)
	if err == nil {
		t.Fatal("expected error from failed first frame")
	}
	var sendErr *arp.FrameSendError
	if !errors.As(err, &sendErr) {
		t.Errorf("error %v does not carry a *FrameSendError", err)
	}
	if len(fl.frames) != 2 {
		t.Errorf("attempted %d frames, want 2", len(fl.frames))
	}
}

func TestDefaultRestoreCount(t *testing.T) {
	c := newController(&frameLog{}, 0)
	if c.RestoreCount() != DefaultRestoreCount {
		t.Errorf("RestoreCount = %d", c.RestoreCount())
	}
}
