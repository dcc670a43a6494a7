package arp

import (
	"fmt"
	"net"
	"time"

	"github.com/google/gopacket/pcap"
)

// PacketWriter puts a raw frame on the wire. *pcap.Handle implements it.
type PacketWriter interface {
	WritePacketData(data []byte) error
}

// FrameSendError reports a frame that could not be written.
type FrameSendError struct {
	TargetIP  net.IP
	TargetMAC net.HardwareAddr
	Err       error
}

func (e *FrameSendError) Error() string {
	return fmt.Sprintf("send arp reply to %s (%s): %v", e.TargetIP, e.TargetMAC, e.Err)
}

func (e *FrameSendError) Unwrap() error { return e.Err }

// Transport writes ARP replies on one interface.
type Transport struct {
	w      PacketWriter
	source net.HardwareAddr
	gap    time.Duration
	close  func()
}

// Open opens a pcap handle on iface for sending. The read timeout keeps the
// handle from ever blocking a caller indefinitely.
func Open(iface *net.Interface) (*Transport, error) {
	handle, err := pcap.OpenLive(iface.Name, 128, false, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to open interface %s: %w", iface.Name, err)
	}
	t := NewTransport(handle, iface.HardwareAddr)
	t.close = handle.Close
	return t, nil
}

// NewTransport wraps an existing writer. Frames carry source as Ethernet
// source address.
func NewTransport(w PacketWriter, source net.HardwareAddr) *Transport {
	return &Transport{
		w:      w,
		source: source,
		gap:    20 * time.Millisecond,
	}
}

// SetRepeatGap sets the pause between repeated copies of one frame.
func (t *Transport) SetRepeatGap(d time.Duration) {
	t.gap = d
}

// SendReply writes r repeat times. Every copy is attempted even when an
// earlier one failed; the first failure is returned as a *FrameSendError.
func (t *Transport) SendReply(r Reply, repeat int) error {
	if repeat < 1 {
		repeat = 1
	}

	frame, err := BuildReply(t.source, r)
	if err != nil {
		return &FrameSendError{TargetIP: r.TargetIP, TargetMAC: r.TargetMAC, Err: err}
	}

	var firstErr error
	for i := 0; i < repeat; i++ {
		if i > 0 && t.gap > 0 {
			time.Sleep(t.gap)
		}
		if err := t.w.WritePacketData(frame); err != nil && firstErr == nil {
			firstErr = &FrameSendError{TargetIP: r.TargetIP, TargetMAC: r.TargetMAC, Err: err}
		}
	}
	return firstErr
}

// Close releases the underlying handle, if the transport owns one.
func (t *Transport) Close() {
	if t.close != nil {
		t.close()
		t.close = nil
	}
}
