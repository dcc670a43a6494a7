// Package arp builds ARP frames and puts them on the wire.
package arp

import (
	"errors"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

var errBadAddress = errors.New("arp frame needs IPv4 and Ethernet addresses")

// Reply describes an "is-at" reply: SenderIP is claimed to live at SenderMAC,
// and the claim is delivered to TargetIP/TargetMAC.
type Reply struct {
	TargetIP  net.IP
	TargetMAC net.HardwareAddr
	SenderIP  net.IP
	SenderMAC net.HardwareAddr
}

var serializeOpts = gopacket.SerializeOptions{
	FixLengths:       true,
	ComputeChecksums: true,
}

// BuildReply constructs a complete Ethernet + ARP reply frame. The Ethernet
// source is always frameSrc, whatever hardware address the ARP payload claims.
func BuildReply(frameSrc net.HardwareAddr, r Reply) ([]byte, error) {
	return BuildPacket(frameSrc, r.TargetMAC, r.SenderMAC, r.TargetMAC, r.SenderIP, r.TargetIP, layers.ARPReply)
}

// BuildPacket constructs an Ethernet + ARP frame with an explicit opcode.
func BuildPacket(frameSrc, frameDst, senderMAC, targetMAC net.HardwareAddr, senderIP, targetIP net.IP, opcode uint16) ([]byte, error) {
	senderIP4, targetIP4 := senderIP.To4(), targetIP.To4()
	if senderIP4 == nil || targetIP4 == nil || len(frameSrc) != 6 || len(frameDst) != 6 ||
		len(senderMAC) != 6 || len(targetMAC) != 6 {
		return nil, errBadAddress
	}

	eth := layers.Ethernet{
		SrcMAC:       frameSrc,
		DstMAC:       frameDst,
		EthernetType: layers.EthernetTypeARP,
	}
	arp := layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         opcode,
		SourceHwAddress:   []byte(senderMAC),
		SourceProtAddress: []byte(senderIP4),
		DstHwAddress:      []byte(targetMAC),
		DstProtAddress:    []byte(targetIP4),
	}

	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, serializeOpts, &eth, &arp); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode extracts the ARP layer of a raw Ethernet frame.
func Decode(frame []byte) (*layers.Ethernet, *layers.ARP, error) {
	packet := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Default)
	ethLayer := packet.Layer(layers.LayerTypeEthernet)
	arpLayer := packet.Layer(layers.LayerTypeARP)
	if ethLayer == nil || arpLayer == nil {
		return nil, nil, errors.New("frame carries no ARP payload")
	}
	return ethLayer.(*layers.Ethernet), arpLayer.(*layers.ARP), nil
}
