package networking

import (
	"errors"
	"fmt"
)

var (
	// ErrRouteNotFound is returned when no routing table entry carries a
	// gateway for the interface.
	ErrRouteNotFound = errors.New("no gateway route for interface")

	// ErrGatewayUnresolved is returned when the gateway does not answer ARP.
	ErrGatewayUnresolved = errors.New("gateway hardware address could not be resolved")
)

// InterfaceError reports an interface that is missing, down or unusable.
type InterfaceError struct {
	Name string
	Err  error
}

func (e *InterfaceError) Error() string {
	return fmt.Sprintf("interface %q: %v", e.Name, e.Err)
}

func (e *InterfaceError) Unwrap() error { return e.Err }
