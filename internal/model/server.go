package model

import (
	"context"
	"net"
)

// SecurityLayer opens listeners, plain or TLS.
type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}

// Server is a network server with an explicit lifecycle.
type Server interface {
	Name() string
	Start(securityLayer SecurityLayer) error
	Stop(ctx context.Context) error
	Address() string
}
