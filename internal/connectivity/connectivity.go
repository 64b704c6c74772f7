// Package connectivity answers the single boundary question "is this
// device online right now". It is a best-effort probe, not a guarantee.
package connectivity

import (
	"net"
	"time"
)

// Checker reports whether the host currently has network connectivity.
type Checker interface {
	IsOnline() bool
}

// Probe checks connectivity by dialing a well-known address.
type Probe struct {
	// Address to dial, host:port. Defaults to a public DNS resolver.
	Address string
	// Timeout for the dial attempt.
	Timeout time.Duration
}

// NewProbe returns a probe with default address and timeout.
func NewProbe() *Probe {
	return &Probe{
		Address: "1.1.1.1:53",
		Timeout: 2 * time.Second,
	}
}

// IsOnline implements Checker with a TCP dial.
func (p *Probe) IsOnline() bool {
	conn, err := net.DialTimeout("tcp", p.Address, p.Timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
