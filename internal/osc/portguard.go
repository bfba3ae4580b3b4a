package osc

import (
	"fmt"
	"net"
)

// PortGuard guarantees the local listen address is usable before the gateway
// binds it. Reclaiming a busy port from another process is deployment-specific
// and lives behind this interface; the bridge only requires the precondition.
type PortGuard interface {
	EnsureFree(addr string) error
}

// ProbeGuard is the default guard: it verifies the address by binding and
// immediately releasing it. It cannot evict another process.
type ProbeGuard struct{}

func (ProbeGuard) EnsureFree(addr string) error {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return fmt.Errorf("port %s is not free: %w", addr, err)
	}
	return conn.Close()
}
