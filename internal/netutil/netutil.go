// Package netutil provides small network helpers for agent registration.
package netutil

import (
	"net"
)

// probeAddr is never actually contacted. Dialing UDP performs no
// handshake; the OS just selects the outbound interface, which is the
// address the orchestrator can reach this agent on.
const probeAddr = "8.8.8.8:80"

// LocalIP returns the IP address of the interface that would route
// toward the public internet. Falls back to the loopback address when
// no route exists (offline lab hosts).
func LocalIP() string {
	conn, err := net.Dial("udp", probeAddr)
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP == nil {
		return "127.0.0.1"
	}
	return addr.IP.String()
}
