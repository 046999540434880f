package socket

import (
	"fmt"
	"net"
	"strconv"

	"netsyncstat/pkg/packet"
)

const network = "udp4"

// Resolve looks up host once and returns its first IPv4 address with port.
func Resolve(host string, port int) (*net.UDPAddr, error) {
	addr, err := net.ResolveUDPAddr(network, net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("net.ResolveUDPAddr: %w", err)
	}
	return addr, nil
}

func Dial(addr *net.UDPAddr) (*net.UDPConn, error) {
	conn, err := net.DialUDP(network, nil, addr)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return conn, nil
}

// Listen binds a datagram socket on all IPv4 interfaces.
func Listen(port int) (*net.UDPConn, error) {
	conn, err := net.ListenUDP(network, &net.UDPAddr{IP: net.IPv4zero, Port: port})
	if err != nil {
		return nil, fmt.Errorf("bind: %w", err)
	}
	return conn, nil
}

// EnableTimestamping turns on kernel RX software timestamps for conn.
func EnableTimestamping(conn *net.UDPConn) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return fmt.Errorf("syscall conn: %w", err)
	}
	var sockErr error
	if err = raw.Control(func(fd uintptr) {
		sockErr = packet.EnableTimestamping(int(fd))
	}); err != nil {
		return fmt.Errorf("control: %w", err)
	}
	return sockErr
}

func AddrToString(addr net.Addr) string {
	if addr == nil {
		return "<nil>"
	}
	return addr.String()
}
