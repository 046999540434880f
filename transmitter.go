package main

import (
	"context"
	"fmt"

	"netsyncstat/pkg/packet"
	"netsyncstat/pkg/socket"
)

// Transmit sends conf.Count timestamps to conf.Host, pausing conf.Interval
// after each one. Nothing is sent when the host does not resolve.
func Transmit(ctx context.Context, conf Config, rt Runtime) error {
	addr, err := socket.Resolve(conf.Host, conf.Port)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", conf.Host, err)
	}

	conn, err := socket.Dial(addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	rt.Log.Infof("sending %d timestamps to %s every %v", conf.Count, addr, conf.Interval)

	send := packet.NewSender(conn)
	for i := range conf.Count {
		n, err := send(packet.FromTime(rt.Clock.Now()))
		if err != nil {
			return fmt.Errorf("datagram %d of %d: %w", i+1, conf.Count, err)
		}
		fmt.Fprintf(rt.Stdout, "message sent %d bytes\n", n)

		select {
		case <-rt.Clock.After(conf.Interval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
