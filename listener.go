package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/ddirect/container/ttlmap"

	"netsyncstat/pkg/packet"
	"netsyncstat/pkg/socket"
	"netsyncstat/pkg/stats"
)

const senderTTL = time.Minute

var (
	ErrReceiveTimeout  = errors.New("timed out waiting for a datagram")
	errReceiverStopped = errors.New("receiver stopped")
)

// Listen binds conf.Port on all IPv4 interfaces and serves one run on it.
func Listen(ctx context.Context, conf Config, rt Runtime) error {
	conn, err := socket.Listen(conf.Port)
	if err != nil {
		return err
	}
	return Serve(ctx, conn, conf, rt)
}

// Serve collects up to conf.Count samples from conn, closes it, and reports
// whatever was collected. A receive error is returned after the report.
func Serve(ctx context.Context, conn *net.UDPConn, conf Config, rt Runtime) error {
	diffs, recvErr := collect(ctx, conn, conf, rt)
	if recvErr != nil {
		rt.Log.Errorf("reception aborted after %d of %d samples: %v", diffs.SampleCount(), conf.Count, recvErr)
	}
	return errors.Join(recvErr, finalize(conf, rt, diffs))
}

func collect(ctx context.Context, conn *net.UDPConn, conf Config, rt Runtime) (*stats.Stats[int64], error) {
	defer conn.Close()

	diffs := stats.New[int64]()

	if conf.KernelTimestamps {
		if err := socket.EnableTimestamping(conn); err != nil {
			rt.Log.Warnf("kernel timestamps unavailable, using the system clock: %v", err)
		}
	}

	rt.Log.Infof("listening on %s for %d samples", socket.AddrToString(conn.LocalAddr()), conf.Count)

	progress := newProgress(conf.Mode, rt.Stdout)
	senders, expired := ttlmap.New[string, int](senderTTL, time.Second)

	done := make(chan struct{})
	defer close(done)
	recvCh := packet.NewAsyncReceiver(packet.NewReceiver(conn, rt.Clock), 16, done)

	var (
		timer   *time.Timer
		timeout <-chan time.Time // nil waits forever
	)
	if conf.Timeout > 0 {
		timer = time.NewTimer(conf.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	for diffs.SampleCount() < conf.Count {
		select {
		case <-ctx.Done():
			return diffs, ctx.Err()

		case <-timeout:
			return diffs, fmt.Errorf("%w (%v)", ErrReceiveTimeout, conf.Timeout)

		case peers := <-expired:
			for peer := range peers {
				rt.Log.Debugf("sender %s expired", peer.Key())
			}

		case pkt, ok := <-recvCh:
			if !ok {
				return diffs, errReceiverStopped
			}
			if !pkt.Received() {
				return diffs, pkt.Error
			}
			if timer != nil {
				timer.Reset(conf.Timeout)
			}

			sender, found := senders.GetOrCreate(socket.AddrToString(pkt.From))
			if !found {
				rt.Log.Infof("new sender %s", sender.Key())
			}
			sender.Value++

			if pkt.Error != nil {
				rt.Log.Warnf("skipping datagram %d from %s: %v", sender.Value, sender.Key(), pkt.Error)
				continue
			}

			diff := packet.Diff(packet.FromTime(pkt.Ts), pkt.Data)
			diffs.SampleIn(diff)
			progress(&pkt, diff, diffs)
		}
	}
	return diffs, nil
}
