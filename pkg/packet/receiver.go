package packet

import (
	"bytes"
	"fmt"
	"net"
	"time"

	"golang.org/x/sys/unix"

	"netsyncstat/pkg/clock"
)

type Conn interface {
	ReadMsgUDP(b, oob []byte) (n, oobn, flags int, addr *net.UDPAddr, err error)
}

type RecvPacket struct {
	Data    Timestamp
	Payload []byte
	Ts      time.Time // local receipt time
	From    *net.UDPAddr
	Error   error
}

// Received reports whether a datagram was read, even if it failed to decode.
func (p *RecvPacket) Received() bool {
	return p.From != nil
}

// NewReceiver returns a function blocking for one datagram per call. The
// receipt time comes from the kernel when SO_TIMESTAMPING is enabled on the
// socket and from clk otherwise.
func NewReceiver(conn Conn, clk clock.Clock) func() RecvPacket {
	var buf Payload
	ctlBuf := make([]byte, ctlBufSize)

	return func() RecvPacket {
		n, ctlN, flags, from, err := conn.ReadMsgUDP(buf[:], ctlBuf)
		now := clk.Now()
		if err != nil {
			return RecvPacket{Error: fmt.Errorf("recvmsg: %w", err)}
		}

		if ctlN > 0 {
			if kts, err := decodeTimestamp(ctlBuf[:ctlN]); err == nil {
				now = kts
			}
		}

		pkt := RecvPacket{
			Payload: bytes.Clone(buf[:n]),
			Ts:      now,
			From:    from,
		}
		if flags&unix.MSG_TRUNC != 0 {
			pkt.Error = fmt.Errorf("%w: truncated at %d bytes", ErrPayloadTooLarge, n)
			return pkt
		}
		pkt.Data, pkt.Error = Decode(pkt.Payload)
		return pkt
	}
}

// NewAsyncReceiver runs recv in a goroutine and delivers its results on the
// returned channel. The goroutine exits after the first socket error or once
// done is closed; the channel is closed when it does.
func NewAsyncReceiver(recv func() RecvPacket, chDepth int, done <-chan struct{}) <-chan RecvPacket {
	ch := make(chan RecvPacket, chDepth)
	go func() {
		defer close(ch)
		for {
			pkt := recv()
			select {
			case ch <- pkt:
			case <-done:
				return
			}
			if !pkt.Received() {
				return
			}
		}
	}()
	return ch
}
