package packet

import (
	"fmt"
	"io"
)

// NewSender returns a function writing one wire sample per call to w, which
// is expected to be a connected datagram socket. The encode buffer is reused
// across calls.
func NewSender(w io.Writer) func(Timestamp) (int, error) {
	var tBuf []byte

	return func(ts Timestamp) (int, error) {
		tBuf = AppendTimestamp(tBuf[:0], ts)
		n, err := w.Write(tBuf)
		if err != nil {
			return n, fmt.Errorf("sendto: %w", err)
		}
		return n, nil
	}
}
