package packet

import (
	"errors"
	"fmt"
	"strconv"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Timestamp is a wall-clock time since the epoch as carried on the wire.
// Nsec is expected in [0, 1e9) but is not checked.
type Timestamp struct {
	Sec  uint64
	Nsec uint64
}

func FromTime(t time.Time) Timestamp {
	return Timestamp{Sec: uint64(t.Unix()), Nsec: uint64(t.Nanosecond())}
}

// Nanos returns the timestamp in nanoseconds since the epoch, wrapping on overflow.
func (t Timestamp) Nanos() uint64 {
	return t.Sec*1e9 + t.Nsec
}

// Diff returns local - remote in nanoseconds. The subtraction wraps, so the
// result is exact whenever the true difference fits in an int64.
func Diff(local, remote Timestamp) int64 {
	return int64(local.Nanos() - remote.Nanos())
}

var (
	ErrMalformed                    = errors.New("malformed timestamp payload")
	ErrPayloadTooLarge              = errors.New("payload exceeds maximum size")
	ErrTimestampNotFound            = errors.New("no timestamp found in control data")
	ErrScmTimestampingNotEnoughData = errors.New("not enough data received for ScmTimestamping")
)

const (
	MaxPayloadSize = 199 // fits the 200 byte receive buffer of older peers, including their terminator
	ctlBufSize     = 256 // 64 bytes are enough for a single ScmTimestamping structure plus Cmsghdr (on x86_64)
)

// Payload is a receive buffer for exactly one wire sample.
type Payload [MaxPayloadSize]byte

func AppendTimestamp(dst []byte, ts Timestamp) []byte {
	dst = strconv.AppendUint(dst, ts.Sec, 10)
	dst = append(dst, ' ')
	return strconv.AppendUint(dst, ts.Nsec, 10)
}

func Encode(ts Timestamp) []byte {
	return AppendTimestamp(make([]byte, 0, 41), ts)
}

// Decode parses "<sec> <nsec>" from the start of buf. Bytes after the second
// integer are ignored.
func Decode(buf []byte) (Timestamp, error) {
	if len(buf) > MaxPayloadSize {
		return Timestamp{}, fmt.Errorf("%w: %d > %d bytes", ErrPayloadTooLarge, len(buf), MaxPayloadSize)
	}
	sec, rest, err := parseUint(buf)
	if err != nil {
		return Timestamp{}, fmt.Errorf("seconds: %w", err)
	}
	if len(rest) == 0 || !isSpace(rest[0]) {
		return Timestamp{}, fmt.Errorf("%w: missing separator", ErrMalformed)
	}
	nsec, _, err := parseUint(rest)
	if err != nil {
		return Timestamp{}, fmt.Errorf("nanoseconds: %w", err)
	}
	return Timestamp{Sec: sec, Nsec: nsec}, nil
}

func parseUint(buf []byte) (uint64, []byte, error) {
	i := 0
	for i < len(buf) && isSpace(buf[i]) {
		i++
	}
	start := i
	for i < len(buf) && buf[i] >= '0' && buf[i] <= '9' {
		i++
	}
	if i == start {
		return 0, nil, fmt.Errorf("%w: expected digits at offset %d", ErrMalformed, start)
	}
	v, err := strconv.ParseUint(string(buf[start:i]), 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return v, buf[i:], nil
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func EnableTimestamping(fd int) error {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_TIMESTAMPING,
		unix.SOF_TIMESTAMPING_RX_SOFTWARE|
			unix.SOF_TIMESTAMPING_SOFTWARE,
	); err != nil {
		return fmt.Errorf("setsockopt: %w", err)
	}
	return nil
}

func decodeTimestamp(buf []byte) (time.Time, error) {
	for len(buf) > 0 {
		hdr, data, remainder, err := unix.ParseOneSocketControlMessage(buf)
		if err != nil {
			return time.Time{}, fmt.Errorf("unix.ParseOneSocketControlMessage: %w", err)
		}

		switch hdr.Level {
		case unix.SOL_SOCKET:
			switch hdr.Type {
			case unix.SCM_TIMESTAMPING:
				if uintptr(len(data)) < unsafe.Sizeof(unix.ScmTimestamping{}) {
					return time.Time{}, ErrScmTimestampingNotEnoughData
				}
				scmTs := (*unix.ScmTimestamping)(unsafe.Pointer(unsafe.SliceData(data)))
				return time.Unix(scmTs.Ts[0].Unix()), nil
			}
		}

		buf = remainder
	}
	return time.Time{}, ErrTimestampNotFound
}
