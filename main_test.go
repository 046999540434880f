package main

import (
	"bufio"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"netsyncstat/pkg/clock"
	"netsyncstat/pkg/socket"
)

func testRuntime(clk clock.Clock, stdout io.Writer) Runtime {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return Runtime{Clock: clk, Stdout: stdout, Log: log.NewEntry(logger)}
}

// bindLoopback returns a listener socket on an ephemeral port and its port.
func bindLoopback(t *testing.T) (*net.UDPConn, int) {
	t.Helper()
	conn, err := socket.Listen(0)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, conn.LocalAddr().(*net.UDPAddr).Port
}

func readSamples(t *testing.T, path string) []int64 {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var res []int64
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		v, err := strconv.ParseInt(sc.Text(), 10, 64)
		require.NoError(t, err)
		res = append(res, v)
	}
	require.NoError(t, sc.Err())
	return res
}

// parseSummary returns the mean and standard deviation following the "##" line.
func parseSummary(t *testing.T, stdout string) (float64, float64) {
	t.Helper()
	_, after, found := strings.Cut(stdout, "##\n")
	require.True(t, found, "no summary in %q", stdout)
	lines := strings.Split(strings.TrimSpace(after), "\n")
	require.Len(t, lines, 2)
	mean, err := strconv.ParseFloat(lines[0], 64)
	require.NoError(t, err)
	stdDev, err := strconv.ParseFloat(lines[1], 64)
	require.NoError(t, err)
	return mean, stdDev
}
