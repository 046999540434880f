// Package report formats the results of a listener run: the parseable
// summary, the raw sample file and a distribution overview.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SummaryDelimiter precedes the mean and standard deviation lines.
const SummaryDelimiter = "##"

func WriteSummary(w io.Writer, mean, stdDev float64) error {
	_, err := fmt.Fprintf(w, "%s\n%f\n%f\n", SummaryDelimiter, mean, stdDev)
	return err
}

// WriteSamples writes one decimal value per line, in the given order.
func WriteSamples(w io.Writer, samples []int64) error {
	bw := bufio.NewWriter(w)
	var buf []byte
	for _, s := range samples {
		buf = strconv.AppendInt(buf[:0], s, 10)
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// OpenOutput creates the raw sample file. An empty path, or a path that
// cannot be created, yields a writer that discards everything; in the latter
// case the creation error is returned alongside it.
func OpenOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{io.Discard}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nopCloser{io.Discard}, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}

type Distribution struct {
	N      int
	Min    float64
	Median float64
	P95    float64
	Max    float64
}

func (d Distribution) String() string {
	return fmt.Sprintf("n=%d min=%.0f median=%.0f p95=%.0f max=%.0f", d.N, d.Min, d.Median, d.P95, d.Max)
}

func Distribute(samples []int64) Distribution {
	if len(samples) == 0 {
		return Distribution{}
	}
	xs := make([]float64, len(samples))
	for i, s := range samples {
		xs[i] = float64(s)
	}
	slices.Sort(xs)
	return Distribution{
		N:      len(xs),
		Min:    floats.Min(xs),
		Median: stat.Quantile(0.5, stat.Empirical, xs, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, xs, nil),
		Max:    floats.Max(xs),
	}
}
