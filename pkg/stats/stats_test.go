package stats_test

import (
	"encoding/binary"
	"math"
	"math/big"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"netsyncstat/pkg/stats"
)

func core(t *testing.T, offset int64, samples []byte) {
	const maxSamples = 1e6
	n := int64(len(samples))

	if n < 1 || n > maxSamples {
		return
	}

	s := stats.New[int64]()

	tr := new(big.Rat)
	ti := new(big.Int)

	sum := new(big.Int)
	for _, b := range samples {
		sample := int64(b) + offset
		sum.Add(sum, ti.SetInt64(sample))
		s.SampleIn(sample)
	}

	avg := new(big.Rat)
	avg.SetFrac(sum, ti.SetInt64(n))

	sumSqDev := new(big.Rat)
	for _, b := range samples {
		sample := int64(b) + offset
		sumSqDev.Add(sumSqDev, tr.SetInt64(sample).Sub(tr, avg).Mul(tr, tr))
	}
	tr.Quo(sumSqDev, tr.SetInt64(n))
	variance, _ := tr.Float64()
	mean, _ := avg.Float64()

	assert.Equal(t, mean, s.Mean())
	assert.Equal(t, math.Sqrt(variance), s.StdDev())
	assert.Equal(t, int(n), s.SampleCount())
}

func Fuzz_Core(f *testing.F) {
	for _, i := range []int64{-255, -127, 0, 127, 1e9, -1e12} {
		buf := make([]byte, 4)
		binary.NativeEndian.PutUint32(buf, rand.Uint32())
		f.Add(i, buf)
	}
	f.Fuzz(core)
}

func TestPopulationFormula(t *testing.T) {
	s := stats.New[int64]()
	for _, x := range []int64{100, 200, 300} {
		s.SampleIn(x)
	}
	assert.InDelta(t, 200.0, s.Mean(), 1e-6)
	assert.InDelta(t, math.Sqrt(20000.0/3), s.StdDev(), 1e-6)
	assert.InDelta(t, 81.65, s.StdDev(), 0.005)
}

func TestSingleSample(t *testing.T) {
	s := stats.New[int64]()
	s.SampleIn(-123456789)
	assert.Equal(t, -123456789.0, s.Mean())
	assert.Zero(t, s.StdDev())
}

func TestEmpty(t *testing.T) {
	s := stats.New[int64]()
	assert.Zero(t, s.SampleCount())
	assert.Zero(t, s.Mean())
	assert.Zero(t, s.StdDev())
	assert.Empty(t, s.Samples())
}

func TestMatchesGonum(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	s := stats.New[int64]()
	xs := make([]float64, 0, 1000)
	for range 1000 {
		x := int64(r.IntN(2_000_000)) - 1_000_000
		s.SampleIn(x)
		xs = append(xs, float64(x))
	}
	mean, std := stat.PopMeanStdDev(xs, nil)
	assert.InDelta(t, mean, s.Mean(), 1e-6)
	assert.InDelta(t, std, s.StdDev(), 1e-6)
}

// Offsets of a few seconds square to ~1e19 and lose all significant digits
// in a naive float64 sum of squares.
func TestLargeOffsetKeepsPrecision(t *testing.T) {
	const base = int64(3_000_000_000)
	s := stats.New[int64]()
	for _, d := range []int64{-1, 0, 1} {
		s.SampleIn(base + d)
	}
	assert.Equal(t, float64(base), s.Mean())
	assert.InDelta(t, math.Sqrt(2.0/3), s.StdDev(), 1e-12)
}

func TestIdempotent(t *testing.T) {
	s := stats.New[int64]()
	for _, x := range []int64{5, 17, -3, 1_000_000_007} {
		s.SampleIn(x)
	}
	m1, sd1 := s.Mean(), s.StdDev()
	m2, sd2 := s.Mean(), s.StdDev()
	assert.Equal(t, m1, m2)
	assert.Equal(t, sd1, sd2)
}

func TestSamplesKeepOrder(t *testing.T) {
	s := stats.New[int32]()
	in := []int32{3, 1, 2, 1}
	for _, x := range in {
		s.SampleIn(x)
	}
	require.Equal(t, in, s.Samples())
	// reading does not consume
	require.Equal(t, in, s.Samples())
	assert.Equal(t, 4, s.SampleCount())
}
