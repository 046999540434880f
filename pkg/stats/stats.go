package stats

import (
	"math"
	"math/big"

	"github.com/ddirect/container/fifo"
	"golang.org/x/exp/constraints"
)

// Stats accumulates integer samples and reports their mean and population
// standard deviation. Sums are kept exactly so the result does not depend on
// the magnitude of the samples.
type Stats[T constraints.Signed] struct {
	sum     big.Int
	sum2    big.Int
	t1      big.Int
	t2      big.Int
	t3      big.Int
	r       big.Rat
	samples fifo.Fifo[T]
}

func New[T constraints.Signed]() *Stats[T] {
	return &Stats[T]{}
}

func (s *Stats[T]) SampleIn(x T) {
	t := s.t1.SetInt64(int64(x))
	s.sum.Add(&s.sum, t)
	s.sum2.Add(&s.sum2, t.Mul(t, t))
	s.samples.Enqueue(x)
}

func (s *Stats[T]) SampleCount() int {
	return s.samples.Len()
}

// Samples returns the collected samples in arrival order.
func (s *Stats[T]) Samples() []T {
	n := s.samples.Len()
	res := make([]T, 0, n)
	for range n {
		x, _ := s.samples.Dequeue()
		res = append(res, x)
		s.samples.Enqueue(x)
	}
	return res
}

func (s *Stats[T]) Mean() float64 {
	n := s.SampleCount()
	if n < 1 {
		return 0
	}
	res, _ := s.r.SetFrac(&s.sum, s.t1.SetInt64(int64(n))).Float64()
	return res
}

// Variance is the population variance, sum((x-mean)^2)/n.
func (s *Stats[T]) Variance() float64 {
	n := int64(s.SampleCount())
	if n < 1 {
		return 0
	}
	// (n*sum2 - sum*sum) / (n*n)
	t1 := &s.t1
	t2 := &s.t2
	t3 := &s.t3

	t1.SetInt64(n)                                      // t1 = n
	t2.Sub(t2.Mul(t1, &s.sum2), t3.Mul(&s.sum, &s.sum)) // t2 = n*sum2 - (sum*sum)
	t3.Mul(t1, t1)                                      // t3 = n*n

	res, _ := s.r.SetFrac(t2, t3).Float64()
	return res
}

// StdDev is the population standard deviation (divisor n, not n-1).
func (s *Stats[T]) StdDev() float64 {
	return math.Sqrt(s.Variance())
}
