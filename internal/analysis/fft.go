package analysis

import (
	"math"
	"math/cmplx"
)

func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	if n%2 != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)

	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}

	return result
}

// PowerSpectrum of the longest power-of-two prefix of data.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	fft := FFT(data[:floorPow2(len(data))])
	ps := make([]float64, len(fft)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}

	return ps
}

// floorPow2 returns the largest power of two not above n.
func floorPow2(n int) int {
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}

// DominantPeriod estimates the strongest periodicity of a uniformly sampled
// series. The series is truncated to a power of two and its mean removed;
// the DC bin is ignored. ok is false when fewer than four samples remain or
// the spectrum is flat.
func DominantPeriod(series []float64, interval float64) (period float64, ok bool) {
	if len(series) < 4 || interval <= 0 {
		return 0, false
	}
	n := floorPow2(len(series))

	data := make([]float64, n)
	mean := 0.0
	for _, v := range series[:n] {
		mean += v
	}
	mean /= float64(n)
	for i, v := range series[:n] {
		data[i] = v - mean
	}

	ps := PowerSpectrum(data)
	best := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[best] {
			best = k
		}
	}
	if ps[best] == 0 {
		return 0, false
	}
	return float64(n) * interval / float64(best), true
}
