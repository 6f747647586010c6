package analysis

import (
	"errors"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

var ErrShortSignal = errors.New("analysis: signal too short")

// Spectrum is a one-sided amplitude spectrum. Freqs are in cycles per unit
// of simulated time.
type Spectrum struct {
	Freqs []float64
	Power []float64
}

// PowerSpectrum removes the mean of samples and returns the amplitude of
// each non-negative frequency bin. rate is the number of samples per unit
// time.
func PowerSpectrum(samples []float64, rate float64) (Spectrum, error) {
	n := len(samples)
	if n < 4 || !(rate > 0) {
		return Spectrum{}, ErrShortSignal
	}

	mean := 0.0
	for _, v := range samples {
		mean += v
	}
	mean /= float64(n)

	centered := make([]float64, n)
	for i, v := range samples {
		centered[i] = v - mean
	}

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, centered)

	s := Spectrum{
		Freqs: make([]float64, len(coeff)),
		Power: make([]float64, len(coeff)),
	}
	for i, c := range coeff {
		s.Freqs[i] = fft.Freq(i) * rate
		s.Power[i] = cmplx.Abs(c) / float64(n)
	}
	return s, nil
}

// DominantFrequency returns the frequency of the strongest non-zero bin and
// its amplitude.
func DominantFrequency(samples []float64, rate float64) (float64, float64, error) {
	s, err := PowerSpectrum(samples, rate)
	if err != nil {
		return 0, 0, err
	}
	best := 1
	for i := 2; i < len(s.Power); i++ {
		if s.Power[i] > s.Power[best] {
			best = i
		}
	}
	return s.Freqs[best], s.Power[best], nil
}
