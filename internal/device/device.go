// Package device picks the vector kernels used for parameter updates.
package device

import (
	"github.com/klauspost/cpuid/v2"
	"github.com/viterin/vek"
	"gonum.org/v1/gonum/floats"
)

// Backend is the set of vector operations the model and optimizers need.
type Backend interface {
	Name() string
	Dot(a, b []float64) float64
	// AddScaled performs dst += alpha * s.
	AddScaled(dst []float64, alpha float64, s []float64)
	Scale(dst []float64, alpha float64)
}

// Select returns the SIMD backend when acceleration is requested and the CPU
// supports it, and the host backend otherwise.
func Select(accelerate bool) Backend {
	if accelerate && SIMDSupported() {
		return &SIMD{}
	}
	return Host{}
}

// SIMDSupported reports whether the CPU has the AVX2 and FMA units vek uses.
func SIMDSupported() bool {
	return cpuid.CPU.Supports(cpuid.AVX2, cpuid.FMA3)
}

// CPU returns the brand name of the processor for run logs.
func CPU() string {
	return cpuid.CPU.BrandName
}

// Host runs on gonum's portable kernels.
type Host struct{}

func (Host) Name() string { return "host" }

func (Host) Dot(a, b []float64) float64 { return floats.Dot(a, b) }

func (Host) AddScaled(dst []float64, alpha float64, s []float64) { floats.AddScaled(dst, alpha, s) }

func (Host) Scale(dst []float64, alpha float64) { floats.Scale(alpha, dst) }

// SIMD runs on vek's vectorized kernels. It keeps a scratch buffer and is not
// safe for concurrent use.
type SIMD struct {
	scratch []float64
}

func (*SIMD) Name() string { return "simd" }

func (*SIMD) Dot(a, b []float64) float64 { return vek.Dot(a, b) }

func (s *SIMD) AddScaled(dst []float64, alpha float64, src []float64) {
	if cap(s.scratch) < len(src) {
		s.scratch = make([]float64, len(src))
	}
	buf := s.scratch[:len(src)]
	copy(buf, src)
	vek.MulNumber_Inplace(buf, alpha)
	vek.Add_Inplace(dst, buf)
}

func (*SIMD) Scale(dst []float64, alpha float64) { vek.MulNumber_Inplace(dst, alpha) }
