package model

import (
	"math"

	"labelforge/internal/device"
)

// SGD is stochastic gradient descent with optional momentum.
type SGD struct {
	params   []*Param
	lr       float64
	momentum float64
	velocity [][]float64
	backend  device.Backend
}

// NewSGD binds an SGD optimizer to params.
func NewSGD(params []*Param, lr, momentum float64, backend device.Backend) *SGD {
	if backend == nil {
		backend = device.Host{}
	}
	o := &SGD{params: params, lr: lr, momentum: momentum, backend: backend}
	if momentum > 0 {
		o.velocity = make([][]float64, len(params))
		for i, p := range params {
			o.velocity[i] = make([]float64, len(p.Value))
		}
	}
	return o
}

func (o *SGD) Step() {
	for i, p := range o.params {
		if o.momentum <= 0 {
			o.backend.AddScaled(p.Value, -o.lr, p.Grad)
			continue
		}
		v := o.velocity[i]
		o.backend.Scale(v, o.momentum)
		o.backend.AddScaled(v, 1, p.Grad)
		o.backend.AddScaled(p.Value, -o.lr, v)
	}
}

// Adam implements the Adam update with bias correction.
type Adam struct {
	params  []*Param
	lr      float64
	beta1   float64
	beta2   float64
	eps     float64
	m       [][]float64
	v       [][]float64
	step    int
	backend device.Backend
}

// NewAdam binds an Adam optimizer to params with the usual betas.
func NewAdam(params []*Param, lr float64, backend device.Backend) *Adam {
	if backend == nil {
		backend = device.Host{}
	}
	o := &Adam{
		params:  params,
		lr:      lr,
		beta1:   0.9,
		beta2:   0.999,
		eps:     1e-8,
		m:       make([][]float64, len(params)),
		v:       make([][]float64, len(params)),
		backend: backend,
	}
	for i, p := range params {
		o.m[i] = make([]float64, len(p.Value))
		o.v[i] = make([]float64, len(p.Value))
	}
	return o
}

func (o *Adam) Step() {
	o.step++
	c1 := 1 - math.Pow(o.beta1, float64(o.step))
	c2 := 1 - math.Pow(o.beta2, float64(o.step))
	for i, p := range o.params {
		m, v := o.m[i], o.v[i]
		o.backend.Scale(m, o.beta1)
		o.backend.AddScaled(m, 1-o.beta1, p.Grad)
		for j, g := range p.Grad {
			v[j] = o.beta2*v[j] + (1-o.beta2)*g*g
			p.Value[j] -= o.lr * (m[j] / c1) / (math.Sqrt(v[j]/c2) + o.eps)
		}
	}
}
