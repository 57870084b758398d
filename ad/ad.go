// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package ad implements forward-mode automatic differentiation with a fixed
// number of derivative directions. One direction is assigned per sensitive
// parameter; evaluating the residual on Scalars then yields dF/dp for all
// parameters in a single sweep.
package ad

import "math"

// Scalar is a value carrying derivatives with respect to a fixed set of
// directions. The zero Scalar (no derivative storage) behaves like a plain
// constant.
type Scalar struct {
	V float64   // value
	D []float64 // derivatives per direction (may be nil for constants)
}

// NewScalar returns a Scalar with ndirs zeroed derivative slots
func NewScalar(v float64, ndirs int) Scalar {
	return Scalar{V: v, D: make([]float64, ndirs)}
}

// NewSeed returns a Scalar seeded with derivative 1 in direction dir
func NewSeed(v float64, ndirs, dir int) Scalar {
	s := NewScalar(v, ndirs)
	s.D[dir] = 1
	return s
}

// Const returns a Scalar without derivative storage
func Const(v float64) Scalar { return Scalar{V: v} }

// Deriv returns the derivative in direction dir (zero for constants)
func (o Scalar) Deriv(dir int) float64 {
	if o.D == nil {
		return 0
	}
	return o.D[dir]
}

// binop allocates the result derivative storage for a binary operation
func binop(a, b Scalar) Scalar {
	n := len(a.D)
	if len(b.D) > n {
		n = len(b.D)
	}
	if n == 0 {
		return Scalar{}
	}
	return Scalar{D: make([]float64, n)}
}

// Add returns a + b
func Add(a, b Scalar) Scalar {
	r := binop(a, b)
	r.V = a.V + b.V
	for i := range r.D {
		r.D[i] = a.Deriv(i) + b.Deriv(i)
	}
	return r
}

// Sub returns a - b
func Sub(a, b Scalar) Scalar {
	r := binop(a, b)
	r.V = a.V - b.V
	for i := range r.D {
		r.D[i] = a.Deriv(i) - b.Deriv(i)
	}
	return r
}

// Mul returns a * b
func Mul(a, b Scalar) Scalar {
	r := binop(a, b)
	r.V = a.V * b.V
	for i := range r.D {
		r.D[i] = a.Deriv(i)*b.V + a.V*b.Deriv(i)
	}
	return r
}

// Div returns a / b
func Div(a, b Scalar) Scalar {
	r := binop(a, b)
	r.V = a.V / b.V
	for i := range r.D {
		r.D[i] = (a.Deriv(i) - r.V*b.Deriv(i)) / b.V
	}
	return r
}

// Scale returns c * a for a plain constant c
func Scale(c float64, a Scalar) Scalar {
	r := binop(a, Scalar{})
	r.V = c * a.V
	for i := range r.D {
		r.D[i] = c * a.D[i]
	}
	return r
}

// AddScaled returns a + c*b for a plain constant c
func AddScaled(a Scalar, c float64, b Scalar) Scalar {
	r := binop(a, b)
	r.V = a.V + c*b.V
	for i := range r.D {
		r.D[i] = a.Deriv(i) + c*b.Deriv(i)
	}
	return r
}

// Pow returns a^p for a plain constant exponent
func Pow(a Scalar, p float64) Scalar {
	r := binop(a, Scalar{})
	r.V = math.Pow(a.V, p)
	if len(r.D) > 0 {
		g := p * math.Pow(a.V, p-1)
		for i := range r.D {
			r.D[i] = g * a.D[i]
		}
	}
	return r
}

// Vector helpers ///////////////////////////////////////////////////////////

// NewVector returns a vector of Scalars with ndirs derivative slots each
func NewVector(n, ndirs int) []Scalar {
	v := make([]Scalar, n)
	for i := range v {
		v[i] = NewScalar(0, ndirs)
	}
	return v
}

// SetValues copies plain values into the Scalars of v, zeroing derivatives
func SetValues(v []Scalar, vals []float64) {
	for i := range v {
		v[i].V = vals[i]
		for j := range v[i].D {
			v[i].D[j] = 0
		}
	}
}

// ExtractDir extracts the derivatives of direction dir into out
func ExtractDir(v []Scalar, dir int, out []float64) {
	for i := range v {
		out[i] = v[i].Deriv(dir)
	}
}
