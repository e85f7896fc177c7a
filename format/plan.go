package format

import (
	"errors"

	"github.com/gogpu/gputypes"
)

// ErrUnsupportedFormat is returned when a policy has no plan for a layout.
var ErrUnsupportedFormat = errors.New("format: unsupported vertex format")

// ConvertFunc converts count source elements, srcStride bytes apart, into
// tightly packed destination elements. A srcStride of 0 repeats the first
// element. Callers size dst and src; the function does not allocate.
type ConvertFunc func(dst, src []byte, srcStride, count int)

// Plan describes how one attribute layout reaches the GPU.
type Plan struct {
	// Format is the destination vertex format.
	Format gputypes.VertexFormat
	// InputSize is the number of source bytes read per element.
	InputSize int
	// Conversion reports whether the source bytes must be rewritten before
	// the GPU can read them. When false, Format describes the source bytes.
	Conversion bool

	convert ConvertFunc
}

// NewPlan builds a plan for custom policies. fn must honour the
// ConvertFunc contract.
func NewPlan(f gputypes.VertexFormat, inputSize int, conversion bool, fn ConvertFunc) Plan {
	return Plan{Format: f, InputSize: inputSize, Conversion: conversion, convert: fn}
}

// ElementSize returns the size in bytes of one converted element.
func (p Plan) ElementSize() uint32 {
	return uint32(p.Format.Size()) //nolint:gosec // vertex format sizes are at most 16
}

// Convert runs the plan's conversion. Plans that need no conversion copy
// the source elements.
func (p Plan) Convert(dst, src []byte, srcStride, count int) {
	if count <= 0 {
		return
	}
	if p.convert != nil {
		p.convert(dst, src, srcStride, count)
		return
	}
	copyElements(int(p.ElementSize()))(dst, src, srcStride, count)
}

// Policy maps attribute layouts to plans. Implementations must be
// deterministic and free of side effects.
type Policy interface {
	Plan(k Key) (Plan, error)
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(k Key) (Plan, error)

// Plan calls f(k).
func (f PolicyFunc) Plan(k Key) (Plan, error) { return f(k) }
