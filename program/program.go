// Package program derives the active vertex attribute slots of a draw from
// WGSL shader source.
//
// A vertex entry point reads the slots named by its @location inputs,
// either as direct arguments or as members of a struct argument:
//
//	inputs, err := program.FromWGSL(source, "vs_main")
//	if err != nil {
//	    return err
//	}
//	state := &vertexdata.DrawState{Program: inputs, Attributes: attrs}
package program

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"

	"github.com/gogpu/vertexdata/format"
)

// Errors returned by FromWGSL.
var (
	// ErrNoVertexEntryPoint is returned when the module has no usable
	// vertex entry point.
	ErrNoVertexEntryPoint = errors.New("program: no vertex entry point")

	// ErrUnsupportedInput is returned for a location input that is not a
	// 32-bit scalar or vector.
	ErrUnsupportedInput = errors.New("program: unsupported vertex input type")
)

// Input is one @location input of a vertex entry point.
type Input struct {
	Name       string
	Location   uint32
	Type       format.ValueType
	Components int
}

// Inputs lists the vertex inputs of an entry point. It implements the
// Program interface of package vertexdata.
type Inputs struct {
	EntryPoint string
	inputs     []Input
	active     map[int]bool
}

// FromWGSL parses WGSL source and returns the inputs of the named vertex
// entry point. An empty name selects the module's only vertex entry point.
func FromWGSL(source, entryPoint string) (*Inputs, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("program: %w", err)
	}
	module, err := naga.Lower(ast)
	if err != nil {
		return nil, fmt.Errorf("program: %w", err)
	}
	ep, err := findVertexEntryPoint(module, entryPoint)
	if err != nil {
		return nil, err
	}

	p := &Inputs{EntryPoint: ep.Name, active: make(map[int]bool)}
	for _, arg := range ep.Function.Arguments {
		if arg.Binding != nil {
			if err := p.add(module, arg.Name, arg.Type, *arg.Binding); err != nil {
				return nil, err
			}
			continue
		}
		st, ok := module.Types[arg.Type].Inner.(ir.StructType)
		if !ok {
			continue
		}
		for _, m := range st.Members {
			if m.Binding == nil {
				continue
			}
			if err := p.add(module, m.Name, m.Type, *m.Binding); err != nil {
				return nil, err
			}
		}
	}
	sort.Slice(p.inputs, func(i, j int) bool { return p.inputs[i].Location < p.inputs[j].Location })
	return p, nil
}

func findVertexEntryPoint(module *ir.Module, name string) (*ir.EntryPoint, error) {
	var found *ir.EntryPoint
	for i := range module.EntryPoints {
		ep := &module.EntryPoints[i]
		if ep.Stage != ir.StageVertex {
			continue
		}
		if name != "" {
			if ep.Name == name {
				return ep, nil
			}
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: %q and %q both qualify, name one", ErrNoVertexEntryPoint, found.Name, ep.Name)
		}
		found = ep
	}
	if found == nil {
		if name != "" {
			return nil, fmt.Errorf("%w: %q", ErrNoVertexEntryPoint, name)
		}
		return nil, ErrNoVertexEntryPoint
	}
	return found, nil
}

// add records a location input. Built-in inputs are skipped.
func (p *Inputs) add(module *ir.Module, name string, th ir.TypeHandle, b ir.Binding) error {
	loc, ok := b.(ir.LocationBinding)
	if !ok {
		return nil
	}
	var scalar ir.ScalarType
	components := 1
	switch inner := module.Types[th].Inner.(type) {
	case ir.ScalarType:
		scalar = inner
	case ir.VectorType:
		scalar, components = inner.Scalar, int(inner.Size)
	default:
		return fmt.Errorf("%w: %s at location %d", ErrUnsupportedInput, name, loc.Location)
	}

	var vt format.ValueType
	switch {
	case scalar.Width != 4:
		return fmt.Errorf("%w: %s at location %d is %d bytes wide", ErrUnsupportedInput, name, loc.Location, scalar.Width)
	case scalar.Kind == ir.ScalarFloat:
		vt = format.ValueFloat
	case scalar.Kind == ir.ScalarSint:
		vt = format.ValueInt
	case scalar.Kind == ir.ScalarUint:
		vt = format.ValueUint
	default:
		return fmt.Errorf("%w: %s at location %d", ErrUnsupportedInput, name, loc.Location)
	}

	p.inputs = append(p.inputs, Input{Name: name, Location: loc.Location, Type: vt, Components: components})
	p.active[int(loc.Location)] = true
	return nil
}

// IsAttributeActive reports whether the entry point reads slot index.
func (p *Inputs) IsAttributeActive(index int) bool {
	return p.active[index]
}

// Inputs returns the location inputs ordered by location.
func (p *Inputs) Inputs() []Input {
	return p.inputs
}

// Lookup returns the input at location.
func (p *Inputs) Lookup(location uint32) (Input, bool) {
	for _, in := range p.inputs {
		if in.Location == location {
			return in, true
		}
	}
	return Input{}, false
}
