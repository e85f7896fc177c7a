package replay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/vertexdata"
	"github.com/gogpu/vertexdata/format"
	"github.com/gogpu/vertexdata/program"
)

// ErrExpectation is returned when a draw does not translate as expected.
var ErrExpectation = errors.New("replay: expectation not met")

// Kind is where a translated attribute reads from.
type Kind string

// Binding kinds.
const (
	KindInactive  Kind = "inactive"
	KindDirect    Kind = "direct"
	KindStatic    Kind = "static"
	KindStreaming Kind = "streaming"
	KindCurrent   Kind = "current"
)

// AttributeReport describes the translation of one slot.
type AttributeReport struct {
	Slot    int
	Kind    Kind
	Format  gputypes.VertexFormat
	Offset  uint32
	Stride  uint32
	Divisor uint32
	Serial  uint64
}

// DrawReport is the outcome of one draw.
type DrawReport struct {
	Index      int
	Attributes []AttributeReport
	Err        error
}

// Runner replays a scenario on a device.
type Runner struct {
	scenario *Scenario
	manager  *vertexdata.Manager
	program  vertexdata.Program
	buffers  map[string]*vertexdata.ClientBuffer
}

// NewRunner creates the manager and client buffers of s on dev.
func NewRunner(dev *vertexdata.Device, s *Scenario) (*Runner, error) {
	r := &Runner{scenario: s, buffers: make(map[string]*vertexdata.ClientBuffer)}

	switch {
	case s.Shader != "":
		p, err := program.FromWGSL(s.Shader, s.EntryPoint)
		if err != nil {
			return nil, fmt.Errorf("replay: %w", err)
		}
		r.program = p
	case len(s.Active) > 0:
		r.program = vertexdata.ActiveAttributes(s.Active...)
	}

	m, err := vertexdata.NewManager(dev, s.Manager.options()...)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	r.manager = m

	for _, spec := range s.Buffers {
		usage, err := vertexdata.ParseBufferUsage(spec.Usage)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("replay: buffer %q: %w", spec.Name, err)
		}
		b := dev.NewClientBuffer(usage)
		b.SetDirectBinding(!spec.NoDirect)
		r.buffers[spec.Name] = b
		if err := b.SetData(spec.Data.Encode()); err != nil {
			r.Close()
			return nil, fmt.Errorf("replay: buffer %q: %w", spec.Name, err)
		}
	}
	return r, nil
}

// Run replays every draw, reporting each to fn when fn is not nil. It stops
// at the first draw whose outcome contradicts its expectations.
func (r *Runner) Run(fn func(DrawReport)) error {
	for i := range r.scenario.Draws {
		report := r.draw(i)
		if fn != nil {
			fn(report)
		}
		if err := check(&r.scenario.Draws[i], report); err != nil {
			return fmt.Errorf("draw %d: %w", i, err)
		}
	}
	return nil
}

func (r *Runner) draw(index int) DrawReport {
	spec := &r.scenario.Draws[index]
	report := DrawReport{Index: index}

	for _, u := range spec.Updates {
		if err := r.buffers[u.Buffer].SetSubData(u.Offset, u.Data.Encode()); err != nil {
			report.Err = err
			return report
		}
	}

	state, err := r.drawState(spec)
	if err != nil {
		report.Err = err
		return report
	}
	translated, err := r.manager.PrepareVertexData(state, spec.First, spec.Count, spec.Instances)
	if err != nil {
		report.Err = err
		return report
	}
	for i := range translated {
		report.Attributes = append(report.Attributes, describe(i, &translated[i]))
	}
	return report
}

func (r *Runner) drawState(spec *DrawSpec) (*vertexdata.DrawState, error) {
	n := 0
	for _, a := range spec.Attributes {
		n = max(n, a.Slot+1)
	}
	state := &vertexdata.DrawState{
		Program:       r.program,
		Attributes:    make([]vertexdata.VertexAttribute, n),
		CurrentValues: make([]vertexdata.CurrentValue, n),
	}
	var all vertexdata.AttributeMask
	for i := range state.CurrentValues {
		state.CurrentValues[i] = vertexdata.DefaultCurrentValue()
	}
	for _, a := range spec.Attributes {
		attr := vertexdata.VertexAttribute{
			Enabled:     a.Enabled,
			Type:        format.ComponentType(a.Type),
			Size:        a.Size,
			Normalized:  a.Normalized,
			PureInteger: a.PureInteger,
			Stride:      a.Stride,
			Offset:      a.Offset,
			Divisor:     a.Divisor,
		}
		if a.Buffer != "" {
			attr.Buffer = r.buffers[a.Buffer]
		}
		if a.Client != nil {
			attr.Pointer = a.Client.Encode()
		}
		if a.Current != nil {
			cv, err := a.Current.Value()
			if err != nil {
				return nil, fmt.Errorf("slot %d: %w", a.Slot, err)
			}
			state.CurrentValues[a.Slot] = cv
		}
		state.Attributes[a.Slot] = attr
		all |= vertexdata.ActiveAttributes(a.Slot)
	}
	if state.Program == nil {
		state.Program = all
	}
	return state, nil
}

func describe(slot int, t *vertexdata.TranslatedAttribute) AttributeReport {
	rep := AttributeReport{
		Slot:    slot,
		Kind:    KindStreaming,
		Format:  t.Format,
		Offset:  t.Offset,
		Stride:  t.Stride,
		Divisor: t.Divisor,
		Serial:  t.Serial,
	}
	switch {
	case !t.Active:
		rep.Kind = KindInactive
	case t.IsDirect():
		rep.Kind = KindDirect
	case !t.Attribute.Enabled:
		rep.Kind = KindCurrent
	case t.Attribute.Buffer != nil:
		if s := t.Attribute.Buffer.StaticVertexBuffer(); s != nil && s.Handle() == t.VertexBuffer {
			rep.Kind = KindStatic
		}
	}
	return rep
}

func check(spec *DrawSpec, report DrawReport) error {
	if spec.ExpectError != "" {
		if report.Err == nil || !strings.Contains(report.Err.Error(), spec.ExpectError) {
			return fmt.Errorf("%w: error %v, want one containing %q", ErrExpectation, report.Err, spec.ExpectError)
		}
		return nil
	}
	if report.Err != nil {
		return report.Err
	}
	for i, want := range spec.Expect {
		if i >= len(report.Attributes) || report.Attributes[i].Kind != want {
			got := Kind("missing")
			if i < len(report.Attributes) {
				got = report.Attributes[i].Kind
			}
			return fmt.Errorf("%w: slot %d is %s, want %s", ErrExpectation, i, got, want)
		}
	}
	return nil
}

// Stats returns the manager counters.
func (r *Runner) Stats() vertexdata.Stats {
	return r.manager.Stats()
}

// Close releases the manager and client buffers.
func (r *Runner) Close() {
	for _, b := range r.buffers {
		b.Destroy()
	}
	r.manager.Close()
}

// String formats a report line.
func (a AttributeReport) String() string {
	return fmt.Sprintf("slot %d: %-9s %-10v offset=%d stride=%d divisor=%d serial=%d",
		a.Slot, a.Kind, a.Format, a.Offset, a.Stride, a.Divisor, a.Serial)
}
