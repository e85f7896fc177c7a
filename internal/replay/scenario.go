// Package replay runs scripted draws through a vertexdata.Manager. It backs
// the vxreplay command and scenario tests.
package replay

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/vertexdata"
	"github.com/gogpu/vertexdata/format"
)

// Scenario is a sequence of draws with the buffers they read.
type Scenario struct {
	Name string `yaml:"name"`

	// Shader and EntryPoint select active slots from WGSL. When Shader is
	// empty, Active lists them; when both are empty every listed attribute
	// is active.
	Shader     string `yaml:"shader"`
	EntryPoint string `yaml:"entry_point"`
	Active     []int  `yaml:"active"`

	Manager ManagerConfig `yaml:"manager"`
	Buffers []BufferSpec  `yaml:"buffers"`
	Draws   []DrawSpec    `yaml:"draws"`
}

// ManagerConfig maps to vertexdata options. Zero fields keep the defaults.
type ManagerConfig struct {
	StreamingSize    uint64 `yaml:"streaming_size"`
	ConstantSize     uint64 `yaml:"constant_size"`
	MaxVertexAttribs int    `yaml:"max_vertex_attribs"`
}

func (c ManagerConfig) options() []vertexdata.Option {
	var opts []vertexdata.Option
	if c.StreamingSize > 0 {
		opts = append(opts, vertexdata.WithInitialStreamingSize(c.StreamingSize))
	}
	if c.ConstantSize > 0 {
		opts = append(opts, vertexdata.WithConstantBufferSize(c.ConstantSize))
	}
	if c.MaxVertexAttribs > 0 {
		opts = append(opts, vertexdata.WithMaxVertexAttribs(c.MaxVertexAttribs))
	}
	return opts
}

// BufferSpec declares a client buffer.
type BufferSpec struct {
	Name     string `yaml:"name"`
	Usage    string `yaml:"usage"`
	NoDirect bool   `yaml:"no_direct"`
	Data     Data   `yaml:"data"`
}

// DrawSpec is one PrepareVertexData call. Updates are applied first.
type DrawSpec struct {
	First      int             `yaml:"first"`
	Count      int             `yaml:"count"`
	Instances  int             `yaml:"instances"`
	Updates    []UpdateSpec    `yaml:"updates"`
	Attributes []AttributeSpec `yaml:"attributes"`

	// Expect lists the expected binding kind per slot (see Kind), or an
	// error substring when the draw must fail.
	Expect      []Kind `yaml:"expect"`
	ExpectError string `yaml:"expect_error"`
}

// UpdateSpec rewrites part of a buffer.
type UpdateSpec struct {
	Buffer string `yaml:"buffer"`
	Offset uint64 `yaml:"offset"`
	Data   Data   `yaml:"data"`
}

// AttributeSpec describes one attribute slot. A slot with Current set and
// Enabled unset reads its current value.
type AttributeSpec struct {
	Slot        int           `yaml:"slot"`
	Enabled     bool          `yaml:"enabled"`
	Type        ComponentType `yaml:"type"`
	Size        int           `yaml:"size"`
	Normalized  bool          `yaml:"normalized"`
	PureInteger bool          `yaml:"pure_integer"`
	Stride      uint32        `yaml:"stride"`
	Offset      uint32        `yaml:"offset"`
	Divisor     uint32        `yaml:"divisor"`
	Buffer      string        `yaml:"buffer"`
	Client      *Data         `yaml:"client"`
	Current     *CurrentSpec  `yaml:"current"`
}

// CurrentSpec is a current value.
type CurrentSpec struct {
	Type   string    `yaml:"type"`
	Values []float64 `yaml:"values"`
}

// Value converts c to a vertexdata.CurrentValue. Missing lanes default to (0, 0, 0, 1).
func (c *CurrentSpec) Value() (vertexdata.CurrentValue, error) {
	vt, err := format.ParseValueType(c.Type)
	if err != nil {
		return vertexdata.CurrentValue{}, err
	}
	var v [4]float64
	v[3] = 1
	copy(v[:], c.Values)
	switch vt {
	case format.ValueInt:
		return vertexdata.IntValue(int32(v[0]), int32(v[1]), int32(v[2]), int32(v[3])), nil
	case format.ValueUint:
		return vertexdata.UintValue(uint32(v[0]), uint32(v[1]), uint32(v[2]), uint32(v[3])), nil
	default:
		return vertexdata.FloatValue(float32(v[0]), float32(v[1]), float32(v[2]), float32(v[3])), nil
	}
}

// ComponentType decodes a format.ComponentType from its name.
type ComponentType format.ComponentType

// UnmarshalYAML implements yaml.Unmarshaler for ComponentType.
func (t *ComponentType) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	ct, err := format.ParseComponentType(s)
	if err != nil {
		return err
	}
	*t = ComponentType(ct)
	return nil
}

// Data is raw vertex data written as typed little-endian values. The
// fields are encoded in declaration order.
type Data struct {
	Bytes  []uint8   `yaml:"bytes"`
	Shorts []int16   `yaml:"shorts"`
	Ints   []int32   `yaml:"ints"`
	Uints  []uint32  `yaml:"uints"`
	Floats []float32 `yaml:"floats"`
}

// Encode returns the little-endian bytes of d.
func (d Data) Encode() []byte {
	b := make([]byte, 0, len(d.Bytes)+2*len(d.Shorts)+4*(len(d.Ints)+len(d.Uints)+len(d.Floats)))
	b = append(b, d.Bytes...)
	for _, v := range d.Shorts {
		b = binary.LittleEndian.AppendUint16(b, uint16(v))
	}
	for _, v := range d.Ints {
		b = binary.LittleEndian.AppendUint32(b, uint32(v))
	}
	for _, v := range d.Uints {
		b = binary.LittleEndian.AppendUint32(b, v)
	}
	for _, v := range d.Floats {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
	}
	return b
}

// Load decodes a scenario.
func Load(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("replay: decode scenario: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile decodes the scenario at path.
func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func (s *Scenario) validate() error {
	names := make(map[string]bool, len(s.Buffers))
	for _, b := range s.Buffers {
		if b.Name == "" || names[b.Name] {
			return fmt.Errorf("replay: buffer name %q empty or repeated", b.Name)
		}
		if _, err := vertexdata.ParseBufferUsage(b.Usage); err != nil {
			return fmt.Errorf("replay: buffer %q: %w", b.Name, err)
		}
		names[b.Name] = true
	}
	for i, d := range s.Draws {
		for _, a := range d.Attributes {
			if a.Slot < 0 {
				return fmt.Errorf("replay: draw %d: negative slot %d", i, a.Slot)
			}
			if a.Buffer != "" && !names[a.Buffer] {
				return fmt.Errorf("replay: draw %d slot %d: unknown buffer %q", i, a.Slot, a.Buffer)
			}
		}
		for _, u := range d.Updates {
			if !names[u.Buffer] {
				return fmt.Errorf("replay: draw %d: update of unknown buffer %q", i, u.Buffer)
			}
		}
	}
	return nil
}
