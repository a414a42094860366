package renderer

import (
	"fmt"

	"github.com/spaghettifunk/rainfrog/engine/core"
)

// ShaderDataType is the semantic type of one vertex attribute. Only 32-bit
// float components are supported.
type ShaderDataType uint8

const (
	ShaderDataTypeNone ShaderDataType = iota
	Float
	Float2
	Float3
	Float4
)

func (t ShaderDataType) String() string {
	switch t {
	case Float:
		return "Float"
	case Float2:
		return "Float2"
	case Float3:
		return "Float3"
	case Float4:
		return "Float4"
	default:
		return fmt.Sprintf("ShaderDataType(%d)", uint8(t))
	}
}

// ComponentCount returns 0 for unknown types.
func (t ShaderDataType) ComponentCount() int32 {
	switch t {
	case Float:
		return 1
	case Float2:
		return 2
	case Float3:
		return 3
	case Float4:
		return 4
	default:
		return 0
	}
}

// Size in bytes.
func (t ShaderDataType) Size() int32 {
	return 4 * t.ComponentCount()
}

type BufferElement struct {
	Name       string
	Type       ShaderDataType
	Size       int32
	Offset     int32
	Normalized bool
}

func NewBufferElement(t ShaderDataType, name string) BufferElement {
	return BufferElement{Name: name, Type: t, Size: t.Size()}
}

func (e BufferElement) ComponentCount() int32 {
	return e.Type.ComponentCount()
}

// BufferLayout describes tightly packed interleaved vertex data.
// Offsets and stride are computed once at construction.
type BufferLayout struct {
	elements []BufferElement
	stride   int32
}

func NewBufferLayout(elements ...BufferElement) (*BufferLayout, error) {
	if len(elements) == 0 {
		return nil, fmt.Errorf("%w: no elements", core.ErrInvalidLayout)
	}
	layout := &BufferLayout{elements: make([]BufferElement, len(elements))}
	seen := make(map[string]bool, len(elements))

	var offset int32
	for i, element := range elements {
		if element.Type.ComponentCount() == 0 {
			return nil, fmt.Errorf("%w: element %d (%q) has unknown type %s", core.ErrInvalidLayout, i, element.Name, element.Type)
		}
		if element.Name == "" {
			return nil, fmt.Errorf("%w: element %d has no name", core.ErrInvalidLayout, i)
		}
		if seen[element.Name] {
			return nil, fmt.Errorf("%w: duplicate element %q", core.ErrInvalidLayout, element.Name)
		}
		seen[element.Name] = true

		element.Size = element.Type.Size()
		element.Offset = offset
		offset += element.Size
		layout.elements[i] = element
	}
	layout.stride = offset
	return layout, nil
}

// MustBufferLayout is for static layouts known to be valid.
func MustBufferLayout(elements ...BufferElement) *BufferLayout {
	layout, err := NewBufferLayout(elements...)
	if err != nil {
		panic(err)
	}
	return layout
}

func (l *BufferLayout) Stride() int32 {
	return l.stride
}

// Elements returns a copy of the elements.
func (l *BufferLayout) Elements() []BufferElement {
	out := make([]BufferElement, len(l.elements))
	copy(out, l.elements)
	return out
}

// FloatsPerVertex is the stride expressed in float components.
func (l *BufferLayout) FloatsPerVertex() int {
	return int(l.stride / 4)
}
