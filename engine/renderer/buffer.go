package renderer

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/exp/constraints"

	"github.com/spaghettifunk/rainfrog/engine/core"
)

const indexSize = 4

// Buffer is a device buffer holding vertex, index or uniform data.
type Buffer struct {
	resource

	handle Handle
	target BufferTarget
	usage  BufferUsage
	layout *BufferLayout
	count  int
	size   int
}

// NewVertexBuffer uploads interleaved vertex data described by layout. The
// data length must be a whole number of vertices.
func NewVertexBuffer[T constraints.Float](ctx *Context, data []T, layout *BufferLayout, usage BufferUsage) (*Buffer, error) {
	if layout == nil {
		return nil, fmt.Errorf("%w: vertex buffer without layout", core.ErrInvalidLayout)
	}
	perVertex := layout.FloatsPerVertex()
	if len(data) == 0 || len(data)%perVertex != 0 {
		return nil, fmt.Errorf("%w: %d floats is not a multiple of the %d-float stride", core.ErrInvalidLayout, len(data), perVertex)
	}

	b := &Buffer{
		target: ArrayBuffer,
		usage:  usage,
		layout: layout,
		count:  len(data) / perVertex,
	}
	b.size = b.count * int(layout.Stride())
	if err := b.create(ctx, KindBuffer, float32Bytes(data)); err != nil {
		return nil, err
	}
	return b, nil
}

// NewIndexBuffer uploads uint32 indices.
func NewIndexBuffer(ctx *Context, indices []uint32) (*Buffer, error) {
	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: empty index buffer", core.ErrInvalidLayout)
	}
	b := &Buffer{
		target: ElementArrayBuffer,
		usage:  StaticDraw,
		count:  len(indices),
		size:   len(indices) * indexSize,
	}
	if err := b.create(ctx, KindBuffer, uint32Bytes(indices)); err != nil {
		return nil, err
	}
	return b, nil
}

// newUniformBuffer allocates size zeroed bytes.
func newUniformBuffer(ctx *Context, size int) (*Buffer, error) {
	b := &Buffer{
		target: UniformBuffer,
		usage:  DynamicDraw,
		count:  1,
		size:   size,
	}
	if err := b.create(ctx, KindUniformBlock, make([]byte, size)); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Buffer) create(ctx *Context, kind ResourceKind, data []byte) error {
	if len(data) != b.size {
		return fmt.Errorf("%w: %d bytes for %d elements of %d bytes", core.ErrInvalidLayout, len(data), b.count, b.size/b.count)
	}
	handle, err := ctx.device.CreateBuffer()
	if err != nil {
		return &core.ResourceCreationError{Kind: string(kind)}
	}
	b.handle = handle
	b.init(ctx, kind, "")

	target := b.uploadTarget()
	ctx.BindBuffer(target, handle)
	ctx.device.BufferData(target, data, b.usage)
	return nil
}

// uploadTarget avoids touching the element binding, which belongs to
// whichever vertex array is bound.
func (b *Buffer) uploadTarget() BufferTarget {
	if b.target == ElementArrayBuffer {
		return ArrayBuffer
	}
	return b.target
}

func (b *Buffer) Handle() Handle {
	b.mustBeLive()
	return b.handle
}

func (b *Buffer) Target() BufferTarget {
	return b.target
}

// Layout is nil for index and uniform buffers.
func (b *Buffer) Layout() *BufferLayout {
	return b.layout
}

// Count is the number of vertices or indices.
func (b *Buffer) Count() int {
	return b.count
}

// Size in bytes.
func (b *Buffer) Size() int {
	return b.size
}

// SetSubData overwrites part of the buffer. The write must fit.
func (b *Buffer) SetSubData(offset int, data []byte) error {
	b.mustBeLive()
	if offset < 0 || offset+len(data) > b.size {
		return fmt.Errorf("%w: write of %d bytes at %d overflows %d byte buffer", core.ErrInvalidLayout, len(data), offset, b.size)
	}
	target := b.uploadTarget()
	b.ctx.BindBuffer(target, b.handle)
	b.ctx.device.BufferSubData(target, offset, data)
	return nil
}

func (b *Buffer) Destroy() {
	if !b.markReleased() {
		return
	}
	b.ctx.deleteBuffer(b.handle)
	b.handle = 0
}

func float32Bytes[T constraints.Float](data []T) []byte {
	out := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(float32(v)))
	}
	return out
}

func uint32Bytes(data []uint32) []byte {
	out := make([]byte, indexSize*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(out[indexSize*i:], v)
	}
	return out
}
