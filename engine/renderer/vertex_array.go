package renderer

import (
	"fmt"

	"github.com/spaghettifunk/rainfrog/engine/core"
)

// VertexArray records attribute configuration and the element buffer. It
// references its buffers but does not own them.
type VertexArray struct {
	resource

	handle  Handle
	program *ShaderProgram

	vertexBuffers []*Buffer
	indexBuffer   *Buffer
	nextSlot      uint32
	enabled       []uint32
	generation    uint64
}

// NewVertexArray assigns attribute slots by position: the Nth layout
// element across all added buffers goes to slot N.
func NewVertexArray(ctx *Context) (*VertexArray, error) {
	return newVertexArray(ctx, nil)
}

// NewVertexArrayFor assigns attribute slots by name, using the locations
// the linked program reports for its inputs. When the program is rebuilt
// the slots are resolved again on the next Draw.
func NewVertexArrayFor(ctx *Context, program *ShaderProgram) (*VertexArray, error) {
	return newVertexArray(ctx, program)
}

func newVertexArray(ctx *Context, program *ShaderProgram) (*VertexArray, error) {
	handle, err := ctx.device.CreateVertexArray()
	if err != nil {
		return nil, &core.ResourceCreationError{Kind: string(KindVertexArray)}
	}
	va := &VertexArray{handle: handle, program: program}
	if program != nil {
		va.generation = program.generation
	}
	va.init(ctx, KindVertexArray, "")
	return va, nil
}

func (va *VertexArray) Handle() Handle {
	va.mustBeLive()
	return va.handle
}

func (va *VertexArray) Bind() {
	va.mustBeLive()
	va.ctx.BindVertexArray(va.handle)
}

func (va *VertexArray) AddVertexBuffer(buffer *Buffer) error {
	va.mustBeLive()
	if buffer.Layout() == nil {
		return fmt.Errorf("%w: buffer %s has no layout", core.ErrInvalidLayout, buffer.Label())
	}

	va.Bind()
	if err := va.configure(buffer); err != nil {
		return err
	}
	va.vertexBuffers = append(va.vertexBuffers, buffer)
	return nil
}

func (va *VertexArray) configure(buffer *Buffer) error {
	va.ctx.BindBuffer(ArrayBuffer, buffer.Handle())

	layout := buffer.Layout()
	for _, element := range layout.Elements() {
		slot, ok, err := va.slotFor(element)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		va.ctx.device.EnableVertexAttribArray(slot)
		va.ctx.device.VertexAttribPointer(slot, element.ComponentCount(), element.Normalized, layout.Stride(), element.Offset)
		va.enabled = append(va.enabled, slot)
	}
	return nil
}

// relink points every buffer at the locations of the rebuilt program.
// Inputs without a layout qualifier may land elsewhere after a relink.
func (va *VertexArray) relink() {
	va.generation = va.program.generation
	for _, slot := range va.enabled {
		va.ctx.device.DisableVertexAttribArray(slot)
	}
	va.enabled = va.enabled[:0]
	for _, buffer := range va.vertexBuffers {
		if err := va.configure(buffer); err != nil {
			core.Logger().Error("vertex array relink failed", "program", va.program.Name(), "err", err)
		}
	}
}

func (va *VertexArray) slotFor(element BufferElement) (uint32, bool, error) {
	if va.program == nil {
		slot := va.nextSlot
		va.nextSlot++
		return slot, true, nil
	}
	loc := va.program.AttribLocation(element.Name)
	if loc >= 0 {
		return uint32(loc), true, nil
	}
	if va.ctx.config.Strict {
		return 0, false, fmt.Errorf("%w: %q in %s", core.ErrAttributeMismatch, element.Name, va.program.Name())
	}
	core.Logger().Warn("vertex attribute not used by program, skipping", "program", va.program.Name(), "attribute", element.Name)
	return 0, false, nil
}

func (va *VertexArray) SetIndexBuffer(buffer *Buffer) {
	va.mustBeLive()
	va.Bind()
	va.ctx.BindBuffer(ElementArrayBuffer, buffer.Handle())
	va.indexBuffer = buffer
}

func (va *VertexArray) VertexBuffers() []*Buffer {
	return va.vertexBuffers
}

func (va *VertexArray) IndexBuffer() *Buffer {
	return va.indexBuffer
}

// Draw issues an indexed draw when an index buffer is set and a plain one
// over the first vertex buffer otherwise.
func (va *VertexArray) Draw(mode PrimitiveMode) {
	va.Bind()
	if va.program != nil && va.program.generation != va.generation {
		va.relink()
	}
	if va.indexBuffer != nil {
		va.ctx.device.DrawElements(mode, int32(va.indexBuffer.Count()))
		return
	}
	if len(va.vertexBuffers) > 0 {
		va.ctx.device.DrawArrays(mode, 0, int32(va.vertexBuffers[0].Count()))
	}
}

func (va *VertexArray) Destroy() {
	if !va.markReleased() {
		return
	}
	va.ctx.deleteVertexArray(va.handle)
	va.handle = 0
	va.vertexBuffers = nil
	va.indexBuffer = nil
	va.enabled = nil
}
