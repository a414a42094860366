package renderer

import "github.com/go-gl/mathgl/mgl32"

const (
	// SharedUniformBlockName is the block every scene program declares:
	//
	//	layout (std140) uniform Matrices { mat4 projection; mat4 view; };
	SharedUniformBlockName = "Matrices"
	// SharedUniformBinding is the binding slot the block is attached to.
	SharedUniformBinding uint32 = 0
	// two column-major mat4, no padding under std140
	sharedUniformBlockSize = 2 * 16 * 4
)

// SharedUniformBlock holds the per-frame camera matrices in a uniform buffer
// shared by every program that declares the block.
type SharedUniformBlock struct {
	buffer  *Buffer
	binding uint32
}

func NewSharedUniformBlock(ctx *Context) (*SharedUniformBlock, error) {
	buffer, err := newUniformBuffer(ctx, sharedUniformBlockSize)
	if err != nil {
		return nil, err
	}
	ctx.BindBufferBase(UniformBuffer, SharedUniformBinding, buffer.Handle())
	return &SharedUniformBlock{buffer: buffer, binding: SharedUniformBinding}, nil
}

// Attach points program's block at the shared binding. Programs that do not
// declare the block are left alone and false is returned.
func (b *SharedUniformBlock) Attach(program *ShaderProgram) bool {
	return program.BindUniformBlock(SharedUniformBlockName, b.binding)
}

// Update rewrites the whole block; it must run before the first draw of a
// frame.
func (b *SharedUniformBlock) Update(projection, view mgl32.Mat4) error {
	data := make([]float32, 0, 32)
	data = append(data, projection[:]...)
	data = append(data, view[:]...)
	return b.buffer.SetSubData(0, float32Bytes(data))
}

func (b *SharedUniformBlock) Buffer() *Buffer {
	return b.buffer
}

func (b *SharedUniformBlock) Binding() uint32 {
	return b.binding
}

func (b *SharedUniformBlock) Destroy() {
	b.buffer.Destroy()
}
