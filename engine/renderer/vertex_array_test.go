package renderer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/rainfrog/engine/assets"
	"github.com/spaghettifunk/rainfrog/engine/core"
	"github.com/spaghettifunk/rainfrog/engine/renderer"
)

// inputs declared in a different order than the buffer layout
const shuffledVertex = `#version 430 core
layout (location = 2) in vec3 aPosition;
layout (location = 0) in vec2 aTexCoords;
void main() { gl_Position = vec4(aPosition, 1.0); }
`

const positionOnlyVertex = `#version 430 core
in vec3 aPosition;
void main() { gl_Position = vec4(aPosition, 1.0); }
`

func quadBuffer(t *testing.T, ctx *renderer.Context) *renderer.Buffer {
	t.Helper()
	layout := renderer.MustBufferLayout(
		renderer.NewBufferElement(renderer.Float3, "aPosition"),
		renderer.NewBufferElement(renderer.Float2, "aTexCoords"),
	)
	buf, err := renderer.NewVertexBuffer(ctx, make([]float32, 4*5), layout, renderer.StaticDraw)
	require.NoError(t, err)
	return buf
}

func TestVertexArrayPositionalSlots(t *testing.T) {
	ctx, device := newTestContext(t, renderer.ContextConfig{})
	buf := quadBuffer(t, ctx)
	defer buf.Destroy()

	va, err := renderer.NewVertexArray(ctx)
	require.NoError(t, err)
	defer va.Destroy()
	require.NoError(t, va.AddVertexBuffer(buf))

	position, ok := device.Attrib(va.Handle(), 0)
	require.True(t, ok)
	assert.True(t, position.Enabled)
	assert.Equal(t, int32(3), position.Size)
	assert.Equal(t, int32(20), position.Stride)
	assert.Equal(t, int32(0), position.Offset)
	assert.Equal(t, buf.Handle(), position.Buffer)

	uv, _ := device.Attrib(va.Handle(), 1)
	assert.Equal(t, int32(2), uv.Size)
	assert.Equal(t, int32(12), uv.Offset)
}

func TestVertexArrayNamedSlots(t *testing.T) {
	ctx, device := newTestContext(t, renderer.ContextConfig{Strict: true})
	program := newProgram(t, ctx, shuffledVertex, screenFragment)
	defer program.Destroy()
	buf := quadBuffer(t, ctx)
	defer buf.Destroy()

	va, err := renderer.NewVertexArrayFor(ctx, program)
	require.NoError(t, err)
	defer va.Destroy()
	require.NoError(t, va.AddVertexBuffer(buf))

	position, _ := device.Attrib(va.Handle(), 2)
	assert.True(t, position.Enabled)
	assert.Equal(t, int32(3), position.Size)
	assert.Equal(t, int32(0), position.Offset)

	uv, _ := device.Attrib(va.Handle(), 0)
	assert.True(t, uv.Enabled)
	assert.Equal(t, int32(2), uv.Size)
	assert.Equal(t, int32(12), uv.Offset)
}

func TestVertexArrayUnknownAttribute(t *testing.T) {
	t.Run("permissive skips", func(t *testing.T) {
		logs := captureLog(t)
		ctx, device := newTestContext(t, renderer.ContextConfig{})
		program := newProgram(t, ctx, positionOnlyVertex, screenFragment)
		defer program.Destroy()
		buf := quadBuffer(t, ctx)
		defer buf.Destroy()

		va, err := renderer.NewVertexArrayFor(ctx, program)
		require.NoError(t, err)
		defer va.Destroy()

		require.NoError(t, va.AddVertexBuffer(buf))
		assert.Equal(t, 1, device.CallCount("EnableVertexAttribArray"))
		assert.Contains(t, logs.String(), "aTexCoords")
	})

	t.Run("strict fails", func(t *testing.T) {
		ctx, _ := newTestContext(t, renderer.ContextConfig{Strict: true})
		program := newProgram(t, ctx, positionOnlyVertex, screenFragment)
		defer program.Destroy()
		buf := quadBuffer(t, ctx)
		defer buf.Destroy()

		va, err := renderer.NewVertexArrayFor(ctx, program)
		require.NoError(t, err)
		defer va.Destroy()

		err = va.AddVertexBuffer(buf)
		assert.ErrorIs(t, err, core.ErrAttributeMismatch)
	})
}

func TestVertexArrayIndexBuffer(t *testing.T) {
	ctx, device := newTestContext(t, renderer.ContextConfig{})
	buf := quadBuffer(t, ctx)
	defer buf.Destroy()
	indices, err := renderer.NewIndexBuffer(ctx, []uint32{0, 1, 2, 2, 3, 0})
	require.NoError(t, err)
	defer indices.Destroy()

	va, err := renderer.NewVertexArray(ctx)
	require.NoError(t, err)
	defer va.Destroy()
	require.NoError(t, va.AddVertexBuffer(buf))
	va.SetIndexBuffer(indices)

	assert.Equal(t, indices.Handle(), device.ElementBuffer(va.Handle()))
	assert.Same(t, indices, va.IndexBuffer())

	// a second array starts without an element buffer
	other, err := renderer.NewVertexArray(ctx)
	require.NoError(t, err)
	defer other.Destroy()
	other.Bind()
	assert.Zero(t, device.ElementBuffer(other.Handle()))
}

func TestVertexArrayFollowsRebuiltProgram(t *testing.T) {
	ctx, device := newTestContext(t, renderer.ContextConfig{Strict: true})
	src := assets.NewMemorySource(map[string]string{
		"shaders/quad.vert": `#version 430 core
in vec3 aPosition;
in vec2 aTexCoords;
void main() { gl_Position = vec4(aPosition, 1.0); }
`,
		"shaders/quad.frag": screenFragment,
	})
	program, err := renderer.LoadShaderProgram(ctx, src, "shaders/quad.vert", "shaders/quad.frag")
	require.NoError(t, err)
	defer program.Destroy()
	buf := quadBuffer(t, ctx)
	defer buf.Destroy()

	va, err := renderer.NewVertexArrayFor(ctx, program)
	require.NoError(t, err)
	defer va.Destroy()
	require.NoError(t, va.AddVertexBuffer(buf))

	position, _ := device.Attrib(va.Handle(), 0)
	assert.Equal(t, int32(3), position.Size)

	// swapping the declarations moves both inputs
	src.Set("shaders/quad.vert", []byte(`#version 430 core
in vec2 aTexCoords;
in vec3 aPosition;
void main() { gl_Position = vec4(aPosition, 1.0); }
`))
	require.NoError(t, program.Rebuild())
	require.Equal(t, int32(1), program.AttribLocation("aPosition"))

	program.Use()
	va.Draw(renderer.Triangles)

	uv, _ := device.Attrib(va.Handle(), 0)
	assert.True(t, uv.Enabled)
	assert.Equal(t, int32(2), uv.Size)
	assert.Equal(t, int32(12), uv.Offset)

	position, _ = device.Attrib(va.Handle(), 1)
	assert.True(t, position.Enabled)
	assert.Equal(t, int32(3), position.Size)
	assert.Equal(t, int32(0), position.Offset)
}
