package renderer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/rainfrog/engine/core"
	"github.com/spaghettifunk/rainfrog/engine/renderer"
)

func TestVertexBufferSize(t *testing.T) {
	ctx, _ := newTestContext(t, renderer.ContextConfig{})
	layout := renderer.MustBufferLayout(
		renderer.NewBufferElement(renderer.Float3, "aPosition"),
		renderer.NewBufferElement(renderer.Float2, "aTexCoords"),
	)

	buf, err := renderer.NewVertexBuffer(ctx, make([]float32, 4*5), layout, renderer.StaticDraw)
	require.NoError(t, err)
	defer buf.Destroy()

	assert.Equal(t, 4, buf.Count())
	assert.Equal(t, buf.Count()*int(layout.Stride()), buf.Size())
	assert.Equal(t, renderer.ArrayBuffer, buf.Target())
}

func TestVertexBufferFromFloat64(t *testing.T) {
	ctx, _ := newTestContext(t, renderer.ContextConfig{})
	layout := renderer.MustBufferLayout(renderer.NewBufferElement(renderer.Float2, "aPosition"))

	buf, err := renderer.NewVertexBuffer(ctx, []float64{0, 0, 1, 1, 2, 2}, layout, renderer.StaticDraw)
	require.NoError(t, err)
	defer buf.Destroy()

	assert.Equal(t, 3, buf.Count())
	assert.Equal(t, 24, buf.Size())
}

func TestVertexBufferRejectsPartialVertex(t *testing.T) {
	ctx, _ := newTestContext(t, renderer.ContextConfig{})
	layout := renderer.MustBufferLayout(renderer.NewBufferElement(renderer.Float3, "aPosition"))

	_, err := renderer.NewVertexBuffer(ctx, []float32{1, 2, 3, 4}, layout, renderer.StaticDraw)
	assert.ErrorIs(t, err, core.ErrInvalidLayout)

	_, err = renderer.NewVertexBuffer[float32](ctx, nil, layout, renderer.StaticDraw)
	assert.ErrorIs(t, err, core.ErrInvalidLayout)

	_, err = renderer.NewVertexBuffer(ctx, []float32{1, 2, 3}, nil, renderer.StaticDraw)
	assert.ErrorIs(t, err, core.ErrInvalidLayout)
}

func TestIndexBuffer(t *testing.T) {
	ctx, _ := newTestContext(t, renderer.ContextConfig{})

	buf, err := renderer.NewIndexBuffer(ctx, []uint32{0, 1, 2, 2, 3, 0})
	require.NoError(t, err)
	defer buf.Destroy()

	assert.Equal(t, 6, buf.Count())
	assert.Equal(t, 24, buf.Size())
	assert.Nil(t, buf.Layout())

	_, err = renderer.NewIndexBuffer(ctx, nil)
	assert.ErrorIs(t, err, core.ErrInvalidLayout)
}

func TestBufferSubDataBounds(t *testing.T) {
	ctx, _ := newTestContext(t, renderer.ContextConfig{})
	buf, err := renderer.NewIndexBuffer(ctx, []uint32{0, 1, 2})
	require.NoError(t, err)
	defer buf.Destroy()

	assert.NoError(t, buf.SetSubData(4, make([]byte, 8)))
	assert.ErrorIs(t, buf.SetSubData(8, make([]byte, 8)), core.ErrInvalidLayout)
	assert.ErrorIs(t, buf.SetSubData(-1, make([]byte, 1)), core.ErrInvalidLayout)
}

func TestBufferCreationFailure(t *testing.T) {
	ctx, device := newTestContext(t, renderer.ContextConfig{})
	device.FailCreation = true

	_, err := renderer.NewIndexBuffer(ctx, []uint32{0})
	assert.ErrorIs(t, err, core.ErrResourceCreation)

	var creationErr *core.ResourceCreationError
	require.ErrorAs(t, err, &creationErr)
	assert.Equal(t, "buffer", creationErr.Kind)
	assert.Equal(t, 0, ctx.Registry().Live())
}

func TestBufferUseAfterDestroyPanics(t *testing.T) {
	ctx, device := newTestContext(t, renderer.ContextConfig{})
	buf, err := renderer.NewIndexBuffer(ctx, []uint32{0, 1, 2})
	require.NoError(t, err)

	buf.Destroy()
	buf.Destroy()
	assert.Equal(t, 1, device.CallCount("DeleteBuffer"))
	assert.True(t, buf.Released())

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, core.ErrResourceReleased)
	}()
	buf.Handle()
}
