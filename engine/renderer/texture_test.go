package renderer_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/rainfrog/engine/assets"
	"github.com/spaghettifunk/rainfrog/engine/core"
	"github.com/spaghettifunk/rainfrog/engine/renderer"
)

var facePaths = []string{
	"sky/right.png", "sky/left.png", "sky/top.png",
	"sky/bottom.png", "sky/front.png", "sky/back.png",
}

func skySource(t *testing.T) *assets.MemorySource {
	src := assets.NewMemorySource(nil)
	for _, path := range facePaths {
		src.Set(path, solidPNG(t, 4, 4, color.RGBA{R: 10, G: 20, B: 30, A: 255}))
	}
	return src
}

func TestLoadTexture2D(t *testing.T) {
	ctx, device := newTestContext(t, renderer.ContextConfig{})
	src := assets.NewMemorySource(nil)
	src.Set("frog.png", solidPNG(t, 3, 2, color.RGBA{G: 255, A: 255}))

	tex, err := renderer.LoadTexture2D(ctx, src, "frog.png")
	require.NoError(t, err)
	defer tex.Destroy()

	assert.Equal(t, int32(3), tex.Width())
	assert.Equal(t, int32(2), tex.Height())
	w, h, ok := device.TextureSize(tex.Handle(), renderer.Texture2DTarget)
	require.True(t, ok)
	assert.Equal(t, [2]int32{3, 2}, [2]int32{w, h})
	assert.Equal(t, "frog.png", tex.Label())
}

func TestLoadTexture2DErrors(t *testing.T) {
	ctx, _ := newTestContext(t, renderer.ContextConfig{})
	src := assets.NewMemorySource(map[string]string{"bad.png": "not a png"})

	_, err := renderer.LoadTexture2D(ctx, src, "missing.png")
	assert.ErrorIs(t, err, core.ErrAssetRead)

	_, err = renderer.LoadTexture2D(ctx, src, "bad.png")
	assert.ErrorIs(t, err, core.ErrInvalidImage)
	assert.Zero(t, ctx.Registry().Live())
}

func TestNewTexture2DRejectsEmptyImage(t *testing.T) {
	ctx, _ := newTestContext(t, renderer.ContextConfig{})
	_, err := renderer.NewTexture2D(ctx, image.NewRGBA(image.Rectangle{}))
	assert.ErrorIs(t, err, core.ErrInvalidImage)
}

func TestLoadCubemap(t *testing.T) {
	ctx, device := newTestContext(t, renderer.ContextConfig{})

	cube, err := renderer.LoadCubemap(ctx, skySource(t), facePaths)
	require.NoError(t, err)
	defer cube.Destroy()

	assert.Equal(t, int32(4), cube.Size())
	for i := 0; i < renderer.CubemapFaces; i++ {
		w, h, ok := device.TextureSize(cube.Handle(), renderer.CubeFace(i))
		require.True(t, ok, "face %d", i)
		assert.Equal(t, int32(4), w)
		assert.Equal(t, int32(4), h)
	}
}

func TestCubemapFaceCount(t *testing.T) {
	ctx, _ := newTestContext(t, renderer.ContextConfig{})
	src := skySource(t)

	for _, n := range []int{0, 1, 5, 7} {
		paths := make([]string, n)
		for i := range paths {
			paths[i] = facePaths[i%len(facePaths)]
		}
		_, err := renderer.LoadCubemap(ctx, src, paths)
		assert.ErrorIs(t, err, core.ErrInvalidFaceCount, "%d faces", n)

		var countErr *core.InvalidFaceCountError
		require.ErrorAs(t, err, &countErr)
		assert.Equal(t, n, countErr.Count)
	}
	assert.Zero(t, ctx.Registry().Live())
}

func TestCubemapFacesMustMatch(t *testing.T) {
	ctx, _ := newTestContext(t, renderer.ContextConfig{})

	src := skySource(t)
	src.Set("sky/top.png", solidPNG(t, 4, 2, color.RGBA{A: 255}))
	_, err := renderer.LoadCubemap(ctx, src, facePaths)
	assert.ErrorIs(t, err, core.ErrInvalidImage)

	src = skySource(t)
	src.Set("sky/back.png", solidPNG(t, 8, 8, color.RGBA{A: 255}))
	_, err = renderer.LoadCubemap(ctx, src, facePaths)
	assert.ErrorIs(t, err, core.ErrInvalidImage)
}

func TestCubemapSetFacesReplacesTexture(t *testing.T) {
	ctx, device := newTestContext(t, renderer.ContextConfig{})
	src := skySource(t)

	cube := renderer.NewCubemap(ctx)
	defer cube.Destroy()
	assert.Zero(t, cube.Handle())

	require.NoError(t, cube.SetFaces(src, facePaths))
	first := cube.Handle()
	require.NoError(t, cube.SetFaces(src, facePaths))

	assert.NotEqual(t, first, cube.Handle())
	assert.Equal(t, 1, device.CallCount("DeleteTexture"))
	_, _, ok := device.TextureSize(first, renderer.CubeFace(0))
	assert.False(t, ok)

	// a rejected face list leaves the current texture alone
	current := cube.Handle()
	assert.Error(t, cube.SetFaces(src, facePaths[:3]))
	assert.Equal(t, current, cube.Handle())
}
