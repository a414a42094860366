package renderer_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/rainfrog/engine/renderer"
	"github.com/spaghettifunk/rainfrog/engine/renderer/meshes"
)

func TestSharedUniformBlockObservedAtDraw(t *testing.T) {
	ctx, device := newTestContext(t, renderer.ContextConfig{})
	program := newProgram(t, ctx, sceneVertex, sceneFragment)
	defer program.Destroy()

	block, err := renderer.NewSharedUniformBlock(ctx)
	require.NoError(t, err)
	defer block.Destroy()
	require.True(t, block.Attach(program))

	sphere, err := meshes.NewSphere(ctx, program)
	require.NoError(t, err)
	defer sphere.Destroy()

	projection := mgl32.Perspective(mgl32.DegToRad(45), 1, 0.1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	require.NoError(t, block.Update(projection, view))
	require.NoError(t, sphere.Draw(mgl32.Vec3{}, 1))

	draw, ok := device.LastDraw()
	require.True(t, ok)
	matrices := draw.Blocks[renderer.SharedUniformBlockName]
	require.Len(t, matrices, 32)
	assert.Equal(t, projection[:], matrices[:16])
	assert.Equal(t, view[:], matrices[16:])
	assert.Positive(t, draw.Fragments)

	// the next frame's values replace the whole block
	view = mgl32.LookAtV(mgl32.Vec3{3, 0, 3}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	require.NoError(t, block.Update(projection, view))
	require.NoError(t, sphere.Draw(mgl32.Vec3{}, 1))
	draw, _ = device.LastDraw()
	assert.Equal(t, view[:], draw.Blocks[renderer.SharedUniformBlockName][16:])
}

func TestSharedUniformBlockSurvivesRebuild(t *testing.T) {
	ctx, device := newTestContext(t, renderer.ContextConfig{})
	program := newProgram(t, ctx, sceneVertex, sceneFragment)
	defer program.Destroy()

	block, err := renderer.NewSharedUniformBlock(ctx)
	require.NoError(t, err)
	defer block.Destroy()
	require.True(t, block.Attach(program))
	require.NoError(t, program.Rebuild())

	cube, err := meshes.NewCube(ctx, program)
	require.NoError(t, err)
	defer cube.Destroy()

	view := mgl32.Translate3D(0, 0, -3)
	require.NoError(t, block.Update(mgl32.Ident4(), view))
	require.NoError(t, cube.Draw(mgl32.Vec3{}, mgl32.Vec3{1, 0, 0}, 1, 0))

	draw, ok := device.LastDraw()
	require.True(t, ok)
	assert.Equal(t, view[:], draw.Blocks[renderer.SharedUniformBlockName][16:])
}

func TestSharedUniformBlockIgnoresProgramsWithoutBlock(t *testing.T) {
	ctx, _ := newTestContext(t, renderer.ContextConfig{})
	program := newProgram(t, ctx, screenVertex, screenFragment)
	defer program.Destroy()

	block, err := renderer.NewSharedUniformBlock(ctx)
	require.NoError(t, err)
	defer block.Destroy()

	assert.False(t, block.Attach(program))
}
