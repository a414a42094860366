package renderer_test

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/rainfrog/engine/assets"
	"github.com/spaghettifunk/rainfrog/engine/core"
	"github.com/spaghettifunk/rainfrog/engine/renderer"
)

func shaderSource() *assets.MemorySource {
	return assets.NewMemorySource(map[string]string{
		"shaders/scene.vert":  sceneVertex,
		"shaders/scene.frag":  sceneFragment,
		"shaders/screen.vert": screenVertex,
		"shaders/screen.frag": screenFragment,
		"shaders/blur.comp":   computeSource,
	})
}

func TestLoadShaderProgram(t *testing.T) {
	ctx, device := newTestContext(t, renderer.ContextConfig{})

	program, err := renderer.LoadShaderProgram(ctx, shaderSource(), "shaders/scene.vert", "shaders/scene.frag")
	require.NoError(t, err)
	defer program.Destroy()

	assert.NotZero(t, program.Handle())
	assert.Equal(t, "scene.vert+scene.frag", program.Name())
	assert.Equal(t, []string{"shaders/scene.vert", "shaders/scene.frag"}, program.Paths())
	assert.Equal(t, device.CallCount("CreateShader"), device.CallCount("DeleteShader"))
	assert.Equal(t, 2, device.CallCount("DetachShader"))
}

func TestShaderCompileError(t *testing.T) {
	ctx, device := newTestContext(t, renderer.ContextConfig{})
	src := shaderSource()
	src.Set("shaders/broken.frag", []byte("#version 430 core\nout vec4 FragColor;\n"))

	_, err := renderer.LoadShaderProgram(ctx, src, "shaders/scene.vert", "shaders/broken.frag")
	require.ErrorIs(t, err, core.ErrShaderCompile)

	var compileErr *core.ShaderCompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, core.ShaderStageFragment, compileErr.Stage)
	assert.Equal(t, "shaders/broken.frag", compileErr.Path)
	assert.Contains(t, compileErr.Log, "main")

	assert.Equal(t, device.CallCount("CreateShader"), device.CallCount("DeleteShader"))
	assert.Zero(t, device.CallCount("CreateProgram"))
	assert.Zero(t, ctx.Registry().Live())
}

func TestShaderLinkError(t *testing.T) {
	ctx, device := newTestContext(t, renderer.ContextConfig{})

	_, err := renderer.NewShaderProgram(ctx,
		renderer.StageSource{Stage: core.ShaderStageVertex, Source: sceneVertex},
	)
	require.ErrorIs(t, err, core.ErrShaderLink)

	var linkErr *core.ShaderLinkError
	require.ErrorAs(t, err, &linkErr)
	assert.NotEmpty(t, linkErr.Log)
	assert.Equal(t, 1, device.CallCount("DeleteProgram"))
	assert.Zero(t, device.LiveObjects())
}

func TestShaderMissingAsset(t *testing.T) {
	ctx, _ := newTestContext(t, renderer.ContextConfig{})

	_, err := renderer.LoadShaderProgram(ctx, shaderSource(), "shaders/scene.vert", "shaders/nope.frag")
	assert.ErrorIs(t, err, core.ErrAssetRead)

	var readErr *core.AssetReadError
	require.ErrorAs(t, err, &readErr)
	assert.Equal(t, "shaders/nope.frag", readErr.Path)
}

func TestSetUniformRequiresCurrentProgram(t *testing.T) {
	ctx, _ := newTestContext(t, renderer.ContextConfig{})
	scene := newProgram(t, ctx, sceneVertex, sceneFragment)
	screen := newProgram(t, ctx, screenVertex, screenFragment)
	defer scene.Destroy()
	defer screen.Destroy()

	screen.Use()
	err := scene.SetFloat("metallic", 0.5)
	assert.ErrorIs(t, err, core.ErrProgramNotBound)

	scene.Use()
	assert.NoError(t, scene.SetFloat("metallic", 0.5))
}

func TestSetUniformValues(t *testing.T) {
	ctx, device := newTestContext(t, renderer.ContextConfig{Strict: true})
	program := newProgram(t, ctx, sceneVertex, sceneFragment)
	defer program.Destroy()
	program.Use()

	model := mgl32.Translate3D(1, 2, 3)
	require.NoError(t, program.SetMatrix4("model", model))
	require.NoError(t, program.SetVector3("albedo", mgl32.Vec3{0.5, 0, 0}))
	require.NoError(t, program.SetFloat("roughness", 0.25))

	got, ok := device.UniformValue(program.Handle(), "model")
	require.True(t, ok)
	assert.Equal(t, model[:], got)

	got, ok = device.UniformValue(program.Handle(), "albedo")
	require.True(t, ok)
	assert.Equal(t, []float32{0.5, 0, 0}, got)

	got, ok = device.UniformValue(program.Handle(), "roughness")
	require.True(t, ok)
	assert.Equal(t, []float32{0.25}, got)
}

func TestMissingUniformWarnsOnce(t *testing.T) {
	logs := captureLog(t)
	ctx, _ := newTestContext(t, renderer.ContextConfig{})
	program := newProgram(t, ctx, sceneVertex, sceneFragment)
	defer program.Destroy()
	program.Use()

	for i := 0; i < 5; i++ {
		assert.NoError(t, program.SetFloat("exposure", 1))
	}
	assert.NoError(t, program.SetFloat("gamma", 2.2))

	out := logs.String()
	assert.Equal(t, 2, strings.Count(out, "uniform not found"))
	assert.Equal(t, 1, strings.Count(out, "exposure"))
}

func TestMissingUniformStrict(t *testing.T) {
	ctx, _ := newTestContext(t, renderer.ContextConfig{Strict: true})
	program := newProgram(t, ctx, sceneVertex, sceneFragment)
	defer program.Destroy()
	program.Use()

	err := program.SetVector4("tint", mgl32.Vec4{1, 1, 1, 1})
	assert.ErrorIs(t, err, core.ErrUniformNotFound)
	assert.Contains(t, err.Error(), "tint")
}

func TestRebuildSwapsHandle(t *testing.T) {
	ctx, device := newTestContext(t, renderer.ContextConfig{Strict: true})
	src := shaderSource()
	program, err := renderer.LoadShaderProgram(ctx, src, "shaders/scene.vert", "shaders/scene.frag")
	require.NoError(t, err)
	defer program.Destroy()

	program.Use()
	old := program.Handle()

	src.Set("shaders/scene.frag", []byte(strings.Replace(sceneFragment, "uniform float ao;", "uniform float ao;\nuniform float exposure;", 1)))
	require.NoError(t, program.Rebuild())

	assert.NotEqual(t, old, program.Handle())
	assert.Equal(t, program.Handle(), device.CurrentProgram())
	assert.Equal(t, 1, ctx.Registry().Live())

	program.Use()
	require.NoError(t, program.SetFloat("exposure", 1.5))
	got, ok := device.UniformValue(program.Handle(), "exposure")
	require.True(t, ok)
	assert.Equal(t, []float32{1.5}, got)
}

func TestRebuildFailureKeepsProgram(t *testing.T) {
	ctx, _ := newTestContext(t, renderer.ContextConfig{})
	src := shaderSource()
	program, err := renderer.LoadShaderProgram(ctx, src, "shaders/scene.vert", "shaders/scene.frag")
	require.NoError(t, err)
	defer program.Destroy()

	program.Use()
	old := program.Handle()

	src.Set("shaders/scene.frag", []byte("garbage {"))
	err = program.Rebuild()
	assert.ErrorIs(t, err, core.ErrShaderCompile)
	assert.Equal(t, old, program.Handle())
	assert.NoError(t, program.SetFloat("metallic", 1))
}

func TestRebuildInMemoryProgram(t *testing.T) {
	ctx, _ := newTestContext(t, renderer.ContextConfig{})
	program := newProgram(t, ctx, screenVertex, screenFragment)
	defer program.Destroy()

	old := program.Handle()
	require.NoError(t, program.Rebuild())
	assert.NotEqual(t, old, program.Handle())
}

func TestComputeProgramDispatch(t *testing.T) {
	ctx, device := newTestContext(t, renderer.ContextConfig{})

	program, err := renderer.LoadComputeProgram(ctx, shaderSource(), "shaders/blur.comp")
	require.NoError(t, err)
	defer program.Destroy()

	require.NoError(t, program.Dispatch(8, 4, 1))
	assert.Equal(t, [][3]uint32{{8, 4, 1}}, device.Dispatches())
	assert.NoError(t, program.SetFloat("time", 1))

	graphics := newProgram(t, ctx, screenVertex, screenFragment)
	defer graphics.Destroy()
	assert.Error(t, graphics.Dispatch(1, 1, 1))
}
