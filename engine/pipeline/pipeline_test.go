package pipeline_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/rainfrog/engine/core"
	"github.com/spaghettifunk/rainfrog/engine/pipeline"
	"github.com/spaghettifunk/rainfrog/engine/renderer"
	"github.com/spaghettifunk/rainfrog/engine/renderer/meshes"
	"github.com/spaghettifunk/rainfrog/engine/renderer/soft"
)

const screenVertex = `#version 430 core
layout (location = 0) in vec3 aPosition;
layout (location = 1) in vec2 aTexCoords;
out vec2 TexCoords;
void main()
{
    TexCoords = aTexCoords;
    gl_Position = vec4(aPosition, 1.0);
}
`

const screenFragment = `#version 430 core
in vec2 TexCoords;
out vec4 FragColor;
uniform sampler2D screenTexture;
void main() { FragColor = texture(screenTexture, TexCoords); }
`

const sceneVertex = `#version 430 core
layout (location = 0) in vec3 aPosition;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec2 aTexCoords;
layout (std140) uniform Matrices
{
    mat4 projection;
    mat4 view;
};
uniform mat4 model;
void main() { gl_Position = projection * view * model * vec4(aPosition, 1.0); }
`

const sceneFragment = `#version 430 core
out vec4 FragColor;
uniform vec3 albedo;
void main() { FragColor = vec4(albedo, 1.0); }
`

type fixture struct {
	ctx      *renderer.Context
	device   *soft.Device
	pipeline *pipeline.FramePipeline
	presents int
}

func newFixture(t *testing.T, width, height int32, clear [4]float32) *fixture {
	t.Helper()
	f := &fixture{device: soft.New(width, height)}
	f.ctx = renderer.NewContext(f.device, renderer.ContextConfig{Strict: true})

	screen, err := renderer.NewShaderProgram(f.ctx,
		renderer.StageSource{Stage: core.ShaderStageVertex, Source: screenVertex},
		renderer.StageSource{Stage: core.ShaderStageFragment, Source: screenFragment},
	)
	require.NoError(t, err)

	f.pipeline, err = pipeline.New(f.ctx, screen, pipeline.Config{
		Width:      width,
		Height:     height,
		ClearColor: clear,
		Present:    func() { f.presents++ },
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		f.pipeline.Destroy()
		screen.Destroy()
		assert.NoError(t, f.ctx.Shutdown())
	})
	return f
}

func identityFrame() pipeline.Frame {
	return pipeline.Frame{Projection: mgl32.Ident4(), View: mgl32.Ident4()}
}

func TestRenderFrameCompositesTarget(t *testing.T) {
	f := newFixture(t, 64, 64, [4]float32{1, 0, 0, 1})

	require.NoError(t, f.pipeline.RenderFrame(identityFrame()))

	assert.Equal(t, 1, f.presents)
	assert.Equal(t, uint64(1), f.pipeline.FrameNumber())
	assert.Equal(t, pipeline.PhaseIdle, f.pipeline.Phase())
	assert.Equal(t, renderer.Handle(0), f.ctx.CurrentFramebuffer())
	assert.Equal(t, [4]byte{255, 0, 0, 255}, f.device.Pixel(32, 32))

	draw, ok := f.device.LastDraw()
	require.True(t, ok)
	assert.Equal(t, int32(6), draw.Count, "composite is the last draw")
}

func TestRenderFrameSkippedWhileMinimized(t *testing.T) {
	f := newFixture(t, 800, 600, [4]float32{0, 0, 0, 1})
	require.NoError(t, f.pipeline.RenderFrame(identityFrame()))
	require.Equal(t, 1, f.presents)

	f.device.ResetCalls()
	f.pipeline.Resize(0, 0)
	require.NoError(t, f.pipeline.RenderFrame(identityFrame()))

	assert.Zero(t, f.device.Calls())
	assert.Equal(t, 1, f.presents)
	assert.Equal(t, int32(800), f.pipeline.Target().Width())
	assert.Equal(t, int32(600), f.pipeline.Target().Height())

	// restoring the old size renders again without reallocating
	f.pipeline.Resize(800, 600)
	require.NoError(t, f.pipeline.RenderFrame(identityFrame()))
	assert.Equal(t, 2, f.presents)
	assert.Zero(t, f.device.CallCount("TexImage2D"))
	assert.Zero(t, f.device.CallCount("RenderbufferStorage"))
	assert.False(t, f.pipeline.Resizing)
}

func TestResizeAppliesBeforeBind(t *testing.T) {
	f := newFixture(t, 64, 64, [4]float32{0, 0, 1, 1})
	f.pipeline.Resize(32, 16)
	assert.Equal(t, int32(64), f.pipeline.Target().Width(), "resize waits for the next frame")

	var seen [2]int32
	f.pipeline.AddPass(pipeline.Stage3D, func(ctx *renderer.Context) error {
		seen = [2]int32{f.pipeline.Target().Width(), f.pipeline.Target().Height()}
		return nil
	})
	require.NoError(t, f.pipeline.RenderFrame(identityFrame()))

	assert.Equal(t, [2]int32{32, 16}, seen)
	rt := f.pipeline.Target()
	w, h, ok := f.device.TextureSize(rt.ColorTexture().Handle(), renderer.Texture2DTarget)
	require.True(t, ok)
	assert.Equal(t, [2]int32{32, 16}, [2]int32{w, h})
	w, h, _ = f.device.RenderbufferSize(rt.Renderbuffer().Handle())
	assert.Equal(t, [2]int32{32, 16}, [2]int32{w, h})
}

func TestPassesRunInStageOrderIntoTarget(t *testing.T) {
	f := newFixture(t, 64, 64, [4]float32{})
	target := f.pipeline.Target().Framebuffer().Handle()

	var order []string
	record := func(name string) pipeline.Pass {
		return func(ctx *renderer.Context) error {
			assert.Equal(t, target, ctx.CurrentFramebuffer())
			assert.True(t, ctx.IsEnabled(renderer.DepthTest))
			assert.Equal(t, pipeline.PhaseRenderOpaque, f.pipeline.Phase())
			order = append(order, name)
			return nil
		}
	}
	f.pipeline.AddPass(pipeline.Stage3D, record("spheres"))
	f.pipeline.AddPass(pipeline.Stage2D, record("sprite"))
	f.pipeline.AddPass(pipeline.StageSkybox, record("skybox"))
	f.pipeline.AddPass(pipeline.Stage3D, record("cubes"))

	require.NoError(t, f.pipeline.RenderFrame(identityFrame()))

	assert.Equal(t, []string{"sprite", "skybox", "spheres", "cubes"}, order)
	assert.False(t, f.ctx.IsEnabled(renderer.DepthTest))
}

func TestRenderFrameIsNotReentrant(t *testing.T) {
	f := newFixture(t, 64, 64, [4]float32{})

	var inner error
	f.pipeline.AddPass(pipeline.Stage2D, func(ctx *renderer.Context) error {
		inner = f.pipeline.RenderFrame(identityFrame())
		return inner
	})

	err := f.pipeline.RenderFrame(identityFrame())
	assert.ErrorIs(t, inner, core.ErrFrameInFlight)
	assert.ErrorIs(t, err, core.ErrFrameInFlight)
	assert.Zero(t, f.presents)
	assert.Equal(t, pipeline.PhaseIdle, f.pipeline.Phase())
	assert.Equal(t, renderer.Handle(0), f.ctx.CurrentFramebuffer())
}

func TestSharedUniformsReachPasses(t *testing.T) {
	f := newFixture(t, 64, 64, [4]float32{})

	program, err := renderer.NewShaderProgram(f.ctx,
		renderer.StageSource{Stage: core.ShaderStageVertex, Source: sceneVertex},
		renderer.StageSource{Stage: core.ShaderStageFragment, Source: sceneFragment},
	)
	require.NoError(t, err)
	defer program.Destroy()
	require.True(t, f.pipeline.Attach(program))

	cube, err := meshes.NewCube(f.ctx, program)
	require.NoError(t, err)
	defer cube.Destroy()

	f.pipeline.AddPass(pipeline.Stage3D, func(ctx *renderer.Context) error {
		return cube.Draw(mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, 1, 0)
	})

	frame := pipeline.Frame{
		Projection: mgl32.Perspective(mgl32.DegToRad(45), 1, 0.1, 100),
		View:       mgl32.Translate3D(0, 0, -3),
	}
	require.NoError(t, f.pipeline.RenderFrame(frame))

	draws := f.device.Draws()
	require.Len(t, draws, 2)
	matrices := draws[0].Blocks[renderer.SharedUniformBlockName]
	assert.Equal(t, frame.Projection[:], matrices[:16])
	assert.Equal(t, frame.View[:], matrices[16:])
	assert.Equal(t, [4]byte{0, 255, 0, 255}, f.device.Pixel(32, 32))
}
