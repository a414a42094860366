package meshes_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/rainfrog/engine/assets"
	"github.com/spaghettifunk/rainfrog/engine/core"
	"github.com/spaghettifunk/rainfrog/engine/renderer"
	"github.com/spaghettifunk/rainfrog/engine/renderer/meshes"
	"github.com/spaghettifunk/rainfrog/engine/renderer/soft"
)

const litVertex = `#version 430 core
layout (location = 0) in vec3 aPosition;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec2 aTexCoords;
uniform mat4 model;
void main() { gl_Position = model * vec4(aPosition, 1.0); }
`

const litFragment = `#version 430 core
out vec4 FragColor;
uniform vec3 albedo;
uniform float metallic;
uniform float roughness;
uniform float ao;
void main() { FragColor = vec4(albedo * ao, 1.0); }
`

const skyboxVertex = `#version 430 core
layout (location = 0) in vec3 aPosition;
out vec3 TexCoords;
layout (std140) uniform Matrices
{
    mat4 projection;
    mat4 view;
};
void main()
{
    TexCoords = aPosition;
    gl_Position = (projection * mat4(mat3(view)) * vec4(aPosition, 1.0)).xyww;
}
`

const skyboxFragment = `#version 430 core
in vec3 TexCoords;
out vec4 FragColor;
uniform samplerCube skybox;
void main() { FragColor = texture(skybox, TexCoords); }
`

func setup(t *testing.T, vertex, fragment string) (*renderer.Context, *soft.Device, *renderer.ShaderProgram) {
	t.Helper()
	device := soft.New(32, 32)
	ctx := renderer.NewContext(device, renderer.ContextConfig{Strict: true})
	program, err := renderer.NewShaderProgram(ctx,
		renderer.StageSource{Stage: core.ShaderStageVertex, Source: vertex},
		renderer.StageSource{Stage: core.ShaderStageFragment, Source: fragment},
	)
	require.NoError(t, err)
	t.Cleanup(program.Destroy)
	return ctx, device, program
}

func TestCubeDraw(t *testing.T) {
	ctx, device, program := setup(t, litVertex, litFragment)
	program.Use()
	require.NoError(t, program.SetFloat("ao", 1))

	cube, err := meshes.NewCube(ctx, program)
	require.NoError(t, err)
	defer cube.Destroy()

	require.NoError(t, cube.Draw(mgl32.Vec3{0.25, 0, 0}, mgl32.Vec3{1, 0, 0}, 1, 0))

	draw, ok := device.LastDraw()
	require.True(t, ok)
	assert.Equal(t, renderer.Triangles, draw.Mode)
	assert.Equal(t, int32(36), draw.Count)

	model, ok := device.UniformValue(program.Handle(), "model")
	require.True(t, ok)
	expected := mgl32.Translate3D(0.25, 0, 0)
	assert.Equal(t, expected[:], model)

	assert.Equal(t, [4]byte{255, 0, 0, 255}, device.Pixel(18, 16))
	assert.Equal(t, [4]byte{0, 0, 0, 0}, device.Pixel(2, 16))
}

func TestSphereDrawMaterial(t *testing.T) {
	ctx, device, program := setup(t, litVertex, litFragment)

	sphere, err := meshes.NewSphere(ctx, program)
	require.NoError(t, err)
	defer sphere.Destroy()

	material := meshes.Material{Albedo: mgl32.Vec3{0, 0, 1}, Metallic: 0.5, Roughness: 0.25, AO: 1}
	require.NoError(t, sphere.DrawMaterial(mgl32.Vec3{}, 0.5, material))

	draw, ok := device.LastDraw()
	require.True(t, ok)
	assert.Equal(t, renderer.TriangleStrip, draw.Mode)
	assert.Equal(t, int32(64*130), draw.Count)
	assert.Positive(t, draw.Fragments)

	metallic, _ := device.UniformValue(program.Handle(), "metallic")
	assert.Equal(t, []float32{0.5}, metallic)
	roughness, _ := device.UniformValue(program.Handle(), "roughness")
	assert.Equal(t, []float32{0.25}, roughness)
	assert.Equal(t, [4]byte{0, 0, 255, 255}, device.Pixel(16, 16))
}

func TestQuadRejectsProgramWithoutTexCoords(t *testing.T) {
	ctx, _, program := setup(t, skyboxVertex, skyboxFragment)

	quad, err := meshes.NewQuad(ctx, program)
	assert.Nil(t, quad)
	assert.ErrorIs(t, err, core.ErrAttributeMismatch)
	assert.Equal(t, 1, ctx.Registry().Live(), "only the program stays registered")
}

func encodePNG(t *testing.T, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSkyboxDrawRestoresDepthFunc(t *testing.T) {
	ctx, device, program := setup(t, skyboxVertex, skyboxFragment)

	src := assets.NewMemorySource(nil)
	var faces []string
	for _, name := range []string{"right", "left", "top", "bottom", "front", "back"} {
		path := "skybox/" + name + ".png"
		src.Set(path, encodePNG(t, color.RGBA{0, 255, 0, 255}))
		faces = append(faces, path)
	}

	block, err := renderer.NewSharedUniformBlock(ctx)
	require.NoError(t, err)
	defer block.Destroy()
	require.True(t, block.Attach(program))
	require.NoError(t, block.Update(mgl32.Ident4(), mgl32.Ident4()))

	skybox, err := meshes.NewSkybox(ctx, program)
	require.NoError(t, err)
	defer skybox.Destroy()
	require.NoError(t, skybox.SetFaces(src, faces))
	assert.Equal(t, int32(2), skybox.Cubemap().Size())

	ctx.SetCapability(renderer.DepthTest, true)
	require.Equal(t, renderer.DepthLess, ctx.DepthFunc())
	before := device.CallCount("DepthFunc")

	require.NoError(t, skybox.Draw())

	assert.Equal(t, renderer.DepthLess, ctx.DepthFunc())
	assert.Equal(t, renderer.DepthLess, device.CurrentDepthFunc())
	assert.Equal(t, before+2, device.CallCount("DepthFunc"))

	draw, ok := device.LastDraw()
	require.True(t, ok)
	assert.Equal(t, int32(36), draw.Count)
	assert.Contains(t, draw.Blocks, renderer.SharedUniformBlockName)
}

const environmentFragment = `#version 430 core
out vec4 FragColor;
uniform vec3 albedo;
uniform float metallic;
uniform float roughness;
uniform float ao;
uniform samplerCube environment;
void main() { FragColor = vec4(texture(environment, vec3(0.0, 0.0, 1.0)).rgb * albedo * ao, 1.0); }
`

func TestSphereSamplesEnvironment(t *testing.T) {
	ctx, device, program := setup(t, litVertex, environmentFragment)
	skyProgram, err := renderer.NewShaderProgram(ctx,
		renderer.StageSource{Stage: core.ShaderStageVertex, Source: skyboxVertex},
		renderer.StageSource{Stage: core.ShaderStageFragment, Source: skyboxFragment},
	)
	require.NoError(t, err)
	defer skyProgram.Destroy()

	src := assets.NewMemorySource(nil)
	var faces []string
	for _, name := range []string{"right", "left", "top", "bottom", "front", "back"} {
		path := "skybox/" + name + ".png"
		src.Set(path, encodePNG(t, color.RGBA{0, 255, 0, 255}))
		faces = append(faces, path)
	}
	skybox, err := meshes.NewSkybox(ctx, skyProgram)
	require.NoError(t, err)
	defer skybox.Destroy()
	require.NoError(t, skybox.SetFaces(src, faces))

	sphere, err := meshes.NewSphere(ctx, program)
	require.NoError(t, err)
	defer sphere.Destroy()

	require.NoError(t, skybox.BindEnvironment(program))
	material := meshes.Material{Albedo: mgl32.Vec3{1, 1, 1}, Metallic: 0, Roughness: 0.5, AO: 1}
	require.NoError(t, sphere.DrawMaterial(mgl32.Vec3{}, 0.5, material))

	unit, ok := device.UniformValue(program.Handle(), "environment")
	require.True(t, ok)
	assert.Equal(t, []float32{float32(meshes.EnvironmentUnit)}, unit)
	// white albedo shows the sky color the sphere sampled
	assert.Equal(t, [4]byte{0, 255, 0, 255}, device.Pixel(16, 16))
}
