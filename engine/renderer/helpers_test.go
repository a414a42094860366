package renderer_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/rainfrog/engine/core"
	"github.com/spaghettifunk/rainfrog/engine/renderer"
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

void main()
{
    FragColor = texture(screenTexture, TexCoords);
}
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

void main()
{
    gl_Position = projection * view * model * vec4(aPosition, 1.0);
}
`

const sceneFragment = `#version 430 core
out vec4 FragColor;

uniform vec3 albedo;
uniform float metallic;
uniform float roughness;
uniform float ao;

void main()
{
    FragColor = vec4(albedo, 1.0);
}
`

const computeSource = `#version 430 core
layout (local_size_x = 8, local_size_y = 8) in;
uniform float time;
void main() {}
`

func newTestContext(t *testing.T, config renderer.ContextConfig) (*renderer.Context, *soft.Device) {
	t.Helper()
	device := soft.New(64, 64)
	return renderer.NewContext(device, config), device
}

func newProgram(t *testing.T, ctx *renderer.Context, vertex, fragment string) *renderer.ShaderProgram {
	t.Helper()
	program, err := renderer.NewShaderProgram(ctx,
		renderer.StageSource{Stage: core.ShaderStageVertex, Source: vertex},
		renderer.StageSource{Stage: core.ShaderStageFragment, Source: fragment},
	)
	require.NoError(t, err)
	return program
}

// captureLog sends engine log output to a buffer for the rest of the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	core.SetLogOutput(&buf)
	t.Cleanup(func() { core.SetLogOutput(os.Stderr) })
	return &buf
}

func solidPNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
