package soft

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanDeclarations(t *testing.T) {
	src := `#version 430 core
layout (location = 0) in vec3 aPosition;
in vec2 aTexCoords;

layout (std140) uniform Lights
{
    vec3 position;
    float intensity;
    mat4 shadow;
};

uniform mat4 model;
// uniform vec3 commented;
/* uniform vec3 alsoCommented; */
uniform vec3 lightColors[4];

void main() {}
`
	decl, log := scan(src)
	require.Empty(t, log)

	require.Len(t, decl.inputs, 2)
	assert.Equal(t, attribDecl{Type: "vec3", Name: "aPosition", Location: 0}, decl.inputs[0])
	assert.Equal(t, attribDecl{Type: "vec2", Name: "aTexCoords", Location: -1}, decl.inputs[1])

	assert.Equal(t, []uniformDecl{
		{Type: "mat4", Name: "model"},
		{Type: "vec3", Name: "lightColors", Array: 4},
	}, decl.uniforms)

	require.Len(t, decl.blocks, 1)
	block := decl.blocks[0]
	assert.Equal(t, "Lights", block.Name)
	assert.Equal(t, []blockMember{
		{Type: "vec3", Name: "position", Offset: 0},
		{Type: "float", Name: "intensity", Offset: 12},
		{Type: "mat4", Name: "shadow", Offset: 16},
	}, block.Members)
	assert.Equal(t, 80, block.Size)
}

func TestScanRejects(t *testing.T) {
	tests := []struct {
		name   string
		source string
		log    string
	}{
		{"empty", "  // nothing\n", "empty shader source"},
		{"braces", "void main() {", "unbalanced braces"},
		{"no main", "uniform float x;\nvoid other() {}", "'main' : function not defined"},
		{"block member", "uniform B { bool flag; };\nvoid main() {}", `unsupported member type "bool"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decl, log := scan(tt.source)
			assert.Nil(t, decl)
			assert.Contains(t, log, tt.log)
		})
	}
}

func TestScanAlphaDiscard(t *testing.T) {
	decl, log := scan(`#version 430 core
uniform sampler2D sprite;
void main()
{
    vec4 color = texture(sprite, TexCoords);
    if (color.a < 0.1)
        discard;
}
`)
	require.Empty(t, log)
	assert.InDelta(t, 0.1, decl.alphaCutoff, 1e-6)

	decl, log = scan("void main() {}")
	require.Empty(t, log)
	assert.Equal(t, float32(-1), decl.alphaCutoff)
}
