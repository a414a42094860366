package components

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxPointLights is the size of the light arrays in the PBR shader.
const MaxPointLights = 4

type PointLight struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
}

// LightUniformNames returns the array element names light i is uploaded to.
func LightUniformNames(i int) (position, color string) {
	return fmt.Sprintf("lightPositions[%d]", i), fmt.Sprintf("lightColors[%d]", i)
}
