package components

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/rainfrog/engine/math"
)

// pitchLimit is 89 degrees, keeping the camera off the poles.
const pitchLimit = float32(1.55334306)

const (
	DefaultFov  = float32(45)
	DefaultNear = float32(0.1)
	DefaultFar  = float32(100)
)

// Camera is a free fly camera. Position and rotation go through the
// setters so the cached view matrix is rebuilt only when needed.
type Camera struct {
	position mgl32.Vec3
	// pitch, yaw, roll in radians
	euler mgl32.Vec3
	dirty bool
	view  mgl32.Mat4

	// Fov is the vertical field of view in degrees.
	Fov  float32
	Near float32
	Far  float32
}

func NewCamera() *Camera {
	c := &Camera{}
	c.Reset()
	return c
}

func (c *Camera) Reset() {
	c.position = mgl32.Vec3{}
	c.euler = mgl32.Vec3{}
	c.view = mgl32.Ident4()
	c.dirty = false
	c.Fov = DefaultFov
	c.Near = DefaultNear
	c.Far = DefaultFar
}

func (c *Camera) Position() mgl32.Vec3 {
	return c.position
}

func (c *Camera) SetPosition(position mgl32.Vec3) {
	c.position = position
	c.dirty = true
}

func (c *Camera) EulerRotation() mgl32.Vec3 {
	return c.euler
}

func (c *Camera) SetEulerRotation(rotation mgl32.Vec3) {
	c.euler = rotation
	c.euler[0] = math.Clamp(c.euler[0], -pitchLimit, pitchLimit)
	c.dirty = true
}

// View is the inverse of the camera's world transform.
func (c *Camera) View() mgl32.Mat4 {
	if c.dirty {
		rotation := mgl32.AnglesToQuat(c.euler[0], c.euler[1], c.euler[2], mgl32.XYZ).Mat4()
		translation := mgl32.Translate3D(c.position.Elem())
		c.view = translation.Mul4(rotation).Inv()
		c.dirty = false
	}
	return c.view
}

// Projection is a perspective projection for the given aspect ratio.
func (c *Camera) Projection(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.Fov), aspect, c.Near, c.Far)
}

func (c *Camera) Forward() mgl32.Vec3 {
	v := c.View()
	return mgl32.Vec3{-v[2], -v[6], -v[10]}.Normalize()
}

func (c *Camera) Backward() mgl32.Vec3 {
	return c.Forward().Mul(-1)
}

func (c *Camera) Right() mgl32.Vec3 {
	v := c.View()
	return mgl32.Vec3{v[0], v[4], v[8]}.Normalize()
}

func (c *Camera) Left() mgl32.Vec3 {
	return c.Right().Mul(-1)
}

func (c *Camera) move(direction mgl32.Vec3, amount float32) {
	c.position = c.position.Add(direction.Mul(amount))
	c.dirty = true
}

func (c *Camera) MoveForward(amount float32) {
	c.move(c.Forward(), amount)
}

func (c *Camera) MoveBackward(amount float32) {
	c.move(c.Backward(), amount)
}

func (c *Camera) MoveLeft(amount float32) {
	c.move(c.Left(), amount)
}

func (c *Camera) MoveRight(amount float32) {
	c.move(c.Right(), amount)
}

func (c *Camera) MoveUp(amount float32) {
	c.move(mgl32.Vec3{0, 1, 0}, amount)
}

func (c *Camera) MoveDown(amount float32) {
	c.move(mgl32.Vec3{0, -1, 0}, amount)
}

func (c *Camera) Yaw(amount float32) {
	c.euler[1] = math.WrapAngle(c.euler[1] + amount)
	c.dirty = true
}

func (c *Camera) Pitch(amount float32) {
	c.euler[0] = math.Clamp(c.euler[0]+amount, -pitchLimit, pitchLimit)
	c.dirty = true
}

// Zoom narrows or widens the field of view, kept between 1 and 45 degrees.
func (c *Camera) Zoom(amount float32) {
	c.Fov = math.Clamp(c.Fov-amount, 1, DefaultFov)
}
