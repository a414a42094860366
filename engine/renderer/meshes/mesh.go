package meshes

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/rainfrog/engine/assets"
	"github.com/spaghettifunk/rainfrog/engine/renderer"
)

// mesh is the device side of a Geometry.
type mesh struct {
	program  *renderer.ShaderProgram
	array    *renderer.VertexArray
	vertices *renderer.Buffer
	indices  *renderer.Buffer
	mode     renderer.PrimitiveMode
}

func newMesh(ctx *renderer.Context, program *renderer.ShaderProgram, g Geometry) (*mesh, error) {
	vertices, err := renderer.NewVertexBuffer(ctx, g.Vertices, g.Layout, renderer.StaticDraw)
	if err != nil {
		return nil, err
	}
	indices, err := renderer.NewIndexBuffer(ctx, g.Indices)
	if err != nil {
		vertices.Destroy()
		return nil, err
	}
	array, err := renderer.NewVertexArrayFor(ctx, program)
	if err != nil {
		indices.Destroy()
		vertices.Destroy()
		return nil, err
	}
	m := &mesh{program: program, array: array, vertices: vertices, indices: indices, mode: g.Mode}
	if err := array.AddVertexBuffer(vertices); err != nil {
		m.Destroy()
		return nil, err
	}
	array.SetIndexBuffer(indices)
	return m, nil
}

func (m *mesh) draw() {
	m.array.Draw(m.mode)
}

// drawWith makes the program current, sets the model matrix and draws.
func (m *mesh) drawWith(model mgl32.Mat4) error {
	m.program.Use()
	if err := m.program.SetMatrix4("model", model); err != nil {
		return err
	}
	m.draw()
	return nil
}

// Program is the borrowed program the mesh draws with.
func (m *mesh) Program() *renderer.ShaderProgram {
	return m.program
}

// Destroy releases the vertex array first, then the buffers it references.
func (m *mesh) Destroy() {
	m.array.Destroy()
	m.indices.Destroy()
	m.vertices.Destroy()
}

type Quad struct {
	*mesh
}

func NewQuad(ctx *renderer.Context, program *renderer.ShaderProgram) (*Quad, error) {
	m, err := newMesh(ctx, program, QuadGeometry())
	if err != nil {
		return nil, err
	}
	return &Quad{mesh: m}, nil
}

// Draw covers the viewport, as used for full screen passes.
func (q *Quad) Draw() {
	q.program.Use()
	q.draw()
}

func (q *Quad) DrawTransformed(model mgl32.Mat4) error {
	return q.drawWith(model)
}

type Cube struct {
	*mesh
}

func NewCube(ctx *renderer.Context, program *renderer.ShaderProgram) (*Cube, error) {
	m, err := newMesh(ctx, program, CubeGeometry())
	if err != nil {
		return nil, err
	}
	return &Cube{mesh: m}, nil
}

// Draw places the cube at position, rotated by angle radians around X and Y.
func (c *Cube) Draw(position, color mgl32.Vec3, scale, angle float32) error {
	model := mgl32.Translate3D(position.Elem()).
		Mul4(mgl32.HomogRotate3DY(angle)).
		Mul4(mgl32.HomogRotate3DX(angle)).
		Mul4(mgl32.Scale3D(scale, scale, scale))

	c.program.Use()
	if err := c.program.SetVector3("albedo", color); err != nil {
		return err
	}
	return c.drawWith(model)
}

type Sphere struct {
	*mesh
}

func NewSphere(ctx *renderer.Context, program *renderer.ShaderProgram) (*Sphere, error) {
	m, err := newMesh(ctx, program, SphereGeometry(SphereSegments))
	if err != nil {
		return nil, err
	}
	return &Sphere{mesh: m}, nil
}

func sphereModel(position mgl32.Vec3, scale float32) mgl32.Mat4 {
	return mgl32.Translate3D(position.Elem()).Mul4(mgl32.Scale3D(scale, scale, scale))
}

func (s *Sphere) Draw(position mgl32.Vec3, scale float32) error {
	return s.drawWith(sphereModel(position, scale))
}

// Material holds the PBR inputs of one sphere.
type Material struct {
	Albedo    mgl32.Vec3
	Metallic  float32
	Roughness float32
	AO        float32
}

func (s *Sphere) DrawMaterial(position mgl32.Vec3, scale float32, material Material) error {
	s.program.Use()
	if err := s.program.SetVector3("albedo", material.Albedo); err != nil {
		return err
	}
	if err := s.program.SetFloat("metallic", material.Metallic); err != nil {
		return err
	}
	if err := s.program.SetFloat("roughness", material.Roughness); err != nil {
		return err
	}
	if err := s.program.SetFloat("ao", material.AO); err != nil {
		return err
	}
	return s.drawWith(sphereModel(position, scale))
}

// EnvironmentUnit is the texture unit lit programs read the sky cubemap from.
// Unit 0 stays free for 2D samplers.
const EnvironmentUnit uint32 = 1

// Skybox draws a cubemap behind everything else.
type Skybox struct {
	*mesh
	ctx     *renderer.Context
	cubemap *renderer.Cubemap
}

func NewSkybox(ctx *renderer.Context, program *renderer.ShaderProgram) (*Skybox, error) {
	m, err := newMesh(ctx, program, SkyboxGeometry())
	if err != nil {
		return nil, err
	}
	return &Skybox{mesh: m, ctx: ctx, cubemap: renderer.NewCubemap(ctx)}, nil
}

func (s *Skybox) Cubemap() *renderer.Cubemap {
	return s.cubemap
}

// BindEnvironment binds the sky cubemap to EnvironmentUnit and points the
// "environment" sampler of program at it.
func (s *Skybox) BindEnvironment(program *renderer.ShaderProgram) error {
	program.Use()
	if err := program.SetInt("environment", int32(EnvironmentUnit)); err != nil {
		return err
	}
	s.cubemap.Bind(EnvironmentUnit)
	return nil
}

// SetFaces replaces the cubemap images, ordered +X, -X, +Y, -Y, +Z, -Z.
func (s *Skybox) SetFaces(src assets.Source, paths []string) error {
	return s.cubemap.SetFaces(src, paths)
}

// Draw runs with the depth test at LEQUAL so the box, drawn at the far
// plane, passes against a cleared depth buffer. The previous depth function
// is restored on return.
func (s *Skybox) Draw() error {
	guard := s.ctx.PushDepthFunc(renderer.DepthLessEqual)
	defer guard.Release()

	s.program.Use()
	if err := s.program.SetInt("skybox", 0); err != nil {
		return err
	}
	s.cubemap.Bind(0)
	s.draw()
	return nil
}

func (s *Skybox) Destroy() {
	s.mesh.Destroy()
	s.cubemap.Destroy()
}
