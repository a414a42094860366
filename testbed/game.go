package testbed

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/rainfrog/engine"
	"github.com/spaghettifunk/rainfrog/engine/core"
	"github.com/spaghettifunk/rainfrog/engine/pipeline"
	"github.com/spaghettifunk/rainfrog/engine/renderer"
	"github.com/spaghettifunk/rainfrog/engine/renderer/components"
	"github.com/spaghettifunk/rainfrog/engine/renderer/meshes"
)

const (
	gridRows    = 7
	gridColumns = 7
	gridSpacing = float32(2.5)

	moveSpeed        = float32(5)
	mouseSensitivity = float32(0.002)
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	WorldCamera *components.Camera
	Lights      []components.PointLight

	width  int32
	height int32
	time   float64

	pbr    *renderer.ShaderProgram
	skybox *renderer.ShaderProgram
	sprite *renderer.ShaderProgram

	spheres     *meshes.Sphere
	cubes       *meshes.Cube
	sky         *meshes.Skybox
	spriteQuad  *meshes.Quad
	spriteImage *renderer.Texture2D

	// release runs in reverse order on unload
	release []func()
}

func NewTestGame() *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			State: &gameState{
				WorldCamera: components.NewCamera(),
				Lights: []components.PointLight{
					{Position: mgl32.Vec3{-10, 10, 10}, Color: mgl32.Vec3{300, 300, 300}},
					{Position: mgl32.Vec3{10, 10, 10}, Color: mgl32.Vec3{300, 300, 300}},
					{Position: mgl32.Vec3{-10, -10, 10}, Color: mgl32.Vec3{300, 300, 300}},
					{Position: mgl32.Vec3{10, -10, 10}, Color: mgl32.Vec3{300, 300, 300}},
				},
			},
		},
	}

	tg.FnOnLoad = tg.OnLoad
	tg.FnOnUpdate = tg.OnUpdate
	tg.FnOnRender = tg.OnRender
	tg.FnOnResize = tg.OnResize
	tg.FnOnUnload = tg.OnUnload

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) acquired(fn func()) {
	s := g.state()
	s.release = append(s.release, fn)
}

func (g *TestGame) loadProgram(vertex, fragment string) (*renderer.ShaderProgram, error) {
	program, err := renderer.LoadShaderProgram(g.Engine.Context(), g.Engine.Source(), vertex, fragment)
	if err != nil {
		return nil, err
	}
	g.Engine.TrackProgram(program)
	g.acquired(func() {
		g.Engine.UntrackProgram(program)
		program.Destroy()
	})
	return program, nil
}

func (g *TestGame) OnLoad() error {
	core.LogInfo("loading testbed scene...")

	s := g.state()
	ctx := g.Engine.Context()
	cfg := g.Engine.Config().Assets
	frame := g.Engine.Pipeline()

	var err error
	if s.pbr, err = g.loadProgram(cfg.PBRShader.Vertex, cfg.PBRShader.Fragment); err != nil {
		return err
	}
	if s.skybox, err = g.loadProgram(cfg.SkyboxShader.Vertex, cfg.SkyboxShader.Fragment); err != nil {
		return err
	}
	if s.sprite, err = g.loadProgram(cfg.SpriteShader.Vertex, cfg.SpriteShader.Fragment); err != nil {
		return err
	}
	frame.Attach(s.pbr)
	frame.Attach(s.skybox)

	if s.spheres, err = meshes.NewSphere(ctx, s.pbr); err != nil {
		return err
	}
	g.acquired(s.spheres.Destroy)

	if s.cubes, err = meshes.NewCube(ctx, s.pbr); err != nil {
		return err
	}
	g.acquired(s.cubes.Destroy)

	if s.sky, err = meshes.NewSkybox(ctx, s.skybox); err != nil {
		return err
	}
	g.acquired(s.sky.Destroy)
	if err := s.sky.SetFaces(g.Engine.Source(), cfg.Skybox); err != nil {
		return err
	}

	if s.spriteQuad, err = meshes.NewQuad(ctx, s.sprite); err != nil {
		return err
	}
	g.acquired(s.spriteQuad.Destroy)
	if s.spriteImage, err = renderer.LoadTexture2D(ctx, g.Engine.Source(), cfg.Sprite); err != nil {
		return err
	}
	g.acquired(s.spriteImage.Destroy)

	s.WorldCamera.SetPosition(mgl32.Vec3{0, 0, 20})

	frame.AddPass(pipeline.Stage2D, g.drawSprite)
	frame.AddPass(pipeline.StageSkybox, g.drawSkybox)
	frame.AddPass(pipeline.Stage3D, g.drawSpheres)
	frame.AddPass(pipeline.Stage3D, g.drawCubes)
	return nil
}

func (g *TestGame) OnUpdate(deltaTime float64) error {
	s := g.state()
	input := g.Engine.Input()
	camera := s.WorldCamera
	step := moveSpeed * float32(deltaTime)
	s.time += deltaTime

	if input.IsKeyDown(core.KEY_LSHIFT) {
		step *= 3
	}
	if input.IsKeyDown(core.KEY_W) || input.IsKeyDown(core.KEY_UP) {
		camera.MoveForward(step)
	}
	if input.IsKeyDown(core.KEY_S) || input.IsKeyDown(core.KEY_DOWN) {
		camera.MoveBackward(step)
	}
	if input.IsKeyDown(core.KEY_A) || input.IsKeyDown(core.KEY_LEFT) {
		camera.MoveLeft(step)
	}
	if input.IsKeyDown(core.KEY_D) || input.IsKeyDown(core.KEY_RIGHT) {
		camera.MoveRight(step)
	}
	if input.IsKeyDown(core.KEY_E) || input.IsKeyDown(core.KEY_SPACE) {
		camera.MoveUp(step)
	}
	if input.IsKeyDown(core.KEY_Q) {
		camera.MoveDown(step)
	}
	if input.IsButtonDown(core.BUTTON_RIGHT) {
		dx, dy := input.MouseDelta()
		camera.Yaw(-float32(dx) * mouseSensitivity)
		camera.Pitch(-float32(dy) * mouseSensitivity)
	}
	if input.IsKeyPressed(core.KEY_R) {
		camera.Reset()
		camera.SetPosition(mgl32.Vec3{0, 0, 20})
	}
	return nil
}

func (g *TestGame) OnRender(deltaTime float64) (pipeline.Frame, error) {
	s := g.state()
	aspect := float32(1)
	if s.height > 0 {
		aspect = float32(s.width) / float32(s.height)
	}
	return pipeline.Frame{
		Projection: s.WorldCamera.Projection(aspect),
		View:       s.WorldCamera.View(),
		DeltaTime:  deltaTime,
	}, nil
}

func (g *TestGame) OnResize(width, height int32) error {
	s := g.state()
	s.width = width
	s.height = height
	return nil
}

func (g *TestGame) OnUnload() error {
	s := g.state()
	for i := len(s.release) - 1; i >= 0; i-- {
		s.release[i]()
	}
	s.release = nil
	core.LogInfo("testbed scene unloaded")
	return nil
}

func (g *TestGame) drawSkybox(_ *renderer.Context) error {
	return g.state().sky.Draw()
}

// setLights uploads the camera position and the point lights.
func (g *TestGame) setLights(program *renderer.ShaderProgram) error {
	s := g.state()
	if err := program.SetVector3("camPos", s.WorldCamera.Position()); err != nil {
		return err
	}
	for i, light := range s.Lights {
		if i == components.MaxPointLights {
			break
		}
		position, color := components.LightUniformNames(i)
		if err := program.SetVector3(position, light.Position); err != nil {
			return err
		}
		if err := program.SetVector3(color, light.Color); err != nil {
			return err
		}
	}
	return nil
}

// drawSpheres draws a grid where metallic grows by row and roughness by column.
func (g *TestGame) drawSpheres(_ *renderer.Context) error {
	s := g.state()
	if err := s.sky.BindEnvironment(s.pbr); err != nil {
		return err
	}
	if err := g.setLights(s.pbr); err != nil {
		return err
	}
	for row := 0; row < gridRows; row++ {
		for col := 0; col < gridColumns; col++ {
			material := meshes.Material{
				Albedo:    mgl32.Vec3{0.5, 0, 0},
				Metallic:  float32(row) / gridRows,
				Roughness: mgl32.Clamp(float32(col)/gridColumns, 0.05, 1),
				AO:        1,
			}
			position := mgl32.Vec3{
				(float32(col) - gridColumns/2) * gridSpacing,
				(float32(row) - gridRows/2) * gridSpacing,
				0,
			}
			if err := s.spheres.DrawMaterial(position, 1, material); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *TestGame) drawCubes(_ *renderer.Context) error {
	s := g.state()
	angle := float32(s.time)
	if err := s.sky.BindEnvironment(s.pbr); err != nil {
		return err
	}
	cubes := []struct {
		position mgl32.Vec3
		color    mgl32.Vec3
	}{
		{mgl32.Vec3{-12, 0, 2}, mgl32.Vec3{0.1, 0.6, 0.2}},
		{mgl32.Vec3{12, 0, 2}, mgl32.Vec3{0.2, 0.3, 0.8}},
	}
	for _, c := range cubes {
		if err := s.cubes.Draw(c.position, c.color, 2, angle); err != nil {
			return err
		}
	}
	return nil
}

// drawSprite blends the sprite into the top left corner in clip space. It
// sits on the near plane so the skybox drawn after it fails the depth test.
func (g *TestGame) drawSprite(ctx *renderer.Context) error {
	s := g.state()
	blend := ctx.PushCapability(renderer.Blend, true)
	defer blend.Release()

	s.sprite.Use()
	if err := s.sprite.SetInt("sprite", 0); err != nil {
		return err
	}
	s.spriteImage.Bind(0)
	model := mgl32.Translate3D(-0.85, 0.8, -0.99).Mul4(mgl32.Scale3D(0.12, 0.15, 1))
	return s.spriteQuad.DrawTransformed(model)
}
