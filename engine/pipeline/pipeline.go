// Package pipeline drives one frame through the offscreen target and the
// composite onto the screen.
package pipeline

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/rainfrog/engine/core"
	"github.com/spaghettifunk/rainfrog/engine/renderer"
	"github.com/spaghettifunk/rainfrog/engine/renderer/meshes"
)

type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseBeginFrame
	PhaseUpdateSharedUniforms
	PhaseBindOffscreenTarget
	PhaseClearTarget
	PhaseRenderOpaque
	PhaseUnbindTarget
	PhaseClearScreen
	PhaseComposite
	PhasePresent
)

var phaseNames = [...]string{
	"idle",
	"begin_frame",
	"update_shared_uniforms",
	"bind_offscreen_target",
	"clear_target",
	"render_opaque",
	"unbind_target",
	"clear_screen",
	"composite",
	"present",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// Stage orders the passes drawn into the offscreen target.
type Stage uint8

const (
	Stage2D Stage = iota
	StageSkybox
	Stage3D
	stageCount
)

// Pass draws into whatever the pipeline has bound when it runs.
type Pass func(ctx *renderer.Context) error

// Frame carries the per frame camera matrices.
type Frame struct {
	Projection mgl32.Mat4
	View       mgl32.Mat4
	DeltaTime  float64
}

type Config struct {
	Width  int32
	Height int32
	// ClearColor is used for both the offscreen target and the screen.
	ClearColor [4]float32
	// Present swaps the window buffers. Headless pipelines leave it nil.
	Present func()
}

// FramePipeline is single threaded and not reentrant: a pass calling
// RenderFrame gets ErrFrameInFlight.
type FramePipeline struct {
	ctx      *renderer.Context
	config   Config
	target   *renderer.RenderTarget
	uniforms *renderer.SharedUniformBlock
	screen   *renderer.ShaderProgram
	quad     *meshes.Quad
	passes   [stageCount][]Pass

	phase Phase
	// window size, may be zero while minimized
	width  int32
	height int32
	// Resizing is set when the window size changed since the last frame.
	Resizing    bool
	frameNumber uint64
}

// New creates the offscreen target, the shared uniform block and the
// composite quad. screen samples "screenTexture" and is borrowed.
func New(ctx *renderer.Context, screen *renderer.ShaderProgram, config Config) (*FramePipeline, error) {
	target, err := renderer.NewRenderTarget(ctx, config.Width, config.Height)
	if err != nil {
		return nil, err
	}
	uniforms, err := renderer.NewSharedUniformBlock(ctx)
	if err != nil {
		target.Destroy()
		return nil, err
	}
	quad, err := meshes.NewQuad(ctx, screen)
	if err != nil {
		uniforms.Destroy()
		target.Destroy()
		return nil, err
	}

	p := &FramePipeline{
		ctx:      ctx,
		config:   config,
		target:   target,
		uniforms: uniforms,
		screen:   screen,
		quad:     quad,
		width:    config.Width,
		height:   config.Height,
	}
	core.LogDebug("frame pipeline created (%dx%d)", config.Width, config.Height)
	return p, nil
}

// AddPass appends a pass to a stage. Passes of a stage run in the order
// they were added.
func (p *FramePipeline) AddPass(stage Stage, pass Pass) {
	p.passes[stage] = append(p.passes[stage], pass)
}

// Attach makes a program read the shared matrices block.
func (p *FramePipeline) Attach(program *renderer.ShaderProgram) bool {
	return p.uniforms.Attach(program)
}

func (p *FramePipeline) Phase() Phase {
	return p.phase
}

func (p *FramePipeline) FrameNumber() uint64 {
	return p.frameNumber
}

func (p *FramePipeline) Target() *renderer.RenderTarget {
	return p.target
}

func (p *FramePipeline) Size() (int32, int32) {
	return p.width, p.height
}

// Resize records the window size. The target follows on the next frame
// with a non zero size; a zero size only pauses rendering.
func (p *FramePipeline) Resize(width, height int32) {
	p.width, p.height = width, height
	p.Resizing = true
}

func (p *FramePipeline) minimized() bool {
	return p.width <= 0 || p.height <= 0
}

// RenderFrame runs every phase in order. When the window has no area the
// frame is skipped without touching the device.
func (p *FramePipeline) RenderFrame(frame Frame) error {
	if p.phase != PhaseIdle {
		return fmt.Errorf("%w: in %s", core.ErrFrameInFlight, p.phase)
	}
	if p.minimized() {
		return nil
	}
	defer func() { p.phase = PhaseIdle }()

	p.phase = PhaseBeginFrame
	p.frameNumber++
	if p.Resizing {
		if err := p.applyResize(); err != nil {
			return err
		}
	}

	p.phase = PhaseUpdateSharedUniforms
	if err := p.uniforms.Update(frame.Projection, frame.View); err != nil {
		return err
	}

	p.phase = PhaseBindOffscreenTarget
	p.target.Bind()

	p.phase = PhaseClearTarget
	c := p.config.ClearColor
	p.ctx.ClearColor(c[0], c[1], c[2], c[3])
	p.ctx.Clear(renderer.ClearColorBit | renderer.ClearDepthBit)

	p.phase = PhaseRenderOpaque
	if err := p.renderOpaque(); err != nil {
		p.ctx.BindFramebuffer(0)
		return err
	}

	p.phase = PhaseUnbindTarget
	p.ctx.BindFramebuffer(0)
	p.ctx.Viewport(0, 0, p.width, p.height)

	p.phase = PhaseClearScreen
	p.ctx.Clear(renderer.ClearColorBit | renderer.ClearDepthBit)

	p.phase = PhaseComposite
	if err := p.composite(); err != nil {
		return err
	}

	p.phase = PhasePresent
	if p.config.Present != nil {
		p.config.Present()
	}
	return nil
}

func (p *FramePipeline) applyResize() error {
	if p.width != p.target.Width() || p.height != p.target.Height() {
		if err := p.target.Resize(p.width, p.height); err != nil {
			return fmt.Errorf("resize offscreen target: %w", err)
		}
		core.LogDebug("offscreen target resized to %dx%d", p.width, p.height)
	}
	p.Resizing = false
	return nil
}

func (p *FramePipeline) renderOpaque() error {
	depth := p.ctx.PushCapability(renderer.DepthTest, true)
	defer depth.Release()

	for stage := range p.passes {
		for _, pass := range p.passes[stage] {
			if err := pass(p.ctx); err != nil {
				return fmt.Errorf("%s pass: %w", Stage(stage), err)
			}
		}
	}
	return nil
}

func (p *FramePipeline) composite() error {
	depth := p.ctx.PushCapability(renderer.DepthTest, false)
	defer depth.Release()

	p.screen.Use()
	if err := p.screen.SetInt("screenTexture", 0); err != nil {
		return err
	}
	p.target.ColorTexture().Bind(0)
	p.quad.Draw()
	return nil
}

// Destroy releases what New created. The screen program is not owned.
func (p *FramePipeline) Destroy() {
	p.quad.Destroy()
	p.uniforms.Destroy()
	p.target.Destroy()
}

func (s Stage) String() string {
	switch s {
	case Stage2D:
		return "2d"
	case StageSkybox:
		return "skybox"
	case Stage3D:
		return "3d"
	}
	return fmt.Sprintf("stage(%d)", uint8(s))
}
