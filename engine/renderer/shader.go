package renderer

import (
	"fmt"
	"path"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/rainfrog/engine/assets"
	"github.com/spaghettifunk/rainfrog/engine/core"
)

// StageSource is the text of one shader stage. Path is empty for sources
// that only exist in memory.
type StageSource struct {
	Stage  core.ShaderStage
	Path   string
	Source string
}

// ShaderProgram is a linked program plus the stage sources it was built
// from, kept so it can be rebuilt in place.
type ShaderProgram struct {
	resource

	handle Handle
	name   string
	src    assets.Source
	stages []StageSource

	blocks map[string]uint32
	warned map[string]struct{}

	// generation counts successful rebuilds; vertex arrays compare it to
	// notice that input locations may have moved
	generation uint64
}

// LoadShaderProgram builds a vertex + fragment program from two assets.
func LoadShaderProgram(ctx *Context, src assets.Source, vertexPath, fragmentPath string) (*ShaderProgram, error) {
	return loadProgram(ctx, src,
		StageSource{Stage: core.ShaderStageVertex, Path: vertexPath},
		StageSource{Stage: core.ShaderStageFragment, Path: fragmentPath},
	)
}

// LoadComputeProgram builds a compute-only program.
func LoadComputeProgram(ctx *Context, src assets.Source, computePath string) (*ShaderProgram, error) {
	return loadProgram(ctx, src, StageSource{Stage: core.ShaderStageCompute, Path: computePath})
}

func loadProgram(ctx *Context, src assets.Source, stages ...StageSource) (*ShaderProgram, error) {
	if err := readStages(src, stages); err != nil {
		return nil, err
	}
	p, err := newProgram(ctx, stages)
	if err != nil {
		return nil, err
	}
	p.src = src
	return p, nil
}

// NewShaderProgram builds a program from sources already in memory. Such a
// program rebuilds from the same text.
func NewShaderProgram(ctx *Context, stages ...StageSource) (*ShaderProgram, error) {
	if len(stages) == 0 {
		return nil, &core.ShaderLinkError{Name: "program", Log: "no shader stages"}
	}
	return newProgram(ctx, append([]StageSource(nil), stages...))
}

func newProgram(ctx *Context, stages []StageSource) (*ShaderProgram, error) {
	p := &ShaderProgram{
		name:   programName(stages),
		stages: stages,
		blocks: make(map[string]uint32),
		warned: make(map[string]struct{}),
	}
	p.ctx = ctx
	handle, err := p.build(stages)
	if err != nil {
		return nil, err
	}
	p.handle = handle
	p.init(ctx, KindProgram, p.name)
	core.LogDebug("shader program %s linked (handle %d)", p.name, handle)
	return p, nil
}

func programName(stages []StageSource) string {
	names := make([]string, 0, len(stages))
	for _, s := range stages {
		if s.Path != "" {
			names = append(names, path.Base(s.Path))
		}
	}
	if len(names) == 0 {
		return "program"
	}
	return strings.Join(names, "+")
}

func readStages(src assets.Source, stages []StageSource) error {
	for i := range stages {
		if stages[i].Path == "" {
			continue
		}
		data, err := src.ReadFile(stages[i].Path)
		if err != nil {
			return err
		}
		stages[i].Source = string(data)
	}
	return nil
}

// build compiles, attaches and links the stages. Stage objects never
// outlive the call, whatever the outcome.
func (p *ShaderProgram) build(stages []StageSource) (Handle, error) {
	device := p.ctx.device

	shaders := make([]Handle, 0, len(stages))
	defer func() {
		for _, shader := range shaders {
			device.DeleteShader(shader)
		}
	}()

	for _, stage := range stages {
		shader, err := device.CreateShader(stage.Stage)
		if err != nil {
			return 0, &core.ResourceCreationError{Kind: stage.Stage.String() + " shader"}
		}
		shaders = append(shaders, shader)
		if ok, log := device.CompileShader(shader, stage.Source); !ok {
			return 0, &core.ShaderCompileError{Stage: stage.Stage, Path: stage.Path, Log: strings.TrimSpace(log)}
		}
	}

	program, err := device.CreateProgram()
	if err != nil {
		return 0, &core.ResourceCreationError{Kind: string(KindProgram)}
	}
	for _, shader := range shaders {
		device.AttachShader(program, shader)
	}
	ok, log := device.LinkProgram(program)
	for _, shader := range shaders {
		device.DetachShader(program, shader)
	}
	if !ok {
		device.DeleteProgram(program)
		return 0, &core.ShaderLinkError{Name: p.name, Log: strings.TrimSpace(log)}
	}
	for block, binding := range p.blocks {
		device.UniformBlockBinding(program, block, binding)
	}
	return program, nil
}

// Rebuild recompiles every stage, re-reading file backed stages. The
// handle is swapped only when the new program links; on failure the old
// program stays in use and the error is returned.
func (p *ShaderProgram) Rebuild() error {
	p.mustBeLive()

	stages := append([]StageSource(nil), p.stages...)
	if p.src != nil {
		if err := readStages(p.src, stages); err != nil {
			return err
		}
	}
	handle, err := p.build(stages)
	if err != nil {
		return err
	}

	old := p.handle
	wasCurrent := p.ctx.program == old
	p.handle = handle
	p.stages = stages
	p.warned = make(map[string]struct{})
	p.generation++
	p.ctx.deleteProgram(old)
	if wasCurrent {
		p.ctx.UseProgram(handle)
	}
	core.LogInfo("shader program %s rebuilt (handle %d -> %d)", p.name, old, handle)
	return nil
}

func (p *ShaderProgram) Handle() Handle {
	p.mustBeLive()
	return p.handle
}

func (p *ShaderProgram) Name() string {
	return p.name
}

// Paths lists the asset paths of the file backed stages.
func (p *ShaderProgram) Paths() []string {
	var out []string
	for _, s := range p.stages {
		if s.Path != "" {
			out = append(out, s.Path)
		}
	}
	return out
}

func (p *ShaderProgram) Use() {
	p.mustBeLive()
	p.ctx.UseProgram(p.handle)
}

func (p *ShaderProgram) isCompute() bool {
	return len(p.stages) == 1 && p.stages[0].Stage == core.ShaderStageCompute
}

// Dispatch runs a compute program over x × y × z work groups.
func (p *ShaderProgram) Dispatch(x, y, z uint32) error {
	if !p.isCompute() {
		return fmt.Errorf("program %s has no compute stage", p.name)
	}
	p.Use()
	p.ctx.device.DispatchCompute(x, y, z)
	return nil
}

// AttribLocation returns -1 when the program has no active input called name.
func (p *ShaderProgram) AttribLocation(name string) int32 {
	p.mustBeLive()
	return p.ctx.device.GetAttribLocation(p.handle, name)
}

// BindUniformBlock connects a named uniform block to a binding slot. The
// association survives Rebuild. It returns false when the program does not
// declare the block.
func (p *ShaderProgram) BindUniformBlock(block string, binding uint32) bool {
	p.mustBeLive()
	if !p.ctx.device.UniformBlockBinding(p.handle, block, binding) {
		return false
	}
	p.blocks[block] = binding
	return true
}

// location resolves name against the current program every call; nothing
// is cached so a rebuilt program is always queried fresh.
func (p *ShaderProgram) location(name string) (int32, error) {
	p.mustBeLive()
	if p.ctx.program != p.handle {
		return -1, fmt.Errorf("%w: setting %q on %s", core.ErrProgramNotBound, name, p.name)
	}
	loc := p.ctx.device.GetUniformLocation(p.handle, name)
	if loc >= 0 {
		return loc, nil
	}
	if p.ctx.config.Strict {
		return -1, fmt.Errorf("%w: %q in %s", core.ErrUniformNotFound, name, p.name)
	}
	if _, seen := p.warned[name]; !seen {
		p.warned[name] = struct{}{}
		core.Logger().Warn("uniform not found, ignoring", "program", p.name, "uniform", name)
	}
	return -1, nil
}

func (p *ShaderProgram) SetInt(name string, v int32) error {
	loc, err := p.location(name)
	if loc >= 0 {
		p.ctx.device.Uniform1i(loc, v)
	}
	return err
}

func (p *ShaderProgram) SetFloat(name string, v float32) error {
	loc, err := p.location(name)
	if loc >= 0 {
		p.ctx.device.Uniform1f(loc, v)
	}
	return err
}

func (p *ShaderProgram) SetVector2(name string, v mgl32.Vec2) error {
	loc, err := p.location(name)
	if loc >= 0 {
		p.ctx.device.Uniform2f(loc, v[0], v[1])
	}
	return err
}

func (p *ShaderProgram) SetVector3(name string, v mgl32.Vec3) error {
	loc, err := p.location(name)
	if loc >= 0 {
		p.ctx.device.Uniform3f(loc, v[0], v[1], v[2])
	}
	return err
}

func (p *ShaderProgram) SetVector4(name string, v mgl32.Vec4) error {
	loc, err := p.location(name)
	if loc >= 0 {
		p.ctx.device.Uniform4f(loc, v[0], v[1], v[2], v[3])
	}
	return err
}

func (p *ShaderProgram) SetMatrix4(name string, m mgl32.Mat4) error {
	loc, err := p.location(name)
	if loc >= 0 {
		p.ctx.device.UniformMatrix4fv(loc, m)
	}
	return err
}

func (p *ShaderProgram) Destroy() {
	if !p.markReleased() {
		return
	}
	p.ctx.deleteProgram(p.handle)
	p.handle = 0
}
