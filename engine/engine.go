package engine

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/rainfrog/engine/assets"
	"github.com/spaghettifunk/rainfrog/engine/config"
	"github.com/spaghettifunk/rainfrog/engine/core"
	"github.com/spaghettifunk/rainfrog/engine/pipeline"
	"github.com/spaghettifunk/rainfrog/engine/renderer"
)

// suspendedWait bounds how long a minimized engine blocks on the window.
const suspendedWait = 100 * time.Millisecond

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// Options are the collaborators built by main for the chosen backend.
type Options struct {
	Config *config.Config
	Window Window
	Device renderer.Device
	// Source defaults to a directory source at Config.Assets.Root.
	Source assets.Source
	Input  *core.InputState
	Events *core.EventBus
}

type Engine struct {
	currentStage Stage
	game         *Game
	config       *config.Config
	window       Window
	device       renderer.Device
	source       assets.Source
	watcher      *assets.Watcher
	events       *core.EventBus
	input        *core.InputState
	clock        *core.Clock
	metrics      *core.Metrics

	ctx      *renderer.Context
	pipeline *pipeline.FramePipeline
	screen   *renderer.ShaderProgram
	programs []*renderer.ShaderProgram

	isRunning   bool
	isSuspended bool
	width       int32
	height      int32
	lastTime    float64

	// changed shader names; reloadAll rebuilds every tracked program
	pendingReload []string
	reloadAll     bool
}

func New(g *Game, opts Options) (*Engine, error) {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Window == nil || opts.Device == nil {
		return nil, errors.New("engine needs a window and a device")
	}
	if opts.Events == nil {
		opts.Events = core.NewEventBus()
	}
	if opts.Input == nil {
		opts.Input = core.NewInputState(opts.Events)
	}
	if opts.Source == nil {
		opts.Source = assets.NewDirSource(opts.Config.Assets.Root)
	}

	width, height := opts.Window.FramebufferSize()
	e := &Engine{
		currentStage: EngineStageUninitialized,
		game:         g,
		config:       opts.Config,
		window:       opts.Window,
		device:       opts.Device,
		source:       opts.Source,
		events:       opts.Events,
		input:        opts.Input,
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(0.2),
		isRunning:    true,
		width:        width,
		height:       height,
	}
	g.Engine = e
	return e, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e.onEvent)
	e.events.Register(core.EVENT_CODE_KEY_PRESSED, e.onKey)
	e.events.Register(core.EVENT_CODE_RESIZED, e.onResized)
	e.events.Register(core.EVENT_CODE_ASSET_CHANGED, e.onAssetChanged)

	rc := e.config.Renderer
	e.ctx = renderer.NewContext(e.device, renderer.ContextConfig{Debug: rc.Debug, Strict: rc.Strict})

	shaders := e.config.Assets.ScreenShader
	screen, err := renderer.LoadShaderProgram(e.ctx, e.source, shaders.Vertex, shaders.Fragment)
	if err != nil {
		return err
	}
	e.screen = screen
	e.TrackProgram(screen)

	e.pipeline, err = pipeline.New(e.ctx, screen, pipeline.Config{
		Width:      e.width,
		Height:     e.height,
		ClearColor: rc.ClearColor,
		Present:    e.window.SwapBuffers,
	})
	if err != nil {
		return err
	}

	if dir, ok := e.source.(*assets.DirSource); ok && e.config.Assets.Watch {
		watcher, err := assets.NewWatcher(dir)
		if err != nil {
			core.LogWarn("hot reload disabled: %s", err)
		} else {
			e.watcher = watcher
		}
	}

	if e.game.FnOnLoad != nil {
		if err := e.game.FnOnLoad(); err != nil {
			return err
		}
	}
	if e.game.FnOnResize != nil {
		if err := e.game.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) Context() *renderer.Context {
	return e.ctx
}

func (e *Engine) Pipeline() *pipeline.FramePipeline {
	return e.pipeline
}

func (e *Engine) Source() assets.Source {
	return e.source
}

func (e *Engine) Input() *core.InputState {
	return e.input
}

func (e *Engine) Events() *core.EventBus {
	return e.events
}

func (e *Engine) Config() *config.Config {
	return e.config
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

// FramebufferSize returns the width and height (in this order) of the
// window framebuffer.
func (e *Engine) FramebufferSize() (int32, int32) {
	return e.width, e.height
}

// TrackProgram adds a program to the set rebuilt on hot reload.
func (e *Engine) TrackProgram(program *renderer.ShaderProgram) {
	e.programs = append(e.programs, program)
}

// UntrackProgram must be called before a tracked program is destroyed.
func (e *Engine) UntrackProgram(program *renderer.ShaderProgram) {
	e.programs = slices.DeleteFunc(e.programs, func(p *renderer.ShaderProgram) bool { return p == program })
}

// RequestReload schedules a rebuild of every tracked program before the
// next frame.
func (e *Engine) RequestReload() {
	e.reloadAll = true
}

func (e *Engine) Run() error {
	e.currentStage = EngineStageRunning
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning {
		if !e.window.PumpMessages() {
			e.isRunning = false
			break
		}
		e.pollWatcher()
		if err := e.reloadShaders(); err != nil {
			return err
		}

		if e.isSuspended {
			e.input.Update()
			e.window.WaitMessages(suspendedWait)
			// the first frame after resuming measures from here, not from
			// the last frame before minimizing
			e.clock.Update()
			e.lastTime = e.clock.Elapsed()
			continue
		}

		// Update clock and get delta time.
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime

		if e.game.FnOnUpdate != nil {
			if err := e.game.FnOnUpdate(delta); err != nil {
				return fmt.Errorf("game update failed: %w", err)
			}
		}
		if !e.isRunning {
			break
		}

		frame := pipeline.Frame{Projection: mgl32.Ident4(), View: mgl32.Ident4(), DeltaTime: delta}
		if e.game.FnOnRender != nil {
			var err error
			if frame, err = e.game.FnOnRender(delta); err != nil {
				return fmt.Errorf("game render failed: %w", err)
			}
		}
		if err := e.pipeline.RenderFrame(frame); err != nil {
			return err
		}

		if e.metrics.Update(delta) {
			e.window.SetTitle(fmt.Sprintf("%s | FPS %.3f | %.2f ms", e.config.Window.Title, e.metrics.FPS(), e.metrics.FrameTime()))
		}

		// Input state is copied last so this frame's edges were visible to
		// every hook above.
		e.input.Update()
		e.lastTime = currentTime
	}
	return nil
}

// Shutdown unloads the game and releases the engine's own resources.
// Leaked device resources are reported by the context.
func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown

	var errs []error
	if e.game.FnOnUnload != nil {
		errs = append(errs, e.game.FnOnUnload())
	}
	if e.watcher != nil {
		errs = append(errs, e.watcher.Close())
	}
	if e.pipeline != nil {
		e.pipeline.Destroy()
	}
	if e.screen != nil {
		e.screen.Destroy()
	}
	if e.ctx != nil {
		errs = append(errs, e.ctx.Shutdown())
	}
	errs = append(errs, e.window.Shutdown())
	e.events.Reset()

	e.currentStage = EngineStageUninitialized
	return errors.Join(errs...)
}

func (e *Engine) pollWatcher() {
	if e.watcher == nil {
		return
	}
	select {
	case <-e.watcher.Notify():
	default:
		return
	}
	for _, change := range e.watcher.Drain() {
		e.events.Fire(core.EventContext{
			Type: core.EVENT_CODE_ASSET_CHANGED,
			Data: &core.AssetEvent{Path: change.Name},
		})
	}
}

// reloadShaders rebuilds the programs that use a changed source. With the
// permissive flag a failed rebuild is logged and the old program kept.
func (e *Engine) reloadShaders() error {
	if !e.reloadAll && len(e.pendingReload) == 0 {
		return nil
	}
	all, changed := e.reloadAll, e.pendingReload
	e.reloadAll, e.pendingReload = false, nil

	for _, program := range e.programs {
		if !all && !usesAny(program, changed) {
			continue
		}
		if err := program.Rebuild(); err != nil {
			if e.config.Renderer.Permissive {
				core.LogError("hot reload of %s failed, keeping the previous program: %s", program.Name(), err)
				continue
			}
			return err
		}
	}
	return nil
}

func usesAny(program *renderer.ShaderProgram, names []string) bool {
	for _, path := range program.Paths() {
		if slices.Contains(names, path) {
			return true
		}
	}
	return false
}

func (e *Engine) onEvent(context core.EventContext) bool {
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning = false
		e.window.Close()
		return true
	}
	return false
}

func (e *Engine) onKey(context core.EventContext) bool {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}

	switch ke.KeyCode {
	case core.KEY_ESCAPE:
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		e.events.Fire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
		return true
	case core.KEY_F5:
		core.LogInfo("reloading shaders")
		e.RequestReload()
		return true
	}
	return false
}

func (e *Engine) onResized(context core.EventContext) bool {
	re, ok := context.Data.(*core.ResizeEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}

	width, height := int32(re.Width), int32(re.Height)
	if width == e.width && height == e.height {
		return false
	}
	e.width, e.height = width, height
	core.LogDebug("Window resize: %d, %d", width, height)
	e.pipeline.Resize(width, height)

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return true
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if e.game.FnOnResize != nil {
		if err := e.game.FnOnResize(width, height); err != nil {
			core.LogError("game resize failed: %s", err)
		}
	}
	return true
}

func (e *Engine) onAssetChanged(context core.EventContext) bool {
	ae, ok := context.Data.(*core.AssetEvent)
	if !ok {
		return false
	}
	if assets.DetermineAssetType(ae.Path) == assets.AssetTypeShader {
		e.pendingReload = append(e.pendingReload, ae.Path)
	}
	// other listeners may care about images and config
	return false
}
