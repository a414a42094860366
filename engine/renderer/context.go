package renderer

import (
	"fmt"

	"github.com/spaghettifunk/rainfrog/engine/core"
)

type ContextConfig struct {
	// Debug installs the device debug callback and makes Shutdown fail on leaks.
	Debug bool
	// Strict turns missing uniforms and unmatched vertex attributes into errors.
	Strict bool
}

type textureSlot struct {
	unit uint32
	cube bool
}

// Context owns the device and mirrors its binding state. Every state change
// made by renderer types goes through it so redundant binds are skipped and
// scoped changes can be restored with guards.
type Context struct {
	device   Device
	config   ContextConfig
	registry *Registry

	program      Handle
	vertexArray  Handle
	framebuffer  Handle
	renderbuffer Handle
	buffers      [UniformBuffer + 1]Handle
	// element buffers are vertex array state
	elementBuffers map[Handle]Handle
	activeUnit     uint32
	textures       map[textureSlot]Handle
	depthFunc      DepthFunc
	blendFunc      [2]BlendFactor
	capabilities   [capabilityCount]bool
	viewport       [4]int32
	clearColor     [4]float32

	skipped uint64
}

// NewContext wraps a device whose context is current on the calling thread
// and puts it in a known default state.
func NewContext(device Device, config ContextConfig) *Context {
	c := &Context{
		device:         device,
		config:         config,
		registry:       NewRegistry(),
		elementBuffers: make(map[Handle]Handle),
		textures:       make(map[textureSlot]Handle),
	}
	for i := Capability(0); i < capabilityCount; i++ {
		device.Disable(i)
	}
	device.DepthFunc(DepthLess)
	device.ActiveTexture(0)
	// straight alpha; enabling Blend is enough for sprites and overlays
	c.blendFunc = [2]BlendFactor{BlendSrcAlpha, BlendOneMinusSrcAlpha}
	device.BlendFunc(BlendSrcAlpha, BlendOneMinusSrcAlpha)

	if config.Debug {
		device.SetDebugCallback(logDebugMessage)
	}
	return c
}

func logDebugMessage(msg DebugMessage) {
	switch msg.Severity {
	case DebugSeverityHigh:
		core.LogError("device [%s/%s #%d]: %s", msg.Source, msg.Type, msg.ID, msg.Message)
	case DebugSeverityMedium, DebugSeverityLow:
		core.LogWarn("device [%s/%s #%d]: %s", msg.Source, msg.Type, msg.ID, msg.Message)
	default:
		core.LogDebug("device [%s/%s #%d]: %s", msg.Source, msg.Type, msg.ID, msg.Message)
	}
}

func (c *Context) Device() Device {
	return c.device
}

func (c *Context) Config() ContextConfig {
	return c.config
}

func (c *Context) Registry() *Registry {
	return c.registry
}

// SkippedBinds counts state changes that were already current.
func (c *Context) SkippedBinds() uint64 {
	return c.skipped
}

func (c *Context) UseProgram(program Handle) {
	if c.program == program {
		c.skipped++
		return
	}
	c.device.UseProgram(program)
	c.program = program
}

func (c *Context) CurrentProgram() Handle {
	return c.program
}

func (c *Context) BindVertexArray(array Handle) {
	if c.vertexArray == array {
		c.skipped++
		return
	}
	c.device.BindVertexArray(array)
	c.vertexArray = array
}

func (c *Context) BindFramebuffer(framebuffer Handle) {
	if c.framebuffer == framebuffer {
		c.skipped++
		return
	}
	c.device.BindFramebuffer(framebuffer)
	c.framebuffer = framebuffer
}

func (c *Context) CurrentFramebuffer() Handle {
	return c.framebuffer
}

func (c *Context) BindRenderbuffer(renderbuffer Handle) {
	if c.renderbuffer == renderbuffer {
		c.skipped++
		return
	}
	c.device.BindRenderbuffer(renderbuffer)
	c.renderbuffer = renderbuffer
}

func (c *Context) BindBuffer(target BufferTarget, buffer Handle) {
	if target == ElementArrayBuffer {
		if bound, ok := c.elementBuffers[c.vertexArray]; ok && bound == buffer {
			c.skipped++
			return
		}
		c.device.BindBuffer(target, buffer)
		c.elementBuffers[c.vertexArray] = buffer
		return
	}
	if c.buffers[target] == buffer {
		c.skipped++
		return
	}
	c.device.BindBuffer(target, buffer)
	c.buffers[target] = buffer
}

// BindBufferBase attaches buffer to an indexed binding point. It also binds
// the generic target, as the underlying API does.
func (c *Context) BindBufferBase(target BufferTarget, index uint32, buffer Handle) {
	c.device.BindBufferBase(target, index, buffer)
	c.buffers[target] = buffer
}

// BindTexture leaves unit active even when the binding is cached, so a
// following upload always targets texture.
func (c *Context) BindTexture(unit uint32, target TextureTarget, texture Handle) {
	c.activeTexture(unit)
	slot := textureSlot{unit: unit, cube: target == TextureCubeMapTarget}
	if c.textures[slot] == texture {
		c.skipped++
		return
	}
	c.device.BindTexture(target, texture)
	c.textures[slot] = texture
}

func (c *Context) activeTexture(unit uint32) {
	if c.activeUnit == unit {
		return
	}
	c.device.ActiveTexture(unit)
	c.activeUnit = unit
}

func (c *Context) SetDepthFunc(fn DepthFunc) {
	if c.depthFunc == fn {
		c.skipped++
		return
	}
	c.device.DepthFunc(fn)
	c.depthFunc = fn
}

func (c *Context) DepthFunc() DepthFunc {
	return c.depthFunc
}

func (c *Context) SetBlendFunc(src, dst BlendFactor) {
	fn := [2]BlendFactor{src, dst}
	if c.blendFunc == fn {
		c.skipped++
		return
	}
	c.device.BlendFunc(src, dst)
	c.blendFunc = fn
}

// BlendFunc returns the source and destination factors, in this order.
func (c *Context) BlendFunc() (BlendFactor, BlendFactor) {
	return c.blendFunc[0], c.blendFunc[1]
}

func (c *Context) SetCapability(capability Capability, enabled bool) {
	if c.capabilities[capability] == enabled {
		c.skipped++
		return
	}
	if enabled {
		c.device.Enable(capability)
	} else {
		c.device.Disable(capability)
	}
	c.capabilities[capability] = enabled
}

func (c *Context) IsEnabled(capability Capability) bool {
	return c.capabilities[capability]
}

func (c *Context) Viewport(x, y, width, height int32) {
	vp := [4]int32{x, y, width, height}
	if c.viewport == vp {
		c.skipped++
		return
	}
	c.device.Viewport(x, y, width, height)
	c.viewport = vp
}

func (c *Context) ClearColor(r, g, b, a float32) {
	cc := [4]float32{r, g, b, a}
	if c.clearColor == cc {
		c.skipped++
		return
	}
	c.device.ClearColor(r, g, b, a)
	c.clearColor = cc
}

func (c *Context) Clear(mask ClearMask) {
	c.device.Clear(mask)
}

// The delete helpers drop cached bindings that refer to the deleted object,
// mirroring the implicit unbind the API performs.

func (c *Context) deleteBuffer(buffer Handle) {
	for i := range c.buffers {
		if c.buffers[i] == buffer {
			c.buffers[i] = 0
		}
	}
	for array, bound := range c.elementBuffers {
		if bound == buffer {
			delete(c.elementBuffers, array)
		}
	}
	c.device.DeleteBuffer(buffer)
}

func (c *Context) deleteVertexArray(array Handle) {
	if c.vertexArray == array {
		c.vertexArray = 0
	}
	delete(c.elementBuffers, array)
	c.device.DeleteVertexArray(array)
}

func (c *Context) deleteTexture(texture Handle) {
	for slot, bound := range c.textures {
		if bound == texture {
			delete(c.textures, slot)
		}
	}
	c.device.DeleteTexture(texture)
}

func (c *Context) deleteFramebuffer(framebuffer Handle) {
	if c.framebuffer == framebuffer {
		c.BindFramebuffer(0)
	}
	c.device.DeleteFramebuffer(framebuffer)
}

func (c *Context) deleteRenderbuffer(renderbuffer Handle) {
	if c.renderbuffer == renderbuffer {
		c.renderbuffer = 0
	}
	c.device.DeleteRenderbuffer(renderbuffer)
}

func (c *Context) deleteProgram(program Handle) {
	if c.program == program {
		c.UseProgram(0)
	}
	c.device.DeleteProgram(program)
}

// Shutdown reports every device resource that is still alive. Each leak is
// logged once as a warning; in debug mode the leak also fails the shutdown.
func (c *Context) Shutdown() error {
	leaked := c.registry.Leaks()
	for _, r := range leaked {
		core.Logger().Warn("GPU resource leak, Destroy was never called", "kind", r.Kind, "label", r.Label, "id", r.ID)
	}
	if len(leaked) > 0 && c.config.Debug {
		return fmt.Errorf("%w: %d live resources", core.ErrResourceLeak, len(leaked))
	}
	return nil
}
