package renderer

// DepthFuncGuard restores the previous depth function on Release.
type DepthFuncGuard struct {
	ctx      *Context
	previous DepthFunc
	done     bool
}

// PushDepthFunc switches the depth function until the returned guard is
// released. Typical use:
//
//	guard := ctx.PushDepthFunc(renderer.DepthLessEqual)
//	defer guard.Release()
func (c *Context) PushDepthFunc(fn DepthFunc) *DepthFuncGuard {
	g := &DepthFuncGuard{ctx: c, previous: c.depthFunc}
	c.SetDepthFunc(fn)
	return g
}

func (g *DepthFuncGuard) Release() {
	if g.done {
		return
	}
	g.done = true
	g.ctx.SetDepthFunc(g.previous)
}

// CapabilityGuard restores a capability's previous enable state on Release.
type CapabilityGuard struct {
	ctx        *Context
	capability Capability
	previous   bool
	done       bool
}

func (c *Context) PushCapability(capability Capability, enabled bool) *CapabilityGuard {
	g := &CapabilityGuard{ctx: c, capability: capability, previous: c.capabilities[capability]}
	c.SetCapability(capability, enabled)
	return g
}

func (g *CapabilityGuard) Release() {
	if g.done {
		return
	}
	g.done = true
	g.ctx.SetCapability(g.capability, g.previous)
}
