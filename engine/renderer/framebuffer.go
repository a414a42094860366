package renderer

import (
	"fmt"

	"github.com/spaghettifunk/rainfrog/engine/core"
)

// Framebuffer is an offscreen target that owns its RGBA8 color texture.
type Framebuffer struct {
	resource

	handle Handle
	color  *Texture2D
}

func NewFramebuffer(ctx *Context, width, height int32) (*Framebuffer, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	handle, err := ctx.device.CreateFramebuffer()
	if err != nil {
		return nil, &core.ResourceCreationError{Kind: string(KindFramebuffer)}
	}
	fb := &Framebuffer{handle: handle}
	fb.init(ctx, KindFramebuffer, "")

	color, err := newEmptyTexture2D(ctx, fb.Label()+"-color", width, height)
	if err != nil {
		fb.markReleased()
		ctx.deleteFramebuffer(handle)
		return nil, err
	}
	fb.color = color

	fb.withBound(func() {
		ctx.device.FramebufferTexture2D(ColorAttachment0, Texture2DTarget, color.handle)
	})
	return fb, nil
}

func checkSize(width, height int32) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: invalid size %dx%d", core.ErrFramebufferIncomplete, width, height)
	}
	return nil
}

// withBound runs fn with the framebuffer bound and restores the previous
// binding afterwards.
func (fb *Framebuffer) withBound(fn func()) {
	previous := fb.ctx.CurrentFramebuffer()
	fb.ctx.BindFramebuffer(fb.handle)
	fn()
	fb.ctx.BindFramebuffer(previous)
}

func (fb *Framebuffer) Handle() Handle {
	fb.mustBeLive()
	return fb.handle
}

func (fb *Framebuffer) ColorTexture() *Texture2D {
	return fb.color
}

func (fb *Framebuffer) Width() int32 {
	return fb.color.width
}

func (fb *Framebuffer) Height() int32 {
	return fb.color.height
}

func (fb *Framebuffer) Bind() {
	fb.mustBeLive()
	fb.ctx.BindFramebuffer(fb.handle)
}

// CheckComplete asks the device whether the framebuffer can be rendered to.
func (fb *Framebuffer) CheckComplete() error {
	fb.mustBeLive()
	var status FramebufferStatus
	fb.withBound(func() {
		status = fb.ctx.device.CheckFramebufferStatus()
	})
	if status != FramebufferComplete {
		return &core.FramebufferIncompleteError{Label: fb.label, Status: status.String()}
	}
	return nil
}

// Resize reallocates the color storage. The framebuffer handle and the
// color texture handle are preserved.
func (fb *Framebuffer) Resize(width, height int32) error {
	fb.mustBeLive()
	if err := checkSize(width, height); err != nil {
		return err
	}
	fb.color.resize(width, height)
	return nil
}

// ReadPixels returns the color attachment as RGBA8, bottom row first.
func (fb *Framebuffer) ReadPixels() []byte {
	fb.mustBeLive()
	var pixels []byte
	fb.withBound(func() {
		pixels = fb.ctx.device.ReadPixels(0, 0, fb.Width(), fb.Height())
	})
	return pixels
}

func (fb *Framebuffer) Destroy() {
	if !fb.markReleased() {
		return
	}
	fb.ctx.deleteFramebuffer(fb.handle)
	fb.handle = 0
	fb.color.Destroy()
}

// Renderbuffer is the depth24/stencil8 store attached to a framebuffer.
type Renderbuffer struct {
	resource

	handle Handle
	width  int32
	height int32
}

// NewRenderbuffer allocates depth/stencil storage and attaches it to fb.
func NewRenderbuffer(ctx *Context, fb *Framebuffer, width, height int32) (*Renderbuffer, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	handle, err := ctx.device.CreateRenderbuffer()
	if err != nil {
		return nil, &core.ResourceCreationError{Kind: string(KindRenderbuffer)}
	}
	rb := &Renderbuffer{handle: handle}
	rb.init(ctx, KindRenderbuffer, fb.Label()+"-depth")
	rb.allocate(width, height)

	fb.withBound(func() {
		ctx.device.FramebufferRenderbuffer(DepthStencilAttachment, handle)
	})
	return rb, nil
}

func (rb *Renderbuffer) allocate(width, height int32) {
	rb.ctx.BindRenderbuffer(rb.handle)
	rb.ctx.device.RenderbufferStorage(Depth24Stencil8, width, height)
	rb.width = width
	rb.height = height
}

func (rb *Renderbuffer) Handle() Handle {
	rb.mustBeLive()
	return rb.handle
}

func (rb *Renderbuffer) Width() int32 {
	return rb.width
}

func (rb *Renderbuffer) Height() int32 {
	return rb.height
}

func (rb *Renderbuffer) Resize(width, height int32) error {
	rb.mustBeLive()
	if err := checkSize(width, height); err != nil {
		return err
	}
	rb.allocate(width, height)
	return nil
}

func (rb *Renderbuffer) Destroy() {
	if !rb.markReleased() {
		return
	}
	rb.ctx.deleteRenderbuffer(rb.handle)
	rb.handle = 0
}

// RenderTarget couples a framebuffer with its depth/stencil renderbuffer so
// both are always resized together.
type RenderTarget struct {
	framebuffer  *Framebuffer
	renderbuffer *Renderbuffer
}

// NewRenderTarget fails when the resulting framebuffer is incomplete.
func NewRenderTarget(ctx *Context, width, height int32) (*RenderTarget, error) {
	fb, err := NewFramebuffer(ctx, width, height)
	if err != nil {
		return nil, err
	}
	rb, err := NewRenderbuffer(ctx, fb, width, height)
	if err != nil {
		fb.Destroy()
		return nil, err
	}
	rt := &RenderTarget{framebuffer: fb, renderbuffer: rb}
	if err := fb.CheckComplete(); err != nil {
		rt.Destroy()
		return nil, err
	}
	return rt, nil
}

func (rt *RenderTarget) Framebuffer() *Framebuffer {
	return rt.framebuffer
}

func (rt *RenderTarget) Renderbuffer() *Renderbuffer {
	return rt.renderbuffer
}

func (rt *RenderTarget) ColorTexture() *Texture2D {
	return rt.framebuffer.ColorTexture()
}

func (rt *RenderTarget) Width() int32 {
	return rt.framebuffer.Width()
}

func (rt *RenderTarget) Height() int32 {
	return rt.framebuffer.Height()
}

// Bind makes the target current and covers it with the viewport.
func (rt *RenderTarget) Bind() {
	rt.framebuffer.Bind()
	rt.framebuffer.ctx.Viewport(0, 0, rt.Width(), rt.Height())
}

// Resize reallocates both attachments and checks completeness again.
func (rt *RenderTarget) Resize(width, height int32) error {
	if err := checkSize(width, height); err != nil {
		return err
	}
	if err := rt.framebuffer.Resize(width, height); err != nil {
		return err
	}
	if err := rt.renderbuffer.Resize(width, height); err != nil {
		return err
	}
	return rt.framebuffer.CheckComplete()
}

func (rt *RenderTarget) ReadPixels() []byte {
	return rt.framebuffer.ReadPixels()
}

func (rt *RenderTarget) Destroy() {
	rt.renderbuffer.Destroy()
	rt.framebuffer.Destroy()
}
