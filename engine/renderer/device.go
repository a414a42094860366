package renderer

import "github.com/spaghettifunk/rainfrog/engine/core"

// Handle is an opaque device object name. Zero is never a valid object,
// except for the default framebuffer.
type Handle uint32

type BufferTarget uint8

const (
	ArrayBuffer BufferTarget = iota
	ElementArrayBuffer
	UniformBuffer
)

type BufferUsage uint8

const (
	StaticDraw BufferUsage = iota
	DynamicDraw
	StreamDraw
)

type TextureTarget uint8

const (
	Texture2DTarget TextureTarget = iota
	TextureCubeMapTarget
	// Cubemap faces in upload order.
	TextureCubeMapPositiveX
	TextureCubeMapNegativeX
	TextureCubeMapPositiveY
	TextureCubeMapNegativeY
	TextureCubeMapPositiveZ
	TextureCubeMapNegativeZ
)

// CubeFace returns the face target for i in [0, 6).
func CubeFace(i int) TextureTarget {
	return TextureCubeMapPositiveX + TextureTarget(i)
}

type TextureParam uint8

const (
	TextureMinFilter TextureParam = iota
	TextureMagFilter
	TextureWrapS
	TextureWrapT
	TextureWrapR
)

const (
	FilterNearest int32 = iota
	FilterLinear
	WrapClampToEdge
	WrapRepeat
)

type PixelFormat uint8

const (
	PixelFormatRGBA8 PixelFormat = iota
	PixelFormatRGB8
)

// BytesPerPixel of the client side pixel format.
func (f PixelFormat) BytesPerPixel() int {
	if f == PixelFormatRGB8 {
		return 3
	}
	return 4
}

type Attachment uint8

const (
	ColorAttachment0 Attachment = iota
	DepthStencilAttachment
)

type RenderbufferFormat uint8

const (
	Depth24Stencil8 RenderbufferFormat = iota
)

type FramebufferStatus uint8

const (
	FramebufferComplete FramebufferStatus = iota
	FramebufferIncompleteAttachment
	FramebufferIncompleteMissingAttachment
	FramebufferIncompleteDimensions
	FramebufferUnsupported
)

func (s FramebufferStatus) String() string {
	switch s {
	case FramebufferComplete:
		return "complete"
	case FramebufferIncompleteAttachment:
		return "incomplete attachment"
	case FramebufferIncompleteMissingAttachment:
		return "missing attachment"
	case FramebufferIncompleteDimensions:
		return "attachment dimensions differ"
	default:
		return "unsupported"
	}
}

type ClearMask uint8

const (
	ClearColorBit ClearMask = 1 << iota
	ClearDepthBit
	ClearStencilBit
)

type Capability uint8

const (
	DepthTest Capability = iota
	CullFace
	Blend
	Multisample
	TextureCubeMapSeamless
	capabilityCount
)

type DepthFunc uint8

const (
	DepthLess DepthFunc = iota
	DepthLessEqual
	DepthAlways
)

// BlendFactor scales the source or destination color when blending.
type BlendFactor uint8

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
)

type PrimitiveMode uint8

const (
	Triangles PrimitiveMode = iota
	TriangleStrip
)

type DebugSeverity uint8

const (
	DebugSeverityNotification DebugSeverity = iota
	DebugSeverityLow
	DebugSeverityMedium
	DebugSeverityHigh
)

// DebugMessage is a diagnostic reported by the device validation layer.
type DebugMessage struct {
	Source   string
	Type     string
	ID       uint32
	Severity DebugSeverity
	Message  string
}

// Device is the graphics API seen by the renderer. Its shape follows the
// OpenGL state machine: object creation returns handles, bind calls change
// the current object for a target, and every other call acts on whatever is
// currently bound. All methods must be called from the thread that owns the
// device context.
type Device interface {
	CreateBuffer() (Handle, error)
	BindBuffer(target BufferTarget, buffer Handle)
	BufferData(target BufferTarget, data []byte, usage BufferUsage)
	BufferSubData(target BufferTarget, offset int, data []byte)
	BindBufferBase(target BufferTarget, index uint32, buffer Handle)
	DeleteBuffer(buffer Handle)

	CreateVertexArray() (Handle, error)
	BindVertexArray(array Handle)
	EnableVertexAttribArray(index uint32)
	DisableVertexAttribArray(index uint32)
	VertexAttribPointer(index uint32, size int32, normalized bool, stride, offset int32)
	DeleteVertexArray(array Handle)

	CreateTexture() (Handle, error)
	ActiveTexture(unit uint32)
	BindTexture(target TextureTarget, texture Handle)
	TexParameter(target TextureTarget, param TextureParam, value int32)
	// TexImage2D (re)allocates storage for target, which is Texture2DTarget or
	// a cubemap face. pixels may be nil to allocate uninitialized storage.
	TexImage2D(target TextureTarget, width, height int32, format PixelFormat, pixels []byte)
	DeleteTexture(texture Handle)

	CreateFramebuffer() (Handle, error)
	BindFramebuffer(framebuffer Handle)
	FramebufferTexture2D(attachment Attachment, target TextureTarget, texture Handle)
	FramebufferRenderbuffer(attachment Attachment, renderbuffer Handle)
	CheckFramebufferStatus() FramebufferStatus
	DeleteFramebuffer(framebuffer Handle)

	CreateRenderbuffer() (Handle, error)
	BindRenderbuffer(renderbuffer Handle)
	RenderbufferStorage(format RenderbufferFormat, width, height int32)
	DeleteRenderbuffer(renderbuffer Handle)

	CreateShader(stage core.ShaderStage) (Handle, error)
	// CompileShader returns false and the info log when compilation fails.
	CompileShader(shader Handle, source string) (bool, string)
	DeleteShader(shader Handle)
	CreateProgram() (Handle, error)
	AttachShader(program, shader Handle)
	DetachShader(program, shader Handle)
	BindAttribLocation(program Handle, index uint32, name string)
	LinkProgram(program Handle) (bool, string)
	UseProgram(program Handle)
	DeleteProgram(program Handle)
	// GetUniformLocation returns -1 when the linked program has no active uniform of that name.
	GetUniformLocation(program Handle, name string) int32
	// GetAttribLocation returns -1 when the linked program has no active input of that name.
	GetAttribLocation(program Handle, name string) int32
	// UniformBlockBinding returns false when the program does not declare the block.
	UniformBlockBinding(program Handle, block string, binding uint32) bool

	// Uniform setters act on the current program.
	Uniform1i(location int32, v int32)
	Uniform1f(location int32, v float32)
	Uniform2f(location int32, x, y float32)
	Uniform3f(location int32, x, y, z float32)
	Uniform4f(location int32, x, y, z, w float32)
	UniformMatrix4fv(location int32, m [16]float32)

	DispatchCompute(x, y, z uint32)

	Viewport(x, y, width, height int32)
	ClearColor(r, g, b, a float32)
	Clear(mask ClearMask)
	Enable(capability Capability)
	Disable(capability Capability)
	DepthFunc(fn DepthFunc)
	BlendFunc(src, dst BlendFactor)

	DrawArrays(mode PrimitiveMode, first, count int32)
	// DrawElements draws count uint32 indices from the element buffer of the bound vertex array.
	DrawElements(mode PrimitiveMode, count int32)

	// ReadPixels reads RGBA8 pixels, bottom row first, from the bound framebuffer.
	ReadPixels(x, y, width, height int32) []byte

	SetDebugCallback(fn func(DebugMessage))
}
