// Package opengl implements renderer.Device on an OpenGL 4.3 core context.
package opengl

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/spaghettifunk/rainfrog/engine/core"
	"github.com/spaghettifunk/rainfrog/engine/renderer"
)

var bufferTargetLUT = map[renderer.BufferTarget]uint32{
	renderer.ArrayBuffer:        gl.ARRAY_BUFFER,
	renderer.ElementArrayBuffer: gl.ELEMENT_ARRAY_BUFFER,
	renderer.UniformBuffer:      gl.UNIFORM_BUFFER,
}

var bufferUsageLUT = map[renderer.BufferUsage]uint32{
	renderer.StaticDraw:  gl.STATIC_DRAW,
	renderer.DynamicDraw: gl.DYNAMIC_DRAW,
	renderer.StreamDraw:  gl.STREAM_DRAW,
}

var textureTargetLUT = map[renderer.TextureTarget]uint32{
	renderer.Texture2DTarget:         gl.TEXTURE_2D,
	renderer.TextureCubeMapTarget:    gl.TEXTURE_CUBE_MAP,
	renderer.TextureCubeMapPositiveX: gl.TEXTURE_CUBE_MAP_POSITIVE_X,
	renderer.TextureCubeMapNegativeX: gl.TEXTURE_CUBE_MAP_NEGATIVE_X,
	renderer.TextureCubeMapPositiveY: gl.TEXTURE_CUBE_MAP_POSITIVE_Y,
	renderer.TextureCubeMapNegativeY: gl.TEXTURE_CUBE_MAP_NEGATIVE_Y,
	renderer.TextureCubeMapPositiveZ: gl.TEXTURE_CUBE_MAP_POSITIVE_Z,
	renderer.TextureCubeMapNegativeZ: gl.TEXTURE_CUBE_MAP_NEGATIVE_Z,
}

var textureParamLUT = map[renderer.TextureParam]uint32{
	renderer.TextureMinFilter: gl.TEXTURE_MIN_FILTER,
	renderer.TextureMagFilter: gl.TEXTURE_MAG_FILTER,
	renderer.TextureWrapS:     gl.TEXTURE_WRAP_S,
	renderer.TextureWrapT:     gl.TEXTURE_WRAP_T,
	renderer.TextureWrapR:     gl.TEXTURE_WRAP_R,
}

var textureValueLUT = map[int32]int32{
	renderer.FilterNearest:   gl.NEAREST,
	renderer.FilterLinear:    gl.LINEAR,
	renderer.WrapClampToEdge: gl.CLAMP_TO_EDGE,
	renderer.WrapRepeat:      gl.REPEAT,
}

var attachmentLUT = map[renderer.Attachment]uint32{
	renderer.ColorAttachment0:       gl.COLOR_ATTACHMENT0,
	renderer.DepthStencilAttachment: gl.DEPTH_STENCIL_ATTACHMENT,
}

var stageLUT = map[core.ShaderStage]uint32{
	core.ShaderStageVertex:   gl.VERTEX_SHADER,
	core.ShaderStageFragment: gl.FRAGMENT_SHADER,
	core.ShaderStageCompute:  gl.COMPUTE_SHADER,
}

var capabilityLUT = map[renderer.Capability]uint32{
	renderer.DepthTest:              gl.DEPTH_TEST,
	renderer.CullFace:               gl.CULL_FACE,
	renderer.Blend:                  gl.BLEND,
	renderer.Multisample:            gl.MULTISAMPLE,
	renderer.TextureCubeMapSeamless: gl.TEXTURE_CUBE_MAP_SEAMLESS,
}

var depthFuncLUT = map[renderer.DepthFunc]uint32{
	renderer.DepthLess:      gl.LESS,
	renderer.DepthLessEqual: gl.LEQUAL,
	renderer.DepthAlways:    gl.ALWAYS,
}

var blendFactorLUT = map[renderer.BlendFactor]uint32{
	renderer.BlendZero:             gl.ZERO,
	renderer.BlendOne:              gl.ONE,
	renderer.BlendSrcAlpha:         gl.SRC_ALPHA,
	renderer.BlendOneMinusSrcAlpha: gl.ONE_MINUS_SRC_ALPHA,
}

var primitiveModeLUT = map[renderer.PrimitiveMode]uint32{
	renderer.Triangles:     gl.TRIANGLES,
	renderer.TriangleStrip: gl.TRIANGLE_STRIP,
}

// Device issues GL calls directly. The context must be current on the
// calling thread before New is called and for every call after.
type Device struct {
	debug func(renderer.DebugMessage)
}

// New loads the GL function pointers for the current context.
func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("unable to initialize OpenGL: %w", err)
	}
	core.LogInfo("OpenGL %s, GLSL %s, %s",
		gl.GoStr(gl.GetString(gl.VERSION)),
		gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION)),
		gl.GoStr(gl.GetString(gl.RENDERER)))
	return &Device{}, nil
}

func glStr(s string) *uint8 {
	return gl.Str(s + "\x00")
}

func ptr(data []byte) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Pointer(&data[0])
}

func (d *Device) CreateBuffer() (renderer.Handle, error) {
	var h uint32
	gl.GenBuffers(1, &h)
	return created(h, "buffer")
}

func created(h uint32, kind string) (renderer.Handle, error) {
	if h == 0 {
		return 0, fmt.Errorf("glGen returned no %s name", kind)
	}
	return renderer.Handle(h), nil
}

func (d *Device) BindBuffer(target renderer.BufferTarget, buffer renderer.Handle) {
	gl.BindBuffer(bufferTargetLUT[target], uint32(buffer))
}

func (d *Device) BufferData(target renderer.BufferTarget, data []byte, usage renderer.BufferUsage) {
	gl.BufferData(bufferTargetLUT[target], len(data), ptr(data), bufferUsageLUT[usage])
}

func (d *Device) BufferSubData(target renderer.BufferTarget, offset int, data []byte) {
	gl.BufferSubData(bufferTargetLUT[target], offset, len(data), ptr(data))
}

func (d *Device) BindBufferBase(target renderer.BufferTarget, index uint32, buffer renderer.Handle) {
	gl.BindBufferBase(bufferTargetLUT[target], index, uint32(buffer))
}

func (d *Device) DeleteBuffer(buffer renderer.Handle) {
	h := uint32(buffer)
	gl.DeleteBuffers(1, &h)
}

func (d *Device) CreateVertexArray() (renderer.Handle, error) {
	var h uint32
	gl.GenVertexArrays(1, &h)
	return created(h, "vertex array")
}

func (d *Device) BindVertexArray(array renderer.Handle) {
	gl.BindVertexArray(uint32(array))
}

func (d *Device) EnableVertexAttribArray(index uint32) {
	gl.EnableVertexAttribArray(index)
}

func (d *Device) DisableVertexAttribArray(index uint32) {
	gl.DisableVertexAttribArray(index)
}

func (d *Device) VertexAttribPointer(index uint32, size int32, normalized bool, stride, offset int32) {
	gl.VertexAttribPointerWithOffset(index, size, gl.FLOAT, normalized, stride, uintptr(offset))
}

func (d *Device) DeleteVertexArray(array renderer.Handle) {
	h := uint32(array)
	gl.DeleteVertexArrays(1, &h)
}

func (d *Device) CreateTexture() (renderer.Handle, error) {
	var h uint32
	gl.GenTextures(1, &h)
	return created(h, "texture")
}

func (d *Device) ActiveTexture(unit uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
}

func (d *Device) BindTexture(target renderer.TextureTarget, texture renderer.Handle) {
	gl.BindTexture(textureTargetLUT[target], uint32(texture))
}

func (d *Device) TexParameter(target renderer.TextureTarget, param renderer.TextureParam, value int32) {
	gl.TexParameteri(textureTargetLUT[target], textureParamLUT[param], textureValueLUT[value])
}

func (d *Device) TexImage2D(target renderer.TextureTarget, width, height int32, format renderer.PixelFormat, pixels []byte) {
	internal, external := int32(gl.RGBA8), uint32(gl.RGBA)
	if format == renderer.PixelFormatRGB8 {
		internal, external = gl.RGB8, gl.RGB
		gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
		defer gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	}
	gl.TexImage2D(textureTargetLUT[target], 0, internal, width, height, 0, external, gl.UNSIGNED_BYTE, ptr(pixels))
}

func (d *Device) DeleteTexture(texture renderer.Handle) {
	h := uint32(texture)
	gl.DeleteTextures(1, &h)
}

func (d *Device) CreateFramebuffer() (renderer.Handle, error) {
	var h uint32
	gl.GenFramebuffers(1, &h)
	return created(h, "framebuffer")
}

func (d *Device) BindFramebuffer(framebuffer renderer.Handle) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(framebuffer))
}

func (d *Device) FramebufferTexture2D(attachment renderer.Attachment, target renderer.TextureTarget, texture renderer.Handle) {
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, attachmentLUT[attachment], textureTargetLUT[target], uint32(texture), 0)
}

func (d *Device) FramebufferRenderbuffer(attachment renderer.Attachment, renderbuffer renderer.Handle) {
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, attachmentLUT[attachment], gl.RENDERBUFFER, uint32(renderbuffer))
}

func (d *Device) CheckFramebufferStatus() renderer.FramebufferStatus {
	switch gl.CheckFramebufferStatus(gl.FRAMEBUFFER) {
	case gl.FRAMEBUFFER_COMPLETE:
		return renderer.FramebufferComplete
	case gl.FRAMEBUFFER_INCOMPLETE_ATTACHMENT:
		return renderer.FramebufferIncompleteAttachment
	case gl.FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT:
		return renderer.FramebufferIncompleteMissingAttachment
	default:
		return renderer.FramebufferUnsupported
	}
}

func (d *Device) DeleteFramebuffer(framebuffer renderer.Handle) {
	h := uint32(framebuffer)
	gl.DeleteFramebuffers(1, &h)
}

func (d *Device) CreateRenderbuffer() (renderer.Handle, error) {
	var h uint32
	gl.GenRenderbuffers(1, &h)
	return created(h, "renderbuffer")
}

func (d *Device) BindRenderbuffer(renderbuffer renderer.Handle) {
	gl.BindRenderbuffer(gl.RENDERBUFFER, uint32(renderbuffer))
}

func (d *Device) RenderbufferStorage(_ renderer.RenderbufferFormat, width, height int32) {
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH24_STENCIL8, width, height)
}

func (d *Device) DeleteRenderbuffer(renderbuffer renderer.Handle) {
	h := uint32(renderbuffer)
	gl.DeleteRenderbuffers(1, &h)
}

func (d *Device) CreateShader(stage core.ShaderStage) (renderer.Handle, error) {
	return created(gl.CreateShader(stageLUT[stage]), stage.String()+" shader")
}

func (d *Device) CompileShader(shader renderer.Handle, source string) (bool, string) {
	h := uint32(shader)
	src, free := gl.Strs(source + "\x00")
	defer free()
	gl.ShaderSource(h, 1, src, nil)
	gl.CompileShader(h)

	var ok int32
	gl.GetShaderiv(h, gl.COMPILE_STATUS, &ok)
	if ok == gl.TRUE {
		return true, ""
	}
	var size int32
	gl.GetShaderiv(h, gl.INFO_LOG_LENGTH, &size)
	return false, infoLog(size, func(l *int32, buf *uint8) { gl.GetShaderInfoLog(h, size, l, buf) })
}

func infoLog(size int32, read func(*int32, *uint8)) string {
	if size <= 0 {
		return "unknown error"
	}
	buf := make([]byte, size+1)
	var l int32
	read(&l, &buf[0])
	return strings.TrimRight(string(buf[:l]), "\x00")
}

func (d *Device) DeleteShader(shader renderer.Handle) {
	gl.DeleteShader(uint32(shader))
}

func (d *Device) CreateProgram() (renderer.Handle, error) {
	return created(gl.CreateProgram(), "program")
}

func (d *Device) AttachShader(program, shader renderer.Handle) {
	gl.AttachShader(uint32(program), uint32(shader))
}

func (d *Device) DetachShader(program, shader renderer.Handle) {
	gl.DetachShader(uint32(program), uint32(shader))
}

func (d *Device) BindAttribLocation(program renderer.Handle, index uint32, name string) {
	gl.BindAttribLocation(uint32(program), index, glStr(name))
}

func (d *Device) LinkProgram(program renderer.Handle) (bool, string) {
	h := uint32(program)
	gl.LinkProgram(h)

	var ok int32
	gl.GetProgramiv(h, gl.LINK_STATUS, &ok)
	if ok == gl.TRUE {
		return true, ""
	}
	var size int32
	gl.GetProgramiv(h, gl.INFO_LOG_LENGTH, &size)
	return false, infoLog(size, func(l *int32, buf *uint8) { gl.GetProgramInfoLog(h, size, l, buf) })
}

func (d *Device) UseProgram(program renderer.Handle) {
	gl.UseProgram(uint32(program))
}

func (d *Device) DeleteProgram(program renderer.Handle) {
	gl.DeleteProgram(uint32(program))
}

func (d *Device) GetUniformLocation(program renderer.Handle, name string) int32 {
	return gl.GetUniformLocation(uint32(program), glStr(name))
}

func (d *Device) GetAttribLocation(program renderer.Handle, name string) int32 {
	return gl.GetAttribLocation(uint32(program), glStr(name))
}

func (d *Device) UniformBlockBinding(program renderer.Handle, block string, binding uint32) bool {
	index := gl.GetUniformBlockIndex(uint32(program), glStr(block))
	if index == gl.INVALID_INDEX {
		return false
	}
	gl.UniformBlockBinding(uint32(program), index, binding)
	return true
}

func (d *Device) Uniform1i(location int32, v int32) {
	gl.Uniform1i(location, v)
}

func (d *Device) Uniform1f(location int32, v float32) {
	gl.Uniform1f(location, v)
}

func (d *Device) Uniform2f(location int32, x, y float32) {
	gl.Uniform2f(location, x, y)
}

func (d *Device) Uniform3f(location int32, x, y, z float32) {
	gl.Uniform3f(location, x, y, z)
}

func (d *Device) Uniform4f(location int32, x, y, z, w float32) {
	gl.Uniform4f(location, x, y, z, w)
}

func (d *Device) UniformMatrix4fv(location int32, m [16]float32) {
	gl.UniformMatrix4fv(location, 1, false, &m[0])
}

func (d *Device) DispatchCompute(x, y, z uint32) {
	gl.DispatchCompute(x, y, z)
	gl.MemoryBarrier(gl.ALL_BARRIER_BITS)
}

func (d *Device) Viewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

func (d *Device) ClearColor(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
}

func (d *Device) Clear(mask renderer.ClearMask) {
	var bits uint32
	if mask&renderer.ClearColorBit != 0 {
		bits |= gl.COLOR_BUFFER_BIT
	}
	if mask&renderer.ClearDepthBit != 0 {
		bits |= gl.DEPTH_BUFFER_BIT
	}
	if mask&renderer.ClearStencilBit != 0 {
		bits |= gl.STENCIL_BUFFER_BIT
	}
	gl.Clear(bits)
}

func (d *Device) Enable(capability renderer.Capability) {
	gl.Enable(capabilityLUT[capability])
}

func (d *Device) Disable(capability renderer.Capability) {
	gl.Disable(capabilityLUT[capability])
}

func (d *Device) DepthFunc(fn renderer.DepthFunc) {
	gl.DepthFunc(depthFuncLUT[fn])
}

func (d *Device) BlendFunc(src, dst renderer.BlendFactor) {
	gl.BlendFunc(blendFactorLUT[src], blendFactorLUT[dst])
}

func (d *Device) DrawArrays(mode renderer.PrimitiveMode, first, count int32) {
	gl.DrawArrays(primitiveModeLUT[mode], first, count)
}

func (d *Device) DrawElements(mode renderer.PrimitiveMode, count int32) {
	gl.DrawElementsWithOffset(primitiveModeLUT[mode], count, gl.UNSIGNED_INT, 0)
}

func (d *Device) ReadPixels(x, y, width, height int32) []byte {
	data := make([]byte, 4*int(width)*int(height))
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(x, y, width, height, gl.RGBA, gl.UNSIGNED_BYTE, ptr(data))
	return data
}
