// Package soft is a headless reference implementation of renderer.Device.
// It keeps every object in memory, rasterizes triangles on the CPU with a
// fixed shading model and counts each call, so renderer code can be tested
// without a GPU or a window.
package soft

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spaghettifunk/rainfrog/engine/core"
	"github.com/spaghettifunk/rainfrog/engine/renderer"
)

var ErrCreationDisabled = errors.New("soft device: object creation disabled")

const maxAttribs = 16

type buffer struct {
	data []byte
}

type attrib struct {
	enabled    bool
	size       int32
	normalized bool
	stride     int32
	offset     int32
	buffer     renderer.Handle
}

type vertexArray struct {
	attribs [maxAttribs]attrib
	element renderer.Handle
}

type level struct {
	width  int32
	height int32
	pix    []byte
}

type texture struct {
	cube   bool
	faces  [6]*level
	params map[renderer.TextureParam]int32
}

func (t *texture) level(target renderer.TextureTarget) **level {
	if target == renderer.Texture2DTarget {
		return &t.faces[0]
	}
	return &t.faces[target-renderer.TextureCubeMapPositiveX]
}

type renderbuffer struct {
	width  int32
	height int32
	depth  []float32
}

type framebuffer struct {
	color renderer.Handle
	depth renderer.Handle
}

type shader struct {
	stage    core.ShaderStage
	decl     *declarations
	compiled bool
}

type uniformValue struct {
	floats [16]float32
	n      int
	i      int32
}

type program struct {
	attached map[renderer.Handle]bool
	bindings map[string]uint32
	linked   bool

	stages    []core.ShaderStage
	uniforms  []uniformDecl
	locations map[string]int32
	values    map[int32]uniformValue
	attribs   map[string]int32
	blocks    map[string]blockDecl
	blockBind map[string]uint32

	// fragments with alpha below the cutoff are discarded
	alphaCutoff float32
}

type unitKey struct {
	unit uint32
	cube bool
}

// DrawRecord is what the device observed for one draw call.
type DrawRecord struct {
	Program renderer.Handle
	Mode    renderer.PrimitiveMode
	Count   int32
	// Blocks holds the contents of every uniform block the program
	// declares, read from the buffer at the block's binding.
	Blocks map[string][]float32
	// Fragments is the number of pixels written.
	Fragments int
}

// Device is not safe for concurrent use, like the contexts it stands in for.
type Device struct {
	// FailCreation makes every Create call fail.
	FailCreation bool

	next  renderer.Handle
	calls map[string]int
	total int
	debug func(renderer.DebugMessage)

	buffers       map[renderer.Handle]*buffer
	bound         [renderer.UniformBuffer + 1]renderer.Handle
	indexed       map[uint32]renderer.Handle
	arrays        map[renderer.Handle]*vertexArray
	array         renderer.Handle
	textures      map[renderer.Handle]*texture
	activeUnit    uint32
	units         map[unitKey]renderer.Handle
	framebuffers  map[renderer.Handle]*framebuffer
	framebuffer   renderer.Handle
	renderbuffers map[renderer.Handle]*renderbuffer
	renderbuffer  renderer.Handle
	shaders       map[renderer.Handle]*shader
	programs      map[renderer.Handle]*program
	current       renderer.Handle

	screenColor *level
	screenDepth *renderbuffer

	viewport     [4]int32
	clearColor   [4]float32
	capabilities map[renderer.Capability]bool
	depthFunc    renderer.DepthFunc
	blendSrc     renderer.BlendFactor
	blendDst     renderer.BlendFactor

	draws      []DrawRecord
	dispatches [][3]uint32
}

// New returns a device whose default framebuffer is width × height.
func New(width, height int32) *Device {
	d := &Device{
		calls:         make(map[string]int),
		buffers:       make(map[renderer.Handle]*buffer),
		indexed:       make(map[uint32]renderer.Handle),
		arrays:        make(map[renderer.Handle]*vertexArray),
		textures:      make(map[renderer.Handle]*texture),
		units:         make(map[unitKey]renderer.Handle),
		framebuffers:  make(map[renderer.Handle]*framebuffer),
		renderbuffers: make(map[renderer.Handle]*renderbuffer),
		shaders:       make(map[renderer.Handle]*shader),
		programs:      make(map[renderer.Handle]*program),
		capabilities:  make(map[renderer.Capability]bool),
		blendSrc:      renderer.BlendOne,
		blendDst:      renderer.BlendZero,
		viewport:      [4]int32{0, 0, width, height},
	}
	d.ResizeScreen(width, height)
	return d
}

// ResizeScreen changes the size of the default framebuffer, as a window
// resize would. It is not counted as a device call.
func (d *Device) ResizeScreen(width, height int32) {
	d.screenColor = &level{width: width, height: height, pix: make([]byte, 4*int(width)*int(height))}
	d.screenDepth = &renderbuffer{width: width, height: height, depth: newDepth(width, height)}
}

func newDepth(width, height int32) []float32 {
	depth := make([]float32, int(width)*int(height))
	for i := range depth {
		depth[i] = 1
	}
	return depth
}

func (d *Device) record(name string) {
	d.calls[name]++
	d.total++
}

// Calls is the total number of device calls made.
func (d *Device) Calls() int {
	return d.total
}

// CallCount is the number of calls made to one method.
func (d *Device) CallCount(name string) int {
	return d.calls[name]
}

func (d *Device) ResetCalls() {
	d.calls = make(map[string]int)
	d.total = 0
}

// Draws returns every draw observed so far.
func (d *Device) Draws() []DrawRecord {
	return d.draws
}

// LastDraw returns the most recent draw; ok is false when nothing was drawn.
func (d *Device) LastDraw() (DrawRecord, bool) {
	if len(d.draws) == 0 {
		return DrawRecord{}, false
	}
	return d.draws[len(d.draws)-1], true
}

func (d *Device) Dispatches() [][3]uint32 {
	return d.dispatches
}

// LiveObjects counts objects of all kinds that have not been deleted.
func (d *Device) LiveObjects() int {
	return len(d.buffers) + len(d.arrays) + len(d.textures) + len(d.framebuffers) +
		len(d.renderbuffers) + len(d.shaders) + len(d.programs)
}

// CurrentProgram is the program made current by UseProgram.
func (d *Device) CurrentProgram() renderer.Handle {
	return d.current
}

// Capability reports whether a capability is enabled.
func (d *Device) Capability(c renderer.Capability) bool {
	return d.capabilities[c]
}

func (d *Device) CurrentDepthFunc() renderer.DepthFunc {
	return d.depthFunc
}

// CurrentBlendFunc returns the source and destination factors.
func (d *Device) CurrentBlendFunc() (renderer.BlendFactor, renderer.BlendFactor) {
	return d.blendSrc, d.blendDst
}

// TextureSize returns the size of a 2D texture or of a cubemap face.
func (d *Device) TextureSize(h renderer.Handle, target renderer.TextureTarget) (int32, int32, bool) {
	t, ok := d.textures[h]
	if !ok {
		return 0, 0, false
	}
	l := *t.level(target)
	if l == nil {
		return 0, 0, false
	}
	return l.width, l.height, true
}

// AttribState is the configuration of one vertex attribute slot.
type AttribState struct {
	Enabled    bool
	Size       int32
	Normalized bool
	Stride     int32
	Offset     int32
	Buffer     renderer.Handle
}

// Attrib reports how slot index of a vertex array is configured.
func (d *Device) Attrib(array renderer.Handle, index uint32) (AttribState, bool) {
	va := d.arrays[array]
	if va == nil || index >= maxAttribs {
		return AttribState{}, false
	}
	a := va.attribs[index]
	return AttribState{
		Enabled:    a.enabled,
		Size:       a.size,
		Normalized: a.normalized,
		Stride:     a.stride,
		Offset:     a.offset,
		Buffer:     a.buffer,
	}, true
}

// ElementBuffer is the index buffer recorded in a vertex array.
func (d *Device) ElementBuffer(array renderer.Handle) renderer.Handle {
	if va := d.arrays[array]; va != nil {
		return va.element
	}
	return 0
}

// Pixel returns the RGBA value at (x, y) of the bound framebuffer, with y
// counted from the bottom.
func (d *Device) Pixel(x, y int32) [4]byte {
	var out [4]byte
	color, _ := d.surface()
	if color == nil || x < 0 || y < 0 || x >= color.width || y >= color.height {
		return out
	}
	i := 4 * (int(y)*int(color.width) + int(x))
	copy(out[:], color.pix[i:i+4])
	return out
}

// RenderbufferSize returns the storage size of a renderbuffer.
func (d *Device) RenderbufferSize(h renderer.Handle) (int32, int32, bool) {
	rb, ok := d.renderbuffers[h]
	if !ok {
		return 0, 0, false
	}
	return rb.width, rb.height, true
}

// UniformValue returns the floats last set at name on program.
func (d *Device) UniformValue(h renderer.Handle, name string) ([]float32, bool) {
	p, ok := d.programs[h]
	if !ok {
		return nil, false
	}
	loc, ok := p.locations[name]
	if !ok {
		return nil, false
	}
	v, ok := p.values[loc]
	if !ok {
		return nil, false
	}
	return append([]float32(nil), v.floats[:v.n]...), true
}

func (d *Device) emit(severity renderer.DebugSeverity, format string, args ...any) {
	if d.debug == nil {
		return
	}
	d.debug(renderer.DebugMessage{
		Source:   "API",
		Type:     "error",
		Severity: severity,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (d *Device) SetDebugCallback(fn func(renderer.DebugMessage)) {
	d.record("SetDebugCallback")
	d.debug = fn
}

func (d *Device) handle() (renderer.Handle, error) {
	if d.FailCreation {
		return 0, ErrCreationDisabled
	}
	d.next++
	return d.next, nil
}

// Buffers

func (d *Device) CreateBuffer() (renderer.Handle, error) {
	d.record("CreateBuffer")
	h, err := d.handle()
	if err != nil {
		return 0, err
	}
	d.buffers[h] = &buffer{}
	return h, nil
}

func (d *Device) BindBuffer(target renderer.BufferTarget, h renderer.Handle) {
	d.record("BindBuffer")
	if h != 0 && d.buffers[h] == nil {
		d.emit(renderer.DebugSeverityHigh, "BindBuffer: unknown buffer %d", h)
		return
	}
	if target == renderer.ElementArrayBuffer {
		if va := d.arrays[d.array]; va != nil {
			va.element = h
		}
	}
	d.bound[target] = h
}

func (d *Device) boundBuffer(target renderer.BufferTarget) *buffer {
	h := d.bound[target]
	if target == renderer.ElementArrayBuffer {
		if va := d.arrays[d.array]; va != nil {
			h = va.element
		}
	}
	return d.buffers[h]
}

func (d *Device) BufferData(target renderer.BufferTarget, data []byte, _ renderer.BufferUsage) {
	d.record("BufferData")
	b := d.boundBuffer(target)
	if b == nil {
		d.emit(renderer.DebugSeverityHigh, "BufferData: no buffer bound")
		return
	}
	b.data = append([]byte(nil), data...)
}

func (d *Device) BufferSubData(target renderer.BufferTarget, offset int, data []byte) {
	d.record("BufferSubData")
	b := d.boundBuffer(target)
	if b == nil || offset+len(data) > len(b.data) {
		d.emit(renderer.DebugSeverityHigh, "BufferSubData: write out of range")
		return
	}
	copy(b.data[offset:], data)
}

func (d *Device) BindBufferBase(target renderer.BufferTarget, index uint32, h renderer.Handle) {
	d.record("BindBufferBase")
	d.indexed[index] = h
	d.bound[target] = h
}

func (d *Device) DeleteBuffer(h renderer.Handle) {
	d.record("DeleteBuffer")
	delete(d.buffers, h)
	for i := range d.bound {
		if d.bound[i] == h {
			d.bound[i] = 0
		}
	}
	for index, bound := range d.indexed {
		if bound == h {
			delete(d.indexed, index)
		}
	}
}

// Vertex arrays

func (d *Device) CreateVertexArray() (renderer.Handle, error) {
	d.record("CreateVertexArray")
	h, err := d.handle()
	if err != nil {
		return 0, err
	}
	d.arrays[h] = &vertexArray{}
	return h, nil
}

func (d *Device) BindVertexArray(h renderer.Handle) {
	d.record("BindVertexArray")
	d.array = h
}

func (d *Device) EnableVertexAttribArray(index uint32) {
	d.record("EnableVertexAttribArray")
	if va := d.arrays[d.array]; va != nil && index < maxAttribs {
		va.attribs[index].enabled = true
	}
}

func (d *Device) DisableVertexAttribArray(index uint32) {
	d.record("DisableVertexAttribArray")
	if va := d.arrays[d.array]; va != nil && index < maxAttribs {
		va.attribs[index].enabled = false
	}
}

func (d *Device) VertexAttribPointer(index uint32, size int32, normalized bool, stride, offset int32) {
	d.record("VertexAttribPointer")
	va := d.arrays[d.array]
	if va == nil || index >= maxAttribs {
		d.emit(renderer.DebugSeverityHigh, "VertexAttribPointer: no vertex array bound")
		return
	}
	a := &va.attribs[index]
	a.size, a.normalized, a.stride, a.offset = size, normalized, stride, offset
	a.buffer = d.bound[renderer.ArrayBuffer]
}

func (d *Device) DeleteVertexArray(h renderer.Handle) {
	d.record("DeleteVertexArray")
	delete(d.arrays, h)
	if d.array == h {
		d.array = 0
	}
}

// Textures

func (d *Device) CreateTexture() (renderer.Handle, error) {
	d.record("CreateTexture")
	h, err := d.handle()
	if err != nil {
		return 0, err
	}
	d.textures[h] = &texture{params: map[renderer.TextureParam]int32{
		renderer.TextureMinFilter: renderer.FilterNearest,
		renderer.TextureMagFilter: renderer.FilterNearest,
		renderer.TextureWrapS:     renderer.WrapRepeat,
		renderer.TextureWrapT:     renderer.WrapRepeat,
		renderer.TextureWrapR:     renderer.WrapRepeat,
	}}
	return h, nil
}

func (d *Device) ActiveTexture(unit uint32) {
	d.record("ActiveTexture")
	d.activeUnit = unit
}

func (d *Device) BindTexture(target renderer.TextureTarget, h renderer.Handle) {
	d.record("BindTexture")
	cube := target == renderer.TextureCubeMapTarget
	if t := d.textures[h]; t != nil {
		t.cube = cube
	}
	d.units[unitKey{unit: d.activeUnit, cube: cube}] = h
}

func (d *Device) boundTexture(target renderer.TextureTarget) *texture {
	cube := target != renderer.Texture2DTarget
	return d.textures[d.units[unitKey{unit: d.activeUnit, cube: cube}]]
}

func (d *Device) TexParameter(target renderer.TextureTarget, param renderer.TextureParam, value int32) {
	d.record("TexParameter")
	if t := d.boundTexture(target); t != nil {
		t.params[param] = value
	}
}

func (d *Device) TexImage2D(target renderer.TextureTarget, width, height int32, format renderer.PixelFormat, pixels []byte) {
	d.record("TexImage2D")
	t := d.boundTexture(target)
	if t == nil {
		d.emit(renderer.DebugSeverityHigh, "TexImage2D: no texture bound")
		return
	}
	l := &level{width: width, height: height, pix: make([]byte, 4*int(width)*int(height))}
	if pixels != nil {
		bpp := format.BytesPerPixel()
		for i := 0; i < int(width)*int(height) && (i+1)*bpp <= len(pixels); i++ {
			copy(l.pix[4*i:4*i+3], pixels[bpp*i:bpp*i+3])
			l.pix[4*i+3] = 255
			if bpp == 4 {
				l.pix[4*i+3] = pixels[bpp*i+3]
			}
		}
	}
	*t.level(target) = l
}

func (d *Device) DeleteTexture(h renderer.Handle) {
	d.record("DeleteTexture")
	delete(d.textures, h)
	for key, bound := range d.units {
		if bound == h {
			delete(d.units, key)
		}
	}
}

// Framebuffers and renderbuffers

func (d *Device) CreateFramebuffer() (renderer.Handle, error) {
	d.record("CreateFramebuffer")
	h, err := d.handle()
	if err != nil {
		return 0, err
	}
	d.framebuffers[h] = &framebuffer{}
	return h, nil
}

func (d *Device) BindFramebuffer(h renderer.Handle) {
	d.record("BindFramebuffer")
	d.framebuffer = h
}

func (d *Device) FramebufferTexture2D(attachment renderer.Attachment, _ renderer.TextureTarget, h renderer.Handle) {
	d.record("FramebufferTexture2D")
	fb := d.framebuffers[d.framebuffer]
	if fb == nil || attachment != renderer.ColorAttachment0 {
		d.emit(renderer.DebugSeverityHigh, "FramebufferTexture2D: invalid operation")
		return
	}
	fb.color = h
}

func (d *Device) FramebufferRenderbuffer(attachment renderer.Attachment, h renderer.Handle) {
	d.record("FramebufferRenderbuffer")
	fb := d.framebuffers[d.framebuffer]
	if fb == nil || attachment != renderer.DepthStencilAttachment {
		d.emit(renderer.DebugSeverityHigh, "FramebufferRenderbuffer: invalid operation")
		return
	}
	fb.depth = h
}

func (d *Device) CheckFramebufferStatus() renderer.FramebufferStatus {
	d.record("CheckFramebufferStatus")
	if d.framebuffer == 0 {
		return renderer.FramebufferComplete
	}
	fb := d.framebuffers[d.framebuffer]
	if fb == nil {
		return renderer.FramebufferUnsupported
	}
	if fb.color == 0 {
		return renderer.FramebufferIncompleteMissingAttachment
	}
	t := d.textures[fb.color]
	if t == nil || t.faces[0] == nil || t.faces[0].width == 0 || t.faces[0].height == 0 {
		return renderer.FramebufferIncompleteAttachment
	}
	if fb.depth != 0 {
		rb := d.renderbuffers[fb.depth]
		if rb == nil || rb.depth == nil {
			return renderer.FramebufferIncompleteAttachment
		}
		if rb.width != t.faces[0].width || rb.height != t.faces[0].height {
			return renderer.FramebufferIncompleteDimensions
		}
	}
	return renderer.FramebufferComplete
}

func (d *Device) DeleteFramebuffer(h renderer.Handle) {
	d.record("DeleteFramebuffer")
	delete(d.framebuffers, h)
	if d.framebuffer == h {
		d.framebuffer = 0
	}
}

func (d *Device) CreateRenderbuffer() (renderer.Handle, error) {
	d.record("CreateRenderbuffer")
	h, err := d.handle()
	if err != nil {
		return 0, err
	}
	d.renderbuffers[h] = &renderbuffer{}
	return h, nil
}

func (d *Device) BindRenderbuffer(h renderer.Handle) {
	d.record("BindRenderbuffer")
	d.renderbuffer = h
}

func (d *Device) RenderbufferStorage(_ renderer.RenderbufferFormat, width, height int32) {
	d.record("RenderbufferStorage")
	rb := d.renderbuffers[d.renderbuffer]
	if rb == nil {
		d.emit(renderer.DebugSeverityHigh, "RenderbufferStorage: no renderbuffer bound")
		return
	}
	rb.width, rb.height = width, height
	rb.depth = newDepth(width, height)
}

func (d *Device) DeleteRenderbuffer(h renderer.Handle) {
	d.record("DeleteRenderbuffer")
	delete(d.renderbuffers, h)
	if d.renderbuffer == h {
		d.renderbuffer = 0
	}
}

// Shaders and programs

func (d *Device) CreateShader(stage core.ShaderStage) (renderer.Handle, error) {
	d.record("CreateShader")
	h, err := d.handle()
	if err != nil {
		return 0, err
	}
	d.shaders[h] = &shader{stage: stage}
	return h, nil
}

func (d *Device) CompileShader(h renderer.Handle, source string) (bool, string) {
	d.record("CompileShader")
	s := d.shaders[h]
	if s == nil {
		return false, fmt.Sprintf("unknown shader %d", h)
	}
	decl, log := scan(source)
	s.decl = decl
	s.compiled = decl != nil
	return s.compiled, log
}

func (d *Device) DeleteShader(h renderer.Handle) {
	d.record("DeleteShader")
	delete(d.shaders, h)
}

func (d *Device) CreateProgram() (renderer.Handle, error) {
	d.record("CreateProgram")
	h, err := d.handle()
	if err != nil {
		return 0, err
	}
	d.programs[h] = &program{
		attached: make(map[renderer.Handle]bool),
		bindings: make(map[string]uint32),
	}
	return h, nil
}

func (d *Device) AttachShader(p, s renderer.Handle) {
	d.record("AttachShader")
	if prog := d.programs[p]; prog != nil {
		prog.attached[s] = true
	}
}

func (d *Device) DetachShader(p, s renderer.Handle) {
	d.record("DetachShader")
	if prog := d.programs[p]; prog != nil {
		delete(prog.attached, s)
	}
}

func (d *Device) BindAttribLocation(p renderer.Handle, index uint32, name string) {
	d.record("BindAttribLocation")
	if prog := d.programs[p]; prog != nil {
		prog.bindings[name] = index
	}
}

func (d *Device) LinkProgram(h renderer.Handle) (bool, string) {
	d.record("LinkProgram")
	p := d.programs[h]
	if p == nil {
		return false, fmt.Sprintf("unknown program %d", h)
	}
	p.linked = false

	handles := make([]renderer.Handle, 0, len(p.attached))
	for s := range p.attached {
		handles = append(handles, s)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })

	var vertex, compute, fragment int
	var stages []*shader
	for _, sh := range handles {
		s := d.shaders[sh]
		if s == nil || !s.compiled {
			return false, "error: attached shader is not compiled"
		}
		switch s.stage {
		case core.ShaderStageVertex:
			vertex++
		case core.ShaderStageFragment:
			fragment++
		case core.ShaderStageCompute:
			compute++
		}
		stages = append(stages, s)
	}
	switch {
	case compute > 0 && vertex+fragment > 0:
		return false, "error: compute shader linked with graphics stages"
	case compute == 0 && (vertex != 1 || fragment != 1):
		return false, fmt.Sprintf("error: program needs one vertex and one fragment shader, got %d and %d", vertex, fragment)
	}

	p.stages = p.stages[:0]
	p.uniforms = nil
	p.locations = make(map[string]int32)
	p.values = make(map[int32]uniformValue)
	p.attribs = make(map[string]int32)
	p.blocks = make(map[string]blockDecl)
	p.blockBind = make(map[string]uint32)
	p.alphaCutoff = -1

	var next int32
	for _, s := range stages {
		p.stages = append(p.stages, s.stage)
		for _, u := range s.decl.uniforms {
			if _, dup := p.locations[u.Name]; dup {
				continue
			}
			p.uniforms = append(p.uniforms, u)
			if u.Array == 0 {
				p.locations[u.Name] = next
				next++
				continue
			}
			p.locations[u.Name] = next
			for i := 0; i < u.Array; i++ {
				p.locations[fmt.Sprintf("%s[%d]", u.Name, i)] = next
				next++
			}
		}
		for _, b := range s.decl.blocks {
			p.blocks[b.Name] = b
		}
		if s.stage == core.ShaderStageVertex {
			d.assignAttribs(p, s.decl.inputs)
		}
		if s.stage == core.ShaderStageFragment {
			p.alphaCutoff = s.decl.alphaCutoff
		}
	}
	p.linked = true
	return true, ""
}

// assignAttribs resolves input locations: explicit layout qualifiers first,
// then BindAttribLocation, then the lowest free slot in declaration order.
func (d *Device) assignAttribs(p *program, inputs []attribDecl) {
	used := make(map[int32]bool)
	for _, in := range inputs {
		if in.Location >= 0 {
			p.attribs[in.Name] = in.Location
			used[in.Location] = true
		}
	}
	for _, in := range inputs {
		if in.Location >= 0 {
			continue
		}
		if loc, ok := p.bindings[in.Name]; ok {
			p.attribs[in.Name] = int32(loc)
			used[int32(loc)] = true
		}
	}
	var free int32
	for _, in := range inputs {
		if _, ok := p.attribs[in.Name]; ok {
			continue
		}
		for used[free] {
			free++
		}
		p.attribs[in.Name] = free
		used[free] = true
	}
}

func (d *Device) UseProgram(h renderer.Handle) {
	d.record("UseProgram")
	if h != 0 {
		if p := d.programs[h]; p == nil || !p.linked {
			d.emit(renderer.DebugSeverityHigh, "UseProgram: program %d is not linked", h)
			return
		}
	}
	d.current = h
}

func (d *Device) DeleteProgram(h renderer.Handle) {
	d.record("DeleteProgram")
	delete(d.programs, h)
	if d.current == h {
		d.current = 0
	}
}

func (d *Device) GetUniformLocation(h renderer.Handle, name string) int32 {
	d.record("GetUniformLocation")
	p := d.programs[h]
	if p == nil || !p.linked {
		return -1
	}
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	return -1
}

func (d *Device) GetAttribLocation(h renderer.Handle, name string) int32 {
	d.record("GetAttribLocation")
	p := d.programs[h]
	if p == nil || !p.linked {
		return -1
	}
	if loc, ok := p.attribs[name]; ok {
		return loc
	}
	return -1
}

func (d *Device) UniformBlockBinding(h renderer.Handle, block string, binding uint32) bool {
	d.record("UniformBlockBinding")
	p := d.programs[h]
	if p == nil || !p.linked {
		return false
	}
	if _, ok := p.blocks[block]; !ok {
		return false
	}
	p.blockBind[block] = binding
	return true
}

func (d *Device) setUniform(location int32, v uniformValue) {
	if location < 0 {
		return
	}
	p := d.programs[d.current]
	if p == nil {
		d.emit(renderer.DebugSeverityHigh, "Uniform: no current program")
		return
	}
	p.values[location] = v
}

func (d *Device) Uniform1i(location int32, v int32) {
	d.record("Uniform1i")
	d.setUniform(location, uniformValue{floats: [16]float32{float32(v)}, n: 1, i: v})
}

func (d *Device) Uniform1f(location int32, v float32) {
	d.record("Uniform1f")
	d.setUniform(location, uniformValue{floats: [16]float32{v}, n: 1, i: int32(v)})
}

func (d *Device) Uniform2f(location int32, x, y float32) {
	d.record("Uniform2f")
	d.setUniform(location, uniformValue{floats: [16]float32{x, y}, n: 2})
}

func (d *Device) Uniform3f(location int32, x, y, z float32) {
	d.record("Uniform3f")
	d.setUniform(location, uniformValue{floats: [16]float32{x, y, z}, n: 3})
}

func (d *Device) Uniform4f(location int32, x, y, z, w float32) {
	d.record("Uniform4f")
	d.setUniform(location, uniformValue{floats: [16]float32{x, y, z, w}, n: 4})
}

func (d *Device) UniformMatrix4fv(location int32, m [16]float32) {
	d.record("UniformMatrix4fv")
	d.setUniform(location, uniformValue{floats: m, n: 16})
}

func (d *Device) DispatchCompute(x, y, z uint32) {
	d.record("DispatchCompute")
	p := d.programs[d.current]
	if p == nil || len(p.stages) != 1 || p.stages[0] != core.ShaderStageCompute {
		d.emit(renderer.DebugSeverityHigh, "DispatchCompute: no compute program bound")
		return
	}
	d.dispatches = append(d.dispatches, [3]uint32{x, y, z})
}

// Fixed function state

func (d *Device) Viewport(x, y, width, height int32) {
	d.record("Viewport")
	d.viewport = [4]int32{x, y, width, height}
}

func (d *Device) ClearColor(r, g, b, a float32) {
	d.record("ClearColor")
	d.clearColor = [4]float32{r, g, b, a}
}

func (d *Device) Clear(mask renderer.ClearMask) {
	d.record("Clear")
	color, depth := d.surface()
	if mask&renderer.ClearColorBit != 0 && color != nil {
		c := [4]byte{toByte(d.clearColor[0]), toByte(d.clearColor[1]), toByte(d.clearColor[2]), toByte(d.clearColor[3])}
		for i := 0; i < len(color.pix); i += 4 {
			copy(color.pix[i:i+4], c[:])
		}
	}
	if mask&renderer.ClearDepthBit != 0 && depth != nil {
		for i := range depth.depth {
			depth.depth[i] = 1
		}
	}
}

func (d *Device) Enable(c renderer.Capability) {
	d.record("Enable")
	d.capabilities[c] = true
}

func (d *Device) Disable(c renderer.Capability) {
	d.record("Disable")
	d.capabilities[c] = false
}

func (d *Device) DepthFunc(fn renderer.DepthFunc) {
	d.record("DepthFunc")
	d.depthFunc = fn
}

func (d *Device) BlendFunc(src, dst renderer.BlendFactor) {
	d.record("BlendFunc")
	d.blendSrc, d.blendDst = src, dst
}

// surface returns the color and depth storage of the bound framebuffer.
func (d *Device) surface() (*level, *renderbuffer) {
	if d.framebuffer == 0 {
		return d.screenColor, d.screenDepth
	}
	fb := d.framebuffers[d.framebuffer]
	if fb == nil {
		return nil, nil
	}
	var color *level
	if t := d.textures[fb.color]; t != nil {
		color = t.faces[0]
	}
	rb := d.renderbuffers[fb.depth]
	if rb != nil && color != nil && (rb.width != color.width || rb.height != color.height) {
		rb = nil
	}
	return color, rb
}

func (d *Device) ReadPixels(x, y, width, height int32) []byte {
	d.record("ReadPixels")
	out := make([]byte, 4*int(width)*int(height))
	color, _ := d.surface()
	if color == nil {
		return out
	}
	for row := int32(0); row < height; row++ {
		sy := y + row
		if sy < 0 || sy >= color.height {
			continue
		}
		for col := int32(0); col < width; col++ {
			sx := x + col
			if sx < 0 || sx >= color.width {
				continue
			}
			src := 4 * (int(sy)*int(color.width) + int(sx))
			dst := 4 * (int(row)*int(width) + int(col))
			copy(out[dst:dst+4], color.pix[src:src+4])
		}
	}
	return out
}

func toByte(v float32) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return byte(v*255 + 0.5)
	}
}
