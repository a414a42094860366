package soft

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/rainfrog/engine/renderer"
)

// Shading model
//
// Vertex: the input at location 0 is the position. It is transformed by
// projection * view * model, each taken from a plain mat4 uniform or a
// uniform block member of that name and defaulting to identity.
//
// Fragment: the base color is the albedo, color or objectColor uniform, or
// white. A declared sampler2D multiplies it by the texture on its unit at
// the interpolated texture coordinate input; a samplerCube by the cubemap
// sampled along the object space position. An alpha test of the form
// `if (c.a < x) discard;` drops the fragment before depth and color writes.
// Blending uses the factors set with BlendFunc.

type vertexOut struct {
	clip mgl32.Vec4
	obj  mgl32.Vec3
	uv   mgl32.Vec2
}

type shading struct {
	mvp      mgl32.Mat4
	base     [4]float32
	uvSlot   int32
	sampler  *texture
	cube     *texture
	depth    bool
	blend    bool
	blendSrc renderer.BlendFactor
	blendDst renderer.BlendFactor
	cutoff   float32
	depthFn  renderer.DepthFunc
	viewport [4]int32
}

func (d *Device) DrawArrays(mode renderer.PrimitiveMode, first, count int32) {
	d.record("DrawArrays")
	indices := make([]uint32, 0, count)
	for i := first; i < first+count; i++ {
		indices = append(indices, uint32(i))
	}
	d.draw(mode, count, indices)
}

func (d *Device) DrawElements(mode renderer.PrimitiveMode, count int32) {
	d.record("DrawElements")
	va := d.arrays[d.array]
	if va == nil {
		d.emit(renderer.DebugSeverityHigh, "DrawElements: no vertex array bound")
		return
	}
	b := d.buffers[va.element]
	if b == nil || int(count)*4 > len(b.data) {
		d.emit(renderer.DebugSeverityHigh, "DrawElements: element buffer missing or too small")
		return
	}
	indices := make([]uint32, count)
	for i := range indices {
		indices[i] = binary.LittleEndian.Uint32(b.data[4*i:])
	}
	d.draw(mode, count, indices)
}

func (d *Device) draw(mode renderer.PrimitiveMode, count int32, indices []uint32) {
	p := d.programs[d.current]
	if p == nil || !p.linked {
		d.emit(renderer.DebugSeverityHigh, "draw: no program in use")
		return
	}
	va := d.arrays[d.array]
	if va == nil {
		d.emit(renderer.DebugSeverityHigh, "draw: no vertex array bound")
		return
	}

	rec := DrawRecord{Program: d.current, Mode: mode, Count: count, Blocks: d.blockContents(p)}
	color, depth := d.surface()
	if color != nil {
		s := d.shading(p)
		verts := make(map[uint32]vertexOut, len(indices))
		fetch := func(i uint32) vertexOut {
			v, ok := verts[i]
			if !ok {
				v = d.vertex(va, &s, i)
				verts[i] = v
			}
			return v
		}
		triangle := func(a, b, c uint32) {
			rec.Fragments += d.rasterize(color, depth, &s, fetch(a), fetch(b), fetch(c))
		}
		switch mode {
		case renderer.Triangles:
			for i := 0; i+2 < len(indices); i += 3 {
				triangle(indices[i], indices[i+1], indices[i+2])
			}
		case renderer.TriangleStrip:
			for i := 0; i+2 < len(indices); i++ {
				triangle(indices[i], indices[i+1], indices[i+2])
			}
		}
	}
	d.draws = append(d.draws, rec)
}

func (d *Device) blockContents(p *program) map[string][]float32 {
	out := make(map[string][]float32, len(p.blocks))
	for name, block := range p.blocks {
		b := d.buffers[d.indexed[p.blockBind[name]]]
		if b == nil {
			continue
		}
		n := block.Size / 4
		if n > len(b.data)/4 {
			n = len(b.data) / 4
		}
		out[name] = readFloats(b.data, 0, n)
	}
	return out
}

func readFloats(data []byte, offset, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[offset+4*i:]))
	}
	return out
}

func (d *Device) shading(p *program) shading {
	s := shading{
		mvp:      d.matrix(p, "projection").Mul4(d.matrix(p, "view")).Mul4(d.matrix(p, "model")),
		base:     [4]float32{1, 1, 1, 1},
		uvSlot:   -1,
		depth:    d.capabilities[renderer.DepthTest],
		blend:    d.capabilities[renderer.Blend],
		blendSrc: d.blendSrc,
		blendDst: d.blendDst,
		cutoff:   p.alphaCutoff,
		depthFn:  d.depthFunc,
		viewport: d.viewport,
	}
	for _, name := range []string{"albedo", "color", "objectColor"} {
		if v, ok := p.value(name); ok && (v.n == 3 || v.n == 4) {
			s.base = [4]float32{v.floats[0], v.floats[1], v.floats[2], 1}
			if v.n == 4 {
				s.base[3] = v.floats[3]
			}
			break
		}
	}
	for _, u := range p.uniforms {
		var unit uint32
		if v, ok := p.value(u.Name); ok {
			unit = uint32(v.i)
		}
		switch u.Type {
		case "sampler2D":
			if s.sampler == nil {
				s.sampler = d.textures[d.units[unitKey{unit: unit}]]
			}
		case "samplerCube":
			if s.cube == nil {
				s.cube = d.textures[d.units[unitKey{unit: unit, cube: true}]]
			}
		}
	}
	for name, loc := range p.attribs {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "tex") || strings.Contains(lower, "uv") {
			s.uvSlot = loc
		}
	}
	return s
}

func (p *program) value(name string) (uniformValue, bool) {
	loc, ok := p.locations[name]
	if !ok {
		return uniformValue{}, false
	}
	v, ok := p.values[loc]
	return v, ok
}

// matrix resolves a mat4 from a plain uniform first, then from any block
// that has a member of that name.
func (d *Device) matrix(p *program, name string) mgl32.Mat4 {
	if v, ok := p.value(name); ok && v.n == 16 {
		return mgl32.Mat4(v.floats)
	}
	for blockName, block := range p.blocks {
		for _, m := range block.Members {
			if m.Name != name || m.Type != "mat4" {
				continue
			}
			b := d.buffers[d.indexed[p.blockBind[blockName]]]
			if b == nil || m.Offset+64 > len(b.data) {
				continue
			}
			var out mgl32.Mat4
			copy(out[:], readFloats(b.data, m.Offset, 16))
			return out
		}
	}
	return mgl32.Ident4()
}

func (d *Device) attribute(va *vertexArray, slot int32, index uint32) ([]float32, bool) {
	if slot < 0 || slot >= maxAttribs {
		return nil, false
	}
	a := va.attribs[slot]
	b := d.buffers[a.buffer]
	if !a.enabled || b == nil {
		return nil, false
	}
	stride := a.stride
	if stride == 0 {
		stride = 4 * a.size
	}
	offset := int(a.offset) + int(index)*int(stride)
	if offset+4*int(a.size) > len(b.data) {
		return nil, false
	}
	return readFloats(b.data, offset, int(a.size)), true
}

func (d *Device) vertex(va *vertexArray, s *shading, index uint32) vertexOut {
	var v vertexOut
	if pos, ok := d.attribute(va, 0, index); ok {
		copy(v.obj[:], pos)
	}
	v.clip = s.mvp.Mul4x1(v.obj.Vec4(1))
	if uv, ok := d.attribute(va, s.uvSlot, index); ok {
		copy(v.uv[:], uv)
	}
	return v
}

func (d *Device) rasterize(color *level, depth *renderbuffer, s *shading, a, b, c vertexOut) int {
	if a.clip[3] <= 0 || b.clip[3] <= 0 || c.clip[3] <= 0 {
		return 0
	}
	vx, vy, vw, vh := float32(s.viewport[0]), float32(s.viewport[1]), float32(s.viewport[2]), float32(s.viewport[3])
	window := func(v vertexOut) mgl32.Vec3 {
		ndc := v.clip.Vec3().Mul(1 / v.clip[3])
		return mgl32.Vec3{vx + (ndc[0]+1)*0.5*vw, vy + (ndc[1]+1)*0.5*vh, (ndc[2] + 1) * 0.5}
	}
	p0, p1, p2 := window(a), window(b), window(c)

	area := edge(p0, p1, p2[0], p2[1])
	if area == 0 {
		return 0
	}

	minX := clampInt(int(floor3(p0[0], p1[0], p2[0])), 0, int(color.width))
	maxX := clampInt(int(ceil3(p0[0], p1[0], p2[0])), 0, int(color.width))
	minY := clampInt(int(floor3(p0[1], p1[1], p2[1])), 0, int(color.height))
	maxY := clampInt(int(ceil3(p0[1], p1[1], p2[1])), 0, int(color.height))

	written := 0
	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			px, py := float32(x)+0.5, float32(y)+0.5
			b0 := edge(p1, p2, px, py) / area
			b1 := edge(p2, p0, px, py) / area
			b2 := edge(p0, p1, px, py) / area
			if b0 < 0 || b1 < 0 || b2 < 0 {
				continue
			}

			idx := y*int(color.width) + x
			z := b0*p0[2] + b1*p1[2] + b2*p2[2]
			if s.depth && depth != nil && !depthPasses(s.depthFn, z, depth.depth[idx]) {
				continue
			}

			// perspective correct weights
			w0, w1, w2 := b0/a.clip[3], b1/b.clip[3], b2/c.clip[3]
			sum := w0 + w1 + w2
			w0, w1, w2 = w0/sum, w1/sum, w2/sum

			frag := s.base
			if s.sampler != nil {
				uv := a.uv.Mul(w0).Add(b.uv.Mul(w1)).Add(c.uv.Mul(w2))
				frag = modulate(frag, sample2D(s.sampler, s.sampler.faces[0], uv[0], uv[1]))
			}
			if s.cube != nil {
				dir := a.obj.Mul(w0).Add(b.obj.Mul(w1)).Add(c.obj.Mul(w2))
				frag = modulate(frag, sampleCube(s.cube, dir))
			}
			if frag[3] < s.cutoff {
				continue
			}
			if s.depth && depth != nil {
				depth.depth[idx] = z
			}
			writePixel(color.pix[4*idx:4*idx+4], frag, s)
			written++
		}
	}
	return written
}

func edge(a, b mgl32.Vec3, x, y float32) float32 {
	return (x-a[0])*(b[1]-a[1]) - (y-a[1])*(b[0]-a[0])
}

func depthPasses(fn renderer.DepthFunc, z, stored float32) bool {
	switch fn {
	case renderer.DepthLess:
		return z < stored
	case renderer.DepthLessEqual:
		return z <= stored
	default:
		return true
	}
}

func modulate(a, b [4]float32) [4]float32 {
	return [4]float32{a[0] * b[0], a[1] * b[1], a[2] * b[2], a[3] * b[3]}
}

func writePixel(dst []byte, c [4]float32, s *shading) {
	if s.blend {
		alpha := clampFloat(c[3])
		fs, fd := blendFactor(s.blendSrc, alpha), blendFactor(s.blendDst, alpha)
		for i := 0; i < 4; i++ {
			c[i] = clampFloat(c[i])*fs + float32(dst[i])/255*fd
		}
	}
	for i := 0; i < 4; i++ {
		dst[i] = toByte(c[i])
	}
}

func blendFactor(f renderer.BlendFactor, srcAlpha float32) float32 {
	switch f {
	case renderer.BlendOne:
		return 1
	case renderer.BlendSrcAlpha:
		return srcAlpha
	case renderer.BlendOneMinusSrcAlpha:
		return 1 - srcAlpha
	}
	return 0
}

func sample2D(t *texture, l *level, u, v float32) [4]float32 {
	if l == nil || l.width == 0 || l.height == 0 {
		return [4]float32{0, 0, 0, 1}
	}
	u = wrap(t.params[renderer.TextureWrapS], u)
	v = wrap(t.params[renderer.TextureWrapT], v)
	if t.params[renderer.TextureMagFilter] == renderer.FilterNearest {
		return texel(l, int(u*float32(l.width)), int(v*float32(l.height)))
	}

	fx := u*float32(l.width) - 0.5
	fy := v*float32(l.height) - 0.5
	x0, y0 := int(math.Floor(float64(fx))), int(math.Floor(float64(fy)))
	tx, ty := fx-float32(x0), fy-float32(y0)
	c00, c10 := texel(l, x0, y0), texel(l, x0+1, y0)
	c01, c11 := texel(l, x0, y0+1), texel(l, x0+1, y0+1)

	var out [4]float32
	for i := range out {
		top := c00[i]*(1-tx) + c10[i]*tx
		bottom := c01[i]*(1-tx) + c11[i]*tx
		out[i] = top*(1-ty) + bottom*ty
	}
	return out
}

// texel clamps to the edge.
func texel(l *level, x, y int) [4]float32 {
	x = clampInt(x, 0, int(l.width)-1)
	y = clampInt(y, 0, int(l.height)-1)
	i := 4 * (y*int(l.width) + x)
	return [4]float32{float32(l.pix[i]) / 255, float32(l.pix[i+1]) / 255, float32(l.pix[i+2]) / 255, float32(l.pix[i+3]) / 255}
}

func wrap(mode int32, v float32) float32 {
	if mode == renderer.WrapRepeat {
		return v - float32(math.Floor(float64(v)))
	}
	return clampFloat(v)
}

// sampleCube picks the face by the major axis of dir, the way OpenGL
// selects cube map faces.
func sampleCube(t *texture, dir mgl32.Vec3) [4]float32 {
	ax, ay, az := abs(dir[0]), abs(dir[1]), abs(dir[2])
	var face int
	var sc, tc, ma float32
	switch {
	case ax >= ay && ax >= az:
		ma = ax
		if dir[0] > 0 {
			face, sc, tc = 0, -dir[2], -dir[1]
		} else {
			face, sc, tc = 1, dir[2], -dir[1]
		}
	case ay >= az:
		ma = ay
		if dir[1] > 0 {
			face, sc, tc = 2, dir[0], dir[2]
		} else {
			face, sc, tc = 3, dir[0], -dir[2]
		}
	default:
		ma = az
		if dir[2] > 0 {
			face, sc, tc = 4, dir[0], -dir[1]
		} else {
			face, sc, tc = 5, -dir[0], -dir[1]
		}
	}
	if ma == 0 {
		return [4]float32{0, 0, 0, 1}
	}
	return sample2D(t, t.faces[face], (sc/ma+1)/2, (tc/ma+1)/2)
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func clampFloat(v float32) float32 {
	return float32(math.Max(0, math.Min(1, float64(v))))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func floor3(a, b, c float32) float32 {
	return float32(math.Floor(float64(min(a, b, c))))
}

func ceil3(a, b, c float32) float32 {
	return float32(math.Ceil(float64(max(a, b, c))))
}
