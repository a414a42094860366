package renderer

import (
	"fmt"
	"image"

	"github.com/spaghettifunk/rainfrog/engine/assets"
	"github.com/spaghettifunk/rainfrog/engine/core"
)

const CubemapFaces = 6

// Texture2D is an RGBA8 texture sampled with linear filtering and clamped
// edges.
type Texture2D struct {
	resource

	handle Handle
	width  int32
	height int32
}

// LoadTexture2D decodes an image asset and uploads it.
func LoadTexture2D(ctx *Context, src assets.Source, path string) (*Texture2D, error) {
	img, err := assets.LoadImage(src, path, false)
	if err != nil {
		return nil, err
	}
	return newTexture2D(ctx, path, int32(img.Rect.Dx()), int32(img.Rect.Dy()), img.Pix)
}

// NewTexture2D uploads img, whose first row becomes texture row 0.
func NewTexture2D(ctx *Context, img image.Image) (*Texture2D, error) {
	rgba := assets.ToRGBA(img)
	if rgba.Rect.Empty() {
		return nil, fmt.Errorf("%w: empty image", core.ErrInvalidImage)
	}
	return newTexture2D(ctx, "", int32(rgba.Rect.Dx()), int32(rgba.Rect.Dy()), rgba.Pix)
}

// newEmptyTexture2D allocates storage without data, for render targets.
func newEmptyTexture2D(ctx *Context, label string, width, height int32) (*Texture2D, error) {
	return newTexture2D(ctx, label, width, height, nil)
}

func newTexture2D(ctx *Context, label string, width, height int32, pixels []byte) (*Texture2D, error) {
	handle, err := ctx.device.CreateTexture()
	if err != nil {
		return nil, &core.ResourceCreationError{Kind: string(KindTexture)}
	}
	t := &Texture2D{handle: handle}
	t.init(ctx, KindTexture, label)

	ctx.BindTexture(0, Texture2DTarget, handle)
	setSamplerParams(ctx.device, Texture2DTarget, false)
	t.allocate(width, height, pixels)
	return t, nil
}

func setSamplerParams(device Device, target TextureTarget, withR bool) {
	device.TexParameter(target, TextureMinFilter, FilterLinear)
	device.TexParameter(target, TextureMagFilter, FilterLinear)
	device.TexParameter(target, TextureWrapS, WrapClampToEdge)
	device.TexParameter(target, TextureWrapT, WrapClampToEdge)
	if withR {
		device.TexParameter(target, TextureWrapR, WrapClampToEdge)
	}
}

// allocate expects the texture to be bound.
func (t *Texture2D) allocate(width, height int32, pixels []byte) {
	t.ctx.device.TexImage2D(Texture2DTarget, width, height, PixelFormatRGBA8, pixels)
	t.width = width
	t.height = height
}

func (t *Texture2D) resize(width, height int32) {
	t.mustBeLive()
	t.ctx.BindTexture(0, Texture2DTarget, t.handle)
	t.allocate(width, height, nil)
}

func (t *Texture2D) Handle() Handle {
	t.mustBeLive()
	return t.handle
}

func (t *Texture2D) Width() int32 {
	return t.width
}

func (t *Texture2D) Height() int32 {
	return t.height
}

func (t *Texture2D) Bind(unit uint32) {
	t.mustBeLive()
	t.ctx.BindTexture(unit, Texture2DTarget, t.handle)
}

func (t *Texture2D) Destroy() {
	if !t.markReleased() {
		return
	}
	t.ctx.deleteTexture(t.handle)
	t.handle = 0
}

// Cubemap is a six face texture, faces ordered +X, -X, +Y, -Y, +Z, -Z.
type Cubemap struct {
	resource

	handle Handle
	size   int32
}

// NewCubemap returns an empty cubemap. Faces are uploaded with SetFaces.
func NewCubemap(ctx *Context) *Cubemap {
	c := &Cubemap{}
	c.init(ctx, KindCubemap, "")
	return c
}

// LoadCubemap creates a cubemap from six face images.
func LoadCubemap(ctx *Context, src assets.Source, paths []string) (*Cubemap, error) {
	c := NewCubemap(ctx)
	if err := c.SetFaces(src, paths); err != nil {
		c.Destroy()
		return nil, err
	}
	return c, nil
}

// SetFaces decodes all six faces before touching the device. Faces must be
// square and the same size. Any texture previously held is released.
func (c *Cubemap) SetFaces(src assets.Source, paths []string) error {
	c.mustBeLive()
	if len(paths) != CubemapFaces {
		return &core.InvalidFaceCountError{Count: len(paths)}
	}

	faces := make([]*image.RGBA, CubemapFaces)
	for i, path := range paths {
		img, err := assets.LoadImage(src, path, false)
		if err != nil {
			return err
		}
		w, h := img.Rect.Dx(), img.Rect.Dy()
		if w != h {
			return fmt.Errorf("%w: cubemap face %s is %dx%d, faces must be square", core.ErrInvalidImage, path, w, h)
		}
		if i > 0 && w != faces[0].Rect.Dx() {
			return fmt.Errorf("%w: cubemap face %s is %dpx, expected %dpx", core.ErrInvalidImage, path, w, faces[0].Rect.Dx())
		}
		faces[i] = img
	}

	if c.handle != 0 {
		c.ctx.deleteTexture(c.handle)
		c.handle = 0
	}
	handle, err := c.ctx.device.CreateTexture()
	if err != nil {
		return &core.ResourceCreationError{Kind: string(KindCubemap)}
	}
	c.handle = handle
	c.size = int32(faces[0].Rect.Dx())

	c.ctx.BindTexture(0, TextureCubeMapTarget, handle)
	setSamplerParams(c.ctx.device, TextureCubeMapTarget, true)
	for i, face := range faces {
		c.ctx.device.TexImage2D(CubeFace(i), c.size, c.size, PixelFormatRGBA8, face.Pix)
	}
	return nil
}

// Handle is zero until faces have been set.
func (c *Cubemap) Handle() Handle {
	c.mustBeLive()
	return c.handle
}

// Size is the edge length of each face in pixels.
func (c *Cubemap) Size() int32 {
	return c.size
}

func (c *Cubemap) Bind(unit uint32) {
	c.mustBeLive()
	c.ctx.BindTexture(unit, TextureCubeMapTarget, c.handle)
}

func (c *Cubemap) Destroy() {
	if !c.markReleased() {
		return
	}
	if c.handle != 0 {
		c.ctx.deleteTexture(c.handle)
		c.handle = 0
	}
}
