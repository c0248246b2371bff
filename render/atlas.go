package render

import (
	"fmt"
	"image"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	xdraw "golang.org/x/image/draw"
)

// Sprite selects a cell in the built-in atlas.
type Sprite int

const (
	SpriteSoftDisc Sprite = iota
	SpriteRing
	SpriteSpark
	SpriteStreak
	spriteCount
)

// Atlas is a grid sprite sheet. The built-in sprites are procedural, drawn
// supersampled and minified into their cells, so there are no asset files to
// ship.
type Atlas struct {
	Image *image.RGBA
	Cols  int
	Rows  int
	Cell  int
}

// BuildAtlas renders the built-in sprite set into a 2x2 grid with square
// cells of the given pixel size.
func BuildAtlas(cell int) *Atlas {
	if cell < 8 {
		cell = 8
	}
	a := &Atlas{
		Cols: 2,
		Rows: 2,
		Cell: cell,
	}
	a.Image = image.NewRGBA(image.Rect(0, 0, a.Cols*cell, a.Rows*cell))

	// 4x supersample, then a Catmull-Rom minify per cell. The analytic
	// falloffs alias badly at small cell sizes otherwise.
	super := cell * 4
	for s := Sprite(0); s < spriteCount; s++ {
		src := image.NewRGBA(image.Rect(0, 0, super, super))
		drawSprite(src, s)

		cx := (int(s) % a.Cols) * cell
		cy := (int(s) / a.Cols) * cell
		dst := image.Rect(cx, cy, cx+cell, cy+cell)
		xdraw.CatmullRom.Scale(a.Image, dst, src, src.Bounds(), xdraw.Src, nil)
	}
	return a
}

// UVRect returns the cell's uv origin and extent (u0, v0, du, dv). A small
// inset keeps linear filtering from bleeding neighbor cells.
func (a *Atlas) UVRect(s Sprite) [4]float32 {
	if s < 0 || s >= spriteCount {
		s = SpriteSoftDisc
	}
	w := float32(a.Cols)
	h := float32(a.Rows)
	inset := 0.5 / float32(a.Cell)
	u0 := float32(int(s)%a.Cols)/w + inset/w
	v0 := float32(int(s)/a.Cols)/h + inset/h
	return [4]float32{u0, v0, 1/w - 2*inset/w, 1/h - 2*inset/h}
}

func drawSprite(dst *image.RGBA, s Sprite) {
	size := dst.Bounds().Dx()
	for py := 0; py < size; py++ {
		for px := 0; px < size; px++ {
			x := (float64(px)+0.5)/float64(size)*2 - 1
			y := (float64(py)+0.5)/float64(size)*2 - 1
			a := spriteAlpha(s, x, y)
			v := uint8(clamp01(a)*255 + 0.5)
			o := dst.PixOffset(px, py)
			dst.Pix[o+0] = 255
			dst.Pix[o+1] = 255
			dst.Pix[o+2] = 255
			dst.Pix[o+3] = v
		}
	}
}

func spriteAlpha(s Sprite, x, y float64) float64 {
	r := math.Sqrt(x*x + y*y)
	switch s {
	case SpriteRing:
		return smoothstep(0.22, 0.0, math.Abs(r-0.65))
	case SpriteSpark:
		core := math.Exp(-r * r * 14)
		armX := math.Pow(clamp01(1-math.Abs(x)), 2) * clamp01(1-math.Abs(y)*9)
		armY := math.Pow(clamp01(1-math.Abs(y)), 2) * clamp01(1-math.Abs(x)*9)
		return clamp01(core + armX + armY)
	case SpriteStreak:
		return math.Pow(clamp01(1-math.Abs(y)*4), 2) * math.Pow(clamp01(1-math.Abs(x)), 0.7)
	default: // SpriteSoftDisc
		return math.Exp(-r * r * 5)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// smoothstep follows the shader convention; swapped edges invert the ramp.
func smoothstep(edge0, edge1, v float64) float64 {
	t := clamp01((v - edge0) / (edge1 - edge0))
	return t * t * (3 - 2*t)
}

// SpriteTexture is an uploaded atlas plus the sampler the billboard pipeline
// binds.
type SpriteTexture struct {
	Texture *wgpu.Texture
	View    *wgpu.TextureView
	Sampler *wgpu.Sampler
}

// Upload copies the atlas to a GPU texture.
func (a *Atlas) Upload(device *wgpu.Device) (*SpriteTexture, error) {
	w := uint32(a.Image.Bounds().Dx())
	h := uint32(a.Image.Bounds().Dy())

	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "SpriteAtlas",
		Size:          wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create atlas texture: %w", err)
	}

	device.GetQueue().WriteTexture(
		tex.AsImageCopy(),
		a.Image.Pix,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  4 * w,
			RowsPerImage: h,
		},
		&wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to create atlas view: %w", err)
	}

	sampler, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "SpriteAtlasSampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		view.Release()
		tex.Release()
		return nil, fmt.Errorf("failed to create atlas sampler: %w", err)
	}

	return &SpriteTexture{Texture: tex, View: view, Sampler: sampler}, nil
}

func (st *SpriteTexture) Release() {
	if st.Sampler != nil {
		st.Sampler.Release()
		st.Sampler = nil
	}
	if st.View != nil {
		st.View.Release()
		st.View = nil
	}
	if st.Texture != nil {
		st.Texture.Release()
		st.Texture = nil
	}
}
