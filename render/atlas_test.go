package render

import (
	"testing"
)

func TestBuildAtlasDimensions(t *testing.T) {
	a := BuildAtlas(64)
	b := a.Image.Bounds()
	if b.Dx() != 128 || b.Dy() != 128 {
		t.Errorf("atlas %dx%d, want 128x128", b.Dx(), b.Dy())
	}

	// Tiny cells get floored to a usable size.
	small := BuildAtlas(1)
	if small.Cell < 8 {
		t.Errorf("cell %d below minimum", small.Cell)
	}
}

func TestUVRectInBounds(t *testing.T) {
	a := BuildAtlas(64)
	seen := map[[4]float32]bool{}
	for s := Sprite(0); s < spriteCount; s++ {
		r := a.UVRect(s)
		if seen[r] {
			t.Errorf("sprite %d shares a uv rect", s)
		}
		seen[r] = true

		if r[0] < 0 || r[1] < 0 || r[0]+r[2] > 1 || r[1]+r[3] > 1 {
			t.Errorf("sprite %d rect %v outside [0,1]", s, r)
		}
		if r[2] <= 0 || r[3] <= 0 {
			t.Errorf("sprite %d rect %v has no extent", s, r)
		}
	}
}

func TestUVRectInsetAgainstBleed(t *testing.T) {
	a := BuildAtlas(64)
	left := a.UVRect(SpriteSoftDisc)
	right := a.UVRect(SpriteRing)

	// Cells are adjacent in the sheet; the sampled rects must not touch.
	if left[0]+left[2] >= right[0] {
		t.Errorf("rects touch: %v then %v", left, right)
	}
}

func TestUVRectOutOfRangeFallsBack(t *testing.T) {
	a := BuildAtlas(32)
	if a.UVRect(Sprite(99)) != a.UVRect(SpriteSoftDisc) {
		t.Error("out-of-range sprite should fall back to the disc")
	}
}

func TestSpriteAlphaProfiles(t *testing.T) {
	// Disc: bright center, dark corner.
	if c, e := spriteAlpha(SpriteSoftDisc, 0, 0), spriteAlpha(SpriteSoftDisc, 0.95, 0.95); c <= e {
		t.Errorf("disc center %v vs corner %v", c, e)
	}
	// Ring: peak on the radius, dark center.
	if on, center := spriteAlpha(SpriteRing, 0.65, 0), spriteAlpha(SpriteRing, 0, 0); on <= center {
		t.Errorf("ring on-radius %v vs center %v", on, center)
	}
	// Streak: horizontal arm bright, vertical off-axis dark.
	if h, v := spriteAlpha(SpriteStreak, 0.5, 0), spriteAlpha(SpriteStreak, 0, 0.5); h <= v {
		t.Errorf("streak horizontal %v vs vertical %v", h, v)
	}
	// Everything stays a sane alpha.
	for s := Sprite(0); s < spriteCount; s++ {
		for _, xy := range [][2]float64{{0, 0}, {0.3, -0.7}, {-1, 1}, {0.65, 0}} {
			a := spriteAlpha(s, xy[0], xy[1])
			if a < 0 || a > 1+1e-9 {
				t.Errorf("sprite %d alpha(%v) = %v", s, xy, a)
			}
		}
	}
}

func TestAtlasPixelsOpaqueWhiteRGB(t *testing.T) {
	a := BuildAtlas(16)
	// Premultiplied-looking data would tint sprites; RGB must stay white and
	// shape lives in alpha alone.
	center := a.Image.RGBAAt(8, 8)
	if center.R != 255 || center.G != 255 || center.B != 255 {
		t.Errorf("rgb at disc center = %v", center)
	}
	if center.A == 0 {
		t.Error("disc center transparent")
	}
	corner := a.Image.RGBAAt(0, 0)
	if corner.A >= center.A {
		t.Errorf("corner alpha %d >= center alpha %d", corner.A, center.A)
	}
}
