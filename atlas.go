package figurecomposer

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log"
	"os"
)

// SpriteRect is a rectangle in atlas pixel coordinates, origin bottom-left
// (Y grows upward). Width/height may be zero (empty sprite, skipped by
// callers before it ever reaches the cropper).
type SpriteRect struct {
	X, Y, Width, Height int
}

// Empty reports whether the rectangle has zero area.
func (r SpriteRect) Empty() bool {
	return r.Width == 0 || r.Height == 0
}

// Atlas holds the decoded atlas pixels in memory once per run. It is safe
// to share by reference across concurrently-running figures: it is never
// mutated after LoadAtlas returns.
type Atlas struct {
	pix    *image.NRGBA
	Tw, Th int
}

// LoadAtlas decodes the atlas PNG at path into memory. Decoding happens
// exactly once; the returned Atlas is immutable for the lifetime of the run.
func LoadAtlas(path string) (*Atlas, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("figurecomposer: open atlas %s: %w", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("figurecomposer: decode atlas %s: %w", path, err)
	}

	b := img.Bounds()
	nrgba := image.NewNRGBA(b)
	draw.Draw(nrgba, b, img, b.Min, draw.Src)

	return &Atlas{pix: nrgba, Tw: b.Dx(), Th: b.Dy()}, nil
}

// Crop returns a contiguous straight-alpha RGBA sub-image for the given
// sprite rectangle. rect is in atlas coordinates, origin bottom-left; this
// flips Y when slicing, converting to top-left array indexing:
//
//	rowTop    = Th - rect.Y - rect.Height
//	rowBottom = Th - rect.Y
//	colLeft   = rect.X
//	colRight  = rect.X + rect.Width
//
// Out-of-bounds rectangles are logged as a warning and clipped to the atlas
// (§4.4, §7 data-kind error). Zero-sized rectangles must be filtered by the
// caller before calling Crop.
func (a *Atlas) Crop(rect SpriteRect) *image.NRGBA {
	rowTop := a.Th - rect.Y - rect.Height
	rowBottom := a.Th - rect.Y
	colLeft := rect.X
	colRight := rect.X + rect.Width

	clippedTop, clippedBottom := rowTop, rowBottom
	clippedLeft, clippedRight := colLeft, colRight
	clipped := false
	if clippedTop < 0 {
		clippedTop = 0
		clipped = true
	}
	if clippedBottom > a.Th {
		clippedBottom = a.Th
		clipped = true
	}
	if clippedLeft < 0 {
		clippedLeft = 0
		clipped = true
	}
	if clippedRight > a.Tw {
		clippedRight = a.Tw
		clipped = true
	}
	if clipped {
		log.Printf("[figurecomposer] warning: crop rect %+v out of atlas bounds %dx%d, clipping", rect, a.Tw, a.Th)
	}
	if clippedBottom < clippedTop {
		clippedBottom = clippedTop
	}
	if clippedRight < clippedLeft {
		clippedRight = clippedLeft
	}

	sub := image.NewNRGBA(image.Rect(0, 0, clippedRight-clippedLeft, clippedBottom-clippedTop))
	srcRect := image.Rect(clippedLeft, clippedTop, clippedRight, clippedBottom)
	draw.Draw(sub, sub.Bounds(), a.pix, srcRect.Min, draw.Src)
	return sub
}

// Size returns the atlas dimensions (Tw, Th).
func (a *Atlas) Size() (int, int) {
	return a.Tw, a.Th
}
