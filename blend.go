package figurecomposer

import (
	"fmt"
	"image"
)

// newCroppedImage adapts an *image.NRGBA produced by Atlas.Crop (or
// the diced-mesh path) into the minimal shape Blend needs. Crop always
// returns a freshly allocated image whose Stride equals 4*width, so reading
// Pix directly is safe.
func newCroppedImage(img *image.NRGBA) croppedImage {
	b := img.Bounds()
	return croppedImage{pix: img.Pix, width: b.Dx(), height: b.Dy()}
}

// Blender holds a writable canvas and a mask table for the duration of a
// single figure output (§4.5, §5 — owned exclusively by one blender,
// dropped at end-of-figure; never shared across figures).
type Blender struct {
	width, height int
	pix           []uint8 // RGBA8 straight alpha, stride 4*width
	masks         map[string][]uint8
}

// NewBlender allocates a canvas of the given size, initialized to fully
// transparent (§4.5).
func NewBlender(width, height int) *Blender {
	return &Blender{
		width:  width,
		height: height,
		pix:    make([]uint8, 4*width*height),
		masks:  make(map[string][]uint8),
	}
}

// croppedImage is the minimal shape Blend needs from a cropped sprite: raw
// straight-alpha RGBA pixels and their width/height. newCroppedImage builds
// one from the Pix/Bounds of an *image.NRGBA returned by Atlas.Crop.
type croppedImage struct {
	pix           []uint8
	width, height int
}

// Blend composites img onto the canvas at (px, py), in five steps
// (§4.5):
//
//  1. Expand: allocate a transient whole-canvas buffer and copy img into it
//     at the given offset, clipped to canvas bounds.
//  2. Set mask: if role.SetMask is non-empty, store/merge the expanded
//     buffer's alpha plane into the mask table (elementwise max on merge).
//  3. Apply mask: if role.ApplyMask is non-empty, multiply the expanded
//     buffer's alpha by the named mask plane (fatal if undefined).
//  4. Composite: blend the expanded buffer onto the canvas per mode.
//  5. (Finalize happens once, via Image, after all sprites are blended.)
func (b *Blender) Blend(img croppedImage, px, py int, mode BlendMode, role MaskRole) error {
	expanded := expandToCanvas(img, b.width, b.height, px, py)

	if role.SetMask != "" {
		alpha := extractAlpha(expanded, b.width, b.height)
		if existing, ok := b.masks[role.SetMask]; ok {
			for i := range existing {
				if alpha[i] > existing[i] {
					existing[i] = alpha[i]
				}
			}
		} else {
			b.masks[role.SetMask] = alpha
		}
	}

	if role.ApplyMask != "" {
		maskPlane, ok := b.masks[role.ApplyMask]
		if !ok {
			return fmt.Errorf("figurecomposer: apply_mask key %q not found", role.ApplyMask)
		}
		applyMaskToAlpha(expanded, maskPlane)
	}

	compositeOnto(b.pix, expanded, mode)
	return nil
}

// Image returns the canvas as RGBA8 straight-alpha pixels (§4.5 Finalize).
func (b *Blender) Image() (pix []uint8, width, height int) {
	return b.pix, b.width, b.height
}

// expandToCanvas allocates a transient whole-canvas buffer filled with
// zeros and copies img into it at offset (px, py), clipped to the canvas
// bounds. This isolates placement from blending so all subsequent
// per-pixel math operates on whole-canvas buffers.
func expandToCanvas(img croppedImage, canvasW, canvasH, px, py int) []uint8 {
	out := make([]uint8, 4*canvasW*canvasH)

	srcX0, srcY0 := 0, 0
	dstX0, dstY0 := px, py
	if dstX0 < 0 {
		srcX0 -= dstX0
		dstX0 = 0
	}
	if dstY0 < 0 {
		srcY0 -= dstY0
		dstY0 = 0
	}
	copyW := img.width - srcX0
	copyH := img.height - srcY0
	if dstX0+copyW > canvasW {
		copyW = canvasW - dstX0
	}
	if dstY0+copyH > canvasH {
		copyH = canvasH - dstY0
	}
	if copyW <= 0 || copyH <= 0 {
		return out
	}

	for row := 0; row < copyH; row++ {
		srcOff := ((srcY0+row)*img.width + srcX0) * 4
		dstOff := ((dstY0+row)*canvasW + dstX0) * 4
		copy(out[dstOff:dstOff+copyW*4], img.pix[srcOff:srcOff+copyW*4])
	}
	return out
}

// extractAlpha returns the alpha channel of a whole-canvas RGBA buffer as a
// standalone plane.
func extractAlpha(pix []uint8, width, height int) []uint8 {
	plane := make([]uint8, width*height)
	for i := 0; i < width*height; i++ {
		plane[i] = pix[i*4+3]
	}
	return plane
}

// applyMaskToAlpha multiplies pix's alpha channel in place by mask/255
// (straight-alpha clipping mask, §4.5 step 3).
func applyMaskToAlpha(pix []uint8, mask []uint8) {
	for i := range mask {
		a := float64(pix[i*4+3]) * float64(mask[i]) / 255.0
		pix[i*4+3] = clampByte(a)
	}
}

// compositeOnto blends a whole-canvas expanded buffer (src) onto dst in
// place, using mode's per-channel blend function (§4.5 step 4).
//
// Output alpha: Ao = A1 + A2 - A1*A2.
// Output color: Co = f(Cb, Ce)*A2 + Cb*(1-A2), in float, clipped, cast to
// u8. The background alpha A1 is intentionally NOT applied to the color
// premultiply — this is load-bearing for matching existing figures (§4.5).
func compositeOnto(dst []uint8, src []uint8, mode BlendMode) {
	n := len(dst) / 4
	for i := 0; i < n; i++ {
		o := i * 4
		a1 := float64(dst[o+3]) / 255.0
		a2 := float64(src[o+3]) / 255.0
		ao := a1 + a2 - a1*a2

		for c := 0; c < 3; c++ {
			cb := float64(dst[o+c])
			ce := float64(src[o+c])
			f := blendFunc(mode, cb, ce)
			co := f*a2 + cb*(1-a2)
			dst[o+c] = clampByte(co)
		}
		dst[o+3] = clampByte(ao * 255.0)
	}
}

// blendFunc implements the per-channel blend function f(b, f) for each
// mode (§4.5 step 4). Softlight uses the Pegtop variant as implemented in
// the source, not the W3C definition — see DESIGN.md.
func blendFunc(mode BlendMode, b, f float64) float64 {
	switch mode {
	case BlendAlpha:
		return f
	case BlendMultiply:
		return b * f / 255.0
	case BlendOverlay:
		if b < 128 {
			return 2 * b * f / 255.0
		}
		return 255 - 2*(255-b)*(255-f)/255.0
	case BlendSoftlight:
		bHat := b / 255.0
		fHat := f / 255.0
		return 255.0 * ((1-2*fHat)*bHat*bHat + 2*fHat*bHat)
	default:
		return f
	}
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
