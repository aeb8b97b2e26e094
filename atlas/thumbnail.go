package atlas

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Thumbnail scales src down so that its larger side is at most maxSide,
// preserving the aspect ratio. Images already small enough are returned
// unchanged.
func Thumbnail(src image.Image, maxSide int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return src
	}

	tw, th := maxSide, maxSide
	if w > h {
		th = max(1, h*maxSide/w)
	} else {
		tw = max(1, w*maxSide/h)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, tw, th))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}
