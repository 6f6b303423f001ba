package saturn

import "math"

// Grid and camera constants. The asymmetric X/Y projection scale and the
// loop limits are tuned values and are kept literally.
const (
	Width  = 80
	Height = 40

	SphereRadius = 8.0
	CameraOffset = 40.0

	sphereStep   = 0.05
	sphereILimit = 3.14
	sphereJLimit = 6.28

	ringInner  = 10.0
	ringOuter  = 24.0
	ringRStep  = 0.3
	ringJStep  = 0.02
	ringJLimit = 6.28
)

// Ramp orders the sphere glyphs from lowest to highest density.
const Ramp = ".,:;+*?%S#@"

const (
	ringGlyphEven = '-'
	ringGlyphOdd  = '~'
)

type rotation struct {
	sinA, cosA float64
	sinB, cosB float64
}

func newRotation(a, b float64) rotation {
	sinA, cosA := math.Sincos(a)
	sinB, cosB := math.Sincos(b)
	return rotation{sinA: sinA, cosA: cosA, sinB: sinB, cosB: cosB}
}

// apply rotates about the X axis by A and then about the Z axis by B.
func (r rotation) apply(x, y, z float64) (float64, float64, float64) {
	y2 := y*r.cosA - z*r.sinA
	z2 := y*r.sinA + z*r.cosA

	x3 := x*r.cosB - y2*r.sinB
	y3 := x*r.sinB + y2*r.cosB
	return x3, y3, z2
}

// project maps a rotated point to a grid cell and its inverse depth. ok is
// false when the point sits on or behind the camera plane.
func project(x, y, z float64, width, height int) (sx, sy int, ooz float64, ok bool) {
	denom := z + CameraOffset
	if denom <= 0 || math.IsNaN(denom) {
		return 0, 0, 0, false
	}
	ooz = 1 / denom
	w, h := float64(width), float64(height)
	sx = int(math.Floor(w/2 + w*ooz*x*2))
	sy = int(math.Floor(h/2 - h*ooz*y))
	return sx, sy, ooz, true
}

// shade picks a ramp glyph from the ambient plus directional term.
func shade(cosi, sinj float64) byte {
	l := (cosi + sinj + 2) / 3
	idx := int(math.Floor(l * 8))
	if idx < 0 {
		idx = 0
	}
	if idx > len(Ramp)-1 {
		idx = len(Ramp) - 1
	}
	return Ramp[idx]
}

func ringGlyph(r float64) byte {
	if math.Mod(r, 2) < 0.5 {
		return ringGlyphEven
	}
	return ringGlyphOdd
}
