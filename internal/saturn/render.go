// Package saturn renders a shaded sphere with a flat ring system into a
// fixed character grid.
//
// Rendering is a pure function of the two effective rotation angles:
//
//	st := saturn.NewState()
//	st, text := saturn.Step(st)
//	fmt.Println(text)
//
// The sphere pass always runs before the ring pass and both share one depth
// buffer, so on equal inverse depth the sphere keeps the cell.
package saturn

import "math"

// Render draws one frame for the given effective angles.
func Render(effA, effB float64) *Frame {
	f := NewFrame(Width, Height)
	rot := newRotation(effA, effB)
	renderSphere(f, rot)
	renderRings(f, rot)
	return f
}

func renderSphere(f *Frame, rot rotation) {
	for j := 0.0; j < sphereJLimit; j += sphereStep {
		sinj, cosj := math.Sincos(j)
		for i := 0.0; i < sphereILimit; i += sphereStep {
			sini, cosi := math.Sincos(i)

			x := SphereRadius * sini * cosj
			y := SphereRadius * cosi
			z := SphereRadius * sini * sinj

			x3, y3, z3 := rot.apply(x, y, z)
			sx, sy, ooz, ok := project(x3, y3, z3, f.Width, f.Height)
			if !ok {
				continue
			}
			f.Plot(sx, sy, ooz, shade(cosi, sinj))
		}
	}
}

// renderRings draws coplanar rings in the y=0 plane, tilted only by the
// shared rotation.
func renderRings(f *Frame, rot rotation) {
	for r := ringInner; r < ringOuter; r += ringRStep {
		glyph := ringGlyph(r)
		for j := 0.0; j < ringJLimit; j += ringJStep {
			sinj, cosj := math.Sincos(j)

			x3, y3, z3 := rot.apply(r*sinj, 0, r*cosj)
			sx, sy, ooz, ok := project(x3, y3, z3, f.Width, f.Height)
			if !ok {
				continue
			}
			f.Plot(sx, sy, ooz, glyph)
		}
	}
}
