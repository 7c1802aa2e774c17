// Package lighting describes the lights the demo shaders read.
package lighting

import (
	"github.com/Faultbox/rtr-gl/internal/engine/shader"
	"github.com/Faultbox/rtr-gl/pkg/math"
)

// Uniform names a point light is uploaded to.
const (
	PositionUniform = "lightPos"
	ColorUniform    = "lightColor"
)

// PointLight is a light at a world position. Color components are in 0-1.
type PointLight struct {
	Position math.Vec3
	Color    math.Vec3
}

// White returns a white light at pos.
func White(pos math.Vec3) PointLight {
	return PointLight{Position: pos, Color: math.V3(1, 1, 1)}
}

// Relative returns a copy of l placed at anchor + offset.
func (l PointLight) Relative(anchor, offset math.Vec3) PointLight {
	l.Position = anchor.Add(offset)
	return l
}

// Clamped returns l with each color component limited to 0-1.
func (l PointLight) Clamped() PointLight {
	l.Color = math.V3(
		math.Clamp(l.Color.X, 0, 1),
		math.Clamp(l.Color.Y, 0, 1),
		math.Clamp(l.Color.Z, 0, 1),
	)
	return l
}

// Apply uploads the light to p, which must be current.
func (l PointLight) Apply(p *shader.Program) {
	p.SetVec3(PositionUniform, l.Position)
	p.SetVec3(ColorUniform, l.Color)
}
