package model

import (
	"github.com/Faultbox/rtr-gl/internal/engine/mesh"
	"github.com/Faultbox/rtr-gl/pkg/math"
)

// Bounds holds an axis-aligned bounding box.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

func emptyBounds() Bounds {
	return Bounds{
		Min: [3]float32{1e10, 1e10, 1e10},
		Max: [3]float32{-1e10, -1e10, -1e10},
	}
}

func (b *Bounds) extend(vertices []mesh.Vertex) {
	for _, v := range vertices {
		for i := 0; i < 3; i++ {
			b.Min[i] = min(b.Min[i], v.Position[i])
			b.Max[i] = max(b.Max[i], v.Position[i])
		}
	}
}

// Empty reports whether no vertex was added.
func (b Bounds) Empty() bool {
	return b.Min[0] > b.Max[0]
}

// Center returns the middle of the box.
func (b Bounds) Center() math.Vec3 {
	if b.Empty() {
		return math.Vec3{}
	}
	return math.V3(
		(b.Min[0]+b.Max[0])/2,
		(b.Min[1]+b.Max[1])/2,
		(b.Min[2]+b.Max[2])/2,
	)
}

// Radius returns half the box diagonal, enough to frame the model.
func (b Bounds) Radius() float32 {
	if b.Empty() {
		return 0
	}
	return math.FromArray(b.Max).Sub(math.FromArray(b.Min)).Length() / 2
}
