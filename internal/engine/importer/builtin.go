package importer

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/rtr-gl/internal/engine/mesh"
)

// Builtin shape names accepted after BuiltinPrefix.
const (
	BuiltinCube   = "cube"
	BuiltinPlane  = "plane"
	BuiltinSphere = "sphere"
)

func loadBuiltin(name string) ([]MeshData, error) {
	var m MeshData
	switch name {
	case BuiltinCube:
		m = cube()
	case BuiltinPlane:
		m = plane()
	case BuiltinSphere:
		m = sphere(32, 16)
	default:
		return nil, fmt.Errorf("unknown builtin shape %q", name)
	}
	m.Name = name
	finish(&m, true)
	return []MeshData{m}, nil
}

// cube is a unit cube centered on the origin with 24 vertices so every face
// has its own normal and full 0..1 texture coordinates.
func cube() MeshData {
	faces := []struct {
		n, u, v [3]float32
	}{
		{n: [3]float32{0, 0, 1}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 1, 0}},
		{n: [3]float32{0, 0, -1}, u: [3]float32{-1, 0, 0}, v: [3]float32{0, 1, 0}},
		{n: [3]float32{1, 0, 0}, u: [3]float32{0, 0, -1}, v: [3]float32{0, 1, 0}},
		{n: [3]float32{-1, 0, 0}, u: [3]float32{0, 0, 1}, v: [3]float32{0, 1, 0}},
		{n: [3]float32{0, 1, 0}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 0, -1}},
		{n: [3]float32{0, -1, 0}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 0, 1}},
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	var m MeshData
	for _, f := range faces {
		base := uint32(len(m.Vertices))
		for _, c := range corners {
			var v mesh.Vertex
			for k := 0; k < 3; k++ {
				v.Position[k] = 0.5 * (f.n[k] + c[0]*f.u[k] + c[1]*f.v[k])
			}
			v.Normal = f.n
			v.TexCoords = [2]float32{(c[0] + 1) / 2, 1 - (c[1]+1)/2}
			m.Vertices = append(m.Vertices, v)
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return m
}

// plane is a 10x10 quad on the XZ plane facing +Y, with texture coordinates
// repeating once per unit.
func plane() MeshData {
	const half, repeat = 5, 10
	return MeshData{
		Vertices: []mesh.Vertex{
			{Position: [3]float32{-half, 0, half}, Normal: [3]float32{0, 1, 0}, TexCoords: [2]float32{0, repeat}},
			{Position: [3]float32{half, 0, half}, Normal: [3]float32{0, 1, 0}, TexCoords: [2]float32{repeat, repeat}},
			{Position: [3]float32{half, 0, -half}, Normal: [3]float32{0, 1, 0}, TexCoords: [2]float32{repeat, 0}},
			{Position: [3]float32{-half, 0, -half}, Normal: [3]float32{0, 1, 0}, TexCoords: [2]float32{0, 0}},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

// sphere is a UV sphere of radius 1.
func sphere(segments, rings int) MeshData {
	var m MeshData
	for r := 0; r <= rings; r++ {
		v := float32(r) / float32(rings)
		sinPhi, cosPhi := math32.Sincos(v * math32.Pi)
		for s := 0; s <= segments; s++ {
			u := float32(s) / float32(segments)
			sinTheta, cosTheta := math32.Sincos(u * 2 * math32.Pi)
			n := [3]float32{cosTheta * sinPhi, cosPhi, sinTheta * sinPhi}
			m.Vertices = append(m.Vertices, mesh.Vertex{
				Position:  n,
				Normal:    n,
				TexCoords: [2]float32{u, v},
			})
		}
	}
	stride := uint32(segments + 1)
	for r := uint32(0); r < uint32(rings); r++ {
		for s := uint32(0); s < uint32(segments); s++ {
			a := r*stride + s
			b := a + stride
			m.Indices = append(m.Indices, a, a+1, b, a+1, b+1, b)
		}
	}
	return m
}
