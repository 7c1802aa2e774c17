package importer

import (
	"github.com/Faultbox/rtr-gl/internal/engine/mesh"
	"github.com/Faultbox/rtr-gl/pkg/math"
)

// generateNormals replaces every vertex normal with the area-weighted
// average of the faces sharing the vertex. Unreferenced vertices get +Y.
func generateNormals(vertices []mesh.Vertex, indices []uint32) {
	acc := make([]math.Vec3, len(vertices))
	for t := 0; t+2 < len(indices); t += 3 {
		a, b, c := indices[t], indices[t+1], indices[t+2]
		pa := math.FromArray(vertices[a].Position)
		pb := math.FromArray(vertices[b].Position)
		pc := math.FromArray(vertices[c].Position)
		// the cross product's length is twice the area, so larger faces weigh more
		n := pb.Sub(pa).Cross(pc.Sub(pa))
		acc[a] = acc[a].Add(n)
		acc[b] = acc[b].Add(n)
		acc[c] = acc[c].Add(n)
	}
	for i := range vertices {
		n := acc[i].Normalize()
		if n == (math.Vec3{}) {
			n = math.V3(0, 1, 0)
		}
		vertices[i].Normal = n.Array()
	}
}

// calcTangents computes per-vertex tangent and bitangent from positions and
// texture coordinates. Tangents are orthogonalized against the normal; where
// the UV mapping is degenerate an arbitrary perpendicular basis is used.
func calcTangents(vertices []mesh.Vertex, indices []uint32) {
	tan := make([]math.Vec3, len(vertices))
	bitan := make([]math.Vec3, len(vertices))

	for t := 0; t+2 < len(indices); t += 3 {
		a, b, c := indices[t], indices[t+1], indices[t+2]
		pa := math.FromArray(vertices[a].Position)
		e1 := math.FromArray(vertices[b].Position).Sub(pa)
		e2 := math.FromArray(vertices[c].Position).Sub(pa)

		uva := vertices[a].TexCoords
		du1, dv1 := vertices[b].TexCoords[0]-uva[0], vertices[b].TexCoords[1]-uva[1]
		du2, dv2 := vertices[c].TexCoords[0]-uva[0], vertices[c].TexCoords[1]-uva[1]

		det := du1*dv2 - du2*dv1
		if det > -1e-12 && det < 1e-12 {
			continue
		}
		r := 1 / det
		ft := e1.Scale(dv2).Sub(e2.Scale(dv1)).Scale(r)
		bt := e2.Scale(du1).Sub(e1.Scale(du2)).Scale(r)
		for _, i := range [3]uint32{a, b, c} {
			tan[i] = tan[i].Add(ft)
			bitan[i] = bitan[i].Add(bt)
		}
	}

	for i := range vertices {
		n := math.FromArray(vertices[i].Normal).Normalize()
		t := tan[i].Sub(n.Scale(n.Dot(tan[i]))).Normalize()
		if t == (math.Vec3{}) {
			t = perpendicular(n)
		}
		b := n.Cross(t)
		if b.Dot(bitan[i]) < 0 {
			b = b.Scale(-1)
		}
		vertices[i].Tangent = t.Array()
		vertices[i].Bitangent = b.Array()
	}
}

// perpendicular returns a unit vector orthogonal to n.
func perpendicular(n math.Vec3) math.Vec3 {
	axis := math.V3(1, 0, 0)
	if n.X > 0.9 || n.X < -0.9 {
		axis = math.V3(0, 1, 0)
	}
	p := axis.Sub(n.Scale(n.Dot(axis))).Normalize()
	if p == (math.Vec3{}) {
		return math.V3(1, 0, 0)
	}
	return p
}
