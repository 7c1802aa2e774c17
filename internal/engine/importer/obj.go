package importer

import (
	"bytes"
	"path"

	"go.uber.org/zap"

	"github.com/Faultbox/rtr-gl/internal/engine/mesh"
	"github.com/Faultbox/rtr-gl/internal/logger"
	"github.com/Faultbox/rtr-gl/pkg/formats"
)

type cornerKey struct {
	p, t, n int
}

func loadOBJ(src Source, objPath string) ([]MeshData, error) {
	data, err := src.Load(objPath)
	if err != nil {
		return nil, err
	}
	obj, err := formats.ParseOBJ(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	dir := path.Dir(objPath)
	materials := make(map[string]*formats.Material)
	for _, lib := range obj.MaterialLibs {
		mtlPath := path.Join(dir, lib)
		raw, err := src.Load(mtlPath)
		if err != nil {
			logger.Warn("material library unavailable", zap.String("path", mtlPath), zap.Error(err))
			continue
		}
		mtl, err := formats.ParseMTL(bytes.NewReader(raw))
		if err != nil {
			logger.Warn("material library malformed", zap.String("path", mtlPath), zap.Error(err))
			continue
		}
		for name, m := range mtl.Materials {
			materials[name] = m
		}
	}

	var out []MeshData
	for _, g := range obj.Groups {
		m, hasNormals := buildGroup(obj, g)
		if len(m.Indices) == 0 {
			continue
		}
		if mat, ok := materials[g.Material]; ok {
			m.Textures = materialTextures(dir, mat)
		} else if g.Material != "" {
			logger.Warn("undefined material", zap.String("material", g.Material), zap.String("path", objPath))
		}
		finish(&m, hasNormals)
		out = append(out, m)
	}
	return out, nil
}

// buildGroup deduplicates face corners into vertices and fan-triangulates
// polygons. The second result reports whether every corner had a normal.
func buildGroup(obj *formats.OBJ, g *formats.OBJGroup) (MeshData, bool) {
	m := MeshData{
		Name:    g.Name,
		Indices: make([]uint32, 0, g.TriangleCount()*3),
	}
	seen := make(map[cornerKey]uint32)
	hasNormals := true

	corner := func(c formats.OBJCorner) uint32 {
		key := cornerKey{c.Position, c.TexCoord, c.Normal}
		if idx, ok := seen[key]; ok {
			return idx
		}
		var v mesh.Vertex
		v.Position = obj.Positions[c.Position]
		if c.TexCoord >= 0 {
			uv := obj.TexCoords[c.TexCoord]
			// OBJ puts V=0 at the bottom; images are uploaded top row first.
			v.TexCoords = [2]float32{uv[0], 1 - uv[1]}
		}
		if c.Normal >= 0 {
			v.Normal = obj.Normals[c.Normal]
		} else {
			hasNormals = false
		}
		idx := uint32(len(m.Vertices))
		m.Vertices = append(m.Vertices, v)
		seen[key] = idx
		return idx
	}

	for _, f := range g.Faces {
		if len(f) < 3 {
			continue
		}
		first := corner(f[0])
		for i := 1; i+1 < len(f); i++ {
			m.Indices = append(m.Indices, first, corner(f[i]), corner(f[i+1]))
		}
	}
	return m, hasNormals
}

func materialTextures(dir string, mat *formats.Material) []MaterialTexture {
	var out []MaterialTexture
	add := func(typ mesh.TextureType, file string) {
		if file == "" {
			return
		}
		out = append(out, MaterialTexture{Type: typ, Path: path.Join(dir, file)})
	}
	add(mesh.Diffuse, mat.MapDiffuse)
	add(mesh.Specular, mat.MapSpecular)
	if mat.MapNormal != "" {
		add(mesh.Normal, mat.MapNormal)
	} else {
		add(mesh.Normal, mat.MapBump)
	}
	add(mesh.Height, mat.MapAmbient)
	return out
}
