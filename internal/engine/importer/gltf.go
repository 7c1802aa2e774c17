package importer

import (
	"fmt"
	"net/url"
	"path"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/rtr-gl/internal/engine/mesh"
	"github.com/Faultbox/rtr-gl/internal/logger"
)

func loadGLTF(src Source, gltfPath string) (meshes []MeshData, err error) {
	// modeler indexes into the document on paths checkAccessor does not
	// cover, such as byte strides; turn any such slip into a load failure.
	defer func() {
		if r := recover(); r != nil {
			meshes, err = nil, fmt.Errorf("malformed glTF: %v", r)
		}
	}()

	resolved, err := src.Resolve(gltfPath)
	if err != nil {
		return nil, err
	}
	doc, err := gltf.Open(resolved)
	if err != nil {
		return nil, err
	}

	dir := path.Dir(gltfPath)
	var out []MeshData
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				logger.Warn("skipping non-triangle primitive",
					zap.String("path", gltfPath),
					zap.Int("mesh", mi),
					zap.Int("primitive", pi),
				)
				continue
			}
			m, hasNormals, err := readPrimitive(doc, prim)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
			if len(m.Indices) == 0 {
				continue
			}
			m.Name = gm.Name
			if mat := prim.Material; mat != nil && *mat >= 0 && *mat < len(doc.Materials) {
				m.Textures = gltfTextures(doc, doc.Materials[*prim.Material], dir, gltfPath)
			}
			finish(&m, hasNormals)
			out = append(out, m)
		}
	}
	return out, nil
}

func readPrimitive(doc *gltf.Document, prim *gltf.Primitive) (MeshData, bool, error) {
	var m MeshData

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return m, false, fmt.Errorf("primitive has no POSITION attribute")
	}
	acr, err := checkAccessor(doc, posIdx)
	if err != nil {
		return m, false, fmt.Errorf("positions: %w", err)
	}
	positions, err := modeler.ReadPosition(doc, acr, nil)
	if err != nil {
		return m, false, fmt.Errorf("reading positions: %w", err)
	}

	var normals [][3]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		acr, err := checkAccessor(doc, idx)
		if err != nil {
			return m, false, fmt.Errorf("normals: %w", err)
		}
		normals, err = modeler.ReadNormal(doc, acr, nil)
		if err != nil {
			return m, false, fmt.Errorf("reading normals: %w", err)
		}
	}

	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		acr, err := checkAccessor(doc, idx)
		if err != nil {
			return m, false, fmt.Errorf("texture coordinates: %w", err)
		}
		uvs, err = modeler.ReadTextureCoord(doc, acr, nil)
		if err != nil {
			return m, false, fmt.Errorf("reading texture coordinates: %w", err)
		}
	}

	m.Vertices = make([]mesh.Vertex, len(positions))
	for i, p := range positions {
		m.Vertices[i].Position = p
		if i < len(normals) {
			m.Vertices[i].Normal = normals[i]
		}
		if i < len(uvs) {
			m.Vertices[i].TexCoords = uvs[i]
		}
	}

	if prim.Indices != nil {
		acr, err := checkAccessor(doc, *prim.Indices)
		if err != nil {
			return m, false, fmt.Errorf("indices: %w", err)
		}
		m.Indices, err = modeler.ReadIndices(doc, acr, nil)
		if err != nil {
			return m, false, fmt.Errorf("reading indices: %w", err)
		}
	} else {
		m.Indices = make([]uint32, len(positions)-len(positions)%3)
		for i := range m.Indices {
			m.Indices[i] = uint32(i)
		}
	}

	return m, len(normals) == len(positions), nil
}

func gltfTextures(doc *gltf.Document, mat *gltf.Material, dir, gltfPath string) []MaterialTexture {
	var out []MaterialTexture
	add := func(typ mesh.TextureType, texIndex int) {
		t, err := gltfTexture(doc, texIndex, dir, gltfPath)
		if err != nil {
			logger.Warn("skipping material texture",
				zap.String("path", gltfPath),
				zap.String("type", string(typ)),
				zap.Error(err),
			)
			return
		}
		t.Type = typ
		out = append(out, t)
	}

	if pbr := mat.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorTexture != nil {
			add(mesh.Diffuse, pbr.BaseColorTexture.Index)
		}
		if pbr.MetallicRoughnessTexture != nil {
			add(mesh.Specular, pbr.MetallicRoughnessTexture.Index)
		}
	}
	if mat.NormalTexture != nil && mat.NormalTexture.Index != nil {
		add(mesh.Normal, *mat.NormalTexture.Index)
	}
	if mat.OcclusionTexture != nil && mat.OcclusionTexture.Index != nil {
		add(mesh.Height, *mat.OcclusionTexture.Index)
	}
	return out
}

func gltfTexture(doc *gltf.Document, texIndex int, dir, gltfPath string) (MaterialTexture, error) {
	if texIndex < 0 || texIndex >= len(doc.Textures) {
		return MaterialTexture{}, fmt.Errorf("texture %d out of range", texIndex)
	}
	tex := doc.Textures[texIndex]
	if tex.Source == nil || *tex.Source < 0 || *tex.Source >= len(doc.Images) {
		return MaterialTexture{}, fmt.Errorf("texture %d has no image", texIndex)
	}
	imgIndex := *tex.Source
	img := doc.Images[imgIndex]
	name := fmt.Sprintf("%s#image%d", gltfPath, imgIndex)

	switch {
	case img.BufferView != nil:
		bv, err := checkBufferView(doc, *img.BufferView)
		if err != nil {
			return MaterialTexture{}, fmt.Errorf("image %d: %w", imgIndex, err)
		}
		data, err := modeler.ReadBufferView(doc, bv)
		if err != nil {
			return MaterialTexture{}, err
		}
		return MaterialTexture{Embedded: data, Name: name + extForMime(img.MimeType)}, nil
	case img.IsEmbeddedResource():
		data, err := img.MarshalData()
		if err != nil {
			return MaterialTexture{}, err
		}
		return MaterialTexture{Embedded: data, Name: name + extForMime(img.MimeType)}, nil
	case img.URI != "":
		uri, err := url.PathUnescape(img.URI)
		if err != nil {
			uri = img.URI
		}
		return MaterialTexture{Path: path.Join(dir, uri)}, nil
	}
	return MaterialTexture{}, fmt.Errorf("image %d has no data", imgIndex)
}

// checkAccessor returns accessor i once every reference it makes into the
// document is in range and its elements fit inside its buffer view.
func checkAccessor(doc *gltf.Document, i int) (*gltf.Accessor, error) {
	if i < 0 || i >= len(doc.Accessors) || doc.Accessors[i] == nil {
		return nil, fmt.Errorf("accessor %d out of range", i)
	}
	acr := doc.Accessors[i]
	if acr.Sparse != nil {
		return nil, fmt.Errorf("accessor %d: sparse accessors are not supported", i)
	}
	if acr.BufferView == nil {
		return nil, fmt.Errorf("accessor %d has no buffer view", i)
	}
	bv, err := checkBufferView(doc, *acr.BufferView)
	if err != nil {
		return nil, fmt.Errorf("accessor %d: %w", i, err)
	}
	if acr.Count < 0 || acr.ByteOffset < 0 || acr.ByteOffset > bv.ByteLength {
		return nil, fmt.Errorf("accessor %d: bad count or offset", i)
	}
	if acr.Count == 0 {
		return acr, nil
	}
	elem := gltf.SizeOfElement(acr.ComponentType, acr.Type)
	if elem <= 0 {
		return nil, fmt.Errorf("accessor %d: unsupported layout", i)
	}
	stride := max(bv.ByteStride, elem)
	room := bv.ByteLength - acr.ByteOffset
	if room < elem || (room-elem)/stride < acr.Count-1 {
		return nil, fmt.Errorf("accessor %d: %d elements overrun buffer view", i, acr.Count)
	}
	return acr, nil
}

func checkBufferView(doc *gltf.Document, i int) (*gltf.BufferView, error) {
	if i < 0 || i >= len(doc.BufferViews) || doc.BufferViews[i] == nil {
		return nil, fmt.Errorf("buffer view %d out of range", i)
	}
	bv := doc.BufferViews[i]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) || doc.Buffers[bv.Buffer] == nil {
		return nil, fmt.Errorf("buffer view %d: buffer %d out of range", i, bv.Buffer)
	}
	if bv.ByteOffset < 0 || bv.ByteLength < 0 || bv.ByteStride < 0 ||
		bv.ByteLength > len(doc.Buffers[bv.Buffer].Data)-bv.ByteOffset {
		return nil, fmt.Errorf("buffer view %d: range outside buffer", i)
	}
	return bv, nil
}

// extForMime gives embedded images a file extension so the texture decoder
// can pick a format.
func extForMime(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	}
	return ""
}
