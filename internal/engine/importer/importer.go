// Package importer turns model files into validated mesh data.
//
// Supported sources are Wavefront OBJ (with MTL materials), glTF 2.0
// (.gltf and .glb) and the procedural "builtin:" shapes. Every result is
// triangulated, has smooth normals where the file had none, has tangent
// space for normal mapping, and satisfies the mesh index invariant.
package importer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/rtr-gl/internal/engine/mesh"
	"github.com/Faultbox/rtr-gl/internal/logger"
)

// Status is the outcome of an import.
type Status int

const (
	// Loaded means at least one mesh was produced.
	Loaded Status = iota
	// Empty means the file parsed but contained no triangles.
	Empty
	// Failed means the file was missing, unreadable or malformed.
	Failed
)

func (s Status) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Empty:
		return "empty"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Source resolves and reads files. assets.Manager implements it.
type Source interface {
	Resolve(path string) (string, error)
	Load(path string) ([]byte, error)
}

// MaterialTexture is a texture referenced by a mesh's material. Exactly one
// of Path and Embedded is set.
type MaterialTexture struct {
	Type mesh.TextureType
	// Path is relative to the model file's directory already joined.
	Path string
	// Embedded holds image bytes stored inside the model file; Name then
	// identifies it for deduplication.
	Embedded []byte
	Name     string
}

// Key identifies the texture for deduplication.
func (t MaterialTexture) Key() string {
	if t.Embedded != nil {
		return t.Name
	}
	return t.Path
}

// MeshData is one imported mesh, ready for mesh.New.
type MeshData struct {
	Name     string
	Vertices []mesh.Vertex
	Indices  []uint32
	Textures []MaterialTexture
}

// Result is what LoadMeshes returns. It never carries partially valid meshes.
type Result struct {
	Path   string
	Meshes []MeshData
	Status Status
	Err    error
}

// BuiltinPrefix marks procedural sources such as "builtin:cube".
const BuiltinPrefix = "builtin:"

// LoadMeshes imports every mesh in path. It does not panic on bad input;
// failures are reported through Result.Status and Result.Err.
func LoadMeshes(src Source, path string) Result {
	res := Result{Path: path}

	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case strings.HasPrefix(path, BuiltinPrefix):
		res.Meshes, err = loadBuiltin(strings.TrimPrefix(path, BuiltinPrefix))
	case src == nil:
		err = errors.New("no asset source for file mesh")
	case ext == ".obj":
		res.Meshes, err = loadOBJ(src, path)
	case ext == ".gltf" || ext == ".glb":
		res.Meshes, err = loadGLTF(src, path)
	default:
		err = fmt.Errorf("unsupported model format %q", ext)
	}

	if err == nil {
		err = validate(res.Meshes)
	}
	if err != nil {
		res.Meshes = nil
		res.Status = Failed
		res.Err = fmt.Errorf("importing %s: %w", path, err)
		logger.Error("model import failed", zap.String("path", path), zap.Error(err))
		return res
	}

	if len(res.Meshes) == 0 {
		res.Status = Empty
		logger.Warn("model has no meshes", zap.String("path", path))
		return res
	}

	res.Status = Loaded
	logger.Debug("model imported",
		zap.String("path", path),
		zap.Int("meshes", len(res.Meshes)),
		zap.Int("vertices", res.VertexCount()),
	)
	return res
}

// VertexCount sums the vertices of every mesh.
func (r Result) VertexCount() int {
	n := 0
	for _, m := range r.Meshes {
		n += len(m.Vertices)
	}
	return n
}

func validate(meshes []MeshData) error {
	for i, m := range meshes {
		if len(m.Indices)%3 != 0 {
			return fmt.Errorf("mesh %d: %d indices is not a triangle list", i, len(m.Indices))
		}
		if err := mesh.Validate(m.Vertices, m.Indices); err != nil {
			return fmt.Errorf("mesh %d: %w", i, err)
		}
	}
	return nil
}

// finish applies the post-processing shared by every format.
func finish(m *MeshData, hasNormals bool) {
	if !hasNormals {
		generateNormals(m.Vertices, m.Indices)
	}
	calcTangents(m.Vertices, m.Indices)
}
