// Package mesh holds drawable geometry with its ordered texture bindings.
package mesh

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Faultbox/rtr-gl/internal/engine/gpu"
	"github.com/Faultbox/rtr-gl/internal/engine/shader"
	"github.com/Faultbox/rtr-gl/internal/engine/texture"
)

// Vertex is the shared vertex layout.
type Vertex = gpu.Vertex

// TextureType is the semantic role of a texture. It doubles as the sampler
// uniform prefix: the n-th texture of a type binds to "<type><n>".
type TextureType string

const (
	Diffuse  TextureType = "texture_diffuse"
	Specular TextureType = "texture_specular"
	Normal   TextureType = "texture_normal"
	Height   TextureType = "texture_height"
)

// TextureBinding attaches a texture to a mesh. The handle is shared, not owned.
type TextureBinding struct {
	Handle gpu.TextureID
	Type   TextureType
	// Path is the source path or a synthetic id for procedural textures.
	Path   string
	Status texture.Status
}

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrSlotOutOfRange  = errors.New("texture slot out of range")
	ErrZeroHandle      = errors.New("zero texture handle")
)

// Mesh is an indexed triangle list plus the textures it samples.
type Mesh struct {
	dev      gpu.Backend
	vertices []Vertex
	indices  []uint32
	textures []TextureBinding
	buffers  gpu.MeshBuffers
}

// Validate checks that every index addresses an existing vertex.
func Validate(vertices []Vertex, indices []uint32) error {
	n := uint32(len(vertices))
	for i, idx := range indices {
		if idx >= n {
			return fmt.Errorf("index %d at position %d, %d vertices: %w", idx, i, n, ErrIndexOutOfRange)
		}
	}
	return nil
}

// New uploads the geometry. The caller guarantees the index invariant; it is
// not checked here. Allocation failures wrap gpu.ErrAllocation.
func New(dev gpu.Backend, vertices []Vertex, indices []uint32, textures []TextureBinding) (*Mesh, error) {
	buffers, err := dev.CreateMesh(vertices, indices)
	if err != nil {
		return nil, fmt.Errorf("creating mesh (%d vertices, %d indices): %w", len(vertices), len(indices), err)
	}
	return &Mesh{
		dev:      dev,
		vertices: vertices,
		indices:  indices,
		textures: append([]TextureBinding(nil), textures...),
		buffers:  buffers,
	}, nil
}

// Draw binds each texture to the unit matching its position and issues one
// indexed draw. The program must already be current.
func (m *Mesh) Draw(p *shader.Program) {
	counts := make(map[TextureType]int, 4)
	for unit, t := range m.textures {
		counts[t.Type]++
		p.SetSampler(SamplerName(t.Type, counts[t.Type]), unit, gpu.Texture2D, t.Handle)
	}
	m.dev.DrawIndexed(m.buffers)
}

// SamplerName returns the uniform name of the n-th (1-based) texture of typ.
func SamplerName(typ TextureType, n int) string {
	return string(typ) + strconv.Itoa(n)
}

// AddTexture appends a binding. Existing bindings are never replaced.
func (m *Mesh) AddTexture(b TextureBinding) {
	m.textures = append(m.textures, b)
}

// Rebind swaps the handle at an existing slot, keeping its type. path
// replaces the recorded source.
func (m *Mesh) Rebind(slot int, handle gpu.TextureID, path string) error {
	if slot < 0 || slot >= len(m.textures) {
		return fmt.Errorf("rebind slot %d of %d: %w", slot, len(m.textures), ErrSlotOutOfRange)
	}
	if handle == 0 {
		return fmt.Errorf("rebind slot %d: %w", slot, ErrZeroHandle)
	}
	m.textures[slot].Handle = handle
	m.textures[slot].Path = path
	m.textures[slot].Status = texture.Loaded
	return nil
}

// Textures returns the bindings in slot order. Do not modify.
func (m *Mesh) Textures() []TextureBinding {
	return m.textures
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.vertices)
}

// IndexCount returns the number of indices.
func (m *Mesh) IndexCount() int {
	return len(m.indices)
}

// Buffers returns the GPU objects backing the mesh.
func (m *Mesh) Buffers() gpu.MeshBuffers {
	return m.buffers
}

// Release frees the GPU buffers. Bound textures are not touched.
func (m *Mesh) Release() {
	if m.buffers.VAO == 0 {
		return
	}
	m.dev.DeleteMesh(m.buffers)
	m.buffers = gpu.MeshBuffers{}
}
