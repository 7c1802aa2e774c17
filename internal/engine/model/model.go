// Package model pairs a shader program with imported meshes and the
// textures they sample.
package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/rtr-gl/internal/engine/gpu"
	"github.com/Faultbox/rtr-gl/internal/engine/importer"
	"github.com/Faultbox/rtr-gl/internal/engine/mesh"
	"github.com/Faultbox/rtr-gl/internal/engine/shader"
	"github.com/Faultbox/rtr-gl/internal/engine/texture"
	"github.com/Faultbox/rtr-gl/internal/logger"
	"github.com/Faultbox/rtr-gl/pkg/math"
)

// Source describes what a model is built from.
type Source struct {
	// Mesh is a model file path or a builtin shape such as "builtin:cube".
	Mesh string
	// VertexShader and FragmentShader are GLSL source text.
	VertexShader   string
	FragmentShader string
	// Gamma uploads diffuse textures as sRGB.
	Gamma bool
	// Assets reads the mesh file. Only builtin meshes work without it.
	Assets importer.Source
}

// record is one entry of the texture dedup record.
type record struct {
	binding mesh.TextureBinding
	owned   bool
}

// Model owns one program and an ordered list of meshes.
type Model struct {
	id       uuid.UUID
	dev      gpu.Backend
	loader   *texture.Loader
	gamma    bool
	meshPath string

	program *shader.Program
	meshes  []*mesh.Mesh
	bounds  Bounds
	status  importer.Status
	loadErr error

	// loaded is keyed by texture path, in load order.
	loaded map[string]*record
	order  []string

	log *zap.Logger
}

// New compiles the program and imports the meshes. A compile failure is
// returned as *gpu.ShaderCompileError. An import failure is not an error:
// the model is returned with no meshes and LoadStatus reports it.
func New(dev gpu.Backend, loader *texture.Loader, src Source) (*Model, error) {
	program, err := shader.New(dev, src.VertexShader, src.FragmentShader)
	if err != nil {
		return nil, err
	}

	m := &Model{
		id:       uuid.New(),
		dev:      dev,
		loader:   loader,
		gamma:    src.Gamma,
		meshPath: src.Mesh,
		program:  program,
		loaded:   make(map[string]*record),
		bounds:   emptyBounds(),
	}
	m.log = logger.Named("model").With(zap.String("model", m.id.String()), zap.String("mesh", src.Mesh))

	res := importer.LoadMeshes(src.Assets, src.Mesh)
	m.status = res.Status
	m.loadErr = res.Err
	if res.Status == importer.Failed {
		m.log.Error("model has no geometry", zap.Error(res.Err))
		return m, nil
	}

	for _, data := range res.Meshes {
		bindings := make([]mesh.TextureBinding, 0, len(data.Textures))
		for _, t := range data.Textures {
			bindings = append(bindings, m.materialTexture(t))
		}
		mm, err := mesh.New(dev, data.Vertices, data.Indices, bindings)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("model %s: %w", src.Mesh, err)
		}
		m.meshes = append(m.meshes, mm)
		m.bounds.extend(data.Vertices)
	}

	m.log.Info("model loaded",
		zap.Int("meshes", len(m.meshes)),
		zap.Int("textures", len(m.order)),
	)
	return m, nil
}

func (m *Model) sampler(typ mesh.TextureType) gpu.Sampler {
	s := gpu.DefaultSampler
	s.SRGB = m.gamma && typ == mesh.Diffuse
	return s
}

// materialTexture loads t through the dedup record.
func (m *Model) materialTexture(t importer.MaterialTexture) mesh.TextureBinding {
	key := t.Key()
	if r, ok := m.loaded[key]; ok {
		b := r.binding
		b.Type = t.Type
		return b
	}

	var out texture.Outcome
	if t.Embedded != nil {
		out = m.loader.FromMemory(t.Embedded, t.Name, m.sampler(t.Type))
	} else {
		out = m.loader.Load(t.Path, m.sampler(t.Type))
	}
	b := mesh.TextureBinding{Handle: out.Handle, Type: t.Type, Path: key, Status: out.Status}
	m.remember(key, b, out.OK())
	return b
}

func (m *Model) remember(key string, b mesh.TextureBinding, owned bool) {
	m.loaded[key] = &record{binding: b, owned: owned}
	m.order = append(m.order, key)
}

// AddTexture loads path, or reuses it if already loaded, and appends it to
// every mesh. A failed load binds the placeholder; the outcome says why.
func (m *Model) AddTexture(path string, typ mesh.TextureType) texture.Outcome {
	var out texture.Outcome
	if r, ok := m.loaded[path]; ok {
		out = texture.Outcome{Path: path, Handle: r.binding.Handle, Status: r.binding.Status}
	} else {
		out = m.loader.Load(path, m.sampler(typ))
		m.remember(path, mesh.TextureBinding{Handle: out.Handle, Type: typ, Path: path, Status: out.Status}, out.OK())
	}

	b := mesh.TextureBinding{Handle: out.Handle, Type: typ, Path: path, Status: out.Status}
	for _, mm := range m.meshes {
		mm.AddTexture(b)
	}
	return out
}

// AddTextureHandle appends an existing texture to every mesh. The model
// does not take ownership of handle.
func (m *Model) AddTextureHandle(handle gpu.TextureID, typ mesh.TextureType) error {
	if handle == 0 {
		return mesh.ErrZeroHandle
	}
	key := proceduralID(handle)
	b := mesh.TextureBinding{Handle: handle, Type: typ, Path: key, Status: texture.Loaded}
	if _, ok := m.loaded[key]; !ok {
		m.remember(key, b, false)
	}
	for _, mm := range m.meshes {
		mm.AddTexture(b)
	}
	return nil
}

// RebindTexture swaps the texture at slot of mesh meshIdx.
func (m *Model) RebindTexture(meshIdx, slot int, handle gpu.TextureID) error {
	if meshIdx < 0 || meshIdx >= len(m.meshes) {
		return fmt.Errorf("rebind mesh %d of %d: %w", meshIdx, len(m.meshes), ErrMeshOutOfRange)
	}
	return m.meshes[meshIdx].Rebind(slot, handle, proceduralID(handle))
}

// proceduralID is the synthetic path of a texture passed in by handle.
func proceduralID(handle gpu.TextureID) string {
	return fmt.Sprintf("procedural_custom_%d", handle)
}

// ErrMeshOutOfRange is returned for a mesh index the model does not have.
var ErrMeshOutOfRange = errors.New("mesh index out of range")

// Draw makes the program current, sets the transform uniforms and draws
// every mesh.
func (m *Model) Draw(modelM, view, proj math.Mat4) {
	if m.program == nil {
		return
	}
	m.program.Use()
	m.program.SetMat4("projection", proj)
	m.program.SetMat4("view", view)
	m.program.SetMat4("model", modelM)
	for _, mm := range m.meshes {
		mm.Draw(m.program)
	}
}

// Reload recompiles the program from new sources. On failure the previous
// program stays in use.
func (m *Model) Reload(vertexSrc, fragmentSrc string) error {
	if m.program == nil {
		return errors.New("model is closed")
	}
	if err := m.program.Reload(vertexSrc, fragmentSrc); err != nil {
		m.log.Warn("shader reload failed, keeping previous program", zap.Error(err))
		return err
	}
	m.log.Info("shader reloaded")
	return nil
}

// Close releases the program, the mesh buffers and the textures the model
// loaded itself. Textures passed in by handle and the placeholder are left
// alone. Close is idempotent.
func (m *Model) Close() {
	for _, mm := range m.meshes {
		mm.Release()
	}
	m.meshes = nil
	for _, key := range m.order {
		if r := m.loaded[key]; r.owned {
			m.dev.DeleteTexture(r.binding.Handle)
		}
	}
	m.loaded = make(map[string]*record)
	m.order = nil
	if m.program != nil {
		m.program.Close()
		m.program = nil
	}
}

// ID identifies the model instance in logs.
func (m *Model) ID() uuid.UUID { return m.id }

// Program returns the model's program, nil after Close.
func (m *Model) Program() *shader.Program { return m.program }

// Meshes returns the meshes in import order.
func (m *Model) Meshes() []*mesh.Mesh { return m.meshes }

// MeshPath is the source the meshes were imported from.
func (m *Model) MeshPath() string { return m.meshPath }

// LoadStatus reports how the mesh import went.
func (m *Model) LoadStatus() importer.Status { return m.status }

// LoadErr is the import error when LoadStatus is importer.Failed.
func (m *Model) LoadErr() error { return m.loadErr }

// Bounds returns the model-space bounding box of every mesh.
func (m *Model) Bounds() Bounds { return m.bounds }

// Textures returns the dedup record in load order.
func (m *Model) Textures() []mesh.TextureBinding {
	out := make([]mesh.TextureBinding, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, m.loaded[key].binding)
	}
	return out
}
