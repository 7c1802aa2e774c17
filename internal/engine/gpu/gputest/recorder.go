// Package gputest provides a gpu.Backend that records calls instead of
// issuing them, for tests that exercise the draw pipeline without a context.
package gputest

import (
	"fmt"
	"image"
	"strings"

	"github.com/Faultbox/rtr-gl/internal/engine/gpu"
	"github.com/Faultbox/rtr-gl/pkg/math"
)

// Op names a recorded call.
type Op string

const (
	OpEnableDepth Op = "enable_depth"
	OpDepthFunc   Op = "depth_func"
	OpDepthMask   Op = "depth_mask"
	OpClear       Op = "clear"
	OpUseProgram  Op = "use_program"
	OpUniform     Op = "uniform"
	OpBindTexture Op = "bind_texture"
	OpDrawIndexed Op = "draw_indexed"
	OpDrawArrays  Op = "draw_arrays"
)

// Event is one recorded call. Only the fields relevant to Op are set.
type Event struct {
	Op      Op
	Program gpu.ProgramID // current program for uniforms and draws
	Name    string        // uniform name
	Value   any           // uniform value: int32, float32, math.Vec3 or math.Mat4
	Mesh    gpu.MeshBuffers
	Unit    int
	Target  gpu.TextureTarget
	Texture gpu.TextureID
	Depth   gpu.DepthFunc
	Write   bool
}

// ProgramSource is what a program was compiled from.
type ProgramSource struct {
	Vertex, Fragment string
}

// Recorder implements gpu.Backend in memory. Handles are handed out
// sequentially starting at 1.
type Recorder struct {
	// FailCompile makes CompileProgram return a *gpu.ShaderCompileError
	// whenever either source contains this string.
	FailCompile string
	// FailAllocation makes CreateMesh, CreatePositionBuffer and texture
	// creation fail with gpu.ErrAllocation.
	FailAllocation bool

	events   []Event
	current  gpu.ProgramID
	next     uint32
	programs map[gpu.ProgramID]ProgramSource
	uniforms map[gpu.UniformLocation]uniformSlot
	values   map[gpu.ProgramID]map[string]any
	textures map[gpu.TextureID]*image.RGBA
	samplers map[gpu.TextureID]gpu.Sampler
	cubemaps map[gpu.TextureID][6]*image.RGBA
	meshes   map[uint32]meshData

	DeletedPrograms []gpu.ProgramID
	DeletedTextures []gpu.TextureID
	DeletedMeshes   []gpu.MeshBuffers
}

type uniformSlot struct {
	program gpu.ProgramID
	name    string
}

type meshData struct {
	vertices  []gpu.Vertex
	indices   []uint32
	positions []float32
}

var _ gpu.Backend = (*Recorder)(nil)

// New returns an empty recorder.
func New() *Recorder {
	return &Recorder{
		programs: make(map[gpu.ProgramID]ProgramSource),
		uniforms: make(map[gpu.UniformLocation]uniformSlot),
		values:   make(map[gpu.ProgramID]map[string]any),
		textures: make(map[gpu.TextureID]*image.RGBA),
		samplers: make(map[gpu.TextureID]gpu.Sampler),
		cubemaps: make(map[gpu.TextureID][6]*image.RGBA),
		meshes:   make(map[uint32]meshData),
	}
}

func (r *Recorder) handle() uint32 {
	r.next++
	return r.next
}

func (r *Recorder) record(e Event) {
	r.events = append(r.events, e)
}

// Events returns every call recorded since the last Reset.
func (r *Recorder) Events() []Event {
	return r.events
}

// Reset forgets recorded events. Created objects are kept.
func (r *Recorder) Reset() {
	r.events = nil
}

// Filter returns the recorded events with the given op, in order.
func (r *Recorder) Filter(op Op) []Event {
	var out []Event
	for _, e := range r.events {
		if e.Op == op {
			out = append(out, e)
		}
	}
	return out
}

// Draws returns indexed and array draws in issue order.
func (r *Recorder) Draws() []Event {
	var out []Event
	for _, e := range r.events {
		if e.Op == OpDrawIndexed || e.Op == OpDrawArrays {
			out = append(out, e)
		}
	}
	return out
}

// Uniform returns the last value set for name while p was current.
func (r *Recorder) Uniform(p gpu.ProgramID, name string) (any, bool) {
	v, ok := r.values[p][name]
	return v, ok
}

// Program returns the sources p was compiled from.
func (r *Recorder) Program(p gpu.ProgramID) (ProgramSource, bool) {
	src, ok := r.programs[p]
	return src, ok
}

// Texture returns the image uploaded for a 2D texture and its sampler.
func (r *Recorder) Texture(t gpu.TextureID) (*image.RGBA, gpu.Sampler, bool) {
	img, ok := r.textures[t]
	return img, r.samplers[t], ok
}

// CubemapFace returns face i (0 = +X ... 5 = -Z) of a cubemap.
func (r *Recorder) CubemapFace(t gpu.TextureID, i int) *image.RGBA {
	faces, ok := r.cubemaps[t]
	if !ok || i < 0 || i >= 6 {
		return nil
	}
	return faces[i]
}

// MeshIndices returns the index data uploaded for a mesh VAO.
func (r *Recorder) MeshIndices(b gpu.MeshBuffers) []uint32 {
	return r.meshes[b.VAO].indices
}

// MeshVertices returns the vertex data uploaded for a mesh VAO.
func (r *Recorder) MeshVertices(b gpu.MeshBuffers) []gpu.Vertex {
	return r.meshes[b.VAO].vertices
}

func (r *Recorder) EnableDepthTest() {
	r.record(Event{Op: OpEnableDepth, Depth: gpu.DepthLess})
}

func (r *Recorder) SetDepthFunc(fn gpu.DepthFunc) {
	r.record(Event{Op: OpDepthFunc, Depth: fn})
}

func (r *Recorder) SetDepthMask(write bool) {
	r.record(Event{Op: OpDepthMask, Write: write})
}

func (r *Recorder) Clear(_, _, _, _ float32) {
	r.record(Event{Op: OpClear})
}

func (r *Recorder) Viewport(_, _ int) {}

func (r *Recorder) CompileProgram(vertexSrc, fragmentSrc string) (gpu.ProgramID, error) {
	if r.FailCompile != "" {
		if strings.Contains(vertexSrc, r.FailCompile) {
			return 0, &gpu.ShaderCompileError{Stage: "vertex", Log: "0:1: error: " + r.FailCompile}
		}
		if strings.Contains(fragmentSrc, r.FailCompile) {
			return 0, &gpu.ShaderCompileError{Stage: "fragment", Log: "0:1: error: " + r.FailCompile}
		}
	}
	p := gpu.ProgramID(r.handle())
	r.programs[p] = ProgramSource{Vertex: vertexSrc, Fragment: fragmentSrc}
	r.values[p] = make(map[string]any)
	return p, nil
}

func (r *Recorder) DeleteProgram(p gpu.ProgramID) {
	delete(r.programs, p)
	r.DeletedPrograms = append(r.DeletedPrograms, p)
}

func (r *Recorder) UseProgram(p gpu.ProgramID) {
	r.current = p
	r.record(Event{Op: OpUseProgram, Program: p})
}

// UniformLocation resolves every name; locations are unique per program and name.
func (r *Recorder) UniformLocation(p gpu.ProgramID, name string) gpu.UniformLocation {
	loc := gpu.UniformLocation(r.handle())
	r.uniforms[loc] = uniformSlot{program: p, name: name}
	return loc
}

func (r *Recorder) setUniform(loc gpu.UniformLocation, v any) {
	slot, ok := r.uniforms[loc]
	if !ok {
		return
	}
	if slot.program != r.current {
		panic(fmt.Sprintf("gputest: uniform %q of program %d set while program %d is current", slot.name, slot.program, r.current))
	}
	r.values[slot.program][slot.name] = v
	r.record(Event{Op: OpUniform, Program: r.current, Name: slot.name, Value: v})
}

func (r *Recorder) SetUniformInt(loc gpu.UniformLocation, v int32)     { r.setUniform(loc, v) }
func (r *Recorder) SetUniformFloat(loc gpu.UniformLocation, v float32) { r.setUniform(loc, v) }
func (r *Recorder) SetUniformVec3(loc gpu.UniformLocation, v math.Vec3) {
	r.setUniform(loc, v)
}
func (r *Recorder) SetUniformMat4(loc gpu.UniformLocation, m math.Mat4) {
	r.setUniform(loc, m)
}

func (r *Recorder) CreateMesh(vertices []gpu.Vertex, indices []uint32) (gpu.MeshBuffers, error) {
	if r.FailAllocation {
		return gpu.MeshBuffers{}, fmt.Errorf("mesh upload: %w", gpu.ErrAllocation)
	}
	b := gpu.MeshBuffers{
		VAO:         r.handle(),
		VBO:         r.handle(),
		EBO:         r.handle(),
		IndexCount:  int32(len(indices)),
		VertexCount: int32(len(vertices)),
	}
	r.meshes[b.VAO] = meshData{
		vertices: append([]gpu.Vertex(nil), vertices...),
		indices:  append([]uint32(nil), indices...),
	}
	return b, nil
}

func (r *Recorder) CreatePositionBuffer(positions []float32) (gpu.MeshBuffers, error) {
	if r.FailAllocation {
		return gpu.MeshBuffers{}, fmt.Errorf("position buffer upload: %w", gpu.ErrAllocation)
	}
	b := gpu.MeshBuffers{VAO: r.handle(), VBO: r.handle(), VertexCount: int32(len(positions) / 3)}
	r.meshes[b.VAO] = meshData{positions: append([]float32(nil), positions...)}
	return b, nil
}

func (r *Recorder) DeleteMesh(b gpu.MeshBuffers) {
	delete(r.meshes, b.VAO)
	r.DeletedMeshes = append(r.DeletedMeshes, b)
}

func (r *Recorder) DrawIndexed(b gpu.MeshBuffers) {
	r.record(Event{Op: OpDrawIndexed, Program: r.current, Mesh: b})
}

func (r *Recorder) DrawArrays(b gpu.MeshBuffers) {
	r.record(Event{Op: OpDrawArrays, Program: r.current, Mesh: b})
}

func (r *Recorder) CreateTexture2D(img *image.RGBA, s gpu.Sampler) (gpu.TextureID, error) {
	if r.FailAllocation || img == nil || len(img.Pix) == 0 {
		return 0, fmt.Errorf("texture upload: %w", gpu.ErrAllocation)
	}
	t := gpu.TextureID(r.handle())
	r.textures[t] = img
	r.samplers[t] = s
	return t, nil
}

func (r *Recorder) CreateCubemap(faces [6]*image.RGBA) (gpu.TextureID, error) {
	if r.FailAllocation {
		return 0, fmt.Errorf("cubemap upload: %w", gpu.ErrAllocation)
	}
	for i, f := range faces {
		if f == nil || len(f.Pix) == 0 {
			return 0, fmt.Errorf("cubemap face %d is empty: %w", i, gpu.ErrAllocation)
		}
	}
	t := gpu.TextureID(r.handle())
	r.cubemaps[t] = faces
	return t, nil
}

func (r *Recorder) DeleteTexture(t gpu.TextureID) {
	delete(r.textures, t)
	delete(r.cubemaps, t)
	r.DeletedTextures = append(r.DeletedTextures, t)
}

func (r *Recorder) BindTexture(unit int, target gpu.TextureTarget, t gpu.TextureID) {
	r.record(Event{Op: OpBindTexture, Program: r.current, Unit: unit, Target: target, Texture: t})
}

// ReadPixels returns a black frame of the requested size.
func (r *Recorder) ReadPixels(width, height int) []byte {
	if width <= 0 || height <= 0 {
		return nil
	}
	return make([]byte, width*height*4)
}
