// Package gpu defines the small surface the engine needs from a graphics API.
//
// Everything above this package (meshes, models, skyboxes, the renderer)
// talks to a Backend. glbackend implements it on OpenGL 4.1 core and
// gputest records calls so the pipeline can be tested without a context.
package gpu

import (
	"errors"
	"fmt"
	"image"

	"github.com/Faultbox/rtr-gl/pkg/math"
)

// ProgramID is a linked shader program handle. Zero is never valid.
type ProgramID uint32

// TextureID is a texture object handle. Zero is never valid.
type TextureID uint32

// UniformLocation is a uniform slot in the current program. Negative values
// mean the uniform is absent or optimized out; setting them is a no-op.
type UniformLocation int32

// Vertex is the interleaved vertex layout shared by every mesh.
// Attribute locations: 0 position, 1 normal, 2 texcoords, 3 tangent,
// 4 bitangent, 5 bone ids, 6 bone weights.
type Vertex struct {
	Position  [3]float32
	Normal    [3]float32
	TexCoords [2]float32
	Tangent   [3]float32
	Bitangent [3]float32
	BoneIDs   [4]int32
	Weights   [4]float32
}

// MeshBuffers holds the GPU objects backing one mesh.
type MeshBuffers struct {
	VAO         uint32
	VBO         uint32
	EBO         uint32
	IndexCount  int32
	VertexCount int32
}

// DepthFunc selects the depth comparison.
type DepthFunc int

const (
	DepthLess DepthFunc = iota
	DepthLessEqual
)

func (d DepthFunc) String() string {
	if d == DepthLessEqual {
		return "LEQUAL"
	}
	return "LESS"
}

// TextureTarget is the binding point of a texture.
type TextureTarget int

const (
	Texture2D TextureTarget = iota
	TextureCube
)

// Filter selects minification filtering for 2D textures.
type Filter int

const (
	FilterNearest Filter = iota
	FilterLinear
	// FilterTrilinear generates mipmaps and samples LINEAR_MIPMAP_LINEAR.
	FilterTrilinear
)

// Sampler describes how a 2D texture is sampled.
type Sampler struct {
	Filter Filter
	// Anisotropy is clamped to what the device supports. Zero or one disables it.
	Anisotropy float32
	// Clamp uses CLAMP_TO_EDGE instead of REPEAT.
	Clamp bool
	// SRGB stores the texels as sRGB so sampling returns linear color.
	SRGB bool
}

// DefaultSampler is what material textures use: trilinear, repeat, 8x aniso.
var DefaultSampler = Sampler{Filter: FilterTrilinear, Anisotropy: 8}

// ErrAllocation is wrapped by backends when a buffer or texture cannot be created.
var ErrAllocation = errors.New("gpu allocation failed")

// ShaderCompileError reports a failed compile or link with the driver log.
type ShaderCompileError struct {
	Stage string // "vertex", "fragment" or "link"
	Log   string
}

func (e *ShaderCompileError) Error() string {
	return fmt.Sprintf("%s shader: %s", e.Stage, e.Log)
}

// Backend is implemented by glbackend.Device and gputest.Recorder.
// All methods must be called from the thread that owns the context.
type Backend interface {
	EnableDepthTest()
	SetDepthFunc(fn DepthFunc)
	SetDepthMask(write bool)
	Clear(r, g, b, a float32)
	Viewport(width, height int)

	CompileProgram(vertexSrc, fragmentSrc string) (ProgramID, error)
	DeleteProgram(p ProgramID)
	UseProgram(p ProgramID)
	UniformLocation(p ProgramID, name string) UniformLocation
	SetUniformInt(loc UniformLocation, v int32)
	SetUniformFloat(loc UniformLocation, v float32)
	SetUniformVec3(loc UniformLocation, v math.Vec3)
	SetUniformMat4(loc UniformLocation, m math.Mat4)

	// CreateMesh uploads an indexed triangle list.
	CreateMesh(vertices []Vertex, indices []uint32) (MeshBuffers, error)
	// CreatePositionBuffer uploads a non-indexed list of xyz positions.
	CreatePositionBuffer(positions []float32) (MeshBuffers, error)
	DeleteMesh(b MeshBuffers)
	DrawIndexed(b MeshBuffers)
	DrawArrays(b MeshBuffers)

	CreateTexture2D(img *image.RGBA, s Sampler) (TextureID, error)
	// CreateCubemap uploads faces in +X, -X, +Y, -Y, +Z, -Z order.
	CreateCubemap(faces [6]*image.RGBA) (TextureID, error)
	DeleteTexture(t TextureID)
	BindTexture(unit int, target TextureTarget, t TextureID)

	// ReadPixels returns the default framebuffer as bottom-up RGBA rows.
	ReadPixels(width, height int) []byte
}
