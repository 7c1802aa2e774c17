// Package glbackend implements gpu.Backend on OpenGL 4.1 core via go-gl.
package glbackend

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/rtr-gl/internal/engine/gpu"
	"github.com/Faultbox/rtr-gl/internal/logger"
	"github.com/Faultbox/rtr-gl/pkg/math"
)

// Device is the OpenGL backend. It holds no GL objects itself.
type Device struct {
	maxAnisotropy float32
}

var _ gpu.Backend = (*Device)(nil)

// New loads GL function pointers. Must be called AFTER the context is current.
func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	d := &Device{}
	gl.GetFloatv(gl.MAX_TEXTURE_MAX_ANISOTROPY, &d.maxAnisotropy)

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.String("glsl", gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION))),
		zap.Float32("max_anisotropy", d.maxAnisotropy),
	)
	return d, nil
}

func (d *Device) EnableDepthTest() {
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
}

func (d *Device) SetDepthFunc(fn gpu.DepthFunc) {
	if fn == gpu.DepthLessEqual {
		gl.DepthFunc(gl.LEQUAL)
		return
	}
	gl.DepthFunc(gl.LESS)
}

func (d *Device) SetDepthMask(write bool) {
	gl.DepthMask(write)
}

func (d *Device) Clear(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (d *Device) Viewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

// CompileProgram compiles and links a vertex/fragment pair. Failures come
// back as *gpu.ShaderCompileError carrying the driver log.
func (d *Device) CompileProgram(vertexSrc, fragmentSrc string) (gpu.ProgramID, error) {
	vert, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vert)

	frag, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(frag)

	program := gl.CreateProgram()
	gl.AttachShader(program, vert)
	gl.AttachShader(program, frag)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, &gpu.ShaderCompileError{Stage: "link", Log: gl.GoStr(&log[0])}
	}

	logger.Debug("shader program linked", zap.Uint32("program", program))
	return gpu.ProgramID(program), nil
}

func compileShader(source string, shaderType uint32, stage string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, &gpu.ShaderCompileError{Stage: stage, Log: gl.GoStr(&log[0])}
	}
	return shader, nil
}

func (d *Device) DeleteProgram(p gpu.ProgramID) {
	if p != 0 {
		gl.DeleteProgram(uint32(p))
	}
}

func (d *Device) UseProgram(p gpu.ProgramID) {
	gl.UseProgram(uint32(p))
}

func (d *Device) UniformLocation(p gpu.ProgramID, name string) gpu.UniformLocation {
	return gpu.UniformLocation(gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00")))
}

func (d *Device) SetUniformInt(loc gpu.UniformLocation, v int32) {
	gl.Uniform1i(int32(loc), v)
}

func (d *Device) SetUniformFloat(loc gpu.UniformLocation, v float32) {
	gl.Uniform1f(int32(loc), v)
}

func (d *Device) SetUniformVec3(loc gpu.UniformLocation, v math.Vec3) {
	gl.Uniform3f(int32(loc), v.X, v.Y, v.Z)
}

func (d *Device) SetUniformMat4(loc gpu.UniformLocation, m math.Mat4) {
	gl.UniformMatrix4fv(int32(loc), 1, false, m.Ptr())
}

func (d *Device) CreateMesh(vertices []gpu.Vertex, indices []uint32) (gpu.MeshBuffers, error) {
	var b gpu.MeshBuffers
	gl.GenVertexArrays(1, &b.VAO)
	gl.BindVertexArray(b.VAO)

	gl.GenBuffers(1, &b.VBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.VBO)
	vertexSize := int(unsafe.Sizeof(gpu.Vertex{}))
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*vertexSize, slicePtr(vertices), gl.STATIC_DRAW)

	stride := int32(vertexSize)
	var v gpu.Vertex
	floatAttrib := func(index uint32, size int32, offset uintptr) {
		gl.VertexAttribPointerWithOffset(index, size, gl.FLOAT, false, stride, offset)
		gl.EnableVertexAttribArray(index)
	}
	floatAttrib(0, 3, unsafe.Offsetof(v.Position))
	floatAttrib(1, 3, unsafe.Offsetof(v.Normal))
	floatAttrib(2, 2, unsafe.Offsetof(v.TexCoords))
	floatAttrib(3, 3, unsafe.Offsetof(v.Tangent))
	floatAttrib(4, 3, unsafe.Offsetof(v.Bitangent))
	gl.VertexAttribIPointerWithOffset(5, 4, gl.INT, stride, unsafe.Offsetof(v.BoneIDs))
	gl.EnableVertexAttribArray(5)
	floatAttrib(6, 4, unsafe.Offsetof(v.Weights))

	gl.GenBuffers(1, &b.EBO)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.EBO)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, slicePtr(indices), gl.STATIC_DRAW)
	gl.BindVertexArray(0)

	b.IndexCount = int32(len(indices))
	b.VertexCount = int32(len(vertices))

	if err := checkError("mesh upload"); err != nil {
		d.DeleteMesh(b)
		return gpu.MeshBuffers{}, err
	}
	return b, nil
}

func (d *Device) CreatePositionBuffer(positions []float32) (gpu.MeshBuffers, error) {
	var b gpu.MeshBuffers
	gl.GenVertexArrays(1, &b.VAO)
	gl.BindVertexArray(b.VAO)
	gl.GenBuffers(1, &b.VBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(positions)*4, slicePtr(positions), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)
	gl.EnableVertexAttribArray(0)
	gl.BindVertexArray(0)

	b.VertexCount = int32(len(positions) / 3)

	if err := checkError("position buffer upload"); err != nil {
		d.DeleteMesh(b)
		return gpu.MeshBuffers{}, err
	}
	return b, nil
}

func (d *Device) DeleteMesh(b gpu.MeshBuffers) {
	if b.EBO != 0 {
		gl.DeleteBuffers(1, &b.EBO)
	}
	if b.VBO != 0 {
		gl.DeleteBuffers(1, &b.VBO)
	}
	if b.VAO != 0 {
		gl.DeleteVertexArrays(1, &b.VAO)
	}
}

func (d *Device) DrawIndexed(b gpu.MeshBuffers) {
	gl.BindVertexArray(b.VAO)
	gl.DrawElementsWithOffset(gl.TRIANGLES, b.IndexCount, gl.UNSIGNED_INT, 0)
	gl.BindVertexArray(0)
}

func (d *Device) DrawArrays(b gpu.MeshBuffers) {
	gl.BindVertexArray(b.VAO)
	gl.DrawArrays(gl.TRIANGLES, 0, b.VertexCount)
	gl.BindVertexArray(0)
}

func (d *Device) CreateTexture2D(img *image.RGBA, s gpu.Sampler) (gpu.TextureID, error) {
	if img == nil || len(img.Pix) == 0 {
		return 0, fmt.Errorf("empty image: %w", gpu.ErrAllocation)
	}
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	internal := int32(gl.RGBA)
	if s.SRGB {
		internal = gl.SRGB_ALPHA
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(img.Bounds().Dx()), int32(img.Bounds().Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[0]))

	switch s.Filter {
	case gpu.FilterNearest:
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	case gpu.FilterLinear:
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	default:
		gl.GenerateMipmap(gl.TEXTURE_2D)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	}

	wrap := int32(gl.REPEAT)
	if s.Clamp {
		wrap = gl.CLAMP_TO_EDGE
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)

	if s.Anisotropy > 1 && d.maxAnisotropy > 1 {
		gl.TexParameterf(gl.TEXTURE_2D, gl.TEXTURE_MAX_ANISOTROPY, min(s.Anisotropy, d.maxAnisotropy))
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if err := checkError("texture upload"); err != nil {
		gl.DeleteTextures(1, &id)
		return 0, err
	}
	return gpu.TextureID(id), nil
}

func (d *Device) CreateCubemap(faces [6]*image.RGBA) (gpu.TextureID, error) {
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	for i, img := range faces {
		if img == nil || len(img.Pix) == 0 {
			gl.DeleteTextures(1, &id)
			return 0, fmt.Errorf("cubemap face %d is empty: %w", i, gpu.ErrAllocation)
		}
		gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(i), 0, gl.RGBA,
			int32(img.Bounds().Dx()), int32(img.Bounds().Dy()), 0,
			gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[0]))
	}
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)

	if err := checkError("cubemap upload"); err != nil {
		gl.DeleteTextures(1, &id)
		return 0, err
	}
	return gpu.TextureID(id), nil
}

func (d *Device) DeleteTexture(t gpu.TextureID) {
	if t == 0 {
		return
	}
	id := uint32(t)
	gl.DeleteTextures(1, &id)
}

func (d *Device) BindTexture(unit int, target gpu.TextureTarget, t gpu.TextureID) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	if target == gpu.TextureCube {
		gl.BindTexture(gl.TEXTURE_CUBE_MAP, uint32(t))
		return
	}
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
}

func (d *Device) ReadPixels(width, height int) []byte {
	if width <= 0 || height <= 0 {
		return nil
	}
	pixels := make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
	return pixels
}

// checkError drains the GL error queue. Out-of-memory maps to gpu.ErrAllocation.
func checkError(op string) error {
	var first uint32
	for e := gl.GetError(); e != gl.NO_ERROR; e = gl.GetError() {
		if first == 0 {
			first = e
		}
	}
	switch first {
	case 0:
		return nil
	case gl.OUT_OF_MEMORY:
		return fmt.Errorf("%s: out of memory: %w", op, gpu.ErrAllocation)
	default:
		return fmt.Errorf("%s: GL error 0x%x", op, first)
	}
}

func slicePtr[T any](s []T) unsafe.Pointer {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Pointer(&s[0])
}
