// Package skybox draws a cubemap around the camera.
package skybox

import (
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/Faultbox/rtr-gl/internal/engine/gpu"
	"github.com/Faultbox/rtr-gl/internal/engine/shader"
	"github.com/Faultbox/rtr-gl/internal/engine/texture"
	"github.com/Faultbox/rtr-gl/internal/logger"
	"github.com/Faultbox/rtr-gl/pkg/math"
)

// FaceNames lists the cubemap faces in upload order.
var FaceNames = [6]string{"right", "left", "top", "bottom", "front", "back"}

// Skybox owns a cubemap, the cube it is drawn on and its program.
type Skybox struct {
	dev     gpu.Backend
	program *shader.Program
	cubemap gpu.TextureID
	cube    gpu.MeshBuffers
	faces   [6]string
}

// New loads six face images in +X, -X, +Y, -Y, +Z, -Z order into one
// cubemap. A face that is missing or cannot be decoded fails the whole
// skybox and the error names it.
func New(dev gpu.Backend, loader *texture.Loader, faces [6]string, vertexSrc, fragmentSrc string) (*Skybox, error) {
	var images [6]*image.RGBA
	for i, path := range faces {
		img, status, err := loader.Image(path)
		if err != nil {
			return nil, fmt.Errorf("skybox %s face %q (%s): %w", FaceNames[i], path, status, err)
		}
		images[i] = img
	}

	program, err := shader.New(dev, vertexSrc, fragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("skybox program: %w", err)
	}

	cubemap, err := dev.CreateCubemap(images)
	if err != nil {
		program.Close()
		return nil, fmt.Errorf("skybox cubemap: %w", err)
	}

	cube, err := dev.CreatePositionBuffer(cubeVertices[:])
	if err != nil {
		program.Close()
		dev.DeleteTexture(cubemap)
		return nil, fmt.Errorf("skybox cube: %w", err)
	}

	logger.Debug("skybox created", zap.String("right", faces[0]), zap.Uint32("cubemap", uint32(cubemap)))
	return &Skybox{
		dev:     dev,
		program: program,
		cubemap: cubemap,
		cube:    cube,
		faces:   faces,
	}, nil
}

// Draw renders the box behind everything already drawn. The view matrix
// has its translation removed so the box follows the camera.
func (s *Skybox) Draw(view, proj math.Mat4) {
	if s == nil || s.program == nil {
		return
	}
	s.dev.SetDepthFunc(gpu.DepthLessEqual)
	s.dev.SetDepthMask(false)
	defer s.dev.SetDepthFunc(gpu.DepthLess)
	defer s.dev.SetDepthMask(true)

	s.program.Use()
	s.program.SetMat4("view", view.WithoutTranslation())
	s.program.SetMat4("projection", proj)
	s.program.SetSampler("skybox", 0, gpu.TextureCube, s.cubemap)
	s.dev.DrawArrays(s.cube)
}

// Texture returns the cubemap, for reflection and refraction samplers.
func (s *Skybox) Texture() gpu.TextureID {
	return s.cubemap
}

// Faces returns the image paths the skybox was built from.
func (s *Skybox) Faces() [6]string {
	return s.faces
}

// Reload relinks the skybox program. On failure the previous program is
// kept and the error returned.
func (s *Skybox) Reload(vertexSrc, fragmentSrc string) error {
	if s.program == nil {
		return errors.New("skybox is closed")
	}
	if err := s.program.Reload(vertexSrc, fragmentSrc); err != nil {
		logger.Warn("skybox shader reload failed, keeping previous program", zap.Error(err))
		return err
	}
	return nil
}

// Program returns the skybox program, or nil once closed.
func (s *Skybox) Program() *shader.Program { return s.program }

// Close frees the cubemap, the cube and the program.
func (s *Skybox) Close() {
	if s.program == nil {
		return
	}
	s.dev.DeleteTexture(s.cubemap)
	s.dev.DeleteMesh(s.cube)
	s.program.Close()
	s.program = nil
	s.cubemap = 0
}

// cubeVertices is a 2x2x2 cube as 36 positions.
var cubeVertices = [36 * 3]float32{
	-1, 1, -1, -1, -1, -1, 1, -1, -1,
	1, -1, -1, 1, 1, -1, -1, 1, -1,

	-1, -1, 1, -1, -1, -1, -1, 1, -1,
	-1, 1, -1, -1, 1, 1, -1, -1, 1,

	1, -1, -1, 1, -1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, -1, 1, -1, -1,

	-1, -1, 1, -1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, -1, 1, -1, -1, 1,

	-1, 1, -1, 1, 1, -1, 1, 1, 1,
	1, 1, 1, -1, 1, 1, -1, 1, -1,

	-1, -1, -1, -1, -1, 1, 1, -1, -1,
	1, -1, -1, -1, -1, 1, 1, -1, 1,
}
