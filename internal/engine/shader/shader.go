// Package shader wraps a linked GPU program with cached uniform lookups.
package shader

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/rtr-gl/internal/engine/gpu"
	"github.com/Faultbox/rtr-gl/internal/logger"
	"github.com/Faultbox/rtr-gl/pkg/math"
)

// Program owns one linked program. Setters apply to the program that is
// current on the device, so call Use first.
type Program struct {
	dev  gpu.Backend
	id   gpu.ProgramID
	locs map[string]gpu.UniformLocation
}

// New compiles and links vertexSrc and fragmentSrc. A compile or link
// failure is returned as *gpu.ShaderCompileError.
func New(dev gpu.Backend, vertexSrc, fragmentSrc string) (*Program, error) {
	id, err := dev.CompileProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return nil, err
	}
	return &Program{
		dev:  dev,
		id:   id,
		locs: make(map[string]gpu.UniformLocation),
	}, nil
}

// ID returns the program handle, zero after Close.
func (p *Program) ID() gpu.ProgramID {
	if p == nil {
		return 0
	}
	return p.id
}

// Use makes the program current.
func (p *Program) Use() {
	p.dev.UseProgram(p.id)
}

// Location returns the cached location of a uniform.
func (p *Program) Location(name string) gpu.UniformLocation {
	if loc, ok := p.locs[name]; ok {
		return loc
	}
	loc := p.dev.UniformLocation(p.id, name)
	p.locs[name] = loc
	return loc
}

func (p *Program) SetInt(name string, v int32) {
	p.dev.SetUniformInt(p.Location(name), v)
}

func (p *Program) SetBool(name string, v bool) {
	var i int32
	if v {
		i = 1
	}
	p.dev.SetUniformInt(p.Location(name), i)
}

func (p *Program) SetFloat(name string, v float32) {
	p.dev.SetUniformFloat(p.Location(name), v)
}

func (p *Program) SetVec3(name string, v math.Vec3) {
	p.dev.SetUniformVec3(p.Location(name), v)
}

func (p *Program) SetMat4(name string, m math.Mat4) {
	p.dev.SetUniformMat4(p.Location(name), m)
}

// SetSampler binds t to unit and points the sampler uniform name at it.
func (p *Program) SetSampler(name string, unit int, target gpu.TextureTarget, t gpu.TextureID) {
	p.dev.BindTexture(unit, target, t)
	p.dev.SetUniformInt(p.Location(name), int32(unit))
}

// Reload relinks the program from new sources. On failure the old program
// stays in place and the error is returned.
func (p *Program) Reload(vertexSrc, fragmentSrc string) error {
	id, err := p.dev.CompileProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return fmt.Errorf("reload program %d: %w", p.id, err)
	}
	old := p.id
	p.dev.DeleteProgram(old)
	p.id = id
	clear(p.locs)
	logger.Debug("shader program reloaded", zap.Uint32("old", uint32(old)), zap.Uint32("new", uint32(id)))
	return nil
}

// Close deletes the program. Safe to call twice.
func (p *Program) Close() {
	if p == nil || p.id == 0 {
		return
	}
	p.dev.DeleteProgram(p.id)
	p.id = 0
}
