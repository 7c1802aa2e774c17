package demo

import (
	"errors"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/rtr-gl/internal/engine/camera"
	"github.com/Faultbox/rtr-gl/internal/engine/gpu"
	"github.com/Faultbox/rtr-gl/internal/engine/importer"
	"github.com/Faultbox/rtr-gl/internal/engine/input"
	"github.com/Faultbox/rtr-gl/internal/engine/model"
	"github.com/Faultbox/rtr-gl/internal/engine/renderer"
	"github.com/Faultbox/rtr-gl/internal/engine/shader"
	"github.com/Faultbox/rtr-gl/internal/engine/skybox"
	"github.com/Faultbox/rtr-gl/pkg/math"
)

// EnvironmentUnit is the texture unit the environment cubemap binds to,
// above any unit a mesh's own textures use.
const EnvironmentUnit = 15

// Refractive indices used by the environment shaders.
const (
	glassEta     float32 = 1.0 / 1.52
	fresnelPower float32 = 5
)

var chromaticEta = math.V3(0.65, 0.67, 0.69)

var environmentPrograms = []string{"reflect.frag", "refract.frag", "fresnel.frag", "chromatic.frag"}

var environmentFallbacks = []string{
	builtin(importer.BuiltinCube),
	builtin(importer.BuiltinSphere),
	builtin(importer.BuiltinSphere),
	builtin(importer.BuiltinCube),
}

// cubemap shows reflection, refraction, Fresnel and chromatic dispersion
// against a switchable skybox.
type cubemap struct {
	cam      *camera.OrbitCamera
	models   []*model.Model
	skyboxes []*skybox.Skybox
	names    []string
	active   int
	spin     float32
	log      *zap.Logger
}

func newCubemap(ctx *Context) (Demo, error) {
	cfg := ctx.Config.Cubemap
	d := &cubemap{cam: camera.NewOrbitCamera(), log: ctx.log}
	d.cam.Distance = 12

	for i, frag := range environmentPrograms {
		mesh := environmentFallbacks[i]
		if i < len(cfg.Meshes) {
			mesh = meshOr(cfg.Meshes[i], mesh)
		}
		m, err := ctx.NewModel(mesh, "environment.vert", frag)
		if err != nil {
			return nil, err
		}
		d.models = append(d.models, m)
	}

	for _, set := range cfg.Skyboxes {
		s, err := ctx.NewSkybox(set.Faces)
		if err != nil {
			d.log.Warn("skipping skybox", zap.String("skybox", set.Name), zap.Error(err))
			continue
		}
		d.skyboxes = append(d.skyboxes, s)
		d.names = append(d.names, set.Name)
	}
	if len(d.skyboxes) == 0 && len(cfg.Skyboxes) > 0 {
		return nil, errors.New("no skybox could be loaded")
	}
	return d, nil
}

func (d *cubemap) Name() string { return "cubemap" }

func (d *cubemap) Camera() renderer.Camera { return d.cam }

// Skybox returns the active skybox, or nil when none is configured.
func (d *cubemap) Skybox() *skybox.Skybox {
	if len(d.skyboxes) == 0 {
		return nil
	}
	return d.skyboxes[d.active]
}

func (d *cubemap) cycle(step int) {
	if len(d.skyboxes) < 2 {
		return
	}
	d.active = (d.active + step + len(d.skyboxes)) % len(d.skyboxes)
	d.log.Info("skybox switched", zap.String("skybox", d.names[d.active]))
}

func (d *cubemap) Update(dt float32, in *input.Input) {
	switch {
	case in.IsKeyPressed(sdl.SCANCODE_N), in.IsKeyPressed(sdl.SCANCODE_RIGHT):
		d.cycle(1)
	case in.IsKeyPressed(sdl.SCANCODE_P), in.IsKeyPressed(sdl.SCANCODE_LEFT):
		d.cycle(-1)
	}
	if in.IsButtonDown(sdl.BUTTON_LEFT) {
		d.cam.HandleDrag(in.MouseDelta())
	}
	if w := in.Wheel(); w != 0 {
		d.cam.HandleZoom(w)
	}
	d.spin += 20 * dt
}

func (d *cubemap) Draw(r *renderer.Renderer) {
	sky := d.Skybox()
	r.SetSkybox(sky)

	camPos := d.cam.Position()
	rot := math.RotateY(math.Radians(d.spin))
	for i, m := range d.models {
		x := (float32(i) - float32(len(d.models)-1)/2) * 3
		r.Submit(m, math.Translate(x, 0, 0).Mul(rot), func(p *shader.Program) {
			p.SetVec3("cameraPos", camPos)
			p.SetFloat("eta", glassEta)
			p.SetFloat("fresnelPower", fresnelPower)
			p.SetVec3("etaRGB", chromaticEta)
			if sky != nil {
				p.SetSampler("environment", EnvironmentUnit, gpu.TextureCube, sky.Texture())
			}
		})
	}
}

func (d *cubemap) Close() {}
