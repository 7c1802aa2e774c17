package demo

import (
	"errors"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/rtr-gl/internal/config"
	"github.com/Faultbox/rtr-gl/internal/engine/camera"
	"github.com/Faultbox/rtr-gl/internal/engine/importer"
	"github.com/Faultbox/rtr-gl/internal/engine/input"
	"github.com/Faultbox/rtr-gl/internal/engine/lighting"
	"github.com/Faultbox/rtr-gl/internal/engine/mesh"
	"github.com/Faultbox/rtr-gl/internal/engine/model"
	"github.com/Faultbox/rtr-gl/internal/engine/renderer"
	"github.com/Faultbox/rtr-gl/internal/engine/shader"
	"github.com/Faultbox/rtr-gl/pkg/math"
)

// MappingMode selects how the surface normal is perturbed.
type MappingMode int32

const (
	MappingNone MappingMode = iota
	MappingBump
	MappingNormal
)

func (m MappingMode) String() string {
	switch m {
	case MappingBump:
		return "bump"
	case MappingNormal:
		return "normal"
	}
	return "none"
}

const (
	mappingRadius  float32 = 8
	mappingSpacing float32 = 3
)

// cup is one material shown with both lighting models.
type cup struct {
	name  string
	phong *model.Model
	cook  *model.Model
}

// mapping compares bump and normal mapping on textured meshes.
type mapping struct {
	cam   *camera.FlyCamera
	cups  []cup
	mode  MappingMode
	cook  bool
	orbit bool
	angle float32
	log   *zap.Logger
}

func newMapping(ctx *Context) (Demo, error) {
	cfg := ctx.Config.Mapping
	if len(cfg.Materials) == 0 {
		return nil, errors.New("no materials configured")
	}
	d := &mapping{
		cam:  camera.NewFlyCamera(math.V3(0, 1, mappingRadius), -90, -5),
		mode: MappingNormal,
		log:  ctx.log,
	}
	meshPath := meshOr(cfg.Mesh, builtin(importer.BuiltinSphere))

	for _, mat := range cfg.Materials {
		c := cup{name: mat.Name}
		var err error
		if c.phong, err = d.texturedModel(ctx, meshPath, "blinn_phong.frag", mat); err != nil {
			return nil, err
		}
		if c.cook, err = d.texturedModel(ctx, meshPath, "cook_torrance.frag", mat); err != nil {
			return nil, err
		}
		d.cups = append(d.cups, c)
	}
	return d, nil
}

func (d *mapping) texturedModel(ctx *Context, meshPath, frag string, mat config.MaterialSet) (*model.Model, error) {
	m, err := ctx.NewModel(meshPath, "standard.vert", frag)
	if err != nil {
		return nil, err
	}
	d.addMaterial(m, mat.Diffuse, mesh.Diffuse)
	d.addMaterial(m, mat.Normal, mesh.Normal)
	return m, nil
}

func (d *mapping) addMaterial(m *model.Model, path string, typ mesh.TextureType) {
	if path == "" {
		return
	}
	if out := m.AddTexture(path, typ); !out.OK() {
		d.log.Warn("material texture replaced by placeholder",
			zap.String("path", path),
			zap.Stringer("status", out.Status))
	}
}

func (d *mapping) Name() string { return "mapping" }

func (d *mapping) Camera() renderer.Camera { return d.cam }

func (d *mapping) Update(dt float32, in *input.Input) {
	if in.IsKeyPressed(sdl.SCANCODE_M) {
		d.mode = (d.mode + 1) % 3
		d.log.Info("mapping mode", zap.Stringer("mode", d.mode))
	}
	if in.IsKeyPressed(sdl.SCANCODE_L) {
		d.cook = !d.cook
		d.log.Info("lighting model", zap.Bool("cook_torrance", d.cook))
	}
	if in.IsKeyPressed(sdl.SCANCODE_O) {
		d.orbit = !d.orbit
	}

	d.angle += 20 * dt
	if d.orbit {
		d.cam.Orbit(d.angle, mappingRadius)
	} else {
		flyControls(d.cam, in, dt)
	}
}

func (d *mapping) Draw(r *renderer.Renderer) {
	rot := math.Identity()
	if !d.orbit {
		rot = math.RotateY(math.Radians(d.angle))
	}
	viewPos := d.cam.Position()
	mode := int32(d.mode)
	for i, c := range d.cups {
		m := c.phong
		if d.cook {
			m = c.cook
		}
		pos := math.V3((float32(i)-float32(len(d.cups)-1)/2)*mappingSpacing, 0, 0)
		light := keyLight.Relative(pos, lightOffset)
		r.Submit(m, math.TranslateV(pos).Mul(rot), func(p *shader.Program) {
			light.Apply(p)
			p.SetVec3("viewPos", viewPos)
			p.SetBool("useDiffuseMap", true)
			p.SetInt("mappingMode", mode)
			p.SetFloat("shininess", 64)
			p.SetFloat("metallic", 0.3)
			p.SetFloat("roughness", 0.5)
		})
	}
}

func (d *mapping) Close() {}
