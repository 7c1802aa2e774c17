package demo

import (
	"github.com/Faultbox/rtr-gl/internal/engine/camera"
	"github.com/Faultbox/rtr-gl/internal/engine/importer"
	"github.com/Faultbox/rtr-gl/internal/engine/input"
	"github.com/Faultbox/rtr-gl/internal/engine/lighting"
	"github.com/Faultbox/rtr-gl/internal/engine/model"
	"github.com/Faultbox/rtr-gl/internal/engine/renderer"
	"github.com/Faultbox/rtr-gl/internal/engine/shader"
	"github.com/Faultbox/rtr-gl/pkg/math"
)

// lightOffset places the light relative to each shaded object.
var lightOffset = math.V3(5, 6, 10)

var keyLight = lighting.White(math.Vec3{})

var shadingPrograms = []string{"blinn_phong.frag", "toon.frag", "cook_torrance.frag"}

// shading compares Blinn-Phong, toon and Cook-Torrance on three copies of
// one mesh.
type shading struct {
	cam     *camera.FlyCamera
	models  []*model.Model
	spacing float32
	spin    float32
	angle   float32
}

func newShading(ctx *Context) (Demo, error) {
	cfg := ctx.Config.Shading
	d := &shading{
		cam:     camera.NewFlyCamera(math.V3(0, 0, 3+3*cfg.Spacing), -90, 0),
		spacing: cfg.Spacing,
		spin:    cfg.SpinSpeed,
	}
	mesh := meshOr(cfg.Mesh, builtin(importer.BuiltinSphere))
	for _, frag := range shadingPrograms {
		m, err := ctx.NewModel(mesh, "standard.vert", frag)
		if err != nil {
			return nil, err
		}
		d.models = append(d.models, m)
	}
	return d, nil
}

func (d *shading) Name() string { return "shading" }

func (d *shading) Camera() renderer.Camera { return d.cam }

func (d *shading) Update(dt float32, in *input.Input) {
	flyControls(d.cam, in, dt)
	d.angle += d.spin * dt
	if d.angle >= 360 {
		d.angle -= 360
	}
}

// position returns where the i-th model sits: left, middle, right.
func (d *shading) position(i int) math.Vec3 {
	return math.V3(float32(i-1)*d.spacing, 0, 0)
}

func (d *shading) Draw(r *renderer.Renderer) {
	rot := math.RotateY(math.Radians(d.angle))
	viewPos := d.cam.Position()
	for i, m := range d.models {
		pos := d.position(i)
		light := keyLight.Relative(pos, lightOffset)
		r.Submit(m, math.TranslateV(pos).Mul(rot), func(p *shader.Program) {
			light.Apply(p)
			p.SetVec3("viewPos", viewPos)
			p.SetVec3("objectColor", math.V3(1, 0.5, 0.31))
			p.SetBool("useDiffuseMap", false)
			p.SetInt("mappingMode", 0)
			p.SetFloat("shininess", 32)
			p.SetInt("bands", 4)
			p.SetFloat("metallic", 0.1)
			p.SetFloat("roughness", 0.4)
		})
	}
}

func (d *shading) Close() {}
