package demo

import (
	"errors"
	"fmt"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/rtr-gl/internal/engine/camera"
	"github.com/Faultbox/rtr-gl/internal/engine/gpu"
	"github.com/Faultbox/rtr-gl/internal/engine/importer"
	"github.com/Faultbox/rtr-gl/internal/engine/input"
	"github.com/Faultbox/rtr-gl/internal/engine/mesh"
	"github.com/Faultbox/rtr-gl/internal/engine/model"
	"github.com/Faultbox/rtr-gl/internal/engine/renderer"
	"github.com/Faultbox/rtr-gl/internal/engine/texture"
	"github.com/Faultbox/rtr-gl/pkg/math"
)

// checkerCellShift gives 32 pixel checker cells.
const checkerCellShift = 5

// filterSet is one upload of the checkerboard.
type filterSet struct {
	name   string
	handle gpu.TextureID
}

// mipmap shows one checkerboard floor under nearest, linear and
// trilinear anisotropic filtering.
type mipmap struct {
	dev     gpu.Backend
	cam     *camera.FlyCamera
	floor   *model.Model
	slots   []int // checkerboard slot per floor mesh
	filters []filterSet
	active  int
	log     *zap.Logger
}

func newMipmap(ctx *Context) (Demo, error) {
	cfg := ctx.Config.Mipmap
	d := &mipmap{
		dev: ctx.Dev,
		cam: camera.NewFlyCamera(math.V3(0, 1, 4), -90, -15),
		log: ctx.log,
	}

	floor, err := ctx.NewModel(meshOr(cfg.Floor, builtin(importer.BuiltinPlane)), "standard.vert", "textured.frag")
	if err != nil {
		return nil, err
	}
	if len(floor.Meshes()) == 0 {
		return nil, fmt.Errorf("floor mesh %s has no geometry", floor.MeshPath())
	}
	d.floor = floor

	img := texture.Checkerboard(cfg.TextureSize, checkerCellShift, 255, 0)
	samplers := []struct {
		name string
		s    gpu.Sampler
	}{
		{"nearest", gpu.Sampler{Filter: gpu.FilterNearest}},
		{"linear", gpu.Sampler{Filter: gpu.FilterLinear}},
		{"trilinear", gpu.Sampler{Filter: gpu.FilterTrilinear, Anisotropy: cfg.Anisotropy}},
	}
	for _, s := range samplers {
		out := ctx.Textures.Upload("checker:"+s.name, img, s.s)
		if !out.OK() {
			d.Close()
			return nil, fmt.Errorf("uploading %s checkerboard: %w", s.name, out.Err)
		}
		d.filters = append(d.filters, filterSet{name: s.name, handle: out.Handle})
	}

	// The checkerboard goes after whatever textures each floor mesh brought.
	for _, m := range floor.Meshes() {
		d.slots = append(d.slots, len(m.Textures()))
	}
	if err := floor.AddTextureHandle(d.filters[0].handle, mesh.Diffuse); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func (d *mipmap) Name() string { return "mipmap" }

func (d *mipmap) Camera() renderer.Camera { return d.cam }

// Filter returns the name of the active filter.
func (d *mipmap) Filter() string { return d.filters[d.active].name }

// Select makes the i-th filter active by swapping the checkerboard slot of
// every floor mesh.
func (d *mipmap) Select(i int) error {
	if i < 0 || i >= len(d.filters) {
		return errors.New("filter index out of range")
	}
	for mi, slot := range d.slots {
		if err := d.floor.RebindTexture(mi, slot, d.filters[i].handle); err != nil {
			return fmt.Errorf("floor mesh %d: %w", mi, err)
		}
	}
	d.active = i
	d.log.Info("texture filter", zap.String("filter", d.filters[i].name))
	return nil
}

var filterKeys = []sdl.Scancode{sdl.SCANCODE_1, sdl.SCANCODE_2, sdl.SCANCODE_3}

func (d *mipmap) Update(dt float32, in *input.Input) {
	for i, k := range filterKeys {
		if in.IsKeyPressed(k) {
			if err := d.Select(i); err != nil {
				d.log.Warn("filter switch failed", zap.Error(err))
			}
		}
	}
	flyControls(d.cam, in, dt)
}

func (d *mipmap) Draw(r *renderer.Renderer) {
	r.Submit(d.floor, math.Scale(5, 1, 5), nil)
}

// Close deletes the checkerboard textures. The floor model belongs to the
// context.
func (d *mipmap) Close() {
	for _, f := range d.filters {
		d.dev.DeleteTexture(f.handle)
	}
	d.filters = nil
}
