// Package demo holds the rendering demo scenes and the GLSL they use.
package demo

import (
	"fmt"
	"path/filepath"
	"slices"
	"sort"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/rtr-gl/internal/config"
	"github.com/Faultbox/rtr-gl/internal/engine/camera"
	"github.com/Faultbox/rtr-gl/internal/engine/gpu"
	"github.com/Faultbox/rtr-gl/internal/engine/importer"
	"github.com/Faultbox/rtr-gl/internal/engine/input"
	"github.com/Faultbox/rtr-gl/internal/engine/model"
	"github.com/Faultbox/rtr-gl/internal/engine/renderer"
	"github.com/Faultbox/rtr-gl/internal/engine/skybox"
	"github.com/Faultbox/rtr-gl/internal/engine/texture"
	"github.com/Faultbox/rtr-gl/internal/logger"
)

// Demo is one scene. Draw only submits; the caller owns BeginScene and
// EndScene.
type Demo interface {
	Name() string
	Camera() renderer.Camera
	Update(dt float32, in *input.Input)
	Draw(r *renderer.Renderer)
	Close()
}

// Factory builds a demo from a context.
type Factory func(ctx *Context) (Demo, error)

var registry = map[string]Factory{
	config.DemoShading: newShading,
	config.DemoCubemap: newCubemap,
	config.DemoMapping: newMapping,
	config.DemoMipmap:  newMipmap,
}

// Names returns the registered demo names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the named demo. On failure everything the demo created
// through ctx is released.
func New(name string, ctx *Context) (Demo, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown demo %q", name)
	}
	d, err := factory(ctx)
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("demo %s: %w", name, err)
	}
	ctx.log.Info("demo loaded", zap.String("demo", name), zap.Int("models", len(ctx.models)))
	return d, nil
}

// Context is what a demo builds its scene from. Models and skyboxes created
// through it are tracked for shader hot reload and released by Close.
type Context struct {
	Dev      gpu.Backend
	Assets   importer.Source
	Textures *texture.Loader
	Shaders  *Library
	Config   config.DemoConfig

	models   []*tracked
	skyboxes []*trackedSkybox
	log      *zap.Logger
}

type tracked struct {
	model      *model.Model
	vert, frag string
	deps       []string
}

type trackedSkybox struct {
	sky  *skybox.Skybox
	deps []string
}

const (
	skyboxVert = "skybox.vert"
	skyboxFrag = "skybox.frag"
)

// NewContext creates an empty context.
func NewContext(dev gpu.Backend, assets importer.Source, textures *texture.Loader, shaders *Library, cfg config.DemoConfig) *Context {
	return &Context{
		Dev:      dev,
		Assets:   assets,
		Textures: textures,
		Shaders:  shaders,
		Config:   cfg,
		log:      logger.Named("demo"),
	}
}

// NewModel builds a model from a mesh and two shader file names.
func (c *Context) NewModel(meshPath, vert, frag string) (*model.Model, error) {
	vs, fs, deps, err := c.Shaders.Pair(vert, frag)
	if err != nil {
		return nil, err
	}
	m, err := model.New(c.Dev, c.Textures, model.Source{
		Mesh:           meshPath,
		VertexShader:   vs,
		FragmentShader: fs,
		Gamma:          c.Config.Gamma,
		Assets:         c.Assets,
	})
	if err != nil {
		return nil, fmt.Errorf("model %s (%s, %s): %w", meshPath, vert, frag, err)
	}
	if m.LoadStatus() != importer.Loaded {
		c.log.Warn("mesh did not load",
			zap.String("mesh", meshPath),
			zap.Stringer("status", m.LoadStatus()),
			zap.Error(m.LoadErr()))
	}
	c.models = append(c.models, &tracked{model: m, vert: vert, frag: frag, deps: deps})
	return m, nil
}

// NewSkybox builds a skybox with the shared skybox shaders.
func (c *Context) NewSkybox(faces [6]string) (*skybox.Skybox, error) {
	vs, fs, deps, err := c.Shaders.Pair(skyboxVert, skyboxFrag)
	if err != nil {
		return nil, err
	}
	s, err := skybox.New(c.Dev, c.Textures, faces, vs, fs)
	if err != nil {
		return nil, err
	}
	c.skyboxes = append(c.skyboxes, &trackedSkybox{sky: s, deps: deps})
	return s, nil
}

// Reload recompiles every model and skybox whose shaders depend on the
// changed file and returns how many were reloaded. A failed reload keeps
// the old program.
func (c *Context) Reload(changed string) int {
	base := filepath.Base(changed)
	n := 0
	for _, t := range c.models {
		if c.reload(base, t.vert, t.frag, &t.deps, t.model.Reload) {
			n++
		}
	}
	for _, t := range c.skyboxes {
		if c.reload(base, skyboxVert, skyboxFrag, &t.deps, t.sky.Reload) {
			n++
		}
	}
	return n
}

func (c *Context) reload(base, vert, frag string, deps *[]string, apply func(vs, fs string) error) bool {
	if !slices.Contains(*deps, base) {
		return false
	}
	vs, fs, newDeps, err := c.Shaders.Pair(vert, frag)
	if err != nil {
		c.log.Warn("shader source unreadable", zap.String("file", base), zap.Error(err))
		return false
	}
	if err := apply(vs, fs); err != nil {
		return false
	}
	*deps = newDeps
	return true
}

// Models returns the models created so far.
func (c *Context) Models() []*model.Model {
	out := make([]*model.Model, len(c.models))
	for i, t := range c.models {
		out[i] = t.model
	}
	return out
}

// Close releases every tracked model and skybox. Safe to call twice.
func (c *Context) Close() {
	for _, t := range c.models {
		t.model.Close()
	}
	c.models = nil
	for _, t := range c.skyboxes {
		t.sky.Close()
	}
	c.skyboxes = nil
}

// meshOr returns path, or fallback when path is empty.
func meshOr(path, fallback string) string {
	if path == "" {
		return fallback
	}
	return path
}

var flyKeys = []struct {
	key sdl.Scancode
	dir camera.Movement
}{
	{sdl.SCANCODE_W, camera.Forward},
	{sdl.SCANCODE_S, camera.Backward},
	{sdl.SCANCODE_A, camera.Left},
	{sdl.SCANCODE_D, camera.Right},
	{sdl.SCANCODE_SPACE, camera.Up},
	{sdl.SCANCODE_LCTRL, camera.Down},
}

// flyControls drives a FlyCamera: WASD, space and ctrl move, right drag
// looks, the wheel zooms.
func flyControls(cam *camera.FlyCamera, in *input.Input, dt float32) {
	for _, k := range flyKeys {
		if in.IsKeyDown(k.key) {
			cam.ProcessKeyboard(k.dir, dt)
		}
	}
	if in.IsButtonDown(sdl.BUTTON_RIGHT) {
		dx, dy := in.MouseDelta()
		// screen y grows downward
		cam.ProcessMouseMovement(dx, -dy, true)
	}
	if w := in.Wheel(); w != 0 {
		cam.ProcessMouseScroll(w)
	}
}

func builtin(shape string) string {
	return importer.BuiltinPrefix + shape
}
