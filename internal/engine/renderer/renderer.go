// Package renderer queues draw commands while a scene is built and issues
// them when the scene ends.
package renderer

import (
	"cmp"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/rtr-gl/internal/engine/gpu"
	"github.com/Faultbox/rtr-gl/internal/engine/model"
	"github.com/Faultbox/rtr-gl/internal/engine/shader"
	"github.com/Faultbox/rtr-gl/internal/engine/skybox"
	"github.com/Faultbox/rtr-gl/internal/logger"
	"github.com/Faultbox/rtr-gl/pkg/math"
)

// Clip planes of the scene projection.
const (
	NearPlane float32 = 0.1
	FarPlane  float32 = 100.0
)

// Order selects how queued commands are sequenced at flush.
type Order int

const (
	// OrderSubmission draws commands in the order they were submitted.
	OrderSubmission Order = iota
	// OrderBackToFront draws the farthest commands first. Ties keep
	// submission order.
	OrderBackToFront
)

func (o Order) String() string {
	if o == OrderBackToFront {
		return "back_to_front"
	}
	return "submission"
}

// ParseOrder maps a config name back to an Order.
func ParseOrder(name string) (Order, error) {
	switch name {
	case "", "submission":
		return OrderSubmission, nil
	case "back_to_front":
		return OrderBackToFront, nil
	}
	return OrderSubmission, fmt.Errorf("unknown draw order %q", name)
}

// Config holds renderer configuration.
type Config struct {
	Order      Order
	ClearColor [4]float32
}

// Camera is what a scene needs from a camera.
type Camera interface {
	ViewMatrix() math.Mat4
	Position() math.Vec3
	// Zoom is the vertical field of view in degrees.
	Zoom() float32
}

// UniformFunc sets per-draw uniforms. It runs with the model's program
// current, right before the model draws.
type UniformFunc func(p *shader.Program)

// Command is one queued draw. The model is not owned.
type Command struct {
	Model     *model.Model
	Transform math.Mat4
	Uniforms  UniformFunc
	// Distance from the camera to the transform's translation.
	Distance float32
}

// Stats counts what the last flush did.
type Stats struct {
	Submitted   int
	Drawn       int
	Skipped     int
	SkyboxDrawn bool
}

type state int

const (
	idle state = iota
	building
)

// Renderer records a scene between BeginScene and EndScene and draws it on
// EndScene. It must be used from the thread that owns the GPU context.
type Renderer struct {
	dev    gpu.Backend
	config Config
	state  state

	view   math.Mat4
	proj   math.Mat4
	camPos math.Vec3

	queue  []Command
	skybox *skybox.Skybox
	stats  Stats

	width, height int
	log           *zap.Logger
}

// New creates a renderer. Call Init once the GPU context is current.
func New(dev gpu.Backend, cfg Config) *Renderer {
	return &Renderer{
		dev:    dev,
		config: cfg,
		view:   math.Identity(),
		proj:   math.Identity(),
		log:    logger.Named("renderer"),
	}
}

// Init sets the default depth state.
func (r *Renderer) Init() {
	r.dev.EnableDepthTest()
	r.dev.SetDepthFunc(gpu.DepthLess)
	r.log.Info("renderer initialized", zap.Stringer("order", r.config.Order))
}

// Resize updates the viewport.
func (r *Renderer) Resize(width, height int) {
	r.width, r.height = width, height
	r.dev.Viewport(width, height)
	r.log.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// Clear clears color and depth with the configured clear color.
func (r *Renderer) Clear() {
	c := r.config.ClearColor
	r.dev.Clear(c[0], c[1], c[2], c[3])
}

// BeginScene captures the camera and starts an empty queue. The skybox is
// unset; set it again for every scene that wants one. Calling BeginScene
// before EndScene drops the queued commands.
func (r *Renderer) BeginScene(cam Camera, aspect float32) {
	if r.state == building && len(r.queue) > 0 {
		r.log.Debug("discarding unflushed scene", zap.Int("commands", len(r.queue)))
	}
	r.view = cam.ViewMatrix()
	r.camPos = cam.Position()
	r.proj = math.Perspective(math.Radians(cam.Zoom()), aspect, NearPlane, FarPlane)
	r.queue = r.queue[:0]
	r.skybox = nil
	r.stats = Stats{}
	r.state = building
}

// Submit queues a draw of m with the given model matrix. fn may be nil.
func (r *Renderer) Submit(m *model.Model, transform math.Mat4, fn UniformFunc) {
	if r.state != building {
		r.log.Debug("submit outside a scene")
	}
	r.queue = append(r.queue, Command{
		Model:     m,
		Transform: transform,
		Uniforms:  fn,
		Distance:  r.camPos.Distance(transform.Translation()),
	})
	r.stats.Submitted++
}

// SetSkybox sets the skybox drawn after the scene. The last call wins.
func (r *Renderer) SetSkybox(s *skybox.Skybox) {
	r.skybox = s
}

// EndScene draws the queued commands, then the skybox. The queue is kept
// until the next BeginScene.
func (r *Renderer) EndScene() {
	r.flush()
	r.state = idle
}

func (r *Renderer) flush() {
	cmds := r.queue
	if r.config.Order == OrderBackToFront {
		cmds = slices.Clone(r.queue)
		slices.SortStableFunc(cmds, func(a, b Command) int {
			return cmp.Compare(b.Distance, a.Distance)
		})
	}

	r.stats.Drawn, r.stats.Skipped = 0, 0
	for _, c := range cmds {
		if c.Model == nil || c.Model.Program() == nil {
			r.stats.Skipped++
			continue
		}
		p := c.Model.Program()
		p.Use()
		if c.Uniforms != nil {
			c.Uniforms(p)
		}
		c.Model.Draw(c.Transform, r.view, r.proj)
		r.stats.Drawn++
	}

	r.stats.SkyboxDrawn = r.skybox != nil
	if r.skybox != nil {
		r.skybox.Draw(r.view, r.proj)
	}
}

// Shutdown drops the queue and the skybox reference. Models and skyboxes
// belong to their creators and are not released.
func (r *Renderer) Shutdown() {
	r.queue = nil
	r.skybox = nil
	r.state = idle
	r.log.Info("renderer shut down")
}

// Commands returns the current queue in submission order. Do not modify.
func (r *Renderer) Commands() []Command {
	return r.queue
}

// Skybox returns the skybox set for the current scene, or nil.
func (r *Renderer) Skybox() *skybox.Skybox {
	return r.skybox
}

// Stats reports the current scene's counters.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// View returns the view matrix captured by BeginScene.
func (r *Renderer) View() math.Mat4 {
	return r.view
}

// Projection returns the projection matrix computed by BeginScene.
func (r *Renderer) Projection() math.Mat4 {
	return r.proj
}

// CameraPosition returns the camera position captured by BeginScene.
func (r *Renderer) CameraPosition() math.Vec3 {
	return r.camPos
}

// Building reports whether a scene is open.
func (r *Renderer) Building() bool {
	return r.state == building
}
