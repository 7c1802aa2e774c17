package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/rtr-gl/internal/config"
	"github.com/Faultbox/rtr-gl/internal/engine/gpu/gputest"
	"github.com/Faultbox/rtr-gl/internal/engine/input"
	"github.com/Faultbox/rtr-gl/internal/engine/renderer"
	"github.com/Faultbox/rtr-gl/pkg/math"
)

type fakeSurface struct {
	width, height int
	title         string
	swaps         int
}

func (s *fakeSurface) SwapBuffers()             { s.swaps++ }
func (s *fakeSurface) DrawableSize() (int, int) { return s.width, s.height }
func (s *fakeSurface) SetTitle(title string)    { s.title = title }
func (s *fakeSurface) Aspect() float32 {
	return float32(s.width) / float32(s.height)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Demo.Cubemap.Skyboxes = nil
	cfg.Demo.Mipmap.TextureSize = 64
	cfg.Assets.Roots = []string{t.TempDir()}
	cfg.Renderer.ScreenshotDir = t.TempDir()
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) (*App, *gputest.Recorder, *fakeSurface) {
	t.Helper()
	dev := gputest.New()
	surface := &fakeSurface{width: 320, height: 180}
	a, err := newApp(cfg, dev, surface)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a, dev, surface
}

func press(a *App, key sdl.Scancode) {
	a.input.BeginFrame()
	a.input.Process(input.Event{Type: input.EventKeyDown, Key: key})
}

func TestNewLoadsConfiguredDemo(t *testing.T) {
	cfg := testConfig(t)
	cfg.Demo.Name = config.DemoMipmap
	a, _, surface := newTestApp(t, cfg)

	assert.Equal(t, "mipmap", a.demo.Name())
	assert.Equal(t, "rtr - mipmap", surface.title)
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Demo.Name = "raytracer"
	_, err := newApp(cfg, gputest.New(), &fakeSurface{width: 1, height: 1})
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Renderer.Order = "random"
	_, err = newApp(cfg, gputest.New(), &fakeSurface{width: 1, height: 1})
	assert.Error(t, err)
}

func TestFrameDrawsDemo(t *testing.T) {
	a, dev, _ := newTestApp(t, testConfig(t))

	a.input.BeginFrame()
	a.frame(1.0 / 60)

	assert.Len(t, dev.Filter(gputest.OpClear), 1)
	assert.Len(t, dev.Filter(gputest.OpDrawIndexed), 3)
	assert.Equal(t, 3, a.renderer.Stats().Drawn)
}

func TestTabCyclesDemos(t *testing.T) {
	a, dev, surface := newTestApp(t, testConfig(t))
	first := a.ctx.Models()

	press(a, sdl.SCANCODE_TAB)
	a.frame(0)

	assert.Equal(t, "cubemap", a.demo.Name())
	assert.Equal(t, "rtr - cubemap", surface.title)
	for _, m := range first {
		assert.Nil(t, m.Program(), "previous demo released")
	}
	assert.NotEmpty(t, dev.DeletedPrograms)

	for range config.Demos[2:] {
		press(a, sdl.SCANCODE_TAB)
		a.frame(0)
	}
	press(a, sdl.SCANCODE_TAB)
	a.frame(0)
	assert.Equal(t, "shading", a.demo.Name(), "wraps around")
}

func TestEscapeStops(t *testing.T) {
	a, _, _ := newTestApp(t, testConfig(t))
	a.running = true

	press(a, sdl.SCANCODE_ESCAPE)
	a.frame(0)
	assert.False(t, a.running)
}

func TestF12SavesScreenshot(t *testing.T) {
	cfg := testConfig(t)
	a, _, _ := newTestApp(t, cfg)

	press(a, sdl.SCANCODE_F12)
	a.frame(0)

	files, err := filepath.Glob(filepath.Join(cfg.Renderer.ScreenshotDir, "rtr_*.png"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestResizeUpdatesProjection(t *testing.T) {
	a, _, surface := newTestApp(t, testConfig(t))

	surface.width, surface.height = 640, 480
	a.input.BeginFrame()
	a.input.Process(input.Event{Type: input.EventWindowResize, Width: 640, Height: 480})
	a.frame(0)

	want := math.Perspective(math.Radians(a.demo.Camera().Zoom()), 640.0/480.0, renderer.NearPlane, renderer.FarPlane)
	assert.Equal(t, want, a.renderer.Projection())
}

func TestShaderHotReload(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t)
	cfg.Shaders.Dir = dir
	cfg.Shaders.HotReload = true
	a, dev, _ := newTestApp(t, cfg)
	require.NotNil(t, a.watcher)

	src, _, err := a.shaders.Source("toon.frag")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "toon.frag"), []byte(src+"// edited\n"), 0o644))

	require.Eventually(t, func() bool {
		a.input.BeginFrame()
		a.frame(0)
		return len(dev.DeletedPrograms) > 0
	}, 5*time.Second, 20*time.Millisecond)
}

func TestCloseReleasesEverything(t *testing.T) {
	dev := gputest.New()
	a, err := newApp(testConfig(t), dev, &fakeSurface{width: 8, height: 8})
	require.NoError(t, err)
	models := a.ctx.Models()

	a.Close()
	assert.Len(t, dev.DeletedPrograms, len(models))
	assert.Nil(t, a.demo)
}
