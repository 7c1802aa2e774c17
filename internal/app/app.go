// Package app runs the demo frame loop: input, hot reload, update,
// scene submission, flush and present.
package app

import (
	"fmt"
	"slices"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/rtr-gl/internal/assets"
	"github.com/Faultbox/rtr-gl/internal/config"
	"github.com/Faultbox/rtr-gl/internal/demo"
	"github.com/Faultbox/rtr-gl/internal/engine/debug"
	"github.com/Faultbox/rtr-gl/internal/engine/gpu"
	"github.com/Faultbox/rtr-gl/internal/engine/gpu/glbackend"
	"github.com/Faultbox/rtr-gl/internal/engine/input"
	"github.com/Faultbox/rtr-gl/internal/engine/renderer"
	"github.com/Faultbox/rtr-gl/internal/engine/shader"
	"github.com/Faultbox/rtr-gl/internal/engine/texture"
	"github.com/Faultbox/rtr-gl/internal/engine/window"
	"github.com/Faultbox/rtr-gl/internal/logger"
)

// Surface is the part of the window the loop needs.
type Surface interface {
	SwapBuffers()
	DrawableSize() (int, int)
	Aspect() float32
	SetTitle(title string)
}

// App is the running demo program.
type App struct {
	config  *config.Config
	running bool

	window   *window.Window
	surface  Surface
	dev      gpu.Backend
	renderer *renderer.Renderer
	input    *input.Input
	assets   *assets.Manager
	textures *texture.Loader
	shaders  *demo.Library
	watcher  *shader.Watcher

	ctx     *demo.Context
	demo    demo.Demo
	demoIdx int

	screenshots *debug.ScreenshotCapture
	timer       *debug.FrameTimer
	log         *zap.Logger
}

// New opens the window, initializes OpenGL and loads the configured demo.
func New(cfg *config.Config) (*App, error) {
	win, err := window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
		Samples:    cfg.Window.Samples,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// GL function pointers need the current context
	dev, err := glbackend.New()
	if err != nil {
		win.Close()
		return nil, err
	}

	a, err := newApp(cfg, dev, win)
	if err != nil {
		win.Close()
		return nil, err
	}
	a.window = win
	return a, nil
}

// newApp builds everything above the window. It is split out so the loop
// can run against a recording backend.
func newApp(cfg *config.Config, dev gpu.Backend, surface Surface) (*App, error) {
	order, err := renderer.ParseOrder(cfg.Renderer.Order)
	if err != nil {
		return nil, err
	}

	a := &App{
		config:      cfg,
		surface:     surface,
		dev:         dev,
		input:       input.New(),
		assets:      assets.NewManager(cfg.Assets.Roots...),
		shaders:     demo.NewLibrary(cfg.Shaders.Dir),
		screenshots: debug.NewScreenshotCapture(cfg.Renderer.ScreenshotDir, "rtr"),
		log:         logger.Named("app"),
	}
	a.textures = texture.NewLoader(dev, a.assets)
	a.renderer = renderer.New(dev, renderer.Config{Order: order, ClearColor: cfg.Renderer.ClearColor})
	a.renderer.Init()
	a.renderer.Resize(surface.DrawableSize())

	if cfg.Shaders.HotReload && cfg.Shaders.Dir != "" {
		a.watcher, err = shader.NewWatcher(a.shaders.Path("standard.vert"))
		if err != nil {
			// the demo still runs, just without reload
			a.log.Warn("shader hot reload disabled", zap.String("dir", cfg.Shaders.Dir), zap.Error(err))
		} else {
			a.log.Info("watching shaders", zap.String("dir", cfg.Shaders.Dir))
		}
	}

	a.demoIdx = slices.Index(config.Demos, cfg.Demo.Name)
	if a.demoIdx < 0 {
		a.Close()
		return nil, fmt.Errorf("unknown demo %q", cfg.Demo.Name)
	}
	if err := a.loadDemo(a.demoIdx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// loadDemo replaces the current demo. The old one is released first.
func (a *App) loadDemo(idx int) error {
	a.unloadDemo()

	name := config.Demos[idx]
	ctx := demo.NewContext(a.dev, a.assets, a.textures, a.shaders, a.config.Demo)
	d, err := demo.New(name, ctx)
	if err != nil {
		return err
	}
	a.ctx, a.demo, a.demoIdx = ctx, d, idx
	a.surface.SetTitle(a.title(0))
	return nil
}

func (a *App) unloadDemo() {
	if a.demo != nil {
		a.demo.Close()
		a.demo = nil
	}
	if a.ctx != nil {
		a.ctx.Close()
		a.ctx = nil
	}
}

// nextDemo cycles to the following demo. If it fails to load the previous
// one is restored.
func (a *App) nextDemo() {
	prev := a.demoIdx
	next := (prev + 1) % len(config.Demos)
	if err := a.loadDemo(next); err != nil {
		a.log.Error("demo failed to load", zap.String("demo", config.Demos[next]), zap.Error(err))
		if err := a.loadDemo(prev); err != nil {
			a.log.Error("previous demo failed to reload", zap.Error(err))
			a.running = false
		}
	}
}

func (a *App) title(fps int) string {
	name := ""
	if a.demo != nil {
		name = a.demo.Name()
	}
	if fps == 0 {
		return fmt.Sprintf("%s - %s", a.config.Window.Title, name)
	}
	return fmt.Sprintf("%s - %s - %d fps", a.config.Window.Title, name, fps)
}

// Run drives frames until the window closes or ESC is pressed.
func (a *App) Run() error {
	a.running = true
	a.timer = debug.NewFrameTimer(time.Now())

	a.log.Info("starting frame loop", zap.String("demo", a.demo.Name()))

	for a.running {
		dt, report := a.timer.Tick(time.Now())

		if a.input.Update() {
			break
		}
		a.frame(dt)
		a.surface.SwapBuffers()

		if report {
			a.surface.SetTitle(a.title(a.timer.FPS()))
			a.log.Debug("fps", zap.Int("count", a.timer.FPS()), zap.String("dt", fmt.Sprintf("%.2fms", dt*1000)))
		}
	}

	a.log.Info("frame loop stopped")
	return nil
}

// frame handles this frame's events, updates the demo and renders it.
func (a *App) frame(dt float32) {
	for _, event := range a.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			a.renderer.Resize(a.surface.DrawableSize())
		case input.EventKeyDown:
			if event.Repeat {
				continue
			}
			switch event.Key {
			case sdl.SCANCODE_ESCAPE:
				a.running = false
			case sdl.SCANCODE_F12:
				a.screenshot()
			case sdl.SCANCODE_TAB:
				a.nextDemo()
			}
		}
	}
	if a.demo == nil {
		return
	}

	a.reloadShaders()
	a.demo.Update(dt, a.input)

	a.renderer.Clear()
	a.renderer.BeginScene(a.demo.Camera(), a.surface.Aspect())
	a.demo.Draw(a.renderer)
	a.renderer.EndScene()
}

func (a *App) reloadShaders() {
	if a.watcher == nil {
		return
	}
	for _, path := range a.watcher.Poll() {
		n := a.ctx.Reload(path)
		a.log.Info("shader changed", zap.String("path", path), zap.Int("reloaded", n))
	}
}

func (a *App) screenshot() {
	width, height := a.surface.DrawableSize()
	name, err := a.screenshots.CaptureFromPixels(a.dev.ReadPixels(width, height), width, height)
	if err != nil {
		a.log.Error("screenshot failed", zap.Error(err))
		return
	}
	a.log.Info("screenshot saved", zap.String("file", name))
}

// Close releases the demo, the engine and the window.
func (a *App) Close() {
	a.log.Info("closing")

	a.unloadDemo()
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			a.log.Warn("closing shader watcher", zap.Error(err))
		}
		a.watcher = nil
	}
	if a.renderer != nil {
		a.renderer.Shutdown()
	}
	if a.textures != nil {
		a.textures.Close()
	}
	if a.assets != nil {
		a.assets.Close()
	}
	if a.window != nil {
		a.window.Close()
		a.window = nil
	}
}
