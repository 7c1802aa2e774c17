// Package config handles renderer and demo configuration loading.
package config

import (
	"fmt"
	"slices"
)

// Demo names accepted by Demo.Name.
const (
	DemoShading = "shading"
	DemoCubemap = "cubemap"
	DemoMapping = "mapping"
	DemoMipmap  = "mipmap"
)

// Demos lists every demo in menu order.
var Demos = []string{DemoShading, DemoCubemap, DemoMapping, DemoMipmap}

// Config holds all settings.
type Config struct {
	Window   WindowConfig   `yaml:"window" toml:"window"`
	Renderer RendererConfig `yaml:"renderer" toml:"renderer"`
	Assets   AssetsConfig   `yaml:"assets" toml:"assets"`
	Shaders  ShadersConfig  `yaml:"shaders" toml:"shaders"`
	Demo     DemoConfig     `yaml:"demo" toml:"demo"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title" toml:"title"`
	Width      int    `yaml:"width" toml:"width"`
	Height     int    `yaml:"height" toml:"height"`
	Fullscreen bool   `yaml:"fullscreen" toml:"fullscreen"`
	VSync      bool   `yaml:"vsync" toml:"vsync"`
	Samples    int    `yaml:"samples" toml:"samples"`
}

// RendererConfig holds draw pipeline settings.
type RendererConfig struct {
	// Order is "submission" or "back_to_front".
	Order         string     `yaml:"order" toml:"order"`
	ClearColor    [4]float32 `yaml:"clear_color" toml:"clear_color"`
	ScreenshotDir string     `yaml:"screenshot_dir" toml:"screenshot_dir"`
}

// AssetsConfig lists directories searched for meshes and textures. Later
// roots win over earlier ones.
type AssetsConfig struct {
	Roots []string `yaml:"roots" toml:"roots"`
}

// ShadersConfig controls where GLSL comes from.
type ShadersConfig struct {
	// Dir overrides the built-in shaders with files from disk.
	Dir string `yaml:"dir" toml:"dir"`
	// HotReload watches Dir and recompiles on change.
	HotReload bool `yaml:"hot_reload" toml:"hot_reload"`
}

// DemoConfig selects a demo and carries per-demo parameters. Empty mesh
// paths fall back to builtin shapes.
type DemoConfig struct {
	Name    string      `yaml:"name" toml:"name"`
	Gamma   bool        `yaml:"gamma" toml:"gamma"`
	Shading ShadingDemo `yaml:"shading" toml:"shading"`
	Cubemap CubemapDemo `yaml:"cubemap" toml:"cubemap"`
	Mapping MappingDemo `yaml:"mapping" toml:"mapping"`
	Mipmap  MipmapDemo  `yaml:"mipmap" toml:"mipmap"`
}

// ShadingDemo configures the lighting model comparison.
type ShadingDemo struct {
	Mesh      string  `yaml:"mesh" toml:"mesh"`
	Spacing   float32 `yaml:"spacing" toml:"spacing"`
	SpinSpeed float32 `yaml:"spin_speed" toml:"spin_speed"`
}

// CubemapDemo configures the environment mapping scene.
type CubemapDemo struct {
	Meshes   []string    `yaml:"meshes" toml:"meshes"`
	Skyboxes []SkyboxSet `yaml:"skyboxes" toml:"skyboxes"`
}

// SkyboxSet names six face images in +X, -X, +Y, -Y, +Z, -Z order.
type SkyboxSet struct {
	Name  string    `yaml:"name" toml:"name"`
	Faces [6]string `yaml:"faces" toml:"faces"`
}

// MappingDemo configures the bump and normal mapping scene.
type MappingDemo struct {
	Mesh      string        `yaml:"mesh" toml:"mesh"`
	Materials []MaterialSet `yaml:"materials" toml:"materials"`
}

// MaterialSet is a diffuse and normal map pair.
type MaterialSet struct {
	Name    string `yaml:"name" toml:"name"`
	Diffuse string `yaml:"diffuse" toml:"diffuse"`
	Normal  string `yaml:"normal" toml:"normal"`
}

// MipmapDemo configures the filtering comparison.
type MipmapDemo struct {
	Floor       string  `yaml:"floor" toml:"floor"`
	TextureSize int     `yaml:"texture_size" toml:"texture_size"`
	Anisotropy  float32 `yaml:"anisotropy" toml:"anisotropy"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
	JSON    bool   `yaml:"json" toml:"json"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "rtr",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Renderer: RendererConfig{
			Order:         "submission",
			ClearColor:    [4]float32{0.1, 0.1, 0.15, 1.0},
			ScreenshotDir: "screenshots",
		},
		Assets: AssetsConfig{
			Roots: []string{"assets"},
		},
		Demo: DemoConfig{
			Name: DemoShading,
			Shading: ShadingDemo{
				Spacing:   2.5,
				SpinSpeed: 30,
			},
			Cubemap: CubemapDemo{
				Skyboxes: []SkyboxSet{
					{Name: "lake", Faces: skyboxFaces("skybox/lake", "jpg")},
					{Name: "space", Faces: skyboxFaces("skybox/space", "png")},
				},
			},
			Mapping: MappingDemo{
				Materials: []MaterialSet{
					{Name: "metal", Diffuse: "textures/metal_diffuse.png", Normal: "textures/metal_normal.png"},
					{Name: "rock", Diffuse: "textures/rock_diffuse.png", Normal: "textures/rock_normal.png"},
					{Name: "wood", Diffuse: "textures/wood_diffuse.png", Normal: "textures/wood_normal.png"},
				},
			},
			Mipmap: MipmapDemo{
				TextureSize: 1024,
				Anisotropy:  8,
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func skyboxFaces(dir, ext string) [6]string {
	var faces [6]string
	for i, name := range []string{"right", "left", "top", "bottom", "front", "back"} {
		faces[i] = fmt.Sprintf("%s/%s.%s", dir, name, ext)
	}
	return faces
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	switch c.Renderer.Order {
	case "", "submission", "back_to_front":
	default:
		return fmt.Errorf("unknown renderer order %q", c.Renderer.Order)
	}
	if !slices.Contains(Demos, c.Demo.Name) {
		return fmt.Errorf("unknown demo %q, want one of %v", c.Demo.Name, Demos)
	}
	if c.Demo.Mipmap.TextureSize <= 0 || c.Demo.Mipmap.TextureSize&(c.Demo.Mipmap.TextureSize-1) != 0 {
		return fmt.Errorf("mipmap texture size %d must be a power of two", c.Demo.Mipmap.TextureSize)
	}
	return nil
}
