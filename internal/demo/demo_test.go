package demo

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/rtr-gl/internal/config"
	"github.com/Faultbox/rtr-gl/internal/engine/gpu"
	"github.com/Faultbox/rtr-gl/internal/engine/gpu/gputest"
	"github.com/Faultbox/rtr-gl/internal/engine/input"
	"github.com/Faultbox/rtr-gl/internal/engine/renderer"
	"github.com/Faultbox/rtr-gl/internal/engine/skybox"
	"github.com/Faultbox/rtr-gl/internal/engine/texture"
	"github.com/Faultbox/rtr-gl/pkg/math"
)

type memSource map[string][]byte

func (m memSource) Resolve(path string) (string, error) {
	if _, ok := m[path]; !ok {
		return "", fmt.Errorf("asset %s: %w", path, fs.ErrNotExist)
	}
	return path, nil
}

func (m memSource) Load(path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", path, fs.ErrNotExist)
	}
	return data, nil
}

func pngBytes(t *testing.T, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < 4; i++ {
		img.SetRGBA(i%2, i/2, c)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// testConfig is the default demo config without any file assets.
func testConfig() config.DemoConfig {
	cfg := config.Default().Demo
	cfg.Cubemap.Skyboxes = nil
	return cfg
}

func newTestContext(t *testing.T, dev *gputest.Recorder, src memSource, cfg config.DemoConfig) *Context {
	t.Helper()
	ctx := NewContext(dev, src, texture.NewLoader(dev, src), NewLibrary(""), cfg)
	t.Cleanup(ctx.Close)
	return ctx
}

func drawFrame(t *testing.T, dev gpu.Backend, d Demo) renderer.Stats {
	t.Helper()
	r := renderer.New(dev, renderer.Config{})
	r.Init()
	r.BeginScene(d.Camera(), 16.0/9.0)
	d.Draw(r)
	r.EndScene()
	return r.Stats()
}

func keyDown(in *input.Input, key sdl.Scancode) {
	in.BeginFrame()
	in.Process(input.Event{Type: input.EventKeyDown, Key: key})
}

func TestLibraryExpandsIncludes(t *testing.T) {
	lib := NewLibrary("")

	src, deps, err := lib.Source("blinn_phong.frag")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(src, "#version 410 core"))
	assert.NotContains(t, src, "#include")
	assert.Contains(t, src, "uniform int mappingMode;")
	assert.Equal(t, []string{"blinn_phong.frag", "surface.glsl"}, deps)
}

func TestLibraryDirOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "toon.frag"), []byte("// custom\n"), 0o644))
	lib := NewLibrary(dir)

	src, _, err := lib.Source("toon.frag")
	require.NoError(t, err)
	assert.Equal(t, "// custom\n", src)

	// files missing from the override come from the embedded set
	src, _, err = lib.Source("skybox.frag")
	require.NoError(t, err)
	assert.Contains(t, src, "samplerCube skybox")

	assert.Equal(t, filepath.Join(dir, "toon.frag"), lib.Path("toon.frag"))
	assert.Empty(t, NewLibrary("").Path("toon.frag"))
}

func TestLibraryErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.glsl"), []byte("#include \"b.glsl\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.glsl"), []byte("#include \"a.glsl\"\n"), 0o644))
	lib := NewLibrary(dir)

	_, _, err := lib.Source("a.glsl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "includes itself")

	_, _, err = lib.Source("nope.frag")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestNewUnknownDemo(t *testing.T) {
	dev := gputest.New()
	ctx := newTestContext(t, dev, memSource{}, testConfig())

	_, err := New("raytracer", ctx)
	assert.Error(t, err)
}

func TestNamesMatchConfig(t *testing.T) {
	assert.ElementsMatch(t, config.Demos, Names())
}

func TestEveryDemoDraws(t *testing.T) {
	tests := []struct {
		name  string
		draws int
	}{
		{config.DemoShading, 3},
		{config.DemoCubemap, 4},
		{config.DemoMapping, 3},
		{config.DemoMipmap, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := gputest.New()
			ctx := newTestContext(t, dev, memSource{}, testConfig())

			d, err := New(tt.name, ctx)
			require.NoError(t, err)
			defer d.Close()
			assert.Equal(t, tt.name, d.Name())

			d.Update(1.0/60, input.New())
			stats := drawFrame(t, dev, d)
			assert.Equal(t, tt.draws, stats.Submitted)
			assert.Equal(t, tt.draws, stats.Drawn)
			assert.Len(t, dev.Filter(gputest.OpDrawIndexed), tt.draws)
		})
	}
}

func TestShadingUniforms(t *testing.T) {
	dev := gputest.New()
	ctx := newTestContext(t, dev, memSource{}, testConfig())

	d, err := New(config.DemoShading, ctx)
	require.NoError(t, err)
	drawFrame(t, dev, d)

	models := ctx.Models()
	require.Len(t, models, 3)
	spacing := ctx.Config.Shading.Spacing
	for i, m := range models {
		light, ok := dev.Uniform(m.Program().ID(), "lightPos")
		require.True(t, ok)
		want := lightOffset
		want.X += float32(i-1) * spacing
		assert.InDelta(t, want.X, light.(math.Vec3).X, 1e-5)
		assert.Equal(t, want.Y, light.(math.Vec3).Y)
	}
}

func TestFlyControlsMoveCamera(t *testing.T) {
	dev := gputest.New()
	ctx := newTestContext(t, dev, memSource{}, testConfig())
	d, err := New(config.DemoShading, ctx)
	require.NoError(t, err)

	in := input.New()
	before := d.Camera().Position()
	keyDown(in, sdl.SCANCODE_W)
	d.Update(1, in)
	after := d.Camera().Position()

	assert.Less(t, after.Z, before.Z, "W moves toward -Z")
}

func TestMipmapKeysRebindFloor(t *testing.T) {
	dev := gputest.New()
	ctx := newTestContext(t, dev, memSource{}, testConfig())

	d, err := New(config.DemoMipmap, ctx)
	require.NoError(t, err)
	mm := d.(*mipmap)
	require.Len(t, mm.filters, 3)
	assert.Equal(t, "nearest", mm.Filter())

	floor := mm.floor.Meshes()[0]
	in := input.New()

	keyDown(in, sdl.SCANCODE_3)
	d.Update(0, in)
	assert.Equal(t, "trilinear", mm.Filter())
	handle := floor.Textures()[mm.slots[0]].Handle
	assert.Equal(t, mm.filters[2].handle, handle)
	_, s, ok := dev.Texture(handle)
	require.True(t, ok)
	assert.Equal(t, gpu.FilterTrilinear, s.Filter)
	assert.Equal(t, float32(8), s.Anisotropy)

	keyDown(in, sdl.SCANCODE_2)
	d.Update(0, in)
	assert.Equal(t, mm.filters[1].handle, floor.Textures()[mm.slots[0]].Handle)
	assert.Len(t, floor.Textures(), 1, "rebinding never appends")

	handles := []gpu.TextureID{mm.filters[0].handle, mm.filters[1].handle, mm.filters[2].handle}
	d.Close()
	assert.Subset(t, dev.DeletedTextures, handles)
}

const twoPartFloor = `
mtllib floor.mtl
o tiles
v -1 0 -1
v 1 0 -1
v 1 0 1
f 1 2 3
o trim
usemtl trim
v -1 0 1
v 1 0 1
v 1 0 2
f 4 5 6
`

func TestMipmapRebindsEveryFloorMesh(t *testing.T) {
	dev := gputest.New()
	cfg := testConfig()
	cfg.Mipmap.Floor = "floor.obj"
	src := memSource{
		"floor.obj": []byte(twoPartFloor),
		"floor.mtl": []byte("newmtl trim\nmap_Kd trim.png\n"),
	}
	ctx := newTestContext(t, dev, src, cfg)

	d, err := New(config.DemoMipmap, ctx)
	require.NoError(t, err)
	mm := d.(*mipmap)
	meshes := mm.floor.Meshes()
	require.Len(t, meshes, 2)
	assert.Equal(t, []int{0, 1}, mm.slots)

	require.NoError(t, mm.Select(2))
	for i, m := range meshes {
		assert.Equal(t, mm.filters[2].handle, m.Textures()[mm.slots[i]].Handle, "mesh %d", i)
	}
	// the trim keeps its own material texture in slot 0
	assert.NotEqual(t, mm.filters[2].handle, meshes[1].Textures()[0].Handle)
}

func TestMipmapAllocationFailure(t *testing.T) {
	dev := gputest.New()
	dev.FailAllocation = true
	ctx := newTestContext(t, dev, memSource{}, testConfig())

	_, err := New(config.DemoMipmap, ctx)
	assert.Error(t, err)
	assert.Empty(t, ctx.Models())
}

func TestMappingTexturesAndKeys(t *testing.T) {
	dev := gputest.New()
	cfg := testConfig()
	src := memSource{
		cfg.Mapping.Materials[0].Diffuse: pngBytes(t, color.RGBA{200, 200, 200, 255}),
		cfg.Mapping.Materials[0].Normal:  pngBytes(t, color.RGBA{128, 128, 255, 255}),
	}
	ctx := newTestContext(t, dev, src, cfg)

	d, err := New(config.DemoMapping, ctx)
	require.NoError(t, err)
	mp := d.(*mapping)
	require.Len(t, mp.cups, 3)

	metal := mp.cups[0].phong.Meshes()[0].Textures()
	require.Len(t, metal, 2)
	assert.Equal(t, texture.Loaded, metal[0].Status)
	assert.Equal(t, texture.Loaded, metal[1].Status)

	rock := mp.cups[1].cook.Meshes()[0].Textures()
	require.Len(t, rock, 2)
	assert.True(t, ctx.Textures.IsPlaceholder(rock[0].Handle))

	in := input.New()
	keyDown(in, sdl.SCANCODE_M)
	d.Update(0, in)
	assert.Equal(t, MappingNone, mp.mode)

	keyDown(in, sdl.SCANCODE_L)
	d.Update(0, in)
	assert.True(t, mp.cook)

	drawFrame(t, dev, d)
	for _, c := range mp.cups {
		mode, ok := dev.Uniform(c.cook.Program().ID(), "mappingMode")
		require.True(t, ok)
		assert.Equal(t, int32(MappingNone), mode)
	}
}

func TestCubemapSkyboxes(t *testing.T) {
	dev := gputest.New()
	cfg := testConfig()
	src := memSource{}
	for _, name := range []string{"lake", "space"} {
		var faces [6]string
		for i, face := range skybox.FaceNames {
			faces[i] = fmt.Sprintf("skybox/%s/%s.png", name, face)
			src[faces[i]] = pngBytes(t, color.RGBA{uint8(40 * i), 0, 0, 255})
		}
		cfg.Cubemap.Skyboxes = append(cfg.Cubemap.Skyboxes, config.SkyboxSet{Name: name, Faces: faces})
	}
	cfg.Cubemap.Skyboxes = append(cfg.Cubemap.Skyboxes, config.SkyboxSet{Name: "broken"})
	ctx := newTestContext(t, dev, src, cfg)

	d, err := New(config.DemoCubemap, ctx)
	require.NoError(t, err)
	cm := d.(*cubemap)
	require.Len(t, cm.skyboxes, 2, "broken set is skipped")
	first := cm.Skybox()

	stats := drawFrame(t, dev, d)
	assert.True(t, stats.SkyboxDrawn)

	var envBinds int
	for _, e := range dev.Filter(gputest.OpBindTexture) {
		if e.Unit == EnvironmentUnit {
			assert.Equal(t, gpu.TextureCube, e.Target)
			assert.Equal(t, first.Texture(), e.Texture)
			envBinds++
		}
	}
	assert.Equal(t, 4, envBinds)

	in := input.New()
	keyDown(in, sdl.SCANCODE_N)
	d.Update(0, in)
	assert.NotSame(t, first, cm.Skybox())

	keyDown(in, sdl.SCANCODE_N)
	d.Update(0, in)
	assert.Same(t, first, cm.Skybox())

	before := first.Program().ID()
	assert.Equal(t, 2, ctx.Reload("skybox.frag"), "both loaded skyboxes")
	assert.NotEqual(t, before, first.Program().ID())
	assert.Equal(t, 1, ctx.Reload("refract.frag"), "only the refract model")
}

func TestCubemapWithoutAnySkyboxFails(t *testing.T) {
	dev := gputest.New()
	cfg := testConfig()
	cfg.Cubemap.Skyboxes = []config.SkyboxSet{{Name: "missing"}}
	ctx := newTestContext(t, dev, memSource{}, cfg)

	_, err := New(config.DemoCubemap, ctx)
	require.Error(t, err)
	assert.Len(t, dev.DeletedPrograms, 4, "models built before the failure are released")
}

func TestContextReload(t *testing.T) {
	dev := gputest.New()
	ctx := newTestContext(t, dev, memSource{}, testConfig())
	_, err := New(config.DemoShading, ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, ctx.Reload("/some/dir/surface.glsl"))
	assert.Equal(t, 1, ctx.Reload("toon.frag"))
	assert.Equal(t, 0, ctx.Reload("skybox.frag"))

	// a broken toon shader keeps its old program
	toon := ctx.Models()[1].Program().ID()
	dev.FailCompile = "bands"
	assert.Equal(t, 2, ctx.Reload("surface.glsl"))
	assert.Equal(t, toon, ctx.Models()[1].Program().ID())
}
