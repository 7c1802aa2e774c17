package mesh

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/rtr-gl/internal/engine/gpu"
	"github.com/Faultbox/rtr-gl/internal/engine/gpu/gputest"
	"github.com/Faultbox/rtr-gl/internal/engine/shader"
)

func quad() ([]Vertex, []uint32) {
	v := []Vertex{
		{Position: [3]float32{-1, -1, 0}},
		{Position: [3]float32{1, -1, 0}},
		{Position: [3]float32{1, 1, 0}},
		{Position: [3]float32{-1, 1, 0}},
	}
	return v, []uint32{0, 1, 2, 0, 2, 3}
}

func TestValidate(t *testing.T) {
	v, idx := quad()
	assert.NoError(t, Validate(v, idx))
	assert.NoError(t, Validate(nil, nil))
	assert.ErrorIs(t, Validate(v, []uint32{0, 1, 4}), ErrIndexOutOfRange)
	assert.ErrorIs(t, Validate(nil, []uint32{0}), ErrIndexOutOfRange)
}

func TestValidateRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		n := rng.Intn(50) + 1
		vertices := make([]Vertex, n)
		indices := make([]uint32, rng.Intn(90)*3)
		for j := range indices {
			indices[j] = uint32(rng.Intn(n))
		}
		require.NoError(t, Validate(vertices, indices))

		if len(indices) > 0 {
			indices[rng.Intn(len(indices))] = uint32(n + rng.Intn(5))
			require.ErrorIs(t, Validate(vertices, indices), ErrIndexOutOfRange)
		}
	}
}

func TestNewUploads(t *testing.T) {
	dev := gputest.New()
	v, idx := quad()

	m, err := New(dev, v, idx, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, m.VertexCount())
	assert.Equal(t, 6, m.IndexCount())
	assert.Equal(t, idx, dev.MeshIndices(m.Buffers()))
	assert.Len(t, dev.MeshVertices(m.Buffers()), 4)
}

func TestNewAllocationFailure(t *testing.T) {
	dev := gputest.New()
	dev.FailAllocation = true
	v, idx := quad()

	_, err := New(dev, v, idx, nil)
	assert.ErrorIs(t, err, gpu.ErrAllocation)
}

func TestDrawBindsTexturesInOrder(t *testing.T) {
	dev := gputest.New()
	v, idx := quad()
	m, err := New(dev, v, idx, []TextureBinding{
		{Handle: 10, Type: Diffuse},
		{Handle: 11, Type: Normal},
		{Handle: 12, Type: Diffuse},
	})
	require.NoError(t, err)

	p, err := shader.New(dev, "vs", "fs")
	require.NoError(t, err)
	p.Use()
	m.Draw(p)

	binds := dev.Filter(gputest.OpBindTexture)
	require.Len(t, binds, 3)
	for unit, want := range []gpu.TextureID{10, 11, 12} {
		assert.Equal(t, unit, binds[unit].Unit)
		assert.Equal(t, want, binds[unit].Texture)
		assert.Equal(t, gpu.Texture2D, binds[unit].Target)
	}

	for name, unit := range map[string]int32{"texture_diffuse1": 0, "texture_normal1": 1, "texture_diffuse2": 2} {
		got, ok := dev.Uniform(p.ID(), name)
		require.True(t, ok, name)
		assert.Equal(t, unit, got, name)
	}

	draws := dev.Draws()
	require.Len(t, draws, 1)
	assert.Equal(t, gputest.OpDrawIndexed, draws[0].Op)
	assert.Equal(t, int32(6), draws[0].Mesh.IndexCount)
}

func TestAddTextureAppends(t *testing.T) {
	dev := gputest.New()
	v, idx := quad()
	m, err := New(dev, v, idx, []TextureBinding{{Handle: 1, Type: Diffuse, Path: "a.png"}})
	require.NoError(t, err)

	m.AddTexture(TextureBinding{Handle: 1, Type: Diffuse, Path: "a.png"})
	m.AddTexture(TextureBinding{Handle: 2, Type: Normal, Path: "n.png"})

	got := m.Textures()
	require.Len(t, got, 3, "duplicates are appended, never merged")
	assert.Equal(t, gpu.TextureID(2), got[2].Handle)
}

func TestRebind(t *testing.T) {
	dev := gputest.New()
	v, idx := quad()
	m, err := New(dev, v, idx, []TextureBinding{{Handle: 5, Type: Diffuse, Path: "floor.png"}})
	require.NoError(t, err)

	assert.ErrorIs(t, m.Rebind(1, 6, "x"), ErrSlotOutOfRange)
	assert.ErrorIs(t, m.Rebind(-1, 6, "x"), ErrSlotOutOfRange)
	assert.ErrorIs(t, m.Rebind(0, 0, "x"), ErrZeroHandle)
	assert.Equal(t, gpu.TextureID(5), m.Textures()[0].Handle)

	require.NoError(t, m.Rebind(0, 9, "procedural_custom_9"))
	got := m.Textures()[0]
	assert.Equal(t, gpu.TextureID(9), got.Handle)
	assert.Equal(t, Diffuse, got.Type)
	assert.Equal(t, "procedural_custom_9", got.Path)
}

func TestRelease(t *testing.T) {
	dev := gputest.New()
	v, idx := quad()
	m, err := New(dev, v, idx, nil)
	require.NoError(t, err)
	b := m.Buffers()

	m.Release()
	m.Release()
	assert.Equal(t, []gpu.MeshBuffers{b}, dev.DeletedMeshes)
}
