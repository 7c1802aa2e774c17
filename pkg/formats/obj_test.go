package formats

import (
	"errors"
	"strings"
	"testing"
)

const cubeFaceOBJ = `# two faces of a cube
mtllib cup.mtl
o cup
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
usemtl wood
f 1/1/1 2/2/1 3/3/1 4/4/1
usemtl metal
f -4//-1 -3//-1 \
  -2//-1
`

func TestParseOBJ(t *testing.T) {
	obj, err := ParseOBJ(strings.NewReader(cubeFaceOBJ))
	if err != nil {
		t.Fatalf("ParseOBJ: %v", err)
	}

	if len(obj.Positions) != 4 || len(obj.TexCoords) != 4 || len(obj.Normals) != 1 {
		t.Fatalf("attribute counts: %d/%d/%d", len(obj.Positions), len(obj.TexCoords), len(obj.Normals))
	}
	if len(obj.MaterialLibs) != 1 || obj.MaterialLibs[0] != "cup.mtl" {
		t.Errorf("MaterialLibs = %v", obj.MaterialLibs)
	}
	if len(obj.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(obj.Groups))
	}

	wood := obj.Groups[0]
	if wood.Name != "cup" || wood.Material != "wood" {
		t.Errorf("group 0 = %q/%q", wood.Name, wood.Material)
	}
	if len(wood.Faces) != 1 || len(wood.Faces[0]) != 4 {
		t.Fatalf("expected one quad, got %v", wood.Faces)
	}
	if wood.TriangleCount() != 2 {
		t.Errorf("quad should fan into 2 triangles, got %d", wood.TriangleCount())
	}
	if c := wood.Faces[0][2]; c != (OBJCorner{Position: 2, TexCoord: 2, Normal: 0}) {
		t.Errorf("corner 2 = %+v", c)
	}

	metal := obj.Groups[1]
	if metal.Material != "metal" {
		t.Errorf("group 1 material = %q", metal.Material)
	}
	want := OBJFace{{0, -1, 0}, {1, -1, 0}, {2, -1, 0}}
	if len(metal.Faces) != 1 {
		t.Fatalf("expected continued face to parse as one, got %d", len(metal.Faces))
	}
	for i, c := range metal.Faces[0] {
		if c != want[i] {
			t.Errorf("relative corner %d = %+v, want %+v", i, c, want[i])
		}
	}
}

func TestParseOBJErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"index past end", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n", ErrOBJIndex},
		{"zero index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n", ErrOBJIndex},
		{"relative too far", "v 0 0 0\nf -1 -2 -3\n", ErrOBJIndex},
		{"two corners", "v 0 0 0\nv 1 0 0\nf 1 2\n", ErrOBJSyntax},
		{"bad number", "v 0 zero 0\n", ErrOBJSyntax},
		{"missing uv", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1/1 2/1 3/1\n", ErrOBJIndex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOBJ(strings.NewReader(tt.src))
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseOBJSkipsEmptyGroups(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl a\nusemtl b\nf 1 2 3\ng empty\n"
	obj, err := ParseOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(obj.Groups) != 1 || obj.Groups[0].Material != "b" {
		t.Errorf("groups = %+v", obj.Groups)
	}
}

const cupMTL = `Kd 1 1 1
newmtl wood
Ka 0.1 0.1 0.1
Kd 0.8 0.5 0.2
Ks 0.5
Ns 32
d 1
map_Kd -s 2 2 textures/wood diffuse.png
map_Bump -bm 0.4 textures/wood_normal.png
newmtl metal
Tr 0.25
map_Ks metal_spec.jpg
map_Ka metal_height.png
norm metal_n.png
`

func TestParseMTL(t *testing.T) {
	lib, err := ParseMTL(strings.NewReader(cupMTL))
	if err != nil {
		t.Fatalf("ParseMTL: %v", err)
	}
	if len(lib.Order) != 2 || lib.Order[0] != "wood" || lib.Order[1] != "metal" {
		t.Fatalf("Order = %v", lib.Order)
	}

	wood := lib.Materials["wood"]
	if wood.Diffuse != [3]float32{0.8, 0.5, 0.2} {
		t.Errorf("Kd = %v", wood.Diffuse)
	}
	if wood.Specular != [3]float32{0.5, 0.5, 0.5} {
		t.Errorf("single-value Ks should broadcast, got %v", wood.Specular)
	}
	if wood.Shininess != 32 {
		t.Errorf("Ns = %v", wood.Shininess)
	}
	if wood.MapDiffuse != "textures/wood diffuse.png" {
		t.Errorf("map_Kd = %q", wood.MapDiffuse)
	}
	if wood.MapBump != "textures/wood_normal.png" || wood.BumpScale != 0.4 {
		t.Errorf("map_Bump = %q scale %v", wood.MapBump, wood.BumpScale)
	}

	metal := lib.Materials["metal"]
	if metal.Opacity != 0.75 {
		t.Errorf("Tr 0.25 should give opacity 0.75, got %v", metal.Opacity)
	}
	if metal.MapSpecular != "metal_spec.jpg" || metal.MapAmbient != "metal_height.png" || metal.MapNormal != "metal_n.png" {
		t.Errorf("metal maps = %+v", metal)
	}
	if metal.BumpScale != 1 {
		t.Errorf("default bump scale = %v", metal.BumpScale)
	}
}

func TestParseMTLErrors(t *testing.T) {
	if _, err := ParseMTL(strings.NewReader("newmtl\n")); err == nil {
		t.Error("expected error for newmtl without name")
	}
	if _, err := ParseMTL(strings.NewReader("newmtl a\nKd x y z\n")); err == nil {
		t.Error("expected error for bad Kd")
	}
}
