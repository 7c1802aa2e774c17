package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const quadOBJ = `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
f 1/1 2/2 3/3 4/4
`

func writeQuad(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "quad.obj")
	if err := os.WriteFile(path, []byte(quadOBJ), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCmdInfo(t *testing.T) {
	path := writeQuad(t)

	var out bytes.Buffer
	if err := cmdInfo(&out, []string{path}); err != nil {
		t.Fatalf("cmdInfo: %v", err)
	}

	for _, want := range []string{"Status: loaded", "Meshes: 1", "vertices:  4", "indices:   6 (2 triangles)"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestCmdInfoUsage(t *testing.T) {
	if err := cmdInfo(io.Discard, nil); err == nil {
		t.Error("expected usage error")
	}
}

func TestCmdCheck(t *testing.T) {
	good := writeQuad(t)

	tests := []struct {
		name    string
		args    []string
		wantErr bool
		want    string
	}{
		{"all good", []string{good, "builtin:cube", "builtin:sphere"}, false, "3 checked, 0 failed"},
		{"missing file", []string{good, "nope.obj"}, true, "FAIL nope.obj"},
		{"unknown builtin", []string{"builtin:teapot"}, true, "1 checked, 1 failed"},
		{"no args", nil, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := cmdCheck(&out, io.Discard, tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out.String())
			}
		})
	}
}

func TestCheckRoot(t *testing.T) {
	path := writeQuad(t)

	var out bytes.Buffer
	err := cmdCheck(&out, io.Discard, []string{"-root", filepath.Dir(path), "quad.obj"})
	if err != nil {
		t.Fatalf("cmdCheck: %v\n%s", err, out.String())
	}
}
