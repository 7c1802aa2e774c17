package assets

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestResolvePriority(t *testing.T) {
	base := t.TempDir()
	over := t.TempDir()
	writeFile(t, filepath.Join(base, "textures", "wood.png"), "base")
	writeFile(t, filepath.Join(over, "textures", "wood.png"), "override")
	writeFile(t, filepath.Join(base, "textures", "rock.png"), "rock")

	m := NewManager()
	if err := m.AddRoot(base); err != nil {
		t.Fatal(err)
	}
	if err := m.AddRoot(over); err != nil {
		t.Fatal(err)
	}

	data, err := m.Load("textures/wood.png")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != "override" {
		t.Errorf("expected last root to win, got %q", data)
	}

	p, err := m.Resolve("textures/rock.png")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p != filepath.Join(base, "textures", "rock.png") {
		t.Errorf("Resolve fell through to wrong root: %s", p)
	}
}

func TestResolveMissing(t *testing.T) {
	m := NewManager(t.TempDir())
	_, err := m.Load("nope/missing.obj")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}

	if _, err := m.Resolve(""); !IsNotExist(err) {
		t.Errorf("empty path should be not-exist, got %v", err)
	}
}

func TestAddRootRejectsFile(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "file.txt")
	writeFile(t, f, "x")

	m := NewManager()
	if err := m.AddRoot(f); err == nil {
		t.Error("expected error adding a file as root")
	}
	if err := m.AddRoot(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error adding a missing root")
	}
}

func TestCacheAndInvalidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shader.frag")
	writeFile(t, path, "v1")

	m := NewManager(dir)
	if _, err := m.Load("shader.frag"); err != nil {
		t.Fatal(err)
	}
	writeFile(t, path, "v2")

	data, _ := m.Load("shader.frag")
	if string(data) != "v1" {
		t.Errorf("expected cached v1, got %q", data)
	}
	hits, misses := m.cache.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("stats = %d hits / %d misses, want 1/1", hits, misses)
	}

	m.Invalidate("shader.frag")
	data, _ = m.Load("shader.frag")
	if string(data) != "v2" {
		t.Errorf("expected v2 after Invalidate, got %q", data)
	}
}

func TestAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "abs.mtl")
	writeFile(t, path, "newmtl a")

	m := NewManager()
	data, err := m.Load(path)
	if err != nil {
		t.Fatalf("Load absolute: %v", err)
	}
	if string(data) != "newmtl a" {
		t.Errorf("unexpected content %q", data)
	}
}
