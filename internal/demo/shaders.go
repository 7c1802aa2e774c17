package demo

import (
	"bufio"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

//go:embed shaders/*.vert shaders/*.frag shaders/*.glsl
var builtinShaders embed.FS

const includeDirective = "#include"

// Library serves GLSL sources by file name. Sources come from the embedded
// set unless a directory override is configured, in which case files found
// there win. `#include "file"` lines are expanded in place, recursively.
type Library struct {
	dir string
}

// NewLibrary returns a library reading from dir first. An empty dir uses
// only the embedded shaders.
func NewLibrary(dir string) *Library {
	return &Library{dir: dir}
}

// Dir returns the override directory, or "".
func (l *Library) Dir() string { return l.dir }

// Path returns the on-disk path of name under the override directory.
func (l *Library) Path(name string) string {
	if l.dir == "" {
		return ""
	}
	return filepath.Join(l.dir, name)
}

func (l *Library) read(name string) ([]byte, error) {
	if l.dir != "" {
		data, err := os.ReadFile(filepath.Join(l.dir, name))
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading shader %s: %w", name, err)
		}
	}
	data, err := fs.ReadFile(builtinShaders, "shaders/"+name)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", name, err)
	}
	return data, nil
}

// Source returns the expanded source of name and every file it pulled in,
// name included.
func (l *Library) Source(name string) (string, []string, error) {
	var out strings.Builder
	deps := []string{name}
	if err := l.expand(name, &out, &deps, map[string]bool{}); err != nil {
		return "", nil, err
	}
	return out.String(), deps, nil
}

func (l *Library) expand(name string, out *strings.Builder, deps *[]string, active map[string]bool) error {
	if active[name] {
		return fmt.Errorf("shader %s includes itself", name)
	}
	active[name] = true
	defer delete(active, name)

	data, err := l.read(name)
	if err != nil {
		return err
	}

	sc := bufio.NewScanner(strings.NewReader(string(data)))
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		trimmed := strings.TrimSpace(text)
		if !strings.HasPrefix(trimmed, includeDirective) {
			out.WriteString(text)
			out.WriteByte('\n')
			continue
		}
		inc := strings.Trim(strings.TrimSpace(strings.TrimPrefix(trimmed, includeDirective)), `"<>`)
		if inc == "" {
			return fmt.Errorf("%s:%d: empty include", name, line)
		}
		*deps = append(*deps, inc)
		if err := l.expand(inc, out, deps, active); err != nil {
			return fmt.Errorf("%s:%d: %w", name, line, err)
		}
	}
	return sc.Err()
}

// Pair returns expanded vertex and fragment sources plus the union of their
// dependencies.
func (l *Library) Pair(vert, frag string) (vs, fsrc string, deps []string, err error) {
	vs, vdeps, err := l.Source(vert)
	if err != nil {
		return "", "", nil, err
	}
	fsrc, fdeps, err := l.Source(frag)
	if err != nil {
		return "", "", nil, err
	}
	return vs, fsrc, append(vdeps, fdeps...), nil
}
