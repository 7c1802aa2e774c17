package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// OBJ format errors.
var (
	ErrOBJSyntax = errors.New("obj syntax error")
	ErrOBJIndex  = errors.New("obj index out of range")
)

// OBJ is a parsed Wavefront OBJ file. Attribute arrays are global to the
// file; faces reference them by zero-based index.
type OBJ struct {
	Positions    [][3]float32
	TexCoords    [][2]float32
	Normals      [][3]float32
	Groups       []*OBJGroup
	MaterialLibs []string
}

// OBJGroup is a run of faces sharing an object name and material. A new
// group starts at every o, g or usemtl line.
type OBJGroup struct {
	Name     string
	Material string
	Faces    []OBJFace
}

// OBJFace is one polygon with three or more corners.
type OBJFace []OBJCorner

// OBJCorner indexes the attributes of one face corner. TexCoord and Normal
// are -1 when the corner does not reference one.
type OBJCorner struct {
	Position int
	TexCoord int
	Normal   int
}

// TriangleCount returns the number of triangles the group yields after fan
// triangulation.
func (g *OBJGroup) TriangleCount() int {
	n := 0
	for _, f := range g.Faces {
		n += len(f) - 2
	}
	return n
}

type objParser struct {
	obj      *OBJ
	line     int
	name     string
	material string
	current  *OBJGroup
}

// ParseOBJ parses OBJ text. Negative (relative) indices are resolved, and
// every index is checked against the attribute arrays.
func ParseOBJ(r io.Reader) (*OBJ, error) {
	p := &objParser{obj: &OBJ{}}
	err := scanLines(r, func(line int, fields []string) error {
		p.line = line
		return p.parseLine(fields)
	})
	if err != nil {
		return nil, err
	}

	groups := p.obj.Groups[:0]
	for _, g := range p.obj.Groups {
		if len(g.Faces) > 0 {
			groups = append(groups, g)
		}
	}
	p.obj.Groups = groups
	return p.obj, nil
}

func (p *objParser) parseLine(fields []string) error {
	switch fields[0] {
	case "v":
		v, err := p.floats(fields[1:], 3)
		if err != nil {
			return err
		}
		p.obj.Positions = append(p.obj.Positions, [3]float32{v[0], v[1], v[2]})
	case "vt":
		v, err := p.floats(fields[1:], 2)
		if err != nil {
			return err
		}
		p.obj.TexCoords = append(p.obj.TexCoords, [2]float32{v[0], v[1]})
	case "vn":
		v, err := p.floats(fields[1:], 3)
		if err != nil {
			return err
		}
		p.obj.Normals = append(p.obj.Normals, [3]float32{v[0], v[1], v[2]})
	case "f":
		return p.parseFace(fields[1:])
	case "o", "g":
		p.name = strings.Join(fields[1:], " ")
		p.current = nil
	case "usemtl":
		p.material = strings.Join(fields[1:], " ")
		p.current = nil
	case "mtllib":
		p.obj.MaterialLibs = append(p.obj.MaterialLibs, fields[1:]...)
	}
	// s, l, p and unknown statements are ignored
	return nil
}

func (p *objParser) group() *OBJGroup {
	if p.current == nil {
		p.current = &OBJGroup{Name: p.name, Material: p.material}
		p.obj.Groups = append(p.obj.Groups, p.current)
	}
	return p.current
}

func (p *objParser) parseFace(fields []string) error {
	if len(fields) < 3 {
		return p.errorf(ErrOBJSyntax, "face with %d corners", len(fields))
	}
	face := make(OBJFace, len(fields))
	for i, f := range fields {
		parts := strings.Split(f, "/")
		if len(parts) > 3 {
			return p.errorf(ErrOBJSyntax, "malformed corner %q", f)
		}

		var err error
		c := OBJCorner{TexCoord: -1, Normal: -1}
		if c.Position, err = p.index(parts[0], len(p.obj.Positions)); err != nil {
			return err
		}
		if len(parts) > 1 && parts[1] != "" {
			if c.TexCoord, err = p.index(parts[1], len(p.obj.TexCoords)); err != nil {
				return err
			}
		}
		if len(parts) > 2 && parts[2] != "" {
			if c.Normal, err = p.index(parts[2], len(p.obj.Normals)); err != nil {
				return err
			}
		}
		face[i] = c
	}
	g := p.group()
	g.Faces = append(g.Faces, face)
	return nil
}

// index converts a one-based (or negative, relative) OBJ index to zero-based.
func (p *objParser) index(s string, count int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, p.errorf(ErrOBJSyntax, "bad index %q", s)
	}
	idx := v - 1
	if v < 0 {
		idx = count + v
	}
	if v == 0 || idx < 0 || idx >= count {
		return 0, p.errorf(ErrOBJIndex, "index %d with %d elements", v, count)
	}
	return idx, nil
}

func (p *objParser) floats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, p.errorf(ErrOBJSyntax, "expected %d values, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, p.errorf(ErrOBJSyntax, "bad number %q", fields[i])
		}
		out[i] = float32(f)
	}
	return out, nil
}

func (p *objParser) errorf(kind error, format string, args ...any) error {
	return fmt.Errorf("line %d: %s: %w", p.line, fmt.Sprintf(format, args...), kind)
}

// scanLines calls fn with the whitespace-separated fields of every
// non-empty, non-comment line. Backslash continuations are joined.
func scanLines(r io.Reader, fn func(line int, fields []string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var pending strings.Builder
	line, start := 0, 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if pending.Len() == 0 {
			start = line
		}
		if strings.HasSuffix(text, "\\") {
			pending.WriteString(strings.TrimSuffix(text, "\\"))
			pending.WriteByte(' ')
			continue
		}
		pending.WriteString(text)
		full := pending.String()
		pending.Reset()

		if i := strings.IndexByte(full, '#'); i >= 0 {
			full = full[:i]
		}
		fields := strings.Fields(full)
		if len(fields) == 0 {
			continue
		}
		if err := fn(start, fields); err != nil {
			return err
		}
	}
	return sc.Err()
}
