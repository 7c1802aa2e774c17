package formats

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// MTL is a parsed Wavefront material library.
type MTL struct {
	Materials map[string]*Material
	// Order lists material names as declared.
	Order []string
}

// Material is one newmtl block. Only the properties the renderer uses are kept.
type Material struct {
	Name      string
	Ambient   [3]float32 // Ka
	Diffuse   [3]float32 // Kd
	Specular  [3]float32 // Ks
	Shininess float32    // Ns
	Opacity   float32    // d, or 1 - Tr

	MapAmbient  string // map_Ka
	MapDiffuse  string // map_Kd
	MapSpecular string // map_Ks
	MapBump     string // map_Bump, bump
	MapNormal   string // norm
	BumpScale   float32
}

// ParseMTL parses a material library.
func ParseMTL(r io.Reader) (*MTL, error) {
	lib := &MTL{Materials: make(map[string]*Material)}
	var cur *Material

	err := scanLines(r, func(line int, fields []string) error {
		key := fields[0]
		args := fields[1:]

		if key == "newmtl" {
			if len(args) == 0 {
				return fmt.Errorf("line %d: newmtl without name: %w", line, ErrOBJSyntax)
			}
			name := strings.Join(args, " ")
			cur = &Material{Name: name, Opacity: 1, BumpScale: 1}
			if _, dup := lib.Materials[name]; !dup {
				lib.Order = append(lib.Order, name)
			}
			lib.Materials[name] = cur
			return nil
		}
		if cur == nil {
			// statements before the first newmtl have nothing to apply to
			return nil
		}

		var err error
		switch strings.ToLower(key) {
		case "ka":
			cur.Ambient, err = color3(args)
		case "kd":
			cur.Diffuse, err = color3(args)
		case "ks":
			cur.Specular, err = color3(args)
		case "ns":
			cur.Shininess, err = float1(args)
		case "d":
			cur.Opacity, err = float1(args)
		case "tr":
			var tr float32
			tr, err = float1(args)
			cur.Opacity = 1 - tr
		case "map_ka":
			cur.MapAmbient, _ = textureMap(args)
		case "map_kd":
			cur.MapDiffuse, _ = textureMap(args)
		case "map_ks":
			cur.MapSpecular, _ = textureMap(args)
		case "map_bump", "bump":
			cur.MapBump, cur.BumpScale = textureMap(args)
		case "norm":
			cur.MapNormal, _ = textureMap(args)
		}
		if err != nil {
			return fmt.Errorf("line %d: %s: %w", line, key, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lib, nil
}

func color3(args []string) ([3]float32, error) {
	var c [3]float32
	if len(args) == 0 {
		return c, ErrOBJSyntax
	}
	for i := 0; i < 3; i++ {
		s := args[0]
		if i < len(args) {
			s = args[i]
		}
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return c, ErrOBJSyntax
		}
		c[i] = float32(f)
	}
	return c, nil
}

func float1(args []string) (float32, error) {
	if len(args) == 0 {
		return 0, ErrOBJSyntax
	}
	f, err := strconv.ParseFloat(args[0], 32)
	if err != nil {
		return 0, ErrOBJSyntax
	}
	return float32(f), nil
}

// textureMapOptions gives the maximum argument count of each map option.
// Options taking up to three numbers (-o, -s, -t) stop at the first
// non-number.
var textureMapOptions = map[string]int{
	"-blendu": 1, "-blendv": 1, "-boost": 1, "-cc": 1, "-clamp": 1,
	"-imfchan": 1, "-texres": 1, "-type": 1, "-bm": 1,
	"-mm": 2,
	"-o":  3, "-s": 3, "-t": 3,
}

// textureMap splits a map statement into its file name and bump multiplier.
func textureMap(args []string) (string, float32) {
	scale := float32(1)
	i := 0
	for i < len(args) {
		n, ok := textureMapOptions[strings.ToLower(args[i])]
		if !ok {
			break
		}
		opt := strings.ToLower(args[i])
		i++
		for taken := 0; taken < n && i < len(args); taken++ {
			if _, err := strconv.ParseFloat(args[i], 32); err != nil && (opt == "-o" || opt == "-s" || opt == "-t") {
				break
			}
			if opt == "-bm" {
				if f, err := strconv.ParseFloat(args[i], 32); err == nil {
					scale = float32(f)
				}
			}
			i++
		}
	}
	return strings.Join(args[i:], " "), scale
}
