// meshtool inspects and validates mesh files through the engine importer.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/Faultbox/rtr-gl/internal/assets"
	"github.com/Faultbox/rtr-gl/internal/engine/importer"
	"github.com/Faultbox/rtr-gl/internal/engine/mesh"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "info":
		err = cmdInfo(os.Stdout, args)
	case "check":
		err = cmdCheck(os.Stdout, os.Stderr, args)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage(os.Stderr)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `meshtool - mesh file inspector

Usage:
  meshtool <command> [options]

Commands:
  info [-root dir] <mesh>          Show meshes, vertex/index counts and textures
  check [-root dir] <mesh...>      Validate that every index addresses a vertex

Meshes are .obj, .gltf, .glb or builtin:cube, builtin:plane, builtin:sphere.

Examples:
  meshtool info assets/models/cup.obj
  meshtool check -root assets models/*.glb`)
}

// sourceFlags parses the shared -root flag and returns the remaining args.
func sourceFlags(name string, args []string) (*assets.Manager, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	root := fs.String("root", "", "Asset root to resolve mesh and texture paths against")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	var roots []string
	if *root != "" {
		roots = append(roots, *root)
	}
	return assets.NewManager(roots...), fs.Args(), nil
}

func cmdInfo(w io.Writer, args []string) error {
	src, rest, err := sourceFlags("info", args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return errors.New("usage: meshtool info <mesh>")
	}

	res := importer.LoadMeshes(src, rest[0])
	fmt.Fprintf(w, "File:   %s\n", res.Path)
	fmt.Fprintf(w, "Status: %s\n", res.Status)
	if res.Err != nil {
		return res.Err
	}
	fmt.Fprintf(w, "Meshes: %d\n", len(res.Meshes))

	var verts, tris int
	for i, m := range res.Meshes {
		verts += len(m.Vertices)
		tris += len(m.Indices) / 3
		fmt.Fprintf(w, "\n  [%d] %s\n", i, m.Name)
		fmt.Fprintf(w, "      vertices:  %d\n", len(m.Vertices))
		fmt.Fprintf(w, "      indices:   %d (%d triangles)\n", len(m.Indices), len(m.Indices)/3)
		fmt.Fprintf(w, "      textures:  %d\n", len(m.Textures))
		for _, t := range m.Textures {
			where := t.Path
			if len(t.Embedded) > 0 {
				where = fmt.Sprintf("%s (embedded, %d bytes)", t.Name, len(t.Embedded))
			}
			fmt.Fprintf(w, "        %-18s %s\n", t.Type, where)
		}
	}
	fmt.Fprintf(w, "\nTotal:  %d vertices, %d triangles\n", verts, tris)
	return nil
}

// checkResult is the verdict for one file.
type checkResult struct {
	path string
	err  error
}

func checkFile(src importer.Source, path string) error {
	res := importer.LoadMeshes(src, path)
	if res.Status != importer.Loaded {
		if res.Err != nil {
			return res.Err
		}
		return fmt.Errorf("status %s", res.Status)
	}
	for i, m := range res.Meshes {
		if len(m.Indices)%3 != 0 {
			return fmt.Errorf("mesh %d: %d indices is not a triangle list", i, len(m.Indices))
		}
		if err := mesh.Validate(m.Vertices, m.Indices); err != nil {
			return fmt.Errorf("mesh %d: %w", i, err)
		}
	}
	return nil
}

func cmdCheck(w, progress io.Writer, args []string) error {
	src, paths, err := sourceFlags("check", args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("usage: meshtool check <mesh...>")
	}

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("checking"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	var failed []checkResult
	for _, p := range paths {
		if err := checkFile(src, p); err != nil {
			failed = append(failed, checkResult{path: p, err: err})
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	for _, f := range failed {
		fmt.Fprintf(w, "FAIL %s: %v\n", f.path, f.err)
	}
	fmt.Fprintf(w, "%d checked, %d failed\n", len(paths), len(failed))
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d meshes failed", len(failed), len(paths))
	}
	return nil
}
