// Package formats parses Wavefront OBJ geometry and its MTL material
// libraries into plain data. It knows nothing about the GPU; the importer
// turns the result into engine meshes.
package formats
