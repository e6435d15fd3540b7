package mesh

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/philipparndt/annoview/pkg/openscad"
	"github.com/qmuntal/gltf"
)

// Source describes where a loaded model came from
type Source struct {
	Path string
	// Watch lists every file whose change should trigger a reload
	Watch []string
}

// SupportedExtensions lists the model formats Load understands
var SupportedExtensions = []string{".stl", ".obj", ".glb", ".gltf", ".scad"}

// Load reads a model file, choosing the decoder from the extension.
// OpenSCAD sources are rendered to a temporary STL first.
func Load(ctx context.Context, path string) (*Model, Source, error) {
	src := Source{Path: path, Watch: []string{path}}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, src, fmt.Errorf("failed to read STL file: %w", err)
		}
		m, err := DecodeSTL(data)
		if err != nil {
			return nil, src, fmt.Errorf("failed to parse STL file: %w", err)
		}
		nameFromPath(m, path)
		return m, src, nil

	case ".obj":
		f, err := os.Open(path)
		if err != nil {
			return nil, src, fmt.Errorf("failed to open OBJ file: %w", err)
		}
		defer f.Close()
		m, err := DecodeOBJ(f)
		if err != nil {
			return nil, src, fmt.Errorf("failed to parse OBJ file: %w", err)
		}
		nameFromPath(m, path)
		return m, src, nil

	case ".glb", ".gltf":
		doc, err := gltf.Open(path)
		if err != nil {
			return nil, src, fmt.Errorf("failed to read glTF file: %w", err)
		}
		m, err := DecodeGLTF(doc)
		if err != nil {
			return nil, src, fmt.Errorf("failed to parse glTF file: %w", err)
		}
		nameFromPath(m, path)
		src.Watch = gltfWatch(doc, path)
		return m, src, nil

	case ".scad":
		return loadSCAD(ctx, path)

	default:
		return nil, src, fmt.Errorf("unsupported file type: %s (expected one of %s)",
			filepath.Ext(path), strings.Join(SupportedExtensions, ", "))
	}
}

func loadSCAD(ctx context.Context, path string) (*Model, Source, error) {
	src := Source{Path: path, Watch: []string{path}}
	renderer := openscad.NewRenderer(filepath.Dir(path))

	tmp, err := os.CreateTemp("", "annoview-*.stl")
	if err != nil {
		return nil, src, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp.Close()
	defer os.Remove(tmp.Name())

	if err := renderer.RenderToSTL(ctx, path, tmp.Name()); err != nil {
		return nil, src, fmt.Errorf("failed to render OpenSCAD file: %w", err)
	}
	data, err := os.ReadFile(tmp.Name())
	if err != nil {
		return nil, src, fmt.Errorf("failed to read rendered STL: %w", err)
	}
	m, err := DecodeSTL(data)
	if err != nil {
		return nil, src, fmt.Errorf("failed to parse rendered STL: %w", err)
	}
	nameFromPath(m, path)

	if deps, err := renderer.ResolveDependencies(path); err == nil {
		src.Watch = deps
	}
	return m, src, nil
}

func nameFromPath(m *Model, path string) {
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
}
