package mesh

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/philipparndt/annoview/pkg/geometry"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// DecodeGLTF collects the triangle primitives of every mesh reachable from
// the default scene, with node transforms applied. Documents without scenes
// use every root node.
func DecodeGLTF(doc *gltf.Document) (*Model, error) {
	model := NewModel("")
	visited := make(map[int]bool)
	for _, n := range gltfRoots(doc) {
		if err := addGLTFNode(doc, model, n, identityMatrix, visited); err != nil {
			return nil, err
		}
	}
	return model, nil
}

func sceneIndex(doc *gltf.Document) int {
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		return *doc.Scene
	}
	return 0
}

func gltfRoots(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		return doc.Scenes[sceneIndex(doc)].Nodes
	}
	child := make(map[int]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			child[c] = true
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !child[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func addGLTFNode(doc *gltf.Document, model *Model, index int, parent matrix4, visited map[int]bool) error {
	if index < 0 || index >= len(doc.Nodes) {
		return fmt.Errorf("node %d out of range", index)
	}
	if visited[index] {
		return fmt.Errorf("node %d is part of a cycle", index)
	}
	visited[index] = true

	node := doc.Nodes[index]
	world := parent.mul(nodeMatrix(node))
	if node.Mesh != nil {
		if *node.Mesh < 0 || *node.Mesh >= len(doc.Meshes) {
			return fmt.Errorf("node %d: mesh %d out of range", index, *node.Mesh)
		}
		mesh := doc.Meshes[*node.Mesh]
		for i, p := range mesh.Primitives {
			if err := addGLTFPrimitive(doc, model, p, world); err != nil {
				return fmt.Errorf("mesh %q primitive %d: %w", mesh.Name, i, err)
			}
		}
	}
	for _, c := range node.Children {
		if err := addGLTFNode(doc, model, c, world, visited); err != nil {
			return err
		}
	}
	return nil
}

func accessor(doc *gltf.Document, index int) (*gltf.Accessor, error) {
	if index < 0 || index >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", index)
	}
	return doc.Accessors[index], nil
}

func addGLTFPrimitive(doc *gltf.Document, model *Model, p *gltf.Primitive, world matrix4) error {
	// Points and lines have no surface
	if p.Mode != gltf.PrimitiveTriangles {
		return nil
	}
	posIndex, ok := p.Attributes["POSITION"]
	if !ok {
		return nil
	}
	acc, err := accessor(doc, posIndex)
	if err != nil {
		return err
	}
	positions, err := modeler.ReadPosition(doc, acc, nil)
	if err != nil {
		return fmt.Errorf("failed to read positions: %w", err)
	}

	var uvs [][2]float32
	if uvIndex, ok := p.Attributes["TEXCOORD_0"]; ok {
		acc, err := accessor(doc, uvIndex)
		if err != nil {
			return err
		}
		if uvs, err = modeler.ReadTextureCoord(doc, acc, nil); err != nil {
			return fmt.Errorf("failed to read texture coordinates: %w", err)
		}
		if len(uvs) != len(positions) {
			uvs = nil
		}
	}

	var indices []uint32
	if p.Indices != nil {
		acc, err := accessor(doc, *p.Indices)
		if err != nil {
			return err
		}
		if indices, err = modeler.ReadIndices(doc, acc, nil); err != nil {
			return fmt.Errorf("failed to read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		if int(a) >= len(positions) || int(b) >= len(positions) || int(c) >= len(positions) {
			return fmt.Errorf("index out of range (%d positions)", len(positions))
		}
		t := geometry.Triangle{
			V1: world.apply(positions[a]),
			V2: world.apply(positions[b]),
			V3: world.apply(positions[c]),
		}
		t.Normal = t.CalculateNormal()
		if uvs == nil {
			model.AddTriangle(t)
			continue
		}
		model.AddTexturedTriangle(t, [3]UV{toUV(uvs[a]), toUV(uvs[b]), toUV(uvs[c])})
	}
	return nil
}

func toUV(uv [2]float32) UV {
	return UV{U: float64(uv[0]), V: float64(uv[1])}
}

// gltfWatch lists the document and its external buffers
func gltfWatch(doc *gltf.Document, path string) []string {
	files := []string{path}
	dir := filepath.Dir(path)
	for _, b := range doc.Buffers {
		if b.URI == "" || strings.HasPrefix(b.URI, "data:") {
			continue
		}
		files = append(files, filepath.Join(dir, filepath.FromSlash(b.URI)))
	}
	return files
}

// matrix4 is a column-major 4x4 transform, as stored by glTF
type matrix4 [16]float64

var identityMatrix = matrix4{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

func (m matrix4) mul(o matrix4) matrix4 {
	var r matrix4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			sum := 0.0
			for k := 0; k < 4; k++ {
				sum += m[k*4+row] * o[col*4+k]
			}
			r[col*4+row] = sum
		}
	}
	return r
}

func (m matrix4) apply(p [3]float32) geometry.Vector3 {
	x, y, z := float64(p[0]), float64(p[1]), float64(p[2])
	return geometry.NewVector3(
		m[0]*x+m[4]*y+m[8]*z+m[12],
		m[1]*x+m[5]*y+m[9]*z+m[13],
		m[2]*x+m[6]*y+m[10]*z+m[14],
	)
}

// nodeMatrix returns the local transform of a node. An explicit matrix wins
// over translation, rotation and scale; zero values mean the glTF defaults.
func nodeMatrix(n *gltf.Node) matrix4 {
	if n.Matrix != [16]float64{} && matrix4(n.Matrix) != identityMatrix {
		return matrix4(n.Matrix)
	}
	return trsMatrix(n.Translation, n.Rotation, n.Scale)
}

// trsMatrix composes T * R * S; q is a unit quaternion (x, y, z, w)
func trsMatrix(t [3]float64, q [4]float64, s [3]float64) matrix4 {
	if q == [4]float64{} {
		q = [4]float64{0, 0, 0, 1}
	}
	if s == [3]float64{} {
		s = [3]float64{1, 1, 1}
	}
	if l := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3]); l > 0 {
		for i := range q {
			q[i] /= l
		}
	}
	x, y, z, w := q[0], q[1], q[2], q[3]

	m := matrix4{
		1 - 2*(y*y+z*z), 2 * (x*y + z*w), 2 * (x*z - y*w), 0,
		2 * (x*y - z*w), 1 - 2*(x*x+z*z), 2 * (y*z + x*w), 0,
		2 * (x*z + y*w), 2 * (y*z - x*w), 1 - 2*(x*x+y*y), 0,
		t[0], t[1], t[2], 1,
	}
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			m[col*4+row] *= s[col]
		}
	}
	return m
}
