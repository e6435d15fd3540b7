package sketch

import (
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/philipparndt/annoview/pkg/geometry"
	"github.com/philipparndt/annoview/pkg/mesh"
	"github.com/philipparndt/annoview/pkg/viewer"
	"github.com/rs/zerolog"
)

// colorBufferIndex is the raylib mesh buffer holding vertex colours
const colorBufferIndex = 3

// object is one textured model with its own directional light
type object struct {
	model  *mesh.Model
	offset geometry.Vector3
	lightZ float64
	light  *viewer.FollowLight

	mesh     rl.Mesh
	material rl.Material
	texture  rl.Texture2D

	vertices  []float32
	texcoords []float32
	colors    []uint8
}

func newObject(model *mesh.Model, offset geometry.Vector3, lightZ, ambient float64) *object {
	light := viewer.NewFollowLight()
	light.Ambient = ambient
	light.Intensity = 1
	return &object{
		model:  normalize(model, 1),
		offset: offset,
		lightZ: lightZ,
		light:  light,
	}
}

// aim points the light along dir
func (o *object) aim(dir geometry.Vector3) {
	o.light.Position = geometry.Vector3{}
	o.light.Target = dir
}

// bake writes the lit white of every vertex into colors, using face normals
// turned into world space by tr
func bake(model *mesh.Model, tr transform, light *viewer.FollowLight, colors []uint8) {
	idx := 0
	for _, t := range model.Triangles {
		normal := tr.linear(t.CalculateNormal()).Normalize()
		c := light.ShadeByte(255, normal)
		for i := 0; i < 3; i++ {
			colors[idx*4+0] = c
			colors[idx*4+1] = c
			colors[idx*4+2] = c
			colors[idx*4+3] = 255
			idx++
		}
	}
}

// upload builds the GPU mesh; call after the window exists
func (o *object) upload() {
	count := len(o.model.Triangles) * 3
	o.vertices = make([]float32, 0, count*3)
	for _, t := range o.model.Triangles {
		for _, v := range [3]geometry.Vector3{t.V1, t.V2, t.V3} {
			o.vertices = append(o.vertices, float32(v.X), float32(v.Y), float32(v.Z))
		}
	}
	o.texcoords = textureCoords(o.model)
	o.colors = make([]uint8, count*4)

	o.mesh = rl.Mesh{
		VertexCount:   int32(count),
		TriangleCount: int32(len(o.model.Triangles)),
	}
	if count > 0 {
		o.mesh.Vertices = &o.vertices[0]
		o.mesh.Texcoords = &o.texcoords[0]
		o.mesh.Colors = &o.colors[0]
		rl.UploadMesh(&o.mesh, true)
	}
	o.material = rl.LoadMaterialDefault()
}

// loadTexture applies an image to the object; an empty path keeps it untextured
func (o *object) loadTexture(path string, log zerolog.Logger) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		log.Warn().Err(err).Str("texture", path).Msg("texture not found, drawing untextured")
		return
	}
	o.texture = rl.LoadTexture(path)
	if !rl.IsTextureValid(o.texture) {
		log.Warn().Str("texture", path).Msg("failed to load texture, drawing untextured")
		return
	}
	rl.SetMaterialTexture(&o.material, rl.MapDiffuse, o.texture)
}

// draw relights the object and draws it at the given scene angle
func (o *object) draw(angle float64) {
	if o.mesh.VaoID == 0 {
		return
	}
	tr := objectTransform(angle, o.offset)
	bake(o.model, tr, o.light, o.colors)
	rl.UpdateMeshBuffer(o.mesh, colorBufferIndex, o.colors, 0)
	rl.DrawMesh(o.mesh, o.material, toMatrix(tr))
}

func (o *object) unload() {
	if o.texture.ID != 0 {
		rl.UnloadTexture(o.texture)
	}
	if o.mesh.VaoID != 0 {
		rl.UnloadMesh(&o.mesh)
	}
}

func toMatrix(tr transform) rl.Matrix {
	return rl.Matrix{
		M0: float32(tr.m[0][0]), M4: float32(tr.m[0][1]), M8: float32(tr.m[0][2]), M12: float32(tr.t.X),
		M1: float32(tr.m[1][0]), M5: float32(tr.m[1][1]), M9: float32(tr.m[1][2]), M13: float32(tr.t.Y),
		M2: float32(tr.m[2][0]), M6: float32(tr.m[2][1]), M10: float32(tr.m[2][2]), M14: float32(tr.t.Z),
		M15: 1,
	}
}

// worldBounds returns the bounds of all objects placed at angle
func worldBounds(objects []*object, angle float64) geometry.BoundingBox {
	bbox := geometry.NewBoundingBox()
	for _, o := range objects {
		tr := objectTransform(angle, o.offset)
		for _, t := range o.model.Triangles {
			bbox.Extend(tr.apply(t.V1))
			bbox.Extend(tr.apply(t.V2))
			bbox.Extend(tr.apply(t.V3))
		}
	}
	return bbox
}
