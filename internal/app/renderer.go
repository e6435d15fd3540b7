package app

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/philipparndt/annoview/pkg/geometry"
	"github.com/philipparndt/annoview/pkg/mesh"
	"github.com/philipparndt/annoview/pkg/viewer"
)

// meshBuffer index of the vertex colours in a raylib mesh
const colorBufferIndex = 3

// modelArrays flattens the model into per-vertex position and normal arrays
func modelArrays(model *mesh.Model) (vertices, normals []float32) {
	vertexCount := len(model.Triangles) * 3
	vertices = make([]float32, vertexCount*3)
	normals = make([]float32, vertexCount*3)

	idx := 0
	for _, triangle := range model.Triangles {
		normal := triangle.CalculateNormal()
		for _, v := range [3]geometry.Vector3{triangle.V1, triangle.V2, triangle.V3} {
			vertices[idx*3+0] = float32(v.X)
			vertices[idx*3+1] = float32(v.Y)
			vertices[idx*3+2] = float32(v.Z)
			normals[idx*3+0] = float32(normal.X)
			normals[idx*3+1] = float32(normal.Y)
			normals[idx*3+2] = float32(normal.Z)
			idx++
		}
	}
	return vertices, normals
}

// bakeColors writes the lit model colour of every vertex into colors.
// Faces are lit on whichever side faces the light.
func bakeColors(model *mesh.Model, light *viewer.FollowLight, colors []uint8) {
	base := viewer.ModelColor
	dir := light.Direction()
	idx := 0
	for _, triangle := range model.Triangles {
		normal := triangle.CalculateNormal()
		if normal.Dot(dir) > 0 {
			normal = normal.Negate()
		}
		r := light.ShadeByte(base.R, normal)
		g := light.ShadeByte(base.G, normal)
		b := light.ShadeByte(base.B, normal)
		for i := 0; i < 3; i++ {
			colors[idx*4+0] = r
			colors[idx*4+1] = g
			colors[idx*4+2] = b
			colors[idx*4+3] = 255
			idx++
		}
	}
}

// buildMesh uploads the model as a dynamic mesh so colours can be rebaked
func (app *App) buildMesh(model *mesh.Model) {
	vertices, normals := modelArrays(model)
	colors := make([]uint8, len(model.Triangles)*3*4)
	bakeColors(model, app.View.light, colors)

	m := rl.Mesh{
		VertexCount:   int32(len(model.Triangles) * 3),
		TriangleCount: int32(len(model.Triangles)),
	}
	if len(vertices) > 0 {
		m.Vertices = &vertices[0]
		m.Normals = &normals[0]
		m.Colors = &colors[0]
		rl.UploadMesh(&m, true)
	}

	app.Model.mesh = m
	app.Model.vertices = vertices
	app.Model.normals = normals
	app.Model.colors = colors
}

// unloadMesh frees the GPU copy of the current mesh
func (app *App) unloadMesh() {
	if app.Model.mesh.VaoID != 0 {
		rl.UnloadMesh(&app.Model.mesh)
	}
	app.Model.mesh = rl.Mesh{}
}

// updateLighting moves the follow light with the camera and mouse and
// rebakes the mesh colours when it changed
func (app *App) updateLighting() {
	cam := app.Camera.orbit
	moved := app.View.light.Update(cam.Position, cam.Forward(), app.mouseRay(rl.GetMousePosition()))
	if !moved && !app.View.lightDirty {
		return
	}
	app.View.lightDirty = false
	if app.Model.model == nil || len(app.Model.colors) == 0 {
		return
	}
	bakeColors(app.Model.model, app.View.light, app.Model.colors)
	rl.UpdateMeshBuffer(app.Model.mesh, colorBufferIndex, app.Model.colors, 0)
}

// drawModel draws the model mesh
func (app *App) drawModel() {
	if app.Model.mesh.VaoID == 0 {
		return
	}
	rl.DrawMesh(app.Model.mesh, app.material, rl.MatrixIdentity())
}
