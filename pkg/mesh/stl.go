package mesh

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/philipparndt/annoview/pkg/geometry"
)

const (
	stlHeaderSize   = 80
	stlTriangleSize = 50
)

// DecodeSTL parses ASCII or binary STL data.
// Binary files whose header happens to start with "solid" are detected by size.
func DecodeSTL(data []byte) (*Model, error) {
	if isBinarySTL(data) {
		return decodeBinarySTL(data)
	}
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return decodeASCIISTL(bytes.NewReader(data))
	}
	return decodeBinarySTL(data)
}

func isBinarySTL(data []byte) bool {
	if len(data) < stlHeaderSize+4 {
		return false
	}
	count := binary.LittleEndian.Uint32(data[stlHeaderSize:])
	return len(data) == stlHeaderSize+4+int(count)*stlTriangleSize
}

func decodeASCIISTL(r io.Reader) (*Model, error) {
	scanner := bufio.NewScanner(r)
	model := NewModel("")

	var normal geometry.Vector3
	vertices := make([]geometry.Vector3, 0, 3)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "solid":
			if len(fields) > 1 {
				model.Name = strings.Join(fields[1:], " ")
			}
		case "facet":
			if len(fields) >= 5 && fields[1] == "normal" {
				v, err := parseVector(fields[2:5])
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				normal = v
			}
		case "vertex":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: vertex needs 3 coordinates", lineNo)
			}
			v, err := parseVector(fields[1:4])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			vertices = append(vertices, v)
		case "endfacet":
			if len(vertices) == 3 {
				model.AddTriangle(geometry.NewTriangle(normal, vertices[0], vertices[1], vertices[2]))
			}
			vertices = vertices[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASCII STL: %w", err)
	}
	return model, nil
}

func decodeBinarySTL(data []byte) (*Model, error) {
	if len(data) < stlHeaderSize+4 {
		return nil, fmt.Errorf("binary STL too short: %d bytes", len(data))
	}
	model := NewModel(string(bytes.TrimRight(data[:stlHeaderSize], "\x00 ")))

	count := int(binary.LittleEndian.Uint32(data[stlHeaderSize:]))
	body := data[stlHeaderSize+4:]
	if len(body) < count*stlTriangleSize {
		return nil, fmt.Errorf("binary STL truncated: expected %d triangles, have data for %d",
			count, len(body)/stlTriangleSize)
	}

	readVec := func(b []byte) geometry.Vector3 {
		var f [3]float32
		for i := range f {
			f[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
		}
		return geometry.NewVector3(float64(f[0]), float64(f[1]), float64(f[2]))
	}

	for i := 0; i < count; i++ {
		rec := body[i*stlTriangleSize:]
		model.AddTriangle(geometry.NewTriangle(
			readVec(rec[0:]),
			readVec(rec[12:]),
			readVec(rec[24:]),
			readVec(rec[36:]),
		))
	}
	return model, nil
}

// EncodeBinarySTL writes the model as binary STL
func EncodeBinarySTL(w io.Writer, m *Model) error {
	header := make([]byte, stlHeaderSize)
	copy(header, m.Name)
	if _, err := w.Write(header); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(m.Triangles))); err != nil {
		return err
	}
	for _, t := range m.Triangles {
		rec := [12]float32{
			float32(t.Normal.X), float32(t.Normal.Y), float32(t.Normal.Z),
			float32(t.V1.X), float32(t.V1.Y), float32(t.V1.Z),
			float32(t.V2.X), float32(t.V2.Y), float32(t.V2.Z),
			float32(t.V3.X), float32(t.V3.Y), float32(t.V3.Z),
		}
		if err := binary.Write(w, binary.LittleEndian, rec); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(0)); err != nil {
			return err
		}
	}
	return nil
}

func parseVector(fields []string) (geometry.Vector3, error) {
	var c [3]float64
	for i, f := range fields[:3] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return geometry.Vector3{}, fmt.Errorf("invalid coordinate %q", f)
		}
		c[i] = v
	}
	return geometry.NewVector3(c[0], c[1], c[2]), nil
}
