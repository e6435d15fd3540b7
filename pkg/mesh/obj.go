package mesh

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/philipparndt/annoview/pkg/geometry"
)

// DecodeOBJ reads the geometry of a Wavefront OBJ file: positions, texture
// coordinates and faces. Polygons are fan-triangulated. Texture coordinates
// are flipped to run down the image.
func DecodeOBJ(r io.Reader) (*Model, error) {
	scanner := bufio.NewScanner(r)
	model := NewModel("")
	var positions []geometry.Vector3
	var texcoords []UV
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "o":
			if model.Name == "" && len(fields) > 1 {
				model.Name = strings.Join(fields[1:], " ")
			}
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: vertex needs 3 coordinates", lineNo)
			}
			v, err := parseVector(fields[1:4])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			positions = append(positions, v)
		case "vt":
			uv, err := parseTexCoord(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			texcoords = append(texcoords, uv)
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 vertices", lineNo)
			}
			refs := make([]objRef, 0, len(fields)-1)
			textured := true
			for _, f := range fields[1:] {
				ref, err := parseOBJRef(f, len(positions), len(texcoords))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				textured = textured && ref.uv >= 0
				refs = append(refs, ref)
			}
			for k := 1; k+1 < len(refs); k++ {
				a, b, c := refs[0], refs[k], refs[k+1]
				t := geometry.Triangle{V1: positions[a.pos], V2: positions[b.pos], V3: positions[c.pos]}
				t.Normal = t.CalculateNormal()
				if textured {
					model.AddTexturedTriangle(t, [3]UV{texcoords[a.uv], texcoords[b.uv], texcoords[c.uv]})
				} else {
					model.AddTriangle(t)
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading OBJ: %w", err)
	}
	return model, nil
}

// parseTexCoord reads "u [v [w]]"; a missing v is 0 and w is ignored
func parseTexCoord(fields []string) (UV, error) {
	if len(fields) == 0 {
		return UV{}, fmt.Errorf("texture coordinate needs at least 1 value")
	}
	u, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return UV{}, fmt.Errorf("invalid texture coordinate %q", fields[0])
	}
	v := 0.0
	if len(fields) > 1 {
		if v, err = strconv.ParseFloat(fields[1], 64); err != nil {
			return UV{}, fmt.Errorf("invalid texture coordinate %q", fields[1])
		}
	}
	return UV{U: u, V: 1 - v}, nil
}

// objRef is one corner of a face; uv is -1 when the corner has no texture
// coordinate
type objRef struct {
	pos, uv int
}

// parseOBJRef reads "3", "3/1", "3//2" or "-1/-1/2" into zero based indices
func parseOBJRef(ref string, positions, texcoords int) (objRef, error) {
	head, rest, _ := strings.Cut(ref, "/")
	pos, err := resolveOBJIndex(head, positions)
	if err != nil {
		return objRef{}, fmt.Errorf("face %q: %w", ref, err)
	}
	out := objRef{pos: pos, uv: -1}

	vt, _, _ := strings.Cut(rest, "/")
	if vt == "" {
		return out, nil
	}
	if out.uv, err = resolveOBJIndex(vt, texcoords); err != nil {
		return objRef{}, fmt.Errorf("face %q: %w", ref, err)
	}
	return out, nil
}

// resolveOBJIndex turns a one based or negative (relative) index into a
// zero based one
func resolveOBJIndex(s string, count int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", s)
	}
	switch {
	case n > 0 && n <= count:
		return n - 1, nil
	case n < 0 && -n <= count:
		return count + n, nil
	default:
		return 0, fmt.Errorf("index %d out of range (%d defined)", n, count)
	}
}
