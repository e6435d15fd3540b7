package annotation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/philipparndt/annoview/pkg/geometry"
)

// Entry is the serializable view of an annotation
type Entry struct {
	Text     string
	Position geometry.Vector3
}

type position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type record struct {
	Text     string   `json:"text"`
	Position position `json:"position"`
}

// rawRecord uses pointers so missing fields can be told apart from zero values
type rawRecord struct {
	Text     *string `json:"text"`
	Position *struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
		Z *float64 `json:"z"`
	} `json:"position"`
}

// Encode writes entries as an indented JSON array
func Encode(w io.Writer, entries []Entry) error {
	records := make([]record, len(entries))
	for i, e := range entries {
		records[i] = record{
			Text:     e.Text,
			Position: position{X: e.Position.X, Y: e.Position.Y, Z: e.Position.Z},
		}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal annotations: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// EncodeString returns entries as a compact JSON array
func EncodeString(entries []Entry) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, entries); err != nil {
		return "", err
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, buf.Bytes()); err != nil {
		return "", err
	}
	return compact.String(), nil
}

// Decode parses a JSON array of annotations. Every entry must carry text
// and a position with x, y and z; unknown fields are ignored. Errors wrap
// ErrInvalidDocument.
func Decode(r io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read annotations: %w", err)
	}

	var raw []rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: expected a list of annotations", ErrInvalidDocument)
	}

	entries := make([]Entry, 0, len(raw))
	for i, r := range raw {
		switch {
		case r.Text == nil:
			return nil, fmt.Errorf("%w: entry %d has no text", ErrInvalidDocument, i)
		case r.Position == nil:
			return nil, fmt.Errorf("%w: entry %d has no position", ErrInvalidDocument, i)
		case r.Position.X == nil || r.Position.Y == nil || r.Position.Z == nil:
			return nil, fmt.Errorf("%w: entry %d position needs x, y and z", ErrInvalidDocument, i)
		}
		entries = append(entries, Entry{
			Text:     *r.Text,
			Position: geometry.NewVector3(*r.Position.X, *r.Position.Y, *r.Position.Z),
		})
	}
	return entries, nil
}

// DecodeString parses a document held in a string
func DecodeString(s string) ([]Entry, error) {
	return Decode(bytes.NewReader([]byte(s)))
}
