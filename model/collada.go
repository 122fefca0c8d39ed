// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	glm "github.com/go-gl/mathgl/mgl32"
)

// package errors
var (
	ErrNoGeometry    = errors.New("document has no geometry")
	ErrMissingSource = errors.New("source not found")
	ErrIndexRange    = errors.New("triangle index out of range")
)

// NewFromCollada imports the first geometry of a COLLADA document.
// Positions and texture coordinates come from the triangle inputs,
// colors default to white. Normals are decoded but not kept, the
// vertex layout has no slot for them.
func NewFromCollada(r io.Reader) ([]Vertex, error) {
	var doc Collada
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	if len(doc.Geometries) == 0 {
		return nil, ErrNoGeometry
	}
	return doc.Geometries[0].Mesh.vertices()
}

// Collada is the top-level Collada object
type Collada struct {
	Geometries []Geometry `xml:"library_geometries>geometry"`
}

// Geometry represents Collada's geometry
type Geometry struct {
	Mesh Mesh   `xml:"mesh"`
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

// Mesh contains all the primitive data
type Mesh struct {
	Source    []Source  `xml:"source"`
	Vertices  Vertices  `xml:"vertices"`
	Triangles Triangles `xml:"triangles"`
}

// vertices assembles the vertex stream the triangle index describes.
func (m Mesh) vertices() ([]Vertex, error) {
	stride := 0
	var vertexInput, texInput *Input
	for i, in := range m.Triangles.Inputs {
		if int(in.Offset)+1 > stride {
			stride = int(in.Offset) + 1
		}
		switch in.Semantic {
		case "VERTEX":
			vertexInput = &m.Triangles.Inputs[i]
		case "TEXCOORD":
			texInput = &m.Triangles.Inputs[i]
		}
	}
	if vertexInput == nil || stride == 0 {
		return nil, fmt.Errorf("triangles have no vertex input: %w", ErrMissingSource)
	}

	positions, err := m.positionData(vertexInput.Source)
	if err != nil {
		return nil, err
	}

	var uvs []float32
	if texInput != nil {
		src, err := m.source(texInput.Source)
		if err != nil {
			return nil, err
		}
		uvs = src.Floats.Data
	}

	index := m.Triangles.Index
	vertices := make([]Vertex, 0, len(index)/stride)
	for idx := 0; idx+stride <= len(index); idx += stride {
		group := index[idx : idx+stride]

		pi := group[vertexInput.Offset] * 3
		if pi < 0 || pi+3 > len(positions) {
			return nil, fmt.Errorf("position %d: %w", group[vertexInput.Offset], ErrIndexRange)
		}
		vert := Vertex{
			Pos:   glm.Vec3{positions[pi], positions[pi+1], positions[pi+2]},
			Color: glm.Vec4{1, 1, 1, 1},
		}

		if texInput != nil {
			ti := group[texInput.Offset] * 2
			if ti < 0 || ti+2 > len(uvs) {
				return nil, fmt.Errorf("texcoord %d: %w", group[texInput.Offset], ErrIndexRange)
			}
			vert.UV = glm.Vec2{uvs[ti], uvs[ti+1]}
		}
		vertices = append(vertices, vert)
	}
	return vertices, nil
}

// positionData resolves the VERTEX input, which points at the vertices
// element that in turn names the POSITION source.
func (m Mesh) positionData(ref string) ([]float32, error) {
	if strings.TrimPrefix(ref, "#") == m.Vertices.ID {
		for _, in := range m.Vertices.Inputs {
			if in.Semantic == "POSITION" {
				src, err := m.source(in.Source)
				if err != nil {
					return nil, err
				}
				return src.Floats.Data, nil
			}
		}
		return nil, fmt.Errorf("vertices name no POSITION input: %w", ErrMissingSource)
	}
	src, err := m.source(ref)
	if err != nil {
		return nil, err
	}
	return src.Floats.Data, nil
}

func (m Mesh) source(ref string) (Source, error) {
	id := strings.TrimPrefix(ref, "#")
	for _, s := range m.Source {
		if s.ID == id {
			return s, nil
		}
	}
	return Source{}, fmt.Errorf("%s: %w", ref, ErrMissingSource)
}

// Source links to other sources where data is present
type Source struct {
	ID     string `xml:"id,attr"`
	Floats Floats `xml:"float_array"`
	// technique_common define accessing rules, add if needed
}

// Floats is the array of floats
type Floats struct {
	ID   string
	Data []float32
}

// UnmarshalXML unmarshals the array of floats
func (f *Floats) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "id":
			f.ID = attr.Value
		}
	}
	var raw string
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	for _, r := range strings.Fields(raw) {
		num, err := strconv.ParseFloat(r, 32)
		if err != nil {
			return err
		}
		f.Data = append(f.Data, float32(num))
	}
	return nil
}

// Vertices contains the list of vertices
type Vertices struct {
	ID     string  `xml:"id,attr"`
	Inputs []Input `xml:"input"`
}

// Triangles contain the list of triangles
type Triangles struct {
	Count    int     `xml:"count,attr"`
	Material string  `xml:"material,attr"`
	Inputs   []Input `xml:"input"`
	Index    []int
}

// UnmarshalXML parses the index list
func (t *Triangles) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "count":
			num, err := strconv.Atoi(attr.Value)
			if err != nil {
				return err
			}
			t.Count = num
		case "material":
			t.Material = attr.Value
		}
	}

	for {
		token, err := d.Token()
		if err != nil {
			return err
		}

		switch el := token.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "input":
				var input Input
				if err := d.DecodeElement(&input, &el); err != nil {
					return err
				}
				t.Inputs = append(t.Inputs, input)
			case "p":
				var raw string
				if err := d.DecodeElement(&raw, &el); err != nil {
					return err
				}
				ints := make([]int, 0, len(raw)/2)
				for _, r := range strings.Fields(raw) {
					num, err := strconv.Atoi(r)
					if err != nil {
						return err
					}
					ints = append(ints, num)
				}
				t.Index = ints
			}
		case xml.EndElement:
			if el == start.End() {
				return nil
			}
		}
	}
}

// Input is Collada'a input type
type Input struct {
	Semantic string `xml:"semantic,attr"`
	Source   string `xml:"source,attr"`
	Offset   uint   `xml:"offset,attr"`
}
