// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gl41

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
)

const shaderSuffix = ".glsl"

// ProgramSource holds both stage sources of one program.
type ProgramSource struct {
	Name     string
	Vertex   string
	Fragment string
}

// LoadShaderDirectory gathers program sources from a directory. It
// is important that file names contain exactly two dots: the first
// node is the program name, the second the stage, so transform
// programs live in transform.vert.glsl and transform.frag.glsl.
// Files with other stages or extensions are skipped, as are programs
// missing one of the two stages.
func LoadShaderDirectory(dir string) ([]ProgramSource, error) {
	byName := make(map[string]*ProgramSource)
	var order []string

	if err := filepath.Walk(dir, func(path string, f os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !strings.HasSuffix(f.Name(), shaderSuffix) {
			return nil
		}
		nodes := strings.Split(strings.TrimSuffix(f.Name(), shaderSuffix), ".")
		if len(nodes) != 2 {
			return nil
		}
		if nodes[1] != "vert" && nodes[1] != "frag" {
			return nil
		}

		data, err := ioutil.ReadFile(path)
		if err != nil {
			return err
		}

		src, exists := byName[nodes[0]]
		if !exists {
			src = &ProgramSource{Name: nodes[0]}
			byName[nodes[0]] = src
			order = append(order, nodes[0])
		}
		if nodes[1] == "vert" {
			src.Vertex = string(data)
		} else {
			src.Fragment = string(data)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	var sources []ProgramSource
	for _, name := range order {
		src := byName[name]
		if src.Vertex == "" || src.Fragment == "" {
			continue
		}
		sources = append(sources, *src)
	}
	return sources, nil
}
