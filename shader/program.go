// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package shader

import (
	"errors"
	"fmt"

	"github.com/devblok/glaze/resource"
)

// ErrDuplicateVariable is returned when a program declares the same
// name twice within attributes or within uniforms.
var ErrDuplicateVariable = errors.New("duplicate variable name")

// NewProgram wraps a linked program resource together with its
// introspected variables. All variables get stamped with one fresh
// generation. Attribute and uniform names must each be unique.
func NewProgram(res *resource.Resource, attributes, uniforms []Variable) (*Program, error) {
	p := &Program{
		res:        res,
		gen:        NextGeneration(),
		attributes: make([]Variable, len(attributes)),
		uniforms:   make([]Variable, len(uniforms)),
		attrByName: make(map[string]*Variable, len(attributes)),
		uniByName:  make(map[string]*Variable, len(uniforms)),
	}
	copy(p.attributes, attributes)
	copy(p.uniforms, uniforms)

	for idx := range p.attributes {
		v := &p.attributes[idx]
		v.Gen = p.gen
		if _, exists := p.attrByName[v.Name]; exists {
			return nil, fmt.Errorf("attribute %q: %w", v.Name, ErrDuplicateVariable)
		}
		p.attrByName[v.Name] = v
	}
	for idx := range p.uniforms {
		v := &p.uniforms[idx]
		v.Gen = p.gen
		if _, exists := p.uniByName[v.Name]; exists {
			return nil, fmt.Errorf("uniform %q: %w", v.Name, ErrDuplicateVariable)
		}
		p.uniByName[v.Name] = v
	}
	return p, nil
}

// Program is a linked shader program and its declared interface.
// It is immutable after construction.
type Program struct {
	res *resource.Resource
	gen uint64

	attributes []Variable
	uniforms   []Variable
	attrByName map[string]*Variable
	uniByName  map[string]*Variable
}

// Resource returns the program's backing resource.
func (p *Program) Resource() *resource.Resource {
	return p.res
}

// Gen returns the generation stamped onto this program's variables.
func (p *Program) Gen() uint64 {
	return p.gen
}

// Handle returns the driver handle of the linked program. ok is
// false when the backing resource is not ready.
func (p *Program) Handle() (uint32, bool) {
	if p.res == nil {
		return 0, false
	}
	h, ok := p.res.Handle()
	if !ok {
		return 0, false
	}
	return h.ID, true
}

// Same reports whether o is this very program in this very
// generation. A relink of the same driver object produces a program
// that is not Same.
func (p *Program) Same(o *Program) bool {
	if p == nil || o == nil {
		return false
	}
	return p.res == o.res && p.gen == o.gen
}

// Attributes returns the declared attributes in introspection order.
// A matrix attribute is a single entry. The slice is shared, treat
// it as read-only.
func (p *Program) Attributes() []Variable {
	return p.attributes
}

// Uniforms returns the declared uniforms in introspection order.
// The slice is shared, treat it as read-only.
func (p *Program) Uniforms() []Variable {
	return p.uniforms
}

// Attribute looks an attribute up by name, nil when not declared.
func (p *Program) Attribute(name string) *Variable {
	return p.attrByName[name]
}

// Uniform looks a uniform up by name, nil when not declared.
func (p *Program) Uniform(name string) *Variable {
	return p.uniByName[name]
}
