// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package track

import (
	"fmt"

	glm "github.com/go-gl/mathgl/mgl32"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/glaze/glx"
	"github.com/devblok/glaze/resource"
	"github.com/devblok/glaze/shader"
)

// SetFloat sets a float uniform.
func (t *Tracker) SetFloat(name string, x float32) error {
	b, err := t.scalarUniform(name, shader.Float)
	if err != nil || b == nil {
		return err
	}
	t.setFloats(b, x)
	return nil
}

// SetVec2 sets a vec2 uniform.
func (t *Tracker) SetVec2(name string, v glm.Vec2) error {
	b, err := t.scalarUniform(name, shader.Vec2)
	if err != nil || b == nil {
		return err
	}
	t.setFloats(b, v[0], v[1])
	return nil
}

// SetVec3 sets a vec3 uniform.
func (t *Tracker) SetVec3(name string, v glm.Vec3) error {
	b, err := t.scalarUniform(name, shader.Vec3)
	if err != nil || b == nil {
		return err
	}
	t.setFloats(b, v[0], v[1], v[2])
	return nil
}

// SetVec4 sets a vec4 uniform.
func (t *Tracker) SetVec4(name string, v glm.Vec4) error {
	b, err := t.scalarUniform(name, shader.Vec4)
	if err != nil || b == nil {
		return err
	}
	t.setFloats(b, v[0], v[1], v[2], v[3])
	return nil
}

// SetMat2 sets a mat2 uniform, column-major.
func (t *Tracker) SetMat2(name string, m glm.Mat2) error {
	b, err := t.scalarUniform(name, shader.Mat2)
	if err != nil || b == nil {
		return err
	}
	t.setFloats(b, m[:]...)
	return nil
}

// SetMat3 sets a mat3 uniform, column-major.
func (t *Tracker) SetMat3(name string, m glm.Mat3) error {
	b, err := t.scalarUniform(name, shader.Mat3)
	if err != nil || b == nil {
		return err
	}
	t.setFloats(b, m[:]...)
	return nil
}

// SetMat4 sets a mat4 uniform, column-major.
func (t *Tracker) SetMat4(name string, m glm.Mat4) error {
	b, err := t.scalarUniform(name, shader.Mat4)
	if err != nil || b == nil {
		return err
	}
	t.setFloats(b, m[:]...)
	return nil
}

// SetInt sets an int uniform.
func (t *Tracker) SetInt(name string, x int32) error {
	b, err := t.scalarUniform(name, shader.Int)
	if err != nil || b == nil {
		return err
	}
	t.setInts(b, x)
	return nil
}

// SetIVec2 sets an ivec2 uniform.
func (t *Tracker) SetIVec2(name string, x, y int32) error {
	b, err := t.scalarUniform(name, shader.IVec2)
	if err != nil || b == nil {
		return err
	}
	t.setInts(b, x, y)
	return nil
}

// SetIVec3 sets an ivec3 uniform.
func (t *Tracker) SetIVec3(name string, x, y, z int32) error {
	b, err := t.scalarUniform(name, shader.IVec3)
	if err != nil || b == nil {
		return err
	}
	t.setInts(b, x, y, z)
	return nil
}

// SetIVec4 sets an ivec4 uniform.
func (t *Tracker) SetIVec4(name string, x, y, z, w int32) error {
	b, err := t.scalarUniform(name, shader.IVec4)
	if err != nil || b == nil {
		return err
	}
	t.setInts(b, x, y, z, w)
	return nil
}

// SetUInt sets a uint uniform.
func (t *Tracker) SetUInt(name string, x uint32) error {
	b, err := t.scalarUniform(name, shader.UInt)
	if err != nil || b == nil {
		return err
	}
	t.setInts(b, int32(x))
	return nil
}

// SetUVec2 sets a uvec2 uniform.
func (t *Tracker) SetUVec2(name string, x, y uint32) error {
	b, err := t.scalarUniform(name, shader.UVec2)
	if err != nil || b == nil {
		return err
	}
	t.setInts(b, int32(x), int32(y))
	return nil
}

// SetUVec3 sets a uvec3 uniform.
func (t *Tracker) SetUVec3(name string, x, y, z uint32) error {
	b, err := t.scalarUniform(name, shader.UVec3)
	if err != nil || b == nil {
		return err
	}
	t.setInts(b, int32(x), int32(y), int32(z))
	return nil
}

// SetUVec4 sets a uvec4 uniform.
func (t *Tracker) SetUVec4(name string, x, y, z, w uint32) error {
	b, err := t.scalarUniform(name, shader.UVec4)
	if err != nil || b == nil {
		return err
	}
	t.setInts(b, int32(x), int32(y), int32(z), int32(w))
	return nil
}

// SetBool sets a bool uniform, encoded as 0 or 1.
func (t *Tracker) SetBool(name string, v bool) error {
	b, err := t.scalarUniform(name, shader.Bool)
	if err != nil || b == nil {
		return err
	}
	var encoded int32
	if v {
		encoded = 1
	}
	t.setInts(b, encoded)
	return nil
}

// SetBVec2 sets a bvec2 uniform.
func (t *Tracker) SetBVec2(name string, x, y bool) error {
	b, err := t.scalarUniform(name, shader.BVec2)
	if err != nil || b == nil {
		return err
	}
	t.setInts(b, boolInt(x), boolInt(y))
	return nil
}

// SetBVec3 sets a bvec3 uniform.
func (t *Tracker) SetBVec3(name string, x, y, z bool) error {
	b, err := t.scalarUniform(name, shader.BVec3)
	if err != nil || b == nil {
		return err
	}
	t.setInts(b, boolInt(x), boolInt(y), boolInt(z))
	return nil
}

// SetBVec4 sets a bvec4 uniform.
func (t *Tracker) SetBVec4(name string, x, y, z, w bool) error {
	b, err := t.scalarUniform(name, shader.BVec4)
	if err != nil || b == nil {
		return err
	}
	t.setInts(b, boolInt(x), boolInt(y), boolInt(z), boolInt(w))
	return nil
}

// SetFloatArray sets a float-class array uniform from flattened
// values, element count and shape validated against the declaration.
// Arrays are always pushed, comparing big buffers costs more than
// the push saves.
func (t *Tracker) SetFloatArray(name string, values []float32) error {
	b, err := t.uniform(name)
	if err != nil || b == nil {
		return err
	}
	if !b.v.Type.IsFloat() {
		return fmt.Errorf("uniform %q is %s, not float-class: %w", name, b.v.Type, ErrShapeMismatch)
	}
	if err := t.checkArrayShape(b, len(values)); err != nil {
		return err
	}
	copy(b.floats, values)
	b.valid = true
	t.funcs.Uniform(b.v, b.floats, nil, b.v.Count())
	return nil
}

// SetIntArray sets an integer-class array uniform from flattened
// values.
func (t *Tracker) SetIntArray(name string, values []int32) error {
	b, err := t.uniform(name)
	if err != nil || b == nil {
		return err
	}
	if !b.v.Type.IsInt() || b.v.Type.IsSampler() {
		return fmt.Errorf("uniform %q is %s, not integer-class: %w", name, b.v.Type, ErrShapeMismatch)
	}
	if err := t.checkArrayShape(b, len(values)); err != nil {
		return err
	}
	copy(b.ints, values)
	b.valid = true
	t.funcs.Uniform(b.v, nil, b.ints, b.v.Count())
	return nil
}

// SetMat4Array sets a mat4 array uniform, the usual shape of a bone
// palette.
func (t *Tracker) SetMat4Array(name string, ms []glm.Mat4) error {
	flat := make([]float32, 0, len(ms)*16)
	for idx := range ms {
		flat = append(flat, ms[idx][:]...)
	}
	return t.SetFloatArray(name, flat)
}

// SetTexture points a sampler uniform at a texture resource. Units
// are claimed lazily and shared between samplers of the same
// texture. A nil resource releases the sampler's share. Failures to
// lock the texture leave the sampler unbound and are not errors.
func (t *Tracker) SetTexture(name string, res *resource.Resource) error {
	b, err := t.uniform(name)
	if err != nil || b == nil {
		return err
	}
	if !b.v.Type.IsSampler() {
		return fmt.Errorf("uniform %q is %s, not a sampler: %w", name, b.v.Type, ErrShapeMismatch)
	}

	if res == nil {
		if b.bound {
			t.releaseUnitShare(b.unit)
			b.bound = false
			b.unit = -1
		}
		return nil
	}

	if b.bound && t.units[b.unit].res == res {
		return nil
	}
	if b.bound {
		t.releaseUnitShare(b.unit)
		b.bound = false
		b.unit = -1
	}

	// share a unit that already carries this texture
	for unit := range t.units {
		u := &t.units[unit]
		if u.refs > 0 && u.res == res {
			u.refs++
			b.unit = unit
			b.bound = true
			t.pushUnit(b)
			return nil
		}
	}

	// claim the first free unit
	for unit := range t.units {
		u := &t.units[unit]
		if u.refs != 0 {
			continue
		}

		l := t.mgr.Lock(res, t.lockHandler(slotRef{kind: slotTexture, index: unit}))
		h, ok := l.Handle()
		if !ok || h.ID == 0 {
			t.mgr.Unlock(l)
			log.WithFields(log.Fields{
				"sampler": name,
				"texture": res.ID(),
			}).Debug("texture unavailable, sampler stays unbound")
			return nil
		}

		target := textureTarget(b.v.Type)
		u.res = res
		u.lock = l
		u.target = target
		u.handle = h.ID
		u.refs = 1
		t.funcs.BindTexture(unit, target, h.ID)
		u.bound = true

		b.unit = unit
		b.bound = true
		t.pushUnit(b)
		return nil
	}

	log.WithField("sampler", name).Debug("no free texture unit, sampler stays unbound")
	return nil
}

// releaseUnitShare drops one sampler off a unit. The driver unbind
// and the lock release happen when the last share goes.
func (t *Tracker) releaseUnitShare(unit int) {
	u := &t.units[unit]
	u.refs--
	if u.refs > 0 {
		return
	}
	if u.bound {
		t.funcs.BindTexture(unit, u.target, 0)
	}
	if u.lock != nil {
		t.mgr.Unlock(u.lock)
	}
	*u = textureUnit{}
}

// pushUnit pushes the sampler's unit index, skipping the push when
// the driver already has it.
func (t *Tracker) pushUnit(b *uniformBinding) {
	if b.valid && b.ints[0] == int32(b.unit) {
		return
	}
	b.ints[0] = int32(b.unit)
	b.valid = true
	t.funcs.Uniform(b.v, nil, b.ints, 1)
}

func (t *Tracker) setFloats(b *uniformBinding, values ...float32) {
	if b.valid && !b.v.Type.IsMatrix() && floatsEqual(b.floats, values) {
		return
	}
	copy(b.floats, values)
	b.valid = true
	t.funcs.Uniform(b.v, b.floats, nil, 1)
}

func (t *Tracker) setInts(b *uniformBinding, values ...int32) {
	if b.valid && intsEqual(b.ints, values) {
		return
	}
	copy(b.ints, values)
	b.valid = true
	t.funcs.Uniform(b.v, nil, b.ints, 1)
}

// scalarUniform validates a single-element uniform of exactly the
// given type. nil with nil error means unsupported, a silent no-op.
func (t *Tracker) scalarUniform(name string, expected shader.Type) (*uniformBinding, error) {
	b, err := t.uniform(name)
	if err != nil || b == nil {
		return b, err
	}
	if b.v.Type != expected {
		return nil, fmt.Errorf("uniform %q is %s, not %s: %w", name, b.v.Type, expected, ErrShapeMismatch)
	}
	if b.v.Count() != 1 {
		return nil, fmt.Errorf("uniform %q is an array of %d: %w", name, b.v.Count(), ErrShapeMismatch)
	}
	return b, nil
}

func (t *Tracker) uniform(name string) (*uniformBinding, error) {
	if !t.sized {
		return nil, ErrNotActivated
	}
	if t.program == nil {
		return nil, ErrNoShader
	}
	b, exists := t.uniforms[name]
	if !exists {
		return nil, fmt.Errorf("uniform %q: %w", name, ErrNoSuchVariable)
	}
	if b.v.Type == shader.Unsupported {
		return nil, nil
	}
	return b, nil
}

func (t *Tracker) checkArrayShape(b *uniformBinding, flat int) error {
	components := b.v.Type.Components()
	if flat%components != 0 {
		return fmt.Errorf("uniform %q takes elements of %d components, got %d values: %w",
			b.v.Name, components, flat, ErrShapeMismatch)
	}
	if flat/components != b.v.Count() {
		return fmt.Errorf("uniform %q declares %d elements, got %d: %w",
			b.v.Name, b.v.Count(), flat/components, ErrShapeMismatch)
	}
	return nil
}

func textureTarget(t shader.Type) glx.TextureTarget {
	if t == shader.SamplerCube {
		return glx.TextureCubeMap
	}
	return glx.Texture2D
}

func floatsEqual(a []float32, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for idx := range a {
		if a[idx] != b[idx] {
			return false
		}
	}
	return true
}

func intsEqual(a []int32, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for idx := range a {
		if a[idx] != b[idx] {
			return false
		}
	}
	return true
}

func boolInt(v bool) int32 {
	if v {
		return 1
	}
	return 0
}
