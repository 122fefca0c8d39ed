// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package track

import (
	"fmt"

	glm "github.com/go-gl/mathgl/mgl32"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/glaze/shader"
)

// BindAttributeBuffer sources one column of an attribute from a
// vertex buffer. A nil pointer unbinds the column back to a zero
// literal. When the buffer cannot be locked the column also falls
// back to zeros, silently, the frame must not die over a texture
// streamer being late.
func (t *Tracker) BindAttributeBuffer(name string, column int, ptr *BufferPointer) error {
	b, err := t.attribute(name)
	if err != nil || b == nil {
		return err
	}
	if column < 0 || column >= len(b.cols) {
		return fmt.Errorf("attribute %q has %d columns, not %d: %w", name, len(b.cols), column, ErrShapeMismatch)
	}
	if ptr == nil {
		t.releaseColumn(&b.cols[column])
		t.pushLiteral(b, column, [4]float32{})
		return nil
	}
	rows := b.v.Type.Rows()
	if ptr.Size != rows {
		return fmt.Errorf("attribute %q wants %d components per element, pointer carries %d: %w",
			name, rows, ptr.Size, ErrShapeMismatch)
	}

	c := &b.cols[column]
	if c.lock != nil && c.lock.Resource() == ptr.Buffer &&
		c.pointer.Offset == ptr.Offset &&
		c.pointer.Stride == ptr.Stride &&
		c.pointer.Size == ptr.Size &&
		t.enabled[c.slot] {
		return nil
	}

	t.releaseColumn(c)

	l := t.mgr.Lock(ptr.Buffer, t.lockHandler(slotRef{kind: slotAttribute, index: c.slot}))
	h, ok := l.Handle()
	if !ok || h.ID == 0 {
		t.mgr.Unlock(l)
		log.WithFields(log.Fields{
			"attribute": name,
			"column":    column,
		}).Debug("buffer unavailable, column falls back to zeros")
		t.pushLiteral(b, column, [4]float32{})
		return nil
	}

	c.lock = l
	c.pointer = *ptr
	t.acquireArrayBuffer(h.ID)
	t.funcs.AttributePointer(c.slot, ptr.Offset, ptr.Stride, ptr.Size)
	if !t.enabled[c.slot] {
		t.funcs.EnableAttribute(c.slot, true)
		t.enabled[c.slot] = true
	}
	return nil
}

// BindAttribute sets one column of an attribute to a literal value.
// values must carry exactly the declared row count.
func (t *Tracker) BindAttribute(name string, column int, values ...float32) error {
	b, err := t.attribute(name)
	if err != nil || b == nil {
		return err
	}
	if column < 0 || column >= len(b.cols) {
		return fmt.Errorf("attribute %q has %d columns, not %d: %w", name, len(b.cols), column, ErrShapeMismatch)
	}
	rows := b.v.Type.Rows()
	if len(values) != rows {
		return fmt.Errorf("attribute %q wants %d values, got %d: %w", name, rows, len(values), ErrShapeMismatch)
	}

	var packed [4]float32
	for idx := 0; idx < rows; idx++ {
		packed[idx] = values[idx]
	}

	t.releaseColumn(&b.cols[column])
	t.pushLiteral(b, column, packed)
	return nil
}

// BindAttributeVec2 is BindAttribute for a vec2 attribute.
func (t *Tracker) BindAttributeVec2(name string, v glm.Vec2) error {
	return t.BindAttribute(name, 0, v[0], v[1])
}

// BindAttributeVec3 is BindAttribute for a vec3 attribute.
func (t *Tracker) BindAttributeVec3(name string, v glm.Vec3) error {
	return t.BindAttribute(name, 0, v[0], v[1], v[2])
}

// BindAttributeVec4 is BindAttribute for a vec4 attribute.
func (t *Tracker) BindAttributeVec4(name string, v glm.Vec4) error {
	return t.BindAttribute(name, 0, v[0], v[1], v[2], v[3])
}

// BindAttributeMat4 sets a whole mat4 attribute from a literal,
// column by column.
func (t *Tracker) BindAttributeMat4(name string, m glm.Mat4) error {
	for col := 0; col < 4; col++ {
		v := m.Col(col)
		if err := t.BindAttribute(name, col, v[0], v[1], v[2], v[3]); err != nil {
			return err
		}
	}
	return nil
}

// BindAttributeMat3 sets a whole mat3 attribute from a literal,
// column by column.
func (t *Tracker) BindAttributeMat3(name string, m glm.Mat3) error {
	for col := 0; col < 3; col++ {
		v := m.Col(col)
		if err := t.BindAttribute(name, col, v[0], v[1], v[2]); err != nil {
			return err
		}
	}
	return nil
}

// BindAttributeMatrixBuffer sources every column of a matrix
// attribute from one buffer. Columns are expected tightly packed
// inside each element, the per-column offset advances by the column
// byte size.
func (t *Tracker) BindAttributeMatrixBuffer(name string, ptr *BufferPointer) error {
	b, err := t.attribute(name)
	if err != nil || b == nil {
		return err
	}
	rows := b.v.Type.Rows()
	for col := 0; col < len(b.cols); col++ {
		if ptr == nil {
			if err := t.BindAttributeBuffer(name, col, nil); err != nil {
				return err
			}
			continue
		}
		colPtr := *ptr
		colPtr.Offset = ptr.Offset + col*rows*4
		if err := t.BindAttributeBuffer(name, col, &colPtr); err != nil {
			return err
		}
	}
	return nil
}

// attribute validates a name into its binding. A nil binding with a
// nil error means the variable exists but is of a type this layer
// does not drive, the operation becomes a no-op.
func (t *Tracker) attribute(name string) (*attributeBinding, error) {
	if !t.sized {
		return nil, ErrNotActivated
	}
	if t.program == nil {
		return nil, ErrNoShader
	}
	b, exists := t.attrs[name]
	if !exists {
		return nil, fmt.Errorf("attribute %q: %w", name, ErrNoSuchVariable)
	}
	if b.v.Type == shader.Unsupported {
		return nil, nil
	}
	return b, nil
}

// releaseColumn unlocks a column's buffer, keeping the slot enable
// mirror for the caller to settle.
func (t *Tracker) releaseColumn(c *columnBinding) {
	if c.lock == nil {
		return
	}
	t.mgr.Unlock(c.lock)
	c.lock = nil
	c.pointer = BufferPointer{}
	t.releaseArrayBuffer()
}

// pushLiteral makes the literal authoritative for a column: the slot
// gets disabled and the value pushed if it differs from the last one
// the driver saw.
func (t *Tracker) pushLiteral(b *attributeBinding, column int, values [4]float32) {
	c := &b.cols[column]
	if t.enabled[c.slot] {
		t.funcs.EnableAttribute(c.slot, false)
		t.enabled[c.slot] = false
	}
	if c.literalValid && c.literal == values {
		return
	}
	t.funcs.AttributeLiteral(c.slot, b.v.Type.Rows(), values, b.v.Type.IsUnsigned())
	c.literal = values
	c.literalValid = true
}
