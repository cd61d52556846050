// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attribute

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrInvalidSchema reports a schema that cannot describe a
	// dataset: no attributes, a bad name, an unknown dtype, a
	// non-positive dimension, or a schema that differs from the one a
	// dataset was created with.
	ErrInvalidSchema = errors.New("attribute: invalid schema")

	// ErrSchemaMismatch reports an example or record whose attributes,
	// shapes, or byte lengths disagree with the schema.
	ErrSchemaMismatch = errors.New("attribute: schema mismatch")
)

// Spec describes one attribute.
type Spec struct {
	Name  string `json:"name"`
	DType DType  `json:"dtype"`
	// Shape is the fixed row-major shape of every value. An empty
	// shape is a scalar.
	Shape []int `json:"shape"`
}

// Elements returns the number of scalar elements, product(Shape).
func (s Spec) Elements() int {
	count := 1
	for _, dimension := range s.Shape {
		count *= dimension
	}
	return count
}

// ByteSize returns the exact length of one value in bytes.
func (s Spec) ByteSize() int {
	return s.Elements() * s.DType.Size()
}

// String renders the spec as name:dtype[d0,d1,...].
func (s Spec) String() string {
	dimensions := make([]string, len(s.Shape))
	for i, dimension := range s.Shape {
		dimensions[i] = fmt.Sprint(dimension)
	}
	return fmt.Sprintf("%s:%s[%s]", s.Name, s.DType, strings.Join(dimensions, ","))
}

// ParseSpec parses the form String renders: name:dtype[d0,d1,...].
// Empty brackets, or none at all, describe a scalar.
func ParseSpec(text string) (Spec, error) {
	name, rest, ok := strings.Cut(text, ":")
	if !ok || name == "" {
		return Spec{}, fmt.Errorf("%w: attribute %q is not name:dtype[shape]", ErrInvalidSchema, text)
	}
	dtypeName, dimensions, hasShape := strings.Cut(rest, "[")
	dtype, err := ParseDType(dtypeName)
	if err != nil {
		return Spec{}, err
	}
	spec := Spec{Name: name, DType: dtype}
	if !hasShape {
		return spec, nil
	}
	dimensions, ok = strings.CutSuffix(dimensions, "]")
	if !ok {
		return Spec{}, fmt.Errorf("%w: attribute %q: unterminated shape", ErrInvalidSchema, text)
	}
	if dimensions == "" {
		return spec, nil
	}
	for _, field := range strings.Split(dimensions, ",") {
		dimension, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return Spec{}, fmt.Errorf("%w: attribute %q: dimension %q", ErrInvalidSchema, text, field)
		}
		spec.Shape = append(spec.Shape, dimension)
	}
	return spec, nil
}

func (s Spec) equal(other Spec) bool {
	return s.Name == other.Name && s.DType == other.DType && slices.Equal(s.Shape, other.Shape)
}

// Schema is an immutable ordered list of attribute specs. The zero
// value is not usable; construct with NewSchema.
type Schema struct {
	specs       []Spec
	positions   map[string]int
	offsets     []int
	exampleSize int
}

// NewSchema validates specs and resolves attribute names to
// positions. The input slice is copied.
func NewSchema(specs []Spec) (*Schema, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: no attributes", ErrInvalidSchema)
	}

	schema := &Schema{
		specs:     make([]Spec, len(specs)),
		positions: make(map[string]int, len(specs)),
		offsets:   make([]int, len(specs)),
	}
	for i, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("%w: attribute %d has an empty name", ErrInvalidSchema, i)
		}
		if _, duplicate := schema.positions[spec.Name]; duplicate {
			return nil, fmt.Errorf("%w: duplicate attribute %q", ErrInvalidSchema, spec.Name)
		}
		if !spec.DType.Valid() {
			return nil, fmt.Errorf("%w: attribute %q has invalid dtype %s", ErrInvalidSchema, spec.Name, spec.DType)
		}
		for axis, dimension := range spec.Shape {
			if dimension <= 0 {
				return nil, fmt.Errorf("%w: attribute %q has non-positive dimension %d on axis %d",
					ErrInvalidSchema, spec.Name, dimension, axis)
			}
		}

		schema.specs[i] = Spec{Name: spec.Name, DType: spec.DType, Shape: slices.Clone(spec.Shape)}
		schema.positions[spec.Name] = i
		schema.offsets[i] = schema.exampleSize
		schema.exampleSize += spec.ByteSize()
	}
	return schema, nil
}

// Len returns the number of attributes.
func (s *Schema) Len() int { return len(s.specs) }

// Attribute returns the spec at position i.
func (s *Schema) Attribute(i int) Spec { return s.specs[i] }

// Specs returns a copy of the attribute specs in schema order.
func (s *Schema) Specs() []Spec {
	specs := make([]Spec, len(s.specs))
	for i, spec := range s.specs {
		specs[i] = Spec{Name: spec.Name, DType: spec.DType, Shape: slices.Clone(spec.Shape)}
	}
	return specs
}

// Index returns the position of the named attribute.
func (s *Schema) Index(name string) (int, bool) {
	position, ok := s.positions[name]
	return position, ok
}

// Offset returns the byte offset of attribute i within a raw
// (concatenated) example.
func (s *Schema) Offset(i int) int { return s.offsets[i] }

// ExampleSize returns the total byte size of one example.
func (s *Schema) ExampleSize() int { return s.exampleSize }

// Equal reports whether both schemas have the same attributes in the
// same order with identical dtypes and shapes.
func (s *Schema) Equal(other *Schema) bool {
	if s == nil || other == nil {
		return s == other
	}
	return slices.EqualFunc(s.specs, other.specs, Spec.equal)
}

// String lists the attributes in order.
func (s *Schema) String() string {
	parts := make([]string, len(s.specs))
	for i, spec := range s.specs {
		parts[i] = spec.String()
	}
	return strings.Join(parts, " ")
}

// Validate checks that example has exactly one value per attribute
// and that every value has the attribute's byte length.
func (s *Schema) Validate(example Example) error {
	if len(example) != len(s.specs) {
		return fmt.Errorf("%w: example has %d values, schema has %d attributes",
			ErrSchemaMismatch, len(example), len(s.specs))
	}
	for i, spec := range s.specs {
		if len(example[i]) != spec.ByteSize() {
			return fmt.Errorf("%w: attribute %q is %d bytes, want %d (%s)",
				ErrSchemaMismatch, spec.Name, len(example[i]), spec.ByteSize(), spec)
		}
	}
	return nil
}

// NewExample orders a name-to-value mapping by schema position. Every
// attribute must be present and no unknown names are allowed.
func (s *Schema) NewExample(values map[string][]byte) (Example, error) {
	example := make(Example, len(s.specs))
	for name, value := range values {
		position, ok := s.positions[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown attribute %q", ErrSchemaMismatch, name)
		}
		example[position] = value
	}
	if len(values) != len(s.specs) {
		var missing []string
		for _, spec := range s.specs {
			if _, ok := values[spec.Name]; !ok {
				missing = append(missing, spec.Name)
			}
		}
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: missing attributes %s", ErrSchemaMismatch, strings.Join(missing, ", "))
	}
	if err := s.Validate(example); err != nil {
		return nil, err
	}
	return example, nil
}

// Example holds one value per schema attribute, in schema order.
// Each value is the attribute's row-major little-endian bytes.
type Example [][]byte

// Value returns the named attribute's bytes.
func (s *Schema) Value(example Example, name string) ([]byte, bool) {
	position, ok := s.positions[name]
	if !ok || position >= len(example) {
		return nil, false
	}
	return example[position], true
}

// Clone returns a deep copy of the example.
func (e Example) Clone() Example {
	clone := make(Example, len(e))
	for i, value := range e {
		clone[i] = slices.Clone(value)
	}
	return clone
}

// Equal reports whether both examples hold byte-identical values.
func (e Example) Equal(other Example) bool {
	return slices.EqualFunc(e, other, func(a, b []byte) bool { return string(a) == string(b) })
}
