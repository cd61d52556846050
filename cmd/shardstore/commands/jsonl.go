// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/bureau-foundation/shardstore/lib/attribute"
)

// One example per line, as a JSON object keyed by attribute name.
// Values are flat row-major arrays (nested arrays are flattened on
// input); scalar attributes are bare numbers. Non-finite floats are
// the strings "NaN", "+Inf", and "-Inf".

func decodeExampleJSON(schema *attribute.Schema, line []byte) (attribute.Example, error) {
	decoder := json.NewDecoder(bytes.NewReader(line))
	decoder.UseNumber()
	var fields map[string]any
	if err := decoder.Decode(&fields); err != nil {
		return nil, err
	}

	values := make(map[string][]byte, len(fields))
	for name, field := range fields {
		position, ok := schema.Index(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown attribute %q", attribute.ErrSchemaMismatch, name)
		}
		spec := schema.Attribute(position)
		texts, err := flattenElements(field, nil)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		if len(texts) != spec.Elements() {
			return nil, fmt.Errorf("%w: attribute %q has %d elements, want %d (%s)",
				attribute.ErrSchemaMismatch, name, len(texts), spec.Elements(), spec)
		}
		data, err := spec.DType.ParseElements(texts)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		values[name] = data
	}
	return schema.NewExample(values)
}

func flattenElements(value any, texts []string) ([]string, error) {
	switch v := value.(type) {
	case []any:
		for _, element := range v {
			var err error
			if texts, err = flattenElements(element, texts); err != nil {
				return nil, err
			}
		}
		return texts, nil
	case json.Number:
		return append(texts, v.String()), nil
	case bool:
		return append(texts, strconv.FormatBool(v)), nil
	case string:
		return append(texts, v), nil
	default:
		return nil, fmt.Errorf("unsupported element %v", value)
	}
}

func appendExampleJSON(dst []byte, schema *attribute.Schema, example attribute.Example) []byte {
	dst = append(dst, '{')
	for i := range schema.Len() {
		spec := schema.Attribute(i)
		if i > 0 {
			dst = append(dst, ',')
		}
		name, _ := json.Marshal(spec.Name)
		dst = append(dst, name...)
		dst = append(dst, ':')

		scalar := len(spec.Shape) == 0
		if !scalar {
			dst = append(dst, '[')
		}
		for j, text := range spec.DType.FormatElements(example[i]) {
			if j > 0 {
				dst = append(dst, ',')
			}
			switch text {
			case "NaN", "+Inf", "-Inf":
				dst = strconv.AppendQuote(dst, text)
			default:
				dst = append(dst, text...)
			}
		}
		if !scalar {
			dst = append(dst, ']')
		}
	}
	return append(dst, '}', '\n')
}
