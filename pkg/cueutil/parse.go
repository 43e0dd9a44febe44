// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Result holds a decoded value together with the unified CUE value it came from.
type Result[T any] struct {
	// Value is the decoded Go value.
	Value *T

	// Unified is the schema-unified CUE value. Callers that need to decode
	// into something other than T (e.g. a map for Viper) use it directly.
	Unified cue.Value
}

// Unify compiles schema and data, unifies data with the schema definition
// found at definition (e.g. "#Config") and validates the result.
func Unify(schema, data []byte, definition string, opts ...Option) (cue.Value, error) {
	options := resolveOptions(opts)
	filename := options.filename

	if err := CheckFileSize(data, options.maxFileSize, filename); err != nil {
		return cue.Value{}, err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	def := schemaValue.LookupPath(cue.ParsePath(definition))
	if def.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: schema definition %s not found: %w", definition, def.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(filename))
	if userValue.Err() != nil {
		return cue.Value{}, FormatError(userValue.Err(), filename)
	}

	unified := def.Unify(userValue)
	if err := unified.Validate(cue.Concrete(options.concrete)); err != nil {
		return cue.Value{}, FormatError(err, filename)
	}

	return unified, nil
}

// Decode unifies data with the schema definition and decodes it into T.
func Decode[T any](schema, data []byte, definition string, opts ...Option) (*Result[T], error) {
	unified, err := Unify(schema, data, definition, opts...)
	if err != nil {
		return nil, err
	}

	var out T
	if err := unified.Decode(&out); err != nil {
		return nil, FormatError(err, resolveOptions(opts).filename)
	}

	return &Result[T]{Value: &out, Unified: unified}, nil
}

// DecodeFile reads path and decodes it like Decode, reporting errors against path.
func DecodeFile[T any](schema []byte, path, definition string, opts ...Option) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	opts = append(opts, WithFilename(path))
	res, err := Decode[T](schema, data, definition, opts...)
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}
