// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type (
	// InlineParam is a --key[=value] option from the command line. A nil
	// Value means the option carried an explicit null.
	InlineParam struct {
		Key   string
		Value *string
	}

	// ParamBinder merges a params file with inline parameters.
	ParamBinder struct{}
)

// NewParamBinder creates a ParamBinder.
func NewParamBinder() *ParamBinder {
	return &ParamBinder{}
}

// Bind loads paramsFile (when non-empty) and applies inline on top of it.
// File values keep their native types; only inline values are coerced.
func (b *ParamBinder) Bind(paramsFile string, inline []InlineParam) (*ParameterMap, error) {
	params := NewParameterMap()

	if paramsFile != "" {
		if err := loadParamsFile(paramsFile, params); err != nil {
			return nil, err
		}
	}

	for _, p := range inline {
		params.Set(p.Key, ParseValue(p.Value))
	}
	return params, nil
}

func loadParamsFile(path string, params *ParameterMap) error {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return NewInvalidInvocation(ReasonParamsFileMissing, path)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	var decode func([]byte, *ParameterMap) error
	switch ext {
	case "json":
		decode = decodeJSONParams
	case "yml", "yaml":
		decode = decodeYAMLParams
	default:
		return NewInvalidInvocation(ReasonBadParamsFileExtension, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return &ParseError{Path: path, Cause: err}
	}
	if err := decode(data, params); err != nil {
		return &ParseError{Path: path, Cause: err}
	}
	return nil
}

func decodeJSONParams(data []byte, params *ParameterMap) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("expected a JSON object")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("invalid value for %q: %w", key, err)
		}
		value, err := jsonValue(raw)
		if err != nil {
			return fmt.Errorf("invalid value for %q: %w", key, err)
		}
		params.Set(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after the JSON object")
	}
	return nil
}

func jsonValue(raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return NullValue(), nil
	case bool:
		return BoolValue(v), nil
	case string:
		return StringValue(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return IntValue(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return Value{}, err
		}
		return FloatValue(f), nil
	default:
		return StructuredValue(v), nil
	}
}

func decodeYAMLParams(data []byte, params *ParameterMap) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return errors.New("expected a YAML mapping")
	}

	root := resolveAlias(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("expected a YAML mapping, found %s", root.ShortTag())
	}

	entries, err := yamlEntries(root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		value, err := yamlValue(e.value)
		if err != nil {
			return fmt.Errorf("line %d: %w", e.value.Line, err)
		}
		params.Set(e.key, value)
	}
	return nil
}

type yamlEntry struct {
	key   string
	value *yaml.Node
}

// yamlEntries flattens a mapping in document order, expanding merge keys
// (<<) in place. Keys written in the mapping win over merged ones, and
// earlier merge sources win over later ones.
func yamlEntries(mapping *yaml.Node) ([]yamlEntry, error) {
	explicit := make(map[string]bool)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if k := resolveAlias(mapping.Content[i]); k.Kind == yaml.ScalarNode && !isMergeKey(k) {
			explicit[k.Value] = true
		}
	}

	merged := make(map[string]bool)
	var entries []yamlEntry
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keyNode, valueNode := resolveAlias(mapping.Content[i]), resolveAlias(mapping.Content[i+1])
		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: parameter names must be scalars", keyNode.Line)
		}
		if !isMergeKey(keyNode) {
			entries = append(entries, yamlEntry{key: keyNode.Value, value: valueNode})
			continue
		}

		sources, err := mergeSources(valueNode)
		if err != nil {
			return nil, err
		}
		for _, src := range sources {
			inner, err := yamlEntries(src)
			if err != nil {
				return nil, err
			}
			for _, e := range inner {
				if explicit[e.key] || merged[e.key] {
					continue
				}
				merged[e.key] = true
				entries = append(entries, e)
			}
		}
	}
	return entries, nil
}

func isMergeKey(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.ShortTag() == "!!merge"
}

func mergeSources(node *yaml.Node) ([]*yaml.Node, error) {
	switch node.Kind {
	case yaml.MappingNode:
		return []*yaml.Node{node}, nil
	case yaml.SequenceNode:
		sources := make([]*yaml.Node, 0, len(node.Content))
		for _, item := range node.Content {
			item = resolveAlias(item)
			if item.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("line %d: merge list entries must be mappings", item.Line)
			}
			sources = append(sources, item)
		}
		return sources, nil
	default:
		return nil, fmt.Errorf("line %d: merge value must be a mapping or a list of mappings", node.Line)
	}
}

func yamlValue(node *yaml.Node) (Value, error) {
	if node.Kind != yaml.ScalarNode {
		var structured any
		if err := node.Decode(&structured); err != nil {
			return Value{}, err
		}
		return StructuredValue(structured), nil
	}

	switch node.ShortTag() {
	case "!!null":
		return NullValue(), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return Value{}, err
		}
		return BoolValue(b), nil
	case "!!int":
		var i int64
		if err := node.Decode(&i); err == nil {
			return IntValue(i), nil
		}
		var f float64
		if err := node.Decode(&f); err != nil {
			return Value{}, err
		}
		return FloatValue(f), nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return Value{}, err
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return StringValue(node.Value), nil
		}
		return FloatValue(f), nil
	default:
		return StringValue(node.Value), nil
	}
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}
