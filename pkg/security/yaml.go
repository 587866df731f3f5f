// Package security hardens the handling of untrusted configuration input.
package security

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAMLLimits defines resource limits for YAML parsing
type YAMLLimits struct {
	MaxFileSize  int64 // Maximum input size in bytes
	MaxDepth     int   // Maximum nesting depth
	MaxNodes     int   // Maximum number of nodes
	MaxKeyLength int   // Maximum key length in bytes
	MaxValueSize int64 // Maximum scalar value size in bytes
}

// DefaultYAMLLimits returns limits generous enough for any realistic maze
// configuration while still rejecting hostile documents.
func DefaultYAMLLimits() YAMLLimits {
	return YAMLLimits{
		MaxFileSize:  1024 * 1024, // 1MB
		MaxDepth:     16,
		MaxNodes:     50000,
		MaxKeyLength: 256,
		MaxValueSize: 64 * 1024, // 64KB
	}
}

// SafeYAMLParser provides YAML parsing with resource limits
type SafeYAMLParser struct {
	limits YAMLLimits
}

// NewSafeYAMLParser creates a new YAML parser with the given limits
func NewSafeYAMLParser(limits YAMLLimits) *SafeYAMLParser {
	return &SafeYAMLParser{limits: limits}
}

// UnmarshalYAML validates the document structure against the limits, then
// unmarshals it into v.
func (p *SafeYAMLParser) UnmarshalYAML(data []byte, v any) error {
	if int64(len(data)) > p.limits.MaxFileSize {
		return fmt.Errorf("YAML input size %d bytes exceeds maximum %d bytes", len(data), p.limits.MaxFileSize)
	}

	var root yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&root); err != nil {
		return fmt.Errorf("YAML parse error: %w", err)
	}

	validator := &yamlValidator{limits: p.limits}
	if err := validator.validateNode(&root, 0); err != nil {
		return err
	}

	return yaml.Unmarshal(data, v)
}

type yamlValidator struct {
	limits    YAMLLimits
	nodeCount int
}

func (v *yamlValidator) validateNode(node *yaml.Node, depth int) error {
	if depth > v.limits.MaxDepth {
		return fmt.Errorf("YAML nesting depth %d exceeds maximum %d", depth, v.limits.MaxDepth)
	}

	v.nodeCount++
	if v.nodeCount > v.limits.MaxNodes {
		return fmt.Errorf("YAML node count %d exceeds maximum %d", v.nodeCount, v.limits.MaxNodes)
	}

	switch node.Kind {
	case yaml.DocumentNode:
		for _, child := range node.Content {
			if err := v.validateNode(child, depth); err != nil {
				return err
			}
		}

	case yaml.MappingNode:
		if len(node.Content)%2 != 0 {
			return fmt.Errorf("invalid YAML mapping: odd number of elements")
		}
		for i := 0; i < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			if len(key.Value) > v.limits.MaxKeyLength {
				return fmt.Errorf("YAML key length %d exceeds maximum %d", len(key.Value), v.limits.MaxKeyLength)
			}
			if err := v.validateNode(key, depth+1); err != nil {
				return err
			}
			if err := v.validateNode(value, depth+1); err != nil {
				return err
			}
		}

	case yaml.SequenceNode:
		for _, child := range node.Content {
			if err := v.validateNode(child, depth+1); err != nil {
				return err
			}
		}

	case yaml.ScalarNode:
		if int64(len(node.Value)) > v.limits.MaxValueSize {
			return fmt.Errorf("YAML value size %d bytes exceeds maximum %d bytes", len(node.Value), v.limits.MaxValueSize)
		}

	case yaml.AliasNode:
		if node.Alias != nil {
			if err := v.validateNode(node.Alias, depth+1); err != nil {
				return err
			}
		}
	}

	return nil
}
