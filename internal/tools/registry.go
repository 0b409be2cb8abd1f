// Package tools owns the SSH tool catalogue: descriptors, argument
// validation, dispatch to the analysis engines and the MCP adapter.
package tools

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/xeipuuv/gojsonschema"
)

// ParamType is the JSON Schema type of a parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
)

// Bounds limits an integer parameter (inclusive).
type Bounds struct {
	Min int
	Max int
}

// Param describes one tool argument.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Enum        []string
	// Pattern is a regular expression string values must match.
	Pattern string
	Default any
	// DefaultFrom derives a default from the other arguments. It runs after
	// static defaults are applied.
	DefaultFrom func(Args) any
	Bounds      *Bounds
}

// Handler executes a tool with validated arguments.
type Handler func(ctx context.Context, args Args) (string, error)

// Descriptor is an immutable tool definition.
type Descriptor struct {
	Name        string
	Description string
	Params      []Param
	// Check runs after schema validation and before the handler. Its error
	// rejects the call without invoking the handler.
	Check   func(Args) error
	Handler Handler
	// OpenWorld marks tools that reach the network.
	OpenWorld bool

	schema *gojsonschema.Schema
}

// Required returns the names of the required parameters in declaration order.
func (d Descriptor) Required() []string {
	var names []string
	for _, p := range d.Params {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// InputSchema returns the JSON Schema of the tool arguments.
func (d Descriptor) InputSchema() map[string]any {
	props := make(map[string]any, len(d.Params))
	for _, p := range d.Params {
		prop := map[string]any{
			"type":        string(p.Type),
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			enum := make([]any, len(p.Enum))
			for i, v := range p.Enum {
				enum[i] = v
			}
			prop["enum"] = enum
		}
		if p.Pattern != "" {
			prop["pattern"] = p.Pattern
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		if p.Bounds != nil {
			prop["minimum"] = p.Bounds.Min
			prop["maximum"] = p.Bounds.Max
		}
		props[p.Name] = prop
	}

	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if required := d.Required(); len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// Registry is the read-only tool catalogue, kept in registration order.
type Registry struct {
	tools []*Descriptor
	index map[string]*Descriptor
}

// NewRegistry validates the descriptors and compiles their schemas.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{index: make(map[string]*Descriptor, len(descs))}

	for _, d := range descs {
		if err := validateDescriptor(d); err != nil {
			return nil, err
		}
		if _, dup := r.index[d.Name]; dup {
			return nil, fmt.Errorf("duplicate tool: %s", d.Name)
		}

		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(d.InputSchema()))
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema for %s: %w", d.Name, err)
		}

		desc := d
		desc.schema = schema
		r.tools = append(r.tools, &desc)
		r.index[desc.Name] = &desc
	}

	return r, nil
}

func validateDescriptor(d Descriptor) error {
	if d.Name == "" {
		return errors.New("tool name cannot be empty")
	}
	if d.Handler == nil {
		return fmt.Errorf("tool %s: handler cannot be nil", d.Name)
	}

	seen := make(map[string]bool, len(d.Params))
	for _, p := range d.Params {
		if p.Name == "" {
			return fmt.Errorf("tool %s: parameter name cannot be empty", d.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("tool %s: duplicate parameter %s", d.Name, p.Name)
		}
		seen[p.Name] = true

		switch p.Type {
		case TypeString, TypeInteger:
		default:
			return fmt.Errorf("tool %s: invalid type %q for %s", d.Name, p.Type, p.Name)
		}
		if len(p.Enum) > 0 && p.Type != TypeString {
			return fmt.Errorf("tool %s: enum on non-string parameter %s", d.Name, p.Name)
		}
		if p.Pattern != "" {
			if p.Type != TypeString {
				return fmt.Errorf("tool %s: pattern on non-string parameter %s", d.Name, p.Name)
			}
			if _, err := regexp.Compile(p.Pattern); err != nil {
				return fmt.Errorf("tool %s: invalid pattern for %s: %w", d.Name, p.Name, err)
			}
		}
	}
	return nil
}

// ListTools returns the catalogue in registration order.
func (r *Registry) ListTools() []Descriptor {
	out := make([]Descriptor, len(r.tools))
	for i, d := range r.tools {
		out[i] = *d
		out[i].Params = append([]Param(nil), d.Params...)
	}
	return out
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.index[name]
	return d, ok
}
