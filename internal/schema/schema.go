// Package schema describes the shapes of PassDrive API resources so
// agents can discover field structures without probing the API.
package schema

import (
	"fmt"
	"sort"
	"sync"
)

// Schema is a JSON Schema-like description of a resource or field.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
}

var (
	mu       sync.RWMutex
	registry = map[string]*Schema{}
)

// Register adds a named schema to the registry, replacing any previous
// entry with the same name.
func Register(name string, s *Schema) {
	mu.Lock()
	registry[name] = s
	mu.Unlock()
}

// Get looks up a registered schema by name.
func Get(name string) (*Schema, error) {
	mu.RLock()
	defer mu.RUnlock()
	if s, ok := registry[name]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("schema %q not found", name)
}

// List returns the registered schema names in sorted order.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ClearRegistry empties the registry. Tests use it to start clean.
func ClearRegistry() {
	mu.Lock()
	registry = map[string]*Schema{}
	mu.Unlock()
}

// Builders for the common field shapes.

func Object(desc string, props map[string]*Schema, required ...string) *Schema {
	return &Schema{Type: "object", Description: desc, Properties: props, Required: required}
}

func String(desc string) *Schema {
	return &Schema{Type: "string", Description: desc}
}

func Int(desc string) *Schema {
	return &Schema{Type: "integer", Description: desc}
}

func Bool(desc string) *Schema {
	return &Schema{Type: "boolean", Description: desc}
}

func Enum(desc string, values ...string) *Schema {
	return &Schema{Type: "string", Description: desc, Enum: values}
}

func Array(items *Schema, desc string) *Schema {
	return &Schema{Type: "array", Description: desc, Items: items}
}

// Timestamp describes a time field. The API serializes times as
// RFC 3339 strings.
func Timestamp(desc string) *Schema {
	return &Schema{Type: "string", Description: desc + " (RFC 3339)"}
}
