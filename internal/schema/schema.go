// Package schema defines the field catalogs for each import target.
//
// A target is an entity kind that rows can be imported into (contacts,
// work orders, communication logs). Each target declares the fields it
// accepts: their types, labels, required flags, enum domains, and the
// header aliases the column mapper recognizes. Targets are registered
// at init time and looked up by key everywhere else in the pipeline.
package schema

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// FieldType is the declared data type of a catalog field.
type FieldType string

const (
	FieldString   FieldType = "string"
	FieldEmail    FieldType = "email"
	FieldPhone    FieldType = "phone"
	FieldDate     FieldType = "date"
	FieldNumber   FieldType = "number"
	FieldBoolean  FieldType = "boolean"
	FieldCurrency FieldType = "currency"
	FieldEnum     FieldType = "enum"
)

// FieldDefinition describes a single importable field of a target.
// Name is the unique key and is dot-path addressable (e.g. "address.city").
type FieldDefinition struct {
	Name       string    `json:"name"`
	Label      string    `json:"label"`
	Type       FieldType `json:"type"`
	Required   bool      `json:"required"`
	EnumValues []string  `json:"enumValues,omitempty"`
	Aliases    []string  `json:"aliases,omitempty"`
}

// Target is a registered entity kind with its field catalog.
type Target struct {
	Key    string            `json:"key"`
	Label  string            `json:"label"`
	Fields []FieldDefinition `json:"fields"`
}

// Field returns the definition for a field name.
func (t Target) Field(name string) (FieldDefinition, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// RequiredFields returns the fields that must be mapped before validation.
func (t Target) RequiredFields() []FieldDefinition {
	var out []FieldDefinition
	for _, f := range t.Fields {
		if f.Required {
			out = append(out, f)
		}
	}
	return out
}

// AliasesFor returns the known header aliases for a field, or nil if the
// field does not exist.
func (t Target) AliasesFor(fieldName string) []string {
	f, ok := t.Field(fieldName)
	if !ok {
		return nil
	}
	return f.Aliases
}

var (
	registry   = make(map[string]Target)
	registryMu sync.RWMutex
)

// Register adds a target to the registry.
// Panics if a target with the same key is already registered or if the
// catalog contains duplicate field names.
func Register(t Target) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[t.Key]; exists {
		panic(fmt.Sprintf("target already registered: %s", t.Key))
	}

	seen := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		if seen[f.Name] {
			panic(fmt.Sprintf("target %s declares field %q twice", t.Key, f.Name))
		}
		seen[f.Name] = true
	}

	registry[t.Key] = t
}

// Get returns a target by key.
// Returns false if not found.
func Get(key string) (Target, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	t, ok := registry[strings.ToLower(strings.TrimSpace(key))]
	return t, ok
}

// All returns all registered targets, sorted by key for consistent ordering.
func All() []Target {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Target, 0, len(registry))
	for _, t := range registry {
		result = append(result, t)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// Keys returns the keys of all registered targets, sorted.
func Keys() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TargetCount returns the number of registered targets.
func TargetCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered targets.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Target)
}
