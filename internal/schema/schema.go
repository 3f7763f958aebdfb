// Package schema describes the shape of node input and output records
package schema

import (
	"fmt"
	"sort"
)

// Type is a closed enumeration of field type tags. No nested schemas.
type Type string

const (
	TypeString     Type = "str"
	TypeNumber     Type = "num"
	TypeBool       Type = "bool"
	TypeStringList Type = "list[str]"
	TypeNumberList Type = "list[num]"
	TypeBoolList   Type = "list[bool]"
)

// IsValid checks if the type tag is part of the enumeration
func (t Type) IsValid() bool {
	switch t {
	case TypeString, TypeNumber, TypeBool, TypeStringList, TypeNumberList, TypeBoolList:
		return true
	default:
		return false
	}
}

// IsList reports whether the type tag is one of the list variants
func (t Type) IsList() bool {
	switch t {
	case TypeStringList, TypeNumberList, TypeBoolList:
		return true
	default:
		return false
	}
}

// Spec maps field names to type tags. A Spec is built once at node
// configuration time and never mutated afterwards; producer and consumer
// nodes share the same instance when their schemas are explicitly wired.
type Spec struct {
	fields map[string]Type
}

// New creates a Spec from a field-name to type-tag mapping
func New(fields map[string]Type) (*Spec, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("schema must declare at least one field")
	}

	copied := make(map[string]Type, len(fields))
	for name, t := range fields {
		if name == "" {
			return nil, fmt.Errorf("schema field name cannot be empty")
		}
		if !t.IsValid() {
			return nil, fmt.Errorf("field %s has invalid type tag: %s", name, t)
		}
		copied[name] = t
	}

	return &Spec{fields: copied}, nil
}

// MustNew is like New but panics on invalid input. Intended for
// fixed schemas known at compile time.
func MustNew(fields map[string]Type) *Spec {
	s, err := New(fields)
	if err != nil {
		panic(err)
	}
	return s
}

// ParseTags creates a Spec from raw string tags, as they appear in a
// workflow definition file.
func ParseTags(fields map[string]string) (*Spec, error) {
	typed := make(map[string]Type, len(fields))
	for name, tag := range fields {
		typed[name] = Type(tag)
	}
	return New(typed)
}

// Fields returns a copy of the field mapping
func (s *Spec) Fields() map[string]Type {
	copied := make(map[string]Type, len(s.fields))
	for name, t := range s.fields {
		copied[name] = t
	}
	return copied
}

// FieldNames returns the declared field names in sorted order
func (s *Spec) FieldNames() []string {
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Type returns the type tag for a field and whether the field is declared
func (s *Spec) Type(name string) (Type, bool) {
	t, ok := s.fields[name]
	return t, ok
}

// Len returns the number of declared fields
func (s *Spec) Len() int {
	return len(s.fields)
}

// Compatible checks that every field a consumer declares is produced with
// the same type tag. Wiring a producer into a consumer requires this to
// hold at construction time.
func Compatible(producer, consumer *Spec) error {
	if producer == nil || consumer == nil {
		return fmt.Errorf("cannot wire nil schema")
	}

	for name, want := range consumer.fields {
		got, ok := producer.fields[name]
		if !ok {
			return fmt.Errorf("consumer field %s is not produced", name)
		}
		if got != want {
			return fmt.Errorf("field %s: producer declares %s, consumer expects %s", name, got, want)
		}
	}

	return nil
}
