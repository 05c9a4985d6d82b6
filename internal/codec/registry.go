package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// TypeTag identifies a registered user type inside an envelope.
type TypeTag struct {
	Namespace string
	Name      string
}

func (t TypeTag) String() string {
	return t.Namespace + "." + t.Name
}

// Marshaler lets a registered type provide its own envelope data instead
// of the default exported-field mapping.
type Marshaler interface {
	MarshalState() (map[string]any, error)
}

// Unmarshaler lets a registered type reconstruct itself from envelope
// data instead of the default field-mapping fill.
type Unmarshaler interface {
	UnmarshalState(data map[string]any) error
}

// UnresolvedTypeError is returned when an envelope names a type tag no one
// registered. It is fatal to the whole deserialization, never retried.
type UnresolvedTypeError struct {
	Tag TypeTag
}

func (e *UnresolvedTypeError) Error() string {
	return fmt.Sprintf("no registered type for envelope %q", e.Tag)
}

// IsUnresolvedType reports whether err is an unresolved envelope tag.
// Uses errors.As to handle wrapped errors.
func IsUnresolvedType(err error) bool {
	var ute *UnresolvedTypeError
	return errors.As(err, &ute)
}

type entry struct {
	tag    TypeTag
	encode func(v any) (map[string]any, error)
	decode func(data map[string]any) (any, error)
}

// Registry maps type tags to their serialize/deserialize pairs.
//
// Registration is expected to happen at program start, before any process
// holding a registered type is checkpointed. Registry is not synchronized;
// registering concurrently with use is a caller bug.
type Registry struct {
	byTag  map[TypeTag]*entry
	byType map[reflect.Type]*entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byTag:  make(map[TypeTag]*entry),
		byType: make(map[reflect.Type]*entry),
	}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry used when no explicit one is
// wired. Analogous to the encoding/gob type registry.
func Default() *Registry {
	return defaultRegistry
}

// Register makes struct type T encodable as an envelope under the given
// tag. If T (or *T) implements Marshaler or Unmarshaler those take over
// the data side of the envelope; otherwise the exported-field mapping is
// used, honoring json struct tags.
//
// Registering the same tag or type twice panics: codecs are wired once at
// startup and a duplicate is a programming error worth failing loudly on.
func Register[T any](r *Registry, namespace, name string) {
	var zero T
	rt := reflect.TypeOf(zero)
	if rt == nil || rt.Kind() != reflect.Struct {
		panic(fmt.Sprintf("codec: Register requires a struct type, got %T", zero))
	}
	tag := TypeTag{Namespace: namespace, Name: name}
	if _, dup := r.byTag[tag]; dup {
		panic(fmt.Sprintf("codec: duplicate registration for tag %q", tag))
	}
	if _, dup := r.byType[rt]; dup {
		panic(fmt.Sprintf("codec: type %v already registered", rt))
	}

	e := &entry{
		tag:    tag,
		encode: encodeStruct(rt),
		decode: decodeStruct[T](),
	}
	r.byTag[tag] = e
	r.byType[rt] = e
}

func encodeStruct(rt reflect.Type) func(v any) (map[string]any, error) {
	return func(v any) (map[string]any, error) {
		// Marshaler may be implemented on the pointer receiver, so probe
		// through an addressable copy.
		pv := reflect.New(rt)
		pv.Elem().Set(reflect.ValueOf(v))
		if m, ok := pv.Interface().(Marshaler); ok {
			return m.MarshalState()
		}
		return fieldMap(pv.Elem()), nil
	}
}

func decodeStruct[T any]() func(data map[string]any) (any, error) {
	return func(data map[string]any) (any, error) {
		pv := new(T)
		if u, ok := any(pv).(Unmarshaler); ok {
			if err := u.UnmarshalState(data); err != nil {
				return nil, err
			}
			return *pv, nil
		}
		// Default construction: fill exported fields from the mapping.
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, pv); err != nil {
			return nil, err
		}
		return *pv, nil
	}
}

// fieldMap extracts the plain exported-field mapping of a struct value,
// keeping raw field values so nested registered types stay visible to the
// envelope walk.
func fieldMap(rv reflect.Value) map[string]any {
	rt := rv.Type()
	m := make(map[string]any, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			base, _, _ := strings.Cut(tag, ",")
			if base == "-" {
				continue
			}
			if base != "" {
				name = base
			}
		}
		m[name] = rv.Field(i).Interface()
	}
	return m
}
