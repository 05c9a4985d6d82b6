package codec

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Serialize encodes a value as canonical JSON text. Registered types
// anywhere in the tree become {data, namespace, type} envelopes; plain
// sequences and string-keyed mappings encode structurally.
//
// Set-shaped and tuple-shaped values do not exist in this model; anything
// iterable degrades to an ordered sequence.
func (r *Registry) Serialize(v any) ([]byte, error) {
	tree, err := r.encodeValue(v)
	if err != nil {
		return nil, err
	}
	return MarshalCanonical(tree)
}

// Deserialize parses canonical JSON text back into a value, resolving
// every envelope through the registry. An unregistered envelope tag fails
// with UnresolvedTypeError; nothing partially decoded is returned.
func (r *Registry) Deserialize(data []byte) (any, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return r.decodeValue(raw)
}

func (r *Registry) encodeValue(v any) (any, error) {
	switch val := v.(type) {
	case nil, bool, string, int, int64, uint64, float32, float64, json.Number:
		return val, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			enc, err := r.encodeValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			out[k] = enc
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			enc, err := r.encodeValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = enc
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
		v = rv.Interface()
	}

	if e, ok := r.byType[rv.Type()]; ok {
		data, err := e.encode(v)
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", e.tag, err)
		}
		encData, err := r.encodeValue(data)
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", e.tag, err)
		}
		return map[string]any{
			"data":      encData,
			"namespace": e.tag.Namespace,
			"type":      e.tag.Name,
		}, nil
	}

	// Typed containers and primitives that are not the exact any-shapes
	// above still encode structurally.
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			enc, err := r.encodeValue(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = enc
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("map keys must be strings, got %v", rv.Type().Key())
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			enc, err := r.encodeValue(iter.Value().Interface())
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			out[k] = enc
		}
		return out, nil
	case reflect.Struct:
		return nil, fmt.Errorf("unregistered type %T: register it before checkpointing", v)
	default:
		return nil, fmt.Errorf("unsupported value of type %T", v)
	}
}

func (r *Registry) decodeValue(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		if tag, data, ok := asEnvelope(val); ok {
			e, registered := r.byTag[tag]
			if !registered {
				return nil, &UnresolvedTypeError{Tag: tag}
			}
			// Inner envelopes resolve first so the decoder sees fully
			// reconstructed nested values.
			decData, err := r.decodeValue(data)
			if err != nil {
				return nil, fmt.Errorf("envelope %q: %w", tag, err)
			}
			mapping, isMap := decData.(map[string]any)
			if !isMap {
				return nil, fmt.Errorf("envelope %q: data is %T, want an object", tag, decData)
			}
			decoded, err := e.decode(mapping)
			if err != nil {
				return nil, fmt.Errorf("decode %q: %w", tag, err)
			}
			return decoded, nil
		}
		out := make(map[string]any, len(val))
		for k, elem := range val {
			dec, err := r.decodeValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			out[k] = dec
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			dec, err := r.decodeValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = dec
		}
		return out, nil
	default:
		return v, nil
	}
}

// asEnvelope recognizes the exact envelope shape: an object with only the
// keys data, namespace, and type, where namespace and type are strings.
// Any other object is an ordinary mapping.
func asEnvelope(m map[string]any) (TypeTag, any, bool) {
	if len(m) != 3 {
		return TypeTag{}, nil, false
	}
	ns, ok := m["namespace"].(string)
	if !ok {
		return TypeTag{}, nil, false
	}
	name, ok := m["type"].(string)
	if !ok {
		return TypeTag{}, nil, false
	}
	data, ok := m["data"]
	if !ok {
		return TypeTag{}, nil, false
	}
	return TypeTag{Namespace: ns, Name: name}, data, true
}
