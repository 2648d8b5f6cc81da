package fastigo

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Serializer turns one family of handler return values into response
// bytes. Validate claims a value; Serialize converts it. The first
// serializer in the application chain whose Validate returns true wins.
type Serializer struct {
	Validate  func(v any) bool
	Serialize func(v any) (contentType string, body []byte, err error)
}

// defaultSerializers is the built-in chain: strings as text, raw bytes
// untouched, JSON for everything structured. Values nothing claims fall
// through to fmt.Sprint with text/plain.
func defaultSerializers() []Serializer {
	return []Serializer{
		{
			Validate: func(v any) bool {
				_, ok := v.(string)
				return ok
			},
			Serialize: func(v any) (string, []byte, error) {
				return "text/plain", []byte(v.(string)), nil
			},
		},
		{
			Validate: func(v any) bool {
				_, ok := v.([]byte)
				return ok
			},
			Serialize: func(v any) (string, []byte, error) {
				return "application/octet-stream", v.([]byte), nil
			},
		},
		{
			Validate:  isJSONable,
			Serialize: serializeJSON,
		},
	}
}

func isJSONable(v any) bool {
	if _, ok := v.(json.Marshaler); ok {
		return true
	}
	switch reflect.Indirect(reflect.ValueOf(v)).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return true
	default:
		return false
	}
}

func serializeJSON(v any) (string, []byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return "", nil, fmt.Errorf("serialize json: %w", err)
	}
	return "application/json", body, nil
}

// serialize runs v through the chain. The fallback never fails.
func serialize(chain []Serializer, v any) (string, []byte, error) {
	for _, s := range chain {
		if s.Validate(v) {
			return s.Serialize(v)
		}
	}
	return "text/plain", []byte(fmt.Sprint(v)), nil
}
