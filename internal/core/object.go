package core

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Object is a loosely typed JSON object. Catalog payloads are read through
// it so that one badly typed field never rejects a whole response.
type Object map[string]json.RawMessage

// ParseObject decodes a JSON object.
func ParseObject(data []byte) (Object, error) {
	var o Object
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, err
	}
	if o == nil {
		o = Object{}
	}
	return o, nil
}

// String returns key as a string. Numbers and booleans are rendered as
// their JSON text; anything else yields "".
func (o Object) String(key string) string {
	raw, ok := o[key]
	if !ok || isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] != '{' && trimmed[0] != '[' {
		return string(trimmed)
	}
	return ""
}

// Int64 returns key as an integer, accepting numbers and numeric strings.
// Missing or unparseable values yield def.
func (o Object) Int64(key string, def int64) int64 {
	raw, ok := o[key]
	if !ok || isNull(raw) {
		return def
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return int64(f)
		}
	}
	if s := o.String(key); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f)
		}
	}
	return def
}

// Array returns key as a list of raw elements. The second result is false
// when the key is missing or not an array.
func (o Object) Array(key string) ([]json.RawMessage, bool) {
	raw, ok := o[key]
	if !ok || isNull(raw) {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

// Objects returns the elements of the array at key that are objects.
// Other elements are skipped.
func (o Object) Objects(key string) ([]Object, bool) {
	items, ok := o.Array(key)
	if !ok {
		return nil, false
	}
	out := make([]Object, 0, len(items))
	for _, item := range items {
		var obj Object
		if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
			continue
		}
		out = append(out, obj)
	}
	return out, true
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
