package observations

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Field is one key/value pair of a JSON object, in document order.
type Field struct {
	Key   string
	Value json.RawMessage
}

var errNotObject = errors.New("expected JSON object")

// DecodeObject splits a JSON object into its fields without reordering. A
// repeated key keeps its first position and its last value.
func DecodeObject(data []byte) ([]Field, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errNotObject
	}

	var fields []Field
	positions := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("decode value for %q: %w", key, err)
		}
		if pos, seen := positions[key]; seen {
			fields[pos].Value = value
			continue
		}
		positions[key] = len(fields)
		fields = append(fields, Field{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return fields, nil
}

// EncodeObject renders fields back into a compact JSON object.
func EncodeObject(fields []Field) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(field.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(field.Value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
