// Package orderedjson reads and writes JSON objects whose key order is
// significant, walking keys explicitly instead of going through Go maps.
package orderedjson

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/domain"
)

// WriteObject emits {"k1": v1, ...}; value(i) writes the value of keys[i].
func WriteObject(buf *bytes.Buffer, keys []string, value func(i int) error) error {
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := WriteValue(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := value(i); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

// WriteValue appends the JSON encoding of v.
func WriteValue(buf *bytes.Buffer, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// WriteField emits {"<field>": <inner>}.
func WriteField(buf *bytes.Buffer, field string, inner func() error) error {
	return WriteObject(buf, []string{field}, func(int) error { return inner() })
}

// ReadObject walks a JSON object, calling each with the decoder positioned
// at the key's value. each must consume that value. A null value is an empty
// object; a repeated key is a validation error.
func ReadObject(dec *json.Decoder, each func(key string) error) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		if seen[key] {
			return domain.ValidationError(fmt.Sprintf("duplicate key %q", key), nil)
		}
		seen[key] = true
		if err := each(key); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}

// ReadField reads {"<field>": ...}, skipping any other keys.
func ReadField(dec *json.Decoder, field string, inner func() error) error {
	return ReadObject(dec, func(key string) error {
		if key == field {
			return inner()
		}
		return Skip(dec)
	})
}

// ReadArray walks a JSON array, calling each per element.
func ReadArray(dec *json.Decoder, each func() error) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return fmt.Errorf("expected array, got %v", tok)
	}
	for dec.More() {
		if err := each(); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}

// Skip consumes the next value.
func Skip(dec *json.Decoder) error {
	var raw json.RawMessage
	return dec.Decode(&raw)
}

// NewDecoder returns a decoder over data.
func NewDecoder(data []byte) *json.Decoder {
	return json.NewDecoder(bytes.NewReader(data))
}
