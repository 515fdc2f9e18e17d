package jsonx

import (
	"bytes"
	"encoding/json"
)

// ---------- Field[T] ----------

// Field[T] tracks presence (key appeared) and holds a pointer value:
//   - IsSet() == false => key omitted; the caller applies its default
//   - IsNull() == true => key present with JSON null (e.g. "no microphone")
//   - otherwise        => Value() points at the decoded value
type Field[T any] struct {
	set bool
	val *T
}

// Set returns a present, non-null Field holding v.
func Set[T any](v T) Field[T] { return Field[T]{set: true, val: &v} }

func (o Field[T]) IsSet() bool  { return o.set }
func (o Field[T]) IsNull() bool { return o.set && o.val == nil }
func (o Field[T]) Value() *T    { return o.val }

// Or returns the value when present and non-null, def otherwise.
func (o Field[T]) Or(def T) T {
	if o.val == nil {
		return def
	}
	return *o.val
}

func (o *Field[T]) UnmarshalJSON(b []byte) error {
	if string(bytes.TrimSpace(b)) == "null" {
		o.set, o.val = true, nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.set, o.val = true, &v
	return nil
}

func (o Field[T]) MarshalJSON() ([]byte, error) {
	if o.val == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.val)
}
