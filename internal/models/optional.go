package models

import "encoding/json"

// Optional distinguishes an absent JSON field from an explicit null in
// partial-update payloads. Set is true whenever the field appeared in the
// body; Value is nil for an explicit null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// MarshalJSON implements json.Marshaler.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// Some builds a set Optional carrying v. Test helper mostly.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null builds a set Optional carrying an explicit null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}
