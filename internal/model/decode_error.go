package model

import "fmt"

// DecodeError records a field that failed validation while decoding a
// subgraph record into a typed entity.
type DecodeError struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
	Field  string `json:"field"`
	Value  string `json:"value"`
	Err    error  `json:"-"`
}

func (e *DecodeError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("decode %s %s: field %s=%q: %v", e.Entity, e.ID, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("decode %s: field %s=%q: %v", e.Entity, e.Field, e.Value, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
