package model

import (
	"bytes"
	"encoding/json"
)

// Scalar is a subgraph field the schema may expose as a string, an Int or an
// enum. Strings are unquoted, null is empty and any other JSON value keeps
// its literal text, so a bad value fails per field in Decode rather than
// failing the whole response.
type Scalar string

func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
	case len(data) > 0 && data[0] == '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = Scalar(text)
	default:
		*s = Scalar(data)
	}
	return nil
}
