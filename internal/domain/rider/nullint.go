package rider

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// NullInt is an integer that may be missing.
type NullInt struct {
	Value int
	Valid bool
}

// Int returns a present NullInt.
func Int(v int) NullInt { return NullInt{Value: v, Valid: true} }

// String renders the value, or an empty string when missing.
func (n NullInt) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.Itoa(n.Value)
}

// MarshalJSON encodes a missing value as null.
func (n NullInt) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(n.Value)), nil
}

// UnmarshalJSON accepts null or a JSON number.
func (n *NullInt) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*n = NullInt{}
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = Int(v)
	return nil
}
