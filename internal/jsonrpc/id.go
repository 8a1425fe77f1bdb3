package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID identifies a request. The endpoint only ever issues integer ids, but peers
// are free to use strings for the requests they send us, and those ids must be
// echoed back verbatim.
//
// ID is comparable and can be used as a map key.
type ID struct {
	num      int64
	str      string
	isString bool
}

// Int64ID returns an integer ID.
func Int64ID(n int64) ID {
	return ID{num: n}
}

// StringID returns a string ID.
func StringID(s string) ID {
	return ID{str: s, isString: true}
}

// Int64 returns the integer value and whether the ID is an integer.
func (id ID) Int64() (int64, bool) {
	return id.num, !id.isString
}

func (id ID) String() string {
	if id.isString {
		return strconv.Quote(id.str)
	}

	return strconv.FormatInt(id.num, 10)
}

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.isString {
		return json.Marshal(id.str)
	}

	return strconv.AppendInt(nil, id.num, 10), nil
}

// UnmarshalJSON implements json.Unmarshaler. Only integers and strings are
// accepted; null, fractions, and other shapes are rejected.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty id")
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode string id: %w", err)
		}

		*id = StringID(s)

		return nil
	}

	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("id must be an integer or string, got %s", data)
	}

	*id = Int64ID(n)

	return nil
}
