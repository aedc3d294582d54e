// Package shared holds value types used by more than one domain package.
package shared

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is an upstream identifier. The Assistance API sends ids as JSON numbers
// or strings; both decode to the same textual form.
type ID string

func (id ID) String() string { return string(id) }

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("unsupported id %s", string(data))
	}
	*id = ID(n.String())
	return nil
}
