package graphql

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is a GraphQL ID output value. Servers serialize IDs as strings, but some
// emit integers; both decode to their textual form and null decodes to "".
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case isNull(data):
		*id = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("graphql ID must be a string or number, got %s", data)
	}
	*id = ID(n.String())
	return nil
}
