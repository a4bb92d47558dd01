package uniweb

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Response is a decoded reply of the resource endpoint. Reads return the
// requested data; writes return a success indicator.
type Response struct {
	Raw json.RawMessage
}

// Decode unmarshals the reply into v.
func (r *Response) Decode(v interface{}) error {
	err := json.Unmarshal(r.Raw, v)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProtocol, err)
	}

	return nil
}

// Value returns the reply as generic JSON values.
func (r *Response) Value() (interface{}, error) {
	var value interface{}

	decoder := json.NewDecoder(bytes.NewReader(r.Raw))
	decoder.UseNumber()

	err := decoder.Decode(&value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProtocol, err)
	}

	return value, nil
}

// Bool reports whether a write reply indicates success. false, 0, empty
// strings, "0" and empty arrays or objects count as failure.
func (r *Response) Bool() bool {
	value, err := r.Value()
	if err != nil {
		return false
	}

	return truthy(value)
}

// Options decodes the reply of the options action.
func (r *Response) Options() (FieldOptions, error) {
	var options FieldOptions

	err := r.Decode(&options)
	if err != nil {
		return nil, err
	}

	return options, nil
}

// String returns the raw reply.
func (r *Response) String() string {
	return string(r.Raw)
}

func truthy(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case json.Number:
		f, err := v.Float64()

		return err == nil && f != 0
	case string:
		return v != "" && v != "0"
	case []interface{}:
		return len(v) > 0
	case map[string]interface{}:
		return len(v) > 0
	default:
		return true
	}
}
