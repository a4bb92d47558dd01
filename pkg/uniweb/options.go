package uniweb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// OptionEntry is one valid value of a drop-down field. The server sends it
// as an array [ID, name, parent_name, grand_parent_name, ...].
type OptionEntry struct {
	// ID is the opaque identifier of the option, kept as raw JSON so that it
	// can be sent back to the server unchanged.
	ID json.RawMessage
	// Labels holds the option name followed by the names of its ancestors.
	Labels []string
}

// NewOptionEntry creates an option entry from an identifier and its labels.
func NewOptionEntry(id interface{}, labels ...string) OptionEntry {
	raw, err := json.Marshal(id)
	if err != nil {
		raw = json.RawMessage("null")
	}

	return OptionEntry{ID: raw, Labels: labels}
}

// Name returns the display name of the option.
func (o OptionEntry) Name() string {
	if len(o.Labels) == 0 {
		return ""
	}

	return o.Labels[0]
}

// MarshalJSON encodes the entry back into its array form.
func (o OptionEntry) MarshalJSON() ([]byte, error) {
	id := o.ID
	if len(id) == 0 {
		id = json.RawMessage("null")
	}

	parts := make([]json.RawMessage, 0, len(o.Labels)+1)
	parts = append(parts, id)

	for _, label := range o.Labels {
		encoded, err := json.Marshal(label)
		if err != nil {
			return nil, fmt.Errorf("encoding option label: %w", err)
		}

		parts = append(parts, encoded)
	}

	return json.Marshal(parts)
}

// UnmarshalJSON decodes the array form of an option. Labels stop at the
// first null element; numeric labels are kept in their textual form.
func (o *OptionEntry) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage

	err := json.Unmarshal(data, &parts)
	if err != nil {
		return fmt.Errorf("%w: option entry must be an array: %w", ErrProtocol, err)
	}

	if len(parts) == 0 {
		return fmt.Errorf("%w: option entry cannot be empty", ErrProtocol)
	}

	o.ID = append(json.RawMessage(nil), bytes.TrimSpace(parts[0])...)
	o.Labels = make([]string, 0, len(parts)-1)

	for _, part := range parts[1:] {
		part = bytes.TrimSpace(part)
		if bytes.Equal(part, []byte("null")) {
			break
		}

		var label string
		if json.Unmarshal(part, &label) != nil {
			label = string(part)
		}

		o.Labels = append(o.Labels, label)
	}

	return nil
}

// Options is the ordered list of valid values of a field.
type Options []OptionEntry

// FindID returns the identifier of the first option matching path. See
// FindOptionID.
func (o Options) FindID(path ...string) (json.RawMessage, bool) {
	return FindOptionID(o, path...)
}

// FindOptionID finds the identifier of an option from its labels. The
// comparisons are case insensitive.
//
// With a single value only the option name is compared. With more values
// they are matched against the name, the parent name, the grand parent name
// and so on; options lacking one of the required labels are skipped. The
// first option in input order that matches wins.
func FindOptionID(options []OptionEntry, path ...string) (json.RawMessage, bool) {
	if len(path) == 0 {
		return nil, false
	}

	for _, option := range options {
		if matchesLabels(option.Labels, path) {
			return option.ID, true
		}
	}

	return nil, false
}

func matchesLabels(labels, path []string) bool {
	if len(labels) < len(path) {
		return false
	}

	for i, value := range path {
		if !strings.EqualFold(labels[i], value) {
			return false
		}
	}

	return true
}

// FieldOptions maps resource paths to field names to the options of each
// field, as returned by the options action.
type FieldOptions map[string]map[string]Options

// Field returns the options of a field in a resource, or nil.
func (f FieldOptions) Field(resource, field string) Options {
	fields, ok := f[resource]
	if !ok {
		return nil
	}

	return fields[field]
}
