package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/uniweb/pkg/uniweb"
)

// Output formats.
const (
	OutputFormatTable = "table"
	OutputFormatJSON  = "json"
	OutputFormatYAML  = "yaml"

	defaultJSONIndent = 2
)

// Property is one row of a property/value table.
type Property struct {
	Name  string
	Value string
}

// OutputRenderer handles different output formats.
type OutputRenderer[T any] struct {
	RenderJSON  func(data T) error
	RenderYAML  func(data T) error
	RenderTable func(data T) error
}

// Render outputs data in the specified format.
func (o *OutputRenderer[T]) Render(data T, format string) error {
	switch format {
	case OutputFormatJSON:
		return o.RenderJSON(data)
	case OutputFormatYAML:
		return o.RenderYAML(data)
	default:
		return o.RenderTable(data)
	}
}

func (a *App) renderProperties(cmd *cobra.Command, properties []Property) error {
	out := cmd.OutOrStdout()

	renderer := &OutputRenderer[[]Property]{
		RenderJSON: func(data []Property) error {
			return writeJSON(out, propertyMap(data))
		},
		RenderYAML: func(data []Property) error {
			return writeYAML(out, propertyMap(data))
		},
		RenderTable: func(data []Property) error {
			table := tablewriter.NewWriter(out)
			table.Header("Property", "Value")

			for _, property := range data {
				_ = table.Append(property.Name, property.Value)
			}

			if err := table.Render(); err != nil {
				return fmt.Errorf("failed to render table: %w", err)
			}

			return nil
		},
	}

	return renderer.Render(properties, a.output())
}

// renderResponse prints the decoded value of a reply.
func (a *App) renderResponse(cmd *cobra.Command, resp *uniweb.Response) error {
	value, err := resp.Value()
	if err != nil {
		return err
	}

	return a.renderValue(cmd, value)
}

// renderValue prints any JSON encodable value. Tables show lists of
// records as one row per record, objects as key/value rows and scalars as is.
func (a *App) renderValue(cmd *cobra.Command, value interface{}) error {
	generic, err := normalize(value)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	renderer := &OutputRenderer[interface{}]{
		RenderJSON: func(data interface{}) error {
			return writeJSON(out, data)
		},
		RenderYAML: func(data interface{}) error {
			return writeYAML(out, yamlValue(data))
		},
		RenderTable: func(data interface{}) error {
			return writeTable(out, data)
		},
	}

	return renderer.Render(generic, a.output())
}

// normalize converts value to the generic form produced by decoding JSON
// with numbers kept as json.Number.
func normalize(value interface{}) (interface{}, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(encoded))
	decoder.UseNumber()

	var generic interface{}

	err = decoder.Decode(&generic)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}

	return generic, nil
}

func writeJSON(out io.Writer, value interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", strings.Repeat(" ", defaultJSONIndent))

	return encoder.Encode(value)
}

func writeYAML(out io.Writer, value interface{}) error {
	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(defaultJSONIndent)

	err := encoder.Encode(value)
	if err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return encoder.Close()
}

// yamlValue replaces json.Number, which yaml encodes as a quoted string,
// with an int64 or float64.
func yamlValue(value interface{}) interface{} {
	switch typed := value.(type) {
	case json.Number:
		if n, err := typed.Int64(); err == nil {
			return n
		}

		if f, err := typed.Float64(); err == nil {
			return f
		}

		return typed.String()
	case map[string]interface{}:
		converted := make(map[string]interface{}, len(typed))
		for key, item := range typed {
			converted[key] = yamlValue(item)
		}

		return converted
	case []interface{}:
		converted := make([]interface{}, len(typed))
		for i, item := range typed {
			converted[i] = yamlValue(item)
		}

		return converted
	default:
		return value
	}
}

func writeTable(out io.Writer, value interface{}) error {
	switch typed := value.(type) {
	case []interface{}:
		if headers, ok := recordHeaders(typed); ok {
			return renderRecords(out, headers, typed)
		}

		table := tablewriter.NewWriter(out)
		table.Header("Value")

		for _, item := range typed {
			_ = table.Append(cell(item))
		}

		return renderTable(table)
	case map[string]interface{}:
		table := tablewriter.NewWriter(out)
		table.Header("Key", "Value")

		for _, key := range sortedKeys(typed) {
			_ = table.Append(key, cell(typed[key]))
		}

		return renderTable(table)
	default:
		_, err := fmt.Fprintln(out, cell(value))

		return err
	}
}

// recordHeaders returns the sorted union of the keys of items when every
// item is an object.
func recordHeaders(items []interface{}) ([]string, bool) {
	if len(items) == 0 {
		return nil, false
	}

	seen := make(map[string]bool)

	for _, item := range items {
		record, ok := item.(map[string]interface{})
		if !ok {
			return nil, false
		}

		for key := range record {
			seen[key] = true
		}
	}

	return sortedKeys(seen), true
}

func renderRecords(out io.Writer, headers []string, items []interface{}) error {
	table := tablewriter.NewWriter(out)

	header := make([]any, len(headers))
	for i, name := range headers {
		header[i] = name
	}

	table.Header(header...)

	for _, item := range items {
		record, _ := item.(map[string]interface{})

		row := make([]any, len(headers))
		for i, name := range headers {
			row[i] = cell(record[name])
		}

		_ = table.Append(row...)
	}

	return renderTable(table)
}

func renderTable(table *tablewriter.Table) error {
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// cell formats a value for a table cell. Nested values are shown as JSON.
func cell(value interface{}) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case json.Number:
		return typed.String()
	case bool:
		return fmt.Sprintf("%t", typed)
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprintf("%v", typed)
		}

		return string(encoded)
	}
}

func sortedKeys[V any](values map[string]V) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

func propertyMap(properties []Property) map[string]string {
	values := make(map[string]string, len(properties))
	for _, property := range properties {
		values[property.Name] = property.Value
	}

	return values
}
