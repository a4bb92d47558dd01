package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/uniweb/pkg/uniweb"
)

// ErrOptionNotFound is returned by find-option when no entry matches.
var ErrOptionNotFound = errors.New("option not found")

func (a *App) newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info RESOURCE...",
		Short: "Describe sections and fields",
		Long: `Describe the fields of sections, or of a single field using the _fields_
segment, e.g. cv/contributions/presentations/_fields_/main_audience`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient(cmd)
			if err != nil {
				return err
			}

			resp, err := c.GetInfo(cmd.Context(), args...)
			if err != nil {
				return err
			}

			return a.renderResponse(cmd, resp)
		},
	}
}

func (a *App) newOptionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "options RESOURCE...",
		Short: "List the drop-down values of sections",
		Long:  "List the valid values of the drop-down fields of sections",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient(cmd)
			if err != nil {
				return err
			}

			resp, err := c.GetOptions(cmd.Context(), args...)
			if err != nil {
				return err
			}

			if a.output() != OutputFormatTable {
				return a.renderResponse(cmd, resp)
			}

			options, err := resp.Options()
			if err != nil {
				return err
			}

			return a.renderOptions(cmd, options)
		},
	}
}

func (a *App) renderOptions(cmd *cobra.Command, options uniweb.FieldOptions) error {
	rows := make([]map[string]interface{}, 0)

	for _, resource := range sortedKeys(options) {
		fields := options[resource]

		for _, field := range sortedKeys(fields) {
			for _, entry := range fields[field] {
				rows = append(rows, map[string]interface{}{
					"resource": resource,
					"field":    field,
					"id":       entry.ID,
					"label":    strings.Join(entry.Labels, " / "),
				})
			}
		}
	}

	return a.renderValue(cmd, rows)
}

func (a *App) newFindOptionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "find-option RESOURCE FIELD NAME [PARENT...]",
		Short: "Resolve a drop-down label to its identifier",
		Long: `Resolve a drop-down label to the identifier expected by edit and add.
Labels are compared case-insensitively. Parent labels disambiguate entries
sharing a name, e.g. find-option profile/affiliations city Montreal Quebec`,
		Args: cobra.MinimumNArgs(3), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, field, path := args[0], args[1], args[2:]

			c, err := a.apiClient(cmd)
			if err != nil {
				return err
			}

			resp, err := c.GetOptions(cmd.Context(), resource)
			if err != nil {
				return err
			}

			options, err := resp.Options()
			if err != nil {
				return err
			}

			id, found := c.FindOptionID(options.Field(resource, field), path...)
			if !found {
				return fmt.Errorf("%w: %s in %s/%s", ErrOptionNotFound, strings.Join(path, " / "), resource, field)
			}

			return a.renderProperties(cmd, []Property{
				{"resource", resource},
				{"field", field},
				{"label", strings.Join(path, " / ")},
				{"id", strings.Trim(string(id), `"`)},
			})
		},
	}
}
