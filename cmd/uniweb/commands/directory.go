package commands

import (
	"context"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/uniweb/pkg/uniweb"
)

// directoryListing is a command listing one kind of institutional data.
type directoryListing struct {
	action uniweb.Action
	short  string
	fetch  func(c uniweb.Client, ctx context.Context) (*uniweb.Response, error)
}

func directoryListings() []directoryListing {
	return []directoryListing{
		{uniweb.ActionGetTitles, "List the academic titles", uniweb.Client.GetTitles},
		{uniweb.ActionGetUnits, "List the institutional units", uniweb.Client.GetUnits},
		{uniweb.ActionGetRoles, "List the roles", uniweb.Client.GetRoles},
		{uniweb.ActionGetPermissions, "List the permissions", uniweb.Client.GetPermissions},
		{uniweb.ActionGetRolesPermissions, "List the permissions of each role", uniweb.Client.GetRolesPermissions},
		{uniweb.ActionGetMembers, "List the members", uniweb.Client.GetMembers},
	}
}

// commandName derives a command name from an action, e.g.
// getRolesPermissions becomes roles-permissions.
func commandName(action uniweb.Action) string {
	return strcase.ToKebab(strings.TrimPrefix(string(action), "get"))
}

func (a *App) newDirectoryCommands() []*cobra.Command {
	listings := directoryListings()
	commands := make([]*cobra.Command, 0, len(listings))

	for _, listing := range listings {
		listing := listing
		commands = append(commands, &cobra.Command{
			Use:   commandName(listing.action),
			Short: listing.short,
			Long:  listing.short + " of the instance",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := a.apiClient(cmd)
				if err != nil {
					return err
				}

				resp, err := listing.fetch(c, cmd.Context())
				if err != nil {
					return err
				}

				return a.renderResponse(cmd, resp)
			},
		})
	}

	return commands
}

func (a *App) newQueryUnitsCommand() *cobra.Command {
	var (
		language string
		sortBy   string
		filter   map[string]string
	)

	cmd := &cobra.Command{
		Use:   "query-units",
		Short: "Query and sort units",
		Long:  "Read the units of the instance, optionally filtered, and sort them by one of their properties",
		Example: `  uniweb query-units --sort-by memberCount
  uniweb query-units --language fr --filter unit=Engineering`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient(cmd)
			if err != nil {
				return err
			}

			query := &uniweb.UnitQuery{Language: language, SortBy: sortBy}
			if len(filter) > 0 {
				query.Filter = make(uniweb.Filter, len(filter))
				for key, value := range filter {
					query.Filter[key] = value
				}
			}

			units, err := c.QueryUnits(cmd.Context(), query)
			if err != nil {
				return err
			}

			return a.renderValue(cmd, units)
		},
	}

	cmd.Flags().StringVar(&language, "language", "", "language of the reply (default en)")
	cmd.Flags().StringVar(&sortBy, "sort-by", "", "property to sort the units by")
	cmd.Flags().StringToStringVar(&filter, "filter", nil, "filter as KEY=VALUE (repeatable)")

	return cmd
}

func (a *App) newUnitProfilesCommand() *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "unit-profiles [TYPE]",
		Short: "Show the profiles of units",
		Long: `Show the unit information of every unit, keyed by unit, optionally
restricted to units of one type, e.g. Faculty or Department`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient(cmd)
			if err != nil {
				return err
			}

			unitType := ""
			if len(args) == 1 {
				unitType = args[0]
			}

			profiles, err := c.QueryUnitProfiles(cmd.Context(), unitType, language)
			if err != nil {
				return err
			}

			return a.renderValue(cmd, profiles)
		},
	}

	cmd.Flags().StringVar(&language, "language", "", "language of unit names (default en)")

	return cmd
}
