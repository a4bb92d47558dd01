package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/uniweb/internal/constants"
	"github.com/fivetwenty-io/uniweb/pkg/uniweb"
)

// GetTitles implements uniweb.DirectoryClient.GetTitles.
func (c *Client) GetTitles(ctx context.Context) (*uniweb.Response, error) {
	return c.list(ctx, uniweb.ActionGetTitles)
}

// GetUnits implements uniweb.DirectoryClient.GetUnits.
func (c *Client) GetUnits(ctx context.Context) (*uniweb.Response, error) {
	return c.list(ctx, uniweb.ActionGetUnits)
}

// GetRoles implements uniweb.DirectoryClient.GetRoles.
func (c *Client) GetRoles(ctx context.Context) (*uniweb.Response, error) {
	return c.list(ctx, uniweb.ActionGetRoles)
}

// GetPermissions implements uniweb.DirectoryClient.GetPermissions.
func (c *Client) GetPermissions(ctx context.Context) (*uniweb.Response, error) {
	return c.list(ctx, uniweb.ActionGetPermissions)
}

// GetRolesPermissions implements uniweb.DirectoryClient.GetRolesPermissions.
func (c *Client) GetRolesPermissions(ctx context.Context) (*uniweb.Response, error) {
	return c.list(ctx, uniweb.ActionGetRolesPermissions)
}

// GetMembers implements uniweb.DirectoryClient.GetMembers.
func (c *Client) GetMembers(ctx context.Context) (*uniweb.Response, error) {
	return c.list(ctx, uniweb.ActionGetMembers)
}

func (c *Client) list(ctx context.Context, action uniweb.Action) (*uniweb.Response, error) {
	resp, err := c.SendRequest(ctx, &uniweb.Request{Action: action}, c.retryBudget)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}

	return resp, nil
}

// QueryUnits implements uniweb.DirectoryClient.QueryUnits.
func (c *Client) QueryUnits(ctx context.Context, query *uniweb.UnitQuery) ([]uniweb.Unit, error) {
	if query == nil {
		query = &uniweb.UnitQuery{}
	}

	language := query.Language
	if language == "" {
		language = constants.DefaultLanguage
	}

	resp, err := c.Read(ctx, &uniweb.ReadRequest{
		ContentType: constants.ContentTypeUnits,
		Filter:      query.Filter,
		Language:    language,
	})
	if err != nil {
		return nil, fmt.Errorf("querying units: %w", err)
	}

	units, err := decodeUnitList(resp.Raw)
	if err != nil {
		return nil, fmt.Errorf("querying units: %w", err)
	}

	if query.SortBy != "" {
		sort.SliceStable(units, func(i, j int) bool {
			return compareValues(units[i][query.SortBy], units[j][query.SortBy]) < 0
		})
	}

	return units, nil
}

// QueryUnitProfiles implements uniweb.DirectoryClient.QueryUnitProfiles.
// Units are kept when their type label equals unitType, or all of them when
// unitType is empty. The bilingual name is replaced by its value in language
// when that value is set.
func (c *Client) QueryUnitProfiles(ctx context.Context, unitType, language string) (map[string]uniweb.Unit, error) {
	resp, err := c.Read(ctx, &uniweb.ReadRequest{
		ContentType: constants.ContentTypeUnits,
		Resources:   uniweb.Paths{constants.UnitInformationResource},
	})
	if err != nil {
		return nil, fmt.Errorf("querying unit profiles: %w", err)
	}

	records, err := decodeUnitMap(resp.Raw)
	if err != nil {
		return nil, fmt.Errorf("querying unit profiles: %w", err)
	}

	profiles := make(map[string]uniweb.Unit, len(records))

	for unitID, record := range records {
		info, _ := record[constants.UnitInformationResource].(map[string]interface{})
		profile := uniweb.Unit(info)

		if profile == nil {
			profile = uniweb.Unit{}
		}

		if unitType != "" && optionLabel(profile["type"]) != unitType {
			continue
		}

		if language != "" {
			if names, ok := profile["name"].(map[string]interface{}); ok {
				if localized, ok := names[language].(string); ok && localized != "" {
					profile["name"] = localized
				}
			}
		}

		profiles[unitID] = profile
	}

	return profiles, nil
}

// decodeUnitList accepts a list of units or an object keyed by unit ID, in
// which case units are ordered by key.
func decodeUnitList(raw json.RawMessage) ([]uniweb.Unit, error) {
	var units []uniweb.Unit

	err := decodeNumbers(raw, &units)
	if err == nil {
		return units, nil
	}

	keyed, err := decodeUnitMap(raw)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(keyed))
	for key := range keyed {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	units = make([]uniweb.Unit, 0, len(keys))
	for _, key := range keys {
		units = append(units, keyed[key])
	}

	return units, nil
}

// decodeUnitMap accepts an object keyed by unit ID or a list, whose
// positions become the keys.
func decodeUnitMap(raw json.RawMessage) (map[string]uniweb.Unit, error) {
	var keyed map[string]uniweb.Unit

	err := decodeNumbers(raw, &keyed)
	if err == nil {
		return keyed, nil
	}

	var units []uniweb.Unit

	listErr := decodeNumbers(raw, &units)
	if listErr != nil {
		return nil, fmt.Errorf("%w: units: %w", uniweb.ErrProtocol, err)
	}

	keyed = make(map[string]uniweb.Unit, len(units))
	for i, unit := range units {
		keyed[strconv.Itoa(i)] = unit
	}

	return keyed, nil
}

func decodeNumbers(raw json.RawMessage, v interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	return decoder.Decode(v)
}

// optionLabel returns the name of an option value [ID, name, ...].
func optionLabel(value interface{}) string {
	option, ok := value.([]interface{})
	if !ok || len(option) < 2 || option[1] == nil {
		return ""
	}

	return fmt.Sprint(option[1])
}

// compareValues orders two property values: numerically when both are
// numbers or numeric strings, as text otherwise.
func compareValues(a, b interface{}) int {
	aNum, aOK := numericValue(a)
	bNum, bOK := numericValue(b)

	if aOK && bOK {
		switch {
		case aNum < bNum:
			return -1
		case aNum > bNum:
			return 1
		default:
			return 0
		}
	}

	return strings.Compare(textValue(a), textValue(b))
}

func numericValue(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()

		return f, err == nil
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)

		return f, err == nil
	default:
		return 0, false
	}
}

func textValue(value interface{}) string {
	if value == nil {
		return ""
	}

	return fmt.Sprint(value)
}
