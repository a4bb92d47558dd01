package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fivetwenty-io/uniweb/pkg/uniweb"
)

// GetInfo implements uniweb.SchemaClient.GetInfo.
func (c *Client) GetInfo(ctx context.Context, resources ...string) (*uniweb.Response, error) {
	req := &uniweb.InfoRequest{Resources: uniweb.Paths(resources)}

	resp, err := c.SendRequest(ctx, req.Request(uniweb.ActionInfo), c.retryBudget)
	if err != nil {
		return nil, fmt.Errorf("getting info: %w", err)
	}

	return resp, nil
}

// GetOptions implements uniweb.SchemaClient.GetOptions.
func (c *Client) GetOptions(ctx context.Context, resources ...string) (*uniweb.Response, error) {
	req := &uniweb.InfoRequest{Resources: uniweb.Paths(resources)}

	resp, err := c.SendRequest(ctx, req.Request(uniweb.ActionOptions), c.retryBudget)
	if err != nil {
		return nil, fmt.Errorf("getting options: %w", err)
	}

	return resp, nil
}

// FindOptionID implements uniweb.SchemaClient.FindOptionID.
func (c *Client) FindOptionID(options uniweb.Options, path ...string) (json.RawMessage, bool) {
	return options.FindID(path...)
}
