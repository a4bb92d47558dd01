package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/uniweb/pkg/uniweb"
)

// Read implements uniweb.ResourceClient.Read.
func (c *Client) Read(ctx context.Context, req *uniweb.ReadRequest) (*uniweb.Response, error) {
	if req == nil {
		return nil, uniweb.ErrEmptyRequest
	}

	resp, err := c.SendRequest(ctx, req.Request(), c.retryBudget)
	if err != nil {
		return nil, fmt.Errorf("reading resources: %w", err)
	}

	return resp, nil
}

// Add implements uniweb.ResourceClient.Add.
func (c *Client) Add(ctx context.Context, req *uniweb.WriteRequest) (*uniweb.Response, error) {
	return c.write(ctx, uniweb.ActionAdd, req)
}

// Edit implements uniweb.ResourceClient.Edit.
func (c *Client) Edit(ctx context.Context, req *uniweb.WriteRequest) (*uniweb.Response, error) {
	return c.write(ctx, uniweb.ActionEdit, req)
}

// Clear implements uniweb.ResourceClient.Clear.
func (c *Client) Clear(ctx context.Context, req *uniweb.WriteRequest) (*uniweb.Response, error) {
	return c.write(ctx, uniweb.ActionClear, req)
}

// UpdatePicture implements uniweb.ResourceClient.UpdatePicture.
func (c *Client) UpdatePicture(ctx context.Context, req *uniweb.WriteRequest) (*uniweb.Response, error) {
	return c.write(ctx, uniweb.ActionUpdatePicture, req)
}

// AddFileAttachment implements uniweb.ResourceClient.AddFileAttachment.
func (c *Client) AddFileAttachment(req *uniweb.WriteRequest, name, path, mimeType string) error {
	if req == nil {
		return uniweb.ErrEmptyRequest
	}

	return req.AddFileAttachment(name, path, mimeType)
}

func (c *Client) write(ctx context.Context, action uniweb.Action, req *uniweb.WriteRequest) (*uniweb.Response, error) {
	if req == nil {
		return nil, uniweb.ErrEmptyRequest
	}

	resp, err := c.SendRequest(ctx, req.Request(action), c.retryBudget)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", action, req.ID, err)
	}

	return resp, nil
}
