// Package request turns request descriptions into the payload posted to the
// resource endpoint.
package request

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fivetwenty-io/uniweb/pkg/uniweb"
)

// Payload is the wire form of a request: the JSON description sent in the
// request field, and the files sent as separate multipart parts.
type Payload struct {
	Body  []byte
	Files []uniweb.FileAttachment
}

// wireRequest is the JSON description. Files never appear in it.
type wireRequest struct {
	Action      uniweb.Action    `json:"action"`
	ID          string           `json:"id,omitempty"`
	ContentType string           `json:"contentType,omitempty"`
	Resources   uniweb.Resources `json:"resources,omitempty"`
	Filter      uniweb.Filter    `json:"filter,omitempty"`
	Language    string           `json:"language,omitempty"`
}

// Build validates req and produces its payload. Every failure wraps
// uniweb.ErrInvalidRequest and happens before anything is sent.
func Build(req *uniweb.Request) (*Payload, error) {
	err := Validate(req)
	if err != nil {
		return nil, err
	}

	files, err := collectFiles(req.Files)
	if err != nil {
		return nil, err
	}

	wire := wireRequest{
		Action:      req.Action,
		ID:          req.ID,
		ContentType: req.ContentType,
		Filter:      req.Filter,
		Language:    req.Language,
	}

	if req.Resources != nil && req.Resources.Len() > 0 {
		wire.Resources = req.Resources
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %w", uniweb.ErrInvalidRequest, err)
	}

	return &Payload{Body: body, Files: files}, nil
}

// Validate checks the structure of req without touching attachments.
func Validate(req *uniweb.Request) error {
	if req == nil || req.Action == "" {
		return uniweb.ErrEmptyRequest
	}

	if !req.Action.Valid() {
		return fmt.Errorf("%w: %s", uniweb.ErrUnsupportedAction, req.Action)
	}

	if req.Action.IsWrite() && strings.TrimSpace(req.ID) == "" {
		return fmt.Errorf("%w for action %s", uniweb.ErrMissingID, req.Action)
	}

	count := 0
	if req.Resources != nil {
		count = req.Resources.Len()
	}

	switch {
	case req.Action == uniweb.ActionRead && count == 0 && req.ContentType == "":
		return fmt.Errorf("%w for action %s", uniweb.ErrEmptyResources, req.Action)
	case requiresResources(req.Action) && count == 0:
		return fmt.Errorf("%w for action %s", uniweb.ErrEmptyResources, req.Action)
	}

	if count > 0 && !shapeMatches(req.Action, req.Resources) {
		return fmt.Errorf("%w: %s cannot take %T", uniweb.ErrResourceShape, req.Action, req.Resources)
	}

	return nil
}

func requiresResources(action uniweb.Action) bool {
	switch action {
	case uniweb.ActionInfo, uniweb.ActionOptions, uniweb.ActionEdit, uniweb.ActionAdd,
		uniweb.ActionClear, uniweb.ActionUpdatePicture:
		return true
	default:
		return false
	}
}

// shapeMatches reports whether the resource variant fits the action: item
// lists for add, field values for edit and updatePicture, paths otherwise.
func shapeMatches(action uniweb.Action, resources uniweb.Resources) bool {
	switch resources.(type) {
	case uniweb.ItemLists:
		return action == uniweb.ActionAdd
	case uniweb.Records:
		return action == uniweb.ActionEdit || action == uniweb.ActionUpdatePicture
	case uniweb.Paths:
		return action != uniweb.ActionAdd && action != uniweb.ActionEdit && action != uniweb.ActionUpdatePicture
	default:
		return false
	}
}

// collectFiles validates attachments and returns them ordered by name.
func collectFiles(files map[string]uniweb.FileAttachment) ([]uniweb.FileAttachment, error) {
	if len(files) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}

	sort.Strings(names)

	collected := make([]uniweb.FileAttachment, 0, len(names))

	for _, name := range names {
		err := uniweb.ValidateAttachmentName(name)
		if err != nil {
			return nil, err
		}

		attachment := files[name]
		attachment.Name = name

		info, err := os.Stat(attachment.Path)
		if err != nil || info.IsDir() {
			return nil, fmt.Errorf("%w for attachment %s: %s", uniweb.ErrUnreadableFile, name, attachment.Path)
		}

		collected = append(collected, attachment)
	}

	return collected, nil
}
