package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/uniweb/pkg/uniweb"
)

// Static errors of the resource commands.
var (
	ErrNoInput           = errors.New("resources are required (use --data or --file)")
	ErrConflictingInput  = errors.New("--data and --file cannot be combined")
	ErrInvalidAttachment = errors.New("invalid attachment, expected NAME=PATH")
	ErrResourcesRequired = errors.New("at least one resource or --content-type is required")
)

const (
	defaultPictureName    = "picture"
	defaultAttachmentMIME = "application/octet-stream"
)

// writeInput collects the flags shared by the add and edit commands.
type writeInput struct {
	data        string
	file        string
	attachments []string
	language    string
}

func (w *writeInput) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&w.data, "data", "d", "", "resources as inline JSON")
	cmd.Flags().StringVarP(&w.file, "file", "f", "", "resources from a JSON or YAML file")
	cmd.Flags().StringArrayVar(&w.attachments, "attach", nil, "attach a file as NAME=PATH (repeatable)")
	cmd.Flags().StringVar(&w.language, "language", "", "language of the request (en or fr)")
}

// decode reads the resource tree into target.
func (w *writeInput) decode(target interface{}) error {
	switch {
	case w.data != "" && w.file != "":
		return ErrConflictingInput
	case w.data != "":
		err := decodeJSON([]byte(w.data), target)
		if err != nil {
			return fmt.Errorf("failed to parse --data: %w", err)
		}

		return nil
	case w.file != "":
		// #nosec G304 -- the path is chosen by the user running the CLI
		content, err := os.ReadFile(w.file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", w.file, err)
		}

		ext := strings.ToLower(filepath.Ext(w.file))
		if ext == ".yaml" || ext == ".yml" {
			err = yaml.Unmarshal(content, target)
		} else {
			err = decodeJSON(content, target)
		}

		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", w.file, err)
		}

		return nil
	default:
		return ErrNoInput
	}
}

// decodeJSON keeps numbers as json.Number so option ids are sent back
// unchanged.
func decodeJSON(content []byte, target interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(content))
	decoder.UseNumber()

	return decoder.Decode(target)
}

// attach adds the --attach files to req.
func (w *writeInput) attach(c uniweb.Client, req *uniweb.WriteRequest) error {
	req.Language = w.language

	for _, entry := range w.attachments {
		name, path, ok := strings.Cut(entry, "=")
		if !ok || name == "" || path == "" {
			return fmt.Errorf("%w: %q", ErrInvalidAttachment, entry)
		}

		err := c.AddFileAttachment(req, name, path, mimeType(path))
		if err != nil {
			return err
		}
	}

	return nil
}

func mimeType(path string) string {
	detected := mime.TypeByExtension(filepath.Ext(path))
	if detected == "" {
		return defaultAttachmentMIME
	}

	return detected
}

func (a *App) newReadCommand() *cobra.Command {
	var (
		resources   []string
		contentType string
		filter      map[string]string
		language    string
	)

	cmd := &cobra.Command{
		Use:   "read [ID]",
		Short: "Read resources",
		Long: `Read sections of one member, or of every member matching --filter.

Without an ID and filter the sections of every subject are returned. With
--content-type and no resources the server lists the items of that type.`,
		Example: `  uniweb read jane@example.org -r profile/affiliations
  uniweb read -r profile/membership_information --filter unit=Engineering --filter title=Professor
  uniweb read --content-type units`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(resources) == 0 && contentType == "" {
				return ErrResourcesRequired
			}

			c, err := a.apiClient(cmd)
			if err != nil {
				return err
			}

			req := &uniweb.ReadRequest{
				ContentType: contentType,
				Resources:   uniweb.Paths(resources),
				Language:    language,
			}

			if len(args) == 1 {
				req.ID = args[0]
			}

			if len(filter) > 0 {
				req.Filter = make(uniweb.Filter, len(filter))
				for key, value := range filter {
					req.Filter[key] = value
				}
			}

			resp, err := c.Read(cmd.Context(), req)
			if err != nil {
				return err
			}

			return a.renderResponse(cmd, resp)
		},
	}

	cmd.Flags().StringSliceVarP(&resources, "resource", "r", nil, "resource path, e.g. profile/affiliations (repeatable)")
	cmd.Flags().StringVar(&contentType, "content-type", "", "content type, e.g. members or units")
	cmd.Flags().StringToStringVar(&filter, "filter", nil, "filter as KEY=VALUE (repeatable)")
	cmd.Flags().StringVar(&language, "language", "", "language of the reply (en or fr)")

	return cmd
}

func (a *App) newAddCommand() *cobra.Command {
	input := &writeInput{}

	cmd := &cobra.Command{
		Use:   "add ID",
		Short: "Add items to sections",
		Long: `Append items to the sections of a member. The input maps each section
path to a list of items, e.g.

  {"cv/education/degrees": [{"degree_name": "PhD", "degree_type": 3}]}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var items uniweb.ItemLists

			err := input.decode(&items)
			if err != nil {
				return err
			}

			req, err := uniweb.NewAddRequest(args[0], items)
			if err != nil {
				return err
			}

			return a.runWrite(cmd, input, req, func(c uniweb.Client) (*uniweb.Response, error) {
				return c.Add(cmd.Context(), req)
			})
		},
	}

	input.register(cmd)

	return cmd
}

func (a *App) newEditCommand() *cobra.Command {
	input := &writeInput{}

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit fields of resources",
		Long: `Set field values of a member. Fields that are not listed keep their value,
and a bilingual value only replaces the languages it sets, e.g.

  {"profile/research_description": {"keywords": {"english": "Robotics"}}}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var records uniweb.Records

			err := input.decode(&records)
			if err != nil {
				return err
			}

			req, err := uniweb.NewEditRequest(args[0], records)
			if err != nil {
				return err
			}

			return a.runWrite(cmd, input, req, func(c uniweb.Client) (*uniweb.Response, error) {
				return c.Edit(cmd.Context(), req)
			})
		},
	}

	input.register(cmd)

	return cmd
}

func (a *App) runWrite(
	cmd *cobra.Command,
	input *writeInput,
	req *uniweb.WriteRequest,
	send func(c uniweb.Client) (*uniweb.Response, error),
) error {
	c, err := a.apiClient(cmd)
	if err != nil {
		return err
	}

	err = input.attach(c, req)
	if err != nil {
		return err
	}

	resp, err := send(c)
	if err != nil {
		return err
	}

	return a.renderWriteResult(cmd, req.ID, resp)
}

func (a *App) newClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear ID RESOURCE...",
		Short: "Remove every item of sections",
		Long:  "Remove every item of the given sections of a member",
		Args:  cobra.MinimumNArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := uniweb.NewClearRequest(args[0], args[1:]...)
			if err != nil {
				return err
			}

			c, err := a.apiClient(cmd)
			if err != nil {
				return err
			}

			resp, err := c.Clear(cmd.Context(), req)
			if err != nil {
				return err
			}

			return a.renderWriteResult(cmd, req.ID, resp)
		},
	}
}

func (a *App) newPictureCommand() *cobra.Command {
	var (
		name     string
		mimeFlag string
	)

	cmd := &cobra.Command{
		Use:   "picture ID IMAGE",
		Short: "Replace the profile picture",
		Long:  "Upload a local image as the profile picture of a member",
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			contentType := mimeFlag
			if contentType == "" {
				contentType = mimeType(args[1])
			}

			req, err := uniweb.NewPictureRequest(args[0], name, args[1], contentType)
			if err != nil {
				return err
			}

			c, err := a.apiClient(cmd)
			if err != nil {
				return err
			}

			resp, err := c.UpdatePicture(cmd.Context(), req)
			if err != nil {
				return err
			}

			return a.renderWriteResult(cmd, req.ID, resp)
		},
	}

	cmd.Flags().StringVar(&name, "name", defaultPictureName, "attachment name")
	cmd.Flags().StringVar(&mimeFlag, "mime-type", "", "MIME type of the image (default from the extension)")

	return cmd
}

func (a *App) renderWriteResult(cmd *cobra.Command, id string, resp *uniweb.Response) error {
	if a.output() != OutputFormatTable {
		return a.renderResponse(cmd, resp)
	}

	status := "failed"
	if resp.Bool() {
		status = "ok"
	}

	return a.renderProperties(cmd, []Property{
		{"id", id},
		{"status", status},
	})
}
