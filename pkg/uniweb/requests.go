package uniweb

import (
	"fmt"
	"os"
	"strings"
)

// Action names the operation requested from the resource endpoint.
type Action string

// Actions understood by the resource endpoint.
const (
	ActionRead                Action = "read"
	ActionEdit                Action = "edit"
	ActionAdd                 Action = "add"
	ActionClear               Action = "clear"
	ActionUpdatePicture       Action = "updatePicture"
	ActionInfo                Action = "info"
	ActionOptions             Action = "options"
	ActionGetTitles           Action = "getTitles"
	ActionGetUnits            Action = "getUnits"
	ActionGetRoles            Action = "getRoles"
	ActionGetPermissions      Action = "getPermissions"
	ActionGetRolesPermissions Action = "getRolesPermissions"
	ActionGetMembers          Action = "getMembers"
)

// ProfilePictureResource is the resource holding a member's picture.
const ProfilePictureResource = "profile/picture"

// Valid reports whether the action is known.
func (a Action) Valid() bool {
	switch a {
	case ActionRead, ActionEdit, ActionAdd, ActionClear, ActionUpdatePicture,
		ActionInfo, ActionOptions, ActionGetTitles, ActionGetUnits, ActionGetRoles,
		ActionGetPermissions, ActionGetRolesPermissions, ActionGetMembers:
		return true
	default:
		return false
	}
}

// IsWrite reports whether the action modifies a subject and so needs an ID.
func (a Action) IsWrite() bool {
	switch a {
	case ActionEdit, ActionAdd, ActionClear, ActionUpdatePicture:
		return true
	default:
		return false
	}
}

// Resources describes the resource tree of a request. It is one of Paths,
// Records or ItemLists.
type Resources interface {
	// Len returns the number of addressed resource paths.
	Len() int
	resources()
}

// Paths addresses resources by their '/'-delimited path, e.g.
// "profile/membership_information" or "cv/education/degrees".
type Paths []string

// Len implements Resources.
func (p Paths) Len() int { return len(p) }

func (Paths) resources() {}

// Records maps a resource path to its new field values. Fields that are not
// listed keep their stored values.
type Records map[string]Record

// Len implements Resources.
func (r Records) Len() int { return len(r) }

func (Records) resources() {}

// ItemLists maps a section path to the items appended to it.
type ItemLists map[string][]Record

// Len implements Resources.
func (l ItemLists) Len() int { return len(l) }

func (ItemLists) resources() {}

// Record maps field names to values. A value is a scalar, a Bilingual, an
// option identifier or label path, or a []Record holding the items of a
// subsection.
type Record map[string]interface{}

// Bilingual is a field value with independent English and French values.
// A nil language is left unchanged on the server.
type Bilingual struct {
	English *string `json:"english,omitempty" yaml:"english,omitempty"`
	French  *string `json:"french,omitempty"  yaml:"french,omitempty"`
}

// English returns a bilingual value that only sets the English text.
func English(text string) Bilingual {
	return Bilingual{English: &text}
}

// French returns a bilingual value that only sets the French text.
func French(text string) Bilingual {
	return Bilingual{French: &text}
}

// BothLanguages returns a bilingual value that sets both texts.
func BothLanguages(english, french string) Bilingual {
	return Bilingual{English: &english, French: &french}
}

// Filter narrows a read to the matching records, e.g.
// {"unit": "Engineering", "title": "Professor"}.
type Filter map[string]interface{}

// FileAttachment is a local file sent with a request as a multipart part
// named after the attachment.
type FileAttachment struct {
	Name     string
	Path     string
	MimeType string
}

// ValidateAttachmentName ensures that name can be used as a multipart field
// name on the server, which rewrites periods.
func ValidateAttachmentName(name string) error {
	if name == "" {
		return ErrEmptyAttachment
	}

	if strings.Contains(name, ".") {
		return fmt.Errorf("%w: %s", ErrDottedAttachment, name)
	}

	return nil
}

// Request is the generic request description sent to the resource
// endpoint. The typed requests below produce it; it can also be built
// directly and passed to Client.SendRequest.
type Request struct {
	Action      Action
	ID          string
	ContentType string
	Resources   Resources
	Filter      Filter
	Language    string
	// Files are sent out of band as multipart parts, keyed by attachment name.
	Files map[string]FileAttachment
}

// ReadRequest reads sections of one member (ID) or of every subject
// matching Filter. When Resources is empty the server lists the items of
// ContentType.
type ReadRequest struct {
	ID          string
	ContentType string
	Resources   Paths
	Filter      Filter
	Language    string
}

// Request returns the generic description of the read.
func (r *ReadRequest) Request() *Request {
	return &Request{
		Action:      ActionRead,
		ID:          r.ID,
		ContentType: r.ContentType,
		Resources:   r.Resources,
		Filter:      r.Filter,
		Language:    r.Language,
	}
}

// WriteRequest modifies the resources of one subject. Use Records for edit
// and updatePicture, ItemLists for add and Paths for clear.
type WriteRequest struct {
	ID        string
	Resources Resources
	Language  string
	Files     map[string]FileAttachment
}

// NewEditRequest creates a request that sets field values of an existing
// item of each resource.
func NewEditRequest(id string, records Records) (*WriteRequest, error) {
	return newWriteRequest(id, records)
}

// NewAddRequest creates a request that appends items to sections.
func NewAddRequest(id string, items ItemLists) (*WriteRequest, error) {
	return newWriteRequest(id, items)
}

// NewClearRequest creates a request that removes every item of the sections.
func NewClearRequest(id string, paths ...string) (*WriteRequest, error) {
	return newWriteRequest(id, Paths(paths))
}

// NewPictureRequest creates a request replacing the profile picture of id
// with a local image file.
func NewPictureRequest(id, attachmentName, path, mimeType string) (*WriteRequest, error) {
	req, err := newWriteRequest(id, Records{
		ProfilePictureResource: Record{"attachment": attachmentName},
	})
	if err != nil {
		return nil, err
	}

	err = req.AddFileAttachment(attachmentName, path, mimeType)
	if err != nil {
		return nil, err
	}

	return req, nil
}

func newWriteRequest(id string, resources Resources) (*WriteRequest, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingID
	}

	if resources == nil || resources.Len() == 0 {
		return nil, ErrEmptyResources
	}

	return &WriteRequest{ID: id, Resources: resources}, nil
}

// AddFileAttachment attaches a local file to the request. Resources refer
// to the file by name, which cannot contain periods. Attaching a second file
// under the same name replaces the first.
func (r *WriteRequest) AddFileAttachment(name, path, mimeType string) error {
	err := ValidateAttachmentName(name)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w at %s: %w", ErrUnreadableFile, path, err)
	}

	_ = file.Close()

	if r.Files == nil {
		r.Files = make(map[string]FileAttachment)
	}

	r.Files[name] = FileAttachment{Name: name, Path: path, MimeType: mimeType}

	return nil
}

// Request returns the generic description of the write for action.
func (r *WriteRequest) Request(action Action) *Request {
	return &Request{
		Action:    action,
		ID:        r.ID,
		Resources: r.Resources,
		Language:  r.Language,
		Files:     r.Files,
	}
}

// InfoRequest asks for the description or the options of sections and
// fields. Field paths use the "_fields_" segment, e.g.
// "cv/contributions/presentations/_fields_/main_audience/invited".
type InfoRequest struct {
	Resources Paths
}

// Request returns the generic description for the info or options action.
func (r *InfoRequest) Request(action Action) *Request {
	return &Request{Action: action, Resources: r.Resources}
}
