package models

import (
	"errors"
	"fmt"
	"time"
)

// MaxMediaBytes caps a single media item attached as AI context.
const MaxMediaBytes = 10 << 20

var (
	// ErrMediaTooLarge is returned when a media item exceeds MaxMediaBytes.
	ErrMediaTooLarge = errors.New("media item exceeds 10 MB")
	// ErrAlreadyMember is returned when a user joins a project twice.
	ErrAlreadyMember = errors.New("already a member of this project")
)

// Status is the completion state of a task
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress" // reserved: no operation sets it
	StatusCompleted  Status = "completed"
)

// ParseStatus validates a stored status value
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusInProgress, StatusCompleted:
		return Status(s), nil
	case "":
		return StatusPending, nil
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

// User is an authenticated person and their profile
type User struct {
	ID        string
	Name      string
	Email     string
	AvatarURL string
	UpdatedAt time.Time
}

// Project is a named collection of task trees
type Project struct {
	ID        string
	Title     string
	Subtitle  string
	OwnerID   string
	CreatedAt time.Time
	ImageURL  string
	Color     string
	Position  float64
	Archived  bool
}

// AttachmentKind classifies an attachment payload
type AttachmentKind string

const (
	AttachmentImage    AttachmentKind = "image"
	AttachmentDocument AttachmentKind = "document"
	AttachmentAudio    AttachmentKind = "audio"
	AttachmentVideo    AttachmentKind = "video"
	AttachmentLink     AttachmentKind = "link"
)

// Attachment is owned by exactly one task and deleted with it
type Attachment struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Kind      AttachmentKind `json:"type"`
	URL       string         `json:"url"`
	CreatedBy string         `json:"createdBy"`
	CreatedAt time.Time      `json:"createdAt"`
}

// ActivityKind classifies an activity log entry
type ActivityKind string

const (
	ActivityComment      ActivityKind = "comment"
	ActivityStatusChange ActivityKind = "status_change"
	ActivityCreation     ActivityKind = "creation"
	ActivityAttachment   ActivityKind = "attachment"
	ActivityAISuggestion ActivityKind = "ai_suggestion"
)

// ActivityLog is an entry in a task's history
type ActivityLog struct {
	ID        string       `json:"id"`
	Content   string       `json:"content"`
	Kind      ActivityKind `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	CreatedBy string       `json:"createdBy"`
}

// MediaBlob is inline binary context handed to the AI service
type MediaBlob struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// Validate enforces the per-item size ceiling
func (m MediaBlob) Validate() error {
	if len(m.Data) > MaxMediaBytes {
		return fmt.Errorf("%s: %w", m.Name, ErrMediaTooLarge)
	}
	return nil
}

// Task is a node of a project's task tree. Children are tracked by the
// forest that holds the task, not by the task itself.
type Task struct {
	ID             string
	ProjectID      string
	ParentID       string // empty for a root task
	Title          string
	Description    string
	Status         Status
	Position       float64
	Expanded       bool
	Archived       bool
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Tags           []string
	Attachments    []Attachment
	Activity       []ActivityLog
	AIContext      string
	SuggestedSteps string
	AIMedia        []MediaBlob
}

// Completed reports whether the task's own status is completed
func (t Task) Completed() bool {
	return t.Status == StatusCompleted
}

// Member grants a user access to a project they do not own
type Member struct {
	ProjectID string
	UserID    string
	Role      string
	CreatedAt time.Time
}

// Notification is a message addressed to one user
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Body      string
	Read      bool
	CreatedAt time.Time
}

// TaskPatch is a partial task update; nil fields are left unchanged.
// ParentID set to "" moves the task to the root of its project.
type TaskPatch struct {
	Title          *string
	Description    *string
	Status         *Status
	Position       *float64
	ParentID       *string
	Expanded       *bool
	Archived       *bool
	Tags           *[]string
	AIContext      *string
	SuggestedSteps *string
	AIMedia        *[]MediaBlob
}

// Apply returns t with the patch's fields set
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Position != nil {
		t.Position = *p.Position
	}
	if p.ParentID != nil {
		t.ParentID = *p.ParentID
	}
	if p.Expanded != nil {
		t.Expanded = *p.Expanded
	}
	if p.Archived != nil {
		t.Archived = *p.Archived
	}
	if p.Tags != nil {
		t.Tags = *p.Tags
	}
	if p.AIContext != nil {
		t.AIContext = *p.AIContext
	}
	if p.SuggestedSteps != nil {
		t.SuggestedSteps = *p.SuggestedSteps
	}
	if p.AIMedia != nil {
		t.AIMedia = *p.AIMedia
	}
	return t
}

// Empty reports whether the patch changes nothing
func (p TaskPatch) Empty() bool {
	return p == TaskPatch{}
}

// ProjectPatch is a partial project update; nil fields are left unchanged
type ProjectPatch struct {
	Title    *string
	Subtitle *string
	Color    *string
	ImageURL *string
	Position *float64
	Archived *bool
}

// Apply returns p with the patch's fields set
func (pp ProjectPatch) Apply(p Project) Project {
	if pp.Title != nil {
		p.Title = *pp.Title
	}
	if pp.Subtitle != nil {
		p.Subtitle = *pp.Subtitle
	}
	if pp.Color != nil {
		p.Color = *pp.Color
	}
	if pp.ImageURL != nil {
		p.ImageURL = *pp.ImageURL
	}
	if pp.Position != nil {
		p.Position = *pp.Position
	}
	if pp.Archived != nil {
		p.Archived = *pp.Archived
	}
	return p
}

// Empty reports whether the patch changes nothing
func (pp ProjectPatch) Empty() bool {
	return pp == ProjectPatch{}
}

// Ptr returns a pointer to v, for building patches
func Ptr[T any](v T) *T {
	return &v
}
