// Package drafting owns document drafts, their ordered version history and
// the review state machine that gates each version.
package drafting

import (
	"errors"
	"time"
)

type VersionStatus string

const (
	VersionPending  VersionStatus = "pending"
	VersionApproved VersionStatus = "approved"
	VersionRejected VersionStatus = "rejected"
	VersionModified VersionStatus = "modified"
)

type DraftStatus string

const (
	DraftActive   DraftStatus = "active"
	DraftArchived DraftStatus = "archived"
	DraftDeleted  DraftStatus = "deleted"
)

var (
	ErrNotFound          = errors.New("draft not found")
	ErrForbidden         = errors.New("draft belongs to another user")
	ErrVersionNotFound   = errors.New("draft version not found")
	ErrNoVersions        = errors.New("draft has no versions")
	ErrMaxVersions       = errors.New("draft reached its max_versions cap")
	ErrFeedbackRequired  = errors.New("feedback is required by draft settings")
	ErrReasonRequired    = errors.New("rejection requires a reason")
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrTransition        = errors.New("invalid review transition")
)

// VersionMetadata records how a version came to be.
type VersionMetadata struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Model       string    `json:"model,omitempty"`
	Regenerated bool      `json:"regenerated,omitempty"`
}

// DraftVersion is one generated revision of a document. Versions are
// append-only: review actions mutate status and feedback, never the order.
type DraftVersion struct {
	ID             string          `json:"id"`
	Content        string          `json:"content"` // JSON: {document_type, title, digest, body}
	Status         VersionStatus   `json:"status"`
	Feedback       string          `json:"feedback,omitempty"`
	RejectedReason string          `json:"rejectedReason,omitempty"`
	ApprovedBy     string          `json:"approvedBy,omitempty"`
	ApprovedAt     *time.Time      `json:"approvedAt,omitempty"`
	CreatedBy      string          `json:"createdBy"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	Metadata       VersionMetadata `json:"metadata"`
}

// Settings tune review behavior per draft.
type Settings struct {
	AutoApprove     bool `json:"autoApprove"`
	RequireFeedback bool `json:"requireFeedback"`
	MaxVersions     int  `json:"maxVersions"`
}

func defaultSettings() Settings {
	return Settings{MaxVersions: 10}
}

// DocumentDraft is a lawyer-facing document and its version history.
// CurrentVersion is a 1-based index into Versions and always points at a
// valid element once any version exists.
type DocumentDraft struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	ChatID          string          `json:"chatId,omitempty"`
	WorkflowID      string          `json:"workflowId,omitempty"`
	DocumentType    string          `json:"documentType"`
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	Status          DraftStatus     `json:"status"`
	CurrentVersion  int             `json:"currentVersion"`
	Versions        []*DraftVersion `json:"versions"`
	OriginalContent string          `json:"originalContent,omitempty"`
	Settings        Settings        `json:"settings"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// clone copies the version. ApprovedAt is shared: review actions replace
// the pointer, never the pointed-to time.
func (v *DraftVersion) clone() *DraftVersion {
	c := *v
	return &c
}

// clone deep-copies the draft so callers can read and serialize it without
// the store lock while concurrent requests keep mutating the live record.
func (d *DocumentDraft) clone() *DocumentDraft {
	c := *d
	c.Versions = make([]*DraftVersion, len(d.Versions))
	for i, v := range d.Versions {
		c.Versions[i] = v.clone()
	}
	return &c
}

// Version finds a version by ID.
func (d *DocumentDraft) Version(versionID string) *DraftVersion {
	for _, v := range d.Versions {
		if v.ID == versionID {
			return v
		}
	}
	return nil
}

// LatestApproved returns the newest approved version, else the newest
// version, else nil.
func (d *DocumentDraft) LatestApproved() *DraftVersion {
	for i := len(d.Versions) - 1; i >= 0; i-- {
		if d.Versions[i].Status == VersionApproved {
			return d.Versions[i]
		}
	}
	if len(d.Versions) > 0 {
		return d.Versions[len(d.Versions)-1]
	}
	return nil
}
