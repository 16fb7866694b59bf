// internal/domain/models/document.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is the metadata of one uploaded file. The bytes live in the
// upload filesystem under FileName.
type Document struct {
	ID                    primitive.ObjectID `bson:"_id" json:"id"`
	OrganizationProfileID primitive.ObjectID `bson:"organization_profile_id" json:"organizationProfile"`

	Label       string `bson:"label" json:"label"`
	FileName    string `bson:"file_name" json:"fileName"`
	ContentType string `bson:"content_type,omitempty" json:"contentType,omitempty"`
	Size        int64  `bson:"size" json:"size"`

	Status        ReviewStatus `bson:"status" json:"status"`
	RevisionNotes string       `bson:"revision_notes,omitempty" json:"revisionNotes,omitempty"`
	IsPinned      bool         `bson:"is_pinned" json:"isPinned"`

	// Logs is append-only.
	Logs []DocumentLog `bson:"logs" json:"logs"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// DocumentLog is one audit entry on a Document.
type DocumentLog struct {
	At      time.Time `bson:"at" json:"at"`
	Actor   string    `bson:"actor,omitempty" json:"actor,omitempty"`
	Message string    `bson:"message" json:"message"`
}
