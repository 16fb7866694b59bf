// internal/domain/models/organization.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Organization is the persistent entity that carries across accreditation
// cycles. Each cycle is an OrganizationProfile.
type Organization struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Name      string             `bson:"name" json:"name"`
	NameCI    string             `bson:"name_ci" json:"-"` // ← always stored
	Status    string             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

// OrganizationProfile is one cycle's registration snapshot of an Organization.
// At most one profile per acronym is active at a time.
type OrganizationProfile struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organizationId"`

	OrgName       string `bson:"org_name" json:"orgName"`
	OrgAcronym    string `bson:"org_acronym" json:"orgAcronym"`
	AcronymCI     string `bson:"acronym_ci" json:"-"` // ← always stored
	OrgClass      string `bson:"org_class" json:"orgClass"`
	OrgDepartment string `bson:"org_department,omitempty" json:"orgDepartment,omitempty"`
	OrgCourse     string `bson:"org_course,omitempty" json:"orgCourse,omitempty"`
	OrgEmail      string `bson:"org_email,omitempty" json:"orgEmail,omitempty"`
	OrgLogo       string `bson:"org_logo,omitempty" json:"orgLogo,omitempty"`
	OrgStatus     string `bson:"org_status" json:"orgStatus"`

	OverallStatus ReviewStatus `bson:"overall_status" json:"overAllStatus"`
	RevisionNotes string       `bson:"revision_notes,omitempty" json:"revisionNotes,omitempty"`

	AdviserID      *primitive.ObjectID `bson:"adviser_id,omitempty" json:"adviser,omitempty"`
	OrgPresidentID *primitive.ObjectID `bson:"org_president_id,omitempty" json:"orgPresident,omitempty"`

	IsActive          bool `bson:"is_active" json:"isActive"`
	IsAllowedForReuse bool `bson:"is_allowed_for_reuse" json:"isAllowedForReuse"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
