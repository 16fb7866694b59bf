// internal/domain/models/roster.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roster is the member list of one organization profile for a cycle.
// IsComplete only ever moves from false to true.
type Roster struct {
	ID                    primitive.ObjectID   `bson:"_id" json:"id"`
	OrganizationProfileID primitive.ObjectID   `bson:"organization_profile_id" json:"organizationProfile"`
	MemberIDs             []primitive.ObjectID `bson:"members" json:"rosterMembers"`
	IsComplete            bool                 `bson:"is_complete" json:"isComplete"`
	OverallStatus         ReviewStatus         `bson:"overall_status" json:"overAllStatus"`
	RevisionNotes         string               `bson:"revision_notes,omitempty" json:"revisionNotes,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// PositionMember is the position of a rank-and-file member.
const PositionMember = "Member"

// RosterMember is one entry of a Roster.
type RosterMember struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	RosterID       primitive.ObjectID `bson:"roster_id" json:"roster"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email" json:"email"`
	Position       string             `bson:"position" json:"position"`
	Status         string             `bson:"status,omitempty" json:"status,omitempty"`
	ProfilePicture string             `bson:"profile_picture,omitempty" json:"profilePicture,omitempty"`
	ContactNumber  string             `bson:"contact_number,omitempty" json:"contactNumber,omitempty"`
	Address        string             `bson:"address,omitempty" json:"address,omitempty"`
	BirthDate      *time.Time         `bson:"birth_date,omitempty" json:"birthDate,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsOfficer reports whether the member holds an office.
func (m RosterMember) IsOfficer() bool {
	p := strings.TrimSpace(m.Position)
	return p != "" && !strings.EqualFold(p, PositionMember)
}
