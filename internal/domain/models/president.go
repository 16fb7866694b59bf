// internal/domain/models/president.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PresidentProfile describes an organization's president for a cycle.
// The current president is the one linked from the OrganizationProfile;
// earlier profiles stay in the collection unlinked.
type PresidentProfile struct {
	ID                    primitive.ObjectID `bson:"_id" json:"id"`
	OrganizationProfileID primitive.ObjectID `bson:"organization_profile_id" json:"organizationProfile"`
	OrganizationID        primitive.ObjectID `bson:"organization_id,omitempty" json:"organization,omitempty"`

	Name            string `bson:"name" json:"name"`
	Department      string `bson:"department,omitempty" json:"department,omitempty"`
	Course          string `bson:"course,omitempty" json:"course,omitempty"`
	Year            string `bson:"year,omitempty" json:"year,omitempty"`
	Age             int    `bson:"age,omitempty" json:"age,omitempty"`
	Sex             string `bson:"sex,omitempty" json:"sex,omitempty"`
	Religion        string `bson:"religion,omitempty" json:"religion,omitempty"`
	Nationality     string `bson:"nationality,omitempty" json:"nationality,omitempty"`
	ContactNumber   string `bson:"contact_number,omitempty" json:"contactNo,omitempty"`
	FacebookAccount string `bson:"facebook_account,omitempty" json:"facebookAccount,omitempty"`
	ProfilePicture  string `bson:"profile_picture,omitempty" json:"profilePicture,omitempty"`

	ClassSchedule []ClassSchedule `bson:"class_schedule" json:"classSchedule"`
	TalentSkills  []TalentSkill   `bson:"talent_skills" json:"talentSkills"`

	OverallStatus ReviewStatus `bson:"overall_status" json:"overAllStatus"`
	RevisionNotes string       `bson:"revision_notes,omitempty" json:"revisionNotes,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

type ClassSchedule struct {
	Subject string `bson:"subject" json:"subject" validate:"required"`
	Place   string `bson:"place,omitempty" json:"place,omitempty"`
	Day     string `bson:"day" json:"day" validate:"required"`
	Time    string `bson:"time" json:"time" validate:"required"`
}

type TalentSkill struct {
	Skill string `bson:"skill" json:"skill" validate:"required"`
	Level string `bson:"level,omitempty" json:"level,omitempty"`
}
