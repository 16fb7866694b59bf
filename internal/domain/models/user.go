// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents student leaders and reviewers (advisers, deans, SDU staff).
//
// NOTE:
//   - Advisers are users with position "adviser"; an OrganizationProfile
//     points at its adviser through adviser_id.
//   - Student leaders carry the organization profile they manage.
type User struct {
	ID                    primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name                  string              `bson:"name" json:"name"`
	Email                 string              `bson:"email" json:"email"`
	EmailCI               string              `bson:"email_ci" json:"-"`
	PasswordHash          string              `bson:"password_hash" json:"-"`
	Position              string              `bson:"position" json:"position"`
	OrganizationProfileID *primitive.ObjectID `bson:"organization_profile_id,omitempty" json:"organizationProfile,omitempty"`
	Status                string              `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
