// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/accredithub/internal/app/system/auth"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Positions a user can hold.
const (
	StudentLeader  = "student-leader"
	Adviser        = "adviser"
	Dean           = "dean"
	SDU            = "sdu"
	SDUCoordinator = "sdu-coordinator"
	Admin          = "admin"
)

// ReviewerRoles may review any organization's submissions.
var ReviewerRoles = []string{Adviser, Dean, SDU, SDUCoordinator, Admin}

// OfficeRoles run the accreditation cycle itself (deactivate, allow reuse).
var OfficeRoles = []string{SDU, SDUCoordinator, Admin}

// AllRoles lists every position, student leaders first.
var AllRoles = []string{StudentLeader, Adviser, Dean, SDU, SDUCoordinator, Admin}

var revisionLabels = map[string]string{
	StudentLeader:  "Student Leader",
	Adviser:        "Adviser",
	Dean:           "Dean",
	SDU:            "SDU",
	SDUCoordinator: "SDU Coordinator",
	Admin:          "Admin",
}

// RevisionLabel is the reviewer name used in "Revision from <label>".
func RevisionLabel(position string) string {
	if l, ok := revisionLabels[strings.ToLower(strings.TrimSpace(position))]; ok {
		return l
	}
	return strings.TrimSpace(position)
}

// IsValidPosition reports whether p is a known position.
func IsValidPosition(p string) bool {
	_, ok := revisionLabels[strings.ToLower(strings.TrimSpace(p))]
	return ok
}

// UserCtx returns the user's position (lowercased), name, Mongo ObjectID, and a found flag.
// If no user is present in context or the user ID is malformed, it returns
// "visitor", "", NilObjectID, false.
func UserCtx(r *http.Request) (position string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session; fail closed.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Position), user.Name, userID, true
}

// HasAnyRole reports whether the current request's user holds any of the given positions.
func HasAnyRole(r *http.Request, roles ...string) bool {
	pos, _, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	for _, want := range roles {
		if pos == strings.ToLower(strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

// IsStudentLeader reports whether the current user is a student leader.
func IsStudentLeader(r *http.Request) bool {
	return HasAnyRole(r, StudentLeader)
}

// IsReviewer reports whether the current user reviews submissions.
func IsReviewer(r *http.Request) bool {
	return HasAnyRole(r, ReviewerRoles...)
}

// UserProfileID returns the organization profile a student leader manages,
// or NilObjectID.
func UserProfileID(r *http.Request) primitive.ObjectID {
	user, ok := auth.CurrentUser(r)
	if !ok || user.OrganizationProfileID == "" {
		return primitive.NilObjectID
	}
	oid, err := primitive.ObjectIDFromHex(user.OrganizationProfileID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

// CanAccessProfile reports whether the current user may read or change data
// belonging to profileID. Reviewers see every profile; student leaders only
// their own.
func CanAccessProfile(r *http.Request, profileID primitive.ObjectID) bool {
	if IsReviewer(r) {
		return true
	}
	if !IsStudentLeader(r) {
		return false
	}
	own := UserProfileID(r)
	return !own.IsZero() && own == profileID
}

// RequireProfile returns a 403 error unless CanAccessProfile.
func RequireProfile(r *http.Request, profileID primitive.ObjectID) error {
	if CanAccessProfile(r, profileID) {
		return nil
	}
	return respond.Forbidden("you do not have access to this organization profile")
}

// Actor describes the current user for audit trails, e.g. "Ana Cruz (sdu)".
func Actor(r *http.Request) string {
	pos, name, _, ok := UserCtx(r)
	if !ok {
		return "system"
	}
	if name == "" {
		return pos
	}
	return name + " (" + pos + ")"
}
