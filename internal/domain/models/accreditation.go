// internal/domain/models/accreditation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Accreditation is the per-cycle case file for one organization profile.
// Sub-records are referenced by id; exactly one accreditation per profile is
// active at a time.
type Accreditation struct {
	ID                    primitive.ObjectID `bson:"_id" json:"id"`
	OrganizationProfileID primitive.ObjectID `bson:"organization_profile_id" json:"organizationProfile"`
	OrganizationID        primitive.ObjectID `bson:"organization_id,omitempty" json:"organization,omitempty"`

	RosterID          *primitive.ObjectID `bson:"roster_id" json:"rosterMembers"`
	PresidentID       *primitive.ObjectID `bson:"president_profile_id" json:"PresidentProfile"`
	FinancialReportID *primitive.ObjectID `bson:"financial_report_id" json:"FinancialReport"`

	JointStatementID        *primitive.ObjectID `bson:"joint_statement_id" json:"JointStatement"`
	PledgeAgainstHazingID   *primitive.ObjectID `bson:"pledge_against_hazing_id" json:"PledgeAgainstHazing"`
	ConstitutionAndByLawsID *primitive.ObjectID `bson:"constitution_and_by_laws_id" json:"ConstitutionAndByLaws"`

	OverallStatus ReviewStatus `bson:"overall_status" json:"overallStatus"`
	IsActive      bool         `bson:"is_active" json:"isActive"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// LegalDocumentKind names one of the legal documents an accreditation links.
type LegalDocumentKind string

const (
	LegalJointStatement        LegalDocumentKind = "joint-statement"
	LegalPledgeAgainstHazing   LegalDocumentKind = "pledge-against-hazing"
	LegalConstitutionAndByLaws LegalDocumentKind = "constitution-and-by-laws"
)

// Field returns the accreditation field that stores the document id, or ""
// for an unknown kind.
func (k LegalDocumentKind) Field() string {
	switch k {
	case LegalJointStatement:
		return "joint_statement_id"
	case LegalPledgeAgainstHazing:
		return "pledge_against_hazing_id"
	case LegalConstitutionAndByLaws:
		return "constitution_and_by_laws_id"
	default:
		return ""
	}
}
