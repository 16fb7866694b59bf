// internal/domain/models/proposal.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProposedActionPlan groups an organization's proposals for one
// accreditation. One plan per (profile, accreditation) is active.
type ProposedActionPlan struct {
	ID                    primitive.ObjectID   `bson:"_id" json:"id"`
	OrganizationProfileID primitive.ObjectID   `bson:"organization_profile_id" json:"organizationProfile"`
	OrganizationID        primitive.ObjectID   `bson:"organization_id,omitempty" json:"organization,omitempty"`
	AccreditationID       primitive.ObjectID   `bson:"accreditation_id" json:"accreditation"`
	ProposalIDs           []primitive.ObjectID `bson:"proposals" json:"proposedActionPlan"`
	OverallStatus         ReviewStatus         `bson:"overall_status" json:"overallStatus"`
	IsActive              bool                 `bson:"is_active" json:"isActive"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Proposal is one proposed activity (PPA) under an action plan.
type Proposal struct {
	ID                    primitive.ObjectID `bson:"_id" json:"id"`
	ActionPlanID          primitive.ObjectID `bson:"action_plan_id" json:"proposedActionPlan"`
	OrganizationProfileID primitive.ObjectID `bson:"organization_profile_id" json:"organizationProfile"`

	ActivityTitle                 string     `bson:"activity_title" json:"activityTitle"`
	AlignedSDG                    []string   `bson:"aligned_sdg" json:"alignedSDG"`
	AlignedOrganizationObjectives string     `bson:"aligned_organization_objectives,omitempty" json:"alignedOrgObjectives,omitempty"`
	BudgetaryRequirements         Money      `bson:"budgetary_requirements" json:"budgetaryRequirements"`
	Venue                         string     `bson:"venue,omitempty" json:"venue,omitempty"`
	ProposedDate                  *time.Time `bson:"proposed_date,omitempty" json:"proposedDate,omitempty"`
	SourceOfFund                  string     `bson:"source_of_fund,omitempty" json:"sourceOfFunds,omitempty"`

	DocumentIDs   []primitive.ObjectID `bson:"document_ids" json:"document"`
	OverallStatus ProposalStatus       `bson:"overall_status" json:"overallStatus"`
	RevisionNotes string               `bson:"revision_notes,omitempty" json:"revisionNotes,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// ProposalSnapshot is a frozen copy of a Proposal's planning fields taken
// when its conduct record is created. It never follows later edits to the
// source proposal.
type ProposalSnapshot struct {
	SourceID                      primitive.ObjectID `bson:"source_id" json:"sourceId"`
	ActivityTitle                 string             `bson:"activity_title" json:"activityTitle"`
	AlignedSDG                    []string           `bson:"aligned_sdg" json:"alignedSDG"`
	AlignedOrganizationObjectives string             `bson:"aligned_organization_objectives,omitempty" json:"alignedOrgObjectives,omitempty"`
	BudgetaryRequirements         Money              `bson:"budgetary_requirements" json:"budgetaryRequirements"`
	Venue                         string             `bson:"venue,omitempty" json:"venue,omitempty"`
	ProposedDate                  *time.Time         `bson:"proposed_date,omitempty" json:"proposedDate,omitempty"`
	SourceOfFund                  string             `bson:"source_of_fund,omitempty" json:"sourceOfFunds,omitempty"`
	TakenAt                       time.Time          `bson:"taken_at" json:"takenAt"`
}

// SnapshotOf deep-copies the planning fields of p.
func SnapshotOf(p Proposal, at time.Time) ProposalSnapshot {
	snap := ProposalSnapshot{
		SourceID:                      p.ID,
		ActivityTitle:                 p.ActivityTitle,
		AlignedOrganizationObjectives: p.AlignedOrganizationObjectives,
		BudgetaryRequirements:         p.BudgetaryRequirements,
		Venue:                         p.Venue,
		SourceOfFund:                  p.SourceOfFund,
		TakenAt:                       at,
	}
	if p.AlignedSDG != nil {
		snap.AlignedSDG = append([]string(nil), p.AlignedSDG...)
	}
	if p.ProposedDate != nil {
		d := *p.ProposedDate
		snap.ProposedDate = &d
	}
	return snap
}

// ProposalConduct tracks how an approved proposal was carried out.
type ProposalConduct struct {
	ID                    primitive.ObjectID `bson:"_id" json:"id"`
	ProposalID            primitive.ObjectID `bson:"proposal_id" json:"proposal"`
	OrganizationProfileID primitive.ObjectID `bson:"organization_profile_id" json:"organizationProfile"`

	Plan ProposalSnapshot `bson:"proposed_individual_action_plan" json:"ProposedIndividualActionPlan"`

	DocumentIDs   []primitive.ObjectID `bson:"document_ids" json:"document"`
	OverallStatus ConductStatus        `bson:"overall_status" json:"overallStatus"`
	RevisionNotes string               `bson:"revision_notes,omitempty" json:"revisionNotes,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
