// internal/app/store/proposals/proposalstore.go
package proposalstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/accredithub/internal/app/system/provision"
	"github.com/dalemusser/accredithub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrPlanNotFound          = errors.New("action plan not found")
	ErrProposalNotFound      = errors.New("proposal not found")
	ErrConductNotFound       = errors.New("conduct not found")
	ErrNotApprovedForConduct = errors.New("proposal is not approved for conduct")
	ErrConductExists         = errors.New("proposal already has a conduct record")
)

// Store holds action plans, the proposals filed under them, and the conduct
// records created from approved proposals.
type Store struct {
	plans     *mongo.Collection
	proposals *mongo.Collection
	conducts  *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		plans:     db.Collection("proposed_action_plans"),
		proposals: db.Collection("proposals"),
		conducts:  db.Collection("proposal_conducts"),
	}
}

/* ---------------------------------------------------------------------- */
/* Action plans                                                            */
/* ---------------------------------------------------------------------- */

// GetOrCreatePlan returns the active plan of a profile for an accreditation,
// creating an empty one on first access.
func (s *Store) GetOrCreatePlan(ctx context.Context, profileID, accreditationID, orgID primitive.ObjectID) (models.ProposedActionPlan, bool, error) {
	now := time.Now().UTC()
	defaults := bson.M{
		"proposals":      bson.A{},
		"overall_status": models.ReviewPending(),
		"created_at":     now,
		"updated_at":     now,
	}
	if !orgID.IsZero() {
		defaults["organization_id"] = orgID
	}

	var plan models.ProposedActionPlan
	created, err := provision.FindOrCreate(ctx, s.plans,
		bson.M{
			"organization_profile_id": profileID,
			"accreditation_id":        accreditationID,
			"is_active":               true,
		},
		defaults, &plan)
	if err != nil {
		return models.ProposedActionPlan{}, false, err
	}
	return plan, created, nil
}

func (s *Store) GetPlan(ctx context.Context, id primitive.ObjectID) (models.ProposedActionPlan, error) {
	var plan models.ProposedActionPlan
	if err := s.plans.FindOne(ctx, bson.M{"_id": id}).Decode(&plan); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.ProposedActionPlan{}, ErrPlanNotFound
		}
		return models.ProposedActionPlan{}, err
	}
	return plan, nil
}

/* ---------------------------------------------------------------------- */
/* Proposals                                                               */
/* ---------------------------------------------------------------------- */

// Submit files p under planID and appends it to the plan.
func (s *Store) Submit(ctx context.Context, planID primitive.ObjectID, p models.Proposal) (models.Proposal, error) {
	plan, err := s.GetPlan(ctx, planID)
	if err != nil {
		return models.Proposal{}, err
	}

	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.ActionPlanID = plan.ID
	p.OrganizationProfileID = plan.OrganizationProfileID
	p.ActivityTitle = strings.TrimSpace(p.ActivityTitle)
	if p.AlignedSDG == nil {
		p.AlignedSDG = []string{}
	}
	if p.DocumentIDs == nil {
		p.DocumentIDs = []primitive.ObjectID{}
	}
	p.OverallStatus = models.ProposalPending()
	p.RevisionNotes = ""
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.proposals.InsertOne(ctx, p); err != nil {
		return models.Proposal{}, fmt.Errorf("insert proposal: %w", err)
	}
	res, err := s.plans.UpdateOne(ctx, bson.M{"_id": plan.ID}, bson.M{
		"$push": bson.M{"proposals": p.ID},
		"$set":  bson.M{"updated_at": now},
	})
	if err == nil && res.MatchedCount == 0 {
		err = ErrPlanNotFound
	}
	if err != nil {
		_, _ = s.proposals.DeleteOne(ctx, bson.M{"_id": p.ID})
		return models.Proposal{}, err
	}
	return p, nil
}

func (s *Store) GetProposal(ctx context.Context, id primitive.ObjectID) (models.Proposal, error) {
	var p models.Proposal
	if err := s.proposals.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Proposal{}, ErrProposalNotFound
		}
		return models.Proposal{}, err
	}
	return p, nil
}

// ProposalsOf returns the proposals of a plan in submission order.
func (s *Store) ProposalsOf(ctx context.Context, planID primitive.ObjectID) ([]models.Proposal, error) {
	cur, err := s.proposals.Find(ctx, bson.M{"action_plan_id": planID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Proposal{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PlanFields is a partial update of the planning fields shared by a
// proposal and the frozen copy held by its conduct record. Nil fields are
// left alone. DocumentID, when set, is appended to the record's documents.
type PlanFields struct {
	ActivityTitle                 *string
	AlignedSDG                    *[]string
	AlignedOrganizationObjectives *string
	BudgetaryRequirements         *models.Money
	Venue                         *string
	ProposedDate                  *time.Time
	SourceOfFund                  *string
	DocumentID                    *primitive.ObjectID
}

func (f PlanFields) set(prefix string, set bson.M) {
	if f.ActivityTitle != nil {
		set[prefix+"activity_title"] = strings.TrimSpace(*f.ActivityTitle)
	}
	if f.AlignedSDG != nil {
		sdg := *f.AlignedSDG
		if sdg == nil {
			sdg = []string{}
		}
		set[prefix+"aligned_sdg"] = sdg
	}
	if f.AlignedOrganizationObjectives != nil {
		set[prefix+"aligned_organization_objectives"] = *f.AlignedOrganizationObjectives
	}
	if f.BudgetaryRequirements != nil {
		set[prefix+"budgetary_requirements"] = *f.BudgetaryRequirements
	}
	if f.Venue != nil {
		set[prefix+"venue"] = *f.Venue
	}
	if f.ProposedDate != nil {
		set[prefix+"proposed_date"] = f.ProposedDate.UTC()
	}
	if f.SourceOfFund != nil {
		set[prefix+"source_of_fund"] = *f.SourceOfFund
	}
}

func (f PlanFields) update(prefix string, statusOverride any) bson.M {
	set := bson.M{"updated_at": time.Now().UTC()}
	f.set(prefix, set)
	if statusOverride != nil {
		set["overall_status"] = statusOverride
	}
	upd := bson.M{"$set": set}
	if f.DocumentID != nil {
		upd["$addToSet"] = bson.M{"document_ids": *f.DocumentID}
	}
	return upd
}

// UpdateProposal applies f. An edit by the student leader marks the
// proposal as revised by the student; reviewer edits keep the status.
func (s *Store) UpdateProposal(ctx context.Context, id primitive.ObjectID, f PlanFields, byStudent bool) (models.Proposal, error) {
	var override any
	if byStudent {
		override = models.ProposalStudentUpdate()
	}
	return s.findAndUpdateProposal(ctx, id, f.update("", override))
}

// ReviewProposal records a reviewer decision.
func (s *Store) ReviewProposal(ctx context.Context, id primitive.ObjectID, status models.ProposalStatus, notes string) (models.Proposal, error) {
	return s.findAndUpdateProposal(ctx, id, bson.M{"$set": bson.M{
		"overall_status": status,
		"revision_notes": notes,
		"updated_at":     time.Now().UTC(),
	}})
}

func (s *Store) findAndUpdateProposal(ctx context.Context, id primitive.ObjectID, upd bson.M) (models.Proposal, error) {
	var p models.Proposal
	err := s.proposals.FindOneAndUpdate(ctx, bson.M{"_id": id}, upd,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Proposal{}, ErrProposalNotFound
		}
		return models.Proposal{}, err
	}
	return p, nil
}

/* ---------------------------------------------------------------------- */
/* Conducts                                                                */
/* ---------------------------------------------------------------------- */

// CreateConduct opens the conduct record of an approved proposal. The
// record carries a copy of the proposal's planning fields taken now; later
// edits to the proposal do not reach it.
func (s *Store) CreateConduct(ctx context.Context, proposalID primitive.ObjectID, documentIDs []primitive.ObjectID) (models.ProposalConduct, error) {
	p, err := s.GetProposal(ctx, proposalID)
	if err != nil {
		return models.ProposalConduct{}, err
	}
	if !p.OverallStatus.IsApprovedForConduct() {
		return models.ProposalConduct{}, ErrNotApprovedForConduct
	}
	if documentIDs == nil {
		documentIDs = []primitive.ObjectID{}
	}

	now := time.Now().UTC()
	c := models.ProposalConduct{
		ID:                    primitive.NewObjectID(),
		ProposalID:            p.ID,
		OrganizationProfileID: p.OrganizationProfileID,
		Plan:                  models.SnapshotOf(p, now),
		DocumentIDs:           documentIDs,
		OverallStatus:         models.ConductPending(),
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if c.Plan.AlignedSDG == nil {
		c.Plan.AlignedSDG = []string{}
	}
	if _, err := s.conducts.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.ProposalConduct{}, ErrConductExists
		}
		return models.ProposalConduct{}, fmt.Errorf("insert conduct: %w", err)
	}
	return c, nil
}

func (s *Store) GetConduct(ctx context.Context, id primitive.ObjectID) (models.ProposalConduct, error) {
	var c models.ProposalConduct
	if err := s.conducts.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.ProposalConduct{}, ErrConductNotFound
		}
		return models.ProposalConduct{}, err
	}
	return c, nil
}

// ConductsByProfile lists a profile's conduct records, newest first.
func (s *Store) ConductsByProfile(ctx context.Context, profileID primitive.ObjectID) ([]models.ProposalConduct, error) {
	cur, err := s.conducts.Find(ctx, bson.M{"organization_profile_id": profileID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.ProposalConduct{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateConduct applies f to the conduct's own copy of the plan. A student
// edit marks the record as revised by the student.
func (s *Store) UpdateConduct(ctx context.Context, id primitive.ObjectID, f PlanFields, byStudent bool) (models.ProposalConduct, error) {
	var override any
	if byStudent {
		override = models.ConductStudentUpdate()
	}
	return s.findAndUpdateConduct(ctx, id, f.update("proposed_individual_action_plan.", override))
}

// ReviewConduct records a reviewer decision.
func (s *Store) ReviewConduct(ctx context.Context, id primitive.ObjectID, status models.ConductStatus, notes string) (models.ProposalConduct, error) {
	return s.findAndUpdateConduct(ctx, id, bson.M{"$set": bson.M{
		"overall_status": status,
		"revision_notes": notes,
		"updated_at":     time.Now().UTC(),
	}})
}

func (s *Store) findAndUpdateConduct(ctx context.Context, id primitive.ObjectID, upd bson.M) (models.ProposalConduct, error) {
	var c models.ProposalConduct
	err := s.conducts.FindOneAndUpdate(ctx, bson.M{"_id": id}, upd,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.ProposalConduct{}, ErrConductNotFound
		}
		return models.ProposalConduct{}, err
	}
	return c, nil
}
