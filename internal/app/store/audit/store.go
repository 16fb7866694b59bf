// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth   = "auth"
	CategoryReview = "review"
	CategoryAdmin  = "admin"
)

// Auth event types
const (
	EventLoginSuccess             = "login_success"
	EventLoginFailedUserNotFound  = "login_failed_user_not_found"
	EventLoginFailedWrongPassword = "login_failed_wrong_password"
	EventLoginFailedRateLimit     = "login_failed_rate_limit"
	EventLogout                   = "logout"
	EventVerificationCodeSent     = "verification_code_sent"
	EventVerificationCodeFailed   = "verification_code_failed"
	EventUserRegistered           = "user_registered"
)

// Review event types. Each carries the reviewed entity in TargetType/TargetID.
const (
	EventReviewDecision  = "review_decision"
	EventDocumentUpdated = "document_updated"
	EventFileDeleteFail  = "file_delete_failed"
	EventRosterCompleted = "roster_completed"
	EventConductCreated  = "conduct_created"
	EventReceiptAdded    = "receipt_added"
	EventReceiptRemoved  = "receipt_removed"
)

// Admin event types
const (
	EventProfileRegistered        = "profile_registered"
	EventProfileReused            = "profile_reused"
	EventProfileReuseAllowed      = "profile_reuse_allowed"
	EventAccreditationDeactivated = "accreditation_deactivated"
	EventPresidentReplaced        = "president_replaced"
	EventStaffAccountCreated      = "staff_account_created"
)

// Event represents an audit event.
type Event struct {
	ID                    primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Timestamp             time.Time           `bson:"timestamp" json:"timestamp"`
	OrganizationProfileID *primitive.ObjectID `bson:"organization_profile_id,omitempty" json:"organizationProfileId,omitempty"`

	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"eventType"`

	// Who
	UserID  *primitive.ObjectID `bson:"user_id,omitempty" json:"userId,omitempty"`   // affected user
	ActorID *primitive.ObjectID `bson:"actor_id,omitempty" json:"actorId,omitempty"` // who performed the action
	Actor   string              `bson:"actor,omitempty" json:"actor,omitempty"`      // "Name (position)"

	// What
	TargetType string              `bson:"target_type,omitempty" json:"targetType,omitempty"` // "document", "roster", ...
	TargetID   *primitive.ObjectID `bson:"target_id,omitempty" json:"targetId,omitempty"`

	IP        string `bson:"ip" json:"ip"`
	UserAgent string `bson:"user_agent,omitempty" json:"userAgent,omitempty"`

	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failureReason,omitempty"`

	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	OrganizationProfileID *primitive.ObjectID
	UserID                *primitive.ObjectID
	TargetID              *primitive.ObjectID
	Category              string
	EventType             string
	StartTime             *time.Time
	EndTime               *time.Time
	Limit                 int64
	Offset                int64
}

func (f QueryFilter) bson() bson.M {
	query := bson.M{}
	if f.OrganizationProfileID != nil {
		query["organization_profile_id"] = *f.OrganizationProfileID
	}
	if f.UserID != nil {
		query["user_id"] = *f.UserID
	}
	if f.TargetID != nil {
		query["target_id"] = *f.TargetID
	}
	if f.Category != "" {
		query["category"] = f.Category
	}
	if f.EventType != "" {
		query["event_type"] = f.EventType
	}
	if f.StartTime != nil || f.EndTime != nil {
		timeQuery := bson.M{}
		if f.StartTime != nil {
			timeQuery["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			timeQuery["$lte"] = *f.EndTime
		}
		query["timestamp"] = timeQuery
	}
	return query
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query retrieves audit events matching the given filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, filter.bson(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := []Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter returns the count of events matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.bson())
}

// GetByUser retrieves recent audit events for a specific user.
func (s *Store) GetByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{UserID: &userID, Limit: limit})
}

// GetByTarget retrieves the history of one reviewed record.
func (s *Store) GetByTarget(ctx context.Context, targetID primitive.ObjectID, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{TargetID: &targetID, Limit: limit})
}

// GetFailedLogins retrieves recent failed login attempts.
func (s *Store) GetFailedLogins(ctx context.Context, since time.Time, limit int64) ([]Event, error) {
	query := bson.M{
		"category": CategoryAuth,
		"success":  false,
		"event_type": bson.M{"$in": []string{
			EventLoginFailedUserNotFound,
			EventLoginFailedWrongPassword,
			EventLoginFailedRateLimit,
		}},
		"timestamp": bson.M{"$gte": since},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
