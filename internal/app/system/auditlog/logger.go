// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/accredithub/internal/app/store/audit"
	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/dalemusser/accredithub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
// Each value is "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), or "off".
type Config struct {
	// Auth covers login, logout, registration and verification codes.
	Auth string
	// Review covers review decisions and student submissions.
	Review string
	// Admin covers profile registration/reuse and accreditation cycles.
	Admin string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.Actor != "" {
		fields = append(fields, zap.String("actor", event.Actor))
	}
	if event.OrganizationProfileID != nil {
		fields = append(fields, zap.String("organization_profile_id", event.OrganizationProfileID.Hex()))
	}
	if event.TargetID != nil {
		fields = append(fields,
			zap.String("target_type", event.TargetType),
			zap.String("target_id", event.TargetID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op so handlers built in tests may omit it.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryReview:
		setting = l.config.Review
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = "all"
	}
	if setting == "" {
		setting = "all"
	}

	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// actorEvent fills in who and where from the request.
func actorEvent(r *http.Request, category, eventType string) audit.Event {
	e := audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Actor:     authz.Actor(r),
	}
	if _, _, uid, ok := authz.UserCtx(r); ok {
		e.ActorID = &uid
	}
	return e
}

func oidPtr(id primitive.ObjectID) *primitive.ObjectID {
	if id.IsZero() {
		return nil
	}
	return &id
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, profileID *primitive.ObjectID, email string) {
	e := actorEvent(r, audit.CategoryAuth, audit.EventLoginSuccess)
	e.UserID = &userID
	e.OrganizationProfileID = profileID
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// LoginFailedUserNotFound logs a failed login due to user not found.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedEmail string) {
	e := actorEvent(r, audit.CategoryAuth, audit.EventLoginFailedUserNotFound)
	e.Success = false
	e.FailureReason = "user not found"
	e.Details = map[string]string{"attempted_email": attemptedEmail}
	l.Log(ctx, e)
}

// LoginFailedWrongPassword logs a failed login due to wrong password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	e := actorEvent(r, audit.CategoryAuth, audit.EventLoginFailedWrongPassword)
	e.UserID = &userID
	e.Success = false
	e.FailureReason = "wrong password"
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// LoginFailedRateLimit logs a login refused by the rate limiter.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, email string) {
	e := actorEvent(r, audit.CategoryAuth, audit.EventLoginFailedRateLimit)
	e.Success = false
	e.FailureReason = "rate limit exceeded"
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// Logout logs a user logout. IDs come from the SessionUser as hex strings.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDStr, profileIDStr string) {
	e := actorEvent(r, audit.CategoryAuth, audit.EventLogout)
	if oid, err := primitive.ObjectIDFromHex(userIDStr); err == nil {
		e.UserID = &oid
	}
	if oid, err := primitive.ObjectIDFromHex(profileIDStr); err == nil {
		e.OrganizationProfileID = &oid
	}
	l.Log(ctx, e)
}

// VerificationCodeSent logs when a registration code is emailed.
func (l *Logger) VerificationCodeSent(ctx context.Context, r *http.Request, email string) {
	e := actorEvent(r, audit.CategoryAuth, audit.EventVerificationCodeSent)
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// VerificationCodeFailed logs a rejected registration code.
func (l *Logger) VerificationCodeFailed(ctx context.Context, r *http.Request, email, reason string) {
	e := actorEvent(r, audit.CategoryAuth, audit.EventVerificationCodeFailed)
	e.Success = false
	e.FailureReason = reason
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// UserRegistered logs a completed self-registration.
func (l *Logger) UserRegistered(ctx context.Context, r *http.Request, userID primitive.ObjectID, profileID *primitive.ObjectID, position string) {
	e := actorEvent(r, audit.CategoryAuth, audit.EventUserRegistered)
	e.UserID = &userID
	e.OrganizationProfileID = profileID
	e.Details = map[string]string{"position": position}
	l.Log(ctx, e)
}

// --- Review Events ---

func (l *Logger) review(ctx context.Context, r *http.Request, eventType, targetType string, targetID, profileID primitive.ObjectID, details map[string]string) {
	e := actorEvent(r, audit.CategoryReview, eventType)
	e.TargetType = targetType
	e.TargetID = oidPtr(targetID)
	e.OrganizationProfileID = oidPtr(profileID)
	e.Details = details
	l.Log(ctx, e)
}

// ReviewDecision logs a reviewer setting the status of a record.
// targetType is "document", "roster", "president", "profile", "proposal" or "conduct".
func (l *Logger) ReviewDecision(ctx context.Context, r *http.Request, targetType string, targetID, profileID primitive.ObjectID, status, notes string) {
	details := map[string]string{"status": status}
	if notes != "" {
		details["revision_notes"] = notes
	}
	l.review(ctx, r, audit.EventReviewDecision, targetType, targetID, profileID, details)
}

// DocumentUpdated logs a label change or file replacement.
func (l *Logger) DocumentUpdated(ctx context.Context, r *http.Request, docID, profileID primitive.ObjectID, fileReplaced bool) {
	l.review(ctx, r, audit.EventDocumentUpdated, "document", docID, profileID, map[string]string{
		"file_replaced": strconv.FormatBool(fileReplaced),
	})
}

// FileDeleteFailed logs an old upload that could not be removed.
func (l *Logger) FileDeleteFailed(ctx context.Context, r *http.Request, docID, profileID primitive.ObjectID, fileName string, cause error) {
	e := actorEvent(r, audit.CategoryReview, audit.EventFileDeleteFail)
	e.TargetType = "document"
	e.TargetID = oidPtr(docID)
	e.OrganizationProfileID = oidPtr(profileID)
	e.Success = false
	if cause != nil {
		e.FailureReason = cause.Error()
	}
	e.Details = map[string]string{"file_name": fileName}
	l.Log(ctx, e)
}

// RosterCompleted logs a roster being marked complete.
func (l *Logger) RosterCompleted(ctx context.Context, r *http.Request, rosterID, profileID primitive.ObjectID) {
	l.review(ctx, r, audit.EventRosterCompleted, "roster", rosterID, profileID, nil)
}

// ConductCreated logs a conduct record created from an approved proposal.
func (l *Logger) ConductCreated(ctx context.Context, r *http.Request, conductID, proposalID, profileID primitive.ObjectID) {
	l.review(ctx, r, audit.EventConductCreated, "conduct", conductID, profileID, map[string]string{
		"proposal_id": proposalID.Hex(),
	})
}

// ReceiptAdded logs a receipt posted to a financial report.
func (l *Logger) ReceiptAdded(ctx context.Context, r *http.Request, receiptID, profileID primitive.ObjectID, kind, amount string) {
	l.review(ctx, r, audit.EventReceiptAdded, "receipt", receiptID, profileID, map[string]string{
		"kind":   kind,
		"amount": amount,
	})
}

// ReceiptRemoved logs a receipt removed from a financial report.
func (l *Logger) ReceiptRemoved(ctx context.Context, r *http.Request, receiptID, profileID primitive.ObjectID, kind, amount string) {
	l.review(ctx, r, audit.EventReceiptRemoved, "receipt", receiptID, profileID, map[string]string{
		"kind":   kind,
		"amount": amount,
	})
}

// --- Admin Events ---

func (l *Logger) admin(ctx context.Context, r *http.Request, eventType, targetType string, targetID, profileID primitive.ObjectID, details map[string]string) {
	e := actorEvent(r, audit.CategoryAdmin, eventType)
	e.TargetType = targetType
	e.TargetID = oidPtr(targetID)
	e.OrganizationProfileID = oidPtr(profileID)
	e.Details = details
	l.Log(ctx, e)
}

// ProfileRegistered logs a new organization profile. reused is true when the
// profile replaced a deactivated profile under the same organization.
func (l *Logger) ProfileRegistered(ctx context.Context, r *http.Request, profileID, orgID primitive.ObjectID, acronym string, reused bool) {
	eventType := audit.EventProfileRegistered
	if reused {
		eventType = audit.EventProfileReused
	}
	l.admin(ctx, r, eventType, "profile", profileID, profileID, map[string]string{
		"organization_id": orgID.Hex(),
		"acronym":         acronym,
	})
}

// StaffAccountCreated logs an office user creating a reviewer or office
// account.
func (l *Logger) StaffAccountCreated(ctx context.Context, r *http.Request, userID primitive.ObjectID, position string) {
	l.admin(ctx, r, audit.EventStaffAccountCreated, "user", userID, primitive.NilObjectID, map[string]string{
		"position": position,
	})
}

// ProfileReuseAllowed logs an office user releasing a profile for reuse.
func (l *Logger) ProfileReuseAllowed(ctx context.Context, r *http.Request, profileID primitive.ObjectID) {
	l.admin(ctx, r, audit.EventProfileReuseAllowed, "profile", profileID, profileID, nil)
}

// AccreditationDeactivated logs the end of an accreditation cycle.
func (l *Logger) AccreditationDeactivated(ctx context.Context, r *http.Request, accreditationID, profileID primitive.ObjectID) {
	l.admin(ctx, r, audit.EventAccreditationDeactivated, "accreditation", accreditationID, profileID, nil)
}

// PresidentReplaced logs a new current president. previous is nil for the first one.
func (l *Logger) PresidentReplaced(ctx context.Context, r *http.Request, presidentID, profileID primitive.ObjectID, previous *primitive.ObjectID) {
	details := map[string]string{}
	if previous != nil {
		details["previous_president_id"] = previous.Hex()
	}
	l.admin(ctx, r, audit.EventPresidentReplaced, "president", presidentID, profileID, details)
}
