// internal/app/features/organizations/handler.go
package organizations

import (
	"github.com/dalemusser/accredithub/internal/app/system/auditlog"
	"github.com/dalemusser/accredithub/internal/app/system/auth"
	"github.com/dalemusser/accredithub/internal/app/system/review"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves organization registration and organization profile reviews.
type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Notifier   *review.Notifier
}

// NewHandler constructs an Organizations handler. notifier may be nil.
func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, audit *auditlog.Logger, notifier *review.Notifier, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Notifier:   notifier,
	}
}
