// internal/app/features/registration/handler.go
package registration

import (
	"fmt"
	"time"

	"github.com/dalemusser/accredithub/internal/app/store/emailverify"
	"github.com/dalemusser/accredithub/internal/app/system/auditlog"
	"github.com/dalemusser/accredithub/internal/app/system/mailer"
	"github.com/dalemusser/accredithub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler gates account creation behind an emailed one-time code.
type Handler struct {
	DB          *mongo.Database
	Log         *zap.Logger
	Mail        mailer.Sender
	EmailVerify *emailverify.Store
	AuditLog    *auditlog.Logger
	Limiter     *ratelimit.EmailLimiter
	SiteName    string
}

func NewHandler(
	db *mongo.Database,
	mail mailer.Sender,
	audit *auditlog.Logger,
	limiter *ratelimit.EmailLimiter,
	siteName string,
	codeExpiry time.Duration,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		DB:          db,
		Log:         logger,
		Mail:        mail,
		EmailVerify: emailverify.New(db, codeExpiry),
		AuditLog:    audit,
		Limiter:     limiter,
		SiteName:    siteName,
	}
}

// formatExpiry renders a code lifetime for the email body, e.g. "10 minutes".
func formatExpiry(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes < 60 {
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	hours := minutes / 60
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
