// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/accredithub/internal/app/store/audit"
	"github.com/dalemusser/accredithub/internal/app/store/orphanedfiles"
	sessionstore "github.com/dalemusser/accredithub/internal/app/store/sessions"
	"github.com/dalemusser/accredithub/internal/app/system/auditlog"
	"github.com/dalemusser/accredithub/internal/app/system/auth"
	"github.com/dalemusser/accredithub/internal/app/system/mailer"
	"github.com/dalemusser/accredithub/internal/app/system/ratelimit"
	"github.com/dalemusser/accredithub/internal/app/system/review"
	"github.com/dalemusser/accredithub/internal/app/system/timeouts"
	"github.com/dalemusser/accredithub/internal/app/system/uploads"
	"github.com/dalemusser/accredithub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// services are built once in Startup and shared by BuildHandler and
// Shutdown.
type services struct {
	sessionMgr   *auth.SessionManager
	sessions     *sessionstore.Store
	files        *uploads.Store
	mail         *mailer.Mailer
	audit        *auditlog.Logger
	notifier     *review.Notifier
	loginLimiter *ratelimit.EmailLimiter
	codeLimiter  *ratelimit.EmailLimiter

	sessionCleanup *workers.SessionCleanup
	orphanSweeper  *workers.OrphanSweeper
}

var svc *services

// Startup runs after the database is connected and the schema ensured. It
// applies timeouts, builds shared services and starts background workers.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	if err := ensureAdmin(ctx, deps.MongoDatabase, appCfg.AdminEmail, appCfg.AdminName, appCfg.AdminPassword, logger); err != nil {
		logger.Error("admin bootstrap failed", zap.Error(err))
		return err
	}

	s, err := buildServices(coreCfg, appCfg, deps, logger)
	if err != nil {
		return err
	}

	s.sessionCleanup.Start()
	s.orphanSweeper.Start()
	svc = s
	return nil
}

func buildServices(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*services, error) {
	db := deps.MongoDatabase

	// Secure cookies in production only.
	secure := coreCfg != nil && coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	sessStore := sessionstore.New(db, sessionMgr.Options(), []byte(appCfg.SessionKey))
	sessionMgr.UseStore(sessStore)

	files, err := uploads.NewOnDisk(appCfg.UploadDir, appCfg.PublicPrefix)
	if err != nil {
		return nil, fmt.Errorf("upload dir %q: %w", appCfg.UploadDir, err)
	}

	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		User:     appCfg.MailSMTPUser,
		Pass:     appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)

	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:   appCfg.AuditLogAuth,
		Review: appCfg.AuditLogReview,
		Admin:  appCfg.AuditLogAdmin,
	})

	return &services{
		sessionMgr:   sessionMgr,
		sessions:     sessStore,
		files:        files,
		mail:         mail,
		audit:        auditLog,
		notifier:     &review.Notifier{Mail: mail, SiteName: appCfg.SiteName, Log: logger},
		loginLimiter: ratelimit.NewLoginLimiter(),
		codeLimiter:  ratelimit.NewCodeLimiter(),

		sessionCleanup: workers.NewSessionCleanup(sessStore, logger, appCfg.SessionCleanupInterval),
		orphanSweeper: workers.NewOrphanSweeper(orphanedfiles.New(db), files, logger,
			appCfg.OrphanSweepInterval, appCfg.OrphanSweepBatch),
	}, nil
}
