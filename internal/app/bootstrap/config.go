// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for AccreditHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: ACCREDITHUB_MONGO_URI, ACCREDITHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "accredithub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (at least 32 bytes)"},
	{Name: "session_name", Default: "accredithub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session lifetime"},

	// Uploads
	{Name: "upload_dir", Default: "./uploads", Desc: "Directory for uploaded documents"},
	{Name: "public_prefix", Default: "/public", Desc: "URL prefix uploaded documents are served under"},
	{Name: "upload_max_bytes", Default: 10 << 20, Desc: "Largest accepted upload in bytes"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank disables delivery)"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@accredithub.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "AccreditHub", Desc: "From display name"},

	{Name: "site_name", Default: "AccreditHub", Desc: "Name used in outgoing email"},
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for email links"},
	{Name: "email_verify_expiry", Default: "10m", Desc: "Verification code expiry (e.g., 10m, 1h)"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_review", Default: "all", Desc: "Review event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Workers
	{Name: "orphan_sweep_interval", Default: "10m", Desc: "How often replaced files that failed to delete are retried"},
	{Name: "orphan_sweep_batch", Default: 100, Desc: "Files retried per sweep"},
	{Name: "session_cleanup_interval", Default: "1h", Desc: "How often expired sessions are purged"},

	// Admin bootstrap
	{Name: "admin_email", Default: "", Desc: "Email of the admin account ensured on startup"},
	{Name: "admin_name", Default: "Administrator", Desc: "Display name for a newly created admin"},
	{Name: "admin_password", Default: "", Desc: "Initial password for a newly created admin"},

	// Timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-document reads"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for lists and single writes"},
	{Name: "timeout_long", Default: "30s", Desc: "Deadline for multi-collection work"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// environment variables (WAFFLE_* for core, ACCREDITHUB_* for app) and
// flags with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "ACCREDITHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 24*time.Hour),

		UploadDir:      appValues.String("upload_dir"),
		PublicPrefix:   appValues.String("public_prefix"),
		UploadMaxBytes: int64(appValues.Int("upload_max_bytes")),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		SiteName:          appValues.String("site_name"),
		BaseURL:           appValues.String("base_url"),
		EmailVerifyExpiry: appValues.Duration("email_verify_expiry", 10*time.Minute),

		AuditLogAuth:   appValues.String("audit_log_auth"),
		AuditLogReview: appValues.String("audit_log_review"),
		AuditLogAdmin:  appValues.String("audit_log_admin"),

		OrphanSweepInterval:    appValues.Duration("orphan_sweep_interval", 10*time.Minute),
		OrphanSweepBatch:       int64(appValues.Int("orphan_sweep_batch")),
		SessionCleanupInterval: appValues.Duration("session_cleanup_interval", time.Hour),

		AdminEmail:    appValues.String("admin_email"),
		AdminName:     appValues.String("admin_name"),
		AdminPassword: appValues.String("admin_password"),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),
	}

	return coreCfg, appCfg, nil
}

var validAuditModes = map[string]bool{"all": true, "db": true, "log": true, "off": true}

// ValidateConfig rejects configuration that would fail later at connect or
// request time.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if strings.TrimSpace(appCfg.MongoDatabase) == "" {
		return errors.New("mongo_database is required")
	}
	if len(appCfg.SessionKey) < 32 {
		return errors.New("session_key must be at least 32 bytes")
	}
	if coreCfg != nil && coreCfg.Env == "prod" && strings.HasPrefix(appCfg.SessionKey, "dev-only") {
		return errors.New("session_key must be changed in production")
	}
	if !strings.HasPrefix(appCfg.PublicPrefix, "/") {
		return fmt.Errorf("public_prefix %q must start with /", appCfg.PublicPrefix)
	}
	if appCfg.AdminEmail != "" && !strings.Contains(appCfg.AdminEmail, "@") {
		return fmt.Errorf("admin_email %q is not an email address", appCfg.AdminEmail)
	}
	if appCfg.UploadMaxBytes <= 0 {
		return errors.New("upload_max_bytes must be positive")
	}
	for name, mode := range map[string]string{
		"audit_log_auth":   appCfg.AuditLogAuth,
		"audit_log_review": appCfg.AuditLogReview,
		"audit_log_admin":  appCfg.AuditLogAdmin,
	} {
		if !validAuditModes[mode] {
			return fmt.Errorf("%s must be one of all, db, log, off (got %q)", name, mode)
		}
	}
	return nil
}
