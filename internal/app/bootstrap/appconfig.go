// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers ports, TLS, logging, CORS and body limits.
// Everything specific to the accreditation service lives here and is
// passed to every lifecycle hook.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (at least 32 bytes)
	SessionName   string        // Cookie name (default: accredithub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie and server-side record lifetime

	// Uploaded document storage
	UploadDir      string // Directory holding uploaded files
	PublicPrefix   string // URL prefix uploaded files are served under
	UploadMaxBytes int64  // Largest accepted upload

	// Email/SMTP configuration
	MailSMTPHost string // SMTP server host (blank logs and drops mail)
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	// SiteName appears in verification and review notices.
	SiteName string
	BaseURL  string

	// Email verification code lifetime
	EmailVerifyExpiry time.Duration

	// Audit logging: "all", "db", "log" or "off" per category
	AuditLogAuth   string
	AuditLogReview string
	AuditLogAdmin  string

	// Background workers
	OrphanSweepInterval    time.Duration
	OrphanSweepBatch       int64
	SessionCleanupInterval time.Duration

	// Admin bootstrap: created or promoted on startup when AdminEmail is set
	AdminEmail    string
	AdminName     string
	AdminPassword string

	// Handler deadlines on database work
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
