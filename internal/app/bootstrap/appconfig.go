// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP/HTTPS
// ports, TLS, logging level and CORS. AppConfig is where everything
// specific to TopicHub lives: database connection strings, session and
// token secrets, storage backends, mail settings and feature toggles.
//
// The struct is passed to most lifecycle hooks, so any configuration
// needed during startup, request handling, or shutdown should live here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: topichub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Session lifetime

	// Bearer token configuration for API clients
	JWTSecret string        // HMAC secret for bearer tokens
	JWTTTL    time.Duration // Bearer token lifetime

	// Image storage configuration
	StorageType      string // Storage backend: "local" or "s3"
	StorageLocalPath string // Local storage path (e.g., "./uploads/media")
	StorageLocalURL  string // URL prefix for serving local files (e.g., "/media")

	// S3 configuration (only used if StorageType is "s3")
	StorageS3Region         string // AWS region
	StorageS3Bucket         string // S3 bucket name
	StorageS3Prefix         string // Key prefix (e.g., "media/")
	StorageS3Endpoint       string // Custom endpoint for S3-compatible stores (blank for AWS)
	StorageS3ServeURL       string // Public URL prefix the bucket is served from
	StorageS3AccessKeyID    string // Static credentials (blank to use the default chain)
	StorageS3SecretAccess   string
	StorageS3ForcePathStyle bool // Path-style addressing for MinIO and friends

	// Email/SMTP configuration
	MailSMTPHost string // SMTP server host (e.g., localhost for Mailpit)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string // SMTP username
	MailSMTPPass string // SMTP password
	MailFrom     string // From email address (e.g., noreply@topichub.example.com)
	MailFromName string // From display name (e.g., TopicHub)

	// Base URL for links in email (verification links, OAuth callbacks)
	BaseURL string // e.g., "https://topichub.example.com" or "http://localhost:8080"

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// StrictMemberACL restricts reader/writer list changes to the topic
	// owner. Off by default to match the permissive legacy behavior.
	StrictMemberACL bool

	// Login rate limiting
	LoginIPLimit     int
	LoginIPWindow    time.Duration
	LoginEmailLimit  int
	LoginEmailWindow time.Duration

	// Audit logging destinations: "all", "db", "log", or "off"
	AuditLogAuth   string
	AuditLogTopics string
}
