// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/topichub/internal/app/store/audit"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (login, logout, register, verification).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Topics controls logging for topic mutation events (topic/post CRUD, member changes, denials).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Topics string
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

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first (for reverse proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.ActorEmail != "" {
		fields = append(fields, zap.String("actor_email", event.ActorEmail))
	}
	if event.TopicID != "" {
		fields = append(fields, zap.String("topic_id", event.TopicID))
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
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// Logging destination is controlled by config: "all", "db", "log", or "off".
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryTopic:
		setting = l.config.Topics
	default:
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

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, email, authMethod string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAuth,
		EventType:  audit.EventLoginSuccess,
		ActorEmail: email,
		IP:         getClientIP(r),
		UserAgent:  r.UserAgent(),
		Success:    true,
		Details: map[string]string{
			"auth_method": authMethod,
		},
	})
}

// LoginFailedUserNotFound logs a failed login due to user not found.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedEmail string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserNotFound,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "user not found",
		Details: map[string]string{
			"attempted_email": attemptedEmail,
		},
	})
}

// LoginFailedWrongPassword logs a failed login due to wrong password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedWrongPassword,
		ActorEmail:    email,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "wrong password",
	})
}

// LoginFailedUnverified logs a failed login due to an unverified email.
func (l *Logger) LoginFailedUnverified(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUnverified,
		ActorEmail:    email,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "email not verified",
	})
}

// LoginFailedRateLimit logs a failed login due to rate limiting.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedRateLimit,
		ActorEmail:    email,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "rate limit exceeded",
	})
}

// Logout logs a user logout.
func (l *Logger) Logout(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAuth,
		EventType:  audit.EventLogout,
		ActorEmail: email,
		IP:         getClientIP(r),
		UserAgent:  r.UserAgent(),
		Success:    true,
	})
}

// Registered logs a new account registration.
func (l *Logger) Registered(ctx context.Context, r *http.Request, email, authMethod string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAuth,
		EventType:  audit.EventRegistered,
		ActorEmail: email,
		IP:         getClientIP(r),
		UserAgent:  r.UserAgent(),
		Success:    true,
		Details: map[string]string{
			"auth_method": authMethod,
		},
	})
}

// EmailVerified logs a completed email verification.
func (l *Logger) EmailVerified(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAuth,
		EventType:  audit.EventEmailVerified,
		ActorEmail: email,
		IP:         getClientIP(r),
		UserAgent:  r.UserAgent(),
		Success:    true,
	})
}

// PasswordResetRequested logs a password reset link being issued.
func (l *Logger) PasswordResetRequested(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAuth,
		EventType:  audit.EventPasswordResetRequested,
		ActorEmail: email,
		IP:         getClientIP(r),
		UserAgent:  r.UserAgent(),
		Success:    true,
	})
}

// PasswordReset logs a completed password reset.
func (l *Logger) PasswordReset(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAuth,
		EventType:  audit.EventPasswordReset,
		ActorEmail: email,
		IP:         getClientIP(r),
		UserAgent:  r.UserAgent(),
		Success:    true,
	})
}

// --- Topic Events ---

// TopicCreated logs a new topic.
func (l *Logger) TopicCreated(ctx context.Context, r *http.Request, email, topicID, name string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryTopic,
		EventType:  audit.EventTopicCreated,
		ActorEmail: email,
		TopicID:    topicID,
		IP:         getClientIP(r),
		UserAgent:  r.UserAgent(),
		Success:    true,
		Details: map[string]string{
			"name": name,
		},
	})
}

// TopicUpdated logs a topic rename.
func (l *Logger) TopicUpdated(ctx context.Context, r *http.Request, email, topicID, name string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryTopic,
		EventType:  audit.EventTopicUpdated,
		ActorEmail: email,
		TopicID:    topicID,
		IP:         getClientIP(r),
		UserAgent:  r.UserAgent(),
		Success:    true,
		Details: map[string]string{
			"name": name,
		},
	})
}

// TopicDeleted logs a topic removal.
func (l *Logger) TopicDeleted(ctx context.Context, r *http.Request, email, topicID string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryTopic,
		EventType:  audit.EventTopicDeleted,
		ActorEmail: email,
		TopicID:    topicID,
		IP:         getClientIP(r),
		UserAgent:  r.UserAgent(),
		Success:    true,
	})
}

// PostChanged logs a post mutation; eventType is one of the EventPost*
// constants.
func (l *Logger) PostChanged(ctx context.Context, r *http.Request, eventType, email, topicID, postID string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryTopic,
		EventType:  eventType,
		ActorEmail: email,
		TopicID:    topicID,
		IP:         getClientIP(r),
		UserAgent:  r.UserAgent(),
		Success:    true,
		Details: map[string]string{
			"post_id": postID,
		},
	})
}

// MemberChanged logs a reader/writer list mutation.
func (l *Logger) MemberChanged(ctx context.Context, r *http.Request, eventType, email, topicID, field, memberEmail string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryTopic,
		EventType:  eventType,
		ActorEmail: email,
		TopicID:    topicID,
		IP:         getClientIP(r),
		UserAgent:  r.UserAgent(),
		Success:    true,
		Details: map[string]string{
			"field":  field,
			"member": memberEmail,
		},
	})
}

// AccessDenied logs a permission-denied mutation attempt.
func (l *Logger) AccessDenied(ctx context.Context, r *http.Request, email, topicID, operation string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryTopic,
		EventType:     audit.EventAccessDenied,
		ActorEmail:    email,
		TopicID:       topicID,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "permission denied",
		Details: map[string]string{
			"operation": operation,
		},
	})
}
