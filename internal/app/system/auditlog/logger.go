// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/collabhub/internal/app/store/audit"
	"github.com/dalemusser/collabhub/internal/app/system/metrics"
	"github.com/dalemusser/collabhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (register, login, logout, refresh, profile).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Project controls logging for collaborator changes and project deletion.
	Project string
}

// EventStore persists audit events. *audit.Store satisfies it.
type EventStore interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger records audit events to MongoDB and zap, and counts auth events
// in Prometheus regardless of configuration.
type Logger struct {
	store  EventStore
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store EventStore, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
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
	if event.ProjectID != nil {
		fields = append(fields, zap.String("project_id", event.ProjectID.Hex()))
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
// A nil Logger is a no-op so handler tests can omit it.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	if event.Category == audit.CategoryAuth {
		outcome := metrics.OutcomeSuccess
		if !event.Success {
			outcome = metrics.OutcomeFailure
		}
		metrics.AuthEvents.WithLabelValues(event.EventType, outcome).Inc()
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryProject:
		setting = l.config.Project
	default:
		setting = "all"
	}
	if setting == "off" {
		return
	}

	if (setting == "all" || setting == "log") && l.zapLog != nil {
		l.logToZap(event)
	}
	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil && l.zapLog != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func authEvent(r *http.Request, eventType string, userID *primitive.ObjectID, success bool) audit.Event {
	return audit.Event{
		Category:  audit.CategoryAuth,
		EventType: eventType,
		UserID:    userID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   success,
	}
}

// --- Authentication Events ---

// Registered logs a new account.
func (l *Logger) Registered(ctx context.Context, r *http.Request, userID primitive.ObjectID, username string) {
	e := authEvent(r, audit.EventRegistered, &userID, true)
	e.Details = map[string]string{"username": username}
	l.Log(ctx, e)
}

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, username string) {
	e := authEvent(r, audit.EventLoginSuccess, &userID, true)
	e.Details = map[string]string{"username": username}
	l.Log(ctx, e)
}

// LoginFailed logs a failed login. userID is nil when the credential did
// not resolve to an account. The client never sees reason.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, userID *primitive.ObjectID, credential, reason string) {
	e := authEvent(r, audit.EventLoginFailed, userID, false)
	e.FailureReason = reason
	e.Details = map[string]string{"credential": credential}
	l.Log(ctx, e)
}

// LoginRateLimited logs a login rejected by the rate limiter.
func (l *Logger) LoginRateLimited(ctx context.Context, r *http.Request, credential string) {
	e := authEvent(r, audit.EventLoginRateLimited, nil, false)
	e.FailureReason = "rate limit exceeded"
	e.Details = map[string]string{"credential": credential}
	l.Log(ctx, e)
}

// Logout logs a logout; revoked tells whether a refresh token was blacklisted.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID primitive.ObjectID, revoked bool) {
	e := authEvent(r, audit.EventLogout, &userID, true)
	if revoked {
		e.Details = map[string]string{"refresh_revoked": "true"}
	}
	l.Log(ctx, e)
}

// LogoutFailed logs a logout whose refresh token could not be revoked.
func (l *Logger) LogoutFailed(ctx context.Context, r *http.Request, userID primitive.ObjectID, reason string) {
	e := authEvent(r, audit.EventLogout, &userID, false)
	e.FailureReason = reason
	l.Log(ctx, e)
}

// TokenRefreshed logs a refresh-token rotation.
func (l *Logger) TokenRefreshed(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, authEvent(r, audit.EventTokenRefreshed, &userID, true))
}

// ProfileUpdated logs a profile change.
func (l *Logger) ProfileUpdated(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, authEvent(r, audit.EventProfileUpdated, &userID, true))
}

// AccountDeleted logs an account deletion.
func (l *Logger) AccountDeleted(ctx context.Context, r *http.Request, userID primitive.ObjectID, username string) {
	e := authEvent(r, audit.EventAccountDeleted, &userID, true)
	e.Details = map[string]string{"username": username}
	l.Log(ctx, e)
}

// --- Project Events ---

func (l *Logger) projectEvent(ctx context.Context, r *http.Request, eventType string, actorID, projectID primitive.ObjectID, userID *primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryProject,
		EventType: eventType,
		UserID:    userID,
		ActorID:   &actorID,
		ProjectID: &projectID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// CollaboratorAdded logs userID joining projectID.
func (l *Logger) CollaboratorAdded(ctx context.Context, r *http.Request, actorID, projectID, userID primitive.ObjectID) {
	l.projectEvent(ctx, r, audit.EventCollaboratorAdded, actorID, projectID, &userID)
}

// CollaboratorRemoved logs userID leaving projectID.
func (l *Logger) CollaboratorRemoved(ctx context.Context, r *http.Request, actorID, projectID, userID primitive.ObjectID) {
	l.projectEvent(ctx, r, audit.EventCollaboratorRemoved, actorID, projectID, &userID)
}

// ProjectDeleted logs the deletion of projectID and its tasks.
func (l *Logger) ProjectDeleted(ctx context.Context, r *http.Request, actorID, projectID primitive.ObjectID) {
	l.projectEvent(ctx, r, audit.EventProjectDeleted, actorID, projectID, nil)
}
