// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"strings"

	authgooglefeature "github.com/dalemusser/topichub/internal/app/features/authgoogle"
	feedfeature "github.com/dalemusser/topichub/internal/app/features/feed"
	healthfeature "github.com/dalemusser/topichub/internal/app/features/health"
	loginfeature "github.com/dalemusser/topichub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/topichub/internal/app/features/logout"
	pwresetfeature "github.com/dalemusser/topichub/internal/app/features/passwordreset"
	postsfeature "github.com/dalemusser/topichub/internal/app/features/posts"
	registerfeature "github.com/dalemusser/topichub/internal/app/features/register"
	topicsfeature "github.com/dalemusser/topichub/internal/app/features/topics"
	topicsvc "github.com/dalemusser/topichub/internal/app/service/topics"
	auditstore "github.com/dalemusser/topichub/internal/app/store/audit"
	"github.com/dalemusser/topichub/internal/app/store/emailverify"
	"github.com/dalemusser/topichub/internal/app/store/oauthstate"
	pwresetstore "github.com/dalemusser/topichub/internal/app/store/passwordreset"
	topicstore "github.com/dalemusser/topichub/internal/app/store/topics"
	userstore "github.com/dalemusser/topichub/internal/app/store/users"
	"github.com/dalemusser/topichub/internal/app/system/auditlog"
	"github.com/dalemusser/topichub/internal/app/system/auth"
	"github.com/dalemusser/topichub/internal/app/system/blobstore"
	"github.com/dalemusser/topichub/internal/app/system/mailer"
	"github.com/dalemusser/topichub/internal/app/system/ratelimit"
	"github.com/dalemusser/topichub/internal/app/topicfeed"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// TopicHub wires the session manager, bearer tokens, stores, the topic
// service and live feed engine, then mounts the JSON feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Session manager; secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Stores
	usersStore := userstore.New(db)
	topicsStore := topicstore.New(db)
	verifyStore := emailverify.New(db)
	stateStore := oauthstate.New(db)
	resetStore := pwresetstore.New(db)

	// Bearer tokens for API clients. Session cookies still work without
	// a JWT secret; tokens are just unavailable.
	var tokens *auth.TokenService
	if appCfg.JWTSecret != "" {
		tokens, err = auth.NewTokenService(appCfg.JWTSecret, appCfg.JWTTTL)
		if err != nil {
			logger.Error("token service init failed", zap.Error(err))
			return nil, err
		}
		sessionMgr.UseTokens(tokens, usersStore)
	} else {
		logger.Warn("jwt_secret not set; bearer token auth disabled")
	}

	// Audit logging
	audit := auditlog.New(auditstore.New(db), logger, auditlog.Config{
		Auth:   appCfg.AuditLogAuth,
		Topics: appCfg.AuditLogTopics,
	})

	// Blob storage for post images
	var blobs blobstore.Store
	var localBlobs *blobstore.Local
	switch appCfg.StorageType {
	case "s3":
		blobs, err = blobstore.NewS3(blobstore.S3Config{
			Region:          appCfg.StorageS3Region,
			Bucket:          appCfg.StorageS3Bucket,
			Prefix:          appCfg.StorageS3Prefix,
			Endpoint:        appCfg.StorageS3Endpoint,
			ServeURL:        appCfg.StorageS3ServeURL,
			AccessKeyID:     appCfg.StorageS3AccessKeyID,
			SecretAccessKey: appCfg.StorageS3SecretAccess,
			ForcePathStyle:  appCfg.StorageS3ForcePathStyle,
		}, logger)
		if err != nil {
			logger.Error("s3 blob store init failed", zap.Error(err))
			return nil, err
		}
	default:
		localBlobs, err = blobstore.NewLocal(appCfg.StorageLocalPath, appCfg.StorageLocalURL, logger)
		if err != nil {
			logger.Error("local blob store init failed", zap.Error(err))
			return nil, err
		}
		blobs = localBlobs
	}

	// Topic service and live feed engine
	service := topicsvc.New(topicsStore, blobstore.Deleter{Store: blobs}, appCfg.StrictMemberACL, logger)
	feedEngine := topicfeed.NewEngine(topicsStore, logger)

	// Outbound mail
	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)

	limiter := ratelimit.NewLoginLimiterWithConfig(
		appCfg.LoginIPLimit, appCfg.LoginIPWindow,
		appCfg.LoginEmailLimit, appCfg.LoginEmailWindow)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if signed in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(usersStore, sessionMgr, tokens, limiter, audit, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, audit, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	registerHandler := registerfeature.NewHandler(usersStore, verifyStore, mail, audit, appCfg.BaseURL, logger)
	r.Mount("/register", registerfeature.Routes(registerHandler))

	pwresetHandler := pwresetfeature.NewHandler(usersStore, resetStore, mail, audit, appCfg.BaseURL, logger)
	r.Mount("/password-reset", pwresetfeature.Routes(pwresetHandler))

	googleHandler := authgooglefeature.NewHandler(usersStore, sessionMgr, audit, stateStore,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	// Topics and posts
	topicsHandler := topicsfeature.NewHandler(service, feedEngine, audit, logger)
	r.Mount("/topics", topicsfeature.Routes(topicsHandler, sessionMgr))

	postsHandler := postsfeature.NewHandler(service, blobs, audit, logger)
	r.Mount("/topics/{topicID}/posts", postsfeature.Routes(postsHandler, sessionMgr))

	// Live topic listing stream
	feedHandler := feedfeature.NewHandler(feedEngine, logger)
	r.Mount("/feed", feedfeature.Routes(feedHandler, sessionMgr))

	// Uploaded images when using local storage; S3 serves its own URLs.
	if localBlobs != nil {
		prefix := strings.TrimSuffix(appCfg.StorageLocalURL, "/")
		r.Handle(prefix+"/*", localBlobs.Handler(prefix))
	}

	return r, nil
}
