package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jassus213/affilify-gate/auth"
	"github.com/jassus213/affilify-gate/config"
	"github.com/jassus213/affilify-gate/metrics"
	ginMiddleware "github.com/jassus213/affilify-gate/middleware/gin"
	"github.com/jassus213/affilify-gate/plan"
	"github.com/jassus213/affilify-gate/ratelimiter"
	"github.com/jassus213/affilify-gate/store"
	"github.com/jassus213/affilify-gate/users"
)

// app owns every admission component for the process lifetime.
type app struct {
	logger   *zap.Logger
	httpLog  ratelimiter.Logger
	registry *ratelimiter.Registry
	quotas   *ratelimiter.UserLimiter
	gate     *auth.Gate
	metrics  *prometheus.Registry
	closers  []func() error
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{logger: logger, metrics: prometheus.NewRegistry()}

	recorder, err := metrics.NewRecorder(a.metrics)
	if err != nil {
		return nil, err
	}
	admissionLog, err := newAdmissionLogger(cfg.Log, logger, "admission", nil)
	if err != nil {
		return nil, err
	}
	a.httpLog, err = newAdmissionLogger(cfg.Log, logger, "http", nil)
	if err != nil {
		return nil, err
	}

	windowStore, err := a.newWindowStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ready := false
	defer func() {
		if !ready {
			a.Close()
		}
	}()

	mode, err := cfg.FailureMode()
	if err != nil {
		return nil, err
	}
	limiterOpts := []ratelimiter.Option{
		ratelimiter.WithLogger(admissionLog),
		ratelimiter.WithObserver(recorder),
		ratelimiter.WithFailureMode(mode),
	}
	if a.registry, err = ratelimiter.NewRegistry(windowStore, limiterOpts...); err != nil {
		return nil, err
	}
	a.quotas = ratelimiter.NewUserLimiter(windowStore, limiterOpts...)
	logger.Info("rate limit policies loaded", zap.Any("classes", a.registry.Classes()), zap.Stringer("failure_mode", mode))

	profiles, err := a.newUserStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.gate, err = auth.NewGate([]byte(cfg.JWTSecret), profiles,
		auth.WithCookieName(cfg.CookieName),
		auth.WithIssuer(cfg.JWTIssuer),
		auth.WithAcceptableSkew(5*time.Second),
		auth.WithLogger(admissionLog),
		auth.WithObserver(recorder),
	)
	if err != nil {
		return nil, err
	}
	ready = true
	return a, nil
}

// newWindowStore picks Redis when it is configured and the in-memory store otherwise.
func (a *app) newWindowStore(ctx context.Context, cfg *config.Config) (ratelimiter.Store, error) {
	if !cfg.UsesRedis() {
		a.logger.Warn("using in-memory rate limit store; quotas are per instance")
		return store.NewMemory(ctx, cfg.CleanupInterval), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	rs := store.NewRedis(redis.NewClient(opts), store.WithKeyPrefix(cfg.RedisKeyPrefix))
	a.closers = append(a.closers, rs.Close)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rs.Ping(pingCtx); err != nil {
		a.logger.Warn("redis unreachable at startup, limiters will fail open", zap.Error(err))
	}
	return rs, nil
}

func (a *app) newUserStore(ctx context.Context, cfg *config.Config) (auth.UserStore, error) {
	if cfg.Database.Driver == "" {
		seed := make([]users.User, 0, len(cfg.Users))
		for _, u := range cfg.Users {
			tier, err := plan.Parse(u.Plan)
			if err != nil {
				return nil, fmt.Errorf("seed user %q: %w", u.ID, err)
			}
			seed = append(seed, users.User{ID: u.ID, Email: u.Email, Plan: tier, Verified: u.Verified})
		}
		return users.NewMemoryStore(seed...), nil
	}

	dialect, err := users.DialectFor(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.closers = append(a.closers, db.Close)

	sqlStore := users.NewSQLStore(db, dialect)
	if err := sqlStore.Migrate(ctx); err != nil {
		return nil, err
	}
	return sqlStore, nil
}

// Router builds the gin engine. Business handlers are placeholders for the
// collaborators that own page generation, payments and analytics.
func (a *app) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	admissionLog := ginMiddleware.WithLogger(a.httpLog)
	limit := func(class ratelimiter.Class, opts ...ginMiddleware.Option) gin.HandlerFunc {
		return ginMiddleware.RateLimiter(a.registry, class, append(opts, admissionLog)...)
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.metrics, promhttp.HandlerOpts{})))

	api := r.Group("/api")

	api.GET("/auth/session", limit(ratelimiter.ClassAuth), ginMiddleware.Authenticate(a.gate), func(c *gin.Context) {
		p, _ := ginMiddleware.Principal(c)
		c.JSON(http.StatusOK, gin.H{"success": true, "user": p})
	})
	api.POST("/auth/reset-password", limit(ratelimiter.ClassPasswordReset), accepted("password reset requested"))
	api.POST("/contact", limit(ratelimiter.ClassAPI, ginMiddleware.WithOverride(ratelimiter.Custom(5, 3600))), accepted("message received"))

	api.GET("/me", limit(ratelimiter.ClassAPI), ginMiddleware.Authenticate(a.gate), func(c *gin.Context) {
		p, _ := ginMiddleware.Principal(c)
		c.JSON(http.StatusOK, gin.H{"success": true, "user": p, "quotas": plan.QuotasFor(p.Plan)})
	})

	api.POST("/generate",
		limit(ratelimiter.ClassAI),
		ginMiddleware.Authenticate(a.gate),
		ginMiddleware.Quota(a.quotas, plan.ActionAIRequest, admissionLog),
		accepted("generation queued"),
	)
	api.POST("/websites",
		limit(ratelimiter.ClassAI),
		ginMiddleware.Authenticate(a.gate),
		ginMiddleware.Quota(a.quotas, plan.ActionWebsiteGeneration, admissionLog),
		accepted("website generation queued"),
	)
	api.POST("/payments/checkout", limit(ratelimiter.ClassPayment), ginMiddleware.Authenticate(a.gate), accepted("checkout created"))

	analytics := api.Group("/analytics", limit(ratelimiter.ClassAPI))
	analytics.GET("", ginMiddleware.RequirePremium(a.gate), ginMiddleware.Quota(a.quotas, plan.ActionAPICall, admissionLog), ok("analytics"))
	analytics.GET("/export", ginMiddleware.RequireEnterprise(a.gate), ginMiddleware.Quota(a.quotas, plan.ActionAPICall, admissionLog), ok("analytics export"))

	return r
}

// Close releases the Redis client and database handle.
func (a *app) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}

func accepted(msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusAccepted, gin.H{"success": true, "message": msg})
	}
}

func ok(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "resource": resource})
	}
}
