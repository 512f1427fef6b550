// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, token verification, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/mahmoudomarus/chipn/internal/config"
	"github.com/mahmoudomarus/chipn/internal/domain"
	"github.com/mahmoudomarus/chipn/internal/http/handlers"
	"github.com/mahmoudomarus/chipn/internal/http/middleware"
	"github.com/mahmoudomarus/chipn/internal/repo"
	"github.com/mahmoudomarus/chipn/internal/services"
)

// postRepoShim adapts the repository free functions to the services.PostRepo
// interface expected by the PostService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type postRepoShim struct{}

// CreatePost proxies repo.CreatePost.
func (postRepoShim) CreatePost(ctx context.Context, db *gorm.DB, p *domain.Post) (*domain.Post, error) {
	return repo.CreatePost(ctx, db, p)
}

// ListPosts proxies repo.ListPosts.
func (postRepoShim) ListPosts(ctx context.Context, db *gorm.DB, authorID string) ([]domain.Post, error) {
	return repo.ListPosts(ctx, db, authorID)
}

// ListPostsPage proxies repo.ListPostsPage (feed pagination support).
func (postRepoShim) ListPostsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Post, error) {
	return repo.ListPostsPage(ctx, db, offset, limit)
}

// GetPost proxies repo.GetPost.
func (postRepoShim) GetPost(ctx context.Context, db *gorm.DB, id string) (*domain.Post, error) {
	return repo.GetPost(ctx, db, id)
}

// BoostPost proxies repo.BoostPost.
func (postRepoShim) BoostPost(ctx context.Context, db *gorm.DB, id string) (*domain.Post, error) {
	return repo.BoostPost(ctx, db, id)
}

// SearchPosts proxies repo.SearchPosts.
func (postRepoShim) SearchPosts(ctx context.Context, db *gorm.DB, query string, limit int) ([]domain.Post, error) {
	return repo.SearchPosts(ctx, db, query, limit)
}

// investmentRepoShim adapts the repository free functions to the
// services.InvestmentRepo interface.
type investmentRepoShim struct{}

// CreateInvestment proxies repo.CreateInvestment.
func (investmentRepoShim) CreateInvestment(ctx context.Context, db *gorm.DB, inv *domain.Investment) (*domain.Investment, error) {
	return repo.CreateInvestment(ctx, db, inv)
}

// ListInvestmentsByInvestor proxies repo.ListInvestmentsByInvestor.
func (investmentRepoShim) ListInvestmentsByInvestor(ctx context.Context, db *gorm.DB, investorID string) ([]domain.Investment, error) {
	return repo.ListInvestmentsByInvestor(ctx, db, investorID)
}

// ListInvestmentsForPosts proxies repo.ListInvestmentsForPosts.
func (investmentRepoShim) ListInvestmentsForPosts(ctx context.Context, db *gorm.DB, postIDs []string) ([]domain.Investment, error) {
	return repo.ListInvestmentsForPosts(ctx, db, postIDs)
}

// GetInvestment proxies repo.GetInvestment.
func (investmentRepoShim) GetInvestment(ctx context.Context, db *gorm.DB, id string) (*domain.Investment, error) {
	return repo.GetInvestment(ctx, db, id)
}

// SubmitDueDiligence proxies repo.SubmitDueDiligence.
func (investmentRepoShim) SubmitDueDiligence(ctx context.Context, db *gorm.DB, id, notes string) error {
	return repo.SubmitDueDiligence(ctx, db, id, notes)
}

// Deps bundles the injected collaborators the router needs beyond the
// database handle: the token verifier and the outbound clients.
type Deps struct {
	Verifier middleware.TokenVerifier
	Store    handlers.PitchStore
	AI       handlers.Summarizer
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting, CORS
// and security headers, health and metrics endpoints, and then mounts the
// versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Metrics
//  6. Rate limiter (per user/IP)
//  7. CORS and Security headers
//  8. Response compression
//
// Request body limits are applied per route group: JSON endpoints get a tight
// cap while upload endpoints allow the pitch-video ceiling.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-Api-Key", // completion API credential must never reach logs
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 6) Token-bucket rate limiter (health probes exempt). Installed before
	// token verification, so buckets are keyed by client IP in practice.
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(middleware.RateBypassPaths("/health"))
	r.Use(rl.Handler())

	// 7) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// 8) Compress responses; uploads are excluded (already-compressed media).
	r.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPathsRegexs([]string{`.*/uploads/.*`})))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db
	postSvc := services.NewPostService(db, postRepoShim{})
	if cfg.FeedPageSize > 0 {
		postSvc.FeedPageSize = cfg.FeedPageSize
	}
	invSvc := &services.InvestmentService{DB: db, Repo: investmentRepoShim{}, Posts: postRepoShim{}}
	h := handlers.New(postSvc, invSvc, deps.Store, deps.AI)

	requireAuth := middleware.RequireIdentity(deps.Verifier)
	optionalAuth := middleware.OptionalIdentity(deps.Verifier)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Posts
		posts := api.Group("/posts", limitBody(1<<20))
		posts.POST("", requireAuth, h.CreatePost)
		posts.GET("", optionalAuth, h.ListPosts)
		posts.GET("/:id", optionalAuth, h.GetPost)
		posts.POST("/:id/boost", requireAuth, h.BoostPost)

		// Discovery
		api.GET("/feed", optionalAuth, h.GetFeed)
		api.GET("/search", optionalAuth, h.SearchPosts)

		// Investments
		inv := api.Group("/investments", limitBody(1<<20), requireAuth)
		inv.POST("", h.CreateInvestment)
		inv.GET("", h.ListInvestments)
		inv.GET("/inbound", h.ListInboundInvestments)
		inv.POST("/:id/due-diligence", h.SubmitDueDiligence)

		// Uploads (multipart; generous body cap, handler enforces per-kind limits)
		up := api.Group("/uploads", limitBody(151<<20), requireAuth)
		up.POST("/pitch-video", h.UploadPitchVideo)
		up.POST("/pitch-deck", h.UploadPitchDeck)

		// AI
		api.POST("/ai/summarize", limitBody(1<<20), requireAuth, h.Summarize)

		// Auth
		api.POST("/auth/verify-id", limitBody(1<<20), requireAuth, h.VerifyID)
	}
}

// limitBody returns a Gin middleware that caps the request body size using
// http.MaxBytesReader. Requests exceeding the cap will cause downstream body
// reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
