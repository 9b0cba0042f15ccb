package bootstrap

import (
	"context"
	"database/sql"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hecopilot/copilot-backend/config"
	httpapi "github.com/hecopilot/copilot-backend/internal/api/http"
	"github.com/hecopilot/copilot-backend/internal/api/http/middleware"
	"github.com/hecopilot/copilot-backend/internal/apperr"
	authmw "github.com/hecopilot/copilot-backend/internal/auth/middleware"
	"github.com/hecopilot/copilot-backend/internal/metrics"
	odhttp "github.com/hecopilot/copilot-backend/internal/opendata/http"
	raghttp "github.com/hecopilot/copilot-backend/internal/rag/http"
	ragrepo "github.com/hecopilot/copilot-backend/internal/rag/repository"
	ragsvc "github.com/hecopilot/copilot-backend/internal/rag/service"
	sandboxhttp "github.com/hecopilot/copilot-backend/internal/sandbox/http"
	sandboxsvc "github.com/hecopilot/copilot-backend/internal/sandbox/service"
	usershttp "github.com/hecopilot/copilot-backend/internal/users/http"
	usersrepo "github.com/hecopilot/copilot-backend/internal/users/repository"
	userssvc "github.com/hecopilot/copilot-backend/internal/users/service"
)

type RouterDeps struct {
	Config   *config.Config
	Pool     *pgxpool.Pool
	SQL      *sql.DB
	Redis    *redis.Client
	Auth     *fbauth.Client
	Searcher ragrepo.Searcher
	Sandbox  *sandboxsvc.SandboxService
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	cfg := dep.Config

	r := gin.New()
	r.Use(apperr.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.Server.SiteURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	health := httpapi.NewHealthHandler("copilot-backend", cfg.App.Version)
	if dep.Pool != nil {
		health.WithCheck("postgres", dep.Pool)
	} else if dep.SQL != nil {
		health.WithCheck("postgres", httpapi.PingFunc(dep.SQL.PingContext))
	} else {
		health.WithCheck("postgres", nil)
	}
	if dep.Redis != nil {
		rdb := dep.Redis
		health.WithCheck("redis", httpapi.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}))
	}
	health.RegisterRoutes(r)
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")

	gateway := ragsvc.NewSearchGateway(dep.Searcher)
	assembler := ragsvc.NewContextAssembler(gateway)
	completer := NewCompleter(cfg.LLM)
	raghttp.New(
		gateway,
		assembler,
		ragsvc.NewAnswerComposer(assembler, completer),
		ragsvc.NewPersonaChat(completer),
	).Register(api)

	odhttp.New(NewOpenData(cfg, dep.Redis, dep.SQL)).Register(api)

	var verifier authmw.TokenVerifier
	if dep.Auth != nil {
		verifier = dep.Auth
	}
	requireAuth := authmw.FirebaseAuthMiddleware(verifier)

	if dep.SQL == nil {
		missingDB := func(c *gin.Context) { apperr.Respond(c, apperr.MissingSetting("DB_DSN")) }
		api.Any("/users/*path", missingDB)
		api.Any("/files", missingDB)
		api.Any("/files/*path", missingDB)
		return r
	}

	usershttp.New(userssvc.NewUserService(usersrepo.NewUserRepository(dep.SQL))).
		RegisterRoutes(api.Group("/users"), requireAuth)

	if dep.Sandbox != nil {
		sandboxhttp.New(dep.Sandbox).Register(api.Group("/files", requireAuth))
	}

	return r
}
