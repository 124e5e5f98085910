package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	httpapi "github.com/carbonchain/carbonchain-backend/internal/api/http"
	"github.com/carbonchain/carbonchain-backend/internal/api/http/middleware"
	"github.com/carbonchain/carbonchain-backend/internal/auth"
	authhttp "github.com/carbonchain/carbonchain-backend/internal/auth/http"
	authmw "github.com/carbonchain/carbonchain-backend/internal/auth/middleware"
	authservice "github.com/carbonchain/carbonchain-backend/internal/auth/service"
	escrowhttp "github.com/carbonchain/carbonchain-backend/internal/escrow/http"
	escrowservice "github.com/carbonchain/carbonchain-backend/internal/escrow/service"
	mkthttp "github.com/carbonchain/carbonchain-backend/internal/marketplace/http"
	mktservice "github.com/carbonchain/carbonchain-backend/internal/marketplace/service"
	ordershttp "github.com/carbonchain/carbonchain-backend/internal/orders/http"
	ordersservice "github.com/carbonchain/carbonchain-backend/internal/orders/service"
	quoteshttp "github.com/carbonchain/carbonchain-backend/internal/quotes/http"
	quotesservice "github.com/carbonchain/carbonchain-backend/internal/quotes/service"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	DevMode        bool
	AllowedOrigins []string
	Log            *zap.Logger

	// Both optional; health reports "disabled" when nil.
	DB    *pgxpool.Pool
	Redis *redis.Client

	Verifier    authmw.TokenVerifier
	Marketplace *mktservice.MarketplaceService
	Quotes      *quotesservice.QuoteService
	Orders      *ordersservice.OrderService
	Auth        *authservice.AuthService
	Escrow      *escrowservice.EscrowService
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	log := dep.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     dep.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", auth.HeaderUserID, middleware.HeaderRequestID},
		ExposeHeaders:    []string{middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DevMode, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/")
	api.Use(authmw.Identity(dep.Verifier, dep.DevMode))

	mkthttp.New(dep.Marketplace, log).Register(api)
	quoteshttp.New(dep.Quotes, log).Register(api)
	ordershttp.New(dep.Orders, log).Register(api)
	authhttp.New(dep.Auth, log).Register(api, authmw.RequireUser())
	escrowhttp.New(dep.Escrow, log).Register(api)

	return r
}
