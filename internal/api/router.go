package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/isitech/bibliotheque/internal/api/docs"
	"github.com/isitech/bibliotheque/internal/api/handler"
	"github.com/isitech/bibliotheque/internal/api/middleware"
	"github.com/isitech/bibliotheque/internal/core/ports"
)

// Dependencies are the collaborators of the HTTP layer. Mongo and Redis are
// optional; Registerer and Gatherer default to the Prometheus globals.
type Dependencies struct {
	Service    ports.LibraryService
	Mongo      *mongo.Database
	Redis      *redis.Client
	Logger     zerolog.Logger
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "library_http",
		Registerer: deps.Registerer,
	}))

	// --- Handlers ---
	homeHandler := handler.NewHomeHandler(deps.Service)
	bookHandler := handler.NewBookHandler(deps.Service)
	userHandler := handler.NewUserHandler(deps.Service)
	loanHandler := handler.NewLoanHandler(deps.Service)
	statsHandler := handler.NewStatsHandler(deps.Service)
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)

	// --- Operational routes ---
	e.GET("/", homeHandler.Index)
	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- API v1 ---
	v1 := e.Group("/v1")

	books := v1.Group("/books")
	books.POST("", bookHandler.Create)
	books.GET("", bookHandler.List)
	books.GET("/:id", bookHandler.Get)
	books.PUT("/:id", bookHandler.Update)
	books.DELETE("/:id", bookHandler.Delete)
	books.GET("/:id/history", bookHandler.History)

	users := v1.Group("/users")
	users.POST("", userHandler.Create)
	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.Get)

	loans := v1.Group("/loans")
	loans.POST("", loanHandler.Borrow, middleware.IdempotencyKey(handler.HeaderIdempotencyKey))
	loans.POST("/:book_id/return", loanHandler.Return)
	loans.GET("/overdue", loanHandler.Overdue)

	v1.GET("/stats", statsHandler.Get)

	return e
}
