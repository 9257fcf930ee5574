package main

import (
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	greetinghandler "github.com/zenGate-Global/hello-audit/domains/greeting/be/handler"
	platformauth "github.com/zenGate-Global/hello-audit/platform/go/auth"
	platformlogging "github.com/zenGate-Global/hello-audit/platform/go/logging"
	platformmiddleware "github.com/zenGate-Global/hello-audit/platform/go/middleware"
)

type routerDeps struct {
	logger         *zap.Logger
	requestTimeout time.Duration
	corsOrigin     string
	auth           authSetup
	greeting       *greetinghandler.Handler
	helloSpec      *openapi3.T
	metrics        http.Handler
}

// buildRouter assembles the application router. Health, metrics and the login flow are public;
// everything else, unknown paths included, requires an authenticated principal.
func buildRouter(deps routerDeps) *chi.Mux {
	rootRouter := chi.NewRouter()

	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(deps.requestTimeout),
		platformmiddleware.DefaultCORS(deps.corsOrigin),
	)

	rootRouter.Use(platformlogging.RequestLogger(deps.logger))

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if deps.metrics != nil {
		rootRouter.Method(http.MethodGet, "/metrics", deps.metrics)
	}

	if login := deps.auth.login; login != nil {
		rootRouter.Get(platformauth.LoginPath, login.Start)
		rootRouter.Get(platformauth.CallbackPath, login.Callback)
		rootRouter.Get(platformauth.LogoutPath, login.Logout)
		rootRouter.Post(platformauth.LogoutPath, login.Logout)
	}

	requireLogin := func(next http.Handler) http.Handler {
		return platformauth.Bind(deps.auth.authenticator, deps.logger)(
			platformauth.RequireAuthenticated(deps.auth.loginPath)(next),
		)
	}

	rootRouter.NotFound(requireLogin(http.NotFoundHandler()).ServeHTTP)
	rootRouter.MethodNotAllowed(requireLogin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})).ServeHTTP)

	rootRouter.Group(func(r chi.Router) {
		r.Use(requireLogin)
		r.Use(platformmiddleware.RequestTrace(deps.logger))

		registerDocsRoutes(r, deps.helloSpec, deps.logger)

		r.Group(func(r chi.Router) {
			r.Use(platformmiddleware.SpecValidator(deps.helloSpec))
			r.Get("/hello", deps.greeting.SayHello)
		})
	})

	return rootRouter
}
