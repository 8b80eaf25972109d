package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/loussodesigns/opts/api/controllers"
	ordercontrollers "github.com/loussodesigns/opts/api/controllers/orders"
	"github.com/loussodesigns/opts/api/middleware"
	"github.com/loussodesigns/opts/pkg/config"
	"github.com/loussodesigns/opts/pkg/db"
	"github.com/loussodesigns/opts/pkg/logger"
	"github.com/loussodesigns/opts/pkg/redis"
)

// NewRouter mounts every OPTS endpoint. redisClient may be nil, which turns
// off registration throttling and the resend cooldown.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	metricsHandler http.Handler,
	fulfillmentService ordercontrollers.Fulfiller,
	ordersService ordercontrollers.Reader,
	milestonesService ordercontrollers.MilestoneEditor,
	registrationManager controllers.RegistrationManager,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	readiness := map[string]controllers.Pinger{"db": dbP}
	var cooldowns controllers.CooldownStore
	registerLimit := func(next http.Handler) http.Handler { return next }
	if redisClient != nil {
		readiness["redis"] = redisClient
		cooldowns = redisClient
		policy := middleware.NewRegisterRateLimitPolicy(
			"register",
			cfg.RegisterRateLimit.Window,
			cfg.RegisterRateLimit.IPLimit,
			cfg.RegisterRateLimit.TokenLimit,
		)
		registerLimit = middleware.RegisterRateLimit(policy, redisClient, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(fulfillmentService, logg))
			r.Get("/", ordercontrollers.List(ordersService, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(ordersService, logg))
			r.Delete("/{orderId}", ordercontrollers.Delete(ordersService, logg))
			r.Patch("/{orderId}/milestones", ordercontrollers.UpdateMilestones(milestonesService, logg))
		})

		r.Get("/milestones/choices", ordercontrollers.MilestoneChoices())

		r.Route("/scan/{orderId}", func(r chi.Router) {
			r.Get("/", ordercontrollers.ScanView(ordersService, logg))
			r.Post("/milestones/{milestoneId}/approve", ordercontrollers.ScanApprove(milestonesService, logg))
		})

		r.Route("/customers/{customerId}", func(r chi.Router) {
			r.Get("/orders", ordercontrollers.CustomerOrders(ordersService, logg))
			r.Post("/registration/resend", controllers.RegisterResend(registrationManager, cooldowns, cfg.RegisterRateLimit.ResendCooldown, logg))
		})

		r.Route("/register", func(r chi.Router) {
			r.Get("/", controllers.RegisterValidate(registrationManager, logg))
			r.With(registerLimit).Post("/", controllers.RegisterComplete(registrationManager, logg))
		})
	})

	return r
}
