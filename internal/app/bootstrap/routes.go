// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"sync"
	"time"

	"github.com/dalemusser/carecoord/internal/app/care/agencyadmin"
	"github.com/dalemusser/carecoord/internal/app/care/assignment"
	"github.com/dalemusser/carecoord/internal/app/care/availability"
	"github.com/dalemusser/carecoord/internal/app/care/capacity"
	"github.com/dalemusser/carecoord/internal/app/care/primary"
	"github.com/dalemusser/carecoord/internal/app/care/shiftplan"
	"github.com/dalemusser/carecoord/internal/app/care/weekcopy"
	agenciesfeature "github.com/dalemusser/carecoord/internal/app/features/agencies"
	assignmentsfeature "github.com/dalemusser/carecoord/internal/app/features/assignments"
	auditlogfeature "github.com/dalemusser/carecoord/internal/app/features/auditlog"
	availabilityfeature "github.com/dalemusser/carecoord/internal/app/features/availability"
	directoryfeature "github.com/dalemusser/carecoord/internal/app/features/directory"
	errorsfeature "github.com/dalemusser/carecoord/internal/app/features/errors"
	healthfeature "github.com/dalemusser/carecoord/internal/app/features/health"
	primaryfeature "github.com/dalemusser/carecoord/internal/app/features/primary"
	schedulefeature "github.com/dalemusser/carecoord/internal/app/features/schedule"
	agencystore "github.com/dalemusser/carecoord/internal/app/store/agencies"
	"github.com/dalemusser/carecoord/internal/app/store/audit"
	availabilitystore "github.com/dalemusser/carecoord/internal/app/store/availability"
	"github.com/dalemusser/carecoord/internal/app/store/caregiverassign"
	caregivermemberstore "github.com/dalemusser/carecoord/internal/app/store/caregivermembers"
	elderstore "github.com/dalemusser/carecoord/internal/app/store/elders"
	membershipstore "github.com/dalemusser/carecoord/internal/app/store/memberships"
	shiftstore "github.com/dalemusser/carecoord/internal/app/store/shifts"
	userstore "github.com/dalemusser/carecoord/internal/app/store/users"
	"github.com/dalemusser/carecoord/internal/app/system/actor"
	"github.com/dalemusser/carecoord/internal/app/system/auditlog"
	"github.com/dalemusser/carecoord/internal/app/system/locks"
	"github.com/dalemusser/carecoord/internal/app/system/planlimits"
	"github.com/dalemusser/carecoord/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// The engine exposes:
//   - /health   database and lock backend status
//   - /metrics  Prometheus scrape endpoint
//   - /api/...  JSON scheduling API; the acting user arrives in X-Actor-ID
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	locker, lockHealth := buildLocker(appCfg, deps, logger)
	plans := buildPlanLimits(appCfg, logger)
	svc := buildServices(deps, appCfg, locker, plans, logger)

	r := chi.NewRouter()

	errs := errorsfeature.NewHandler(logger)
	r.NotFound(errs.NotFound)
	r.MethodNotAllowed(errs.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, lockHealth, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(actor.Middleware(logger))
		if appCfg.APIRateLimit > 0 {
			limiter := ratelimit.New(appCfg.APIRateLimit, time.Minute)
			setAPILimiter(limiter)
			api.Use(ratelimit.Middleware(limiter, logger))
		}

		api.Group(directoryfeature.Routes(directoryfeature.NewHandler(deps.MongoDatabase, logger)))
		api.Group(agenciesfeature.Routes(agenciesfeature.NewHandler(svc.admin, logger)))
		api.Group(assignmentsfeature.Routes(assignmentsfeature.NewHandler(svc.coordinator, logger)))
		api.Group(primaryfeature.Routes(primaryfeature.NewHandler(svc.primary, svc.users, logger)))
		api.Group(availabilityfeature.Routes(availabilityfeature.NewHandler(svc.matcher, logger)))
		api.Group(schedulefeature.Routes(schedulefeature.NewHandler(svc.planner, svc.weeks, logger)))
		api.Group(auditlogfeature.Routes(auditlogfeature.NewHandler(svc.events, svc.agencies, logger)))
	})

	logger.Info("carecoord handler built",
		zap.String("lock_mode", appCfg.LockMode),
		zap.Bool("plan_limits_remote", appCfg.PlanLimitsURL != ""),
		zap.Int("day_load_ceiling", appCfg.DayLoadCeiling),
		zap.Int("api_rate_limit", appCfg.APIRateLimit))
	return r, nil
}

// apiLimiter holds the /api throttle built by BuildHandler so Shutdown can
// stop its cleanup goroutine.
var apiLimiter struct {
	mu sync.Mutex
	l  *ratelimit.Limiter
}

// setAPILimiter installs l, stopping any limiter from an earlier build.
func setAPILimiter(l *ratelimit.Limiter) {
	apiLimiter.mu.Lock()
	defer apiLimiter.mu.Unlock()
	if apiLimiter.l != nil {
		apiLimiter.l.Stop()
	}
	apiLimiter.l = l
}

// stopAPILimiter stops the installed limiter and reports whether one was set.
func stopAPILimiter() bool {
	apiLimiter.mu.Lock()
	defer apiLimiter.mu.Unlock()
	if apiLimiter.l == nil {
		return false
	}
	apiLimiter.l.Stop()
	apiLimiter.l = nil
	return true
}

// services bundles the domain services shared by the API features.
type services struct {
	agencies    *agencystore.Store
	users       *userstore.Store
	events      *audit.Store
	admin       *agencyadmin.Service
	coordinator *assignment.Coordinator
	primary     *primary.Registry
	matcher     *availability.Matcher
	planner     *shiftplan.Planner
	weeks       *weekcopy.Scheduler
}

func buildServices(deps DBDeps, appCfg AppConfig, locker locks.Locker, plans planlimits.Checker, logger *zap.Logger) services {
	db := deps.MongoDatabase

	agencies := agencystore.New(db)
	elders := elderstore.New(db, logger)
	users := userstore.New(db)
	assignments := caregiverassign.New(db)
	shifts := shiftstore.New(db)
	events := audit.New(db)

	auditLog := auditlog.New(events, logger, auditlog.Config{
		Admin:    appCfg.AuditLogAdmin,
		Schedule: appCfg.AuditLogSchedule,
	})

	reg := primary.New(elders, locker, auditLog, logger)
	matcher := availability.New(availabilitystore.New(db), locker, auditLog, logger)

	coord := assignment.New(assignment.Deps{
		Agencies:     agencies,
		Elders:       elders,
		Assignments:  assignments,
		Memberships:  caregivermemberstore.New(db),
		GroupMembers: membershipstore.New(db),
		Users:        users,
		Capacity:     capacity.New(assignments, plans, logger),
		Primary:      reg,
		Locker:       locker,
		Audit:        auditLog,
		Logger:       logger,
	})

	return services{
		agencies:    agencies,
		users:       users,
		events:      events,
		admin:       agencyadmin.New(agencies, auditLog, logger),
		coordinator: coord,
		primary:     reg,
		matcher:     matcher,
		planner:     shiftplan.New(shifts, elders, matcher, users, locker, auditLog, logger, appCfg.DayLoadCeiling),
		weeks:       weekcopy.New(shifts, auditLog, logger, appCfg.DayLoadCeiling),
	}
}

// buildLocker picks the lock backend for lock_mode. The second result is
// non-nil only when the backend is remote and worth health-checking.
func buildLocker(appCfg AppConfig, deps DBDeps, logger *zap.Logger) (locks.Locker, healthfeature.Pinger) {
	switch appCfg.LockMode {
	case locks.ModeRedis:
		l := locks.NewRedis(deps.Redis, appCfg.LockTTL, logger)
		return l, l
	case locks.ModeNone:
		return locks.None{}, nil
	default:
		return locks.NewLocal(), nil
	}
}

func buildPlanLimits(appCfg AppConfig, logger *zap.Logger) planlimits.Checker {
	if appCfg.PlanLimitsURL == "" {
		return planlimits.NewStatic()
	}
	return planlimits.NewHTTP(appCfg.PlanLimitsURL, appCfg.PlanLimitsTimeout, logger)
}
