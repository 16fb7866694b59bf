// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"
	"strings"

	accreditationsfeature "github.com/dalemusser/accredithub/internal/app/features/accreditations"
	auditlogfeature "github.com/dalemusser/accredithub/internal/app/features/auditlog"
	documentsfeature "github.com/dalemusser/accredithub/internal/app/features/documents"
	financialreportsfeature "github.com/dalemusser/accredithub/internal/app/features/financialreports"
	healthfeature "github.com/dalemusser/accredithub/internal/app/features/health"
	loginfeature "github.com/dalemusser/accredithub/internal/app/features/login"
	organizationsfeature "github.com/dalemusser/accredithub/internal/app/features/organizations"
	presidentsfeature "github.com/dalemusser/accredithub/internal/app/features/presidents"
	proposalsfeature "github.com/dalemusser/accredithub/internal/app/features/proposals"
	registrationfeature "github.com/dalemusser/accredithub/internal/app/features/registration"
	rostersfeature "github.com/dalemusser/accredithub/internal/app/features/rosters"
	"github.com/dalemusser/accredithub/internal/app/system/metrics"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// BuildHandler constructs the root router. WAFFLE calls it after Startup,
// so the shared services are already built.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	if svc == nil {
		return nil, errors.New("bootstrap: Startup has not run")
	}
	return buildRouter(svc, appCfg, deps.MongoDatabase, logger), nil
}

func buildRouter(s *services, appCfg AppConfig, db *mongo.Database, logger *zap.Logger) http.Handler {
	sm := s.sessionMgr

	r := chi.NewRouter()

	// Loads the SessionUser into context when a session cookie is present.
	r.Use(sm.LoadSessionUser)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respond.Error(w, logger, respond.NotFound("no such route"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respond.JSON(w, http.StatusMethodNotAllowed, respond.Envelope{
			Message: "method not allowed",
			Error:   "METHOD_NOT_ALLOWED",
		})
	})

	healthHandler := healthfeature.NewHandler(db, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", metrics.Handler())

	// Uploaded documents
	prefix := strings.TrimRight(appCfg.PublicPrefix, "/")
	r.Handle(prefix+"/*", http.StripPrefix(prefix, s.files.FileServer()))

	r.Route("/api", func(api chi.Router) {
		// Authentication
		loginHandler := loginfeature.NewHandler(db, sm, s.audit, s.loginLimiter, logger)
		regHandler := registrationfeature.NewHandler(db, s.mail, s.audit, s.codeLimiter,
			appCfg.SiteName, appCfg.EmailVerifyExpiry, logger)
		api.Route("/auth", func(ar chi.Router) {
			ar.Mount("/register", registrationfeature.Routes(regHandler))
			ar.Mount("/staff", registrationfeature.StaffRoutes(regHandler, sm))
			ar.Mount("/", loginfeature.Routes(loginHandler, sm))
		})

		// Organizations and their profiles
		orgHandler := organizationsfeature.NewHandler(db, sm, s.audit, s.notifier, logger)
		api.Mount("/organizations", organizationsfeature.Routes(orgHandler, sm))

		docHandler := documentsfeature.NewHandler(db, s.files, appCfg.UploadMaxBytes, s.audit, s.notifier, logger)
		profileRouter := organizationsfeature.ProfileRoutes(orgHandler, sm)
		profileRouter.Get("/{id}/documents", docHandler.ServeListByProfile)
		api.Mount("/organization-profiles", profileRouter)
		api.Mount("/documents", documentsfeature.Routes(docHandler, sm))

		accHandler := accreditationsfeature.NewHandler(db, s.audit, s.notifier, logger)
		api.Mount("/accreditations", accreditationsfeature.Routes(accHandler, sm))

		// Accreditation sections
		rosterHandler := rostersfeature.NewHandler(db, s.audit, s.notifier, logger)
		api.Mount("/rosters", rostersfeature.Routes(rosterHandler, sm))

		presHandler := presidentsfeature.NewHandler(db, s.audit, s.notifier, logger)
		api.Mount("/presidents", presidentsfeature.Routes(presHandler, sm))

		finHandler := financialreportsfeature.NewHandler(db, s.audit, logger)
		api.Mount("/financial-reports", financialreportsfeature.Routes(finHandler, sm))

		propHandler := proposalsfeature.NewHandler(db, s.audit, s.notifier, logger)
		api.Mount("/action-plans", proposalsfeature.PlanRoutes(propHandler, sm))
		api.Mount("/proposals", proposalsfeature.ProposalRoutes(propHandler, sm))
		api.Mount("/conducts", proposalsfeature.ConductRoutes(propHandler, sm))

		// Audit trail
		auditHandler := auditlogfeature.NewHandler(db, logger)
		api.Mount("/audit", auditlogfeature.Routes(auditHandler, sm))
	})

	return r
}
