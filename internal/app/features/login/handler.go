// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	userstore "github.com/dalemusser/accredithub/internal/app/store/users"
	"github.com/dalemusser/accredithub/internal/app/system/auditlog"
	"github.com/dalemusser/accredithub/internal/app/system/auth"
	"github.com/dalemusser/accredithub/internal/app/system/inputval"
	"github.com/dalemusser/accredithub/internal/app/system/ratelimit"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/dalemusser/accredithub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.EmailLimiter
}

func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	audit *auditlog.Logger,
	limiter *ratelimit.EmailLimiter,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Limiter:    limiter,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

var errBadCredentials = &respond.HTTPError{
	Status:  http.StatusUnauthorized,
	Code:    "INVALID_CREDENTIALS",
	Message: "email or password is incorrect",
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/auth/login                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := inputval.Validate(req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, req.Email); !ok {
			h.AuditLog.LoginFailedRateLimit(ctx, r, req.Email)
			respond.Error(w, h.Log, respond.TooMany(msg))
			return
		}
	}

	u, err := userstore.New(h.DB).GetByEmail(ctx, req.Email)
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		h.AuditLog.LoginFailedUserNotFound(ctx, r, req.Email)
		respond.Error(w, h.Log, errBadCredentials)
		return
	case err != nil:
		respond.Error(w, h.Log, err)
		return
	}

	if !userstore.CheckPassword(u, req.Password) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, req.Email)
		respond.Error(w, h.Log, errBadCredentials)
		return
	}
	if u.Status == userstore.StatusDisabled {
		respond.Error(w, h.Log, respond.Forbidden("your account is disabled; contact the SDU office"))
		return
	}

	su := userstore.SessionUserOf(u)
	if err := h.SessionMgr.Login(w, r, *su); err != nil {
		h.Log.Error("session save failed", zap.Error(err))
		respond.Error(w, h.Log, err)
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(req.Email)
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.OrganizationProfileID, u.Email)

	respond.Message(w, "Signed in", su)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/auth/logout                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()
		h.AuditLog.Logout(ctx, r, u.ID, u.OrganizationProfileID)
	}
	if err := h.SessionMgr.Logout(w, r); err != nil {
		h.Log.Warn("session clear failed", zap.Error(err))
	}
	respond.Message(w, "Signed out", nil)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/auth/me                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeMe returns the session user, refreshed from the database so a changed
// organization profile link shows without signing in again.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		respond.JSON(w, http.StatusUnauthorized, respond.Envelope{Message: "sign in required", Error: "UNAUTHORIZED"})
		return
	}
	if fresh := userstore.NewFetcher(h.DB).FetchUser(r.Context(), u.ID); fresh != nil {
		u = fresh
	} else {
		respond.JSON(w, http.StatusUnauthorized, respond.Envelope{Message: "account no longer available", Error: "UNAUTHORIZED"})
		return
	}
	respond.OK(w, u)
}
