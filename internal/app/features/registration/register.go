// internal/app/features/registration/register.go
package registration

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/accredithub/internal/app/store/emailverify"
	profilestore "github.com/dalemusser/accredithub/internal/app/store/profiles"
	userstore "github.com/dalemusser/accredithub/internal/app/store/users"
	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/dalemusser/accredithub/internal/app/system/inputval"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/dalemusser/accredithub/internal/app/system/timeouts"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"go.uber.org/zap"
)

type registerRequest struct {
	Email                 string `json:"email" validate:"required,email"`
	Code                  string `json:"code" validate:"required,len=6,numeric"`
	Name                  string `json:"name" validate:"required,max=200"`
	Password              string `json:"password" validate:"required,min=8,max=72"`
	Position              string `json:"position"`
	OrganizationProfileID string `json:"organizationProfileId" validate:"required"`
}

// HandleRegister handles POST /api/auth/register. Only student leaders
// register themselves; reviewer and office accounts are created through
// POST /api/auth/staff.
//
// The code is checked first; a wrong code never reveals whether the rest of
// the form was valid. The code is consumed only once the account exists, so
// a duplicate email can be corrected without requesting a new code.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.Position = strings.ToLower(strings.TrimSpace(req.Position))
	if err := inputval.Validate(req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if req.Position != "" && req.Position != authz.StudentLeader {
		respond.Error(w, h.Log, inputval.Field("position", "only student leaders may register; staff accounts are created by the office"))
		return
	}
	pid, err := inputval.ObjectID("organizationProfileId", req.OrganizationProfileID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	profileID := &pid

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	v, err := h.EmailVerify.Check(ctx, req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, emailverify.ErrTooManyAttempts):
			h.AuditLog.VerificationCodeFailed(ctx, r, req.Email, "too many attempts")
			respond.Error(w, h.Log, respond.TooMany("too many attempts; request a new code"))
		case errors.Is(err, emailverify.ErrNotFound), errors.Is(err, emailverify.ErrInvalidCode):
			h.AuditLog.VerificationCodeFailed(ctx, r, req.Email, err.Error())
			respond.JSON(w, http.StatusBadRequest, respond.Envelope{
				Message: "the verification code is invalid or has expired",
				Error:   "INVALID_CODE",
			})
		default:
			respond.Error(w, h.Log, err)
		}
		return
	}

	ok, err := profilestore.New(h.DB).Exists(ctx, pid)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if !ok {
		respond.Error(w, h.Log, respond.NotFound("organization profile not found"))
		return
	}

	u, err := userstore.New(h.DB).Create(ctx, models.User{
		Name:                  req.Name,
		Email:                 req.Email,
		Position:              authz.StudentLeader,
		OrganizationProfileID: profileID,
	}, req.Password)
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		respond.Error(w, h.Log, respond.Conflict("DUPLICATE_EMAIL", "an account with this email already exists"))
		return
	}
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	if err := h.EmailVerify.Consume(ctx, v.ID); err != nil {
		h.Log.Warn("verification code not consumed", zap.String("email", req.Email), zap.Error(err))
	}

	h.AuditLog.UserRegistered(ctx, r, u.ID, u.OrganizationProfileID, u.Position)
	respond.Created(w, "Account created", userstore.SessionUserOf(&u))
}
