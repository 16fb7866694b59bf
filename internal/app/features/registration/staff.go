// internal/app/features/registration/staff.go
package registration

import (
	"context"
	"errors"
	"net/http"
	"strings"

	userstore "github.com/dalemusser/accredithub/internal/app/store/users"
	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/dalemusser/accredithub/internal/app/system/inputval"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/dalemusser/accredithub/internal/app/system/timeouts"
	"github.com/dalemusser/accredithub/internal/domain/models"
)

type staffRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=200"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Position string `json:"position" validate:"required"`
}

// HandleCreateStaff handles POST /api/auth/staff. Office roles create
// reviewer and office accounts; only an admin may create another admin.
func (h *Handler) HandleCreateStaff(w http.ResponseWriter, r *http.Request) {
	callerPos, _, _, ok := authz.UserCtx(r)
	if !ok {
		respond.Error(w, h.Log, respond.Forbidden("sign in required"))
		return
	}

	var req staffRequest
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
	if !authz.IsValidPosition(req.Position) || req.Position == authz.StudentLeader {
		respond.Error(w, h.Log, inputval.Field("position", "position must be a staff role"))
		return
	}
	if req.Position == authz.Admin && callerPos != authz.Admin {
		respond.Error(w, h.Log, respond.Forbidden("only an admin may create an admin account"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := userstore.New(h.DB).Create(ctx, models.User{
		Name:     req.Name,
		Email:    req.Email,
		Position: req.Position,
	}, req.Password)
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		respond.Error(w, h.Log, respond.Conflict("DUPLICATE_EMAIL", "an account with this email already exists"))
		return
	}
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	h.AuditLog.StaffAccountCreated(ctx, r, u.ID, u.Position)
	respond.Created(w, "Account created", userstore.SessionUserOf(&u))
}
