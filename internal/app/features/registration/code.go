// internal/app/features/registration/code.go
package registration

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/accredithub/internal/app/store/emailverify"
	userstore "github.com/dalemusser/accredithub/internal/app/store/users"
	"github.com/dalemusser/accredithub/internal/app/system/inputval"
	"github.com/dalemusser/accredithub/internal/app/system/mailer"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/dalemusser/accredithub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type codeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// HandleRequestCode handles POST /api/auth/register/code.
//
// The code must reach the user before registration can continue, so a
// delivery failure fails the request and the stored code is discarded.
func (h *Handler) HandleRequestCode(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := inputval.Validate(req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, req.Email); !ok {
			respond.Error(w, h.Log, respond.TooMany(msg))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	taken, err := userstore.New(h.DB).EmailExists(ctx, req.Email)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if taken {
		respond.Error(w, h.Log, respond.Conflict("DUPLICATE_EMAIL", "an account with this email already exists"))
		return
	}

	code, err := h.EmailVerify.Create(ctx, req.Email)
	if errors.Is(err, emailverify.ErrTooManyResends) {
		respond.Error(w, h.Log, respond.TooMany("too many verification codes requested for this email; try again later"))
		return
	}
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	e := mailer.BuildVerificationEmail(mailer.VerificationEmailData{
		SiteName:  h.SiteName,
		Code:      code,
		ExpiresIn: formatExpiry(h.EmailVerify.Expiry()),
	})
	e.To = req.Email
	if err := h.Mail.Send(ctx, e); err != nil {
		h.Log.Error("verification email failed", zap.String("email", req.Email), zap.Error(err))
		_ = h.EmailVerify.Delete(ctx, req.Email)
		respond.JSON(w, http.StatusBadGateway, respond.Envelope{
			Message: "the verification email could not be sent",
			Error:   "EMAIL_NOT_SENT",
		})
		return
	}

	h.AuditLog.VerificationCodeSent(ctx, r, req.Email)
	respond.Message(w, "Verification code sent", map[string]any{
		"email":     req.Email,
		"expiresIn": formatExpiry(h.EmailVerify.Expiry()),
	})
}
