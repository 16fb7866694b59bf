package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session constants                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	isAuthKey     = "is_authenticated"
	userIDKey     = "user_id"
	userNameKey   = "user_name"
	userEmailKey  = "user_email"
	userPosKey    = "user_position"
	userProfileID = "user_profile_id"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is what we cache in the session & inject into r.Context().
type SessionUser struct {
	ID                    string `json:"userId"`
	Name                  string `json:"name"`
	Email                 string `json:"email"`
	Position              string `json:"position"`
	OrganizationProfileID string `json:"organizationProfile,omitempty"`
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithTestUser injects u into the request context. Intended for tests.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| SessionManager                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager owns the session store and the auth middleware.
type SessionManager struct {
	store sessions.Store
	name  string
	opts  sessions.Options
	log   *zap.Logger
}

// NewSessionManager builds a manager backed by a cookie store. Use UseStore to
// switch to a server-side store that shares the same cookie options.
//
// In production (secure=true), cookies are Secure + SameSite=None.
// In local dev over http://localhost, use secure=false so cookies are accepted.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "accredithub-session"
	}

	opts := sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	}

	cs := sessions.NewCookieStore([]byte(sessionKey))
	cs.Options = &opts
	cs.MaxAge(opts.MaxAge)

	logger.Info("session manager initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: cs, name: name, opts: opts, log: logger}, nil
}

// Options returns a copy of the cookie options.
func (sm *SessionManager) Options() sessions.Options { return sm.opts }

// UseStore replaces the backing store.
func (sm *SessionManager) UseStore(s sessions.Store) {
	sm.store = s
}

// LoadSessionUser injects the user into context if they are logged in.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.store.Get(r, sm.name)
		if err != nil {
			// Tampered, expired, or unreadable; treat as signed out.
			sm.log.Debug("session load failed", zap.Error(err))
		}
		if sess != nil {
			if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
				r = withUser(r, &SessionUser{
					ID:                    getString(sess, userIDKey),
					Name:                  getString(sess, userNameKey),
					Email:                 getString(sess, userEmailKey),
					Position:              getString(sess, userPosKey),
					OrganizationProfileID: getString(sess, userProfileID),
				})
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Login writes u into a fresh session.
func (sm *SessionManager) Login(w http.ResponseWriter, r *http.Request, u SessionUser) error {
	sess, _ := sm.store.Get(r, sm.name)
	if sess == nil {
		sess = sessions.NewSession(sm.store, sm.name)
		opts := sm.opts
		sess.Options = &opts
	}
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[userNameKey] = u.Name
	sess.Values[userEmailKey] = u.Email
	sess.Values[userPosKey] = u.Position
	sess.Values[userProfileID] = u.OrganizationProfileID
	return sess.Save(r, w)
}

// Logout clears the session and expires the cookie.
func (sm *SessionManager) Logout(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.store.Get(r, sm.name)
	if sess == nil {
		return nil
	}
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	opts := sm.opts
	opts.MaxAge = -1
	sess.Options = &opts
	return sess.Save(r, w)
}

// RequireSignedIn rejects requests without a user in context (set by LoadSessionUser).
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		respond.JSON(w, http.StatusUnauthorized, respond.Envelope{Message: "sign in required", Error: "UNAUTHORIZED"})
	})
}

// RequireRole ensures there is a user holding one of the allowed positions.
func (sm *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				respond.JSON(w, http.StatusUnauthorized, respond.Envelope{Message: "sign in required", Error: "UNAUTHORIZED"})
				return
			}
			if _, has := set[strings.ToLower(u.Position)]; !has {
				respond.JSON(w, http.StatusForbidden, respond.Envelope{Message: "permission denied", Error: "FORBIDDEN"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
