package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dalemusser/accredithub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID                    string
	Name                  string
	Email                 string
	Position              string
	OrganizationProfileID string
}

// AdminUser returns a TestUser with the admin position.
func AdminUser() TestUser {
	return TestUser{
		ID:       primitive.NewObjectID().Hex(),
		Name:     "Test Admin",
		Email:    "admin@test.com",
		Position: "admin",
	}
}

// SDUUser returns a TestUser with the SDU position.
func SDUUser() TestUser {
	return TestUser{
		ID:       primitive.NewObjectID().Hex(),
		Name:     "Test SDU",
		Email:    "sdu@test.com",
		Position: "sdu",
	}
}

// AdviserUser returns a TestUser with the adviser position.
func AdviserUser() TestUser {
	return TestUser{
		ID:       primitive.NewObjectID().Hex(),
		Name:     "Test Adviser",
		Email:    "adviser@test.com",
		Position: "adviser",
	}
}

// StudentLeader returns a TestUser managing the given organization profile.
func StudentLeader(profileID primitive.ObjectID) TestUser {
	return TestUser{
		ID:                    primitive.NewObjectID().Hex(),
		Name:                  "Test Leader",
		Email:                 "leader@test.com",
		Position:              "student-leader",
		OrganizationProfileID: profileID.Hex(),
	}
}

// WithUser adds a user to the request context for testing authenticated handlers.
// This bypasses the session middleware and injects the user directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:                    user.ID,
		Name:                  user.Name,
		Email:                 user.Email,
		Position:              user.Position,
		OrganizationProfileID: user.OrganizationProfileID,
	})
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates a request with v encoded as the JSON body.
func NewJSONRequest(method, target string, v any) *http.Request {
	var body io.Reader
	switch b := v.(type) {
	case nil:
	case string:
		body = strings.NewReader(b)
	default:
		buf, err := json.Marshal(v)
		if err != nil {
			panic(err)
		}
		body = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	return WithUser(httptest.NewRequest(method, target, nil), user)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body: %s)", r.Code, expected, r.Body.String())
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

// Envelope is the decoded JSON response body.
type Envelope struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// DecodeEnvelope decodes the response body and, when out is non-nil, its data.
func (r *ResponseRecorder) DecodeEnvelope(t interface {
	Fatalf(string, ...any)
}, out any) Envelope {
	var env Envelope
	if err := json.Unmarshal(r.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body: %s)", err, r.Body.String())
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("decode data: %v (data: %s)", err, env.Data)
		}
	}
	return env
}
